package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"coachslot/internal/apperr"
	"coachslot/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	trainer = auth.Requester{ID: trainerID, Role: auth.RoleTrainer}
	trainee = auth.Requester{ID: otherID, Role: auth.RoleTrainee}
)

func input(hour, min int) SlotInput {
	return SlotInput{StartAt: at(hour, min), EndAt: at(hour, min).Add(SlotDuration)}
}

func TestPublish_CreatesAndInvalidates(t *testing.T) {
	repo := new(MockRepo)
	cache := newMemCache()
	svc := NewService(repo, cache, time.UTC)
	ctx := context.Background()

	cache.SetDay(ctx, "2025-06-10", "", 0, []Slot{})
	created := []Slot{{ID: "a", TrainerID: trainerID, StartAt: at(9, 0), EndAt: at(9, 30)}}
	repo.On("InsertSlots", ctx, trainerID, []time.Time{at(9, 0), at(9, 30)}).Return(created, nil)

	got, err := svc.Publish(ctx, trainer, PublishRequest{
		TrainerID: trainerID,
		Slots:     []SlotInput{input(9, 0), input(9, 30), input(9, 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, _, cached := cache.GetDay(ctx, "2025-06-10", "")
	assert.False(t, cached)
	assert.ElementsMatch(t, []string{"2025-06-10/" + trainerID, "2025-06-10/all"}, cache.invalidated)
	repo.AssertExpectations(t)
}

func TestPublish_Authorization(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, nil, time.UTC)
	req := PublishRequest{TrainerID: trainerID, Slots: []SlotInput{input(9, 0)}}

	_, err := svc.Publish(context.Background(), trainee, req)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	other := auth.Requester{ID: otherID, Role: auth.RoleTrainer}
	_, err = svc.Publish(context.Background(), other, req)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	repo.AssertNotCalled(t, "InsertSlots", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublish_RejectsMalformedSlots(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, nil, time.UTC)

	cases := map[string]SlotInput{
		"misaligned": {StartAt: at(9, 10), EndAt: at(9, 40)},
		"too long":   {StartAt: at(9, 0), EndAt: at(10, 0)},
		"seconds":    {StartAt: at(9, 0).Add(time.Second), EndAt: at(9, 30).Add(time.Second)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Publish(context.Background(), trainer, PublishRequest{TrainerID: trainerID, Slots: []SlotInput{in}})
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	repo.AssertNotCalled(t, "InsertSlots", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublish_StoreFailure(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, nil, time.UTC)
	ctx := context.Background()

	repo.On("InsertSlots", ctx, trainerID, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := svc.Publish(ctx, trainer, PublishRequest{TrainerID: trainerID, Slots: []SlotInput{input(9, 0)}})
	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
}

func TestList_MissThenHit(t *testing.T) {
	repo := new(MockRepo)
	cache := newMemCache()
	svc := NewService(repo, cache, time.UTC)
	ctx := context.Background()

	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	slots := []Slot{{ID: "a", TrainerID: trainerID, StartAt: at(9, 0), EndAt: at(9, 30)}}
	repo.On("ListByRange", ctx, day, day.AddDate(0, 0, 1), trainerID).Return(slots, nil).Once()

	got, err := svc.List(ctx, "2025-06-10", trainerID)
	require.NoError(t, err)
	assert.Equal(t, slots, got)

	got, err = svc.List(ctx, "2025-06-10", trainerID)
	require.NoError(t, err)
	assert.Equal(t, slots, got)

	repo.AssertNumberOfCalls(t, "ListByRange", 1)
}

func TestList_InvalidationDuringReadIsNotCached(t *testing.T) {
	repo := new(MockRepo)
	cache := newMemCache()
	svc := NewService(repo, cache, time.UTC)
	ctx := context.Background()

	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	free := []Slot{{ID: "a", TrainerID: trainerID, StartAt: at(9, 0), EndAt: at(9, 30)}}
	booked := []Slot{{ID: "a", TrainerID: trainerID, StartAt: at(9, 0), EndAt: at(9, 30), IsBooked: true}}

	// A booking commits and invalidates while the first listing is in flight.
	repo.On("ListByRange", ctx, day, day.AddDate(0, 0, 1), trainerID).Return(free, nil).Once().
		Run(func(mock.Arguments) { cache.InvalidateDay(ctx, "2025-06-10", trainerID) })
	repo.On("ListByRange", ctx, day, day.AddDate(0, 0, 1), trainerID).Return(booked, nil).Once()

	got, err := svc.List(ctx, "2025-06-10", trainerID)
	require.NoError(t, err)
	assert.False(t, got[0].IsBooked)

	got, err = svc.List(ctx, "2025-06-10", trainerID)
	require.NoError(t, err)
	assert.True(t, got[0].IsBooked, "stale listing must not be served")

	got, err = svc.List(ctx, "2025-06-10", trainerID)
	require.NoError(t, err)
	assert.True(t, got[0].IsBooked)
	repo.AssertNumberOfCalls(t, "ListByRange", 2)
}

func TestList_Validation(t *testing.T) {
	svc := NewService(new(MockRepo), nil, time.UTC)

	_, err := svc.List(context.Background(), "10/06/2025", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.List(context.Background(), "2025-06-10", "not-a-uuid")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("owner deletes free slot", func(t *testing.T) {
		repo := new(MockRepo)
		cache := newMemCache()
		svc := NewService(repo, cache, time.UTC)

		repo.On("GetByID", ctx, slotID).Return(&Slot{ID: slotID, TrainerID: trainerID, StartAt: at(9, 0)}, nil)
		repo.On("DeleteUnbooked", ctx, slotID, trainerID).Return(true, nil)

		require.NoError(t, svc.Delete(ctx, trainer, slotID))
		assert.Len(t, cache.invalidated, 2)
	})

	t.Run("trainee forbidden", func(t *testing.T) {
		svc := NewService(new(MockRepo), nil, time.UTC)
		assert.ErrorIs(t, svc.Delete(ctx, trainee, slotID), apperr.ErrForbidden)
	})

	t.Run("other trainer forbidden", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, nil, time.UTC)
		repo.On("GetByID", ctx, slotID).Return(&Slot{ID: slotID, TrainerID: otherID}, nil)

		assert.ErrorIs(t, svc.Delete(ctx, trainer, slotID), apperr.ErrForbidden)
	})

	t.Run("booked slot", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, nil, time.UTC)
		repo.On("GetByID", ctx, slotID).Return(&Slot{ID: slotID, TrainerID: trainerID, IsBooked: true}, nil)

		assert.ErrorIs(t, svc.Delete(ctx, trainer, slotID), apperr.ErrSlotAlreadyBooked)
		repo.AssertNotCalled(t, "DeleteUnbooked", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("booked concurrently", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, nil, time.UTC)
		repo.On("GetByID", ctx, slotID).Return(&Slot{ID: slotID, TrainerID: trainerID}, nil)
		repo.On("DeleteUnbooked", ctx, slotID, trainerID).Return(false, nil)

		assert.ErrorIs(t, svc.Delete(ctx, trainer, slotID), apperr.ErrSlotAlreadyBooked)
	})

	t.Run("deleted concurrently", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, nil, time.UTC)
		repo.On("GetByID", ctx, slotID).Return(&Slot{ID: slotID, TrainerID: trainerID}, nil).Once()
		repo.On("GetByID", ctx, slotID).Return(nil, apperr.ErrNotFound)
		repo.On("DeleteUnbooked", ctx, slotID, trainerID).Return(false, nil)

		assert.ErrorIs(t, svc.Delete(ctx, trainer, slotID), apperr.ErrNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, nil, time.UTC)
		repo.On("GetByID", ctx, slotID).Return(nil, apperr.ErrNotFound)

		assert.ErrorIs(t, svc.Delete(ctx, trainer, slotID), apperr.ErrNotFound)
		assert.ErrorIs(t, svc.Delete(ctx, trainer, "garbage"), apperr.ErrNotFound)
	})
}
