package availability

import (
	"context"
	"fmt"
	"time"

	"coachslot/internal/apperr"
	"coachslot/internal/auth"
	"coachslot/internal/db"
	"coachslot/internal/deadline"
	"coachslot/internal/logger"
	"coachslot/internal/metrics"

	"github.com/google/uuid"
)

type Service interface {
	Publish(ctx context.Context, requester auth.Requester, req PublishRequest) ([]Slot, error)
	List(ctx context.Context, date, trainerID string) ([]Slot, error)
	Delete(ctx context.Context, requester auth.Requester, slotID string) error
}

type service struct {
	repo  Repository
	cache Cache
	loc   *time.Location
}

func NewService(repo Repository, cache Cache, loc *time.Location) Service {
	if cache == nil {
		cache = NopCache{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &service{repo: repo, cache: cache, loc: loc}
}

func (s *service) Publish(ctx context.Context, requester auth.Requester, req PublishRequest) ([]Slot, error) {
	if !requester.IsTrainer() {
		return nil, fmt.Errorf("only trainers can publish availability: %w", apperr.ErrForbidden)
	}
	if req.TrainerID != requester.ID {
		return nil, fmt.Errorf("cannot publish slots for another trainer: %w", apperr.ErrForbidden)
	}
	if len(req.Slots) == 0 {
		return nil, apperr.Validation("at least one slot is required")
	}

	seen := make(map[int64]struct{}, len(req.Slots))
	starts := make([]time.Time, 0, len(req.Slots))
	for i, in := range req.Slots {
		if !Aligned(in.StartAt, s.loc) {
			return nil, apperr.Validation("slot %d: startAt %s is not on a 30 minute boundary", i, in.StartAt.Format(time.RFC3339))
		}
		if !in.EndAt.Equal(in.StartAt.Add(SlotDuration)) {
			return nil, apperr.Validation("slot %d: endAt must be 30 minutes after startAt", i)
		}
		key := in.StartAt.UnixNano()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		starts = append(starts, in.StartAt)
	}

	created, err := s.repo.InsertSlots(ctx, req.TrainerID, starts)
	if err != nil {
		return nil, db.Translate("insert slots", err, apperr.ErrStoreUnavailable)
	}

	metrics.RecordPublish(len(created), len(req.Slots)-len(created))
	s.invalidate(ctx, req.TrainerID, created)

	logger.Info("availability published",
		"trainer_id", req.TrainerID,
		"requested", len(req.Slots),
		"created", len(created),
	)

	return created, nil
}

func (s *service) List(ctx context.Context, date, trainerID string) ([]Slot, error) {
	day, err := deadline.ParseDay(date, s.loc)
	if err != nil {
		return nil, err
	}
	if trainerID != "" {
		if _, err := uuid.Parse(trainerID); err != nil {
			return nil, apperr.Validation("trainer_id must be a UUID")
		}
	}

	slots, version, ok := s.cache.GetDay(ctx, date, trainerID)
	if ok {
		metrics.RecordCacheLookup(true)
		return slots, nil
	}
	metrics.RecordCacheLookup(false)

	slots, err = s.repo.ListByRange(ctx, day, day.AddDate(0, 0, 1), trainerID)
	if err != nil {
		return nil, db.Translate("list slots", err, apperr.ErrStoreUnavailable)
	}

	s.cache.SetDay(ctx, date, trainerID, version, slots)
	return slots, nil
}

func (s *service) Delete(ctx context.Context, requester auth.Requester, slotID string) error {
	if !requester.IsTrainer() {
		return fmt.Errorf("only trainers can delete availability: %w", apperr.ErrForbidden)
	}
	if _, err := uuid.Parse(slotID); err != nil {
		return fmt.Errorf("slot %q: %w", slotID, apperr.ErrNotFound)
	}

	slot, err := s.repo.GetByID(ctx, slotID)
	if err != nil {
		return db.Translate("get slot", err, apperr.ErrStoreUnavailable)
	}
	if slot.TrainerID != requester.ID {
		return fmt.Errorf("slot belongs to another trainer: %w", apperr.ErrForbidden)
	}
	if slot.IsBooked {
		return fmt.Errorf("booked slots cannot be deleted: %w", apperr.ErrSlotAlreadyBooked)
	}

	deleted, err := s.repo.DeleteUnbooked(ctx, slotID, requester.ID)
	if err != nil {
		return db.Translate("delete slot", err, apperr.ErrStoreUnavailable)
	}
	if !deleted {
		// Booked or removed between the read and the delete.
		if _, err := s.repo.GetByID(ctx, slotID); err != nil {
			return db.Translate("get slot", err, apperr.ErrStoreUnavailable)
		}
		return fmt.Errorf("booked slots cannot be deleted: %w", apperr.ErrSlotAlreadyBooked)
	}

	s.invalidate(ctx, slot.TrainerID, []Slot{*slot})
	return nil
}

func (s *service) invalidate(ctx context.Context, trainerID string, slots []Slot) {
	InvalidateDays(ctx, s.cache, s.loc, trainerID, slots)
}

// InvalidateDays drops the cached listings touched by slots, both the
// trainer-scoped and the unscoped views.
func InvalidateDays(ctx context.Context, cache Cache, loc *time.Location, trainerID string, slots []Slot) {
	done := make(map[string]struct{})
	for _, sl := range slots {
		date := sl.StartAt.In(loc).Format(deadline.DateLayout)
		if _, ok := done[date]; ok {
			continue
		}
		done[date] = struct{}{}
		cache.InvalidateDay(ctx, date, trainerID)
		cache.InvalidateDay(ctx, date, "")
	}
}
