package availability

import (
	"context"
	"fmt"
	"time"

	"coachslot/internal/apperr"

	"github.com/jmoiron/sqlx"
)

// Allocator turns a (trainer, start, duration) request into the contiguous
// slot range it covers and books or frees that range inside a transaction.
type Allocator struct {
	repo Repository
	loc  *time.Location
}

// NewAllocator checks slot boundaries against the wall clock in loc.
func NewAllocator(repo Repository, loc *time.Location) *Allocator {
	if loc == nil {
		loc = time.Local
	}
	return &Allocator{repo: repo, loc: loc}
}

// Span returns the half-open range [startAt, startAt+minutes) after checking
// the request shape. Alignment is judged in startAt's own location.
func Span(startAt time.Time, minutes int) (time.Time, int, error) {
	n, ok := RequiredSlots(minutes)
	if !ok {
		return time.Time{}, 0, apperr.Validation("duration must be a positive multiple of 30 minutes, got %d", minutes)
	}
	if !Aligned(startAt, nil) {
		return time.Time{}, 0, apperr.Validation("start %s is not on a 30 minute boundary", startAt.Format(time.RFC3339))
	}
	return startAt.Add(time.Duration(minutes) * time.Minute), n, nil
}

// Allocate locks and books every slot in the range. Nothing is written
// unless the full range is published and free.
func (a *Allocator) Allocate(ctx context.Context, tx sqlx.ExtContext, trainerID string, startAt time.Time, minutes int) ([]Slot, error) {
	startAt = startAt.In(a.loc)
	endAt, required, err := Span(startAt, minutes)
	if err != nil {
		return nil, err
	}

	slots, err := a.repo.LockRange(ctx, tx, trainerID, startAt, endAt)
	if err != nil {
		return nil, fmt.Errorf("lock slot range: %w", err)
	}

	if len(slots) < required {
		return nil, fmt.Errorf("%d of %d slots published between %s and %s: %w",
			len(slots), required,
			startAt.Format(time.RFC3339), endAt.Format(time.RFC3339),
			apperr.ErrInsufficientAvailability,
		)
	}

	ids := make([]string, len(slots))
	for i, s := range slots {
		if s.IsBooked {
			return nil, fmt.Errorf("slot at %s: %w", s.StartAt.Format(time.RFC3339), apperr.ErrSlotAlreadyBooked)
		}
		ids[i] = s.ID
	}

	updated, err := a.repo.MarkBooked(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("mark slots booked: %w", err)
	}
	if updated != int64(len(ids)) {
		return nil, fmt.Errorf("booked %d of %d slots: %w", updated, len(ids), apperr.ErrSlotAlreadyBooked)
	}

	for i := range slots {
		slots[i].IsBooked = true
	}
	return slots, nil
}

// Release frees the range. Releasing free slots is a no-op.
func (a *Allocator) Release(ctx context.Context, tx sqlx.ExtContext, trainerID string, startAt time.Time, minutes int) (int64, error) {
	// Stored instants come back in UTC.
	startAt = startAt.In(a.loc)
	endAt, _, err := Span(startAt, minutes)
	if err != nil {
		return 0, err
	}

	released, err := a.repo.ReleaseRange(ctx, tx, trainerID, startAt, endAt)
	if err != nil {
		return 0, fmt.Errorf("release slot range: %w", err)
	}
	return released, nil
}
