package reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"coachslot/internal/apperr"
	"coachslot/internal/availability"
	"coachslot/internal/db"
	"coachslot/internal/events"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// world is an in-memory store for slots and reservations. WithinTx holds a
// single lock for the whole unit of work and restores a snapshot when fn
// fails, which gives callers serializable all-or-nothing semantics.
type world struct {
	mu        sync.Mutex
	slots     []availability.Slot
	res       map[string]Reservation
	seq       int64
	commitErr error
}

func newWorld() *world {
	return &world{res: map[string]Reservation{}}
}

func (w *world) WithinTx(ctx context.Context, fn func(tx sqlx.ExtContext) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	slots := append([]availability.Slot(nil), w.slots...)
	res := make(map[string]Reservation, len(w.res))
	for k, v := range w.res {
		res[k] = v
	}

	err := fn(nil)
	if err == nil {
		err = w.commitErr
	}
	if err != nil {
		w.slots, w.res = slots, res
	}
	return err
}

// racingTx runs rival before failing its first unit of work with a
// serialization conflict, as Postgres does when another transaction took
// the row lock and committed.
type racingTx struct {
	*world
	rival func()
}

func (r *racingTx) WithinTx(ctx context.Context, fn func(tx sqlx.ExtContext) error) error {
	if r.rival != nil {
		rival := r.rival
		r.rival = nil
		rival()
		return fmt.Errorf("commit transaction: %w", db.ErrConflict)
	}
	return r.world.WithinTx(ctx, fn)
}

func (w *world) publish(trainerID string, starts ...time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range starts {
		w.slots = append(w.slots, availability.Slot{
			ID:        uuid.NewString(),
			TrainerID: trainerID,
			StartAt:   s,
			EndAt:     s.Add(availability.SlotDuration),
		})
	}
}

func (w *world) booked(trainerID string, start time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.slots {
		if s.TrainerID == trainerID && s.StartAt.Equal(start) {
			return s.IsBooked
		}
	}
	return false
}

func (w *world) reservationCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.res)
}

// slotStore implements availability.Repository over the world.
type slotStore struct{ w *world }

func inRange(s availability.Slot, trainerID string, from, to time.Time) bool {
	return s.TrainerID == trainerID && !s.StartAt.Before(from) && s.StartAt.Before(to)
}

func (s slotStore) InsertSlots(context.Context, string, []time.Time) ([]availability.Slot, error) {
	return nil, errors.New("not used")
}

func (s slotStore) ListByRange(context.Context, time.Time, time.Time, string) ([]availability.Slot, error) {
	return nil, errors.New("not used")
}

func (s slotStore) GetByID(context.Context, string) (*availability.Slot, error) {
	return nil, errors.New("not used")
}

func (s slotStore) DeleteUnbooked(context.Context, string, string) (bool, error) {
	return false, errors.New("not used")
}

func (s slotStore) LockRange(_ context.Context, _ sqlx.ExtContext, trainerID string, from, to time.Time) ([]availability.Slot, error) {
	var out []availability.Slot
	for _, sl := range s.w.slots {
		if inRange(sl, trainerID, from, to) {
			out = append(out, sl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (s slotStore) MarkBooked(_ context.Context, _ sqlx.ExtContext, ids []string) (int64, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var n int64
	for i := range s.w.slots {
		if want[s.w.slots[i].ID] && !s.w.slots[i].IsBooked {
			s.w.slots[i].IsBooked = true
			n++
		}
	}
	return n, nil
}

func (s slotStore) ReleaseRange(_ context.Context, _ sqlx.ExtContext, trainerID string, from, to time.Time) (int64, error) {
	var n int64
	for i := range s.w.slots {
		if inRange(s.w.slots[i], trainerID, from, to) && s.w.slots[i].IsBooked {
			s.w.slots[i].IsBooked = false
			n++
		}
	}
	return n, nil
}

// resStore implements Repository over the world. Methods without a tx
// argument take the world lock themselves.
type resStore struct{ w *world }

func (s resStore) Create(_ context.Context, _ sqlx.ExtContext, r *Reservation) (*Reservation, error) {
	c := *r
	c.ID = uuid.NewString()
	c.Status = StatusActive
	s.w.seq++
	c.CreatedAt = time.Unix(s.w.seq, 0)
	c.UpdatedAt = c.CreatedAt
	s.w.res[c.ID] = c
	return &c, nil
}

func (s resStore) GetByID(_ context.Context, id string) (*Reservation, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	r, ok := s.w.res[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &r, nil
}

func (s resStore) GetForUpdate(_ context.Context, _ sqlx.ExtContext, id string) (*Reservation, error) {
	r, ok := s.w.res[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &r, nil
}

func (s resStore) MarkCancelled(_ context.Context, _ sqlx.ExtContext, id string) (*Reservation, error) {
	r, ok := s.w.res[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	r.Status = StatusCancelled
	r.UpdatedAt = r.UpdatedAt.Add(time.Second)
	s.w.res[id] = r
	return &r, nil
}

func (s resStore) list(match func(Reservation) bool) []Reservation {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	out := []Reservation{}
	for _, r := range s.w.res {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s resStore) ListByUser(_ context.Context, userID string) ([]Reservation, error) {
	return s.list(func(r Reservation) bool { return r.UserID == userID }), nil
}

func (s resStore) ListByTrainer(_ context.Context, trainerID string) ([]Reservation, error) {
	return s.list(func(r Reservation) bool { return r.TrainerID == trainerID }), nil
}

type names map[string]string

func (n names) FindName(_ context.Context, id string) (string, error) {
	name, ok := n[id]
	if !ok {
		return "", apperr.ErrNotFound
	}
	return name, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type recordingCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (c *recordingCache) GetDay(context.Context, string, string) ([]availability.Slot, int64, bool) {
	return nil, -1, false
}

func (c *recordingCache) SetDay(context.Context, string, string, int64, []availability.Slot) {}

func (c *recordingCache) InvalidateDay(_ context.Context, date, trainerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, date+"/"+trainerID)
}
