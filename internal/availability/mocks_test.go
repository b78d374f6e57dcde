package availability

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
)

type MockRepo struct{ mock.Mock }

func (m *MockRepo) InsertSlots(ctx context.Context, trainerID string, starts []time.Time) ([]Slot, error) {
	args := m.Called(ctx, trainerID, starts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Slot), args.Error(1)
}

func (m *MockRepo) ListByRange(ctx context.Context, from, to time.Time, trainerID string) ([]Slot, error) {
	args := m.Called(ctx, from, to, trainerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Slot), args.Error(1)
}

func (m *MockRepo) GetByID(ctx context.Context, id string) (*Slot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Slot), args.Error(1)
}

func (m *MockRepo) DeleteUnbooked(ctx context.Context, id, trainerID string) (bool, error) {
	args := m.Called(ctx, id, trainerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepo) LockRange(ctx context.Context, q sqlx.ExtContext, trainerID string, from, to time.Time) ([]Slot, error) {
	args := m.Called(ctx, q, trainerID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Slot), args.Error(1)
}

func (m *MockRepo) MarkBooked(ctx context.Context, q sqlx.ExtContext, ids []string) (int64, error) {
	args := m.Called(ctx, q, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepo) ReleaseRange(ctx context.Context, q sqlx.ExtContext, trainerID string, from, to time.Time) (int64, error) {
	args := m.Called(ctx, q, trainerID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

type memEntry struct {
	version int64
	slots   []Slot
}

// memCache records invalidations and serves entries stored under the
// current version.
type memCache struct {
	entries     map[string]memEntry
	versions    map[string]int64
	invalidated []string
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]memEntry{}, versions: map[string]int64{}}
}

func (c *memCache) key(date, trainerID string) string {
	if trainerID == "" {
		trainerID = "all"
	}
	return date + "/" + trainerID
}

func (c *memCache) GetDay(_ context.Context, date, trainerID string) ([]Slot, int64, bool) {
	k := c.key(date, trainerID)
	v := c.versions[k]
	e, ok := c.entries[k]
	if !ok || e.version != v {
		return nil, v, false
	}
	return e.slots, v, true
}

func (c *memCache) SetDay(_ context.Context, date, trainerID string, version int64, slots []Slot) {
	if version < 0 {
		return
	}
	c.entries[c.key(date, trainerID)] = memEntry{version: version, slots: slots}
}

func (c *memCache) InvalidateDay(_ context.Context, date, trainerID string) {
	k := c.key(date, trainerID)
	c.versions[k]++
	c.invalidated = append(c.invalidated, k)
}
