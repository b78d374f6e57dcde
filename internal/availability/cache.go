package availability

import "context"

// Cache holds per-day slot listings. Implementations are best effort: a
// failed lookup is a miss and a failed write is dropped.
//
// Every day key carries a version that InvalidateDay advances. GetDay
// returns the version current at lookup, even on a miss, and SetDay stores
// under that version. A listing read from the store before a concurrent
// booking committed is therefore filed under a superseded version and never
// served. A negative version tells SetDay not to store.
type Cache interface {
	GetDay(ctx context.Context, date, trainerID string) (slots []Slot, version int64, ok bool)
	SetDay(ctx context.Context, date, trainerID string, version int64, slots []Slot)
	InvalidateDay(ctx context.Context, date, trainerID string)
}

type NopCache struct{}

func (NopCache) GetDay(context.Context, string, string) ([]Slot, int64, bool) { return nil, -1, false }
func (NopCache) SetDay(context.Context, string, string, int64, []Slot)        {}
func (NopCache) InvalidateDay(context.Context, string, string)                {}
