package availability

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository is the slot store. Methods taking a sqlx.ExtContext run inside
// the caller's transaction.
type Repository interface {
	InsertSlots(ctx context.Context, trainerID string, starts []time.Time) ([]Slot, error)
	ListByRange(ctx context.Context, from, to time.Time, trainerID string) ([]Slot, error)
	GetByID(ctx context.Context, id string) (*Slot, error)
	DeleteUnbooked(ctx context.Context, id, trainerID string) (bool, error)

	LockRange(ctx context.Context, q sqlx.ExtContext, trainerID string, from, to time.Time) ([]Slot, error)
	MarkBooked(ctx context.Context, q sqlx.ExtContext, ids []string) (int64, error)
	ReleaseRange(ctx context.Context, q sqlx.ExtContext, trainerID string, from, to time.Time) (int64, error)
}
