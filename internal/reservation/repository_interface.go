package reservation

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Repository is the reservation store. Methods taking a sqlx.ExtContext run
// inside the caller's transaction.
type Repository interface {
	Create(ctx context.Context, q sqlx.ExtContext, r *Reservation) (*Reservation, error)
	GetByID(ctx context.Context, id string) (*Reservation, error)
	GetForUpdate(ctx context.Context, q sqlx.ExtContext, id string) (*Reservation, error)
	MarkCancelled(ctx context.Context, q sqlx.ExtContext, id string) (*Reservation, error)
	ListByUser(ctx context.Context, userID string) ([]Reservation, error)
	ListByTrainer(ctx context.Context, trainerID string) ([]Reservation, error)
}
