package user

import (
	"context"

	"coachslot/internal/auth"
)

type Repository interface {
	Create(ctx context.Context, name, email, phone, passwordHash string, role auth.Role) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, id, name, phone string) (*User, error)
}
