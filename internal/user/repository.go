package user

import (
	"context"
	"database/sql"
	"errors"

	"coachslot/internal/apperr"
	"coachslot/internal/auth"
	"coachslot/internal/db"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, name, email, phone, password_hash, role, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name, email, phone, passwordHash string, role auth.Role) (*User, error) {
	query := `
		INSERT INTO users (name, email, phone, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	var user User
	if err := r.db.GetContext(ctx, &user, query, name, email, phone, passwordHash, role); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *repository) Update(ctx context.Context, id, name, phone string) (*User, error) {
	query := `
		UPDATE users
		SET name = $2, phone = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var user User
	if err := r.db.GetContext(ctx, &user, query, id, name, phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (r *repository) findOne(ctx context.Context, query, arg string) (*User, error) {
	var user User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
