package reservation

import (
	"context"
	"database/sql"
	"errors"

	"coachslot/internal/apperr"

	"github.com/jmoiron/sqlx"
)

const reservationColumns = `id, user_id, user_name, trainer_id, date, start_time, end_time,
	start_at, course_minutes, status, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, q sqlx.ExtContext, res *Reservation) (*Reservation, error) {
	query := `
		INSERT INTO reservations (user_id, user_name, trainer_id, date, start_time, end_time, start_at, course_minutes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + reservationColumns

	var created Reservation
	err := sqlx.GetContext(ctx, q, &created, query,
		res.UserID, res.UserName, res.TrainerID,
		res.Date, res.StartTime, res.EndTime,
		res.StartAt, res.CourseMinutes, StatusActive,
	)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Reservation, error) {
	return r.get(ctx, r.db, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
}

// GetForUpdate reads the reservation and row-locks it for the rest of the
// transaction.
func (r *repository) GetForUpdate(ctx context.Context, q sqlx.ExtContext, id string) (*Reservation, error) {
	return r.get(ctx, q, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id)
}

func (r *repository) MarkCancelled(ctx context.Context, q sqlx.ExtContext, id string) (*Reservation, error) {
	query := `
		UPDATE reservations
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + reservationColumns

	var res Reservation
	if err := sqlx.GetContext(ctx, q, &res, query, id, StatusCancelled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	return &res, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]Reservation, error) {
	return r.list(ctx, `WHERE user_id = $1`, userID)
}

func (r *repository) ListByTrainer(ctx context.Context, trainerID string) ([]Reservation, error) {
	return r.list(ctx, `WHERE trainer_id = $1`, trainerID)
}

func (r *repository) get(ctx context.Context, q sqlx.QueryerContext, query, id string) (*Reservation, error) {
	var res Reservation
	if err := sqlx.GetContext(ctx, q, &res, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *repository) list(ctx context.Context, where, id string) ([]Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations ` + where + ` ORDER BY created_at DESC`

	reservations := []Reservation{}
	if err := r.db.SelectContext(ctx, &reservations, query, id); err != nil {
		return nil, err
	}

	return reservations, nil
}
