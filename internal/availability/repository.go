package availability

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"coachslot/internal/apperr"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const slotColumns = `id, trainer_id, start_at, end_at, is_booked, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// InsertSlots creates one slot per start. Starts already published for the
// trainer are skipped by the (trainer_id, start_at) unique constraint; only
// newly created rows are returned, ordered by start_at.
func (r *repository) InsertSlots(ctx context.Context, trainerID string, starts []time.Time) ([]Slot, error) {
	query := `
		INSERT INTO availability_slots (trainer_id, start_at, end_at)
		SELECT $1, s, s + INTERVAL '30 minutes'
		FROM unnest($2::timestamptz[]) AS s
		ON CONFLICT (trainer_id, start_at) DO NOTHING
		RETURNING ` + slotColumns

	encoded := make([]string, len(starts))
	for i, s := range starts {
		encoded[i] = s.UTC().Format(time.RFC3339Nano)
	}

	var slots []Slot
	if err := r.db.SelectContext(ctx, &slots, query, trainerID, pq.Array(encoded)); err != nil {
		return nil, err
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].StartAt.Before(slots[j].StartAt) })
	return slots, nil
}

func (r *repository) ListByRange(ctx context.Context, from, to time.Time, trainerID string) ([]Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM availability_slots
		WHERE start_at >= $1 AND start_at < $2
	`
	args := []interface{}{from, to}

	if trainerID != "" {
		query += " AND trainer_id = $3"
		args = append(args, trainerID)
	}

	query += " ORDER BY start_at ASC"

	slots := []Slot{}
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, err
	}

	return slots, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM availability_slots
		WHERE id = $1
	`

	var slot Slot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	return &slot, nil
}

func (r *repository) DeleteUnbooked(ctx context.Context, id, trainerID string) (bool, error) {
	query := `
		DELETE FROM availability_slots
		WHERE id = $1 AND trainer_id = $2 AND is_booked = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, id, trainerID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// LockRange reads every slot of the trainer starting in [from, to) and holds
// row locks on them until the transaction ends.
func (r *repository) LockRange(ctx context.Context, q sqlx.ExtContext, trainerID string, from, to time.Time) ([]Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM availability_slots
		WHERE trainer_id = $1 AND start_at >= $2 AND start_at < $3
		ORDER BY start_at ASC
		FOR UPDATE
	`

	var slots []Slot
	if err := sqlx.SelectContext(ctx, q, &slots, query, trainerID, from, to); err != nil {
		return nil, err
	}

	return slots, nil
}

// MarkBooked flips free slots to booked and returns how many changed.
func (r *repository) MarkBooked(ctx context.Context, q sqlx.ExtContext, ids []string) (int64, error) {
	query := `
		UPDATE availability_slots
		SET is_booked = TRUE, updated_at = NOW()
		WHERE id = ANY($1) AND is_booked = FALSE
	`

	result, err := q.ExecContext(ctx, query, pq.Array(ids))
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// ReleaseRange frees every booked slot of the trainer starting in [from, to).
func (r *repository) ReleaseRange(ctx context.Context, q sqlx.ExtContext, trainerID string, from, to time.Time) (int64, error) {
	query := `
		UPDATE availability_slots
		SET is_booked = FALSE, updated_at = NOW()
		WHERE trainer_id = $1 AND start_at >= $2 AND start_at < $3 AND is_booked = TRUE
	`

	result, err := q.ExecContext(ctx, query, trainerID, from, to)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
