package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrConflict marks a transaction the store aborted because it raced with
// another one touching the same rows.
var ErrConflict = errors.New("transaction conflict")

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeUniqueViolation      = "23505"
)

// Transactor runs a unit of work. Reads and conditional writes issued through
// tx inside fn commit together or not at all.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx sqlx.ExtContext) error) error
}

type TxRunner struct {
	db   *sqlx.DB
	opts *sql.TxOptions
}

// NewTxRunner returns a Transactor running serializable transactions.
func NewTxRunner(db *sqlx.DB) *TxRunner {
	return &TxRunner{
		db:   db,
		opts: &sql.TxOptions{Isolation: sql.LevelSerializable},
	}
}

func (r *TxRunner) WithinTx(ctx context.Context, fn func(tx sqlx.ExtContext) error) error {
	tx, err := r.db.BeginTxx(ctx, r.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", classify(err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", classify(err))
	}

	return nil
}

func classify(err error) error {
	if IsConflict(err) && !errors.Is(err, ErrConflict) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// IsConflict reports serialization failures, deadlocks and lock timeouts.
func IsConflict(err error) bool {
	if errors.Is(err, ErrConflict) {
		return true
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}

func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}
