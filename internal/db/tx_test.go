package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"coachslot/internal/apperr"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMock(t *testing.T) (*TxRunner, sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dbx := sqlx.NewDb(sqlDB, "sqlmock")
	return NewTxRunner(dbx), mock, func() { dbx.Close() }
}

func TestWithinTx_Commit(t *testing.T) {
	runner, mock, closer := setupMock(t)
	defer closer()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE availability_slots").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := runner.WithinTx(context.Background(), func(tx sqlx.ExtContext) error {
		_, err := tx.ExecContext(context.Background(), "UPDATE availability_slots SET is_booked = true")
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	runner, mock, closer := setupMock(t)
	defer closer()

	sentinel := errors.New("slot already booked")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := runner.WithinTx(context.Background(), func(tx sqlx.ExtContext) error {
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_SerializationFailureIsConflict(t *testing.T) {
	runner, mock, closer := setupMock(t)
	defer closer()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access"})

	err := runner.WithinTx(context.Background(), func(tx sqlx.ExtContext) error {
		return nil
	})

	assert.ErrorIs(t, err, ErrConflict)
	assert.True(t, IsConflict(err))
}

func TestWithinTx_BeginFails(t *testing.T) {
	runner, mock, closer := setupMock(t)
	defer closer()

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	called := false
	err := runner.WithinTx(context.Background(), func(tx sqlx.ExtContext) error {
		called = true
		return nil
	})

	assert.Error(t, err)
	assert.False(t, called)
	assert.False(t, IsConflict(err))
}

func TestIsConflictAndUniqueViolation(t *testing.T) {
	assert.True(t, IsConflict(&pq.Error{Code: "40P01"}))
	assert.True(t, IsConflict(&pq.Error{Code: "55P03"}))
	assert.False(t, IsConflict(&pq.Error{Code: "23505"}))
	assert.False(t, IsConflict(errors.New("plain")))

	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "40001"}))
}

func TestExists(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	dbx := sqlx.NewDb(sqlDB, "sqlmock")
	defer dbx.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("a@b.c").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := Exists(context.Background(), dbx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, "a@b.c")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, Translate("op", nil, apperr.ErrSlotAlreadyBooked))

	domain := fmt.Errorf("slot 09:00: %w", apperr.ErrInsufficientAvailability)
	assert.Equal(t, domain, Translate("op", domain, apperr.ErrSlotAlreadyBooked))

	conflict := Translate("create reservation", &pq.Error{Code: "40001"}, apperr.ErrSlotAlreadyBooked)
	assert.ErrorIs(t, conflict, apperr.ErrSlotAlreadyBooked)

	failure := Translate("create reservation", errors.New("broken pipe"), apperr.ErrSlotAlreadyBooked)
	assert.ErrorIs(t, failure, apperr.ErrStoreUnavailable)
}
