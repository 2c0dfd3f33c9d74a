package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestWithinUserLockTakesAdvisoryLockAndCommits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID, classID := uuid.New(), uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs("checkin:" + userID.String()).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM checkins`).
		WithArgs(classID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectCommit()

	var count int
	err = NewTxManager(mock).WithinUserLock(context.Background(), userID, func(store RosterStore) error {
		var err error
		count, err = store.CountCheckIns(context.Background(), classID)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	sentinel := errors.New("boom")
	err = NewTxManager(mock).WithinTx(context.Background(), func(tx DBTX) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: ConstraintCheckInUserDay})

	constraint, ok := UniqueViolation(wrapped)
	require.True(t, ok)
	require.Equal(t, ConstraintCheckInUserDay, constraint)

	_, ok = UniqueViolation(&pgconn.PgError{Code: "23503"})
	require.False(t, ok)

	_, ok = UniqueViolation(errors.New("plain"))
	require.False(t, ok)
}

func TestFormatClock(t *testing.T) {
	value := clockToTime(18*time.Hour + 30*time.Minute)
	require.Equal(t, "18:30", FormatClock(value))
	require.Equal(t, "", FormatClock(pgtype.Time{}))
}
