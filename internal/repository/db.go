package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	ConstraintCheckInClassUser = "checkins_class_user_key"
	ConstraintCheckInUserDay   = "checkins_user_day_key"

	uniqueViolationCode = "23505"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type TxManager struct {
	db TxBeginner
}

func NewTxManager(db TxBeginner) *TxManager {
	return &TxManager{db: db}
}

// WithinTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func (m *TxManager) WithinTx(ctx context.Context, fn func(tx DBTX) error) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}

// WithinUserLock serialises roster mutations of one user for the lifetime of
// the transaction, so the same-day check cannot race with a parallel booking.
func (m *TxManager) WithinUserLock(
	ctx context.Context,
	userID uuid.UUID,
	fn func(store RosterStore) error,
) error {
	return m.WithinTx(ctx, func(tx DBTX) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", "checkin:"+userID.String()); err != nil {
			return err
		}
		return fn(NewRoster(tx))
	})
}

// UniqueViolation reports whether err is a unique constraint failure and, if
// so, which constraint tripped.
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func clockToTime(clock time.Duration) pgtype.Time {
	return pgtype.Time{Microseconds: clock.Microseconds(), Valid: true}
}

// FormatClock renders a TIME column as HH:MM.
func FormatClock(value pgtype.Time) string {
	if !value.Valid {
		return ""
	}
	total := time.Duration(value.Microseconds) * time.Microsecond
	return fmt.Sprintf("%02d:%02d", int(total.Hours()), int(total.Minutes())%60)
}
