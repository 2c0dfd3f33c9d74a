package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var classRowColumns = []string{
	"id", "date", "start_time", "end_time", "max_capacity",
	"program_id", "program_name", "coach_id", "coach_name", "avatar_url",
}

func TestClassRepositoryListByDate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	early, late := uuid.New(), uuid.New()
	programID, coachID := uuid.New(), uuid.New()
	avatar := "https://cdn.example.com/coach.png"

	mock.ExpectQuery(`(?s)FROM classes c.*WHERE c.date = \$1::date`).
		WithArgs(day).
		WillReturnRows(pgxmock.NewRows(classRowColumns).
			AddRow(early, day, clockToTime(6*time.Hour), clockToTime(7*time.Hour), 15,
				programID, "CrossFit", coachID, "Bruno", &avatar).
			AddRow(late, day, clockToTime(18*time.Hour), clockToTime(19*time.Hour), 12,
				programID, "CrossFit", coachID, "Bruno", nil))

	rows, err := NewClassRepository(mock).ListByDate(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, early, rows[0].ID)
	require.Equal(t, "06:00", FormatClock(rows[0].StartTime))
	require.Equal(t, 15, rows[0].MaxCapacity)
	require.Equal(t, avatar, *rows[0].CoachAvatar)
	require.Nil(t, rows[1].CoachAvatar)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryGetByIDForUpdateNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	classID := uuid.New()
	mock.ExpectQuery(`FROM classes\s+WHERE id = \$1\s+FOR UPDATE`).
		WithArgs(classID).
		WillReturnError(pgx.ErrNoRows)

	_, err = NewClassRepository(mock).GetByIDForUpdate(context.Background(), classID)
	require.ErrorIs(t, err, pgx.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryLockByIDsLocksInIDOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	low := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	high := uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	programID, coachID := uuid.New(), uuid.New()
	lockColumns := []string{"id", "date", "start_time", "end_time", "max_capacity", "program_id", "coach_id"}

	// Both call orders must send the same sorted id list.
	for _, request := range [][]uuid.UUID{{high, low}, {low, high, low}} {
		mock.ExpectQuery(`(?s)FROM classes\s+WHERE id = ANY\(\$1\)\s+ORDER BY id\s+FOR UPDATE`).
			WithArgs([]uuid.UUID{low, high}).
			WillReturnRows(pgxmock.NewRows(lockColumns).
				AddRow(low, day, clockToTime(7*time.Hour), clockToTime(8*time.Hour), 10, programID, coachID))

		locked, err := NewClassRepository(mock).LockByIDs(context.Background(), request)
		require.NoError(t, err)
		require.Len(t, locked, 1)
		require.Equal(t, 10, locked[low].MaxCapacity)
		require.Nil(t, locked[high])
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCreateFormatsClock(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	day := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	classID, programID, coachID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO classes`).
		WithArgs(day, clockToTime(7*time.Hour), clockToTime(8*time.Hour), 20, programID, coachID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "date", "start_time", "end_time", "max_capacity", "program_id", "coach_id", "created_at", "updated_at",
		}).AddRow(classID, day, clockToTime(7*time.Hour), clockToTime(8*time.Hour), 20, programID, coachID, now, now))

	session, err := NewClassRepository(mock).Create(context.Background(), ClassInput{
		Date:        day,
		StartTime:   7 * time.Hour,
		EndTime:     8 * time.Hour,
		MaxCapacity: 20,
		ProgramID:   programID,
		CoachID:     coachID,
	})
	require.NoError(t, err)
	require.Equal(t, "2026-10-20", session.Date)
	require.Equal(t, "07:00", session.StartTime)
	require.Equal(t, "08:00", session.EndTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	classID := uuid.New()
	mock.ExpectExec(`DELETE FROM classes WHERE id = \$1`).
		WithArgs(classID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	deleted, err := NewClassRepository(mock).Delete(context.Background(), classID)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
