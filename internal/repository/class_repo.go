package repository

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ClassRow is a class as stored, with the program and coach names joined in.
// Time-of-day columns stay raw so callers decide what an unusable value means.
type ClassRow struct {
	ID          uuid.UUID
	Date        time.Time
	StartTime   pgtype.Time
	EndTime     pgtype.Time
	MaxCapacity int
	ProgramID   uuid.UUID
	ProgramName string
	CoachID     uuid.UUID
	CoachName   string
	CoachAvatar *string
}

type ClassInput struct {
	Date        time.Time
	StartTime   time.Duration
	EndTime     time.Duration
	MaxCapacity int
	ProgramID   uuid.UUID
	CoachID     uuid.UUID
}

type ClassRepository struct {
	db DBTX
}

func NewClassRepository(db DBTX) *ClassRepository {
	return &ClassRepository{db: db}
}

const classRowSelect = `
	SELECT c.id, c.date, c.start_time, c.end_time, c.max_capacity,
	       c.program_id, COALESCE(p.name, ''), c.coach_id, COALESCE(pr.name, ''), pr.avatar_url
	FROM classes c
	LEFT JOIN programs p ON p.id = c.program_id
	LEFT JOIN profiles pr ON pr.user_id = c.coach_id
`

func (r *ClassRepository) ListByDate(ctx context.Context, day time.Time) ([]ClassRow, error) {
	rows, err := r.db.Query(ctx, classRowSelect+`
		WHERE c.date = $1::date
		ORDER BY c.start_time ASC, c.id ASC
	`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := make([]ClassRow, 0)
	for rows.Next() {
		row, err := scanClassRow(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *ClassRepository) GetDetail(ctx context.Context, classID uuid.UUID) (*ClassRow, error) {
	return scanClassRow(r.db.QueryRow(ctx, classRowSelect+`WHERE c.id = $1`, classID))
}

// GetByIDForUpdate locks the class row so concurrent bookings of the same
// class queue behind each other. Names are not joined here.
func (r *ClassRepository) GetByIDForUpdate(ctx context.Context, classID uuid.UUID) (*ClassRow, error) {
	query := `
		SELECT id, date, start_time, end_time, max_capacity, program_id, coach_id
		FROM classes
		WHERE id = $1
		FOR UPDATE
	`
	var row ClassRow
	err := r.db.QueryRow(ctx, query, classID).Scan(
		&row.ID,
		&row.Date,
		&row.StartTime,
		&row.EndTime,
		&row.MaxCapacity,
		&row.ProgramID,
		&row.CoachID,
	)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// LockByIDs locks every listed class row in ascending id order, which is how
// Postgres orders uuids. Transactions locking overlapping sets queue on the
// same first row. Missing ids are left out of the map.
func (r *ClassRepository) LockByIDs(ctx context.Context, classIDs []uuid.UUID) (map[uuid.UUID]*ClassRow, error) {
	ordered := slices.Clone(classIDs)
	slices.SortFunc(ordered, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	ordered = slices.Compact(ordered)

	query := `
		SELECT id, date, start_time, end_time, max_capacity, program_id, coach_id
		FROM classes
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`
	rows, err := r.db.Query(ctx, query, ordered)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locked := make(map[uuid.UUID]*ClassRow, len(ordered))
	for rows.Next() {
		var row ClassRow
		if err := rows.Scan(
			&row.ID,
			&row.Date,
			&row.StartTime,
			&row.EndTime,
			&row.MaxCapacity,
			&row.ProgramID,
			&row.CoachID,
		); err != nil {
			return nil, err
		}
		locked[row.ID] = &row
	}
	return locked, rows.Err()
}

func (r *ClassRepository) Create(ctx context.Context, input ClassInput) (*models.ClassSession, error) {
	query := `
		INSERT INTO classes (date, start_time, end_time, max_capacity, program_id, coach_id)
		VALUES ($1::date, $2, $3, $4, $5, $6)
		RETURNING id, date, start_time, end_time, max_capacity, program_id, coach_id, created_at, updated_at
	`
	return scanClassSession(r.db.QueryRow(
		ctx,
		query,
		input.Date,
		clockToTime(input.StartTime),
		clockToTime(input.EndTime),
		input.MaxCapacity,
		input.ProgramID,
		input.CoachID,
	))
}

func (r *ClassRepository) Update(ctx context.Context, classID uuid.UUID, input ClassInput) (*models.ClassSession, error) {
	query := `
		UPDATE classes
		SET date = $2::date, start_time = $3, end_time = $4, max_capacity = $5,
		    program_id = $6, coach_id = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING id, date, start_time, end_time, max_capacity, program_id, coach_id, created_at, updated_at
	`
	return scanClassSession(r.db.QueryRow(
		ctx,
		query,
		classID,
		input.Date,
		clockToTime(input.StartTime),
		clockToTime(input.EndTime),
		input.MaxCapacity,
		input.ProgramID,
		input.CoachID,
	))
}

func (r *ClassRepository) Delete(ctx context.Context, classID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM classes WHERE id = $1`, classID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanClassRow(row rowScanner) (*ClassRow, error) {
	var class ClassRow
	if err := row.Scan(
		&class.ID,
		&class.Date,
		&class.StartTime,
		&class.EndTime,
		&class.MaxCapacity,
		&class.ProgramID,
		&class.ProgramName,
		&class.CoachID,
		&class.CoachName,
		&class.CoachAvatar,
	); err != nil {
		return nil, err
	}
	return &class, nil
}

func scanClassSession(row rowScanner) (*models.ClassSession, error) {
	var (
		session   models.ClassSession
		date      time.Time
		startTime pgtype.Time
		endTime   pgtype.Time
	)
	if err := row.Scan(
		&session.ID,
		&date,
		&startTime,
		&endTime,
		&session.MaxCapacity,
		&session.ProgramID,
		&session.CoachID,
		&session.CreatedAt,
		&session.UpdatedAt,
	); err != nil {
		return nil, err
	}
	session.Date = date.Format(time.DateOnly)
	session.StartTime = FormatClock(startTime)
	session.EndTime = FormatClock(endTime)
	return &session, nil
}
