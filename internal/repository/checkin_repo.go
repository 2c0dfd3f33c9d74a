package repository

import (
	"context"
	"time"

	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/google/uuid"
)

type CreateCheckInInput struct {
	ClassID   uuid.UUID
	UserID    uuid.UUID
	ClassDate time.Time
}

type CheckInRepository struct {
	db DBTX
}

func NewCheckInRepository(db DBTX) *CheckInRepository {
	return &CheckInRepository{db: db}
}

const checkInColumns = `id, class_id, user_id, class_date, status, created_at`

func (r *CheckInRepository) FindByClassAndUser(
	ctx context.Context,
	classID uuid.UUID,
	userID uuid.UUID,
) (*models.CheckIn, error) {
	query := `
		SELECT ` + checkInColumns + `
		FROM checkins
		WHERE class_id = $1 AND user_id = $2
	`
	return scanCheckIn(r.db.QueryRow(ctx, query, classID, userID))
}

func (r *CheckInRepository) FindForUserOnDate(
	ctx context.Context,
	userID uuid.UUID,
	day time.Time,
) (*models.CheckIn, error) {
	query := `
		SELECT ` + checkInColumns + `
		FROM checkins
		WHERE user_id = $1 AND class_date = $2::date
		ORDER BY created_at ASC
		LIMIT 1
	`
	return scanCheckIn(r.db.QueryRow(ctx, query, userID, day))
}

func (r *CheckInRepository) CountByClass(ctx context.Context, classID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM checkins WHERE class_id = $1`
	if err := r.db.QueryRow(ctx, query, classID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CheckInRepository) Create(ctx context.Context, input CreateCheckInInput) (*models.CheckIn, error) {
	query := `
		INSERT INTO checkins (class_id, user_id, class_date, status)
		VALUES ($1, $2, $3::date, 'confirmed')
		RETURNING ` + checkInColumns
	return scanCheckIn(r.db.QueryRow(ctx, query, input.ClassID, input.UserID, input.ClassDate))
}

// DeleteByClassAndUser removes the user's row for the class and reports how
// many rows went away. Zero is not an error.
func (r *CheckInRepository) DeleteByClassAndUser(
	ctx context.Context,
	classID uuid.UUID,
	userID uuid.UUID,
) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM checkins WHERE class_id = $1 AND user_id = $2`, classID, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *CheckInRepository) ListUserIDsByClassIDs(
	ctx context.Context,
	classIDs []uuid.UUID,
) (map[uuid.UUID][]uuid.UUID, error) {
	rosters := make(map[uuid.UUID][]uuid.UUID, len(classIDs))
	if len(classIDs) == 0 {
		return rosters, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT class_id, user_id
		FROM checkins
		WHERE class_id = ANY($1)
		ORDER BY created_at ASC
	`, classIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var classID, userID uuid.UUID
		if err := rows.Scan(&classID, &userID); err != nil {
			return nil, err
		}
		rosters[classID] = append(rosters[classID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rosters, nil
}

func (r *CheckInRepository) ListAttendees(ctx context.Context, classID uuid.UUID) ([]models.Attendee, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ci.user_id, COALESCE(p.name, ''), p.avatar_url
		FROM checkins ci
		LEFT JOIN profiles p ON p.user_id = ci.user_id
		WHERE ci.class_id = $1
		ORDER BY ci.created_at ASC
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attendees := make([]models.Attendee, 0)
	for rows.Next() {
		var (
			userID    uuid.UUID
			attendee  models.Attendee
			avatarURL *string
		)
		if err := rows.Scan(&userID, &attendee.Name, &avatarURL); err != nil {
			return nil, err
		}
		attendee.UserID = userID.String()
		attendee.AvatarURL = avatarURL
		attendees = append(attendees, attendee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attendees, nil
}

// MoveToDate keeps the denormalised class_date in step when a class is moved.
func (r *CheckInRepository) MoveToDate(ctx context.Context, classID uuid.UUID, day time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE checkins SET class_date = $2::date WHERE class_id = $1`, classID, day)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheckIn(row rowScanner) (*models.CheckIn, error) {
	var checkIn models.CheckIn
	if err := row.Scan(
		&checkIn.ID,
		&checkIn.ClassID,
		&checkIn.UserID,
		&checkIn.ClassDate,
		&checkIn.Status,
		&checkIn.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &checkIn, nil
}
