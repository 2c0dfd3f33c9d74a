package repository

import (
	"context"

	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/google/uuid"
)

type UpdateProfileInput struct {
	Name      *string
	AvatarURL *string
	Phone     *string
}

type ProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `user_id, name, avatar_url, phone, created_at, updated_at`

func (r *ProfileRepository) Create(ctx context.Context, userID uuid.UUID, name string) error {
	query := `INSERT INTO profiles (user_id, name) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`
	_, err := r.db.Exec(ctx, query, userID, name)
	return err
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	return scanProfile(r.db.QueryRow(ctx, query, userID))
}

func (r *ProfileRepository) UpdatePartial(
	ctx context.Context,
	userID uuid.UUID,
	input UpdateProfileInput,
) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET name = COALESCE($1, name),
			avatar_url = COALESCE($2, avatar_url),
			phone = COALESCE($3, phone),
			updated_at = NOW()
		WHERE user_id = $4
		RETURNING ` + profileColumns
	return scanProfile(r.db.QueryRow(ctx, query, input.Name, input.AvatarURL, input.Phone, userID))
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var profile models.Profile
	if err := row.Scan(
		&profile.UserID,
		&profile.Name,
		&profile.AvatarURL,
		&profile.Phone,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}
