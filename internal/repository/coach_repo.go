package repository

import (
	"context"

	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/google/uuid"
)

type CoachRepository struct {
	db DBTX
}

func NewCoachRepository(db DBTX) *CoachRepository {
	return &CoachRepository{db: db}
}

// List returns every user allowed to lead a class. Admins coach too.
func (r *CoachRepository) List(ctx context.Context) ([]models.Coach, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.id, COALESCE(p.name, u.email), p.avatar_url
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.role IN ('coach', 'admin')
		ORDER BY 2 ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coaches := make([]models.Coach, 0)
	for rows.Next() {
		var coach models.Coach
		if err := rows.Scan(&coach.ID, &coach.Name, &coach.AvatarURL); err != nil {
			return nil, err
		}
		coaches = append(coaches, coach)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return coaches, nil
}

func (r *CoachRepository) Exists(ctx context.Context, coachID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND role IN ('coach', 'admin'))
	`, coachID).Scan(&exists)
	return exists, err
}
