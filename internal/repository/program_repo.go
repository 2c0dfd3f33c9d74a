package repository

import (
	"context"

	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/google/uuid"
)

type CreateProgramInput struct {
	Name        string
	Description *string
}

type ProgramRepository struct {
	db DBTX
}

func NewProgramRepository(db DBTX) *ProgramRepository {
	return &ProgramRepository{db: db}
}

func (r *ProgramRepository) Create(ctx context.Context, input CreateProgramInput) (*models.Program, error) {
	query := `
		INSERT INTO programs (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, created_at
	`

	var program models.Program
	err := r.db.QueryRow(ctx, query, input.Name, input.Description).Scan(
		&program.ID,
		&program.Name,
		&program.Description,
		&program.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *ProgramRepository) List(ctx context.Context) ([]models.Program, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, created_at
		FROM programs
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	programs := make([]models.Program, 0)
	for rows.Next() {
		var program models.Program
		if err := rows.Scan(
			&program.ID,
			&program.Name,
			&program.Description,
			&program.CreatedAt,
		); err != nil {
			return nil, err
		}
		programs = append(programs, program)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return programs, nil
}

func (r *ProgramRepository) Exists(ctx context.Context, programID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM programs WHERE id = $1)`, programID).Scan(&exists)
	return exists, err
}
