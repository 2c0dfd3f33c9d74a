package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/Glivan2903/fazendo-90/internal/repository"
)

var (
	ErrInvalidSchedule = errors.New("invalid schedule")
	ErrProgramNotFound = errors.New("program not found")
	ErrCoachNotFound   = errors.New("coach not found")
	ErrProgramExists   = errors.New("program already exists")
)

type txRunner interface {
	WithinTx(ctx context.Context, fn func(tx repository.DBTX) error) error
}

type classWriter interface {
	Create(ctx context.Context, input repository.ClassInput) (*models.ClassSession, error)
	Delete(ctx context.Context, classID uuid.UUID) (int64, error)
}

type programStore interface {
	List(ctx context.Context) ([]models.Program, error)
	Create(ctx context.Context, input repository.CreateProgramInput) (*models.Program, error)
	Exists(ctx context.Context, programID uuid.UUID) (bool, error)
}

type coachStore interface {
	List(ctx context.Context) ([]models.Coach, error)
	Exists(ctx context.Context, coachID uuid.UUID) (bool, error)
}

type ScheduleService struct {
	tx       txRunner
	classes  classWriter
	programs programStore
	coaches  coachStore
}

func NewScheduleService(
	tx txRunner,
	classes classWriter,
	programs programStore,
	coaches coachStore,
) *ScheduleService {
	return &ScheduleService{
		tx:       tx,
		classes:  classes,
		programs: programs,
		coaches:  coaches,
	}
}

// ScheduleInput carries wall-clock values: Date as YYYY-MM-DD and times as HH:MM.
type ScheduleInput struct {
	Date        string
	StartTime   string
	EndTime     string
	MaxCapacity int
	ProgramID   uuid.UUID
	CoachID     uuid.UUID
}

func (s *ScheduleService) CreateClass(ctx context.Context, input ScheduleInput) (*models.ClassSession, error) {
	classInput, err := s.validate(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.classes.Create(ctx, classInput)
}

// UpdateClass edits a class and keeps its roster on the class's new day. A
// move that would give a member two classes on one day is refused.
func (s *ScheduleService) UpdateClass(ctx context.Context, classID uuid.UUID, input ScheduleInput) (*models.ClassSession, error) {
	classInput, err := s.validate(ctx, input)
	if err != nil {
		return nil, err
	}

	var session *models.ClassSession
	err = s.tx.WithinTx(ctx, func(tx repository.DBTX) error {
		var err error
		session, err = repository.NewClassRepository(tx).Update(ctx, classID, classInput)
		if err != nil {
			return err
		}
		return repository.NewCheckInRepository(tx).MoveToDate(ctx, classID, classInput.Date)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		if constraint, ok := repository.UniqueViolation(err); ok {
			log.Ctx(ctx).Warn().Str("class_id", classID.String()).Str("constraint", constraint).Msg("class move would double-book members")
			return nil, ErrInvalidSchedule
		}
		return nil, err
	}
	return session, nil
}

// DeleteClass removes the class; its roster goes with it.
func (s *ScheduleService) DeleteClass(ctx context.Context, classID uuid.UUID) error {
	deleted, err := s.classes.Delete(ctx, classID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrClassNotFound
	}
	return nil
}

func (s *ScheduleService) ListPrograms(ctx context.Context) ([]models.Program, error) {
	return s.programs.List(ctx)
}

func (s *ScheduleService) CreateProgram(ctx context.Context, name string, description *string) (*models.Program, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidSchedule
	}
	program, err := s.programs.Create(ctx, repository.CreateProgramInput{Name: name, Description: description})
	if err != nil {
		if _, ok := repository.UniqueViolation(err); ok {
			return nil, ErrProgramExists
		}
		return nil, err
	}
	return program, nil
}

func (s *ScheduleService) ListCoaches(ctx context.Context) ([]models.Coach, error) {
	return s.coaches.List(ctx)
}

func (s *ScheduleService) validate(ctx context.Context, input ScheduleInput) (repository.ClassInput, error) {
	day, err := ParseDay(strings.TrimSpace(input.Date))
	if err != nil {
		return repository.ClassInput{}, ErrInvalidSchedule
	}
	start, err := parseClock(input.StartTime)
	if err != nil {
		return repository.ClassInput{}, ErrInvalidSchedule
	}
	end, err := parseClock(input.EndTime)
	if err != nil {
		return repository.ClassInput{}, ErrInvalidSchedule
	}
	if start >= end || input.MaxCapacity < 1 {
		return repository.ClassInput{}, ErrInvalidSchedule
	}

	programOK, err := s.programs.Exists(ctx, input.ProgramID)
	if err != nil {
		return repository.ClassInput{}, err
	}
	if !programOK {
		return repository.ClassInput{}, ErrProgramNotFound
	}

	coachOK, err := s.coaches.Exists(ctx, input.CoachID)
	if err != nil {
		return repository.ClassInput{}, err
	}
	if !coachOK {
		return repository.ClassInput{}, ErrCoachNotFound
	}

	return repository.ClassInput{
		Date:        day,
		StartTime:   start,
		EndTime:     end,
		MaxCapacity: input.MaxCapacity,
		ProgramID:   input.ProgramID,
		CoachID:     input.CoachID,
	}, nil
}

// parseClock accepts HH:MM or HH:MM:SS and returns the offset from midnight.
func parseClock(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	layout := "15:04"
	if strings.Count(value, ":") == 2 {
		layout = time.TimeOnly
	}
	parsed, err := time.Parse(layout, value)
	if err != nil {
		return 0, err
	}
	return time.Duration(parsed.Hour())*time.Hour +
		time.Duration(parsed.Minute())*time.Minute +
		time.Duration(parsed.Second())*time.Second, nil
}
