package repository

import (
	"context"
	"time"

	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/google/uuid"
)

// RosterStore is the set of reads and writes a booking decision needs. Missing
// rows are reported as pgx.ErrNoRows.
type RosterStore interface {
	GetClassForUpdate(ctx context.Context, classID uuid.UUID) (*ClassRow, error)
	LockClasses(ctx context.Context, classIDs []uuid.UUID) (map[uuid.UUID]*ClassRow, error)
	FindCheckIn(ctx context.Context, classID, userID uuid.UUID) (*models.CheckIn, error)
	FindCheckInOnDate(ctx context.Context, userID uuid.UUID, day time.Time) (*models.CheckIn, error)
	CountCheckIns(ctx context.Context, classID uuid.UUID) (int, error)
	CreateCheckIn(ctx context.Context, input CreateCheckInInput) (*models.CheckIn, error)
	DeleteCheckIn(ctx context.Context, classID, userID uuid.UUID) (int64, error)
}

type Roster struct {
	classes  *ClassRepository
	checkIns *CheckInRepository
}

func NewRoster(db DBTX) *Roster {
	return &Roster{
		classes:  NewClassRepository(db),
		checkIns: NewCheckInRepository(db),
	}
}

func (r *Roster) GetClassForUpdate(ctx context.Context, classID uuid.UUID) (*ClassRow, error) {
	return r.classes.GetByIDForUpdate(ctx, classID)
}

func (r *Roster) LockClasses(ctx context.Context, classIDs []uuid.UUID) (map[uuid.UUID]*ClassRow, error) {
	return r.classes.LockByIDs(ctx, classIDs)
}

func (r *Roster) FindCheckIn(ctx context.Context, classID, userID uuid.UUID) (*models.CheckIn, error) {
	return r.checkIns.FindByClassAndUser(ctx, classID, userID)
}

func (r *Roster) FindCheckInOnDate(ctx context.Context, userID uuid.UUID, day time.Time) (*models.CheckIn, error) {
	return r.checkIns.FindForUserOnDate(ctx, userID, day)
}

func (r *Roster) CountCheckIns(ctx context.Context, classID uuid.UUID) (int, error) {
	return r.checkIns.CountByClass(ctx, classID)
}

func (r *Roster) CreateCheckIn(ctx context.Context, input CreateCheckInInput) (*models.CheckIn, error) {
	return r.checkIns.Create(ctx, input)
}

func (r *Roster) DeleteCheckIn(ctx context.Context, classID, userID uuid.UUID) (int64, error) {
	return r.checkIns.DeleteByClassAndUser(ctx, classID, userID)
}
