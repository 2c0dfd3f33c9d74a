package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Glivan2903/fazendo-90/internal/events"
	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/Glivan2903/fazendo-90/internal/repository"
)

// memRoster is an in-memory class directory and roster. WithinUserLock holds
// one mutex for the whole callback and restores the roster when fn fails.
//
// createErrs are returned by successive inserts before createErr applies.
// racing rows land once the failing transaction has rolled back, standing in
// for a booking another request committed in between.
type memRoster struct {
	mu         sync.Mutex
	classes    map[uuid.UUID]repository.ClassRow
	checkIns   []models.CheckIn
	listErr    error
	detailErr  error
	createErr  error
	createErrs []error
	racing     []models.CheckIn
	inserts    int
	lockOrders [][]uuid.UUID
}

func newMemRoster() *memRoster {
	return &memRoster{classes: make(map[uuid.UUID]repository.ClassRow)}
}

func (m *memRoster) addClass(day time.Time, startHour, capacity int) uuid.UUID {
	id := uuid.New()
	m.classes[id] = repository.ClassRow{
		ID:          id,
		Date:        day,
		StartTime:   clock(time.Duration(startHour) * time.Hour),
		EndTime:     clock(time.Duration(startHour+1) * time.Hour),
		MaxCapacity: capacity,
		ProgramName: "CrossFit",
		CoachName:   "Bruno",
	}
	return id
}

func (m *memRoster) seed(classID uuid.UUID, users ...uuid.UUID) {
	for _, userID := range users {
		m.checkIns = append(m.checkIns, models.CheckIn{
			ID:        uuid.New(),
			ClassID:   classID,
			UserID:    userID,
			ClassDate: m.classes[classID].Date,
			Status:    models.CheckInStatusConfirmed,
		})
	}
}

func (m *memRoster) rosterSize(classID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count(classID)
}

func (m *memRoster) holds(classID, userID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.find(classID, userID)
	return err == nil
}

func (m *memRoster) WithinUserLock(_ context.Context, _ uuid.UUID, fn func(store repository.RosterStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := slices.Clone(m.checkIns)
	if err := fn(memTx{m}); err != nil {
		m.checkIns = append(snapshot, m.racing...)
		m.racing = nil
		return err
	}
	return nil
}

func (m *memRoster) ListByDate(_ context.Context, day time.Time) ([]repository.ClassRow, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	rows := make([]repository.ClassRow, 0)
	for _, row := range m.classes {
		if row.Date.Equal(day) {
			rows = append(rows, row)
		}
	}
	slices.SortFunc(rows, func(a, b repository.ClassRow) int {
		return int(a.StartTime.Microseconds - b.StartTime.Microseconds)
	})
	return rows, nil
}

func (m *memRoster) GetDetail(_ context.Context, classID uuid.UUID) (*repository.ClassRow, error) {
	if m.detailErr != nil {
		return nil, m.detailErr
	}
	row, ok := m.classes[classID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &row, nil
}

func (m *memRoster) ListUserIDsByClassIDs(_ context.Context, classIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rosters := make(map[uuid.UUID][]uuid.UUID)
	for _, checkIn := range m.checkIns {
		if slices.Contains(classIDs, checkIn.ClassID) {
			rosters[checkIn.ClassID] = append(rosters[checkIn.ClassID], checkIn.UserID)
		}
	}
	return rosters, nil
}

func (m *memRoster) ListAttendees(_ context.Context, classID uuid.UUID) ([]models.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attendees := make([]models.Attendee, 0)
	for _, checkIn := range m.checkIns {
		if checkIn.ClassID == classID {
			attendees = append(attendees, models.Attendee{UserID: checkIn.UserID.String(), Name: "Membro"})
		}
	}
	return attendees, nil
}

func (m *memRoster) find(classID, userID uuid.UUID) (*models.CheckIn, error) {
	for _, checkIn := range m.checkIns {
		if checkIn.ClassID == classID && checkIn.UserID == userID {
			found := checkIn
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memRoster) count(classID uuid.UUID) int {
	n := 0
	for _, checkIn := range m.checkIns {
		if checkIn.ClassID == classID {
			n++
		}
	}
	return n
}

type memTx struct {
	m *memRoster
}

func (t memTx) GetClassForUpdate(_ context.Context, classID uuid.UUID) (*repository.ClassRow, error) {
	row, ok := t.m.classes[classID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &row, nil
}

func (t memTx) LockClasses(_ context.Context, classIDs []uuid.UUID) (map[uuid.UUID]*repository.ClassRow, error) {
	t.m.lockOrders = append(t.m.lockOrders, slices.Clone(classIDs))
	locked := make(map[uuid.UUID]*repository.ClassRow, len(classIDs))
	for _, id := range classIDs {
		if row, ok := t.m.classes[id]; ok {
			locked[id] = &row
		}
	}
	return locked, nil
}

func (t memTx) FindCheckIn(_ context.Context, classID, userID uuid.UUID) (*models.CheckIn, error) {
	return t.m.find(classID, userID)
}

func (t memTx) FindCheckInOnDate(_ context.Context, userID uuid.UUID, day time.Time) (*models.CheckIn, error) {
	for _, checkIn := range t.m.checkIns {
		if checkIn.UserID == userID && checkIn.ClassDate.Equal(day) {
			found := checkIn
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (t memTx) CountCheckIns(_ context.Context, classID uuid.UUID) (int, error) {
	return t.m.count(classID), nil
}

func (t memTx) CreateCheckIn(_ context.Context, input repository.CreateCheckInInput) (*models.CheckIn, error) {
	t.m.inserts++
	if len(t.m.createErrs) > 0 {
		err := t.m.createErrs[0]
		t.m.createErrs = t.m.createErrs[1:]
		return nil, err
	}
	if t.m.createErr != nil {
		return nil, t.m.createErr
	}
	checkIn := models.CheckIn{
		ID:        uuid.New(),
		ClassID:   input.ClassID,
		UserID:    input.UserID,
		ClassDate: input.ClassDate,
		Status:    models.CheckInStatusConfirmed,
	}
	t.m.checkIns = append(t.m.checkIns, checkIn)
	return &checkIn, nil
}

func (t memTx) DeleteCheckIn(_ context.Context, classID, userID uuid.UUID) (int64, error) {
	before := len(t.m.checkIns)
	t.m.checkIns = slices.DeleteFunc(t.m.checkIns, func(c models.CheckIn) bool {
		return c.ClassID == classID && c.UserID == userID
	})
	return int64(before - len(t.m.checkIns)), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.CheckInEvent
}

func (p *recordingPublisher) PublishCheckIn(_ context.Context, event events.CheckInEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() {}

type recordingNotifier struct {
	mu      sync.Mutex
	updates []models.RosterUpdate
}

func (n *recordingNotifier) Broadcast(update models.RosterUpdate) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, update)
}
