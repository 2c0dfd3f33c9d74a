package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Glivan2903/fazendo-90/internal/events"
	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/Glivan2903/fazendo-90/internal/repository"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrClassNotFound   = errors.New("class not found")

	// errKeepBooking aborts a change transaction without it being a failure.
	errKeepBooking = errors.New("keep current booking")
)

var tracer = otel.Tracer("github.com/Glivan2903/fazendo-90/internal/services")

type rosterLocker interface {
	WithinUserLock(ctx context.Context, userID uuid.UUID, fn func(store repository.RosterStore) error) error
}

type classDirectory interface {
	ListByDate(ctx context.Context, day time.Time) ([]repository.ClassRow, error)
	GetDetail(ctx context.Context, classID uuid.UUID) (*repository.ClassRow, error)
}

type rosterReader interface {
	ListUserIDsByClassIDs(ctx context.Context, classIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	ListAttendees(ctx context.Context, classID uuid.UUID) ([]models.Attendee, error)
}

type rosterNotifier interface {
	Broadcast(update models.RosterUpdate)
}

type BookingConfig struct {
	DemoMode bool
	Location *time.Location
}

type BookingService struct {
	locker    rosterLocker
	classes   classDirectory
	roster    rosterReader
	publisher events.EventPublisher
	notifier  rosterNotifier
	demo      *DemoGenerator
	demoMode  bool
	loc       *time.Location
	now       func() time.Time
}

func NewBookingService(
	locker rosterLocker,
	classes classDirectory,
	roster rosterReader,
	publisher events.EventPublisher,
	notifier rosterNotifier,
	cfg BookingConfig,
) *BookingService {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &BookingService{
		locker:    locker,
		classes:   classes,
		roster:    roster,
		publisher: publisher,
		notifier:  notifier,
		demo:      NewDemoGenerator(loc),
		demoMode:  cfg.DemoMode,
		loc:       loc,
		now:       time.Now,
	}
}

// Today is the current calendar day in the gym's timezone.
func (s *BookingService) Today() time.Time {
	return CalendarDay(s.now().In(s.loc))
}

// ListClasses never fails. A backend error yields a degraded listing, filled
// with placeholder classes only when demo mode is on.
func (s *BookingService) ListClasses(ctx context.Context, viewer Viewer, date time.Time) models.ClassListing {
	ctx, span := tracer.Start(ctx, "BookingService.ListClasses")
	defer span.End()

	day := CalendarDay(date)
	listing, err := s.listLive(ctx, viewer, day)
	if err != nil {
		span.RecordError(err)
		log.Ctx(ctx).Error().Err(err).Str("date", day.Format(time.DateOnly)).Msg("class listing failed")
		listing = models.ClassListing{
			Date:     day.Format(time.DateOnly),
			Classes:  []models.ClassListItem{},
			Source:   models.SourceLive,
			Degraded: true,
		}
	}

	if s.demoMode && len(listing.Classes) == 0 {
		listing.Classes = s.demo.Classes(day)
		listing.Source = models.SourceDemo
	}

	span.SetAttributes(
		attribute.String("listing.source", listing.Source),
		attribute.Int("listing.classes", len(listing.Classes)),
	)
	recordListing(listing.Source, listing.Degraded)
	return listing
}

func (s *BookingService) listLive(ctx context.Context, viewer Viewer, day time.Time) (models.ClassListing, error) {
	rows, err := s.classes.ListByDate(ctx, day)
	if err != nil {
		return models.ClassListing{}, err
	}

	classIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		classIDs = append(classIDs, row.ID)
	}
	rosters, err := s.roster.ListUserIDsByClassIDs(ctx, classIDs)
	if err != nil {
		return models.ClassListing{}, err
	}

	now := s.now()
	items := make([]models.ClassListItem, 0, len(rows))
	for _, row := range rows {
		roster := rosters[row.ID]
		startsAt, endsAt := s.classWindow(row, now)
		items = append(items, models.ClassListItem{
			ID:            row.ID.String(),
			StartsAt:      startsAt,
			EndsAt:        endsAt,
			ProgramName:   row.ProgramName,
			CoachName:     row.CoachName,
			CoachAvatar:   row.CoachAvatar,
			MaxCapacity:   row.MaxCapacity,
			AttendeeCount: len(roster),
			SpotsLeft:     row.MaxCapacity - len(roster),
			IsCheckedIn:   viewer.Authenticated && containsUser(roster, viewer.UserID),
		})
	}

	return models.ClassListing{
		Date:    day.Format(time.DateOnly),
		Classes: items,
		Source:  models.SourceLive,
	}, nil
}

// GetClassDetail returns ErrClassNotFound for unknown ids outside demo mode.
// Backend errors are returned as is, except in demo mode where a placeholder
// detail flagged as degraded is served instead.
func (s *BookingService) GetClassDetail(ctx context.Context, viewer Viewer, classID string) (*models.ClassDetailView, error) {
	ctx, span := tracer.Start(ctx, "BookingService.GetClassDetail")
	defer span.End()

	id, err := uuid.Parse(classID)
	if err != nil {
		if s.demoMode {
			return s.demoDetail(classID, false), nil
		}
		return nil, ErrClassNotFound
	}

	view, err := s.liveDetail(ctx, viewer, id)
	switch {
	case err == nil:
		return view, nil
	case errors.Is(err, pgx.ErrNoRows):
		if s.demoMode {
			return s.demoDetail(classID, false), nil
		}
		return nil, ErrClassNotFound
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "class detail failed")
		log.Ctx(ctx).Error().Err(err).Str("class_id", classID).Msg("class detail failed")
		if s.demoMode {
			return s.demoDetail(classID, true), nil
		}
		return nil, err
	}
}

func (s *BookingService) liveDetail(ctx context.Context, viewer Viewer, classID uuid.UUID) (*models.ClassDetailView, error) {
	row, err := s.classes.GetDetail(ctx, classID)
	if err != nil {
		return nil, err
	}
	attendees, err := s.roster.ListAttendees(ctx, classID)
	if err != nil {
		return nil, err
	}

	checkedIn := false
	if viewer.Authenticated {
		me := viewer.UserID.String()
		for _, attendee := range attendees {
			if attendee.UserID == me {
				checkedIn = true
				break
			}
		}
	}

	startsAt, endsAt := s.classWindow(*row, s.now())
	return &models.ClassDetailView{
		Class: models.ClassDetail{
			ID:            row.ID.String(),
			Date:          row.Date.Format(time.DateOnly),
			StartsAt:      startsAt,
			EndsAt:        endsAt,
			ProgramName:   row.ProgramName,
			CoachName:     row.CoachName,
			CoachAvatar:   row.CoachAvatar,
			MaxCapacity:   row.MaxCapacity,
			AttendeeCount: len(attendees),
			SpotsLeft:     row.MaxCapacity - len(attendees),
			IsCheckedIn:   checkedIn,
		},
		Attendees: attendees,
		Source:    models.SourceLive,
	}, nil
}

func (s *BookingService) demoDetail(classID string, degraded bool) *models.ClassDetailView {
	detail, attendees := s.demo.Detail(classID, s.Today())
	return &models.ClassDetailView{
		Class:     detail,
		Attendees: attendees,
		Source:    models.SourceDemo,
		Degraded:  degraded,
	}
}

// CheckIn books the viewer into classID. Business refusals are reported in
// the result with a nil error; backend failures come back as OutcomeFailed
// together with the error.
func (s *BookingService) CheckIn(ctx context.Context, viewer Viewer, classID string) (CheckInResult, error) {
	ctx, span := tracer.Start(ctx, "BookingService.CheckIn")
	defer span.End()

	if !viewer.Authenticated {
		recordOutcome("checkin", OutcomeUnauthenticated)
		return CheckInResult{Outcome: OutcomeUnauthenticated}, nil
	}

	id, err := uuid.Parse(classID)
	if err != nil {
		recordOutcome("checkin", OutcomeFailed)
		return CheckInResult{Outcome: OutcomeFailed}, ErrClassNotFound
	}

	res, err := s.reserveWithRetry(ctx, viewer.UserID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrClassNotFound
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, "check-in failed")
			log.Ctx(ctx).Error().Err(err).Str("class_id", classID).Str("user_id", viewer.UserID.String()).Msg("check-in failed")
		}
		recordOutcome("checkin", OutcomeFailed)
		return CheckInResult{Outcome: OutcomeFailed}, err
	}

	span.SetAttributes(attribute.String("checkin.outcome", string(res.result.Outcome)))
	recordOutcome("checkin", res.result.Outcome)
	if res.result.Outcome == OutcomeBooked {
		s.announce(ctx, events.CheckInEvent{
			EventType: events.SubjectCheckInCreated,
			ClassID:   id.String(),
			UserID:    viewer.UserID.String(),
			ClassDate: res.class.Date.Format(time.DateOnly),
		}, res.update())
	}
	return res.result, nil
}

// CancelCheckIn removes the viewer's booking. Cancelling a class the viewer
// never booked still succeeds.
func (s *BookingService) CancelCheckIn(ctx context.Context, viewer Viewer, classID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "BookingService.CancelCheckIn")
	defer span.End()

	if !viewer.Authenticated {
		return false, ErrUnauthenticated
	}
	id, err := uuid.Parse(classID)
	if err != nil {
		return false, ErrClassNotFound
	}

	var (
		class   *repository.ClassRow
		deleted int64
		count   int
	)
	err = s.locker.WithinUserLock(ctx, viewer.UserID, func(store repository.RosterStore) error {
		var err error
		class, err = store.GetClassForUpdate(ctx, id)
		if errors.Is(err, pgx.ErrNoRows) {
			class = nil
			return nil
		}
		if err != nil {
			return err
		}
		if deleted, err = store.DeleteCheckIn(ctx, id, viewer.UserID); err != nil {
			return err
		}
		count, err = store.CountCheckIns(ctx, id)
		return err
	})
	if err != nil {
		span.RecordError(err)
		log.Ctx(ctx).Error().Err(err).Str("class_id", classID).Msg("cancel check-in failed")
		return false, err
	}

	if deleted > 0 && class != nil {
		s.announce(ctx, events.CheckInEvent{
			EventType: events.SubjectCheckInCancelled,
			ClassID:   id.String(),
			UserID:    viewer.UserID.String(),
			ClassDate: class.Date.Format(time.DateOnly),
		}, []models.RosterUpdate{rosterUpdate(class, count)})
	}
	return true, nil
}

// ChangeCheckIn moves the viewer from fromClassID to toClassID in one
// transaction. Unless the target is freshly booked the move is rolled back and
// the original booking stays.
func (s *BookingService) ChangeCheckIn(
	ctx context.Context,
	viewer Viewer,
	fromClassID string,
	toClassID string,
) (CheckInResult, error) {
	ctx, span := tracer.Start(ctx, "BookingService.ChangeCheckIn")
	defer span.End()

	if !viewer.Authenticated {
		recordOutcome("change", OutcomeUnauthenticated)
		return CheckInResult{Outcome: OutcomeUnauthenticated}, nil
	}
	if fromClassID == toClassID {
		return s.CheckIn(ctx, viewer, toClassID)
	}

	fromID, err := uuid.Parse(fromClassID)
	if err != nil {
		return CheckInResult{Outcome: OutcomeFailed}, ErrClassNotFound
	}
	toID, err := uuid.Parse(toClassID)
	if err != nil {
		return CheckInResult{Outcome: OutcomeFailed}, ErrClassNotFound
	}

	var (
		res       reservation
		fromClass *repository.ClassRow
		fromCount int
	)
	err = s.locker.WithinUserLock(ctx, viewer.UserID, func(store repository.RosterStore) error {
		// Both rows are locked up front in id order; reserve re-reads the
		// target under a lock this transaction already holds.
		locked, err := store.LockClasses(ctx, []uuid.UUID{fromID, toID})
		if err != nil {
			return err
		}
		fromClass = locked[fromID]
		if _, err := store.DeleteCheckIn(ctx, fromID, viewer.UserID); err != nil {
			return err
		}

		res, err = reserve(ctx, store, viewer.UserID, toID)
		if err != nil {
			return err
		}
		if res.result.Outcome != OutcomeBooked {
			return errKeepBooking
		}

		if fromClass != nil {
			fromCount, err = store.CountCheckIns(ctx, fromID)
			return err
		}
		return nil
	})

	switch {
	case errors.Is(err, errKeepBooking):
		recordOutcome("change", res.result.Outcome)
		return res.result, nil
	case errors.Is(err, pgx.ErrNoRows):
		recordOutcome("change", OutcomeFailed)
		return CheckInResult{Outcome: OutcomeFailed}, ErrClassNotFound
	case err != nil:
		if constraint, ok := repository.UniqueViolation(err); ok {
			log.Ctx(ctx).Warn().Str("constraint", constraint).Msg("change check-in raced with another booking")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "change check-in failed")
		log.Ctx(ctx).Error().Err(err).Str("from_class_id", fromClassID).Str("to_class_id", toClassID).Msg("change check-in failed")
		recordOutcome("change", OutcomeFailed)
		return CheckInResult{Outcome: OutcomeFailed}, err
	}

	recordOutcome("change", res.result.Outcome)
	updates := res.update()
	if fromClass != nil {
		updates = append(updates, rosterUpdate(fromClass, fromCount))
	}
	s.announce(ctx, events.CheckInEvent{
		EventType:   events.SubjectCheckInChanged,
		ClassID:     toID.String(),
		FromClassID: fromID.String(),
		UserID:      viewer.UserID.String(),
		ClassDate:   res.class.Date.Format(time.DateOnly),
	}, updates)
	return res.result, nil
}

type reservation struct {
	result    CheckInResult
	class     *repository.ClassRow
	attendees int
	written   bool
}

func (r reservation) update() []models.RosterUpdate {
	if !r.written || r.class == nil {
		return nil
	}
	return []models.RosterUpdate{rosterUpdate(r.class, r.attendees)}
}

// reserveWithRetry runs the reservation once more when the insert trips a
// unique constraint, so the loser of a race gets a proper outcome.
func (s *BookingService) reserveWithRetry(ctx context.Context, userID, classID uuid.UUID) (reservation, error) {
	res, err := s.reserveLocked(ctx, userID, classID)
	if _, ok := repository.UniqueViolation(err); ok {
		res, err = s.reserveLocked(ctx, userID, classID)
	}
	return res, err
}

func (s *BookingService) reserveLocked(ctx context.Context, userID, classID uuid.UUID) (reservation, error) {
	var res reservation
	err := s.locker.WithinUserLock(ctx, userID, func(store repository.RosterStore) error {
		var err error
		res, err = reserve(ctx, store, userID, classID)
		return err
	})
	return res, err
}

// reserve applies the booking rules in order: existing booking for the class,
// another booking the same day, then capacity.
func reserve(ctx context.Context, store repository.RosterStore, userID, classID uuid.UUID) (reservation, error) {
	class, err := store.GetClassForUpdate(ctx, classID)
	if err != nil {
		return reservation{}, err
	}
	res := reservation{class: class}

	if _, err := store.FindCheckIn(ctx, classID, userID); err == nil {
		res.result = CheckInResult{Outcome: OutcomeAlreadyBooked}
		return res, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return reservation{}, err
	}

	other, err := store.FindCheckInOnDate(ctx, userID, class.Date)
	switch {
	case err == nil && other.ClassID != classID:
		res.result = CheckInResult{Outcome: OutcomeConflict, ConflictClassID: other.ClassID.String()}
		return res, nil
	case err != nil && !errors.Is(err, pgx.ErrNoRows):
		return reservation{}, err
	}

	count, err := store.CountCheckIns(ctx, classID)
	if err != nil {
		return reservation{}, err
	}
	if count >= class.MaxCapacity {
		res.result = CheckInResult{Outcome: OutcomeFull}
		return res, nil
	}

	if _, err := store.CreateCheckIn(ctx, repository.CreateCheckInInput{
		ClassID:   classID,
		UserID:    userID,
		ClassDate: class.Date,
	}); err != nil {
		return reservation{}, err
	}

	res.result = CheckInResult{Outcome: OutcomeBooked}
	res.attendees = count + 1
	res.written = true
	return res, nil
}

func (s *BookingService) announce(ctx context.Context, event events.CheckInEvent, updates []models.RosterUpdate) {
	if err := s.publisher.PublishCheckIn(ctx, event); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("event", event.EventType).Msg("check-in event not published")
	}
	if s.notifier == nil {
		return
	}
	for _, update := range updates {
		s.notifier.Broadcast(update)
	}
}

// classWindow builds the class's start and end instants. A stored time that
// cannot be turned into an instant falls back to now and now plus one hour.
func (s *BookingService) classWindow(row repository.ClassRow, now time.Time) (time.Time, time.Time) {
	startsAt, okStart := combine(row.Date, row.StartTime, s.loc)
	endsAt, okEnd := combine(row.Date, row.EndTime, s.loc)
	if !okStart || !okEnd {
		log.Warn().Str("class_id", row.ID.String()).Msg("class has an unusable time, using current time")
		return now, now.Add(time.Hour)
	}
	return startsAt, endsAt
}

func combine(day time.Time, clock pgtype.Time, loc *time.Location) (time.Time, bool) {
	if day.IsZero() || !clock.Valid || clock.Microseconds < 0 || clock.Microseconds >= int64(24*time.Hour/time.Microsecond) {
		return time.Time{}, false
	}
	y, m, d := day.Date()
	offset := time.Duration(clock.Microseconds) * time.Microsecond
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(offset), true
}

func rosterUpdate(class *repository.ClassRow, attendees int) models.RosterUpdate {
	return models.RosterUpdate{
		ClassID:       class.ID.String(),
		Date:          class.Date.Format(time.DateOnly),
		AttendeeCount: attendees,
		SpotsLeft:     class.MaxCapacity - attendees,
	}
}

func containsUser(roster []uuid.UUID, userID uuid.UUID) bool {
	for _, id := range roster {
		if id == userID {
			return true
		}
	}
	return false
}
