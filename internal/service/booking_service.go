package service

import (
	"context"
	"errors"
	"time"

	"courtbook/internal/database"
	"courtbook/internal/domain"
	"courtbook/internal/events"
	"courtbook/internal/metrics"
	"courtbook/internal/models"
	"courtbook/internal/schedule"

	"github.com/rs/zerolog"
)

// BookRequest is a booking attempt. MemberID is honoured only for admins
// booking on behalf of someone else.
type BookRequest struct {
	Date     schedule.Date
	Hour     int
	Court    int
	MemberID string
}

// BookingService composes the calendar, the grid and the store into the
// operations the HTTP layer exposes.
type BookingService struct {
	store    domain.ReservationStore
	grid     *schedule.Grid
	calendar *schedule.Calendar
	eventBus domain.EventPublisher
	retry    RetryPolicy
	logger   *zerolog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewBookingService(
	store domain.ReservationStore,
	grid *schedule.Grid,
	calendar *schedule.Calendar,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *BookingService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		store:    store,
		grid:     grid,
		calendar: calendar,
		eventBus: eventBus,
		retry:    DefaultRetryPolicy(),
		logger:   logger,
		sleep:    sleepContext,
	}
}

// SetRetryPolicy replaces the transient-failure retry policy.
func (s *BookingService) SetRetryPolicy(p RetryPolicy) {
	s.retry = p
}

func (s *BookingService) Grid() *schedule.Grid {
	return s.grid
}

// Dates reports the open window as of today in the club's calendar.
func (s *BookingService) Dates() *models.DatesView {
	today := s.calendar.Today()
	w := schedule.AvailableDates(today)

	nav := make(map[string]schedule.Navigation, 2)
	for _, d := range w.Dates() {
		nav[d.String()] = schedule.Navigate(d, today)
	}

	return &models.DatesView{
		Today:      today,
		First:      w.First,
		Second:     w.Second,
		Default:    schedule.DefaultDate(today),
		Navigation: nav,
	}
}

// GetAvailability builds the caller's view of an open day.
func (s *BookingService) GetAvailability(ctx context.Context, date schedule.Date, caller *models.Claims) (*models.AvailabilityView, error) {
	if err := requireMember(caller); err != nil {
		return nil, err
	}
	if !s.calendar.Window().Contains(date) {
		return nil, ErrInvalidDate
	}
	return s.availability(ctx, date, caller.MemberID)
}

func (s *BookingService) availability(ctx context.Context, date schedule.Date, memberID string) (*models.AvailabilityView, error) {
	var list []*models.Reservation
	err := s.withRetry(ctx, "list reservations", func() error {
		var err error
		list, err = s.store.ListReservationsByDate(ctx, date)
		return err
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return BuildAvailability(date, s.grid, list, memberID), nil
}

// ListReservations returns the raw reservation list of a day. Members are
// limited to open days; admins may look at any date.
func (s *BookingService) ListReservations(ctx context.Context, date schedule.Date, caller *models.Claims) ([]*models.Reservation, error) {
	if err := requireMember(caller); err != nil {
		return nil, err
	}
	if !caller.IsAdmin && !s.calendar.Window().Contains(date) {
		return nil, ErrInvalidDate
	}

	var list []*models.Reservation
	err := s.withRetry(ctx, "list reservations", func() error {
		var err error
		list, err = s.store.ListReservationsByDate(ctx, date)
		return err
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return list, nil
}

func (s *BookingService) GetReservation(ctx context.Context, id string, caller *models.Claims) (*models.Reservation, error) {
	if err := requireMember(caller); err != nil {
		return nil, err
	}
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return r, nil
}

// Book reserves (date, hour, court) for the caller. An already-held day or
// a visibly occupied slot is rejected from the fresh view before touching
// the store; the store re-checks both under its lock regardless.
func (s *BookingService) Book(ctx context.Context, req BookRequest, caller *models.Claims) (*models.Reservation, error) {
	if err := requireMember(caller); err != nil {
		return nil, err
	}

	window := s.calendar.Window()
	if !window.Contains(req.Date) {
		metrics.IncReservation(metrics.OutcomeInvalid)
		return nil, ErrInvalidDate
	}
	if !s.grid.Contains(req.Hour, req.Court) {
		metrics.IncReservation(metrics.OutcomeInvalid)
		return nil, ErrInvalidSlot
	}

	memberID := caller.MemberID
	if caller.IsAdmin && req.MemberID != "" {
		memberID = req.MemberID
	}

	view, err := s.availability(ctx, req.Date, memberID)
	if err != nil {
		metrics.IncReservation(metrics.OutcomeError)
		return nil, err
	}
	if view.HasReservation {
		metrics.IncReservation(metrics.OutcomeAlreadyBooked)
		return nil, ErrAlreadyBooked
	}
	if slot := view.Slot(req.Hour, req.Court); slot != nil && slot.Occupied {
		metrics.IncReservation(metrics.OutcomeSlotTaken)
		return nil, ErrSlotTaken
	}

	r := &models.Reservation{
		MemberID:        memberID,
		ReservationDate: req.Date,
		ReservationTime: req.Hour,
		CourtNumber:     req.Court,
	}
	err = s.withRetry(ctx, "create reservation", func() error {
		return s.store.CreateReservation(ctx, r, window)
	})
	if err != nil {
		err = mapStoreError(err)
		metrics.IncReservation(outcomeOf(err))
		s.logger.Info().Err(err).
			Str("member_id", memberID).
			Str("date", req.Date.String()).
			Int("hour", req.Hour).
			Int("court", req.Court).
			Msg("Reservation rejected")
		return nil, err
	}
	metrics.IncReservation(metrics.OutcomeCreated)

	if full, err := s.store.GetReservation(ctx, r.ID); err == nil {
		r = full
	} else {
		s.logger.Warn().Err(err).Str("reservation_id", r.ID).Msg("Failed to reload created reservation")
	}

	s.logger.Info().
		Str("reservation_id", r.ID).
		Str("member_id", memberID).
		Str("actor_id", caller.MemberID).
		Str("date", req.Date.String()).
		Int("hour", req.Hour).
		Int("court", req.Court).
		Msg("Reservation created")
	s.publishEvent(events.EventReservationCreated, r, caller)

	return r, nil
}

// CancelOwn deletes a reservation held by the caller, or any reservation
// when the caller is an admin.
func (s *BookingService) CancelOwn(ctx context.Context, id string, caller *models.Claims) error {
	if err := requireMember(caller); err != nil {
		return err
	}

	var deleted *models.Reservation
	err := s.withRetry(ctx, "cancel reservation", func() error {
		var err error
		deleted, err = s.store.CancelReservation(ctx, id, caller.MemberID, caller.IsAdmin)
		return err
	})
	if err != nil {
		return mapStoreError(err)
	}

	metrics.IncCancellation()
	s.logger.Info().
		Str("reservation_id", id).
		Str("member_id", deleted.MemberID).
		Str("actor_id", caller.MemberID).
		Bool("admin", caller.IsAdmin).
		Msg("Reservation cancelled")
	s.publishEvent(events.EventReservationCancelled, deleted, caller)

	return nil
}

// withRetry runs fn and repeats it after a backoff while it fails with a
// transient storage error, up to the policy's retry budget.
func (s *BookingService) withRetry(ctx context.Context, op string, fn func() error) error {
	err := fn()
	for attempt := 1; attempt <= s.retry.MaxRetries && errors.Is(err, database.ErrTransient); attempt++ {
		delay := s.retry.NextDelay(attempt)
		metrics.IncRetry()
		s.logger.Warn().Err(err).Str("op", op).Int("attempt", attempt).Dur("delay", delay).Msg("Transient storage failure, retrying")

		if sleepErr := s.sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
		err = fn()
	}
	return err
}

func (s *BookingService) publishEvent(eventType string, r *models.Reservation, caller *models.Claims) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID: r.ID,
		MemberID:      r.MemberID,
		Date:          r.ReservationDate.String(),
		Hour:          r.ReservationTime,
		Court:         r.CourtNumber,
		ActorID:       caller.MemberID,
		ActorIsAdmin:  caller.IsAdmin,
		OccurredAt:    time.Now().UTC(),
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("reservation_id", r.ID).Msg("publish event error")
	}
}

func requireMember(caller *models.Claims) error {
	if caller == nil || caller.MemberID == "" {
		return ErrUnauthenticated
	}
	if !caller.IsProfileComplete {
		return ErrProfileIncomplete
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrSlotTaken):
		return metrics.OutcomeSlotTaken
	case errors.Is(err, ErrAlreadyBooked):
		return metrics.OutcomeAlreadyBooked
	case errors.Is(err, ErrInvalidSlot), errors.Is(err, ErrInvalidDate):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
