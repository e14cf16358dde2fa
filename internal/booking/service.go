package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"ms-booking/internal/apperr"
	"ms-booking/internal/booking/db"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxInsertAttempts = 3

type ScheduleStore interface {
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	SearchSchedules(ctx context.Context, fromCity, toCity string, journeyDate time.Time) ([]models.Schedule, error)
}

type Ledger interface {
	OccupiedSeats(ctx context.Context, scheduleID string) ([]string, error)
	NextBookingReference(ctx context.Context) (string, error)
	InsertBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error)
}

type SeatLocker interface {
	HoldSeats(ctx context.Context, scheduleID string, seats []string, holder string) ([]string, error)
	ReleaseSeats(ctx context.Context, scheduleID string, seats []string, holder string) error
}

type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, event models.BookingEvent) error
	PublishSeatStatus(ctx context.Context, event models.SeatStatusEvent) error
}

type TicketRenderer interface {
	RenderTicket(b *models.Booking) ([]byte, error)
}

type BookingService struct {
	Schedules ScheduleStore
	Ledger    Ledger
	Locker    SeatLocker
	Events    EventPublisher
	Tickets   TicketRenderer
	Logger    *logger.Logger

	// Location decides what "today" means for journey dates.
	Location *time.Location
	Now      func() time.Time

	validate *validator.Validate
}

// NewBookingService wires the booking workflows. locker may be nil, in
// which case the storage constraint alone serializes seat claims.
func NewBookingService(schedules ScheduleStore, ledger Ledger, locker SeatLocker, events EventPublisher, tickets TicketRenderer, log *logger.Logger, loc *time.Location) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		Schedules: schedules,
		Ledger:    ledger,
		Locker:    locker,
		Events:    events,
		Tickets:   tickets,
		Logger:    log,
		Location:  loc,
		Now:       time.Now,
		validate:  validator.New(),
	}
}

// ---------------- CREATE ----------------

// CreateBooking validates the request, claims the seats and stores a
// pending booking. On any failure the ledger is left unchanged.
func (s *BookingService) CreateBooking(ctx context.Context, userID string, req models.BookingRequest) (*models.BookingResponse, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	schedule, err := s.Schedules.GetSchedule(ctx, req.ScheduleID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound("Schedule not found or inactive")
		}
		return nil, apperr.Datastore("failed to load schedule", err)
	}
	if !schedule.IsActive {
		return nil, apperr.NotFound("Schedule not found or inactive")
	}

	if len(req.SeatNumbers) > schedule.AvailableSeats {
		return nil, apperr.InsufficientSeats(len(req.SeatNumbers), schedule.AvailableSeats)
	}

	if s.isPast(schedule.JourneyDate) {
		return nil, apperr.PastDate("Cannot book for past dates")
	}

	if schedule.Bus != nil {
		if unknown := unknownSeats(req.SeatNumbers, schedule.Bus.TotalSeats); len(unknown) > 0 {
			return nil, apperr.InvalidInput("unknown seat numbers: %s", strings.Join(unknown, ", "))
		}
	}

	bookingID := uuid.NewString()

	if s.Locker != nil {
		contested, err := s.Locker.HoldSeats(ctx, schedule.ID, req.SeatNumbers, bookingID)
		if err != nil {
			return nil, apperr.Datastore("failed to hold seats", err)
		}
		if len(contested) > 0 {
			s.Logger.LogBooking("HOLD", bookingID, fmt.Sprintf("seats in contention: %s", strings.Join(contested, ", ")))
			return nil, apperr.SeatConflict(contested)
		}
		defer func() {
			if err := s.Locker.ReleaseSeats(context.WithoutCancel(ctx), schedule.ID, req.SeatNumbers, bookingID); err != nil {
				s.Logger.Warn("REDIS", fmt.Sprintf("Failed to release holds for %s: %v", bookingID, err))
			}
		}()
	}

	if conflicts, err := s.conflictingSeats(ctx, schedule.ID, req.SeatNumbers); err != nil {
		return nil, err
	} else if len(conflicts) > 0 {
		return nil, apperr.SeatConflict(conflicts)
	}

	now := s.Now().UTC()
	booking := &models.Booking{
		ID:               bookingID,
		UserID:           userID,
		ScheduleID:       schedule.ID,
		SeatNumbers:      req.SeatNumbers,
		PassengerDetails: req.PassengerDetails,
		TotalAmount:      totalAmount(schedule.Price, len(req.SeatNumbers)),
		BookingStatus:    models.BookingPending,
		PaymentStatus:    models.PaymentPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.insert(ctx, booking); err != nil {
		return nil, err
	}
	s.Logger.LogBooking("CREATE", booking.ID, fmt.Sprintf("%s holds %s on %s for %.2f",
		booking.BookingReference, strings.Join(booking.SeatNumbers, ","), schedule.ID, booking.TotalAmount))

	s.publishBooking(ctx, models.EventBookingCreated, booking)
	s.publishSeats(ctx, schedule.ID, booking.SeatNumbers, models.SeatHeld)

	return &models.BookingResponse{
		BookingID:        booking.ID,
		BookingReference: booking.BookingReference,
		TotalAmount:      booking.TotalAmount,
		Schedule:         schedule.Snapshot(),
		SeatNumbers:      booking.SeatNumbers,
		PassengerDetails: booking.PassengerDetails,
	}, nil
}

func (s *BookingService) validateRequest(req models.BookingRequest) error {
	if req.ScheduleID == "" || len(req.SeatNumbers) == 0 || len(req.PassengerDetails) == 0 {
		return apperr.InvalidInput("Invalid booking data")
	}
	if len(req.SeatNumbers) != len(req.PassengerDetails) {
		return apperr.InvalidInput("Seat count must match passenger count")
	}

	seen := make(map[string]struct{}, len(req.SeatNumbers))
	for _, seat := range req.SeatNumbers {
		if strings.TrimSpace(seat) == "" {
			return apperr.InvalidInput("seat numbers must not be empty")
		}
		if _, dup := seen[seat]; dup {
			return apperr.InvalidInput("seat %s requested more than once", seat)
		}
		seen[seat] = struct{}{}
	}

	for i, p := range req.PassengerDetails {
		if err := s.validate.Struct(p); err != nil {
			return apperr.InvalidInput("passenger %d: %s", i+1, describeValidation(err))
		}
	}
	return nil
}

// insert assigns a reference and writes the booking, retrying when the
// reference raced another insert.
func (s *BookingService) insert(ctx context.Context, booking *models.Booking) error {
	for attempt := 1; ; attempt++ {
		ref, err := s.Ledger.NextBookingReference(ctx)
		if err != nil {
			return apperr.Datastore("failed to generate booking reference", err)
		}
		booking.BookingReference = ref

		err = s.Ledger.InsertBooking(ctx, booking)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, db.ErrReferenceTaken) && attempt < maxInsertAttempts:
			s.Logger.Debug("BOOKING", fmt.Sprintf("reference %s taken, retrying", ref))
			continue
		case errors.Is(err, db.ErrSeatClaimed):
			conflicts, cerr := s.conflictingSeats(ctx, booking.ScheduleID, booking.SeatNumbers)
			if cerr != nil {
				return cerr
			}
			if len(conflicts) == 0 {
				conflicts = booking.SeatNumbers
			}
			return apperr.SeatConflict(conflicts)
		default:
			return apperr.Datastore("Failed to create booking", err)
		}
	}
}

// conflictingSeats returns the requested seats already occupied, in
// request order.
func (s *BookingService) conflictingSeats(ctx context.Context, scheduleID string, requested []string) ([]string, error) {
	occupied, err := s.Ledger.OccupiedSeats(ctx, scheduleID)
	if err != nil {
		return nil, apperr.Datastore("failed to load seat occupancy", err)
	}
	taken := make(map[string]struct{}, len(occupied))
	for _, seat := range occupied {
		taken[seat] = struct{}{}
	}

	var conflicts []string
	for _, seat := range requested {
		if _, ok := taken[seat]; ok {
			conflicts = append(conflicts, seat)
		}
	}
	return conflicts, nil
}

// ---------------- READ ----------------

func (s *BookingService) GetBooking(ctx context.Context, userID, bookingID string) (*models.Booking, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	booking, err := s.Ledger.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound("Booking not found")
		}
		return nil, apperr.Datastore("failed to load booking", err)
	}
	if booking.UserID != userID {
		return nil, apperr.NotFound("Booking not found")
	}
	return booking, nil
}

func (s *BookingService) ListUserBookings(ctx context.Context, userID string) ([]models.BookingSummary, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	bookings, err := s.Ledger.ListBookingsByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Datastore("failed to list bookings", err)
	}
	summaries := make([]models.BookingSummary, 0, len(bookings))
	for i := range bookings {
		summaries = append(summaries, bookings[i].Summary())
	}
	return summaries, nil
}

// TicketQR renders the boarding pass of a confirmed booking.
func (s *BookingService) TicketQR(ctx context.Context, userID, bookingID string) ([]byte, error) {
	booking, err := s.GetBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.BookingStatus != models.BookingConfirmed {
		return nil, apperr.NotConfirmed()
	}
	png, err := s.Tickets.RenderTicket(booking)
	if err != nil {
		return nil, fmt.Errorf("render ticket %s: %w", booking.ID, err)
	}
	return png, nil
}

// ---------------- SEARCH ----------------

func (s *BookingService) SearchSchedules(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	if req.FromCity == "" || req.ToCity == "" || req.JourneyDate == "" {
		return nil, apperr.InvalidInput("From city, to city, and journey date are required")
	}
	date, err := models.ParseJourneyDate(req.JourneyDate)
	if err != nil {
		return nil, apperr.InvalidInput("journey date must be YYYY-MM-DD")
	}
	if s.isPast(date) {
		return nil, apperr.PastDate("Cannot search for past dates")
	}

	schedules, err := s.Schedules.SearchSchedules(ctx, req.FromCity, req.ToCity, date)
	if err != nil {
		return nil, apperr.Datastore("Search failed", err)
	}

	results := make([]models.SearchResult, 0, len(schedules))
	for _, schedule := range schedules {
		results = append(results, models.NewSearchResult(schedule))
	}
	return &models.SearchResponse{
		Results:    results,
		TotalCount: len(results),
		SearchParams: models.SearchParams{
			FromCity:    req.FromCity,
			ToCity:      req.ToCity,
			JourneyDate: req.JourneyDate,
		},
	}, nil
}

// SeatMap lays the bus out in rows of four and marks occupied seats.
func (s *BookingService) SeatMap(ctx context.Context, scheduleID string) (*models.SeatMap, error) {
	schedule, err := s.Schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound("Schedule not found or inactive")
		}
		return nil, apperr.Datastore("failed to load schedule", err)
	}
	if !schedule.IsActive || schedule.Bus == nil {
		return nil, apperr.NotFound("Schedule not found or inactive")
	}

	occupied, err := s.Ledger.OccupiedSeats(ctx, schedule.ID)
	if err != nil {
		return nil, apperr.Datastore("failed to load seat occupancy", err)
	}

	layout := SeatLayout(schedule.Bus.TotalSeats)
	booked := 0
	for _, seat := range occupied {
		if seatInLayout(seat, schedule.Bus.TotalSeats) {
			booked++
		}
	}
	return &models.SeatMap{
		ScheduleID:     schedule.ID,
		TotalSeats:     schedule.Bus.TotalSeats,
		Layout:         layout,
		BookedSeats:    occupied,
		AvailableCount: schedule.Bus.TotalSeats - booked,
	}, nil
}

// ---------------- HELPERS ----------------

// isPast compares civil dates in the service location.
func (s *BookingService) isPast(journeyDate time.Time) bool {
	ty, tm, td := s.Now().In(s.Location).Date()
	today := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	jy, jm, jd := journeyDate.Date()
	return time.Date(jy, jm, jd, 0, 0, 0, 0, time.UTC).Before(today)
}

func totalAmount(price float64, seats int) float64 {
	return math.Round(price*float64(seats)*100) / 100
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(fields, ", ")
}

func (s *BookingService) publishBooking(ctx context.Context, eventType string, b *models.Booking) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishBookingEvent(ctx, models.NewBookingEvent(eventType, b, s.Now().UTC())); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Kafka publish error (%s) for %s: %v", eventType, b.ID, err))
	}
}

func (s *BookingService) publishSeats(ctx context.Context, scheduleID string, seats []string, status models.SeatStatus) {
	if s.Events == nil {
		return
	}
	event := models.SeatStatusEvent{
		ScheduleID:  scheduleID,
		SeatNumbers: seats,
		Status:      status,
		Timestamp:   s.Now().UTC(),
	}
	if err := s.Events.PublishSeatStatus(ctx, event); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Kafka publish error (seat %s) for %s: %v", status, scheduleID, err))
	}
}
