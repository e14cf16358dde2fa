package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ms-booking/internal/apperr"
	"ms-booking/internal/booking"
	"ms-booking/internal/booking/db"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations
type MockScheduleStore struct {
	mock.Mock
}

func (m *MockScheduleStore) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Schedule), args.Error(1)
}

func (m *MockScheduleStore) SearchSchedules(ctx context.Context, fromCity, toCity string, journeyDate time.Time) ([]models.Schedule, error) {
	args := m.Called(ctx, fromCity, toCity, journeyDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Schedule), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) OccupiedSeats(ctx context.Context, scheduleID string) ([]string, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLedger) NextBookingReference(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockLedger) InsertBooking(ctx context.Context, b *models.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockLedger) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockLedger) ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) HoldSeats(ctx context.Context, scheduleID string, seats []string, holder string) ([]string, error) {
	args := m.Called(ctx, scheduleID, seats, holder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLocker) ReleaseSeats(ctx context.Context, scheduleID string, seats []string, holder string) error {
	args := m.Called(ctx, scheduleID, seats, holder)
	return args.Error(0)
}

type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) PublishBookingEvent(ctx context.Context, event models.BookingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEvents) PublishSeatStatus(ctx context.Context, event models.SeatStatusEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockTickets struct {
	mock.Mock
}

func (m *MockTickets) RenderTicket(b *models.Booking) ([]byte, error) {
	args := m.Called(b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Tests run at 10:00 UTC on 14 Oct 2026, 15:30 in Kolkata.
var fixedNow = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *booking.BookingService
	schedules *MockScheduleStore
	ledger    *MockLedger
	locker    *MockLocker
	events    *MockEvents
	tickets   *MockTickets
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	f := &fixture{
		schedules: new(MockScheduleStore),
		ledger:    new(MockLedger),
		locker:    new(MockLocker),
		events:    new(MockEvents),
		tickets:   new(MockTickets),
	}
	f.svc = booking.NewBookingService(f.schedules, f.ledger, f.locker, f.events, f.tickets, logger.NewNop(), loc)
	f.svc.Now = func() time.Time { return fixedNow }
	return f
}

func testSchedule(journeyDate time.Time) *models.Schedule {
	return &models.Schedule{
		ID:             "sched-1",
		BusID:          "bus-1",
		RouteID:        "route-1",
		DepartureTime:  "22:00:00",
		ArrivalTime:    "04:00:00",
		Price:          450.5,
		AvailableSeats: 40,
		JourneyDate:    journeyDate,
		IsActive:       true,
		Bus:            &models.Bus{ID: "bus-1", BusNumber: "KA-01-F-1234", Operator: "Sharma Travels", TotalSeats: 40, IsActive: true},
		Route:          &models.Route{ID: "route-1", FromCity: "Bangalore", ToCity: "Chennai", IsActive: true},
	}
}

func tomorrow() time.Time {
	return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
}

func bookingRequest(seats ...string) models.BookingRequest {
	passengers := make([]models.PassengerDetail, 0, len(seats))
	for range seats {
		passengers = append(passengers, models.PassengerDetail{Name: "Asha", Age: 31, Gender: "female", Phone: "9999999999"})
	}
	return models.BookingRequest{ScheduleID: "sched-1", SeatNumbers: seats, PassengerDetails: passengers}
}

func (f *fixture) expectHappyPath(schedule *models.Schedule, occupied []string) {
	f.schedules.On("GetSchedule", mock.Anything, schedule.ID).Return(schedule, nil)
	f.locker.On("HoldSeats", mock.Anything, schedule.ID, mock.Anything, mock.Anything).Return(nil, nil)
	f.locker.On("ReleaseSeats", mock.Anything, schedule.ID, mock.Anything, mock.Anything).Return(nil)
	f.ledger.On("OccupiedSeats", mock.Anything, schedule.ID).Return(occupied, nil)
	f.ledger.On("NextBookingReference", mock.Anything).Return("BKA1B2C3D4", nil)
	f.ledger.On("InsertBooking", mock.Anything, mock.AnythingOfType("*models.Booking")).Return(nil)
	f.events.On("PublishBookingEvent", mock.Anything, mock.Anything).Return(nil)
	f.events.On("PublishSeatStatus", mock.Anything, mock.Anything).Return(nil)
}

func TestCreateBookingSuccess(t *testing.T) {
	f := newFixture(t)
	f.expectHappyPath(testSchedule(tomorrow()), []string{"1A"})

	resp, err := f.svc.CreateBooking(context.Background(), "user-1", bookingRequest("2A", "2B", "2C"))
	require.NoError(t, err)

	assert.NotEmpty(t, resp.BookingID)
	assert.Equal(t, "BKA1B2C3D4", resp.BookingReference)
	assert.Equal(t, 1351.5, resp.TotalAmount)
	assert.Equal(t, []string{"2A", "2B", "2C"}, resp.SeatNumbers)
	assert.Len(t, resp.PassengerDetails, 3)
	assert.Equal(t, models.ScheduleSnapshot{
		JourneyDate:   "2026-10-15",
		DepartureTime: "22:00:00",
		ArrivalTime:   "04:00:00",
		FromCity:      "Bangalore",
		ToCity:        "Chennai",
		BusNumber:     "KA-01-F-1234",
		Operator:      "Sharma Travels",
	}, resp.Schedule)

	f.ledger.AssertCalled(t, "InsertBooking", mock.Anything, mock.MatchedBy(func(b *models.Booking) bool {
		return b.ID == resp.BookingID &&
			b.UserID == "user-1" &&
			b.BookingStatus == models.BookingPending &&
			b.PaymentStatus == models.PaymentPending &&
			len(b.SeatNumbers) == len(b.PassengerDetails)
	}))
	f.locker.AssertCalled(t, "HoldSeats", mock.Anything, "sched-1", []string{"2A", "2B", "2C"}, resp.BookingID)
	f.locker.AssertCalled(t, "ReleaseSeats", mock.Anything, "sched-1", []string{"2A", "2B", "2C"}, resp.BookingID)
	f.events.AssertCalled(t, "PublishBookingEvent", mock.Anything, mock.MatchedBy(func(e models.BookingEvent) bool {
		return e.Type == models.EventBookingCreated && e.BookingID == resp.BookingID
	}))
	f.events.AssertCalled(t, "PublishSeatStatus", mock.Anything, mock.MatchedBy(func(e models.SeatStatusEvent) bool {
		return e.Status == models.SeatHeld && len(e.SeatNumbers) == 3
	}))
}

func TestCreateBookingTotalIsPriceTimesSeats(t *testing.T) {
	for _, seats := range [][]string{{"1A"}, {"1A", "1B"}, {"3A", "3B", "3C", "3D"}} {
		f := newFixture(t)
		schedule := testSchedule(tomorrow())
		f.expectHappyPath(schedule, nil)

		resp, err := f.svc.CreateBooking(context.Background(), "user-1", bookingRequest(seats...))
		require.NoError(t, err)
		assert.InDelta(t, schedule.Price*float64(len(seats)), resp.TotalAmount, 0.001)
	}
}

func TestCreateBookingRequiresIdentity(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBooking(context.Background(), "", bookingRequest("1A"))
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	f.schedules.AssertNotCalled(t, "GetSchedule", mock.Anything, mock.Anything)
}

func TestCreateBookingRejectsInvalidInput(t *testing.T) {
	missingName := bookingRequest("1A")
	missingName.PassengerDetails[0].Name = ""

	tests := []struct {
		name string
		req  models.BookingRequest
	}{
		{"no schedule", models.BookingRequest{SeatNumbers: []string{"1A"}, PassengerDetails: bookingRequest("1A").PassengerDetails}},
		{"no seats", models.BookingRequest{ScheduleID: "sched-1", PassengerDetails: bookingRequest("1A").PassengerDetails}},
		{"no passengers", models.BookingRequest{ScheduleID: "sched-1", SeatNumbers: []string{"1A"}}},
		{"count mismatch", models.BookingRequest{ScheduleID: "sched-1", SeatNumbers: []string{"1A", "1B"}, PassengerDetails: bookingRequest("1A").PassengerDetails}},
		{"duplicate seat", bookingRequest("1A", "1A")},
		{"blank seat", bookingRequest(" ")},
		{"passenger without name", missingName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.CreateBooking(context.Background(), "user-1", tt.req)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
			f.schedules.AssertNotCalled(t, "GetSchedule", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateBookingScheduleNotFound(t *testing.T) {
	f := newFixture(t)
	f.schedules.On("GetSchedule", mock.Anything, "sched-1").Return(nil, db.ErrNotFound)

	_, err := f.svc.CreateBooking(context.Background(), "user-1", bookingRequest("1A"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateBookingInactiveSchedule(t *testing.T) {
	f := newFixture(t)
	schedule := testSchedule(tomorrow())
	schedule.IsActive = false
	f.schedules.On("GetSchedule", mock.Anything, "sched-1").Return(schedule, nil)

	_, err := f.svc.CreateBooking(context.Background(), "user-1", bookingRequest("1A"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateBookingInsufficientSeats(t *testing.T) {
	f := newFixture(t)
	schedule := testSchedule(tomorrow())
	schedule.AvailableSeats = 5
	f.schedules.On("GetSchedule", mock.Anything, "sched-1").Return(schedule, nil)

	_, err := f.svc.CreateBooking(context.Background(), "user-1", bookingRequest("1A", "1B", "1C", "1D", "2A", "2B"))
	assert.ErrorIs(t, err, apperr.ErrInsufficientSeats)
	f.ledger.AssertNotCalled(t, "InsertBooking", mock.Anything, mock.Anything)
}

func TestCreateBookingPastDate(t *testing.T) {
	f := newFixture(t)
	yesterday := time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC)
	f.schedules.On("GetSchedule", mock.Anything, "sched-1").Return(testSchedule(yesterday), nil)

	_, err := f.svc.CreateBooking(context.Background(), "user-1", bookingRequest("1A"))
	assert.ErrorIs(t, err, apperr.ErrPastDateBooking)
	f.locker.AssertNotCalled(t, "HoldSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateBookingPastDateUsesServiceTimezone(t *testing.T) {
	f := newFixture(t)
	// 20:00 UTC on the 14th is already the 15th in Kolkata.
	f.svc.Now = func() time.Time { return time.Date(2026, 10, 14, 20, 0, 0, 0, time.UTC) }
	f.schedules.On("GetSchedule", mock.Anything, "sched-1").Return(testSchedule(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)), nil)

	_, err := f.svc.CreateBooking(context.Background(), "user-1", bookingRequest("1A"))
	assert.ErrorIs(t, err, apperr.ErrPastDateBooking)
}

func TestCreateBookingTodayIsAllowed(t *testing.T) {
	f := newFixture(t)
	f.expectHappyPath(testSchedule(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)), nil)

	_, err := f.svc.CreateBooking(context.Background(), "user-1", bookingRequest("1A"))
	assert.NoError(t, err)
}

func TestCreateBookingUnknownSeat(t *testing.T) {
	f := newFixture(t)
	f.schedules.On("GetSchedule", mock.Anything, "sched-1").Return(testSchedule(tomorrow()), nil)

	_, err := f.svc.CreateBooking(context.Background(), "user-1", bookingRequest("1A", "11A", "1E"))
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Contains(t, err.Error(), "11A, 1E")
}

func TestCreateBookingRejectsAliasOfBookedSeat(t *testing.T) {
	f := newFixture(t)
	f.schedules.On("GetSchedule", mock.Anything, "sched-1").Return(testSchedule(tomorrow()), nil)
	f.ledger.On("OccupiedSeats", mock.Anything, "sched-1").Return([]string{"1A"}, nil).Maybe()

	for _, alias := range []string{"01A", "+1A", "001A"} {
		_, err := f.svc.CreateBooking(context.Background(), "user-1", bookingRequest(alias))
		require.ErrorIs(t, err, apperr.ErrInvalidInput, alias)
	}
	f.locker.AssertNotCalled(t, "HoldSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.ledger.AssertNotCalled(t, "InsertBooking", mock.Anything, mock.Anything)
}

func TestCreateBookingSeatConflictNamesConflictingSeats(t *testing.T) {
	f := newFixture(t)
	f.schedules.On("GetSchedule", mock.Anything, "sched-1").Return(testSchedule(tomorrow()), nil)
	f.locker.On("HoldSeats", mock.Anything, "sched-1", mock.Anything, mock.Anything).Return(nil, nil)
	f.locker.On("ReleaseSeats", mock.Anything, "sched-1", mock.Anything, mock.Anything).Return(nil)
	f.ledger.On("OccupiedSeats", mock.Anything, "sched-1").Return([]string{"1A", "2B"}, nil)

	_, err := f.svc.CreateBooking(context.Background(), "user-1", bookingRequest("2B", "3C"))
	require.ErrorIs(t, err, apperr.ErrSeatConflict)
	assert.Equal(t, []string{"2B"}, apperr.ConflictingSeats(err))
	f.ledger.AssertNotCalled(t, "InsertBooking", mock.Anything, mock.Anything)
	f.locker.AssertNumberOfCalls(t, "ReleaseSeats", 1)
}

func TestCreateBookingContestedHold(t *testing.T) {
	f := newFixture(t)
	f.schedules.On("GetSchedule", mock.Anything, "sched-1").Return(testSchedule(tomorrow()), nil)
	f.locker.On("HoldSeats", mock.Anything, "sched-1", mock.Anything, mock.Anything).Return([]string{"3C"}, nil)

	_, err := f.svc.CreateBooking(context.Background(), "user-1", bookingRequest("2B", "3C"))
	require.ErrorIs(t, err, apperr.ErrSeatConflict)
	assert.Equal(t, []string{"3C"}, apperr.ConflictingSeats(err))
	f.ledger.AssertNotCalled(t, "OccupiedSeats", mock.Anything, mock.Anything)
}

func TestCreateBookingClaimRaceBecomesSeatConflict(t *testing.T) {
	f := newFixture(t)
	f.schedules.On("GetSchedule", mock.Anything, "sched-1").Return(testSchedule(tomorrow()), nil)
	f.locker.On("HoldSeats", mock.Anything, "sched-1", mock.Anything, mock.Anything).Return(nil, nil)
	f.locker.On("ReleaseSeats", mock.Anything, "sched-1", mock.Anything, mock.Anything).Return(nil)
	f.ledger.On("OccupiedSeats", mock.Anything, "sched-1").Return([]string{}, nil).Once()
	f.ledger.On("OccupiedSeats", mock.Anything, "sched-1").Return([]string{"3C"}, nil).Once()
	f.ledger.On("NextBookingReference", mock.Anything).Return("BKA1B2C3D4", nil)
	f.ledger.On("InsertBooking", mock.Anything, mock.Anything).Return(db.ErrSeatClaimed)

	_, err := f.svc.CreateBooking(context.Background(), "user-1", bookingRequest("2B", "3C"))
	require.ErrorIs(t, err, apperr.ErrSeatConflict)
	assert.Equal(t, []string{"3C"}, apperr.ConflictingSeats(err))
	f.events.AssertNotCalled(t, "PublishBookingEvent", mock.Anything, mock.Anything)
}

func TestCreateBookingRetriesTakenReference(t *testing.T) {
	f := newFixture(t)
	f.schedules.On("GetSchedule", mock.Anything, "sched-1").Return(testSchedule(tomorrow()), nil)
	f.locker.On("HoldSeats", mock.Anything, "sched-1", mock.Anything, mock.Anything).Return(nil, nil)
	f.locker.On("ReleaseSeats", mock.Anything, "sched-1", mock.Anything, mock.Anything).Return(nil)
	f.ledger.On("OccupiedSeats", mock.Anything, "sched-1").Return([]string{}, nil)
	f.ledger.On("NextBookingReference", mock.Anything).Return("BKFIRST000", nil).Once()
	f.ledger.On("NextBookingReference", mock.Anything).Return("BKSECOND00", nil).Once()
	f.ledger.On("InsertBooking", mock.Anything, mock.Anything).Return(db.ErrReferenceTaken).Once()
	f.ledger.On("InsertBooking", mock.Anything, mock.Anything).Return(nil).Once()
	f.events.On("PublishBookingEvent", mock.Anything, mock.Anything).Return(nil)
	f.events.On("PublishSeatStatus", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.svc.CreateBooking(context.Background(), "user-1", bookingRequest("1A"))
	require.NoError(t, err)
	assert.Equal(t, "BKSECOND00", resp.BookingReference)
}

func TestCreateBookingDatastoreFailure(t *testing.T) {
	f := newFixture(t)
	f.schedules.On("GetSchedule", mock.Anything, "sched-1").Return(testSchedule(tomorrow()), nil)
	f.locker.On("HoldSeats", mock.Anything, "sched-1", mock.Anything, mock.Anything).Return(nil, nil)
	f.locker.On("ReleaseSeats", mock.Anything, "sched-1", mock.Anything, mock.Anything).Return(nil)
	f.ledger.On("OccupiedSeats", mock.Anything, "sched-1").Return([]string{}, nil)
	f.ledger.On("NextBookingReference", mock.Anything).Return("BKA1B2C3D4", nil)
	f.ledger.On("InsertBooking", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	_, err := f.svc.CreateBooking(context.Background(), "user-1", bookingRequest("1A"))
	require.ErrorIs(t, err, apperr.ErrDatastore)
	assert.Contains(t, err.Error(), "connection reset")
	f.events.AssertNotCalled(t, "PublishBookingEvent", mock.Anything, mock.Anything)
}

func TestCreateBookingWithoutLocker(t *testing.T) {
	f := newFixture(t)
	f.svc.Locker = nil
	schedule := testSchedule(tomorrow())
	f.schedules.On("GetSchedule", mock.Anything, schedule.ID).Return(schedule, nil)
	f.ledger.On("OccupiedSeats", mock.Anything, schedule.ID).Return([]string{}, nil)
	f.ledger.On("NextBookingReference", mock.Anything).Return("BKA1B2C3D4", nil)
	f.ledger.On("InsertBooking", mock.Anything, mock.Anything).Return(nil)
	f.events.On("PublishBookingEvent", mock.Anything, mock.Anything).Return(nil)
	f.events.On("PublishSeatStatus", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.CreateBooking(context.Background(), "user-1", bookingRequest("1A"))
	assert.NoError(t, err)
}

func TestCreateBookingPublishFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	schedule := testSchedule(tomorrow())
	f.schedules.On("GetSchedule", mock.Anything, schedule.ID).Return(schedule, nil)
	f.locker.On("HoldSeats", mock.Anything, schedule.ID, mock.Anything, mock.Anything).Return(nil, nil)
	f.locker.On("ReleaseSeats", mock.Anything, schedule.ID, mock.Anything, mock.Anything).Return(nil)
	f.ledger.On("OccupiedSeats", mock.Anything, schedule.ID).Return([]string{}, nil)
	f.ledger.On("NextBookingReference", mock.Anything).Return("BKA1B2C3D4", nil)
	f.ledger.On("InsertBooking", mock.Anything, mock.Anything).Return(nil)
	f.events.On("PublishBookingEvent", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	f.events.On("PublishSeatStatus", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	_, err := f.svc.CreateBooking(context.Background(), "user-1", bookingRequest("1A"))
	assert.NoError(t, err)
}

func TestGetBookingChecksOwnership(t *testing.T) {
	f := newFixture(t)
	f.ledger.On("GetBooking", mock.Anything, "b-1").Return(&models.Booking{ID: "b-1", UserID: "user-1"}, nil)
	f.ledger.On("GetBooking", mock.Anything, "b-2").Return(nil, db.ErrNotFound)

	got, err := f.svc.GetBooking(context.Background(), "user-1", "b-1")
	require.NoError(t, err)
	assert.Equal(t, "b-1", got.ID)

	_, err = f.svc.GetBooking(context.Background(), "user-2", "b-1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.GetBooking(context.Background(), "user-1", "b-2")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListUserBookings(t *testing.T) {
	f := newFixture(t)
	schedule := testSchedule(tomorrow())
	f.ledger.On("ListBookingsByUser", mock.Anything, "user-1").Return([]models.Booking{
		{ID: "b-2", UserID: "user-1", BookingReference: "BK2", Schedule: schedule},
		{ID: "b-1", UserID: "user-1", BookingReference: "BK1"},
	}, nil)

	list, err := f.svc.ListUserBookings(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b-2", list[0].BookingID)
	require.NotNil(t, list[0].Schedule)
	assert.Equal(t, "Chennai", list[0].Schedule.ToCity)
	assert.Nil(t, list[1].Schedule)

	_, err = f.svc.ListUserBookings(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestTicketQR(t *testing.T) {
	f := newFixture(t)
	confirmed := &models.Booking{ID: "b-1", UserID: "user-1", BookingStatus: models.BookingConfirmed}
	pending := &models.Booking{ID: "b-2", UserID: "user-1", BookingStatus: models.BookingPending}
	f.ledger.On("GetBooking", mock.Anything, "b-1").Return(confirmed, nil)
	f.ledger.On("GetBooking", mock.Anything, "b-2").Return(pending, nil)
	f.tickets.On("RenderTicket", confirmed).Return([]byte("png"), nil)

	img, err := f.svc.TicketQR(context.Background(), "user-1", "b-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), img)

	_, err = f.svc.TicketQR(context.Background(), "user-1", "b-2")
	assert.ErrorIs(t, err, apperr.ErrNotConfirmed)
}

func TestSearchSchedules(t *testing.T) {
	f := newFixture(t)
	schedule := testSchedule(tomorrow())
	onDate := mock.MatchedBy(func(d time.Time) bool { return d.Equal(tomorrow()) })
	f.schedules.On("SearchSchedules", mock.Anything, "Bangalore", "Chennai", onDate).Return([]models.Schedule{*schedule}, nil)

	resp, err := f.svc.SearchSchedules(context.Background(), models.SearchRequest{
		FromCity: "Bangalore", ToCity: "Chennai", JourneyDate: "2026-10-15",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalCount)
	assert.Equal(t, "sched-1", resp.Results[0].ScheduleID)
	assert.Equal(t, "Sharma Travels", resp.Results[0].Bus.Operator)
	assert.Equal(t, "2026-10-15", resp.Results[0].JourneyDate)
	assert.Equal(t, "Chennai", resp.SearchParams.ToCity)
}

func TestSearchSchedulesValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SearchSchedules(ctx, models.SearchRequest{FromCity: "Bangalore", JourneyDate: "2026-10-15"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = f.svc.SearchSchedules(ctx, models.SearchRequest{FromCity: "A", ToCity: "B", JourneyDate: "15/10/2026"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = f.svc.SearchSchedules(ctx, models.SearchRequest{FromCity: "A", ToCity: "B", JourneyDate: "2026-10-13"})
	assert.ErrorIs(t, err, apperr.ErrPastDateBooking)
}

func TestSeatMap(t *testing.T) {
	f := newFixture(t)
	schedule := testSchedule(tomorrow())
	schedule.Bus.TotalSeats = 6
	f.schedules.On("GetSchedule", mock.Anything, "sched-1").Return(schedule, nil)
	f.ledger.On("OccupiedSeats", mock.Anything, "sched-1").Return([]string{"1B", "2A"}, nil)

	seatMap, err := f.svc.SeatMap(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1A", "1B", "1C", "1D"}, {"2A", "2B"}}, seatMap.Layout)
	assert.Equal(t, []string{"1B", "2A"}, seatMap.BookedSeats)
	assert.Equal(t, 4, seatMap.AvailableCount)
	assert.Equal(t, 6, seatMap.TotalSeats)
}
