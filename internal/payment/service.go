package payment

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
)

type BookingStore interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	SetPaymentSession(ctx context.Context, id, sessionID string) error
	UpdateBookingStatus(ctx context.Context, id string, bookingStatus models.BookingStatus, paymentStatus models.PaymentStatus) error
}

type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, event models.BookingEvent) error
	PublishSeatStatus(ctx context.Context, event models.SeatStatusEvent) error
}

type PaymentService struct {
	Store    BookingStore
	Gateway  Gateway
	Events   EventPublisher
	Logger   *logger.Logger
	// Webhooks is nil when no webhook secret is configured.
	Webhooks WebhookParser

	Currency    string
	FrontendURL string
	Now         func() time.Time
}

func NewPaymentService(store BookingStore, gateway Gateway, events EventPublisher, log *logger.Logger, currency, frontendURL string) *PaymentService {
	if currency == "" {
		currency = "inr"
	}
	return &PaymentService{
		Store:       store,
		Gateway:     gateway,
		Events:      events,
		Logger:      log,
		Currency:    strings.ToLower(currency),
		FrontendURL: strings.TrimRight(frontendURL, "/"),
		Now:         time.Now,
	}
}

// CreatePayment opens a checkout session for a pending booking of the
// caller. The booking is stamped with the session id; statuses change only
// on verification.
func (s *PaymentService) CreatePayment(ctx context.Context, userID, email, origin, bookingID string) (*models.CreatePaymentResponse, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	if bookingID == "" {
		return nil, apperr.InvalidInput("Booking ID is required")
	}

	booking, err := s.ownedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.PaymentStatus == models.PaymentPaid {
		return nil, apperr.AlreadyPaid()
	}
	if booking.BookingStatus == models.BookingCancelled {
		return nil, apperr.BookingCancelled()
	}

	base := strings.TrimRight(origin, "/")
	if base == "" {
		base = s.FrontendURL
	}

	session, err := s.Gateway.CreateCheckoutSession(ctx, s.checkoutRequest(booking, email, base))
	if err != nil {
		s.Logger.Error("PAYMENT", fmt.Sprintf("Failed to create checkout session for booking %s: %v", booking.ID, err))
		return nil, apperr.Gateway("failed to create checkout session", err)
	}

	if err := s.Store.SetPaymentSession(ctx, booking.ID, session.ID); err != nil {
		return nil, apperr.Datastore("failed to record payment session", err)
	}
	s.Logger.LogPayment("CHECKOUT", session.ID, fmt.Sprintf("booking %s for %s %.2f", booking.ID, strings.ToUpper(s.Currency), booking.TotalAmount))

	return &models.CreatePaymentResponse{CheckoutURL: session.URL, SessionID: session.ID}, nil
}

func (s *PaymentService) checkoutRequest(b *models.Booking, email, base string) CheckoutRequest {
	req := CheckoutRequest{
		BookingID:        b.ID,
		UserID:           b.UserID,
		BookingReference: b.BookingReference,
		CustomerEmail:    email,
		ProductName:      "Bus Ticket",
		Currency:         s.Currency,
		AmountMinor:      int64(math.Round(b.TotalAmount * 100)),
		SuccessURL:       fmt.Sprintf("%s/booking-success?booking_id=%s&session_id={CHECKOUT_SESSION_ID}", base, b.ID),
		CancelURL:        fmt.Sprintf("%s/booking/%s", base, b.ID),
	}

	seats := strings.Join(b.SeatNumbers, ", ")
	req.Description = "Seats: " + seats
	if sched := b.Schedule; sched != nil && sched.Route != nil && sched.Bus != nil {
		req.ProductName = fmt.Sprintf("Bus Ticket - %s to %s", sched.Route.FromCity, sched.Route.ToCity)
		req.Description = fmt.Sprintf("%s | %s | %s | Seats: %s", sched.Bus.Operator, sched.Bus.BusNumber, sched.JourneyDay(), seats)
	}
	return req
}

// VerifyPayment reconciles the caller's booking with the gateway's view of
// the session. Calling it again re-applies the same terminal state.
func (s *PaymentService) VerifyPayment(ctx context.Context, userID, sessionID string) (*models.VerifyPaymentResponse, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	if sessionID == "" {
		return nil, apperr.InvalidInput("Session ID is required")
	}

	session, err := s.Gateway.RetrieveCheckoutSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, apperr.NotFound("Payment session not found")
		}
		return nil, apperr.Gateway("failed to retrieve payment session", err)
	}

	bookingID := session.Metadata["booking_id"]
	if bookingID == "" {
		return nil, apperr.NotFound("Booking ID not found in payment session")
	}

	booking, err := s.ownedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}

	status, err := s.reconcile(ctx, booking, session)
	if err != nil {
		return nil, err
	}

	return &models.VerifyPaymentResponse{
		BookingID:     booking.ID,
		PaymentStatus: session.PaymentStatus,
		BookingStatus: status,
		SessionStatus: session.Status,
	}, nil
}

// Transition maps a gateway session onto the booking status pair it
// implies. ok is false when the session state implies no change.
func Transition(session *CheckoutSession) (models.BookingStatus, models.PaymentStatus, bool) {
	switch {
	case session.PaymentStatus == SessionPaid:
		return models.BookingConfirmed, models.PaymentPaid, true
	case session.PaymentStatus == SessionUnpaid || session.Status == SessionExpired:
		return models.BookingCancelled, models.PaymentFailed, true
	}
	return "", "", false
}

// reconcile applies the session's transition and returns the resulting
// booking status.
func (s *PaymentService) reconcile(ctx context.Context, booking *models.Booking, session *CheckoutSession) (models.BookingStatus, error) {
	bookingStatus, paymentStatus, ok := Transition(session)
	if !ok {
		s.Logger.LogPayment("VERIFY", session.ID, fmt.Sprintf("status %s/%s needs no transition", session.Status, session.PaymentStatus))
		return booking.BookingStatus, nil
	}

	if bookingStatus == models.BookingCancelled {
		// A payment that went through is never undone by a failed or expired
		// session, and a superseded session cannot cancel the current one.
		if booking.PaymentStatus == models.PaymentPaid {
			s.Logger.Warn("PAYMENT", fmt.Sprintf("Ignoring %s/%s from session %s: booking %s is already paid", session.Status, session.PaymentStatus, session.ID, booking.ID))
			return booking.BookingStatus, nil
		}
		if booking.PaymentSessionID != session.ID {
			s.Logger.Warn("PAYMENT", fmt.Sprintf("Ignoring session %s: booking %s is on session %s", session.ID, booking.ID, booking.PaymentSessionID))
			return booking.BookingStatus, nil
		}
	}

	if err := s.Store.UpdateBookingStatus(ctx, booking.ID, bookingStatus, paymentStatus); err != nil {
		return "", apperr.Datastore("Failed to update booking", err)
	}

	changed := booking.BookingStatus != bookingStatus || booking.PaymentStatus != paymentStatus
	if booking.BookingStatus == models.BookingCancelled && bookingStatus == models.BookingConfirmed {
		s.Logger.Warn("PAYMENT", fmt.Sprintf("Booking %s was cancelled before session %s reported paid", booking.ID, session.ID))
	}
	booking.BookingStatus, booking.PaymentStatus = bookingStatus, paymentStatus
	s.Logger.LogPayment("VERIFY", session.ID, fmt.Sprintf("booking %s -> %s/%s", booking.ID, bookingStatus, paymentStatus))

	if changed {
		s.publishTransition(ctx, booking)
	}
	return bookingStatus, nil
}

func (s *PaymentService) ownedBooking(ctx context.Context, userID, bookingID string) (*models.Booking, error) {
	booking, err := s.Store.GetBooking(ctx, bookingID)
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

func (s *PaymentService) publishTransition(ctx context.Context, b *models.Booking) {
	if s.Events == nil {
		return
	}

	eventType, seatStatus := models.EventBookingConfirmed, models.SeatBooked
	if b.BookingStatus == models.BookingCancelled {
		eventType, seatStatus = models.EventBookingCancelled, models.SeatAvailable
	}
	now := s.Now().UTC()

	if err := s.Events.PublishBookingEvent(ctx, models.NewBookingEvent(eventType, b, now)); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Kafka publish error (%s) for %s: %v", eventType, b.ID, err))
	}
	seats := models.SeatStatusEvent{ScheduleID: b.ScheduleID, SeatNumbers: b.SeatNumbers, Status: seatStatus, Timestamp: now}
	if err := s.Events.PublishSeatStatus(ctx, seats); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Kafka publish error (seat %s) for %s: %v", seatStatus, b.ScheduleID, err))
	}
}
