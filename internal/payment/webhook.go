package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ms-booking/internal/booking/db"

	"github.com/stripe/stripe-go/v82"
)

// WebhookError represents an error that occurred during webhook processing
type WebhookError struct {
	Category      string // "configuration", "validation", "processing"
	StatusCode    int    // HTTP status code
	PublicError   string // Safe to expose to clients
	InternalError string // Detailed error for logs only
	OriginalErr   error  // Underlying error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

func (e *WebhookError) Unwrap() error {
	return e.OriginalErr
}

const (
	eventSessionCompleted      = "checkout.session.completed"
	eventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	eventAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	eventSessionExpired        = "checkout.session.expired"
)

// HandleWebhook verifies a gateway event and applies the same transition
// rules as VerifyPayment, without an ownership check. Unknown event types
// and sessions without a known booking are acknowledged and ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.Webhooks == nil {
		s.Logger.Error("WEBHOOK", "Stripe webhook secret is not configured")
		return &WebhookError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook processing error",
			InternalError: "Stripe webhook secret is not configured",
		}
	}

	event, err := s.Webhooks.ParseWebhook(payload, signature)
	if err != nil {
		errorMessage := "Invalid webhook signature"
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			errorMessage = "Stripe API error"
		}
		s.Logger.LogSecurity("WEBHOOK", fmt.Sprintf("%s: %v", errorMessage, err))
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   errorMessage,
			InternalError: fmt.Sprintf("%s: %v", errorMessage, err),
			OriginalErr:   err,
		}
	}

	s.Logger.Info("WEBHOOK", fmt.Sprintf("Processing Stripe webhook event: %s (%s)", event.Type, event.ID))

	switch event.Type {
	case eventSessionCompleted, eventAsyncPaymentSucceeded, eventAsyncPaymentFailed, eventSessionExpired:
	default:
		s.Logger.Debug("WEBHOOK", fmt.Sprintf("Ignoring event type %s", event.Type))
		return nil
	}

	session := event.Session
	if session == nil {
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook payload",
			InternalError: fmt.Sprintf("event %s carries no checkout session", event.ID),
		}
	}

	// A completed session with a delayed payment method is still unpaid;
	// the async_payment_* event settles it.
	if event.Type == eventSessionCompleted && session.PaymentStatus == SessionUnpaid {
		s.Logger.LogPayment("WEBHOOK", session.ID, "completed with payment pending, awaiting async result")
		return nil
	}

	bookingID := session.Metadata["booking_id"]
	if bookingID == "" {
		s.Logger.Warn("WEBHOOK", fmt.Sprintf("Session %s has no booking_id metadata", session.ID))
		return nil
	}

	booking, err := s.Store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.Logger.Warn("WEBHOOK", fmt.Sprintf("Session %s references unknown booking %s", session.ID, bookingID))
			return nil
		}
		return &WebhookError{
			Category:      "processing",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook processing error",
			InternalError: fmt.Sprintf("load booking %s: %v", bookingID, err),
			OriginalErr:   err,
		}
	}

	if _, err := s.reconcile(ctx, booking, session); err != nil {
		return &WebhookError{
			Category:      "processing",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook processing error",
			InternalError: fmt.Sprintf("reconcile booking %s: %v", bookingID, err),
			OriginalErr:   err,
		}
	}
	return nil
}
