package payment

import (
	"context"
	"errors"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// Session statuses reported by the gateway that drive booking transitions.
const (
	SessionPaid    = "paid"
	SessionUnpaid  = "unpaid"
	SessionExpired = "expired"
)

type CheckoutRequest struct {
	BookingID        string
	UserID           string
	BookingReference string
	CustomerEmail    string
	ProductName      string
	Description      string
	Currency         string
	// AmountMinor is the amount in the currency's smallest unit.
	AmountMinor int64
	SuccessURL  string
	CancelURL   string
}

type CheckoutSession struct {
	ID            string
	URL           string
	PaymentStatus string
	Status        string
	Metadata      map[string]string
}

// Gateway is the narrow capability the payment workflows need from the
// payment processor.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
}

type WebhookEvent struct {
	ID      string
	Type    string
	Session *CheckoutSession
}

// WebhookParser verifies a signed webhook payload.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
