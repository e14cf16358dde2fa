package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ms-booking/internal/logger"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeGateway implements Gateway and WebhookParser with Stripe Checkout.
type StripeGateway struct {
	client        *client.API
	webhookSecret string
	logger        *logger.Logger
}

func NewStripeGateway(secretKey, webhookSecret string, log *logger.Logger) *StripeGateway {
	return &StripeGateway{
		client:        client.New(secretKey, nil),
		webhookSecret: webhookSecret,
		logger:        log,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(req.ProductName),
						Description: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.AmountMinor),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata("booking_id", req.BookingID)
	params.AddMetadata("user_id", req.UserID)
	params.AddMetadata("booking_reference", req.BookingReference)

	if customerID := g.findCustomer(ctx, req.CustomerEmail); customerID != "" {
		params.Customer = stripe.String(customerID)
	} else if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	s, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	return fromStripeSession(s), nil
}

func (g *StripeGateway) RetrieveCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.client.CheckoutSessions.Get(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("stripe retrieve session %s: %w", id, err)
	}
	return fromStripeSession(s), nil
}

// findCustomer returns the id of an existing customer with this e-mail.
// Lookup failures only cost the reuse, so they are logged and ignored.
func (g *StripeGateway) findCustomer(ctx context.Context, email string) string {
	if email == "" {
		return ""
	}
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Limit = stripe.Int64(1)
	params.Context = ctx

	iter := g.client.Customers.List(params)
	if iter.Next() {
		return iter.Customer().ID
	}
	if err := iter.Err(); err != nil {
		g.logger.Warn("PAYMENT", fmt.Sprintf("Stripe customer lookup failed: %v", err))
	}
	return ""
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	opts := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, opts)
	if err != nil {
		return nil, err
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "checkout.session.") && event.Data != nil {
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Session = fromStripeSession(&s)
	}
	return out, nil
}

func fromStripeSession(s *stripe.CheckoutSession) *CheckoutSession {
	return &CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		Status:        string(s.Status),
		Metadata:      s.Metadata,
	}
}
