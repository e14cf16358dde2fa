package payment

import (
	"testing"
	"time"

	"ms-booking/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signedPayload(t *testing.T, payload string) (string, []byte) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Header, signed.Payload
}

func TestParseWebhookCheckoutSession(t *testing.T) {
	g := NewStripeGateway("sk_test_unused", testWebhookSecret, logger.NewNop())
	header, body := signedPayload(t, `{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"payment_status": "paid",
			"status": "complete",
			"metadata": {"booking_id": "b-1"}
		}}
	}`)

	event, err := g.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, "checkout.session.completed", event.Type)
	require.NotNil(t, event.Session)
	assert.Equal(t, "cs_test_1", event.Session.ID)
	assert.Equal(t, SessionPaid, event.Session.PaymentStatus)
	assert.Equal(t, "b-1", event.Session.Metadata["booking_id"])
}

func TestParseWebhookOtherEvent(t *testing.T) {
	g := NewStripeGateway("sk_test_unused", testWebhookSecret, logger.NewNop())
	header, body := signedPayload(t, `{"id": "evt_2", "object": "event", "type": "customer.created", "data": {"object": {"id": "cus_1", "object": "customer"}}}`)

	event, err := g.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Nil(t, event.Session)
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	g := NewStripeGateway("sk_test_unused", "whsec_other", logger.NewNop())
	header, body := signedPayload(t, `{"id": "evt_3", "object": "event", "type": "checkout.session.expired", "data": {"object": {}}}`)

	_, err := g.ParseWebhook(body, header)
	assert.Error(t, err)
}
