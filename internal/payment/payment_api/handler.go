package payment_api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/payment"
	"ms-booking/internal/utils"
)

// maxWebhookBytes bounds the webhook body read.
const maxWebhookBytes = 65536

type Service interface {
	CreatePayment(ctx context.Context, userID, email, origin, bookingID string) (*models.CreatePaymentResponse, error)
	VerifyPayment(ctx context.Context, userID, sessionID string) (*models.VerifyPaymentResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type Handler struct {
	PaymentService Service
	Logger         *logger.Logger
}

func NewHandler(service Service, log *logger.Logger) *Handler {
	return &Handler{PaymentService: service, Logger: log}
}

// RegisterWebhookRoute mounts the gateway callback, which authenticates by
// signature instead of bearer token.
func (h *Handler) RegisterWebhookRoute(r chi.Router) {
	r.Post("/payments/webhook", h.StripeWebhook)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/checkout", h.CreatePayment)
		r.Post("/verify", h.VerifyPayment)
	})
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePaymentRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	ctx := r.Context()

	resp, err := h.PaymentService.CreatePayment(ctx, auth.UserID(ctx), auth.Email(ctx), r.Header.Get("Origin"), req.BookingID)
	if err != nil {
		h.fail(w, "CreatePayment", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, resp)
	h.Logger.Info("API", fmt.Sprintf("CreatePayment: session %s created for booking %s", resp.SessionID, req.BookingID))
}

func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyPaymentRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	resp, err := h.PaymentService.VerifyPayment(r.Context(), auth.UserID(r.Context()), req.SessionID)
	if err != nil {
		h.fail(w, "VerifyPayment", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

// StripeWebhook handles webhook events from Stripe
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "StripeWebhook: received webhook event")

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("StripeWebhook: failed to read body: %v", err))
		http.Error(w, "Error reading request body", http.StatusServiceUnavailable)
		return
	}

	err = h.PaymentService.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("StripeWebhook: failed to process webhook: %v", err))

		var webhookErr *payment.WebhookError
		if errors.As(err, &webhookErr) {
			h.Logger.Info("API", fmt.Sprintf("StripeWebhook: handling webhook error category=%s, status=%d",
				webhookErr.Category, webhookErr.StatusCode))
			http.Error(w, webhookErr.PublicError, webhookErr.StatusCode)
			return
		}

		http.Error(w, "Webhook processing error", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	h.Logger.Info("API", "StripeWebhook: successfully processed webhook event")
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if status := utils.StatusFor(err); status >= http.StatusInternalServerError {
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	} else {
		h.Logger.Info("API", fmt.Sprintf("%s: rejected with %d: %v", op, status, err))
	}
	utils.WriteError(w, err)
}
