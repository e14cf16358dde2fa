package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"ms-booking/internal/auth"
	"ms-booking/internal/booking/booking_api"
	"ms-booking/internal/logger"
	"ms-booking/internal/payment/payment_api"
	"ms-booking/internal/utils"
)

// newRouter mounts the public, webhook and bearer-protected routes under /api.
// health backs /healthz.
func newRouter(
	bookingHandler *booking_api.Handler,
	paymentHandler *payment_api.Handler,
	verifier auth.Verifier,
	log *logger.Logger,
	health func(context.Context) error,
) http.Handler {
	r := chi.NewRouter()
	// Browsers send bearer tokens, not cookies, so any origin is allowed
	// without credentials mode.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Client-Info", "Apikey"},
		MaxAge:         300,
	}))
	r.Use(log.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := health(r.Context()); err != nil {
			utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// --- Public Routes ---
		bookingHandler.RegisterPublicRoutes(r)
		paymentHandler.RegisterWebhookRoute(r)
		log.Info("ROUTER", "Public search, seat map and webhook routes registered under /api")

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(verifier, log))
			bookingHandler.RegisterRoutes(r)
			paymentHandler.RegisterRoutes(r)
			log.Info("ROUTER", "Booking and payment routes registered under /api")
		})
	})
	return r
}
