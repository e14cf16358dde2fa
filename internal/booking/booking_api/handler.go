package booking_api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"
)

// Service is the booking workflow the handlers drive.
type Service interface {
	CreateBooking(ctx context.Context, userID string, req models.BookingRequest) (*models.BookingResponse, error)
	GetBooking(ctx context.Context, userID, bookingID string) (*models.Booking, error)
	ListUserBookings(ctx context.Context, userID string) ([]models.BookingSummary, error)
	TicketQR(ctx context.Context, userID, bookingID string) ([]byte, error)
	SearchSchedules(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error)
	SeatMap(ctx context.Context, scheduleID string) (*models.SeatMap, error)
}

type Handler struct {
	BookingService Service
	Logger         *logger.Logger
}

func NewHandler(service Service, log *logger.Logger) *Handler {
	return &Handler{BookingService: service, Logger: log}
}

// RegisterPublicRoutes mounts the routes that need no identity.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/search-buses", h.SearchBuses)
	r.Get("/schedules/{scheduleId}/seats", h.SeatMap)
}

// RegisterRoutes mounts the caller-scoped booking routes. The router must
// already run auth.Middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", h.CreateBooking)
		r.Get("/", h.ListBookings)
		r.Get("/{bookingId}", h.GetBooking)
		r.Get("/{bookingId}/ticket", h.GetTicket)
	})
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req models.BookingRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateBooking: failed to decode request body for user %s", userID))
		utils.WriteError(w, err)
		return
	}
	h.Logger.Debug("API", fmt.Sprintf("CreateBooking: schedule=%s seats=%v", req.ScheduleID, req.SeatNumbers))

	resp, err := h.BookingService.CreateBooking(r.Context(), userID, req)
	if err != nil {
		h.fail(w, "CreateBooking", err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, resp)
	h.Logger.Info("API", fmt.Sprintf("CreateBooking: booking %s created for user %s", resp.BookingID, userID))
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.BookingService.ListUserBookings(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.fail(w, "ListBookings", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"bookings": bookings, "total_count": len(bookings)})
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	booking, err := h.BookingService.GetBooking(r.Context(), auth.UserID(r.Context()), bookingID)
	if err != nil {
		h.fail(w, "GetBooking", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, booking.Summary())
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	png, err := h.BookingService.TicketQR(r.Context(), auth.UserID(r.Context()), bookingID)
	if err != nil {
		h.fail(w, "GetTicket", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="ticket-%s.png"`, bookingID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetTicket: failed to write response: %v", err))
	}
}

func (h *Handler) SearchBuses(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	resp, err := h.BookingService.SearchSchedules(r.Context(), req)
	if err != nil {
		h.fail(w, "SearchBuses", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) SeatMap(w http.ResponseWriter, r *http.Request) {
	seats, err := h.BookingService.SeatMap(r.Context(), chi.URLParam(r, "scheduleId"))
	if err != nil {
		h.fail(w, "SeatMap", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, seats)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if status := utils.StatusFor(err); status >= http.StatusInternalServerError {
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	} else {
		h.Logger.Info("API", fmt.Sprintf("%s: rejected with %d: %v", op, status, err))
	}
	utils.WriteError(w, err)
}
