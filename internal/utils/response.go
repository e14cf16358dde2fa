package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"ms-booking/internal/apperr"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error            string   `json:"error"`
	ConflictingSeats []string `json:"conflicting_seats,omitempty"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindUnauthorized:      http.StatusUnauthorized,
	apperr.KindInvalidInput:      http.StatusBadRequest,
	apperr.KindNotFound:          http.StatusNotFound,
	apperr.KindInsufficientSeats: http.StatusConflict,
	apperr.KindSeatConflict:      http.StatusConflict,
	apperr.KindPastDateBooking:   http.StatusBadRequest,
	apperr.KindAlreadyPaid:       http.StatusConflict,
	apperr.KindBookingCancelled:  http.StatusConflict,
	apperr.KindNotConfirmed:      http.StatusConflict,
	apperr.KindDatastore:         http.StatusInternalServerError,
	apperr.KindGateway:           http.StatusBadGateway,
}

// StatusFor maps an error to its HTTP status. Errors that are not
// *apperr.Error are internal.
func StatusFor(err error) int {
	if status, ok := kindStatus[apperr.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err as an ErrorResponse. Internal failures are reported
// with a generic message; their detail belongs in the logs.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	body := ErrorResponse{Error: "Internal server error"}

	var appErr *apperr.Error
	if errors.As(err, &appErr) && status < http.StatusInternalServerError {
		body.Error = appErr.Error()
		body.ConflictingSeats = appErr.Seats
	} else if errors.As(err, &appErr) && appErr.Message != "" {
		body.Error = appErr.Message
	}
	WriteJSON(w, status, body)
}

// DecodeJSON reads a bounded JSON request body into v.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return apperr.InvalidInput("Invalid request body")
	}
	return nil
}

