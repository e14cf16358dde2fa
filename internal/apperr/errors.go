package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a workflow failure. Handlers map kinds to HTTP status codes.
type Kind string

const (
	KindUnauthorized      Kind = "unauthorized"
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
	KindInsufficientSeats Kind = "insufficient_seats"
	KindSeatConflict      Kind = "seat_conflict"
	KindPastDateBooking   Kind = "past_date_booking"
	KindAlreadyPaid       Kind = "already_paid"
	KindBookingCancelled  Kind = "booking_cancelled"
	KindNotConfirmed      Kind = "not_confirmed"
	KindDatastore         Kind = "datastore"
	KindGateway           Kind = "gateway"
)

// Error is the single error type returned across workflow boundaries.
type Error struct {
	Kind    Kind
	Message string
	// Seats lists the conflicting seat numbers for KindSeatConflict.
	Seats []string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil && (e.Kind == KindDatastore || e.Kind == KindGateway) {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so callers can write
// errors.Is(err, apperr.ErrSeatConflict).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInsufficientSeats = &Error{Kind: KindInsufficientSeats}
	ErrSeatConflict      = &Error{Kind: KindSeatConflict}
	ErrPastDateBooking   = &Error{Kind: KindPastDateBooking}
	ErrAlreadyPaid       = &Error{Kind: KindAlreadyPaid}
	ErrBookingCancelled  = &Error{Kind: KindBookingCancelled}
	ErrNotConfirmed      = &Error{Kind: KindNotConfirmed}
	ErrDatastore         = &Error{Kind: KindDatastore}
	ErrGateway           = &Error{Kind: KindGateway}
)

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func InsufficientSeats(requested, available int) *Error {
	return &Error{
		Kind:    KindInsufficientSeats,
		Message: fmt.Sprintf("not enough seats available: requested %d, available %d", requested, available),
	}
}

func SeatConflict(seats []string) *Error {
	return &Error{
		Kind:    KindSeatConflict,
		Message: "seats already booked: " + strings.Join(seats, ", "),
		Seats:   seats,
	}
}

func PastDate(msg string) *Error {
	return &Error{Kind: KindPastDateBooking, Message: msg}
}

func AlreadyPaid() *Error {
	return &Error{Kind: KindAlreadyPaid, Message: "booking already paid"}
}

func BookingCancelled() *Error {
	return &Error{Kind: KindBookingCancelled, Message: "booking is cancelled"}
}

func NotConfirmed() *Error {
	return &Error{Kind: KindNotConfirmed, Message: "booking is not confirmed"}
}

// Datastore wraps a storage failure, keeping the underlying message visible.
func Datastore(msg string, err error) *Error {
	return &Error{Kind: KindDatastore, Message: msg, Err: err}
}

// Gateway wraps a payment gateway failure.
func Gateway(msg string, err error) *Error {
	return &Error{Kind: KindGateway, Message: msg, Err: err}
}

// KindOf returns the Kind of err, or KindDatastore for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindDatastore
}

// ConflictingSeats returns the seats named by a SeatConflict error, if any.
func ConflictingSeats(err error) []string {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindSeatConflict {
		return e.Seats
	}
	return nil
}
