package models

import "time"

type SeatStatus string

const (
	SeatHeld      SeatStatus = "held"
	SeatBooked    SeatStatus = "booked"
	SeatAvailable SeatStatus = "available"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is published on every booking state change.
type BookingEvent struct {
	Type             string        `json:"type"`
	BookingID        string        `json:"booking_id"`
	BookingReference string        `json:"booking_reference"`
	ScheduleID       string        `json:"schedule_id"`
	UserID           string        `json:"user_id"`
	SeatNumbers      []string      `json:"seat_numbers"`
	BookingStatus    BookingStatus `json:"booking_status"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	TotalAmount      float64       `json:"total_amount"`
	Timestamp        time.Time     `json:"timestamp"`
}

func NewBookingEvent(eventType string, b *Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:             eventType,
		BookingID:        b.ID,
		BookingReference: b.BookingReference,
		ScheduleID:       b.ScheduleID,
		UserID:           b.UserID,
		SeatNumbers:      b.SeatNumbers,
		BookingStatus:    b.BookingStatus,
		PaymentStatus:    b.PaymentStatus,
		TotalAmount:      b.TotalAmount,
		Timestamp:        at,
	}
}

// SeatStatusEvent tells seat-map consumers that a set of seats changed state.
type SeatStatusEvent struct {
	ScheduleID  string     `json:"schedule_id"`
	SeatNumbers []string   `json:"seat_numbers"`
	Status      SeatStatus `json:"status"`
	Timestamp   time.Time  `json:"timestamp"`
}
