package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// OccupyingStatuses are the booking statuses whose seats count as taken.
var OccupyingStatuses = []BookingStatus{BookingPending, BookingConfirmed}

type PassengerDetail struct {
	Name   string `json:"name" validate:"required"`
	Age    int    `json:"age" validate:"gte=0,lte=130"`
	Gender string `json:"gender" validate:"required"`
	Phone  string `json:"phone,omitempty"`
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings,alias:b"`

	ID               string            `bun:"id,pk"`
	UserID           string            `bun:"user_id,notnull"`
	ScheduleID       string            `bun:"schedule_id,notnull"`
	SeatNumbers      []string          `bun:"seat_numbers,type:jsonb,notnull"`
	PassengerDetails []PassengerDetail `bun:"passenger_details,type:jsonb,notnull"`
	TotalAmount      float64           `bun:"total_amount,notnull"`
	BookingStatus    BookingStatus     `bun:"booking_status,notnull"`
	PaymentStatus    PaymentStatus     `bun:"payment_status,notnull"`
	BookingReference string            `bun:"booking_reference,notnull,unique"`
	PaymentSessionID string            `bun:"payment_session_id,nullzero"`
	CreatedAt        time.Time         `bun:"created_at,notnull"`
	UpdatedAt        time.Time         `bun:"updated_at,notnull"`

	Schedule *Schedule `bun:"rel:belongs-to,join:schedule_id=id"`
}

// SeatClaim reserves one seat of one schedule for a live booking. The
// composite primary key is what rejects a second claim on the same seat.
type SeatClaim struct {
	bun.BaseModel `bun:"table:booking_seats,alias:bks"`

	ScheduleID string `bun:"schedule_id,pk"`
	SeatNumber string `bun:"seat_number,pk"`
	BookingID  string `bun:"booking_id,notnull"`
}

func (b *Booking) Claims() []SeatClaim {
	claims := make([]SeatClaim, 0, len(b.SeatNumbers))
	for _, seat := range b.SeatNumbers {
		claims = append(claims, SeatClaim{ScheduleID: b.ScheduleID, SeatNumber: seat, BookingID: b.ID})
	}
	return claims
}

type BookingRequest struct {
	ScheduleID       string            `json:"scheduleId"`
	SeatNumbers      []string          `json:"seatNumbers"`
	PassengerDetails []PassengerDetail `json:"passengerDetails"`
}

type BookingResponse struct {
	BookingID        string            `json:"booking_id"`
	BookingReference string            `json:"booking_reference"`
	TotalAmount      float64           `json:"total_amount"`
	Schedule         ScheduleSnapshot  `json:"schedule"`
	SeatNumbers      []string          `json:"seat_numbers"`
	PassengerDetails []PassengerDetail `json:"passenger_details"`
}

// BookingSummary is one entry of a user's booking history.
type BookingSummary struct {
	BookingID        string            `json:"booking_id"`
	BookingReference string            `json:"booking_reference"`
	ScheduleID       string            `json:"schedule_id"`
	SeatNumbers      []string          `json:"seat_numbers"`
	PassengerDetails []PassengerDetail `json:"passenger_details"`
	TotalAmount      float64           `json:"total_amount"`
	BookingStatus    BookingStatus     `json:"booking_status"`
	PaymentStatus    PaymentStatus     `json:"payment_status"`
	Schedule         *ScheduleSnapshot `json:"schedule,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

func (b *Booking) Summary() BookingSummary {
	sum := BookingSummary{
		BookingID:        b.ID,
		BookingReference: b.BookingReference,
		ScheduleID:       b.ScheduleID,
		SeatNumbers:      b.SeatNumbers,
		PassengerDetails: b.PassengerDetails,
		TotalAmount:      b.TotalAmount,
		BookingStatus:    b.BookingStatus,
		PaymentStatus:    b.PaymentStatus,
		CreatedAt:        b.CreatedAt,
	}
	if b.Schedule != nil {
		snap := b.Schedule.Snapshot()
		sum.Schedule = &snap
	}
	return sum
}

type SeatMap struct {
	ScheduleID     string     `json:"schedule_id"`
	TotalSeats     int        `json:"total_seats"`
	Layout         [][]string `json:"layout"`
	BookedSeats    []string   `json:"booked_seats"`
	AvailableCount int        `json:"available_count"`
}
