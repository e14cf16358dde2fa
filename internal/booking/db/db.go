package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-booking/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrSeatClaimed    = errors.New("seat already claimed")
	ErrReferenceTaken = errors.New("booking reference already in use")
)

const maxReferenceAttempts = 5

type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

// ---------------- SCHEDULES ----------------

// GetSchedule → one schedule with its bus and route, active or not
func (d *DB) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	var schedule models.Schedule
	err := d.Bun.NewSelect().
		Model(&schedule).
		Relation("Bus").
		Relation("Route").
		Where("s.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &schedule, nil
}

// SearchSchedules → active runs between two cities on one date with seats left
func (d *DB) SearchSchedules(ctx context.Context, fromCity, toCity string, journeyDate time.Time) ([]models.Schedule, error) {
	var schedules []models.Schedule
	err := d.Bun.NewSelect().
		Model(&schedules).
		Relation("Bus").
		Relation("Route").
		Where("s.journey_date = ?", journeyDate).
		Where("s.is_active = ?", true).
		Where("s.available_seats > 0").
		Where("LOWER(route.from_city) = LOWER(?)", fromCity).
		Where("LOWER(route.to_city) = LOWER(?)", toCity).
		Where("route.is_active = ?", true).
		Where("bus.is_active = ?", true).
		Order("s.departure_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

// ---------------- BOOKINGS ----------------

// OccupiedSeats → union of seats across pending and confirmed bookings.
// Order follows booking creation, duplicates removed.
func (d *DB) OccupiedSeats(ctx context.Context, scheduleID string) ([]string, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Column("b.seat_numbers").
		Where("b.schedule_id = ?", scheduleID).
		Where("b.booking_status IN (?)", bun.In(models.OccupyingStatuses)).
		Order("b.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	seats := []string{}
	for _, b := range bookings {
		for _, seat := range b.SeatNumbers {
			if _, ok := seen[seat]; ok {
				continue
			}
			seen[seat] = struct{}{}
			seats = append(seats, seat)
		}
	}
	return seats, nil
}

// NextBookingReference → "BK" followed by eight uppercase characters not yet in use
func (d *DB) NextBookingReference(ctx context.Context) (string, error) {
	for i := 0; i < maxReferenceAttempts; i++ {
		ref := "BK" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		exists, err := d.Bun.NewSelect().
			Model((*models.Booking)(nil)).
			Where("b.booking_reference = ?", ref).
			Exists(ctx)
		if err != nil {
			return "", err
		}
		if !exists {
			return ref, nil
		}
	}
	return "", ErrReferenceTaken
}

// InsertBooking → booking row plus one claim per seat, in one transaction
func (d *DB) InsertBooking(ctx context.Context, booking *models.Booking) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(booking).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return ErrReferenceTaken
			}
			return err
		}

		claims := booking.Claims()
		if _, err := tx.NewInsert().Model(&claims).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return ErrSeatClaimed
			}
			return err
		}
		return nil
	})
}

// GetBooking → one booking with its schedule, bus and route
func (d *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Relation("Schedule").
		Relation("Schedule.Bus").
		Relation("Schedule.Route").
		Where("b.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &booking, nil
}

// ListBookingsByUser → booking history, newest first
func (d *DB) ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Relation("Schedule").
		Relation("Schedule.Bus").
		Relation("Schedule.Route").
		Where("b.user_id = ?", userID).
		Order("b.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// SetPaymentSession → stamp the checkout session id, statuses untouched
func (d *DB) SetPaymentSession(ctx context.Context, id, sessionID string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("payment_session_id = ?", sessionID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateBookingStatus → apply a status pair. Cancelling releases the
// booking's seat claims; confirming re-asserts any that are free.
func (d *DB) UpdateBookingStatus(ctx context.Context, id string, bookingStatus models.BookingStatus, paymentStatus models.PaymentStatus) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Booking)(nil)).
			Set("booking_status = ?", bookingStatus).
			Set("payment_status = ?", paymentStatus).
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		if err := requireRow(res); err != nil {
			return err
		}

		switch bookingStatus {
		case models.BookingCancelled:
			_, err = tx.NewDelete().
				Model((*models.SeatClaim)(nil)).
				Where("booking_id = ?", id).
				Exec(ctx)
			return err
		case models.BookingConfirmed:
			var booking models.Booking
			err = tx.NewSelect().
				Model(&booking).
				Column("b.id", "b.schedule_id", "b.seat_numbers").
				Where("b.id = ?", id).
				Scan(ctx)
			if err != nil {
				return err
			}
			claims := booking.Claims()
			if len(claims) == 0 {
				return nil
			}
			_, err = tx.NewInsert().
				Model(&claims).
				On("CONFLICT DO NOTHING").
				Exec(ctx)
			return err
		}
		return nil
	})
}

// ---------------- HELPERS ----------------

// notFound maps a missing row, or an id Postgres cannot parse as a UUID, to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "22P02" {
		return ErrNotFound
	}
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation recognises unique-key failures from Postgres and SQLite.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
