package redis

import (
	"context"
	"fmt"
	"time"

	"ms-booking/internal/logger"

	"github.com/go-redis/redis/v8"
)

const DefaultHoldTTL = 30 * time.Second

// releaseScript deletes a hold only while it still belongs to the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SeatLocker holds seats of a schedule for the duration of one booking
// attempt so concurrent attempts on the same seat serialize.
type SeatLocker struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewSeatLocker(client *redis.Client, ttl time.Duration, log *logger.Logger) *SeatLocker {
	if ttl <= 0 {
		ttl = DefaultHoldTTL
	}
	return &SeatLocker{Client: client, TTL: ttl, Logger: log}
}

func seatKey(scheduleID, seat string) string {
	return fmt.Sprintf("seat_lock:%s:%s", scheduleID, seat)
}

// HoldSeats tries to hold every seat for holder. When any seat is already
// held by someone else, nothing stays held and the contested seats are
// returned.
func (l *SeatLocker) HoldSeats(ctx context.Context, scheduleID string, seats []string, holder string) ([]string, error) {
	acquired := make([]string, 0, len(seats))
	contested := []string{}

	for _, seat := range seats {
		ok, err := l.Client.SetNX(ctx, seatKey(scheduleID, seat), holder, l.TTL).Result()
		if err != nil {
			l.release(scheduleID, acquired, holder)
			return nil, fmt.Errorf("hold seat %s: %w", seat, err)
		}
		if !ok {
			contested = append(contested, seat)
			continue
		}
		acquired = append(acquired, seat)
	}

	if len(contested) > 0 {
		l.release(scheduleID, acquired, holder)
		return contested, nil
	}
	return nil, nil
}

// ReleaseSeats drops holder's holds; holds owned by others are left alone.
func (l *SeatLocker) ReleaseSeats(ctx context.Context, scheduleID string, seats []string, holder string) error {
	var firstErr error
	for _, seat := range seats {
		if err := releaseScript.Run(ctx, l.Client, []string{seatKey(scheduleID, seat)}, holder).Err(); err != nil && err != redis.Nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("release seat %s: %w", seat, err)
			}
		}
	}
	return firstErr
}

// release is the rollback path and must run even when ctx is done.
func (l *SeatLocker) release(scheduleID string, seats []string, holder string) {
	if len(seats) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.ReleaseSeats(ctx, scheduleID, seats, holder); err != nil && l.Logger != nil {
		l.Logger.Warn("REDIS", fmt.Sprintf("rollback of seat holds on %s failed: %v", scheduleID, err))
	}
}
