package models

import (
	"time"

	"github.com/uptrace/bun"
)

const JourneyDateLayout = "2006-01-02"

type Bus struct {
	bun.BaseModel `bun:"table:buses,alias:bs"`

	ID         string   `bun:"id,pk" json:"id"`
	BusNumber  string   `bun:"bus_number,notnull" json:"bus_number"`
	BusType    string   `bun:"bus_type,notnull" json:"bus_type"`
	Operator   string   `bun:"operator,notnull" json:"operator"`
	TotalSeats int      `bun:"total_seats,notnull" json:"total_seats"`
	Amenities  []string `bun:"amenities,type:jsonb" json:"amenities"`
	IsActive   bool     `bun:"is_active,notnull" json:"-"`
}

type Route struct {
	bun.BaseModel `bun:"table:routes,alias:rt"`

	ID            string  `bun:"id,pk" json:"id"`
	FromCity      string  `bun:"from_city,notnull" json:"from_city"`
	ToCity        string  `bun:"to_city,notnull" json:"to_city"`
	DistanceKM    float64 `bun:"distance_km" json:"distance_km"`
	DurationHours float64 `bun:"duration_hours" json:"duration_hours"`
	IsActive      bool    `bun:"is_active,notnull" json:"-"`
}

// Schedule is one bus run on one date. AvailableSeats is maintained by
// administrative tooling and never decremented by bookings.
type Schedule struct {
	bun.BaseModel `bun:"table:schedules,alias:s"`

	ID             string    `bun:"id,pk"`
	BusID          string    `bun:"bus_id,notnull"`
	RouteID        string    `bun:"route_id,notnull"`
	DepartureTime  string    `bun:"departure_time,notnull"`
	ArrivalTime    string    `bun:"arrival_time,notnull"`
	Price          float64   `bun:"price,notnull"`
	AvailableSeats int       `bun:"available_seats,notnull"`
	JourneyDate    time.Time `bun:"journey_date,notnull,type:date"`
	IsActive       bool      `bun:"is_active,notnull"`

	Bus   *Bus   `bun:"rel:belongs-to,join:bus_id=id"`
	Route *Route `bun:"rel:belongs-to,join:route_id=id"`
}

// JourneyDay returns the journey date as YYYY-MM-DD.
func (s *Schedule) JourneyDay() string {
	return s.JourneyDate.Format(JourneyDateLayout)
}

// Snapshot copies the display fields a booking response carries.
func (s *Schedule) Snapshot() ScheduleSnapshot {
	snap := ScheduleSnapshot{
		JourneyDate:   s.JourneyDay(),
		DepartureTime: s.DepartureTime,
		ArrivalTime:   s.ArrivalTime,
	}
	if s.Route != nil {
		snap.FromCity = s.Route.FromCity
		snap.ToCity = s.Route.ToCity
	}
	if s.Bus != nil {
		snap.BusNumber = s.Bus.BusNumber
		snap.Operator = s.Bus.Operator
	}
	return snap
}

type ScheduleSnapshot struct {
	JourneyDate   string `json:"journey_date"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
	FromCity      string `json:"from_city"`
	ToCity        string `json:"to_city"`
	BusNumber     string `json:"bus_number"`
	Operator      string `json:"operator"`
}

// ParseJourneyDate parses YYYY-MM-DD into UTC midnight, the form journey
// dates are stored in.
func ParseJourneyDate(s string) (time.Time, error) {
	return time.ParseInLocation(JourneyDateLayout, s, time.UTC)
}
