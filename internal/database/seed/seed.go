package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

// namespace derives stable ids so seeding twice inserts nothing new.
var namespace = uuid.MustParse("6f1c2a4e-3b7d-4c55-9e1a-2d8f0b6c7a91")

func id(kind, name string) string {
	return uuid.NewSHA1(namespace, []byte(kind+":"+name)).String()
}

var buses = []models.Bus{
	{BusNumber: "KA-01-F-1234", BusType: "AC Sleeper", Operator: "Sharma Travels", TotalSeats: 32, Amenities: []string{"wifi", "charging", "blanket"}, IsActive: true},
	{BusNumber: "TN-09-B-4521", BusType: "AC Seater", Operator: "Parveen Travels", TotalSeats: 40, Amenities: []string{"charging", "water"}, IsActive: true},
	{BusNumber: "MH-12-K-7788", BusType: "Non-AC Seater", Operator: "Neeta Tours", TotalSeats: 44, Amenities: []string{}, IsActive: true},
}

var routes = []models.Route{
	{FromCity: "Bangalore", ToCity: "Chennai", DistanceKM: 346, DurationHours: 6, IsActive: true},
	{FromCity: "Chennai", ToCity: "Bangalore", DistanceKM: 346, DurationHours: 6, IsActive: true},
	{FromCity: "Mumbai", ToCity: "Pune", DistanceKM: 149, DurationHours: 3.5, IsActive: true},
}

// departures pairs each route with the bus that runs it.
var departures = []struct {
	route, bus         int
	departure, arrival string
	price              float64
}{
	{0, 0, "21:30:00", "03:30:00", 899},
	{0, 1, "07:00:00", "13:00:00", 650},
	{1, 1, "22:00:00", "04:00:00", 675},
	{2, 2, "06:15:00", "09:45:00", 350},
}

// Data inserts sample buses, routes and one schedule per departure for
// each of the next days, starting with today in loc.
func Data(ctx context.Context, db *bun.DB, days int, now time.Time, loc *time.Location, log *logger.Logger) error {
	busRows := make([]models.Bus, len(buses))
	for i, b := range buses {
		b.ID = id("bus", b.BusNumber)
		busRows[i] = b
	}
	routeRows := make([]models.Route, len(routes))
	for i, r := range routes {
		r.ID = id("route", r.FromCity+"-"+r.ToCity)
		routeRows[i] = r
	}

	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	var schedules []models.Schedule
	for day := 0; day < days; day++ {
		date := today.AddDate(0, 0, day)
		for _, d := range departures {
			bus, route := busRows[d.bus], routeRows[d.route]
			schedules = append(schedules, models.Schedule{
				ID:             id("schedule", fmt.Sprintf("%s/%s/%s/%s", bus.ID, route.ID, date.Format(models.JourneyDateLayout), d.departure)),
				BusID:          bus.ID,
				RouteID:        route.ID,
				DepartureTime:  d.departure,
				ArrivalTime:    d.arrival,
				Price:          d.price,
				AvailableSeats: bus.TotalSeats,
				JourneyDate:    date,
				IsActive:       true,
			})
		}
	}

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&busRows).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("seed buses: %w", err)
		}
		if _, err := tx.NewInsert().Model(&routeRows).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("seed routes: %w", err)
		}
		if len(schedules) > 0 {
			if _, err := tx.NewInsert().Model(&schedules).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
				return fmt.Errorf("seed schedules: %w", err)
			}
		}
		log.LogDatabase("SEED", "schedules", fmt.Sprintf("%d buses, %d routes, %d schedules", len(busRows), len(routeRows), len(schedules)))
		return nil
	})
}
