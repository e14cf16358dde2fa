package db

import (
	"context"

	"ms-booking/internal/models"

	"github.com/uptrace/bun"
)

// CreateSchema creates the booking tables from the models. Production
// databases are built by the SQL migrations; this serves embedded stores.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range []interface{}{
		(*models.Bus)(nil),
		(*models.Route)(nil),
		(*models.Schedule)(nil),
		(*models.Booking)(nil),
		(*models.SeatClaim)(nil),
	} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
