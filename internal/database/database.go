package database

import (
	"fmt"
	"strings"

	"charterdesk/internal/domain"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Index names are referenced by the repository when translating unique
// violations reported by postgres.
const (
	VehicleDayIndex = "idx_reservations_vehicle_day"
	DriverDayIndex  = "idx_reservations_driver_day"
)

func Connect(dsn string, log *zap.SugaredLogger) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Infow("connecting to postgres")
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	log.Infow("using sqlite", "dsn", dsn)

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        sqliteDSN(dsn),
		}),
		cfg,
	)
}

// sqliteDSN makes modernc store timestamps in a sortable text layout and wait
// on locks instead of failing fast.
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.Contains(dsn, "_time_format") {
		dsn += sep + "_time_format=sqlite"
		sep = "&"
	}
	if !strings.Contains(dsn, "busy_timeout") {
		dsn += sep + "_pragma=busy_timeout(5000)"
	}
	return dsn
}

// Migrate creates the catalog and reservation tables and the partial unique
// indexes that keep a vehicle or driver to one reservation per service day.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Customer{},
		&domain.Route{},
		&domain.PaymentMethod{},
		&domain.Vehicle{},
		&domain.Driver{},
		&domain.Reservation{},
		&domain.PassengerDetail{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + VehicleDayIndex + `
ON reservations (vehicle_id, service_day) WHERE vehicle_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + DriverDayIndex + `
ON reservations (driver_id, service_day) WHERE driver_id IS NOT NULL`,
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
