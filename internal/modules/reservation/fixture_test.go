package reservation

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"charterdesk/internal/database"
	"charterdesk/internal/domain"
	"charterdesk/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fixture is a migrated sqlite file with a small catalog:
// van (4 seats), minibus (3 seats), coach (15 seats), an inactive vehicle,
// two active drivers and an inactive one.
type fixture struct {
	db    *gorm.DB
	store *repository.ReservationRepository
	svc   *Service

	customer domain.Customer
	route    domain.Route
	payment  domain.PaymentMethod

	van     domain.Vehicle
	minibus domain.Vehicle
	coach   domain.Vehicle
	retired domain.Vehicle

	driver  domain.Driver
	driver2 domain.Driver
	offDuty domain.Driver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop().Sugar()

	db, err := database.Connect(filepath.Join(t.TempDir(), "charter.db"), log)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	birth := time.Date(1990, time.June, 20, 0, 0, 0, 0, time.UTC)
	f := &fixture{
		db:       db,
		customer: domain.Customer{FullName: "Lucía Fernández", Email: "lucia@example.com", DocumentType: "DNI", DocumentNumber: "44556677", BirthDate: &birth},
		route:    domain.Route{Name: "Lima - Paracas", Origin: "Lima", Destination: "Paracas"},
		payment:  domain.PaymentMethod{Name: "Card"},
		van:      domain.Vehicle{Plate: "VAN-004", Model: "Hyundai H1", Capacity: 4, Active: true},
		minibus:  domain.Vehicle{Plate: "MIN-003", Model: "Toyota Hiace", Capacity: 3, Active: true},
		coach:    domain.Vehicle{Plate: "BUS-015", Model: "Mercedes Sprinter", Capacity: 15, Active: true},
		retired:  domain.Vehicle{Plate: "OLD-025", Model: "Coaster", Capacity: 25, Active: false},
		driver:   domain.Driver{FullName: "Jorge Quispe", LicenseNumber: "Q1", Active: true},
		driver2:  domain.Driver{FullName: "Rosa Huamán", LicenseNumber: "H2", Active: true},
		offDuty:  domain.Driver{FullName: "Pedro Ramos", LicenseNumber: "R3", Active: false},
	}
	for _, rec := range []any{
		&f.customer, &f.route, &f.payment,
		&f.van, &f.minibus, &f.coach, &f.retired,
		&f.driver, &f.driver2, &f.offDuty,
	} {
		require.NoError(t, db.Create(rec).Error)
	}

	f.store = repository.NewReservationRepository(db)
	f.svc = NewService(
		f.store,
		repository.NewCatalogRepository(db),
		nil,
		nil,
		Config{Location: time.UTC},
		log,
	)
	f.svc.manifest.now = func() time.Time {
		return time.Date(2025, time.December, 1, 12, 0, 0, 0, time.UTC)
	}
	return f
}

func (f *fixture) request(date string) CreateReservationRequest {
	return CreateReservationRequest{
		CustomerID:              f.customer.ID,
		RouteID:                 f.route.ID,
		PaymentMethodID:         f.payment.ID,
		Date:                    date,
		DepartureTime:           "08:30",
		RequestedPassengerCount: 2,
	}
}

func (f *fixture) create(t *testing.T, req CreateReservationRequest) *domain.Reservation {
	t.Helper()
	res, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	return res
}

func (f *fixture) passengerCount(t *testing.T, reservationID string) int64 {
	t.Helper()
	n, err := f.store.CountPassengers(context.Background(), reservationID)
	require.NoError(t, err)
	return n
}

func passengers(n int) []PassengerInput {
	out := make([]PassengerInput, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, PassengerInput{
			PassengerName:  "Passenger " + string(rune('A'+i)),
			DocumentType:   "DNI",
			DocumentNumber: "1000000" + string(rune('0'+i)),
			Age:            30 + i,
		})
	}
	return out
}

func ptr[T any](v T) *T { return &v }
