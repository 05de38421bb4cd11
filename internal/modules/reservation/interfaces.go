package reservation

import (
	"context"
	"time"

	"charterdesk/internal/domain"
	"charterdesk/internal/events"
	"charterdesk/internal/repository"
)

// CatalogGateway resolves the records a reservation references. Missing
// records are reported as repository.ErrRecordNotFound.
type CatalogGateway interface {
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	GetRoute(ctx context.Context, id string) (*domain.Route, error)
	GetPaymentMethod(ctx context.Context, id string) (*domain.PaymentMethod, error)
	GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error)
	GetDriver(ctx context.Context, id string) (*domain.Driver, error)
}

// ReservationStore persists reservations and their manifests. Calls made with
// the context passed into WithinTransaction's callback share its transaction.
type ReservationStore interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	GetForUpdate(ctx context.Context, id string) (*domain.Reservation, error)
	GetDetailed(ctx context.Context, id string) (*domain.Reservation, error)
	List(ctx context.Context, f repository.ReservationFilter) ([]domain.Reservation, int64, error)
	ExistsOnDay(ctx context.Context, column, resourceID string, start, end time.Time, excludeID string) (bool, error)

	Create(ctx context.Context, r *domain.Reservation) error
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error

	CountPassengers(ctx context.Context, reservationID string) (int64, error)
	CreatePassengers(ctx context.Context, details []domain.PassengerDetail) error
	DeletePassengers(ctx context.Context, reservationID string) (int64, error)
	GetPassenger(ctx context.Context, id string) (*domain.PassengerDetail, error)
	DeletePassenger(ctx context.Context, id string) error
}

// ReservationCache holds hydrated reservations. Get returns nil, nil on a miss.
// Readers take Version before loading from storage and pass it to Fill, which
// drops the copy if Invalidate ran in between.
type ReservationCache interface {
	Get(ctx context.Context, id string) (*domain.Reservation, error)
	Version(ctx context.Context, id string) (int64, error)
	Fill(ctx context.Context, r *domain.Reservation, version int64) (bool, error)
	Invalidate(ctx context.Context, id string) error
}

type EventPublisher interface {
	PublishReservationEvent(ctx context.Context, e events.ReservationEvent) error
}
