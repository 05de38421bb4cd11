package reservation

import (
	"context"
	"fmt"
	"time"

	"charterdesk/internal/domain"
	"charterdesk/internal/pkg/validator"
)

// ManifestManager owns the passenger rows of a reservation. It never lets
// a committed manifest grow past the assigned vehicle's capacity.
type ManifestManager struct {
	store   ReservationStore
	catalog CatalogGateway
	now     func() time.Time
}

func NewManifestManager(store ReservationStore, catalog CatalogGateway) *ManifestManager {
	return &ManifestManager{store: store, catalog: catalog, now: time.Now}
}

// ReplaceAll deletes every passenger of the reservation and inserts details.
// It must run inside the caller's transaction; the delete completes before
// any insert starts.
func (m *ManifestManager) ReplaceAll(ctx context.Context, reservationID string, details []PassengerInput) error {
	if err := validatePassengers(details); err != nil {
		return err
	}
	if _, err := m.store.DeletePassengers(ctx, reservationID); err != nil {
		return fmt.Errorf("clear manifest: %w", err)
	}
	return m.insertAll(ctx, reservationID, details)
}

func (m *ManifestManager) insertAll(ctx context.Context, reservationID string, details []PassengerInput) error {
	if len(details) == 0 {
		return nil
	}
	if err := m.store.CreatePassengers(ctx, toPassengerDetails(reservationID, details)); err != nil {
		return fmt.Errorf("insert manifest: %w", err)
	}
	return nil
}

// AddOne appends a single passenger. The reservation must have a vehicle and
// room for one more passenger, both re-read inside the transaction.
func (m *ManifestManager) AddOne(ctx context.Context, reservationID string, req AddPassengerRequest) (*domain.PassengerDetail, error) {
	input, err := m.resolveSource(ctx, req)
	if err != nil {
		return nil, err
	}

	var added *domain.PassengerDetail
	err = m.store.WithinTransaction(ctx, func(ctx context.Context) error {
		res, err := m.store.GetForUpdate(ctx, reservationID)
		if err != nil {
			return notFoundOr(err, "reservation", reservationID)
		}
		if res.VehicleID == nil {
			return ErrVehicleNotAssigned
		}

		vehicle, err := m.catalog.GetVehicle(ctx, *res.VehicleID)
		if err != nil {
			return notFoundOr(err, "vehicle", *res.VehicleID)
		}

		count, err := m.store.CountPassengers(ctx, reservationID)
		if err != nil {
			return fmt.Errorf("count manifest: %w", err)
		}
		if err := CheckCapacity(int(count)+1, vehicle.Capacity); err != nil {
			return err
		}

		rows := toPassengerDetails(reservationID, []PassengerInput{input})
		if err := m.store.CreatePassengers(ctx, rows); err != nil {
			return fmt.Errorf("add passenger: %w", err)
		}
		added = &rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// RemoveOne deletes a passenger by id and returns the removed row.
func (m *ManifestManager) RemoveOne(ctx context.Context, detailID string) (*domain.PassengerDetail, error) {
	var removed *domain.PassengerDetail
	err := m.store.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := m.store.GetPassenger(ctx, detailID)
		if err != nil {
			return notFoundOr(err, "passenger", detailID)
		}
		if err := m.store.DeletePassenger(ctx, detailID); err != nil {
			return notFoundOr(err, "passenger", detailID)
		}
		removed = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (m *ManifestManager) resolveSource(ctx context.Context, req AddPassengerRequest) (PassengerInput, error) {
	switch {
	case req.CustomerID != nil && req.Passenger != nil:
		return PassengerInput{}, invalidArgument("customer_id and passenger are mutually exclusive")
	case req.Passenger != nil:
		input := *req.Passenger
		if req.Age != nil {
			input.Age = *req.Age
		}
		return input, validatePassenger("passenger", input)
	case req.CustomerID == nil:
		return PassengerInput{}, invalidArgument("either customer_id or passenger is required")
	}

	customer, err := m.catalog.GetCustomer(ctx, *req.CustomerID)
	if err != nil {
		return PassengerInput{}, notFoundOr(err, "customer", *req.CustomerID)
	}

	input := PassengerInput{
		PassengerName:  customer.FullName,
		DocumentType:   customer.DocumentType,
		DocumentNumber: customer.DocumentNumber,
	}
	switch {
	case req.Age != nil:
		input.Age = *req.Age
	case customer.BirthDate != nil:
		input.Age = ageOn(*customer.BirthDate, m.now())
	}
	return input, validatePassenger("customer "+*req.CustomerID, input)
}

func validatePassengers(details []PassengerInput) error {
	for i, d := range details {
		if err := validatePassenger(fmt.Sprintf("details[%d]", i), d); err != nil {
			return err
		}
	}
	return nil
}

// validatePassenger prefixes failures with field, where d sits in the request.
func validatePassenger(field string, d PassengerInput) error {
	if errs := validator.Validate(d); errs != nil {
		return invalidArgument("%s: %s", field, validator.Summary(errs))
	}
	return nil
}

func toPassengerDetails(reservationID string, details []PassengerInput) []domain.PassengerDetail {
	rows := make([]domain.PassengerDetail, 0, len(details))
	for _, d := range details {
		rows = append(rows, domain.PassengerDetail{
			ReservationID:  reservationID,
			PassengerName:  d.PassengerName,
			DocumentType:   d.DocumentType,
			DocumentNumber: d.DocumentNumber,
			Age:            d.Age,
		})
	}
	return rows
}

func ageOn(birth, at time.Time) int {
	age := at.Year() - birth.Year()
	if at.Month() < birth.Month() || (at.Month() == birth.Month() && at.Day() < birth.Day()) {
		age--
	}
	return age
}
