package reservation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"charterdesk/internal/domain"
	"charterdesk/internal/events"
	"charterdesk/internal/pkg/validator"
	"charterdesk/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Config struct {
	// Location decides which calendar day a reservation date falls on.
	Location        *time.Location
	DefaultPageSize int
	MaxPageSize     int
}

// Service is the reservation engine. Every mutating call validates first,
// then writes inside exactly one transaction, then returns the hydrated
// reservation read back after commit.
type Service struct {
	store    ReservationStore
	catalog  CatalogGateway
	avail    *AvailabilityChecker
	manifest *ManifestManager
	cache    ReservationCache
	events   EventPublisher
	cfg      Config
	log      *zap.SugaredLogger
}

// NewService wires the engine. cache and events may be nil.
func NewService(
	store ReservationStore,
	catalog CatalogGateway,
	cache ReservationCache,
	events EventPublisher,
	cfg Config,
	log *zap.SugaredLogger,
) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Service{
		store:    store,
		catalog:  catalog,
		avail:    NewAvailabilityChecker(store, cfg.Location),
		manifest: NewManifestManager(store, catalog),
		cache:    cache,
		events:   events,
		cfg:      cfg,
		log:      log,
	}
}

func (s *Service) Create(ctx context.Context, req CreateReservationRequest) (*domain.Reservation, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, invalidArgument("%s", validator.Summary(errs))
	}
	day, err := s.parseDay(req.Date)
	if err != nil {
		return nil, err
	}

	if err := s.resolveParties(ctx, req.CustomerID, req.RouteID, req.PaymentMethodID); err != nil {
		return nil, err
	}

	if req.VehicleID != nil {
		vehicle, err := s.activeVehicle(ctx, *req.VehicleID)
		if err != nil {
			return nil, err
		}
		if err := CheckCapacity(req.RequestedPassengerCount, vehicle.Capacity); err != nil {
			return nil, err
		}
		if err := CheckCapacity(len(req.Details), vehicle.Capacity); err != nil {
			return nil, err
		}
		if err := s.avail.EnsureAvailable(ctx, ResourceVehicle, vehicle.ID, day, ""); err != nil {
			return nil, err
		}
	}
	if req.DriverID != nil {
		driver, err := s.activeDriver(ctx, *req.DriverID)
		if err != nil {
			return nil, err
		}
		if err := s.avail.EnsureAvailable(ctx, ResourceDriver, driver.ID, day, ""); err != nil {
			return nil, err
		}
	}

	res := &domain.Reservation{
		CustomerID:              req.CustomerID,
		RouteID:                 req.RouteID,
		PaymentMethodID:         req.PaymentMethodID,
		VehicleID:               req.VehicleID,
		DriverID:                req.DriverID,
		Date:                    day,
		ServiceDay:              ServiceDay(day, s.cfg.Location),
		DepartureTime:           req.DepartureTime,
		RequestedPassengerCount: req.RequestedPassengerCount,
		TotalPrice:              req.TotalPrice,
		Status:                  domain.ReservationPending,
		Notes:                   req.Notes,
	}

	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, res); err != nil {
			return s.writeError(err, res)
		}
		return s.manifest.insertAll(ctx, res.ID, req.Details)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("reservation created",
		"reservation_id", res.ID,
		"service_day", res.ServiceDay,
		"passengers", len(req.Details),
	)
	return s.afterWrite(ctx, events.ReservationCreated, res.ID)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateReservationRequest) (*domain.Reservation, error) {
	if err := requireID("reservation", id); err != nil {
		return nil, err
	}
	if errs := validator.Validate(req); errs != nil {
		return nil, invalidArgument("%s", validator.Summary(errs))
	}
	if req.Details != nil {
		if err := validatePassengers(*req.Details); err != nil {
			return nil, err
		}
	}

	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "reservation", id)
	}

	next := *current
	fields := map[string]any{}

	if req.CustomerID != nil {
		if _, err := s.catalog.GetCustomer(ctx, *req.CustomerID); err != nil {
			return nil, notFoundOr(err, "customer", *req.CustomerID)
		}
		next.CustomerID = *req.CustomerID
		fields["customer_id"] = next.CustomerID
	}
	if req.RouteID != nil {
		if _, err := s.catalog.GetRoute(ctx, *req.RouteID); err != nil {
			return nil, notFoundOr(err, "route", *req.RouteID)
		}
		next.RouteID = *req.RouteID
		fields["route_id"] = next.RouteID
	}
	if req.PaymentMethodID != nil {
		if _, err := s.catalog.GetPaymentMethod(ctx, *req.PaymentMethodID); err != nil {
			return nil, notFoundOr(err, "payment method", *req.PaymentMethodID)
		}
		next.PaymentMethodID = *req.PaymentMethodID
		fields["payment_method_id"] = next.PaymentMethodID
	}
	if req.Date != nil {
		day, err := s.parseDay(*req.Date)
		if err != nil {
			return nil, err
		}
		next.Date = day
		next.ServiceDay = ServiceDay(day, s.cfg.Location)
		fields["date"] = next.Date
		fields["service_day"] = next.ServiceDay
	}
	if req.DepartureTime != nil {
		fields["departure_time"] = *req.DepartureTime
	}
	if req.RequestedPassengerCount != nil {
		next.RequestedPassengerCount = *req.RequestedPassengerCount
		fields["requested_passenger_count"] = next.RequestedPassengerCount
	}
	if req.TotalPrice != nil {
		fields["total_price"] = *req.TotalPrice
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}
	if req.VehicleID != nil {
		next.VehicleID = req.VehicleID
		fields["vehicle_id"] = *req.VehicleID
	}
	if req.DriverID != nil {
		next.DriverID = req.DriverID
		fields["driver_id"] = *req.DriverID
	}
	dayChanged := next.ServiceDay != current.ServiceDay

	capacity := -1
	if next.VehicleID != nil {
		var vehicle *domain.Vehicle
		if req.VehicleID != nil {
			vehicle, err = s.activeVehicle(ctx, *next.VehicleID)
		} else {
			vehicle, err = s.catalog.GetVehicle(ctx, *next.VehicleID)
			err = notFoundOr(err, "vehicle", *next.VehicleID)
		}
		if err != nil {
			return nil, err
		}
		capacity = vehicle.Capacity

		if err := CheckCapacity(next.RequestedPassengerCount, capacity); err != nil {
			return nil, err
		}
		if req.Details != nil {
			if err := CheckCapacity(len(*req.Details), capacity); err != nil {
				return nil, err
			}
		}
		if req.VehicleID != nil || dayChanged {
			if err := s.avail.EnsureAvailable(ctx, ResourceVehicle, vehicle.ID, next.Date, id); err != nil {
				return nil, err
			}
		}
	}
	if next.DriverID != nil && (req.DriverID != nil || dayChanged) {
		if req.DriverID != nil {
			if _, err := s.activeDriver(ctx, *next.DriverID); err != nil {
				return nil, err
			}
		}
		if err := s.avail.EnsureAvailable(ctx, ResourceDriver, *next.DriverID, next.Date, id); err != nil {
			return nil, err
		}
	}

	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetForUpdate(ctx, id); err != nil {
			return notFoundOr(err, "reservation", id)
		}
		if req.Details != nil {
			if err := s.manifest.ReplaceAll(ctx, id, *req.Details); err != nil {
				return err
			}
		}
		if err := s.store.UpdateFields(ctx, id, fields); err != nil {
			return s.writeError(err, &next)
		}
		if capacity >= 0 {
			return s.ensureManifestFits(ctx, id, capacity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("reservation updated", "reservation_id", id, "fields", len(fields), "manifest_replaced", req.Details != nil)
	return s.afterWrite(ctx, events.ReservationUpdated, id)
}

// AssignResources attaches a vehicle and a driver in one statement. The
// manifest is left untouched.
func (s *Service) AssignResources(ctx context.Context, id string, req AssignResourcesRequest) (*domain.Reservation, error) {
	if err := requireID("reservation", id); err != nil {
		return nil, err
	}
	if errs := validator.Validate(req); errs != nil {
		return nil, invalidArgument("%s", validator.Summary(errs))
	}

	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "reservation", id)
	}

	vehicle, err := s.activeVehicle(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	driver, err := s.activeDriver(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	if err := CheckCapacity(current.RequestedPassengerCount, vehicle.Capacity); err != nil {
		return nil, err
	}
	if err := s.avail.EnsureAvailable(ctx, ResourceVehicle, vehicle.ID, current.Date, id); err != nil {
		return nil, err
	}
	if err := s.avail.EnsureAvailable(ctx, ResourceDriver, driver.ID, current.Date, id); err != nil {
		return nil, err
	}

	next := *current
	next.VehicleID = &vehicle.ID
	next.DriverID = &driver.ID

	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetForUpdate(ctx, id); err != nil {
			return notFoundOr(err, "reservation", id)
		}
		if err := s.ensureManifestFits(ctx, id, vehicle.Capacity); err != nil {
			return err
		}
		err := s.store.UpdateFields(ctx, id, map[string]any{
			"vehicle_id": vehicle.ID,
			"driver_id":  driver.ID,
		})
		if err != nil {
			return s.writeError(err, &next)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("resources assigned", "reservation_id", id, "vehicle_id", vehicle.ID, "driver_id", driver.ID)
	return s.afterWrite(ctx, events.ReservationResourcesAssigned, id)
}

// ChangeStatus sets the status unconditionally. Only the value is checked
// against the known vocabulary, never the transition.
func (s *Service) ChangeStatus(ctx context.Context, id string, status string) (*domain.Reservation, error) {
	if err := requireID("reservation", id); err != nil {
		return nil, err
	}
	st := domain.ReservationStatus(status)
	if !st.Valid() {
		return nil, invalidArgument("unknown status %q", status)
	}

	if _, err := s.store.GetByID(ctx, id); err != nil {
		return nil, notFoundOr(err, "reservation", id)
	}

	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		return notFoundOr(s.store.UpdateFields(ctx, id, map[string]any{"status": st}), "reservation", id)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("reservation status changed", "reservation_id", id, "status", st)
	return s.afterWrite(ctx, events.ReservationStatusChanged, id)
}

// Delete removes the reservation together with its manifest.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := requireID("reservation", id); err != nil {
		return err
	}

	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "reservation", id)
	}

	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetForUpdate(ctx, id); err != nil {
			return notFoundOr(err, "reservation", id)
		}
		if _, err := s.store.DeletePassengers(ctx, id); err != nil {
			return fmt.Errorf("delete manifest: %w", err)
		}
		return notFoundOr(s.store.Delete(ctx, id), "reservation", id)
	})
	if err != nil {
		return err
	}

	s.log.Infow("reservation deleted", "reservation_id", id)
	s.invalidate(ctx, id)
	s.publish(ctx, events.ReservationEvent{
		Type:          events.ReservationDeleted,
		ReservationID: id,
		Status:        string(current.Status),
		ServiceDay:    current.ServiceDay,
		VehicleID:     current.VehicleID,
		DriverID:      current.DriverID,
	})
	return nil
}

func (s *Service) AddPassenger(ctx context.Context, reservationID string, req AddPassengerRequest) (*domain.PassengerDetail, error) {
	if err := requireID("reservation", reservationID); err != nil {
		return nil, err
	}
	if errs := validator.Validate(req); errs != nil {
		return nil, invalidArgument("%s", validator.Summary(errs))
	}

	added, err := s.manifest.AddOne(ctx, reservationID, req)
	if err != nil {
		return nil, err
	}

	s.log.Infow("passenger added", "reservation_id", reservationID, "passenger_id", added.ID)
	s.afterManifestChange(ctx, events.PassengerAdded, reservationID, added.ID)
	return added, nil
}

func (s *Service) RemovePassenger(ctx context.Context, passengerID string) error {
	if err := requireID("passenger", passengerID); err != nil {
		return err
	}

	removed, err := s.manifest.RemoveOne(ctx, passengerID)
	if err != nil {
		return err
	}

	s.log.Infow("passenger removed", "reservation_id", removed.ReservationID, "passenger_id", passengerID)
	s.afterManifestChange(ctx, events.PassengerRemoved, removed.ReservationID, passengerID)
	return nil
}

// FindOne returns the hydrated reservation, served from cache when possible.
// Only this read path fills the cache; writers just invalidate.
func (s *Service) FindOne(ctx context.Context, id string) (*domain.Reservation, error) {
	if err := requireID("reservation", id); err != nil {
		return nil, err
	}
	if s.cache == nil {
		return s.load(ctx, id)
	}

	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		s.log.Warnw("reservation cache read failed", "reservation_id", id, "error", err)
	}
	if cached != nil {
		return cached, nil
	}

	version, err := s.cache.Version(ctx, id)
	if err != nil {
		s.log.Warnw("reservation cache version read failed", "reservation_id", id, "error", err)
		return s.load(ctx, id)
	}

	res, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	filled, err := s.cache.Fill(ctx, res, version)
	switch {
	case err != nil:
		s.log.Warnw("reservation cache write failed", "reservation_id", id, "error", err)
	case !filled:
		s.log.Debugw("reservation changed during read, cache not filled", "reservation_id", id)
	}
	return res, nil
}

func (s *Service) FindAll(ctx context.Context, q ListQuery) (*ListResult, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = s.cfg.DefaultPageSize
	}
	if size > s.cfg.MaxPageSize {
		size = s.cfg.MaxPageSize
	}
	if page-1 > math.MaxInt/size {
		return nil, invalidArgument("page %d is out of range", page)
	}

	f := repository.ReservationFilter{
		Search: q.Search,
		Limit:  size,
		Offset: (page - 1) * size,
	}
	if q.Status != "" {
		if !domain.ReservationStatus(q.Status).Valid() {
			return nil, invalidArgument("unknown status %q", q.Status)
		}
		f.Status = q.Status
	}
	for _, ref := range []struct {
		name string
		val  string
		dst  *string
	}{
		{"customer", q.CustomerID, &f.CustomerID},
		{"vehicle", q.VehicleID, &f.VehicleID},
		{"driver", q.DriverID, &f.DriverID},
	} {
		if ref.val == "" {
			continue
		}
		if err := requireID(ref.name, ref.val); err != nil {
			return nil, err
		}
		*ref.dst = ref.val
	}
	if q.DateFrom != "" {
		day, err := s.parseDay(q.DateFrom)
		if err != nil {
			return nil, err
		}
		start, _ := DayRange(day, s.cfg.Location)
		f.DateFrom = &start
	}
	if q.DateTo != "" {
		day, err := s.parseDay(q.DateTo)
		if err != nil {
			return nil, err
		}
		_, end := DayRange(day, s.cfg.Location)
		f.DateTo = &end
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return nil, invalidArgument("date_from %s is after date_to %s", q.DateFrom, q.DateTo)
	}

	items, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

// CheckAvailability reports whether a vehicle or driver is free on date.
func (s *Service) CheckAvailability(ctx context.Context, kind, resourceID, date, excludeID string) (*AvailabilityResult, error) {
	k, err := ParseResourceKind(kind)
	if err != nil {
		return nil, err
	}
	if err := requireID(kind, resourceID); err != nil {
		return nil, err
	}
	if excludeID != "" {
		if err := requireID("reservation", excludeID); err != nil {
			return nil, err
		}
	}
	day, err := s.parseDay(date)
	if err != nil {
		return nil, err
	}

	taken, err := s.avail.HasConflict(ctx, k, resourceID, day, excludeID)
	if err != nil {
		return nil, err
	}
	return &AvailabilityResult{
		Kind:       k,
		ResourceID: resourceID,
		Date:       ServiceDay(day, s.cfg.Location),
		Available:  !taken,
	}, nil
}

func (s *Service) resolveParties(ctx context.Context, customerID, routeID, paymentMethodID string) error {
	if _, err := s.catalog.GetCustomer(ctx, customerID); err != nil {
		return notFoundOr(err, "customer", customerID)
	}
	if _, err := s.catalog.GetRoute(ctx, routeID); err != nil {
		return notFoundOr(err, "route", routeID)
	}
	if _, err := s.catalog.GetPaymentMethod(ctx, paymentMethodID); err != nil {
		return notFoundOr(err, "payment method", paymentMethodID)
	}
	return nil
}

func (s *Service) activeVehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	v, err := s.catalog.GetVehicle(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "vehicle", id)
	}
	if !v.Active {
		return nil, invalidArgument("vehicle %s is inactive", id)
	}
	return v, nil
}

func (s *Service) activeDriver(ctx context.Context, id string) (*domain.Driver, error) {
	d, err := s.catalog.GetDriver(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "driver", id)
	}
	if !d.Active {
		return nil, invalidArgument("driver %s is inactive", id)
	}
	return d, nil
}

// ensureManifestFits re-counts the manifest inside the caller's transaction.
func (s *Service) ensureManifestFits(ctx context.Context, reservationID string, capacity int) error {
	count, err := s.store.CountPassengers(ctx, reservationID)
	if err != nil {
		return fmt.Errorf("count manifest: %w", err)
	}
	return CheckCapacity(int(count), capacity)
}

func (s *Service) parseDay(value string) (time.Time, error) {
	day, err := time.ParseInLocation(domain.ServiceDayLayout, value, s.cfg.Location)
	if err != nil {
		return time.Time{}, invalidArgument("date %q must be YYYY-MM-DD", value)
	}
	return day.UTC(), nil
}

// writeError maps a failed reservation write. A resource-day unique
// violation means a concurrent booking won the race after our pre-check.
func (s *Service) writeError(err error, res *domain.Reservation) error {
	var uv *repository.UniqueViolationError
	if errors.As(err, &uv) {
		switch {
		case uv.Column == "vehicle_id" && res.VehicleID != nil:
			return &ConflictError{Kind: ResourceVehicle, ResourceID: *res.VehicleID, Day: res.ServiceDay}
		case uv.Column == "driver_id" && res.DriverID != nil:
			return &ConflictError{Kind: ResourceDriver, ResourceID: *res.DriverID, Day: res.ServiceDay}
		}
	}
	if errors.Is(err, repository.ErrRecordNotFound) {
		return &NotFoundError{Entity: "reservation", ID: res.ID}
	}
	return fmt.Errorf("save reservation: %w", err)
}

func (s *Service) afterWrite(ctx context.Context, eventType, id string) (*domain.Reservation, error) {
	s.invalidate(ctx, id)

	res, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ReservationEvent{
		Type:           eventType,
		ReservationID:  res.ID,
		Status:         string(res.Status),
		ServiceDay:     res.ServiceDay,
		VehicleID:      res.VehicleID,
		DriverID:       res.DriverID,
		PassengerCount: len(res.Passengers),
	})
	return res, nil
}

func (s *Service) afterManifestChange(ctx context.Context, eventType, reservationID, passengerID string) {
	s.invalidate(ctx, reservationID)

	if s.events == nil {
		return
	}
	count, err := s.store.CountPassengers(ctx, reservationID)
	if err != nil {
		s.log.Warnw("manifest count for event failed", "reservation_id", reservationID, "error", err)
	}
	s.publish(ctx, events.ReservationEvent{
		Type:           eventType,
		ReservationID:  reservationID,
		PassengerID:    passengerID,
		PassengerCount: int(count),
	})
}

func (s *Service) load(ctx context.Context, id string) (*domain.Reservation, error) {
	res, err := s.store.GetDetailed(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "reservation", id)
	}
	return res, nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warnw("reservation cache invalidation failed", "reservation_id", id, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, e events.ReservationEvent) {
	if s.events == nil {
		return
	}
	e.OccurredAt = time.Now().UTC()
	if err := s.events.PublishReservationEvent(ctx, e); err != nil {
		s.log.Warnw("reservation event publish failed", "type", e.Type, "reservation_id", e.ReservationID, "error", err)
	}
}

func requireID(entity, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return invalidArgument("%s id %q is malformed", entity, id)
	}
	return nil
}

// notFoundOr converts a storage miss into a NotFoundError and wraps anything
// else as an infrastructure failure. A nil err stays nil.
func notFoundOr(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return err
	}
	return fmt.Errorf("load %s %s: %w", entity, id, err)
}
