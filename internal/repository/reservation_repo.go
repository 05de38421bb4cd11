package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charterdesk/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txKey struct{}

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// ReservationFilter narrows List. Zero values are ignored.
type ReservationFilter struct {
	Status     string
	CustomerID string
	VehicleID  string
	DriverID   string
	DateFrom   *time.Time
	DateTo     *time.Time
	Search     string
	Limit      int
	Offset     int
}

// WithinTransaction runs fn inside a single database transaction. Repository
// calls made with the context handed to fn join that transaction; any error
// returned by fn rolls everything back.
func (r *ReservationRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func (r *ReservationRepository) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := r.conn(ctx).Where("id = ?", id).First(&res).Error; err != nil {
		return nil, translateError(err)
	}
	return &res, nil
}

// GetForUpdate loads the reservation row and locks it for the rest of the
// enclosing transaction where the database supports row locks.
func (r *ReservationRepository) GetForUpdate(ctx context.Context, id string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&res).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &res, nil
}

// GetDetailed loads the reservation with every relation hydrated.
func (r *ReservationRepository) GetDetailed(ctx context.Context, id string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := withRelations(r.conn(ctx)).Where("reservations.id = ?", id).First(&res).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &res, nil
}

func (r *ReservationRepository) List(ctx context.Context, f ReservationFilter) ([]domain.Reservation, int64, error) {
	base := func() *gorm.DB {
		q := r.conn(ctx).Model(&domain.Reservation{})
		if f.Status != "" {
			q = q.Where("reservations.status = ?", f.Status)
		}
		if f.CustomerID != "" {
			q = q.Where("reservations.customer_id = ?", f.CustomerID)
		}
		if f.VehicleID != "" {
			q = q.Where("reservations.vehicle_id = ?", f.VehicleID)
		}
		if f.DriverID != "" {
			q = q.Where("reservations.driver_id = ?", f.DriverID)
		}
		if f.DateFrom != nil {
			q = q.Where("reservations.date >= ?", *f.DateFrom)
		}
		if f.DateTo != nil {
			q = q.Where("reservations.date <= ?", *f.DateTo)
		}
		if s := strings.TrimSpace(f.Search); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			q = q.
				Joins("LEFT JOIN customers ON customers.id = reservations.customer_id").
				Joins("LEFT JOIN routes ON routes.id = reservations.route_id").
				Where("LOWER(customers.full_name) LIKE ? OR LOWER(routes.name) LIKE ?", like, like)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count reservations: %w", err)
	}

	items := make([]domain.Reservation, 0)
	if total == 0 {
		return items, 0, nil
	}

	err := withRelations(base()).
		Select("reservations.*").
		Order("reservations.date ASC, reservations.created_at ASC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations: %w", err)
	}
	return items, total, nil
}

// ExistsOnDay reports whether any reservation other than excludeID has
// column = resourceID with a date inside [start, end].
func (r *ReservationRepository) ExistsOnDay(ctx context.Context, column, resourceID string, start, end time.Time, excludeID string) (bool, error) {
	if column != "vehicle_id" && column != "driver_id" {
		return false, fmt.Errorf("unsupported resource column %q", column)
	}

	q := r.conn(ctx).
		Model(&domain.Reservation{}).
		Where(column+" = ?", resourceID).
		Where("date BETWEEN ? AND ?", start, end)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var cnt int64
	if err := q.Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	return translateError(r.conn(ctx).Omit(clause.Associations).Create(res).Error)
}

func (r *ReservationRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now().UTC()

	tx := r.conn(ctx).Model(&domain.Reservation{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return translateError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *ReservationRepository) Delete(ctx context.Context, id string) error {
	tx := r.conn(ctx).Where("id = ?", id).Delete(&domain.Reservation{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *ReservationRepository) CountPassengers(ctx context.Context, reservationID string) (int64, error) {
	var cnt int64
	err := r.conn(ctx).
		Model(&domain.PassengerDetail{}).
		Where("reservation_id = ?", reservationID).
		Count(&cnt).Error
	return cnt, err
}

func (r *ReservationRepository) CreatePassengers(ctx context.Context, details []domain.PassengerDetail) error {
	if len(details) == 0 {
		return nil
	}
	return translateError(r.conn(ctx).Create(&details).Error)
}

func (r *ReservationRepository) DeletePassengers(ctx context.Context, reservationID string) (int64, error) {
	tx := r.conn(ctx).Where("reservation_id = ?", reservationID).Delete(&domain.PassengerDetail{})
	return tx.RowsAffected, tx.Error
}

func (r *ReservationRepository) GetPassenger(ctx context.Context, id string) (*domain.PassengerDetail, error) {
	var p domain.PassengerDetail
	if err := r.conn(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

func (r *ReservationRepository) DeletePassenger(ctx context.Context, id string) error {
	tx := r.conn(ctx).Where("id = ?", id).Delete(&domain.PassengerDetail{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func withRelations(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Customer").
		Preload("Route").
		Preload("PaymentMethod").
		Preload("Vehicle").
		Preload("Driver").
		Preload("Passengers", func(db *gorm.DB) *gorm.DB {
			return db.Order("passenger_details.created_at ASC, passenger_details.id ASC")
		})
}
