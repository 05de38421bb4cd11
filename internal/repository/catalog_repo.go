package repository

import (
	"context"

	"charterdesk/internal/domain"

	"gorm.io/gorm"
)

// CatalogRepository answers read-only lookups for the records a reservation
// references. It never writes.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	var c domain.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translateError(err)
	}
	return &c, nil
}

func (r *CatalogRepository) GetRoute(ctx context.Context, id string) (*domain.Route, error) {
	var route domain.Route
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&route).Error; err != nil {
		return nil, translateError(err)
	}
	return &route, nil
}

func (r *CatalogRepository) GetPaymentMethod(ctx context.Context, id string) (*domain.PaymentMethod, error) {
	var pm domain.PaymentMethod
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pm).Error; err != nil {
		return nil, translateError(err)
	}
	return &pm, nil
}

func (r *CatalogRepository) GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	var v domain.Vehicle
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, translateError(err)
	}
	return &v, nil
}

func (r *CatalogRepository) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	var d domain.Driver
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, translateError(err)
	}
	return &d, nil
}
