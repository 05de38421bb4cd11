package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Catalog records are owned by other parts of the platform. Reservations only
// reference them by id and read them during validation.

type Customer struct {
	ID             string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	FullName       string     `json:"full_name" gorm:"size:150;not null"`
	Email          string     `json:"email,omitempty" gorm:"size:150"`
	Phone          string     `json:"phone,omitempty" gorm:"size:30"`
	DocumentType   string     `json:"document_type" gorm:"size:30"`
	DocumentNumber string     `json:"document_number" gorm:"size:50"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (Customer) TableName() string { return "customers" }

func (c *Customer) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type Route struct {
	ID          string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name        string    `json:"name" gorm:"size:150;not null"`
	Origin      string    `json:"origin" gorm:"size:150"`
	Destination string    `json:"destination" gorm:"size:150"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Route) TableName() string { return "routes" }

func (r *Route) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

type PaymentMethod struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (PaymentMethod) TableName() string { return "payment_methods" }

func (p *PaymentMethod) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type Vehicle struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Plate     string    `json:"plate" gorm:"size:20;not null"`
	Model     string    `json:"model" gorm:"size:100"`
	Capacity  int       `json:"capacity" gorm:"not null"`
	Active    bool      `json:"active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Vehicle) TableName() string { return "vehicles" }

func (v *Vehicle) BeforeCreate(_ *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

type Driver struct {
	ID            string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	FullName      string    `json:"full_name" gorm:"size:150;not null"`
	LicenseNumber string    `json:"license_number" gorm:"size:50"`
	Phone         string    `json:"phone,omitempty" gorm:"size:30"`
	Active        bool      `json:"active" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Driver) TableName() string { return "drivers" }

func (d *Driver) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
