package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationStatus string

const (
	ReservationPending    ReservationStatus = "pending"
	ReservationConfirmed  ReservationStatus = "confirmed"
	ReservationInProgress ReservationStatus = "in_progress"
	ReservationCompleted  ReservationStatus = "completed"
	ReservationCancelled  ReservationStatus = "cancelled"
)

// Valid reports whether s belongs to the known status vocabulary.
// Transitions between statuses are not restricted.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationInProgress,
		ReservationCompleted, ReservationCancelled:
		return true
	}
	return false
}

// ServiceDayLayout is the calendar-day format stored in reservations.service_day.
const ServiceDayLayout = "2006-01-02"

// Reservation is a single-day private-charter booking.
type Reservation struct {
	ID                      string            `json:"id" gorm:"type:varchar(36);primaryKey"`
	CustomerID              string            `json:"customer_id" gorm:"type:varchar(36);not null;index"`
	RouteID                 string            `json:"route_id" gorm:"type:varchar(36);not null;index"`
	PaymentMethodID         string            `json:"payment_method_id" gorm:"type:varchar(36);not null"`
	VehicleID               *string           `json:"vehicle_id,omitempty" gorm:"type:varchar(36)"`
	DriverID                *string           `json:"driver_id,omitempty" gorm:"type:varchar(36)"`
	Date                    time.Time         `json:"date" gorm:"not null;index"`
	ServiceDay              string            `json:"service_day" gorm:"type:varchar(10);not null"`
	DepartureTime           string            `json:"departure_time" gorm:"type:varchar(5)"`
	RequestedPassengerCount int               `json:"requested_passenger_count" gorm:"not null"`
	TotalPrice              *float64          `json:"total_price,omitempty"`
	Status                  ReservationStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	Notes                   string            `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt               time.Time         `json:"created_at"`
	UpdatedAt               time.Time         `json:"updated_at"`

	Customer      *Customer         `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Route         *Route            `json:"route,omitempty" gorm:"foreignKey:RouteID"`
	PaymentMethod *PaymentMethod    `json:"payment_method,omitempty" gorm:"foreignKey:PaymentMethodID"`
	Vehicle       *Vehicle          `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
	Driver        *Driver           `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	Passengers    []PassengerDetail `json:"passengers" gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE"`
}

func (Reservation) TableName() string { return "reservations" }

func (r *Reservation) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// PassengerDetail is one manifest entry owned by a Reservation.
type PassengerDetail struct {
	ID             string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	ReservationID  string    `json:"reservation_id" gorm:"type:varchar(36);not null;index"`
	PassengerName  string    `json:"passenger_name" gorm:"size:150;not null"`
	DocumentType   string    `json:"document_type" gorm:"size:30;not null"`
	DocumentNumber string    `json:"document_number" gorm:"size:50;not null"`
	Age            int       `json:"age" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at"`
}

func (PassengerDetail) TableName() string { return "passenger_details" }

func (p *PassengerDetail) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
