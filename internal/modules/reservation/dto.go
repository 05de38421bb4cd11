package reservation

import "charterdesk/internal/domain"

type PassengerInput struct {
	PassengerName  string `json:"passenger_name" validate:"required,max=150"`
	DocumentType   string `json:"document_type" validate:"required,max=30"`
	DocumentNumber string `json:"document_number" validate:"required,max=50"`
	Age            int    `json:"age" validate:"required,gt=0"`
}

type CreateReservationRequest struct {
	CustomerID              string           `json:"customer_id" validate:"required,uuid"`
	RouteID                 string           `json:"route_id" validate:"required,uuid"`
	PaymentMethodID         string           `json:"payment_method_id" validate:"required,uuid"`
	VehicleID               *string          `json:"vehicle_id" validate:"omitempty,uuid"`
	DriverID                *string          `json:"driver_id" validate:"omitempty,uuid"`
	Date                    string           `json:"date" validate:"required,datetime=2006-01-02"`
	DepartureTime           string           `json:"departure_time" validate:"omitempty,datetime=15:04"`
	RequestedPassengerCount int              `json:"requested_passenger_count" validate:"required,gt=0"`
	TotalPrice              *float64         `json:"total_price" validate:"omitempty,gte=0"`
	Notes                   string           `json:"notes" validate:"max=2000"`
	Details                 []PassengerInput `json:"details" validate:"omitempty,dive"`
}

// UpdateReservationRequest is a partial update: nil fields keep their stored
// value. A non-nil Details replaces the whole manifest, an empty list clears it.
type UpdateReservationRequest struct {
	CustomerID              *string           `json:"customer_id" validate:"omitempty,uuid"`
	RouteID                 *string           `json:"route_id" validate:"omitempty,uuid"`
	PaymentMethodID         *string           `json:"payment_method_id" validate:"omitempty,uuid"`
	VehicleID               *string           `json:"vehicle_id" validate:"omitempty,uuid"`
	DriverID                *string           `json:"driver_id" validate:"omitempty,uuid"`
	Date                    *string           `json:"date" validate:"omitempty,datetime=2006-01-02"`
	DepartureTime           *string           `json:"departure_time" validate:"omitempty,datetime=15:04"`
	RequestedPassengerCount *int              `json:"requested_passenger_count" validate:"omitempty,gt=0"`
	TotalPrice              *float64          `json:"total_price" validate:"omitempty,gte=0"`
	Status                  *string           `json:"status" validate:"omitempty,oneof=pending confirmed in_progress completed cancelled"`
	Notes                   *string           `json:"notes" validate:"omitempty,max=2000"`
	Details                 *[]PassengerInput `json:"details"`
}

type AssignResourcesRequest struct {
	VehicleID string `json:"vehicle_id" validate:"required,uuid"`
	DriverID  string `json:"driver_id" validate:"required,uuid"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AddPassengerRequest takes either an existing customer, whose name and
// document are copied, or an inline passenger record. Age overrides the age
// derived from the customer's birth date.
type AddPassengerRequest struct {
	CustomerID *string         `json:"customer_id" validate:"omitempty,uuid"`
	Age        *int            `json:"age" validate:"omitempty,gt=0"`
	Passenger  *PassengerInput `json:"passenger"`
}

type ListQuery struct {
	Status     string `form:"status"`
	CustomerID string `form:"customer_id"`
	VehicleID  string `form:"vehicle_id"`
	DriverID   string `form:"driver_id"`
	DateFrom   string `form:"date_from"`
	DateTo     string `form:"date_to"`
	Search     string `form:"search"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

type ListResult struct {
	Items      []domain.Reservation `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

type AvailabilityResult struct {
	Kind       ResourceKind `json:"kind"`
	ResourceID string       `json:"resource_id"`
	Date       string       `json:"date"`
	Available  bool         `json:"available"`
}
