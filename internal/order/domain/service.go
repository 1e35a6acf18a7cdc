package domain

import (
	"context"
	"errors"
	"time"
)

type CreateOrderRequest struct {
	CompanyID   string
	CustomerID  string
	AddressLine string
	City        string
	State       string
	Zip         string
	Description string
	ScheduledAt time.Time
	Latitude    *float64
	Longitude   *float64
}

type AssignTechniciansRequest struct {
	CompanyID     string
	OrderID       string
	TechnicianIDs []string
}

type UpdateStatusRequest struct {
	CompanyID string
	OrderID   string
	NewStatus string
}

type RescheduleRequest struct {
	CompanyID string
	OrderID   string
	NewDate   time.Time
}

type CalendarRequest struct {
	CompanyID string
	From      time.Time
	To        time.Time
}

type AssignedOrdersRequest struct {
	CompanyID    string
	TechnicianID string
}

type Service interface {
	Create(ctx context.Context, req CreateOrderRequest) (ServiceOrder, error)
	AssignTechnicians(ctx context.Context, req AssignTechniciansRequest) (ServiceOrder, error)
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (ServiceOrder, error)
	Reschedule(ctx context.Context, req RescheduleRequest) (ServiceOrder, error)
	Calendar(ctx context.Context, req CalendarRequest) ([]ServiceOrder, error)
	AssignedOrders(ctx context.Context, req AssignedOrdersRequest) ([]ServiceOrder, error)
	Get(ctx context.Context, companyID, orderID string) (ServiceOrder, error)
}

var (
	ErrNotFound          = errors.New("order_not_found")
	ErrCustomerNotFound  = errors.New("customer_not_found")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidSchedule   = errors.New("invalid_schedule")
	ErrInvalidWindow     = errors.New("invalid_window")
	ErrMissingCaller     = errors.New("missing_caller")
)
