package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ServiceOrder struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID   snowflake.ID `gorm:"not null;index:ix_service_orders_company_scheduled,priority:1" json:"company_id"`
	CustomerID  snowflake.ID `gorm:"not null" json:"customer_id"`
	AddressLine string       `gorm:"not null" json:"address_line"`
	City        string       `gorm:"not null" json:"city"`
	State       string       `gorm:"not null" json:"state"`
	Zip         string       `gorm:"not null" json:"zip"`
	Description string       `json:"description"`
	ScheduledAt time.Time    `gorm:"not null;index:ix_service_orders_company_scheduled,priority:2" json:"scheduled_at"`
	Status      Status       `gorm:"not null;default:Scheduled" json:"status"`
	Latitude    *float64     `json:"latitude,omitempty"`
	Longitude   *float64     `json:"longitude,omitempty"`
	LastUpdated time.Time    `gorm:"not null" json:"last_updated"`

	Assignments []Assignment `gorm:"foreignKey:OrderID" json:"assignments,omitempty"`
}

func (ServiceOrder) TableName() string { return "service_orders" }

// Assignment links an order to a technician identity. The set is replaced
// wholesale on re-assignment, never merged.
type Assignment struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID      snowflake.ID `gorm:"column:service_order_id;not null;uniqueIndex:ux_order_technician,priority:1" json:"order_id"`
	TechnicianID string       `gorm:"column:technician_user_id;not null;uniqueIndex:ux_order_technician,priority:2" json:"technician_id"`
}

func (Assignment) TableName() string { return "service_order_technicians" }
