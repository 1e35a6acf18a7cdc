// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status represents invoice lifecycle states.
type Status string

const (
	StatusPending Status = "Pending"
	StatusSent    Status = "Sent"
	StatusPaid    Status = "Paid"
)

// Invoice is created at most once per service order; the unique index on
// service_order_id is the guarantee.
type Invoice struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID      snowflake.ID `gorm:"not null;index" json:"company_id"`
	CustomerID     snowflake.ID `gorm:"not null" json:"customer_id"`
	ServiceOrderID snowflake.ID `gorm:"not null;uniqueIndex:ux_invoices_service_order" json:"service_order_id"`
	AmountDueCents int64        `gorm:"not null" json:"amount_due_cents"`
	Currency       string       `gorm:"not null;default:USD" json:"currency"`
	Status         Status       `gorm:"not null;default:Pending" json:"status"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	DueAt          time.Time    `gorm:"not null" json:"due_at"`

	LineItems []LineItem `gorm:"foreignKey:InvoiceID" json:"line_items,omitempty"`
}

func (Invoice) TableName() string { return "invoices" }

// LineItem is one line on an invoice. Line totals must sum to the invoice
// amount due.
type LineItem struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID      snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	Description    string       `json:"description"`
	Quantity       int64        `gorm:"not null" json:"quantity"`
	UnitPriceCents int64        `gorm:"not null" json:"unit_price_cents"`
	LineTotalCents int64        `gorm:"not null" json:"line_total_cents"`
}

func (LineItem) TableName() string { return "invoice_line_items" }
