package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *ServiceOrder) error
	// FindByIDForCompany returns nil when the order does not exist or
	// belongs to a different company.
	FindByIDForCompany(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*ServiceOrder, error)
	// UpdateStatusCAS moves the order from one exact status to another
	// and reports whether this call won the write. A false return means
	// the stored status no longer matched from.
	UpdateStatusCAS(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to Status, at time.Time) (bool, error)
	// UpdateScheduleCAS moves scheduled_at while the order still holds
	// one of the given statuses.
	UpdateScheduleCAS(ctx context.Context, db *gorm.DB, id snowflake.ID, allowed []Status, newDate, at time.Time) (bool, error)
	// ReplaceAssignments swaps the full assignment set in one transaction.
	ReplaceAssignments(ctx context.Context, db *gorm.DB, orderID snowflake.ID, assignments []Assignment) error
	ListAssignments(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]Assignment, error)
	// ListByWindow returns the company's orders scheduled inside
	// [from, to), earliest first.
	ListByWindow(ctx context.Context, db *gorm.DB, companyID snowflake.ID, from, to time.Time) ([]ServiceOrder, error)
	// ListAssignedToTechnician returns the company's non-terminal orders
	// assigned to the technician.
	ListAssignedToTechnician(ctx context.Context, db *gorm.DB, companyID snowflake.ID, technicianID string) ([]ServiceOrder, error)
}
