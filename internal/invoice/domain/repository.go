package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// InsertWithItems writes the invoice and its line items in one
	// transaction. A duplicate service order surfaces as a duplicate key
	// error from the unique index.
	InsertWithItems(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByServiceOrder(ctx context.Context, db *gorm.DB, serviceOrderID snowflake.ID) (*Invoice, error)
	FindByIDForCompany(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*Invoice, error)
	ListByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]Invoice, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status) error
}
