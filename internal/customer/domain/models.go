package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Customer struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;index" json:"company_id"`
	Name      string       `gorm:"not null" json:"name"`
	Email     string       `gorm:"not null" json:"email"`
	Phone     string       `gorm:"not null" json:"phone"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Customer) TableName() string { return "customers" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	// FindByIDForCompany returns nil when the customer does not exist or
	// belongs to a different company.
	FindByIDForCompany(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*Customer, error)
}
