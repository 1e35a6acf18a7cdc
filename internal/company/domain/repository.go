package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertCompany(ctx context.Context, db *gorm.DB, company *Company) error
	FindCompanyByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Company, error)

	FindRoleByName(ctx context.Context, db *gorm.DB, name string) (*Role, error)
	FindUserRole(ctx context.Context, db *gorm.DB, companyID snowflake.ID, userID string) (*UserRole, error)
	SaveUserRole(ctx context.Context, db *gorm.DB, userRole *UserRole) error
	ListUserRolesByRole(ctx context.Context, db *gorm.DB, companyID, roleID snowflake.ID) ([]UserRole, error)

	InsertInvite(ctx context.Context, db *gorm.DB, invite *EmployeeInvite) error
	FindInviteByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*EmployeeInvite, error)
	UpdateInviteStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string) error
}
