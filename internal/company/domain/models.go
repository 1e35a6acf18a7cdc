// Package domain contains persistence models for companies, roles and invites.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Role names seeded by migration. Roles are always resolved by name, never
// by a positional identifier.
const (
	RoleOrganizationAdmin = "OrganizationAdmin"
	RoleTechnician        = "Technician"
	RoleBiller            = "Biller"
)

// Company is the organizational unit owning customers, service orders and
// user roles. TenantID scopes the company to one identity realm; child
// entities inherit the tenant through their company.
type Company struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Domain    string       `gorm:"not null" json:"domain"`
	Slug      string       `gorm:"not null;uniqueIndex" json:"slug"`
	TenantID  string       `gorm:"not null;index" json:"tenant_id"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Company) TableName() string { return "companies" }

type Role struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	Name           string       `gorm:"not null" json:"name"`
	NormalizedName string       `gorm:"not null;uniqueIndex" json:"-"`
}

func (Role) TableName() string { return "roles" }

// UserRole binds a user identity to a role within a company. At most one
// row exists per (company, user); re-assignment overwrites.
type UserRole struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;uniqueIndex:ux_user_roles_company_user" json:"company_id"`
	UserID    string       `gorm:"not null;uniqueIndex:ux_user_roles_company_user" json:"user_id"`
	RoleID    snowflake.ID `gorm:"not null" json:"role_id"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (UserRole) TableName() string { return "user_roles" }

// InviteStatus values for EmployeeInvite.
const (
	InviteStatusPending  = "Pending"
	InviteStatusAccepted = "Accepted"
	InviteStatusRevoked  = "Revoked"
)

// EmployeeInvite records an outstanding invitation. Only the argon2id hash
// of the invite token is stored.
type EmployeeInvite struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;index" json:"company_id"`
	Email     string       `gorm:"not null" json:"email"`
	RoleName  string       `gorm:"not null" json:"role_name"`
	TokenHash string       `gorm:"not null" json:"-"`
	Status    string       `gorm:"not null;default:'Pending'" json:"status"`
	SentAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"sent_at"`
}

func (EmployeeInvite) TableName() string { return "employee_invites" }
