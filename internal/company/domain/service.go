package domain

import (
	"context"
	"errors"
)

type RegisterCompanyRequest struct {
	Name        string
	Domain      string
	AdminUserID string
	AdminEmail  string
}

type RegisterCompanyResponse struct {
	Company Company `json:"company"`
}

type AssignRoleRequest struct {
	CompanyID string
	UserID    string
	RoleName  string
}

type InviteEmployeeRequest struct {
	CompanyID string
	Email     string
	RoleName  string
}

// InviteEmployeeResponse carries the raw invite token exactly once; only
// its hash is persisted.
type InviteEmployeeResponse struct {
	Invite EmployeeInvite `json:"invite"`
	Token  string         `json:"token"`
}

type AcceptInviteRequest struct {
	InviteID string
	UserID   string
	Token    string
}

type Service interface {
	Register(ctx context.Context, req RegisterCompanyRequest) (RegisterCompanyResponse, error)
	AssignRole(ctx context.Context, req AssignRoleRequest) (UserRole, error)
	InviteEmployee(ctx context.Context, req InviteEmployeeRequest) (InviteEmployeeResponse, error)
	AcceptInvite(ctx context.Context, req AcceptInviteRequest) (UserRole, error)
	AdminUserIDs(ctx context.Context, companyID string) ([]string, error)
	RoleNameForUser(ctx context.Context, companyID, userID string) (string, error)
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrRoleNotFound   = errors.New("role_not_found")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidDomain  = errors.New("invalid_domain")
	ErrInvalidEmail   = errors.New("invalid_email")
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidToken   = errors.New("invalid_token")
	ErrInviteNotOpen  = errors.New("invite_not_open")
	ErrMissingCaller  = errors.New("missing_caller")
	ErrDomainMismatch = errors.New("email_domain_mismatch")
)
