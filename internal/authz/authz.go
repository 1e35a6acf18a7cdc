// Package authz holds the capability checks guarding lifecycle operations.
// Checks are plain functions over the caller identity and the caller's role
// within the target company; they return a denial error with a reason
// instead of consulting any declarative policy store.
package authz

import (
	"errors"
	"fmt"

	companydomain "github.com/fieldforge/fieldforge/internal/company/domain"
	"github.com/fieldforge/fieldforge/pkg/tenantctx"
)

// ErrDenied wraps every capability denial.
var ErrDenied = errors.New("permission_denied")

func denial(reason string) error {
	return fmt.Errorf("%w: %s", ErrDenied, reason)
}

// RequireRole checks that the caller holds one of the wanted roles in the
// target company.
func RequireRole(caller tenantctx.Caller, callerRole string, wanted ...string) error {
	if caller.UserID == "" {
		return denial("caller identity missing")
	}
	for _, role := range wanted {
		if callerRole == role {
			return nil
		}
	}
	return denial(fmt.Sprintf("requires one of %v", wanted))
}

// RequireAdmin allows only company administrators.
func RequireAdmin(caller tenantctx.Caller, callerRole string) error {
	return RequireRole(caller, callerRole, companydomain.RoleOrganizationAdmin)
}

// RequireTechnician allows technicians and administrators.
func RequireTechnician(caller tenantctx.Caller, callerRole string) error {
	return RequireRole(caller, callerRole, companydomain.RoleTechnician, companydomain.RoleOrganizationAdmin)
}

// RequireBiller allows billers and administrators.
func RequireBiller(caller tenantctx.Caller, callerRole string) error {
	return RequireRole(caller, callerRole, companydomain.RoleBiller, companydomain.RoleOrganizationAdmin)
}

// RequireSelf checks that the caller is asking about their own identity,
// used by the technician assignment listing.
func RequireSelf(caller tenantctx.Caller, userID string) error {
	if caller.UserID == "" {
		return denial("caller identity missing")
	}
	if caller.UserID != userID {
		return denial("can only request own assignments")
	}
	return nil
}
