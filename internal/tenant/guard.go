// Package tenant enforces the isolation boundary between tenant realms.
package tenant

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/fieldforge/fieldforge/internal/company/domain"
	"github.com/fieldforge/fieldforge/pkg/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the target company does not exist.
	ErrNotFound = errors.New("company_not_found")
	// ErrTenantMismatch is returned on a cross-tenant access attempt. The
	// HTTP layer renders it identically to ErrNotFound so callers cannot
	// probe for foreign companies; internally the two stay distinct for
	// logging.
	ErrTenantMismatch = errors.New("tenant_mismatch")
	// ErrMissingCaller is returned when no caller identity is on the context.
	ErrMissingCaller = errors.New("missing_caller")
)

// Guard resolves the caller's tenant and verifies a target company belongs
// to it. The check runs against storage on every call; caller identity is
// supplied fresh per request and is never cached.
type Guard struct {
	db   *gorm.DB
	log  *zap.Logger
	repo companydomain.Repository
}

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo companydomain.Repository
}

func NewGuard(p Params) *Guard {
	return &Guard{
		db:   p.DB,
		log:  p.Log.Named("tenant.guard"),
		repo: p.Repo,
	}
}

// Authorize loads the company and verifies it belongs to the caller's
// tenant. Every company-scoped operation must pass through here before
// reading or mutating anything.
func (g *Guard) Authorize(ctx context.Context, companyID snowflake.ID) (*companydomain.Company, error) {
	caller, ok := tenantctx.CallerFromContext(ctx)
	if !ok || strings.TrimSpace(caller.TenantID) == "" {
		return nil, ErrMissingCaller
	}

	company, err := g.repo.FindCompanyByID(ctx, g.db, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrNotFound
	}
	if company.TenantID != caller.TenantID {
		g.log.Warn("cross-tenant access denied",
			zap.String("company_id", companyID.String()),
			zap.String("caller_tenant", caller.TenantID),
			zap.String("company_tenant", company.TenantID))
		return nil, ErrTenantMismatch
	}
	return company, nil
}

// Module provides the guard.
var Module = fx.Module("tenant.guard",
	fx.Provide(NewGuard),
)
