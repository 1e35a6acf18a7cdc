package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	companydomain "github.com/fieldforge/fieldforge/internal/company/domain"
	companyrepo "github.com/fieldforge/fieldforge/internal/company/repository"
	dbpkg "github.com/fieldforge/fieldforge/pkg/db"
	"github.com/fieldforge/fieldforge/pkg/tenantctx"
)

func setupGuard(t *testing.T) (*Guard, *snowflake.Node, companydomain.Company) {
	t.Helper()

	gdb, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(&companydomain.Company{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(4)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	company := companydomain.Company{
		ID:       node.Generate(),
		Name:     "Acme Field Services",
		Domain:   "acme.test",
		Slug:     "acme-field-services",
		TenantID: "tenant-a",
	}
	if err := gdb.Create(&company).Error; err != nil {
		t.Fatalf("seed company: %v", err)
	}

	guard := NewGuard(Params{DB: gdb, Log: zap.NewNop(), Repo: companyrepo.Provide()})
	return guard, node, company
}

func callerCtx(tenantID string) context.Context {
	return tenantctx.WithCaller(context.Background(), tenantctx.Caller{TenantID: tenantID, UserID: "u1"})
}

func TestAuthorizeSameTenant(t *testing.T) {
	guard, _, company := setupGuard(t)

	got, err := guard.Authorize(callerCtx("tenant-a"), company.ID)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if got.ID != company.ID {
		t.Fatalf("wrong company returned: %+v", got)
	}
}

func TestAuthorizeForeignTenant(t *testing.T) {
	guard, _, company := setupGuard(t)

	_, err := guard.Authorize(callerCtx("tenant-b"), company.ID)
	if !errors.Is(err, ErrTenantMismatch) {
		t.Fatalf("expected ErrTenantMismatch, got %v", err)
	}
}

func TestAuthorizeUnknownCompany(t *testing.T) {
	guard, node, _ := setupGuard(t)

	_, err := guard.Authorize(callerCtx("tenant-a"), node.Generate())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAuthorizeMissingCaller(t *testing.T) {
	guard, _, company := setupGuard(t)

	_, err := guard.Authorize(context.Background(), company.ID)
	if !errors.Is(err, ErrMissingCaller) {
		t.Fatalf("expected ErrMissingCaller, got %v", err)
	}

	_, err = guard.Authorize(callerCtx("   "), company.ID)
	if !errors.Is(err, ErrMissingCaller) {
		t.Fatalf("blank tenant: expected ErrMissingCaller, got %v", err)
	}
}
