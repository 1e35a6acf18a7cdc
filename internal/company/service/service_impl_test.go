package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fieldforge/fieldforge/internal/company/domain"
	companyrepo "github.com/fieldforge/fieldforge/internal/company/repository"
	dbpkg "github.com/fieldforge/fieldforge/pkg/db"
	"github.com/fieldforge/fieldforge/pkg/tenantctx"
)

func setupService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	gdb, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(&domain.Company{}, &domain.Role{}, &domain.UserRole{}, &domain.EmployeeInvite{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(5)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	for _, name := range []string{domain.RoleOrganizationAdmin, domain.RoleTechnician, domain.RoleBiller} {
		role := domain.Role{ID: node.Generate(), Name: name, NormalizedName: normalizeForTest(name)}
		if err := gdb.Create(&role).Error; err != nil {
			t.Fatalf("seed role %s: %v", name, err)
		}
	}

	svc := New(Params{DB: gdb, Log: zap.NewNop(), GenID: node, Repo: companyrepo.Provide()})
	return svc, gdb, node
}

func normalizeForTest(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}

func ctxWithTenant(tenantID string) context.Context {
	return tenantctx.WithCaller(context.Background(), tenantctx.Caller{TenantID: tenantID, UserID: "founder-1"})
}

func registerCompany(t *testing.T, svc domain.Service) domain.Company {
	t.Helper()
	resp, err := svc.Register(ctxWithTenant("tenant-a"), domain.RegisterCompanyRequest{
		Name:        "Acme Field Services",
		Domain:      "acme.test",
		AdminUserID: "founder-1",
		AdminEmail:  "founder@acme.test",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return resp.Company
}

func TestRegisterAssignsFounderAdmin(t *testing.T) {
	svc, _, _ := setupService(t)
	company := registerCompany(t, svc)

	if company.TenantID != "tenant-a" {
		t.Fatalf("tenant not taken from caller: %q", company.TenantID)
	}
	if company.Slug == "" {
		t.Fatal("slug not generated")
	}

	admins, err := svc.AdminUserIDs(context.Background(), company.ID.String())
	if err != nil {
		t.Fatalf("admin user ids: %v", err)
	}
	if len(admins) != 1 || admins[0] != "founder-1" {
		t.Fatalf("expected founder as sole admin, got %v", admins)
	}
}

func TestRegisterRejectsMismatchedAdminEmail(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.Register(ctxWithTenant("tenant-a"), domain.RegisterCompanyRequest{
		Name:        "Acme Field Services",
		Domain:      "acme.test",
		AdminUserID: "founder-1",
		AdminEmail:  "founder@elsewhere.test",
	})
	if !errors.Is(err, domain.ErrDomainMismatch) {
		t.Fatalf("expected ErrDomainMismatch, got %v", err)
	}
}

func TestAssignRoleOverwritesNotDuplicates(t *testing.T) {
	svc, gdb, _ := setupService(t)
	company := registerCompany(t, svc)

	first, err := svc.AssignRole(context.Background(), domain.AssignRoleRequest{
		CompanyID: company.ID.String(),
		UserID:    "worker-1",
		RoleName:  domain.RoleTechnician,
	})
	if err != nil {
		t.Fatalf("assign technician: %v", err)
	}

	second, err := svc.AssignRole(context.Background(), domain.AssignRoleRequest{
		CompanyID: company.ID.String(),
		UserID:    "worker-1",
		RoleName:  domain.RoleBiller,
	})
	if err != nil {
		t.Fatalf("assign biller: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("role row replaced instead of updated: %v vs %v", first.ID, second.ID)
	}

	var count int64
	if err := gdb.Model(&domain.UserRole{}).Where("company_id = ? AND user_id = ?", company.ID, "worker-1").Count(&count).Error; err != nil {
		t.Fatalf("count user roles: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one role row, got %d", count)
	}

	name, err := svc.RoleNameForUser(context.Background(), company.ID.String(), "worker-1")
	if err != nil {
		t.Fatalf("role name for user: %v", err)
	}
	if name != domain.RoleBiller {
		t.Fatalf("role = %q, want %q", name, domain.RoleBiller)
	}
}

func TestAssignRoleUnknownRole(t *testing.T) {
	svc, _, _ := setupService(t)
	company := registerCompany(t, svc)

	_, err := svc.AssignRole(context.Background(), domain.AssignRoleRequest{
		CompanyID: company.ID.String(),
		UserID:    "worker-1",
		RoleName:  "Janitor",
	})
	if !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestRoleNameForUserWithoutRole(t *testing.T) {
	svc, _, _ := setupService(t)
	company := registerCompany(t, svc)

	name, err := svc.RoleNameForUser(context.Background(), company.ID.String(), "stranger")
	if err != nil {
		t.Fatalf("role name for user: %v", err)
	}
	if name != "" {
		t.Fatalf("expected empty role, got %q", name)
	}
}

func TestInviteAcceptFlow(t *testing.T) {
	svc, _, _ := setupService(t)
	company := registerCompany(t, svc)

	resp, err := svc.InviteEmployee(context.Background(), domain.InviteEmployeeRequest{
		CompanyID: company.ID.String(),
		Email:     "new.tech@acme.test",
		RoleName:  domain.RoleTechnician,
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("invite token not returned")
	}
	if resp.Invite.TokenHash == resp.Token {
		t.Fatal("raw token stored instead of hash")
	}
	if resp.Invite.Status != domain.InviteStatusPending {
		t.Fatalf("invite status = %q", resp.Invite.Status)
	}

	userRole, err := svc.AcceptInvite(context.Background(), domain.AcceptInviteRequest{
		InviteID: resp.Invite.ID.String(),
		UserID:   "new-tech-1",
		Token:    resp.Token,
	})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if userRole.UserID != "new-tech-1" || userRole.CompanyID != company.ID {
		t.Fatalf("unexpected user role: %+v", userRole)
	}

	name, err := svc.RoleNameForUser(context.Background(), company.ID.String(), "new-tech-1")
	if err != nil {
		t.Fatalf("role name for user: %v", err)
	}
	if name != domain.RoleTechnician {
		t.Fatalf("role = %q, want %q", name, domain.RoleTechnician)
	}
}

func TestAcceptInviteWrongToken(t *testing.T) {
	svc, _, _ := setupService(t)
	company := registerCompany(t, svc)

	resp, err := svc.InviteEmployee(context.Background(), domain.InviteEmployeeRequest{
		CompanyID: company.ID.String(),
		Email:     "new.tech@acme.test",
		RoleName:  domain.RoleTechnician,
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	_, err = svc.AcceptInvite(context.Background(), domain.AcceptInviteRequest{
		InviteID: resp.Invite.ID.String(),
		UserID:   "new-tech-1",
		Token:    "not-the-token",
	})
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAcceptInviteOnlyOnce(t *testing.T) {
	svc, _, _ := setupService(t)
	company := registerCompany(t, svc)

	resp, err := svc.InviteEmployee(context.Background(), domain.InviteEmployeeRequest{
		CompanyID: company.ID.String(),
		Email:     "new.tech@acme.test",
		RoleName:  domain.RoleTechnician,
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	req := domain.AcceptInviteRequest{
		InviteID: resp.Invite.ID.String(),
		UserID:   "new-tech-1",
		Token:    resp.Token,
	}
	if _, err := svc.AcceptInvite(context.Background(), req); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	_, err = svc.AcceptInvite(context.Background(), req)
	if !errors.Is(err, domain.ErrInviteNotOpen) {
		t.Fatalf("expected ErrInviteNotOpen, got %v", err)
	}
}
