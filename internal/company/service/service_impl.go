package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fieldforge/fieldforge/internal/company/domain"
	"github.com/fieldforge/fieldforge/internal/company/invitetoken"
	"github.com/fieldforge/fieldforge/pkg/tenantctx"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("company.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterCompanyRequest) (domain.RegisterCompanyResponse, error) {
	caller, ok := tenantctx.CallerFromContext(ctx)
	if !ok {
		return domain.RegisterCompanyResponse{}, domain.ErrMissingCaller
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.RegisterCompanyResponse{}, domain.ErrInvalidName
	}
	companyDomain := strings.ToLower(strings.TrimSpace(req.Domain))
	if companyDomain == "" {
		return domain.RegisterCompanyResponse{}, domain.ErrInvalidDomain
	}
	adminEmail := strings.ToLower(strings.TrimSpace(req.AdminEmail))
	at := strings.LastIndex(adminEmail, "@")
	if at <= 0 || at == len(adminEmail)-1 {
		return domain.RegisterCompanyResponse{}, domain.ErrInvalidEmail
	}
	if adminEmail[at+1:] != companyDomain {
		return domain.RegisterCompanyResponse{}, domain.ErrDomainMismatch
	}

	company := domain.Company{
		ID:        s.genID.Generate(),
		Name:      name,
		Domain:    companyDomain,
		Slug:      slug.Make(name),
		TenantID:  caller.TenantID,
		CreatedAt: time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertCompany(ctx, tx, &company); err != nil {
			return err
		}
		adminUserID := strings.TrimSpace(req.AdminUserID)
		if adminUserID == "" {
			return nil
		}
		return s.assignRoleTx(ctx, tx, company.ID, adminUserID, domain.RoleOrganizationAdmin)
	})
	if err != nil {
		return domain.RegisterCompanyResponse{}, err
	}

	s.log.Info("company registered",
		zap.String("company_id", company.ID.String()),
		zap.String("slug", company.Slug))

	return domain.RegisterCompanyResponse{Company: company}, nil
}

func (s *Service) AssignRole(ctx context.Context, req domain.AssignRoleRequest) (domain.UserRole, error) {
	companyID, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
	if err != nil {
		return domain.UserRole{}, domain.ErrInvalidID
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return domain.UserRole{}, domain.ErrInvalidID
	}

	var userRole domain.UserRole
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.assignRoleTx(ctx, tx, companyID, userID, req.RoleName); err != nil {
			return err
		}
		found, err := s.repo.FindUserRole(ctx, tx, companyID, userID)
		if err != nil {
			return err
		}
		userRole = *found
		return nil
	})
	if err != nil {
		return domain.UserRole{}, err
	}
	return userRole, nil
}

// assignRoleTx overwrites the user's role within the company; at most one
// role row exists per (company, user).
func (s *Service) assignRoleTx(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, userID, roleName string) error {
	role, err := s.repo.FindRoleByName(ctx, tx, roleName)
	if err != nil {
		return err
	}
	if role == nil {
		return domain.ErrRoleNotFound
	}

	existing, err := s.repo.FindUserRole(ctx, tx, companyID, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.RoleID = role.ID
		return s.repo.SaveUserRole(ctx, tx, existing)
	}

	return s.repo.SaveUserRole(ctx, tx, &domain.UserRole{
		ID:        s.genID.Generate(),
		CompanyID: companyID,
		UserID:    userID,
		RoleID:    role.ID,
	})
}

func (s *Service) InviteEmployee(ctx context.Context, req domain.InviteEmployeeRequest) (domain.InviteEmployeeResponse, error) {
	companyID, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
	if err != nil {
		return domain.InviteEmployeeResponse{}, domain.ErrInvalidID
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.InviteEmployeeResponse{}, domain.ErrInvalidEmail
	}

	role, err := s.repo.FindRoleByName(ctx, s.db, req.RoleName)
	if err != nil {
		return domain.InviteEmployeeResponse{}, err
	}
	if role == nil {
		return domain.InviteEmployeeResponse{}, domain.ErrRoleNotFound
	}

	token, err := invitetoken.Generate()
	if err != nil {
		return domain.InviteEmployeeResponse{}, err
	}
	tokenHash, err := invitetoken.Hash(token)
	if err != nil {
		return domain.InviteEmployeeResponse{}, err
	}

	invite := domain.EmployeeInvite{
		ID:        s.genID.Generate(),
		CompanyID: companyID,
		Email:     email,
		RoleName:  role.Name,
		TokenHash: tokenHash,
		Status:    domain.InviteStatusPending,
		SentAt:    time.Now().UTC(),
	}
	if err := s.repo.InsertInvite(ctx, s.db, &invite); err != nil {
		return domain.InviteEmployeeResponse{}, err
	}

	return domain.InviteEmployeeResponse{Invite: invite, Token: token}, nil
}

func (s *Service) AcceptInvite(ctx context.Context, req domain.AcceptInviteRequest) (domain.UserRole, error) {
	inviteID, err := snowflake.ParseString(strings.TrimSpace(req.InviteID))
	if err != nil {
		return domain.UserRole{}, domain.ErrInvalidID
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return domain.UserRole{}, domain.ErrInvalidID
	}

	invite, err := s.repo.FindInviteByID(ctx, s.db, inviteID)
	if err != nil {
		return domain.UserRole{}, err
	}
	if invite == nil {
		return domain.UserRole{}, domain.ErrNotFound
	}
	if invite.Status != domain.InviteStatusPending {
		return domain.UserRole{}, domain.ErrInviteNotOpen
	}
	if !invitetoken.Verify(req.Token, invite.TokenHash) {
		return domain.UserRole{}, domain.ErrInvalidToken
	}

	var userRole domain.UserRole
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.assignRoleTx(ctx, tx, invite.CompanyID, userID, invite.RoleName); err != nil {
			return err
		}
		if err := s.repo.UpdateInviteStatus(ctx, tx, invite.ID, domain.InviteStatusAccepted); err != nil {
			return err
		}
		found, err := s.repo.FindUserRole(ctx, tx, invite.CompanyID, userID)
		if err != nil {
			return err
		}
		userRole = *found
		return nil
	})
	if err != nil {
		return domain.UserRole{}, err
	}
	return userRole, nil
}

func (s *Service) AdminUserIDs(ctx context.Context, companyID string) ([]string, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(companyID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	role, err := s.repo.FindRoleByName(ctx, s.db, domain.RoleOrganizationAdmin)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, domain.ErrRoleNotFound
	}

	userRoles, err := s.repo.ListUserRolesByRole(ctx, s.db, id, role.ID)
	if err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(userRoles))
	for _, userRole := range userRoles {
		userIDs = append(userIDs, userRole.UserID)
	}
	return userIDs, nil
}

func (s *Service) RoleNameForUser(ctx context.Context, companyID, userID string) (string, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(companyID))
	if err != nil {
		return "", domain.ErrInvalidID
	}

	userRole, err := s.repo.FindUserRole(ctx, s.db, id, strings.TrimSpace(userID))
	if err != nil {
		return "", err
	}
	if userRole == nil {
		return "", nil
	}

	var role domain.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", userRole.RoleID).Error; err != nil {
		return "", err
	}
	return role.Name, nil
}
