package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/fieldforge/fieldforge/internal/authz"
	companydomain "github.com/fieldforge/fieldforge/internal/company/domain"
	customerdomain "github.com/fieldforge/fieldforge/internal/customer/domain"
	"github.com/fieldforge/fieldforge/internal/profile"
	"github.com/fieldforge/fieldforge/pkg/tenantctx"
)

type registerCompanyRequest struct {
	Name       string `json:"name"`
	Domain     string `json:"domain"`
	AdminEmail string `json:"admin_email"`
}

func (s *Server) RegisterCompany(c *gin.Context) {
	var req registerCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	caller, _ := tenantctx.CallerFromContext(c.Request.Context())
	resp, err := s.companySvc.Register(c.Request.Context(), companydomain.RegisterCompanyRequest{
		Name:        req.Name,
		Domain:      req.Domain,
		AdminUserID: caller.UserID,
		AdminEmail:  req.AdminEmail,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type assignRoleRequest struct {
	UserID   string `json:"user_id"`
	RoleName string `json:"role_name"`
}

func (s *Server) AssignRole(c *gin.Context) {
	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	companyID := c.Param("id")

	if err := s.requireAdmin(c, companyID); err != nil {
		AbortWithError(c, err)
		return
	}

	userRole, err := s.companySvc.AssignRole(c.Request.Context(), companydomain.AssignRoleRequest{
		CompanyID: companyID,
		UserID:    req.UserID,
		RoleName:  req.RoleName,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": userRole})
}

type inviteEmployeeRequest struct {
	Email    string `json:"email"`
	RoleName string `json:"role_name"`
}

func (s *Server) InviteEmployee(c *gin.Context) {
	var req inviteEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	companyID := c.Param("id")

	if err := s.requireAdmin(c, companyID); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.companySvc.InviteEmployee(c.Request.Context(), companydomain.InviteEmployeeRequest{
		CompanyID: companyID,
		Email:     req.Email,
		RoleName:  req.RoleName,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type acceptInviteRequest struct {
	Token string `json:"token"`
}

func (s *Server) AcceptInvite(c *gin.Context) {
	var req acceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	caller, _ := tenantctx.CallerFromContext(c.Request.Context())
	userRole, err := s.companySvc.AcceptInvite(c.Request.Context(), companydomain.AcceptInviteRequest{
		InviteID: c.Param("id"),
		UserID:   caller.UserID,
		Token:    req.Token,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": userRole})
}

type createCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	companyIDParam := c.Param("id")

	if err := s.requireAdmin(c, companyIDParam); err != nil {
		AbortWithError(c, err)
		return
	}
	companyID, err := snowflake.ParseString(companyIDParam)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	customer := customerdomain.Customer{
		ID:        s.genID.Generate(),
		CompanyID: companyID,
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.customers.Insert(c.Request.Context(), s.db, &customer); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": customer})
}

type upsertProfileRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

func (s *Server) UpsertProfile(c *gin.Context) {
	var req upsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	caller, _ := tenantctx.CallerFromContext(c.Request.Context())
	p := profile.Profile{
		UserID:      caller.UserID,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       strings.TrimSpace(req.Phone),
	}
	if err := s.profiles.Upsert(c.Request.Context(), p); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": p})
}

// requireAdmin runs the tenant guard and verifies the caller administers
// the company.
func (s *Server) requireAdmin(c *gin.Context, companyID string) error {
	caller, _ := tenantctx.CallerFromContext(c.Request.Context())
	id, err := snowflake.ParseString(strings.TrimSpace(companyID))
	if err != nil {
		return ErrInvalidRequest
	}
	if _, err := s.guard.Authorize(c.Request.Context(), id); err != nil {
		return err
	}
	role, err := s.companySvc.RoleNameForUser(c.Request.Context(), companyID, caller.UserID)
	if err != nil {
		return err
	}
	return authz.RequireAdmin(caller, role)
}
