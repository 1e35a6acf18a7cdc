package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fieldforge/fieldforge/internal/company/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertCompany(ctx context.Context, db *gorm.DB, company *domain.Company) error {
	return db.WithContext(ctx).Create(company).Error
}

func (r *repo) FindCompanyByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Company, error) {
	var company domain.Company
	err := db.WithContext(ctx).First(&company, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *repo) FindRoleByName(ctx context.Context, db *gorm.DB, name string) (*domain.Role, error) {
	var role domain.Role
	err := db.WithContext(ctx).
		First(&role, "normalized_name = ?", strings.ToUpper(strings.TrimSpace(name))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *repo) FindUserRole(ctx context.Context, db *gorm.DB, companyID snowflake.ID, userID string) (*domain.UserRole, error) {
	var userRole domain.UserRole
	err := db.WithContext(ctx).
		First(&userRole, "company_id = ? AND user_id = ?", companyID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &userRole, nil
}

func (r *repo) SaveUserRole(ctx context.Context, db *gorm.DB, userRole *domain.UserRole) error {
	userRole.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Save(userRole).Error
}

func (r *repo) ListUserRolesByRole(ctx context.Context, db *gorm.DB, companyID, roleID snowflake.ID) ([]domain.UserRole, error) {
	var userRoles []domain.UserRole
	err := db.WithContext(ctx).
		Where("company_id = ? AND role_id = ?", companyID, roleID).
		Order("user_id").
		Find(&userRoles).Error
	if err != nil {
		return nil, err
	}
	return userRoles, nil
}

func (r *repo) InsertInvite(ctx context.Context, db *gorm.DB, invite *domain.EmployeeInvite) error {
	return db.WithContext(ctx).Create(invite).Error
}

func (r *repo) FindInviteByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.EmployeeInvite, error) {
	var invite domain.EmployeeInvite
	err := db.WithContext(ctx).First(&invite, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *repo) UpdateInviteStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string) error {
	return db.WithContext(ctx).
		Model(&domain.EmployeeInvite{}).
		Where("id = ?", id).
		Update("status", status).Error
}
