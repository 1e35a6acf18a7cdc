package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/fieldforge/fieldforge/internal/customer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (r *repo) FindByIDForCompany(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).
		First(&customer, "company_id = ? AND id = ?", companyID, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}
