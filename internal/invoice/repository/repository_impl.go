package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/fieldforge/fieldforge/internal/invoice/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertWithItems(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(invoice).Error
	})
}

func (r *repo) FindByServiceOrder(ctx context.Context, db *gorm.DB, serviceOrderID snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).
		Preload("LineItems").
		First(&invoice, "service_order_id = ?", serviceOrderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) FindByIDForCompany(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).
		Preload("LineItems").
		First(&invoice, "company_id = ? AND id = ?", companyID, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) ListByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := db.WithContext(ctx).
		Preload("LineItems").
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&invoices).Error
	return invoices, err
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", id).
		Update("status", status).Error
}
