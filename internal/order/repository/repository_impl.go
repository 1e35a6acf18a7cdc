package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fieldforge/fieldforge/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.ServiceOrder) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) FindByIDForCompany(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*domain.ServiceOrder, error) {
	var order domain.ServiceOrder
	err := db.WithContext(ctx).
		Preload("Assignments").
		First(&order, "company_id = ? AND id = ?", companyID, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatusCAS is the single-winner write: it only lands while the stored
// status still equals from, so one of two concurrent writers sees zero rows
// affected and loses.
func (r *repo) UpdateStatusCAS(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.Status, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.ServiceOrder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":       to,
			"last_updated": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) UpdateScheduleCAS(ctx context.Context, db *gorm.DB, id snowflake.ID, allowed []domain.Status, newDate, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.ServiceOrder{}).
		Where("id = ? AND status IN ?", id, allowed).
		Updates(map[string]any{
			"scheduled_at": newDate,
			"last_updated": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) ReplaceAssignments(ctx context.Context, db *gorm.DB, orderID snowflake.ID, assignments []domain.Assignment) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("service_order_id = ?", orderID).Delete(&domain.Assignment{}).Error; err != nil {
			return err
		}
		if len(assignments) == 0 {
			return nil
		}
		return tx.Create(&assignments).Error
	})
}

func (r *repo) ListAssignments(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.Assignment, error) {
	var assignments []domain.Assignment
	err := db.WithContext(ctx).
		Where("service_order_id = ?", orderID).
		Order("technician_user_id").
		Find(&assignments).Error
	return assignments, err
}

func (r *repo) ListByWindow(ctx context.Context, db *gorm.DB, companyID snowflake.ID, from, to time.Time) ([]domain.ServiceOrder, error) {
	var orders []domain.ServiceOrder
	err := db.WithContext(ctx).
		Preload("Assignments").
		Where("company_id = ? AND scheduled_at >= ? AND scheduled_at < ?", companyID, from, to).
		Order("scheduled_at").
		Find(&orders).Error
	return orders, err
}

func (r *repo) ListAssignedToTechnician(ctx context.Context, db *gorm.DB, companyID snowflake.ID, technicianID string) ([]domain.ServiceOrder, error) {
	var orders []domain.ServiceOrder
	err := db.WithContext(ctx).
		Preload("Assignments").
		Joins("JOIN service_order_technicians sot ON sot.service_order_id = service_orders.id").
		Where("service_orders.company_id = ? AND sot.technician_user_id = ?", companyID, technicianID).
		Where("service_orders.status NOT IN ?", []domain.Status{domain.StatusCompleted, domain.StatusCancelled}).
		Order("service_orders.scheduled_at").
		Find(&orders).Error
	return orders, err
}
