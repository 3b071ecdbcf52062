package repository

import (
	"context"
	"time"

	"teranga/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockMovementFilter defines filters for listing stock movements.
type StockMovementFilter struct {
	IngredientID *uuid.UUID
	Reason       string
	ReferenceID  *uuid.UUID
	Since        *time.Time
	Page         int
	Limit        int
}

type StockMovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	List(ctx context.Context, filter StockMovementFilter) ([]model.StockMovement, int64, error)
	// ListByReferenceTx returns every movement tied to an order or request.
	ListByReferenceTx(tx *gorm.DB, referenceID uuid.UUID, reason string) ([]model.StockMovement, error)
	// SumForIngredient returns the net delta of one ingredient's movements.
	SumForIngredient(ctx context.Context, ingredientID uuid.UUID) (decimal.Decimal, error)
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockMovementRepo) List(ctx context.Context, filter StockMovementFilter) ([]model.StockMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockMovement{})
	if filter.IngredientID != nil {
		q = q.Where("ingredient_id = ?", *filter.IngredientID)
	}
	if filter.Reason != "" {
		q = q.Where("reason = ?", filter.Reason)
	}
	if filter.ReferenceID != nil {
		q = q.Where("reference_id = ?", *filter.ReferenceID)
	}
	if filter.Since != nil {
		q = q.Where("created_at >= ?", *filter.Since)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := pageBounds(filter.Page, filter.Limit)
	var movements []model.StockMovement
	err := q.Preload("Ingredient").Order("created_at DESC").Offset(offset).Limit(limit).Find(&movements).Error
	return movements, total, err
}

func (r *stockMovementRepo) ListByReferenceTx(tx *gorm.DB, referenceID uuid.UUID, reason string) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := tx.Where("reference_id = ? AND reason = ?", referenceID, reason).
		Order("created_at ASC").Find(&movements).Error
	return movements, err
}

func (r *stockMovementRepo) SumForIngredient(ctx context.Context, ingredientID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Select("COALESCE(SUM(delta), 0)").
		Where("ingredient_id = ?", ingredientID).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
