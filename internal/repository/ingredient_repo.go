package repository

import (
	"context"
	"errors"
	"time"

	"teranga/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IngredientRepository interface {
	Create(ctx context.Context, i *model.Ingredient) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Ingredient, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Ingredient, error)
	List(ctx context.Context, includeInactive bool) ([]model.Ingredient, error)
	ListLow(ctx context.Context) ([]model.Ingredient, error)
	// Update writes descriptive fields only; quantity moves through ApplyDeltaTx.
	Update(ctx context.Context, i *model.Ingredient) error

	// ApplyDeltaTx adds delta to the ingredient quantity in one conditional
	// UPDATE. Unless allowNegative is set, ErrNegativeStock is returned and
	// nothing changes when the result would drop below zero.
	ApplyDeltaTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal, allowNegative bool) (before, after decimal.Decimal, err error)
}

type ingredientRepo struct{ db *gorm.DB }

func NewIngredientRepository(db *gorm.DB) IngredientRepository { return &ingredientRepo{db: db} }

func (r *ingredientRepo) Create(ctx context.Context, i *model.Ingredient) error {
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *ingredientRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Ingredient, error) {
	var i model.Ingredient
	err := r.db.WithContext(ctx).First(&i, "id = ?", id).Error
	return &i, err
}

func (r *ingredientRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Ingredient, error) {
	var out []model.Ingredient
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *ingredientRepo) List(ctx context.Context, includeInactive bool) ([]model.Ingredient, error) {
	var out []model.Ingredient
	q := r.db.WithContext(ctx)
	if !includeInactive {
		q = q.Where("active = true")
	}
	err := q.Order("name").Find(&out).Error
	return out, err
}

func (r *ingredientRepo) ListLow(ctx context.Context) ([]model.Ingredient, error) {
	var out []model.Ingredient
	err := r.db.WithContext(ctx).
		Where("active = true AND quantity <= reorder_threshold").
		Order("name").Find(&out).Error
	return out, err
}

func (r *ingredientRepo) Update(ctx context.Context, i *model.Ingredient) error {
	return r.db.WithContext(ctx).Model(&model.Ingredient{}).Where("id = ?", i.ID).
		Updates(map[string]interface{}{
			"name":              i.Name,
			"unit":              i.Unit,
			"reorder_threshold": i.ReorderThreshold,
			"active":            i.Active,
			"updated_at":        time.Now(),
		}).Error
}

func (r *ingredientRepo) ApplyDeltaTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal, allowNegative bool) (decimal.Decimal, decimal.Decimal, error) {
	var updated model.Ingredient
	q := tx.Model(&updated).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "quantity"}}}).
		Where("id = ?", id)
	if !allowNegative {
		q = q.Where("quantity + ? >= 0", delta)
	}
	res := q.Updates(map[string]interface{}{
		"quantity":   gorm.Expr("quantity + ?", delta),
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return decimal.Zero, decimal.Zero, res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&model.Ingredient{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		if count == 0 {
			return decimal.Zero, decimal.Zero, gorm.ErrRecordNotFound
		}
		return decimal.Zero, decimal.Zero, ErrNegativeStock
	}
	after := updated.Quantity
	return after.Sub(delta), after, nil
}

// IsNotFound reports whether err is gorm's record-not-found.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
