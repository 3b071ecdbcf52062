package repository

import (
	"context"

	"teranga/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IngredientRequestRepository interface {
	Create(ctx context.Context, r *model.IngredientRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.IngredientRequest, error)
	List(ctx context.Context, status string) ([]model.IngredientRequest, error)
	// TransitionTx applies updates only while the request is in one of from.
	TransitionTx(tx *gorm.DB, id uuid.UUID, from []string, updates map[string]interface{}) (bool, error)
}

type ingredientRequestRepo struct{ db *gorm.DB }

func NewIngredientRequestRepository(db *gorm.DB) IngredientRequestRepository {
	return &ingredientRequestRepo{db: db}
}

func (r *ingredientRequestRepo) Create(ctx context.Context, req *model.IngredientRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *ingredientRequestRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.IngredientRequest, error) {
	var req model.IngredientRequest
	err := r.db.WithContext(ctx).Preload("Ingredient").First(&req, "id = ?", id).Error
	return &req, err
}

func (r *ingredientRequestRepo) List(ctx context.Context, status string) ([]model.IngredientRequest, error) {
	var out []model.IngredientRequest
	q := r.db.WithContext(ctx).Preload("Ingredient")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *ingredientRequestRepo) TransitionTx(tx *gorm.DB, id uuid.UUID, from []string, updates map[string]interface{}) (bool, error) {
	res := tx.Model(&model.IngredientRequest{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}
