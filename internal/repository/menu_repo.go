package repository

import (
	"context"

	"teranga/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MenuItemFilter defines filters for listing menu items.
type MenuItemFilter struct {
	CategoryID    *uuid.UUID
	Name          string
	AvailableOnly bool
}

type MenuRepository interface {
	CreateCategory(ctx context.Context, c *model.MenuCategory) error
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*model.MenuCategory, error)
	ListCategories(ctx context.Context, includeInactive bool) ([]model.MenuCategory, error)
	UpdateCategory(ctx context.Context, c *model.MenuCategory) error

	CreateItem(ctx context.Context, m *model.MenuItem) error
	FindItemByID(ctx context.Context, id uuid.UUID) (*model.MenuItem, error)
	FindItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.MenuItem, error)
	ListItems(ctx context.Context, filter MenuItemFilter) ([]model.MenuItem, error)
	UpdateItem(ctx context.Context, m *model.MenuItem) error

	// ReplaceRecipeTx swaps the whole recipe of a menu item.
	ReplaceRecipeTx(tx *gorm.DB, menuItemID uuid.UUID, lines []model.RecipeIngredient) error
	ListRecipes(ctx context.Context, menuItemIDs []uuid.UUID) ([]model.RecipeIngredient, error)
}

type menuRepo struct{ db *gorm.DB }

func NewMenuRepository(db *gorm.DB) MenuRepository { return &menuRepo{db: db} }

func (r *menuRepo) CreateCategory(ctx context.Context, c *model.MenuCategory) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *menuRepo) FindCategoryByID(ctx context.Context, id uuid.UUID) (*model.MenuCategory, error) {
	var c model.MenuCategory
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *menuRepo) ListCategories(ctx context.Context, includeInactive bool) ([]model.MenuCategory, error) {
	var cats []model.MenuCategory
	q := r.db.WithContext(ctx)
	if !includeInactive {
		q = q.Where("active = true")
	}
	err := q.Order("position, name").Find(&cats).Error
	return cats, err
}

func (r *menuRepo) UpdateCategory(ctx context.Context, c *model.MenuCategory) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *menuRepo) CreateItem(ctx context.Context, m *model.MenuItem) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *menuRepo) FindItemByID(ctx context.Context, id uuid.UUID) (*model.MenuItem, error) {
	var m model.MenuItem
	err := r.db.WithContext(ctx).Preload("Recipe").First(&m, "id = ?", id).Error
	return &m, err
}

func (r *menuRepo) FindItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.MenuItem, error) {
	var items []model.MenuItem
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

func (r *menuRepo) ListItems(ctx context.Context, filter MenuItemFilter) ([]model.MenuItem, error) {
	q := r.db.WithContext(ctx).Model(&model.MenuItem{})
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.AvailableOnly {
		q = q.Where("available = true")
	}
	var items []model.MenuItem
	err := q.Order("name").Find(&items).Error
	return items, err
}

func (r *menuRepo) UpdateItem(ctx context.Context, m *model.MenuItem) error {
	return r.db.WithContext(ctx).Omit("Recipe", "Category").Save(m).Error
}

func (r *menuRepo) ReplaceRecipeTx(tx *gorm.DB, menuItemID uuid.UUID, lines []model.RecipeIngredient) error {
	if err := tx.Where("menu_item_id = ?", menuItemID).Delete(&model.RecipeIngredient{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].MenuItemID = menuItemID
	}
	return tx.Create(&lines).Error
}

func (r *menuRepo) ListRecipes(ctx context.Context, menuItemIDs []uuid.UUID) ([]model.RecipeIngredient, error) {
	var lines []model.RecipeIngredient
	if len(menuItemIDs) == 0 {
		return lines, nil
	}
	err := r.db.WithContext(ctx).Where("menu_item_id IN ?", menuItemIDs).Find(&lines).Error
	return lines, err
}
