package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuCategory groups menu items on the public menu.
type MenuCategory struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"uniqueIndex;not null"`
	Description *string
	Position    int  `gorm:"not null;default:0"`
	Active      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MenuItem is a dish or drink that can be ordered.
type MenuItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CategoryID  *uuid.UUID `gorm:"type:uuid;index"`
	Name        string     `gorm:"index;not null"`
	Description *string
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Available   bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Category *MenuCategory     `gorm:"foreignKey:CategoryID"`
	Recipe   []RecipeIngredient `gorm:"foreignKey:MenuItemID"`
}

// RecipeIngredient is how much of an ingredient one unit of a menu item consumes.
type RecipeIngredient struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MenuItemID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_item_ingredient"`
	IngredientID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_item_ingredient"`
	Quantity     decimal.Decimal `gorm:"type:decimal(12,3);not null"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID"`
}
