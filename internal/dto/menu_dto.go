package dto

import "github.com/shopspring/decimal"

type CreateCategoryRequest struct {
	Name        string  `json:"name"        validate:"required,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Position    int     `json:"position"    validate:"omitempty,min=0"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Position    *int    `json:"position"    validate:"omitempty,min=0"`
	Active      *bool   `json:"active"`
}

type CategoryResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Position    int     `json:"position"`
	Active      bool    `json:"active"`
}

type CreateMenuItemRequest struct {
	Name        string          `json:"name"        validate:"required,min=2,max=150"`
	Description *string         `json:"description" validate:"omitempty,max=1000"`
	CategoryID  *string         `json:"category_id" validate:"omitempty,uuid"`
	Price       decimal.Decimal `json:"price"       validate:"required,gt=0"`
	Available   *bool           `json:"available"`
}

type UpdateMenuItemRequest struct {
	Name        *string          `json:"name"        validate:"omitempty,min=2,max=150"`
	Description *string          `json:"description" validate:"omitempty,max=1000"`
	CategoryID  *string          `json:"category_id" validate:"omitempty,uuid"`
	Price       *decimal.Decimal `json:"price"       validate:"omitempty,gt=0"`
	Available   *bool            `json:"available"`
}

type MenuItemResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	CategoryID  *string         `json:"category_id"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
}

type RecipeLineRequest struct {
	IngredientID string          `json:"ingredient_id" validate:"required,uuid"`
	Quantity     decimal.Decimal `json:"quantity"      validate:"required,gt=0"`
}

type SetRecipeRequest struct {
	Lines []RecipeLineRequest `json:"lines" validate:"dive"`
}

type RecipeLineResponse struct {
	IngredientID   string          `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name,omitempty"`
	Unit           string          `json:"unit,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// PublicMenuResponse is the cached storefront menu.
type PublicMenuResponse struct {
	Categories    []PublicMenuCategory `json:"categories"`
	Uncategorized []MenuItemResponse   `json:"uncategorized"`
}

type PublicMenuCategory struct {
	ID    string             `json:"id"`
	Name  string             `json:"name"`
	Items []MenuItemResponse `json:"items"`
}
