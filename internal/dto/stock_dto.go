package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Ingredients ─────────────────────────────────────────────────────────────

type CreateIngredientRequest struct {
	Name             string          `json:"name"              validate:"required,min=2,max=100"`
	Unit             string          `json:"unit"              validate:"required,min=1,max=20"`
	InitialQuantity  decimal.Decimal `json:"initial_quantity"  validate:"gte=0"`
	ReorderThreshold decimal.Decimal `json:"reorder_threshold" validate:"gte=0"`
}

type UpdateIngredientRequest struct {
	Name             *string          `json:"name"              validate:"omitempty,min=2,max=100"`
	Unit             *string          `json:"unit"              validate:"omitempty,min=1,max=20"`
	ReorderThreshold *decimal.Decimal `json:"reorder_threshold" validate:"omitempty,gte=0"`
	Active           *bool            `json:"active"`
}

type IngredientResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Unit             string          `json:"unit"`
	Quantity         decimal.Decimal `json:"quantity"`
	InitialQuantity  decimal.Decimal `json:"initial_quantity"`
	ReorderThreshold decimal.Decimal `json:"reorder_threshold"`
	Low              bool            `json:"low"`
	Active           bool            `json:"active"`
}

// ─── Adjustments and movements ───────────────────────────────────────────────

// AdjustStockRequest applies a signed delta. Reason "force" skips the
// non-negative guard and needs the admin role.
type AdjustStockRequest struct {
	Delta  decimal.Decimal `json:"delta"  validate:"required"`
	Reason string          `json:"reason" validate:"required,oneof=adjustment force"`
	Note   string          `json:"note"   validate:"omitempty,max=500"`
}

type StockMovementResponse struct {
	ID             string          `json:"id"`
	IngredientID   string          `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name,omitempty"`
	Delta          decimal.Decimal `json:"delta"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	Reason         string          `json:"reason"`
	Note           string          `json:"note"`
	Actor          string          `json:"actor"`
	ReferenceID    *string         `json:"reference_id"`
	CreatedAt      time.Time       `json:"created_at"`
}

type MovementFilter struct {
	IngredientID string `form:"ingredient_id"`
	Reason       string `form:"reason"`
	Page         int    `form:"page,default=1"`
	Limit        int    `form:"limit,default=100"`
}

type MovementListResponse struct {
	Data  []StockMovementResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

// ReconcileResponse compares the cached quantity with the ledger.
type ReconcileResponse struct {
	IngredientID    string          `json:"ingredient_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
	MovementSum     decimal.Decimal `json:"movement_sum"`
	Consistent      bool            `json:"consistent"`
}

// ─── Ingredient requests ─────────────────────────────────────────────────────

type CreateIngredientRequestRequest struct {
	IngredientID string          `json:"ingredient_id" validate:"required,uuid"`
	Quantity     decimal.Decimal `json:"quantity"      validate:"required,gt=0"`
	Note         *string         `json:"note"          validate:"omitempty,max=500"`
}

type IngredientRequestResponse struct {
	ID             string          `json:"id"`
	IngredientID   string          `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	Status         string          `json:"status"`
	Note           *string         `json:"note"`
	RequestedBy    string          `json:"requested_by"`
	ReviewedBy     *string         `json:"reviewed_by"`
	ReviewedAt     *time.Time      `json:"reviewed_at"`
	FulfilledBy    *string         `json:"fulfilled_by"`
	FulfilledAt    *time.Time      `json:"fulfilled_at"`
	CreatedAt      time.Time       `json:"created_at"`
}
