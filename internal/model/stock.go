package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ingredient is a stock item. Quantity is a cached value kept equal to
// InitialQuantity plus the sum of its StockMovement deltas.
type Ingredient struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name             string          `gorm:"uniqueIndex;not null"`
	Unit             string          `gorm:"not null;default:'unit'"`
	Quantity         decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	InitialQuantity  decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	ReorderThreshold decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	Active           bool            `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Low reports whether the quantity is at or below the reorder threshold.
func (i Ingredient) Low() bool {
	return i.Quantity.LessThanOrEqual(i.ReorderThreshold)
}

// Movement reasons.
const (
	ReasonSale               = "sale"
	ReasonSaleReversal       = "sale_reversal"
	ReasonAdjustment         = "adjustment"
	ReasonForce              = "force"
	ReasonRequestFulfillment = "request_fulfillment"
)

// StockMovement records each change of an ingredient quantity.
// Movements are NEVER modified or deleted.
type StockMovement struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IngredientID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Delta          decimal.Decimal `gorm:"type:decimal(12,3);not null"` // positive = in, negative = out
	QuantityBefore decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	QuantityAfter  decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Reason         string          `gorm:"type:varchar(30);not null"`
	Note           string
	Actor          string     `gorm:"not null"`
	ReferenceID    *uuid.UUID `gorm:"type:uuid"` // order or ingredient request
	CreatedAt      time.Time

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID"`
}

// TableName overrides GORM's default pluralization.
func (StockMovement) TableName() string { return "stock_movements" }

// Request statuses.
const (
	RequestPending   = "pending"
	RequestApproved  = "approved"
	RequestRejected  = "rejected"
	RequestFulfilled = "fulfilled"
)

// IngredientRequest is a staff-initiated restock request.
type IngredientRequest struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IngredientID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity     decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Status       string          `gorm:"type:varchar(20);not null;default:'pending';index"`
	Note         *string
	RequestedBy  string `gorm:"not null"`
	ReviewedBy   *string
	ReviewedAt   *time.Time
	FulfilledBy  *string
	FulfilledAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID"`
}
