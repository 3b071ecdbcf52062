package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OrderItemRequest struct {
	MenuItemID string  `json:"menu_item_id" validate:"required,uuid"`
	Quantity   int     `json:"quantity"     validate:"required,min=1,max=100"`
	Notes      *string `json:"notes"        validate:"omitempty,max=200"`
}

// CreateOrderRequest is used by staff. Diners post the same items through
// their session token and never choose a channel or table.
type CreateOrderRequest struct {
	Channel      string             `json:"channel"       validate:"required,oneof=dine_in takeaway delivery"`
	TableID      *string            `json:"table_id"      validate:"omitempty,uuid"`
	CustomerName *string            `json:"customer_name" validate:"omitempty,max=100"`
	Notes        *string            `json:"notes"         validate:"omitempty,max=500"`
	Items        []OrderItemRequest `json:"items"         validate:"required,min=1,dive"`
}

type SessionOrderRequest struct {
	CustomerName *string            `json:"customer_name" validate:"omitempty,max=100"`
	Notes        *string            `json:"notes"         validate:"omitempty,max=500"`
	Items        []OrderItemRequest `json:"items"         validate:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ValidatePaymentRequest struct {
	Method string `json:"method" validate:"required,oneof=cash card mobile_money"`
}

type OrderFilter struct {
	Status  string `form:"status"`
	Channel string `form:"channel"`
	TableID string `form:"table_id"`
	From    string `form:"from"` // YYYY-MM-DD
	To      string `form:"to"`   // YYYY-MM-DD, inclusive
	Page    int    `form:"page,default=1"`
	Limit   int    `form:"limit,default=50"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemResponse struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
	Notes      *string         `json:"notes"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	Number        int                 `json:"number"`
	SessionID     *string             `json:"session_id"`
	TableID       *string             `json:"table_id"`
	Channel       string              `json:"channel"`
	Status        string              `json:"status"`
	CustomerName  *string             `json:"customer_name"`
	Notes         *string             `json:"notes"`
	Items         []OrderItemResponse `json:"items"`
	ItemCount     int                 `json:"item_count"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Total         decimal.Decimal     `json:"total"`
	PaymentStatus string              `json:"payment_status"`
	PaymentMethod *string             `json:"payment_method"`
	PaidAt        *time.Time          `json:"paid_at"`
	CreatedBy     string              `json:"created_by"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type OrderListResponse struct {
	Data       []OrderResponse `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

type StatusLogResponse struct {
	From      *string   `json:"from"`
	To        string    `json:"to"`
	ChangedBy string    `json:"changed_by"`
	At        time.Time `json:"at"`
}

// KitchenBoardResponse groups active orders by the column they appear in.
type KitchenBoardResponse struct {
	Confirmed []OrderResponse `json:"confirmed"`
	Preparing []OrderResponse `json:"preparing"`
	Ready     []OrderResponse `json:"ready"`
}
