package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderCompleted, OrderCancelled}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// Channel: "dine_in" | "takeaway" | "delivery"
const (
	ChannelDineIn   = "dine_in"
	ChannelTakeaway = "takeaway"
	ChannelDelivery = "delivery"
)

// PaymentStatus: "unpaid" | "paid"
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Order is placed by a diner through a session token or by staff directly.
type Order struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Number        int         `gorm:"uniqueIndex;not null"`
	SessionID     *uuid.UUID  `gorm:"type:uuid;index"`
	TableID       *uuid.UUID  `gorm:"type:uuid;index"`
	Channel       string      `gorm:"type:varchar(20);not null"`
	Status        OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	CustomerName  *string
	Notes         *string
	ItemCount     int             `gorm:"not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentStatus string          `gorm:"type:varchar(20);not null;default:'unpaid'"`
	PaymentMethod *string         `gorm:"type:varchar(20)"`
	PaidAt        *time.Time
	PaidBy        *string
	CreatedBy     string `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID"`
	Table *Table      `gorm:"foreignKey:TableID"`
}

// OrderItem snapshots the menu item name and price at order time; later
// menu changes never touch it.
type OrderItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	MenuItemID uuid.UUID       `gorm:"type:uuid;not null"`
	Name       string          `gorm:"not null"`
	Quantity   int             `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	LineTotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notes      *string
}

// OrderStatusLog is an immutable record of a committed status change.
type OrderStatusLog struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID    uuid.UUID    `gorm:"type:uuid;not null;index"`
	FromStatus *OrderStatus `gorm:"type:varchar(20)"`
	ToStatus   OrderStatus  `gorm:"type:varchar(20);not null"`
	ChangedBy  string       `gorm:"not null"`
	CreatedAt  time.Time
}
