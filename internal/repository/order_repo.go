package repository

import (
	"context"
	"time"

	"teranga/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderFilter defines filters for listing orders.
type OrderFilter struct {
	Status    string
	Channel   string
	TableID   *uuid.UUID
	SessionID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}

type OrderRepository interface {
	NextNumberTx(tx *gorm.DB) (int, error)
	CreateTx(tx *gorm.DB, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
	// ListByStatus returns orders in any of statuses, oldest first.
	ListByStatus(ctx context.Context, statuses ...model.OrderStatus) ([]model.Order, error)

	// CompareAndSetStatusTx moves the order from `from` to `to` only if it is
	// still in `from`. swapped is false when another writer got there first.
	CompareAndSetStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.OrderStatus) (swapped bool, err error)
	CreateStatusLogTx(tx *gorm.DB, l *model.OrderStatusLog) error
	ListStatusLog(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusLog, error)

	// MarkPaid records payment on an unpaid, non-cancelled order. marked is
	// false when the order was already paid or has been cancelled.
	MarkPaid(ctx context.Context, id uuid.UUID, method, paidBy string, at time.Time) (marked bool, err error)
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

// NextNumberTx reads from the order_number_seq sequence created at startup.
func (r *orderRepo) NextNumberTx(tx *gorm.DB) (int, error) {
	var n int
	err := tx.Raw("SELECT nextval('order_number_seq')").Scan(&n).Error
	return n, err
}

func (r *orderRepo) CreateTx(tx *gorm.DB, o *model.Order) error {
	return tx.Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error
	return &o, err
}

func (r *orderRepo) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Channel != "" {
		q = q.Where("channel = ?", filter.Channel)
	}
	if filter.TableID != nil {
		q = q.Where("table_id = ?", *filter.TableID)
	}
	if filter.SessionID != nil {
		q = q.Where("session_id = ?", *filter.SessionID)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := pageBounds(filter.Page, filter.Limit)
	var orders []model.Order
	err := q.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) ListByStatus(ctx context.Context, statuses ...model.OrderStatus) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) CompareAndSetStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	res := tx.Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	return res.RowsAffected == 1, res.Error
}

func (r *orderRepo) CreateStatusLogTx(tx *gorm.DB, l *model.OrderStatusLog) error {
	return tx.Create(l).Error
}

func (r *orderRepo) ListStatusLog(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusLog, error) {
	var logs []model.OrderStatusLog
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&logs).Error
	return logs, err
}

func (r *orderRepo) MarkPaid(ctx context.Context, id uuid.UUID, method, paidBy string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status = ? AND status <> ?", id, model.PaymentUnpaid, model.OrderCancelled).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentPaid,
			"payment_method": method,
			"paid_by":        paidBy,
			"paid_at":        at,
			"updated_at":     at,
		})
	return res.RowsAffected == 1, res.Error
}
