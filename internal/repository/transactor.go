package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNegativeStock is returned by a guarded stock update that would leave an
// ingredient below zero. Nothing is written when it is returned.
var ErrNegativeStock = errors.New("stock would go negative")

// Transactor opens database transactions for services. Every *Tx repository
// method must be called with the tx handed to fn.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTransactor struct{ db *gorm.DB }

func NewTransactor(db *gorm.DB) Transactor { return &gormTransactor{db: db} }

func (t *gormTransactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

// pageBounds normalizes page/limit query values.
func pageBounds(page, limit int) (offset, size int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return (page - 1) * limit, limit
}
