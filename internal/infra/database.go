package infra

import (
	"fmt"

	"teranga/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial indexes, sequences).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates all tables and applies schema patches. Integration
// tests call it directly against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Table{},
		&model.TableSession{},
		&model.MenuCategory{},
		&model.Ingredient{},
		&model.MenuItem{},
		&model.RecipeIngredient{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusLog{},
		&model.StockMovement{},
		&model.IngredientRequest{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate cannot
// handle on its own. Each statement uses IF NOT EXISTS semantics so re-running
// on an already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// At most one active session per table. Session creation inserts with
		// ON CONFLICT against this index.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_table_sessions_one_active
		    ON table_sessions (table_id) WHERE status = 'active'`,
		`CREATE SEQUENCE IF NOT EXISTS order_number_seq START 1`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_order_items_quantity') THEN
		    ALTER TABLE order_items ADD CONSTRAINT chk_order_items_quantity CHECK (quantity > 0);
		  END IF;
		END $$`,
		`CREATE INDEX IF NOT EXISTS idx_stock_movements_ingredient_created
		    ON stock_movements (ingredient_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_active
		    ON orders (created_at) WHERE status IN ('confirmed', 'preparing', 'ready')`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
