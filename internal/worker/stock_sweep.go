package worker

// stock_sweep.go
// Background goroutine that periodically looks for ingredients at or below
// their reorder threshold and queues an alert for the ones not alerted
// recently. It catches drops that happened while Redis was unreachable.

import (
	"context"
	"time"

	"teranga/internal/model"

	"github.com/rs/zerolog/log"
)

const sweepInterval = 15 * time.Minute

// LowStockLister is the slice of the ingredient repository the sweep needs.
type LowStockLister interface {
	ListLow(ctx context.Context) ([]model.Ingredient, error)
}

// AlertEnqueuer is implemented by Dispatcher.
type AlertEnqueuer interface {
	EnqueueLowStockAlert(ctx context.Context, payload LowStockAlertPayload) error
}

// StockSweepConfig holds all dependencies for the sweep goroutine.
type StockSweepConfig struct {
	Ingredients LowStockLister
	Dispatcher  AlertEnqueuer
	Interval    time.Duration
}

// StartStockSweep launches the sweep. It respects the context for graceful
// shutdown.
func StartStockSweep(ctx context.Context, cfg StockSweepConfig) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = sweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("stock_sweep: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stock_sweep: shutting down")
				return
			case <-ticker.C:
				if err := SweepLowStock(ctx, cfg); err != nil {
					log.Warn().Err(err).Msg("stock_sweep: sweep failed")
				}
			}
		}
	}()
}

// SweepLowStock runs one pass.
func SweepLowStock(ctx context.Context, cfg StockSweepConfig) error {
	low, err := cfg.Ingredients.ListLow(ctx)
	if err != nil {
		return err
	}
	if len(low) == 0 {
		return nil
	}
	payload := LowStockAlertPayload{TriggeredBy: "sweep", At: time.Now()}
	for _, ing := range low {
		payload.Items = append(payload.Items, LowStockItem{
			IngredientID: ing.ID.String(),
			Name:         ing.Name,
			Unit:         ing.Unit,
			Quantity:     ing.Quantity.String(),
			Threshold:    ing.ReorderThreshold.String(),
		})
	}
	return cfg.Dispatcher.EnqueueLowStockAlert(ctx, payload)
}
