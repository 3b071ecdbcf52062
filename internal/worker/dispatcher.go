package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// alertDedupTTL is how long one ingredient stays silent after being alerted.
const alertDedupTTL = 6 * time.Hour

// LowStockItem is one ingredient at or below its reorder threshold.
type LowStockItem struct {
	IngredientID string `json:"ingredient_id"`
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	Quantity     string `json:"quantity"`
	Threshold    string `json:"threshold"`
}

// LowStockAlertPayload is the job body for JobLowStockAlert.
type LowStockAlertPayload struct {
	Items       []LowStockItem `json:"items"`
	TriggeredBy string         `json:"triggered_by"`
	At          time.Time      `json:"at"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueLowStockAlert queues an alert for the items not already alerted in
// the last alertDedupTTL. Nothing is queued when every item is deduplicated.
func (d *Dispatcher) EnqueueLowStockAlert(ctx context.Context, payload LowStockAlertPayload) error {
	fresh := payload.Items[:0:0]
	for _, it := range payload.Items {
		ok, err := d.rdb.SetNX(ctx, "alerted:low_stock:"+it.IngredientID, payload.At.Unix(), alertDedupTTL).Result()
		if err != nil {
			return err
		}
		if ok {
			fresh = append(fresh, it)
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	payload.Items = fresh
	return d.enqueue(ctx, QueueAlerts, JobLowStockAlert, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}
