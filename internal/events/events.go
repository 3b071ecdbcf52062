// Package events carries order lifecycle notifications from the order
// service to live consumers such as the kitchen board stream. Delivery is
// best effort: the database stays the source of truth.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Subject is the pub/sub channel (Redis) or subject (NATS) for order events.
const Subject = "teranga.orders"

// Type names an order event.
type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
	OrderPaid          Type = "order.paid"
)

// Event is the JSON payload published for every committed order change.
type Event struct {
	Type       Type       `json:"type"`
	OrderID    uuid.UUID  `json:"order_id"`
	Number     int        `json:"number"`
	Status     string     `json:"status"`
	PrevStatus string     `json:"prev_status,omitempty"`
	TableID    *uuid.UUID `json:"table_id,omitempty"`
	Actor      string     `json:"actor"`
	At         time.Time  `json:"at"`
}

// Publisher emits order events after the change is committed.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber streams events until ctx is cancelled; the channel is then closed.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// Bus is both ends of the event transport.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}

func encode(e Event) ([]byte, error) { return json.Marshal(e) }

func decode(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// subscriberBuffer bounds how far a slow consumer may lag before events are
// dropped for it.
const subscriberBuffer = 64
