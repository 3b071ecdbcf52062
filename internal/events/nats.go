package events

import (
	"context"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSBus publishes order events on a NATS subject.
type NATSBus struct {
	conn *nats.Conn
}

func NewNATSBus(conn *nats.Conn) *NATSBus { return &NATSBus{conn: conn} }

func (b *NATSBus) Publish(_ context.Context, e Event) error {
	data, err := encode(e)
	if err != nil {
		return err
	}
	return b.conn.Publish(Subject, data)
}

func (b *NATSBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	out := make(chan Event, subscriberBuffer)
	var (
		mu     sync.Mutex
		closed bool
	)
	sub, err := b.conn.Subscribe(Subject, func(msg *nats.Msg) {
		e, err := decode(msg.Data)
		if err != nil {
			log.Warn().Err(err).Msg("events: undecodable nats payload")
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- e:
		default:
			log.Warn().Str("order_id", e.OrderID.String()).Msg("events: subscriber lagging, event dropped")
		}
	})
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()
	return out, nil
}

func (b *NATSBus) Close() error {
	return b.conn.Drain()
}
