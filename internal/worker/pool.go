package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"teranga/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAlerts = "jobs:alerts"

	JobLowStockAlert = "stock.low"

	// maxAttempts is how many times a job runs before it is dead-lettered.
	maxAttempts = 3

	minPollBackoff = 250 * time.Millisecond
	maxPollBackoff = 10 * time.Second
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes one job payload. A returned error schedules a retry.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Pool consumes queued jobs with a fixed number of goroutines.
// Each goroutine blocks on BRPOP: zero CPU when idle.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]Handler
	queues   []string
}

func NewPool(rdb *redis.Client) *Pool {
	return &Pool{rdb: rdb, handlers: make(map[string]Handler), queues: []string{QueueAlerts}}
}

// Handle registers the handler for a job type. Not safe after Start.
func (p *Pool) Handle(jobType string, h Handler) {
	p.handlers[jobType] = h
}

// Start launches numWorkers goroutines that stop when ctx is cancelled.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	var backoff time.Duration
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			if err != nil {
				backoff = nextPollBackoff(backoff)
				log.Warn().Err(err).Int("worker", id).Dur("retry_in", backoff).Msg("worker: queue pop failed")
				sleepCtx(ctx, backoff)
				continue
			}
			backoff = 0
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

// nextPollBackoff doubles the wait after a failed pop, within bounds.
func nextPollBackoff(prev time.Duration) time.Duration {
	if prev < minPollBackoff {
		return minPollBackoff
	}
	if next := prev * 2; next < maxPollBackoff {
		return next
	}
	return maxPollBackoff
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, p.rdb, queue, "unknown", json.RawMessage(raw), "undecodable envelope", 0)
		return
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, "no handler registered", job.Attempts)
		return
	}

	job.Attempts++
	if err := h(ctx, job.Payload); err != nil {
		metrics.JobsProcessed.WithLabelValues(job.Type, "failed").Inc()
		log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed")
		if job.Attempts >= maxAttempts {
			SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
			return
		}
		if err := p.requeue(ctx, queue, job); err != nil {
			log.Error().Err(err).Str("type", job.Type).Msg("requeue failed")
		}
		return
	}
	metrics.JobsProcessed.WithLabelValues(job.Type, "ok").Inc()
}

// requeue puts the job at the tail so fresh jobs are not starved.
func (p *Pool) requeue(ctx context.Context, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	return p.rdb.LPush(ctx, queue, encoded).Err()
}
