package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/ecoguard-service/internal/domain"
	"github.com/couchcryptid/ecoguard-service/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// BatchExtractor reads up to batchSize pending events.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.ReportEvent, error)
}

// BatchPublisher writes multiple events to the destination.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, events []domain.ReportEvent) error
}

// Pipeline drains report events from an extractor into a publisher.
type Pipeline struct {
	extractor BatchExtractor
	publisher BatchPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	running   atomic.Bool
	batchSize int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, p BatchPublisher, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor: e,
		publisher: p,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// Running reports whether Run is active.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// CheckReadiness returns nil while the pipeline loop is running.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.running.Load() {
		return errors.New("event pipeline is not running")
	}
	return nil
}

// Run executes the publish loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("event pipeline started", "batch_size", p.batchSize)
	p.running.Store(true)
	p.metrics.PipelineRunning.Set(1)
	defer func() {
		p.running.Store(false)
		p.metrics.PipelineRunning.Set(0)
	}()

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("event pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch extracts one batch and publishes it, retrying the same batch
// until it goes through. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}
	if len(batch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.EventBatchSize.Observe(float64(len(batch)))

	for {
		start := time.Now()
		err := p.publisher.PublishBatch(ctx, batch)
		if err == nil {
			p.metrics.PublishDuration.Observe(time.Since(start).Seconds())
			p.metrics.EventsPublished.Add(float64(len(batch)))
			*backoff = 200 * time.Millisecond
			return true
		}

		p.metrics.PublishErrors.Inc()
		p.logger.Error("publish batch failed", "error", err, "batch_size", len(batch), "retry_in", *backoff)
		if !p.backoffOrStop(ctx, backoff, maxBackoff) {
			p.logger.Warn("event pipeline stopped with unpublished events", "count", len(batch))
			return false
		}
	}
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}
