package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/ecoguard-service/internal/domain"
	"github.com/couchcryptid/ecoguard-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Outbox buffers report events between the store and the publisher. It
// implements BatchExtractor.
type Outbox struct {
	events        chan domain.ReportEvent
	flushInterval time.Duration
	clock         clockwork.Clock
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewOutbox creates an outbox holding up to capacity pending events.
func NewOutbox(capacity int, flushInterval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Outbox {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Outbox{
		events:        make(chan domain.ReportEvent, capacity),
		flushInterval: flushInterval,
		clock:         clock,
		logger:        logger,
		metrics:       metrics,
	}
}

// Enqueue adds an event without blocking. When the outbox is full the event
// is dropped and counted. Suitable as a store.Listener.
func (o *Outbox) Enqueue(event domain.ReportEvent) {
	select {
	case o.events <- event:
	default:
		o.metrics.EventsDropped.Inc()
		o.logger.Warn("event outbox full, dropping event",
			"type", event.Type, "report_id", event.Report.ID, "capacity", cap(o.events))
	}
}

// Len returns the number of pending events.
func (o *Outbox) Len() int {
	return len(o.events)
}

// ExtractBatch blocks until at least one event is available, then gathers
// more until batchSize is reached or the flush interval passes.
func (o *Outbox) ExtractBatch(ctx context.Context, batchSize int) ([]domain.ReportEvent, error) {
	var first domain.ReportEvent
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case first = <-o.events:
	}

	batch := make([]domain.ReportEvent, 0, batchSize)
	batch = append(batch, first)

	timer := o.clock.NewTimer(o.flushInterval)
	defer timer.Stop()

	for len(batch) < batchSize {
		select {
		case <-ctx.Done():
			return batch, nil
		case <-timer.Chan():
			return batch, nil
		case e := <-o.events:
			batch = append(batch, e)
		}
	}
	return batch, nil
}
