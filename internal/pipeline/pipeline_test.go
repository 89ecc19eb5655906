package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/ecoguard-service/internal/domain"
	"github.com/couchcryptid/ecoguard-service/internal/observability"
	"github.com/couchcryptid/ecoguard-service/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockPublisher struct {
	mu        sync.Mutex
	published [][]domain.ReportEvent
	failures  atomic.Int32 // fail this many calls before succeeding
	calls     atomic.Int32
}

func (m *mockPublisher) PublishBatch(_ context.Context, events []domain.ReportEvent) error {
	m.calls.Add(1)
	if m.failures.Add(-1) >= 0 {
		return errors.New("broker unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, append([]domain.ReportEvent(nil), events...))
	return nil
}

func (m *mockPublisher) batches() [][]domain.ReportEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.published
}

type failingExtractor struct{ calls atomic.Int32 }

func (f *failingExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.ReportEvent, error) {
	f.calls.Add(1)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, errors.New("source closed")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func event(id string, kind domain.ReportEventType) domain.ReportEvent {
	return domain.ReportEvent{
		Type:       kind,
		Report:     domain.Report{ID: id, Coverage: 45, Status: domain.StatusCritical},
		OccurredAt: time.Date(2026, 4, 26, 15, 10, 0, 0, time.UTC),
	}
}

func newOutbox(capacity int, metrics *observability.Metrics) *pipeline.Outbox {
	return pipeline.NewOutbox(capacity, 20*time.Millisecond, nil, discardLogger(), metrics)
}

// --- pipeline tests ---

func TestPipeline_Run_PublishesEvents(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	outbox := newOutbox(10, metrics)
	pub := &mockPublisher{}
	p := pipeline.New(outbox, pub, discardLogger(), metrics, 50)

	want := []domain.ReportEvent{event("a", domain.ReportCreated), event("a", domain.ReportResolved)}
	for _, e := range want {
		outbox.Enqueue(e)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	var got []domain.ReportEvent
	for _, b := range pub.batches() {
		got = append(got, b...)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("published events mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.EventsPublished), 0)
	assert.False(t, p.Running())
	assert.Zero(t, testutil.ToFloat64(metrics.PipelineRunning))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	pub := &mockPublisher{}
	p := pipeline.New(newOutbox(10, metrics), pub, discardLogger(), metrics, 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, pub.batches())
}

func TestPipeline_Run_RetriesFailedBatch(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	outbox := newOutbox(10, metrics)
	pub := &mockPublisher{}
	pub.failures.Store(2)
	p := pipeline.New(outbox, pub, discardLogger(), metrics, 50)

	outbox.Enqueue(event("a", domain.ReportCreated))

	// Two failures back off 200ms then 400ms before the third attempt.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	require.Len(t, pub.batches(), 1)
	assert.Equal(t, "a", pub.batches()[0][0].Report.ID)
	assert.Equal(t, int32(3), pub.calls.Load())
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.PublishErrors), 0)
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	ext := &failingExtractor{}
	p := pipeline.New(ext, &mockPublisher{}, discardLogger(), metrics, 50)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	// 200ms backoff after the first failure leaves room for at most two calls.
	assert.LessOrEqual(t, ext.calls.Load(), int32(3))
}

func TestPipeline_CheckReadiness(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(newOutbox(1, metrics), &mockPublisher{}, discardLogger(), metrics, 50)
	require.Error(t, p.CheckReadiness(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return p.CheckReadiness(context.Background()) == nil },
		time.Second, 10*time.Millisecond)

	cancel()
	<-done
	require.Error(t, p.CheckReadiness(context.Background()))
}

// --- outbox tests ---

func TestOutbox_DropsWhenFull(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	outbox := newOutbox(2, metrics)

	for _, id := range []string{"a", "b", "c"} {
		outbox.Enqueue(event(id, domain.ReportCreated))
	}

	assert.Equal(t, 2, outbox.Len())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.EventsDropped), 0)
}

func TestOutbox_ExtractBatch_FillsToBatchSize(t *testing.T) {
	outbox := newOutbox(10, observability.NewMetricsForTesting())
	for _, id := range []string{"a", "b", "c"} {
		outbox.Enqueue(event(id, domain.ReportCreated))
	}

	batch, err := outbox.ExtractBatch(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, batch, 2)
	assert.Equal(t, 1, outbox.Len())
}

func TestOutbox_ExtractBatch_FlushesOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	outbox := pipeline.NewOutbox(10, time.Second, clock, discardLogger(), observability.NewMetricsForTesting())
	outbox.Enqueue(event("a", domain.ReportCreated))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	type result struct {
		batch []domain.ReportEvent
		err   error
	}
	done := make(chan result, 1)
	go func() {
		b, err := outbox.ExtractBatch(ctx, 10)
		done <- result{b, err}
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)

	r := <-done
	require.NoError(t, r.err)
	assert.Len(t, r.batch, 1)
}

func TestOutbox_ExtractBatch_BlocksUntilCancelled(t *testing.T) {
	outbox := newOutbox(10, observability.NewMetricsForTesting())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	batch, err := outbox.ExtractBatch(ctx, 10)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, batch)
}
