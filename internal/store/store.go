package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/couchcryptid/ecoguard-service/internal/domain"
	"github.com/couchcryptid/ecoguard-service/internal/observability"
	"github.com/google/uuid"
)

var (
	ErrIndexOutOfRange = errors.New("report index out of range")
	ErrReportNotFound  = errors.New("report not found")
)

// Listener observes successful mutations. It runs after the store lock is
// released and must not block.
type Listener func(domain.ReportEvent)

// Store is the ordered report collection, mirrored to a durable slot on
// every mutation. Insertion order is submission order.
type Store struct {
	slot    Slot
	logger  *slog.Logger
	metrics *observability.Metrics

	mu        sync.RWMutex
	reports   []domain.Report
	listeners []Listener
}

// New creates an empty store over slot. Call Load before serving.
func New(slot Slot, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		slot:    slot,
		logger:  logger,
		metrics: metrics,
		reports: []domain.Report{},
	}
}

// OnMutation registers a listener for appends and removals.
func (s *Store) OnMutation(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Load replaces the in-memory collection with the slot content. An empty
// slot or unparseable content yields an empty collection. Records written
// before reports carried ids are given one and written back.
func (s *Store) Load(ctx context.Context) ([]domain.Report, error) {
	data, err := s.slot.Read(ctx)
	if err != nil {
		return nil, err
	}

	reports := []domain.Report{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &reports); err != nil {
			s.logger.Warn("report slot is corrupt, starting empty", "error", err)
			reports = []domain.Report{}
		}
	}

	assigned := 0
	for i := range reports {
		if reports[i].ID == "" {
			reports[i].ID = uuid.NewString()
			assigned++
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = reports
	s.metrics.StoreSize.Set(float64(len(reports)))
	if assigned > 0 {
		if err := s.persistLocked(ctx); err != nil {
			s.logger.Warn("could not write back assigned report ids", "count", assigned, "error", err)
		}
	}
	s.logger.Info("report store loaded", "reports", len(reports), "ids_assigned", assigned)
	return slices.Clone(s.reports), nil
}

// Seed discards the collection and replaces it with fixtures when it holds
// fewer than minReports records. It reports whether it reseeded.
func (s *Store) Seed(ctx context.Context, minReports int, fixtures []domain.Report) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.reports) >= minReports {
		return false, nil
	}

	prev := s.reports
	s.reports = slices.Clone(fixtures)
	if err := s.persistLocked(ctx); err != nil {
		s.reports = prev
		return false, err
	}
	s.logger.Info("report store reseeded", "discarded", len(prev), "reports", len(fixtures))
	return true, nil
}

// Append adds r at the end and rewrites the slot. If the write fails the
// append is undone and the error returned.
func (s *Store) Append(ctx context.Context, r domain.Report) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	s.mu.Lock()
	n := len(s.reports)
	s.reports = append(s.reports, r)
	if err := s.persistLocked(ctx); err != nil {
		s.reports = s.reports[:n]
		s.mu.Unlock()
		return err
	}
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	notify(listeners, domain.ReportCreated, r)
	return nil
}

// RemoveAt removes the report at position index in the current order.
func (s *Store) RemoveAt(ctx context.Context, index int) (domain.Report, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.reports) {
		n := len(s.reports)
		s.mu.Unlock()
		return domain.Report{}, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, n)
	}
	return s.removeLocked(ctx, index)
}

// Remove removes the report with the given id.
func (s *Store) Remove(ctx context.Context, id string) (domain.Report, error) {
	s.mu.Lock()
	index := slices.IndexFunc(s.reports, func(r domain.Report) bool { return r.ID == id })
	if index < 0 {
		s.mu.Unlock()
		return domain.Report{}, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	return s.removeLocked(ctx, index)
}

// removeLocked expects s.mu held and releases it.
func (s *Store) removeLocked(ctx context.Context, index int) (domain.Report, error) {
	removed := s.reports[index]
	prev := s.reports
	s.reports = slices.Delete(slices.Clone(prev), index, index+1)
	if err := s.persistLocked(ctx); err != nil {
		s.reports = prev
		s.mu.Unlock()
		return domain.Report{}, err
	}
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	notify(listeners, domain.ReportResolved, removed)
	return removed, nil
}

// All returns a snapshot in insertion order.
func (s *Store) All() []domain.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.reports)
}

// Len returns the number of stored reports.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// Get looks a report up by id.
func (s *Store) Get(id string) (domain.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reports {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Report{}, false
}

// Export serializes the whole collection for download.
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := json.MarshalIndent(s.reports, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export reports: %w", err)
	}
	return data, nil
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.reports)
	if err != nil {
		s.metrics.StoreWriteErrors.Inc()
		return fmt.Errorf("serialize reports: %w", err)
	}
	if err := s.slot.Write(ctx, data); err != nil {
		s.metrics.StoreWriteErrors.Inc()
		s.logger.Error("persist reports failed", "reports", len(s.reports), "error", err)
		return fmt.Errorf("persist reports: %w", err)
	}
	s.metrics.StoreSize.Set(float64(len(s.reports)))
	return nil
}

func notify(listeners []Listener, kind domain.ReportEventType, r domain.Report) {
	if len(listeners) == 0 {
		return
	}
	event := domain.ReportEvent{Type: kind, Report: r, OccurredAt: domain.Now()}
	for _, l := range listeners {
		l(event)
	}
}
