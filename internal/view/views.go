package view

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/ecoguard-service/internal/domain"
	"github.com/couchcryptid/ecoguard-service/internal/observability"
)

// Store is the part of the report store the views read and resolve through.
type Store interface {
	All() []domain.Report
	Remove(ctx context.Context, id string) (domain.Report, error)
	RemoveAt(ctx context.Context, index int) (domain.Report, error)
}

// Views fans store snapshots out to the map and the dashboard. Every
// mutation path calls Refresh explicitly; nothing observes the store.
type Views struct {
	store     Store
	Map       *MapView
	Dashboard *Dashboard
	logger    *slog.Logger
	metrics   *observability.Metrics
}

func New(store Store, mapView *MapView, dashboard *Dashboard, logger *slog.Logger, metrics *observability.Metrics) *Views {
	return &Views{
		store:     store,
		Map:       mapView,
		Dashboard: dashboard,
		logger:    logger,
		metrics:   metrics,
	}
}

// Refresh re-renders both views from reports.
func (v *Views) Refresh(reports []domain.Report) {
	v.Map.Refresh(reports)
	v.Dashboard.Refresh(reports)
}

// RefreshFromStore re-renders both views from a fresh store snapshot.
func (v *Views) RefreshFromStore() {
	v.Refresh(v.store.All())
}

// Resolve removes a report by id and re-renders both views.
func (v *Views) Resolve(ctx context.Context, id string) (domain.Report, error) {
	removed, err := v.store.Remove(ctx, id)
	if err != nil {
		return domain.Report{}, err
	}
	v.resolved(removed)
	return removed, nil
}

// ResolveAt removes the report at a store position and re-renders both views.
func (v *Views) ResolveAt(ctx context.Context, index int) (domain.Report, error) {
	removed, err := v.store.RemoveAt(ctx, index)
	if err != nil {
		return domain.Report{}, err
	}
	v.resolved(removed)
	return removed, nil
}

func (v *Views) resolved(r domain.Report) {
	v.metrics.ReportsResolved.Inc()
	v.logger.Info("report resolved", "report_id", r.ID, "status", r.Status, "coverage", r.Coverage)
	v.RefreshFromStore()
}
