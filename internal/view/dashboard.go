package view

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/couchcryptid/ecoguard-service/internal/domain"
)

// Totals are the dashboard's aggregate counters. They always cover the
// whole collection, whatever the search query.
type Totals struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	Healthy  int `json:"healthy"`
}

// Row is one dashboard list entry. Index is the report's position in the
// store, which the positional resolve action uses.
type Row struct {
	ID          string               `json:"id"`
	Index       int                  `json:"index"`
	Title       string               `json:"title"`
	Subtitle    string               `json:"subtitle"`
	StatusClass string               `json:"statusClass"`
	Status      domain.Status        `json:"status"`
	Type        domain.WaterBodyType `json:"type"`
	Coverage    int                  `json:"coverage"`
	Date        string               `json:"date"`
	Place       string               `json:"place,omitempty"`
}

func (r Row) text() string {
	return r.Title + " " + r.Subtitle + " " + r.Place
}

// DashboardView is a complete dashboard render.
type DashboardView struct {
	Totals Totals `json:"totals"`
	Query  string `json:"query,omitempty"`
	Rows   []Row  `json:"rows"`
}

const dateLayout = "2006-01-02"

// RenderDashboard computes the totals and the coverage-sorted rows. A
// non-empty query keeps rows whose text contains it, case-insensitively.
func RenderDashboard(reports []domain.Report, query string) DashboardView {
	out := DashboardView{Query: query, Rows: []Row{}}
	out.Totals.Total = len(reports)

	rows := make([]Row, 0, len(reports))
	for i, r := range reports {
		if r.Status.IsCriticalOrAbove() {
			out.Totals.Critical++
		}
		if r.Coverage < 10 {
			out.Totals.Healthy++
		}
		date := r.Timestamp.Format(dateLayout)
		rows = append(rows, Row{
			ID:          r.ID,
			Index:       i,
			Title:       fmt.Sprintf("%s (%d%% Coverage)", r.Type, r.Coverage),
			Subtitle:    fmt.Sprintf("Reported: %s • Status: %s", date, r.Status),
			StatusClass: domain.StatusClass(r.Status),
			Status:      r.Status,
			Type:        r.Type,
			Coverage:    r.Coverage,
			Date:        date,
			Place:       r.Place,
		})
	}

	slices.SortStableFunc(rows, func(a, b Row) int {
		return cmp.Compare(b.Coverage, a.Coverage)
	})

	needle := strings.ToLower(strings.TrimSpace(query))
	for _, row := range rows {
		if needle == "" || strings.Contains(strings.ToLower(row.text()), needle) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Dashboard holds the latest snapshot for rendering with a query.
type Dashboard struct {
	mu      sync.RWMutex
	reports []domain.Report
}

func NewDashboard() *Dashboard {
	return &Dashboard{}
}

// Refresh stores a new snapshot.
func (d *Dashboard) Refresh(reports []domain.Report) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reports = reports
}

// View renders the current snapshot filtered by query.
func (d *Dashboard) View(query string) DashboardView {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return RenderDashboard(d.reports, query)
}
