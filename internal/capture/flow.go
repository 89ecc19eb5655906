package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/ecoguard-service/internal/domain"
	"github.com/couchcryptid/ecoguard-service/internal/observability"
	"github.com/google/uuid"
)

// State is the capture flow's position in the report lifecycle.
type State string

const (
	StateIdle              State = "idle"
	StateImageCaptured     State = "image_captured"
	StateLocationResolving State = "location_resolving"
	StateReady             State = "ready"
	StateValidating        State = "validating"
	StateScoring           State = "scoring"
	StatePersisted         State = "persisted"
)

// Store is the part of the report store the flow writes to.
type Store interface {
	Append(ctx context.Context, r domain.Report) error
	All() []domain.Report
}

// Renderer is re-rendered with a fresh snapshot after every append.
type Renderer interface {
	Refresh(reports []domain.Report)
}

// Options configures the collaborators of a Flow. Nil collaborators are
// optional except Scorer.
type Options struct {
	Scorer     domain.Scorer
	Classifier domain.Classifier // nil skips validation
	Geocoder   domain.Geocoder   // nil skips place enrichment
	Images     domain.ImageStore // nil keeps images inline
	Renderers  []Renderer

	// KeepType carries the chosen water-body type over to the next draft.
	KeepType bool

	ClassifierTimeout time.Duration
	GeocodeTimeout    time.Duration
}

// Result is what a successful submission shows on the analysis view.
type Result struct {
	Report   domain.Report      `json:"report"`
	Advisory string             `json:"advisory"`
	Color    string             `json:"color"`
	Next     domain.Destination `json:"next"`
}

// Snapshot is a point-in-time copy of the draft and flow state.
type Snapshot struct {
	State    State        `json:"state"`
	Draft    domain.Draft `json:"draft"`
	HasImage bool         `json:"hasImage"`
	Attempt  uint64       `json:"attempt"`
}

// Flow drives one draft from image capture to a persisted report.
type Flow struct {
	store   Store
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics

	mu         sync.Mutex
	draft      domain.Draft
	state      State
	attempt    uint64
	submitting bool
	last       *Result
}

// New creates a flow with an empty draft.
func New(store Store, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Flow {
	if opts.Images == nil {
		opts.Images = domain.InlineImageStore{}
	}
	if opts.Classifier == nil {
		logger.Warn("no image classifier configured, submissions will not be validated")
	}
	return &Flow{
		store:   store,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
		draft:   domain.NewDraft(),
		state:   StateIdle,
	}
}

// CaptureImage stores a new image on the draft. Any classification still in
// flight for the previous image becomes stale.
func (f *Flow) CaptureImage(img domain.Image) error {
	if len(img.Data) == 0 {
		return domain.ErrEmptyImage
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.draft.Image = img
	f.attempt++
	if f.state != StateLocationResolving {
		f.settleLocked()
	}
	return nil
}

// BeginLocate marks the draft as waiting for a location fix.
func (f *Flow) BeginLocate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateLocationResolving
}

// ResolveLocation asks the locator for a fix and stores it on the draft. A
// failed fix substitutes the fallback coordinate, so the draft always ends
// up with a location.
func (f *Flow) ResolveLocation(ctx context.Context, locator domain.Locator) (domain.Coordinate, domain.LocationSource) {
	f.BeginLocate()

	coord, err := locator.Locate(ctx)
	source := domain.LocationDevice
	if err != nil {
		f.logger.Warn("location unavailable, using fallback", "error", err,
			"lat", domain.FallbackLocation.Lat, "lng", domain.FallbackLocation.Lng)
		f.metrics.LocationFallbacks.Inc()
		coord = domain.FallbackLocation
		source = domain.LocationFallback
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Location = &coord
	f.draft.LocationSource = source
	f.settleLocked()
	return coord, source
}

// SetType chooses the water-body type for the draft.
func (f *Flow) SetType(t domain.WaterBodyType) error {
	if _, err := domain.ParseWaterBodyType(string(t)); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Type = t
	return nil
}

// Snapshot returns the current draft and state.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.draft
	if d.Location != nil {
		loc := *d.Location
		d.Location = &loc
	}
	return Snapshot{State: f.state, Draft: d, HasImage: d.HasImage(), Attempt: f.attempt}
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// LastResult returns the most recent successful submission.
func (f *Flow) LastResult() (Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		return Result{}, false
	}
	return *f.last, true
}

// Submit validates, scores and persists the draft. The flow lock is not held
// while the classifier runs; an image captured meanwhile makes the attempt
// stale and nothing is persisted.
func (f *Flow) Submit(ctx context.Context) (Result, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return Result{}, domain.ErrSubmitInProgress
	}
	if !f.draft.Complete() {
		f.mu.Unlock()
		return Result{}, domain.ErrInputNotReady
	}
	if f.opts.Classifier != nil && !f.opts.Classifier.Ready() {
		f.mu.Unlock()
		f.metrics.ValidationOutcomes.WithLabelValues("not_ready").Inc()
		return Result{}, domain.ErrValidatorNotReady
	}
	f.submitting = true
	f.state = StateValidating
	attempt := f.attempt
	draft := f.draft
	f.mu.Unlock()

	if err := f.validate(ctx, draft.Image); err != nil {
		f.finish(attempt, StateReady)
		return Result{}, err
	}

	f.mu.Lock()
	if f.attempt != attempt {
		f.submitting = false
		f.mu.Unlock()
		f.logger.Info("discarding stale capture attempt", "attempt", attempt)
		return Result{}, domain.ErrStaleAttempt
	}
	f.state = StateScoring
	f.mu.Unlock()

	report, err := f.buildReport(ctx, draft)
	if err != nil {
		f.finish(attempt, StateReady)
		return Result{}, err
	}

	if err := f.store.Append(ctx, report); err != nil {
		f.finish(attempt, StateReady)
		return Result{}, fmt.Errorf("save report: %w", err)
	}
	f.metrics.ReportsSubmitted.WithLabelValues(string(report.Status)).Inc()

	snapshot := f.store.All()
	for _, r := range f.opts.Renderers {
		r.Refresh(snapshot)
	}

	result := Result{
		Report:   report,
		Advisory: domain.Advisory(report.Status),
		Color:    domain.StatusColor(report.Status),
		Next:     domain.DestinationAnalysis,
	}

	f.mu.Lock()
	if f.attempt == attempt {
		next := domain.NewDraft()
		if f.opts.KeepType {
			next.Type = f.draft.Type
		}
		f.draft = next
		f.state = StatePersisted
	}
	f.last = &result
	f.submitting = false
	f.mu.Unlock()

	f.logger.Info("report submitted",
		"report_id", report.ID,
		"type", report.Type,
		"coverage", report.Coverage,
		"status", report.Status,
		"location_source", report.LocationSource,
	)
	return result, nil
}

// validate applies the water-body policy. Classifier failures other than
// "still loading" let the submission through.
func (f *Flow) validate(ctx context.Context, img domain.Image) error {
	if f.opts.Classifier == nil {
		f.metrics.ValidationOutcomes.WithLabelValues("skipped").Inc()
		return nil
	}

	if f.opts.ClassifierTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.ClassifierTimeout)
		defer cancel()
	}

	labels, err := f.opts.Classifier.Classify(ctx, img)
	switch {
	case errors.Is(err, domain.ErrValidatorNotReady):
		f.metrics.ValidationOutcomes.WithLabelValues("not_ready").Inc()
		return domain.ErrValidatorNotReady
	case err != nil:
		f.logger.Warn("image validation failed, accepting image", "error", err)
		f.metrics.ValidationOutcomes.WithLabelValues("bypassed").Inc()
		return nil
	}

	match, ok := domain.MatchWaterLabel(labels)
	if !ok {
		f.metrics.ValidationOutcomes.WithLabelValues("rejected").Inc()
		top := ""
		if len(labels) > 0 {
			top = labels[0].Label
		}
		f.logger.Info("image rejected", "labels", len(labels), "top_label", top)
		return domain.ErrValidationRejected
	}
	f.metrics.ValidationOutcomes.WithLabelValues("accepted").Inc()
	f.logger.Debug("image accepted", "label", match.Label, "score", match.Score)
	return nil
}

func (f *Flow) buildReport(ctx context.Context, draft domain.Draft) (domain.Report, error) {
	assessment := f.opts.Scorer.Assess(draft.Image)
	id := uuid.NewString()

	ref, err := f.opts.Images.Put(ctx, id, draft.Image)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyImage) {
			return domain.Report{}, err
		}
		f.logger.Warn("image upload failed, storing inline", "report_id", id, "error", err)
		ref = draft.Image.DataURL()
	}

	report := domain.Report{
		ID:             id,
		Image:          ref,
		Lat:            draft.Location.Lat,
		Lng:            draft.Location.Lng,
		Type:           draft.Type,
		Coverage:       assessment.Coverage,
		HealthScore:    assessment.HealthScore,
		Status:         assessment.Status,
		Timestamp:      domain.Now(),
		LocationSource: draft.LocationSource,
	}

	if f.opts.Geocoder != nil {
		geoCtx := ctx
		if f.opts.GeocodeTimeout > 0 {
			var cancel context.CancelFunc
			geoCtx, cancel = context.WithTimeout(ctx, f.opts.GeocodeTimeout)
			defer cancel()
		}
		report = domain.EnrichWithPlace(geoCtx, report, f.opts.Geocoder, f.logger)
	}
	return report, nil
}

// finish releases the submission guard after a failed attempt. The state is
// only touched if no newer image arrived meanwhile.
func (f *Flow) finish(attempt uint64, state State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if f.attempt == attempt {
		f.state = state
	}
}

// settleLocked derives the resting state from the draft contents.
func (f *Flow) settleLocked() {
	switch {
	case f.draft.Complete():
		f.state = StateReady
	case f.draft.HasImage():
		f.state = StateImageCaptured
	default:
		f.state = StateIdle
	}
}
