package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/ecoguard-service/internal/capture"
	"github.com/couchcryptid/ecoguard-service/internal/domain"
	"github.com/couchcryptid/ecoguard-service/internal/view"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const (
	maxImageBytes  = 10 << 20
	maxJSONBytes   = 64 << 10
	exportFilename = "ecoguard_reports.json"
)

var errNoAnalysis = errors.New("no report has been analyzed yet")

// ReportSource is the read side of the report store.
type ReportSource interface {
	All() []domain.Report
	Export() ([]byte, error)
}

// API serves the capture flow and the map and dashboard views.
type API struct {
	flow    *capture.Flow
	views   *view.Views
	reports ReportSource
	logger  *slog.Logger
}

// NewAPI wires the handlers to the application services.
func NewAPI(flow *capture.Flow, views *view.Views, reports ReportSource, logger *slog.Logger) *API {
	return &API{flow: flow, views: views, reports: reports, logger: logger}
}

func (a *API) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/capture", a.handleCaptureState)
	mux.HandleFunc("POST /api/capture/image", a.handleCaptureImage)
	mux.HandleFunc("POST /api/capture/location", a.handleCaptureLocation)
	mux.HandleFunc("PUT /api/capture/type", a.handleCaptureType)
	mux.HandleFunc("POST /api/capture/submit", a.handleSubmit)

	mux.HandleFunc("GET /api/map", a.handleMap)
	mux.HandleFunc("PUT /api/map/filter", a.handleMapFilter)
	mux.HandleFunc("PUT /api/map/focus", a.handleMapFocus)
	mux.HandleFunc("GET /api/map/cities", a.handleCities)

	mux.HandleFunc("GET /api/dashboard", a.handleDashboard)
	mux.HandleFunc("GET /api/reports", a.handleReports)
	mux.HandleFunc("GET /api/reports/export", a.handleExport)
	mux.HandleFunc("DELETE /api/reports/{id}", a.handleResolve)
	mux.HandleFunc("DELETE /api/reports/at/{index}", a.handleResolveAt)

	mux.HandleFunc("GET /api/views/{destination}", a.handleNavigate)
}

// --- capture ---

func (a *API) handleCaptureState(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, a.flow.Snapshot())
}

func (a *API) handleCaptureImage(w http.ResponseWriter, r *http.Request) {
	img, err := readImage(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.flow.CaptureImage(img); err != nil {
		a.fail(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, a.flow.Snapshot())
}

// readImage accepts either a multipart form with an "image" part or a raw
// image body.
func readImage(w http.ResponseWriter, r *http.Request) (domain.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("image")
		if err != nil {
			return domain.Image{}, badRequest{msg: "missing image form field"}
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return domain.Image{}, badRequest{msg: "read image: " + err.Error()}
		}
		return newImage(data, header.Header.Get("Content-Type")), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return domain.Image{}, badRequest{msg: "read image: " + err.Error()}
	}
	return newImage(data, mediaType), nil
}

func newImage(data []byte, contentType string) domain.Image {
	if !strings.HasPrefix(contentType, "image/") && len(data) > 0 {
		contentType = http.DetectContentType(data)
	}
	return domain.Image{Data: data, ContentType: contentType}
}

type locationRequest struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Error string   `json:"error"`
}

type locationResponse struct {
	Location domain.Coordinate     `json:"location"`
	Source   domain.LocationSource `json:"source"`
	State    capture.State         `json:"state"`
}

// handleCaptureLocation takes the device's fix, or the reason it had none.
// An out-of-range fix is rejected and the draft keeps its location.
func (a *API) handleCaptureLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	var locator domain.FixLocator
	switch {
	case req.Error != "":
		locator.Err = errors.New(req.Error)
	case req.Lat == nil || req.Lng == nil:
		locator.Err = errors.New("no position reported")
	default:
		locator.Fix = domain.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
		// A malformed fix is a client bug, not a missing fix.
		if err := locator.Fix.Validate(); err != nil {
			a.fail(w, r, err)
			return
		}
	}

	loc, src := a.flow.ResolveLocation(r.Context(), locator)
	sharedobs.WriteJSON(w, http.StatusOK, locationResponse{Location: loc, Source: src, State: a.flow.State()})
}

type typeRequest struct {
	Type string `json:"type"`
}

func (a *API) handleCaptureType(w http.ResponseWriter, r *http.Request) {
	var req typeRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	t, err := domain.ParseWaterBodyType(req.Type)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.flow.SetType(t); err != nil {
		a.fail(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, a.flow.Snapshot())
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	res, err := a.flow.Submit(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusCreated, res)
}

// --- map ---

// handleMap returns the current scene. ?filter renders a one-off view and
// leaves the stored filter alone.
func (a *API) handleMap(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("filter"); raw != "" {
		f, err := view.ParseFilter(raw)
		if err != nil {
			a.fail(w, r, badRequest{msg: err.Error()})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, a.views.Map.SceneFor(f))
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, a.views.Map.Scene())
}

type filterRequest struct {
	Filter string `json:"filter"`
}

func (a *API) handleMapFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	f, err := view.ParseFilter(req.Filter)
	if err != nil {
		a.fail(w, r, badRequest{msg: err.Error()})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, a.views.Map.SetFilter(f))
}

type focusRequest struct {
	City string `json:"city"`
}

func (a *API) handleMapFocus(w http.ResponseWriter, r *http.Request) {
	var req focusRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	scene, err := a.views.Map.FocusCity(r.Context(), req.City)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, scene)
}

func (a *API) handleCities(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, domain.CityNames())
}

// --- dashboard and reports ---

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, a.views.Dashboard.View(r.URL.Query().Get("q")))
}

func (a *API) handleReports(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, a.reports.All())
}

func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := a.reports.Export()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exportFilename))
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // client may have gone away
}

func (a *API) handleResolve(w http.ResponseWriter, r *http.Request) {
	report, err := a.views.Resolve(r.Context(), r.PathValue("id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, report)
}

func (a *API) handleResolveAt(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		a.fail(w, r, badRequest{msg: "index must be an integer"})
		return
	}
	report, err := a.views.ResolveAt(r.Context(), index)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, report)
}

// --- navigation ---

type homeView struct {
	Totals view.Totals `json:"totals"`
}

// handleNavigate re-renders from the store before returning the requested
// view, so a view always reflects the current collection on entry.
func (a *API) handleNavigate(w http.ResponseWriter, r *http.Request) {
	dest, err := domain.ParseDestination(r.PathValue("destination"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.views.RefreshFromStore()

	switch dest {
	case domain.DestinationHome:
		sharedobs.WriteJSON(w, http.StatusOK, homeView{Totals: a.views.Dashboard.View("").Totals})
	case domain.DestinationCapture:
		sharedobs.WriteJSON(w, http.StatusOK, a.flow.Snapshot())
	case domain.DestinationMap:
		sharedobs.WriteJSON(w, http.StatusOK, a.views.Map.Scene())
	case domain.DestinationAnalysis:
		res, ok := a.flow.LastResult()
		if !ok {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": errNoAnalysis.Error()})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, res)
	case domain.DestinationDashboard:
		sharedobs.WriteJSON(w, http.StatusOK, a.views.Dashboard.View(r.URL.Query().Get("q")))
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, a.logger, r, err)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest{msg: "invalid JSON body: " + err.Error()}
	}
	return nil
}
