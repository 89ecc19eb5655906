package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/ecoguard-service/internal/domain"
	"github.com/couchcryptid/ecoguard-service/internal/store"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// retryAfterSeconds is suggested to clients while the classifier loads.
const retryAfterSeconds = "5"

var errorStatus = []struct {
	err    error
	status int
}{
	{domain.ErrInputNotReady, http.StatusConflict},
	{domain.ErrSubmitInProgress, http.StatusConflict},
	{domain.ErrStaleAttempt, http.StatusConflict},
	{domain.ErrValidatorNotReady, http.StatusServiceUnavailable},
	{domain.ErrValidationRejected, http.StatusUnprocessableEntity},
	{store.ErrReportNotFound, http.StatusNotFound},
	{store.ErrIndexOutOfRange, http.StatusNotFound},
	{domain.ErrUnknownCity, http.StatusNotFound},
	{domain.ErrUnknownDestination, http.StatusNotFound},
	{domain.ErrUnknownWaterBodyType, http.StatusBadRequest},
	{domain.ErrEmptyImage, http.StatusBadRequest},
	{domain.ErrInvalidCoordinate, http.StatusBadRequest},
}

// statusFor maps a service error to an HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// badRequest marks request-decoding failures.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func writeError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	var br badRequest
	status := statusFor(err)
	if errors.As(err, &br) {
		status = http.StatusBadRequest
	}

	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
