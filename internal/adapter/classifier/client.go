// Package classifier talks to a hosted image-classification model that
// follows the Hugging Face inference API shape: raw image bytes in, a ranked
// list of {label, score} out.
package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/ecoguard-service/internal/domain"
	"github.com/couchcryptid/ecoguard-service/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// probeImage is a 1x1 PNG sent while warming the model.
var probeImage, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg==")

// Client implements domain.Classifier over HTTP.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
}

// NewClient creates a classifier client. It reports not ready until Warm or
// a successful Classify gets an answer from the model.
func NewClient(url, token string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

func (c *Client) Ready() bool {
	return c.ready.Load()
}

// Warm probes the endpoint until the model answers or ctx is cancelled.
// Run it in the background at startup.
func (c *Client) Warm(ctx context.Context) {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		_, err := c.Classify(ctx, domain.Image{Data: probeImage, ContentType: "image/png"})
		if err == nil || c.Ready() {
			c.logger.Info("image classifier ready", "attempts", attempt)
			return
		}
		if ctx.Err() != nil {
			return
		}
		c.logger.Debug("image classifier not ready yet", "attempt", attempt, "retry_in", backoff, "error", err)

		if !retry.SleepWithContext(ctx, backoff) {
			return
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

// Classify sends the image and returns the model's labels. A 503 means the
// model is loading and maps to domain.ErrValidatorNotReady for this call
// only. Once the model has answered the client stays ready, so a later call
// goes through as soon as the endpoint recovers.
func (c *Client) Classify(ctx context.Context, img domain.Image) ([]domain.Label, error) {
	start := time.Now()
	defer func() {
		c.metrics.ClassifierDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		if c.Ready() {
			c.logger.Warn("image classifier reloading model")
		}
		return nil, fmt.Errorf("%w: model loading", domain.ErrValidatorNotReady)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		// The model answered, it just did not like the request.
		if resp.StatusCode < http.StatusInternalServerError {
			c.markReady()
		}
		return nil, fmt.Errorf("classifier error: status %d: %s", resp.StatusCode, body)
	}

	var labels []domain.Label
	if err := json.NewDecoder(resp.Body).Decode(&labels); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	c.markReady()
	return labels, nil
}

func (c *Client) markReady() {
	if !c.ready.Swap(true) {
		c.metrics.ClassifierReady.Set(1)
	}
}
