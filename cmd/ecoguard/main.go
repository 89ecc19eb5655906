package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/couchcryptid/ecoguard-service/internal/adapter/classifier"
	httpadapter "github.com/couchcryptid/ecoguard-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/ecoguard-service/internal/adapter/kafka"
	"github.com/couchcryptid/ecoguard-service/internal/adapter/mapbox"
	s3adapter "github.com/couchcryptid/ecoguard-service/internal/adapter/s3"
	"github.com/couchcryptid/ecoguard-service/internal/capture"
	"github.com/couchcryptid/ecoguard-service/internal/config"
	"github.com/couchcryptid/ecoguard-service/internal/domain"
	"github.com/couchcryptid/ecoguard-service/internal/observability"
	"github.com/couchcryptid/ecoguard-service/internal/pipeline"
	"github.com/couchcryptid/ecoguard-service/internal/store"
	"github.com/couchcryptid/ecoguard-service/internal/view"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const outboxCapacity = 1024

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Report store: Redis when REDIS_URL is set, otherwise a local JSON file.
	slot, closeSlot, err := openSlot(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open report store", "error", err)
		os.Exit(1)
	}
	defer closeSlot()

	reports := store.New(slot, logger, metrics)
	if _, err := reports.Load(ctx); err != nil {
		logger.Error("failed to load reports", "error", err)
		os.Exit(1)
	}
	if _, err := reports.Seed(ctx, cfg.SeedMinReports, domain.DemoReports()); err != nil {
		logger.Error("failed to seed reports", "error", err)
		os.Exit(1)
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		if err != nil {
			logger.Error("failed to create geocoder cache", "error", err)
			os.Exit(1)
		}
		geocoder = cached
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var validator domain.Classifier
	if cfg.ClassifierURL != "" {
		c := classifier.NewClient(cfg.ClassifierURL, cfg.ClassifierToken, cfg.ClassifierTimeout, logger, metrics)
		go c.Warm(ctx)
		validator = c
	}

	var images domain.ImageStore
	if cfg.S3Enabled() {
		s, err := s3adapter.NewImageStore(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to create image store", "error", err)
			os.Exit(1)
		}
		images = s
		logger.Info("image offload enabled", "bucket", cfg.S3Bucket)
	}

	views := view.New(reports, view.NewMapView(geocoder, logger), view.NewDashboard(), logger, metrics)
	views.RefreshFromStore()

	seed := cfg.ScorerSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // not security sensitive
	}
	flow := capture.New(reports, capture.Options{
		Scorer:            domain.NewRandomScorer(seed),
		Classifier:        validator,
		Geocoder:          geocoder,
		Images:            images,
		Renderers:         []capture.Renderer{views},
		KeepType:          cfg.KeepDraftType,
		ClassifierTimeout: cfg.ClassifierTimeout,
		GeocodeTimeout:    cfg.MapboxTimeout,
	}, logger, metrics)

	var ready sharedobs.ReadinessChecker = alwaysReady{}
	var writer *kafkaadapter.Writer
	pipelineDone := make(chan struct{})
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		outbox := pipeline.NewOutbox(outboxCapacity, cfg.BatchFlushInterval, nil, logger, metrics)
		reports.OnMutation(outbox.Enqueue)

		p := pipeline.New(outbox, writer, logger, metrics, cfg.BatchSize)
		ready = p

		// Start event pipeline.
		go func() {
			defer close(pipelineDone)
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		close(pipelineDone)
		logger.Info("report event publishing disabled")
	}

	api := httpadapter.NewAPI(flow, views, reports, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, api, ready, cfg.CORSOrigins, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		logger.Warn("event pipeline did not stop before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func openSlot(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Slot, func(), error) {
	if cfg.RedisURL != "" {
		slot, err := store.NewRedisSlot(ctx, cfg.RedisURL, cfg.RedisKey)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("report store on redis", "key", cfg.RedisKey)
		return slot, func() {
			if err := slot.Close(); err != nil {
				logger.Error("redis close error", "error", err)
			}
		}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0o755); err != nil {
		return nil, nil, err
	}
	logger.Info("report store on file", "path", cfg.StorePath)
	return store.NewFileSlot(cfg.StorePath), func() {}, nil
}
