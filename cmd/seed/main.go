// Command seed writes the demo report set into a report store. By default it
// only seeds a store holding fewer than -min reports, the same rule the
// service applies at startup.
//
// Usage:
//
//	go run ./cmd/seed -store data/reports.json
//	go run ./cmd/seed -redis redis://localhost:6379/0 -key reports -force
//	go run ./cmd/seed -store testdata/reports.json -at 2026-04-26T15:10:00Z
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/ecoguard-service/internal/domain"
	"github.com/couchcryptid/ecoguard-service/internal/observability"
	"github.com/couchcryptid/ecoguard-service/internal/store"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	storePath := flag.String("store", "", "path of the JSON report file")
	redisURL := flag.String("redis", "", "redis URL; replaces -store when set")
	redisKey := flag.String("key", "reports", "redis key holding the collection")
	minReports := flag.Int("min", 15, "seed only when the store holds fewer reports than this")
	force := flag.Bool("force", false, "replace the collection regardless of its size")
	at := flag.String("at", "", "fixed RFC3339 timestamp for the seeded reports")
	flag.Parse()

	if *storePath == "" && *redisURL == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -store or -redis")
	}

	if *at != "" {
		ts, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("parse -at: %w", err)
		}
		// Fixed clock for reproducible fixture timestamps.
		domain.SetClock(clockwork.NewFakeClockAt(ts))
		defer domain.SetClock(nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var slot store.Slot
	if *redisURL != "" {
		rs, err := store.NewRedisSlot(ctx, *redisURL, *redisKey)
		if err != nil {
			return err
		}
		defer rs.Close()
		slot = rs
	} else {
		if err := os.MkdirAll(filepath.Dir(*storePath), 0o755); err != nil {
			return err
		}
		slot = store.NewFileSlot(*storePath)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reports := store.New(slot, logger, observability.NewMetricsForTesting())
	existing, err := reports.Load(ctx)
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}

	threshold := *minReports
	if *force {
		threshold = len(existing) + 1
	}
	seeded, err := reports.Seed(ctx, threshold, domain.DemoReports())
	if err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	if !seeded {
		log.Printf("store already holds %d reports (min %d), nothing to do; use -force to replace", len(existing), *minReports)
		return nil
	}
	log.Printf("seeded %d demo reports, replaced %d", reports.Len(), len(existing))
	return nil
}
