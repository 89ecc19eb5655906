package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/couchcryptid/ecoguard-service/internal/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the service logger from LOG_LEVEL and LOG_FORMAT and sets
// it as the slog default. When LOG_FILE is set, records also go to a
// size-rotated file at the same level.
func NewLogger(cfg *config.Config) *slog.Logger {
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if cfg.LogFile == "" {
		return logger
	}

	file := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	logger = slog.New(teeHandler{
		logger.Handler(),
		newHandler(file, enabledLevel(logger.Handler()), cfg.LogFormat),
	})
	slog.SetDefault(logger)
	return logger
}

func newHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// enabledLevel returns the lowest standard level h accepts.
func enabledLevel(h slog.Handler) slog.Level {
	for _, l := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if h.Enabled(context.Background(), l) {
			return l
		}
	}
	return slog.LevelError
}

// teeHandler fans each record out to every handler that accepts its level.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}
