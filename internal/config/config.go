package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	CORSOrigins     []string
	LogLevel        string
	LogFormat       string
	LogFile         string
	ShutdownTimeout time.Duration

	// Report storage. RedisURL, when set, replaces the file slot.
	StorePath      string
	RedisURL       string
	RedisKey       string
	SeedMinReports int

	// Capture flow.
	KeepDraftType bool
	ScorerSeed    uint64

	// Image classifier. An empty URL disables content validation.
	ClassifierURL     string
	ClassifierToken   string
	ClassifierTimeout time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Report event publishing.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaTopic         string
	BatchSize          int
	BatchFlushInterval time.Duration

	// Image offload to S3-compatible storage. Enabled when S3Bucket is set.
	S3Bucket    string
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

// S3Enabled reports whether captured images go to object storage.
func (c *Config) S3Enabled() bool { return c.S3Bucket != "" }

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is read first if present;
// variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	classifierTimeout, err := parseDuration("CLASSIFIER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	seedMin, err := parseInt("SEED_MIN_REPORTS", 15)
	if err != nil {
		return nil, err
	}
	if seedMin < 0 {
		return nil, errors.New("SEED_MIN_REPORTS must not be negative")
	}

	scorerSeed, err := parseSeed()
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		CORSOrigins:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("CORS_ORIGINS", "*")),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		LogFile:         os.Getenv("LOG_FILE"),
		ShutdownTimeout: shutdownTimeout,

		StorePath:      sharedcfg.EnvOrDefault("STORE_PATH", "data/reports.json"),
		RedisURL:       os.Getenv("REDIS_URL"),
		RedisKey:       sharedcfg.EnvOrDefault("REDIS_KEY", "reports"),
		SeedMinReports: seedMin,

		KeepDraftType: os.Getenv("CAPTURE_KEEP_TYPE") == "true",
		ScorerSeed:    scorerSeed,

		ClassifierURL:     os.Getenv("CLASSIFIER_URL"),
		ClassifierToken:   os.Getenv("CLASSIFIER_TOKEN"),
		ClassifierTimeout: classifierTimeout,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseCacheSize(),

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:         sharedcfg.EnvOrDefault("KAFKA_TOPIC", "ecoguard-report-events"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    sharedcfg.EnvOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
	}

	if cfg.RedisURL == "" && cfg.StorePath == "" {
		return nil, errors.New("STORE_PATH is required when REDIS_URL is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.S3Enabled() && (cfg.S3AccessKey == "" || cfg.S3SecretKey == "") {
		return nil, errors.New("S3_BUCKET is set but S3_ACCESS_KEY or S3_SECRET_KEY is missing")
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// parseSeed returns 0 (time-seeded) when SCORER_SEED is unset.
func parseSeed() (uint64, error) {
	s := os.Getenv("SCORER_SEED")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid SCORER_SEED: %w", err)
	}
	return n, nil
}

func parseCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
