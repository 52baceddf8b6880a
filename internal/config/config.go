package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/SAP-F-2025/evaluation-console/internal/utils"
)

const (
	DefaultGatewayBaseURL = "http://localhost:5000/api"
	// DefaultMaxUploadSize matches the backend's 16 MiB request limit.
	DefaultMaxUploadSize int64 = 16 << 20
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	Gateway GatewayConfig
	Events  EventsConfig

	RedisURL        string
	HistoryCacheTTL time.Duration
	SessionIdleTTL  time.Duration
	MaxUploadSize   int64

	// Location is used for history date buckets and report dates.
	Location *time.Location
}

type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
}

type EventsConfig struct {
	Topic        string
	KafkaBrokers []string
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (*Config, error) {
	var errs []error

	cfg := &Config{
		Port:        GetEnv("PORT", "8080"),
		Environment: GetEnv("ENVIRONMENT", "development"),
		LogLevel:    utils.ParseLevel(GetEnv("LOG_LEVEL", "info")),
		Gateway: GatewayConfig{
			BaseURL: strings.TrimRight(GetEnv("GATEWAY_BASE_URL", DefaultGatewayBaseURL), "/"),
		},
		Events: EventsConfig{
			Topic:        GetEnv("EVENTS_TOPIC", "evaluation-console.events"),
			KafkaBrokers: splitList(GetEnv("KAFKA_BROKERS")),
		},
		RedisURL: GetEnv("REDIS_URL"),
	}

	var err error
	if cfg.Gateway.Timeout, err = getDuration("GATEWAY_TIMEOUT", 300*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.HistoryCacheTTL, err = getDuration("HISTORY_CACHE_TTL", 2*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.SessionIdleTTL, err = getDuration("SESSION_IDLE_TTL", 30*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.MaxUploadSize, err = getInt64("MAX_UPLOAD_SIZE", DefaultMaxUploadSize); err != nil {
		errs = append(errs, err)
	}

	cfg.Location = time.Local
	if tz := GetEnv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
		} else {
			cfg.Location = loc
		}
	}

	if cfg.Gateway.BaseURL == "" {
		errs = append(errs, errors.New("GATEWAY_BASE_URL must not be empty"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return strings.TrimSpace(value)
}

// getDuration accepts Go durations ("90s") or a bare number of seconds.
func getDuration(key string, def time.Duration) (time.Duration, error) {
	raw := GetEnv(key)
	if raw == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return d, nil
}

func getInt64(key string, def int64) (int64, error) {
	raw := GetEnv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: invalid positive integer %q", key, raw)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
