package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Shiprocket account
	ShiprocketEmail    string `envconfig:"SHIPROCKET_EMAIL"`
	ShiprocketPassword string `envconfig:"SHIPROCKET_PASSWORD"`
	ShiprocketBaseURL  string `envconfig:"SHIPROCKET_BASE_URL" default:"https://apiv2.shiprocket.in"`
	ShiprocketUseMock  bool   `envconfig:"SHIPROCKET_USE_MOCK" default:"false"`
	PickupLocation     string `envconfig:"SHIPROCKET_PICKUP_LOCATION" default:"Primary"`

	// Delivery preference: "cheapest" or "fastest".
	CourierPreference string `envconfig:"COURIER_PREFERENCE" default:"cheapest"`

	// Serviceability cache
	EstimateCacheSize int           `envconfig:"ESTIMATE_CACHE_SIZE" default:"256"`
	EstimateCacheTTL  time.Duration `envconfig:"ESTIMATE_CACHE_TTL" default:"4h"`

	// Carrier call timeout
	CarrierTimeout time.Duration `envconfig:"CARRIER_TIMEOUT" default:"15s"`

	// Periodic forced token refresh, cron spec. The carrier window is ten
	// days; refreshing daily keeps the margin comfortable.
	TokenRefreshSchedule string `envconfig:"TOKEN_REFRESH_SCHEDULE" default:"0 3 * * *"`

	// Inbound webhook authentication and privileged operations
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`
	AdminToken    string `envconfig:"ADMIN_TOKEN"`

	// Public estimate endpoint throttle
	RateLimit       int           `envconfig:"RATE_LIMIT" default:"30"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// Event bus; empty brokers disable publishing
	KafkaBrokers string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"shipbridge.events"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"shipbridge"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.CourierPreference != "cheapest" && cfg.CourierPreference != "fastest" {
		return nil, fmt.Errorf("invalid COURIER_PREFERENCE %q: want cheapest or fastest", cfg.CourierPreference)
	}
	return &cfg, nil
}

// Brokers splits the configured broker list.
func (c *Config) Brokers() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
