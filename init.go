package main

import (
	"context"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/parceldesk/shipbridge/internal/config"
	"github.com/parceldesk/shipbridge/internal/events"
	"github.com/parceldesk/shipbridge/internal/hostorders"
	"github.com/parceldesk/shipbridge/internal/jobs"
	"github.com/parceldesk/shipbridge/internal/ratelimit"
	"github.com/parceldesk/shipbridge/internal/telemetry"
	"github.com/parceldesk/shipbridge/internal/tracking"
	"github.com/parceldesk/shipbridge/pkg/carrier"
	"github.com/parceldesk/shipbridge/pkg/carrier/shiprocket"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

// dependencies collects everything runServe wires together.
type dependencies struct {
	Carrier  *shiprocket.Client
	Tracking *tracking.Service
	Orders   hostorders.Store
	Events   events.Publisher
	Limiter  *ratelimit.Limiter
	Jobs     *jobs.Manager
	Metrics  *telemetry.Metrics
}

// Close releases everything that holds external resources.
func (d *dependencies) Close() {
	d.Limiter.Stop()
	d.Events.Close()
}

func initDependencies(cfg *config.Config, logger *otelzap.Logger) (*dependencies, error) {
	orders := hostorders.NewMemoryStore()

	preference := carrier.PreferCheapest
	if cfg.CourierPreference == "fastest" {
		preference = carrier.PreferFastest
	}

	client := shiprocket.New(shiprocket.Config{
		Email:          cfg.ShiprocketEmail,
		Password:       cfg.ShiprocketPassword,
		BaseURL:        cfg.ShiprocketBaseURL,
		PickupLocation: cfg.PickupLocation,
		Preference:     preference,
		CacheSize:      cfg.EstimateCacheSize,
		CacheTTL:       cfg.EstimateCacheTTL,
		Timeout:        cfg.CarrierTimeout,
		UseMock:        cfg.ShiprocketUseMock,
	}, logger)

	// Background document generation lands on the host order once ready.
	client.SetDocumentSink(func(shipment carrier.Shipment, docs carrier.Documents) {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.CarrierTimeout)
		defer cancel()
		hostOrderID := tracking.StripOrderSuffix(shipment.ExternalOrderID)
		if err := orders.SaveDocuments(ctx, hostOrderID, docs); err != nil {
			logger.Warn("Failed to save generated documents",
				zap.String("awb", shipment.Waybill), zap.Error(err))
		}
	})

	var publisher events.Publisher = events.Nop{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher = events.NewKafka(brokers, cfg.KafkaTopic)
		logger.Info("Event publishing enabled",
			zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaTopic))
	}

	trackSvc := tracking.New(tracking.NewMemoryStore(), client, publisher, orders, logger)

	limiter := ratelimit.New(cfg.RateLimit, cfg.RateLimitWindow)
	limiter.StartCleanup(cfg.RateLimitWindow)

	manager := jobs.NewManager(logger)
	if err := manager.RegisterTokenRefresh(cfg.TokenRefreshSchedule, client); err != nil {
		return nil, err
	}

	return &dependencies{
		Carrier:  client,
		Tracking: trackSvc,
		Orders:   orders,
		Events:   publisher,
		Limiter:  limiter,
		Jobs:     manager,
		Metrics:  telemetry.NewMetrics(),
	}, nil
}
