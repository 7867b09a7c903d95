package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parceldesk/shipbridge/internal/server"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "shipbridge",
	Short:   "ParcelDesk Shipping Bridge - Shiprocket carrier integration service",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize telemetry
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	deps, err := initDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	logger.Info("Starting ParcelDesk Shipping Bridge",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Bool("mock_carrier", cfg.ShiprocketUseMock),
	)

	deps.Jobs.Start()
	defer deps.Jobs.Stop()

	srv := server.New(server.Config{
		Port:          cfg.Port,
		WebhookSecret: cfg.WebhookSecret,
		AdminToken:    cfg.AdminToken,
	}, deps.Carrier, deps.Tracking, deps.Orders, deps.Limiter, logger, deps.Metrics)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
