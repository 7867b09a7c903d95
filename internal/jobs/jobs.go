// Package jobs runs the service's scheduled background work.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// TokenRefresher proactively renews a carrier session.
type TokenRefresher interface {
	ForceRefresh(ctx context.Context) error
}

// Manager owns the cron scheduler.
type Manager struct {
	cron   *cron.Cron
	logger *otelzap.Logger
}

// NewManager creates a scheduler. Jobs are registered separately and nothing
// runs until Start is called.
func NewManager(logger *otelzap.Logger) *Manager {
	return &Manager{
		cron:   cron.New(),
		logger: logger,
	}
}

// RegisterTokenRefresh schedules a proactive carrier token renewal. Renewing
// on a schedule keeps the lazy refresh path from ever paying login latency on
// a customer request.
func (m *Manager) RegisterTokenRefresh(schedule string, refresher TokenRefresher) error {
	_, err := m.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := refresher.ForceRefresh(ctx); err != nil {
			m.logger.Error("Scheduled token refresh failed", zap.Error(err))
			return
		}
		m.logger.Info("Scheduled token refresh completed")
	})
	return err
}

// Start launches the scheduler in its own goroutine.
func (m *Manager) Start() {
	m.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (m *Manager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}
