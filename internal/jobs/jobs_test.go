package jobs_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/parceldesk/shipbridge/internal/jobs"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) ForceRefresh(ctx context.Context) error {
	c.calls.Add(1)
	return c.err
}

func TestRegisterTokenRefresh_InvalidSchedule(t *testing.T) {
	m := jobs.NewManager(otelzap.New(zap.NewNop()))

	err := m.RegisterTokenRefresh("not a cron spec", &countingRefresher{})

	assert.Error(t, err)
}

func TestTokenRefreshRuns(t *testing.T) {
	m := jobs.NewManager(otelzap.New(zap.NewNop()))
	refresher := &countingRefresher{}

	require.NoError(t, m.RegisterTokenRefresh("@every 50ms", refresher))

	m.Start()
	time.Sleep(120 * time.Millisecond)
	m.Stop()

	assert.GreaterOrEqual(t, refresher.calls.Load(), int32(1))
}
