package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfid/devtracker-site/internal/build"
	"github.com/dfid/devtracker-site/internal/config"
	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
)

type countingBuilder struct {
	mu      sync.Mutex
	calls   atomic.Int32
	running atomic.Int32
	overlap atomic.Bool
	delay   time.Duration
	err     error
	modes   []build.Mode
}

func (c *countingBuilder) Run(ctx context.Context, req build.Request) (*build.Report, error) {
	if c.running.Add(1) > 1 {
		c.overlap.Store(true)
	}
	defer c.running.Add(-1)
	c.calls.Add(1)
	c.mu.Lock()
	c.modes = append(c.modes, req.Mode)
	c.mu.Unlock()
	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
	}
	if c.err != nil {
		return &build.Report{BuildID: "failed", Status: build.StatusFailed}, c.err
	}
	return &build.Report{BuildID: "ok", Status: build.StatusSuccess}, nil
}

func daemonConfig(interval time.Duration) *config.Config {
	cfg := config.Default()
	cfg.Daemon.Interval = interval
	return cfg
}

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	_, err := New(daemonConfig(0), &countingBuilder{}, nil)
	require.Error(t, err)
	assert.True(t, foundation.HasCategory(err, foundation.CategoryDaemon))
}

func TestRunBuildsImmediatelyAndRepeatsWithoutOverlap(t *testing.T) {
	cb := &countingBuilder{delay: 30 * time.Millisecond}
	d, err := New(daemonConfig(10*time.Millisecond), cb, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return cb.calls.Load() >= 3 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.False(t, cb.overlap.Load(), "builds overlapped")
	cb.mu.Lock()
	defer cb.mu.Unlock()
	for _, m := range cb.modes {
		assert.Equal(t, build.ModeBuild, m)
	}
}

func TestRunBuildRecordsStatus(t *testing.T) {
	cb := &countingBuilder{}
	d, err := New(daemonConfig(time.Hour), cb, nil)
	require.NoError(t, err)
	assert.Equal(t, HealthStatusStarting, d.Health().Status)

	d.RunBuild(context.Background())
	st := d.Status()
	assert.Equal(t, 1, st.Builds)
	assert.Zero(t, st.Failures)
	require.NotNil(t, st.LastReport)
	assert.Equal(t, "ok", st.LastReport.BuildID)
	assert.Equal(t, HealthStatusHealthy, d.Health().Status)

	cb.err = errors.New("store unreachable")
	d.RunBuild(context.Background())
	st = d.Status()
	assert.Equal(t, 2, st.Builds)
	assert.Equal(t, 1, st.Failures)
	assert.Equal(t, "store unreachable", st.LastError)
	h := d.Health()
	assert.Equal(t, HealthStatusDegraded, h.Status)
	assert.Equal(t, "store unreachable", h.Message)
}

func TestHandler(t *testing.T) {
	cb := &countingBuilder{}
	d, err := New(daemonConfig(time.Hour), cb, prom.NewRegistry())
	require.NoError(t, err)
	d.RunBuild(context.Background())
	h := d.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, HealthStatusHealthy, health.Status)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 1, st.Builds)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	cb.err = errors.New("boom")
	d.RunBuild(context.Background())
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSchedulerRunsJob(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	var runs atomic.Int32
	id, err := s.SchedulePeriodicBuild(context.Background(), time.Hour, func(context.Context) { runs.Add(1) })
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())
}
