package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Hermes/pkg/models"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.Tick(models.NBA)
	m.Tick(models.NBA)
	m.FetchError(models.MLB)
	m.LeagueState(models.NBA, models.ModeLive, 20*time.Second, 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Ticks.WithLabelValues("NBA")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchErrors.WithLabelValues("MLB")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LeagueMode.WithLabelValues("NBA")))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.PollInterval.WithLabelValues("NBA")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveGames.WithLabelValues("NBA")))

	_, err = New(reg)
	assert.Error(t, err, "registering twice should fail")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Tick(models.NBA)
		m.Applied(models.NBA, "score")
		m.NotifyError(models.EventScoreUpdate)
		m.LeagueState(models.NBA, models.ModeIdle, time.Hour, 0)
	})
}

func TestHealthHandler(t *testing.T) {
	healthy := HealthHandler(map[string]HealthFunc{
		"redis": func(ctx context.Context) error { return nil },
	})
	rec := httptest.NewRecorder()
	healthy(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	unhealthy := HealthHandler(map[string]HealthFunc{
		"postgres": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	rec = httptest.NewRecorder()
	unhealthy(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "postgres"))
}
