package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/XavierBriggs/Hermes/pkg/models"
)

// Metrics holds the scheduler collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Ticks             *prometheus.CounterVec
	FetchErrors       *prometheus.CounterVec
	UpdatesApplied    *prometheus.CounterVec
	UpdatesThrottled  *prometheus.CounterVec
	StaleTicks        *prometheus.CounterVec
	GamesRemoved      *prometheus.CounterVec
	GamesCompleted    *prometheus.CounterVec
	StatRefreshErrors *prometheus.CounterVec
	NotifyErrors      *prometheus.CounterVec
	ActiveGames       *prometheus.GaugeVec
	LeagueMode        *prometheus.GaugeVec
	PollInterval      *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) (*Metrics, error) {
	byLeague := []string{"league"}

	m := &Metrics{
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hermes_ticks_total", Help: "league polls executed",
		}, byLeague),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hermes_fetch_errors_total", Help: "score provider fetch failures",
		}, byLeague),
		UpdatesApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hermes_updates_applied_total", Help: "game snapshot updates applied",
		}, []string{"league", "change"}),
		UpdatesThrottled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hermes_updates_throttled_total", Help: "changed games held back by the dwell window",
		}, byLeague),
		StaleTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hermes_stale_ticks_total", Help: "tick results discarded after a schedule rebuild",
		}, byLeague),
		GamesRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hermes_games_removed_total", Help: "games dropped from the provider feed",
		}, byLeague),
		GamesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hermes_games_completed_total", Help: "games moved to the completed set",
		}, byLeague),
		StatRefreshErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hermes_stat_refresh_errors_total", Help: "failed stat refresh triggers",
		}, byLeague),
		NotifyErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hermes_notify_errors_total", Help: "change events a notifier failed to deliver",
		}, []string{"event"}),
		ActiveGames: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hermes_active_games", Help: "games in the active snapshot",
		}, byLeague),
		LeagueMode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hermes_league_mode", Help: "polling mode per league (0 idle, 1 scheduled, 2 live)",
		}, byLeague),
		PollInterval: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hermes_poll_interval_seconds", Help: "current polling interval per league",
		}, byLeague),
	}

	collectors := []prometheus.Collector{
		m.Ticks, m.FetchErrors, m.UpdatesApplied, m.UpdatesThrottled, m.StaleTicks,
		m.GamesRemoved, m.GamesCompleted, m.StatRefreshErrors, m.NotifyErrors,
		m.ActiveGames, m.LeagueMode, m.PollInterval,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) Tick(league models.League) {
	if m == nil {
		return
	}
	m.Ticks.WithLabelValues(string(league)).Inc()
}

func (m *Metrics) FetchError(league models.League) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(string(league)).Inc()
}

func (m *Metrics) Applied(league models.League, change string) {
	if m == nil {
		return
	}
	m.UpdatesApplied.WithLabelValues(string(league), change).Inc()
}

func (m *Metrics) Throttled(league models.League) {
	if m == nil {
		return
	}
	m.UpdatesThrottled.WithLabelValues(string(league)).Inc()
}

func (m *Metrics) Stale(league models.League) {
	if m == nil {
		return
	}
	m.StaleTicks.WithLabelValues(string(league)).Inc()
}

func (m *Metrics) Removed(league models.League) {
	if m == nil {
		return
	}
	m.GamesRemoved.WithLabelValues(string(league)).Inc()
}

func (m *Metrics) Completed(league models.League) {
	if m == nil {
		return
	}
	m.GamesCompleted.WithLabelValues(string(league)).Inc()
}

func (m *Metrics) StatRefreshError(league models.League) {
	if m == nil {
		return
	}
	m.StatRefreshErrors.WithLabelValues(string(league)).Inc()
}

func (m *Metrics) NotifyError(event models.EventType) {
	if m == nil {
		return
	}
	m.NotifyErrors.WithLabelValues(string(event)).Inc()
}

// LeagueState records the gauges derived from one league's schedule entry
func (m *Metrics) LeagueState(league models.League, mode models.Mode, interval time.Duration, active int) {
	if m == nil {
		return
	}
	l := string(league)
	m.LeagueMode.WithLabelValues(l).Set(float64(mode))
	m.PollInterval.WithLabelValues(l).Set(interval.Seconds())
	m.ActiveGames.WithLabelValues(l).Set(float64(active))
}

// HealthFunc reports whether a dependency is reachable
type HealthFunc func(ctx context.Context) error

// Handler serves the Prometheus exposition for the given gatherer
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// HealthHandler runs every check with a short timeout and answers 503 on the first failure
func HealthHandler(checks map[string]HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		for name, check := range checks {
			if err := check(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %s: %v", name, err)))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
