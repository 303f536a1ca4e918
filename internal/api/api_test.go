package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/XavierBriggs/Hermes/internal/metrics"
	"github.com/XavierBriggs/Hermes/internal/scheduler"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

type fakeSource struct {
	games      []models.Game
	states     []scheduler.LeagueState
	refreshErr error
	refreshed  []models.League
}

func (f *fakeSource) ActiveGames() []models.Game { return f.games }

func (f *fakeSource) ActiveGamesForLeague(league models.League) []models.Game {
	var out []models.Game
	for _, g := range f.games {
		if g.League == league {
			out = append(out, g)
		}
	}
	return out
}

func (f *fakeSource) LeagueStates() []scheduler.LeagueState { return f.states }

func (f *fakeSource) LeagueState(league models.League) (scheduler.LeagueState, error) {
	for _, st := range f.states {
		if st.League == league {
			return st, nil
		}
	}
	return scheduler.LeagueState{}, fmt.Errorf("league %s: %w", league, models.ErrUnknownLeague)
}

func (f *fakeSource) CheckAndUpdateLeagueGames(ctx context.Context, league models.League, includeStatsRefresh bool) (scheduler.TickResult, error) {
	if _, err := f.LeagueState(league); err != nil {
		return scheduler.TickResult{}, err
	}
	if f.refreshErr != nil {
		return scheduler.TickResult{}, f.refreshErr
	}
	f.refreshed = append(f.refreshed, league)
	return scheduler.TickResult{League: league, Fetched: 3, Applied: 1}, nil
}

func newTestRouter(src *fakeSource, checks map[string]metrics.HealthFunc) http.Handler {
	h := NewHandler(src, checks, "hermes", zap.NewNop())
	return NewRouter(RouterConfig{
		Handler: h,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "# metrics")
		}),
		CORSOrigins: []string{"https://scores.example.com"},
	})
}

func testFixture() *fakeSource {
	next := time.Date(2026, 1, 15, 23, 0, 20, 0, time.UTC)
	return &fakeSource{
		games: []models.Game{
			{GameID: "nba-1", League: models.NBA, Status: models.StatusInProgress},
			{GameID: "nhl-2", League: models.NHL, Status: models.StatusScheduled},
		},
		states: []scheduler.LeagueState{
			{League: models.NBA, DisplayName: "NBA Basketball", Mode: models.ModeLive,
				Status: models.LeagueStatus{HasLive: true}, Interval: 20 * time.Second, NextPoll: next, ActiveGames: 1},
			{League: models.NHL, DisplayName: "NHL Hockey", Mode: models.ModeScheduled,
				Status: models.LeagueStatus{HasScheduled: true}, Interval: 30 * time.Minute, NextPoll: next, ActiveGames: 1},
		},
	}
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetGames(t *testing.T) {
	router := newTestRouter(testFixture(), nil)

	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantCount int
	}{
		{"all leagues", "/api/v1/games", http.StatusOK, 2},
		{"league filter is case-insensitive", "/api/v1/games?league=nba", http.StatusOK, 1},
		{"league without games", "/api/v1/games?league=MLB", http.StatusOK, 0},
		{"unknown league", "/api/v1/games?league=xfl", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, tt.path)
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				var errResp ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
				assert.Equal(t, tt.wantCode, errResp.Code)
				return
			}

			var body struct {
				Games []models.Game `json:"games"`
				Count int           `json:"count"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCount, body.Count)
			assert.NotNil(t, body.Games)
		})
	}
}

func TestGetLeagues(t *testing.T) {
	router := newTestRouter(testFixture(), nil)

	rec := do(t, router, http.MethodGet, "/api/v1/leagues")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Leagues []map[string]interface{} `json:"leagues"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Leagues, 2)
	assert.Equal(t, "NBA", body.Leagues[0]["league"])
	assert.Equal(t, "live", body.Leagues[0]["mode"])
	assert.Equal(t, "20s", body.Leagues[0]["interval"])
	assert.Equal(t, "scheduled", body.Leagues[1]["mode"])
}

func TestGetLeague(t *testing.T) {
	router := newTestRouter(testFixture(), nil)

	rec := do(t, router, http.MethodGet, "/api/v1/leagues/nhl")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LeagueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.NHL, resp.League)
	assert.Equal(t, int64(30*time.Minute/time.Millisecond), resp.IntervalMS)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/v1/leagues/nfl").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/v1/leagues/cfl").Code)
}

func TestRefreshLeague(t *testing.T) {
	src := testFixture()
	router := newTestRouter(src, nil)

	rec := do(t, router, http.MethodPost, "/api/v1/leagues/NBA/refresh")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.League{models.NBA}, src.refreshed)
	assert.Contains(t, rec.Body.String(), `"fetched":3`)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/api/v1/leagues/MLB/refresh").Code)

	src.refreshErr = errors.New("provider down")
	assert.Equal(t, http.StatusBadGateway, do(t, router, http.MethodPost, "/api/v1/leagues/NBA/refresh").Code)
}

func TestHealthCheck(t *testing.T) {
	healthy := newTestRouter(testFixture(), map[string]metrics.HealthFunc{
		"redis": func(ctx context.Context) error { return nil },
	})
	rec := do(t, healthy, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)

	unhealthy := newTestRouter(testFixture(), map[string]metrics.HealthFunc{
		"postgres": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	rec = do(t, unhealthy, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestMetricsAndCORS(t *testing.T) {
	router := newTestRouter(testFixture(), nil)

	rec := do(t, router, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# metrics"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/games", nil)
	req.Header.Set("Origin", "https://scores.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "https://scores.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	// Routes not configured are absent
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/ws").Code)
}
