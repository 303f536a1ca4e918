// Package api serves the REST and WebSocket surface of Hermes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/XavierBriggs/Hermes/internal/metrics"
	"github.com/XavierBriggs/Hermes/internal/scheduler"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

// GameSource is the read side of the scheduler used by handlers
type GameSource interface {
	ActiveGames() []models.Game
	ActiveGamesForLeague(league models.League) []models.Game
	LeagueStates() []scheduler.LeagueState
	LeagueState(league models.League) (scheduler.LeagueState, error)
	CheckAndUpdateLeagueGames(ctx context.Context, league models.League, includeStatsRefresh bool) (scheduler.TickResult, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	source  GameSource
	checks  map[string]metrics.HealthFunc
	service string
	logger  *zap.Logger
}

// NewHandler creates a new handler with dependencies
func NewHandler(source GameSource, checks map[string]metrics.HealthFunc, service string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{source: source, checks: checks, service: service, logger: logger}
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// LeagueResponse describes one league's polling state
type LeagueResponse struct {
	League      models.League `json:"league"`
	DisplayName string        `json:"display_name"`
	Mode        models.Mode   `json:"mode"`
	HasLive     bool          `json:"has_live"`
	HasSchedule bool          `json:"has_scheduled"`
	Interval    string        `json:"interval"`
	IntervalMS  int64         `json:"interval_ms"`
	NextPoll    time.Time     `json:"next_poll"`
	ActiveGames int           `json:"active_games"`
	Polling     bool          `json:"polling"`
}

func toLeagueResponse(st scheduler.LeagueState) LeagueResponse {
	return LeagueResponse{
		League:      st.League,
		DisplayName: st.DisplayName,
		Mode:        st.Mode,
		HasLive:     st.Status.HasLive,
		HasSchedule: st.Status.HasScheduled,
		Interval:    st.Interval.String(),
		IntervalMS:  st.Interval.Milliseconds(),
		NextPoll:    st.NextPoll,
		ActiveGames: st.ActiveGames,
		Polling:     st.Polling,
	}
}

// HealthCheck reports service health, failing if any dependency check fails
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			healthy = false
			continue
		}
		deps[name] = "ok"
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]interface{}{
		"status":       status,
		"service":      h.service,
		"timestamp":    time.Now().UTC(),
		"dependencies": deps,
	})
}

// GetGames returns the active games, optionally filtered by the league query param
func (h *Handler) GetGames(w http.ResponseWriter, r *http.Request) {
	var games []models.Game

	if raw := r.URL.Query().Get("league"); raw != "" {
		league, err := models.ParseLeague(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "unknown league: "+raw, nil)
			return
		}
		games = h.source.ActiveGamesForLeague(league)
	} else {
		games = h.source.ActiveGames()
	}

	if games == nil {
		games = []models.Game{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"games": games,
		"count": len(games),
	})
}

// GetLeagues returns the polling state of every enabled league
func (h *Handler) GetLeagues(w http.ResponseWriter, r *http.Request) {
	states := h.source.LeagueStates()

	leagues := make([]LeagueResponse, 0, len(states))
	for _, st := range states {
		leagues = append(leagues, toLeagueResponse(st))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"leagues": leagues,
		"count":   len(leagues),
	})
}

// GetLeague returns the polling state of one league
func (h *Handler) GetLeague(w http.ResponseWriter, r *http.Request) {
	league, ok := h.leagueParam(w, r)
	if !ok {
		return
	}

	st, err := h.source.LeagueState(league)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "league not enabled: "+string(league), nil)
		return
	}

	respondJSON(w, http.StatusOK, toLeagueResponse(st))
}

// RefreshLeague runs one poll cycle for a league immediately
func (h *Handler) RefreshLeague(w http.ResponseWriter, r *http.Request) {
	league, ok := h.leagueParam(w, r)
	if !ok {
		return
	}

	result, err := h.source.CheckAndUpdateLeagueGames(r.Context(), league, false)
	if errors.Is(err, models.ErrUnknownLeague) {
		h.respondError(w, http.StatusNotFound, "league not enabled: "+string(league), nil)
		return
	}
	if err != nil {
		h.respondError(w, http.StatusBadGateway, "refresh failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"league":         result.League,
		"fetched":        result.Fetched,
		"applied":        result.Applied,
		"throttled":      result.Throttled,
		"completed":      result.Completed,
		"removed":        result.Removed,
		"status_changed": result.StatusChanged,
		"stale":          result.Stale,
	})
}

func (h *Handler) leagueParam(w http.ResponseWriter, r *http.Request) (models.League, bool) {
	raw := chi.URLParam(r, "league")
	league, err := models.ParseLeague(raw)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "unknown league: "+raw, nil)
		return "", false
	}
	return league, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		h.logger.Warn(message, zap.Error(err))
	}

	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
