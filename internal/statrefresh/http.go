// Package statrefresh asks downstream per-league stats services to refresh the
// players and teams of a game that is live.
package statrefresh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/XavierBriggs/Hermes/pkg/contracts"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

const defaultTimeout = 10 * time.Second

// Request is the payload sent to stats services
type Request struct {
	League      models.League `json:"league"`
	HomeTeamID  string        `json:"home_team_id"`
	AwayTeamID  string        `json:"away_team_id"`
	RequestedAt time.Time     `json:"requested_at"`
}

// HTTPRefresher posts refresh requests to one league's stats service
type HTTPRefresher struct {
	league     models.League
	baseURL    string
	httpClient *http.Client
}

// Ensure HTTPRefresher implements StatRefresher
var _ contracts.StatRefresher = (*HTTPRefresher)(nil)

// NewHTTPRefresher creates a refresher for the stats service at baseURL
func NewHTTPRefresher(league models.League, baseURL string, timeout time.Duration) *HTTPRefresher {
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &HTTPRefresher{
		league:  league,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Refresh asks the stats service to reload both teams of a game
func (r *HTTPRefresher) Refresh(ctx context.Context, homeTeamID, awayTeamID string) error {
	req := Request{
		League:      r.league,
		HomeTeamID:  homeTeamID,
		AwayTeamID:  awayTeamID,
		RequestedAt: time.Now().UTC(),
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/refresh", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s stats refresh returned %d: %s", r.league, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
