package espn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/XavierBriggs/Hermes/pkg/contracts"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

const (
	DefaultBaseURL = "https://site.api.espn.com/apis/site/v2/sports"
	userAgent      = "Hermes/1.0 (Live Scores)"
	timeout        = 10 * time.Second
	maxRetries     = 3
	retryDelay     = 2 * time.Second
	dateLayout     = "20060102"
)

// Client implements the ScoreProvider interface for the ESPN site API
type Client struct {
	baseURL    string
	httpClient *http.Client
	retryDelay time.Duration
}

// Ensure Client implements ScoreProvider
var _ contracts.ScoreProvider = (*Client)(nil)

// NewClient creates a new ESPN scoreboard client. An empty baseURL uses the public API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryDelay: retryDelay,
	}
}

// FetchGames retrieves the scoreboard for a sport path across the given game days
func (c *Client) FetchGames(ctx context.Context, sportPath string, days models.GameDays) ([]models.RawGame, error) {
	endpoint := fmt.Sprintf("%s/%s/scoreboard", c.baseURL, strings.Trim(sportPath, "/"))

	params := url.Values{}
	params.Set("dates", formatDates(days))

	fullURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	body, err := c.doRequestWithRetry(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("fetch scoreboard failed: %w", err)
	}

	var apiResp scoreboardResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse scoreboard response: %w", err)
	}

	return parseScoreboard(apiResp), nil
}

// formatDates renders game days the way the scoreboard expects them:
// YYYYMMDD for one day, YYYYMMDD-YYYYMMDD for a range
func formatDates(days models.GameDays) string {
	from := models.GameDay(days.From).Format(dateLayout)
	if days.Single() {
		return from
	}
	return from + "-" + models.GameDay(days.To).Format(dateLayout)
}

// doRequestWithRetry performs HTTP request with retry logic
func (c *Client) doRequestWithRetry(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, err := c.doRequest(ctx, fullURL)
		if err == nil {
			return body, nil
		}

		lastErr = err

		// Don't retry on client errors (4xx except 429)
		var httpErr *httpError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 && httpErr.StatusCode != http.StatusTooManyRequests {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request
func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &httpError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	return body, nil
}

// parseScoreboard converts the API response into provider records.
// Events without a home and an away competitor are skipped.
func parseScoreboard(apiResp scoreboardResponse) []models.RawGame {
	games := make([]models.RawGame, 0, len(apiResp.Events))

	for _, evt := range apiResp.Events {
		if len(evt.Competitions) == 0 {
			continue
		}
		comp := evt.Competitions[0]

		var home, away *competitor
		for i := range comp.Competitors {
			switch comp.Competitors[i].HomeAway {
			case "home":
				home = &comp.Competitors[i]
			case "away":
				away = &comp.Competitors[i]
			}
		}
		if home == nil || away == nil {
			continue
		}

		st := evt.Status
		if comp.Status != nil && comp.Status.Type.State != "" {
			st = *comp.Status
		}

		start := evt.Date.Time
		if start.IsZero() {
			start = comp.Date.Time
		}

		game := models.RawGame{
			ProviderID:  evt.ID,
			StatusName:  st.Type.Name,
			StatusState: st.Type.State,
			StartTime:   start,
			Home:        rawTeam(*home),
			Away:        rawTeam(*away),
			Clock:       st.DisplayClock,
			Detail:      st.Type.ShortDetail,
			Extra:       extra(evt, comp),
		}
		if st.Period > 0 {
			game.Period = strconv.Itoa(st.Period)
		}

		games = append(games, game)
	}

	return games
}

func rawTeam(c competitor) models.RawTeam {
	name := c.Team.DisplayName
	if name == "" {
		name = strings.TrimSpace(c.Team.Location + " " + c.Team.Name)
	}

	id := c.Team.ID
	if id == "" {
		id = c.ID
	}

	return models.RawTeam{
		ID:           id,
		Name:         name,
		Abbreviation: c.Team.Abbreviation,
		Color:        c.Team.Color,
		Logo:         c.Team.Logo,
		Score:        parseScore(c.Score),
	}
}

func parseScore(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// extra carries display fields through to viewers without interpretation
func extra(evt event, comp competition) map[string]interface{} {
	out := make(map[string]interface{})
	if evt.Name != "" {
		out["name"] = evt.Name
	}
	if evt.ShortName != "" {
		out["short_name"] = evt.ShortName
	}
	if comp.Venue != nil && comp.Venue.FullName != "" {
		out["venue"] = comp.Venue.FullName
	}

	var networks []string
	for _, b := range comp.Broadcasts {
		networks = append(networks, b.Names...)
	}
	if len(networks) > 0 {
		out["broadcasts"] = strings.Join(networks, ", ")
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// httpError represents an HTTP error with status code
type httpError struct {
	StatusCode int
	Message    string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
