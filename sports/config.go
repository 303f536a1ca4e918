package sports

import (
	"github.com/XavierBriggs/Hermes/pkg/contracts"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

// Config contains league-specific polling configuration
type Config struct {
	// League identification
	League      models.League
	DisplayName string

	// Provider path, e.g. "basketball/nba"
	SportPath string

	// Color used for teams the provider sends without one
	DefaultColor string

	// Cadence policy
	Polling contracts.PollingConfig

	// Trigger downstream stat refresh on live ticks
	StatsRefresh bool

	Enabled bool
}

// DefaultConfig returns the standard configuration for a league.
// ok is false for unsupported leagues.
func DefaultConfig(league models.League) (*Config, bool) {
	base := func(display, path, color string) *Config {
		return &Config{
			League:       league,
			DisplayName:  display,
			SportPath:    path,
			DefaultColor: color,
			Polling:      contracts.DefaultPollingConfig(),
			StatsRefresh: true,
			Enabled:      true,
		}
	}

	switch league {
	case models.NBA:
		return base("NBA Basketball", "basketball/nba", "#1D428A"), true
	case models.WNBA:
		return base("WNBA Basketball", "basketball/wnba", "#FA4D00"), true
	case models.MLB:
		return base("MLB Baseball", "baseball/mlb", "#041E42"), true
	case models.NFL:
		return base("NFL Football", "football/nfl", "#013369"), true
	case models.NHL:
		return base("NHL Hockey", "hockey/nhl", "#000000"), true
	}

	return nil, false
}
