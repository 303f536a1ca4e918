package contracts

import (
	"github.com/XavierBriggs/Hermes/pkg/models"
)

// LeagueModule defines the interface for league-specific polling configuration
// This enables Hermes to support multiple leagues with one scheduler
type LeagueModule interface {
	// GetLeague returns the league this module serves
	GetLeague() models.League

	// GetDisplayName returns the human-readable name (e.g., "NBA Basketball")
	GetDisplayName() string

	// GetSportPath returns the provider path for the league (e.g., "basketball/nba")
	GetSportPath() string

	// GetDefaultColor returns the team color used when the provider omits one
	GetDefaultColor() string

	// GetPollingConfig returns the cadence policy for the league
	GetPollingConfig() PollingConfig

	// IsEnabled returns whether the league is polled at all
	IsEnabled() bool

	// ShouldRefreshStats returns whether live ticks trigger a stat refresh
	ShouldRefreshStats() bool
}
