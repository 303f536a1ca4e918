package sports

import (
	"github.com/XavierBriggs/Hermes/pkg/contracts"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

// Module implements the LeagueModule interface from a Config
type Module struct {
	config *Config
}

// Ensure Module implements LeagueModule
var _ contracts.LeagueModule = (*Module)(nil)

// NewModule creates a league module from its configuration
func NewModule(config *Config) *Module {
	return &Module{config: config}
}

// All builds modules for every supported league with default configuration
func All() []*Module {
	modules := make([]*Module, 0, len(models.AllLeagues()))
	for _, league := range models.AllLeagues() {
		cfg, _ := DefaultConfig(league)
		modules = append(modules, NewModule(cfg))
	}
	return modules
}

// Config exposes the underlying configuration so callers can override defaults
func (m *Module) Config() *Config {
	return m.config
}

// GetLeague returns the league identifier
func (m *Module) GetLeague() models.League {
	return m.config.League
}

// GetDisplayName returns the human-readable name
func (m *Module) GetDisplayName() string {
	return m.config.DisplayName
}

// GetSportPath returns the provider path
func (m *Module) GetSportPath() string {
	return m.config.SportPath
}

// GetDefaultColor returns the fallback team color
func (m *Module) GetDefaultColor() string {
	return m.config.DefaultColor
}

// GetPollingConfig returns the cadence policy
func (m *Module) GetPollingConfig() contracts.PollingConfig {
	return m.config.Polling
}

// IsEnabled returns whether the league is polled
func (m *Module) IsEnabled() bool {
	return m.config.Enabled
}

// ShouldRefreshStats returns whether live ticks trigger a stat refresh
func (m *Module) ShouldRefreshStats() bool {
	return m.config.StatsRefresh
}
