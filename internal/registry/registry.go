package registry

import (
	"fmt"
	"sync"

	"github.com/XavierBriggs/Hermes/pkg/contracts"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

// LeagueRegistry manages registered league modules
type LeagueRegistry struct {
	leagues map[models.League]contracts.LeagueModule
	mu      sync.RWMutex
}

// NewLeagueRegistry creates a new league registry
func NewLeagueRegistry() *LeagueRegistry {
	return &LeagueRegistry{
		leagues: make(map[models.League]contracts.LeagueModule),
	}
}

// Register adds a league module to the registry
func (r *LeagueRegistry) Register(module contracts.LeagueModule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	league := module.GetLeague()
	if !league.Valid() {
		return fmt.Errorf("register %q: %w", league, models.ErrUnknownLeague)
	}

	if _, exists := r.leagues[league]; exists {
		return fmt.Errorf("league %s is already registered", league)
	}

	r.leagues[league] = module
	return nil
}

// Get retrieves a league module
func (r *LeagueRegistry) Get(league models.League) (contracts.LeagueModule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	module, exists := r.leagues[league]
	return module, exists
}

// GetAll returns all registered leagues in the canonical league order
func (r *LeagueRegistry) GetAll() []contracts.LeagueModule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modules := make([]contracts.LeagueModule, 0, len(r.leagues))
	for _, league := range models.AllLeagues() {
		if module, ok := r.leagues[league]; ok {
			modules = append(modules, module)
		}
	}
	return modules
}

// Enabled returns the registered leagues that should be polled
func (r *LeagueRegistry) Enabled() []contracts.LeagueModule {
	var enabled []contracts.LeagueModule
	for _, module := range r.GetAll() {
		if module.IsEnabled() {
			enabled = append(enabled, module)
		}
	}
	return enabled
}

// Count returns the number of registered leagues
func (r *LeagueRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.leagues)
}
