package sports

import (
	"testing"
	"time"

	"github.com/XavierBriggs/Hermes/pkg/models"
)

func TestDefaultConfig(t *testing.T) {
	tests := []struct {
		league models.League
		path   string
	}{
		{models.NBA, "basketball/nba"},
		{models.WNBA, "basketball/wnba"},
		{models.MLB, "baseball/mlb"},
		{models.NFL, "football/nfl"},
		{models.NHL, "hockey/nhl"},
	}

	for _, tt := range tests {
		t.Run(string(tt.league), func(t *testing.T) {
			config, ok := DefaultConfig(tt.league)
			if !ok {
				t.Fatalf("expected config for %s", tt.league)
			}

			if config.SportPath != tt.path {
				t.Errorf("expected sport path %s, got %s", tt.path, config.SportPath)
			}

			if config.Polling.LiveInterval != 20*time.Second {
				t.Errorf("expected live interval 20s, got %v", config.Polling.LiveInterval)
			}

			if config.Polling.IdleInterval != 6*time.Hour {
				t.Errorf("expected idle interval 6h, got %v", config.Polling.IdleInterval)
			}

			if len(config.Polling.RampTiers) != 4 {
				t.Errorf("expected 4 ramp tiers, got %d", len(config.Polling.RampTiers))
			}
		})
	}
}

func TestDefaultConfig_UnknownLeague(t *testing.T) {
	if _, ok := DefaultConfig(models.League("MLS")); ok {
		t.Error("expected no config for unsupported league")
	}
}

func TestAll(t *testing.T) {
	modules := All()
	if len(modules) != 5 {
		t.Fatalf("expected 5 modules, got %d", len(modules))
	}

	for i, league := range models.AllLeagues() {
		if modules[i].GetLeague() != league {
			t.Errorf("module %d: expected %s, got %s", i, league, modules[i].GetLeague())
		}
		if !modules[i].IsEnabled() {
			t.Errorf("expected %s enabled by default", league)
		}
	}
}
