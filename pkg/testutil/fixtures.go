// Package testutil provides game fixtures shared by package tests.
package testutil

import (
	"time"

	"github.com/XavierBriggs/Hermes/pkg/models"
)

// IntPtr returns a pointer to v, for scores
func IntPtr(v int) *int {
	return &v
}

// NewRawGame creates a provider record between the Lakers (home) and the Celtics (away).
// state is the provider's pre/in/post value.
func NewRawGame(providerID, state string, start time.Time, home, away *int) models.RawGame {
	return models.RawGame{
		ProviderID:  providerID,
		StatusState: state,
		StartTime:   start,
		Home:        models.RawTeam{ID: "13", Name: "Los Angeles Lakers", Abbreviation: "LAL", Score: home},
		Away:        models.RawTeam{ID: "2", Name: "Boston Celtics", Abbreviation: "BOS", Score: away},
	}
}

// NewTestGame creates a normalized snapshot for a league
func NewTestGame(league models.League, providerID string, status models.GameStatus, start time.Time) models.Game {
	return models.Game{
		GameID:     models.CompositeGameID(league, providerID),
		ProviderID: providerID,
		League:     league,
		Status:     status,
		StartTime:  start,
		HomeTeam:   models.TeamLine{ID: "13", Name: "Los Angeles Lakers", Abbreviation: "LAL", Color: "#552583"},
		AwayTeam:   models.TeamLine{ID: "2", Name: "Boston Celtics", Abbreviation: "BOS", Color: "#007A33"},
	}
}

// NewLiveGame creates an in-progress snapshot with the given score
func NewLiveGame(league models.League, providerID string, start time.Time, home, away int) models.Game {
	g := NewTestGame(league, providerID, models.StatusInProgress, start)
	g.HomeTeam.Score = IntPtr(home)
	g.AwayTeam.Score = IntPtr(away)
	g.Period = "2"
	g.Clock = "5:12"
	return g
}
