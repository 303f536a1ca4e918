package contracts

import (
	"context"

	"github.com/XavierBriggs/Hermes/pkg/models"
)

// ScoreProvider defines the interface for fetching scoreboards from an external vendor
// This keeps the scheduler independent of any one provider's payload shape
type ScoreProvider interface {
	// FetchGames returns the games listed on the scoreboard for a sport path
	// (e.g., "basketball/nba") across the given US game days
	FetchGames(ctx context.Context, sportPath string, days models.GameDays) ([]models.RawGame, error)
}

// StatRefresher requests a downstream per-league stat refresh for the two teams of a live game
type StatRefresher interface {
	Refresh(ctx context.Context, homeTeamID, awayTeamID string) error
}

// Notifier receives change events produced by the scheduler
type Notifier interface {
	Notify(ctx context.Context, event models.ChangeEvent) error
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, event models.ChangeEvent) error

// Notify calls f(ctx, event)
func (f NotifierFunc) Notify(ctx context.Context, event models.ChangeEvent) error {
	return f(ctx, event)
}
