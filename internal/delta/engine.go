package delta

import (
	"time"

	"github.com/XavierBriggs/Hermes/pkg/models"
)

// DefaultDwellTime is the minimum spacing between two applied updates of one game
const DefaultDwellTime = 30 * time.Second

// ChangeType indicates the type of change detected
type ChangeType string

const (
	ChangeTypeNew        ChangeType = "new"
	ChangeTypeStatus     ChangeType = "status"
	ChangeTypeScore      ChangeType = "score"
	ChangeTypeContent    ChangeType = "content"
	ChangeTypeNone       ChangeType = "none"
	ChangeTypeRegression ChangeType = "regression"
)

// Delta represents a detected change for one game
type Delta struct {
	Game       models.Game
	ChangeType ChangeType
	OldStatus  models.GameStatus
	Apply      bool
	Throttled  bool
}

// StatusChanged reports whether applying the delta moves the game to a new status
func (d Delta) StatusChanged() bool {
	return d.Apply && (d.ChangeType == ChangeTypeNew || d.ChangeType == ChangeTypeStatus)
}

// Engine compares incoming provider games against the stored snapshot
type Engine struct {
	dwell time.Duration
}

// NewEngine creates a new delta detection engine. A non-positive dwell disables throttling.
func NewEngine(dwell time.Duration) *Engine {
	if dwell < 0 {
		dwell = 0
	}
	return &Engine{dwell: dwell}
}

// DwellTime returns the configured throttle window
func (e *Engine) DwellTime() time.Duration {
	return e.dwell
}

// Compare decides whether incoming should replace stored.
// stored is nil when the game has never been seen; lastApplied is the time of the
// last applied update for the game (zero when unknown).
func (e *Engine) Compare(stored *models.Game, incoming models.Game, lastApplied, now time.Time) Delta {
	if stored == nil {
		return Delta{Game: incoming, ChangeType: ChangeTypeNew, Apply: true}
	}

	d := Delta{
		Game:       incoming,
		ChangeType: e.classify(*stored, incoming),
		OldStatus:  stored.Status,
	}

	switch d.ChangeType {
	case ChangeTypeNone, ChangeTypeRegression:
		return d
	}

	if !lastApplied.IsZero() && now.Sub(lastApplied) < e.dwell {
		d.Throttled = true
		return d
	}

	d.Apply = true
	return d
}

func (e *Engine) classify(stored, incoming models.Game) ChangeType {
	if incoming.Status.Rank() < stored.Status.Rank() {
		return ChangeTypeRegression
	}
	if incoming.Status != stored.Status {
		return ChangeTypeStatus
	}
	if incoming.Equal(stored) {
		return ChangeTypeNone
	}
	if !sameScore(stored.HomeTeam.Score, incoming.HomeTeam.Score) ||
		!sameScore(stored.AwayTeam.Score, incoming.AwayTeam.Score) {
		return ChangeTypeScore
	}
	return ChangeTypeContent
}

func sameScore(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
