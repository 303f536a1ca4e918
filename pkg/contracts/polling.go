package contracts

import (
	"time"

	"github.com/XavierBriggs/Hermes/pkg/models"
)

// PollingConfig defines league-specific polling cadence
type PollingConfig struct {
	// Fixed interval while any game is in progress
	LiveInterval time.Duration

	// Fixed interval when the league has no live or scheduled games
	IdleInterval time.Duration

	// Interval used by scheduled mode when no scheduled game can be found
	NoScheduledInterval time.Duration

	// Time-until-next-game tiers, ordered by ascending Within
	RampTiers []RampTier

	// Minimum time between two applied updates of the same game
	DwellTime time.Duration
}

// RampTier maps "next game starts within" to a recheck interval
type RampTier struct {
	Within   time.Duration // Upper bound (inclusive) on time until the next game
	Interval time.Duration // Recheck interval
}

// DefaultPollingConfig returns the standard cadence shared by all leagues
func DefaultPollingConfig() PollingConfig {
	return PollingConfig{
		LiveInterval:        20 * time.Second,
		IdleInterval:        6 * time.Hour,
		NoScheduledInterval: 1 * time.Hour,
		RampTiers: []RampTier{
			{Within: 5 * time.Minute, Interval: 30 * time.Second},
			{Within: 30 * time.Minute, Interval: 2 * time.Minute},
			{Within: 2 * time.Hour, Interval: 10 * time.Minute},
			{Within: 6 * time.Hour, Interval: 30 * time.Minute},
		},
		DwellTime: 30 * time.Second,
	}
}

// farFutureInterval applies when the next game is beyond every tier
const farFutureInterval = 2 * time.Hour

// SelectMode picks the polling mode for a league status. Live always wins over scheduled.
func (c PollingConfig) SelectMode(status models.LeagueStatus) models.Mode {
	switch {
	case status.HasLive:
		return models.ModeLive
	case status.HasScheduled:
		return models.ModeScheduled
	default:
		return models.ModeIdle
	}
}

// ScheduledInterval returns the recheck interval for a league whose next game starts
// in untilNext. ok is false when the league has no scheduled game at all.
func (c PollingConfig) ScheduledInterval(untilNext time.Duration, ok bool) time.Duration {
	if !ok {
		return c.NoScheduledInterval
	}

	for _, tier := range c.RampTiers {
		if untilNext <= tier.Within {
			return tier.Interval
		}
	}

	return farFutureInterval
}

// Interval returns the poll interval for a mode
func (c PollingConfig) Interval(mode models.Mode, untilNext time.Duration, ok bool) time.Duration {
	switch mode {
	case models.ModeLive:
		return c.LiveInterval
	case models.ModeScheduled:
		return c.ScheduledInterval(untilNext, ok)
	default:
		return c.IdleInterval
	}
}
