package contracts

import (
	"testing"
	"time"

	"github.com/XavierBriggs/Hermes/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestSelectMode(t *testing.T) {
	config := DefaultPollingConfig()

	tests := []struct {
		name   string
		status models.LeagueStatus
		want   models.Mode
	}{
		{"no games", models.LeagueStatus{}, models.ModeIdle},
		{"scheduled only", models.LeagueStatus{HasScheduled: true}, models.ModeScheduled},
		{"live only", models.LeagueStatus{HasLive: true}, models.ModeLive},
		{"live beats scheduled", models.LeagueStatus{HasLive: true, HasScheduled: true}, models.ModeLive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.SelectMode(tt.status))
		})
	}
}

func TestScheduledInterval(t *testing.T) {
	config := DefaultPollingConfig()

	tests := []struct {
		untilNext time.Duration
		want      time.Duration
	}{
		{-10 * time.Minute, 30 * time.Second},
		{3 * time.Minute, 30 * time.Second},
		{5 * time.Minute, 30 * time.Second},
		{5*time.Minute + time.Second, 2 * time.Minute},
		{25 * time.Minute, 2 * time.Minute},
		{30 * time.Minute, 2 * time.Minute},
		{90 * time.Minute, 10 * time.Minute},
		{2 * time.Hour, 10 * time.Minute},
		{4 * time.Hour, 30 * time.Minute},
		{6 * time.Hour, 30 * time.Minute},
		{6*time.Hour + time.Minute, 2 * time.Hour},
		{72 * time.Hour, 2 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.untilNext.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, config.ScheduledInterval(tt.untilNext, true))
		})
	}
}

func TestScheduledInterval_NoScheduledGames(t *testing.T) {
	config := DefaultPollingConfig()
	assert.Equal(t, time.Hour, config.ScheduledInterval(0, false))
}

func TestInterval(t *testing.T) {
	config := DefaultPollingConfig()

	assert.Equal(t, 20*time.Second, config.Interval(models.ModeLive, 3*time.Minute, true))
	assert.Equal(t, 6*time.Hour, config.Interval(models.ModeIdle, 0, false))
	assert.Equal(t, 30*time.Minute, config.Interval(models.ModeScheduled, 4*time.Hour, true))
}
