package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLeague(t *testing.T) {
	league, err := ParseLeague(" nba ")
	require.NoError(t, err)
	assert.Equal(t, NBA, league)

	league, err = ParseLeague("Wnba")
	require.NoError(t, err)
	assert.Equal(t, WNBA, league)

	_, err = ParseLeague("MLS")
	assert.True(t, errors.Is(err, ErrUnknownLeague))
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		state string
		name  string
		want  GameStatus
	}{
		{"pre", "STATUS_SCHEDULED", StatusScheduled},
		{"in", "STATUS_IN_PROGRESS", StatusInProgress},
		{"in", "STATUS_HALFTIME", StatusInProgress},
		{"post", "STATUS_FINAL", StatusFinal},
		{"post", "STATUS_POSTPONED", StatusFinal},
		{"", "STATUS_END_PERIOD", StatusInProgress},
		{"", "STATUS_CANCELED", StatusFinal},
		{"", "Scheduled", StatusScheduled},
		{"", "InProgress", StatusInProgress},
		{"", "something new", StatusScheduled},
	}

	for _, tt := range tests {
		t.Run(tt.state+"/"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.state, tt.name))
		})
	}
}

func TestNewGame(t *testing.T) {
	ten, seven := 10, 7
	start := time.Date(2026, 10, 19, 23, 30, 0, 0, time.FixedZone("EDT", -4*3600))

	raw := RawGame{
		ProviderID:  "401585601",
		League:      NBA,
		StatusState: "in",
		StatusName:  "STATUS_IN_PROGRESS",
		StartTime:   start,
		Home:        RawTeam{ID: "13", Abbreviation: "LAL", Color: "552583", Score: &ten},
		Away:        RawTeam{ID: "2", Abbreviation: "BOS", Score: &seven},
		Period:      "Q1",
		Clock:       "4:12",
	}

	game := NewGame(raw, "#1D428A")

	assert.Equal(t, "nba-401585601", game.GameID)
	assert.Equal(t, StatusInProgress, game.Status)
	assert.Equal(t, "#552583", game.HomeTeam.Color)
	assert.Equal(t, "#1D428A", game.AwayTeam.Color)
	assert.Equal(t, time.UTC, game.StartTime.Location())
	require.NotNil(t, game.HomeTeam.Score)
	assert.Equal(t, 10, *game.HomeTeam.Score)

	// Score pointers are copied, not shared with the provider record
	ten = 99
	assert.Equal(t, 10, *game.HomeTeam.Score)
	assert.Equal(t, "BOS 7 - LAL 10", game.ScoreLine())
}

func TestNewGame_ScheduledHasNoScore(t *testing.T) {
	zero := 0
	raw := RawGame{
		ProviderID:  "1",
		League:      NHL,
		StatusState: "pre",
		Home:        RawTeam{Score: &zero},
		Away:        RawTeam{Score: &zero},
	}

	game := NewGame(raw, "#000000")
	assert.Nil(t, game.HomeTeam.Score)
	assert.Nil(t, game.AwayTeam.Score)
}

func TestGameEqual(t *testing.T) {
	one := 1
	raw := RawGame{ProviderID: "1", League: MLB, StatusState: "in",
		Home: RawTeam{Score: &one}, Extra: map[string]interface{}{"venue": "Fenway Park"}}

	a := NewGame(raw, "")
	b := NewGame(raw, "")
	assert.True(t, a.Equal(b))

	two := 2
	raw.Home.Score = &two
	c := NewGame(raw, "")
	assert.False(t, a.Equal(c))

	clone := a.Clone()
	assert.True(t, a.Equal(clone))
	*clone.HomeTeam.Score = 5
	assert.Equal(t, 1, *a.HomeTeam.Score)
}

func TestChangeEventKey(t *testing.T) {
	at := time.Now()
	assert.Equal(t, "nba-1", NewGameRemoved(NBA, "nba-1", at).Key())
	assert.Equal(t, string(EventLeagueStatus), NewLeagueStatus(nil, at).Key())
}

func TestModeText(t *testing.T) {
	for _, m := range []Mode{ModeIdle, ModeScheduled, ModeLive} {
		text, err := m.MarshalText()
		require.NoError(t, err)

		var back Mode
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, m, back)
	}

	var m Mode
	assert.Error(t, m.UnmarshalText([]byte("turbo")))
}

func TestGameDay(t *testing.T) {
	evening := time.Date(2026, 1, 16, 1, 0, 0, 0, time.UTC)

	day := GameDay(evening)
	assert.Equal(t, "2026-01-15", day.Format("2006-01-02"))
	assert.Equal(t, day, GameDay(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)))

	single := GameDaysAt(evening, false)
	assert.True(t, single.Single())
	assert.True(t, single.Contains(time.Date(2026, 1, 16, 0, 30, 0, 0, time.UTC)), "7:30pm Eastern tip-off")
	assert.False(t, single.Contains(time.Date(2026, 1, 16, 6, 0, 0, 0, time.UTC)))

	span := GameDaysAt(evening, true)
	assert.False(t, span.Single())
	assert.Equal(t, "2026-01-14", span.From.Format("2006-01-02"))
	assert.True(t, span.Contains(time.Date(2026, 1, 14, 23, 0, 0, 0, time.UTC)))
}
