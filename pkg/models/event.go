package models

import "time"

// EventType names an outbound change notification
type EventType string

const (
	EventScoreUpdate  EventType = "score_update"
	EventGameRemoved  EventType = "game_removed"
	EventGamesUpdated EventType = "games_updated"
	EventLeagueStatus EventType = "league_status"
)

// ChangeEvent is published to viewers and downstream consumers whenever the
// active-game snapshot changes
type ChangeEvent struct {
	Type     EventType               `json:"type"`
	League   League                  `json:"league,omitempty"`
	GameID   string                  `json:"game_id,omitempty"`
	Game     *Game                   `json:"game,omitempty"`
	Statuses map[League]LeagueStatus `json:"statuses,omitempty"`
	At       time.Time               `json:"at"`
}

// Key returns the partition key used by message brokers
func (e ChangeEvent) Key() string {
	if e.GameID != "" {
		return e.GameID
	}
	if e.League != "" {
		return string(e.League)
	}
	return string(e.Type)
}

// NewScoreUpdate builds the event emitted once per applied per-game diff
func NewScoreUpdate(game Game, at time.Time) ChangeEvent {
	g := game.Clone()
	return ChangeEvent{Type: EventScoreUpdate, League: game.League, GameID: game.GameID, Game: &g, At: at}
}

// NewGameRemoved builds the event emitted when a game disappears from the provider feed
func NewGameRemoved(league League, gameID string, at time.Time) ChangeEvent {
	return ChangeEvent{Type: EventGameRemoved, League: league, GameID: gameID, At: at}
}

// NewGamesUpdated builds the general "updates changed" broadcast sent after a game completes
func NewGamesUpdated(final Game, at time.Time) ChangeEvent {
	g := final.Clone()
	return ChangeEvent{Type: EventGamesUpdated, League: final.League, GameID: final.GameID, Game: &g, At: at}
}

// NewLeagueStatus builds the league-level live status broadcast
func NewLeagueStatus(statuses map[League]LeagueStatus, at time.Time) ChangeEvent {
	copied := make(map[League]LeagueStatus, len(statuses))
	for k, v := range statuses {
		copied[k] = v
	}
	return ChangeEvent{Type: EventLeagueStatus, Statuses: copied, At: at}
}
