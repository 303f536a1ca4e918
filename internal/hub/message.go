package hub

import (
	"strings"
	"time"

	"github.com/XavierBriggs/Hermes/pkg/models"
)

// Message types for WebSocket communication
const (
	MessageTypeInitial      = "initial"
	MessageTypeScoreUpdate  = string(models.EventScoreUpdate)
	MessageTypeGameRemoved  = string(models.EventGameRemoved)
	MessageTypeGamesUpdated = string(models.EventGamesUpdated)
	MessageTypeLeagueStatus = string(models.EventLeagueStatus)
	MessageTypeSubscribe    = "subscribe"
	MessageTypeUnsubscribe  = "unsubscribe"
	MessageTypeHeartbeat    = "heartbeat"
	MessageTypeError        = "error"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    string              `json:"type"`
	Payload *SubscriptionFilter `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// InitialPayload is sent on connect and after every subscription change
type InitialPayload struct {
	Games    []models.Game                          `json:"games"`
	Statuses map[models.League]models.LeagueStatus `json:"statuses"`
}

// SubscriptionFilter represents client subscription preferences
type SubscriptionFilter struct {
	Leagues []string `json:"leagues,omitempty"` // Filter by league (case-insensitive)
	Games   []string `json:"games,omitempty"`   // Filter by game id
}

// Empty reports whether the filter accepts everything
func (f SubscriptionFilter) Empty() bool {
	return len(f.Leagues) == 0 && len(f.Games) == 0
}

// Matches checks if a change event passes the filter.
// League status broadcasts concern every viewer and always match.
func (f SubscriptionFilter) Matches(event models.ChangeEvent) bool {
	if f.Empty() || event.Type == models.EventLeagueStatus {
		return true
	}

	if len(f.Leagues) > 0 && !containsFold(f.Leagues, string(event.League)) {
		return false
	}

	if len(f.Games) > 0 && !contains(f.Games, event.GameID) {
		return false
	}

	return true
}

// MatchesGame checks if a snapshot game passes the filter
func (f SubscriptionFilter) MatchesGame(game models.Game) bool {
	return f.Matches(models.ChangeEvent{League: game.League, GameID: game.GameID})
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	ClientID         string             `json:"client_id"`
	ConnectedAt      time.Time          `json:"connected_at"`
	MessagesSent     int64              `json:"messages_sent"`
	MessagesReceived int64              `json:"messages_received"`
	LastMessageAt    time.Time          `json:"last_message_at"`
	BufferSize       int                `json:"buffer_size"`
	Filter           SubscriptionFilter `json:"filter"`
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func containsFold(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
