// Package cache mirrors the active-game snapshot into Redis for other services.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/Hermes/pkg/contracts"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

// TTL constants
const (
	ScheduledGameTTL = 24 * time.Hour
	LiveGameTTL      = 2 * time.Hour
	FinalGameTTL     = 6 * time.Hour
	ActiveSetTTL     = 24 * time.Hour
	LeagueStatusTTL  = 24 * time.Hour
)

// LeagueStatusKey holds one JSON-encoded LeagueStatus per league field
const LeagueStatusKey = "leagues:status"

// ErrNotFound is returned by read helpers when a key is missing
var ErrNotFound = errors.New("not found in cache")

// RedisWriter writes game snapshots and league statuses to Redis
type RedisWriter struct {
	client redis.Cmdable
}

// Ensure RedisWriter implements Notifier
var _ contracts.Notifier = (*RedisWriter)(nil)

// NewRedisWriter creates a new Redis writer
func NewRedisWriter(client redis.Cmdable) *RedisWriter {
	return &RedisWriter{client: client}
}

// SummaryKey returns the key of a game summary
func SummaryKey(gameID string) string {
	return fmt.Sprintf("game:%s:summary", gameID)
}

// ActiveSetKey returns the key of a league's active game id set
func ActiveSetKey(league models.League) string {
	return fmt.Sprintf("games:active:%s", league.Key())
}

// TTLForStatus returns how long a summary lives for a game status
func TTLForStatus(status models.GameStatus) time.Duration {
	switch status {
	case models.StatusInProgress:
		return LiveGameTTL
	case models.StatusFinal:
		return FinalGameTTL
	default:
		return ScheduledGameTTL
	}
}

// Notify applies a change event to the cache
func (w *RedisWriter) Notify(ctx context.Context, event models.ChangeEvent) error {
	switch event.Type {
	case models.EventScoreUpdate:
		if event.Game == nil {
			return nil
		}
		return w.WriteGameSummary(ctx, *event.Game)

	case models.EventGamesUpdated:
		if event.Game == nil {
			return nil
		}
		return w.WriteFinal(ctx, *event.Game)

	case models.EventGameRemoved:
		return w.RemoveGame(ctx, event.League, event.GameID)

	case models.EventLeagueStatus:
		return w.WriteLeagueStatuses(ctx, event.Statuses)
	}
	return nil
}

// WriteGameSummary stores an active game and adds it to its league set
func (w *RedisWriter) WriteGameSummary(ctx context.Context, game models.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}

	setKey := ActiveSetKey(game.League)

	pipe := w.client.Pipeline()
	pipe.Set(ctx, SummaryKey(game.GameID), data, TTLForStatus(game.Status))
	pipe.SAdd(ctx, setKey, game.GameID)
	pipe.Expire(ctx, setKey, ActiveSetTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write game summary %s: %w", game.GameID, err)
	}
	return nil
}

// WriteFinal stores a completed game's result and drops it from the active set
func (w *RedisWriter) WriteFinal(ctx context.Context, game models.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}

	pipe := w.client.Pipeline()
	pipe.Set(ctx, SummaryKey(game.GameID), data, FinalGameTTL)
	pipe.SRem(ctx, ActiveSetKey(game.League), game.GameID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write final %s: %w", game.GameID, err)
	}
	return nil
}

// RemoveGame deletes a game that disappeared from the provider feed
func (w *RedisWriter) RemoveGame(ctx context.Context, league models.League, gameID string) error {
	pipe := w.client.Pipeline()
	pipe.Del(ctx, SummaryKey(gameID))
	pipe.SRem(ctx, ActiveSetKey(league), gameID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove game %s: %w", gameID, err)
	}
	return nil
}

// WriteLeagueStatuses replaces the league status hash fields
func (w *RedisWriter) WriteLeagueStatuses(ctx context.Context, statuses map[models.League]models.LeagueStatus) error {
	if len(statuses) == 0 {
		return nil
	}

	values := make(map[string]interface{}, len(statuses))
	for league, st := range statuses {
		data, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("marshal league status: %w", err)
		}
		values[string(league)] = string(data)
	}

	pipe := w.client.Pipeline()
	pipe.HSet(ctx, LeagueStatusKey, values)
	pipe.Expire(ctx, LeagueStatusKey, LeagueStatusTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write league statuses: %w", err)
	}
	return nil
}

// ReadGameSummary retrieves a game summary
func (w *RedisWriter) ReadGameSummary(ctx context.Context, gameID string) (*models.Game, error) {
	data, err := w.client.Get(ctx, SummaryKey(gameID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var game models.Game
	if err := json.Unmarshal([]byte(data), &game); err != nil {
		return nil, fmt.Errorf("unmarshal game: %w", err)
	}
	return &game, nil
}

// ReadActiveGameIDs retrieves the ids of a league's active games
func (w *RedisWriter) ReadActiveGameIDs(ctx context.Context, league models.League) ([]string, error) {
	return w.client.SMembers(ctx, ActiveSetKey(league)).Result()
}

// ReadLeagueStatuses retrieves every cached league status
func (w *RedisWriter) ReadLeagueStatuses(ctx context.Context) (map[models.League]models.LeagueStatus, error) {
	fields, err := w.client.HGetAll(ctx, LeagueStatusKey).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[models.League]models.LeagueStatus, len(fields))
	for name, raw := range fields {
		league, err := models.ParseLeague(name)
		if err != nil {
			continue
		}
		var st models.LeagueStatus
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			return nil, fmt.Errorf("unmarshal status for %s: %w", name, err)
		}
		out[league] = st
	}
	return out, nil
}

// Ping checks the Redis connection
func (w *RedisWriter) Ping(ctx context.Context) error {
	return w.client.Ping(ctx).Err()
}
