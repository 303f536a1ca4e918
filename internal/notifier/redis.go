package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/Hermes/pkg/contracts"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

const (
	// DefaultChannel is the pub/sub channel every instance's hub subscribes to
	DefaultChannel = "hermes.games.broadcast"

	// streamPrefix is followed by the lowercase league key
	streamPrefix = "games.updates."

	// statusStream carries league status events, which belong to no single league
	statusStream = streamPrefix + "status"

	// streamMaxLen caps each stream (approximate trimming)
	streamMaxLen = 10000
)

// Publisher is the subset of *redis.Client used for pub/sub
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// StreamAdder is the subset of *redis.Client used for streams
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisBroadcaster publishes change events on a Redis pub/sub channel
type RedisBroadcaster struct {
	r       Publisher
	channel string
}

var _ contracts.Notifier = (*RedisBroadcaster)(nil)

// NewRedisBroadcaster creates a broadcaster. An empty channel uses DefaultChannel.
func NewRedisBroadcaster(r Publisher, channel string) *RedisBroadcaster {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroadcaster{r: r, channel: channel}
}

// Notify publishes the JSON-encoded event
func (b *RedisBroadcaster) Notify(ctx context.Context, event models.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := b.r.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel, err)
	}
	return nil
}

// StreamPublisher appends change events to per-league Redis streams
type StreamPublisher struct {
	client StreamAdder
}

var _ contracts.Notifier = (*StreamPublisher)(nil)

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client StreamAdder) *StreamPublisher {
	return &StreamPublisher{client: client}
}

// StreamKey returns the stream an event is appended to
func StreamKey(event models.ChangeEvent) string {
	if event.League == "" {
		return statusStream
	}
	return streamPrefix + event.League.Key()
}

// Notify appends the event to its league stream
func (p *StreamPublisher) Notify(ctx context.Context, event models.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	values := map[string]interface{}{
		"data": string(data),
		"type": string(event.Type),
	}
	if event.GameID != "" {
		values["game_id"] = event.GameID
	}
	if event.Game != nil {
		values["status"] = string(event.Game.Status)
	}

	stream := StreamKey(event)
	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("append to %s: %w", stream, err)
	}
	return nil
}
