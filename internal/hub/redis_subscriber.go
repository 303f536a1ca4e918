package hub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/XavierBriggs/Hermes/internal/notifier"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

// StartRedisSubscriber listens on a Redis pub/sub channel and rebroadcasts
// every change event to the hub's clients until ctx is cancelled
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, h *Hub) {
	if channel == "" {
		channel = notifier.DefaultChannel
	}

	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()

	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg == nil {
					continue
				}

				var event models.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					h.logger.Warn("redis subscriber unmarshal failed", zap.Error(err))
					continue
				}
				h.Broadcast(event)
			}
		}
	}()
}
