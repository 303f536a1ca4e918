package notifier

import (
	"context"
	"fmt"

	"github.com/XavierBriggs/Hermes/internal/broker"
	"github.com/XavierBriggs/Hermes/pkg/contracts"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

// DefaultTopic receives every change event
const DefaultTopic = "games.updates"

// KafkaPublisher publishes change events keyed by game id, or by league for status events
type KafkaPublisher struct {
	writer broker.MessageWriter
}

var _ contracts.Notifier = (*KafkaPublisher)(nil)

// NewKafkaPublisher wraps a writer bound to the updates topic
func NewKafkaPublisher(writer broker.MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// Notify writes the event as one JSON message
func (p *KafkaPublisher) Notify(ctx context.Context, event models.ChangeEvent) error {
	if err := broker.WriteJSON(ctx, p.writer, event.Key(), event); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}

// Close closes the underlying writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
