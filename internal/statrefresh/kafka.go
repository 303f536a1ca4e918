package statrefresh

import (
	"context"
	"time"

	"github.com/XavierBriggs/Hermes/internal/broker"
	"github.com/XavierBriggs/Hermes/pkg/contracts"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

// DefaultTopic carries refresh requests for stats consumers
const DefaultTopic = "stats.refresh"

// KafkaRefresher publishes refresh requests instead of calling a service directly.
// Messages are keyed by league so one consumer sees a league's requests in order.
type KafkaRefresher struct {
	league models.League
	writer broker.MessageWriter
}

var _ contracts.StatRefresher = (*KafkaRefresher)(nil)

// NewKafkaRefresher creates a refresher publishing through writer
func NewKafkaRefresher(league models.League, writer broker.MessageWriter) *KafkaRefresher {
	return &KafkaRefresher{league: league, writer: writer}
}

// Refresh publishes a refresh request for both teams of a game
func (r *KafkaRefresher) Refresh(ctx context.Context, homeTeamID, awayTeamID string) error {
	return broker.WriteJSON(ctx, r.writer, string(r.league), Request{
		League:      r.league,
		HomeTeamID:  homeTeamID,
		AwayTeamID:  awayTeamID,
		RequestedAt: time.Now().UTC(),
	})
}
