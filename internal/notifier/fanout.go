// Package notifier delivers scheduler change events to downstream consumers.
package notifier

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/XavierBriggs/Hermes/pkg/contracts"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

type namedNotifier struct {
	name string
	n    contracts.Notifier
}

// Fanout forwards every event to each registered notifier in order.
// A failing notifier never prevents delivery to the others.
type Fanout struct {
	notifiers []namedNotifier
	logger    *zap.Logger
}

var _ contracts.Notifier = (*Fanout)(nil)

// NewFanout creates an empty fan-out
func NewFanout(logger *zap.Logger) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{logger: logger}
}

// Add registers a notifier under a name used in logs and errors
func (f *Fanout) Add(name string, n contracts.Notifier) {
	if n == nil {
		return
	}
	f.notifiers = append(f.notifiers, namedNotifier{name: name, n: n})
}

// Names returns the registered notifier names
func (f *Fanout) Names() []string {
	names := make([]string, 0, len(f.notifiers))
	for _, nn := range f.notifiers {
		names = append(names, nn.name)
	}
	return names
}

// Notify delivers the event to every notifier and joins their errors.
// Failures are logged at debug; the caller reports the joined error.
func (f *Fanout) Notify(ctx context.Context, event models.ChangeEvent) error {
	var errs []error
	for _, nn := range f.notifiers {
		if err := nn.n.Notify(ctx, event); err != nil {
			f.logger.Debug("notifier failed",
				zap.String("notifier", nn.name),
				zap.String("type", string(event.Type)),
				zap.String("game_id", event.GameID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", nn.name, err))
		}
	}
	return errors.Join(errs...)
}
