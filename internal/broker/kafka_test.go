package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestWriteJSON(t *testing.T) {
	w := &captureWriter{}

	err := WriteJSON(context.Background(), w, "nba-401", map[string]string{"status": "final"})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "nba-401", string(w.msgs[0].Key))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "final", decoded["status"])
	assert.False(t, w.msgs[0].Time.IsZero())
}

func TestWriteJSON_Errors(t *testing.T) {
	w := &captureWriter{err: errors.New("leader not available")}
	assert.ErrorContains(t, WriteJSON(context.Background(), w, "k", "v"), "write message")

	assert.ErrorContains(t, WriteJSON(context.Background(), &captureWriter{}, "k", make(chan int)), "marshal message")
}

func TestNewWriter(t *testing.T) {
	w := NewWriter([]string{"localhost:9092"}, "games.updates")
	defer w.Close()

	assert.Equal(t, "games.updates", w.Topic)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
}
