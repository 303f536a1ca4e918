package hub

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Upgrader builds a websocket upgrader accepting the given origins.
// An empty list or "*" accepts any origin.
func Upgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 {
				return true
			}
			for _, o := range allowedOrigins {
				if o == "*" || strings.EqualFold(o, origin) {
					return true
				}
			}
			return false
		},
	}
}

// HandleWebSocket upgrades viewer connections and attaches them to the hub.
// Client pumps stop when ctx is cancelled.
func (h *Hub) HandleWebSocket(ctx context.Context, allowedOrigins []string) http.HandlerFunc {
	upgrader := Upgrader(allowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		c := NewClient(uuid.New().String(), conn, h, h.logger)

		go c.WritePump(ctx)
		h.Register(c)
		go c.ReadPump(ctx)
	}
}
