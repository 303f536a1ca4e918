package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const requestTimeout = 30 * time.Second

// RouterConfig wires handlers into the HTTP router
type RouterConfig struct {
	Handler     *Handler
	WebSocket   http.Handler // nil disables /ws
	Metrics     http.Handler // nil disables /metrics
	Healthz     http.Handler // nil disables /healthz
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter builds the chi router with middleware and routes
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Long-lived upgrade; kept outside the timeout group
	if cfg.WebSocket != nil {
		r.Handle("/ws", cfg.WebSocket)
	}

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(requestTimeout))

		r.Get("/health", cfg.Handler.HealthCheck)
		if cfg.Healthz != nil {
			r.Handle("/healthz", cfg.Healthz)
		}
		if cfg.Metrics != nil {
			r.Handle("/metrics", cfg.Metrics)
		}

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/games", cfg.Handler.GetGames)
			r.Get("/leagues", cfg.Handler.GetLeagues)
			r.Get("/leagues/{league}", cfg.Handler.GetLeague)
			r.Post("/leagues/{league}/refresh", cfg.Handler.RefreshLeague)
		})
	})

	return r
}

// requestLogger logs one line per request with zap
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())))
		})
	}
}
