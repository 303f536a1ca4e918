package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // scoreboard dates are US Eastern

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/XavierBriggs/Hermes/adapters/espn"
	"github.com/XavierBriggs/Hermes/internal/api"
	"github.com/XavierBriggs/Hermes/internal/broker"
	"github.com/XavierBriggs/Hermes/internal/cache"
	"github.com/XavierBriggs/Hermes/internal/config"
	"github.com/XavierBriggs/Hermes/internal/hub"
	"github.com/XavierBriggs/Hermes/internal/logger"
	"github.com/XavierBriggs/Hermes/internal/metrics"
	"github.com/XavierBriggs/Hermes/internal/notifier"
	"github.com/XavierBriggs/Hermes/internal/registry"
	"github.com/XavierBriggs/Hermes/internal/scheduler"
	"github.com/XavierBriggs/Hermes/internal/statrefresh"
	"github.com/XavierBriggs/Hermes/internal/writer"
	"github.com/XavierBriggs/Hermes/pkg/contracts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("hermes exited with error", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// League registry
	leagueRegistry := registry.NewLeagueRegistry()
	var modules []contracts.LeagueModule
	for _, module := range cfg.Modules() {
		if err := leagueRegistry.Register(module); err != nil {
			return fmt.Errorf("register league: %w", err)
		}
		modules = append(modules, module)
	}
	log.Info("registered leagues",
		zap.Int("count", leagueRegistry.Count()),
		zap.Int("enabled", len(leagueRegistry.Enabled())))

	checks := make(map[string]metrics.HealthFunc)
	fanout := notifier.NewFanout(log)
	wsHub := hub.NewHub(log.Named("hub"))

	// Redis: cross-instance push, streams and the summary cache
	if cfg.RedisEnabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		log.Info("connected to redis", zap.String("addr", cfg.RedisURL))

		fanout.Add("redis-broadcast", notifier.NewRedisBroadcaster(redisClient, cfg.RedisChannel))
		fanout.Add("redis-stream", notifier.NewStreamPublisher(redisClient))
		if cfg.CacheEnabled {
			fanout.Add("redis-cache", cache.NewRedisWriter(redisClient))
		}
		hub.StartRedisSubscriber(ctx, redisClient, cfg.RedisChannel, wsHub)

		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		fanout.Add("hub", wsHub)
	}

	// Kafka: downstream update topic and stat refresh requests
	var refreshWriter broker.MessageWriter
	if cfg.KafkaEnabled() {
		gamesWriter := broker.NewWriter(cfg.KafkaBrokers, cfg.TopicGames)
		publisher := notifier.NewKafkaPublisher(gamesWriter)
		defer publisher.Close()
		fanout.Add("kafka", publisher)

		statsWriter := broker.NewWriter(cfg.KafkaBrokers, cfg.TopicStatRefresh)
		defer statsWriter.Close()
		refreshWriter = statsWriter

		log.Info("kafka publishing enabled",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.TopicGames))
	}

	// Postgres persistence
	var pgWriter *writer.Writer
	if cfg.PersistEnabled {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		log.Info("connected to postgres")

		pgWriter = writer.NewWriter(db, log.Named("writer"))
		pgWriter.Start(ctx)
		fanout.Add("postgres", pgWriter)
		checks["postgres"] = pgWriter.Ping
	}

	refreshers := statrefresh.NewTable(modules, cfg.StatsRefreshURLs, refreshWriter, cfg.StatRefreshTimeout)
	log.Info("stat refresh configured", zap.Any("leagues", refreshers.Leagues()))

	sched := scheduler.NewScheduler(scheduler.Config{
		Registry:           leagueRegistry,
		Provider:           espn.NewClient(cfg.ESPNBaseURL),
		Notifier:           fanout,
		Refreshers:         refreshers,
		Logger:             log.Named("scheduler"),
		Metrics:            m,
		StatRefreshTimeout: cfg.StatRefreshTimeout,
	})
	wsHub.SetSource(sched)

	go wsHub.Run(ctx)

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	log.Info("hermes started", zap.Strings("notifiers", fanout.Names()))

	router := api.NewRouter(api.RouterConfig{
		Handler:     api.NewHandler(sched, checks, cfg.ServiceName, log.Named("api")),
		WebSocket:   wsHub.HandleWebSocket(ctx, cfg.CORSOrigins),
		Metrics:     metrics.Handler(reg),
		Healthz:     metrics.HealthHandler(checks),
		CORSOrigins: cfg.CORSOrigins,
		Logger:      log.Named("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErrors:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}

	sched.Stop()
	if pgWriter != nil {
		pgWriter.Stop()
	}
	cancel()

	log.Info("hermes stopped")
	return runErr
}
