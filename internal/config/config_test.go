package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Hermes/pkg/contracts"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"LEAGUES", "KAFKA_BROKERS", "REDIS_URL", "DWELL_TIME", "CORS_ORIGINS", "HTTP_PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, models.AllLeagues(), cfg.Leagues)
	assert.False(t, cfg.KafkaEnabled())
	assert.False(t, cfg.RedisEnabled())
	assert.Equal(t, "hermes.games.broadcast", cfg.RedisChannel)
	assert.Equal(t, "games.updates", cfg.TopicGames)
	assert.Equal(t, "stats.refresh", cfg.TopicStatRefresh)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Zero(t, cfg.DwellTime)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("LEAGUES", "nba, nhl,NBA")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("DWELL_TIME", "45s")
	t.Setenv("LIVE_INTERVAL", "15s")
	t.Setenv("STATS_REFRESH_URL_NBA", "http://stats-nba:8080")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, []models.League{models.NBA, models.NHL}, cfg.Leagues)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.True(t, cfg.RedisEnabled())
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, 45*time.Second, cfg.DwellTime)
	assert.Equal(t, map[models.League]string{models.NBA: "http://stats-nba:8080"}, cfg.StatsRefreshURLs)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Setenv("LEAGUES", "NBA,MLS")
	t.Setenv("DWELL_TIME", "soon")
	t.Setenv("CACHE_ENABLED", "maybe")

	_, err := FromEnv()
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnknownLeague)
	assert.Contains(t, err.Error(), "DWELL_TIME")
	assert.Contains(t, err.Error(), "CACHE_ENABLED")
}

func TestModules_AppliesOverrides(t *testing.T) {
	cfg := Config{
		Leagues:              []models.League{models.NFL},
		DwellTime:            time.Minute,
		IdleInterval:         3 * time.Hour,
		StatsRefreshDisabled: true,
	}

	modules := cfg.Modules()
	require.Len(t, modules, len(models.AllLeagues()))

	defaults := contracts.DefaultPollingConfig()
	for _, m := range modules {
		assert.Equal(t, m.GetLeague() == models.NFL, m.IsEnabled(), m.GetLeague())
		assert.False(t, m.ShouldRefreshStats())

		polling := m.GetPollingConfig()
		assert.Equal(t, time.Minute, polling.DwellTime)
		assert.Equal(t, 3*time.Hour, polling.IdleInterval)
		assert.Equal(t, defaults.LiveInterval, polling.LiveInterval)
	}
}
