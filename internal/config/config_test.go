package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageMongo, cfg.Storage)
	assert.Equal(t, TransportNone, cfg.EventTransport)
	assert.Equal(t, "weekly_sentiments", cfg.SentimentTopic)
	assert.Equal(t, 10*time.Minute, cfg.EntryCacheTTL)
	assert.False(t, cfg.DeleteUserEntries)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.AllowedOrigins)
}

func TestLoad_RedisTransportRequiresURI(t *testing.T) {
	t.Setenv("EVENT_TRANSPORT", "redis")
	t.Setenv("REDIS_URI", "")

	_, err := Load()
	assert.ErrorContains(t, err, "REDIS_URI")
}

func TestLoad_UnknownTransport(t *testing.T) {
	t.Setenv("EVENT_TRANSPORT", "carrier-pigeon")

	_, err := Load()
	assert.ErrorContains(t, err, "EVENT_TRANSPORT")
}

func TestLoad_UnknownStorage(t *testing.T) {
	t.Setenv("STORAGE", "sqlite")

	_, err := Load()
	assert.ErrorContains(t, err, "STORAGE")
}

func TestLoad_Lists(t *testing.T) {
	t.Setenv("EVENT_TRANSPORT", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("ADMIN_USERS", "root,Ops")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
	assert.True(t, cfg.IsAdmin("ops"))
	assert.False(t, cfg.IsAdmin("alice"))
}

func TestIsProduction(t *testing.T) {
	assert.True(t, (&Config{Environment: " Production"}).IsProduction())
	assert.False(t, (&Config{Environment: "development"}).IsProduction())
}
