package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, DefaultOfferTTL, cfg.Engine.OfferTTL)
	assert.Equal(t, "orders.lifecycle", cfg.Messaging.Kafka.Topic)
	assert.Equal(t, "chat.offers", cfg.Messaging.Kafka.ChatTopic)
	assert.Equal(t, cfg.Database.WriterDSN, cfg.Database.ReaderDSN)
}

func TestNewOverridesFromEnv(t *testing.T) {
	t.Setenv("ENGINE_OFFER_TTL", "72h")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("MESSAGING_ENABLED", "false")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092 ,")
	t.Setenv("OBS_PROMETHEUS_PATH", "prom")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 72*time.Hour, cfg.Engine.OfferTTL)
	assert.Equal(t, "noop", cfg.Cache.Driver)
	assert.Equal(t, "noop", cfg.Messaging.Driver)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Messaging.Kafka.Brokers)
	assert.Equal(t, "/prom", cfg.Observability.PrometheusPath)
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "non-positive offer ttl", env: map[string]string{"ENGINE_OFFER_TTL": "0s"}},
		{name: "unknown cache driver", env: map[string]string{"CACHE_DRIVER": "memcached"}},
		{name: "chat topic equals lifecycle topic", env: map[string]string{"KAFKA_CHAT_TOPIC": "orders.lifecycle"}},
		{name: "bad http port", env: map[string]string{"HTTP_PORT": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := New()
			assert.Error(t, err)
		})
	}
}
