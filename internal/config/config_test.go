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

	assert.Equal(t, "events.yaml", cfg.CatalogPath)
	assert.Equal(t, "favorites.db", cfg.FavoritesDB)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTime)
	assert.Equal(t, "localhost", cfg.MQTTBroker)
	assert.Equal(t, 1883, cfg.MQTTPort)
	assert.Equal(t, "positions/device", cfg.MQTTTopic)
	assert.False(t, cfg.MQTTUseTLS)
	assert.Equal(t, time.Duration(0), cfg.MaxFixAge)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "wave-notifications", cfg.KafkaTopic)
	assert.Equal(t, 48*time.Hour, cfg.ObservationHorizon)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("CATALOG_PATH", "/etc/waved/events.yaml")
	t.Setenv("FAVORITES_DB", "/var/lib/waved/favorites.db")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("MQTT_BROKER", "mqtt.example.com")
	t.Setenv("MQTT_PORT", "8883")
	t.Setenv("MQTT_TOPIC", "positions/phone-1")
	t.Setenv("MQTT_USERNAME", "waved")
	t.Setenv("MQTT_PASSWORD", "secret")
	t.Setenv("MQTT_TLS", "true")
	t.Setenv("POSITION_MAX_AGE", "5m")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_NOTIFICATION_TOPIC", "hits")
	t.Setenv("OBSERVATION_HORIZON", "24h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/etc/waved/events.yaml", cfg.CatalogPath)
	assert.Equal(t, "/var/lib/waved/favorites.db", cfg.FavoritesDB)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTime)
	assert.Equal(t, "mqtt.example.com", cfg.MQTTBroker)
	assert.Equal(t, 8883, cfg.MQTTPort)
	assert.Equal(t, "positions/phone-1", cfg.MQTTTopic)
	assert.Equal(t, "waved", cfg.MQTTUsername)
	assert.Equal(t, "secret", cfg.MQTTPassword)
	assert.True(t, cfg.MQTTUseTLS)
	assert.Equal(t, 5*time.Minute, cfg.MaxFixAge)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "hits", cfg.KafkaTopic)
	assert.Equal(t, 24*time.Hour, cfg.ObservationHorizon)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad shutdown timeout", "SHUTDOWN_TIMEOUT", "soonish"},
		{"negative max age", "POSITION_MAX_AGE", "-1m"},
		{"bad horizon", "OBSERVATION_HORIZON", "two days"},
		{"zero horizon", "OBSERVATION_HORIZON", "0s"},
		{"bad mqtt port", "MQTT_PORT", "not-a-port"},
		{"mqtt port out of range", "MQTT_PORT", "70000"},
		{"empty brokers", "KAFKA_BROKERS", " , "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoggerConfig(t *testing.T) {
	cfg := &Config{LogLevel: "warn", LogFormat: "text"}
	assert.Equal(t, "warn", cfg.LoggingLevel())
	assert.Equal(t, "text", cfg.LoggingFormat())
}
