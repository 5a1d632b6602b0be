package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	CatalogPath  string
	FavoritesDB  string
	HTTPAddr     string
	LogLevel     string
	LogFormat    string
	ShutdownTime time.Duration

	// MQTT position feed.
	MQTTBroker   string
	MQTTPort     int
	MQTTTopic    string
	MQTTUsername string
	MQTTPassword string
	MQTTUseTLS   bool
	MaxFixAge    time.Duration

	// Kafka notification sink.
	KafkaBrokers []string
	KafkaTopic   string

	// ObservationHorizon bounds how far ahead of its start an event is
	// actively observed.
	ObservationHorizon time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	maxFixAge, err := parseDuration("POSITION_MAX_AGE", 0)
	if err != nil {
		return nil, err
	}
	horizon, err := parseDuration("OBSERVATION_HORIZON", 48*time.Hour)
	if err != nil {
		return nil, err
	}
	mqttPort, err := parsePort("MQTT_PORT", 1883)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		CatalogPath:  envOrDefault("CATALOG_PATH", "events.yaml"),
		FavoritesDB:  envOrDefault("FAVORITES_DB", "favorites.db"),
		HTTPAddr:     envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),
		LogFormat:    envOrDefault("LOG_FORMAT", "json"),
		ShutdownTime: shutdownTimeout,

		MQTTBroker:   envOrDefault("MQTT_BROKER", "localhost"),
		MQTTPort:     mqttPort,
		MQTTTopic:    envOrDefault("MQTT_TOPIC", "positions/device"),
		MQTTUsername: os.Getenv("MQTT_USERNAME"),
		MQTTPassword: os.Getenv("MQTT_PASSWORD"),
		MQTTUseTLS:   os.Getenv("MQTT_TLS") == "true",
		MaxFixAge:    maxFixAge,

		KafkaBrokers: parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_NOTIFICATION_TOPIC", "wave-notifications"),

		ObservationHorizon: horizon,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_NOTIFICATION_TOPIC is required")
	}
	if cfg.ObservationHorizon <= 0 {
		return nil, errors.New("OBSERVATION_HORIZON must be positive")
	}

	return cfg, nil
}

// LoggingLevel satisfies observability.LoggerConfig.
func (c *Config) LoggingLevel() string { return c.LogLevel }

// LoggingFormat satisfies observability.LoggerConfig.
func (c *Config) LoggingFormat() string { return c.LogFormat }

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parsePort(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 65535 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
