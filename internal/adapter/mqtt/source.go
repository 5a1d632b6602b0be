package mqtt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/drwave-www/worldwidewaves-engine/internal/domain"
	"github.com/drwave-www/worldwidewaves-engine/internal/geo"
	"github.com/drwave-www/worldwidewaves-engine/internal/observability"
)

// Config carries the broker connection settings.
type Config struct {
	Broker   string
	Port     int
	Topic    string
	Username string
	Password string
	UseTLS   bool
	ClientID string

	// MaxFixAge invalidates fixes older than this; zero keeps them forever.
	MaxFixAge time.Duration
}

// positionPayload is the wire format published by the companion apps.
type positionPayload struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
	TS  int64    `json:"ts"` // unix seconds, optional
}

// PositionSource subscribes to a position topic and keeps the last
// valid fix. It implements domain.PositionSource; reads never block on
// broker traffic.
type PositionSource struct {
	cfg     Config
	client  pahomqtt.Client
	logger  *slog.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	pos   geo.Position
	fixAt time.Time
	has   bool
}

// NewPositionSource prepares a source; Start connects it.
func NewPositionSource(cfg Config, logger *slog.Logger, metrics *observability.Metrics) *PositionSource {
	return &PositionSource{cfg: cfg, logger: logger, metrics: metrics}
}

// Start connects to the broker and subscribes. The client reconnects
// and resubscribes on its own after connection loss.
func (s *PositionSource) Start() error {
	opts := pahomqtt.NewClientOptions()

	protocol := "tcp"
	if s.cfg.UseTLS {
		protocol = "tls"
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", protocol, s.cfg.Broker, s.cfg.Port))

	clientID := s.cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("waved-positions-%d", time.Now().Unix())
	}
	opts.SetClientID(clientID)

	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
		opts.SetPassword(s.cfg.Password)
	}

	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = s.onConnect
	opts.OnConnectionLost = func(_ pahomqtt.Client, err error) {
		s.logger.Warn("mqtt connection lost", "error", err)
	}
	opts.OnReconnecting = func(pahomqtt.Client, *pahomqtt.ClientOptions) {
		s.logger.Info("mqtt reconnecting")
	}

	s.client = pahomqtt.NewClient(opts)
	s.logger.Info("connecting to mqtt broker", "broker", s.cfg.Broker, "client_id", clientID)

	token := s.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect failed: %w", err)
	}
	return nil
}

// CheckReadiness reports broker connectivity for the readiness probe.
func (s *PositionSource) CheckReadiness(context.Context) error {
	if s.client == nil || !s.client.IsConnected() {
		return fmt.Errorf("mqtt broker not connected")
	}
	return nil
}

// Stop disconnects from the broker.
func (s *PositionSource) Stop() {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(1000)
	}
}

func (s *PositionSource) onConnect(client pahomqtt.Client) {
	s.logger.Info("mqtt connected")
	token := client.Subscribe(s.cfg.Topic, 0, s.onMessage)
	if !token.WaitTimeout(5 * time.Second) {
		s.logger.Error("mqtt subscribe timeout", "topic", s.cfg.Topic)
		return
	}
	if err := token.Error(); err != nil {
		s.logger.Error("mqtt subscribe failed", "topic", s.cfg.Topic, "error", err)
		return
	}
	s.logger.Info("subscribed to position topic", "topic", s.cfg.Topic)
}

func (s *PositionSource) onMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	pos, at, err := parsePosition(msg.Payload())
	if err != nil {
		s.metrics.PositionRejected.Inc()
		s.logger.Debug("rejected position update", "error", err)
		return
	}
	s.record(pos, at)
}

// record accepts a validated fix.
func (s *PositionSource) record(pos geo.Position, at time.Time) {
	s.mu.Lock()
	s.pos = pos
	s.fixAt = at
	s.has = true
	s.mu.Unlock()
	s.metrics.PositionUpdates.Inc()
}

// LastKnownPosition returns the most recent valid fix. Fixes older than
// MaxFixAge (when set) read as absent.
func (s *PositionSource) LastKnownPosition() (geo.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.has {
		return geo.Position{}, false
	}
	if s.cfg.MaxFixAge > 0 && domain.Clock().Since(s.fixAt) > s.cfg.MaxFixAge {
		return geo.Position{}, false
	}
	return s.pos, true
}

// parsePosition decodes and validates one position message.
func parsePosition(payload []byte) (geo.Position, time.Time, error) {
	var p positionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return geo.Position{}, time.Time{}, fmt.Errorf("malformed position payload: %w", err)
	}
	if p.Lat == nil || p.Lng == nil {
		return geo.Position{}, time.Time{}, fmt.Errorf("position payload missing lat/lng")
	}
	pos, err := geo.NewPosition(*p.Lat, *p.Lng)
	if err != nil {
		return geo.Position{}, time.Time{}, err
	}
	at := domain.Clock().Now()
	if p.TS > 0 {
		at = time.Unix(p.TS, 0)
	}
	return pos, at, nil
}
