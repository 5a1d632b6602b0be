package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/drwave-www/worldwidewaves-engine/internal/domain"
)

// Notifier produces wave hit notifications to a Kafka topic, one message
// per delivery, keyed by event id so per-event ordering holds.
// It implements domain.NotificationSink.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the notification topic.
func NewNotifier(brokers []string, topic string, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Notifier{writer: w, logger: logger}
}

// DeliverImmediate serializes and publishes one notification. The caller
// bounds ctx; delivery is not retried here.
func (n *Notifier) DeliverImmediate(ctx context.Context, notification domain.Notification) error {
	msg, err := serializeToMessage(notification)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish notification %s: %w", notification.ID, err)
	}
	n.logger.Debug("notification published",
		"notification_id", notification.ID,
		"event_id", notification.EventID,
	)
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals a notification into a Kafka message.
func serializeToMessage(notification domain.Notification) (kafkago.Message, error) {
	data, err := json.Marshal(notification)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize notification: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(notification.EventID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "trigger", Value: []byte(notification.Trigger)},
			{Key: "requested_at", Value: []byte(notification.RequestedAt.Format(time.RFC3339))},
		},
	}, nil
}
