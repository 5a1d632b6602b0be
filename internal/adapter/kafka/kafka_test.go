package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drwave-www/worldwidewaves-engine/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	at := time.Date(2026, 6, 21, 21, 0, 30, 0, time.UTC)
	notification := domain.Notification{
		ID:          "d4c1f231-8d7a-4c39-9f0e-5a1b2c3d4e5f",
		EventID:     "paris-2026",
		Trigger:     domain.TriggerWaveHit,
		Title:       "The wave is here!",
		Body:        "Paris Wave reached your position.",
		RequestedAt: at,
	}

	msg, err := serializeToMessage(notification)
	require.NoError(t, err)

	assert.Equal(t, []byte("paris-2026"), msg.Key)
	assert.JSONEq(t, `{
		"id": "d4c1f231-8d7a-4c39-9f0e-5a1b2c3d4e5f",
		"event_id": "paris-2026",
		"trigger": "wave_hit",
		"title": "The wave is here!",
		"body": "Paris Wave reached your position.",
		"requested_at": "2026-06-21T21:00:30Z"
	}`, string(msg.Value))

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "trigger", msg.Headers[0].Key)
	assert.Equal(t, []byte("wave_hit"), msg.Headers[0].Value)
	assert.Equal(t, "requested_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(at.Format(time.RFC3339)), msg.Headers[1].Value)
}
