package observer

import (
	"errors"
	"log/slog"

	"github.com/drwave-www/worldwidewaves-engine/internal/domain"
	"github.com/drwave-www/worldwidewaves-engine/internal/geo"
	"github.com/drwave-www/worldwidewaves-engine/internal/observability"
)

// PositionTracker answers whether the device's last known position lies
// inside an event's area. Missing fixes and unloaded areas both read as
// "not in area" rather than errors; the observation loop keeps polling.
type PositionTracker struct {
	positions domain.PositionSource
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewPositionTracker wraps a position source for containment queries.
func NewPositionTracker(positions domain.PositionSource, logger *slog.Logger, metrics *observability.Metrics) *PositionTracker {
	return &PositionTracker{positions: positions, logger: logger, metrics: metrics}
}

// UserInArea reports whether the last known position is inside the
// event's area polygons.
func (t *PositionTracker) UserInArea(e *domain.Event) bool {
	pos, ok := t.positions.LastKnownPosition()
	if !ok {
		return false
	}
	return t.PositionInArea(e, pos)
}

// PositionInArea tests an explicit position against the event's area.
func (t *PositionTracker) PositionInArea(e *domain.Event, pos geo.Position) bool {
	area, err := e.Area()
	if err != nil {
		if errors.Is(err, domain.ErrAreaNotReady) {
			t.metrics.AreaLoads.WithLabelValues("not_ready").Inc()
			t.logger.Debug("area not yet available", "event_id", e.ID)
		} else {
			t.metrics.AreaLoads.WithLabelValues("error").Inc()
			t.logger.Warn("area load failed", "event_id", e.ID, "error", err)
		}
		return false
	}
	t.metrics.AreaLoads.WithLabelValues("loaded").Inc()
	return area.Contains(pos)
}
