// Package observer runs the per-event observation loop: it polls the
// clock, the position source, and the event's area to derive the wave
// state, and publishes it on throttled current-value streams consumed
// by UI, audio, and notification subsystems.
package observer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/drwave-www/worldwidewaves-engine/internal/domain"
	"github.com/drwave-www/worldwidewaves-engine/internal/observability"
	"github.com/drwave-www/worldwidewaves-engine/internal/stream"
)

const (
	// progressionEpsilon suppresses progression publishes below 0.1%
	// change; ratioEpsilon does the same for the position ratio at 1%.
	// Both cut stream volume sharply without visible UI lag.
	progressionEpsilon = 0.001
	ratioEpsilon       = 0.01

	notifyTimeout = 5 * time.Second

	// areaPendingCountdown feeds the scheduler when the event is past
	// its start but the area has not loaded, so the end is unknowable.
	// It lands in the five-minute polling band: a late-arriving area
	// file is picked up within minutes instead of the hourly crawl.
	areaPendingCountdown = 30 * time.Minute
)

// Observer owns the observation lifecycle for a single event. It is a
// disposable unit: construct one per event, start it, stop it; it holds
// no process-wide state. At most one tick loop runs per Observer.
type Observer struct {
	event   *domain.Event
	tracker *PositionTracker

	positions domain.PositionSource
	notifier  domain.NotificationSink
	logger    *slog.Logger
	metrics   *observability.Metrics

	observing atomic.Bool
	hit       atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	status      *stream.Value[domain.Status]
	progression *stream.Value[float64]
	ratio       *stream.Value[float64]
	inArea      *stream.Value[bool]
	state       *stream.Value[domain.EventState]

	lastProgression float64
	lastRatio       float64
	prevState       domain.EventState
}

// New constructs an Observer for one event. The notifier may be nil
// when no delivery channel is configured.
func New(event *domain.Event, positions domain.PositionSource, notifier domain.NotificationSink, logger *slog.Logger, metrics *observability.Metrics) *Observer {
	return &Observer{
		event:           event,
		tracker:         NewPositionTracker(positions, logger, metrics),
		positions:       positions,
		notifier:        notifier,
		logger:          logger.With("event_id", event.ID),
		metrics:         metrics,
		status:          stream.New(domain.StatusUndefined),
		progression:     stream.New(0.0),
		ratio:           stream.New(0.0),
		inArea:          stream.New(false),
		state:           stream.New(domain.EventState{}),
		lastProgression: -1,
		lastRatio:       -1,
	}
}

// Event returns the observed event.
func (o *Observer) Event() *domain.Event { return o.event }

// Status is the event status stream; it emits on change.
func (o *Observer) Status() *stream.Value[domain.Status] { return o.status }

// Progression emits when the wave progression moves by more than 0.1%.
func (o *Observer) Progression() *stream.Value[float64] { return o.progression }

// PositionRatio emits when the user's position ratio moves by more than 1%.
func (o *Observer) PositionRatio() *stream.Value[float64] { return o.ratio }

// UserIsInArea emits on containment change.
func (o *Observer) UserIsInArea() *stream.Value[bool] { return o.inArea }

// State is the full snapshot stream, published every tick. The warming
// flags, hit flags, and time-to-hit fields ride this stream at the
// scheduler's cadence.
func (o *Observer) State() *stream.Value[domain.EventState] { return o.state }

// Observing reports whether a tick loop is currently active.
func (o *Observer) Observing() bool { return o.observing.Load() }

// StartObservation launches the tick loop. It returns false if a loop
// is already running; the compare-and-set guard makes rapid repeated
// calls (UI re-triggers) start exactly one loop.
func (o *Observer) StartObservation() bool {
	if !o.observing.CompareAndSwap(false, true) {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	o.mu.Lock()
	o.cancel = cancel
	o.done = done
	o.mu.Unlock()

	go func() {
		defer close(done)
		defer o.observing.Store(false)
		o.run(ctx)
	}()
	return true
}

// StopObservation requests cooperative cancellation of the tick loop
// and returns without waiting for it to exit.
func (o *Observer) StopObservation() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

// StopObservationAndWait cancels the loop and blocks until it has fully
// exited. Callers must use this before restarting observation for the
// same event, so a stale loop cannot race a new one on the hit latch.
func (o *Observer) StopObservationAndWait(ctx context.Context) error {
	o.mu.Lock()
	cancel := o.cancel
	done := o.done
	o.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ResetState clears the accumulated flags, including the one-way hit
// latch, without touching the observation lifecycle. Used when a
// simulated event replays from the beginning.
func (o *Observer) ResetState() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hit.Store(false)
	o.lastProgression = -1
	o.lastRatio = -1
	o.prevState = domain.EventState{}
	o.status.Set(domain.StatusUndefined)
	o.progression.Set(0)
	o.ratio.Set(0)
	o.inArea.Set(false)
	o.state.Set(domain.EventState{})
	o.logger.Info("observer state reset")
}

// run is the observation loop. The only suspension points are the
// inter-tick delay and context cancellation.
func (o *Observer) run(ctx context.Context) {
	o.metrics.ObserversRunning.Inc()
	defer o.metrics.ObserversRunning.Dec()
	o.logger.Info("observation started")
	defer o.logger.Info("observation stopped")

	for {
		started := time.Now()
		remaining := o.tick(ctx)
		o.metrics.TickDuration.Observe(time.Since(started).Seconds())

		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-domain.Clock().After(domain.PollInterval(remaining)):
		}
	}
}

// tick recomputes and publishes one observation. It returns the time
// remaining until the next interesting instant, which drives the
// polling cadence. Degraded inputs never stop the loop.
func (o *Observer) tick(ctx context.Context) time.Duration {
	now := domain.Clock().Now()
	status := domain.CurrentStatus(o.event)

	progression, err := domain.CalculateProgression(o.event)
	if err != nil {
		progression = 0
		switch {
		case errors.Is(err, domain.ErrAreaNotReady):
			// Normal before the map download finishes.
			o.metrics.TickErrors.WithLabelValues("area_not_ready").Inc()
			o.logger.Debug("progression unavailable", "error", err)
		case errors.Is(err, domain.ErrInvalidWave):
			o.metrics.TickErrors.WithLabelValues("invalid_wave").Inc()
			o.logger.Warn("invalid wave definition", "error", err)
		default:
			o.metrics.TickErrors.WithLabelValues("internal").Inc()
			o.logger.Error("progression calculation failed", "error", err)
		}
	}

	pos, hasPos := o.positions.LastKnownPosition()
	userInArea := hasPos && o.tracker.PositionInArea(o.event, pos)

	state, full := domain.CalculateEventState(o.event, progression, status, pos, hasPos, userInArea)
	if !full {
		// Degraded tick: progression/status-only update, latch preserved.
		state.UserHasBeenHit = o.hit.Load()
	} else {
		o.applyHitLatch(ctx, &state)
	}

	o.mu.Lock()
	prev := o.prevState
	o.mu.Unlock()

	for _, issue := range domain.ValidateState(state) {
		o.logger.Warn("inconsistent event state", "code", issue.Code, "detail", issue.Detail)
	}
	for _, issue := range domain.ValidateStateTransition(prev, state) {
		o.logger.Warn("suspect state transition", "code", issue.Code, "detail", issue.Detail)
	}

	o.mu.Lock()
	o.publishLocked(state, full)
	o.prevState = state
	o.mu.Unlock()

	return o.remainingUntilNextPhase(now, state, full)
}

// applyHitLatch folds the one-way latch into the snapshot and fires the
// notification side effect on the false->true transition.
func (o *Observer) applyHitLatch(ctx context.Context, state *domain.EventState) {
	if o.hit.Load() {
		state.UserHasBeenHit = true
		state.UserIsGoingToBeHit = false
		state.IsUserWarmingInProgress = false
		return
	}
	if !state.UserHasBeenHit {
		return
	}

	o.hit.Store(true)
	o.metrics.WaveHits.Inc()
	o.logger.Info("wave hit detected",
		"progression", state.Progression,
		"user_position_ratio", state.UserPositionRatio,
	)
	if o.event.Favorite() && o.notifier != nil {
		o.deliverHitNotification(ctx)
	}
}

// deliverHitNotification requests an immediate delivery through the
// sink. Delivery runs detached from the tick so a slow sink cannot
// stall polling, and detached from the loop context so stopping the
// observer right after a hit does not lose the notification.
func (o *Observer) deliverHitNotification(ctx context.Context) {
	n := domain.Notification{
		ID:          uuid.NewString(),
		EventID:     o.event.ID,
		Trigger:     domain.TriggerWaveHit,
		Title:       o.event.Name,
		Body:        "The wave is passing through you right now. Make some noise!",
		RequestedAt: domain.Clock().Now(),
	}
	go func() {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := o.notifier.DeliverImmediate(dctx, n); err != nil {
			o.metrics.NotificationErrors.Inc()
			o.logger.Error("wave hit notification failed", "notification_id", n.ID, "error", err)
			return
		}
		o.metrics.NotificationsSent.Inc()
		o.logger.Info("wave hit notification delivered", "notification_id", n.ID)
	}()
}

// publishLocked pushes the snapshot to the streams, suppressing
// progression and ratio updates below their change thresholds. Status
// and area containment publish on change; the full state publishes
// every tick so its time fields track the scheduler cadence. Callers
// hold o.mu.
func (o *Observer) publishLocked(state domain.EventState, full bool) {
	if state.Status != o.status.Get() {
		o.status.Set(state.Status)
		o.metrics.StateEmissions.WithLabelValues("status").Inc()
	}

	if o.lastProgression < 0 || absDiff(state.Progression, o.lastProgression) > progressionEpsilon {
		o.progression.Set(state.Progression)
		o.lastProgression = state.Progression
		o.metrics.StateEmissions.WithLabelValues("progression").Inc()
	} else {
		o.metrics.EmissionsSuppressed.WithLabelValues("progression").Inc()
	}

	if full {
		if o.lastRatio < 0 || absDiff(state.UserPositionRatio, o.lastRatio) > ratioEpsilon {
			o.ratio.Set(state.UserPositionRatio)
			o.lastRatio = state.UserPositionRatio
			o.metrics.StateEmissions.WithLabelValues("ratio").Inc()
		} else {
			o.metrics.EmissionsSuppressed.WithLabelValues("ratio").Inc()
		}
	}

	if state.UserIsInArea != o.inArea.Get() {
		o.inArea.Set(state.UserIsInArea)
		o.metrics.StateEmissions.WithLabelValues("in_area").Inc()
	}

	o.state.Set(state)
	o.metrics.StateEmissions.WithLabelValues("state").Inc()
}

// remainingUntilNextPhase picks the countdown feeding the scheduler:
// time to the predicted hit while one is pending, time to event start
// before that, and time to the wave end once the user has been hit.
func (o *Observer) remainingUntilNextPhase(now time.Time, state domain.EventState, full bool) time.Duration {
	if full && !state.UserHasBeenHit && !state.HitDateTime.IsZero() &&
		state.Status != domain.StatusDone {
		return state.HitDateTime.Sub(now)
	}
	if start := o.event.Start(); now.Before(start) {
		return start.Sub(now)
	}
	end, err := o.event.End()
	if err != nil {
		return areaPendingCountdown
	}
	if now.Before(end) {
		return end.Sub(now)
	}
	// Done: crawl.
	return 2 * time.Hour
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
