package planner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/drwave-www/worldwidewaves-engine/internal/catalog"
	"github.com/drwave-www/worldwidewaves-engine/internal/domain"
	"github.com/drwave-www/worldwidewaves-engine/internal/observability"
	"github.com/drwave-www/worldwidewaves-engine/internal/observer"
)

// rearmGrace is how long after an occurrence ends before its observer is
// stopped and, for recurring events, re-armed for the next occurrence.
const rearmGrace = time.Minute

// defaultScanInterval is how often the planner re-evaluates which events
// should be under observation.
const defaultScanInterval = 30 * time.Second

// Planner owns one Observer per catalog event. It starts observation
// when an occurrence enters the horizon, stops it once the occurrence is
// over, and re-arms recurring events for their next cron occurrence.
type Planner struct {
	catalog   *catalog.Catalog
	observers map[string]*observer.Observer
	horizon   time.Duration
	interval  time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a planner and one observer per catalog event.
func New(
	cat *catalog.Catalog,
	positions domain.PositionSource,
	notifier domain.NotificationSink,
	horizon time.Duration,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Planner {
	observers := make(map[string]*observer.Observer)
	for _, e := range cat.Events() {
		observers[e.ID] = observer.New(e, positions, notifier, logger, metrics)
	}
	return &Planner{
		catalog:   cat,
		observers: observers,
		horizon:   horizon,
		interval:  defaultScanInterval,
		logger:    logger,
	}
}

// Observer returns the observer for an event id.
func (p *Planner) Observer(id string) (*observer.Observer, bool) {
	o, ok := p.observers[id]
	return o, ok
}

// Start launches the planning loop. The first scan happens immediately.
func (p *Planner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		p.logger.Info("planner started", "events", len(p.observers), "horizon", p.horizon)
		for {
			p.scan(ctx)
			select {
			case <-ctx.Done():
				return
			case <-domain.Clock().After(p.interval):
			}
		}
	}()
}

// Stop cancels the planning loop and every observer, waiting for all of
// them within ctx.
func (p *Planner) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for _, o := range p.observers {
		if err := o.StopObservationAndWait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// scan reconciles observation against the clock once.
func (p *Planner) scan(ctx context.Context) {
	now := domain.Clock().Now()
	for id, o := range p.observers {
		if o.Observing() {
			p.maybeRetire(ctx, id, o, now)
			continue
		}
		if p.shouldObserve(o.Event(), now) {
			if o.StartObservation() {
				p.logger.Info("observation scheduled", "event_id", id, "start", o.Event().Start())
			}
		}
	}
}

// shouldObserve reports whether the event's current occurrence is inside
// the observation window: not further ahead than the horizon, not ended
// longer ago than the grace period. An event whose end cannot be
// computed yet stays observed so it can recover once its area loads.
func (p *Planner) shouldObserve(e *domain.Event, now time.Time) bool {
	if e.Start().Sub(now) > p.horizon {
		return false
	}
	if end, err := e.End(); err == nil && now.After(end.Add(rearmGrace)) {
		return false
	}
	return true
}

// maybeRetire stops observation for finished occurrences. Recurring
// events are reset and rescheduled for their next cron occurrence;
// observation resumes on a later scan when that occurrence enters the
// horizon.
func (p *Planner) maybeRetire(ctx context.Context, id string, o *observer.Observer, now time.Time) {
	if o.Status().Get() != domain.StatusDone {
		return
	}
	end, err := o.Event().End()
	if err != nil || now.Before(end.Add(rearmGrace)) {
		return
	}

	if err := o.StopObservationAndWait(ctx); err != nil {
		p.logger.Warn("failed to stop finished observation", "event_id", id, "error", err)
		return
	}

	next, ok := p.catalog.NextOccurrence(id, now)
	if !ok {
		p.logger.Info("observation finished", "event_id", id)
		return
	}
	o.Event().SetStart(next.In(o.Event().Timezone))
	o.ResetState()
	p.logger.Info("recurring event re-armed", "event_id", id, "next_start", next)
}
