package domain

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drwave-www/worldwidewaves-engine/internal/geo"
)

var (
	// ErrAreaNotReady marks an event whose area polygons have not been
	// loaded yet. The observer tolerates it and keeps polling.
	ErrAreaNotReady = errors.New("event area not yet available")

	// ErrInvalidWave marks a wave definition that cannot produce a
	// progression (unknown shape, non-positive speed or duration).
	ErrInvalidWave = errors.New("invalid wave definition")
)

// Status is the lifecycle phase of an event occurrence. It only moves
// forward; the sole backward transition is an explicit observer reset.
type Status int

const (
	StatusUndefined Status = iota
	StatusSoon
	StatusWarming
	StatusRunning
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusSoon:
		return "SOON"
	case StatusWarming:
		return "WARMING"
	case StatusRunning:
		return "RUNNING"
	case StatusDone:
		return "DONE"
	default:
		return "UNDEFINED"
	}
}

// SweepDirection is the travel direction of a linear wave along the
// longitude axis of its area.
type SweepDirection int

const (
	WestToEast SweepDirection = iota
	EastToWest
)

func (d SweepDirection) String() string {
	if d == EastToWest {
		return "east-to-west"
	}
	return "west-to-east"
}

// WaveDefinition is the closed set of wave shapes. The set is fixed at
// compile time; progression formulas switch over the concrete type.
type WaveDefinition interface {
	isWaveDefinition()
	// Warmup is the length of the pre-start warming phase.
	Warmup() time.Duration
}

// LinearWave sweeps across the event area at a constant angular speed.
// Speed is in degrees of longitude per second; the total duration is the
// area's longitude extent divided by the speed.
type LinearWave struct {
	Direction   SweepDirection
	Speed       float64
	WarmupPhase time.Duration
}

func (LinearWave) isWaveDefinition()       {}
func (w LinearWave) Warmup() time.Duration { return w.WarmupPhase }

// WarmingWave has no travelling front: the whole area warms together for
// a fixed duration and every participant is hit at the end.
type WarmingWave struct {
	Duration    time.Duration
	WarmupPhase time.Duration
}

func (WarmingWave) isWaveDefinition()       {}
func (w WarmingWave) Warmup() time.Duration { return w.WarmupPhase }

// AreaProvider supplies the polygon rings for an event id. A provider
// may legitimately not have the data yet (area file not downloaded), in
// which case it returns ErrAreaNotReady.
type AreaProvider interface {
	EventArea(eventID string) (*geo.Area, error)
}

// PositionSource exposes the device's last known position. Queries must
// be non-blocking; implementations cache the latest fix.
type PositionSource interface {
	LastKnownPosition() (geo.Position, bool)
}

// NotificationTrigger identifies why a delivery was requested.
type NotificationTrigger string

const TriggerWaveHit NotificationTrigger = "wave_hit"

// Notification is a pre-built localized delivery request. The engine
// does not know how delivery happens; the sink does.
type Notification struct {
	ID          string              `json:"id"`
	EventID     string              `json:"event_id"`
	Trigger     NotificationTrigger `json:"trigger"`
	Title       string              `json:"title"`
	Body        string              `json:"body"`
	RequestedAt time.Time           `json:"requested_at"`
}

// NotificationSink delivers a notification immediately.
type NotificationSink interface {
	DeliverImmediate(ctx context.Context, n Notification) error
}

// Event is an occurrence definition with two mutable parts: the
// favorite flag and, for recurring events, the start of the current
// occurrence. The area is resolved lazily through the provider and
// cached on first success.
type Event struct {
	ID       string
	Name     string
	Timezone *time.Location
	Wave     WaveDefinition

	startMu  sync.Mutex
	start    time.Time
	areas    AreaProvider
	areaMu   sync.Mutex
	area     *geo.Area
	favorite atomic.Bool
}

// NewEvent constructs an event. Start carries the event's timezone; the
// provider may be nil for events without a mapped area.
func NewEvent(id, name string, start time.Time, wave WaveDefinition, areas AreaProvider) *Event {
	return &Event{
		ID:       id,
		Name:     name,
		start:    start,
		Timezone: start.Location(),
		Wave:     wave,
		areas:    areas,
	}
}

// Start returns the start of the current occurrence.
func (e *Event) Start() time.Time {
	e.startMu.Lock()
	defer e.startMu.Unlock()
	return e.start
}

// SetStart moves the event to a new occurrence. Readers on other
// goroutines (HTTP handlers, planner scans) go through Start, so the
// swap is safe even while the event is being served.
func (e *Event) SetStart(start time.Time) {
	e.startMu.Lock()
	e.start = start
	e.startMu.Unlock()
}

// Favorite reports whether the user marked this event.
func (e *Event) Favorite() bool { return e.favorite.Load() }

// SetFavorite toggles the favorite flag.
func (e *Event) SetFavorite(v bool) { e.favorite.Store(v) }

// Area returns the event's polygons, loading them through the provider
// on first use. A failed load is not cached so a later call can retry.
func (e *Event) Area() (*geo.Area, error) {
	e.areaMu.Lock()
	defer e.areaMu.Unlock()
	if e.area != nil {
		return e.area, nil
	}
	if e.areas == nil {
		return nil, ErrAreaNotReady
	}
	a, err := e.areas.EventArea(e.ID)
	if err != nil {
		return nil, err
	}
	e.area = a
	return a, nil
}

// WaveDuration is the total wave run time. For a linear wave this
// depends on the area's longitude extent, so the area must be loaded.
func (e *Event) WaveDuration() (time.Duration, error) {
	switch w := e.Wave.(type) {
	case LinearWave:
		if w.Speed <= 0 {
			return 0, ErrInvalidWave
		}
		area, err := e.Area()
		if err != nil {
			return 0, err
		}
		width := area.Bounds().Width()
		if width <= 0 {
			return 0, ErrInvalidWave
		}
		return time.Duration(width / w.Speed * float64(time.Second)), nil
	case WarmingWave:
		if w.Duration <= 0 {
			return 0, ErrInvalidWave
		}
		return w.Duration, nil
	default:
		return 0, ErrInvalidWave
	}
}

// End returns the instant the wave completes.
func (e *Event) End() (time.Time, error) {
	d, err := e.WaveDuration()
	if err != nil {
		return time.Time{}, err
	}
	return e.Start().Add(d), nil
}
