package domain

import (
	"time"

	"github.com/drwave-www/worldwidewaves-engine/internal/geo"
)

// soonWindow is how long before the warming phase an event is announced
// as SOON.
const soonWindow = 24 * time.Hour

// CalculateProgression returns how far the wave has advanced through its
// total duration, clamped to [0,1]. It is monotonically non-decreasing
// in wall-clock time for a fixed event. Errors (area missing, invalid
// wave) are reported instead of a value; the observer degrades them to
// 0.0 and keeps looping.
func CalculateProgression(e *Event) (float64, error) {
	total, err := e.WaveDuration()
	if err != nil {
		return 0, err
	}
	elapsed := clock.Now().Sub(e.Start())
	return clampUnit(float64(elapsed) / float64(total)), nil
}

// CurrentStatus derives the lifecycle phase from the clock. When the
// wave duration cannot be computed yet (area not downloaded), an event
// past its start reports RUNNING; it cannot report DONE until the
// duration is known.
func CurrentStatus(e *Event) Status {
	now := clock.Now()
	start := e.Start()
	warmingStart := start.Add(-e.Wave.Warmup())

	switch {
	case now.Before(warmingStart.Add(-soonWindow)):
		return StatusUndefined
	case now.Before(warmingStart):
		return StatusSoon
	case now.Before(start):
		return StatusWarming
	}
	if end, err := e.End(); err == nil && !now.Before(end) {
		return StatusDone
	}
	return StatusRunning
}

// FrontLongitude is the wavefront's longitude at the given progression.
func FrontLongitude(e *Event, progression float64) (float64, error) {
	w, ok := e.Wave.(LinearWave)
	if !ok {
		return 0, ErrInvalidWave
	}
	area, err := e.Area()
	if err != nil {
		return 0, err
	}
	b := area.Bounds()
	progression = clampUnit(progression)
	if w.Direction == EastToWest {
		return b.Northeast.Lng - progression*b.Width(), nil
	}
	return b.Southwest.Lng + progression*b.Width(), nil
}

// Wavefront returns the closed rings of the area already covered by the
// wave at the given progression, for rendering the swept region. Each
// area ring is split at the front longitude and the trailing side kept.
func Wavefront(e *Event, progression float64) ([]geo.Polygon, error) {
	w, ok := e.Wave.(LinearWave)
	if !ok {
		return nil, ErrInvalidWave
	}
	front, err := FrontLongitude(e, progression)
	if err != nil {
		return nil, err
	}
	area, _ := e.Area()

	var covered []geo.Polygon
	for _, ring := range area.Polygons {
		west, east := geo.SplitByLongitude(ring, front)
		if w.Direction == EastToWest {
			covered = append(covered, east...)
		} else {
			covered = append(covered, west...)
		}
	}
	return covered, nil
}

// UserPositionRatio normalizes a position along the wave's axis of
// travel: 0 at the wave origin, 1 at the far edge. For a warming wave
// every position maps to 1, since the hit lands at the end for all.
func UserPositionRatio(e *Event, pos geo.Position) (float64, error) {
	switch w := e.Wave.(type) {
	case LinearWave:
		area, err := e.Area()
		if err != nil {
			return 0, err
		}
		b := area.Bounds()
		width := b.Width()
		if width <= 0 {
			return 0, ErrInvalidWave
		}
		ratio := (pos.Lng - b.Southwest.Lng) / width
		if w.Direction == EastToWest {
			ratio = 1 - ratio
		}
		return clampUnit(ratio), nil
	case WarmingWave:
		return 1, nil
	default:
		return 0, ErrInvalidWave
	}
}

// HitTime predicts when the wavefront reaches the given position ratio.
func HitTime(e *Event, ratio float64) (time.Time, error) {
	total, err := e.WaveDuration()
	if err != nil {
		return time.Time{}, err
	}
	return e.Start().Add(time.Duration(clampUnit(ratio) * float64(total))), nil
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
