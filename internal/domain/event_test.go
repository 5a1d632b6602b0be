package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drwave-www/worldwidewaves-engine/internal/geo"
)

// squareArea is a 10x10 degree test area from (0,0) to (10,10).
func squareArea() *geo.Area {
	return geo.NewArea(geo.Polygon{
		{Lat: 0, Lng: 0}, {Lat: 0, Lng: 10}, {Lat: 10, Lng: 10}, {Lat: 10, Lng: 0}, {Lat: 0, Lng: 0},
	})
}

type stubAreas struct {
	area  *geo.Area
	err   error
	calls int
}

func (s *stubAreas) EventArea(string) (*geo.Area, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.area, nil
}

var testStart = time.Date(2026, 6, 21, 21, 0, 0, 0, time.UTC)

// linearTestEvent sweeps the square area west to east in 100 seconds.
func linearTestEvent(areas AreaProvider) *Event {
	return NewEvent("paris-2026", "Paris", testStart, LinearWave{
		Direction:   WestToEast,
		Speed:       0.1,
		WarmupPhase: 10 * time.Minute,
	}, areas)
}

func TestEventArea_CachesFirstSuccess(t *testing.T) {
	areas := &stubAreas{area: squareArea()}
	e := linearTestEvent(areas)

	a1, err := e.Area()
	require.NoError(t, err)
	a2, err := e.Area()
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.Equal(t, 1, areas.calls, "provider must be hit once")
}

func TestEventArea_RetriesAfterFailure(t *testing.T) {
	areas := &stubAreas{err: ErrAreaNotReady}
	e := linearTestEvent(areas)

	_, err := e.Area()
	require.ErrorIs(t, err, ErrAreaNotReady)

	// Area becomes available, e.g. the map download finished.
	areas.err = nil
	areas.area = squareArea()

	a, err := e.Area()
	require.NoError(t, err)
	assert.NotNil(t, a)
	assert.Equal(t, 2, areas.calls)
}

func TestEventArea_NilProvider(t *testing.T) {
	e := NewEvent("no-area", "n", testStart, WarmingWave{Duration: time.Minute}, nil)
	_, err := e.Area()
	assert.ErrorIs(t, err, ErrAreaNotReady)
}

func TestWaveDuration(t *testing.T) {
	t.Run("linear from area width", func(t *testing.T) {
		e := linearTestEvent(&stubAreas{area: squareArea()})
		d, err := e.WaveDuration()
		require.NoError(t, err)
		assert.Equal(t, 100*time.Second, d)
	})

	t.Run("linear without area", func(t *testing.T) {
		e := linearTestEvent(&stubAreas{err: ErrAreaNotReady})
		_, err := e.WaveDuration()
		assert.ErrorIs(t, err, ErrAreaNotReady)
	})

	t.Run("linear with non-positive speed", func(t *testing.T) {
		e := NewEvent("bad", "b", testStart, LinearWave{Speed: 0}, &stubAreas{area: squareArea()})
		_, err := e.WaveDuration()
		assert.ErrorIs(t, err, ErrInvalidWave)
	})

	t.Run("warming uses its own duration", func(t *testing.T) {
		e := NewEvent("warm", "w", testStart, WarmingWave{Duration: 3 * time.Minute}, nil)
		d, err := e.WaveDuration()
		require.NoError(t, err)
		assert.Equal(t, 3*time.Minute, d)
	})

	t.Run("warming with zero duration", func(t *testing.T) {
		e := NewEvent("warm", "w", testStart, WarmingWave{}, nil)
		_, err := e.WaveDuration()
		assert.ErrorIs(t, err, ErrInvalidWave)
	})
}

func TestEventEnd(t *testing.T) {
	e := linearTestEvent(&stubAreas{area: squareArea()})
	end, err := e.End()
	require.NoError(t, err)
	assert.Equal(t, testStart.Add(100*time.Second), end)
}

func TestEventSetStart(t *testing.T) {
	e := linearTestEvent(&stubAreas{area: squareArea()})
	assert.True(t, e.Start().Equal(testStart))

	next := testStart.Add(7 * 24 * time.Hour)
	e.SetStart(next)
	assert.True(t, e.Start().Equal(next))

	end, err := e.End()
	require.NoError(t, err)
	assert.Equal(t, next.Add(100*time.Second), end, "the end follows the new occurrence")
}

func TestEventFavorite(t *testing.T) {
	e := linearTestEvent(nil)
	assert.False(t, e.Favorite())
	e.SetFavorite(true)
	assert.True(t, e.Favorite())
	e.SetFavorite(false)
	assert.False(t, e.Favorite())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "UNDEFINED", StatusUndefined.String())
	assert.Equal(t, "SOON", StatusSoon.String())
	assert.Equal(t, "WARMING", StatusWarming.String())
	assert.Equal(t, "RUNNING", StatusRunning.String())
	assert.Equal(t, "DONE", StatusDone.String())
	assert.Equal(t, "UNDEFINED", Status(99).String())
}

func TestErrSentinels(t *testing.T) {
	assert.True(t, errors.Is(ErrAreaNotReady, ErrAreaNotReady))
	assert.NotErrorIs(t, ErrAreaNotReady, ErrInvalidWave)
}
