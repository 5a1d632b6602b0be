package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drwave-www/worldwidewaves-engine/internal/geo"
)

// stateAt computes the snapshot for the linear test event at a given
// instant, with the user standing at ratio 0.5 (lng 5).
func stateAt(t *testing.T, at time.Time, inArea bool) (EventState, bool) {
	t.Helper()
	e := linearTestEvent(&stubAreas{area: squareArea()})
	SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { SetClock(nil) })

	prog, err := CalculateProgression(e)
	require.NoError(t, err)
	return CalculateEventState(e, prog, CurrentStatus(e), geo.Position{Lat: 5, Lng: 5}, true, inArea)
}

func TestCalculateEventState(t *testing.T) {
	// Hit for ratio 0.5 lands at start+50s.
	t.Run("long before hit", func(t *testing.T) {
		state, ok := stateAt(t, testStart.Add(-time.Hour), true)
		require.True(t, ok)
		assert.False(t, state.UserIsGoingToBeHit)
		assert.False(t, state.UserHasBeenHit)
		assert.Equal(t, testStart.Add(50*time.Second), state.HitDateTime)
		assert.Equal(t, time.Hour+50*time.Second, state.TimeBeforeHit)
		assert.InDelta(t, 0.5, state.UserPositionRatio, 1e-9)
	})

	t.Run("warming phase raises start warming flag", func(t *testing.T) {
		state, ok := stateAt(t, testStart.Add(-time.Minute), true)
		require.True(t, ok)
		assert.Equal(t, StatusWarming, state.Status)
		assert.True(t, state.IsStartWarmingInProgress)
		assert.False(t, state.UserIsGoingToBeHit, "hit still 51s away plus a minute")
	})

	t.Run("inside lead window", func(t *testing.T) {
		state, ok := stateAt(t, testStart.Add(20*time.Second), true)
		require.True(t, ok)
		assert.Equal(t, StatusRunning, state.Status)
		assert.True(t, state.UserIsGoingToBeHit, "30s to hit is inside the lead window")
		assert.True(t, state.IsUserWarmingInProgress)
		assert.False(t, state.UserHasBeenHit)
		assert.Equal(t, 30*time.Second, state.TimeBeforeHit)
	})

	t.Run("hit", func(t *testing.T) {
		state, ok := stateAt(t, testStart.Add(50*time.Second), true)
		require.True(t, ok)
		assert.True(t, state.UserHasBeenHit)
		assert.False(t, state.UserIsGoingToBeHit)
		assert.False(t, state.IsUserWarmingInProgress)
		assert.Equal(t, time.Duration(0), state.TimeBeforeHit)
	})

	t.Run("outside area never hit", func(t *testing.T) {
		state, ok := stateAt(t, testStart.Add(80*time.Second), false)
		require.True(t, ok)
		assert.False(t, state.UserIsInArea)
		assert.False(t, state.UserHasBeenHit)
		assert.False(t, state.UserIsGoingToBeHit)
	})

	t.Run("no position fix falls back to basic", func(t *testing.T) {
		e := linearTestEvent(&stubAreas{area: squareArea()})
		SetClock(clockwork.NewFakeClockAt(testStart))
		defer SetClock(nil)

		state, ok := CalculateEventState(e, 0, StatusRunning, geo.Position{}, false, false)
		assert.False(t, ok)
		assert.Equal(t, StatusRunning, state.Status)
	})

	t.Run("area missing falls back to basic", func(t *testing.T) {
		e := linearTestEvent(&stubAreas{err: ErrAreaNotReady})
		SetClock(clockwork.NewFakeClockAt(testStart))
		defer SetClock(nil)

		_, ok := CalculateEventState(e, 0, StatusRunning, geo.Position{Lat: 5, Lng: 5}, true, false)
		assert.False(t, ok)
	})
}

func TestValidateState(t *testing.T) {
	t.Run("clean state", func(t *testing.T) {
		assert.Empty(t, ValidateState(EventState{Status: StatusRunning, Progression: 0.4}))
	})

	t.Run("flags inconsistencies", func(t *testing.T) {
		issues := ValidateState(EventState{
			Status:             StatusDone,
			Progression:        1.7,
			UserIsInArea:       true,
			UserIsGoingToBeHit: true,
			UserHasBeenHit:     true,
			TimeBeforeHit:      -time.Second,
		})
		codes := make([]string, 0, len(issues))
		for _, i := range issues {
			codes = append(codes, i.Code)
		}
		assert.ElementsMatch(t, []string{"progression_range", "negative_time_before_hit", "hit_and_pending"}, codes)
	})

	t.Run("done without hit", func(t *testing.T) {
		issues := ValidateState(EventState{Status: StatusDone, Progression: 1, UserIsInArea: true})
		require.Len(t, issues, 1)
		assert.Equal(t, "done_without_hit", issues[0].Code)
	})
}

func TestValidateStateTransition(t *testing.T) {
	t.Run("forward transition is clean", func(t *testing.T) {
		prev := EventState{Status: StatusWarming, Progression: 0}
		next := EventState{Status: StatusRunning, Progression: 0.1}
		assert.Empty(t, ValidateStateTransition(prev, next))
	})

	t.Run("status regression", func(t *testing.T) {
		issues := ValidateStateTransition(
			EventState{Status: StatusRunning},
			EventState{Status: StatusSoon},
		)
		require.Len(t, issues, 1)
		assert.Equal(t, "status_regression", issues[0].Code)
	})

	t.Run("hit latch regression", func(t *testing.T) {
		issues := ValidateStateTransition(
			EventState{Status: StatusRunning, UserHasBeenHit: true},
			EventState{Status: StatusRunning},
		)
		require.Len(t, issues, 1)
		assert.Equal(t, "hit_latch_regression", issues[0].Code)
	})

	t.Run("progression regression within same status", func(t *testing.T) {
		issues := ValidateStateTransition(
			EventState{Status: StatusRunning, Progression: 0.6},
			EventState{Status: StatusRunning, Progression: 0.5},
		)
		require.Len(t, issues, 1)
		assert.Equal(t, "progression_regression", issues[0].Code)
	})
}
