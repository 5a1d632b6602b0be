package domain

import (
	"fmt"
	"time"

	"github.com/drwave-www/worldwidewaves-engine/internal/geo"
)

// hitLeadWindow is how far ahead of the predicted hit the "about to be
// hit" flag raises, triggering the waiting choreography. Tunable; it is
// aligned with the scheduler's fine-polling band.
const hitLeadWindow = 35 * time.Second

// EventState is the full derived snapshot published to consumers. It is
// recomputed every observation tick and superseded, never merged.
type EventState struct {
	Status                   Status        `json:"status"`
	Progression              float64       `json:"progression"`
	IsStartWarmingInProgress bool          `json:"is_start_warming_in_progress"`
	IsUserWarmingInProgress  bool          `json:"is_user_warming_in_progress"`
	UserIsGoingToBeHit       bool          `json:"user_is_going_to_be_hit"`
	UserHasBeenHit           bool          `json:"user_has_been_hit"`
	UserPositionRatio        float64       `json:"user_position_ratio"`
	TimeBeforeHit            time.Duration `json:"time_before_hit"`
	HitDateTime              time.Time     `json:"hit_date_time"`
	UserIsInArea             bool          `json:"user_is_in_area"`
}

// CalculateEventState derives the snapshot for one tick. It reports
// ok=false when the data needed for hit prediction is missing (area not
// loaded, no position fix); the caller then falls back to a basic
// progression/status-only update. UserHasBeenHit here is the raw
// per-tick value; the observer owns the one-way latch.
func CalculateEventState(e *Event, progression float64, status Status, pos geo.Position, hasPos, userIsInArea bool) (EventState, bool) {
	state := EventState{
		Status:                   status,
		Progression:              progression,
		IsStartWarmingInProgress: status == StatusWarming,
		UserIsInArea:             userIsInArea,
	}
	if !hasPos {
		return state, false
	}

	ratio, err := UserPositionRatio(e, pos)
	if err != nil {
		return state, false
	}
	hitAt, err := HitTime(e, ratio)
	if err != nil {
		return state, false
	}
	state.UserPositionRatio = ratio
	state.HitDateTime = hitAt

	if remaining := hitAt.Sub(clock.Now()); remaining > 0 {
		state.TimeBeforeHit = remaining
	}

	waveActive := status == StatusRunning || status == StatusDone
	state.UserHasBeenHit = userIsInArea && waveActive && progression >= ratio

	state.UserIsGoingToBeHit = userIsInArea && !state.UserHasBeenHit &&
		(status == StatusWarming || status == StatusRunning) &&
		hitAt.Sub(clock.Now()) <= hitLeadWindow

	state.IsUserWarmingInProgress = state.UserIsGoingToBeHit

	return state, true
}

// Issue is a non-fatal consistency finding. Issues are logged as
// warnings and never block publishing.
type Issue struct {
	Code   string
	Detail string
}

func issuef(code, format string, args ...any) Issue {
	return Issue{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// ValidateState checks a single snapshot for internal consistency.
func ValidateState(state EventState) []Issue {
	var issues []Issue
	if state.Progression < 0 || state.Progression > 1 {
		issues = append(issues, issuef("progression_range",
			"progression %v outside [0,1]", state.Progression))
	}
	if state.UserPositionRatio < 0 || state.UserPositionRatio > 1 {
		issues = append(issues, issuef("ratio_range",
			"user position ratio %v outside [0,1]", state.UserPositionRatio))
	}
	if state.TimeBeforeHit < 0 {
		issues = append(issues, issuef("negative_time_before_hit",
			"time before hit %v is negative", state.TimeBeforeHit))
	}
	if state.UserIsGoingToBeHit && state.UserHasBeenHit {
		issues = append(issues, issuef("hit_and_pending",
			"user flagged both going-to-be-hit and has-been-hit"))
	}
	if state.Status == StatusDone && state.UserIsInArea && !state.UserHasBeenHit {
		issues = append(issues, issuef("done_without_hit",
			"status DONE but user in area was never hit"))
	}
	return issues
}

// ValidateStateTransition checks two consecutive snapshots against the
// monotonicity rules.
func ValidateStateTransition(prev, next EventState) []Issue {
	var issues []Issue
	if next.Status < prev.Status {
		issues = append(issues, issuef("status_regression",
			"status regressed %s -> %s", prev.Status, next.Status))
	}
	if prev.UserHasBeenHit && !next.UserHasBeenHit {
		issues = append(issues, issuef("hit_latch_regression",
			"user_has_been_hit reverted without reset"))
	}
	if next.Status == prev.Status && next.Progression < prev.Progression {
		issues = append(issues, issuef("progression_regression",
			"progression decreased %v -> %v", prev.Progression, next.Progression))
	}
	return issues
}
