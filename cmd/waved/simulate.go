package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/drwave-www/worldwidewaves-engine/internal/catalog"
	"github.com/drwave-www/worldwidewaves-engine/internal/domain"
	"github.com/drwave-www/worldwidewaves-engine/internal/geo"
	"github.com/drwave-www/worldwidewaves-engine/internal/observability"
	"github.com/drwave-www/worldwidewaves-engine/internal/observer"
)

var (
	simCatalogPath string
	simEventID     string
	simLat         float64
	simLng         float64
	simSpeedup     float64
	simLead        time.Duration
	simReplay      bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay one event against a synthetic clock",
	Long: `Simulate runs a single catalog event on an accelerated fake clock with
a fixed user position, printing every state transition. With --replay the
event is reset and replayed a second time, exercising the restart path.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVarP(&simCatalogPath, "catalog", "c", "events.yaml", "path to the event catalog")
	simulateCmd.Flags().StringVarP(&simEventID, "event", "e", "", "event id to simulate (required)")
	simulateCmd.Flags().Float64Var(&simLat, "lat", 0, "simulated user latitude")
	simulateCmd.Flags().Float64Var(&simLng, "lng", 0, "simulated user longitude")
	simulateCmd.Flags().Float64Var(&simSpeedup, "speedup", 60, "simulated seconds per wall-clock second")
	simulateCmd.Flags().DurationVar(&simLead, "lead", time.Minute, "simulated time before the warmup phase to start at")
	simulateCmd.Flags().BoolVar(&simReplay, "replay", false, "replay the event a second time after it finishes")
	simulateCmd.MarkFlagRequired("event") //nolint:errcheck // static flag name
}

// staticPositions pins the simulated user to one spot.
type staticPositions struct {
	pos geo.Position
}

func (s staticPositions) LastKnownPosition() (geo.Position, bool) { return s.pos, true }

func runSimulate(cmd *cobra.Command, _ []string) error {
	cat, err := catalog.Load(simCatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	e, ok := cat.Event(simEventID)
	if !ok {
		return fmt.Errorf("unknown event %q", simEventID)
	}
	pos, err := geo.NewPosition(simLat, simLng)
	if err != nil {
		return err
	}
	if simSpeedup <= 0 {
		return fmt.Errorf("speedup must be positive")
	}

	// Make sure the area parses before replaying anything.
	if _, err := e.Area(); err != nil {
		return fmt.Errorf("event area unavailable: %w", err)
	}

	begin := e.Start().Add(-e.Wave.Warmup() - simLead)
	defer domain.SetClock(nil)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	obs := observer.New(e, staticPositions{pos: pos}, nil, logger, observability.NewMetricsForTesting())

	fmt.Printf("simulating %s (%s) from %s at %.0fx, user at (%.4f, %.4f)\n",
		e.ID, e.Name, begin.Format(time.RFC3339), simSpeedup, pos.Lat, pos.Lng)

	runs := 1
	if simReplay {
		runs = 2
	}
	for run := 1; run <= runs; run++ {
		// Each run gets a fresh clock rewound to the beginning; the
		// previous run's loop has been joined, so resetting is safe.
		fc := clockwork.NewFakeClockAt(begin)
		domain.SetClock(fc)
		if run > 1 {
			obs.ResetState()
			fmt.Printf("\n--- replay %d ---\n", run)
		}
		if err := replayOnce(cmd.Context(), obs, fc); err != nil {
			return err
		}
	}
	return nil
}

// replayOnce drives the observer's clock until the event is done,
// printing each state transition as simulated time passes.
func replayOnce(ctx context.Context, obs *observer.Observer, fc *clockwork.FakeClock) error {
	states, cancel := obs.State().Subscribe()
	defer cancel()

	obs.StartObservation()

	step := time.Duration(float64(50*time.Millisecond) * simSpeedup)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var prev domain.EventState
	for {
		select {
		case <-ctx.Done():
			obs.StopObservation()
			return ctx.Err()
		case state := <-states:
			printTransitions(fc.Now(), prev, state)
			prev = state
			if state.Status == domain.StatusDone {
				fmt.Printf("[%s] event finished\n", fc.Now().Format(time.RFC3339))
				return obs.StopObservationAndWait(ctx)
			}
		case <-ticker.C:
			fc.Advance(step)
		}
	}
}

func printTransitions(now time.Time, prev, cur domain.EventState) {
	stamp := now.Format(time.RFC3339)
	if cur.Status != prev.Status {
		fmt.Printf("[%s] status %s -> %s\n", stamp, prev.Status, cur.Status)
	}
	if cur.UserIsInArea != prev.UserIsInArea {
		fmt.Printf("[%s] user in area: %v\n", stamp, cur.UserIsInArea)
	}
	if cur.UserIsGoingToBeHit && !prev.UserIsGoingToBeHit {
		fmt.Printf("[%s] wave approaching, hit expected at %s\n", stamp, cur.HitDateTime.Format(time.RFC3339))
	}
	if cur.UserHasBeenHit && !prev.UserHasBeenHit {
		fmt.Printf("[%s] WAVE HIT at progression %.1f%%\n", stamp, cur.Progression*100)
	}
}
