package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/drwave-www/worldwidewaves-engine/internal/domain"
)

// cronParser accepts the standard five-field crontab syntax.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// EventDef is one catalog entry as written in events.yaml.
type EventDef struct {
	ID         string    `yaml:"id"`
	Name       string    `yaml:"name"`
	Start      time.Time `yaml:"start"`
	Timezone   string    `yaml:"timezone"`
	Recurrence string    `yaml:"recurrence"`
	AreaFile   string    `yaml:"area"`
	Wave       WaveDef   `yaml:"wave"`
}

// WaveDef describes the wave; Type selects which fields apply.
type WaveDef struct {
	Type      string        `yaml:"type"`      // "linear" or "warming"
	Direction string        `yaml:"direction"` // "west_to_east" or "east_to_west"
	Speed     float64       `yaml:"speed"`     // degrees of longitude per second
	Warmup    time.Duration `yaml:"warmup"`
	Duration  time.Duration `yaml:"duration"` // warming waves only
}

type catalogFile struct {
	Events []EventDef `yaml:"events"`
}

// Catalog is the validated set of events plus their recurrence schedules
// and their shared area provider.
type Catalog struct {
	defs   []EventDef
	events []*domain.Event
	byID   map[string]*domain.Event
	crons  map[string]cron.Schedule
	areas  *AreaSource
}

// Load reads and validates the YAML catalog. Area files are resolved
// relative to the catalog file's directory and loaded lazily later.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse builds a catalog from raw YAML; baseDir anchors relative area
// file paths.
func Parse(data []byte, baseDir string) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if len(file.Events) == 0 {
		return nil, fmt.Errorf("catalog defines no events")
	}

	c := &Catalog{
		defs:  file.Events,
		byID:  make(map[string]*domain.Event, len(file.Events)),
		crons: make(map[string]cron.Schedule),
		areas: NewAreaSource(baseDir),
	}
	for i, def := range file.Events {
		if err := validateDef(def); err != nil {
			return nil, fmt.Errorf("event %d (%q): %w", i, def.ID, err)
		}
		if _, dup := c.byID[def.ID]; dup {
			return nil, fmt.Errorf("duplicate event id %q", def.ID)
		}

		if def.Recurrence != "" {
			schedule, err := cronParser.Parse(def.Recurrence)
			if err != nil {
				return nil, fmt.Errorf("event %q: invalid recurrence: %w", def.ID, err)
			}
			c.crons[def.ID] = schedule
		}

		wave, err := buildWave(def.Wave)
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", def.ID, err)
		}

		start := def.Start
		if def.Timezone != "" {
			loc, err := time.LoadLocation(def.Timezone)
			if err != nil {
				return nil, fmt.Errorf("event %q: invalid timezone %q: %w", def.ID, def.Timezone, err)
			}
			start = start.In(loc)
		}

		c.areas.Register(def.ID, def.AreaFile)
		e := domain.NewEvent(def.ID, def.Name, start, wave, c.areas)
		c.events = append(c.events, e)
		c.byID[def.ID] = e
	}
	return c, nil
}

func validateDef(def EventDef) error {
	if def.ID == "" {
		return fmt.Errorf("id is required")
	}
	if def.Name == "" {
		return fmt.Errorf("name is required")
	}
	if def.Start.IsZero() {
		return fmt.Errorf("start is required")
	}
	if def.AreaFile == "" {
		return fmt.Errorf("area file is required")
	}
	return nil
}

func buildWave(w WaveDef) (domain.WaveDefinition, error) {
	if w.Warmup < 0 {
		return nil, fmt.Errorf("warmup must not be negative")
	}
	switch w.Type {
	case "linear":
		direction, err := parseDirection(w.Direction)
		if err != nil {
			return nil, err
		}
		if w.Speed <= 0 {
			return nil, fmt.Errorf("linear wave speed must be positive")
		}
		return domain.LinearWave{
			Direction:   direction,
			Speed:       w.Speed,
			WarmupPhase: w.Warmup,
		}, nil
	case "warming":
		if w.Duration <= 0 {
			return nil, fmt.Errorf("warming wave duration must be positive")
		}
		return domain.WarmingWave{
			Duration:    w.Duration,
			WarmupPhase: w.Warmup,
		}, nil
	default:
		return nil, fmt.Errorf("unknown wave type %q", w.Type)
	}
}

func parseDirection(s string) (domain.SweepDirection, error) {
	switch s {
	case "west_to_east", "":
		return domain.WestToEast, nil
	case "east_to_west":
		return domain.EastToWest, nil
	default:
		return domain.WestToEast, fmt.Errorf("unknown sweep direction %q", s)
	}
}

// Events returns the catalog's events in file order.
func (c *Catalog) Events() []*domain.Event { return c.events }

// Event looks up an event by id.
func (c *Catalog) Event(id string) (*domain.Event, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Defs returns the raw catalog entries, in file order.
func (c *Catalog) Defs() []EventDef { return c.defs }

// Areas exposes the shared lazy area provider.
func (c *Catalog) Areas() *AreaSource { return c.areas }

// Recurrence returns the cron schedule for a recurring event, or false
// for one-shot events.
func (c *Catalog) Recurrence(id string) (cron.Schedule, bool) {
	s, ok := c.crons[id]
	return s, ok
}

// NextOccurrence computes the first occurrence of an event strictly
// after the given instant. One-shot events return their start time, or
// false once it has passed.
func (c *Catalog) NextOccurrence(id string, after time.Time) (time.Time, bool) {
	schedule, recurring := c.crons[id]
	e, ok := c.byID[id]
	if !ok {
		return time.Time{}, false
	}
	if !recurring {
		if e.Start().After(after) {
			return e.Start(), true
		}
		return time.Time{}, false
	}
	return schedule.Next(after), true
}
