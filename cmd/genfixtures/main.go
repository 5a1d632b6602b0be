// Command genfixtures writes a demo catalog plus GeoJSON area files for
// local development and the simulate subcommand. The generated events
// use the real catalog schema, so the output doubles as a reference for
// hand-written catalogs.
//
// Usage:
//
//	go run ./cmd/genfixtures -out-dir ./demo
//	go run ./cmd/waved simulate -c demo/events.yaml -e paris-demo --lat 48.8566 --lng 2.3522
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/drwave-www/worldwidewaves-engine/internal/catalog"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "demo", "directory to write the catalog and area files into")
	flag.Parse()

	areasDir := filepath.Join(*outDir, "areas")
	if err := os.MkdirAll(areasDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// Start the demo events on the next solstice-ish evening so the
	// simulator has a future occurrence to aim at.
	start := time.Now().UTC().Truncate(time.Hour).Add(48 * time.Hour)

	fixtures := []struct {
		def  catalog.EventDef
		ring [][]float64 // [lng, lat]
	}{
		{
			def: catalog.EventDef{
				ID:       "paris-demo",
				Name:     "Paris Demo Wave",
				Start:    start,
				Timezone: "Europe/Paris",
				AreaFile: "areas/paris-demo.geojson",
				Wave: catalog.WaveDef{
					Type:      "linear",
					Direction: "west_to_east",
					Speed:     0.0005,
					Warmup:    10 * time.Minute,
				},
			},
			ring: circle(48.8566, 2.3522, 0.12, 48),
		},
		{
			def: catalog.EventDef{
				ID:         "weekly-warming-demo",
				Name:       "Weekly Warming Demo",
				Start:      start.Add(24 * time.Hour),
				Recurrence: "0 18 * * 6",
				AreaFile:   "areas/weekly-warming-demo.geojson",
				Wave: catalog.WaveDef{
					Type:     "warming",
					Duration: 90 * time.Second,
					Warmup:   5 * time.Minute,
				},
			},
			ring: circle(40.7128, -74.006, 0.2, 64),
		},
	}

	defs := make([]catalog.EventDef, 0, len(fixtures))
	for _, f := range fixtures {
		defs = append(defs, f.def)
		path := filepath.Join(*outDir, f.def.AreaFile)
		if err := writeGeoJSON(path, f.ring); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}

	data, err := yaml.Marshal(map[string]any{"events": defs})
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	catalogPath := filepath.Join(*outDir, "events.yaml")
	if err := os.WriteFile(catalogPath, data, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	fmt.Printf("wrote %s\n", catalogPath)

	// Round-trip through the real loader so broken fixtures never ship.
	if _, err := catalog.Load(catalogPath); err != nil {
		return fmt.Errorf("generated catalog failed validation: %w", err)
	}
	return nil
}

// circle approximates a circular area around a center as an n-gon ring.
func circle(lat, lng, radiusDeg float64, segments int) [][]float64 {
	ring := make([][]float64, 0, segments+1)
	for i := 0; i < segments; i++ {
		angle := 2 * math.Pi * float64(i) / float64(segments)
		ring = append(ring, []float64{
			lng + radiusDeg*math.Cos(angle),
			lat + radiusDeg*math.Sin(angle),
		})
	}
	ring = append(ring, ring[0])
	return ring
}

func writeGeoJSON(path string, ring [][]float64) error {
	doc := map[string]any{
		"type": "Feature",
		"geometry": map[string]any{
			"type":        "Polygon",
			"coordinates": [][][]float64{ring},
		},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal geojson: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}
