// Command validate checks the integrity of an event catalog and its
// area files: catalog syntax, ring closure, coordinate ranges,
// self-intersecting rings, and split consistency of each area at its
// bounding-box midline.
//
// Usage:
//
//	go run ./cmd/validate -catalog events.yaml
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/drwave-www/worldwidewaves-engine/internal/catalog"
	"github.com/drwave-www/worldwidewaves-engine/internal/geo"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func (p *phase) report() {
	if p.passed() {
		fmt.Printf("PASS %s\n", p.name)
		return
	}
	fmt.Printf("FAIL %s\n", p.name)
	for _, e := range p.errors {
		fmt.Printf("  - %s\n", e)
	}
}

func main() {
	catalogPath := flag.String("catalog", "events.yaml", "path to the event catalog")
	flag.Parse()

	phases := run(*catalogPath)

	failed := false
	for _, p := range phases {
		p.report()
		if !p.passed() {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func run(catalogPath string) []*phase {
	load := &phase{name: "catalog loads and validates"}
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		load.errorf("%v", err)
		return []*phase{load}
	}

	areas := &phase{name: "area files parse"}
	rings := &phase{name: "rings are closed with enough distinct vertices"}
	intersections := &phase{name: "rings are free of self-intersections"}
	splits := &phase{name: "areas split consistently at the bounding-box midline"}

	for _, e := range cat.Events() {
		area, err := cat.Areas().EventArea(e.ID)
		if err != nil {
			areas.errorf("event %s: %v", e.ID, err)
			continue
		}
		for ri, ring := range area.Polygons {
			checkRing(rings, e.ID, ri, ring)
			checkSelfIntersections(intersections, e.ID, ri, ring)
			checkSplit(splits, e.ID, ri, ring)
		}
	}

	return []*phase{load, areas, rings, intersections, splits}
}

func checkRing(p *phase, eventID string, ri int, ring geo.Polygon) {
	if !ring.Closed() {
		p.errorf("event %s ring %d: not closed", eventID, ri)
	}
	if len(ring) < 4 {
		p.errorf("event %s ring %d: only %d points", eventID, ri, len(ring))
	}
}

// checkSelfIntersections tests every non-adjacent edge pair of the ring.
func checkSelfIntersections(p *phase, eventID string, ri int, ring geo.Polygon) {
	edges := len(ring) - 1
	if edges <= 3 {
		return
	}
	found := 0
	for i := 0; i < edges; i++ {
		for j := i + 2; j < edges; j++ {
			// The closing edge is adjacent to the first one.
			if i == 0 && j == edges-1 {
				continue
			}
			if segmentsIntersect(ring[i], ring[i+1], ring[j], ring[j+1]) {
				if found < 5 {
					p.errorf("event %s ring %d: edges %d-%d and %d-%d intersect",
						eventID, ri, i, i+1, j, j+1)
				}
				found++
			}
		}
	}
	if found > 5 {
		p.errorf("event %s ring %d: %d further intersections omitted", eventID, ri, found-5)
	}
}

// checkSplit cuts the ring at its bounding-box midline and verifies
// every produced ring is closed, on one side only, and that no vertex
// vanished.
func checkSplit(p *phase, eventID string, ri int, ring geo.Polygon) {
	if len(ring) < 4 {
		return
	}
	bounds := ring.Bounds()
	cut := (bounds.Southwest.Lng + bounds.Northeast.Lng) / 2
	left, right := geo.SplitByLongitude(ring, cut)

	for side, parts := range map[string][]geo.Polygon{"left": left, "right": right} {
		for pi, part := range parts {
			if !part.Closed() {
				p.errorf("event %s ring %d: %s split part %d not closed", eventID, ri, side, pi)
			}
			for _, v := range part {
				onLeft := v.Lng <= cut+1e-9
				onRight := v.Lng >= cut-1e-9
				if (side == "left" && !onLeft) || (side == "right" && !onRight) {
					p.errorf("event %s ring %d: %s split part %d leaks across the cut", eventID, ri, side, pi)
					break
				}
			}
		}
	}

	// Every original vertex must survive on its side of the cut; a
	// vertex exactly on the cut may land on either side.
	for _, v := range ring {
		var lost bool
		switch {
		case v.Lng < cut:
			lost = !containsVertex(left, v)
		case v.Lng > cut:
			lost = !containsVertex(right, v)
		default:
			lost = !containsVertex(left, v) && !containsVertex(right, v)
		}
		if lost {
			p.errorf("event %s ring %d: vertex (%.6f, %.6f) lost in split", eventID, ri, v.Lat, v.Lng)
		}
	}
}

func containsVertex(parts []geo.Polygon, v geo.Position) bool {
	for _, part := range parts {
		for _, u := range part {
			if u == v {
				return true
			}
		}
	}
	return false
}

const intersectEps = 1e-12

func orient(a, b, c geo.Position) float64 {
	return (b.Lng-a.Lng)*(c.Lat-a.Lat) - (b.Lat-a.Lat)*(c.Lng-a.Lng)
}

func onSegment(a, b, p geo.Position) bool {
	if math.Abs(orient(a, b, p)) > intersectEps {
		return false
	}
	return math.Min(a.Lng, b.Lng)-intersectEps <= p.Lng && p.Lng <= math.Max(a.Lng, b.Lng)+intersectEps &&
		math.Min(a.Lat, b.Lat)-intersectEps <= p.Lat && p.Lat <= math.Max(a.Lat, b.Lat)+intersectEps
}

// segmentsIntersect reports whether segments ab and cd cross or touch.
func segmentsIntersect(a, b, c, d geo.Position) bool {
	o1 := orient(a, b, c)
	o2 := orient(a, b, d)
	o3 := orient(c, d, a)
	o4 := orient(c, d, b)
	if (o1 > 0) != (o2 > 0) && (o3 > 0) != (o4 > 0) {
		return true
	}
	if math.Abs(o1) <= intersectEps && onSegment(a, b, c) {
		return true
	}
	if math.Abs(o2) <= intersectEps && onSegment(a, b, d) {
		return true
	}
	if math.Abs(o3) <= intersectEps && onSegment(c, d, a) {
		return true
	}
	if math.Abs(o4) <= intersectEps && onSegment(c, d, b) {
		return true
	}
	return false
}
