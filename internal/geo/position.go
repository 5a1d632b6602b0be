package geo

import "fmt"

// Position is an immutable WGS-84 coordinate pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewPosition validates and constructs a Position.
// Latitude must lie in [-90,90] and longitude in [-180,180].
func NewPosition(lat, lng float64) (Position, error) {
	if lat < -90 || lat > 90 {
		return Position{}, fmt.Errorf("latitude %v out of range [-90,90]", lat)
	}
	if lng < -180 || lng > 180 {
		return Position{}, fmt.Errorf("longitude %v out of range [-180,180]", lng)
	}
	return Position{Lat: lat, Lng: lng}, nil
}

// BoundingBox is the axis-aligned envelope of a polygon.
type BoundingBox struct {
	Southwest Position `json:"southwest"`
	Northeast Position `json:"northeast"`
}

// Contains reports whether p lies inside the box, borders included.
func (b BoundingBox) Contains(p Position) bool {
	return p.Lat >= b.Southwest.Lat && p.Lat <= b.Northeast.Lat &&
		p.Lng >= b.Southwest.Lng && p.Lng <= b.Northeast.Lng
}

// Width returns the longitude extent of the box in degrees.
func (b BoundingBox) Width() float64 {
	return b.Northeast.Lng - b.Southwest.Lng
}

// Polygon is an ordered ring of positions, conventionally closed
// (first vertex equals last). A polygon with fewer than three distinct
// vertices is valid but geometrically empty: it contains nothing and
// splits into nothing.
type Polygon []Position

// Closed reports whether the ring's first and last vertices coincide.
func (p Polygon) Closed() bool {
	return len(p) > 1 && p[0] == p[len(p)-1]
}

// Close returns the ring with the first vertex appended if it is not
// already closed. Empty polygons are returned unchanged.
func (p Polygon) Close() Polygon {
	if len(p) == 0 || p.Closed() {
		return p
	}
	return append(append(Polygon{}, p...), p[0])
}

// distinctCount counts distinct vertices, ignoring the closing duplicate.
func (p Polygon) distinctCount() int {
	seen := make(map[Position]struct{}, len(p))
	for _, v := range p {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// Bounds computes the bounding box of the ring. The zero box is
// returned for an empty polygon.
func (p Polygon) Bounds() BoundingBox {
	if len(p) == 0 {
		return BoundingBox{}
	}
	sw := p[0]
	ne := p[0]
	for _, v := range p[1:] {
		if v.Lat < sw.Lat {
			sw.Lat = v.Lat
		}
		if v.Lat > ne.Lat {
			ne.Lat = v.Lat
		}
		if v.Lng < sw.Lng {
			sw.Lng = v.Lng
		}
		if v.Lng > ne.Lng {
			ne.Lng = v.Lng
		}
	}
	return BoundingBox{Southwest: sw, Northeast: ne}
}

// Area is the set of rings describing where an event's wave is valid,
// with the combined bounding box computed once.
type Area struct {
	Polygons []Polygon
	bounds   BoundingBox
	hasBB    bool
}

// NewArea builds an Area from one or more rings. Empty rings are kept
// out of the bounding box but retained for callers that index rings.
func NewArea(polygons ...Polygon) *Area {
	a := &Area{Polygons: polygons}
	for _, p := range polygons {
		if len(p) == 0 {
			continue
		}
		b := p.Bounds()
		if !a.hasBB {
			a.bounds = b
			a.hasBB = true
			continue
		}
		if b.Southwest.Lat < a.bounds.Southwest.Lat {
			a.bounds.Southwest.Lat = b.Southwest.Lat
		}
		if b.Southwest.Lng < a.bounds.Southwest.Lng {
			a.bounds.Southwest.Lng = b.Southwest.Lng
		}
		if b.Northeast.Lat > a.bounds.Northeast.Lat {
			a.bounds.Northeast.Lat = b.Northeast.Lat
		}
		if b.Northeast.Lng > a.bounds.Northeast.Lng {
			a.bounds.Northeast.Lng = b.Northeast.Lng
		}
	}
	return a
}

// Bounds returns the combined bounding box of all rings.
func (a *Area) Bounds() BoundingBox {
	return a.bounds
}

// Contains reports whether the point lies inside the area under the
// even-odd rule across its rings: a point inside an odd number of rings
// is in, so an interior (hole) ring carves out the ring enclosing it.
// The bounding box is checked first to skip the ray casts for far
// points.
func (a *Area) Contains(p Position) bool {
	if a == nil || !a.hasBB || !a.bounds.Contains(p) {
		return false
	}
	inside := false
	for _, ring := range a.Polygons {
		if ContainsPosition(ring, p) {
			inside = !inside
		}
	}
	return inside
}
