package geo

// ContainsPosition reports whether point lies inside the ring using the
// even-odd ray casting rule. Rings with fewer than three distinct
// vertices contain nothing. Points on an edge may land on either side
// of the boundary; callers needing exact edge semantics should test the
// bounding box instead.
func ContainsPosition(ring Polygon, point Position) bool {
	if ring.distinctCount() < 3 {
		return false
	}

	// Drop the closing duplicate so each edge is visited once.
	n := len(ring)
	if ring.Closed() {
		n--
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := ring[i], ring[j]
		if (vi.Lng > point.Lng) != (vj.Lng > point.Lng) &&
			point.Lat < (vj.Lat-vi.Lat)*(point.Lng-vi.Lng)/(vj.Lng-vi.Lng)+vi.Lat {
			inside = !inside
		}
		j = i
	}
	return inside
}
