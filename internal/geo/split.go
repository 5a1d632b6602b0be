package geo

import "sort"

// SplitByLongitude partitions a polygon ring into closed sub-rings lying
// west (left) and east (right) of a vertical cut line. Concave rings may
// split into several disjoint rings per side. Vertices exactly on the cut
// line are boundary points: they terminate chains on both sides but are
// never promoted into a ring of a side the polygon does not enter.
//
// Malformed input degrades to empty results: a ring with fewer than three
// distinct vertices, or one whose every vertex sits on the cut line,
// yields no rings on either side.
func SplitByLongitude(ring Polygon, cutLng float64) (left, right []Polygon) {
	verts := openRing(ring)
	if Polygon(verts).distinctCount() < 3 {
		return nil, nil
	}

	anyWest, anyEast := false, false
	for _, v := range verts {
		switch lngSide(v.Lng, cutLng) {
		case -1:
			anyWest = true
		case 1:
			anyEast = true
		}
	}
	switch {
	case !anyWest && !anyEast:
		return nil, nil
	case !anyEast:
		return []Polygon{Polygon(verts).Close()}, nil
	case !anyWest:
		return nil, []Polygon{Polygon(verts).Close()}
	}

	nodes := buildSplitNodes(verts, cutLng)
	return assembleSide(nodes, -1), assembleSide(nodes, 1)
}

// lngSide classifies a longitude against the cut: -1 west, 0 on, 1 east.
func lngSide(lng, cut float64) int {
	switch {
	case lng < cut:
		return -1
	case lng > cut:
		return 1
	}
	return 0
}

// openRing returns the ring's vertices without the closing duplicate.
func openRing(ring Polygon) []Position {
	if ring.Closed() {
		return ring[:len(ring)-1]
	}
	return ring
}

type splitNode struct {
	pos  Position
	side int
}

// buildSplitNodes walks the ring's edges and inserts an intersection node
// wherever an edge crosses the cut line. The intersection latitude is the
// linear interpolation of the edge endpoints at the exact cut longitude.
func buildSplitNodes(verts []Position, cut float64) []splitNode {
	n := len(verts)
	nodes := make([]splitNode, 0, n+4)
	for i := 0; i < n; i++ {
		a := verts[i]
		b := verts[(i+1)%n]
		sa := lngSide(a.Lng, cut)
		sb := lngSide(b.Lng, cut)
		nodes = append(nodes, splitNode{pos: a, side: sa})
		if sa*sb == -1 {
			t := (cut - a.Lng) / (b.Lng - a.Lng)
			nodes = append(nodes, splitNode{
				pos:  Position{Lat: a.Lat + t*(b.Lat-a.Lat), Lng: cut},
				side: 0,
			})
		}
	}
	return nodes
}

// assembleSide extracts the chains of one side and stitches them into
// closed rings by bridging chain endpoints along the cut line.
func assembleSide(nodes []splitNode, side int) []Polygon {
	chains := extractChains(nodes, side)
	if len(chains) == 0 {
		return nil
	}
	return stitchChains(chains)
}

// extractChains collects maximal runs of nodes on the wanted side,
// bounded by boundary nodes on the cut line. Runs made of boundary
// nodes only belong to the opposite side and are dropped.
func extractChains(nodes []splitNode, side int) [][]Position {
	n := len(nodes)

	// Rotate so the walk starts on the opposite side. Both sides are
	// known to be present by the time this runs.
	start := 0
	for i, nd := range nodes {
		if nd.side == -side {
			start = i
			break
		}
	}

	var chains [][]Position
	var cur []Position
	strict := false
	flush := func() {
		if strict && len(cur) >= 2 {
			chains = append(chains, cur)
		}
		cur = nil
		strict = false
	}

	for i := 1; i <= n; i++ {
		nd := nodes[(start+i)%n]
		if nd.side == -side {
			flush()
			continue
		}
		cur = append(cur, nd.pos)
		if nd.side == side {
			strict = true
		}
	}
	flush()
	return chains
}

// stitchChains closes chains into rings. Chain endpoints all lie on the
// cut line; sorting them by latitude and bridging consecutive pairs
// reconnects the ring boundary the cut severed. Chains entered at their
// far end are appended reversed.
func stitchChains(chains [][]Position) []Polygon {
	type endpoint struct {
		chain   int
		isStart bool
		lat     float64
	}

	eps := make([]endpoint, 0, 2*len(chains))
	for i, c := range chains {
		eps = append(eps,
			endpoint{chain: i, isStart: true, lat: c[0].Lat},
			endpoint{chain: i, isStart: false, lat: c[len(c)-1].Lat},
		)
	}
	sort.Slice(eps, func(i, j int) bool {
		if eps[i].lat != eps[j].lat {
			return eps[i].lat < eps[j].lat
		}
		if eps[i].chain != eps[j].chain {
			return eps[i].chain < eps[j].chain
		}
		return eps[i].isStart && !eps[j].isStart
	})

	if len(eps)%2 != 0 {
		// Should not happen for well-formed rings; close each chain on
		// its own rather than failing.
		out := make([]Polygon, 0, len(chains))
		for _, c := range chains {
			out = append(out, Polygon(c).Close())
		}
		return out
	}

	type key struct {
		chain   int
		isStart bool
	}
	partner := make(map[key]endpoint, len(eps))
	for i := 0; i < len(eps); i += 2 {
		partner[key{eps[i].chain, eps[i].isStart}] = eps[i+1]
		partner[key{eps[i+1].chain, eps[i+1].isStart}] = eps[i]
	}

	used := make([]bool, len(chains))
	var out []Polygon
	for first := range chains {
		if used[first] {
			continue
		}
		ring := append(Polygon{}, chains[first]...)
		used[first] = true
		at := key{chain: first, isStart: false}

		for hops := 0; hops <= len(chains); hops++ {
			next, ok := partner[at]
			if !ok {
				break
			}
			if next.chain == first && next.isStart {
				break
			}
			if used[next.chain] {
				break
			}
			used[next.chain] = true
			c := chains[next.chain]
			if next.isStart {
				ring = append(ring, c...)
				at = key{chain: next.chain, isStart: false}
			} else {
				for i := len(c) - 1; i >= 0; i-- {
					ring = append(ring, c[i])
				}
				at = key{chain: next.chain, isStart: true}
			}
		}

		out = append(out, ring.Close())
	}
	return out
}
