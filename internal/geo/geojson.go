package geo

import (
	"encoding/json"
	"fmt"
)

// geoJSON is the subset of RFC 7946 the area files use. Coordinates are
// [lng, lat] pairs; only Polygon and MultiPolygon geometries appear,
// either bare or wrapped in a Feature / FeatureCollection.
type geoJSON struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometry    *geoJSON        `json:"geometry"`
	Features    []geoJSON       `json:"features"`
}

// ParseGeoJSONRings extracts every polygon ring (outer and holes alike)
// from a GeoJSON document; Area.Contains applies the even-odd rule
// across them, so interior rings keep their hole meaning. Positions
// outside valid lat/lng ranges fail the parse rather than producing a
// corrupt area.
func ParseGeoJSONRings(data []byte) ([]Polygon, error) {
	var doc geoJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	rings, err := collectRings(&doc)
	if err != nil {
		return nil, err
	}
	if len(rings) == 0 {
		return nil, fmt.Errorf("geojson contains no polygon rings")
	}
	return rings, nil
}

func collectRings(doc *geoJSON) ([]Polygon, error) {
	switch doc.Type {
	case "FeatureCollection":
		var rings []Polygon
		for i := range doc.Features {
			sub, err := collectRings(&doc.Features[i])
			if err != nil {
				return nil, err
			}
			rings = append(rings, sub...)
		}
		return rings, nil
	case "Feature":
		if doc.Geometry == nil {
			return nil, nil
		}
		return collectRings(doc.Geometry)
	case "Polygon":
		var coords [][][2]float64
		if err := json.Unmarshal(doc.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("parse polygon coordinates: %w", err)
		}
		return ringsFromCoords(coords)
	case "MultiPolygon":
		var coords [][][][2]float64
		if err := json.Unmarshal(doc.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("parse multipolygon coordinates: %w", err)
		}
		var rings []Polygon
		for _, poly := range coords {
			sub, err := ringsFromCoords(poly)
			if err != nil {
				return nil, err
			}
			rings = append(rings, sub...)
		}
		return rings, nil
	default:
		return nil, fmt.Errorf("unsupported geojson type %q", doc.Type)
	}
}

func ringsFromCoords(coords [][][2]float64) ([]Polygon, error) {
	rings := make([]Polygon, 0, len(coords))
	for _, ring := range coords {
		poly := make(Polygon, 0, len(ring))
		for _, c := range ring {
			p, err := NewPosition(c[1], c[0])
			if err != nil {
				return nil, fmt.Errorf("invalid ring vertex: %w", err)
			}
			poly = append(poly, p)
		}
		rings = append(rings, poly.Close())
	}
	return rings, nil
}
