package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeoJSONRings_Polygon(t *testing.T) {
	data := []byte(`{"type":"Polygon","coordinates":[[[2.2,48.8],[2.5,48.8],[2.5,49.0],[2.2,49.0],[2.2,48.8]]]}`)

	rings, err := ParseGeoJSONRings(data)
	require.NoError(t, err)
	require.Len(t, rings, 1)
	require.Len(t, rings[0], 5)
	// Coordinates arrive as [lng, lat].
	assert.Equal(t, Position{Lat: 48.8, Lng: 2.2}, rings[0][0])
	assert.True(t, rings[0].Closed())
}

func TestParseGeoJSONRings_PolygonWithHole(t *testing.T) {
	data := []byte(`{"type":"Polygon","coordinates":[
		[[0,0],[10,0],[10,10],[0,10],[0,0]],
		[[4,4],[6,4],[6,6],[4,6],[4,4]]
	]}`)

	rings, err := ParseGeoJSONRings(data)
	require.NoError(t, err)
	require.Len(t, rings, 2)
	assert.Len(t, rings[1], 5)
}

func TestParseGeoJSONRings_MultiPolygon(t *testing.T) {
	data := []byte(`{"type":"MultiPolygon","coordinates":[
		[[[0,0],[1,0],[1,1],[0,0]]],
		[[[5,5],[6,5],[6,6],[5,5]]]
	]}`)

	rings, err := ParseGeoJSONRings(data)
	require.NoError(t, err)
	require.Len(t, rings, 2)
	for _, r := range rings {
		assert.True(t, r.Closed())
	}
}

func TestParseGeoJSONRings_FeatureWrappers(t *testing.T) {
	polygon := `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`

	t.Run("feature", func(t *testing.T) {
		rings, err := ParseGeoJSONRings([]byte(`{"type":"Feature","geometry":` + polygon + `}`))
		require.NoError(t, err)
		assert.Len(t, rings, 1)
	})

	t.Run("feature collection", func(t *testing.T) {
		data := `{"type":"FeatureCollection","features":[
			{"type":"Feature","geometry":` + polygon + `},
			{"type":"Feature","geometry":` + polygon + `}
		]}`
		rings, err := ParseGeoJSONRings([]byte(data))
		require.NoError(t, err)
		assert.Len(t, rings, 2)
	})
}

func TestParseGeoJSONRings_OpenRingGetsClosed(t *testing.T) {
	data := []byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1]]]}`)

	rings, err := ParseGeoJSONRings(data)
	require.NoError(t, err)
	require.Len(t, rings, 1)
	assert.True(t, rings[0].Closed())
	assert.Len(t, rings[0], 5)
}

func TestParseGeoJSONRings_Errors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"unsupported type", `{"type":"Point","coordinates":[1,2]}`},
		{"no rings", `{"type":"FeatureCollection","features":[]}`},
		{"feature without geometry", `{"type":"Feature"}`},
		{"latitude out of range", `{"type":"Polygon","coordinates":[[[0,91],[1,0],[1,1],[0,91]]]}`},
		{"longitude out of range", `{"type":"Polygon","coordinates":[[[181,0],[1,0],[1,1],[181,0]]]}`},
		{"malformed coordinates", `{"type":"Polygon","coordinates":[[0,0]]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseGeoJSONRings([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}
