package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPosition(t *testing.T) {
	t.Run("valid coordinates", func(t *testing.T) {
		p, err := NewPosition(48.8566, 2.3522)
		require.NoError(t, err)
		assert.Equal(t, 48.8566, p.Lat)
		assert.Equal(t, 2.3522, p.Lng)
	})

	t.Run("extremes are valid", func(t *testing.T) {
		for _, c := range [][2]float64{{-90, -180}, {90, 180}, {0, 0}} {
			_, err := NewPosition(c[0], c[1])
			assert.NoError(t, err, "lat=%v lng=%v", c[0], c[1])
		}
	})

	t.Run("out of range", func(t *testing.T) {
		for _, c := range [][2]float64{{-90.01, 0}, {90.01, 0}, {0, -180.5}, {0, 181}} {
			_, err := NewPosition(c[0], c[1])
			assert.Error(t, err, "lat=%v lng=%v", c[0], c[1])
		}
	})
}

func TestPolygonBounds(t *testing.T) {
	ring := Polygon{
		{Lat: 1, Lng: -3},
		{Lat: 4, Lng: 0},
		{Lat: -2, Lng: 5},
		{Lat: 1, Lng: -3},
	}
	b := ring.Bounds()
	assert.Equal(t, Position{Lat: -2, Lng: -3}, b.Southwest)
	assert.Equal(t, Position{Lat: 4, Lng: 5}, b.Northeast)
	assert.Equal(t, 8.0, b.Width())
}

func TestPolygonClose(t *testing.T) {
	open := Polygon{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 1, Lng: 1}}
	closed := open.Close()
	require.Len(t, closed, 4)
	assert.True(t, closed.Closed())
	assert.False(t, open.Closed(), "Close must not mutate the receiver")

	assert.Empty(t, Polygon{}.Close())
}

func TestAreaContains(t *testing.T) {
	square := Polygon{
		{Lat: 0, Lng: 0}, {Lat: 0, Lng: 2}, {Lat: 2, Lng: 2}, {Lat: 2, Lng: 0}, {Lat: 0, Lng: 0},
	}
	farSquare := Polygon{
		{Lat: 10, Lng: 10}, {Lat: 10, Lng: 12}, {Lat: 12, Lng: 12}, {Lat: 12, Lng: 10}, {Lat: 10, Lng: 10},
	}
	area := NewArea(square, farSquare)

	assert.True(t, area.Contains(Position{Lat: 1, Lng: 1}))
	assert.True(t, area.Contains(Position{Lat: 11, Lng: 11}))
	assert.False(t, area.Contains(Position{Lat: 5, Lng: 5}))
	assert.False(t, area.Contains(Position{Lat: -40, Lng: 100}))

	b := area.Bounds()
	assert.Equal(t, Position{Lat: 0, Lng: 0}, b.Southwest)
	assert.Equal(t, Position{Lat: 12, Lng: 12}, b.Northeast)

	var nilArea *Area
	assert.False(t, nilArea.Contains(Position{Lat: 1, Lng: 1}))
	assert.False(t, NewArea().Contains(Position{Lat: 1, Lng: 1}))
}

func TestAreaContains_HoleRing(t *testing.T) {
	outer := Polygon{
		{Lat: 0, Lng: 0}, {Lat: 0, Lng: 10}, {Lat: 10, Lng: 10}, {Lat: 10, Lng: 0}, {Lat: 0, Lng: 0},
	}
	hole := Polygon{
		{Lat: 4, Lng: 4}, {Lat: 4, Lng: 6}, {Lat: 6, Lng: 6}, {Lat: 6, Lng: 4}, {Lat: 4, Lng: 4},
	}
	area := NewArea(outer, hole)

	assert.False(t, area.Contains(Position{Lat: 5, Lng: 5}), "inside the hole")
	assert.True(t, area.Contains(Position{Lat: 2, Lng: 2}), "between outer and hole")
	assert.True(t, area.Contains(Position{Lat: 5, Lng: 7}), "east of the hole")
	assert.False(t, area.Contains(Position{Lat: 11, Lng: 11}))
}
