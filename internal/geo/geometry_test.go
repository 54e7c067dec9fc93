package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func square(minX, minY, size float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY}, {minX + size, minY}, {minX + size, minY + size}, {minX, minY + size}, {minX, minY},
	}}
}

func TestSegmentsIntersect(t *testing.T) {
	tests := []struct {
		name           string
		p1, p2, q1, q2 orb.Point
		want           bool
	}{
		{"crossing", orb.Point{0, 0}, orb.Point{2, 2}, orb.Point{0, 2}, orb.Point{2, 0}, true},
		{"touching endpoint", orb.Point{0, 0}, orb.Point{1, 1}, orb.Point{1, 1}, orb.Point{2, 0}, true},
		{"collinear overlap", orb.Point{0, 0}, orb.Point{2, 0}, orb.Point{1, 0}, orb.Point{3, 0}, true},
		{"collinear disjoint", orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{2, 0}, orb.Point{3, 0}, false},
		{"parallel", orb.Point{0, 0}, orb.Point{2, 0}, orb.Point{0, 1}, orb.Point{2, 1}, false},
		{"near miss", orb.Point{0, 0}, orb.Point{1, 1}, orb.Point{1.01, 1}, orb.Point{2, 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SegmentsIntersect(tt.p1, tt.p2, tt.q1, tt.q2))
		})
	}
}

func TestPolygonsIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b orb.Polygon
		want bool
	}{
		{"overlapping", square(0, 0, 2), square(1, 1, 2), true},
		{"contained", square(0, 0, 4), square(1, 1, 1), true},
		{"containing", square(1, 1, 1), square(0, 0, 4), true},
		{"edge touching", square(0, 0, 1), square(1, 0, 1), true},
		{"disjoint", square(0, 0, 1), square(3, 3, 1), false},
		{"diagonal neighbors", square(0, 0, 1), square(1.5, 1.5, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PolygonsIntersect(tt.a, tt.b))
		})
	}
}

func TestPolygonIntersectsAny(t *testing.T) {
	set := []orb.Polygon{square(10, 10, 1), square(0, 0, 1)}
	assert.True(t, PolygonIntersectsAny(square(0.5, 0.5, 1), set))
	assert.False(t, PolygonIntersectsAny(square(5, 5, 1), set))
	assert.False(t, PolygonIntersectsAny(square(5, 5, 1), nil))
}

func TestMultiPolygonPredicates(t *testing.T) {
	mp := orb.MultiPolygon{square(0, 0, 1), square(5, 5, 1)}

	assert.True(t, MultiPolygonIntersectsPolygon(mp, square(5.5, 5.5, 2)))
	assert.False(t, MultiPolygonIntersectsPolygon(mp, square(2.5, 2.5, 1)))

	assert.True(t, MultiPolygonsIntersect(mp, orb.MultiPolygon{square(0.5, 0.5, 1)}))
	assert.False(t, MultiPolygonsIntersect(mp, orb.MultiPolygon{square(10, 10, 1)}))
}

func TestPolygonLineDistance(t *testing.T) {
	poly := square(0, 0, 2)

	t.Run("line crossing the polygon is at distance zero", func(t *testing.T) {
		lines := orb.MultiLineString{{{-1, 1}, {3, 1}}}
		assert.Equal(t, 0.0, PolygonLineDistance(poly, lines))
	})

	t.Run("line endpoint inside the polygon is at distance zero", func(t *testing.T) {
		lines := orb.MultiLineString{{{1, 1}, {5, 5}}}
		assert.Equal(t, 0.0, PolygonLineDistance(poly, lines))
	})

	t.Run("disjoint line reports the gap", func(t *testing.T) {
		lines := orb.MultiLineString{{{0, 5}, {2, 5}}}
		assert.InDelta(t, 3.0, PolygonLineDistance(poly, lines), 1e-12)
	})

	t.Run("empty polygon is infinitely far", func(t *testing.T) {
		lines := orb.MultiLineString{{{0, 0}, {1, 1}}}
		assert.True(t, math.IsInf(PolygonLineDistance(orb.Polygon{}, lines), 1))
	})
}
