package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// PolygonsIntersect reports whether two polygons share any point: a vertex of
// one inside the other, or any pair of boundary edges crossing. Bounds are
// checked first as a cheap reject.
func PolygonsIntersect(a, b orb.Polygon) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	if !boundsOverlap(a.Bound(), b.Bound()) {
		return false
	}

	for _, pt := range a[0] {
		if planar.PolygonContains(b, pt) {
			return true
		}
	}
	for _, pt := range b[0] {
		if planar.PolygonContains(a, pt) {
			return true
		}
	}

	return ringsEdgesIntersect(a[0], b[0])
}

// PolygonIntersectsAny reports whether the polygon intersects at least one
// polygon in the set.
func PolygonIntersectsAny(p orb.Polygon, set []orb.Polygon) bool {
	for i := range set {
		if PolygonsIntersect(p, set[i]) {
			return true
		}
	}
	return false
}

// MultiPolygonIntersectsPolygon reports whether any member polygon
// intersects p.
func MultiPolygonIntersectsPolygon(mp orb.MultiPolygon, p orb.Polygon) bool {
	for i := range mp {
		if PolygonsIntersect(mp[i], p) {
			return true
		}
	}
	return false
}

// MultiPolygonIntersectsAny reports whether the multipolygon intersects at
// least one polygon in the set.
func MultiPolygonIntersectsAny(mp orb.MultiPolygon, set []orb.Polygon) bool {
	for i := range set {
		if MultiPolygonIntersectsPolygon(mp, set[i]) {
			return true
		}
	}
	return false
}

// MultiPolygonsIntersect reports whether any pair of member polygons
// intersects.
func MultiPolygonsIntersect(a, b orb.MultiPolygon) bool {
	for i := range a {
		if MultiPolygonIntersectsPolygon(b, a[i]) {
			return true
		}
	}
	return false
}

// PolygonLineDistance returns the planar distance between a polygon (as an
// area) and a multi-line. The distance is zero when the line touches, crosses,
// or lies inside the polygon.
func PolygonLineDistance(poly orb.Polygon, lines orb.MultiLineString) float64 {
	if len(poly) == 0 || len(poly[0]) == 0 {
		return math.Inf(1)
	}

	best := math.Inf(1)
	ring := poly[0]

	for _, ls := range lines {
		for _, pt := range ls {
			if planar.PolygonContains(poly, pt) {
				return 0
			}
		}
		for i := 0; i+1 < len(ls); i++ {
			for j := 0; j+1 < len(ring); j++ {
				d := segmentDistance(ls[i], ls[i+1], ring[j], ring[j+1])
				if d == 0 {
					return 0
				}
				if d < best {
					best = d
				}
			}
		}
	}
	return best
}

// boundsOverlap reports whether two axis-aligned bounds share any area or edge.
func boundsOverlap(a, b orb.Bound) bool {
	return a.Min[0] <= b.Max[0] && b.Min[0] <= a.Max[0] &&
		a.Min[1] <= b.Max[1] && b.Min[1] <= a.Max[1]
}

func ringsEdgesIntersect(a, b orb.Ring) bool {
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if SegmentsIntersect(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	return false
}

// SegmentsIntersect reports whether segments p1-p2 and q1-q2 share a point,
// including touching endpoints and collinear overlap.
func SegmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && onSegment(q1, q2, p1):
		return true
	case d2 == 0 && onSegment(q1, q2, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, q1):
		return true
	case d4 == 0 && onSegment(p1, p2, q2):
		return true
	}
	return false
}

// segmentDistance returns the minimum distance between two segments,
// zero when they intersect.
func segmentDistance(p1, p2, q1, q2 orb.Point) float64 {
	if SegmentsIntersect(p1, p2, q1, q2) {
		return 0
	}
	return math.Min(
		math.Min(pointSegmentDistance(p1, q1, q2), pointSegmentDistance(p2, q1, q2)),
		math.Min(pointSegmentDistance(q1, p1, p2), pointSegmentDistance(q2, p1, p2)),
	)
}

// pointSegmentDistance returns the distance from point p to segment a-b.
func pointSegmentDistance(p, a, b orb.Point) float64 {
	abx, aby := b[0]-a[0], b[1]-a[1]
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return planar.Distance(p, a)
	}

	t := ((p[0]-a[0])*abx + (p[1]-a[1])*aby) / lenSq
	t = math.Max(0, math.Min(1, t))
	closest := orb.Point{a[0] + t*abx, a[1] + t*aby}
	return planar.Distance(p, closest)
}

// cross returns the z component of (b-a) x (c-a).
func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// onSegment reports whether point p, known collinear with a-b, lies on a-b.
func onSegment(a, b, p orb.Point) bool {
	return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
}
