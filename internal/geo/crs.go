package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Unit is the linear unit of a coordinate reference system's axes.
type Unit string

const (
	UnitDegree Unit = "degree"
	UnitMeter  Unit = "metre"
)

// CRS identifies a coordinate reference system by EPSG code. Geometry in a
// geographic CRS carries lon/lat degree coordinates; geometry in a projected
// CRS carries easting/northing in the CRS unit. Only the two systems the
// analysis needs are supported: EPSG:4326 for all source data and EPSG:3083
// for the equal-area analysis frame.
type CRS struct {
	Code string
	Unit Unit
}

// WGS84 is the geographic CRS of every input layer (EPSG:4326, lon/lat degrees).
var WGS84 = CRS{Code: "EPSG:4326", Unit: UnitDegree}

// TexasCentricAlbers is the analysis CRS: NAD83 / Texas Centric Albers Equal
// Area (EPSG:3083). Equal-area and metric, so buffering and area comparisons
// over the Houston region are valid in it.
var TexasCentricAlbers = CRS{Code: "EPSG:3083", Unit: UnitMeter}

// Equal reports whether two CRS values identify the same system.
func (c CRS) Equal(other CRS) bool { return c.Code == other.Code }

// IsZero reports whether the CRS is unset.
func (c CRS) IsZero() bool { return c.Code == "" }

// IsMetric reports whether linear measurements (distances, buffers) in this
// CRS are in meters. Buffering in a degree-based CRS silently produces wrong
// distances, so callers must check this before any buffer operation.
func (c CRS) IsMetric() bool { return c.Unit == UnitMeter }

func (c CRS) String() string { return c.Code }

// GRS80 ellipsoid parameters (NAD83 datum).
const (
	grs80SemiMajor     = 6378137.0
	grs80InvFlattening = 298.257222101
)

// texasAlbers holds the precomputed EPSG:3083 projection constants:
// standard parallels 27.5°N and 35°N, latitude of origin 18°N, central
// meridian 100°W, false easting 1 500 000 m, false northing 6 000 000 m.
var texasAlbers = newAlbers(18.0, -100.0, 27.5, 35.0, 1500000.0, 6000000.0)

// albers is an Albers equal-area conic projection on the GRS80 ellipsoid,
// following Snyder, "Map Projections: A Working Manual", eqs. 14-1..14-11
// (forward) and 14-19..14-21 with 3-16 (inverse).
type albers struct {
	a, e, e2       float64
	n, c, rho0     float64
	lon0           float64
	falseE, falseN float64
}

func newAlbers(lat0, lon0, lat1, lat2, falseE, falseN float64) *albers {
	a := grs80SemiMajor
	f := 1.0 / grs80InvFlattening
	e2 := f * (2 - f)
	e := math.Sqrt(e2)

	p := &albers{a: a, e: e, e2: e2, lon0: rad(lon0), falseE: falseE, falseN: falseN}

	m1 := p.m(rad(lat1))
	m2 := p.m(rad(lat2))
	q0 := p.q(rad(lat0))
	q1 := p.q(rad(lat1))
	q2 := p.q(rad(lat2))

	p.n = (m1*m1 - m2*m2) / (q2 - q1)
	p.c = m1*m1 + p.n*q1
	p.rho0 = a * math.Sqrt(p.c-p.n*q0) / p.n
	return p
}

// m is Snyder eq. 14-15: cos(phi) / sqrt(1 - e^2 sin^2(phi)).
func (p *albers) m(phi float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-p.e2*s*s)
}

// q is Snyder eq. 3-12, the equal-area latitude function.
func (p *albers) q(phi float64) float64 {
	s := math.Sin(phi)
	es := p.e * s
	return (1 - p.e2) * (s/(1-p.e2*s*s) - (1/(2*p.e))*math.Log((1-es)/(1+es)))
}

// forward projects a lon/lat degree point to easting/northing meters.
func (p *albers) forward(lon, lat float64) (x, y float64) {
	phi := rad(lat)
	theta := p.n * (rad(lon) - p.lon0)
	rho := p.a * math.Sqrt(p.c-p.n*p.q(phi)) / p.n

	x = p.falseE + rho*math.Sin(theta)
	y = p.falseN + p.rho0 - rho*math.Cos(theta)
	return x, y
}

// inverse converts easting/northing meters back to lon/lat degrees.
func (p *albers) inverse(x, y float64) (lon, lat float64) {
	dx := x - p.falseE
	dy := p.rho0 - (y - p.falseN)
	rho := math.Hypot(dx, dy)
	theta := math.Atan2(dx, dy)

	qv := (p.c - (rho*p.n/p.a)*(rho*p.n/p.a)) / p.n

	// Snyder eq. 3-16: iterate on the equal-area latitude.
	phi := math.Asin(qv / 2)
	for i := 0; i < 12; i++ {
		s := math.Sin(phi)
		es := p.e * s
		den := 1 - p.e2*s*s
		delta := (den * den / (2 * math.Cos(phi))) *
			(qv/(1-p.e2) - s/den + (1/(2*p.e))*math.Log((1-es)/(1+es)))
		phi += delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}

	return deg(p.lon0 + theta/p.n), deg(phi)
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }

// ErrUnsupportedTransform is returned for CRS pairs the module cannot convert
// between. Only EPSG:4326 <-> EPSG:3083 (and identity) are supported.
type ErrUnsupportedTransform struct {
	From, To CRS
}

func (e ErrUnsupportedTransform) Error() string {
	return fmt.Sprintf("unsupported CRS transform %s -> %s", e.From, e.To)
}

// TransformPoint reprojects a single coordinate between the supported systems.
func TransformPoint(pt orb.Point, from, to CRS) (orb.Point, error) {
	switch {
	case from.Equal(to):
		return pt, nil
	case from.Equal(WGS84) && to.Equal(TexasCentricAlbers):
		x, y := texasAlbers.forward(pt[0], pt[1])
		return orb.Point{x, y}, nil
	case from.Equal(TexasCentricAlbers) && to.Equal(WGS84):
		lon, lat := texasAlbers.inverse(pt[0], pt[1])
		return orb.Point{lon, lat}, nil
	default:
		return orb.Point{}, ErrUnsupportedTransform{From: from, To: to}
	}
}

// Transform reprojects any orb geometry between the supported systems.
// Reprojecting to the geometry's own CRS returns an identical copy.
func Transform(g orb.Geometry, from, to CRS) (orb.Geometry, error) {
	if from.Equal(to) {
		return orb.Clone(g), nil
	}

	mapFn := func(pt orb.Point) orb.Point {
		out, err := TransformPoint(pt, from, to)
		if err != nil {
			// Unsupported pairs are rejected below before mapping.
			return pt
		}
		return out
	}

	if !(from.Equal(WGS84) && to.Equal(TexasCentricAlbers)) &&
		!(from.Equal(TexasCentricAlbers) && to.Equal(WGS84)) {
		return nil, ErrUnsupportedTransform{From: from, To: to}
	}

	return mapGeometry(orb.Clone(g), mapFn), nil
}

// TransformBound reprojects a bounding box corner-wise and returns the
// axis-aligned bound of the projected corners.
func TransformBound(b orb.Bound, from, to CRS) (orb.Bound, error) {
	corners := []orb.Point{
		{b.Min[0], b.Min[1]},
		{b.Max[0], b.Min[1]},
		{b.Max[0], b.Max[1]},
		{b.Min[0], b.Max[1]},
	}
	var mp orb.MultiPoint
	for _, c := range corners {
		out, err := TransformPoint(c, from, to)
		if err != nil {
			return orb.Bound{}, err
		}
		mp = append(mp, out)
	}
	return mp.Bound(), nil
}

func mapGeometry(g orb.Geometry, fn func(orb.Point) orb.Point) orb.Geometry {
	switch t := g.(type) {
	case orb.Point:
		return fn(t)
	case orb.MultiPoint:
		for i := range t {
			t[i] = fn(t[i])
		}
		return t
	case orb.LineString:
		for i := range t {
			t[i] = fn(t[i])
		}
		return t
	case orb.MultiLineString:
		for i := range t {
			mapGeometry(t[i], fn)
		}
		return t
	case orb.Ring:
		for i := range t {
			t[i] = fn(t[i])
		}
		return t
	case orb.Polygon:
		for i := range t {
			mapGeometry(t[i], fn)
		}
		return t
	case orb.MultiPolygon:
		for i := range t {
			mapGeometry(t[i], fn)
		}
		return t
	case orb.Collection:
		for i := range t {
			t[i] = mapGeometry(t[i], fn)
		}
		return t
	case orb.Bound:
		return orb.MultiPoint{fn(t.Min), fn(t.Max)}.Bound()
	}
	return g
}

// VerifyMetric confirms that distances computed in the given CRS are true
// ground meters. It projects two reference points near Houston and compares
// their planar separation against the great-circle distance on the sphere; a
// projected, meter-based CRS must agree within tolerance. This guards the
// 200 m road buffer against silently being built in degrees.
func VerifyMetric(crs CRS, tolerance float64) error {
	if !crs.IsMetric() {
		return fmt.Errorf("CRS %s is not metric (unit %s): buffering requires a projected CRS in meters", crs, crs.Unit)
	}

	// Two points roughly 20 km apart across central Houston.
	a := orb.Point{-95.4, 29.75}
	b := orb.Point{-95.2, 29.80}

	pa, err := TransformPoint(a, WGS84, crs)
	if err != nil {
		return err
	}
	pb, err := TransformPoint(b, WGS84, crs)
	if err != nil {
		return err
	}

	planarDist := planar.Distance(pa, pb)
	greatCircle := haversineMeters(a, b)

	if rel := math.Abs(planarDist-greatCircle) / greatCircle; rel > tolerance {
		return fmt.Errorf("CRS %s failed metric check: planar %.1f m vs great-circle %.1f m (relative error %.4f > %.4f)",
			crs, planarDist, greatCircle, rel, tolerance)
	}
	return nil
}

// earthRadiusMeters is the mean earth radius used for great-circle checks.
const earthRadiusMeters = 6371000.0

// haversineMeters returns the great-circle distance between two lon/lat points.
func haversineMeters(a, b orb.Point) float64 {
	p1 := s2.LatLngFromDegrees(a[1], a[0])
	p2 := s2.LatLngFromDegrees(b[1], b[0])
	return p1.Distance(p2).Radians() * earthRadiusMeters
}
