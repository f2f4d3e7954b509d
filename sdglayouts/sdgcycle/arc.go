package sdgcycle

import (
	"math"

	"oss.terrastruct.com/sdg/lib/geo"
	"oss.terrastruct.com/sdg/lib/go2"
	"oss.terrastruct.com/sdg/sdggraph"
)

const bisectIterations = 100

// arcStep returns the angle each of k+1 equal chords of length l subtends on
// the circle that spans a gap of width d with them. ok is false when the gap
// is too wide for the chords to bend at all.
func arcStep(k int, d, l float64) (phi float64, ok bool) {
	span := float64(k + 1)
	ratio := d / l
	if ratio >= span-1e-9 {
		return 0, false
	}
	if math.Abs(d-l) < 1e-9 {
		return 2 * math.Pi / float64(k+2), true
	}
	lo, hi := 0.0, 2*math.Pi/span
	for i := 0; i < bisectIterations; i++ {
		mid := (lo + hi) / 2
		if math.Sin(span*mid/2)/math.Sin(mid/2) > ratio {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, true
}

// placeArc places run, the atoms strictly between a and b in ring order, on a
// circular arc from a to b made of bond-length chords. The arc bulges to the
// side of the chord a-b that faces away from ref.
func placeArc(g *sdggraph.Graph, run []int, a, b int, ref geo.Point) {
	pa, pb := g.Coords[a], g.Coords[b]
	k := len(run)
	if k == 0 {
		return
	}
	chord := pa.VectorTo(pb)
	mid := pa.Interpolate(pb, 0.5)
	normal := geo.NewVector(geo.GetUnitNormalVector(pa.X, pa.Y, pb.X, pb.Y))
	if normal.Dot(mid.VectorTo(ref)) > 0 {
		normal = normal.Negate()
	}

	phi, ok := arcStep(k, chord.Length(), g.BondLength)
	if !ok {
		for i, atom := range run {
			g.Place(atom, pa.Interpolate(pb, float64(i+1)/float64(k+1)))
		}
		return
	}

	radius := g.BondLength / (2 * math.Sin(phi/2))
	alpha := float64(k+1) * phi
	center := mid.AddVector(normal.Multiply(-radius * math.Cos(alpha/2)))

	thetaA := center.VectorTo(pa).Angle()
	sign := sweepSign(center, radius, thetaA, alpha, pb, mid, normal)
	for i, atom := range run {
		theta := thetaA + sign*float64(i+1)*phi
		g.Place(atom, center.AddVector(geo.NewVectorFromProperties(radius, theta)))
	}
}

// sweepSign is the direction, counter-clockwise (+1) or clockwise (-1), in
// which sweeping alpha from thetaA ends on pb. A half circle ends on pb both
// ways and takes the side normal points to.
func sweepSign(center geo.Point, radius, thetaA, alpha float64, pb, mid geo.Point, normal geo.Vector) float64 {
	ccw := center.AddVector(geo.NewVectorFromProperties(radius, thetaA+alpha)).DistanceTo(pb)
	cw := center.AddVector(geo.NewVectorFromProperties(radius, thetaA-alpha)).DistanceTo(pb)
	if go2.Abs(ccw-cw) > geo.MinLength {
		if ccw < cw {
			return 1
		}
		return -1
	}
	half := center.AddVector(geo.NewVectorFromProperties(radius, thetaA+alpha/2))
	if normal.Dot(mid.VectorTo(half)) < 0 {
		return -1
	}
	return 1
}

// placePolygon places the atoms of ring after its first two, which must be
// placed, so the ring becomes a regular polygon on the side of the first bond
// facing away from ref.
func placePolygon(g *sdggraph.Graph, ring *sdggraph.Ring, ref geo.Point) {
	placeArc(g, ring.Atoms[2:], ring.Atoms[1], ring.Atoms[0], ref)
}
