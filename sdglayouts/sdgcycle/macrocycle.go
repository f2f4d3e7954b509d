package sdgcycle

import (
	"math"

	"oss.terrastruct.com/sdg/lib/geo"
	"oss.terrastruct.com/sdg/sdggraph"
)

// usesLattice reports whether ring is a macrocycle that can be drawn as the
// perimeter of a linear row of hexagons.
func usesLattice(g *sdggraph.Graph, ring *sdggraph.Ring) bool {
	n := ring.Size()
	return n >= 10 && (n-2)%4 == 0 && g.Macrocycle[ring.Atoms[0]]
}

// acenePerimeter walks the outline of (n-2)/4 fused pointy-top hexagons with
// edge length l, starting at the lower left corner and going over the top.
// Consecutive points are l apart and every corner is 120° or 240°.
func acenePerimeter(n int, l float64) []geo.Point {
	h := (n - 2) / 4
	dx := math.Sqrt(3) * l
	corner := func(hex int, deg float64) geo.Point {
		c := geo.NewPoint(float64(hex)*dx, 0)
		return c.AddVector(geo.NewVectorFromProperties(l, geo.Radians(deg)))
	}

	pts := make([]geo.Point, 0, n)
	pts = append(pts, corner(0, 210), corner(0, 150))
	for i := 0; i < h; i++ {
		pts = append(pts, corner(i, 90), corner(i, 30))
	}
	pts = append(pts, corner(h-1, 330))
	for i := h - 1; i > 0; i-- {
		pts = append(pts, corner(i, 270), corner(i, 210))
	}
	pts = append(pts, corner(0, 270))
	return pts
}

// fitToBond moves shape rigidly so its first point lands on beg and its second
// on the ray from beg along dir, then mirrors it if needed so the bulk of it
// lies to the left of that ray.
func fitToBond(shape []geo.Point, beg geo.Point, dir geo.Vector) []geo.Point {
	out := make([]geo.Point, len(shape))
	theta := dir.Angle() - shape[0].VectorTo(shape[1]).Angle()
	shift := shape[0].VectorTo(beg)
	for i, p := range shape {
		out[i] = geo.RotatePoint(p.AddVector(shift), beg, theta)
	}
	c := geo.Points(out).Centroid()
	if dir.Cross(beg.VectorTo(c)) < 0 {
		end := beg.AddVector(dir.Unit())
		for i := range out {
			out[i] = geo.Reflect(out[i], beg, end)
		}
	}
	return out
}
