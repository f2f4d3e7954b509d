package geo

import (
	"fmt"
	"sort"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) ToString() string {
	return fmt.Sprintf("(%v, %v)", p.X, p.Y)
}

func (p Point) DistanceTo(p2 Point) float64 {
	return EuclideanDistance(p.X, p.Y, p2.X, p2.Y)
}

// Moves the given point by Vector
func (start Point) AddVector(v Vector) Point {
	return Point{start.X + v.X, start.Y + v.Y}
}

// Creates a Vector of the size between start and endpoint, pointing to endpoint
func (start Point) VectorTo(endpoint Point) Vector {
	return Vector{endpoint.X - start.X, endpoint.Y - start.Y}
}

// point t% of the way between a and b
func (a Point) Interpolate(b Point, t float64) Point {
	return NewPoint(
		a.X*(1.0-t)+b.X*t,
		a.Y*(1.0-t)+b.Y*t,
	)
}

type Points []Point

// Centroid is the arithmetic mean of the points, the origin when empty.
func (points Points) Centroid() Point {
	var c Point
	if len(points) == 0 {
		return c
	}
	for _, p := range points {
		c.X += p.X
		c.Y += p.Y
	}
	c.X /= float64(len(points))
	c.Y /= float64(len(points))
	return c
}

// Centroid of the subset of coords named by idx.
func Centroid(coords []Point, idx []int) Point {
	var c Point
	if len(idx) == 0 {
		return c
	}
	for _, i := range idx {
		c.X += coords[i].X
		c.Y += coords[i].Y
	}
	c.X /= float64(len(idx))
	c.Y /= float64(len(idx))
	return c
}

// SortByDistance orders idx by the distance of coords[idx[i]] to ref, closest
// first. Ties keep their input order.
func SortByDistance(idx []int, coords []Point, ref Point) {
	sort.SliceStable(idx, func(i, j int) bool {
		return coords[idx[i]].DistanceTo(ref) < coords[idx[j]].DistanceTo(ref)
	})
}
