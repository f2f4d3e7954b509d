package geo

import "math"

// RotatePoint rotates p around pivot by theta radians, counter-clockwise.
func RotatePoint(p, pivot Point, theta float64) Point {
	sin, cos := math.Sincos(theta)
	x := p.X - pivot.X
	y := p.Y - pivot.Y
	return NewPoint(pivot.X+x*cos-y*sin, pivot.Y+x*sin+y*cos)
}

// Rotate rotates coords[idx] in place around pivot. A nil idx rotates all of coords.
func Rotate(coords []Point, idx []int, pivot Point, theta float64) {
	if idx == nil {
		for i := range coords {
			coords[i] = RotatePoint(coords[i], pivot, theta)
		}
		return
	}
	for _, i := range idx {
		coords[i] = RotatePoint(coords[i], pivot, theta)
	}
}

// Translate moves coords[idx] in place by v. A nil idx moves all of coords.
func Translate(coords []Point, idx []int, v Vector) {
	if idx == nil {
		for i := range coords {
			coords[i] = coords[i].AddVector(v)
		}
		return
	}
	for _, i := range idx {
		coords[i] = coords[i].AddVector(v)
	}
}

// Reflect mirrors p across the infinite line through beg and end.
//
//	| a  b |      a = (dx²-dy²)/(dx²+dy²)
//	| b -a |      b = 2·dx·dy/(dx²+dy²)
//
// A degenerate line leaves p where it is.
func Reflect(p, beg, end Point) Point {
	dx := end.X - beg.X
	dy := end.Y - beg.Y
	d := dx*dx + dy*dy
	if d < MinLength*MinLength {
		return p
	}
	a := (dx*dx - dy*dy) / d
	b := 2 * dx * dy / d
	x := p.X - beg.X
	y := p.Y - beg.Y
	return NewPoint(beg.X+a*x+b*y, beg.Y+b*x-a*y)
}

// ReflectAll mirrors coords[idx] in place across the line through beg and end.
func ReflectAll(coords []Point, idx []int, beg, end Point) {
	for _, i := range idx {
		coords[i] = Reflect(coords[i], beg, end)
	}
}
