package geo

import (
	"math"
)

// MinLength is the length below which a direction is considered degenerate.
const MinLength = 1e-3

// DefaultDirection substitutes degenerate directions.
var DefaultDirection = Vector{0, 1}

// A 2D Vector with components (x, y) based on the origin
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// New Vector from components
func NewVector(x, y float64) Vector {
	return Vector{x, y}
}

// New Vector of length pointing in the direction of angle, measured
// counter-clockwise from the positive x axis.
func NewVectorFromProperties(length float64, angleInRadians float64) Vector {
	return NewVector(
		length*math.Cos(angleInRadians),
		length*math.Sin(angleInRadians),
	)
}

func (a Vector) Add(b Vector) Vector {
	return Vector{a.X + b.X, a.Y + b.Y}
}

func (a Vector) Multiply(v float64) Vector {
	return Vector{a.X * v, a.Y * v}
}

func (a Vector) Negate() Vector {
	return Vector{-a.X, -a.Y}
}

func (a Vector) Dot(b Vector) float64 {
	return a.X*b.X + a.Y*b.Y
}

// Cross is the z component of the 3D cross product, positive when b is
// counter-clockwise of a.
func (a Vector) Cross(b Vector) float64 {
	return a.X*b.Y - a.Y*b.X
}

func (a Vector) Length() float64 {
	return math.Sqrt(a.X*a.X + a.Y*a.Y)
}

// Creates an unit Vector pointing in the same direction of this Vector.
// Vectors shorter than MinLength become DefaultDirection.
func (a Vector) Unit() Vector {
	l := a.Length()
	if l < MinLength {
		return DefaultDirection
	}
	return a.Multiply(1 / l)
}

// Angle is the direction of the vector in [0, 2π).
func (a Vector) Angle() float64 {
	return Angle(a.X, a.Y)
}

// AngleTo is the unsigned angle between a and b in [0, π].
func (a Vector) AngleTo(b Vector) float64 {
	la, lb := a.Length(), b.Length()
	if la == 0 || lb == 0 {
		return 0
	}
	cos := a.Dot(b) / (la * lb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}

func (a Vector) Rotate(theta float64) Vector {
	sin, cos := math.Sincos(theta)
	return Vector{a.X*cos - a.Y*sin, a.X*sin + a.Y*cos}
}

func (a Vector) ToPoint() Point {
	return Point{a.X, a.Y}
}

// return the line (x1,y1) -> (x2,y2) rotated 90% counter-clockwise (left)
func getNormalVector(x1, y1, x2, y2 float64) (float64, float64) {
	return y1 - y2, x2 - x1
}

func GetUnitNormalVector(x1, y1, x2, y2 float64) (float64, float64) {
	normalX, normalY := getNormalVector(x1, y1, x2, y2)
	length := EuclideanDistance(x1, y1, x2, y2)
	if length < MinLength {
		return DefaultDirection.X, DefaultDirection.Y
	}
	return normalX / length, normalY / length
}
