package geo

import "math"

func EuclideanDistance(x1, y1, x2, y2 float64) float64 {
	if x1 == x2 {
		return math.Abs(y1 - y2)
	} else if y1 == y2 {
		return math.Abs(x1 - x2)
	} else {
		return math.Sqrt((x1-x2)*(x1-x2) + (y1-y2)*(y1-y2))
	}
}

// compare a and b and consider them equal if
// difference is less than precision e (e.g. e=0.001)
func PrecisionCompare(a, b, e float64) int {
	if math.Abs(a-b) < e {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func Sign(i float64) int {
	if i < 0 {
		return -1
	}
	if i > 0 {
		return 1
	}
	return 0
}

// Angle of the direction (dx, dy), counter-clockwise from the positive x axis,
// in [0, 2π).
func Angle(dx, dy float64) float64 {
	a := math.Atan2(dy, dx)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// NormalizeAngle maps theta into (-π, π].
func NormalizeAngle(theta float64) float64 {
	for theta > math.Pi {
		theta -= 2 * math.Pi
	}
	for theta <= -math.Pi {
		theta += 2 * math.Pi
	}
	return theta
}

func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}
