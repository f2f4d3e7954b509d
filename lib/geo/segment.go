package geo

type Segment struct {
	Start Point
	End   Point
}

func intersectionParams(u0, u1, v0, v1 Point) (s, t float64, ok bool) {
	udx := u1.X - u0.X
	vdx := v1.X - v0.X
	uvdx := v0.X - u0.X
	udy := u1.Y - u0.Y
	vdy := v1.Y - v0.Y
	uvdy := v0.Y - u0.Y

	denom := (udy*vdx - udx*vdy)
	if denom == 0 {
		// lines are parallel
		return 0, 0, false
	}
	// Cramer's rule
	s = (vdx*uvdy - vdy*uvdx) / denom
	t = (udx*uvdy - udy*uvdx) / denom
	return s, t, true
}

// Crosses is true when the segments intersect strictly inside both of them.
// Touching at an endpoint or running parallel is not a crossing.
func (segment Segment) Crosses(otherSegment Segment) bool {
	s, t, ok := intersectionParams(segment.Start, segment.End, otherSegment.Start, otherSegment.End)
	return ok && s > 0 && s < 1 && t > 0 && t < 1
}
