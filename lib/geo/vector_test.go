package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const PRECISION = 0.0001

func TestExtendVerticalLineSegments(t *testing.T) {
	p1 := Point{0, 0}
	p2 := Point{0, 1}

	v := p1.VectorTo(p2)
	v = v.Multiply(2)
	p2New := p1.AddVector(v)
	assert.Equal(t, Point{0, 2}, p2New)

	v = p2.VectorTo(p1)
	v = v.Multiply(2)
	p1New := p2.AddVector(v)
	assert.Equal(t, Point{0, -1}, p1New)
}

func TestExtendDiagonalLineSegment(t *testing.T) {
	p1 := Point{0, 0}
	p2 := Point{3, 1}

	v := p1.VectorTo(p2)
	v = v.Multiply(2)
	assert.Equal(t, Point{6, 2}, p1.AddVector(v))

	v = p2.VectorTo(p1)
	v = v.Multiply(2)
	assert.Equal(t, Point{-3, -1}, p2.AddVector(v))
}

func TestVectorAdd(t *testing.T) {
	a := NewVector(1, 2)
	b := NewVector(3, 4)
	assert.True(t, a.Add(b).equals(NewVector(4, 6)))
	assert.True(t, a.Negate().equals(NewVector(-1, -2)))
	assert.Equal(t, 11.0, a.Dot(b))
	assert.Equal(t, -2.0, a.Cross(b))
}

func TestVectorUnit(t *testing.T) {
	a := NewVector(3, 4)
	u := a.Unit()
	if PrecisionCompare(u.Length(), 1.0, PRECISION) != 0 {
		t.Fatalf("Expected unit Vector, got length %v", u.Length())
	}
	assert.True(t, u.equals(NewVector(0.6, 0.8)))

	// degenerate directions fall back to the default
	assert.Equal(t, DefaultDirection, NewVector(0, 0.0001).Unit())
}

func TestVectorAngles(t *testing.T) {
	a := NewVector(1, 0)
	b := NewVector(0, 2)
	assert.InDelta(t, math.Pi/2, a.AngleTo(b), PRECISION)
	assert.InDelta(t, math.Pi/2, b.Angle(), PRECISION)
	assert.True(t, a.Rotate(math.Pi/2).equals(NewVector(0, 1)))
	assert.True(t, NewVectorFromProperties(2, math.Pi).equals(NewVector(-2, 0)))
}

func TestVectorToPoint(t *testing.T) {
	v := NewVector(3.789, -0.731)
	p := v.ToPoint()

	assert.Equal(t, v.X, p.X)
	assert.Equal(t, v.Y, p.Y)
}

func (a Vector) equals(other Vector) bool {
	return PrecisionCompare(a.X, other.X, PRECISION) == 0 &&
		PrecisionCompare(a.Y, other.Y, PRECISION) == 0
}
