package geo

import (
	"fmt"
	"math"
)

type Box struct {
	TopLeft Point
	Width   float64
	Height  float64
}

func NewBox(tl Point, width, height float64) *Box {
	return &Box{
		TopLeft: tl,
		Width:   width,
		Height:  height,
	}
}

// BoundingBox of coords[idx]. With a nil idx every point is included.
// TopLeft is the minimum corner.
func BoundingBox(coords []Point, idx []int) *Box {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	visit := func(p Point) {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	if idx == nil {
		for _, p := range coords {
			visit(p)
		}
	} else {
		for _, i := range idx {
			visit(coords[i])
		}
	}
	if math.IsInf(minX, 1) {
		return NewBox(Point{}, 0, 0)
	}
	return NewBox(NewPoint(minX, minY), maxX-minX, maxY-minY)
}

func (b *Box) Copy() *Box {
	if b == nil {
		return nil
	}
	return NewBox(b.TopLeft, b.Width, b.Height)
}

func (b *Box) Center() Point {
	return NewPoint(b.TopLeft.X+b.Width/2, b.TopLeft.Y+b.Height/2)
}

func (b *Box) ToString() string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("{TopLeft: %s, Width: %.3f, Height: %.3f}", b.TopLeft.ToString(), b.Width, b.Height)
}
