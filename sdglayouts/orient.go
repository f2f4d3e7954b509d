package sdglayouts

import (
	"context"
	"math"

	"cdr.dev/slog"

	"oss.terrastruct.com/sdg/lib/geo"
	"oss.terrastruct.com/sdg/lib/log"
)

const (
	orientStep = math.Pi / 3
	// bonds within this of ±30° or ±60° from horizontal count as aligned
	alignTolerance = math.Pi / 180
)

// orient rotates the finished layout in 60° steps and keeps the orientation
// that is clearly wider, or failing that has the most bonds at ±30°, then the
// most at ±60°. Layouts with fixed atoms are left alone.
func (l *layout) orient(ctx context.Context) {
	g := l.g
	if g.HasFixed() {
		return
	}
	if at := l.opts.AttachmentAtom; at != nil && *at >= 0 && *at < g.NumAtoms() && g.Degree(*at) == 1 {
		l.orientAttachment(*at)
		return
	}

	center := geo.BoundingBox(g.Coords, nil).Center()
	scratch := make([]geo.Point, len(g.Coords))
	best, bestWidth := 0, 0.
	var bestAligned alignment
	for k := 0; k < 6; k++ {
		copy(scratch, g.Coords)
		geo.Rotate(scratch, nil, center, float64(k)*orientStep)
		width := geo.BoundingBox(scratch, nil).Width
		aligned := l.alignedBonds(scratch)
		if k == 0 ||
			width > bestWidth+2*g.BondLength ||
			(width >= bestWidth-2*g.BondLength && aligned.better(bestAligned)) {
			best, bestWidth, bestAligned = k, width, aligned
		}
	}
	if best != 0 {
		geo.Rotate(g.Coords, nil, center, float64(best)*orientStep)
	}
	log.Debug(ctx, "oriented",
		slog.F("rotation", best*60),
		slog.F("bondsAt30", bestAligned.at30),
		slog.F("bondsAt60", bestAligned.at60),
	)
}

// alignment counts the bonds of an orientation that sit ±30° and ±60° from
// horizontal.
type alignment struct {
	at30, at60 int
}

func (a alignment) better(b alignment) bool {
	if a.at30 != b.at30 {
		return a.at30 > b.at30
	}
	return a.at60 > b.at60
}

func (l *layout) alignedBonds(coords []geo.Point) alignment {
	var a alignment
	for _, b := range l.g.Mol.Bonds {
		theta := math.Mod(coords[b.Beg].VectorTo(coords[b.End]).Angle()+2*math.Pi, math.Pi)
		switch {
		case near(theta, math.Pi/6), near(theta, 5*math.Pi/6):
			a.at30++
		case near(theta, math.Pi/3), near(theta, 2*math.Pi/3):
			a.at60++
		}
	}
	return a
}

func near(theta, target float64) bool {
	return geo.PrecisionCompare(theta, target, alignTolerance) == 0
}

// orientAttachment turns the bond of the attachment atom horizontal, pointing
// right, and mirrors the layout if more mass ends up below the bond than
// above it.
func (l *layout) orientAttachment(at int) {
	g := l.g
	pivot := g.Coords[g.Adj[at][0]]
	geo.Rotate(g.Coords, nil, pivot, -pivot.VectorTo(g.Coords[at]).Angle())

	var above, below float64
	for i, p := range g.Coords {
		w := float64(g.Atom(i).Element)
		switch {
		case p.Y > pivot.Y+geo.MinLength:
			above += w
		case p.Y < pivot.Y-geo.MinLength:
			below += w
		}
	}
	if below > above {
		end := pivot.AddVector(geo.NewVector(1, 0))
		for i := range g.Coords {
			g.Coords[i] = geo.Reflect(g.Coords[i], pivot, end)
		}
	}
}
