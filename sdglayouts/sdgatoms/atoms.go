// Package sdgatoms places acyclic atoms: partners around a partially placed
// atom, zig-zag chains, and the chain searches and atom priorities the rest of
// the layout relies on.
package sdgatoms

import (
	"context"
	"errors"
	"math"

	"cdr.dev/slog"

	"oss.terrastruct.com/sdg/lib/geo"
	"oss.terrastruct.com/sdg/lib/log"
	"oss.terrastruct.com/sdg/sdggraph"
)

const (
	// bond angle of an sp2/sp3 zig-zag
	chainAngle = 2 * math.Pi / 3
	cisStep    = math.Pi / 3
	// a quaternary atom with three terminal partners is drawn as a cross
	terminalD4Step = math.Pi / 4
	// tolerance on the 120° ring junction that triggers the terminal splay
	snapTolerance = 0.01
)

// DistributePartners places the unplaced neighbours of atom around it, in the
// angular space its placed neighbours leave free. center is the point the
// placed side is gathered around, usually the centroid of the placed
// neighbours or of the ring the atom belongs to.
//
// Unplaced neighbours that belong to a ring system other than atom's only
// receive an anchor; they are placed with their ring system.
func DistributePartners(g *sdggraph.Graph, atom int, placed, unplaced []int, center geo.Point) {
	n := len(unplaced)
	if n == 0 {
		return
	}
	origin := g.Coords[atom]

	switch len(placed) {
	case 0:
		PopulatePolygonCorners(g, unplaced, origin, 0, 2*math.Pi/float64(n), g.BondLength)
		return
	case 1:
		start := origin.VectorTo(g.Coords[placed[0]]).Angle()
		PopulatePolygonCorners(g, unplaced, origin, start, 2*math.Pi/float64(n+1), g.BondLength)
		return
	}

	if start, sweep, ok := ringJunction(g, atom, placed, unplaced); ok {
		PopulatePolygonCorners(g, unplaced, origin, start, sweep/float64(n+1), g.BondLength)
		return
	}

	occupied := origin.VectorTo(center)
	if occupied.Length() < geo.MinLength {
		occupied = geo.DefaultDirection
	}
	away := origin.AddVector(occupied.Negate().Unit().Multiply(g.BondLength))

	sorted := append([]int(nil), placed...)
	geo.SortByDistance(sorted, g.Coords, away)
	c1 := origin.VectorTo(g.Coords[sorted[0]])
	c2 := origin.VectorTo(g.Coords[sorted[1]])
	occupiedAngle := c1.AngleTo(occupied) + c2.AngleTo(occupied)

	angle1 := c1.Angle()
	angle3 := origin.VectorTo(away).Angle()
	startAtom := sorted[0]
	if angle1 > angle3 {
		if angle1-angle3 < math.Pi {
			startAtom = sorted[1]
		}
	} else if angle3-angle1 >= math.Pi {
		startAtom = sorted[1]
	}

	step := (2*math.Pi - occupiedAngle) / float64(n+1)
	start := origin.VectorTo(g.Coords[startAtom]).Angle()
	PopulatePolygonCorners(g, unplaced, origin, start, step, g.BondLength)
}

// ringJunction detects an atom whose two placed neighbours are ring bonds
// meeting at 120° while everything left to place is terminal. Those partners
// go into the reflex angle instead of the free arc.
func ringJunction(g *sdggraph.Graph, atom int, placed, unplaced []int) (start, sweep float64, ok bool) {
	if len(placed) != 2 {
		return 0, 0, false
	}
	for _, p := range placed {
		if !g.BondInRing[g.BondBetween(atom, p)] {
			return 0, 0, false
		}
	}
	for _, u := range unplaced {
		if g.Degree(u) != 1 {
			return 0, 0, false
		}
	}
	origin := g.Coords[atom]
	a := origin.VectorTo(g.Coords[placed[0]])
	b := origin.VectorTo(g.Coords[placed[1]])
	interior := a.AngleTo(b)
	if math.Abs(interior-chainAngle) > snapTolerance {
		return 0, 0, false
	}
	d1, d2 := a.Angle(), b.Angle()
	start = d2
	if (d1 > d2 && d1-d2 < math.Pi) || d2-d1 >= math.Pi {
		start = d1
	}
	return start, 2*math.Pi - interior, true
}

// PopulatePolygonCorners puts atoms on a circle of radius around center,
// the first at thetaBeg+step and each next one step further counter-clockwise.
func PopulatePolygonCorners(g *sdggraph.Graph, atoms []int, center geo.Point, thetaBeg, step, radius float64) {
	theta := thetaBeg
	for _, a := range atoms {
		theta += step
		p := center.AddVector(geo.NewVectorFromProperties(radius, theta))
		placePartner(g, a, p)
	}
}

// placePartner places a, or only anchors it when a belongs to a ring system
// that has not been laid out.
func placePartner(g *sdggraph.Graph, a int, p geo.Point) {
	if g.AtomInRing[a] {
		if sys := g.RingSystemOf(a); sys != nil && !sys.Placed {
			g.Anchor(a, p)
			return
		}
	}
	g.Place(a, p)
}

// ErrNoStereoReference is returned by the E/Z probe when no placed atom fixes
// the side of a double bond.
var ErrNoStereoReference = errors.New("no placed reference atom")

// PlaceLinearChain places chain[1:] bond by bond starting from the already
// placed chain[0], first along initial and then zig-zagging away from the
// centre of the placed structure.
func PlaceLinearChain(ctx context.Context, g *sdggraph.Graph, chain []int, initial geo.Vector) {
	if len(chain) < 2 {
		return
	}
	v := initial
	for f := 0; f < len(chain)-1; f++ {
		atom, next := chain[f], chain[f+1]
		p := g.Coords[atom].AddVector(v.Unit().Multiply(g.BondLength))
		placePartner(g, next, p)
		if f+2 >= len(chain) {
			break
		}

		if IsColinear(g, next) {
			v = g.Coords[atom].VectorTo(g.Coords[next]).Unit()
			continue
		}
		same, ref, err := stereoSide(g, chain, f)
		if err == nil {
			v = stereoBondVector(g, next, atom, ref, same)
			continue
		}
		if !errors.Is(err, errNotStereo) {
			log.Debug(ctx, "chain placed without double bond geometry",
				slog.F("atom", next),
				slog.Error(err),
			)
		}
		v = NextBondVector(g, next, atom, g.Center(), true)
	}
}

// NextBondVector is the direction of the bond leaving atom that continues the
// chain coming from prev: straight on for colinear atoms, otherwise whichever
// of the two turns bondStep allows ends farther from farFrom.
func NextBondVector(g *sdggraph.Graph, atom, prev int, farFrom geo.Point, trans bool) geo.Vector {
	v1, v2, colinear := nextBondCandidates(g, atom, prev, bondStep(g, atom, trans))
	if colinear {
		return v1
	}
	return farther(g.Coords[atom], farFrom, v1, v2)
}

// bondStep is the turn between the bond back to the previous atom and the
// next bond: 45° for a terminal D4 atom, whose partners then form a cross, 60°
// for a cis continuation and 120° otherwise.
func bondStep(g *sdggraph.Graph, atom int, trans bool) float64 {
	switch {
	case IsTerminalD4(g, atom):
		return terminalD4Step
	case !trans:
		return cisStep
	}
	return chainAngle
}

// nextBondCandidates turns the bond from atom back to prev counter-clockwise
// by step and by twice step.
func nextBondCandidates(g *sdggraph.Graph, atom, prev int, step float64) (v1, v2 geo.Vector, colinear bool) {
	in := g.Coords[atom].VectorTo(g.Coords[prev])
	if IsColinear(g, atom) {
		return in.Negate().Unit(), geo.Vector{}, true
	}
	base := in.Angle()
	return geo.NewVectorFromProperties(1, base+step), geo.NewVectorFromProperties(1, base+2*step), false
}

// stereoBondVector continues a chain at atom, the far end of the double bond
// from prev, on the side of that bond ref calls for. A trans continuation is a
// plain 120° turn; a cis one turns by the cis step towards ref's side and
// keeps whichever of its two turns ends farther from the placed structure.
func stereoBondVector(g *sdggraph.Graph, atom, prev, ref int, same bool) geo.Vector {
	beg, end := g.Coords[prev], g.Coords[atom]
	if !same {
		v1, v2, _ := nextBondCandidates(g, atom, prev, chainAngle)
		return pickSide(beg, end, g.Coords[ref], false, v1, v2)
	}
	base := end.VectorTo(beg).Angle()
	ccw := geo.NewVectorFromProperties(1, base+cisStep)
	cw := geo.NewVectorFromProperties(1, base-cisStep)
	sign := 1.0
	if pickSide(beg, end, g.Coords[ref], true, ccw, cw) == cw {
		sign = -1
	}
	v1 := geo.NewVectorFromProperties(1, base+sign*cisStep)
	v2 := geo.NewVectorFromProperties(1, base+sign*2*cisStep)
	return farther(end, g.Center(), v1, v2)
}

// IsTerminalD4 reports whether atom has four partners, three of them terminal.
func IsTerminalD4(g *sdggraph.Graph, atom int) bool {
	if g.Degree(atom) != 4 {
		return false
	}
	terminal := 0
	for _, w := range g.Adj[atom] {
		if g.Degree(w) == 1 {
			terminal++
		}
	}
	return terminal == 3
}

func farther(origin, farFrom geo.Point, v1, v2 geo.Vector) geo.Vector {
	d1 := origin.AddVector(v1).DistanceTo(farFrom)
	d2 := origin.AddVector(v2).DistanceTo(farFrom)
	if d2 > d1 {
		return v2
	}
	return v1
}

// pickSide returns the candidate landing on the same side of the line beg-end
// as ref when same is set, or on the opposite side otherwise.
func pickSide(beg, end, ref geo.Point, same bool, v1, v2 geo.Vector) geo.Vector {
	axis := beg.VectorTo(end)
	refSide := geo.Sign(axis.Cross(beg.VectorTo(ref)))
	side1 := geo.Sign(axis.Cross(beg.VectorTo(end.AddVector(v1))))
	if (side1 == refSide) == same {
		return v1
	}
	return v2
}

var errNotStereo = errors.New("not a stereo double bond")

// stereoSide reports whether chain[f+2] has to land on the same side of the
// double bond chain[f]=chain[f+1] as the returned reference atom.
func stereoSide(g *sdggraph.Graph, chain []int, f int) (same bool, ref int, err error) {
	beg, end, next := chain[f], chain[f+1], chain[f+2]
	b := g.Bond(g.BondBetween(beg, end))
	if b.Order != sdggraph.Double || b.Stereo == sdggraph.StereoNone {
		return false, 0, errNotStereo
	}

	ref = -1
	if f > 0 && g.HasCoord[chain[f-1]] {
		ref = chain[f-1]
	} else {
		for _, w := range g.Adj[beg] {
			if w != end && g.HasCoord[w] {
				ref = w
				break
			}
		}
	}
	if ref < 0 {
		return false, 0, ErrNoStereoReference
	}

	same = b.Stereo == sdggraph.StereoTogether
	if ref != g.StereoReference(beg, end) {
		same = !same
	}
	if next != g.StereoReference(end, beg) {
		same = !same
	}
	return same, ref, nil
}

// IsColinear reports whether the bonds of atom have to be drawn in a straight
// line: metals with two bonds, any quadruple bond, and C, N, Si or Ge carrying
// a triple and a single bond or two double bonds.
func IsColinear(g *sdggraph.Graph, atom int) bool {
	a := g.Atom(atom)
	bonds := g.AdjBonds[atom]
	if IsMetal(a.Element) {
		return len(bonds) == 2
	}
	nSingle := a.ImplicitH
	nDouble, nTriple := 0, 0
	for _, bi := range bonds {
		switch g.Bond(bi).Order {
		case sdggraph.Single:
			nSingle++
		case sdggraph.Double:
			nDouble++
		case sdggraph.Triple:
			nTriple++
		case sdggraph.Quadruple:
			return true
		default:
			return false
		}
	}
	switch a.Element {
	case 6, 7, 14, 32:
		if nTriple == 1 && nSingle == 1 {
			return true
		}
		if nDouble == 2 && nSingle == 0 {
			return true
		}
	}
	return false
}

func IsMetal(element int) bool {
	switch {
	case element == 3 || element == 4:
	case element >= 11 && element <= 13:
	case element >= 19 && element <= 31:
	case element >= 37 && element <= 50:
	case element >= 55 && element <= 84:
	case element >= 87 && element <= 103:
	default:
		return false
	}
	return true
}
