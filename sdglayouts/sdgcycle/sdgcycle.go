// Package sdgcycle lays out ring systems: a seed ring as a regular polygon or
// macrocycle outline, every other ring of the system fused, bridged or spiro
// onto what is already placed, and finally the substituents of ring atoms.
package sdgcycle

import (
	"context"
	"math"
	"sort"

	"cdr.dev/slog"

	"oss.terrastruct.com/sdg/lib/geo"
	"oss.terrastruct.com/sdg/lib/go2"
	"oss.terrastruct.com/sdg/lib/log"
	"oss.terrastruct.com/sdg/sdggraph"
	"oss.terrastruct.com/sdg/sdglayouts/sdgatoms"
	"oss.terrastruct.com/sdg/sdgtemplate"
)

// LayoutSystem places every atom of sys, which must have none placed, with
// its seed ring's first bond starting at the origin along firstBond. A
// template from lib is preferred when one matches. It returns the atoms it
// placed, which can include the first substituent atoms when a template
// covered them.
func LayoutSystem(ctx context.Context, g *sdggraph.Graph, sys *sdggraph.RingSystem, firstBond geo.Vector, lib sdgtemplate.Library) []int {
	if lib != nil {
		if placed, ok := layoutFromTemplate(ctx, g, sys, lib); ok {
			return placed
		}
	}

	before := snapshot(g)
	seed := SeedRing(sys)
	PlaceSeedRing(g, seed, firstBond)
	PlaceConnectedRings(g, sys)
	sys.Placed = true
	return newlyPlaced(g, before)
}

// CompleteSystem places the rest of a ring system that already has atoms
// placed, which happens when fixed atoms sit in it.
func CompleteSystem(g *sdggraph.Graph, sys *sdggraph.RingSystem) []int {
	before := snapshot(g)
	for _, r := range sys.Rings {
		r.Placed = allPlaced(g, r.Atoms)
	}
	PlaceConnectedRings(g, sys)
	sys.Placed = true
	return newlyPlaced(g, before)
}

// SeedRing picks the ring a system is grown from: the one fused to the most
// other rings, then the larger one, then the first.
func SeedRing(sys *sdggraph.RingSystem) *sdggraph.Ring {
	var best *sdggraph.Ring
	bestFused := -1
	for _, r := range sys.Rings {
		fused := 0
		for _, o := range sys.Rings {
			if o != r && len(r.Shared(o)) >= 2 {
				fused++
			}
		}
		if fused > bestFused || (fused == bestFused && r.Size() > best.Size()) {
			best, bestFused = r, fused
		}
	}
	return best
}

// PlaceSeedRing places ring with its first atom on the origin and its first
// bond along firstBond. The rest of the ring bulges to the left of that bond.
func PlaceSeedRing(g *sdggraph.Graph, ring *sdggraph.Ring, firstBond geo.Vector) {
	dir := firstBond.Unit()
	origin := geo.NewPoint(0, 0)

	if usesLattice(g, ring) {
		shape := fitToBond(acenePerimeter(ring.Size(), g.BondLength), origin, dir)
		for i, a := range ring.Atoms {
			g.Place(a, shape[i])
		}
		ring.Placed = true
		return
	}

	g.Place(ring.Atoms[0], origin)
	g.Place(ring.Atoms[1], origin.AddVector(dir.Multiply(g.BondLength)))
	right := origin.AddVector(geo.NewVector(dir.Y, -dir.X))
	placePolygon(g, ring, right)
	ring.Placed = true
}

// PlaceConnectedRings places the unplaced rings of sys, always continuing with
// the unplaced ring that shares the most atoms with what is placed.
func PlaceConnectedRings(g *sdggraph.Graph, sys *sdggraph.RingSystem) {
	for {
		var next *sdggraph.Ring
		bestShared := 0
		for _, r := range sys.Rings {
			if r.Placed {
				continue
			}
			shared := 0
			for _, a := range r.Atoms {
				if g.Placed[a] {
					shared++
				}
			}
			if shared > bestShared {
				next, bestShared = r, shared
			}
		}
		if next == nil {
			return
		}
		if bestShared == 1 {
			placeSpiro(g, next)
		} else {
			placeBridgedOrFused(g, sys, next)
		}
		next.Placed = true
	}
}

// placeBridgedOrFused closes every gap of unplaced atoms in ring with an arc
// between the placed atoms that bound it.
func placeBridgedOrFused(g *sdggraph.Graph, sys *sdggraph.RingSystem, ring *sdggraph.Ring) {
	n := ring.Size()
	for i := 0; i < n; i++ {
		a := ring.Atoms[i]
		if !g.Placed[a] || g.Placed[ring.Atoms[(i+1)%n]] {
			continue
		}
		var run []int
		j := (i + 1) % n
		for !g.Placed[ring.Atoms[j]] {
			run = append(run, ring.Atoms[j])
			j = (j + 1) % n
		}
		b := ring.Atoms[j]
		placeArc(g, run, a, b, bulgeReference(g, sys, ring, a, b))
		unfold(g, run, a, b)
	}
}

// unfold mirrors a freshly placed run across the line through a and b when
// it lands on top of placed atoms and the mirror image is clearer. A bridge
// drawn away from its own ring can trace another ring's outline exactly.
func unfold(g *sdggraph.Graph, run []int, a, b int) {
	before := clearance(g, run, a, b)
	if before >= g.BondLength/2 {
		return
	}
	geo.ReflectAll(g.Coords, run, g.Coords[a], g.Coords[b])
	if clearance(g, run, a, b) <= before {
		geo.ReflectAll(g.Coords, run, g.Coords[a], g.Coords[b])
	}
}

// clearance is the smallest distance from run to a placed atom outside run
// other than a and b.
func clearance(g *sdggraph.Graph, run []int, a, b int) float64 {
	min := math.Inf(1)
	for y := 0; y < g.NumAtoms(); y++ {
		if !g.Placed[y] || y == a || y == b || go2.Contains(run, y) {
			continue
		}
		for _, x := range run {
			min = math.Min(min, g.Coords[x].DistanceTo(g.Coords[y]))
		}
	}
	return min
}

// bulgeReference is the point a new arc between a and b has to bend away
// from: the rest of ring when some of it is placed, otherwise the placed
// rings around a and b.
func bulgeReference(g *sdggraph.Graph, sys *sdggraph.RingSystem, ring *sdggraph.Ring, a, b int) geo.Point {
	own := go2.Filter(ring.Atoms, func(x int) bool {
		return x != a && x != b && g.Placed[x]
	})
	if len(own) > 0 {
		return geo.Centroid(g.Coords, own)
	}

	var both, either []int
	for _, r := range sys.Rings {
		if r == ring || !r.Placed {
			continue
		}
		hasA, hasB := r.Contains(a), r.Contains(b)
		if hasA && hasB {
			both = append(both, r.Atoms...)
		} else if hasA || hasB {
			either = append(either, r.Atoms...)
		}
	}
	if len(both) > 0 {
		return geo.Centroid(g.Coords, both)
	}
	if len(either) > 0 {
		return geo.Centroid(g.Coords, either)
	}
	return g.Center()
}

// placeSpiro draws ring as a regular polygon touching the placed structure in
// its single placed atom, pointing away from the placed neighbours of that
// atom.
func placeSpiro(g *sdggraph.Graph, ring *sdggraph.Ring) {
	n := ring.Size()
	start := -1
	for i, a := range ring.Atoms {
		if g.Placed[a] {
			start = i
			break
		}
	}
	s := ring.Atoms[start]
	sp := g.Coords[s]

	away := geo.DefaultDirection
	if nbrs := g.PlacedNeighbours(s); len(nbrs) > 0 {
		away = geo.Centroid(g.Coords, nbrs).VectorTo(sp).Unit()
	}
	radius := g.BondLength / (2 * math.Sin(math.Pi/float64(n)))
	center := sp.AddVector(away.Multiply(radius))
	theta := center.VectorTo(sp).Angle()
	step := 2 * math.Pi / float64(n)
	for j := 1; j < n; j++ {
		a := ring.Atoms[(start+j)%n]
		g.Place(a, center.AddVector(geo.NewVectorFromProperties(radius, theta+float64(j)*step)))
	}
}

// PlaceSubstituents distributes the unplaced neighbours of every atom of sys
// around it, opposite the rings the atom belongs to.
func PlaceSubstituents(g *sdggraph.Graph, sys *sdggraph.RingSystem) {
	for _, a := range sys.Atoms {
		unplaced := g.UnplacedNeighbours(a)
		if len(unplaced) == 0 {
			continue
		}
		var ringAtoms []int
		for _, r := range sys.Rings {
			if r.Placed && r.Contains(a) {
				ringAtoms = append(ringAtoms, r.Atoms...)
			}
		}
		center := g.Coords[a]
		if len(ringAtoms) > 0 {
			center = geo.Centroid(g.Coords, ringAtoms)
		}
		sdgatoms.DistributePartners(g, a, g.PlacedNeighbours(a), unplaced, center)
	}
}

func layoutFromTemplate(ctx context.Context, g *sdggraph.Graph, sys *sdggraph.RingSystem, lib sdgtemplate.Library) ([]int, bool) {
	for _, level := range sdgtemplate.Levels {
		atoms := sys.Atoms
		if level == sdgtemplate.LevelStubs {
			atoms = withStubs(g, sys)
		}
		sub, atomMap, _ := g.Mol.Subset(atoms)
		coords, ok := lib.TryAssignLayout(sub, level, g.BondLength)
		if !ok {
			continue
		}

		var placed []int
		for local, orig := range atomMap {
			if g.Placed[orig] {
				continue
			}
			// ring atoms of other systems wait for their own layout
			if !sys.Contains(orig) && g.AtomInRing[orig] {
				continue
			}
			g.Place(orig, coords[local])
			placed = append(placed, orig)
		}
		for _, r := range sys.Rings {
			r.Placed = true
		}
		sys.Placed = true
		log.Debug(ctx, "ring system laid out from template",
			slog.F("atoms", len(sys.Atoms)),
			slog.F("level", level.String()),
		)
		return placed, true
	}
	return nil, false
}

// withStubs is sys plus every atom bonded to it from outside.
func withStubs(g *sdggraph.Graph, sys *sdggraph.RingSystem) []int {
	atoms := append([]int(nil), sys.Atoms...)
	for _, a := range sys.Atoms {
		for _, w := range g.Adj[a] {
			if !sys.Contains(w) {
				atoms = append(atoms, w)
			}
		}
	}
	sort.Ints(atoms)
	out := atoms[:0]
	for i, a := range atoms {
		if i == 0 || a != atoms[i-1] {
			out = append(out, a)
		}
	}
	return out
}

func allPlaced(g *sdggraph.Graph, atoms []int) bool {
	for _, a := range atoms {
		if !g.Placed[a] {
			return false
		}
	}
	return true
}

func snapshot(g *sdggraph.Graph) []bool {
	return append([]bool(nil), g.Placed...)
}

func newlyPlaced(g *sdggraph.Graph, before []bool) []int {
	var out []int
	for i, p := range g.Placed {
		if p && !before[i] {
			out = append(out, i)
		}
	}
	return out
}
