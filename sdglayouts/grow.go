package sdglayouts

import (
	"context"

	"cdr.dev/slog"

	"oss.terrastruct.com/sdg/lib/geo"
	"oss.terrastruct.com/sdg/lib/log"
	"oss.terrastruct.com/sdg/sdggraph"
	"oss.terrastruct.com/sdg/sdglayouts/sdgatoms"
	"oss.terrastruct.com/sdg/sdglayouts/sdgcycle"
)

// seed places the structure growth starts from: whatever the fixed atoms
// already pin down, otherwise the most complex ring system, otherwise the
// longest chain laid out horizontally.
func (l *layout) seed(ctx context.Context) {
	g := l.g
	if g.HasFixed() {
		for _, sys := range g.RingSystems {
			if !anyPlaced(g, sys.Atoms) {
				continue
			}
			sdgcycle.CompleteSystem(g, sys)
			sdgcycle.PlaceSubstituents(g, sys)
		}
		log.Debug(ctx, "seeded from fixed atoms", slog.F("unplaced", g.UnplacedCount()))
		return
	}

	if len(g.RingSystems) > 0 {
		seed := g.RingSystems[0]
		for _, sys := range g.RingSystems[1:] {
			if sys.MoreComplex(seed) {
				seed = sys
			}
		}
		sdgcycle.LayoutSystem(ctx, g, seed, l.firstBond(), l.opts.Templates)
		sdgcycle.PlaceSubstituents(g, seed)
		log.Debug(ctx, "seeded from ring system",
			slog.F("rings", len(seed.Rings)),
			slog.F("atoms", len(seed.Atoms)),
		)
		return
	}

	chain := sdgatoms.InitialLongestChain(g)
	g.Place(chain[0], geo.Point{})
	sdgatoms.PlaceLinearChain(ctx, g, chain, geo.NewVectorFromProperties(1, geo.Radians(-30)))
	log.Debug(ctx, "seeded from chain", slog.F("atoms", len(chain)))
}

func anyPlaced(g *sdggraph.Graph, atoms []int) bool {
	for _, a := range atoms {
		if g.Placed[a] {
			return true
		}
	}
	return false
}

// grow alternates acyclic and cyclic extension until every atom is placed.
// It gives up after as many rounds as there are atoms.
func (l *layout) grow(ctx context.Context) error {
	g := l.g
	for i := 0; i < g.NumAtoms() && !g.AllPlaced(); i++ {
		acyclic := l.extendAcyclic(ctx)
		cyclic := l.extendCyclic(ctx)
		if !acyclic && !cyclic {
			break
		}
	}
	if !g.AllPlaced() {
		log.Warn(ctx, "growth stalled", slog.F("unplaced", g.UnplacedCount()))
		return &LayoutError{Unplaced: g.UnplacedCount()}
	}
	return nil
}

// extendAcyclic places the longest unplaced chain hanging off the first placed
// atom that has an unplaced acyclic neighbour.
func (l *layout) extendAcyclic(ctx context.Context) bool {
	g := l.g
	for a := 0; a < g.NumAtoms(); a++ {
		if !g.Placed[a] || !hasUnplacedAcyclic(g, a) {
			continue
		}
		before := g.UnplacedCount()
		chain := sdgatoms.LongestUnplacedChain(g, a)
		if len(chain) < 2 {
			continue
		}

		var v geo.Vector
		switch placed := g.PlacedNeighbours(a); len(placed) {
		case 0:
			v = l.firstBond()
		case 1:
			v = sdgatoms.NextBondVector(g, a, placed[0], g.Center(), true)
		default:
			sdgatoms.DistributePartners(g, a, placed, g.UnplacedNeighbours(a), geo.Centroid(g.Coords, placed))
			v = g.Coords[a].VectorTo(g.Coords[chain[1]])
		}
		sdgatoms.PlaceLinearChain(ctx, g, chain, v)
		return g.UnplacedCount() < before
	}
	return false
}

func hasUnplacedAcyclic(g *sdggraph.Graph, a int) bool {
	for _, w := range g.Adj[a] {
		if !g.Placed[w] && !g.AtomInRing[w] {
			return true
		}
	}
	return false
}

// extendCyclic lays out the ring system of the first unplaced ring atom bonded
// to a placed atom and attaches it.
func (l *layout) extendCyclic(ctx context.Context) bool {
	g := l.g
	for a := 0; a < g.NumAtoms(); a++ {
		if !g.Placed[a] {
			continue
		}
		for _, r := range g.Adj[a] {
			if g.Placed[r] || !g.AtomInRing[r] {
				continue
			}
			sys := g.RingSystemOf(r)
			if sys == nil || sys.Placed || sys.Contains(a) {
				continue
			}
			l.attachSystem(ctx, sys, a, r)
			return true
		}
	}
	return false
}

// attachSystem lays out sys on its own and then moves it rigidly so that its
// atom r sits on r's anchor with the bond to the placed atom a leaving r
// where a ring substituent would.
func (l *layout) attachSystem(ctx context.Context, sys *sdggraph.RingSystem, a, r int) {
	g := l.g
	if !g.HasCoord[r] {
		switch placed := g.PlacedNeighbours(a); len(placed) {
		case 0:
			g.Anchor(r, g.Coords[a].AddVector(l.firstBond().Unit().Multiply(g.BondLength)))
		case 1:
			v := sdgatoms.NextBondVector(g, a, placed[0], g.Center(), true)
			g.Anchor(r, g.Coords[a].AddVector(v.Multiply(g.BondLength)))
		default:
			sdgatoms.DistributePartners(g, a, placed, g.UnplacedNeighbours(a), geo.Centroid(g.Coords, placed))
		}
	}
	anchor := g.Coords[r]
	attach := g.Coords[a]

	moved := sdgcycle.LayoutSystem(ctx, g, sys, l.firstBond(), l.opts.Templates)

	var ringNbrs []int
	for _, w := range g.Adj[r] {
		if sys.Contains(w) {
			ringNbrs = append(ringNbrs, w)
		}
	}
	local := g.Coords[r]
	out := geo.Centroid(g.Coords, ringNbrs).VectorTo(local).Unit()
	theta := anchor.VectorTo(attach).Angle() - out.Angle()
	geo.Rotate(g.Coords, moved, local, theta)
	geo.Translate(g.Coords, moved, local.VectorTo(anchor))

	sdgcycle.PlaceSubstituents(g, sys)
	log.Debug(ctx, "attached ring system",
		slog.F("atom", r),
		slog.F("to", a),
		slog.F("rings", len(sys.Rings)),
	)
}
