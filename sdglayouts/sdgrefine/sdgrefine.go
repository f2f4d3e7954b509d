// Package sdgrefine removes overlap from a complete layout by local search.
// Each iteration collects the congested atom pairs and tries, in order of
// increasing distortion, to rotate, invert, or bend and stretch the bonds on
// the path between them. Only moves that lower the congestion score are kept.
package sdgrefine

import (
	"context"
	"math"
	"sort"

	"cdr.dev/slog"

	"oss.terrastruct.com/sdg/lib/env"
	"oss.terrastruct.com/sdg/lib/geo"
	"oss.terrastruct.com/sdg/lib/go2"
	"oss.terrastruct.com/sdg/lib/log"
	"oss.terrastruct.com/sdg/sdggraph"
	"oss.terrastruct.com/sdg/sdglayouts/sdgcongestion"
)

const DefaultMaxIterations = 10

const (
	rotateAccept         = 5.0
	rotateAcceptResolved = 1.0
	symmetricBelow       = 0.1
	relativeAccept       = 0.02
	bendStep             = 10 * math.Pi / 180
	stretchStep          = 0.32
	maxStretch           = 2.0
	maxAttempt           = 3
)

// Move is the kind of change a patch makes.
type Move int

const (
	MoveRotate Move = iota
	MoveInvert
	MoveBend
	MoveStretch
)

func (m Move) String() string {
	switch m {
	case MoveRotate:
		return "rotate"
	case MoveInvert:
		return "invert"
	case MoveBend:
		return "bend"
	case MoveStretch:
		return "stretch"
	}
	return "unknown"
}

type Stats struct {
	Iterations   int
	Moves        map[Move]int
	InitialScore float64
	FinalScore   float64
}

// pair is a congested pair of atoms with the shortest path between them.
type pair struct {
	fst, snd int
	minPrio  int
	maxPrio  int
	atoms    []int
	bonds    []int
	// bit i is set when bonds[i] is a ring bond
	ringCode uint64
}

type Refiner struct {
	g             *sdggraph.Graph
	cong          *sdgcongestion.Congestion
	maxIterations int

	symmetric []bool
	owner     map[int]int

	cand  *sdgcongestion.Patch
	best  *sdgcongestion.Patch
	side  []int
	pairs [][2]int
}

// New prepares a refiner over g, scored by cong. A maxIterations below zero
// selects DefaultMaxIterations. SDG_MAX_ITERATIONS overrides both.
func New(g *sdggraph.Graph, cong *sdgcongestion.Congestion, maxIterations int) *Refiner {
	if maxIterations < 0 {
		maxIterations = DefaultMaxIterations
	}
	if n, ok := env.MaxIterations(); ok {
		maxIterations = n
	}
	return &Refiner{
		g:             g,
		cong:          cong,
		maxIterations: maxIterations,
		symmetric:     make([]bool, len(g.Mol.Bonds)),
		owner:         make(map[int]int),
		cand:          &sdgcongestion.Patch{},
		best:          &sdgcongestion.Patch{},
	}
}

// Refine runs until an iteration makes no progress or the iteration cap is
// reached.
func (r *Refiner) Refine(ctx context.Context) Stats {
	stats := Stats{
		Moves:        make(map[Move]int),
		InitialScore: r.cong.Score(),
	}
	for it := 0; it < r.maxIterations; it++ {
		pairs := r.congestedPairs()
		if len(pairs) == 0 {
			break
		}
		stats.Iterations++
		log.Debug(ctx, "refining",
			slog.F("iteration", it),
			slog.F("pairs", len(pairs)),
			slog.F("score", r.cong.Score()),
		)
		if r.rotate(pairs, &stats) {
			continue
		}
		if r.invert(pairs, &stats) {
			continue
		}
		if r.bendOrStretch(pairs, &stats) {
			continue
		}
		break
	}
	stats.FinalScore = r.cong.Score()
	return stats
}

func (r *Refiner) congestedPairs() []*pair {
	g := r.g
	r.pairs = r.cong.Pairs(r.pairs[:0])
	out := make([]*pair, 0, len(r.pairs))
	for _, uv := range r.pairs {
		atoms, bonds, ok := g.ShortestPath(uv[0], uv[1], -1)
		if !ok {
			continue
		}
		p := &pair{
			fst:     uv[0],
			snd:     uv[1],
			minPrio: go2.Min(g.Priority[uv[0]], g.Priority[uv[1]]),
			maxPrio: go2.Max(g.Priority[uv[0]], g.Priority[uv[1]]),
			atoms:   atoms,
			bonds:   bonds,
		}
		for i, b := range bonds {
			if i < 64 && g.BondInRing[b] {
				p.ringCode |= 1 << uint(i)
			}
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.minPrio != b.minPrio {
			return a.minPrio < b.minPrio
		}
		if a.maxPrio != b.maxPrio {
			return a.maxPrio < b.maxPrio
		}
		if a.fst != b.fst {
			return a.fst < b.fst
		}
		return a.snd < b.snd
	})
	return out
}

// movingSide returns the atoms on one side of the acyclic bond b together
// with the endpoint they hang off and the endpoint that stays. The endpoint
// with the larger priority number moves unless its side holds an immovable
// atom.
func (r *Refiner) movingSide(b int) (atoms []int, moving, staying int, ok bool) {
	g := r.g
	bond := g.Bond(b)
	moving, staying = bond.End, bond.Beg
	if g.Priority[bond.Beg] > g.Priority[bond.End] {
		moving, staying = bond.Beg, bond.End
	}
	for try := 0; try < 2; try++ {
		r.side = g.Side(r.side[:0], moving, staying)
		if r.movable(r.side) {
			return r.side, moving, staying, true
		}
		moving, staying = staying, moving
	}
	return nil, 0, 0, false
}

func (r *Refiner) movable(atoms []int) bool {
	for _, a := range atoms {
		if r.g.Immovable(a) {
			return false
		}
	}
	return true
}

func patchedCoord(g *sdggraph.Graph, p *sdgcongestion.Patch, atom int) geo.Point {
	for i, a := range p.Atoms {
		if a == atom {
			return p.Coords[i]
		}
	}
	return g.Coords[atom]
}

func (r *Refiner) rotate(pairs []*pair, stats *Stats) bool {
	g := r.g
	improved := false
	for _, p := range pairs {
		for _, b := range p.bonds {
			bond := g.Bond(b)
			if g.BondInRing[b] || g.BFix[b] || r.symmetric[b] {
				continue
			}
			if g.Degree(bond.Beg) == 1 || g.Degree(bond.End) == 1 {
				continue
			}
			side, _, _, ok := r.movingSide(b)
			if !ok {
				continue
			}
			beg, end := g.Coords[bond.Beg], g.Coords[bond.End]
			r.cand.Reset()
			for _, a := range side {
				r.cand.Add(a, geo.Reflect(g.Coords[a], beg, end))
			}

			delta := r.cong.Score() - r.cong.Evaluate(r.cand)
			accept := delta > rotateAccept
			if !accept && delta > rotateAcceptResolved {
				d := patchedCoord(g, r.cand, p.fst).DistanceTo(patchedCoord(g, r.cand, p.snd))
				accept = 1/math.Max(d*d, 1e-5) < r.cong.MinScore
			}
			if accept {
				r.cong.Apply(r.cand)
				stats.Moves[MoveRotate]++
				improved = true
				break
			}
			if math.Abs(delta) < symmetricBelow {
				r.symmetric[b] = true
			}
		}
	}
	return improved
}

func (r *Refiner) invert(pairs []*pair, stats *Stats) bool {
	improved := false
	for _, p := range pairs {
		if r.invertFusion(p) || r.invertMacrocycle(p) {
			stats.Moves[MoveInvert]++
			improved = true
		}
	}
	return improved
}

// invertFusion flips a terminal atom across the ring bond in the middle of a
// substituent-ring-substituent path.
func (r *Refiner) invertFusion(p *pair) bool {
	g := r.g
	if len(p.bonds) != 3 || p.ringCode != 0b010 {
		return false
	}
	if g.Degree(p.fst) != 1 || g.Degree(p.snd) != 1 {
		return false
	}
	x := p.snd
	if g.Atom(p.fst).Element == 1 && g.Atom(p.snd).Element != 1 {
		x = p.fst
	}
	if g.Immovable(x) {
		return false
	}
	ring := g.Bond(p.bonds[1])
	r.cand.Reset()
	r.cand.Add(x, geo.Reflect(g.Coords[x], g.Coords[ring.Beg], g.Coords[ring.End]))
	if r.cong.Evaluate(r.cand) < r.cong.Score() {
		r.cong.Apply(r.cand)
		return true
	}
	return false
}

// invertMacrocycle flips the single substituent of a macrocycle atom on the
// path across the line through the atom parallel to the chord of its ring
// neighbours, moving it between the inside and the outside of the ring.
func (r *Refiner) invertMacrocycle(p *pair) bool {
	g := r.g
	for _, a := range p.atoms {
		if !g.Macrocycle[a] {
			continue
		}
		var ringNbrs []int
		sub, subs := -1, 0
		for k, w := range g.Adj[a] {
			if g.BondInRing[g.AdjBonds[a][k]] {
				ringNbrs = append(ringNbrs, w)
			} else {
				sub = w
				subs++
			}
		}
		if subs != 1 || len(ringNbrs) != 2 || g.BFix[g.BondBetween(a, sub)] {
			continue
		}
		r.side = g.Side(r.side[:0], sub, a)
		if !r.movable(r.side) {
			continue
		}
		chord := g.Coords[ringNbrs[0]].VectorTo(g.Coords[ringNbrs[1]])
		beg := g.Coords[a]
		end := beg.AddVector(chord)
		r.cand.Reset()
		for _, x := range r.side {
			r.cand.Add(x, geo.Reflect(g.Coords[x], beg, end))
		}
		if r.relativeImprovement(r.cong.Evaluate(r.cand)) > relativeAccept {
			r.cong.Apply(r.cand)
			return true
		}
	}
	return false
}

func (r *Refiner) relativeImprovement(score float64) float64 {
	cur := r.cong.Score()
	if cur <= 0 {
		return 0
	}
	return (cur - score) / cur
}

// bendOrStretch tries, per pair, bending and stretching every acyclic bond on
// its path and keeps the single best candidate.
func (r *Refiner) bendOrStretch(pairs []*pair, stats *Stats) bool {
	for k := range r.owner {
		delete(r.owner, k)
	}
	improved := false
	for pi, p := range pairs {
		bestScore := r.cong.Score()
		bestKind := Move(-1)
		r.best.Reset()
		consider := func(kind Move) {
			if s := r.cong.Evaluate(r.cand); s < bestScore {
				bestScore, bestKind = s, kind
				r.cand, r.best = r.best, r.cand
			}
		}

		if r.opposingBend(p) {
			for attempt := 1; attempt <= maxAttempt; attempt++ {
				for _, sign := range []float64{1, -1} {
					if r.bendApart(p, sign*bendStep*float64(attempt)) {
						consider(MoveBend)
					}
				}
			}
		}

		for _, b := range p.bonds {
			if r.g.BondInRing[b] || r.g.BFix[b] {
				continue
			}
			if o, ok := r.owner[b]; ok && o != pi {
				continue
			}
			r.owner[b] = pi
			for attempt := 1; attempt <= maxAttempt; attempt++ {
				for _, sign := range []float64{1, -1} {
					if r.bend(b, sign*bendStep*float64(attempt)) {
						consider(MoveBend)
					}
				}
				if r.stretch(b, float64(attempt)) {
					consider(MoveStretch)
				}
			}
		}

		if bestKind >= 0 && r.relativeImprovement(bestScore) > relativeAccept {
			r.cong.Apply(r.best)
			stats.Moves[bestKind]++
			improved = true
		}
	}
	return improved
}

// bend fills cand with one side of b rotated by theta around the staying
// endpoint.
func (r *Refiner) bend(b int, theta float64) bool {
	side, _, staying, ok := r.movingSide(b)
	if !ok {
		return false
	}
	pivot := r.g.Coords[staying]
	r.cand.Reset()
	for _, a := range side {
		r.cand.Add(a, geo.RotatePoint(r.g.Coords[a], pivot, theta))
	}
	return true
}

// stretch fills cand with one side of b pushed out along the bond.
func (r *Refiner) stretch(b int, attempt float64) bool {
	g := r.g
	side, moving, staying, ok := r.movingSide(b)
	if !ok {
		return false
	}
	v := g.Coords[staying].VectorTo(g.Coords[moving])
	extra := stretchStep * g.BondLength * attempt
	if v.Length()+extra > maxStretch*g.BondLength+1e-9 {
		return false
	}
	shift := v.Unit().Multiply(extra)
	r.cand.Reset()
	for _, a := range side {
		r.cand.Add(a, g.Coords[a].AddVector(shift))
	}
	return true
}

// opposingBend reports whether p is an even path whose two central bonds are
// ring bonds and whose next bonds out are not, a ring substituent facing
// another across a ring.
func (r *Refiner) opposingBend(p *pair) bool {
	n := len(p.bonds)
	if n < 4 || n%2 != 0 || n > 64 {
		return false
	}
	ring := func(i int) bool { return p.ringCode&(1<<uint(i)) != 0 }
	return ring(n/2-1) && ring(n/2) && !ring(n/2-2) && !ring(n/2+1)
}

// bendApart fills cand with the fst half and the snd half of p rotated in
// opposite directions around the ring atoms they hang off.
func (r *Refiner) bendApart(p *pair, theta float64) bool {
	g := r.g
	n := len(p.bonds)
	lPivot, lFree := p.atoms[n/2-1], p.atoms[n/2-2]
	rPivot, rFree := p.atoms[n/2+1], p.atoms[n/2+2]
	if g.BFix[p.bonds[n/2-2]] || g.BFix[p.bonds[n/2+1]] {
		return false
	}

	r.cand.Reset()
	r.side = g.Side(r.side[:0], lFree, lPivot)
	if !r.movable(r.side) {
		return false
	}
	left := len(r.side)
	r.side = g.Side(r.side, rFree, rPivot)
	if !r.movable(r.side[left:]) {
		return false
	}
	seen := make(map[int]bool, len(r.side))
	for i, a := range r.side {
		if seen[a] {
			return false
		}
		seen[a] = true
		pivot, t := g.Coords[lPivot], theta
		if i >= left {
			pivot, t = g.Coords[rPivot], -theta
		}
		r.cand.Add(a, geo.RotatePoint(g.Coords[a], pivot, t))
	}
	return true
}
