// Package sdgcongestion scores how crowded a layout is. Every pair of
// non-bonded placed atoms contributes the inverse square of its distance, and
// the refiner minimizes the sum.
package sdgcongestion

import (
	"math"

	"oss.terrastruct.com/sdg/lib/geo"
	"oss.terrastruct.com/sdg/sdggraph"
)

const (
	minDistanceSq = 1e-5
	bonded        = -1
)

// Patch is a set of proposed coordinates. Coords[i] is the new position of
// Atoms[i].
type Patch struct {
	Atoms  []int
	Coords []geo.Point
}

func (p *Patch) Len() int {
	return len(p.Atoms)
}

// Add appends a proposed position.
func (p *Patch) Add(atom int, pt geo.Point) {
	p.Atoms = append(p.Atoms, atom)
	p.Coords = append(p.Coords, pt)
}

func (p *Patch) Reset() {
	p.Atoms = p.Atoms[:0]
	p.Coords = p.Coords[:0]
}

type Congestion struct {
	g *sdggraph.Graph
	n int
	// contrib is the n×n pair matrix, bonded pairs hold -1
	contrib []float64
	score   float64

	// MinScore is the contribution of two atoms half a bond length apart.
	// Pairs above it are congested.
	MinScore float64
	// MaybeCrossed is the contribution of two atoms two bond lengths apart.
	// Pairs above it are congested when their bonds cross.
	MaybeCrossed float64

	patchOf []int
	mark    []bool
}

func New(g *sdggraph.Graph) *Congestion {
	n := g.NumAtoms()
	half := g.BondLength / 2
	c := &Congestion{
		g:            g,
		n:            n,
		contrib:      make([]float64, n*n),
		MinScore:     1 / (half * half),
		MaybeCrossed: 1 / (4 * g.BondLength * g.BondLength),
		patchOf:      make([]int, n),
		mark:         make([]bool, n),
	}
	for i := range c.patchOf {
		c.patchOf[i] = -1
	}
	for _, b := range g.Mol.Bonds {
		c.contrib[b.Beg*n+b.End] = bonded
		c.contrib[b.End*n+b.Beg] = bonded
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if c.contrib[i*n+j] == bonded {
				continue
			}
			v := c.compute(i, j, g.Coords[i], g.Coords[j])
			c.set(i, j, v)
			c.score += v
		}
	}
	return c
}

// Score is the sum of all non-bonded pair contributions.
func (c *Congestion) Score() float64 {
	return c.score
}

// Contribution of the pair u-v, -1 when they are bonded.
func (c *Congestion) Contribution(u, v int) float64 {
	return c.contrib[u*c.n+v]
}

func (c *Congestion) set(u, v int, x float64) {
	c.contrib[u*c.n+v] = x
	c.contrib[v*c.n+u] = x
}

func (c *Congestion) compute(u, v int, pu, pv geo.Point) float64 {
	if !c.g.Placed[u] || !c.g.Placed[v] {
		return 0
	}
	dx := pu.X - pv.X
	dy := pu.Y - pv.Y
	return 1 / math.Max(dx*dx+dy*dy, minDistanceSq)
}

// Update recomputes the contributions of every pair touching moved from the
// current coordinates.
func (c *Congestion) Update(moved []int) {
	for _, m := range moved {
		c.mark[m] = true
	}
	for _, m := range moved {
		for j := 0; j < c.n; j++ {
			if j == m || (c.mark[j] && j < m) {
				continue
			}
			old := c.contrib[m*c.n+j]
			if old == bonded {
				continue
			}
			v := c.compute(m, j, c.g.Coords[m], c.g.Coords[j])
			c.set(m, j, v)
			c.score += v - old
		}
	}
	for _, m := range moved {
		c.mark[m] = false
	}
}

// Evaluate returns the score the layout would have with p applied. Nothing
// is modified.
func (c *Congestion) Evaluate(p *Patch) float64 {
	for i, a := range p.Atoms {
		c.patchOf[a] = i
	}
	score := c.score
	for i, m := range p.Atoms {
		pm := p.Coords[i]
		for j := 0; j < c.n; j++ {
			if j == m {
				continue
			}
			k := c.patchOf[j]
			if k >= 0 && j < m {
				continue
			}
			old := c.contrib[m*c.n+j]
			if old == bonded {
				continue
			}
			pj := c.g.Coords[j]
			if k >= 0 {
				pj = p.Coords[k]
			}
			score += c.compute(m, j, pm, pj) - old
		}
	}
	for _, a := range p.Atoms {
		c.patchOf[a] = -1
	}
	return score
}

// Apply writes p into the layout and updates the affected contributions.
func (c *Congestion) Apply(p *Patch) {
	for i, a := range p.Atoms {
		c.g.Coords[a] = p.Coords[i]
	}
	c.Update(p.Atoms)
}

// IsCongested reports whether the non-bonded pair u-v is too close, or close
// enough and with a bond of one crossing a bond of the other.
func (c *Congestion) IsCongested(u, v int) bool {
	x := c.Contribution(u, v)
	if x == bonded {
		return false
	}
	if x > c.MinScore {
		return true
	}
	return x > c.MaybeCrossed && c.bondsCross(u, v)
}

func (c *Congestion) bondsCross(u, v int) bool {
	g := c.g
	for _, bu := range g.AdjBonds[u] {
		su := bondSegment(g, bu)
		b1 := g.Bond(bu)
		for _, bv := range g.AdjBonds[v] {
			b2 := g.Bond(bv)
			if b1.Contains(b2.Beg) || b1.Contains(b2.End) {
				continue
			}
			if !g.Placed[b2.Beg] || !g.Placed[b2.End] || !g.Placed[b1.Other(u)] {
				continue
			}
			if su.Crosses(bondSegment(g, bv)) {
				return true
			}
		}
	}
	return false
}

func bondSegment(g *sdggraph.Graph, b int) geo.Segment {
	bond := g.Bond(b)
	return geo.Segment{Start: g.Coords[bond.Beg], End: g.Coords[bond.End]}
}

// Pairs appends every congested pair (u < v) to buf.
func (c *Congestion) Pairs(buf [][2]int) [][2]int {
	for u := 0; u < c.n; u++ {
		row := c.contrib[u*c.n : (u+1)*c.n]
		for v := u + 1; v < c.n; v++ {
			if row[v] > c.MaybeCrossed && c.IsCongested(u, v) {
				buf = append(buf, [2]int{u, v})
			}
		}
	}
	return buf
}
