// Package sdgrings perceives the smallest set of smallest rings of a molecule.
//
// Candidate cycles are generated the Horton way: for every root atom r and
// every ring bond (x, y), the cycle P(r,x) + (x,y) + P(y,r) built from a
// breadth-first tree is a candidate when both tree paths only share r.
// Candidates are then sorted by size and selected greedily while they stay
// linearly independent over GF(2), which yields a minimum cycle basis.
package sdgrings

import (
	"math/big"
	"sort"
	"strconv"
	"strings"

	"oss.terrastruct.com/sdg/sdggraph"
)

// SSSR is the default ring finder.
type SSSR struct{}

// FindSSSR returns a minimum cycle basis of mol. Rings are ordered by size,
// then by their lowest bond index.
func (SSSR) FindSSSR(mol *sdggraph.Molecule) []*sdggraph.Ring {
	g := sdggraph.NewGraph(mol, 0)
	ringBond := RingBonds(g)

	nRingBonds := 0
	ringAtoms := make(map[int]struct{})
	for b, ok := range ringBond {
		if !ok {
			continue
		}
		nRingBonds++
		ringAtoms[mol.Bonds[b].Beg] = struct{}{}
		ringAtoms[mol.Bonds[b].End] = struct{}{}
	}
	if nRingBonds == 0 {
		return nil
	}
	want := nRingBonds - len(ringAtoms) + ringComponents(g, ringBond)

	cands := candidates(g, ringBond)
	sort.SliceStable(cands, func(i, j int) bool {
		if len(cands[i].Bonds) != len(cands[j].Bonds) {
			return len(cands[i].Bonds) < len(cands[j].Bonds)
		}
		return minInt(cands[i].Bonds) < minInt(cands[j].Bonds)
	})

	var rings []*sdggraph.Ring
	basis := make(map[int]*big.Int)
	for _, c := range cands {
		if len(rings) == want {
			break
		}
		v := new(big.Int)
		for _, b := range c.Bonds {
			v.SetBit(v, b, 1)
		}
		for v.Sign() != 0 {
			p := v.BitLen() - 1
			row, ok := basis[p]
			if !ok {
				basis[p] = v
				rings = append(rings, c)
				break
			}
			v.Xor(v, row)
		}
	}
	return rings
}

// MarkRingAtomsAndBonds perceives the rings of g's molecule and records them on
// g, which also flags ring atoms, ring bonds and macrocycles.
func (s SSSR) MarkRingAtomsAndBonds(g *sdggraph.Graph) {
	g.SetRings(s.FindSSSR(g.Mol))
}

// RingBonds flags every bond whose endpoints stay connected without it.
func RingBonds(g *sdggraph.Graph) []bool {
	out := make([]bool, len(g.Mol.Bonds))
	for i, b := range g.Mol.Bonds {
		_, _, ok := g.ShortestPath(b.Beg, b.End, i)
		out[i] = ok
	}
	return out
}

func ringComponents(g *sdggraph.Graph, ringBond []bool) int {
	seen := make([]bool, g.NumAtoms())
	n := 0
	var stack []int
	for b, ok := range ringBond {
		if !ok || seen[g.Mol.Bonds[b].Beg] {
			continue
		}
		n++
		start := g.Mol.Bonds[b].Beg
		seen[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for k, w := range g.Adj[u] {
				if !ringBond[g.AdjBonds[u][k]] || seen[w] {
					continue
				}
				seen[w] = true
				stack = append(stack, w)
			}
		}
	}
	return n
}

func candidates(g *sdggraph.Graph, ringBond []bool) []*sdggraph.Ring {
	n := g.NumAtoms()
	parent := make([]int, n)
	parentBond := make([]int, n)
	seen := make(map[string]struct{})
	var out []*sdggraph.Ring

	for r := 0; r < n; r++ {
		if !hasRingBond(g, ringBond, r) {
			continue
		}
		for i := range parent {
			parent[i] = -2
		}
		parent[r] = -1
		parentBond[r] = -1
		queue := []int{r}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			for k, w := range g.Adj[u] {
				b := g.AdjBonds[u][k]
				if !ringBond[b] || parent[w] != -2 {
					continue
				}
				parent[w] = u
				parentBond[w] = b
				queue = append(queue, w)
			}
		}

		for b, ok := range ringBond {
			if !ok {
				continue
			}
			x, y := g.Mol.Bonds[b].Beg, g.Mol.Bonds[b].End
			if parent[x] == -2 || parent[y] == -2 || parentBond[x] == b || parentBond[y] == b {
				continue
			}
			px := treePath(parent, x)
			py := treePath(parent, y)
			if !disjointBelowRoot(px, py) {
				continue
			}
			ring := cycle(g, px, py)
			key := bondKey(ring.Bonds)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, ring)
		}
	}
	return out
}

func hasRingBond(g *sdggraph.Graph, ringBond []bool, atom int) bool {
	for _, b := range g.AdjBonds[atom] {
		if ringBond[b] {
			return true
		}
	}
	return false
}

// treePath is the path from atom up to the root, atom first.
func treePath(parent []int, atom int) []int {
	var p []int
	for a := atom; a >= 0; a = parent[a] {
		p = append(p, a)
	}
	return p
}

func disjointBelowRoot(px, py []int) bool {
	in := make(map[int]struct{}, len(px))
	for _, a := range px[:len(px)-1] {
		in[a] = struct{}{}
	}
	for _, a := range py[:len(py)-1] {
		if _, ok := in[a]; ok {
			return false
		}
	}
	return true
}

// cycle walks root -> ... -> x, crosses to y, then y -> ... -> root.
func cycle(g *sdggraph.Graph, px, py []int) *sdggraph.Ring {
	ring := &sdggraph.Ring{}
	for i := len(px) - 1; i >= 0; i-- {
		ring.Atoms = append(ring.Atoms, px[i])
	}
	for _, a := range py[:len(py)-1] {
		ring.Atoms = append(ring.Atoms, a)
	}
	for i := range ring.Atoms {
		u := ring.Atoms[i]
		v := ring.Atoms[(i+1)%len(ring.Atoms)]
		ring.Bonds = append(ring.Bonds, g.BondBetween(u, v))
	}
	return ring
}

func bondKey(bonds []int) string {
	cp := append([]int(nil), bonds...)
	sort.Ints(cp)
	parts := make([]string, len(cp))
	for i, b := range cp {
		parts[i] = strconv.Itoa(b)
	}
	return strings.Join(parts, ",")
}

func minInt(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
