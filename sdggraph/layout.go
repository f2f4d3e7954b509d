package sdggraph

import (
	"fmt"
	"sort"

	"oss.terrastruct.com/sdg/lib/geo"
)

// Ring is a cycle of atoms in traversal order. Bonds[i] joins Atoms[i] and
// Atoms[(i+1)%len(Atoms)].
type Ring struct {
	Atoms  []int
	Bonds  []int
	Placed bool
}

func (r *Ring) Size() int {
	return len(r.Atoms)
}

func (r *Ring) IndexOf(atom int) int {
	for i, a := range r.Atoms {
		if a == atom {
			return i
		}
	}
	return -1
}

func (r *Ring) Contains(atom int) bool {
	return r.IndexOf(atom) >= 0
}

// Shared returns the atoms r has in common with other.
func (r *Ring) Shared(other *Ring) []int {
	var out []int
	for _, a := range r.Atoms {
		if other.Contains(a) {
			out = append(out, a)
		}
	}
	return out
}

// RingSystem is a maximal set of rings connected through shared atoms.
type RingSystem struct {
	Rings  []*Ring
	Atoms  []int
	Bonds  []int
	Hetero int
	Placed bool
}

func (s *RingSystem) Contains(atom int) bool {
	i := sort.SearchInts(s.Atoms, atom)
	return i < len(s.Atoms) && s.Atoms[i] == atom
}

// MoreComplex orders seed candidates: more rings, then more heteroatoms, then
// more atoms.
func (s *RingSystem) MoreComplex(o *RingSystem) bool {
	if len(s.Rings) != len(o.Rings) {
		return len(s.Rings) > len(o.Rings)
	}
	if s.Hetero != o.Hetero {
		return s.Hetero > o.Hetero
	}
	return len(s.Atoms) > len(o.Atoms)
}

// Graph is the state of a single layout invocation. Per-atom flags are kept in
// parallel slices indexed like Mol.Atoms so rings, ring systems and the
// molecule all resolve an atom to the same slot.
type Graph struct {
	Mol        *Molecule
	BondLength float64

	Adj      [][]int
	AdjBonds [][]int

	Coords   []geo.Point
	Placed   []bool
	HasCoord []bool

	AtomInRing []bool
	BondInRing []bool
	Macrocycle []bool
	Priority   []int

	AFix []bool
	BFix []bool

	Rings       []*Ring
	RingSystems []*RingSystem
	systemOf    []int

	visited []bool
	stack   []int
}

func NewGraph(mol *Molecule, bondLength float64) *Graph {
	n := len(mol.Atoms)
	g := &Graph{
		Mol:        mol,
		BondLength: bondLength,
		Adj:        make([][]int, n),
		AdjBonds:   make([][]int, n),
		Coords:     make([]geo.Point, n),
		Placed:     make([]bool, n),
		HasCoord:   make([]bool, n),
		AtomInRing: make([]bool, n),
		BondInRing: make([]bool, len(mol.Bonds)),
		Macrocycle: make([]bool, n),
		Priority:   make([]int, n),
		AFix:       make([]bool, n),
		BFix:       make([]bool, len(mol.Bonds)),
		systemOf:   make([]int, n),
		visited:    make([]bool, n),
		stack:      make([]int, 0, n),
	}
	for i, b := range mol.Bonds {
		g.Adj[b.Beg] = append(g.Adj[b.Beg], b.End)
		g.AdjBonds[b.Beg] = append(g.AdjBonds[b.Beg], i)
		g.Adj[b.End] = append(g.Adj[b.End], b.Beg)
		g.AdjBonds[b.End] = append(g.AdjBonds[b.End], i)
	}
	for i := range g.systemOf {
		g.systemOf[i] = -1
	}
	return g
}

func (g *Graph) NumAtoms() int {
	return len(g.Mol.Atoms)
}

func (g *Graph) Atom(i int) *Atom {
	return g.Mol.Atoms[i]
}

func (g *Graph) Bond(i int) *Bond {
	return g.Mol.Bonds[i]
}

func (g *Graph) Degree(i int) int {
	return len(g.Adj[i])
}

// BondBetween returns the index of the bond joining u and v or -1.
func (g *Graph) BondBetween(u, v int) int {
	for k, w := range g.Adj[u] {
		if w == v {
			return g.AdjBonds[u][k]
		}
	}
	return -1
}

// Fix pins atoms and bonds. Every fixed atom must already carry a coordinate;
// fixed atoms start out placed.
func (g *Graph) Fix(afix, bfix []int) error {
	for _, i := range afix {
		if i < 0 || i >= g.NumAtoms() {
			return fmt.Errorf("fixed atom %d out of range", i)
		}
		p := g.Mol.Atoms[i].Point
		if p == nil {
			return fmt.Errorf("fixed atom %d has no coordinate", i)
		}
		g.AFix[i] = true
		g.Place(i, *p)
	}
	for _, i := range bfix {
		if i < 0 || i >= len(g.Mol.Bonds) {
			return fmt.Errorf("fixed bond %d out of range", i)
		}
		g.BFix[i] = true
	}
	return nil
}

// Immovable atoms are fixed or sit on a fixed bond.
func (g *Graph) Immovable(i int) bool {
	if g.AFix[i] {
		return true
	}
	for _, b := range g.AdjBonds[i] {
		if g.BFix[b] {
			return true
		}
	}
	return false
}

func (g *Graph) HasFixed() bool {
	for _, f := range g.AFix {
		if f {
			return true
		}
	}
	return false
}

func (g *Graph) Place(i int, p geo.Point) {
	g.Coords[i] = p
	g.Placed[i] = true
	g.HasCoord[i] = true
}

// Anchor gives an unplaced atom a provisional coordinate.
func (g *Graph) Anchor(i int, p geo.Point) {
	g.Coords[i] = p
	g.HasCoord[i] = true
}

func (g *Graph) AllPlaced() bool {
	for _, p := range g.Placed {
		if !p {
			return false
		}
	}
	return true
}

func (g *Graph) UnplacedCount() int {
	n := 0
	for _, p := range g.Placed {
		if !p {
			n++
		}
	}
	return n
}

func (g *Graph) PlacedNeighbours(i int) []int {
	var out []int
	for _, j := range g.Adj[i] {
		if g.Placed[j] {
			out = append(out, j)
		}
	}
	return out
}

func (g *Graph) UnplacedNeighbours(i int) []int {
	var out []int
	for _, j := range g.Adj[i] {
		if !g.Placed[j] {
			out = append(out, j)
		}
	}
	return out
}

// Center is the centroid of every atom that has a coordinate.
func (g *Graph) Center() geo.Point {
	var c geo.Point
	n := 0
	for i, ok := range g.HasCoord {
		if ok {
			c.X += g.Coords[i].X
			c.Y += g.Coords[i].Y
			n++
		}
	}
	if n == 0 {
		return c
	}
	c.X /= float64(n)
	c.Y /= float64(n)
	return c
}

// SetRings records perceived rings, flags ring atoms, ring bonds and
// macrocycle atoms, and groups the rings into ring systems.
func (g *Graph) SetRings(rings []*Ring) {
	g.Rings = rings
	bondRings := make([]int, len(g.Mol.Bonds))
	for _, r := range rings {
		for _, a := range r.Atoms {
			g.AtomInRing[a] = true
		}
		for _, b := range r.Bonds {
			g.BondInRing[b] = true
			bondRings[b]++
		}
	}
	for _, r := range rings {
		if r.Size() < 8 {
			continue
		}
		for _, b := range r.Bonds {
			if bondRings[b] == 1 {
				for _, a := range r.Atoms {
					g.Macrocycle[a] = true
				}
				break
			}
		}
	}
	g.buildRingSystems()
}

func (g *Graph) buildRingSystems() {
	parent := make([]int, len(g.Rings))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	owner := make(map[int]int)
	for ri, r := range g.Rings {
		for _, a := range r.Atoms {
			if o, ok := owner[a]; ok {
				parent[find(ri)] = find(o)
			} else {
				owner[a] = ri
			}
		}
	}

	byRoot := make(map[int]*RingSystem)
	g.RingSystems = nil
	for ri, r := range g.Rings {
		root := find(ri)
		sys, ok := byRoot[root]
		if !ok {
			sys = &RingSystem{}
			byRoot[root] = sys
			g.RingSystems = append(g.RingSystems, sys)
		}
		sys.Rings = append(sys.Rings, r)
	}
	for si, sys := range g.RingSystems {
		atoms := make(map[int]struct{})
		bonds := make(map[int]struct{})
		for _, r := range sys.Rings {
			for _, a := range r.Atoms {
				atoms[a] = struct{}{}
			}
			for _, b := range r.Bonds {
				bonds[b] = struct{}{}
			}
		}
		for a := range atoms {
			sys.Atoms = append(sys.Atoms, a)
			g.systemOf[a] = si
			if e := g.Mol.Atoms[a].Element; e != 6 && e != 1 {
				sys.Hetero++
			}
		}
		for b := range bonds {
			sys.Bonds = append(sys.Bonds, b)
		}
		sort.Ints(sys.Atoms)
		sort.Ints(sys.Bonds)
	}
}

// RingSystemOf returns the ring system containing atom or nil.
func (g *Graph) RingSystemOf(atom int) *RingSystem {
	si := g.systemOf[atom]
	if si < 0 {
		return nil
	}
	return g.RingSystems[si]
}

// Side appends to buf every atom reachable from focus without passing through
// parent. For an acyclic bond parent-focus that is the focus side of the bond.
func (g *Graph) Side(buf []int, focus, parent int) []int {
	for i := range g.visited {
		g.visited[i] = false
	}
	if parent >= 0 {
		g.visited[parent] = true
	}
	g.stack = append(g.stack[:0], focus)
	g.visited[focus] = true
	for len(g.stack) > 0 {
		u := g.stack[len(g.stack)-1]
		g.stack = g.stack[:len(g.stack)-1]
		buf = append(buf, u)
		for _, w := range g.Adj[u] {
			if !g.visited[w] {
				g.visited[w] = true
				g.stack = append(g.stack, w)
			}
		}
	}
	return buf
}

// ShortestPath returns the atoms and bonds on a shortest path from u to v,
// ignoring the bond skip (-1 for none). ok is false when v is unreachable.
func (g *Graph) ShortestPath(u, v, skip int) (atoms []int, bonds []int, ok bool) {
	prev := make([]int, g.NumAtoms())
	prevBond := make([]int, g.NumAtoms())
	for i := range prev {
		prev[i] = -2
	}
	prev[u] = -1
	queue := []int{u}
	for len(queue) > 0 && prev[v] == -2 {
		x := queue[0]
		queue = queue[1:]
		for k, w := range g.Adj[x] {
			b := g.AdjBonds[x][k]
			if b == skip || prev[w] != -2 {
				continue
			}
			prev[w] = x
			prevBond[w] = b
			queue = append(queue, w)
		}
	}
	if prev[v] == -2 {
		return nil, nil, false
	}
	for x := v; x != u; x = prev[x] {
		atoms = append(atoms, x)
		bonds = append(bonds, prevBond[x])
	}
	atoms = append(atoms, u)
	for i, j := 0, len(atoms)-1; i < j; i, j = i+1, j-1 {
		atoms[i], atoms[j] = atoms[j], atoms[i]
	}
	for i, j := 0, len(bonds)-1; i < j; i, j = i+1, j-1 {
		bonds[i], bonds[j] = bonds[j], bonds[i]
	}
	return atoms, bonds, true
}

// Commit writes the coordinates of placed atoms back onto the molecule.
func (g *Graph) Commit() {
	for i, a := range g.Mol.Atoms {
		if !g.Placed[i] {
			continue
		}
		p := g.Coords[i]
		a.Point = &p
	}
}

// StereoReference is the neighbour of atom, other than partner, that a double
// bond's Stereo descriptor is expressed against.
func (g *Graph) StereoReference(atom, partner int) int {
	ref := -1
	for _, w := range g.Adj[atom] {
		if w != partner && (ref < 0 || w < ref) {
			ref = w
		}
	}
	return ref
}
