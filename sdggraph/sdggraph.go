// Package sdggraph holds the molecule model the structure-diagram layout reads
// and the per-invocation layout state it mutates.
package sdggraph

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"oss.terrastruct.com/sdg/lib/geo"
)

type Order int

const (
	Unset Order = iota
	Single
	Double
	Triple
	Quadruple
	Aromatic
)

func (o Order) String() string {
	switch o {
	case Single:
		return "single"
	case Double:
		return "double"
	case Triple:
		return "triple"
	case Quadruple:
		return "quadruple"
	case Aromatic:
		return "aromatic"
	}
	return "unset"
}

// Stereo is the E/Z descriptor of a double bond, relating the lowest-indexed
// neighbour of Beg to the lowest-indexed neighbour of End. The layout only
// reads it.
type Stereo int

const (
	StereoNone Stereo = iota
	// Together (Z): substituents on the same side.
	StereoTogether
	// Opposite (E): substituents on opposite sides.
	StereoOpposite
)

// Display is how a stereo bond is drawn, written by a StereoAssigner.
type Display int

const (
	DisplaySolid Display = iota
	DisplayWedgeBegin
	DisplayHashBegin
	DisplayWavy
)

type Atom struct {
	ID        string     `json:"id,omitempty"`
	Element   int        `json:"element"`
	Charge    int        `json:"charge,omitempty"`
	ImplicitH int        `json:"implicitH,omitempty"`
	Point     *geo.Point `json:"point,omitempty"`
}

type Bond struct {
	Beg     int     `json:"beg"`
	End     int     `json:"end"`
	Order   Order   `json:"order"`
	Stereo  Stereo  `json:"stereo,omitempty"`
	Display Display `json:"display,omitempty"`
}

// Other returns the atom at the other end of b from atom.
func (b *Bond) Other(atom int) int {
	if b.Beg == atom {
		return b.End
	}
	return b.Beg
}

func (b *Bond) Contains(atom int) bool {
	return b.Beg == atom || b.End == atom
}

type Molecule struct {
	Atoms []*Atom `json:"atoms"`
	Bonds []*Bond `json:"bonds"`
}

func (m *Molecule) AddAtom(element int) int {
	m.Atoms = append(m.Atoms, &Atom{Element: element})
	return len(m.Atoms) - 1
}

func (m *Molecule) AddBond(beg, end int, order Order) int {
	m.Bonds = append(m.Bonds, &Bond{Beg: beg, End: end, Order: order})
	return len(m.Bonds) - 1
}

// Validate reports every structural problem with the molecule at once.
func (m *Molecule) Validate() error {
	var err error
	for i, a := range m.Atoms {
		if a == nil {
			err = multierr.Append(err, fmt.Errorf("atom %d is nil", i))
		}
	}
	seen := make(map[[2]int]int, len(m.Bonds))
	for i, b := range m.Bonds {
		if b == nil {
			err = multierr.Append(err, fmt.Errorf("bond %d is nil", i))
			continue
		}
		if b.Beg < 0 || b.Beg >= len(m.Atoms) || b.End < 0 || b.End >= len(m.Atoms) {
			err = multierr.Append(err, fmt.Errorf("bond %d references atom out of range: %d-%d", i, b.Beg, b.End))
			continue
		}
		if b.Beg == b.End {
			err = multierr.Append(err, fmt.Errorf("bond %d is a self loop on atom %d", i, b.Beg))
			continue
		}
		key := [2]int{b.Beg, b.End}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		if j, ok := seen[key]; ok {
			err = multierr.Append(err, fmt.Errorf("bond %d duplicates bond %d between atoms %d and %d", i, j, key[0], key[1]))
			continue
		}
		seen[key] = i
	}
	return err
}

// Fragments partitions the atoms into connected components, each sorted by
// index, ordered by their lowest atom index. The molecule must be valid.
func (m *Molecule) Fragments() [][]int {
	g := simple.NewUndirectedGraph()
	for i := range m.Atoms {
		g.AddNode(simple.Node(i))
	}
	for _, b := range m.Bonds {
		g.SetEdge(simple.Edge{F: simple.Node(b.Beg), T: simple.Node(b.End)})
	}
	var frags [][]int
	for _, cc := range topo.ConnectedComponents(g) {
		frag := make([]int, 0, len(cc))
		for _, n := range cc {
			frag = append(frag, int(n.ID()))
		}
		slices.Sort(frag)
		frags = append(frags, frag)
	}
	sort.Slice(frags, func(i, j int) bool {
		return frags[i][0] < frags[j][0]
	})
	return frags
}

// Subset copies the atoms named by idx and the bonds between them into a new
// molecule. The returned slice maps new atom indices back to m, and bondMap
// maps new bond indices back to m.
func (m *Molecule) Subset(idx []int) (sub *Molecule, atomMap []int, bondMap []int) {
	local := make(map[int]int, len(idx))
	sub = &Molecule{}
	for _, i := range idx {
		local[i] = len(sub.Atoms)
		sub.Atoms = append(sub.Atoms, m.Atoms[i].Copy())
		atomMap = append(atomMap, i)
	}
	for bi, b := range m.Bonds {
		lb, okb := local[b.Beg]
		le, oke := local[b.End]
		if !okb || !oke {
			continue
		}
		cp := *b
		cp.Beg, cp.End = lb, le
		sub.Bonds = append(sub.Bonds, &cp)
		bondMap = append(bondMap, bi)
	}
	return sub, atomMap, bondMap
}

func (a *Atom) Copy() *Atom {
	cp := *a
	if a.Point != nil {
		p := *a.Point
		cp.Point = &p
	}
	return &cp
}

func (m *Molecule) Copy() *Molecule {
	cp := &Molecule{
		Atoms: make([]*Atom, len(m.Atoms)),
		Bonds: make([]*Bond, len(m.Bonds)),
	}
	for i, a := range m.Atoms {
		cp.Atoms[i] = a.Copy()
	}
	for i, b := range m.Bonds {
		bc := *b
		cp.Bonds[i] = &bc
	}
	return cp
}
