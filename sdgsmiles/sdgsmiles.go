// Package sdgsmiles reads molecules written in the common subset of SMILES:
// organic-subset and bracket atoms, branches, ring closures, explicit bond
// symbols, aromatic lower-case atoms, dot-separated components and the
// directional single bonds that describe double-bond geometry.
package sdgsmiles

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"

	"oss.terrastruct.com/sdg/sdggraph"
)

var bracketRe = regexp.MustCompile(`^\[(\d+)?(se|as|[A-Z][a-z]?|[bcnops])(@{0,2})(H\d?)?([+-]\d*|\+\+|--)?(:\d+)?\]$`)

var elements = map[string]int{
	"H": 1, "He": 2, "Li": 3, "Be": 4, "B": 5, "C": 6, "N": 7, "O": 8, "F": 9, "Ne": 10,
	"Na": 11, "Mg": 12, "Al": 13, "Si": 14, "P": 15, "S": 16, "Cl": 17, "Ar": 18,
	"K": 19, "Ca": 20, "Ti": 22, "V": 23, "Cr": 24, "Mn": 25, "Fe": 26, "Co": 27,
	"Ni": 28, "Cu": 29, "Zn": 30, "Ga": 31, "Ge": 32, "As": 33, "Se": 34, "Br": 35,
	"Kr": 36, "Rb": 37, "Sr": 38, "Zr": 40, "Mo": 42, "Ru": 44, "Rh": 45, "Pd": 46,
	"Ag": 47, "Cd": 48, "In": 49, "Sn": 50, "Sb": 51, "Te": 52, "I": 53, "Xe": 54,
	"Cs": 55, "Ba": 56, "W": 74, "Os": 76, "Ir": 77, "Pt": 78, "Au": 79, "Hg": 80,
	"Tl": 81, "Pb": 82, "Bi": 83,
}

var aromaticSymbols = map[string]string{
	"b": "B", "c": "C", "n": "N", "o": "O", "p": "P", "s": "S", "se": "Se", "as": "As",
}

// default valences of the organic subset
var valences = map[int][]int{
	5:  {3},
	6:  {4},
	7:  {3, 5},
	8:  {2},
	9:  {1},
	15: {3, 5},
	16: {2, 4, 6},
	17: {1},
	35: {1},
	53: {1},
}

type openRing struct {
	atom int
	bond string
	pos  lexer.Position
}

type builder struct {
	mol      *sdggraph.Molecule
	aromatic []bool
	bracket  []bool
	rings    map[string]openRing
	dirs     map[int]byte
}

// Parse reads s into a new molecule without coordinates.
func Parse(s string) (*sdggraph.Molecule, error) {
	doc, err := smilesParser.ParseString("", s)
	if err != nil {
		return nil, err
	}
	b := &builder{
		mol:   &sdggraph.Molecule{},
		rings: make(map[string]openRing),
		dirs:  make(map[int]byte),
	}
	for _, c := range doc.Components {
		a, err := b.addAtom(c.Atom)
		if err != nil {
			return nil, err
		}
		if err := b.items(a, c.Items); err != nil {
			return nil, err
		}
	}
	if len(b.rings) > 0 {
		labels := make([]string, 0, len(b.rings))
		for l := range b.rings {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		r := b.rings[labels[0]]
		return nil, fmt.Errorf("%d:%d: unclosed ring bond %s", r.pos.Line, r.pos.Column, labels[0])
	}
	b.implicitHydrogens()
	b.doubleBondStereo()
	return b.mol, nil
}

// MustParse is Parse for fixtures known to be valid.
func MustParse(s string) *sdggraph.Molecule {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (b *builder) items(prev int, items []*item) error {
	for _, it := range items {
		switch {
		case it.Branch != nil:
			a, err := b.addAtom(it.Branch.Atom)
			if err != nil {
				return err
			}
			if err := b.addBond(prev, a, it.Branch.Bond, it.Branch.Pos); err != nil {
				return err
			}
			if err := b.items(a, it.Branch.Items); err != nil {
				return err
			}
		case it.Ring != nil:
			if err := b.ringBond(prev, it.Ring); err != nil {
				return err
			}
		case it.Next != nil:
			a, err := b.addAtom(it.Next.Atom)
			if err != nil {
				return err
			}
			if err := b.addBond(prev, a, it.Next.Bond, it.Next.Atom.Pos); err != nil {
				return err
			}
			prev = a
		}
	}
	return nil
}

func (b *builder) addAtom(t *atomToken) (int, error) {
	atom := &sdggraph.Atom{}
	aromatic := false
	if t.Organic != "" {
		sym := t.Organic
		if up, ok := aromaticSymbols[sym]; ok {
			sym, aromatic = up, true
		}
		atom.Element = elements[sym]
	} else {
		m := bracketRe.FindStringSubmatch(t.Bracket)
		if m == nil {
			return 0, fmt.Errorf("%d:%d: malformed bracket atom %s", t.Pos.Line, t.Pos.Column, t.Bracket)
		}
		sym := m[2]
		if up, ok := aromaticSymbols[sym]; ok {
			sym, aromatic = up, true
		}
		e, ok := elements[sym]
		if !ok {
			return 0, fmt.Errorf("%d:%d: unknown element %s", t.Pos.Line, t.Pos.Column, m[2])
		}
		atom.Element = e
		if m[4] != "" {
			atom.ImplicitH = 1
			if len(m[4]) > 1 {
				atom.ImplicitH, _ = strconv.Atoi(m[4][1:])
			}
		}
		atom.Charge = parseCharge(m[5])
	}
	b.mol.Atoms = append(b.mol.Atoms, atom)
	b.aromatic = append(b.aromatic, aromatic)
	b.bracket = append(b.bracket, t.Bracket != "")
	return len(b.mol.Atoms) - 1, nil
}

func parseCharge(s string) int {
	switch s {
	case "":
		return 0
	case "++":
		return 2
	case "--":
		return -2
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	if len(s) == 1 {
		return sign
	}
	n, _ := strconv.Atoi(s[1:])
	return sign * n
}

func (b *builder) ringBond(atom int, r *ringBond) error {
	open, ok := b.rings[r.Label]
	if !ok {
		b.rings[r.Label] = openRing{atom: atom, bond: r.Bond, pos: r.Pos}
		return nil
	}
	delete(b.rings, r.Label)
	sym := r.Bond
	if sym == "" {
		sym = open.bond
	} else if open.bond != "" && open.bond != sym {
		return fmt.Errorf("%d:%d: conflicting bond symbols on ring bond %s", r.Pos.Line, r.Pos.Column, r.Label)
	}
	// ring closure directions are not used for stereo
	if sym == "/" || sym == `\` {
		sym = "-"
	}
	return b.addBond(open.atom, atom, sym, r.Pos)
}

func (b *builder) addBond(u, v int, sym string, pos lexer.Position) error {
	if u == v {
		return fmt.Errorf("%d:%d: atom %d bonded to itself", pos.Line, pos.Column, u)
	}
	for _, e := range b.mol.Bonds {
		if e.Contains(u) && e.Contains(v) {
			return fmt.Errorf("%d:%d: duplicate bond between atoms %d and %d", pos.Line, pos.Column, u, v)
		}
	}
	var order sdggraph.Order
	switch sym {
	case "=":
		order = sdggraph.Double
	case "#":
		order = sdggraph.Triple
	case "$":
		order = sdggraph.Quadruple
	case ":":
		order = sdggraph.Aromatic
	case "-", "/", `\`:
		order = sdggraph.Single
	default:
		if b.aromatic[u] && b.aromatic[v] {
			order = sdggraph.Aromatic
		} else {
			order = sdggraph.Single
		}
	}
	i := b.mol.AddBond(u, v, order)
	if sym == "/" || sym == `\` {
		b.dirs[i] = sym[0]
	}
	return nil
}

func bondValence(o sdggraph.Order) int {
	switch o {
	case sdggraph.Double:
		return 2
	case sdggraph.Triple:
		return 3
	case sdggraph.Quadruple:
		return 4
	}
	return 1
}

func (b *builder) implicitHydrogens() {
	sum := make([]int, len(b.mol.Atoms))
	for _, e := range b.mol.Bonds {
		v := bondValence(e.Order)
		sum[e.Beg] += v
		sum[e.End] += v
	}
	for i, a := range b.mol.Atoms {
		if b.bracket[i] {
			continue
		}
		s := sum[i]
		if b.aromatic[i] {
			s++
		}
		for _, v := range valences[a.Element] {
			if v >= s {
				a.ImplicitH = v - s
				break
			}
		}
	}
}

func flip(c byte) byte {
	if c == '/' {
		return '\\'
	}
	return '/'
}

// doubleBondStereo turns directional single bonds around a double bond into
// its E/Z descriptor, expressed relative to the lowest-indexed neighbour of
// each end.
func (b *builder) doubleBondStereo() {
	if len(b.dirs) == 0 {
		return
	}
	for _, e := range b.mol.Bonds {
		if e.Order != sdggraph.Double {
			continue
		}
		a, ca, okA := b.directional(e.Beg, e.End, true)
		c, cb, okB := b.directional(e.End, e.Beg, false)
		if !okA || !okB {
			continue
		}
		opposite := ca == cb
		if a != b.lowestNeighbour(e.Beg, e.End) {
			opposite = !opposite
		}
		if c != b.lowestNeighbour(e.End, e.Beg) {
			opposite = !opposite
		}
		if opposite {
			e.Stereo = sdggraph.StereoOpposite
		} else {
			e.Stereo = sdggraph.StereoTogether
		}
	}
}

// directional finds a directional bond on atom other than the one to partner.
// The returned symbol is normalised to read towards atom when into is set and
// away from it otherwise.
func (b *builder) directional(atom, partner int, into bool) (int, byte, bool) {
	for i, e := range b.mol.Bonds {
		c, ok := b.dirs[i]
		if !ok || !e.Contains(atom) || e.Contains(partner) {
			continue
		}
		nbr := e.Other(atom)
		writtenInto := e.End == atom
		if writtenInto != into {
			c = flip(c)
		}
		return nbr, c, true
	}
	return 0, 0, false
}

func (b *builder) lowestNeighbour(atom, partner int) int {
	lowest := -1
	for _, e := range b.mol.Bonds {
		if !e.Contains(atom) || e.Contains(partner) {
			continue
		}
		if o := e.Other(atom); lowest < 0 || o < lowest {
			lowest = o
		}
	}
	return lowest
}
