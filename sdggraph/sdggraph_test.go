package sdggraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"oss.terrastruct.com/sdg/lib/geo"
	"oss.terrastruct.com/sdg/lib/go2"
	"oss.terrastruct.com/sdg/sdggraph"
	"oss.terrastruct.com/sdg/sdgsmiles"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	m := &sdggraph.Molecule{}
	m.AddAtom(6)
	m.AddAtom(6)
	m.AddBond(0, 1, sdggraph.Single)
	assert.NoError(t, m.Validate())

	m.AddBond(1, 0, sdggraph.Double)
	m.AddBond(1, 1, sdggraph.Single)
	m.AddBond(0, 7, sdggraph.Single)
	err := m.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicates bond 0")
	assert.Contains(t, err.Error(), "self loop")
	assert.Contains(t, err.Error(), "out of range")
}

func TestFragments(t *testing.T) {
	t.Parallel()

	m := sdgsmiles.MustParse("CC.O.c1ccccc1")
	frags := m.Fragments()
	assert.Equal(t, [][]int{{0, 1}, {2}, {3, 4, 5, 6, 7, 8}}, frags)

	sub, atomMap, bondMap := m.Subset(frags[2])
	assert.Equal(t, 6, len(sub.Atoms))
	assert.Equal(t, 6, len(sub.Bonds))
	assert.Equal(t, []int{3, 4, 5, 6, 7, 8}, atomMap)
	assert.Equal(t, 1, bondMap[0])
	assert.NoError(t, sub.Validate())
}

func TestCopy(t *testing.T) {
	t.Parallel()

	m := sdgsmiles.MustParse("CO")
	m.Atoms[0].Point = go2.Pointer(geo.NewPoint(1, 2))
	cp := m.Copy()
	cp.Atoms[0].Point.X = 5
	cp.Bonds[0].Order = sdggraph.Double

	assert.Equal(t, 1.0, m.Atoms[0].Point.X)
	assert.Equal(t, sdggraph.Single, m.Bonds[0].Order)
}

func TestGraphSide(t *testing.T) {
	t.Parallel()

	// 2-methylbutane: 0-1(-2)-3-4
	m := sdgsmiles.MustParse("CC(C)CC")
	g := sdggraph.NewGraph(m, 1.5)

	assert.Equal(t, 3, g.Degree(1))
	assert.Equal(t, 2, g.BondBetween(1, 3))
	assert.Equal(t, -1, g.BondBetween(0, 4))

	side := g.Side(nil, 3, 1)
	assert.ElementsMatch(t, []int{3, 4}, side)
	side = g.Side(side[:0], 1, 3)
	assert.ElementsMatch(t, []int{0, 1, 2}, side)

	atoms, bonds, ok := g.ShortestPath(0, 4, -1)
	assert.True(t, ok)
	assert.Equal(t, []int{0, 1, 3, 4}, atoms)
	assert.Equal(t, []int{0, 2, 3}, bonds)
}

func TestGraphFix(t *testing.T) {
	t.Parallel()

	m := sdgsmiles.MustParse("CCC")
	g := sdggraph.NewGraph(m, 1.5)
	assert.Error(t, g.Fix([]int{0}, nil))

	m.Atoms[0].Point = go2.Pointer(geo.NewPoint(3, 4))
	g = sdggraph.NewGraph(m, 1.5)
	assert.NoError(t, g.Fix([]int{0}, []int{1}))
	assert.True(t, g.Placed[0])
	assert.True(t, g.Immovable(0))
	assert.True(t, g.Immovable(2))
	assert.False(t, g.Placed[1])
	assert.Equal(t, 2, g.UnplacedCount())
	assert.Equal(t, geo.NewPoint(3, 4), g.Center())

	g.Anchor(1, geo.NewPoint(5, 4))
	assert.False(t, g.Placed[1])
	assert.Equal(t, geo.NewPoint(4, 4), g.Center())
}

func TestGraphRings(t *testing.T) {
	t.Parallel()

	// naphthalene and a separate cyclodecane
	m := sdgsmiles.MustParse("c1ccc2ccccc2c1.C1CCCCCCCCC1")
	g := sdggraph.NewGraph(m, 1.5)
	g.SetRings([]*sdggraph.Ring{
		{Atoms: []int{0, 1, 2, 3, 8, 9}, Bonds: ringBonds(g, 0, 1, 2, 3, 8, 9)},
		{Atoms: []int{3, 4, 5, 6, 7, 8}, Bonds: ringBonds(g, 3, 4, 5, 6, 7, 8)},
		{Atoms: []int{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}, Bonds: ringBonds(g, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19)},
	})

	assert.Equal(t, 2, len(g.RingSystems))
	naph := g.RingSystemOf(3)
	assert.Equal(t, 2, len(naph.Rings))
	assert.Equal(t, 10, len(naph.Atoms))
	assert.Equal(t, 11, len(naph.Bonds))
	assert.True(t, naph.Contains(9))
	assert.False(t, naph.Contains(10))
	assert.True(t, naph.MoreComplex(g.RingSystemOf(10)))

	assert.False(t, g.Macrocycle[0])
	assert.True(t, g.Macrocycle[10])
	assert.Equal(t, []int{3, 8}, g.Rings[0].Shared(g.Rings[1]))
}

func ringBonds(g *sdggraph.Graph, atoms ...int) []int {
	var out []int
	for i := range atoms {
		out = append(out, g.BondBetween(atoms[i], atoms[(i+1)%len(atoms)]))
	}
	return out
}

func TestSerialization(t *testing.T) {
	t.Parallel()

	m := sdgsmiles.MustParse(`F/C=C/F`)
	m.Atoms[0].Point = go2.Pointer(geo.NewPoint(0.5, -1))

	b, err := sdggraph.SerializeMolecule(m)
	if err != nil {
		t.Fatal(err)
	}

	var m2 sdggraph.Molecule
	err = sdggraph.DeserializeMolecule(b, &m2)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, len(m.Atoms), len(m2.Atoms))
	assert.Equal(t, m.Atoms[0].Point, m2.Atoms[0].Point)
	assert.Nil(t, m2.Atoms[1].Point)
	assert.Equal(t, sdggraph.Double, m2.Bonds[1].Order)
	assert.Equal(t, sdggraph.StereoOpposite, m2.Bonds[1].Stereo)

	err = sdggraph.DeserializeMolecule([]byte(`{"atoms":[{"element":6}],"bonds":[{"beg":0,"end":0,"order":"single"}]}`), &m2)
	assert.Error(t, err)
	err = sdggraph.DeserializeMolecule([]byte(`{"atoms":[{"element":6},{"element":6}],"bonds":[{"beg":0,"end":1,"order":"sextuple"}]}`), &m2)
	assert.Error(t, err)
}
