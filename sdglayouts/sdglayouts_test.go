package sdglayouts_test

import (
	"context"
	"errors"
	"math"
	"testing"

	tassert "github.com/stretchr/testify/assert"

	"oss.terrastruct.com/util-go/assert"

	"oss.terrastruct.com/sdg/lib/geo"
	"oss.terrastruct.com/sdg/lib/go2"
	"oss.terrastruct.com/sdg/lib/log"
	"oss.terrastruct.com/sdg/sdggraph"
	"oss.terrastruct.com/sdg/sdglayouts"
	"oss.terrastruct.com/sdg/sdgsmiles"
	"oss.terrastruct.com/sdg/sdgtemplate"
)

const L = 1.5

func layout(t *testing.T, smiles string, opts *sdglayouts.Opts) *sdggraph.Molecule {
	t.Helper()
	ctx := log.WithTB(context.Background(), t, nil)
	m := sdgsmiles.MustParse(smiles)
	err := sdglayouts.Layout(ctx, m, opts)
	assert.Success(t, err)
	return m
}

func point(m *sdggraph.Molecule, i int) geo.Point {
	return *m.Atoms[i].Point
}

func assertAllPlaced(t *testing.T, m *sdggraph.Molecule) {
	t.Helper()
	for i, a := range m.Atoms {
		tassert.NotNil(t, a.Point, "atom %d", i)
	}
}

func assertBondLengths(t *testing.T, m *sdggraph.Molecule) {
	t.Helper()
	for i, b := range m.Bonds {
		tassert.InDelta(t, L, point(m, b.Beg).DistanceTo(point(m, b.End)), 1e-6, "bond %d", i)
	}
}

func assertSpread(t *testing.T, m *sdggraph.Molecule, min float64) {
	t.Helper()
	for i := range m.Atoms {
		for j := i + 1; j < len(m.Atoms); j++ {
			tassert.GreaterOrEqual(t, point(m, i).DistanceTo(point(m, j)), min, "atoms %d and %d", i, j)
		}
	}
}

func TestTrivial(t *testing.T) {
	t.Parallel()

	m := layout(t, "CC", nil)
	tassert.Equal(t, geo.NewPoint(0, 0), point(m, 0))
	tassert.Equal(t, geo.NewPoint(L, 0), point(m, 1))

	m = layout(t, "O", nil)
	tassert.Equal(t, geo.NewPoint(0, 0), point(m, 0))

	err := sdglayouts.Layout(context.Background(), &sdggraph.Molecule{}, nil)
	assert.Success(t, err)
}

func TestBenzene(t *testing.T) {
	t.Parallel()

	m := layout(t, "c1ccccc1", nil)
	assertAllPlaced(t, m)
	assertBondLengths(t, m)

	adj := make([][]int, len(m.Atoms))
	for _, b := range m.Bonds {
		adj[b.Beg] = append(adj[b.Beg], b.End)
		adj[b.End] = append(adj[b.End], b.Beg)
	}
	for i := range m.Atoms {
		c := point(m, i)
		angle := c.VectorTo(point(m, adj[i][0])).AngleTo(c.VectorTo(point(m, adj[i][1])))
		tassert.InDelta(t, 2*math.Pi/3, angle, 1e-3)
	}

	aligned := 0
	for _, b := range m.Bonds {
		theta := math.Mod(point(m, b.Beg).VectorTo(point(m, b.End)).Angle()+2*math.Pi, math.Pi)
		if math.Abs(theta-math.Pi/6) < 1e-6 || math.Abs(theta-5*math.Pi/6) < 1e-6 {
			aligned++
		}
	}
	tassert.Equal(t, 4, aligned)
}

func TestHexane(t *testing.T) {
	t.Parallel()

	m := layout(t, "CCCCCC", nil)
	assertAllPlaced(t, m)
	assertBondLengths(t, m)
	for i := 1; i < 5; i++ {
		c := point(m, i)
		angle := c.VectorTo(point(m, i-1)).AngleTo(c.VectorTo(point(m, i+1)))
		tassert.InDelta(t, 2*math.Pi/3, angle, 1e-6)
	}
	tassert.Greater(t, point(m, 0).DistanceTo(point(m, 5)), 6.0)
}

func TestNaphthalene(t *testing.T) {
	t.Parallel()

	m := layout(t, "c1ccc2ccccc2c1", nil)
	assertAllPlaced(t, m)
	assertBondLengths(t, m)
	assertSpread(t, m, L-1e-6)
}

func TestGrow(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		smiles string
	}{
		{name: "butylbenzene", smiles: "CCCCc1ccccc1"},
		{name: "bibenzyl", smiles: "c1ccccc1CCc1ccccc1"},
		{name: "biphenyl", smiles: "c1ccccc1-c1ccccc1"},
		{name: "isobutane", smiles: "CC(C)C"},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := layout(t, tc.smiles, nil)
			assertAllPlaced(t, m)
			assertBondLengths(t, m)
			assertSpread(t, m, L-1e-6)
		})
	}
}

func TestTemplate(t *testing.T) {
	t.Parallel()

	m := layout(t, "C1CC2CCC1C2", &sdglayouts.Opts{
		ConfigurableOpts: sdglayouts.DefaultOpts,
		Templates:        sdgtemplate.Default(),
	})
	assertAllPlaced(t, m)
	assertSpread(t, m, 0.5)
}

func TestFixed(t *testing.T) {
	t.Parallel()

	m := sdgsmiles.MustParse("Cc1ccccc1")
	for i := 1; i <= 6; i++ {
		p := geo.NewVectorFromProperties(L, float64(i)*math.Pi/3).ToPoint().AddVector(geo.NewVector(10, 5))
		m.Atoms[i].Point = &p
	}
	before := make([]geo.Point, 7)
	for i := 1; i <= 6; i++ {
		before[i] = *m.Atoms[i].Point
	}

	ctx := log.WithTB(context.Background(), t, nil)
	err := sdglayouts.Layout(ctx, m, &sdglayouts.Opts{
		ConfigurableOpts: sdglayouts.DefaultOpts,
		AFix:             []int{1, 2, 3, 4, 5, 6},
	})
	assert.Success(t, err)
	assertAllPlaced(t, m)
	for i := 1; i <= 6; i++ {
		tassert.Equal(t, before[i], point(m, i))
	}
	tassert.InDelta(t, L, point(m, 0).DistanceTo(point(m, 1)), 1e-6)
	tassert.InDelta(t, 2*L, point(m, 0).DistanceTo(geo.NewPoint(10, 5)), 1e-6)
}

func TestFixedTwoAtoms(t *testing.T) {
	t.Parallel()

	m := sdgsmiles.MustParse("CC")
	m.Atoms[0].Point = go2.Pointer(geo.NewPoint(1, 1))
	ctx := log.WithTB(context.Background(), t, nil)
	err := sdglayouts.Layout(ctx, m, &sdglayouts.Opts{
		ConfigurableOpts: sdglayouts.DefaultOpts,
		AFix:             []int{0},
	})
	assert.Success(t, err)
	tassert.Equal(t, geo.NewPoint(1, 1), point(m, 0))
	tassert.InDelta(t, 1, point(m, 1).X, 1e-9)
	tassert.InDelta(t, 1+L, point(m, 1).Y, 1e-9)
}

func TestLayoutImpossible(t *testing.T) {
	t.Parallel()

	ctx := log.WithTB(context.Background(), t, nil)
	err := sdglayouts.Layout(ctx, sdgsmiles.MustParse("CC.CC"), nil)
	tassert.True(t, errors.Is(err, sdglayouts.ErrLayoutImpossible))
	var lerr *sdglayouts.LayoutError
	if tassert.True(t, errors.As(err, &lerr)) {
		tassert.Equal(t, 2, lerr.Unplaced)
	}

	m := sdgsmiles.MustParse("CCC")
	err = sdglayouts.Layout(ctx, m, &sdglayouts.Opts{AFix: []int{0}})
	tassert.Error(t, err)
}

func TestAttachmentAtom(t *testing.T) {
	t.Parallel()

	opts := &sdglayouts.Opts{ConfigurableOpts: sdglayouts.DefaultOpts}
	opts.AttachmentAtom = go2.Pointer(0)
	m := layout(t, "CCO", opts)
	tassert.InDelta(t, point(m, 1).Y, point(m, 0).Y, 1e-9)
	tassert.Greater(t, point(m, 0).X, point(m, 1).X)
	tassert.Greater(t, point(m, 2).Y, point(m, 1).Y)
}

type recorder struct {
	stereo    int
	finalized int
	complete  bool
}

func (r *recorder) AssignFromGeometry(mol *sdggraph.Molecule) {
	r.stereo++
}

func (r *recorder) Finalize(ctx context.Context, mol *sdggraph.Molecule) error {
	r.finalized++
	r.complete = true
	for _, a := range mol.Atoms {
		if a.Point == nil {
			r.complete = false
		}
	}
	return nil
}

func TestCollaborators(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	layout(t, "CC(=O)O", &sdglayouts.Opts{
		ConfigurableOpts: sdglayouts.DefaultOpts,
		Stereo:           r,
		Finalizers:       []sdglayouts.Finalizer{r},
	})
	tassert.Equal(t, 1, r.stereo)
	tassert.Equal(t, 1, r.finalized)
	tassert.True(t, r.complete)
}

func TestRingSystems(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		smiles string
		bonds  bool
		spread float64
	}{
		{name: "phenanthrene", smiles: "c1ccc2c(c1)ccc1ccccc12", bonds: true, spread: L - 1e-6},
		{name: "gonane", smiles: "C1CCC2C(C1)CCC1C2CCC2CCCC12", bonds: true, spread: L - 1e-6},
		{name: "caffeine", smiles: "Cn1cnc2c1c(=O)n(C)c(=O)n2C", spread: L / 2},
		{name: "adamantane", smiles: "C1C2CC3CC1CC(C2)C3", spread: 0.4 * L},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := layout(t, tc.smiles, nil)
			assertAllPlaced(t, m)
			if tc.bonds {
				assertBondLengths(t, m)
			}
			for i, b := range m.Bonds {
				d := point(m, b.Beg).DistanceTo(point(m, b.End))
				tassert.Greater(t, d, L/2, "bond %d", i)
				tassert.LessOrEqual(t, d, 2*L+1e-6, "bond %d", i)
			}
			assertSpread(t, m, tc.spread)
		})
	}
}

func TestQuaternaryCross(t *testing.T) {
	t.Parallel()

	m := layout(t, "CCC(C)(C)C", nil)
	assertBondLengths(t, m)
	c := point(m, 2)
	nbrs := []int{1, 3, 4, 5}
	right := 0
	for i := range nbrs {
		for j := i + 1; j < len(nbrs); j++ {
			angle := c.VectorTo(point(m, nbrs[i])).AngleTo(c.VectorTo(point(m, nbrs[j])))
			if math.Abs(angle-math.Pi/2) < 1e-6 {
				right++
			} else {
				tassert.InDelta(t, math.Pi, angle, 1e-6)
			}
		}
	}
	tassert.Equal(t, 4, right)
}
