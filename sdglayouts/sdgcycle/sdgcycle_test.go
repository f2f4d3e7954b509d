package sdgcycle

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"oss.terrastruct.com/sdg/lib/geo"
	"oss.terrastruct.com/sdg/lib/log"
	"oss.terrastruct.com/sdg/sdggraph"
	"oss.terrastruct.com/sdg/sdgrings"
	"oss.terrastruct.com/sdg/sdgsmiles"
	"oss.terrastruct.com/sdg/sdgtemplate"
)

const L = 1.5

func newGraph(t *testing.T, smiles string) *sdggraph.Graph {
	t.Helper()
	m, err := sdgsmiles.Parse(smiles)
	if err != nil {
		t.Fatal(err)
	}
	g := sdggraph.NewGraph(m, L)
	sdgrings.SSSR{}.MarkRingAtomsAndBonds(g)
	return g
}

func assertBondLengths(t *testing.T, g *sdggraph.Graph) {
	t.Helper()
	for i, b := range g.Mol.Bonds {
		if !g.Placed[b.Beg] || !g.Placed[b.End] {
			continue
		}
		assert.InDelta(t, L, g.Coords[b.Beg].DistanceTo(g.Coords[b.End]), 1e-6, "bond %d", i)
	}
}

func assertNoOverlap(t *testing.T, g *sdggraph.Graph) {
	t.Helper()
	for i := 0; i < g.NumAtoms(); i++ {
		for j := i + 1; j < g.NumAtoms(); j++ {
			assert.GreaterOrEqual(t, g.Coords[i].DistanceTo(g.Coords[j]), L-1e-6, "atoms %d and %d", i, j)
		}
	}
}

func TestArcStep(t *testing.T) {
	t.Parallel()

	phi, ok := arcStep(4, L, L)
	assert.True(t, ok)
	assert.InDelta(t, math.Pi/3, phi, 1e-12)

	phi, ok = arcStep(3, L, L)
	assert.True(t, ok)
	assert.InDelta(t, 2*math.Pi/5, phi, 1e-12)

	// half a hexagon spans its diameter
	phi, ok = arcStep(2, 2*L, L)
	assert.True(t, ok)
	assert.InDelta(t, math.Pi/3, phi, 1e-9)

	_, ok = arcStep(2, 3*L, L)
	assert.False(t, ok)
}

func TestAcenePerimeter(t *testing.T) {
	t.Parallel()

	for _, n := range []int{10, 14, 18} {
		pts := acenePerimeter(n, L)
		assert.Len(t, pts, n)
		for i := range pts {
			prev, next := pts[(i+n-1)%n], pts[(i+1)%n]
			assert.InDelta(t, L, pts[i].DistanceTo(next), 1e-9, "n=%d i=%d", n, i)
			angle := pts[i].VectorTo(prev).AngleTo(pts[i].VectorTo(next))
			assert.InDelta(t, 2*math.Pi/3, angle, 1e-9, "n=%d i=%d", n, i)
		}
	}
}

func TestLayoutSystem(t *testing.T) {
	t.Parallel()

	t.Run("benzene", func(t *testing.T) {
		t.Parallel()
		ctx := log.WithTB(context.Background(), t, nil)
		g := newGraph(t, "c1ccccc1")
		sys := g.RingSystems[0]
		placed := LayoutSystem(ctx, g, sys, geo.NewVector(1, 0), nil)
		assert.Len(t, placed, 6)
		assert.True(t, sys.Placed)
		assert.True(t, g.AllPlaced())
		assertBondLengths(t, g)

		ring := sys.Rings[0]
		assert.InDelta(t, 0, g.Coords[ring.Atoms[0]].X, 1e-9)
		assert.InDelta(t, 0, g.Coords[ring.Atoms[0]].Y, 1e-9)
		assert.InDelta(t, L, g.Coords[ring.Atoms[1]].X, 1e-9)
		assert.InDelta(t, 0, g.Coords[ring.Atoms[1]].Y, 1e-9)

		c := geo.Centroid(g.Coords, ring.Atoms)
		assert.Greater(t, c.Y, 0.0)
		for _, a := range ring.Atoms {
			assert.InDelta(t, L, c.DistanceTo(g.Coords[a]), 1e-6)
		}
	})

	t.Run("naphthalene", func(t *testing.T) {
		t.Parallel()
		ctx := log.WithTB(context.Background(), t, nil)
		g := newGraph(t, "c1ccc2ccccc2c1")
		sys := g.RingSystems[0]
		LayoutSystem(ctx, g, sys, geo.NewVector(1, 0), nil)
		assert.True(t, g.AllPlaced())
		assertBondLengths(t, g)
		assertNoOverlap(t, g)

		c0 := geo.Centroid(g.Coords, sys.Rings[0].Atoms)
		c1 := geo.Centroid(g.Coords, sys.Rings[1].Atoms)
		assert.InDelta(t, math.Sqrt(3)*L, c0.DistanceTo(c1), 1e-6)
	})

	t.Run("spiro", func(t *testing.T) {
		t.Parallel()
		ctx := log.WithTB(context.Background(), t, nil)
		g := newGraph(t, "C1CCC2(CC1)CCCC2")
		sys := g.RingSystems[0]
		LayoutSystem(ctx, g, sys, geo.NewVector(1, 0), nil)
		assert.True(t, g.AllPlaced())
		assertBondLengths(t, g)
		assertNoOverlap(t, g)

		var six, five *sdggraph.Ring
		for _, r := range sys.Rings {
			if r.Size() == 6 {
				six = r
			} else {
				five = r
			}
		}
		r5 := L / (2 * math.Sin(math.Pi/5))
		c6 := geo.Centroid(g.Coords, six.Atoms)
		c5 := geo.Centroid(g.Coords, five.Atoms)
		assert.InDelta(t, L+r5, c6.DistanceTo(c5), 1e-6)
	})

	t.Run("macrocycle", func(t *testing.T) {
		t.Parallel()
		ctx := log.WithTB(context.Background(), t, nil)
		g := newGraph(t, "C1CCCCCCCCC1")
		sys := g.RingSystems[0]
		LayoutSystem(ctx, g, sys, geo.NewVector(1, 0), nil)
		assert.True(t, g.AllPlaced())
		assertBondLengths(t, g)
		assertNoOverlap(t, g)

		ring := sys.Rings[0]
		n := ring.Size()
		for i, a := range ring.Atoms {
			prev, next := ring.Atoms[(i+n-1)%n], ring.Atoms[(i+1)%n]
			angle := g.Coords[a].VectorTo(g.Coords[prev]).AngleTo(g.Coords[a].VectorTo(g.Coords[next]))
			assert.InDelta(t, 2*math.Pi/3, angle, 1e-6)
		}
		c := geo.Centroid(g.Coords, ring.Atoms)
		assert.Greater(t, c.Y, 0.0)
	})

	t.Run("template", func(t *testing.T) {
		t.Parallel()
		ctx := log.WithTB(context.Background(), t, nil)
		g := newGraph(t, "C1CC2CCC1C2")
		sys := g.RingSystems[0]
		placed := LayoutSystem(ctx, g, sys, geo.NewVector(1, 0), sdgtemplate.Default())
		assert.Len(t, placed, 7)
		assert.True(t, g.AllPlaced())
		for _, r := range sys.Rings {
			assert.True(t, r.Placed)
		}

		var sum float64
		for _, b := range g.Mol.Bonds {
			sum += g.Coords[b.Beg].DistanceTo(g.Coords[b.End])
		}
		assert.InDelta(t, L, sum/float64(len(g.Mol.Bonds)), 1e-9)
	})

	t.Run("template with stub", func(t *testing.T) {
		t.Parallel()
		ctx := log.WithTB(context.Background(), t, nil)
		g := newGraph(t, "CC12CCC(CC1)C2")
		sys := g.RingSystems[0]
		placed := LayoutSystem(ctx, g, sys, geo.NewVector(1, 0), sdgtemplate.Default())
		assert.Len(t, placed, 8)
		assert.True(t, g.AllPlaced())
		// template bonds average to L
		assert.InDelta(t, L, g.Coords[0].DistanceTo(g.Coords[1]), 0.05)
		assertPlacedSpread(t, g, L/2)
	})
}

func TestCompleteSystem(t *testing.T) {
	t.Parallel()

	g := newGraph(t, "c1ccccc1")
	sys := g.RingSystems[0]
	ring := sys.Rings[0]
	g.Place(ring.Atoms[0], geo.NewPoint(3, 3))
	g.Place(ring.Atoms[1], geo.NewPoint(3, 3+L))

	placed := CompleteSystem(g, sys)
	assert.Len(t, placed, 4)
	assert.True(t, ring.Placed)
	assertBondLengths(t, g)
	assertNoOverlap(t, g)
	assert.Equal(t, geo.NewPoint(3, 3), g.Coords[ring.Atoms[0]])
}

func TestPlaceSubstituents(t *testing.T) {
	t.Parallel()
	ctx := log.WithTB(context.Background(), t, nil)

	g := newGraph(t, "Cc1ccccc1")
	sys := g.RingSystems[0]
	LayoutSystem(ctx, g, sys, geo.NewVector(1, 0), nil)
	PlaceSubstituents(g, sys)
	assert.True(t, g.AllPlaced())
	assertBondLengths(t, g)

	c := geo.Centroid(g.Coords, sys.Atoms)
	assert.InDelta(t, 2*L, c.DistanceTo(g.Coords[0]), 1e-6)
}

func TestSeedRing(t *testing.T) {
	t.Parallel()

	// the middle ring of anthracene is fused to both others
	g := newGraph(t, "c1ccc2cc3ccccc3cc2c1")
	seed := SeedRing(g.RingSystems[0])
	for _, r := range g.RingSystems[0].Rings {
		if r == seed {
			continue
		}
		assert.Len(t, seed.Shared(r), 2)
	}
	assert.Len(t, g.RingSystems[0].Rings, 3)
}

func assertPlacedSpread(t *testing.T, g *sdggraph.Graph, min float64) {
	t.Helper()
	for i := 0; i < g.NumAtoms(); i++ {
		for j := i + 1; j < g.NumAtoms(); j++ {
			if !g.Placed[i] || !g.Placed[j] {
				continue
			}
			assert.GreaterOrEqual(t, g.Coords[i].DistanceTo(g.Coords[j]), min, "atoms %d and %d", i, j)
		}
	}
}

func TestPlaceArcEndpoints(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		a, b int
		run  []int
	}{
		{name: "forward", a: 1, b: 0, run: []int{2, 3, 4, 5}},
		{name: "swapped", a: 0, b: 1, run: []int{5, 4, 3, 2}},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g := newGraph(t, "C1CCCCC1")
			g.Place(0, geo.NewPoint(0, 0))
			g.Place(1, geo.NewPoint(L, 0))
			placeArc(g, tc.run, tc.a, tc.b, geo.NewPoint(L/2, 5))

			path := append(append([]int{tc.a}, tc.run...), tc.b)
			for i := 1; i < len(path); i++ {
				assert.InDelta(t, L, g.Coords[path[i-1]].DistanceTo(g.Coords[path[i]]), 1e-6, "%d-%d", path[i-1], path[i])
			}
			for _, x := range tc.run {
				assert.Less(t, g.Coords[x].Y, 0.0, "atom %d", x)
			}
			assertPlacedSpread(t, g, L-1e-6)
		})
	}
}

func TestPlaceArcWideAndNarrow(t *testing.T) {
	t.Parallel()

	// a short arc over a wide gap and a long one over a narrow gap both close
	// on the far endpoint
	testCases := []struct {
		name string
		gap  float64
		run  []int
	}{
		{name: "wide", gap: 1.8 * L, run: []int{2, 3}},
		{name: "narrow", gap: 0.6 * L, run: []int{2, 3, 4, 5, 6}},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g := newGraph(t, "C1CCCCCC1")
			g.Place(0, geo.NewPoint(0, 0))
			g.Place(1, geo.NewPoint(tc.gap, 0))
			placeArc(g, tc.run, 1, 0, geo.NewPoint(tc.gap/2, -5))

			path := append(append([]int{1}, tc.run...), 0)
			for i := 1; i < len(path); i++ {
				assert.InDelta(t, L, g.Coords[path[i-1]].DistanceTo(g.Coords[path[i]]), 1e-6, "%d-%d", path[i-1], path[i])
			}
			for _, x := range tc.run {
				assert.Greater(t, g.Coords[x].Y, -1e-9, "atom %d", x)
			}
		})
	}
}

func TestLayoutSystemFused(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		smiles string
	}{
		{name: "naphthalene", smiles: "c1ccc2ccccc2c1"},
		{name: "naphthalene_closure_first", smiles: "c12ccccc1cccc2"},
		{name: "naphthalene_inner", smiles: "c1cc2ccccc2cc1"},
		{name: "phenanthrene", smiles: "c1ccc2c(c1)ccc1ccccc12"},
		{name: "phenanthrene_bay_first", smiles: "c1ccc2c(c1)c1ccccc1cc2"},
		{name: "anthracene", smiles: "c1ccc2cc3ccccc3cc2c1"},
		{name: "gonane", smiles: "C1CCC2C(C1)CCC1C2CCC2CCCC12"},
		{name: "indane", smiles: "C1Cc2ccccc2C1"},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctx := log.WithTB(context.Background(), t, nil)
			g := newGraph(t, tc.smiles)
			assert.Len(t, g.RingSystems, 1)
			LayoutSystem(ctx, g, g.RingSystems[0], geo.NewVector(1, 0), nil)
			assert.True(t, g.AllPlaced())
			assertBondLengths(t, g)
			assertPlacedSpread(t, g, L-1e-6)
		})
	}
}

func TestLayoutSystemPurine(t *testing.T) {
	t.Parallel()
	ctx := log.WithTB(context.Background(), t, nil)

	// caffeine
	g := newGraph(t, "Cn1cnc2c1c(=O)n(C)c(=O)n2C")
	sys := g.RingSystems[0]
	assert.Len(t, sys.Atoms, 9)
	LayoutSystem(ctx, g, sys, geo.NewVector(1, 0), nil)
	for _, a := range sys.Atoms {
		assert.True(t, g.Placed[a], "atom %d", a)
	}
	assertBondLengths(t, g)
	assertPlacedSpread(t, g, L-1e-6)

	PlaceSubstituents(g, sys)
	assert.True(t, g.AllPlaced())
	assertBondLengths(t, g)
	assertPlacedSpread(t, g, L/2)
}

func TestLayoutSystemBridged(t *testing.T) {
	t.Parallel()
	ctx := log.WithTB(context.Background(), t, nil)

	g := newGraph(t, "C1C2CC3CC1CC(C2)C3")
	sys := g.RingSystems[0]
	LayoutSystem(ctx, g, sys, geo.NewVector(1, 0), nil)
	assert.True(t, g.AllPlaced())
	assertPlacedSpread(t, g, 0.4*L)
}

func TestUnfold(t *testing.T) {
	t.Parallel()

	g := newGraph(t, "C1CCCCC1")
	g.Place(0, geo.NewPoint(0, 0))
	g.Place(1, geo.NewPoint(L, 0))
	g.Place(2, geo.NewPoint(L/2, -1))
	// 3 lands on 2
	g.Place(3, geo.NewPoint(L/2, -1))
	unfold(g, []int{3}, 0, 1)
	assert.InDelta(t, L/2, g.Coords[3].X, 1e-9)
	assert.InDelta(t, 1, g.Coords[3].Y, 1e-9)

	// nothing to gain from a mirror image that is just as crowded
	g.Place(4, geo.NewPoint(L/2, 1.1))
	g.Place(5, geo.NewPoint(L/2, -1.1))
	g.Place(3, geo.NewPoint(L/2, 1))
	unfold(g, []int{3}, 0, 1)
	assert.InDelta(t, 1, g.Coords[3].Y, 1e-9)
}
