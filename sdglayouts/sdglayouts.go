// Package sdglayouts generates 2D coordinates for a connected molecule. A seed
// ring system or chain is placed first, the layout is grown outward one chain
// or ring system at a time, then refined, oriented and handed to finalizers.
package sdglayouts

import (
	"context"
	"errors"
	"fmt"

	"cdr.dev/slog"

	"oss.terrastruct.com/sdg/lib/geo"
	"oss.terrastruct.com/sdg/lib/log"
	"oss.terrastruct.com/sdg/sdggraph"
	"oss.terrastruct.com/sdg/sdglayouts/sdgatoms"
	"oss.terrastruct.com/sdg/sdglayouts/sdgcongestion"
	"oss.terrastruct.com/sdg/sdglayouts/sdgrefine"
	"oss.terrastruct.com/sdg/sdgrings"
	"oss.terrastruct.com/sdg/sdgtemplate"
)

// ErrLayoutImpossible is returned, wrapped in a *LayoutError, when growth
// stops before every atom is placed.
var ErrLayoutImpossible = errors.New("layout impossible")

type LayoutError struct {
	Unplaced int
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("%v: %d atoms could not be placed", ErrLayoutImpossible, e.Unplaced)
}

func (e *LayoutError) Unwrap() error {
	return ErrLayoutImpossible
}

// RingFinder perceives rings and flags ring atoms and bonds on a graph.
type RingFinder interface {
	FindSSSR(mol *sdggraph.Molecule) []*sdggraph.Ring
	MarkRingAtomsAndBonds(g *sdggraph.Graph)
}

// StereoAssigner derives wedge and hash display from final coordinates.
type StereoAssigner interface {
	AssignFromGeometry(mol *sdggraph.Molecule)
}

// Finalizer runs once coordinates are final, e.g. to place repeat-unit
// brackets.
type Finalizer interface {
	Finalize(ctx context.Context, mol *sdggraph.Molecule) error
}

type ConfigurableOpts struct {
	BondLength float64 `json:"bondLength,omitempty"`
	// FirstBondVector is the direction of the seed ring's first bond.
	FirstBondVector     geo.Vector `json:"firstBondVector"`
	MaxRefineIterations int        `json:"maxRefineIterations,omitempty"`
	// AttachmentAtom is a single-bonded connection point whose bond is drawn
	// horizontally.
	AttachmentAtom *int `json:"attachmentAtom,omitempty"`
}

var DefaultOpts = ConfigurableOpts{
	BondLength:          1.5,
	FirstBondVector:     geo.NewVector(0, 1),
	MaxRefineIterations: sdgrefine.DefaultMaxIterations,
}

type Opts struct {
	ConfigurableOpts

	AFix []int
	BFix []int

	RingFinder RingFinder
	Templates  sdgtemplate.Library
	Stereo     StereoAssigner
	Finalizers []Finalizer
}

// Layout assigns a coordinate to every atom of mol, which must be connected.
// Atoms in opts.AFix keep their coordinates.
func Layout(ctx context.Context, mol *sdggraph.Molecule, opts *Opts) error {
	if opts == nil {
		opts = &Opts{ConfigurableOpts: DefaultOpts}
	}
	if opts.RingFinder == nil {
		cp := *opts
		cp.RingFinder = sdgrings.SSSR{}
		opts = &cp
	}
	L := opts.BondLength
	if L <= 0 {
		L = DefaultOpts.BondLength
	}

	if len(opts.AFix) == 0 && len(opts.BFix) == 0 && layoutTrivial(mol, L) {
		return Finalize(ctx, mol, opts)
	}

	g := sdggraph.NewGraph(mol, L)
	if err := g.Fix(opts.AFix, opts.BFix); err != nil {
		return err
	}
	opts.RingFinder.MarkRingAtomsAndBonds(g)

	l := &layout{g: g, opts: opts}
	if err := l.run(ctx); err != nil {
		return err
	}
	g.Commit()
	return Finalize(ctx, mol, opts)
}

// layoutTrivial handles molecules of up to two atoms.
func layoutTrivial(mol *sdggraph.Molecule, L float64) bool {
	switch len(mol.Atoms) {
	case 0:
		return true
	case 1:
		mol.Atoms[0].Point = &geo.Point{}
		return true
	case 2:
		mol.Atoms[0].Point = &geo.Point{}
		mol.Atoms[1].Point = &geo.Point{X: L}
		return true
	}
	return false
}

// Finalize runs the stereo assigner and the finalizers of opts on mol.
func Finalize(ctx context.Context, mol *sdggraph.Molecule, opts *Opts) error {
	if opts.Stereo != nil {
		opts.Stereo.AssignFromGeometry(mol)
	}
	for _, f := range opts.Finalizers {
		if err := f.Finalize(ctx, mol); err != nil {
			return err
		}
	}
	return nil
}

type layout struct {
	g    *sdggraph.Graph
	opts *Opts
}

func (l *layout) firstBond() geo.Vector {
	v := l.opts.FirstBondVector
	if v.Length() < geo.MinLength {
		return DefaultOpts.FirstBondVector
	}
	return v
}

func (l *layout) run(ctx context.Context) error {
	g := l.g
	l.seed(ctx)
	if err := l.grow(ctx); err != nil {
		return err
	}
	log.Debug(ctx, "grown",
		slog.F("atoms", g.NumAtoms()),
		slog.F("ringSystems", len(g.RingSystems)),
	)

	sdgatoms.Prioritise(g)
	cong := sdgcongestion.New(g)
	maxIterations := l.opts.MaxRefineIterations
	if maxIterations <= 0 {
		maxIterations = -1
	}
	stats := sdgrefine.New(g, cong, maxIterations).Refine(ctx)
	log.Debug(ctx, "refined",
		slog.F("iterations", stats.Iterations),
		slog.F("rotations", stats.Moves[sdgrefine.MoveRotate]),
		slog.F("inversions", stats.Moves[sdgrefine.MoveInvert]),
		slog.F("bends", stats.Moves[sdgrefine.MoveBend]),
		slog.F("stretches", stats.Moves[sdgrefine.MoveStretch]),
		slog.F("initialScore", stats.InitialScore),
		slog.F("finalScore", stats.FinalScore),
	)

	l.orient(ctx)
	return nil
}
