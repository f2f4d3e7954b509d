// Package sdglib is the entry point for generating structure diagram
// coordinates.
package sdglib

import (
	"context"
	"fmt"

	"cdr.dev/slog"
	"golang.org/x/sync/errgroup"

	"oss.terrastruct.com/util-go/xdefer"

	"oss.terrastruct.com/sdg/lib/geo"
	"oss.terrastruct.com/sdg/lib/log"
	"oss.terrastruct.com/sdg/sdggraph"
	"oss.terrastruct.com/sdg/sdglayouts"
	"oss.terrastruct.com/sdg/sdglayouts/sdggrid"
	"oss.terrastruct.com/sdg/sdgtemplate"
)

// GenerateCoordinates lays out a connected molecule in place.
func GenerateCoordinates(ctx context.Context, mol *sdggraph.Molecule, opts *sdglayouts.Opts) (err error) {
	defer xdefer.Errorf(&err, "failed to layout")

	if err := mol.Validate(); err != nil {
		return err
	}
	if frags := mol.Fragments(); len(frags) > 1 {
		return fmt.Errorf("molecule is disconnected (%d fragments)", len(frags))
	}
	return sdglayouts.Layout(ctx, mol, withDefaults(opts))
}

// GenerateFragments lays out every connected fragment of mol independently
// and packs the fragments without fixed atoms into a grid. When some
// fragments carry fixed atoms the grid is placed to their right.
func GenerateFragments(ctx context.Context, mol *sdggraph.Molecule, opts *sdglayouts.Opts) (err error) {
	defer xdefer.Errorf(&err, "failed to layout fragments")

	if err := mol.Validate(); err != nil {
		return err
	}
	opts = withDefaults(opts)
	frags := mol.Fragments()
	if len(frags) <= 1 {
		return sdglayouts.Layout(ctx, mol, opts)
	}

	subs := make([]*sdggraph.Molecule, len(frags))
	maps := make([][]int, len(frags))
	fixed := make([]bool, len(frags))

	eg, egctx := errgroup.WithContext(ctx)
	for i, frag := range frags {
		sub, atomMap, bondMap := mol.Subset(frag)
		subOpts := *opts
		subOpts.AFix = localIndices(opts.AFix, atomMap)
		subOpts.BFix = localIndices(opts.BFix, bondMap)
		subOpts.AttachmentAtom = nil
		if opts.AttachmentAtom != nil {
			if local := localIndices([]int{*opts.AttachmentAtom}, atomMap); len(local) == 1 {
				subOpts.AttachmentAtom = &local[0]
			}
		}
		// stereo and finalizers see the whole molecule once it is packed
		subOpts.Stereo = nil
		subOpts.Finalizers = nil

		subs[i], maps[i] = sub, atomMap
		fixed[i] = len(subOpts.AFix) > 0
		fctx := log.Named(egctx, fmt.Sprintf("fragment%d", i))
		eg.Go(func() error {
			err := sdglayouts.Layout(fctx, sub, &subOpts)
			if err != nil {
				log.Error(fctx, "fragment layout failed", slog.F("atoms", len(sub.Atoms)), slog.Error(err))
			}
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	var free [][]geo.Point
	var freeIdx []int
	var fixedCoords []geo.Point
	for i, sub := range subs {
		coords := make([]geo.Point, len(sub.Atoms))
		for j, a := range sub.Atoms {
			coords[j] = *a.Point
		}
		if fixed[i] {
			fixedCoords = append(fixedCoords, coords...)
			continue
		}
		free = append(free, coords)
		freeIdx = append(freeIdx, i)
	}

	gap := 2 * bondLength(opts)
	box := sdggrid.Layout(free, gap)
	if len(fixedCoords) > 0 && len(free) > 0 {
		fb := geo.BoundingBox(fixedCoords, nil)
		offset := geo.NewVector(fb.TopLeft.X+fb.Width+gap, fb.TopLeft.Y)
		for _, coords := range free {
			geo.Translate(coords, nil, offset)
		}
	}

	for k, i := range freeIdx {
		for j, orig := range maps[i] {
			p := free[k][j]
			mol.Atoms[orig].Point = &p
		}
	}
	for i, sub := range subs {
		if !fixed[i] {
			continue
		}
		for j, orig := range maps[i] {
			p := *sub.Atoms[j].Point
			mol.Atoms[orig].Point = &p
		}
	}
	log.Info(ctx, "packed fragments",
		slog.F("fragments", len(frags)),
		slog.F("gridded", len(free)),
		slog.F("box", box.ToString()),
	)
	return sdglayouts.Finalize(ctx, mol, opts)
}

func withDefaults(opts *sdglayouts.Opts) *sdglayouts.Opts {
	if opts == nil {
		opts = &sdglayouts.Opts{ConfigurableOpts: sdglayouts.DefaultOpts}
	}
	cp := *opts
	if cp.Templates == nil {
		cp.Templates = sdgtemplate.Default()
	}
	return &cp
}

func bondLength(opts *sdglayouts.Opts) float64 {
	if opts.BondLength > 0 {
		return opts.BondLength
	}
	return sdglayouts.DefaultOpts.BondLength
}

// localIndices translates global indices into the subset described by m,
// where m maps subset indices back to global ones.
func localIndices(global, m []int) []int {
	if len(global) == 0 {
		return nil
	}
	pos := make(map[int]int, len(m))
	for local, orig := range m {
		pos[orig] = local
	}
	var out []int
	for _, g := range global {
		if l, ok := pos[g]; ok {
			out = append(out, l)
		}
	}
	return out
}
