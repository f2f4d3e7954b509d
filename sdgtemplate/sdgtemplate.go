// Package sdgtemplate looks up precomputed layouts for ring skeletons that
// regular polygons draw badly, such as bridged polycycles and cages.
package sdgtemplate

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"oss.terrastruct.com/sdg/lib/geo"
	"oss.terrastruct.com/sdg/sdggraph"
	"oss.terrastruct.com/sdg/sdgsmiles"
)

// Level is how strictly a query has to agree with a template.
type Level int

const (
	// LevelStubs matches the skeleton together with its first substituent atoms.
	LevelStubs Level = iota
	// LevelSkeleton matches elements and bond orders of the ring skeleton.
	LevelSkeleton
	// LevelAnonymous matches connectivity only.
	LevelAnonymous
)

var Levels = []Level{LevelStubs, LevelSkeleton, LevelAnonymous}

func (l Level) String() string {
	switch l {
	case LevelStubs:
		return "stubs"
	case LevelSkeleton:
		return "skeleton"
	}
	return "anonymous"
}

type Library interface {
	// TryAssignLayout returns coordinates for every atom of query, scaled to
	// bondLength, or false when no template matches at level.
	TryAssignLayout(query *sdggraph.Molecule, level Level, bondLength float64) ([]geo.Point, bool)
}

type Template struct {
	Name   string      `json:"name"`
	SMILES string      `json:"smiles"`
	Coords []geo.Point `json:"coords"`

	mol        *sdggraph.Molecule
	graph      *sdggraph.Graph
	bondLength float64
}

type Collection struct {
	templates []*Template
}

//go:embed templates.json
var templatesJSON []byte

var (
	defaultOnce sync.Once
	defaultLib  *Collection
)

// Default is the embedded template collection.
func Default() *Collection {
	defaultOnce.Do(func() {
		var err error
		defaultLib, err = Load(bytes.NewReader(templatesJSON))
		if err != nil {
			panic(fmt.Sprintf("embedded templates: %v", err))
		}
	})
	return defaultLib
}

// Load reads a JSON array of templates.
func Load(r io.Reader) (*Collection, error) {
	var ts []*Template
	if err := json.NewDecoder(r).Decode(&ts); err != nil {
		return nil, err
	}
	c := &Collection{}
	for _, t := range ts {
		if err := c.Add(t); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collection) Add(t *Template) error {
	mol, err := sdgsmiles.Parse(t.SMILES)
	if err != nil {
		return fmt.Errorf("template %s: %w", t.Name, err)
	}
	if len(mol.Atoms) != len(t.Coords) {
		return fmt.Errorf("template %s: %d atoms but %d coordinates", t.Name, len(mol.Atoms), len(t.Coords))
	}
	if len(mol.Bonds) == 0 {
		return fmt.Errorf("template %s: no bonds", t.Name)
	}
	var sum float64
	for _, b := range mol.Bonds {
		sum += t.Coords[b.Beg].DistanceTo(t.Coords[b.End])
	}
	t.mol = mol
	t.graph = sdggraph.NewGraph(mol, 0)
	t.bondLength = sum / float64(len(mol.Bonds))
	c.templates = append(c.templates, t)
	return nil
}

func (c *Collection) Len() int {
	return len(c.templates)
}

func (c *Collection) TryAssignLayout(query *sdggraph.Molecule, level Level, bondLength float64) ([]geo.Point, bool) {
	qg := sdggraph.NewGraph(query, bondLength)
	for _, t := range c.templates {
		mapping, ok := match(qg, t.graph, level)
		if !ok {
			continue
		}
		scale := bondLength / t.bondLength
		out := make([]geo.Point, len(query.Atoms))
		for qi, ti := range mapping {
			p := t.Coords[ti]
			out[qi] = geo.NewPoint(p.X*scale, p.Y*scale)
		}
		return out, true
	}
	return nil, false
}
