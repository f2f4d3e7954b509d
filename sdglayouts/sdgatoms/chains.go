package sdgatoms

import (
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"oss.terrastruct.com/sdg/sdggraph"
)

// InitialLongestChain returns the longest shortest path between two terminal
// atoms, used to seed ring-free molecules. Paths are only unique, and the
// result only deterministic, when the molecule has no rings.
func InitialLongestChain(g *sdggraph.Graph) []int {
	n := g.NumAtoms()
	if n == 0 {
		return nil
	}
	ug := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		ug.AddNode(simple.Node(i))
	}
	for _, b := range g.Mol.Bonds {
		ug.SetEdge(simple.Edge{F: simple.Node(b.Beg), T: simple.Node(b.End)})
	}
	paths, _ := path.FloydWarshall(ug)

	var ends []int
	for i := 0; i < n; i++ {
		if g.Degree(i) == 1 {
			ends = append(ends, i)
		}
	}
	if len(ends) < 2 {
		ends = ends[:0]
		for i := 0; i < n; i++ {
			ends = append(ends, i)
		}
	}

	best, bestU, bestV := -1.0, ends[0], ends[0]
	for x, u := range ends {
		for _, v := range ends[x+1:] {
			w := paths.Weight(int64(u), int64(v))
			if math.IsInf(w, 1) {
				continue
			}
			if w > best {
				best, bestU, bestV = w, u, v
			}
		}
	}
	if bestU == bestV {
		return []int{bestU}
	}
	nodes, _, _ := paths.Between(int64(bestU), int64(bestV))
	chain := make([]int, len(nodes))
	for i, nd := range nodes {
		chain[i] = int(nd.ID())
	}
	return chain
}

// LongestUnplacedChain grows paths breadth-first from the placed atom start
// through unplaced atoms and returns the longest, start included. Ring atoms
// end a path. Among paths of equal length the one with the larger summed
// degree and implicit hydrogen count wins.
func LongestUnplacedChain(g *sdggraph.Graph, start int) []int {
	n := g.NumAtoms()
	paths := make([][]int, n)
	visited := make([]bool, n)
	paths[start] = []int{start}

	sphere := []int{start}
	for len(sphere) > 0 {
		var next []int
		for _, a := range sphere {
			visited[a] = true
		}
		for _, a := range sphere {
			if a != start && g.AtomInRing[a] {
				continue
			}
			for _, w := range g.Adj[a] {
				if visited[w] || g.Placed[w] {
					continue
				}
				p := make([]int, len(paths[a])+1)
				copy(p, paths[a])
				p[len(p)-1] = w
				paths[w] = p
				if g.Degree(w) > 1 {
					next = append(next, w)
				}
			}
		}
		sphere = next
	}

	longest := start
	bestWeight := chainWeight(g, paths[start])
	for i, p := range paths {
		if len(p) == 0 || i == start {
			continue
		}
		w := chainWeight(g, p)
		if len(p) > len(paths[longest]) || (len(p) == len(paths[longest]) && w > bestWeight) {
			longest, bestWeight = i, w
		}
	}
	return paths[longest]
}

func chainWeight(g *sdggraph.Graph, p []int) int {
	w := 0
	for _, a := range p {
		w += g.Degree(a) + g.Atom(a).ImplicitH
	}
	return w
}
