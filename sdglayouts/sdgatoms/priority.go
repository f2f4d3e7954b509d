package sdgatoms

import (
	"sort"

	"oss.terrastruct.com/sdg/sdggraph"
)

// Prioritise ranks atoms by iterated neighbourhood sums and stores the result
// in g.Priority. Priority 1 is the most central class; the refiner keeps low
// priority atoms still and moves the high priority side.
func Prioritise(g *sdggraph.Graph) {
	n := g.NumAtoms()
	if n == 0 {
		return
	}
	rank := make([]int, n)
	next := make([]int, n)
	class := make([]int, n)
	order := make([]int, n)
	for i := range rank {
		rank[i] = 1
	}

	classes := 1
	for iter := 0; iter < n; iter++ {
		for i := 0; i < n; i++ {
			sum := 3 * rank[i]
			for _, w := range g.Adj[i] {
				sum += rank[w]
			}
			next[i] = sum
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return next[order[a]] < next[order[b]]
		})
		c := 1
		for k, i := range order {
			if k > 0 && next[i] != next[order[k-1]] {
				c++
			}
			class[i] = c
		}
		if c <= classes {
			break
		}
		classes = c
		copy(rank, class)
	}

	for i := range rank {
		g.Priority[i] = 1 + classes - rank[i]
	}
}
