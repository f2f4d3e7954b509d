package sdgtemplate

import (
	"oss.terrastruct.com/sdg/sdggraph"
)

// match finds an isomorphism from the atoms of q onto the atoms of t.
// mapping[i] is the template atom matched to query atom i.
func match(q, t *sdggraph.Graph, level Level) (mapping []int, ok bool) {
	n := q.NumAtoms()
	if n != t.NumAtoms() || len(q.Mol.Bonds) != len(t.Mol.Bonds) || n == 0 {
		return nil, false
	}

	// query atoms in breadth-first order so every atom after the first has an
	// already mapped neighbour within its component
	order := make([]int, 0, n)
	seen := make([]bool, n)
	for s := 0; s < n; s++ {
		if seen[s] {
			continue
		}
		seen[s] = true
		order = append(order, s)
		for k := len(order) - 1; k < len(order); k++ {
			for _, w := range q.Adj[order[k]] {
				if !seen[w] {
					seen[w] = true
					order = append(order, w)
				}
			}
		}
	}

	mapping = make([]int, n)
	for i := range mapping {
		mapping[i] = -1
	}
	used := make([]bool, n)

	var extend func(k int) bool
	extend = func(k int) bool {
		if k == n {
			return true
		}
		qa := order[k]
		for ta := 0; ta < n; ta++ {
			if used[ta] || !atomsCompatible(q, t, qa, ta, level) {
				continue
			}
			if !bondsCompatible(q, t, qa, ta, mapping, level) {
				continue
			}
			mapping[qa] = ta
			used[ta] = true
			if extend(k + 1) {
				return true
			}
			mapping[qa] = -1
			used[ta] = false
		}
		return false
	}
	if !extend(0) {
		return nil, false
	}
	return mapping, true
}

func atomsCompatible(q, t *sdggraph.Graph, qa, ta int, level Level) bool {
	if q.Degree(qa) != t.Degree(ta) {
		return false
	}
	if level == LevelAnonymous {
		return true
	}
	return q.Atom(qa).Element == t.Atom(ta).Element
}

// bondsCompatible checks qa's bonds to already mapped atoms against ta.
func bondsCompatible(q, t *sdggraph.Graph, qa, ta int, mapping []int, level Level) bool {
	for k, qw := range q.Adj[qa] {
		tw := mapping[qw]
		if tw < 0 {
			continue
		}
		tb := t.BondBetween(ta, tw)
		if tb < 0 {
			return false
		}
		if level != LevelAnonymous && q.Bond(q.AdjBonds[qa][k]).Order != t.Bond(tb).Order {
			return false
		}
	}
	return true
}
