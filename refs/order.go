package refs

import "strings"

// SourcesFirst returns the edges reordered so that an edge whose target lies
// inside another edge's source runs before that edge. Edges keep discovery
// order otherwise. Mutually dependent edges fall back to discovery order.
func SourcesFirst(edges []Ref) []Ref {
	n := len(edges)
	pending := make([]int, n)
	unblocks := make([][]int, n)
	for i, ei := range edges {
		if ei.Malformed {
			continue
		}
		for j, ej := range edges {
			if i != j && within(ej.Target, ei.Source) {
				pending[i]++
				unblocks[j] = append(unblocks[j], i)
			}
		}
	}

	done := make([]bool, n)
	out := make([]Ref, 0, n)
	for len(out) < n {
		next := -1
		for i := range edges {
			if !done[i] && pending[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			for i := range edges {
				if !done[i] {
					next = i
					break
				}
			}
		}
		done[next] = true
		out = append(out, edges[next])
		for _, k := range unblocks[next] {
			pending[k]--
		}
	}
	return out
}

// within reports whether pointer p equals base or names a node below it.
func within(p, base string) bool {
	return p == base || strings.HasPrefix(p, base+"/")
}
