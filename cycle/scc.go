package cycle

import "github.com/teranos/schemagen/graph"

// tarjan finds the strongly connected components of g using Tarjan's
// algorithm. Each returned component is a set of vertex IDs; singleton
// components with no self-loop are not cycles and are filtered out by the
// caller, not here, since "is this a cycle" depends on whether the lone
// vertex has an edge to itself.
type tarjanState struct {
	g         *graph.Graph
	index     int
	indices   map[string]int
	lowlink   map[string]int
	onStack   map[string]bool
	stack     []string
	sccs      [][]string
}

func tarjan(g *graph.Graph) [][]string {
	st := &tarjanState{
		g:       g,
		indices: make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}
	for id := range g.Vertices {
		if _, seen := st.indices[id]; !seen {
			st.strongconnect(id)
		}
	}
	return st.sccs
}

func (st *tarjanState) strongconnect(v string) {
	st.indices[v] = st.index
	st.lowlink[v] = st.index
	st.index++
	st.stack = append(st.stack, v)
	st.onStack[v] = true

	for _, w := range st.g.Edges[v] {
		if _, seen := st.indices[w]; !seen {
			st.strongconnect(w)
			if st.lowlink[w] < st.lowlink[v] {
				st.lowlink[v] = st.lowlink[w]
			}
		} else if st.onStack[w] {
			if st.indices[w] < st.lowlink[v] {
				st.lowlink[v] = st.indices[w]
			}
		}
	}

	if st.lowlink[v] == st.indices[v] {
		var component []string
		for {
			n := len(st.stack) - 1
			w := st.stack[n]
			st.stack = st.stack[:n]
			st.onStack[w] = false
			component = append(component, w)
			if w == v {
				break
			}
		}
		st.sccs = append(st.sccs, component)
	}
}

// hasSelfLoop reports whether v has an edge back to itself.
func hasSelfLoop(g *graph.Graph, v string) bool {
	for _, w := range g.Edges[v] {
		if w == v {
			return true
		}
	}
	return false
}
