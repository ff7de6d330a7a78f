// Package pathinfer computes, for every ordered pair of top-level sum
// types (From, To) where From transitively embeds To through a chain of
// single-operand sum cases, the canonical hop sequence used to
// synthesize the lossless injection and, when the pair is lossy, the
// lossy extraction.
package pathinfer

import (
	"container/heap"
	"sort"

	"github.com/teranos/schemagen/graph"
	"github.com/teranos/schemagen/schema"
)

// CastHop is one step of a cast path: entering case CaseName of sum
// SumName, whose payload is Payload.
type CastHop struct {
	SumName  string
	CaseName string
	Payload  *schema.TypeRef

	// DerefBeforeMatch is true when the *previous* hop's payload was
	// boxed-and-not-array, so extracting through this hop must dereference
	// before pattern matching.
	DerefBeforeMatch bool

	// WrapOnConstruct is true when this hop's payload is
	// boxed-and-not-array-and-sized, so constructing through this hop must
	// allocate a fresh box around the inner value.
	WrapOnConstruct bool
}

// Path is the canonicalized cast chain from From to To.
type Path struct {
	From string
	To   string
	Hops []CastHop

	// Lossless is true iff the reverse pair (To, From) also has a path:
	// injection can never fail in that case, so only the injection is
	// emitted.
	Lossless bool

	// TerminalBoxedStr is true when the terminal payload's leaf is the
	// unsized string primitive, so the emitted target type must be the
	// boxed form rather than the bare leaf.
	TerminalBoxedStr bool
}

// Infer computes every valid cast path over g.
func Infer(g *graph.Graph) []*Path {
	sources := typeVertices(g)

	// dist/pred per source, used below both to build raw paths and to test
	// the reverse direction for the Symmetry rule.
	type spResult struct {
		dist map[string]int
		pred map[string]string
	}
	results := make(map[string]spResult, len(sources))
	for _, src := range sources {
		dist, pred := dijkstra(g, src)
		results[src] = spResult{dist: dist, pred: pred}
	}

	type key struct{ from, to string }
	rawPaths := make(map[key][]string) // from -> to -> full vertex path

	for _, from := range sources {
		res := results[from]
		for to := range res.dist {
			if to == from {
				continue // paths with From == To are not emitted
			}
			v := g.Vertices[to]
			if v == nil || v.Kind != graph.VertexType {
				continue
			}
			vertexPath := reconstruct(res.pred, from, to)
			if !pathAllowed(g, vertexPath) {
				continue
			}
			rawPaths[key{from, to}] = vertexPath
		}
	}

	paths := make([]*Path, 0, len(rawPaths))
	for k, vertexPath := range rawPaths {
		_, reverseExists := rawPaths[key{k.to, k.from}]
		p := canonicalize(g, k.from, k.to, vertexPath)
		p.Lossless = reverseExists
		paths = append(paths, p)
	}

	sort.Slice(paths, func(i, j int) bool {
		if paths[i].From != paths[j].From {
			return paths[i].From < paths[j].From
		}
		return paths[i].To < paths[j].To
	})

	return paths
}

func typeVertices(g *graph.Graph) []string {
	var out []string
	for id, v := range g.Vertices {
		if v.Kind == graph.VertexType {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// pathAllowed applies the path filter: no field vertex may appear on
// the path, and every case-operand vertex on the path must have arity 1.
// The terminal-vertex-is-a-case-operand rejection is automatically
// satisfied upstream since we only reconstruct paths ending at a type
// vertex.
func pathAllowed(g *graph.Graph, vertexPath []string) bool {
	for _, id := range vertexPath {
		v := g.Vertices[id]
		switch v.Kind {
		case graph.VertexField:
			return false
		case graph.VertexCaseOperand:
			if v.Arity != 1 {
				return false
			}
		}
	}
	return true
}

// canonicalize collapses a vertex path into CastHops, pairing each
// case-operand vertex with the type vertex immediately following it, and
// threads the extraction/construction state machine through box
// boundaries.
func canonicalize(g *graph.Graph, from, to string, vertexPath []string) *Path {
	p := &Path{From: from, To: to}

	var prevPayload *schema.TypeRef
	for _, id := range vertexPath {
		v := g.Vertices[id]
		if v.Kind != graph.VertexCaseOperand {
			continue
		}
		hop := CastHop{
			SumName:  v.OwnerType,
			CaseName: v.CaseName,
			Payload:  v.Slot,
		}
		if prevPayload != nil && prevPayload.IsBoxed && !prevPayload.IsArray {
			hop.DerefBeforeMatch = true
		}
		if hop.Payload.IsBoxed && !hop.Payload.IsArray && hop.Payload.IsSized {
			hop.WrapOnConstruct = true
		}
		p.Hops = append(p.Hops, hop)
		prevPayload = v.Slot
	}

	if prevPayload != nil && prevPayload.Target == schema.PrimStr {
		p.TerminalBoxedStr = true
	}

	return p
}

func reconstruct(pred map[string]string, from, to string) []string {
	path := []string{to}
	cur := to
	for cur != from {
		p, ok := pred[cur]
		if !ok {
			break
		}
		path = append(path, p)
		cur = p
	}
	// reverse into from -> ... -> to order
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// --- Dijkstra, uniform weight 1 ---

type pqItem struct {
	id   string
	dist int
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

func dijkstra(g *graph.Graph, source string) (dist map[string]int, pred map[string]string) {
	dist = map[string]int{source: 0}
	pred = map[string]string{}
	visited := map[string]bool{}

	pq := &priorityQueue{{id: source, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if visited[cur.id] {
			continue
		}
		visited[cur.id] = true

		for _, next := range g.Edges[cur.id] {
			nd := cur.dist + 1
			if existing, ok := dist[next]; !ok || nd < existing {
				dist[next] = nd
				pred[next] = cur.id
				heap.Push(pq, pqItem{id: next, dist: nd})
			}
		}
	}

	return dist, pred
}
