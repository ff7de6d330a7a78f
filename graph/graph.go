// Package graph builds the directed reference graph over a schema's specs
// and their operand slots. The same graph serves both the cycle
// breaker, which needs every field and case-operand slot to find every
// sizing cycle, and path inference, which later filters the same
// vertex set down to what a chain of casts may legally cross.
package graph

import (
	"fmt"

	"github.com/teranos/schemagen/schema"
)

// VertexKind distinguishes the three vertex families: types, fields, and
// case operands.
type VertexKind int

const (
	// VertexType is a top-level name or primitive.
	VertexType VertexKind = iota
	// VertexField is a named record field, or a newtype's sole operand.
	VertexField
	// VertexCaseOperand is one operand position of one sum case.
	VertexCaseOperand
)

// Vertex is one node of the graph. Slot carries back a pointer to the
// TypeRef this vertex represents, for Field and CaseOperand vertices; Type
// vertices have no TypeRef of their own (Slot is nil).
type Vertex struct {
	ID   string
	Kind VertexKind
	Slot *schema.TypeRef

	// Owning names, populated for Field and CaseOperand vertices so the
	// cycle breaker and path inference can report positions without
	// re-parsing the vertex ID.
	OwnerType string
	CaseName  string // non-empty only for VertexCaseOperand
	Arity     int    // number of operands in the owning case (CaseOperand only)
}

// Graph is a directed graph keyed by vertex ID. Edges holds forward
// adjacency only; no reverse adjacency is kept.
type Graph struct {
	Vertices map[string]*Vertex
	Edges    map[string][]string
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		Vertices: make(map[string]*Vertex),
		Edges:    make(map[string][]string),
	}
}

func (g *Graph) ensureVertex(id string, kind VertexKind) *Vertex {
	if v, ok := g.Vertices[id]; ok {
		return v
	}
	v := &Vertex{ID: id, Kind: kind}
	g.Vertices[id] = v
	return v
}

func (g *Graph) addEdge(from, to string) {
	g.Edges[from] = append(g.Edges[from], to)
}

// FieldVertexID formats the "T.f" / "T.i" vertex ID for a record field or
// newtype operand position.
func FieldVertexID(typeName, fieldName string) string {
	return fmt.Sprintf("%s.%s", typeName, fieldName)
}

// CaseOperandVertexID formats the "T::C#n" vertex ID, where n is the
// operand's 1-based index among the operands of that case. This resolves an open
// question, this implementation adopts the unambiguous "index per operand"
// convention rather than "#arity for every operand of the case".
func CaseOperandVertexID(typeName, caseName string, oneBasedIndex int) string {
	return fmt.Sprintf("%s::%s#%d", typeName, caseName, oneBasedIndex)
}

// Build constructs the reference graph for a parsed Model.
//
// Every top-level name gets a Type vertex. Newtype operands and record
// fields get Field vertices; sum case operands get CaseOperand vertices.
// An edge runs from an owning type to each of its operand vertices, and
// from each operand vertex to the type vertex of its (unwrapped) target -
// except for array slots, which never contribute the second edge: an array
// already provides the heap boundary that sizing needs, and a cast cannot
// traverse one.
func Build(m *schema.Model) *Graph {
	g := New()

	for _, name := range m.Order {
		g.ensureVertex(name, VertexType)
	}

	for _, name := range m.Order {
		switch kind, _ := m.KindOf(name); kind {
		case schema.KindNewtype:
			buildNewtype(g, m.Newtypes[name])
		case schema.KindRecord:
			buildRecord(g, m.Records[name])
		case schema.KindSum:
			buildSum(g, m.Sums[name])
		}
	}

	return g
}

func buildNewtype(g *Graph, spec *schema.NewtypeSpec) {
	if len(spec.Operands) == 0 {
		return
	}
	ref := spec.Operands[0]
	id := FieldVertexID(spec.Name, "0")
	v := g.ensureVertex(id, VertexField)
	v.Slot = ref
	v.OwnerType = spec.Name

	g.addEdge(spec.Name, id)
	linkOperandTarget(g, id, ref)
}

func buildRecord(g *Graph, spec *schema.RecordSpec) {
	for _, f := range spec.Fields {
		id := FieldVertexID(spec.Name, f.Name)
		v := g.ensureVertex(id, VertexField)
		v.Slot = f.Type
		v.OwnerType = spec.Name

		g.addEdge(spec.Name, id)
		linkOperandTarget(g, id, f.Type)
	}
}

func buildSum(g *Graph, spec *schema.SumSpec) {
	for _, c := range spec.Cases {
		for i, operand := range c.Operands {
			id := CaseOperandVertexID(spec.Name, c.Name, i+1)
			v := g.ensureVertex(id, VertexCaseOperand)
			v.Slot = operand
			v.OwnerType = spec.Name
			v.CaseName = c.Name
			v.Arity = len(c.Operands)

			g.addEdge(spec.Name, id)
			linkOperandTarget(g, id, operand)
		}
	}
}

// linkOperandTarget adds the operand-vertex -> target-type-vertex edge,
// unless the slot is an array (which must not participate in either the
// sizing graph's cycle search or the cast graph's path search).
func linkOperandTarget(g *Graph, operandID string, ref *schema.TypeRef) {
	if ref == nil || ref.Target == "" || ref.IsArray {
		return
	}
	g.ensureVertex(ref.Target, VertexType)
	g.addEdge(operandID, ref.Target)
}
