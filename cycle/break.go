// Package cycle finds strongly connected components in
// the reference graph and boxes every operand slot participating in a
// cycle, so that every schema type ends up with a statically known size

package cycle

import (
	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/graph"
	"github.com/teranos/schemagen/schema"
)

// Break runs the cycle breaker over g, mutating the TypeRefs it reaches
// through g's Field and CaseOperand vertices. It is the sole mutator of
// isBoxed and isSized in the schema's lifecycle.
//
// The reference tool boxes every cycle-participating slot rather than a
// minimum feedback arc set; that is heavier than necessary but
// deterministic and schema-order-independent. Re-running Break
// on its own output is a no-op: every slot it would box
// is already boxed.
func Break(g *graph.Graph) error {
	forceUnsizedStringLeaves(g)

	for _, component := range tarjan(g) {
		if !isCycle(g, component) {
			continue
		}
		for _, id := range component {
			v := g.Vertices[id]
			if v.Kind == graph.VertexType {
				continue
			}
			if v.Slot == nil || v.Slot.IsArray {
				// Array slots are redundant to box: the array is already a
				// heap boundary, and array vertices have no outgoing edge in
				// the cast/sizing graph in the first place.
				continue
			}
			v.Slot.IsBoxed = true
		}
	}

	return validateSizing(g)
}

// isCycle reports whether a Tarjan component represents an actual cycle:
// either more than one vertex, or a single vertex with a self-loop.
func isCycle(g *graph.Graph, component []string) bool {
	if len(component) > 1 {
		return true
	}
	return hasSelfLoop(g, component[0])
}

// forceUnsizedStringLeaves re-asserts isSized=false on every slot whose
// leaf target is the unsized string primitive. This is already the
// parser's default (schema.parseScalarType), so in practice this pass is a
// verification step that also covers any TypeRef reachable only through
// the graph rather than freshly parsed.
func forceUnsizedStringLeaves(g *graph.Graph) {
	for _, v := range g.Vertices {
		if v.Slot != nil && v.Slot.Target == schema.PrimStr {
			v.Slot.IsSized = false
		}
	}
}

// validateSizing checks that every TypeRef reachable from any
// top-level type is an array, a box, sized, or a primitive sized leaf. A
// violation here means a slot targets the unsized str leaf with neither a
// box nor an array around it; it is reported as a topology error rather
// than silently emitting an unsized type.
func validateSizing(g *graph.Graph) error {
	for _, v := range g.Vertices {
		if v.Kind == graph.VertexType || v.Slot == nil {
			continue
		}
		ref := v.Slot
		if ref.IsArray || ref.IsBoxed || ref.IsSized {
			continue
		}
		return errors.Newf(
			"topology error: %s has no heap boundary and targets the unsized leaf %q",
			v.ID, ref.Target,
		)
	}
	return nil
}
