package cycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teranos/schemagen/graph"
	"github.com/teranos/schemagen/schema"
)

func build(t *testing.T, doc string) (*schema.Model, *graph.Graph) {
	t.Helper()
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(doc), &node))
	m, err := schema.Parse(&node)
	require.NoError(t, err)
	return m, graph.Build(m)
}

// Quotation's operand must be boxed after the cycle breaker runs.
func TestBreak_SelfCycle(t *testing.T) {
	m, g := build(t, `
models:
  Datum:
    - Quotation: Datum
    - EmptyList: []
`)
	require.NoError(t, Break(g))

	sum := m.Sums["Datum"]
	quote, _ := sum.CaseByName("Quotation")
	assert.True(t, quote.Operands[0].IsBoxed)
}

// At least one operand on each side is boxed.
func TestBreak_CrossCycle(t *testing.T) {
	m, g := build(t, `
models:
  A:
    - B: B
  B:
    - A: A
`)
	require.NoError(t, Break(g))

	a, _ := m.Sums["A"].CaseByName("B")
	b, _ := m.Sums["B"].CaseByName("A")
	assert.True(t, a.Operands[0].IsBoxed || b.Operands[0].IsBoxed)
}

// List refers to Atom, not Record, so no cycle exists.
func TestBreak_NoCycle(t *testing.T) {
	m, g := build(t, `
models:
  Record:
    - EmptyList: []
    - List
  List:
    - Atom
  Atom: String
`)
	require.NoError(t, Break(g))

	sum := m.Sums["Record"]
	list, _ := sum.CaseByName("List")
	assert.False(t, list.Operands[0].IsBoxed)
}

// Re-running Break on its own output adds no further
// isBoxed annotations.
func TestBreak_Idempotent(t *testing.T) {
	m, g := build(t, `
models:
  A:
    - B: B
  B:
    - A: A
`)
	require.NoError(t, Break(g))

	before := snapshotBoxed(m)
	require.NoError(t, Break(g))
	after := snapshotBoxed(m)

	assert.Equal(t, before, after)
}

// Array slots are never boxed, even when they participate in a cycle.
func TestBreak_ArraySlotsNeverBoxed(t *testing.T) {
	m, g := build(t, `
models:
  Tree:
    - Node: [Tree]
    - Leaf: []
`)
	require.NoError(t, Break(g))

	node, _ := m.Sums["Tree"].CaseByName("Node")
	assert.True(t, node.Operands[0].IsArray)
	assert.False(t, node.Operands[0].IsBoxed)
}

func snapshotBoxed(m *schema.Model) map[string]bool {
	out := make(map[string]bool)
	for name, s := range m.Sums {
		for _, c := range s.Cases {
			for i, op := range c.Operands {
				out[name+"::"+c.Name+"#"+string(rune('0'+i))] = op.IsBoxed
			}
		}
	}
	for name, r := range m.Records {
		for _, f := range r.Fields {
			out[name+"."+f.Name] = f.Type.IsBoxed
		}
	}
	for name, nt := range m.Newtypes {
		for _, op := range nt.Operands {
			out[name+".0"] = op.IsBoxed
		}
	}
	return out
}
