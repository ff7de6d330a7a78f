package pathinfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teranos/schemagen/cycle"
	"github.com/teranos/schemagen/graph"
	"github.com/teranos/schemagen/schema"
)

func build(t *testing.T, doc string) *graph.Graph {
	t.Helper()
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(doc), &node))
	m, err := schema.Parse(&node)
	require.NoError(t, err)
	g := graph.Build(m)
	require.NoError(t, cycle.Break(g))
	return g
}

func findPath(paths []*Path, from, to string) *Path {
	for _, p := range paths {
		if p.From == from && p.To == to {
			return p
		}
	}
	return nil
}

// A path from Datum to itself must not be emitted.
func TestInfer_NoSelfPair(t *testing.T) {
	g := build(t, `
models:
  Datum:
    - Quotation: Datum
    - EmptyList: []
`)
	paths := Infer(g)
	assert.Nil(t, findPath(paths, "Datum", "Datum"))
}

// Both directions exist and are lossless, so each
// emits only an injection.
func TestInfer_CrossCycleLossless(t *testing.T) {
	g := build(t, `
models:
  A:
    - B: B
  B:
    - A: A
`)
	paths := Infer(g)

	ab := findPath(paths, "A", "B")
	ba := findPath(paths, "B", "A")
	require.NotNil(t, ab)
	require.NotNil(t, ba)
	assert.True(t, ab.Lossless)
	assert.True(t, ba.Lossless)
}

// No path reaches X or Y from Pair; arity > 1 filters
// the hop.
func TestInfer_MultiArityFiltered(t *testing.T) {
	g := build(t, `
models:
  Pair:
    - Both: [X, Y]
  X:
    - Leaf: []
  Y:
    - Leaf: []
`)
	paths := Infer(g)
	assert.Nil(t, findPath(paths, "Pair", "X"))
	assert.Nil(t, findPath(paths, "Pair", "Y"))
}

// A chain of two single-operand cases produces a two-hop path.
func TestInfer_TwoHopChain(t *testing.T) {
	g := build(t, `
models:
  Outer:
    - Middle: Middle
  Middle:
    - Inner: Inner
  Inner:
    - Leaf: []
`)
	paths := Infer(g)

	p := findPath(paths, "Outer", "Inner")
	require.NotNil(t, p)
	require.Len(t, p.Hops, 2)
	assert.Equal(t, "Outer", p.Hops[0].SumName)
	assert.Equal(t, "Middle", p.Hops[0].CaseName)
	assert.Equal(t, "Middle", p.Hops[1].SumName)
	assert.Equal(t, "Inner", p.Hops[1].CaseName)
	assert.False(t, p.Lossless) // Inner has no case reaching back to Outer
}

// A path through a record field must be rejected entirely.
func TestInfer_RecordFieldBlocksPath(t *testing.T) {
	g := build(t, `
models:
  Outer:
    - Wrap: Box2
  Box2:
    inner: Inner
  Inner:
    - Leaf: []
`)
	paths := Infer(g)
	assert.Nil(t, findPath(paths, "Outer", "Inner"))
	// Reaching Box2 itself (the record value, not through its fields) is a
	// legitimate single-hop cast target.
	assert.NotNil(t, findPath(paths, "Outer", "Box2"))
}

// A three-way cycle boxes every participating case operand; a path that
// crosses one of those hops must carry WrapOnConstruct.
func TestInfer_BoxedHopWrapsOnConstruct(t *testing.T) {
	g := build(t, `
models:
  A:
    - Next: B
  B:
    - Next: C
  C:
    - Next: A
`)
	paths := Infer(g)

	p := findPath(paths, "A", "B")
	require.NotNil(t, p)
	require.Len(t, p.Hops, 1)
	assert.True(t, p.Hops[0].Payload.IsBoxed)
	assert.True(t, p.Hops[0].WrapOnConstruct)
}
