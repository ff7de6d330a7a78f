// Package schema holds the parsed, in-memory form of an ADT schema: the
// named top-level specs (newtypes, records, sums) and their type references,
// plus the generator config section.
package schema

// Primitive leaf type names recognized by the generator. These never need
// a top-level schema entry and are never boxed by the cycle breaker.
const (
	PrimU8     = "u8"
	PrimChar   = "char"
	PrimBool   = "bool"
	PrimUsize  = "usize"
	PrimStr    = "str"
	PrimString = "String"
)

// IsPrimitive reports whether name is one of the reserved leaf types.
func IsPrimitive(name string) bool {
	switch name {
	case PrimU8, PrimChar, PrimBool, PrimUsize, PrimStr, PrimString:
		return true
	default:
		return false
	}
}

// TypeRef is a reference to another type, decorated with the attributes
// that determine how it is stored and how it participates in sizing and
// cast-path inference.
type TypeRef struct {
	// Target is the leaf type name: either a primitive or the name of a
	// top-level spec. Dangling references (no matching spec and not a
	// primitive) are accepted silently, per the schema's historical
	// leniency; see DESIGN.md.
	Target string

	// IsArray marks this slot as "one element list" in the raw schema -
	// an owned, variable-length sequence of Target. Array slots never
	// contribute graph edges: the array itself is a heap boundary.
	IsArray bool

	// IsOptional marks a trailing "?" decorator.
	IsOptional bool

	// IsBoxed marks a leading "~" decorator, or cycle-break annotation
	// added later by the cycle breaker.
	IsBoxed bool

	// IsSized is false only when Target is the unsized string primitive
	// (str). It is computed once at parse time and re-asserted by the
	// cycle breaker; nothing else ever changes it.
	IsSized bool
}

// newTypeRef returns an undecorated TypeRef for target, sized unless target
// is the unsized string primitive.
func newTypeRef(target string) *TypeRef {
	return &TypeRef{Target: target, IsSized: target != PrimStr}
}

// NewtypeSpec is a type with zero or one unnamed operand.
type NewtypeSpec struct {
	Name     string
	Operands []*TypeRef // len 0 (unit) or 1 (transparent wrapper)
}

// Field is one named slot of a RecordSpec, in schema order.
type Field struct {
	Name string
	Type *TypeRef
}

// RecordSpec is a type whose value is a tuple of named, typed fields.
type RecordSpec struct {
	Name   string
	Fields []Field
}

// CaseSpec is one alternative of a SumSpec.
type CaseSpec struct {
	Name     string
	Operands []*TypeRef
}

// SumSpec is an algebraic type with a finite, named set of alternatives.
type SumSpec struct {
	Name  string
	Cases []CaseSpec
}

// Kind identifies which of the three spec shapes a top-level name parsed to.
type Kind int

const (
	KindNewtype Kind = iota
	KindRecord
	KindSum
)

// Config is the optional "config" section of the schema document.
type Config struct {
	Derive     []string
	Visibility string
}

// Model is the fully parsed schema: every top-level spec plus config,
// retaining the schema's own declaration order.
type Model struct {
	Newtypes map[string]*NewtypeSpec
	Records  map[string]*RecordSpec
	Sums     map[string]*SumSpec

	// Order lists every top-level name in the order it appeared in the
	// schema document. The emitter writes declarations in this order; path
	// inference sorts its output by type name instead.
	Order []string

	Config Config

	// Warnings holds non-fatal diagnostics accumulated during parsing:
	// unknown document keys, unknown config keys, unreferenced top-level
	// types. These never abort a run.
	Warnings []string
}

// NewModel returns an empty Model ready for the parser to populate.
func NewModel() *Model {
	return &Model{
		Newtypes: make(map[string]*NewtypeSpec),
		Records:  make(map[string]*RecordSpec),
		Sums:     make(map[string]*SumSpec),
	}
}

// Warn records a non-fatal diagnostic.
func (m *Model) Warn(msg string) {
	m.Warnings = append(m.Warnings, msg)
}

// KindOf reports the shape of the top-level name, and whether it exists.
func (m *Model) KindOf(name string) (Kind, bool) {
	if _, ok := m.Newtypes[name]; ok {
		return KindNewtype, true
	}
	if _, ok := m.Records[name]; ok {
		return KindRecord, true
	}
	if _, ok := m.Sums[name]; ok {
		return KindSum, true
	}
	return 0, false
}

// Exists reports whether name is a top-level spec in this model.
func (m *Model) Exists(name string) bool {
	_, ok := m.KindOf(name)
	return ok
}

// CaseByName returns the case with the given name within a sum, if any.
func (s *SumSpec) CaseByName(name string) (*CaseSpec, bool) {
	for i := range s.Cases {
		if s.Cases[i].Name == name {
			return &s.Cases[i], true
		}
	}
	return nil, false
}
