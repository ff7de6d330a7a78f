// Package rustgen is the emitter: a straight projection of the
// cycle-finalized schema.Model and the pathinfer.Path slice into Rust
// source text. It never mutates the model; every decision it makes was
// already made upstream.
package rustgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teranos/schemagen/pathinfer"
	"github.com/teranos/schemagen/schema"
	"github.com/teranos/schemagen/typegen/util"
)

// Emit renders the complete Rust module: preamble, one declaration per
// spec, one reflection impl per sum, one trace impl per spec, one
// conversion impl per inferred path, and a size-printing test fixture.
func Emit(m *schema.Model, paths []*pathinfer.Path) string {
	var sb strings.Builder

	writePreamble(&sb)

	for _, name := range m.Order {
		switch kind, _ := m.KindOf(name); kind {
		case schema.KindNewtype:
			writeNewtype(&sb, m, m.Newtypes[name])
		case schema.KindRecord:
			writeRecord(&sb, m, m.Records[name])
		case schema.KindSum:
			writeSum(&sb, m, m.Sums[name])
			writeReflection(&sb, m.Sums[name])
		}
		writeTrace(&sb, m, name)
	}

	writeConversions(&sb, m, paths)
	writeSizeFixture(&sb, m)

	return sb.String()
}

func writePreamble(sb *strings.Builder) {
	sb.WriteString("// Code generated by schemagen from ast.yaml. DO NOT EDIT.\n\n")
	sb.WriteString("use std::convert::TryFrom;\n\n")
	sb.WriteString("// Marker is supplied by the GC runtime this module is linked into; trace()\n")
	sb.WriteString("// walks owned children and reports them to it.\n")
	sb.WriteString("use crate::gc::Marker;\n\n")
	sb.WriteString("/// Failure to narrow a tagged union down to one of its cases.\n")
	sb.WriteString("#[derive(Debug, Clone, PartialEq, Eq)]\n")
	sb.WriteString("pub struct ConvertError {\n")
	sb.WriteString("    pub from: &'static str,\n")
	sb.WriteString("    pub to: &'static str,\n")
	sb.WriteString("}\n\n")
	sb.WriteString("impl std::fmt::Display for ConvertError {\n")
	sb.WriteString("    fn fmt(&self, f: &mut std::fmt::Formatter<'_>) -> std::fmt::Result {\n")
	sb.WriteString("        write!(f, \"cannot narrow {} into {}\", self.from, self.to)\n")
	sb.WriteString("    }\n")
	sb.WriteString("}\n\n")
	sb.WriteString("impl std::error::Error for ConvertError {}\n\n")
}

// deriveAttr renders the #[derive(...)] line from the config's derive list
// falling back to the minimum every generated type needs.
func deriveAttr(cfg schema.Config) string {
	derive := cfg.Derive
	if len(derive) == 0 {
		derive = []string{"Debug", "Clone"}
	}
	return fmt.Sprintf("#[derive(%s)]\n", strings.Join(derive, ", "))
}

func visPrefix(cfg schema.Config) string {
	if cfg.Visibility == "" {
		return "pub "
	}
	return cfg.Visibility + " "
}

// rustType renders the Rust surface type for a TypeRef, wrapping the leaf
// in Box, then Vec, then Option (innermost first), and substituting the
// boxed form for an unsized string leaf outside an array.
func rustType(ref *schema.TypeRef) string {
	if ref == nil || ref.Target == "" {
		return "()"
	}
	leaf := rustLeaf(ref.Target)
	if ref.Target == schema.PrimStr && !ref.IsArray {
		leaf = "Box<str>"
	} else if ref.IsBoxed {
		leaf = fmt.Sprintf("Box<%s>", leaf)
	}
	if ref.IsArray {
		leaf = fmt.Sprintf("Vec<%s>", leaf)
	}
	if ref.IsOptional {
		leaf = fmt.Sprintf("Option<%s>", leaf)
	}
	return leaf
}

func rustLeaf(target string) string {
	switch target {
	case schema.PrimU8:
		return "u8"
	case schema.PrimChar:
		return "char"
	case schema.PrimBool:
		return "bool"
	case schema.PrimUsize:
		return "usize"
	case schema.PrimStr:
		return "str"
	case schema.PrimString:
		return "String"
	default:
		return target
	}
}

func writeNewtype(sb *strings.Builder, m *schema.Model, spec *schema.NewtypeSpec) {
	sb.WriteString(deriveAttr(m.Config))
	vis := visPrefix(m.Config)
	switch len(spec.Operands) {
	case 0:
		sb.WriteString(fmt.Sprintf("%sstruct %s;\n\n", vis, spec.Name))
	default:
		sb.WriteString(fmt.Sprintf("%sstruct %s(%s%s);\n\n", vis, spec.Name, vis, rustType(spec.Operands[0])))
	}
}

func writeRecord(sb *strings.Builder, m *schema.Model, spec *schema.RecordSpec) {
	sb.WriteString(deriveAttr(m.Config))
	vis := visPrefix(m.Config)
	sb.WriteString(fmt.Sprintf("%sstruct %s {\n", vis, spec.Name))
	for _, f := range spec.Fields {
		sb.WriteString(fmt.Sprintf("    %s%s: %s,\n", vis, util.ToSnakeCase(f.Name), rustType(f.Type)))
	}
	sb.WriteString("}\n\n")
}

func writeSum(sb *strings.Builder, m *schema.Model, spec *schema.SumSpec) {
	sb.WriteString(deriveAttr(m.Config))
	vis := visPrefix(m.Config)
	sb.WriteString(fmt.Sprintf("%senum %s {\n", vis, spec.Name))
	for _, c := range spec.Cases {
		switch len(c.Operands) {
		case 0:
			sb.WriteString(fmt.Sprintf("    %s,\n", c.Name))
		default:
			operandTypes := make([]string, len(c.Operands))
			for i, op := range c.Operands {
				operandTypes[i] = rustType(op)
			}
			sb.WriteString(fmt.Sprintf("    %s(%s),\n", c.Name, strings.Join(operandTypes, ", ")))
		}
	}
	sb.WriteString("}\n\n")
}

// writeReflection emits a tag-to-payload-type table: given the sum's discriminant, a
// constant-time lookup of the active case's single payload type name.
// Cases with arity != 1 have no single payload type, so their table entry
// is the sentinel "()".
func writeReflection(sb *strings.Builder, spec *schema.SumSpec) {
	sb.WriteString(fmt.Sprintf("impl %s {\n", spec.Name))
	sb.WriteString("    pub const PAYLOAD_TYPES: &'static [&'static str] = &[\n")
	for _, c := range spec.Cases {
		name := "()"
		if len(c.Operands) == 1 {
			name = rustType(c.Operands[0])
		}
		sb.WriteString(fmt.Sprintf("        \"%s\",\n", name))
	}
	sb.WriteString("    ];\n\n")
	sb.WriteString("    pub fn payload_type(&self) -> &'static str {\n")
	sb.WriteString("        Self::PAYLOAD_TYPES[self.tag() as usize]\n")
	sb.WriteString("    }\n\n")
	sb.WriteString("    pub fn tag(&self) -> u8 {\n")
	sb.WriteString("        match self {\n")
	for i, c := range spec.Cases {
		sb.WriteString(fmt.Sprintf("            %s::%s%s => %d,\n", spec.Name, c.Name, matchPattern(c), i))
	}
	sb.WriteString("        }\n")
	sb.WriteString("    }\n")
	sb.WriteString("}\n\n")
}

func matchPattern(c schema.CaseSpec) string {
	if len(c.Operands) == 0 {
		return ""
	}
	placeholders := make([]string, len(c.Operands))
	for i := range placeholders {
		placeholders[i] = "_"
	}
	return "(" + strings.Join(placeholders, ", ") + ")"
}

// writeTrace emits the GC trace method: a structural descent visiting
// every owned child whose leaf is not a primitive exactly once. Boxed
// children are still owned, so they are visited too; only array elements
// are walked with a loop rather than a single call.
func writeTrace(sb *strings.Builder, m *schema.Model, name string) {
	sb.WriteString(fmt.Sprintf("impl %s {\n", name))
	sb.WriteString("    pub fn trace(&self, marker: &Marker) {\n")

	switch kind, _ := m.KindOf(name); kind {
	case schema.KindNewtype:
		spec := m.Newtypes[name]
		if len(spec.Operands) == 1 && traceable(m, spec.Operands[0]) {
			sb.WriteString("        " + traceExpr(spec.Operands[0], "self.0") + ";\n")
		}
	case schema.KindRecord:
		spec := m.Records[name]
		for _, f := range spec.Fields {
			if traceable(m, f.Type) {
				sb.WriteString("        " + traceExpr(f.Type, "self."+util.ToSnakeCase(f.Name)) + ";\n")
			}
		}
	case schema.KindSum:
		spec := m.Sums[name]
		sb.WriteString("        match self {\n")
		for _, c := range spec.Cases {
			writeTraceArm(sb, m, spec.Name, c)
		}
		sb.WriteString("        }\n")
	}

	sb.WriteString("    }\n")
	sb.WriteString("}\n\n")
}

func writeTraceArm(sb *strings.Builder, m *schema.Model, sumName string, c schema.CaseSpec) {
	if len(c.Operands) == 0 {
		sb.WriteString(fmt.Sprintf("            %s::%s => {}\n", sumName, c.Name))
		return
	}
	bindings := make([]string, len(c.Operands))
	var body []string
	for i, op := range c.Operands {
		b := fmt.Sprintf("v%d", i)
		bindings[i] = b
		if traceable(m, op) {
			body = append(body, "                "+traceExpr(op, b)+";")
		}
	}
	sb.WriteString(fmt.Sprintf("            %s::%s(%s) => {\n", sumName, c.Name, strings.Join(bindings, ", ")))
	for _, line := range body {
		sb.WriteString(line + "\n")
	}
	sb.WriteString("            }\n")
}

// traceable reports whether a slot's leaf type owns children that
// themselves need tracing: primitives never do.
func traceable(m *schema.Model, ref *schema.TypeRef) bool {
	return ref != nil && ref.Target != "" && !schema.IsPrimitive(ref.Target)
}

func traceExpr(ref *schema.TypeRef, expr string) string {
	switch {
	case ref.IsArray && ref.IsOptional:
		return fmt.Sprintf("if let Some(items) = %s.as_ref() { for item in items { item.trace(marker); } }", expr)
	case ref.IsArray:
		return fmt.Sprintf("for item in %s.iter() { item.trace(marker); }", expr)
	case ref.IsOptional:
		return fmt.Sprintf("if let Some(inner) = %s.as_ref() { inner.trace(marker); }", expr)
	default:
		return fmt.Sprintf("%s.trace(marker)", expr)
	}
}

// writeConversions emits one impl per inferred path: the lossless
// injection always, and the lossy extraction only when the pair is not
// symmetric.
func writeConversions(sb *strings.Builder, m *schema.Model, paths []*pathinfer.Path) {
	for _, p := range paths {
		writeInjection(sb, p)
		if !p.Lossless {
			writeExtraction(sb, p)
		}
	}
}

// writeInjection emits `impl From<To> for From_type`: construct a From
// value by wrapping the To value up through each hop's case constructor.
func writeInjection(sb *strings.Builder, p *pathinfer.Path) {
	toType := terminalType(p)
	sb.WriteString(fmt.Sprintf("impl From<%s> for %s {\n", toType, p.From))
	sb.WriteString(fmt.Sprintf("    fn from(value: %s) -> Self {\n", toType))

	expr := "value"
	for i := len(p.Hops) - 1; i >= 0; i-- {
		hop := p.Hops[i]
		inner := expr
		if hop.WrapOnConstruct {
			inner = fmt.Sprintf("Box::new(%s)", inner)
		}
		expr = fmt.Sprintf("%s::%s(%s)", hop.SumName, hop.CaseName, inner)
	}
	sb.WriteString(fmt.Sprintf("        %s\n", expr))
	sb.WriteString("    }\n")
	sb.WriteString("}\n\n")
}

// writeExtraction emits `impl TryFrom<From> for To_type`: pattern match
// down through each hop, dereferencing where the previous hop was boxed,
// and fail with ConvertError if any hop doesn't match its case.
func writeExtraction(sb *strings.Builder, p *pathinfer.Path) {
	toType := terminalType(p)
	sb.WriteString(fmt.Sprintf("impl TryFrom<%s> for %s {\n", p.From, toType))
	sb.WriteString("    type Error = ConvertError;\n\n")
	sb.WriteString(fmt.Sprintf("    fn try_from(value: %s) -> Result<Self, Self::Error> {\n", p.From))

	expr := "value"
	for i, hop := range p.Hops {
		if hop.DerefBeforeMatch {
			expr = fmt.Sprintf("*%s", expr)
		}
		matched := fmt.Sprintf("v%d", i)
		sb.WriteString(fmt.Sprintf(
			"        let %s = match %s { %s::%s(inner) => inner, _ => return Err(ConvertError { from: \"%s\", to: \"%s\" }) };\n",
			matched, expr, hop.SumName, hop.CaseName, p.From, toType,
		))
		expr = matched
	}
	sb.WriteString(fmt.Sprintf("        Ok(%s)\n", expr))
	sb.WriteString("    }\n")
	sb.WriteString("}\n\n")
}

func terminalType(p *pathinfer.Path) string {
	if p.TerminalBoxedStr {
		return "Box<str>"
	}
	return p.To
}

// writeSizeFixture emits the size-printing test fixture from the
// output contract: a sanity check that every generated type stayed sized.
func writeSizeFixture(sb *strings.Builder, m *schema.Model) {
	sb.WriteString("#[cfg(test)]\n")
	sb.WriteString("mod generated_sizes {\n")
	sb.WriteString("    use super::*;\n\n")
	sb.WriteString("    #[test]\n")
	sb.WriteString("    fn print_sizes() {\n")
	names := append([]string(nil), m.Order...)
	sort.Strings(names)
	for _, name := range names {
		sb.WriteString(fmt.Sprintf(
			"        println!(\"{}: {} bytes\", \"%s\", std::mem::size_of::<%s>());\n", name, name,
		))
	}
	sb.WriteString("    }\n")
	sb.WriteString("}\n")
}
