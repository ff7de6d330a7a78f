package schema

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse reads a decoded YAML document node and produces a Model.
//
// Parsing is shape-directed: the
// *kind* of each node - scalar, singleton sequence, sequence, or mapping -
// determines the kind of type it describes. We read yaml.Node directly
// (rather than decoding into map[string]any) because a Go map does not
// preserve key order, and field/case order is part of the schema's
// contract.
func Parse(doc *yaml.Node) (*Model, error) {
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return NewModel(), nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, UnsupportedShapeError("$", kindName(root))
	}

	m := NewModel()
	var modelsNode, configNode *yaml.Node

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		val := root.Content[i+1]
		switch key {
		case "models":
			modelsNode = val
		case "config":
			configNode = val
		default:
			m.Warn("unknown top-level key " + strconv.Quote(key))
		}
	}

	if modelsNode != nil {
		if modelsNode.Kind != yaml.MappingNode {
			return nil, UnsupportedShapeError("models", kindName(modelsNode))
		}
		if err := parseTopLevel(m, modelsNode); err != nil {
			return nil, err
		}
	}

	if configNode != nil {
		cfg, err := parseConfig(m, configNode)
		if err != nil {
			return nil, err
		}
		m.Config = cfg
	}

	warnUnreferencedTypes(m)

	return m, nil
}

// warnUnreferencedTypes records a warning for every top-level type that no
// spec's field or operand ever names as a target; a type that only refers
// to itself counts as referenced. A type with no
// incoming reference is still emitted - it just can never be reached by a
// cast path, which is usually a sign of a typo or a leftover definition.
func warnUnreferencedTypes(m *Model) {
	referenced := make(map[string]bool, len(m.Order))
	mark := func(ref *TypeRef) {
		if ref != nil && ref.Target != "" {
			referenced[ref.Target] = true
		}
	}
	for _, nt := range m.Newtypes {
		for _, op := range nt.Operands {
			mark(op)
		}
	}
	for _, rec := range m.Records {
		for _, f := range rec.Fields {
			mark(f.Type)
		}
	}
	for _, sum := range m.Sums {
		for _, c := range sum.Cases {
			for _, op := range c.Operands {
				mark(op)
			}
		}
	}
	for _, name := range m.Order {
		if !referenced[name] {
			m.Warn("type " + strconv.Quote(name) + " is never referenced by another type")
		}
	}
}

func parseTopLevel(m *Model, modelsNode *yaml.Node) error {
	for i := 0; i+1 < len(modelsNode.Content); i += 2 {
		name := modelsNode.Content[i].Value
		raw := modelsNode.Content[i+1]

		if m.Exists(name) {
			return DuplicateNameError("type", name)
		}

		switch raw.Kind {
		case yaml.ScalarNode:
			ref, err := parseScalarType(name, raw)
			if err != nil {
				return err
			}
			m.Newtypes[name] = &NewtypeSpec{Name: name, Operands: []*TypeRef{ref}}

		case yaml.SequenceNode:
			switch len(raw.Content) {
			case 0:
				m.Newtypes[name] = &NewtypeSpec{Name: name, Operands: nil}
			case 1:
				if raw.Content[0].Kind == yaml.MappingNode {
					// A lone "Case: payload" alternative is a one-case sum,
					// not an array.
					cases, err := parseCases(name, raw)
					if err != nil {
						return err
					}
					m.Sums[name] = &SumSpec{Name: name, Cases: cases}
				} else {
					ref, err := parseArrayType(name, raw)
					if err != nil {
						return err
					}
					m.Newtypes[name] = &NewtypeSpec{Name: name, Operands: []*TypeRef{ref}}
				}
			default:
				cases, err := parseCases(name, raw)
				if err != nil {
					return err
				}
				m.Sums[name] = &SumSpec{Name: name, Cases: cases}
			}

		case yaml.MappingNode:
			fields, err := parseFields(name, raw)
			if err != nil {
				return err
			}
			m.Records[name] = &RecordSpec{Name: name, Fields: fields}

		default:
			return UnsupportedShapeError(name, kindName(raw))
		}

		m.Order = append(m.Order, name)
	}
	return nil
}

// parseType dispatches on a raw operand/field node: a scalar string, an
// empty sequence (unit payload sentinel), or a single-element sequence
// (array). Longer sequences are rejected here with a tuple error; the one
// position where a tuple is legal (a sum case payload) splits it into
// elements before calling this function.
func parseType(position string, node *yaml.Node) (*TypeRef, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return parseScalarType(position, node)
	case yaml.SequenceNode:
		switch len(node.Content) {
		case 0:
			return &TypeRef{Target: "", IsSized: true}, nil
		case 1:
			return parseArrayType(position, node)
		default:
			return nil, TupleError(position)
		}
	default:
		return nil, UnsupportedShapeError(position, kindName(node))
	}
}

// parseScalarType applies the "~name?" decorator grammar: a leading
// "~" marks the slot boxed, a trailing "?" marks it optional. Box is
// stripped before optional, per the textual order the reference tool uses.
func parseScalarType(position string, node *yaml.Node) (*TypeRef, error) {
	raw := node.Value
	if raw == "" {
		return nil, InvalidDecoratorError(raw)
	}

	boxed := false
	rest := raw
	if strings.HasPrefix(rest, "~") {
		boxed = true
		rest = rest[1:]
	}

	optional := false
	if strings.HasSuffix(rest, "?") {
		optional = true
		rest = rest[:len(rest)-1]
	}

	if rest == "" || strings.ContainsAny(rest, "~?") {
		return nil, InvalidDecoratorError(raw)
	}

	return &TypeRef{
		Target:     rest,
		IsOptional: optional,
		IsBoxed:    boxed,
		IsSized:    rest != PrimStr,
	}, nil
}

// parseArrayType handles a single-element sequence: the modifiers on the
// contained scalar (box/optional) apply to the element, and IsArray is set
// on the resulting slot.
func parseArrayType(position string, node *yaml.Node) (*TypeRef, error) {
	elem, err := parseType(position, node.Content[0])
	if err != nil {
		return nil, err
	}
	elem.IsArray = true
	return elem, nil
}

// parseCases parses the alternatives of a sum.
func parseCases(sumName string, seq *yaml.Node) ([]CaseSpec, error) {
	seen := make(map[string]bool, len(seq.Content))
	cases := make([]CaseSpec, 0, len(seq.Content))

	for _, alt := range seq.Content {
		var caseName string
		var operands []*TypeRef

		switch alt.Kind {
		case yaml.ScalarNode:
			// Self-named case: "Case" => case "Case" with a single operand
			// of type "Case".
			caseName = alt.Value
			ref, err := parseScalarType(casePosition(sumName, caseName), alt)
			if err != nil {
				return nil, err
			}
			operands = []*TypeRef{ref}

		case yaml.MappingNode:
			if len(alt.Content) != 2 {
				return nil, UnsupportedShapeError(sumName, kindName(alt))
			}
			caseName = alt.Content[0].Value
			payload := alt.Content[1]
			pos := casePosition(sumName, caseName)

			switch payload.Kind {
			case yaml.ScalarNode:
				ref, err := parseScalarType(pos, payload)
				if err != nil {
					return nil, err
				}
				operands = []*TypeRef{ref}

			case yaml.SequenceNode:
				switch len(payload.Content) {
				case 0:
					operands = nil
				case 1:
					ref, err := parseArrayType(pos, payload)
					if err != nil {
						return nil, err
					}
					operands = []*TypeRef{ref}
				default:
					// Heterogeneous tuple case: one operand per element,
					// each individually allowed to be an array.
					operands = make([]*TypeRef, 0, len(payload.Content))
					for idx, elemNode := range payload.Content {
						ref, err := parseType(elemPosition(pos, idx), elemNode)
						if err != nil {
							return nil, err
						}
						operands = append(operands, ref)
					}
				}

			default:
				return nil, UnsupportedShapeError(pos, kindName(payload))
			}

		default:
			return nil, UnsupportedShapeError(sumName, kindName(alt))
		}

		if seen[caseName] {
			return nil, DuplicateCaseError(sumName, caseName)
		}
		seen[caseName] = true

		cases = append(cases, CaseSpec{Name: caseName, Operands: operands})
	}

	return cases, nil
}

// parseFields parses a record's field mapping. A value that is a
// multi-element sequence is a parse error: records name their fields, so a
// heterogeneous tuple has no way to expose one name per element.
func parseFields(typeName string, mapping *yaml.Node) ([]Field, error) {
	fields := make([]Field, 0, len(mapping.Content)/2)
	seen := make(map[string]bool, len(mapping.Content)/2)

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		fieldName := mapping.Content[i].Value
		valueNode := mapping.Content[i+1]
		pos := fieldPosition(typeName, fieldName)

		if valueNode.Kind == yaml.SequenceNode && len(valueNode.Content) > 1 {
			return nil, TupleError(pos)
		}

		ref, err := parseType(pos, valueNode)
		if err != nil {
			return nil, err
		}

		if seen[fieldName] {
			return nil, DuplicateNameError("field", pos)
		}
		seen[fieldName] = true

		fields = append(fields, Field{Name: fieldName, Type: ref})
	}

	return fields, nil
}

func parseConfig(m *Model, node *yaml.Node) (Config, error) {
	var cfg Config
	if node.Kind != yaml.MappingNode {
		return cfg, UnsupportedShapeError("config", kindName(node))
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		switch key {
		case "derive":
			if val.Kind != yaml.SequenceNode {
				return cfg, UnsupportedShapeError("config.derive", kindName(val))
			}
			for _, item := range val.Content {
				cfg.Derive = append(cfg.Derive, item.Value)
			}
		case "visibility":
			if val.Kind != yaml.ScalarNode {
				return cfg, UnsupportedShapeError("config.visibility", kindName(val))
			}
			cfg.Visibility = val.Value
		default:
			m.Warn("unknown config key " + strconv.Quote(key))
		}
	}
	return cfg, nil
}

func elemPosition(base string, idx int) string {
	return base + "#" + strconv.Itoa(idx)
}

func kindName(node *yaml.Node) string {
	if node == nil {
		return "null"
	}
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return "null"
		}
		return "scalar"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
