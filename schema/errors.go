package schema

import (
	"fmt"

	"github.com/teranos/schemagen/errors"
)

// Sentinel errors for the parser. Every parse failure wraps one
// of these so callers can distinguish categories with errors.Is, while the
// message carries the offending schema key and raw value.
var (
	ErrUnsupportedShape       = errors.New("unsupported shape")
	ErrDuplicateName          = errors.New("duplicate name")
	ErrDuplicateCase          = errors.New("duplicate case")
	ErrInvalidDecorator       = errors.New("invalid decorator")
	ErrTupleInDisallowedPosition = errors.New("tuple in disallowed position")
)

// UnsupportedShapeError reports a raw schema node whose shape the parser
// has no dispatch rule for at the given position.
func UnsupportedShapeError(position, shape string) error {
	return errors.WithDetailf(
		errors.Wrapf(ErrUnsupportedShape, "at %s", position),
		"raw shape: %s", shape,
	)
}

// DuplicateNameError reports a top-level name that appears more than once.
func DuplicateNameError(kind, name string) error {
	return errors.Wrapf(ErrDuplicateName, "%s %q", kind, name)
}

// DuplicateCaseError reports a sum whose cases are not unique.
func DuplicateCaseError(sum, caseName string) error {
	return errors.Wrapf(ErrDuplicateCase, "case %q in sum %q", caseName, sum)
}

// InvalidDecoratorError reports a scalar type reference that could not be
// parsed under the "~?name?" grammar.
func InvalidDecoratorError(name string) error {
	return errors.Wrapf(ErrInvalidDecorator, "%q", name)
}

// TupleError reports a multi-element sequence used where only a single
// TypeRef is allowed (record field, newtype operand).
func TupleError(position string) error {
	return errors.Wrapf(ErrTupleInDisallowedPosition, "at %s", position)
}

// fieldPosition formats a "Type.field" position string for error messages.
func fieldPosition(typeName, fieldName string) string {
	return fmt.Sprintf("%s.%s", typeName, fieldName)
}

// casePosition formats a "Type[case]" position string for error messages.
func casePosition(typeName, caseName string) string {
	return fmt.Sprintf("%s[%s]", typeName, caseName)
}
