package ilp

import "strings"

// ErrorCode is a 3-character ILP error code, e.g. "F08", "T00", "R00".
type ErrorCode string

// Well-known codes referenced directly by the sender engine.
const (
	CodeAmountTooLarge    ErrorCode = "F08"
	CodeApplicationError  ErrorCode = "F99"
	CodeBadRequest        ErrorCode = "F00"
	CodeUnreachable       ErrorCode = "T00"
	CodeInsufficientTimeout ErrorCode = "R00"
)

// Class identifies which of the three ILP error classes a code belongs to.
type Class int

const (
	// ClassFinal codes (F__) never succeed on retry.
	ClassFinal Class = iota
	// ClassTemporary codes (T__) may succeed if retried.
	ClassTemporary
	// ClassRelative codes (R__) depend on the relationship between sender and receiver.
	ClassRelative
	// ClassUnknown is returned for malformed codes.
	ClassUnknown
)

// Class classifies the error code by its leading character.
func (c ErrorCode) Class() Class {
	s := string(c)
	if len(s) != 3 {
		return ClassUnknown
	}
	switch s[0] {
	case 'F':
		return ClassFinal
	case 'T':
		return ClassTemporary
	case 'R':
		return ClassRelative
	default:
		return ClassUnknown
	}
}

// String renders the error code as-is, upper-cased, for inclusion in
// human-readable log lines.
func (c ErrorCode) String() string {
	return strings.ToUpper(string(c))
}
