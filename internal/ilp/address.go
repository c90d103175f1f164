// Package ilp implements the binary Interledger v4 packet format: Prepare,
// Fulfill, and Reject, encoded as self-delimiting OER.
package ilp

import (
	"errors"
	"strings"
)

// Address is a dot-separated ILP address, e.g. "g.connector.alice".
// The leftmost label is its scheme (g, private, example, test, ...).
type Address string

// ErrInvalidAddress is returned by Validate for malformed addresses.
var ErrInvalidAddress = errors.New("ilp: invalid address")

const (
	maxAddressLength = 1023
	minAddressLength = 1
)

// Scheme returns the leftmost label of the address.
func (a Address) Scheme() string {
	s := string(a)
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// Validate reports whether the address is a syntactically well-formed ILP
// address: ASCII letters, digits, '_', '~', '-' within each dot-separated
// segment, no empty segments, bounded total length.
func (a Address) Validate() error {
	s := string(a)
	if len(s) < minAddressLength || len(s) > maxAddressLength {
		return ErrInvalidAddress
	}
	segments := strings.Split(s, ".")
	for _, seg := range segments {
		if seg == "" {
			return ErrInvalidAddress
		}
		for i := 0; i < len(seg); i++ {
			c := seg[i]
			switch {
			case c >= 'a' && c <= 'z':
			case c >= 'A' && c <= 'Z':
			case c >= '0' && c <= '9':
			case c == '_' || c == '~' || c == '-':
			default:
				return ErrInvalidAddress
			}
		}
	}
	return nil
}

// HasPrefix reports whether a starts with the given address as a segment
// prefix (used by connectors routing by address prefix; exposed here for
// callers that need to compare their own address against a peer's).
func (a Address) HasPrefix(prefix Address) bool {
	s, p := string(a), string(prefix)
	if !strings.HasPrefix(s, p) {
		return false
	}
	return len(s) == len(p) || s[len(p)] == '.'
}
