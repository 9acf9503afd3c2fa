package types

import (
	"errors"
	"fmt"
)

var (
	// ErrEndOfInput is returned when a token is required but none remain.
	ErrEndOfInput = errors.New("end of input")

	// ErrUnknownType is returned when a type name is not registered.
	ErrUnknownType = errors.New("unknown type")

	// ErrCyclicAlias is returned when an alias chain revisits a name.
	ErrCyclicAlias = errors.New("cyclic alias")

	// ErrIncompleteType is returned when an opaque aggregate or void is
	// used where its size is required.
	ErrIncompleteType = errors.New("incomplete type")
)

// SyntaxError reports a grammar violation in a declaration string.
type SyntaxError struct {
	Token string // offending token text, "" at end of input
	Pos   int    // byte offset of the offending token
	Msg   string
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("syntax error at %d: %s (at end of input)", e.Pos, e.Msg)
	}
	return fmt.Sprintf("syntax error at %d: %s (near %q)", e.Pos, e.Msg, e.Token)
}

// Unwrap makes a syntax error at end of input match ErrEndOfInput.
func (e *SyntaxError) Unwrap() error {
	if e.Token == "" {
		return ErrEndOfInput
	}
	return nil
}

// UnknownType returns an ErrUnknownType error naming the type.
func UnknownType(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownType, name)
}
