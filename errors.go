package typeset

import (
	"errors"
	"fmt"
)

// Sentinel errors for the typeset package.
var (
	// ErrEmptyText is returned when a typesetter is created without text.
	ErrEmptyText = errors.New("typeset: empty text")

	// ErrClosed is returned when a closed typesetter is used.
	ErrClosed = errors.New("typeset: typesetter closed")
)

// RangeError reports a character index outside [0, Bound].
type RangeError struct {
	Index int
	Bound int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("typeset: index %d out of range [0, %d]", e.Index, e.Bound)
}

// TypefaceError reports characters that no typeface attribute covers.
type TypefaceError struct {
	Start int
	End   int
}

func (e *TypefaceError) Error() string {
	return fmt.Sprintf("typeset: no typeface for characters [%d, %d)", e.Start, e.End)
}

// AttributeError reports an attribute with an invalid value.
type AttributeError struct {
	Name  string
	Value float64
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("typeset: invalid %s %v", e.Name, e.Value)
}

func checkRange(start, end, bound int) error {
	if start < 0 || start > bound {
		return &RangeError{Index: start, Bound: bound}
	}
	if end < start || end > bound {
		return &RangeError{Index: end, Bound: bound}
	}
	return nil
}
