// Package bidi splits text into bidirectional paragraphs and level runs.
//
// The Algorithm interface is the contract the typesetter consumes. Default
// implements it on top of golang.org/x/text/unicode/bidi, adding paragraph
// splitting, base level detection and the line-level reordering rules
// (UAX #9 L1 and L2) that x/text does not expose.
package bidi

import "errors"

// Direction is the base direction requested for a paragraph.
type Direction uint8

const (
	// Auto picks the direction of the first strong character (UAX #9 P2, P3).
	Auto Direction = iota
	// LeftToRight forces an even base level.
	LeftToRight
	// RightToLeft forces an odd base level.
	RightToLeft
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case LeftToRight:
		return "LTR"
	case RightToLeft:
		return "RTL"
	default:
		return "Auto"
	}
}

// ErrReleased is returned when a released paragraph is used.
var ErrReleased = errors.New("bidi: paragraph released")

// Run is a maximal range of characters with one embedding level.
type Run struct {
	Start int
	End   int
	Level uint8
}

// IsRTL reports whether the run is presented right-to-left.
func (r Run) IsRTL() bool { return r.Level&1 == 1 }

// Paragraph is a resolved bidi paragraph.
type Paragraph interface {
	// Start and End delimit the paragraph, separator included.
	Start() int
	End() int

	// BaseLevel returns the paragraph embedding level.
	BaseLevel() uint8

	// Runs returns the level runs in logical order.
	Runs() []Run

	// VisualRuns returns the runs of [start, end) in visual order, left to
	// right, after applying the line-level rules.
	VisualRuns(start, end int) ([]Run, error)

	// Release frees resources held by the paragraph. It is safe to call
	// more than once.
	Release()
}

// Algorithm resolves the bidi paragraphs of text[start:end].
type Algorithm interface {
	Paragraphs(text []rune, start, end int, base Direction) ([]Paragraph, error)
}
