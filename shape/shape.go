// Package shape holds typefaces and the shaping engine contract.
//
// An Engine turns a run of characters in one typeface, size, script and
// direction into positioned glyphs plus a cluster map. HarfBuzz implements
// Engine with github.com/go-text/typesetting.
package shape

import (
	"fmt"

	"github.com/go-text/typesetting/language"
)

// Direction is the writing direction of a script run.
type Direction uint8

const (
	LeftToRight Direction = iota
	RightToLeft
)

// Order is the storage order of the output glyphs relative to the text.
type Order uint8

const (
	// Forward stores glyphs in logical order.
	Forward Order = iota
	// Backward stores glyphs in reverse logical order.
	Backward
)

// Request describes one shaping call.
type Request struct {
	Typeface  *Typeface
	Size      float64
	Script    language.Script
	Language  language.Language
	Direction Direction
	Order     Order
}

// Offset is a glyph displacement from its pen position, in pixels. Y grows
// downwards.
type Offset struct {
	X float64
	Y float64
}

// Result is the output of a shaping call.
//
// ClusterMap has one entry per shaped character: the lowest index of the
// glyphs forming that character's cluster. It is non-decreasing when
// IsBackward is false and non-increasing otherwise.
type Result struct {
	IsBackward bool
	GlyphIDs   []GlyphID
	Offsets    []Offset
	Advances   []float64
	ClusterMap []int
}

// Validate checks the structural invariants of r for count characters.
func (r *Result) Validate(count int) error {
	n := len(r.GlyphIDs)
	if len(r.Offsets) != n || len(r.Advances) != n {
		return fmt.Errorf("shape: %d glyphs with %d offsets and %d advances", n, len(r.Offsets), len(r.Advances))
	}
	if len(r.ClusterMap) != count {
		return fmt.Errorf("shape: cluster map has %d entries for %d characters", len(r.ClusterMap), count)
	}
	for i, g := range r.ClusterMap {
		if g < 0 || (n > 0 && g >= n) {
			return fmt.Errorf("shape: cluster map entry %d = %d out of [0, %d)", i, g, n)
		}
		if i == 0 {
			continue
		}
		prev := r.ClusterMap[i-1]
		if (!r.IsBackward && g < prev) || (r.IsBackward && g > prev) {
			return fmt.Errorf("shape: cluster map not monotonic at %d", i)
		}
	}
	return nil
}

// Engine shapes text. Implementations must be safe for concurrent use.
type Engine interface {
	Shape(text []rune, start, end int, req Request) (Result, error)
}
