// Package typeset lays out styled, bidirectional, complex-script text.
//
// # Overview
//
// A Typesetter takes text, attribute spans and default attributes. It splits
// the text into bidi paragraphs, level runs, script runs and uniformly styled
// pieces, and shapes every piece once. The shaped pieces are reused by every
// line and frame composed from the typesetter.
//
//	face, _ := shape.NewTypeface(goregular.TTF)
//	ts, err := typeset.NewTypesetter("Hello, world", nil, []typeset.Attribute{
//	    typeset.FontFace{Typeface: face},
//	    typeset.TextSize(18),
//	})
//	if err != nil {
//	    return err
//	}
//	defer ts.Close()
//
//	opts := typeset.DefaultFrameOptions()
//	opts.Width = 120
//	frame, err := typeset.NewFrameResolver(ts, opts).CreateFrame(0, ts.Len())
//
// # Lines
//
// CreateSimpleLine composes one visual line, ordering runs left to right
// after bidi reordering. CreateTruncatedLine elides text at the start, the
// middle or the end of a range so it fits a width. CreateJustifiedLine
// stretches interior whitespace.
//
// # Frames
//
// FrameResolver fills a rectangle with lines across paragraphs, honoring
// leading margins, alignment, line height adjustments, a maximum line count
// and truncation of the last line.
//
// # Rendering
//
// Lines and frames draw through the Canvas interface. ImageCanvas draws onto
// a draw.Image using a glyphcache.Cache.
//
// # Coordinates
//
// Distances are in pixels. X grows to the right and Y grows downwards. Line
// origins are baseline positions.
package typeset
