package typeset

import (
	"fmt"
	"slices"
	"unicode"
)

// ComposedLine is one visual line. Runs are in visual order, left to right,
// and their character ranges partition the line's range.
type ComposedLine struct {
	charStart, charEnd int
	paragraphLevel     uint8

	ascent, descent, leading float64
	width, trailing          float64

	originX, originY float64
	runs             []*GlyphRun
}

// CharStart returns the first character of the line.
func (l *ComposedLine) CharStart() int { return l.charStart }

// CharEnd returns the character after the last one of the line.
func (l *ComposedLine) CharEnd() int { return l.charEnd }

// ParagraphLevel returns the base level of the paragraph holding the line.
func (l *ComposedLine) ParagraphLevel() uint8 { return l.paragraphLevel }

// IsRTL reports whether the line belongs to a right-to-left paragraph.
func (l *ComposedLine) IsRTL() bool { return l.paragraphLevel&1 == 1 }

// Ascent returns the largest run ascent.
func (l *ComposedLine) Ascent() float64 { return l.ascent }

// Descent returns the largest run descent.
func (l *ComposedLine) Descent() float64 { return l.descent }

// Leading returns the largest run leading.
func (l *ComposedLine) Leading() float64 { return l.leading }

// Height returns ascent + descent + leading.
func (l *ComposedLine) Height() float64 { return l.ascent + l.descent + l.leading }

// Width returns the advance of the whole line, trailing whitespace included.
func (l *ComposedLine) Width() float64 { return l.width }

// TrailingWhitespaceExtent returns the advance of the whitespace ending the
// line.
func (l *ComposedLine) TrailingWhitespaceExtent() float64 { return l.trailing }

// OriginX returns the left edge of the line inside its frame.
func (l *ComposedLine) OriginX() float64 { return l.originX }

// OriginY returns the baseline of the line inside its frame.
func (l *ComposedLine) OriginY() float64 { return l.originY }

// Runs returns the glyph runs in visual order.
func (l *ComposedLine) Runs() []*GlyphRun { return l.runs }

// FlushPenOffset returns the pen offset that aligns the line in extent:
// factor 0 flushes left, 1 flushes right and 0.5 centers. Trailing
// whitespace hangs outside the extent, on the right for left-to-right
// paragraphs and on the left for right-to-left ones.
func (l *ComposedLine) FlushPenOffset(factor, extent float64) float64 {
	offset := (extent - (l.width - l.trailing)) * factor
	if l.IsRTL() {
		offset -= l.trailing
	}
	return offset
}

// ComputeCharDistance returns the caret position before character i,
// measured from the left edge of the line.
func (l *ComposedLine) ComputeCharDistance(i int) (float64, error) {
	if i < l.charStart || i > l.charEnd {
		return 0, &RangeError{Index: i, Bound: l.charEnd}
	}
	var last *GlyphRun
	for _, g := range l.runs {
		if g.charStart == g.charEnd {
			continue
		}
		if i >= g.charStart && i < g.charEnd {
			return g.originX + g.CaretDistance(i), nil
		}
		if g.charEnd == i {
			last = g
		}
	}
	if last != nil {
		return last.originX + last.CaretDistance(i), nil
	}
	return 0, nil
}

// HitTest returns the character whose caret edge is nearest to x, measured
// from the left edge of the line.
func (l *ComposedLine) HitTest(x float64) int {
	for k, g := range l.runs {
		if x >= g.originX+g.width && k < len(l.runs)-1 {
			continue
		}
		return g.charStart + g.edges.NearestIndex(x-g.originX)
	}
	return l.charStart
}

// VisualEdges returns the caret position of every character of the line
// and of its end, in logical order.
func (l *ComposedLine) VisualEdges() []float64 {
	edges := make([]float64, 0, l.charEnd-l.charStart+1)
	for i := l.charStart; i <= l.charEnd; i++ {
		d, _ := l.ComputeCharDistance(i)
		edges = append(edges, d)
	}
	return edges
}

// layoutRuns places the runs next to each other and updates the width.
func (l *ComposedLine) layoutRuns() {
	var x float64
	for _, g := range l.runs {
		g.originX = x
		x += g.width
	}
	l.width = x
}

// CreateSimpleLine composes the characters [start, end) into one line.
func (t *Typesetter) CreateSimpleLine(start, end int) (*ComposedLine, error) {
	if err := t.check(start, end); err != nil {
		return nil, err
	}
	runs, err := t.assemble(start, end)
	if err != nil {
		return nil, err
	}
	return t.newLine(start, end, runs), nil
}

// assemble returns the glyph runs of [start, end) in visual order. Runs of
// an even level are appended; runs of an odd level are inserted at the
// position where their bidi run started, so consecutive right-to-left
// pieces come out reversed.
func (t *Typesetter) assemble(start, end int) ([]*GlyphRun, error) {
	var out []*GlyphRun
	for pi := t.paragraphIndex(start); pi < len(t.paragraphs); pi++ {
		p := t.paragraphs[pi]
		if p.Start() >= end {
			break
		}
		lo, hi := max(start, p.Start()), min(end, p.End())
		if lo >= hi {
			continue
		}
		visual, err := p.VisualRuns(lo, hi)
		if err != nil {
			return nil, fmt.Errorf("typeset: reorder [%d, %d): %w", lo, hi, err)
		}
		for _, vr := range visual {
			pin := len(out)
			for k := t.runIndex(vr.Start); k < len(t.runs) && t.runs[k].start < vr.End; k++ {
				r := t.runs[k]
				a, b := max(vr.Start, r.start), min(vr.End, r.end)
				for _, pc := range t.paintPieces(r, a, b) {
					g := r.slice(pc.start, pc.end, pc.paint)
					if vr.IsRTL() {
						out = slices.Insert(out, pin, g)
					} else {
						out = append(out, g)
					}
				}
			}
		}
	}
	return out, nil
}

type paintPiece struct {
	start, end int
	paint      paint
}

// paintPieces splits [a, b) of r where the paint changes. Split points move
// forward to cluster boundaries.
func (t *Typesetter) paintPieces(r *intrinsicRun, a, b int) []paintPiece {
	var out []paintPiece
	lo := a
	cur := t.styleAt(a).paint
	for k := t.segmentAt(a) + 1; k < len(t.styles) && t.bounds[k] < b; k++ {
		next := t.styles[k].paint
		if next == cur {
			continue
		}
		p := r.clusterStart(t.bounds[k], b)
		if p >= b {
			break
		}
		if p > lo {
			out = append(out, paintPiece{start: lo, end: p, paint: cur})
			lo = p
		}
		cur = next
	}
	return append(out, paintPiece{start: lo, end: b, paint: cur})
}

func (t *Typesetter) newLine(start, end int, runs []*GlyphRun) *ComposedLine {
	l := &ComposedLine{
		charStart:      start,
		charEnd:        end,
		paragraphLevel: t.paragraphs[t.paragraphIndex(start)].BaseLevel(),
		runs:           runs,
	}
	for _, g := range runs {
		l.ascent = max(l.ascent, g.ascent)
		l.descent = max(l.descent, g.descent)
		l.leading = max(l.leading, g.leading)
	}
	if len(runs) == 0 && len(t.runs) > 0 {
		r := t.runs[min(t.runIndex(start), len(t.runs)-1)]
		l.ascent, l.descent, l.leading = r.ascent, r.descent, r.leading
	}
	l.layoutRuns()
	l.trailing = t.Measure(t.trailingSpaceStart(start, end), end)
	return l
}

func (t *Typesetter) trailingSpaceStart(start, end int) int {
	for end > start && unicode.IsSpace(t.text[end-1]) {
		end--
	}
	return end
}

func (t *Typesetter) leadingSpaceEnd(start, end int) int {
	for start < end && unicode.IsSpace(t.text[start]) {
		start++
	}
	return start
}
