package typeset

import "unicode"

// CreateJustifiedLine composes [start, end) and stretches it toward width.
//
// The line's advance without trailing whitespace is the actual width. The
// difference to width, scaled by factor (0 leaves the line alone, 1 fills
// it), is shared evenly among the interior whitespace characters; leading
// and trailing whitespace are not stretched. The shaped runs of the
// typesetter are not modified.
func (t *Typesetter) CreateJustifiedLine(start, end int, factor, width float64) (*ComposedLine, error) {
	line, err := t.CreateSimpleLine(start, end)
	if err != nil {
		return nil, err
	}
	factor = min(max(factor, 0), 1)

	lo := t.leadingSpaceEnd(start, end)
	hi := t.trailingSpaceStart(lo, end)
	actual := line.width - line.trailing
	available := (width - actual) * factor
	if available <= 0 || !finite(available) {
		return line, nil
	}

	justifiable := func(i int) bool {
		return unicode.IsSpace(t.text[i]) && t.styleAt(i).replacement == nil
	}
	var count int
	for i := lo; i < hi; i++ {
		if justifiable(i) {
			count++
		}
	}
	if count == 0 {
		return line, nil
	}

	extra := available / float64(count)
	for k, g := range line.runs {
		if g.replacement != nil {
			continue
		}
		line.runs[k] = g.justified(lo, hi, extra, justifiable)
	}
	line.layoutRuns()
	return line, nil
}
