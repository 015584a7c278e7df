package breaks

import "unicode"

// Measurer measures the advance of the characters [start, end).
type Measurer interface {
	Measure(start, end int) float64
}

// Resolver picks break positions using a break record and a measurer.
// Callers validate ranges; the resolver assumes 0 <= start <= end <= len(text).
type Resolver struct {
	text     []rune
	record   Record
	measurer Measurer
}

// NewResolver returns a resolver over text.
func NewResolver(text []rune, record Record, m Measurer) *Resolver {
	return &Resolver{text: text, record: record, measurer: m}
}

// SuggestForward returns the end of the longest prefix of [start, end)
// that fits extent, breaking at boundaries of kind. Trailing whitespace does
// not count against the extent and a mandatory break always ends the line.
// When nothing fits, line search falls back to character search and then to
// a single grapheme, so the result is always greater than start for a
// non-empty range.
func (r *Resolver) SuggestForward(start, end int, extent float64, kind Kind) int {
	if start >= end {
		return end
	}
	if b := r.forward(start, end, extent, kind); b > start {
		return b
	}
	if kind == Line {
		if b := r.forward(start, end, extent, Character); b > start {
			return b
		}
	}
	return r.nextGrapheme(start, end)
}

// SuggestBackward mirrors SuggestForward: it returns the start of the
// longest suffix of [start, end) that fits extent. Leading whitespace does
// not count against the extent.
func (r *Resolver) SuggestBackward(start, end int, extent float64, kind Kind) int {
	if start >= end {
		return start
	}
	if b := r.backward(start, end, extent, kind); b < end {
		return b
	}
	if kind == Line {
		if b := r.backward(start, end, extent, Character); b < end {
			return b
		}
	}
	return r.prevGrapheme(start, end)
}

// FitForward is SuggestForward without the forced grapheme: it returns
// start when not even the first segment fits.
func (r *Resolver) FitForward(start, end int, extent float64, kind Kind) int {
	if start >= end {
		return end
	}
	return r.forward(start, end, extent, kind)
}

// FitBackward is SuggestBackward without the forced grapheme: it returns
// end when not even the last segment fits.
func (r *Resolver) FitBackward(start, end int, extent float64, kind Kind) int {
	if start >= end {
		return start
	}
	return r.backward(start, end, extent, kind)
}

func (r *Resolver) forward(start, end int, extent float64, kind Kind) int {
	fwd, _ := kind.bits()
	best := start
	last := start
	var width float64
	for i := start; i < end; i++ {
		v := r.record[i]
		mandatory := v&ParagraphForward != 0
		if v&fwd == 0 && !mandatory && i != end-1 {
			continue
		}
		pos := i + 1
		width += r.measurer.Measure(last, pos)
		last = pos
		if width <= extent {
			best = pos
			if mandatory {
				return pos
			}
			continue
		}
		// Overflowing whitespace hangs past the extent.
		if ws := r.trailingSpaceStart(start, pos); ws < pos && r.measurer.Measure(start, ws) <= extent {
			return pos
		}
		break
	}
	return best
}

func (r *Resolver) backward(start, end int, extent float64, kind Kind) int {
	_, bwd := kind.bits()
	best := end
	last := end
	var width float64
	for i := end - 1; i >= start; i-- {
		v := r.record[i]
		mandatory := v&ParagraphBackward != 0
		if v&bwd == 0 && !mandatory && i != start {
			continue
		}
		pos := i
		width += r.measurer.Measure(pos, last)
		last = pos
		if width <= extent {
			best = pos
			if mandatory {
				return pos
			}
			continue
		}
		if ws := r.leadingSpaceEnd(pos, end); ws > pos && r.measurer.Measure(ws, end) <= extent {
			return pos
		}
		break
	}
	return best
}

func (r *Resolver) nextGrapheme(start, end int) int {
	for i := start; i < end; i++ {
		if r.record[i]&(CharForward|ParagraphForward) != 0 {
			return i + 1
		}
	}
	return end
}

func (r *Resolver) prevGrapheme(start, end int) int {
	for i := end - 1; i > start; i-- {
		if r.record[i]&(CharBackward|ParagraphBackward) != 0 {
			return i
		}
	}
	return start
}

func (r *Resolver) trailingSpaceStart(start, end int) int {
	for end > start && unicode.IsSpace(r.text[end-1]) {
		end--
	}
	return end
}

func (r *Resolver) leadingSpaceEnd(start, end int) int {
	for start < end && unicode.IsSpace(r.text[start]) {
		start++
	}
	return start
}
