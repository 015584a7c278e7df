package bidi

import (
	"fmt"
	"slices"

	"golang.org/x/text/unicode/bidi"
)

const (
	lrm = '\u200E'
	rlm = '\u200F'
)

// Default implements Algorithm with golang.org/x/text/unicode/bidi.
//
// x/text resolves the direction of every character but not its embedding
// depth. Default maps directions to levels relative to the paragraph level,
// raises numbers that follow right-to-left text one level further and lifts
// the content of directional isolates to the isolate's level. Explicit
// embeddings and overrides (LRE, RLE, LRO, RLO) are not given levels of
// their own.
type Default struct{}

// Paragraphs implements Algorithm.
func (Default) Paragraphs(text []rune, start, end int, base Direction) ([]Paragraph, error) {
	if start < 0 || end > len(text) || start > end {
		return nil, fmt.Errorf("bidi: range [%d, %d) out of bounds for length %d", start, end, len(text))
	}

	var out []Paragraph
	for ps := start; ps < end; {
		pe := paragraphEnd(text, ps, end)
		p, err := newParagraph(text, ps, pe, base)
		if err != nil {
			for _, done := range out {
				done.Release()
			}
			return nil, err
		}
		out = append(out, p)
		ps = pe
	}
	return out, nil
}

// paragraphEnd returns the end of the paragraph starting at start. The
// separator belongs to the paragraph it ends; CR LF counts as one separator.
func paragraphEnd(text []rune, start, end int) int {
	for i := start; i < end; i++ {
		if classOf(text[i]) != bidi.B {
			continue
		}
		if text[i] == '\r' && i+1 < end && text[i+1] == '\n' {
			i++
		}
		return i + 1
	}
	return end
}

func classOf(r rune) bidi.Class {
	p, _ := bidi.LookupRune(r)
	return p.Class()
}

// baseLevel applies UAX #9 rules P2 and P3 unless base forces a direction.
func baseLevel(text []rune, base Direction) uint8 {
	switch base {
	case LeftToRight:
		return 0
	case RightToLeft:
		return 1
	}

	isolates := 0
	for _, r := range text {
		switch classOf(r) {
		case bidi.LRI, bidi.RLI, bidi.FSI:
			isolates++
		case bidi.PDI:
			if isolates > 0 {
				isolates--
			}
		case bidi.L:
			if isolates == 0 {
				return 0
			}
		case bidi.R, bidi.AL:
			if isolates == 0 {
				return 1
			}
		}
	}
	return 0
}

type paragraph struct {
	text     []rune
	start    int
	end      int
	level    uint8
	levels   []uint8
	runs     []Run
	released bool
}

func newParagraph(text []rune, start, end int, base Direction) (*paragraph, error) {
	src := text[start:end]
	level := baseLevel(src, base)

	// A leading mark pins the paragraph level x/text will detect.
	mark, dir := lrm, bidi.LeftToRight
	if level == 1 {
		mark, dir = rlm, bidi.RightToLeft
	}
	var bp bidi.Paragraph
	if _, err := bp.SetString(string(mark)+string(src), bidi.DefaultDirection(dir)); err != nil {
		return nil, fmt.Errorf("bidi: set paragraph [%d, %d): %w", start, end, err)
	}
	ordering, err := bp.Order()
	if err != nil {
		return nil, fmt.Errorf("bidi: order paragraph [%d, %d): %w", start, end, err)
	}

	rtl := make([]bool, len(src))
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		first, last := run.Pos()
		isRTL := run.Direction() == bidi.RightToLeft
		for j := first; j <= last; j++ {
			if k := j - 1; k >= 0 && k < len(rtl) {
				rtl[k] = isRTL
			}
		}
	}

	p := &paragraph{
		text:   text,
		start:  start,
		end:    end,
		level:  level,
		levels: resolveLevels(src, rtl, level),
	}
	p.runs = compress(p.levels, start)
	return p, nil
}

// resolveLevels turns resolved directions into embedding levels.
func resolveLevels(src []rune, rtl []bool, base uint8) []uint8 {
	levels := make([]uint8, len(src))
	for i, isRTL := range rtl {
		if isRTL == (base&1 == 1) {
			levels[i] = base
		} else {
			levels[i] = base + 1
		}
	}
	if base&1 == 0 {
		raiseNumbers(src, rtl, levels, base)
	}
	raiseIsolates(src, rtl, levels, base)
	return levels
}

// raiseNumbers lifts numbers in an even paragraph. Numbers after R or AL,
// and Arabic digits anywhere, sit two levels above the paragraph (rules W2,
// W7 and I1).
func raiseNumbers(src []rune, rtl []bool, levels []uint8, base uint8) {
	var lastStrong bidi.Class = bidi.L
	for i, r := range src {
		switch c := classOf(r); c {
		case bidi.L, bidi.R, bidi.AL:
			lastStrong = c
		case bidi.AN:
			if !rtl[i] {
				levels[i] = base + 2
			}
		case bidi.EN:
			if !rtl[i] && lastStrong != bidi.L {
				levels[i] = base + 2
			}
		}
	}
	// Separators and terminators joined to raised numbers (W4, W5).
	for i, r := range src {
		if levels[i] != base {
			continue
		}
		switch classOf(r) {
		case bidi.ES, bidi.CS, bidi.ET, bidi.NSM:
			prev := i > 0 && levels[i-1] == base+2
			next := i+1 < len(levels) && levels[i+1] == base+2
			if prev && (next || classOf(r) == bidi.ET || classOf(r) == bidi.NSM) {
				levels[i] = base + 2
			}
		}
	}
}

// maxDepth is the deepest explicit level of UAX #9.
const maxDepth = 125

// raiseIsolates gives the characters between an isolate initiator and its
// matching PDI the isolate's level (rules X5a to X6a). Initiators and PDIs
// keep the enclosing level. Isolates that would exceed maxDepth stay flat.
func raiseIsolates(src []rune, rtl []bool, levels []uint8, base uint8) {
	var stack []uint8
	current := base
	for i, r := range src {
		switch c := classOf(r); c {
		case bidi.LRI, bidi.RLI, bidi.FSI:
			levels[i] = current
			stack = append(stack, current)
			isRTL := c == bidi.RLI
			if c == bidi.FSI {
				isRTL = baseLevel(src[i+1:matchingPDI(src, i+1)], Auto) == 1
			}
			next := (current + 2) &^ 1
			if isRTL {
				next = (current + 1) | 1
			}
			if next <= maxDepth {
				current = next
			}
			continue
		case bidi.PDI:
			if len(stack) > 0 {
				current = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				levels[i] = current
			}
			continue
		}
		if len(stack) == 0 {
			continue
		}
		if rtl[i] == (current&1 == 1) {
			levels[i] = current
		} else {
			levels[i] = current + 1
		}
	}
}

// matchingPDI returns the index of the PDI closing an isolate whose content
// starts at from, or len(src) when it is unterminated.
func matchingPDI(src []rune, from int) int {
	depth := 0
	for i := from; i < len(src); i++ {
		switch classOf(src[i]) {
		case bidi.LRI, bidi.RLI, bidi.FSI:
			depth++
		case bidi.PDI:
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return len(src)
}

// compress groups consecutive equal levels into runs offset by start.
func compress(levels []uint8, start int) []Run {
	var runs []Run
	for i := 0; i < len(levels); {
		j := i + 1
		for j < len(levels) && levels[j] == levels[i] {
			j++
		}
		runs = append(runs, Run{Start: start + i, End: start + j, Level: levels[i]})
		i = j
	}
	return runs
}

func (p *paragraph) Start() int       { return p.start }
func (p *paragraph) End() int         { return p.end }
func (p *paragraph) BaseLevel() uint8 { return p.level }

func (p *paragraph) Runs() []Run {
	return slices.Clone(p.runs)
}

func (p *paragraph) VisualRuns(start, end int) ([]Run, error) {
	if p.released {
		return nil, ErrReleased
	}
	if start < p.start || end > p.end || start > end {
		return nil, fmt.Errorf("bidi: line [%d, %d) outside paragraph [%d, %d)", start, end, p.start, p.end)
	}

	levels := slices.Clone(p.levels[start-p.start : end-p.start])
	p.resetWhitespace(levels, start)
	runs := compress(levels, start)
	reorder(runs)
	return runs, nil
}

// resetWhitespace applies rule L1: separators, and whitespace before them or
// at the end of the line, take the paragraph level.
func (p *paragraph) resetWhitespace(levels []uint8, start int) {
	trailing := true
	for i := len(levels) - 1; i >= 0; i-- {
		switch classOf(p.text[start+i]) {
		case bidi.S, bidi.B:
			levels[i] = p.level
			trailing = true
		case bidi.WS, bidi.LRI, bidi.RLI, bidi.FSI, bidi.PDI, bidi.BN:
			if trailing {
				levels[i] = p.level
			}
		default:
			trailing = false
		}
	}
}

// reorder applies rule L2 in place: from the highest level down to the
// lowest odd level, reverse every maximal sequence at or above that level.
func reorder(runs []Run) {
	if len(runs) == 0 {
		return
	}
	highest, lowest := runs[0].Level, runs[0].Level
	for _, r := range runs[1:] {
		highest = max(highest, r.Level)
		lowest = min(lowest, r.Level)
	}
	if lowest&1 == 0 {
		lowest++
	}
	for level := int(highest); level >= int(lowest); level-- {
		for i := 0; i < len(runs); {
			if int(runs[i].Level) < level {
				i++
				continue
			}
			j := i
			for j < len(runs) && int(runs[j].Level) >= level {
				j++
			}
			slices.Reverse(runs[i:j])
			i = j
		}
	}
}

func (p *paragraph) Release() {
	if p.released {
		return
	}
	p.released = true
	p.levels = nil
	p.runs = nil
}
