package typeset

import (
	"fmt"

	"github.com/gogpu/typeset/bidi"
	"github.com/gogpu/typeset/breaks"
)

// DefaultTruncationToken is the token used when none is given.
const DefaultTruncationToken = "…"

// TruncationPlace is where a truncated line elides text.
type TruncationPlace uint8

const (
	// TruncateNone disables truncation.
	TruncateNone TruncationPlace = iota
	// TruncateStart elides text at the logical start of the line.
	TruncateStart
	// TruncateMiddle elides text in the middle of the line.
	TruncateMiddle
	// TruncateEnd elides text at the logical end of the line.
	TruncateEnd
)

// String returns the place name.
func (p TruncationPlace) String() string {
	switch p {
	case TruncateStart:
		return "Start"
	case TruncateMiddle:
		return "Middle"
	case TruncateEnd:
		return "End"
	default:
		return "None"
	}
}

// CreateTruncatedLine composes [start, end) into a line no wider than
// maxWidth, replacing elided text with token. An empty token means
// DefaultTruncationToken. The token is typeset with the attributes of the
// text at the truncation boundary and dropped when it alone is wider than
// maxWidth. Its runs cover the elided characters, so the line still spans
// [start, end).
//
// Text within one paragraph that fits is returned untruncated. A range
// crossing a paragraph separator is always truncated, the separator acting
// as a mandatory break.
func (t *Typesetter) CreateTruncatedLine(start, end int, maxWidth float64, place TruncationPlace, token string) (*ComposedLine, error) {
	if err := t.check(start, end); err != nil {
		return nil, err
	}
	if place == TruncateNone {
		return t.CreateSimpleLine(start, end)
	}
	single := start == end || t.paragraphIndex(start) == t.paragraphIndex(end-1)
	if single && t.Measure(start, t.trailingSpaceStart(start, end)) <= maxWidth {
		return t.CreateSimpleLine(start, end)
	}
	if token == "" {
		token = DefaultTruncationToken
	}

	// The kept text of a start truncation comes from the last paragraph.
	pi := t.paragraphIndex(start)
	if place == TruncateStart {
		pi = t.paragraphIndex(end - 1)
	}
	level := t.paragraphs[pi].BaseLevel()
	tokens, tokenWidth, err := t.tokenRuns(start, end, place, token, level)
	if err != nil {
		return nil, err
	}
	available := maxWidth - tokenWidth
	if len(tokens) == 0 || tokenWidth > maxWidth {
		tokens = []*GlyphRun{{level: level, scaleX: 1}}
		available = maxWidth
	}
	rtl := level&1 == 1

	var runs []*GlyphRun
	trailing := true
	switch place {
	case TruncateStart:
		brk := t.resolver.FitBackward(start, end, available, breaks.Character)
		brk = t.leadingSpaceEnd(brk, end)
		tail, err := t.assemble(brk, end)
		if err != nil {
			return nil, err
		}
		elided := elideTokens(tokens, start, brk)
		if rtl {
			runs = append(tail, elided...)
		} else {
			runs = append(elided, tail...)
		}

	case TruncateMiddle:
		first := t.resolver.FitForward(start, end, available/2, breaks.Character)
		second := t.resolver.FitBackward(first, end, available-t.Measure(start, first), breaks.Character)
		first = t.trailingSpaceStart(start, first)
		second = max(t.leadingSpaceEnd(second, end), first)
		head, err := t.assemble(start, first)
		if err != nil {
			return nil, err
		}
		tail, err := t.assemble(second, end)
		if err != nil {
			return nil, err
		}
		left, right := head, tail
		if rtl {
			left, right = tail, head
		}
		runs = append(append(append([]*GlyphRun(nil), left...), elideTokens(tokens, first, second)...), right...)

	case TruncateEnd:
		brk := t.resolver.FitForward(start, end, available, breaks.Character)
		brk = t.trailingSpaceStart(start, brk)
		head, err := t.assemble(start, brk)
		if err != nil {
			return nil, err
		}
		elided := elideTokens(tokens, brk, end)
		if rtl {
			runs = append(elided, head...)
		} else {
			runs = append(head, elided...)
		}
		trailing = false

	default:
		return nil, fmt.Errorf("typeset: unknown truncation place %d", place)
	}

	l := t.newLine(start, end, runs)
	if !trailing {
		l.trailing = 0
	}
	return l, nil
}

// tokenRuns typesets the truncation token with the attributes found at the
// truncation boundary of [start, end).
func (t *Typesetter) tokenRuns(start, end int, place TruncationPlace, token string, level uint8) ([]*GlyphRun, float64, error) {
	at := start
	switch place {
	case TruncateEnd:
		at = end - 1
	case TruncateMiddle:
		at = start + (end-start)/2
	}
	st := t.styleAt(at)
	if st.face == nil {
		for _, s := range t.styles {
			if s.face != nil {
				st.face = s.face
				break
			}
		}
		if st.face == nil {
			return nil, 0, nil
		}
	}

	dir := bidi.LeftToRight
	if level&1 == 1 {
		dir = bidi.RightToLeft
	}
	ts, err := NewTypesetter(token, nil, st.attributes(),
		WithBidi(t.cfg.bidi),
		WithScriptClassifier(t.cfg.scripts),
		WithShaper(t.cfg.shaper),
		WithBreakClassifier(t.cfg.breaking),
		WithBaseDirection(dir),
		WithLanguage(t.cfg.language),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("typeset: truncation token: %w", err)
	}
	defer ts.Close()

	line, err := ts.CreateSimpleLine(0, ts.Len())
	if err != nil {
		return nil, 0, fmt.Errorf("typeset: truncation token: %w", err)
	}
	return line.runs, line.width, nil
}

// elideTokens maps token runs onto the elided characters [start, end). The
// first run takes the whole range; the others are empty at end.
func elideTokens(tokens []*GlyphRun, start, end int) []*GlyphRun {
	out := make([]*GlyphRun, len(tokens))
	for i, g := range tokens {
		if i == 0 {
			out[i] = g.elided(start, end)
		} else {
			out[i] = g.elided(end, end)
		}
	}
	return out
}
