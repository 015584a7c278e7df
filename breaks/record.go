// Package breaks records line and character break opportunities and
// resolves where a line of a given extent should end.
//
// The break record holds one byte per character. Forward bits are stored on
// the last character before a boundary, backward bits on the first character
// after it, so a scan in either direction finds the boundary without looking
// at neighbours.
package breaks

import (
	"sync"

	"github.com/go-text/typesetting/segmenter"
)

// Kind selects line or character (grapheme) boundaries.
type Kind uint8

const (
	// Character boundaries separate extended grapheme clusters.
	Character Kind = iota
	// Line boundaries are line break opportunities.
	Line
)

// Bits stored in a Record.
const (
	LineForward byte = 1 << iota
	LineBackward
	CharForward
	CharBackward
	ParagraphForward
	ParagraphBackward
)

func (k Kind) bits() (forward, backward byte) {
	if k == Line {
		return LineForward, LineBackward
	}
	return CharForward, CharBackward
}

// Break is a boundary position in a text: the break falls before text[Pos].
type Break struct {
	Pos       int
	Mandatory bool
}

// Classifier finds break boundaries in a text. Breaks are returned in
// ascending order and the last one is always len(text).
type Classifier interface {
	Breaks(text []rune, kind Kind) []Break
}

// SegmenterClassifier implements Classifier with the UAX #14 and UAX #29
// iterators of github.com/go-text/typesetting/segmenter.
// It is safe for concurrent use.
type SegmenterClassifier struct {
	pool sync.Pool
}

// NewSegmenterClassifier returns a classifier backed by pooled segmenters.
func NewSegmenterClassifier() *SegmenterClassifier {
	return &SegmenterClassifier{
		pool: sync.Pool{
			New: func() any { return new(segmenter.Segmenter) },
		},
	}
}

// Breaks implements Classifier.
func (c *SegmenterClassifier) Breaks(text []rune, kind Kind) []Break {
	if len(text) == 0 {
		return nil
	}
	seg := c.pool.Get().(*segmenter.Segmenter)
	defer c.pool.Put(seg)
	seg.Init(text)

	var out []Break
	switch kind {
	case Line:
		iter := seg.LineIterator()
		for iter.Next() {
			line := iter.Line()
			out = append(out, Break{
				Pos:       line.Offset + len(line.Text),
				Mandatory: line.IsMandatoryBreak,
			})
		}
	default:
		iter := seg.GraphemeIterator()
		for iter.Next() {
			g := iter.Grapheme()
			out = append(out, Break{Pos: g.Offset + len(g.Text)})
		}
	}
	return out
}

// Record holds the break bits of every character of a text.
type Record []byte

// NewRecord classifies text and returns its break record. Mandatory line
// breaks are recorded as paragraph boundaries.
func NewRecord(text []rune, c Classifier) Record {
	r := make(Record, len(text))
	if len(text) == 0 {
		return r
	}

	r.mark(c.Breaks(text, Character), CharForward, CharBackward)

	lines := c.Breaks(text, Line)
	r.mark(lines, LineForward, LineBackward)
	for _, b := range lines {
		if b.Mandatory && b.Pos > 0 {
			r[b.Pos-1] |= ParagraphForward | LineForward | CharForward
			if b.Pos < len(r) {
				r[b.Pos] |= ParagraphBackward | LineBackward | CharBackward
			}
		}
	}
	return r
}

func (r Record) mark(bs []Break, forward, backward byte) {
	// Forward scan: the character closing each segment.
	for _, b := range bs {
		if b.Pos > 0 && b.Pos <= len(r) {
			r[b.Pos-1] |= forward
		}
	}
	// Backward scan: the character opening each segment.
	for i := len(bs) - 1; i >= 0; i-- {
		start := 0
		if i > 0 {
			start = bs[i-1].Pos
		}
		if start < len(r) {
			r[start] |= backward
		}
	}
}

// MarkParagraph records [start, end) as a paragraph.
func (r Record) MarkParagraph(start, end int) {
	if start >= end {
		return
	}
	r[start] |= ParagraphBackward | LineBackward | CharBackward
	r[end-1] |= ParagraphForward | LineForward | CharForward
}

// Has reports whether any of bits is set on character i.
func (r Record) Has(i int, bits byte) bool {
	return r[i]&bits != 0
}
