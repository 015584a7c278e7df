package typeset

import (
	"math"
	"sort"

	"github.com/gogpu/typeset/breaks"
)

// TextAlignment is the horizontal alignment of lines in a frame, relative
// to the paragraph direction.
type TextAlignment uint8

const (
	// AlignIntrinsic flushes lines to the paragraph's leading edge: left
	// for left-to-right paragraphs, right for right-to-left ones.
	AlignIntrinsic TextAlignment = iota
	// AlignExtrinsic flushes lines to the trailing edge.
	AlignExtrinsic
	// AlignCenter centers lines.
	AlignCenter
)

// String returns the alignment name.
func (a TextAlignment) String() string {
	switch a {
	case AlignExtrinsic:
		return "Extrinsic"
	case AlignCenter:
		return "Center"
	default:
		return "Intrinsic"
	}
}

// flushFactor returns the FlushPenOffset factor of a for a paragraph.
func (a TextAlignment) flushFactor(rtl bool) float64 {
	switch a {
	case AlignCenter:
		return 0.5
	case AlignExtrinsic:
		if rtl {
			return 0
		}
		return 1
	default:
		if rtl {
			return 1
		}
		return 0
	}
}

// VerticalAlignment is the vertical placement of lines in a frame.
type VerticalAlignment uint8

const (
	AlignTop VerticalAlignment = iota
	AlignMiddle
	AlignBottom
)

// String returns the alignment name.
func (a VerticalAlignment) String() string {
	switch a {
	case AlignMiddle:
		return "Middle"
	case AlignBottom:
		return "Bottom"
	default:
		return "Top"
	}
}

// FrameOptions configures frame composition.
type FrameOptions struct {
	// X and Y are the frame origin, used when drawing.
	X float64
	Y float64

	// Width is the frame width. If <= 0, lines are not wrapped and the
	// frame is as wide as its widest line.
	Width float64

	// Height is the frame height. If <= 0, the height is unbounded.
	Height float64

	TextAlignment     TextAlignment
	VerticalAlignment VerticalAlignment

	// FitHorizontally shrinks the frame to its widest line and realigns
	// every line within the new width.
	FitHorizontally bool

	// Justify stretches every line but the last of each paragraph.
	// JustificationFactor is passed to CreateJustifiedLine.
	Justify             bool
	JustificationFactor float64

	// TruncationPlace truncates the last line when the text does not fit.
	// TruncationToken defaults to DefaultTruncationToken.
	TruncationPlace TruncationPlace
	TruncationToken string

	// MaxLines limits the number of lines. 0 means no limit.
	MaxLines int

	// LineHeightMultiplier scales line heights, the extra space split
	// between ascent and descent. Values <= 0 mean 1.
	LineHeightMultiplier float64

	// ExtraLineSpacing is added to the leading of every line.
	ExtraLineSpacing float64
}

// DefaultFrameOptions returns options for an unbounded, top-left aligned
// frame.
func DefaultFrameOptions() FrameOptions {
	return FrameOptions{
		TextAlignment:        AlignIntrinsic,
		VerticalAlignment:    AlignTop,
		JustificationFactor:  1,
		LineHeightMultiplier: 1,
	}
}

// FrameResolver fills frames with lines of a typesetter.
type FrameResolver struct {
	ts   *Typesetter
	opts FrameOptions
}

// NewFrameResolver returns a resolver composing frames from ts.
func NewFrameResolver(ts *Typesetter, opts FrameOptions) *FrameResolver {
	return &FrameResolver{ts: ts, opts: opts}
}

// Options returns the frame options.
func (r *FrameResolver) Options() FrameOptions { return r.opts }

// framedLine is a committed line with its placement inputs.
type framedLine struct {
	line   *ComposedLine
	indent float64
	flush  float64
	extent float64
	top    float64
}

// paragraphAttrs are the paragraph-level attributes of one paragraph.
type paragraphAttrs struct {
	margin       LeadingMargin
	alignment    TextAlignment
	hasAlignment bool
}

// CreateFrame composes the characters [start, end) into a frame. Lines are
// added until the text, the height or MaxLines runs out. When text is left
// over and truncation is enabled, the last line is replaced by a truncated
// line reaching end.
func (r *FrameResolver) CreateFrame(start, end int) (*ComposedFrame, error) {
	t := r.ts
	if err := t.check(start, end); err != nil {
		return nil, err
	}
	o := r.opts
	bounded := o.Width > 0
	width := o.Width
	if !bounded {
		width = math.Inf(1)
	}
	maxHeight := o.Height
	if maxHeight <= 0 {
		maxHeight = math.Inf(1)
	}

	var (
		placed    []framedLine
		y         float64
		lineStart = start
		filled    bool
	)
	for pi := t.paragraphIndex(start); pi < len(t.paragraphs) && !filled && lineStart < end; pi++ {
		p := t.paragraphs[pi]
		pStart, pEnd := max(lineStart, p.Start()), min(end, p.End())
		if pStart >= pEnd {
			continue
		}
		attrs := t.paragraphAttributes(p.Start(), p.End())
		align := o.TextAlignment
		if attrs.hasAlignment {
			align = attrs.alignment
		}
		flush := align.flushFactor(p.BaseLevel()&1 == 1)
		firstLines := max(attrs.margin.FirstLines, 1)

		index := 0
		if pStart > p.Start() {
			index = firstLines
		}
		for lineStart = pStart; lineStart < pEnd; index++ {
			indent := attrs.margin.Rest
			if index < firstLines {
				indent = attrs.margin.First
			}
			extent := width - indent
			lineEnd := t.resolver.SuggestForward(lineStart, pEnd, extent, breaks.Line)

			var (
				line *ComposedLine
				err  error
			)
			if o.Justify && bounded && lineEnd < p.End() {
				line, err = t.CreateJustifiedLine(lineStart, lineEnd, o.JustificationFactor, extent)
			} else {
				line, err = t.CreateSimpleLine(lineStart, lineEnd)
			}
			if err != nil {
				return nil, err
			}

			m := r.lineMetrics(line, placed, y)
			height := m.Ascent + m.Descent + m.Leading
			if len(placed) > 0 && y+height > maxHeight {
				filled = true
				break
			}
			line.originY = y + m.Ascent
			placed = append(placed, framedLine{line: line, indent: indent, flush: flush, extent: extent, top: y})
			y += height
			lineStart = lineEnd
			if o.MaxLines > 0 && len(placed) >= o.MaxLines {
				filled = true
				break
			}
		}
	}

	if lineStart < end && o.TruncationPlace != TruncateNone && len(placed) > 0 {
		last := &placed[len(placed)-1]
		line, err := t.CreateTruncatedLine(last.line.charStart, end, last.extent, o.TruncationPlace, o.TruncationToken)
		if err != nil {
			return nil, err
		}
		line.originY = last.line.originY
		last.line = line
		lineStart = end
	}

	f := &ComposedFrame{
		charStart: start,
		charEnd:   start,
		originX:   o.X,
		originY:   o.Y,
		width:     o.Width,
		height:    o.Height,
		lines:     make([]*ComposedLine, len(placed)),
	}
	for i, pl := range placed {
		f.lines[i] = pl.line
	}
	if len(placed) > 0 {
		f.charEnd = placed[len(placed)-1].line.charEnd
	}

	if !bounded || o.FitHorizontally {
		f.width = 0
		for _, pl := range placed {
			f.width = max(f.width, pl.indent+pl.line.width-pl.line.trailing)
		}
	}
	for _, pl := range placed {
		x := pl.line.FlushPenOffset(pl.flush, f.width-pl.indent)
		if !pl.line.IsRTL() {
			x += pl.indent
		}
		pl.line.originX = x
	}

	if f.height <= 0 {
		f.height = y
	}
	var shift float64
	switch o.VerticalAlignment {
	case AlignMiddle:
		shift = (f.height - y) / 2
	case AlignBottom:
		shift = f.height - y
	}
	if shift != 0 {
		for _, l := range f.lines {
			l.originY += shift
		}
	}
	return f, nil
}

// lineMetrics returns the metrics used to stack line at top.
func (r *FrameResolver) lineMetrics(line *ComposedLine, placed []framedLine, top float64) LineMetrics {
	m := LineMetrics{Ascent: line.ascent, Descent: line.descent, Leading: line.leading}
	r.ts.lineHeights(line.charStart, line.charEnd, func(span Span, lh LineHeight) {
		spanTop := top
		if span.Start < line.charStart {
			k := sort.Search(len(placed), func(k int) bool { return placed[k].line.charEnd > span.Start })
			if k < len(placed) {
				spanTop = placed[k].top
			} else if len(placed) > 0 {
				spanTop = placed[0].top
			}
		}
		lh.Choose(LineHeightContext{
			LineStart: line.charStart,
			LineEnd:   line.charEnd,
			SpanStart: span.Start,
			SpanEnd:   span.End,
			SpanTop:   spanTop,
			LineTop:   top,
		}, &m)
	})

	if mult := r.opts.LineHeightMultiplier; mult > 0 && mult != 1 {
		extra := (m.Ascent + m.Descent + m.Leading) * (mult - 1)
		m.Ascent += extra / 2
		m.Descent += extra / 2
	}
	m.Leading += r.opts.ExtraLineSpacing
	return m
}

// paragraphAttributes collects the paragraph attributes covering
// [start, end). Later spans win.
func (t *Typesetter) paragraphAttributes(start, end int) paragraphAttrs {
	var pa paragraphAttrs
	apply := func(a Attribute) {
		switch a := a.(type) {
		case LeadingMargin:
			pa.margin = a
		case ParagraphAlignment:
			pa.alignment = a.Alignment
			pa.hasAlignment = true
		}
	}
	for _, a := range t.defaults {
		apply(a)
	}
	for _, s := range t.spans {
		if s.Start < end && s.End > start {
			apply(s.Attr)
		}
	}
	return pa
}

// lineHeights calls fn for every LineHeight attribute overlapping
// [start, end), defaults first.
func (t *Typesetter) lineHeights(start, end int, fn func(Span, LineHeight)) {
	for _, a := range t.defaults {
		if lh, ok := a.(LineHeight); ok && lh.Choose != nil {
			fn(Span{Start: 0, End: len(t.text), Attr: lh}, lh)
		}
	}
	for _, s := range t.spans {
		lh, ok := s.Attr.(LineHeight)
		if !ok || lh.Choose == nil || s.Start >= end || s.End <= start {
			continue
		}
		fn(s.Span, lh)
	}
}

// ComposedFrame is a stack of lines inside a rectangle.
type ComposedFrame struct {
	charStart, charEnd int
	originX, originY   float64
	width, height      float64
	lines              []*ComposedLine
}

// CharStart returns the first character of the frame.
func (f *ComposedFrame) CharStart() int { return f.charStart }

// CharEnd returns the character after the last one of the frame.
func (f *ComposedFrame) CharEnd() int { return f.charEnd }

// OriginX returns the left edge of the frame.
func (f *ComposedFrame) OriginX() float64 { return f.originX }

// OriginY returns the top edge of the frame.
func (f *ComposedFrame) OriginY() float64 { return f.originY }

// Width returns the frame width.
func (f *ComposedFrame) Width() float64 { return f.width }

// Height returns the frame height.
func (f *ComposedFrame) Height() float64 { return f.height }

// Lines returns the lines from top to bottom.
func (f *ComposedFrame) Lines() []*ComposedLine { return f.lines }

// LineIndexForChar returns the index of the line holding character i, or
// -1 when i is outside the frame.
func (f *ComposedFrame) LineIndexForChar(i int) int {
	if i < f.charStart || i >= f.charEnd {
		return -1
	}
	k := sort.Search(len(f.lines), func(k int) bool { return f.lines[k].charEnd > i })
	if k == len(f.lines) {
		return -1
	}
	return k
}
