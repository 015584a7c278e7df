package typeset

import (
	"image/color"
	"math"

	"github.com/gogpu/typeset/glyphcache"
	"github.com/gogpu/typeset/shape"
)

// DefaultTextSize is the text size used when no TextSize attribute applies.
const DefaultTextSize = 16

// Attribute is a formatting attribute applied through a Span or as a
// typesetter default.
type Attribute interface {
	isAttribute()
}

// Span applies Attr to the characters [Start, End). When spans of the same
// kind overlap, the later span wins.
type Span struct {
	Start int
	End   int
	Attr  Attribute
}

// FontFace selects the typeface.
type FontFace struct {
	Typeface *shape.Typeface
}

// TextSize is the text size in pixels per em. It must be at least 1.
type TextSize float64

// ScaleX stretches glyphs horizontally. It must be positive.
type ScaleX float64

// BaselineShift raises glyphs above the baseline by a distance in pixels.
// Negative values lower them.
type BaselineShift float64

// Skew slants glyphs. -0.25 gives a typical synthetic oblique.
type Skew float64

// Foreground is the glyph color.
type Foreground struct {
	Color color.Color
}

// Stroke draws glyph outlines instead of filling them.
type Stroke struct {
	Width      float64
	Cap        glyphcache.LineCap
	Join       glyphcache.LineJoin
	MiterLimit float64
}

// Replacement replaces its characters with an object of the given size. The
// characters are not shaped; they lay out as one glyph.
type Replacement struct {
	Width   float64
	Ascent  float64
	Descent float64

	// Draw, if not nil, draws the object with its left baseline point at
	// (x, y).
	Draw func(c Canvas, x, y float64)
}

// LeadingMargin indents lines of the paragraphs it covers. First applies to
// the first FirstLines lines of each paragraph (at least one), Rest to the
// others. The margin sits on the leading side: left for left-to-right
// paragraphs, right for right-to-left ones.
type LeadingMargin struct {
	First      float64
	Rest       float64
	FirstLines int
}

// ParagraphAlignment overrides the frame text alignment for the paragraphs
// it covers.
type ParagraphAlignment struct {
	Alignment TextAlignment
}

// LineMetrics are the vertical metrics used to stack a line in a frame.
type LineMetrics struct {
	Ascent  float64
	Descent float64
	Leading float64
}

// LineHeightContext describes the line a LineHeight attribute is asked
// about. Tops are measured from the top of the frame.
type LineHeightContext struct {
	LineStart int
	LineEnd   int
	SpanStart int
	SpanEnd   int

	// SpanTop is the top of the line holding SpanStart.
	SpanTop float64
	// LineTop is the top of the line being composed.
	LineTop float64
}

// LineHeight adjusts the metrics of every frame line overlapping its span.
type LineHeight struct {
	Choose func(ctx LineHeightContext, m *LineMetrics)
}

// FixedLineHeight returns a LineHeight that gives every line the height h,
// keeping the ratio of ascent to descent.
func FixedLineHeight(h float64) LineHeight {
	return LineHeight{Choose: func(_ LineHeightContext, m *LineMetrics) {
		natural := m.Ascent + m.Descent
		if natural <= 0 {
			return
		}
		m.Descent = math.Round(m.Descent * h / natural)
		m.Ascent = h - m.Descent
		m.Leading = 0
	}}
}

func (FontFace) isAttribute()           {}
func (TextSize) isAttribute()           {}
func (ScaleX) isAttribute()             {}
func (BaselineShift) isAttribute()      {}
func (Skew) isAttribute()               {}
func (Foreground) isAttribute()         {}
func (Stroke) isAttribute()             {}
func (Replacement) isAttribute()        {}
func (LeadingMargin) isAttribute()      {}
func (ParagraphAlignment) isAttribute() {}
func (LineHeight) isAttribute()         {}

// paint holds the attributes that change how glyphs are drawn but not how
// they are shaped. It is comparable.
type paint struct {
	color  color.NRGBA
	skew   float64
	stroke Stroke
}

// style is the resolved character formatting of a range.
type style struct {
	face        *shape.Typeface
	size        float64
	scaleX      float64
	shift       float64
	replacement *Replacement
	paint       paint
}

func defaultStyle() style {
	return style{
		size:   DefaultTextSize,
		scaleX: 1,
		paint:  paint{color: color.NRGBA{A: 0xff}},
	}
}

// sameShaping reports whether a and b shape identically.
func sameShaping(a, b style) bool {
	return a.face == b.face &&
		a.size == b.size &&
		a.scaleX == b.scaleX &&
		a.shift == b.shift &&
		a.replacement == b.replacement
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// apply folds a character attribute into s. Paragraph attributes are
// ignored. repl is the stable copy of a Replacement attribute.
func (s *style) apply(a Attribute, repl *Replacement) error {
	switch a := a.(type) {
	case FontFace:
		s.face = a.Typeface
	case TextSize:
		v := float64(a)
		if !finite(v) || v < 1 {
			return &AttributeError{Name: "TextSize", Value: v}
		}
		s.size = v
	case ScaleX:
		v := float64(a)
		if !finite(v) || v <= 0 {
			return &AttributeError{Name: "ScaleX", Value: v}
		}
		s.scaleX = v
	case BaselineShift:
		v := float64(a)
		if !finite(v) {
			return &AttributeError{Name: "BaselineShift", Value: v}
		}
		s.shift = v
	case Skew:
		v := float64(a)
		if !finite(v) {
			return &AttributeError{Name: "Skew", Value: v}
		}
		s.paint.skew = v
	case Foreground:
		if a.Color != nil {
			s.paint.color = color.NRGBAModel.Convert(a.Color).(color.NRGBA)
		}
	case Stroke:
		if !finite(a.Width) || a.Width < 0 {
			return &AttributeError{Name: "Stroke width", Value: a.Width}
		}
		s.paint.stroke = a
	case Replacement:
		for _, v := range []float64{a.Width, a.Ascent, a.Descent} {
			if !finite(v) || v < 0 {
				return &AttributeError{Name: "Replacement metric", Value: v}
			}
		}
		s.replacement = repl
	}
	return nil
}

// attributes returns attributes reproducing s, without the replacement.
func (s style) attributes() []Attribute {
	attrs := []Attribute{
		TextSize(s.size),
		ScaleX(s.scaleX),
		BaselineShift(s.shift),
		Skew(s.paint.skew),
		Foreground{Color: s.paint.color},
		s.paint.stroke,
	}
	if s.face != nil {
		attrs = append(attrs, FontFace{Typeface: s.face})
	}
	return attrs
}
