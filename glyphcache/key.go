package glyphcache

import (
	"image/color"
	"math"

	"golang.org/x/image/math/fixed"

	"github.com/gogpu/typeset/shape"
)

// Fixed16 is a signed 16.16 fixed-point number.
type Fixed16 int32

// Float16 converts a float64 to Fixed16.
func Float16(v float64) Fixed16 { return Fixed16(math.Round(v * 65536)) }

// Float returns the value as a float64.
func (f Fixed16) Float() float64 { return float64(f) / 65536 }

// Strike identifies a typeface rendered at one size and skew.
type Strike struct {
	Typeface    *shape.Typeface
	PixelWidth  fixed.Int26_6
	PixelHeight fixed.Int26_6
	Skew        Fixed16
}

// NewStrike returns the strike of tf at the given pixel sizes. A skew of
// -0.25 slants glyphs to the right like a synthetic oblique.
func NewStrike(tf *shape.Typeface, pixelWidth, pixelHeight, skew float64) Strike {
	return Strike{
		Typeface:    tf,
		PixelWidth:  fixed.Int26_6(math.Round(pixelWidth * 64)),
		PixelHeight: fixed.Int26_6(math.Round(pixelHeight * 64)),
		Skew:        Float16(skew),
	}
}

// Kind selects what a cache segment stores.
type Kind uint8

const (
	// KindData holds plain glyph masks, outlines and paths.
	KindData Kind = iota
	// KindColor holds glyph images tinted with a foreground color.
	KindColor
	// KindStroke holds masks of stroked glyph outlines.
	KindStroke
)

func (k Kind) String() string {
	switch k {
	case KindColor:
		return "color"
	case KindStroke:
		return "stroke"
	default:
		return "data"
	}
}

// LineCap is the cap of open stroke ends.
type LineCap uint8

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

// LineJoin is the join of stroke corners.
type LineJoin uint8

const (
	JoinMiter LineJoin = iota
	JoinRound
	JoinBevel
)

// Key identifies a cache segment. Fields that do not apply to Kind are zero,
// so keys compare and hash structurally.
type Key struct {
	Kind   Kind
	Strike Strike

	// KindColor
	Color color.NRGBA

	// KindStroke
	StrokeRadius Fixed16
	StrokeCap    LineCap
	StrokeJoin   LineJoin
	MiterLimit   Fixed16
}

// DataKey returns the key of plain glyph data for s.
func DataKey(s Strike) Key {
	return Key{Kind: KindData, Strike: s}
}

// ColorKey returns the key of glyph images of s tinted with c.
func ColorKey(s Strike, c color.Color) Key {
	return Key{Kind: KindColor, Strike: s, Color: color.NRGBAModel.Convert(c).(color.NRGBA)}
}

// StrokeKey returns the key of stroked glyph masks of s.
func StrokeKey(s Strike, radius float64, lineCap LineCap, join LineJoin, miterLimit float64) Key {
	return Key{
		Kind:         KindStroke,
		Strike:       s,
		StrokeRadius: Float16(radius),
		StrokeCap:    lineCap,
		StrokeJoin:   join,
		MiterLimit:   Float16(miterLimit),
	}
}
