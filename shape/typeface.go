package shape

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	gotext "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// ErrEmptyFontData is returned when a typeface is created from no bytes.
var ErrEmptyFontData = errors.New("shape: empty font data")

// GlyphID is a glyph index inside a typeface.
type GlyphID uint16

// Metrics holds the vertical metrics of a typeface at a size, in pixels.
// Descent is positive below the baseline.
type Metrics struct {
	Ascent  float64
	Descent float64
	Leading float64
}

// Typeface is a parsed font program. It is immutable and safe for
// concurrent use; it is shared by typesetters, composed lines and the glyph
// cache.
type Typeface struct {
	id     uint64
	name   string
	data   []byte
	sfnt   *opentype.Font
	gotext *gotext.Font

	// sfnt.Buffer is not safe for concurrent use.
	buffers sync.Pool
}

var typefaceIDs atomic.Uint64

// TypefaceOption configures a Typeface.
type TypefaceOption func(*typefaceConfig)

type typefaceConfig struct {
	name string
}

// WithName overrides the family name read from the font's name table.
func WithName(name string) TypefaceOption {
	return func(c *typefaceConfig) {
		c.name = name
	}
}

// NewTypeface parses TrueType or OpenType font data. The data is copied.
func NewTypeface(data []byte, opts ...TypefaceOption) (*Typeface, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	var cfg typefaceConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	data = bytes.Clone(data)
	sf, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("shape: parse font: %w", err)
	}
	face, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("shape: parse font for shaping: %w", err)
	}

	t := &Typeface{
		id:     typefaceIDs.Add(1),
		name:   cfg.name,
		data:   data,
		sfnt:   sf,
		gotext: face.Font,
	}
	t.buffers.New = func() any { return new(sfnt.Buffer) }
	if t.name == "" {
		if n, err := sf.Name(nil, sfnt.NameIDFamily); err == nil {
			t.name = n
		}
	}
	return t, nil
}

// LoadTypeface reads and parses a font file.
func LoadTypeface(path string, opts ...TypefaceOption) (*Typeface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shape: read font: %w", err)
	}
	return NewTypeface(data, opts...)
}

// ID returns a process-unique identifier of the typeface.
func (t *Typeface) ID() uint64 { return t.id }

// Name returns the family name.
func (t *Typeface) Name() string { return t.name }

// NumGlyphs returns the number of glyphs in the font.
func (t *Typeface) NumGlyphs() int { return t.sfnt.NumGlyphs() }

// UnitsPerEm returns the design units per em.
func (t *Typeface) UnitsPerEm() int { return int(t.sfnt.UnitsPerEm()) }

func (t *Typeface) buffer() *sfnt.Buffer {
	return t.buffers.Get().(*sfnt.Buffer)
}

// Metrics returns the vertical metrics at size pixels per em.
func (t *Typeface) Metrics(size float64) Metrics {
	buf := t.buffer()
	defer t.buffers.Put(buf)

	m, err := t.sfnt.Metrics(buf, FloatToFixed(size), font.HintingNone)
	if err != nil {
		return Metrics{}
	}
	ascent := FixedToFloat(m.Ascent)
	descent := FixedToFloat(m.Descent)
	return Metrics{
		Ascent:  ascent,
		Descent: descent,
		Leading: max(0, FixedToFloat(m.Height)-ascent-descent),
	}
}

// GlyphIndex returns the glyph mapped to r, or 0 when the font lacks it.
func (t *Typeface) GlyphIndex(r rune) GlyphID {
	buf := t.buffer()
	defer t.buffers.Put(buf)

	idx, err := t.sfnt.GlyphIndex(buf, r)
	if err != nil {
		return 0
	}
	return GlyphID(idx)
}

// GlyphAdvance returns the unhinted advance of a glyph at size pixels per em.
func (t *Typeface) GlyphAdvance(id GlyphID, size float64) float64 {
	buf := t.buffer()
	defer t.buffers.Put(buf)

	adv, err := t.sfnt.GlyphAdvance(buf, sfnt.GlyphIndex(id), FloatToFixed(size), font.HintingNone)
	if err != nil {
		return 0
	}
	return FixedToFloat(adv)
}

// LoadGlyph returns the outline of a glyph scaled to ppem, in pixels with
// the y axis pointing down and the origin on the baseline. The returned
// segments are owned by the caller.
func (t *Typeface) LoadGlyph(id GlyphID, ppem fixed.Int26_6) (sfnt.Segments, error) {
	buf := t.buffer()
	defer t.buffers.Put(buf)

	segs, err := t.sfnt.LoadGlyph(buf, sfnt.GlyphIndex(id), ppem, nil)
	if err != nil {
		return nil, fmt.Errorf("shape: load glyph %d: %w", id, err)
	}
	out := make(sfnt.Segments, len(segs))
	copy(out, segs)
	return out, nil
}

// FloatToFixed converts a float64 to fixed.Int26_6.
func FloatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

// FixedToFloat converts a fixed.Int26_6 to float64.
func FixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}
