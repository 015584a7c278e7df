package typeset

import (
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"

	"github.com/gogpu/typeset/glyphcache"
	"github.com/gogpu/typeset/shape"
)

// GlyphPaint describes how a canvas draws a glyph run.
type GlyphPaint struct {
	Typeface *shape.Typeface
	Size     float64
	ScaleX   float64
	Skew     float64
	Color    color.NRGBA

	// Stroke draws outlines when its Width is positive.
	Stroke Stroke
}

// Canvas draws glyphs. DrawGlyphs draws ids starting with the pen at (x, y)
// on the baseline, applying offsets[i] to glyph i and moving the pen by
// advances[i] after it.
type Canvas interface {
	DrawGlyphs(x, y float64, paint GlyphPaint, ids []shape.GlyphID, offsets []shape.Offset, advances []float64)
}

// Draw draws the line with its left baseline point at (x, y).
func (l *ComposedLine) Draw(c Canvas, x, y float64) {
	for _, g := range l.runs {
		gx, gy := x+g.originX, y+g.originY
		if g.replacement != nil {
			if g.replacement.Draw != nil {
				g.replacement.Draw(c, gx, gy)
			}
			continue
		}
		if len(g.glyphIDs) == 0 || g.typeface == nil {
			continue
		}
		c.DrawGlyphs(gx, gy, g.glyphPaint(), g.glyphIDs, g.offsets, g.advances)
	}
}

// Draw draws the frame with its top-left corner at the frame origin shifted
// by (dx, dy).
func (f *ComposedFrame) Draw(c Canvas, dx, dy float64) {
	x, y := f.originX+dx, f.originY+dy
	for _, l := range f.lines {
		l.Draw(c, x+l.originX, y+l.originY)
	}
}

func (g *GlyphRun) glyphPaint() GlyphPaint {
	return GlyphPaint{
		Typeface: g.typeface,
		Size:     g.size,
		ScaleX:   g.scaleX,
		Skew:     g.paint.skew,
		Color:    g.paint.color,
		Stroke:   g.paint.stroke,
	}
}

// DefaultGlyphCache returns the process-wide glyph cache used by canvases
// created without one.
var DefaultGlyphCache = sync.OnceValue(glyphcache.New)

// ImageCanvas draws glyphs onto a draw.Image using a glyph cache.
type ImageCanvas struct {
	dst   draw.Image
	cache *glyphcache.Cache
}

// NewImageCanvas returns a canvas drawing onto dst. A nil cache means
// DefaultGlyphCache().
func NewImageCanvas(dst draw.Image, cache *glyphcache.Cache) *ImageCanvas {
	if cache == nil {
		cache = DefaultGlyphCache()
	}
	return &ImageCanvas{dst: dst, cache: cache}
}

// Image returns the destination image.
func (c *ImageCanvas) Image() draw.Image { return c.dst }

// DrawGlyphs implements Canvas.
func (c *ImageCanvas) DrawGlyphs(x, y float64, paint GlyphPaint, ids []shape.GlyphID, offsets []shape.Offset, advances []float64) {
	if paint.Typeface == nil || paint.Color.A == 0 {
		return
	}
	scaleX := paint.ScaleX
	if scaleX <= 0 {
		scaleX = 1
	}
	strike := glyphcache.NewStrike(paint.Typeface, paint.Size*scaleX, paint.Size, paint.Skew)
	stroked := paint.Stroke.Width > 0
	style := glyphcache.StrokeStyle{
		Radius:     paint.Stroke.Width / 2,
		Cap:        paint.Stroke.Cap,
		Join:       paint.Stroke.Join,
		MiterLimit: paint.Stroke.MiterLimit,
	}
	src := image.NewUniform(paint.Color)

	pen := x
	for i, id := range ids {
		gx, gy := pen, y
		if i < len(offsets) {
			gx += offsets[i].X
			gy += offsets[i].Y
		}
		if i < len(advances) {
			pen += advances[i]
		}

		var bmp *glyphcache.Bitmap
		if stroked {
			bmp = c.cache.StrokedGlyphImage(strike, id, style)
		} else {
			bmp = c.cache.ColoredGlyphImage(strike, id, paint.Color)
		}
		if bmp.Empty() {
			continue
		}
		b := bmp.Image.Bounds()
		px := int(math.Round(gx)) + bmp.Left
		py := int(math.Round(gy)) - bmp.Top
		r := image.Rect(px, py, px+b.Dx(), py+b.Dy())
		if stroked {
			draw.DrawMask(c.dst, r, src, image.Point{}, bmp.Image, b.Min, draw.Over)
		} else {
			draw.Draw(c.dst, r, bmp.Image, b.Min, draw.Over)
		}
	}
}
