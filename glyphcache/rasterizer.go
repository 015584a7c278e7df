package glyphcache

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync/atomic"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/vector"

	"github.com/gogpu/typeset/internal/stroke"
	"github.com/gogpu/typeset/shape"
)

// ErrRasterizerClosed is returned by a rasterizer used after Close.
var ErrRasterizerClosed = errors.New("glyphcache: rasterizer closed")

// StrokeStyle describes the stroke of a stroked glyph image.
type StrokeStyle struct {
	Radius     float64
	Cap        LineCap
	Join       LineJoin
	MiterLimit float64
}

// Rasterizer renders the glyphs of one strike. The cache serializes Close
// against other calls, but Bitmap, StrokedBitmap, Outline and Path may run
// concurrently.
type Rasterizer interface {
	Bitmap(id shape.GlyphID) (*Bitmap, error)
	StrokedBitmap(id shape.GlyphID, style StrokeStyle) (*Bitmap, error)
	Outline(id shape.GlyphID) (*Outline, error)
	Path(id shape.GlyphID) (*Path, error)
	Close() error
}

// RasterizerFactory creates the rasterizer of a strike.
type RasterizerFactory func(Strike) (Rasterizer, error)

// NewRasterizer returns a rasterizer that reads outlines with
// golang.org/x/image/font/sfnt and scan-converts them with
// golang.org/x/image/vector.
func NewRasterizer(s Strike) (Rasterizer, error) {
	if s.Typeface == nil {
		return nil, errors.New("glyphcache: strike without typeface")
	}
	if s.PixelHeight <= 0 || s.PixelWidth <= 0 {
		return nil, fmt.Errorf("glyphcache: invalid strike size %v x %v", s.PixelWidth, s.PixelHeight)
	}
	return &sfntRasterizer{strike: s}, nil
}

type sfntRasterizer struct {
	strike Strike
	live   atomic.Int64 // outline handles not yet released
	closed atomic.Bool
}

// transform applies the strike's horizontal scale and skew. Negative skew
// slants the top of the glyph to the right.
func (r *sfntRasterizer) transform(x, y float64) (float64, float64) {
	sx := float64(r.strike.PixelWidth) / float64(r.strike.PixelHeight)
	return x*sx + y*r.strike.Skew.Float(), y
}

func (r *sfntRasterizer) segments(id shape.GlyphID) (sfnt.Segments, error) {
	if r.closed.Load() {
		return nil, ErrRasterizerClosed
	}
	return r.strike.Typeface.LoadGlyph(id, r.strike.PixelHeight)
}

func (r *sfntRasterizer) Path(id shape.GlyphID) (*Path, error) {
	segs, err := r.segments(id)
	if err != nil {
		return nil, err
	}
	p := &Path{Segments: make([]PathSegment, 0, len(segs))}
	first := true
	for _, seg := range segs {
		ps := PathSegment{}
		var n int
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			ps.Op, n = PathOpMoveTo, 1
		case sfnt.SegmentOpLineTo:
			ps.Op, n = PathOpLineTo, 1
		case sfnt.SegmentOpQuadTo:
			ps.Op, n = PathOpQuadTo, 2
		case sfnt.SegmentOpCubeTo:
			ps.Op, n = PathOpCubicTo, 3
		}
		for i := 0; i < n; i++ {
			x, y := r.transform(shape.FixedToFloat(seg.Args[i].X), shape.FixedToFloat(seg.Args[i].Y))
			pt := PathPoint{X: float32(x), Y: float32(y)}
			ps.Points[i] = pt
			if first {
				p.MinX, p.MinY, p.MaxX, p.MaxY = pt.X, pt.Y, pt.X, pt.Y
				first = false
				continue
			}
			p.MinX = min(p.MinX, pt.X)
			p.MinY = min(p.MinY, pt.Y)
			p.MaxX = max(p.MaxX, pt.X)
			p.MaxY = max(p.MaxY, pt.Y)
		}
		p.Segments = append(p.Segments, ps)
	}
	return p, nil
}

func (r *sfntRasterizer) Outline(id shape.GlyphID) (*Outline, error) {
	segs, err := r.segments(id)
	if err != nil {
		return nil, err
	}
	r.live.Add(1)
	return NewOutline(segs, func() { r.live.Add(-1) }), nil
}

func (r *sfntRasterizer) Bitmap(id shape.GlyphID) (*Bitmap, error) {
	p, err := r.Path(id)
	if err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return &Bitmap{}, nil
	}
	return fillPath(p), nil
}

func (r *sfntRasterizer) StrokedBitmap(id shape.GlyphID, style StrokeStyle) (*Bitmap, error) {
	p, err := r.Path(id)
	if err != nil {
		return nil, err
	}
	if p.IsEmpty() || style.Radius <= 0 {
		return &Bitmap{}, nil
	}

	st := stroke.Style{
		Width:      2 * style.Radius,
		Cap:        stroke.LineCap(style.Cap),
		Join:       stroke.LineJoin(style.Join),
		MiterLimit: style.MiterLimit,
	}
	var polys []stroke.Polygon
	for _, contour := range flatten(p) {
		polys = append(polys, stroke.Expand(contour, true, st)...)
	}
	return fillPolygons(polys), nil
}

func (r *sfntRasterizer) Close() error {
	r.closed.Store(true)
	return nil
}

// liveOutlines reports outline handles not yet released.
func (r *sfntRasterizer) liveOutlines() int64 { return r.live.Load() }

// flatten converts a path into closed polylines.
func flatten(p *Path) [][]stroke.Point {
	const tolerance = 0.2
	var (
		contours [][]stroke.Point
		cur      []stroke.Point
	)
	pt := func(q PathPoint) stroke.Point { return stroke.Point{X: float64(q.X), Y: float64(q.Y)} }
	for _, seg := range p.Segments {
		switch seg.Op {
		case PathOpMoveTo:
			if len(cur) > 1 {
				contours = append(contours, cur)
			}
			cur = []stroke.Point{pt(seg.Points[0])}
		case PathOpLineTo:
			cur = append(cur, pt(seg.Points[0]))
		case PathOpQuadTo:
			if len(cur) > 0 {
				cur = stroke.FlattenQuad(cur, cur[len(cur)-1], pt(seg.Points[0]), pt(seg.Points[1]), tolerance)
			}
		case PathOpCubicTo:
			if len(cur) > 0 {
				cur = stroke.FlattenCubic(cur, cur[len(cur)-1], pt(seg.Points[0]), pt(seg.Points[1]), pt(seg.Points[2]), tolerance)
			}
		}
	}
	if len(cur) > 1 {
		contours = append(contours, cur)
	}
	return contours
}

// pixelBounds returns the integer box covering [minX, maxX] x [minY, maxY].
func pixelBounds(minX, minY, maxX, maxY float64) image.Rectangle {
	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
}

func newMask(r image.Rectangle) (*vector.Rasterizer, *Bitmap) {
	return vector.NewRasterizer(r.Dx(), r.Dy()), &Bitmap{Left: r.Min.X, Top: -r.Min.Y}
}

func fillPath(p *Path) *Bitmap {
	bounds := pixelBounds(float64(p.MinX), float64(p.MinY), float64(p.MaxX), float64(p.MaxY))
	if bounds.Empty() {
		return &Bitmap{}
	}
	z, bmp := newMask(bounds)
	dx, dy := float32(-bounds.Min.X), float32(-bounds.Min.Y)
	started := false
	for _, seg := range p.Segments {
		a := seg.Points
		switch seg.Op {
		case PathOpMoveTo:
			if started {
				z.ClosePath()
			}
			z.MoveTo(a[0].X+dx, a[0].Y+dy)
			started = true
		case PathOpLineTo:
			z.LineTo(a[0].X+dx, a[0].Y+dy)
		case PathOpQuadTo:
			z.QuadTo(a[0].X+dx, a[0].Y+dy, a[1].X+dx, a[1].Y+dy)
		case PathOpCubicTo:
			z.CubeTo(a[0].X+dx, a[0].Y+dy, a[1].X+dx, a[1].Y+dy, a[2].X+dx, a[2].Y+dy)
		}
	}
	if started {
		z.ClosePath()
	}
	mask := image.NewAlpha(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	bmp.Image = mask
	return bmp
}

func fillPolygons(polys []stroke.Polygon) *Bitmap {
	if len(polys) == 0 {
		return &Bitmap{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, poly := range polys {
		for _, q := range poly {
			minX, minY = min(minX, q.X), min(minY, q.Y)
			maxX, maxY = max(maxX, q.X), max(maxY, q.Y)
		}
	}
	bounds := pixelBounds(minX, minY, maxX, maxY)
	if bounds.Empty() {
		return &Bitmap{}
	}
	z, bmp := newMask(bounds)
	dx, dy := -float64(bounds.Min.X), -float64(bounds.Min.Y)
	for _, poly := range polys {
		for i, q := range poly {
			x, y := float32(q.X+dx), float32(q.Y+dy)
			if i == 0 {
				z.MoveTo(x, y)
			} else {
				z.LineTo(x, y)
			}
		}
		z.ClosePath()
	}
	mask := image.NewAlpha(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	bmp.Image = mask
	return bmp
}

// tint converts an alpha mask into a premultiplied RGBA image of color c.
func tint(mask *Bitmap, c [4]uint8) *Bitmap {
	alpha, ok := mask.Image.(*image.Alpha)
	if !ok || mask.Empty() {
		return &Bitmap{Left: mask.Left, Top: mask.Top}
	}
	b := alpha.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := uint32(alpha.AlphaAt(x, y).A)
			if a == 0 {
				continue
			}
			i := dst.PixOffset(x, y)
			// Premultiply: straight color times coverage times color alpha.
			ca := a * uint32(c[3]) / 255
			dst.Pix[i+0] = uint8(uint32(c[0]) * ca / 255)
			dst.Pix[i+1] = uint8(uint32(c[1]) * ca / 255)
			dst.Pix[i+2] = uint8(uint32(c[2]) * ca / 255)
			dst.Pix[i+3] = uint8(ca)
		}
	}
	return &Bitmap{Image: dst, Left: mask.Left, Top: mask.Top}
}
