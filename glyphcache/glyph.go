package glyphcache

import (
	"image"
	"sync/atomic"

	"golang.org/x/image/font/sfnt"
)

// Bitmap is a rendered glyph image.
//
// Image is an *image.Alpha mask for data and stroke entries and an
// *image.RGBA for colored entries. Its bounds start at (0, 0). Left is the
// horizontal offset of the image from the pen position and Top the distance
// from the baseline up to the first row. A nil Image means the glyph has no
// visual (a space, or a glyph that failed to rasterize).
type Bitmap struct {
	Image image.Image
	Left  int
	Top   int
}

// Empty reports whether the bitmap draws nothing.
func (b *Bitmap) Empty() bool {
	return b == nil || b.Image == nil || b.Image.Bounds().Empty()
}

func (b *Bitmap) cost() int64 {
	if b.Empty() {
		return 0
	}
	r := b.Image.Bounds()
	bpp := int64(1)
	if _, ok := b.Image.(*image.RGBA); ok {
		bpp = 4
	}
	return int64(r.Dx()) * int64(r.Dy()) * bpp
}

// Outline is a glyph outline handle owned by the rasterizer that produced it.
// Segments are in 26.6 pixels with the y axis pointing down.
type Outline struct {
	Segments sfnt.Segments

	release  func()
	released atomic.Bool
}

// NewOutline returns an outline handle. release, if not nil, runs once when
// the handle is released.
func NewOutline(segs sfnt.Segments, release func()) *Outline {
	return &Outline{Segments: segs, release: release}
}

// Release frees the handle. Only the first call has an effect.
func (o *Outline) Release() {
	if o == nil || !o.released.CompareAndSwap(false, true) {
		return
	}
	if o.release != nil {
		o.release()
	}
}

// Released reports whether Release has been called.
func (o *Outline) Released() bool {
	return o != nil && o.released.Load()
}

func (o *Outline) cost() int64 {
	if o == nil {
		return 0
	}
	return int64(len(o.Segments)) * 40
}

// PathOp is a path operation.
type PathOp uint8

const (
	PathOpMoveTo PathOp = iota
	PathOpLineTo
	PathOpQuadTo
	PathOpCubicTo
)

// String returns the operation name.
func (op PathOp) String() string {
	switch op {
	case PathOpMoveTo:
		return "MoveTo"
	case PathOpLineTo:
		return "LineTo"
	case PathOpQuadTo:
		return "QuadTo"
	case PathOpCubicTo:
		return "CubicTo"
	default:
		return "Unknown"
	}
}

// PathPoint is a point of a glyph path in pixels.
type PathPoint struct {
	X, Y float32
}

// PathSegment is one path operation.
//   - MoveTo, LineTo: Points[0] is the target
//   - QuadTo: Points[0] is the control, Points[1] the target
//   - CubicTo: Points[0], Points[1] are controls, Points[2] the target
type PathSegment struct {
	Op     PathOp
	Points [3]PathPoint
}

// Path is a glyph outline as a float path in pixels relative to the pen
// position, y down, with the strike's skew applied.
type Path struct {
	Segments []PathSegment
	MinX     float32
	MinY     float32
	MaxX     float32
	MaxY     float32
}

// IsEmpty reports whether the path has no segments.
func (p *Path) IsEmpty() bool {
	return p == nil || len(p.Segments) == 0
}

func (p *Path) cost() int64 {
	if p == nil {
		return 0
	}
	return int64(len(p.Segments)) * 28
}

// entryOverhead approximates the bookkeeping bytes of one cache entry.
const entryOverhead = 96

// glyphState is a set of loaded representations.
type glyphState uint8

const (
	bitmapLoaded glyphState = 1 << iota
	outlineLoaded
	pathLoaded
)

// glyph is a cache record. Each representation is loaded independently.
type glyph struct {
	state   glyphState
	bitmap  *Bitmap
	outline *Outline
	path    *Path
}

func (g *glyph) cost() int64 {
	return entryOverhead + g.bitmap.cost() + g.outline.cost() + g.path.cost()
}
