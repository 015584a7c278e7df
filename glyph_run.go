package typeset

import (
	"image/color"
	"slices"

	"github.com/gogpu/typeset/internal/caret"
	"github.com/gogpu/typeset/shape"
)

// intrinsicRun is one shaped piece of text: a single bidi level, script and
// shaping style. It is never modified after shaping.
type intrinsicRun struct {
	start, end int
	level      uint8
	backward   bool
	style      style

	ascent, descent, leading float64

	glyphIDs   []shape.GlyphID
	offsets    []shape.Offset
	advances   []float64
	clusterMap []int
	edges      []float64
}

func (r *intrinsicRun) rtl() bool { return r.level&1 == 1 }

// distance returns the caret distance between characters a and b.
func (r *intrinsicRun) distance(a, b int) float64 {
	d := r.edges[b-r.start] - r.edges[a-r.start]
	if d < 0 {
		return -d
	}
	return d
}

// clusterStart moves i forward to the next cluster boundary, capped at limit.
func (r *intrinsicRun) clusterStart(i, limit int) int {
	for i < limit && i > r.start && r.clusterMap[i-r.start] == r.clusterMap[i-1-r.start] {
		i++
	}
	return i
}

// slice returns a glyph run over the characters [a, b) drawn with p.
func (r *intrinsicRun) slice(a, b int, p paint) *GlyphRun {
	gs, ge := caret.GlyphRange(r.clusterMap, len(r.glyphIDs), r.backward, a-r.start, b-r.start)
	pivot := r.edges[a-r.start]
	if r.rtl() {
		pivot = r.edges[b-r.start]
	}
	g := &GlyphRun{
		charStart:   a,
		charEnd:     b,
		level:       r.level,
		backward:    r.backward,
		typeface:    r.style.face,
		size:        r.style.size,
		scaleX:      r.style.scaleX,
		paint:       p,
		replacement: r.style.replacement,
		ascent:      r.ascent,
		descent:     r.descent,
		leading:     r.leading,
		originY:     -r.style.shift,
		glyphIDs:    r.glyphIDs[gs:ge],
		offsets:     r.offsets[gs:ge],
		advances:    r.advances[gs:ge],
		clusterMap:  caret.NewClusterMap(r.clusterMap, a-r.start, b-a, gs),
		edges:       caret.NewEdgeList(r.edges, a-r.start, b-a+1, pivot, r.rtl()),
	}
	for _, adv := range g.advances {
		g.width += adv
	}
	return g
}

// GlyphRun is a visually contiguous slice of shaped glyphs sharing one
// typeface, size, bidi level and paint. Glyph slices are in visual order,
// left to right, and may share storage with other runs: they must not be
// modified.
type GlyphRun struct {
	charStart, charEnd int
	level              uint8
	backward           bool

	typeface    *shape.Typeface
	size        float64
	scaleX      float64
	paint       paint
	replacement *Replacement

	ascent, descent, leading float64

	originX, originY float64
	width            float64

	glyphIDs   []shape.GlyphID
	offsets    []shape.Offset
	advances   []float64
	clusterMap caret.ClusterMap
	edges      caret.EdgeList
}

// CharStart returns the first character of the run.
func (g *GlyphRun) CharStart() int { return g.charStart }

// CharEnd returns the character after the last one of the run.
func (g *GlyphRun) CharEnd() int { return g.charEnd }

// BidiLevel returns the embedding level of the run.
func (g *GlyphRun) BidiLevel() uint8 { return g.level }

// IsRTL reports whether the run is presented right to left.
func (g *GlyphRun) IsRTL() bool { return g.level&1 == 1 }

// IsBackward reports whether the glyphs are stored in reverse logical order.
func (g *GlyphRun) IsBackward() bool { return g.backward }

// Typeface returns the typeface, or nil for a replacement run.
func (g *GlyphRun) Typeface() *shape.Typeface { return g.typeface }

// TextSize returns the text size in pixels per em.
func (g *GlyphRun) TextSize() float64 { return g.size }

// ScaleX returns the horizontal glyph scale.
func (g *GlyphRun) ScaleX() float64 { return g.scaleX }

// Color returns the foreground color.
func (g *GlyphRun) Color() color.NRGBA { return g.paint.color }

// Replacement returns the replacement object drawn instead of glyphs, or nil.
func (g *GlyphRun) Replacement() *Replacement { return g.replacement }

// Ascent returns the distance from the baseline to the top of the run.
func (g *GlyphRun) Ascent() float64 { return g.ascent }

// Descent returns the distance from the baseline to the bottom of the run.
func (g *GlyphRun) Descent() float64 { return g.descent }

// Leading returns the line gap of the run's typeface.
func (g *GlyphRun) Leading() float64 { return g.leading }

// OriginX returns the left edge of the run relative to the line origin.
func (g *GlyphRun) OriginX() float64 { return g.originX }

// OriginY returns the baseline of the run relative to the line baseline.
// It differs from zero for baseline-shifted text.
func (g *GlyphRun) OriginY() float64 { return g.originY }

// Width returns the sum of the glyph advances.
func (g *GlyphRun) Width() float64 { return g.width }

// GlyphIDs returns the glyphs in visual order.
func (g *GlyphRun) GlyphIDs() []shape.GlyphID { return g.glyphIDs }

// GlyphOffsets returns per-glyph displacements.
func (g *GlyphRun) GlyphOffsets() []shape.Offset { return g.offsets }

// GlyphAdvances returns per-glyph advances.
func (g *GlyphRun) GlyphAdvances() []float64 { return g.advances }

// ClusterMap returns, for every character of the run, the index of the
// first glyph of its cluster within GlyphIDs.
func (g *GlyphRun) ClusterMap() []int { return g.clusterMap.Slice() }

// CaretEdges returns the caret positions before every character and after
// the last one, relative to the left edge of the run.
func (g *GlyphRun) CaretEdges() []float64 { return g.edges.Slice() }

// CaretDistance returns the caret position before character i, relative to
// the left edge of the run.
func (g *GlyphRun) CaretDistance(i int) float64 {
	return g.edges.Get(i - g.charStart)
}

// elided returns a copy of g standing for the characters [start, end) with
// a single caret stop at the far edge. Truncation tokens use it.
func (g *GlyphRun) elided(start, end int) *GlyphRun {
	n := end - start
	cm := make([]int, n) // one cluster holding every glyph
	edges := caret.BuildEdges(g.advances, cm, make([]bool, n), g.backward, g.IsRTL())
	if n == 0 {
		edges = []float64{0}
	}

	out := *g
	out.charStart, out.charEnd = start, end
	out.clusterMap = caret.NewClusterMap(cm, 0, n, 0)
	out.edges = caret.NewEdgeList(edges, 0, n+1, 0, g.IsRTL())
	return &out
}

// justified returns a copy of g where every character i of [lo, hi) for
// which space(i) holds is widened by extra. A character's share is split
// among the glyphs of its cluster in proportion to their advances.
func (g *GlyphRun) justified(lo, hi int, extra float64, space func(i int) bool) *GlyphRun {
	n := g.charEnd - g.charStart
	cm := g.clusterMap.Slice()
	adv := slices.Clone(g.advances)
	added := make([]float64, n)
	var total float64

	for i := max(lo, g.charStart); i < min(hi, g.charEnd); i++ {
		if !space(i) {
			continue
		}
		k := i - g.charStart
		gs, ge := caret.GlyphRange(cm, len(adv), g.backward, k, k+1)
		if gs >= ge {
			continue
		}
		var clusterAdvance float64
		for j := gs; j < ge; j++ {
			clusterAdvance += g.advances[j]
		}
		for j := gs; j < ge; j++ {
			if clusterAdvance > 0 {
				adv[j] += extra * g.advances[j] / clusterAdvance
			} else {
				adv[j] += extra / float64(ge-gs)
			}
		}
		added[k] = extra
		total += extra
	}
	if total == 0 {
		return g
	}

	// Shift caret edges by the space added before them in visual order.
	edges := g.edges.Slice()
	if g.IsRTL() {
		var acc float64
		for k := n; k >= 0; k-- {
			if k < n {
				acc += added[k]
			}
			edges[k] += acc
		}
	} else {
		var acc float64
		for k := 0; k <= n; k++ {
			edges[k] += acc
			if k < n {
				acc += added[k]
			}
		}
	}

	out := *g
	out.advances = adv
	out.edges = caret.NewEdgeList(edges, 0, n+1, 0, g.IsRTL())
	out.width = g.width + total
	return &out
}
