package shape

import (
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
)

// HarfBuzz shapes text with the HarfBuzz port of go-text/typesetting.
//
// HarfbuzzShaper instances keep internal buffers and are not safe for
// concurrent use, so they are pooled. font.Face is created per call from
// the typeface's shared, read-only font.Font.
type HarfBuzz struct {
	pool sync.Pool
}

// NewHarfBuzz returns a HarfBuzz engine.
func NewHarfBuzz() *HarfBuzz {
	return &HarfBuzz{
		pool: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
	}
}

var defaultLanguage = language.NewLanguage("en")

// Shape implements Engine.
//
// HarfBuzz stores glyphs in visual order, so a right-to-left buffer yields
// glyphs in backward order. The buffer direction is therefore the direction
// that produces the requested order.
func (h *HarfBuzz) Shape(text []rune, start, end int, req Request) (Result, error) {
	count := end - start
	if count <= 0 || req.Typeface == nil {
		return Result{ClusterMap: make([]int, max(count, 0))}, nil
	}

	backward := (req.Direction == RightToLeft) != (req.Order == Backward)
	dir := di.DirectionLTR
	if backward {
		dir = di.DirectionRTL
	}
	lang := req.Language
	if lang == "" {
		lang = defaultLanguage
	}

	input := shaping.Input{
		Text:      text,
		RunStart:  start,
		RunEnd:    end,
		Direction: dir,
		Face:      font.NewFace(req.Typeface.gotext),
		Size:      FloatToFixed(req.Size),
		Script:    req.Script,
		Language:  lang,
	}

	hb := h.pool.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(input)
	h.pool.Put(hb)

	n := len(out.Glyphs)
	res := Result{
		IsBackward: backward,
		GlyphIDs:   make([]GlyphID, n),
		Offsets:    make([]Offset, n),
		Advances:   make([]float64, n),
	}
	clusters := make([]int, n)
	for i, g := range out.Glyphs {
		res.GlyphIDs[i] = GlyphID(uint16(g.GlyphID)) //nolint:gosec // glyph ids of sfnt fonts fit in 16 bits
		res.Offsets[i] = Offset{X: FixedToFloat(g.XOffset), Y: -FixedToFloat(g.YOffset)}
		res.Advances[i] = FixedToFloat(g.Advance)
		clusters[i] = min(max(g.ClusterIndex-start, 0), count-1)
	}
	res.ClusterMap = BuildClusterMap(clusters, count, backward)
	return res, nil
}

// BuildClusterMap converts per-glyph cluster starts (character offsets
// relative to the run) into a per-character cluster map. Characters without
// a glyph of their own belong to the cluster before them.
func BuildClusterMap(clusters []int, count int, backward bool) []int {
	m := make([]int, count)
	for i := range m {
		m[i] = -1
	}
	for g, c := range clusters {
		if m[c] == -1 {
			m[c] = g
		}
	}
	if count > 0 && m[0] == -1 {
		m[0] = 0
		if backward && len(clusters) > 0 {
			m[0] = len(clusters) - 1
		}
	}
	for i := 1; i < count; i++ {
		if m[i] == -1 {
			m[i] = m[i-1]
		}
	}
	return m
}
