package typeset

import (
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-text/typesetting/language"

	"github.com/gogpu/typeset/bidi"
	"github.com/gogpu/typeset/breaks"
	"github.com/gogpu/typeset/internal/caret"
	"github.com/gogpu/typeset/script"
	"github.com/gogpu/typeset/shape"
)

var (
	defaultShaper   = sync.OnceValue(func() shape.Engine { return shape.NewHarfBuzz() })
	defaultBreaking = sync.OnceValue(func() breaks.Classifier { return breaks.NewSegmenterClassifier() })
)

// TypesetterOption configures a Typesetter.
type TypesetterOption func(*typesetterConfig)

type typesetterConfig struct {
	bidi      bidi.Algorithm
	scripts   script.Classifier
	shaper    shape.Engine
	breaking  breaks.Classifier
	direction bidi.Direction
	language  language.Language
}

func defaultTypesetterConfig() typesetterConfig {
	return typesetterConfig{
		bidi:     bidi.Default{},
		scripts:  script.Default{},
		shaper:   defaultShaper(),
		breaking: defaultBreaking(),
	}
}

// WithBidi sets the bidi algorithm. Default: bidi.Default.
func WithBidi(a bidi.Algorithm) TypesetterOption {
	return func(c *typesetterConfig) { c.bidi = a }
}

// WithScriptClassifier sets the script classifier. Default: script.Default.
func WithScriptClassifier(s script.Classifier) TypesetterOption {
	return func(c *typesetterConfig) { c.scripts = s }
}

// WithShaper sets the shaping engine. Default: a shared shape.HarfBuzz.
func WithShaper(e shape.Engine) TypesetterOption {
	return func(c *typesetterConfig) { c.shaper = e }
}

// WithBreakClassifier sets the break classifier. Default: a shared
// breaks.SegmenterClassifier.
func WithBreakClassifier(b breaks.Classifier) TypesetterOption {
	return func(c *typesetterConfig) { c.breaking = b }
}

// WithBaseDirection sets the base direction of every paragraph.
// Default: bidi.Auto.
func WithBaseDirection(d bidi.Direction) TypesetterOption {
	return func(c *typesetterConfig) { c.direction = d }
}

// WithLanguage sets the language passed to the shaping engine.
func WithLanguage(lang language.Language) TypesetterOption {
	return func(c *typesetterConfig) { c.language = lang }
}

type spanRecord struct {
	Span
	repl *Replacement
}

// Typesetter shapes text once and composes lines and frames from it.
//
// A Typesetter is immutable after construction: lines and frames may be
// composed from several goroutines at once. Close must not run
// concurrently with them.
type Typesetter struct {
	cfg   typesetterConfig
	str   string
	text  []rune
	spans []spanRecord

	// defaults apply to the whole text, below spans.
	defaults []Attribute

	// styles[k] applies to [bounds[k], bounds[k+1]).
	bounds []int
	styles []style

	paragraphs []bidi.Paragraph
	record     breaks.Record
	runs       []*intrinsicRun
	resolver   *breaks.Resolver

	closed atomic.Bool
}

// NewTypesetter shapes text formatted by spans over defaults.
//
// Every character not covered by a Replacement needs a typeface, either
// from defaults or from a span; otherwise a *TypefaceError names the
// uncovered range.
func NewTypesetter(text string, spans []Span, defaults []Attribute, opts ...TypesetterOption) (*Typesetter, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	cfg := defaultTypesetterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &Typesetter{
		cfg:  cfg,
		str:  text,
		text: []rune(text),
	}
	if err := t.resolveStyles(spans, defaults); err != nil {
		return nil, err
	}

	t.record = breaks.NewRecord(t.text, cfg.breaking)
	paragraphs, err := cfg.bidi.Paragraphs(t.text, 0, len(t.text), cfg.direction)
	if err != nil {
		return nil, fmt.Errorf("typeset: resolve paragraphs: %w", err)
	}
	t.paragraphs = paragraphs
	for _, p := range paragraphs {
		t.record.MarkParagraph(p.Start(), p.End())
	}

	for _, p := range paragraphs {
		for _, br := range p.Runs() {
			for _, sr := range cfg.scripts.Runs(t.text, br.Start, br.End) {
				scriptRTL := script.IsRightToLeft(t.text, sr.Start, sr.End)
				if err := t.shapeRange(sr.Start, sr.End, br.Level, sr.Script, scriptRTL); err != nil {
					t.release()
					return nil, err
				}
			}
		}
	}
	t.resolver = breaks.NewResolver(t.text, t.record, t)
	return t, nil
}

// resolveStyles validates spans and folds them into style segments.
func (t *Typesetter) resolveStyles(spans []Span, defaults []Attribute) error {
	n := len(t.text)
	t.defaults = slices.Clone(defaults)
	base := defaultStyle()
	for _, a := range defaults {
		var repl *Replacement
		if r, ok := a.(Replacement); ok {
			repl = &r
		}
		if err := base.apply(a, repl); err != nil {
			return err
		}
	}

	bounds := []int{0, n}
	t.spans = make([]spanRecord, 0, len(spans))
	for _, s := range spans {
		if err := checkRange(s.Start, s.End, n); err != nil {
			return err
		}
		rec := spanRecord{Span: s}
		if r, ok := s.Attr.(Replacement); ok {
			rec.repl = &r
		}
		t.spans = append(t.spans, rec)
		bounds = append(bounds, s.Start, s.End)
	}
	slices.Sort(bounds)
	t.bounds = slices.Compact(bounds)

	t.styles = make([]style, len(t.bounds)-1)
	for k := range t.styles {
		st := base
		lo, hi := t.bounds[k], t.bounds[k+1]
		for _, s := range t.spans {
			if s.Start < hi && s.End > lo {
				if err := st.apply(s.Attr, s.repl); err != nil {
					return err
				}
			}
		}
		t.styles[k] = st
	}

	for k := 0; k < len(t.styles); k++ {
		if t.styles[k].face != nil || t.styles[k].replacement != nil {
			continue
		}
		j := k + 1
		for j < len(t.styles) && t.styles[j].face == nil && t.styles[j].replacement == nil {
			j++
		}
		return &TypefaceError{Start: t.bounds[k], End: t.bounds[j]}
	}
	return nil
}

// segmentAt returns the index of the style segment holding character i.
func (t *Typesetter) segmentAt(i int) int {
	k := sort.SearchInts(t.bounds, i+1) - 1
	return min(max(k, 0), len(t.styles)-1)
}

func (t *Typesetter) styleAt(i int) style {
	return t.styles[t.segmentAt(i)]
}

// shapeRange shapes [start, end) of one bidi level and script, one piece
// per run of identical shaping attributes.
func (t *Typesetter) shapeRange(start, end int, level uint8, scr language.Script, scriptRTL bool) error {
	for lo := start; lo < end; {
		k := t.segmentAt(lo)
		st := t.styles[k]
		hi := min(t.bounds[k+1], end)
		for hi < end {
			next := t.segmentAt(hi)
			if !sameShaping(st, t.styles[next]) {
				break
			}
			hi = min(t.bounds[next+1], end)
		}

		var (
			run *intrinsicRun
			err error
		)
		if st.replacement != nil {
			run = t.replacementRun(lo, hi, level, st)
		} else {
			run, err = t.shapeRun(lo, hi, level, scr, scriptRTL, st)
			if err != nil {
				return err
			}
		}
		t.runs = append(t.runs, run)
		lo = hi
	}
	return nil
}

func (t *Typesetter) shapeRun(start, end int, level uint8, scr language.Script, scriptRTL bool, st style) (*intrinsicRun, error) {
	levelRTL := level&1 == 1
	req := shape.Request{
		Typeface: st.face,
		Size:     st.size,
		Script:   scr,
		Language: t.cfg.language,
	}
	if scriptRTL {
		req.Direction = shape.RightToLeft
	}
	if scriptRTL != levelRTL {
		req.Order = shape.Backward
	}

	res, err := t.cfg.shaper.Shape(t.text, start, end, req)
	if err != nil {
		return nil, fmt.Errorf("typeset: shape [%d, %d): %w", start, end, err)
	}
	if err := res.Validate(end - start); err != nil {
		return nil, fmt.Errorf("typeset: shape [%d, %d): %w", start, end, err)
	}
	Logger().Debug("typeset: shaped run",
		"start", start, "end", end, "level", level, "script", scr, "glyphs", len(res.GlyphIDs))

	if st.scaleX != 1 {
		for i := range res.Advances {
			res.Advances[i] *= st.scaleX
			res.Offsets[i].X *= st.scaleX
		}
	}

	m := st.face.Metrics(st.size)
	run := &intrinsicRun{
		start:      start,
		end:        end,
		level:      level,
		backward:   res.IsBackward,
		style:      st,
		ascent:     m.Ascent + st.shift,
		descent:    m.Descent - st.shift,
		leading:    m.Leading,
		glyphIDs:   res.GlyphIDs,
		offsets:    res.Offsets,
		advances:   res.Advances,
		clusterMap: res.ClusterMap,
	}
	run.edges = caret.BuildEdges(run.advances, run.clusterMap, t.caretStops(start, end), run.backward, levelRTL)
	return run, nil
}

// replacementRun lays [start, end) out as one synthetic glyph.
func (t *Typesetter) replacementRun(start, end int, level uint8, st style) *intrinsicRun {
	r := st.replacement
	n := end - start
	run := &intrinsicRun{
		start:      start,
		end:        end,
		level:      level,
		backward:   level&1 == 1,
		style:      st,
		ascent:     r.Ascent + st.shift,
		descent:    r.Descent - st.shift,
		glyphIDs:   []shape.GlyphID{0},
		offsets:    []shape.Offset{{}},
		advances:   []float64{r.Width},
		clusterMap: make([]int, n),
	}
	run.edges = caret.BuildEdges(run.advances, run.clusterMap, make([]bool, n), run.backward, level&1 == 1)
	return run
}

// caretStops returns the grapheme boundaries of [start, end): stops[i]
// reports a boundary after character start+i.
func (t *Typesetter) caretStops(start, end int) []bool {
	stops := make([]bool, end-start)
	for i := range stops {
		stops[i] = t.record.Has(start+i, breaks.CharForward|breaks.ParagraphForward)
	}
	return stops
}

// runIndex returns the index of the first intrinsic run ending after i.
func (t *Typesetter) runIndex(i int) int {
	return sort.Search(len(t.runs), func(k int) bool { return t.runs[k].end > i })
}

// Text returns the typeset text.
func (t *Typesetter) Text() string { return t.str }

// Len returns the number of characters (runes) of the text.
func (t *Typesetter) Len() int { return len(t.text) }

// Measure returns the advance of the characters [start, end), summing caret
// distances of the shaped runs. It implements breaks.Measurer.
func (t *Typesetter) Measure(start, end int) float64 {
	var w float64
	for k := t.runIndex(start); k < len(t.runs) && t.runs[k].start < end; k++ {
		r := t.runs[k]
		w += r.distance(max(start, r.start), min(end, r.end))
	}
	return w
}

// SuggestForwardBreak returns the end of the longest prefix of
// [start, end) fitting extent, breaking at boundaries of kind. The result
// is greater than start for a non-empty range.
func (t *Typesetter) SuggestForwardBreak(start, end int, extent float64, kind breaks.Kind) (int, error) {
	if err := t.check(start, end); err != nil {
		return 0, err
	}
	return t.resolver.SuggestForward(start, end, extent, kind), nil
}

// SuggestBackwardBreak returns the start of the longest suffix of
// [start, end) fitting extent. The result is less than end for a non-empty
// range.
func (t *Typesetter) SuggestBackwardBreak(start, end int, extent float64, kind breaks.Kind) (int, error) {
	if err := t.check(start, end); err != nil {
		return 0, err
	}
	return t.resolver.SuggestBackward(start, end, extent, kind), nil
}

func (t *Typesetter) check(start, end int) error {
	if t.closed.Load() {
		return ErrClosed
	}
	return checkRange(start, end, len(t.text))
}

// paragraphIndex returns the index of the paragraph holding character i.
func (t *Typesetter) paragraphIndex(i int) int {
	k := sort.Search(len(t.paragraphs), func(k int) bool { return t.paragraphs[k].End() > i })
	return min(k, len(t.paragraphs)-1)
}

// Close releases the bidi paragraphs. Lines and frames composed earlier
// stay valid. Close is idempotent.
func (t *Typesetter) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	t.release()
	return nil
}

func (t *Typesetter) release() {
	for _, p := range t.paragraphs {
		p.Release()
	}
}
