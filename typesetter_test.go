package typeset

import (
	"errors"
	"image/color"
	"math"
	"slices"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/typeset/breaks"
	"github.com/gogpu/typeset/shape"
)

// fixedEngine shapes every character to one glyph whose id is the character
// and whose advance is half the text size.
type fixedEngine struct{}

func (fixedEngine) Shape(text []rune, start, end int, req shape.Request) (shape.Result, error) {
	n := end - start
	backward := (req.Direction == shape.RightToLeft) != (req.Order == shape.Backward)
	res := shape.Result{
		IsBackward: backward,
		GlyphIDs:   make([]shape.GlyphID, n),
		Offsets:    make([]shape.Offset, n),
		Advances:   make([]float64, n),
		ClusterMap: make([]int, n),
	}
	for g := 0; g < n; g++ {
		c := g
		if backward {
			c = n - 1 - g
		}
		res.GlyphIDs[g] = shape.GlyphID(text[start+c])
		res.Advances[g] = req.Size / 2
		res.ClusterMap[c] = g
	}
	return res, nil
}

func goRegular(t testing.TB) *shape.Typeface {
	t.Helper()
	tf, err := shape.NewTypeface(goregular.TTF)
	if err != nil {
		t.Fatalf("NewTypeface() error = %v", err)
	}
	return tf
}

// newFixed typesets text at size 20 with fixedEngine: every character is
// 10 pixels wide.
func newFixed(t testing.TB, text string, spans []Span, opts ...TypesetterOption) *Typesetter {
	t.Helper()
	defaults := []Attribute{FontFace{Typeface: goRegular(t)}, TextSize(20)}
	opts = append([]TypesetterOption{WithShaper(fixedEngine{})}, opts...)
	ts, err := NewTypesetter(text, spans, defaults, opts...)
	if err != nil {
		t.Fatalf("NewTypesetter(%q) error = %v", text, err)
	}
	t.Cleanup(func() { _ = ts.Close() })
	return ts
}

func simpleLine(t testing.TB, ts *Typesetter, start, end int) *ComposedLine {
	t.Helper()
	l, err := ts.CreateSimpleLine(start, end)
	if err != nil {
		t.Fatalf("CreateSimpleLine(%d, %d) error = %v", start, end, err)
	}
	return l
}

func runRanges(l *ComposedLine) [][2]int {
	var out [][2]int
	for _, g := range l.Runs() {
		out = append(out, [2]int{g.CharStart(), g.CharEnd()})
	}
	return out
}

// checkPartition verifies that the runs of l cover its range without gaps.
func checkPartition(t *testing.T, l *ComposedLine) {
	t.Helper()
	ranges := runRanges(l)
	slices.SortFunc(ranges, func(a, b [2]int) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}
		return a[1] - b[1]
	})
	pos := l.CharStart()
	for _, r := range ranges {
		if r[0] != pos {
			t.Fatalf("runs %v do not partition [%d, %d)", ranges, l.CharStart(), l.CharEnd())
		}
		pos = r[1]
	}
	if pos != l.CharEnd() {
		t.Fatalf("runs %v end at %d, want %d", ranges, pos, l.CharEnd())
	}
}

func sumAdvances(l *ComposedLine) float64 {
	var sum float64
	for _, g := range l.Runs() {
		for _, a := range g.GlyphAdvances() {
			sum += a
		}
	}
	return sum
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNewTypesetterErrors(t *testing.T) {
	face := goRegular(t)
	withFace := []Attribute{FontFace{Typeface: face}}

	tests := []struct {
		name     string
		text     string
		spans    []Span
		defaults []Attribute
		check    func(error) bool
	}{
		{"empty text", "", nil, withFace, func(err error) bool { return errors.Is(err, ErrEmptyText) }},
		{"no typeface", "abc", nil, nil, func(err error) bool {
			var te *TypefaceError
			return errors.As(err, &te) && te.Start == 0 && te.End == 3
		}},
		{"partial typeface", "abc", []Span{{Start: 0, End: 1, Attr: FontFace{Typeface: face}}}, nil, func(err error) bool {
			var te *TypefaceError
			return errors.As(err, &te) && te.Start == 1 && te.End == 3
		}},
		{"size below one pixel", "abc", nil, append(withFace, TextSize(0.5)), func(err error) bool {
			var ae *AttributeError
			return errors.As(err, &ae) && ae.Name == "TextSize"
		}},
		{"zero scale", "abc", []Span{{Start: 0, End: 2, Attr: ScaleX(0)}}, withFace, func(err error) bool {
			var ae *AttributeError
			return errors.As(err, &ae) && ae.Name == "ScaleX"
		}},
		{"span out of range", "abc", []Span{{Start: 1, End: 10, Attr: TextSize(12)}}, withFace, func(err error) bool {
			var re *RangeError
			return errors.As(err, &re) && re.Index == 10 && re.Bound == 3
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTypesetter(tt.text, tt.spans, tt.defaults, WithShaper(fixedEngine{}))
			if err == nil || !tt.check(err) {
				t.Errorf("NewTypesetter() error = %v", err)
			}
		})
	}
}

func TestReplacementNeedsNoTypeface(t *testing.T) {
	spans := []Span{{Start: 0, End: 1, Attr: Replacement{Width: 12}}}
	if _, err := NewTypesetter("\uFFFC", spans, nil, WithShaper(fixedEngine{})); err != nil {
		t.Errorf("NewTypesetter() error = %v", err)
	}
}

func TestSimpleLine(t *testing.T) {
	ts := newFixed(t, "Hello", nil)
	l := simpleLine(t, ts, 0, 5)

	if l.Width() != 50 {
		t.Errorf("Width() = %v, want 50", l.Width())
	}
	if len(l.Runs()) != 1 {
		t.Fatalf("runs = %v, want one", runRanges(l))
	}
	g := l.Runs()[0]
	if !slices.Equal(g.ClusterMap(), []int{0, 1, 2, 3, 4}) {
		t.Errorf("ClusterMap() = %v", g.ClusterMap())
	}
	if !slices.Equal(g.CaretEdges(), []float64{0, 10, 20, 30, 40, 50}) {
		t.Errorf("CaretEdges() = %v", g.CaretEdges())
	}
	if l.Ascent() <= 0 || l.Descent() <= 0 {
		t.Errorf("Ascent() = %v, Descent() = %v", l.Ascent(), l.Descent())
	}
	if l.IsRTL() || l.TrailingWhitespaceExtent() != 0 {
		t.Errorf("IsRTL() = %v, TrailingWhitespaceExtent() = %v", l.IsRTL(), l.TrailingWhitespaceExtent())
	}

	sub := simpleLine(t, ts, 1, 4)
	if sub.Width() != 30 || !slices.Equal(sub.Runs()[0].ClusterMap(), []int{0, 1, 2}) {
		t.Errorf("sub line width = %v, cluster map = %v", sub.Width(), sub.Runs()[0].ClusterMap())
	}
	if got := ts.Measure(1, 3); got != 20 {
		t.Errorf("Measure(1, 3) = %v, want 20", got)
	}
}

func TestSimpleLineRangeError(t *testing.T) {
	ts := newFixed(t, "Hello", nil)
	var re *RangeError
	if _, err := ts.CreateSimpleLine(2, 9); !errors.As(err, &re) || re.Index != 9 {
		t.Errorf("CreateSimpleLine(2, 9) error = %v", err)
	}
	if _, err := ts.CreateSimpleLine(-1, 2); !errors.As(err, &re) || re.Index != -1 {
		t.Errorf("CreateSimpleLine(-1, 2) error = %v", err)
	}
}

func TestStyledRuns(t *testing.T) {
	red := color.NRGBA{R: 0xff, A: 0xff}
	tests := []struct {
		name   string
		text   string
		spans  []Span
		ranges [][2]int
		width  float64
	}{
		{
			name:   "color",
			text:   "Hello",
			spans:  []Span{{Start: 1, End: 3, Attr: Foreground{Color: red}}},
			ranges: [][2]int{{0, 1}, {1, 3}, {3, 5}},
			width:  50,
		},
		{
			name:   "scale",
			text:   "abcd",
			spans:  []Span{{Start: 0, End: 2, Attr: ScaleX(2)}},
			ranges: [][2]int{{0, 2}, {2, 4}},
			width:  60,
		},
		{
			name:   "size",
			text:   "abcd",
			spans:  []Span{{Start: 2, End: 4, Attr: TextSize(40)}},
			ranges: [][2]int{{0, 2}, {2, 4}},
			width:  60,
		},
		{
			name:   "same style merges",
			text:   "abcd",
			spans:  []Span{{Start: 0, End: 2, Attr: TextSize(20)}},
			ranges: [][2]int{{0, 4}},
			width:  40,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newFixed(t, tt.text, tt.spans)
			l := simpleLine(t, ts, 0, ts.Len())
			if got := runRanges(l); !slices.Equal(got, tt.ranges) {
				t.Errorf("runs = %v, want %v", got, tt.ranges)
			}
			if l.Width() != tt.width {
				t.Errorf("Width() = %v, want %v", l.Width(), tt.width)
			}
			var x float64
			for _, g := range l.Runs() {
				if g.OriginX() != x {
					t.Errorf("run %d-%d OriginX() = %v, want %v", g.CharStart(), g.CharEnd(), g.OriginX(), x)
				}
				x += g.Width()
			}
		})
	}

	ts := newFixed(t, "Hello", []Span{{Start: 1, End: 3, Attr: Foreground{Color: red}}})
	if got := simpleLine(t, ts, 0, 5).Runs()[1].Color(); got != red {
		t.Errorf("Color() = %v, want %v", got, red)
	}
}

func TestBaselineShift(t *testing.T) {
	ts := newFixed(t, "x2", []Span{{Start: 1, End: 2, Attr: BaselineShift(6)}})
	l := simpleLine(t, ts, 0, 2)
	runs := l.Runs()
	if len(runs) != 2 {
		t.Fatalf("runs = %v", runRanges(l))
	}
	if runs[1].OriginY() != -6 {
		t.Errorf("OriginY() = %v, want -6", runs[1].OriginY())
	}
	if l.Ascent() != runs[1].Ascent() || runs[1].Ascent() != runs[0].Ascent()+6 {
		t.Errorf("line ascent %v, run ascents %v and %v", l.Ascent(), runs[0].Ascent(), runs[1].Ascent())
	}
}

func TestBidiVisualOrder(t *testing.T) {
	// "abc " + Hebrew alef bet gimel + " def"
	ts := newFixed(t, "abc \u05D0\u05D1\u05D2 def", nil)
	l := simpleLine(t, ts, 0, ts.Len())

	if got, want := runRanges(l), [][2]int{{0, 4}, {4, 7}, {7, 11}}; !slices.Equal(got, want) {
		t.Fatalf("runs = %v, want %v", got, want)
	}
	mid := l.Runs()[1]
	if !mid.IsRTL() || !mid.IsBackward() {
		t.Errorf("IsRTL() = %v, IsBackward() = %v", mid.IsRTL(), mid.IsBackward())
	}
	if got, want := mid.GlyphIDs(), []shape.GlyphID{0x5D2, 0x5D1, 0x5D0}; !slices.Equal(got, want) {
		t.Errorf("GlyphIDs() = %x, want %x", got, want)
	}
	if l.Runs()[0].IsRTL() || l.Runs()[2].IsRTL() {
		t.Error("Latin runs are right-to-left")
	}

	// Alef is the rightmost Hebrew letter.
	if d, _ := l.ComputeCharDistance(4); d != 70 {
		t.Errorf("ComputeCharDistance(4) = %v, want 70", d)
	}
	if d, _ := l.ComputeCharDistance(6); d != 50 {
		t.Errorf("ComputeCharDistance(6) = %v, want 50", d)
	}
	checkPartition(t, l)
}

func TestIsolateReversed(t *testing.T) {
	// "abc", then Hebrew alef bet gimel inside a right-to-left isolate.
	ts := newFixed(t, "abc\u2067\u05D0\u05D1\u05D2\u2069", nil)
	l := simpleLine(t, ts, 0, ts.Len())

	var hebrew *GlyphRun
	for _, g := range l.Runs() {
		if g.IsRTL() {
			hebrew = g
		}
	}
	if hebrew == nil {
		t.Fatalf("no right-to-left run in %v", runRanges(l))
	}
	if got, want := hebrew.GlyphIDs(), []shape.GlyphID{0x5D2, 0x5D1, 0x5D0}; !slices.Equal(got, want) {
		t.Errorf("GlyphIDs() = %x, want %x", got, want)
	}
	if first := l.Runs()[0]; first.CharStart() != 0 || first.IsRTL() {
		t.Errorf("first run = [%d, %d), want the Latin prefix", first.CharStart(), first.CharEnd())
	}
	checkPartition(t, l)
}

func TestRTLPiecesReversed(t *testing.T) {
	red := color.NRGBA{R: 0xff, A: 0xff}
	ts := newFixed(t, "\u05D0\u05D1\u05D2\u05D3", []Span{{Start: 2, End: 4, Attr: Foreground{Color: red}}})
	l := simpleLine(t, ts, 0, 4)

	if !l.IsRTL() {
		t.Fatal("IsRTL() = false for a Hebrew paragraph")
	}
	if got, want := runRanges(l), [][2]int{{2, 4}, {0, 2}}; !slices.Equal(got, want) {
		t.Fatalf("runs = %v, want %v", got, want)
	}
	if got, want := l.Runs()[0].GlyphIDs(), []shape.GlyphID{0x5D3, 0x5D2}; !slices.Equal(got, want) {
		t.Errorf("left run GlyphIDs() = %x, want %x", got, want)
	}
	if got, want := l.Runs()[1].GlyphIDs(), []shape.GlyphID{0x5D1, 0x5D0}; !slices.Equal(got, want) {
		t.Errorf("right run GlyphIDs() = %x, want %x", got, want)
	}

	if got, want := l.VisualEdges(), []float64{40, 30, 20, 10, 0}; !slices.Equal(got, want) {
		t.Errorf("VisualEdges() = %v, want %v", got, want)
	}
	if got := l.FlushPenOffset(1, 100); got != 60 {
		t.Errorf("FlushPenOffset(1, 100) = %v, want 60", got)
	}
	if got := l.HitTest(38); got != 0 {
		t.Errorf("HitTest(38) = %d, want 0", got)
	}
	if got := l.HitTest(1); got != 4 {
		t.Errorf("HitTest(1) = %d, want 4", got)
	}
}

func TestHitTest(t *testing.T) {
	ts := newFixed(t, "Hello", nil)
	l := simpleLine(t, ts, 0, 5)
	tests := []struct {
		x    float64
		want int
	}{
		{-5, 0}, {4, 0}, {6, 1}, {24, 2}, {26, 3}, {49, 5}, {100, 5},
	}
	for _, tt := range tests {
		if got := l.HitTest(tt.x); got != tt.want {
			t.Errorf("HitTest(%v) = %d, want %d", tt.x, got, tt.want)
		}
	}
	if got, want := l.VisualEdges(), []float64{0, 10, 20, 30, 40, 50}; !slices.Equal(got, want) {
		t.Errorf("VisualEdges() = %v, want %v", got, want)
	}
	if _, err := l.ComputeCharDistance(6); err == nil {
		t.Error("ComputeCharDistance(6) succeeded")
	}
}

func TestTrailingWhitespace(t *testing.T) {
	ts := newFixed(t, "ab  ", nil)
	l := simpleLine(t, ts, 0, 4)
	if l.TrailingWhitespaceExtent() != 20 {
		t.Errorf("TrailingWhitespaceExtent() = %v, want 20", l.TrailingWhitespaceExtent())
	}
	if got := l.FlushPenOffset(1, 100); got != 80 {
		t.Errorf("FlushPenOffset(1, 100) = %v, want 80", got)
	}
	if got := l.FlushPenOffset(0.5, 100); got != 40 {
		t.Errorf("FlushPenOffset(0.5, 100) = %v, want 40", got)
	}
}

func TestReplacementRun(t *testing.T) {
	var drawn []float64
	repl := Replacement{
		Width:   30,
		Ascent:  40,
		Descent: 5,
		Draw:    func(_ Canvas, x, _ float64) { drawn = append(drawn, x) },
	}
	ts := newFixed(t, "a\uFFFCb", []Span{{Start: 1, End: 2, Attr: repl}})
	l := simpleLine(t, ts, 0, 3)

	if got, want := runRanges(l), [][2]int{{0, 1}, {1, 2}, {2, 3}}; !slices.Equal(got, want) {
		t.Fatalf("runs = %v, want %v", got, want)
	}
	if l.Width() != 50 {
		t.Errorf("Width() = %v, want 50", l.Width())
	}
	if l.Ascent() != 40 {
		t.Errorf("Ascent() = %v, want 40", l.Ascent())
	}
	if l.Runs()[1].Replacement() == nil {
		t.Error("middle run has no replacement")
	}

	var c recordingCanvas
	l.Draw(&c, 5, 0)
	if !slices.Equal(drawn, []float64{15}) {
		t.Errorf("replacement drawn at %v, want [15]", drawn)
	}
	if len(c.calls) != 2 {
		t.Errorf("DrawGlyphs called %d times, want 2", len(c.calls))
	}
}

func TestSuggestBreaks(t *testing.T) {
	ts := newFixed(t, "hello world foo", nil)
	if got, _ := ts.SuggestForwardBreak(0, 15, 60, breaks.Line); got != 6 {
		t.Errorf("SuggestForwardBreak() = %d, want 6", got)
	}
	if got, _ := ts.SuggestBackwardBreak(0, 15, 60, breaks.Line); got != 12 {
		t.Errorf("SuggestBackwardBreak() = %d, want 12", got)
	}
	if got, _ := ts.SuggestForwardBreak(0, 15, 35, breaks.Line); got != 3 {
		t.Errorf("SuggestForwardBreak(extent 35) = %d, want 3", got)
	}
	if _, err := ts.SuggestForwardBreak(0, 16, 60, breaks.Line); err == nil {
		t.Error("SuggestForwardBreak() out of range succeeded")
	}
}

func TestClose(t *testing.T) {
	ts := newFixed(t, "Hello", nil)
	l := simpleLine(t, ts, 0, 5)

	if err := ts.Close(); err != nil {
		t.Fatal(err)
	}
	if err := ts.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := ts.CreateSimpleLine(0, 5); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateSimpleLine() after Close error = %v, want ErrClosed", err)
	}
	if l.Width() != 50 || len(l.Runs()[0].GlyphIDs()) != 5 {
		t.Error("line composed before Close changed")
	}
}

func TestHarfBuzzTypesetter(t *testing.T) {
	face := goRegular(t)
	ts, err := NewTypesetter("Hello, world", nil, []Attribute{FontFace{Typeface: face}, TextSize(18)})
	if err != nil {
		t.Fatal(err)
	}
	defer ts.Close()

	l := simpleLine(t, ts, 0, ts.Len())
	if l.Width() <= 0 {
		t.Fatalf("Width() = %v", l.Width())
	}
	if !near(l.Width(), ts.Measure(0, ts.Len())) {
		t.Errorf("Width() = %v, Measure() = %v", l.Width(), ts.Measure(0, ts.Len()))
	}
	edges := l.VisualEdges()
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			t.Fatalf("caret edges not increasing at %d: %v", i, edges)
		}
	}
	checkPartition(t, l)
}
