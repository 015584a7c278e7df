package typeset

import (
	"slices"
	"testing"

	"github.com/gogpu/typeset/shape"
)

func TestCreateTruncatedLine(t *testing.T) {
	ts := newFixed(t, "hello world foo", nil)

	tests := []struct {
		name   string
		place  TruncationPlace
		max    float64
		ranges [][2]int
		width  float64
	}{
		{"fits", TruncateEnd, 200, [][2]int{{0, 15}}, 150},
		{"none", TruncateNone, 60, [][2]int{{0, 15}}, 150},
		{"end", TruncateEnd, 60, [][2]int{{0, 5}, {5, 15}}, 60},
		{"start", TruncateStart, 60, [][2]int{{0, 10}, {10, 15}}, 60},
		{"middle", TruncateMiddle, 60, [][2]int{{0, 2}, {2, 12}, {12, 15}}, 60},
		{"token too wide", TruncateEnd, 5, [][2]int{{0, 15}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := ts.CreateTruncatedLine(0, 15, tt.max, tt.place, "")
			if err != nil {
				t.Fatal(err)
			}
			if got := runRanges(l); !slices.Equal(got, tt.ranges) {
				t.Errorf("runs = %v, want %v", got, tt.ranges)
			}
			if l.Width() != tt.width {
				t.Errorf("Width() = %v, want %v", l.Width(), tt.width)
			}
			if l.CharStart() != 0 || l.CharEnd() != 15 {
				t.Errorf("line range = [%d, %d)", l.CharStart(), l.CharEnd())
			}
			checkPartition(t, l)
		})
	}
}

func TestTruncationToken(t *testing.T) {
	ts := newFixed(t, "hello world foo", nil)
	l, err := ts.CreateTruncatedLine(0, 15, 60, TruncateEnd, "..")
	if err != nil {
		t.Fatal(err)
	}
	token := l.Runs()[len(l.Runs())-1]
	if got, want := token.GlyphIDs(), []shape.GlyphID{'.', '.'}; !slices.Equal(got, want) {
		t.Errorf("token GlyphIDs() = %v, want %v", got, want)
	}
	if token.CharStart() != 4 || token.CharEnd() != 15 {
		t.Errorf("token range = [%d, %d), want [4, 15)", token.CharStart(), token.CharEnd())
	}
	// The elided characters share one caret stop at the far edge.
	if d, _ := l.ComputeCharDistance(7); d != 40 {
		t.Errorf("ComputeCharDistance(7) = %v, want 40", d)
	}
	if d, _ := l.ComputeCharDistance(15); d != 60 {
		t.Errorf("ComputeCharDistance(15) = %v, want 60", d)
	}
	if l.TrailingWhitespaceExtent() != 0 {
		t.Errorf("TrailingWhitespaceExtent() = %v, want 0", l.TrailingWhitespaceExtent())
	}
}

func TestTruncateRightToLeft(t *testing.T) {
	// Hebrew "alef bet gimel dalet he" with a space after the second letter.
	ts := newFixed(t, "\u05D0\u05D1 \u05D2\u05D3\u05D4", nil)
	l, err := ts.CreateTruncatedLine(0, 6, 40, TruncateEnd, "")
	if err != nil {
		t.Fatal(err)
	}
	if !l.IsRTL() {
		t.Fatal("IsRTL() = false")
	}
	// The token ends the line logically, so it is drawn on the left.
	runs := l.Runs()
	if runs[0].CharEnd() != 6 {
		t.Errorf("runs = %v, want the token first", runRanges(l))
	}
	if l.Width() > 40 {
		t.Errorf("Width() = %v, want <= 40", l.Width())
	}
	checkPartition(t, l)
}

func TestTruncateAcrossParagraphs(t *testing.T) {
	ts := newFixed(t, "ab\ncd\nef", nil)
	tests := []struct {
		name   string
		place  TruncationPlace
		ranges [][2]int
	}{
		{"end", TruncateEnd, [][2]int{{0, 2}, {2, 8}}},
		{"start", TruncateStart, [][2]int{{0, 6}, {6, 8}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Wide enough for all of the text, but it spans three paragraphs.
			l, err := ts.CreateTruncatedLine(0, 8, 200, tt.place, "")
			if err != nil {
				t.Fatal(err)
			}
			if got := runRanges(l); !slices.Equal(got, tt.ranges) {
				t.Fatalf("runs = %v, want %v", got, tt.ranges)
			}
			if l.Width() != 30 {
				t.Errorf("Width() = %v, want 30", l.Width())
			}
			for _, g := range l.Runs() {
				if slices.Contains(g.GlyphIDs(), '\n') {
					t.Errorf("run [%d, %d) draws a paragraph separator", g.CharStart(), g.CharEnd())
				}
			}
			checkPartition(t, l)
		})
	}
}

func TestTruncationPlaceString(t *testing.T) {
	for p, want := range map[TruncationPlace]string{
		TruncateNone:   "None",
		TruncateStart:  "Start",
		TruncateMiddle: "Middle",
		TruncateEnd:    "End",
	} {
		if got := p.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", p, got, want)
		}
	}
}
