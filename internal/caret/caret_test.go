package caret

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestGlyphRange(t *testing.T) {
	tests := []struct {
		name       string
		clusterMap []int
		glyphCount int
		backward   bool
		from, to   int
		wantStart  int
		wantEnd    int
	}{
		{"forward single", []int{0, 1, 2, 3}, 4, false, 1, 2, 1, 2},
		{"forward ligature middle", []int{0, 1, 1, 2}, 3, false, 2, 3, 1, 2},
		{"forward tail", []int{0, 1, 1, 2}, 3, false, 3, 4, 2, 3},
		{"forward decomposed", []int{0, 2, 3}, 4, false, 0, 1, 0, 2},
		{"backward single", []int{3, 2, 1, 0}, 4, true, 0, 1, 3, 4},
		{"backward range", []int{3, 2, 1, 0}, 4, true, 1, 3, 1, 3},
		{"backward ligature", []int{2, 1, 1, 0}, 3, true, 1, 2, 1, 2},
		{"empty", []int{0, 1}, 2, false, 1, 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := GlyphRange(tt.clusterMap, tt.glyphCount, tt.backward, tt.from, tt.to)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("GlyphRange() = [%d, %d), want [%d, %d)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestBuildEdgesLTR(t *testing.T) {
	edges := BuildEdges([]float64{10, 20, 30}, []int{0, 1, 2}, nil, false, false)
	want := []float64{0, 10, 30, 60}
	for i := range want {
		if !almostEqual(edges[i], want[i]) {
			t.Fatalf("edges = %v, want %v", edges, want)
		}
	}
}

func TestBuildEdgesRTL(t *testing.T) {
	// Backward run: glyph 2 belongs to char 0.
	edges := BuildEdges([]float64{30, 20, 10}, []int{2, 1, 0}, nil, true, true)
	want := []float64{60, 50, 30, 0}
	for i := range want {
		if !almostEqual(edges[i], want[i]) {
			t.Fatalf("edges = %v, want %v", edges, want)
		}
	}
}

func TestBuildEdgesLigature(t *testing.T) {
	// "ffi" shaped into one glyph with three caret stops.
	edges := BuildEdges([]float64{30}, []int{0, 0, 0}, nil, false, false)
	want := []float64{0, 10, 20, 30}
	for i := range want {
		if !almostEqual(edges[i], want[i]) {
			t.Fatalf("edges = %v, want %v", edges, want)
		}
	}
}

func TestBuildEdgesStops(t *testing.T) {
	// Chars 0 and 1 form one grapheme: the caret may not sit between them.
	stops := []bool{false, true, true}
	edges := BuildEdges([]float64{10, 4, 6}, []int{0, 1, 2}, stops, false, false)
	want := []float64{0, 0, 14, 20}
	for i := range want {
		if !almostEqual(edges[i], want[i]) {
			t.Fatalf("edges = %v, want %v", edges, want)
		}
	}
}

func TestBuildEdgesImplicitFinalStop(t *testing.T) {
	edges := BuildEdges([]float64{5, 5}, []int{0, 1}, []bool{false, false}, false, false)
	if !almostEqual(edges[2], 10) || !almostEqual(edges[1], 0) {
		t.Fatalf("edges = %v, want [0 0 10]", edges)
	}
}

func TestBuildEdgesProperties(t *testing.T) {
	tests := []struct {
		name       string
		advances   []float64
		clusterMap []int
		stops      []bool
		backward   bool
		rtl        bool
	}{
		{"ltr", []float64{3, 4, 5, 6}, []int{0, 1, 2, 3}, nil, false, false},
		{"ltr clusters", []float64{3, 4, 5}, []int{0, 0, 1, 2}, []bool{false, true, true, true}, false, false},
		{"rtl", []float64{6, 5, 4, 3}, []int{3, 2, 1, 0}, nil, true, true},
		{"rtl clusters", []float64{7, 2, 9}, []int{2, 1, 1, 0}, nil, true, true},
		{"zero advances", []float64{0, 0, 0}, []int{0, 1, 2}, nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges := BuildEdges(tt.advances, tt.clusterMap, tt.stops, tt.backward, tt.rtl)
			if len(edges) != len(tt.clusterMap)+1 {
				t.Fatalf("len(edges) = %d, want %d", len(edges), len(tt.clusterMap)+1)
			}

			var total float64
			for _, a := range tt.advances {
				total += a
			}
			first, last := edges[0], edges[len(edges)-1]
			if tt.rtl {
				if !almostEqual(last, 0) || !almostEqual(first, total) {
					t.Errorf("rtl edges = %v, want %v..0", edges, total)
				}
			} else if !almostEqual(first, 0) || !almostEqual(last, total) {
				t.Errorf("ltr edges = %v, want 0..%v", edges, total)
			}

			for i := 1; i < len(edges); i++ {
				if tt.rtl && edges[i] > edges[i-1]+epsilon {
					t.Errorf("edges not non-increasing at %d: %v", i, edges)
				}
				if !tt.rtl && edges[i] < edges[i-1]-epsilon {
					t.Errorf("edges not non-decreasing at %d: %v", i, edges)
				}
			}
		})
	}
}

func TestClusterMapView(t *testing.T) {
	m := NewClusterMap([]int{0, 1, 1, 3, 4}, 1, 3, 1)
	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", m.Len())
	}
	got := m.Slice()
	want := []int{0, 0, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Slice() = %v, want %v", got, want)
		}
	}
}

func TestEdgeListDistance(t *testing.T) {
	ltr := NewEdgeList([]float64{0, 10, 30, 60}, 1, 3, 10, false)
	if got := ltr.Distance(0, 2); !almostEqual(got, 50) {
		t.Errorf("ltr Distance(0, 2) = %v, want 50", got)
	}
	if got := ltr.Get(0); !almostEqual(got, 0) {
		t.Errorf("ltr Get(0) = %v, want 0", got)
	}

	rtl := NewEdgeList([]float64{60, 50, 30, 0}, 0, 3, 30, true)
	if got := rtl.Distance(0, 2); !almostEqual(got, 30) {
		t.Errorf("rtl Distance(0, 2) = %v, want 30", got)
	}
	if got := rtl.Get(2); !almostEqual(got, 0) {
		t.Errorf("rtl Get(2) = %v, want 0", got)
	}
}

func TestEdgeListNearestIndex(t *testing.T) {
	ltr := NewEdgeList([]float64{0, 10, 20, 30}, 0, 4, 0, false)
	rtl := NewEdgeList([]float64{30, 20, 10, 0}, 0, 4, 0, true)

	tests := []struct {
		name string
		list EdgeList
		d    float64
		want int
	}{
		{"ltr before", ltr, -5, 0},
		{"ltr after", ltr, 100, 3},
		{"ltr exact", ltr, 20, 2},
		{"ltr nearer next", ltr, 17, 2},
		{"ltr nearer prev", ltr, 12, 1},
		{"ltr tie", ltr, 15, 1},
		{"rtl before", rtl, 50, 0},
		{"rtl after", rtl, -1, 3},
		{"rtl nearer", rtl, 22, 1},
		{"rtl tie", rtl, 25, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.list.NearestIndex(tt.d); got != tt.want {
				t.Errorf("NearestIndex(%v) = %d, want %d", tt.d, got, tt.want)
			}
		})
	}
}

func TestCheckRange(t *testing.T) {
	if err := CheckRange(0, 3, 3); err != nil {
		t.Fatalf("CheckRange(0, 3, 3) = %v", err)
	}
	err := CheckRange(2, 5, 3)
	var re *RangeError
	if !errors.As(err, &re) {
		t.Fatalf("CheckRange(2, 5, 3) = %v, want *RangeError", err)
	}
	if re.Index != 5 || re.Bound != 3 {
		t.Errorf("RangeError = %+v, want {5 3}", re)
	}
}
