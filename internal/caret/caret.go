// Package caret maps shaped glyphs back to character positions.
//
// A shaped run carries a cluster map (character index -> first glyph of the
// character's cluster) and per-glyph advances. From those two arrays this
// package derives caret edges: the cumulative horizontal distance at which a
// caret may be drawn before each character of the run.
//
// Edges are always stored as visual positions measured from the left edge of
// the run. For left-to-right presentation edge[0] is zero and the array grows;
// for right-to-left presentation the last edge is zero and the array shrinks.
package caret

import "fmt"

// RangeError reports an index outside its valid bounds.
type RangeError struct {
	Index int
	Bound int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("caret: index %d out of range [0, %d]", e.Index, e.Bound)
}

// CheckRange validates the half-open range [start, end) against [0, bound].
func CheckRange(start, end, bound int) error {
	if start < 0 || start > bound {
		return &RangeError{Index: start, Bound: bound}
	}
	if end < start || end > bound {
		return &RangeError{Index: end, Bound: bound}
	}
	return nil
}

// GlyphRange returns the glyph range [start, end) covering every cluster
// touched by the characters [from, to).
//
// For forward runs the cluster map is non-decreasing and each value is the
// lowest glyph index of its cluster. For backward runs the map is
// non-increasing, so the last character of the range owns the lowest glyph.
func GlyphRange(clusterMap []int, glyphCount int, backward bool, from, to int) (start, end int) {
	if from >= to {
		return 0, 0
	}
	n := len(clusterMap)
	if !backward {
		start = clusterMap[from]
		k := to
		for k < n && clusterMap[k] == clusterMap[to-1] {
			k++
		}
		if k < n {
			return start, clusterMap[k]
		}
		return start, glyphCount
	}

	start = clusterMap[to-1]
	k := from - 1
	for k >= 0 && clusterMap[k] == clusterMap[from] {
		k--
	}
	if k >= 0 {
		return start, clusterMap[k]
	}
	return start, glyphCount
}

// BuildEdges computes caret edges for a run.
//
// Characters are walked in logical order. A cluster closes where the owning
// glyph changes; a region closes at the first cluster boundary after at least
// one caret stop. The advance of every glyph of the region is shared evenly
// among the region's stops. A nil stops slice makes every character a stop,
// and the final character is always a stop so every region can close.
//
// stops[i] reports a caret stop after character i.
func BuildEdges(advances []float64, clusterMap []int, stops []bool, backward, rtl bool) []float64 {
	n := len(clusterMap)
	edges := make([]float64, n+1)
	if n == 0 {
		return edges
	}

	isStop := func(i int) bool {
		return stops == nil || stops[i] || i == n-1
	}

	var (
		distance    float64
		pending     float64
		stopCount   int
		regionStart int
	)
	for i := 0; i < n; i++ {
		if isStop(i) {
			stopCount++
		}
		if i < n-1 && clusterMap[i+1] == clusterMap[i] {
			continue
		}

		gs, ge := GlyphRange(clusterMap, len(advances), backward, i, i+1)
		for g := gs; g < ge; g++ {
			pending += advances[g]
		}
		if stopCount == 0 {
			continue
		}

		share := pending / float64(stopCount)
		for j := regionStart; j <= i; j++ {
			if isStop(j) {
				distance += share
			}
			edges[j+1] = distance
		}
		regionStart = i + 1
		stopCount = 0
		pending = 0
	}

	if rtl {
		for k := range edges {
			edges[k] = distance - edges[k]
		}
	}
	return edges
}
