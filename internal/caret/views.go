package caret

// ClusterMap is a view over a sub-range of a run's cluster map, rebased so
// that its values index the glyphs of the view rather than of the whole run.
type ClusterMap struct {
	backing    []int
	offset     int
	length     int
	difference int
}

// NewClusterMap returns a view of length entries starting at offset.
// Every value read through the view has difference subtracted.
func NewClusterMap(backing []int, offset, length, difference int) ClusterMap {
	return ClusterMap{backing: backing, offset: offset, length: length, difference: difference}
}

// Len returns the number of characters covered by the view.
func (m ClusterMap) Len() int { return m.length }

// Get returns the glyph index owning character i of the view.
func (m ClusterMap) Get(i int) int {
	return m.backing[m.offset+i] - m.difference
}

// Slice materializes the view.
func (m ClusterMap) Slice() []int {
	out := make([]int, m.length)
	for i := range out {
		out[i] = m.Get(i)
	}
	return out
}

// EdgeList is a view over caret edges. Values are shifted by a pivot so the
// view's left edge reads as zero.
type EdgeList struct {
	backing []float64
	offset  int
	length  int
	pivot   float64
	rtl     bool
}

// NewEdgeList returns a view of length edges starting at offset. length is
// the character count plus one.
func NewEdgeList(backing []float64, offset, length int, pivot float64, rtl bool) EdgeList {
	return EdgeList{backing: backing, offset: offset, length: length, pivot: pivot, rtl: rtl}
}

// Len returns the number of edges in the view.
func (l EdgeList) Len() int { return l.length }

// RTL reports whether edges decrease with the character index.
func (l EdgeList) RTL() bool { return l.rtl }

// Get returns edge i relative to the view's left edge.
func (l EdgeList) Get(i int) float64 {
	return l.backing[l.offset+i] - l.pivot
}

// Slice materializes the view.
func (l EdgeList) Slice() []float64 {
	out := make([]float64, l.length)
	for i := range out {
		out[i] = l.Get(i)
	}
	return out
}

// Distance returns the horizontal extent between edges a and b (a <= b).
func (l EdgeList) Distance(a, b int) float64 {
	if l.rtl {
		return l.Get(a) - l.Get(b)
	}
	return l.Get(b) - l.Get(a)
}

// NearestIndex returns the edge index closest to distance d, measured from
// the view's left edge. Queries outside the view clamp to its boundary and
// ties resolve to the lower index.
func (l EdgeList) NearestIndex(d float64) int {
	if l.length == 0 {
		return 0
	}
	last := l.length - 1

	// before reports whether edge i lies strictly before d in logical order.
	before := func(i int) bool {
		if l.rtl {
			return l.Get(i) > d
		}
		return l.Get(i) < d
	}

	if !before(0) {
		return 0
	}
	if before(last) {
		return last
	}

	lo, hi := 1, last
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if before(mid) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	prev := abs(l.Get(lo-1) - d)
	next := abs(l.Get(lo) - d)
	if prev <= next {
		return lo - 1
	}
	return lo
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
