// Package stroke expands polylines into filled stroke outlines.
//
// Expand returns a set of convex polygons (one quad per segment plus join
// and cap pieces). All polygons share one winding direction, so filling them
// with a non-zero or accumulating rasterizer paints their union.
package stroke

import "math"

// Point is a 2D point.
type Point struct {
	X, Y float64
}

func (p Point) add(v Point) Point     { return Point{p.X + v.X, p.Y + v.Y} }
func (p Point) sub(q Point) Point     { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) scale(s float64) Point { return Point{p.X * s, p.Y * s} }
func (p Point) cross(q Point) float64 { return p.X*q.Y - p.Y*q.X }
func (p Point) length() float64       { return math.Hypot(p.X, p.Y) }
func (p Point) perp() Point           { return Point{-p.Y, p.X} }
func (p Point) lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// LineCap specifies the shape of open path endpoints.
type LineCap uint8

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

// LineJoin specifies the shape of corners.
type LineJoin uint8

const (
	JoinMiter LineJoin = iota
	JoinRound
	JoinBevel
)

// Style describes a stroke.
type Style struct {
	Width      float64
	Cap        LineCap
	Join       LineJoin
	MiterLimit float64
}

// Polygon is a closed convex polygon.
type Polygon []Point

const roundSteps = 16

// Expand returns polygons covering the stroke of contour.
func Expand(contour []Point, closed bool, st Style) []Polygon {
	half := st.Width / 2
	if half <= 0 {
		return nil
	}
	pts := dedupe(contour, closed)
	if len(pts) == 0 {
		return nil
	}
	if len(pts) == 1 {
		if closed || st.Cap == CapButt {
			return nil
		}
		if st.Cap == CapRound {
			return []Polygon{orient(circle(pts[0], half))}
		}
		return []Polygon{orient(square(pts[0], half))}
	}

	var out []Polygon
	n := len(pts)
	segs := n - 1
	if closed {
		segs = n
	}
	for i := 0; i < segs; i++ {
		p, q := pts[i], pts[(i+1)%n]
		nv := p.sub(q).perp().scale(half / q.sub(p).length())
		out = append(out, orient(Polygon{p.add(nv), q.add(nv), q.sub(nv), p.sub(nv)}))
	}

	for i := 0; i < n; i++ {
		if !closed && (i == 0 || i == n-1) {
			continue
		}
		prev := pts[(i-1+n)%n]
		next := pts[(i+1)%n]
		if j := join(prev, pts[i], next, half, st); j != nil {
			out = append(out, orient(j))
		}
	}

	if !closed {
		out = append(out, caps(pts[1], pts[0], half, st.Cap)...)
		out = append(out, caps(pts[n-2], pts[n-1], half, st.Cap)...)
	}
	return out
}

// dedupe drops consecutive duplicate points, including a closing point
// equal to the first.
func dedupe(contour []Point, closed bool) []Point {
	const eps = 1e-9
	out := make([]Point, 0, len(contour))
	for _, p := range contour {
		if len(out) > 0 && out[len(out)-1].sub(p).length() < eps {
			continue
		}
		out = append(out, p)
	}
	if closed && len(out) > 1 && out[0].sub(out[len(out)-1]).length() < eps {
		out = out[:len(out)-1]
	}
	return out
}

// join returns the outer corner piece at v between segments prev->v and v->next.
func join(prev, v, next Point, half float64, st Style) Polygon {
	d1 := v.sub(prev)
	d2 := next.sub(v)
	turn := d1.cross(d2)
	if math.Abs(turn) < 1e-12 {
		return nil
	}
	if st.Join == JoinRound {
		return circle(v, half)
	}

	n1 := d1.perp().scale(half / d1.length())
	n2 := d2.perp().scale(half / d2.length())
	// The outer side is opposite to the turn.
	if turn > 0 {
		n1, n2 = n1.scale(-1), n2.scale(-1)
	}
	a, b := v.add(n1), v.add(n2)
	if st.Join == JoinMiter {
		if m, ok := intersect(a, d1, b, d2); ok {
			limit := st.MiterLimit
			if limit <= 0 {
				limit = 4
			}
			if m.sub(v).length() <= limit*half {
				return Polygon{v, a, m, b}
			}
		}
	}
	return Polygon{v, a, b}
}

func intersect(p, d, q, e Point) (Point, bool) {
	den := d.cross(e)
	if math.Abs(den) < 1e-12 {
		return Point{}, false
	}
	t := q.sub(p).cross(e) / den
	return p.add(d.scale(t)), true
}

// caps returns the cap at end for the segment from -> end.
func caps(from, end Point, half float64, c LineCap) []Polygon {
	d := end.sub(from)
	d = d.scale(half / d.length())
	nv := d.perp()
	switch c {
	case CapSquare:
		return []Polygon{orient(Polygon{end.add(nv), end.add(nv).add(d), end.sub(nv).add(d), end.sub(nv)})}
	case CapRound:
		return []Polygon{orient(circle(end, half))}
	default:
		return nil
	}
}

func circle(c Point, r float64) Polygon {
	poly := make(Polygon, roundSteps)
	for i := range poly {
		a := 2 * math.Pi * float64(i) / roundSteps
		poly[i] = Point{c.X + r*math.Cos(a), c.Y + r*math.Sin(a)}
	}
	return poly
}

func square(c Point, half float64) Polygon {
	return Polygon{
		{c.X - half, c.Y - half}, {c.X + half, c.Y - half},
		{c.X + half, c.Y + half}, {c.X - half, c.Y + half},
	}
}

// Area returns the signed area of the polygon.
func (p Polygon) Area() float64 {
	var a float64
	for i := range p {
		a += p[i].cross(p[(i+1)%len(p)])
	}
	return a / 2
}

// orient makes the polygon's signed area non-negative.
func orient(p Polygon) Polygon {
	if p.Area() < 0 {
		for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
			p[i], p[j] = p[j], p[i]
		}
	}
	return p
}

// FlattenQuad appends points approximating the quadratic Bézier p0 p1 p2,
// excluding p0.
func FlattenQuad(dst []Point, p0, p1, p2 Point, tolerance float64) []Point {
	n := steps(p0.sub(p1).length()+p1.sub(p2).length(), tolerance)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		a := p0.lerp(p1, t)
		b := p1.lerp(p2, t)
		dst = append(dst, a.lerp(b, t))
	}
	return dst
}

// FlattenCubic appends points approximating the cubic Bézier p0..p3,
// excluding p0.
func FlattenCubic(dst []Point, p0, p1, p2, p3 Point, tolerance float64) []Point {
	n := steps(p0.sub(p1).length()+p1.sub(p2).length()+p2.sub(p3).length(), tolerance)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		a, b, c := p0.lerp(p1, t), p1.lerp(p2, t), p2.lerp(p3, t)
		d, e := a.lerp(b, t), b.lerp(c, t)
		dst = append(dst, d.lerp(e, t))
	}
	return dst
}

func steps(length, tolerance float64) int {
	if tolerance <= 0 {
		tolerance = 0.25
	}
	n := int(math.Ceil(math.Sqrt(length / tolerance)))
	return min(max(n, 1), 64)
}
