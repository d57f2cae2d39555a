package geom

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Polygon is a closed 2D contour in some plane's local coordinates.
type Polygon []r2.Vec

// Area returns the signed area; positive for counter-clockwise polygons.
func (pg Polygon) Area() float64 {
	var a float64
	for i := range pg {
		j := (i + 1) % len(pg)
		a += pg[i].X*pg[j].Y - pg[j].X*pg[i].Y
	}
	return a / 2
}

// CCW returns the polygon in counter-clockwise order.
func (pg Polygon) CCW() Polygon {
	out := make(Polygon, len(pg))
	if pg.Area() >= 0 {
		copy(out, pg)
		return out
	}
	for i, p := range pg {
		out[len(pg)-1-i] = p
	}
	return out
}

// Offset moves every edge d units outward (inward for negative d) and
// rebuilds the corners as miters. Orientation is handled internally.
func (pg Polygon) Offset(d float64) Polygon {
	n := len(pg)
	if n < 3 || d == 0 {
		return append(Polygon(nil), pg...)
	}
	if pg.Area() < 0 {
		d = -d
	}
	out := make(Polygon, n)
	for i := range pg {
		prev := pg[(i+n-1)%n]
		cur := pg[i]
		next := pg[(i+1)%n]
		n1 := edgeNormal(prev, cur)
		n2 := edgeNormal(cur, next)
		den := 1 + r2.Dot(n1, n2)
		if den < 1e-6 {
			out[i] = r2.Add(cur, r2.Scale(d, n1))
			continue
		}
		out[i] = r2.Add(cur, r2.Scale(d/den, r2.Add(n1, n2)))
	}
	return out
}

// edgeNormal is the right-hand unit normal of a→b, which points outward for
// counter-clockwise polygons.
func edgeNormal(a, b r2.Vec) r2.Vec {
	e := r2.Sub(b, a)
	l := r2.Norm(e)
	if l < Epsilon {
		return r2.Vec{}
	}
	return r2.Vec{X: e.Y / l, Y: -e.X / l}
}

// Contains reports whether pt lies strictly inside the polygon (even-odd).
func (pg Polygon) Contains(pt r2.Vec) bool {
	inside := false
	n := len(pg)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := pg[i], pg[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := (b.X-a.X)*(pt.Y-a.Y)/(b.Y-a.Y) + a.X
			if pt.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// ContainsAll reports whether every vertex of other lies inside pg.
func (pg Polygon) ContainsAll(other Polygon) bool {
	for _, p := range other {
		if !pg.Contains(p) {
			return false
		}
	}
	return len(other) > 0
}

// ClipConvex clips pg against the convex polygon clip (Sutherland–Hodgman).
// The result is empty when the two do not overlap.
func (pg Polygon) ClipConvex(clip Polygon) Polygon {
	clip = clip.CCW()
	out := append(Polygon(nil), pg...)
	for i := range clip {
		if len(out) == 0 {
			break
		}
		a := clip[i]
		b := clip[(i+1)%len(clip)]
		in := out
		out = nil
		for j := range in {
			cur := in[j]
			prev := in[(j+len(in)-1)%len(in)]
			curIn := side(a, b, cur) >= 0
			prevIn := side(a, b, prev) >= 0
			if curIn {
				if !prevIn {
					out = append(out, lineCross(prev, cur, a, b))
				}
				out = append(out, cur)
			} else if prevIn {
				out = append(out, lineCross(prev, cur, a, b))
			}
		}
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

func side(a, b, p r2.Vec) float64 {
	return r2.Cross(r2.Sub(b, a), r2.Sub(p, a))
}

func lineCross(p, q, a, b r2.Vec) r2.Vec {
	sp := side(a, b, p)
	sq := side(a, b, q)
	t := sp / (sp - sq)
	return r2.Add(p, r2.Scale(t, r2.Sub(q, p)))
}

// InteriorAngles returns the interior angle at every vertex in degrees, in
// the polygon's own vertex order.
func (pg Polygon) InteriorAngles() []float64 {
	n := len(pg)
	angles := make([]float64, n)
	sign := 1.0
	if pg.Area() < 0 {
		sign = -1
	}
	for i := range pg {
		a := r2.Sub(pg[(i+1)%n], pg[i])
		b := r2.Sub(pg[(i+n-1)%n], pg[i])
		ang := math.Atan2(sign*r2.Cross(a, b), r2.Dot(a, b))
		if ang < 0 {
			ang += 2 * math.Pi
		}
		angles[i] = ang * 180 / math.Pi
	}
	return angles
}

// Bisector returns the unit vector at vertex i pointing into the polygon
// along the corner bisector.
func (pg Polygon) Bisector(i int) r2.Vec {
	n := len(pg)
	a := r2.Unit(r2.Sub(pg[(i+1)%n], pg[i]))
	b := r2.Unit(r2.Sub(pg[(i+n-1)%n], pg[i]))
	s := r2.Add(a, b)
	if r2.Norm(s) < Epsilon {
		return r2.Vec{X: -a.Y, Y: a.X}
	}
	return r2.Unit(s)
}

// Bounds returns the axis-aligned bounding box.
func (pg Polygon) Bounds() (lo, hi r2.Vec) {
	if len(pg) == 0 {
		return lo, hi
	}
	lo, hi = pg[0], pg[0]
	for _, p := range pg[1:] {
		lo.X = math.Min(lo.X, p.X)
		lo.Y = math.Min(lo.Y, p.Y)
		hi.X = math.Max(hi.X, p.X)
		hi.Y = math.Max(hi.Y, p.Y)
	}
	return lo, hi
}

// ToWorld lifts the polygon back into 3D on plane p at normal offset w.
func (pg Polygon) ToWorld(p Plane, w float64) Polyline {
	out := make(Polyline, len(pg))
	for i, v := range pg {
		out[i] = p.FromLocal(v.X, v.Y, w)
	}
	return out
}

// Circle approximates a circle of radius r around c with n segments.
func Circle(c r2.Vec, r float64, n int) Polygon {
	if n < 3 {
		n = 3
	}
	out := make(Polygon, n)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(n)
		out[i] = r2.Vec{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
	}
	return out
}

// Lift is a convenience for lifting a single local point onto a plane.
func Lift(p Plane, v r2.Vec, w float64) r3.Vec {
	return p.FromLocal(v.X, v.Y, w)
}

// ConvexHull returns the counter-clockwise convex hull of pts (monotone
// chain). Collinear points are dropped.
func ConvexHull(pts []r2.Vec) Polygon {
	if len(pts) < 3 {
		return append(Polygon(nil), pts...)
	}
	sorted := append([]r2.Vec(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})
	hull := make([]r2.Vec, 0, 2*len(sorted))
	for _, p := range sorted {
		for len(hull) >= 2 && side(hull[len(hull)-2], hull[len(hull)-1], p) <= Epsilon {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && side(hull[len(hull)-2], hull[len(hull)-1], p) <= Epsilon {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// ClipSegment returns the parameter range [t0,t1] of the segment a→b that
// lies inside the polygon. When the segment enters and leaves several times
// the range spans from the first entry to the last exit.
func (pg Polygon) ClipSegment(a, b r2.Vec) (t0, t1 float64, ok bool) {
	d := r2.Sub(b, a)
	ts := []float64{0, 1}
	n := len(pg)
	for i := range pg {
		p := pg[i]
		e := r2.Sub(pg[(i+1)%n], p)
		den := r2.Cross(d, e)
		if math.Abs(den) < Epsilon {
			continue
		}
		ap := r2.Sub(p, a)
		t := r2.Cross(ap, e) / den
		u := r2.Cross(ap, d) / den
		if t > 0 && t < 1 && u >= 0 && u <= 1 {
			ts = append(ts, t)
		}
	}
	sort.Float64s(ts)
	t0, t1 = math.Inf(1), math.Inf(-1)
	for i := 0; i+1 < len(ts); i++ {
		if ts[i+1]-ts[i] < Epsilon {
			continue
		}
		mid := (ts[i] + ts[i+1]) / 2
		if pg.Contains(r2.Add(a, r2.Scale(mid, d))) {
			t0 = math.Min(t0, ts[i])
			t1 = math.Max(t1, ts[i+1])
		}
	}
	return t0, t1, t1 > t0
}
