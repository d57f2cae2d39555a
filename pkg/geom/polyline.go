package geom

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Segment is a straight line between two points.
type Segment struct {
	A r3.Vec `json:"a"`
	B r3.Vec `json:"b"`
}

// Length returns the segment length.
func (s Segment) Length() float64 { return r3.Norm(r3.Sub(s.B, s.A)) }

// Midpoint returns the point halfway along the segment.
func (s Segment) Midpoint() r3.Vec { return s.At(0.5) }

// Direction returns the unit vector from A to B.
func (s Segment) Direction() r3.Vec { return Unit(r3.Sub(s.B, s.A)) }

// At returns the point at parameter t, where 0 is A and 1 is B.
func (s Segment) At(t float64) r3.Vec {
	return r3.Add(s.A, r3.Scale(t, r3.Sub(s.B, s.A)))
}

// Polyline is a closed contour. The last point is implicitly joined to the
// first and is never repeated.
type Polyline []r3.Vec

// Clone returns an independent copy.
func (pl Polyline) Clone() Polyline {
	if pl == nil {
		return nil
	}
	out := make(Polyline, len(pl))
	copy(out, pl)
	return out
}

// Centroid returns the vertex average.
func (pl Polyline) Centroid() r3.Vec {
	var c r3.Vec
	if len(pl) == 0 {
		return c
	}
	for _, p := range pl {
		c = r3.Add(c, p)
	}
	return r3.Scale(1/float64(len(pl)), c)
}

// Edges returns the closed list of edges.
func (pl Polyline) Edges() []Segment {
	if len(pl) < 2 {
		return nil
	}
	edges := make([]Segment, len(pl))
	for i := range pl {
		edges[i] = Segment{A: pl[i], B: pl[(i+1)%len(pl)]}
	}
	return edges
}

// Perimeter returns the closed length of the contour.
func (pl Polyline) Perimeter() float64 {
	var l float64
	for _, e := range pl.Edges() {
		l += e.Length()
	}
	return l
}

// Translate returns a copy moved by v.
func (pl Polyline) Translate(v r3.Vec) Polyline {
	out := make(Polyline, len(pl))
	for i, p := range pl {
		out[i] = r3.Add(p, v)
	}
	return out
}

// Transform returns a copy with a applied to every point.
func (pl Polyline) Transform(a Affine) Polyline {
	out := make(Polyline, len(pl))
	for i, p := range pl {
		out[i] = a.Apply(p)
	}
	return out
}

// Reverse returns a copy with the point order reversed.
func (pl Polyline) Reverse() Polyline {
	out := make(Polyline, len(pl))
	for i, p := range pl {
		out[len(pl)-1-i] = p
	}
	return out
}

// ToLocal projects the contour into plane coordinates, dropping the normal
// component.
func (pl Polyline) ToLocal(p Plane) Polygon {
	out := make(Polygon, len(pl))
	for i, pt := range pl {
		l := p.ToLocal(pt)
		out[i] = r2.Vec{X: l.X, Y: l.Y}
	}
	return out
}

// IsPlanar reports whether every point lies within tol of the plane.
func (pl Polyline) IsPlanar(p Plane, tol float64) bool {
	for _, pt := range pl {
		d := p.Distance(pt)
		if d > tol || d < -tol {
			return false
		}
	}
	return true
}

// Sphere is a centre and radius, used for contact previews.
type Sphere struct {
	Center r3.Vec  `json:"center"`
	Radius float64 `json:"radius"`
}
