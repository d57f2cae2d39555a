// Package geom provides the small amount of 3D geometry lamina needs on top
// of gonum's spatial vectors: oriented planes, closed contours, 2D polygons
// in plane-local coordinates, affine transforms and insertion directions.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Epsilon is the length below which vectors are treated as zero.
const Epsilon = 1e-9

// Plane is an oriented frame: an origin plus an orthonormal basis whose third
// axis is the plane normal.
type Plane struct {
	Origin r3.Vec `json:"origin"`
	XAxis  r3.Vec `json:"x_axis"`
	YAxis  r3.Vec `json:"y_axis"`
	Normal r3.Vec `json:"normal"`
}

// WorldXY is the global XY plane at the origin.
var WorldXY = Plane{
	XAxis:  r3.Vec{X: 1},
	YAxis:  r3.Vec{Y: 1},
	Normal: r3.Vec{Z: 1},
}

// NewPlane builds a plane from an origin and a normal. The X axis is chosen
// so that a normal of +Z reproduces WorldXY.
func NewPlane(origin, normal r3.Vec) Plane {
	n := Unit(normal)
	ref := r3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		ref = r3.Vec{Y: 1}
	}
	x := Unit(r3.Sub(ref, r3.Scale(r3.Dot(ref, n), n)))
	return Plane{Origin: origin, XAxis: x, YAxis: r3.Cross(n, x), Normal: n}
}

// PlaneFromAxes builds a plane from an origin, an X axis and any vector in
// the plane that is not parallel to it.
func PlaneFromAxes(origin, xAxis, yHint r3.Vec) Plane {
	x := Unit(xAxis)
	n := Unit(r3.Cross(x, yHint))
	return Plane{Origin: origin, XAxis: x, YAxis: r3.Cross(n, x), Normal: n}
}

// Offset moves the plane d units along its normal.
func (p Plane) Offset(d float64) Plane {
	p.Origin = r3.Add(p.Origin, r3.Scale(d, p.Normal))
	return p
}

// Flip reverses the normal, keeping the frame right-handed.
func (p Plane) Flip() Plane {
	p.YAxis = r3.Scale(-1, p.YAxis)
	p.Normal = r3.Scale(-1, p.Normal)
	return p
}

// Distance returns the signed distance from the plane to pt.
func (p Plane) Distance(pt r3.Vec) float64 {
	return r3.Dot(r3.Sub(pt, p.Origin), p.Normal)
}

// Project returns the closest point on the plane to pt.
func (p Plane) Project(pt r3.Vec) r3.Vec {
	return r3.Sub(pt, r3.Scale(p.Distance(pt), p.Normal))
}

// ToLocal expresses pt in plane coordinates (u along X, v along Y, w along
// the normal).
func (p Plane) ToLocal(pt r3.Vec) r3.Vec {
	d := r3.Sub(pt, p.Origin)
	return r3.Vec{X: r3.Dot(d, p.XAxis), Y: r3.Dot(d, p.YAxis), Z: r3.Dot(d, p.Normal)}
}

// FromLocal maps plane coordinates back to world space.
func (p Plane) FromLocal(u, v, w float64) r3.Vec {
	pt := p.Origin
	pt = r3.Add(pt, r3.Scale(u, p.XAxis))
	pt = r3.Add(pt, r3.Scale(v, p.YAxis))
	return r3.Add(pt, r3.Scale(w, p.Normal))
}

// Transform applies a to the plane and re-orthonormalises the frame so that
// non-uniform transforms still yield a valid plane.
func (p Plane) Transform(a Affine) Plane {
	x := Unit(a.ApplyVec(p.XAxis))
	n := Unit(r3.Cross(x, a.ApplyVec(p.YAxis)))
	return Plane{
		Origin: a.Apply(p.Origin),
		XAxis:  x,
		YAxis:  r3.Cross(n, x),
		Normal: n,
	}
}

// IsParallel reports whether the normals of p and q are within angle
// (radians) of each other, in either orientation.
func (p Plane) IsParallel(q Plane, angle float64) bool {
	return math.Abs(r3.Dot(p.Normal, q.Normal)) >= math.Cos(angle)
}

// Intersect returns a point on, and the unit direction of, the line shared by
// p and q. ok is false for parallel planes.
func (p Plane) Intersect(q Plane) (point, dir r3.Vec, ok bool) {
	d := r3.Cross(p.Normal, q.Normal)
	den := r3.Norm2(d)
	if den < Epsilon {
		return r3.Vec{}, r3.Vec{}, false
	}
	d1 := r3.Dot(p.Normal, p.Origin)
	d2 := r3.Dot(q.Normal, q.Origin)
	c := r3.Dot(p.Normal, q.Normal)
	point = r3.Add(
		r3.Scale((d1-d2*c)/den, p.Normal),
		r3.Scale((d2-d1*c)/den, q.Normal),
	)
	return point, r3.Unit(d), true
}

// Unit returns v scaled to unit length, or the zero vector when v is
// (numerically) zero.
func Unit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n < Epsilon {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

// IsZero reports whether v is numerically zero.
func IsZero(v r3.Vec) bool {
	return r3.Norm(v) < Epsilon
}
