package geom

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Affine is a 3D affine transform stored as the images of the three basis
// vectors (columns) plus a translation.
type Affine struct {
	X r3.Vec `json:"x"`
	Y r3.Vec `json:"y"`
	Z r3.Vec `json:"z"`
	T r3.Vec `json:"t"`
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{X: r3.Vec{X: 1}, Y: r3.Vec{Y: 1}, Z: r3.Vec{Z: 1}}
}

// Translation returns a pure translation by v.
func Translation(v r3.Vec) Affine {
	a := Identity()
	a.T = v
	return a
}

// Scaling returns a uniform scale by f about origin.
func Scaling(origin r3.Vec, f float64) Affine {
	return Affine{
		X: r3.Vec{X: f},
		Y: r3.Vec{Y: f},
		Z: r3.Vec{Z: f},
		T: r3.Scale(1-f, origin),
	}
}

// Rotation returns a rotation of angle radians about the axis through origin.
func Rotation(origin, axis r3.Vec, angle float64) Affine {
	rot := r3.NewRotation(angle, axis)
	a := Affine{
		X: rot.Rotate(r3.Vec{X: 1}),
		Y: rot.Rotate(r3.Vec{Y: 1}),
		Z: rot.Rotate(r3.Vec{Z: 1}),
	}
	a.T = r3.Sub(origin, a.ApplyVec(origin))
	return a
}

// PlaneToPlane maps from onto to: a point with local coordinates (u,v,w) in
// from ends up at the same local coordinates in to.
func PlaneToPlane(from, to Plane) Affine {
	col := func(e r3.Vec) r3.Vec {
		l := r3.Vec{X: r3.Dot(e, from.XAxis), Y: r3.Dot(e, from.YAxis), Z: r3.Dot(e, from.Normal)}
		return r3.Add(r3.Add(r3.Scale(l.X, to.XAxis), r3.Scale(l.Y, to.YAxis)), r3.Scale(l.Z, to.Normal))
	}
	a := Affine{X: col(r3.Vec{X: 1}), Y: col(r3.Vec{Y: 1}), Z: col(r3.Vec{Z: 1})}
	a.T = r3.Sub(to.Origin, a.ApplyVec(from.Origin))
	return a
}

// AffineFromRows builds a transform from 12 or 16 row-major values. The
// fourth row of a 4x4 matrix must be (0,0,0,1).
func AffineFromRows(v []float64) (Affine, error) {
	switch len(v) {
	case 12:
	case 16:
		if v[12] != 0 || v[13] != 0 || v[14] != 0 || v[15] != 1 {
			return Affine{}, fmt.Errorf("geom: matrix is not affine: last row %v", v[12:])
		}
	default:
		return Affine{}, fmt.Errorf("geom: expected 12 or 16 matrix values, got %d", len(v))
	}
	return Affine{
		X: r3.Vec{X: v[0], Y: v[4], Z: v[8]},
		Y: r3.Vec{X: v[1], Y: v[5], Z: v[9]},
		Z: r3.Vec{X: v[2], Y: v[6], Z: v[10]},
		T: r3.Vec{X: v[3], Y: v[7], Z: v[11]},
	}, nil
}

// Apply transforms a point.
func (a Affine) Apply(p r3.Vec) r3.Vec {
	return r3.Add(a.ApplyVec(p), a.T)
}

// ApplyVec transforms a direction, ignoring translation.
func (a Affine) ApplyVec(v r3.Vec) r3.Vec {
	out := r3.Scale(v.X, a.X)
	out = r3.Add(out, r3.Scale(v.Y, a.Y))
	return r3.Add(out, r3.Scale(v.Z, a.Z))
}

// Mul returns the transform that applies b first, then a.
func (a Affine) Mul(b Affine) Affine {
	return Affine{
		X: a.ApplyVec(b.X),
		Y: a.ApplyVec(b.Y),
		Z: a.ApplyVec(b.Z),
		T: a.Apply(b.T),
	}
}
