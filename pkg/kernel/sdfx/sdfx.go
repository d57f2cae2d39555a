// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/lamina/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 200

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// Option configures an SdfxKernel.
type Option func(*SdfxKernel)

// WithMeshCells sets the marching cubes resolution along the longest axis.
func WithMeshCells(n int) Option {
	return func(k *SdfxKernel) {
		if n > 0 {
			k.cells = n
		}
	}
}

// New returns a new SdfxKernel.
func New(opts ...Option) *SdfxKernel {
	k := &SdfxKernel{cells: defaultMeshCells}
	for _, o := range opts {
		o(k)
	}
	return k
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Box creates a box with the given dimensions centred on the origin.
// Joint features are described by their centre frame, so no corner shift.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	return wrap(s)
}

// Cylinder creates a cylinder with the given height and radius.
// The segments parameter is ignored since SDF represents smooth surfaces.
func (k *SdfxKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	return wrap(s)
}

// Sphere creates a sphere centred on the origin.
func (k *SdfxKernel) Sphere(radius float64) kernel.Solid {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Sphere3D: %v", err))
	}
	return wrap(s)
}

// Prism extrudes a closed outline. sdf.Extrude3D is centred on z=0, so the
// result is lifted by half its height.
func (k *SdfxKernel) Prism(outline [][2]float64, height float64) (kernel.Solid, error) {
	if len(outline) < 3 {
		return nil, fmt.Errorf("sdfx: prism outline needs at least 3 points, got %d", len(outline))
	}
	if height <= 0 {
		return nil, fmt.Errorf("sdfx: prism height must be positive, got %g", height)
	}
	pts := make([]v2.Vec, len(outline))
	var area float64
	for i, p := range outline {
		pts[i] = v2.Vec{X: p[0], Y: p[1]}
		q := outline[(i+1)%len(outline)]
		area += p[0]*q[1] - q[0]*p[1]
	}
	// Polygon2D expects counter-clockwise vertices.
	if area < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	poly, err := sdf.Polygon2D(pts)
	if err != nil {
		return nil, fmt.Errorf("sdfx: prism outline: %w", err)
	}
	s := sdf.Extrude3D(poly, height)
	m := sdf.Translate3d(v3.Vec{Z: height / 2})
	return wrap(sdf.Transform3D(s, m)), nil
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Orient rotates the solid so that world X/Y/Z line up with the given axes,
// then moves it to origin. The axes are decomposed into the same Z·Y·X Euler
// order Rotate uses.
func (k *SdfxKernel) Orient(s kernel.Solid, origin, xAxis, yAxis, zAxis [3]float64) kernel.Solid {
	ax, ay, az := eulerZYX(xAxis, yAxis, zAxis)
	m := sdf.Translate3d(v3.Vec{X: origin[0], Y: origin[1], Z: origin[2]}).
		Mul(sdf.RotateZ(az)).
		Mul(sdf.RotateY(ay)).
		Mul(sdf.RotateX(ax))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// eulerZYX returns the X, Y and Z angles (radians) of the rotation whose
// columns are the given axes.
func eulerZYX(x, y, z [3]float64) (ax, ay, az float64) {
	sy := -x[2]
	if sy > 1 {
		sy = 1
	} else if sy < -1 {
		sy = -1
	}
	ay = math.Asin(sy)
	if math.Abs(sy) > 1-1e-9 {
		// Gimbal lock: fold the X rotation into Z.
		return 0, ay, math.Atan2(-y[0], y[1])
	}
	return math.Atan2(y[2], z[2]), ay, math.Atan2(x[1], x[0])
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3 := unwrap(s)

	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(sdf3, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
