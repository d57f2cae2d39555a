// Package kernel defines the abstract geometry kernel interface.
// Implementations provide solid modeling and boolean operations behind this
// interface so plate breps can be built without tying the plate model to a
// particular CAD backend.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives. Box, Cylinder and Sphere are centred on the origin.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid
	Sphere(radius float64) Solid
	// Prism extrudes a closed XY outline from z=0 to z=height.
	Prism(outline [][2]float64, height float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees
	// Orient maps a solid modelled in the world frame into the frame given
	// by origin and orthonormal axes.
	Orient(s Solid, origin, xAxis, yAxis, zAxis [3]float64) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
