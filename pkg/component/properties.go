package component

import (
	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/kernel"
	"github.com/chazu/lamina/pkg/plate"
	"github.com/chazu/lamina/pkg/tree"
	"gonum.org/v1/gonum/spatial/r3"
)

// ContactOutputs are the per-contact attributes of a model. IDs has one
// branch per plate listing its neighbours; Pairs one branch per contact.
type ContactOutputs struct {
	Warnings []string
	Pairs    *tree.Tree[int]
	IDs      *tree.Tree[int]
	Types    []plate.ContactType
	Strings  []string
	Zones    []geom.Polyline
	Planes   []geom.Plane
	Vectors  []r3.Vec
	Centers  []r3.Vec
	// Breps is only filled when a kernel is given.
	Breps []kernel.Solid
}

// ContactProperties reads the contact attributes of pm.
func ContactProperties(pm plate.PlateModel, k kernel.Kernel) (ContactOutputs, error) {
	if isMissing(pm) {
		return ContactOutputs{Warnings: []string{warnModel}}, nil
	}
	pairs := pm.ContactPairs()
	lists := make([][]int, len(pairs))
	for i, p := range pairs {
		lists[i] = []int{p[0], p[1]}
	}
	out := ContactOutputs{
		Pairs:   tree.FromLists(lists),
		IDs:     tree.FromLists(pm.ContactIDs()),
		Types:   pm.ContactTypes(),
		Strings: pm.ContactStrings(),
		Zones:   pm.ContactZones(),
		Planes:  pm.ContactPlanes(),
		Vectors: pm.ContactVectors(),
		Centers: pm.ContactCenters(),
	}
	if k != nil {
		breps, err := pm.ContactBreps(k)
		if err != nil {
			return ContactOutputs{}, err
		}
		out.Breps = breps
	}
	return out, nil
}

// PlateOutputs are the per-plate attributes of a model. Flat lists hold one
// item per plate; trees hold one branch per plate.
type PlateOutputs struct {
	Warnings       []string
	Thickness      []float64
	TopPlanes      []geom.Plane
	MidPlanes      []geom.Plane
	BottomPlanes   []geom.Plane
	TopContours    []geom.Polyline
	MidContours    []geom.Polyline
	BottomContours []geom.Polyline
	TopHoles       *tree.Tree[geom.Polyline]
	BottomHoles    *tree.Tree[geom.Polyline]
	TopMilling     *tree.Tree[geom.Polyline]
	BottomMilling  *tree.Tree[geom.Polyline]
	Positives      *tree.Tree[plate.Feature]
	Negatives      *tree.Tree[plate.Feature]
	Keys           *tree.Tree[plate.Feature]
	// Breps is only filled when a kernel is given.
	Breps []kernel.Solid
}

// PlateProperties reads the geometry of every plate of pm.
func PlateProperties(pm plate.PlateModel, k kernel.Kernel) (PlateOutputs, error) {
	if isMissing(pm) {
		return PlateOutputs{Warnings: []string{warnModel}}, nil
	}
	plates := pm.Plates()
	n := len(plates)
	out := PlateOutputs{
		Thickness:      make([]float64, n),
		TopPlanes:      make([]geom.Plane, n),
		MidPlanes:      make([]geom.Plane, n),
		BottomPlanes:   make([]geom.Plane, n),
		TopContours:    make([]geom.Polyline, n),
		MidContours:    make([]geom.Polyline, n),
		BottomContours: make([]geom.Polyline, n),
	}
	topHoles := make([][]geom.Polyline, n)
	bottomHoles := make([][]geom.Polyline, n)
	topMilling := make([][]geom.Polyline, n)
	bottomMilling := make([][]geom.Polyline, n)
	pos := make([][]plate.Feature, n)
	neg := make([][]plate.Feature, n)
	keys := make([][]plate.Feature, n)
	for i, p := range plates {
		out.Thickness[i] = p.Thickness
		out.TopPlanes[i] = p.TopPlane
		out.MidPlanes[i] = p.MidPlane()
		out.BottomPlanes[i] = p.BottomPlane()
		out.TopContours[i] = p.Contour
		out.MidContours[i] = p.MidContour()
		out.BottomContours[i] = p.BottomContour()
		topHoles[i] = p.Holes
		bottomHoles[i] = p.BottomHoles()
		topMilling[i] = append(append([]geom.Polyline(nil), p.TopMilling...), p.TopHolesMilling...)
		bottomMilling[i] = append(append([]geom.Polyline(nil), p.BottomMilling...), p.BottomHolesMilling...)
		pos[i], neg[i], keys[i] = p.Joints.Positives, p.Joints.Negatives, p.Joints.Keys
	}
	out.TopHoles = tree.FromLists(topHoles)
	out.BottomHoles = tree.FromLists(bottomHoles)
	out.TopMilling = tree.FromLists(topMilling)
	out.BottomMilling = tree.FromLists(bottomMilling)
	out.Positives = tree.FromLists(pos)
	out.Negatives = tree.FromLists(neg)
	out.Keys = tree.FromLists(keys)

	if k != nil {
		out.Breps = make([]kernel.Solid, n)
		for i, p := range plates {
			s, err := p.Brep(k)
			if err != nil {
				return PlateOutputs{}, err
			}
			out.Breps[i] = s
		}
	}
	return out, nil
}

// ModuleOutputs are the attributes of an evaluated module. Steps, Relatives
// and Spaces have one branch per step or per plate in sequence order.
type ModuleOutputs struct {
	Warnings  []string
	Sequence  string
	Count     int
	Order     []int
	Steps     *tree.Tree[int]
	Vectors   []r3.Vec
	Relatives *tree.Tree[int]
	Spaces    *tree.Tree[r3.Vec]
	Blocked   []int
	// Breps is only filled when a kernel is given.
	Breps []kernel.Solid
}

// ModuleProperties reads the assembly attributes of a.
func ModuleProperties(a *plate.Assembly, k kernel.Kernel) (ModuleOutputs, error) {
	if a == nil {
		return ModuleOutputs{Warnings: []string{warnModule}}, nil
	}
	out := ModuleOutputs{
		Sequence:  a.Module.Sequence.String(),
		Count:     a.Count(),
		Order:     a.Order,
		Steps:     tree.FromLists(a.Steps),
		Vectors:   a.Vectors,
		Relatives: tree.FromLists(a.Relatives),
		Spaces:    tree.FromLists(a.Spaces),
		Blocked:   a.Blocked,
	}
	if k != nil {
		breps, err := a.Breps(k)
		if err != nil {
			return ModuleOutputs{}, err
		}
		out.Breps = breps
	}
	return out, nil
}

// FEMOutputs are the shell and joint descriptions for structural analysis.
type FEMOutputs struct {
	Warnings []string
	Plates   []plate.FEMPlate
	Joints   []plate.FEMJoint
}

// FEM exports pm for structural analysis.
func FEM(pm plate.PlateModel) FEMOutputs {
	if isMissing(pm) {
		return FEMOutputs{Warnings: []string{warnModel}}
	}
	return FEMOutputs{Plates: pm.FEMPlates(), Joints: pm.FEMJoints()}
}
