package component

import (
	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/plate"
	"github.com/chazu/lamina/pkg/tree"
)

// FabricationParams are the inputs of Fabrication.
type FabricationParams struct {
	Plates        []int
	ContourRadius *float64
	HolesRadius   *float64
	Notch         *bool
	Cylinder      *bool
	TBone         *bool
	Limit         *float64
}

// FabricationOutputs hold the milled model and its tool paths, one branch
// per plate.
type FabricationOutputs struct {
	Warnings      []string
	Model         plate.PlateModel
	TopMilling    *tree.Tree[geom.Polyline]
	BottomMilling *tree.Tree[geom.Polyline]
	TopHoles      *tree.Tree[geom.Polyline]
	BottomHoles   *tree.Tree[geom.Polyline]
}

// Fabrication computes tool-centre paths for the selected plates.
func Fabrication(pm plate.PlateModel, p FabricationParams) (FabricationOutputs, error) {
	if isMissing(pm) {
		return FabricationOutputs{Warnings: []string{warnModel}}, nil
	}
	d := plate.DefaultFabricationOptions()
	out, err := pm.FabricationLines(plate.FabricationOptions{
		Plates:        p.Plates,
		ContourRadius: orDefault(p.ContourRadius, d.ContourRadius),
		HolesRadius:   orDefault(p.HolesRadius, d.HolesRadius),
		Notch:         orDefault(p.Notch, d.Notch),
		Cylinder:      orDefault(p.Cylinder, d.Cylinder),
		TBone:         orDefault(p.TBone, d.TBone),
		Limit:         orDefault(p.Limit, d.Limit),
	})
	if err != nil {
		return FabricationOutputs{}, err
	}

	plates := out.Plates()
	top := make([][]geom.Polyline, len(plates))
	bottom := make([][]geom.Polyline, len(plates))
	topHoles := make([][]geom.Polyline, len(plates))
	bottomHoles := make([][]geom.Polyline, len(plates))
	for i, pl := range plates {
		top[i], bottom[i] = pl.TopMilling, pl.BottomMilling
		topHoles[i], bottomHoles[i] = pl.TopHolesMilling, pl.BottomHolesMilling
	}
	return FabricationOutputs{
		Model:         out,
		TopMilling:    tree.FromLists(top),
		BottomMilling: tree.FromLists(bottom),
		TopHoles:      tree.FromLists(topHoles),
		BottomHoles:   tree.FromLists(bottomHoles),
	}, nil
}
