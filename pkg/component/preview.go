package component

import (
	"github.com/chazu/lamina/pkg/export"
	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/plate"
	"github.com/chazu/lamina/pkg/preview"
	"gonum.org/v1/gonum/spatial/r3"
)

// AnimationOutputs is one frame of the insertion animation.
type AnimationOutputs struct {
	Warnings []string
	Plates   []plate.Plate
	Status   string
}

// Animation shows the module at step, a fraction of its sequence. Nil step
// and retreat take the preview defaults.
func Animation(a *plate.Assembly, step, retreat *float64) (AnimationOutputs, error) {
	if a == nil {
		return AnimationOutputs{Warnings: []string{warnModule}}, nil
	}
	f, err := preview.Animate(preview.AnimateInputFromAssembly(*a, step, retreat))
	if err != nil {
		return AnimationOutputs{}, err
	}
	return AnimationOutputs{Plates: f.Plates, Status: f.Status}, nil
}

// SphereOutputs are the contact spheres of a model.
type SphereOutputs struct {
	Warnings []string
	Spheres  []geom.Sphere
	Centers  []r3.Vec
	Vectors  []r3.Vec
}

// SphereInsertion places a sphere on every contact, scaled by the thinner
// plate of each pair.
func SphereInsertion(pm plate.PlateModel, scale *float64) SphereOutputs {
	if isMissing(pm) {
		return SphereOutputs{Warnings: []string{warnModel}}
	}
	return SphereOutputs{
		Spheres: preview.ContactSpheres(pm, scale),
		Centers: pm.ContactCenters(),
		Vectors: pm.ContactVectors(),
	}
}

// DeciOutputs are the two halves of a decimal number.
type DeciOutputs struct {
	Warnings []string
	Integer  int
	Decimal  float64
}

// Deci splits num into its integer and decimal parts.
func Deci(num *float64) (DeciOutputs, error) {
	if num == nil {
		return DeciOutputs{Warnings: []string{missing("Num")}}, nil
	}
	i, d, err := preview.SplitDecimal(*num)
	if err != nil {
		return DeciOutputs{}, err
	}
	return DeciOutputs{Integer: i, Decimal: d}, nil
}

// TextParams are the inputs of Text. Nothing is written unless Write is set.
type TextParams struct {
	Write       bool
	Folder      string
	Name        string
	Extension   string
	Content     string
	Dated       *bool
	Incremental *bool
}

// TextOutputs report the file written.
type TextOutputs struct {
	Warnings []string
	Path     string
}

// Text writes Content to a file in Folder.
func Text(p TextParams) (TextOutputs, error) {
	if !p.Write {
		return TextOutputs{}, nil
	}
	switch {
	case p.Folder == "":
		return TextOutputs{Warnings: []string{missing("Folder")}}, nil
	case p.Name == "":
		return TextOutputs{Warnings: []string{missing("Name")}}, nil
	}
	path, warnings, err := export.WriteText(export.TextOptions{
		Folder:      p.Folder,
		Name:        p.Name,
		Extension:   p.Extension,
		Content:     p.Content,
		Dated:       orDefault(p.Dated, false),
		Incremental: orDefault(p.Incremental, true),
	})
	if err != nil {
		return TextOutputs{}, err
	}
	return TextOutputs{Warnings: warnings, Path: path}, nil
}
