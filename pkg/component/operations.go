package component

import (
	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/plate"
)

// Default tolerances for Boolean.
const (
	DefaultBoolTolerance  = 0.01
	DefaultMergeTolerance = 0.01
)

// TransformParams are the inputs of Transform. Mode is one of scale, orient,
// array, stack or custom; empty means scale.
type TransformParams struct {
	Mode   string
	Origin *geom.Plane
	Target *geom.Plane
	Scale  *float64
	Step   *float64
	Flip   *bool
	Custom *geom.Affine
}

// Transform moves, scales or lays out the model's plates.
func Transform(pm plate.PlateModel, p TransformParams) (Result, error) {
	return delegate(pm, func(pm plate.PlateModel) (plate.PlateModel, error) {
		mode := plate.TransformScale
		if p.Mode != "" {
			var err error
			if mode, err = plate.ParseTransformMode(p.Mode); err != nil {
				return nil, err
			}
		}
		return pm.Transform(plate.TransformOptions{
			Mode:   mode,
			Origin: orDefault(p.Origin, geom.WorldXY),
			Target: orDefault(p.Target, geom.WorldXY),
			Scale:  orDefault(p.Scale, 1),
			Step:   orDefault(p.Step, 0),
			Flip:   orDefault(p.Flip, false),
			Custom: orDefault(p.Custom, geom.Identity()),
		})
	})
}

// FingerParams are the inputs of Fingers.
type FingerParams struct {
	Pairs   [][2]int
	Count1  *int
	Length1 *float64
	Width1  *float64
	Count2  *int
	Length2 *float64
	Width2  *float64
	Spacing *float64
	Shift   *float64
	Mirror  *bool
}

// Fingers adds finger joints to the selected contacts.
func Fingers(pm plate.PlateModel, p FingerParams) (Result, error) {
	d := plate.DefaultFingerOptions()
	return delegate(pm, func(pm plate.PlateModel) (plate.PlateModel, error) {
		return pm.AddFingers(plate.FingerOptions{
			Pairs:   p.Pairs,
			Count1:  orDefault(p.Count1, d.Count1),
			Length1: orDefault(p.Length1, d.Length1),
			Width1:  orDefault(p.Width1, d.Width1),
			Count2:  orDefault(p.Count2, d.Count2),
			Length2: orDefault(p.Length2, d.Length2),
			Width2:  orDefault(p.Width2, d.Width2),
			Spacing: orDefault(p.Spacing, d.Spacing),
			Shift:   orDefault(p.Shift, d.Shift),
			Mirror:  orDefault(p.Mirror, d.Mirror),
		})
	})
}

// HalflapParams are the inputs of Halflap.
type HalflapParams struct {
	Pairs          [][2]int
	Proportion     *float64
	Tolerance      *float64
	MinAngle       *float64
	StraightHeight *float64
	FilletHeight   *float64
	Segments       *int
}

// Halflap cuts half-lap slots into crossing plates.
func Halflap(pm plate.PlateModel, p HalflapParams) (Result, error) {
	d := plate.DefaultHalflapOptions()
	return delegate(pm, func(pm plate.PlateModel) (plate.PlateModel, error) {
		return pm.AddHalflap(plate.HalflapOptions{
			Pairs:          p.Pairs,
			Proportion:     orDefault(p.Proportion, d.Proportion),
			Tolerance:      orDefault(p.Tolerance, d.Tolerance),
			MinAngle:       orDefault(p.MinAngle, d.MinAngle),
			StraightHeight: orDefault(p.StraightHeight, d.StraightHeight),
			FilletHeight:   orDefault(p.FilletHeight, d.FilletHeight),
			Segments:       orDefault(p.Segments, d.Segments),
		})
	})
}

// TenonParams are the inputs of ChamferedTenons.
type TenonParams struct {
	Pairs     [][2]int
	Count     *int
	Length    *float64
	Width     *float64
	Spacing   *float64
	Shift     *float64
	SideTol   *float64
	TopTol    *float64
	BottomTol *float64
}

// ChamferedTenons adds tenons and matching mortises to side-to-face contacts.
func ChamferedTenons(pm plate.PlateModel, p TenonParams) (Result, error) {
	d := plate.DefaultTenonOptions()
	return delegate(pm, func(pm plate.PlateModel) (plate.PlateModel, error) {
		return pm.AddChamferedTenons(plate.TenonOptions{
			Pairs:     p.Pairs,
			Count:     orDefault(p.Count, d.Count),
			Length:    orDefault(p.Length, d.Length),
			Width:     orDefault(p.Width, d.Width),
			Spacing:   orDefault(p.Spacing, d.Spacing),
			Shift:     orDefault(p.Shift, d.Shift),
			SideTol:   orDefault(p.SideTol, d.SideTol),
			TopTol:    orDefault(p.TopTol, d.TopTol),
			BottomTol: orDefault(p.BottomTol, d.BottomTol),
		})
	})
}

// SunriseParams are the inputs of Sunrise. A nil ForcedDirection lets each
// contact use its own insertion vector.
type SunriseParams struct {
	Pairs           [][2]int
	Count           *int
	Width           *float64
	Spacing         *float64
	SpreadAngle     *float64
	ForcedDirection *geom.Direction
}

// Sunrise adds fanned dovetail keys to the selected contacts.
func Sunrise(pm plate.PlateModel, p SunriseParams) (Result, error) {
	d := plate.DefaultSunriseOptions()
	return delegate(pm, func(pm plate.PlateModel) (plate.PlateModel, error) {
		return pm.AddSunrise(plate.SunriseOptions{
			Pairs:           p.Pairs,
			Count:           orDefault(p.Count, d.Count),
			Width:           orDefault(p.Width, d.Width),
			Spacing:         orDefault(p.Spacing, d.Spacing),
			SpreadAngle:     orDefault(p.SpreadAngle, d.SpreadAngle),
			ForcedDirection: p.ForcedDirection,
		})
	})
}

// Boolean merges joint features into the breps of the listed plates (all
// when ids is empty).
func Boolean(pm plate.PlateModel, ids []int, boolTol, mergeTol *float64) (Result, error) {
	return delegate(pm, func(pm plate.PlateModel) (plate.PlateModel, error) {
		return pm.PerformBooleanOperations(ids,
			orDefault(boolTol, DefaultBoolTolerance),
			orDefault(mergeTol, DefaultMergeTolerance))
	})
}

// SwitchTopBottom swaps the faces of the listed plates (all when ids is
// empty).
func SwitchTopBottom(pm plate.PlateModel, ids []int) (Result, error) {
	return delegate(pm, func(pm plate.PlateModel) (plate.PlateModel, error) {
		return pm.SwitchTopBottom(ids)
	})
}
