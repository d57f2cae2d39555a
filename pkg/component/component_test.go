package component_test

import (
	"path/filepath"
	"testing"

	"github.com/chazu/lamina/pkg/component"
	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/plate"
	"github.com/chazu/lamina/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	warnModel  = "Input parameter Model failed to collect data"
	warnModule = "Input parameter Module failed to collect data"
)

// tJoint: a 200x100x20 base and a 200x80x20 wall standing on it, with a
// module inserting the base first.
func tJoint(t *testing.T) *plate.Model {
	t.Helper()
	base := plate.RectPlate("base", geom.WorldXY, 200, 100, 20)
	wallPlane := geom.PlaneFromAxes(r3.Vec{Y: 40}, r3.Vec{X: 1}, r3.Vec{Z: 1})
	wall := plate.RectPlate("wall", wallPlane, 200, 80, 20)
	mod, err := plate.NewModule("m", "[0,1]", geom.Gravity())
	require.NoError(t, err)
	m, err := plate.New([]plate.Plate{base, wall}, [][2]int{{0, 1}}, plate.WithModules(mod))
	require.NoError(t, err)
	return m
}

func ptr[T any](v T) *T { return &v }

// ---------------------------------------------------------------------------
// Missing inputs
// ---------------------------------------------------------------------------

func TestMissingModel(t *testing.T) {
	results := map[string]func(plate.PlateModel) ([]string, error){
		"transform": func(pm plate.PlateModel) ([]string, error) {
			r, err := component.Transform(pm, component.TransformParams{})
			return r.Warnings, err
		},
		"fingers": func(pm plate.PlateModel) ([]string, error) {
			r, err := component.Fingers(pm, component.FingerParams{})
			return r.Warnings, err
		},
		"halflap": func(pm plate.PlateModel) ([]string, error) {
			r, err := component.Halflap(pm, component.HalflapParams{})
			return r.Warnings, err
		},
		"tenons": func(pm plate.PlateModel) ([]string, error) {
			r, err := component.ChamferedTenons(pm, component.TenonParams{})
			return r.Warnings, err
		},
		"sunrise": func(pm plate.PlateModel) ([]string, error) {
			r, err := component.Sunrise(pm, component.SunriseParams{})
			return r.Warnings, err
		},
		"boolean": func(pm plate.PlateModel) ([]string, error) {
			r, err := component.Boolean(pm, nil, nil, nil)
			return r.Warnings, err
		},
		"switch": func(pm plate.PlateModel) ([]string, error) {
			r, err := component.SwitchTopBottom(pm, nil)
			return r.Warnings, err
		},
		"fabrication": func(pm plate.PlateModel) ([]string, error) {
			r, err := component.Fabrication(pm, component.FabricationParams{})
			return r.Warnings, err
		},
		"contacts": func(pm plate.PlateModel) ([]string, error) {
			r, err := component.ContactProperties(pm, nil)
			return r.Warnings, err
		},
		"plates": func(pm plate.PlateModel) ([]string, error) {
			r, err := component.PlateProperties(pm, nil)
			return r.Warnings, err
		},
		"spheres": func(pm plate.PlateModel) ([]string, error) { return component.SphereInsertion(pm, nil).Warnings, nil },
		"fem":     func(pm plate.PlateModel) ([]string, error) { return component.FEM(pm).Warnings, nil },
	}
	inputs := map[string]plate.PlateModel{
		"nil":       nil,
		"nil model": (*plate.Model)(nil),
	}
	for name, run := range results {
		for input, pm := range inputs {
			t.Run(name+"/"+input, func(t *testing.T) {
				warnings, err := run(pm)
				require.NoError(t, err)
				assert.Equal(t, []string{warnModel}, warnings)
			})
		}
	}
}

func TestMissingModule(t *testing.T) {
	props, err := component.ModuleProperties(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{warnModule}, props.Warnings)
	assert.Nil(t, props.Steps)

	anim, err := component.Animation(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{warnModule}, anim.Warnings)
	assert.Empty(t, anim.Plates)
}

func TestMissingResultHasNoModel(t *testing.T) {
	r, err := component.Fingers(nil, component.FingerParams{})
	require.NoError(t, err)
	assert.Nil(t, r.Model)
}

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

func TestNilParamsUseDefaults(t *testing.T) {
	m := tJoint(t)

	want, err := m.AddChamferedTenons(plate.DefaultTenonOptions())
	require.NoError(t, err)
	got, err := component.ChamferedTenons(m, component.TenonParams{})
	require.NoError(t, err)
	assert.Equal(t, want.Plates(), got.Model.Plates())

	want, err = m.AddFingers(plate.DefaultFingerOptions())
	require.NoError(t, err)
	explicit := plate.DefaultFingerOptions()
	gotFingers, err := component.Fingers(m, component.FingerParams{Count2: ptr(explicit.Count2), Width2: ptr(explicit.Width2)})
	require.NoError(t, err)
	assert.Equal(t, want.Plates(), gotFingers.Model.Plates())
}

func TestComponentsLeaveInputUntouched(t *testing.T) {
	m := tJoint(t)
	before := m.Plates()
	_, err := component.ChamferedTenons(m, component.TenonParams{Count: ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, before, m.Plates())
}

func TestTransform(t *testing.T) {
	m := tJoint(t)

	same, err := component.Transform(m, component.TransformParams{})
	require.NoError(t, err)
	corner := same.Model.Plates()[1].Contour[2]
	assert.InDelta(t, 200, corner.X, 1e-9)
	assert.InDelta(t, 40, corner.Y, 1e-9)
	assert.InDelta(t, 80, corner.Z, 1e-9)

	scaled, err := component.Transform(m, component.TransformParams{Mode: "Scale", Scale: ptr(2.0)})
	require.NoError(t, err)
	assert.InDelta(t, 40, scaled.Model.Plates()[0].Thickness, 1e-9)

	_, err = component.Transform(m, component.TransformParams{Mode: "spin"})
	assert.ErrorIs(t, err, plate.ErrInvalidParameter)
}

func TestBooleanDefaults(t *testing.T) {
	r, err := component.Boolean(tJoint(t), []int{1}, nil, ptr(0.5))
	require.NoError(t, err)
	p, _ := r.Model.Plate(1)
	require.NotNil(t, p.Merge)
	assert.Equal(t, component.DefaultBoolTolerance, p.Merge.BoolTolerance)
	assert.Equal(t, 0.5, p.Merge.MergeTolerance)

	other, _ := r.Model.Plate(0)
	assert.Nil(t, other.Merge)
}

func TestSwitchTopBottom(t *testing.T) {
	r, err := component.SwitchTopBottom(tJoint(t), []int{0})
	require.NoError(t, err)
	p, _ := r.Model.Plate(0)
	assert.InDelta(t, -1, p.Normal().Z, 1e-9)

	_, err = component.SwitchTopBottom(tJoint(t), []int{5})
	assert.ErrorIs(t, err, plate.ErrUnknownPlate)
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

func TestContactProperties(t *testing.T) {
	out, err := component.ContactProperties(tJoint(t), nil)
	require.NoError(t, err)
	assert.Empty(t, out.Warnings)
	assert.Equal(t, []string{"(0,1) SF"}, out.Strings)
	assert.Equal(t, []plate.ContactType{plate.SideToFace}, out.Types)
	assert.Equal(t, []int{0, 1}, out.Pairs.Branch(tree.Path{0}))
	assert.Equal(t, []int{1}, out.IDs.Branch(tree.Path{0}))
	assert.Equal(t, []int{0}, out.IDs.Branch(tree.Path{1}))
	assert.Len(t, out.Zones, 1)
	assert.Nil(t, out.Breps)
}

func TestPlateProperties(t *testing.T) {
	m, err := tJoint(t).AddChamferedTenons(plate.DefaultTenonOptions())
	require.NoError(t, err)
	out, err := component.PlateProperties(m, nil)
	require.NoError(t, err)

	assert.Equal(t, []float64{20, 20}, out.Thickness)
	assert.InDelta(t, -10, out.MidPlanes[0].Origin.Z, 1e-9)
	assert.InDelta(t, -20, out.BottomPlanes[0].Origin.Z, 1e-9)
	assert.Equal(t, 2, out.Positives.BranchCount(), "one branch per plate")
	assert.Empty(t, out.Positives.Branch(tree.Path{0}))
	assert.Len(t, out.Positives.Branch(tree.Path{1}), 2)
	assert.Len(t, out.Negatives.Branch(tree.Path{0}), 2)
	assert.Equal(t, 0, out.TopMilling.Len())
}

func TestModuleProperties(t *testing.T) {
	a, err := tJoint(t).Module("m")
	require.NoError(t, err)
	out, err := component.ModuleProperties(&a, nil)
	require.NoError(t, err)

	assert.Equal(t, "[0,1]", out.Sequence)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, []int{0, 1}, out.Order)
	assert.Equal(t, 2, out.Steps.BranchCount())
	assert.Empty(t, out.Relatives.Branch(tree.Path{0}))
	assert.Equal(t, []int{0}, out.Relatives.Branch(tree.Path{1}))
	assert.Equal(t, r3.Vec{Z: -1}, out.Vectors[0])
}

func TestFEM(t *testing.T) {
	out := component.FEM(tJoint(t))
	assert.Len(t, out.Plates, 2)
	require.Len(t, out.Joints, 1)
	assert.Equal(t, [2]int{0, 1}, out.Joints[0].Pair)
}

func TestFabrication(t *testing.T) {
	m, err := tJoint(t).AddChamferedTenons(plate.DefaultTenonOptions())
	require.NoError(t, err)
	out, err := component.Fabrication(m, component.FabricationParams{})
	require.NoError(t, err)

	assert.Len(t, out.TopHoles.Branch(tree.Path{0}), 2)
	assert.Len(t, out.TopMilling.Branch(tree.Path{1}), 3)
	assert.Equal(t, 2, out.BottomMilling.BranchCount())

	_, err = component.Fabrication(m, component.FabricationParams{ContourRadius: ptr(-1.0)})
	assert.ErrorIs(t, err, plate.ErrInvalidParameter)
}

// ---------------------------------------------------------------------------
// Preview and output
// ---------------------------------------------------------------------------

func TestAnimation(t *testing.T) {
	a, err := tJoint(t).Module("m")
	require.NoError(t, err)

	start, err := component.Animation(&a, ptr(0.0), nil)
	require.NoError(t, err)
	assert.Equal(t, "start of insertion sequence", start.Status)
	require.Len(t, start.Plates, 1)

	end, err := component.Animation(&a, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "end of insertion sequence", end.Status)
	assert.Len(t, end.Plates, 2)

	_, err = component.Animation(&a, ptr(2.0), nil)
	assert.Error(t, err)
}

func TestSphereInsertion(t *testing.T) {
	m := tJoint(t)
	def := component.SphereInsertion(m, nil)
	require.Len(t, def.Spheres, 1)
	assert.Equal(t, 20.0, def.Spheres[0].Radius)

	half := component.SphereInsertion(m, ptr(0.5))
	assert.Equal(t, 10.0, half.Spheres[0].Radius)
	assert.Equal(t, def.Centers, half.Centers)
}

func TestDeci(t *testing.T) {
	out, err := component.Deci(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Input parameter Num failed to collect data"}, out.Warnings)

	out, err = component.Deci(ptr(3.75))
	require.NoError(t, err)
	assert.Equal(t, 3, out.Integer)
	assert.InDelta(t, 0.75, out.Decimal, 1e-12)
}

func TestText(t *testing.T) {
	dir := t.TempDir()

	idle, err := component.Text(component.TextParams{Folder: dir, Name: "a"})
	require.NoError(t, err)
	assert.Empty(t, idle.Path)

	noFolder, err := component.Text(component.TextParams{Write: true, Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Input parameter Folder failed to collect data"}, noFolder.Warnings)

	p := component.TextParams{Write: true, Folder: dir, Name: "cuts", Content: "x"}
	first, err := component.Text(p)
	require.NoError(t, err)
	second, err := component.Text(p)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cuts.txt"), first.Path)
	assert.Equal(t, filepath.Join(dir, "cuts_1.txt"), second.Path)

	p.Incremental = ptr(false)
	third, err := component.Text(p)
	require.NoError(t, err)
	assert.Equal(t, first.Path, third.Path)
}
