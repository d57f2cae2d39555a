package preview

import (
	"testing"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/plate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func ptr(f float64) *float64 { return &f }

// fourPlates returns four 10x10 plates side by side, all inserted downwards.
func fourPlates() AnimateInput {
	var in AnimateInput
	for i := 0; i < 4; i++ {
		p := plate.RectPlate("", geom.NewPlane(r3.Vec{X: float64(20 * i)}, r3.Vec{Z: 1}), 10, 10, 2)
		p.ID = i
		in.Plates = append(in.Plates, p)
		in.Vectors = append(in.Vectors, r3.Vec{Z: -1})
	}
	return in
}

func TestAnimateEnds(t *testing.T) {
	in := fourPlates()

	in.Step = ptr(0)
	f, err := Animate(in)
	require.NoError(t, err)
	assert.Equal(t, StatusStart, f.Status)
	assert.Equal(t, 0, f.Moving)
	require.Len(t, f.Plates, 1)
	assert.InDelta(t, 1000, f.Plates[0].TopPlane.Origin.Z, 1e-9)

	in.Step = ptr(1)
	f, err = Animate(in)
	require.NoError(t, err)
	assert.Equal(t, StatusEnd, f.Status)
	assert.Equal(t, -1, f.Moving)
	assert.Len(t, f.Plates, 4)
}

func TestAnimateMidway(t *testing.T) {
	in := fourPlates()
	in.Step = ptr(0.6) // 2.4 plates
	in.Retreat = ptr(100)

	f, err := Animate(in)
	require.NoError(t, err)
	require.Len(t, f.Plates, 3)
	assert.Equal(t, 2, f.Moving)
	assert.InDelta(t, 60, f.Offset.Z, 1e-9)

	for i := 0; i < 2; i++ {
		assert.Equal(t, in.Plates[i].TopPlane, f.Plates[i].TopPlane, "placed plate %d", i)
	}
	moving := f.Plates[2]
	assert.InDelta(t, 40, moving.TopPlane.Origin.X, 1e-9)
	assert.InDelta(t, 60, moving.TopPlane.Origin.Z, 1e-9)
	assert.Equal(t, "plate 3 of 4, 40% inserted", f.Status)

	// Input plates are untouched.
	assert.InDelta(t, 0, in.Plates[2].TopPlane.Origin.Z, 1e-9)
}

func TestAnimateDefaults(t *testing.T) {
	in := fourPlates()
	withNil, err := Animate(in)
	require.NoError(t, err)

	in.Step, in.Retreat = ptr(DefaultStep), ptr(DefaultRetreat)
	explicit, err := Animate(in)
	require.NoError(t, err)
	assert.Equal(t, explicit, withNil)

	in.Step = ptr(0.1)
	in.Retreat = nil
	f, err := Animate(in)
	require.NoError(t, err)
	assert.InDelta(t, 600, f.Offset.Z, 1e-9)
}

func TestAnimateRejectsBadInput(t *testing.T) {
	in := fourPlates()
	in.Step = ptr(1.5)
	_, err := Animate(in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = fourPlates()
	in.Vectors = in.Vectors[:2]
	_, err = Animate(in)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnimateEmptySequence(t *testing.T) {
	f, err := Animate(AnimateInput{Step: ptr(0.5)})
	require.NoError(t, err)
	assert.Empty(t, f.Plates)
	assert.Equal(t, -1, f.Moving)
}

func TestAnimateInputFromAssembly(t *testing.T) {
	base := plate.RectPlate("base", geom.WorldXY, 200, 100, 20)
	wall := plate.RectPlate("wall", geom.PlaneFromAxes(r3.Vec{Y: 40}, r3.Vec{X: 1}, r3.Vec{Z: 1}), 200, 80, 20)
	mod, err := plate.NewModule("m", "[0,1]", geom.Gravity())
	require.NoError(t, err)
	m, err := plate.New([]plate.Plate{base, wall}, [][2]int{{0, 1}}, plate.WithModules(mod))
	require.NoError(t, err)
	a, err := m.Module("m")
	require.NoError(t, err)

	f, err := Animate(AnimateInputFromAssembly(a, ptr(0.5), ptr(10)))
	require.NoError(t, err)
	assert.Equal(t, 1, f.Moving)
	assert.Equal(t, "wall", f.Plates[1].Name)
	assert.InDelta(t, 10, f.Offset.Z, 1e-9)
}

func TestContactSpheres(t *testing.T) {
	base := plate.RectPlate("base", geom.WorldXY, 200, 100, 20)
	wall := plate.RectPlate("wall", geom.PlaneFromAxes(r3.Vec{Y: 40}, r3.Vec{X: 1}, r3.Vec{Z: 1}), 200, 80, 10)
	m, err := plate.New([]plate.Plate{base, wall}, [][2]int{{0, 1}})
	require.NoError(t, err)

	assert.Nil(t, ContactSpheres(nil, nil))
	assert.Equal(t, ContactSpheres(m, ptr(1)), ContactSpheres(m, nil))

	s := ContactSpheres(m, ptr(2))
	require.Len(t, s, 1)
	assert.InDelta(t, 20, s[0].Radius, 1e-9)
}

func TestSplitDecimal(t *testing.T) {
	tests := []struct {
		in      float64
		integer int
		deci    float64
	}{
		{3.75, 3, 0.75},
		{-2.5, -2, 0.5},
		{-0.25, 0, 0.25},
		{7, 7, 0},
		{0, 0, 0},
		{12.125, 12, 0.125},
	}
	for _, tt := range tests {
		i, d, err := SplitDecimal(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.integer, i, "integer part of %g", tt.in)
		assert.InDelta(t, tt.deci, d, 1e-12, "decimal part of %g", tt.in)
	}
}
