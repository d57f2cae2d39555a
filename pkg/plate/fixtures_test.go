package plate

import (
	"testing"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// ---------------------------------------------------------------------------
// Test fixtures
// ---------------------------------------------------------------------------

const delta = 1e-6

// flat returns a horizontal plate whose top face sits at height z.
func flat(name string, x, y, z, w, h, t float64) Plate {
	return RectPlate(name, geom.NewPlane(r3.Vec{X: x, Y: y, Z: z}, r3.Vec{Z: 1}), w, h, t)
}

// upright returns a vertical plate spanning +X and +Z from origin whose
// material extends towards +Y.
func upright(name string, origin r3.Vec, w, h, t float64) Plate {
	pl := geom.PlaneFromAxes(origin, r3.Vec{X: 1}, r3.Vec{Z: 1})
	return RectPlate(name, pl, w, h, t)
}

// tJoint: a 200x100x20 base (z in [-20,0]) and a 200x80x20 wall standing on
// its top face at y in [40,60].
func tJoint(t *testing.T) *Model {
	t.Helper()
	base := flat("base", 0, 0, 0, 200, 100, 20)
	wall := upright("wall", r3.Vec{Y: 40}, 200, 80, 20)
	m, err := New([]Plate{base, wall}, [][2]int{{0, 1}})
	require.NoError(t, err)
	return m
}

// stacked: plate 0 lies on plate 1, overlapping on x in [50,100].
func stacked(t *testing.T) *Model {
	t.Helper()
	top := flat("top", 0, 0, 20, 100, 100, 20)
	bottom := flat("bottom", 50, 0, 0, 100, 100, 20)
	m, err := New([]Plate{top, bottom}, [][2]int{{0, 1}})
	require.NoError(t, err)
	return m
}

// cross: two upright plates crossing along the vertical line x=80, y=10.
func cross(t *testing.T) *Model {
	t.Helper()
	a := upright("a", r3.Vec{}, 200, 100, 20)
	bPlane := geom.PlaneFromAxes(r3.Vec{X: 90, Y: -50}, r3.Vec{Y: 1}, r3.Vec{Z: 1})
	b := RectPlate("b", bPlane, 120, 100, 20)
	m, err := New([]Plate{a, b}, [][2]int{{0, 1}})
	require.NoError(t, err)
	return m
}

// corner: a horizontal plate whose end runs into an upright plate's band
// while the upright's foot runs into the horizontal plate's band.
func corner(t *testing.T) *Model {
	t.Helper()
	a := flat("a", 0, 0, 0, 110, 100, 20)
	bPlane := geom.PlaneFromAxes(r3.Vec{X: 120, Z: -20}, r3.Vec{Y: 1}, r3.Vec{Z: 1})
	b := RectPlate("b", bPlane, 100, 100, 20)
	m, err := New([]Plate{a, b}, [][2]int{{0, 1}})
	require.NoError(t, err)
	return m
}

func assertVec(t *testing.T, want, got r3.Vec) {
	t.Helper()
	require.InDeltaf(t, want.X, got.X, delta, "x of %v", got)
	require.InDeltaf(t, want.Y, got.Y, delta, "y of %v", got)
	require.InDeltaf(t, want.Z, got.Z, delta, "z of %v", got)
}

// mustModel unwraps an operation result: mustModel(t)(m.Op(opts)).
func mustModel(t *testing.T) func(PlateModel, error) *Model {
	return func(pm PlateModel, err error) *Model {
		t.Helper()
		require.NoError(t, err)
		m, ok := pm.(*Model)
		require.True(t, ok)
		return m
	}
}
