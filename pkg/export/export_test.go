package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/plate"
	"github.com/rpaloschi/dxf-go/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// ---------------------------------------------------------------------------
// Text
// ---------------------------------------------------------------------------

func TestWriteTextPlain(t *testing.T) {
	dir := t.TempDir()
	path, warnings, err := WriteText(TextOptions{Folder: dir, Name: "notes", Content: "hello"})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, filepath.Join(dir, "notes.txt"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	// Without Incremental the file is overwritten.
	again, _, err := WriteText(TextOptions{Folder: dir, Name: "notes", Extension: ".csv", Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "notes.csv"), again)
	again, _, err = WriteText(TextOptions{Folder: dir, Name: "notes", Extension: "csv", Content: "y"})
	require.NoError(t, err)
	b, _ = os.ReadFile(again)
	assert.Equal(t, "y", string(b))
}

func TestWriteTextIncremental(t *testing.T) {
	dir := t.TempDir()
	opts := TextOptions{Folder: dir, Name: "log", Content: "a", Incremental: true}

	first, _, err := WriteText(opts)
	require.NoError(t, err)
	opts.Content = "b"
	second, _, err := WriteText(opts)
	require.NoError(t, err)
	third, _, err := WriteText(opts)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "log.txt"), first)
	assert.Equal(t, filepath.Join(dir, "log_1.txt"), second)
	assert.Equal(t, filepath.Join(dir, "log_2.txt"), third)

	b, _ := os.ReadFile(first)
	assert.Equal(t, "a", string(b), "first file must not be overwritten")
}

func TestWriteTextIncrementalBound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "full.txt"), nil, 0o644))
	for i := 1; i < MaxIncrement-1; i++ {
		name := filepath.Join(dir, "full_"+strconv.Itoa(i)+".txt")
		require.NoError(t, os.WriteFile(name, nil, 0o644))
	}

	// The hundredth name is the last one tried.
	path, _, err := WriteText(TextOptions{Folder: dir, Name: "full", Content: "x", Incremental: true})
	require.NoError(t, err)
	assert.Equal(t, "full_99.txt", filepath.Base(path))

	_, _, err = WriteText(TextOptions{Folder: dir, Name: "full", Content: "x", Incremental: true})
	assert.ErrorIs(t, err, ErrNoFreeName)
	_, err = os.Stat(filepath.Join(dir, "full_100.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteTextDated(t *testing.T) {
	defer func(orig func() time.Time) { now = orig }(now)
	now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }

	dir := t.TempDir()
	path, _, err := WriteText(TextOptions{Folder: dir, Name: "cut", Content: "x", Dated: true})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09_cut.txt", filepath.Base(path))
}

func TestWriteTextZeroBytes(t *testing.T) {
	path, warnings, err := WriteText(TextOptions{Folder: t.TempDir(), Name: "empty"})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], path)
	assert.Contains(t, warnings[0], "0 bytes")
}

func TestWriteTextRequiresName(t *testing.T) {
	_, _, err := WriteText(TextOptions{Folder: t.TempDir()})
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// G-code
// ---------------------------------------------------------------------------

func TestPassDepths(t *testing.T) {
	assert.Equal(t, []float64{20}, passDepths(20, 0))
	assert.Equal(t, []float64{20}, passDepths(20, 25))
	assert.Equal(t, []float64{6, 12, 18, 20}, passDepths(20, 6))
	assert.Equal(t, []float64{5, 10}, passDepths(10, 5))
}

func TestGCodeWriterMoves(t *testing.T) {
	g := GCodeWriter{Feed: 1000, PlungeFeed: 200}
	assert.Equal(t, "G0 X0.000 Y0.000 Z5.000\n", g.TravelTo(r3.Vec{Z: 5}))
	assert.Equal(t, "G1 X0.000 Y0.000 Z-2.000 F200\n", g.CutTo(r3.Vec{Z: -2}))
	assert.Equal(t, "G1 X10.000 Y0.000 Z-2.000 F1000\n", g.CutTo(r3.Vec{X: 10, Z: -2}))
}

func TestCutPolyline(t *testing.T) {
	g := GCodeWriter{Feed: 1000, PlungeFeed: 200}
	square := []r3.Vec{{}, {X: 10}, {X: 10, Y: 10}, {Y: 10}}
	out := g.CutPolyline(square, []float64{3, 6}, 5)
	lines := strings.Split(strings.TrimSpace(out), "\n")

	// Travel, then per depth: plunge, three edges, close; then retract.
	require.Len(t, lines, 1+2*5+1)
	assert.True(t, strings.HasPrefix(lines[0], "G0"))
	assert.Contains(t, lines[1], "Z-3.000 F200")
	assert.Contains(t, lines[6], "Z-6.000 F200")
	assert.Equal(t, "G0 X0.000 Y0.000 Z5.000", lines[len(lines)-1])

	assert.Empty(t, g.CutPolyline(nil, []float64{1}, 5))
}

func TestWritePlateGCode(t *testing.T) {
	p := plate.RectPlate("panel", geom.WorldXY, 100, 50, 10)
	p.Holes = []geom.Polyline{{{X: 40, Y: 20}, {X: 60, Y: 20}, {X: 60, Y: 30}, {X: 40, Y: 30}}}
	m, err := plate.New([]plate.Plate{p}, nil)
	require.NoError(t, err)
	fab, err := m.FabricationLines(plate.FabricationOptions{ContourRadius: 3, HolesRadius: 3})
	require.NoError(t, err)
	milled, _ := fab.Plate(0)

	var buf bytes.Buffer
	opts := DefaultGCodeOptions()
	require.NoError(t, WritePlateGCode(&buf, milled, opts))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "; panel, thickness 10\n"))
	assert.Contains(t, out, "G21")
	assert.True(t, strings.HasSuffix(out, "M5\nM30\n"))
	// Two passes down to thickness plus overcut.
	assert.Contains(t, out, "Z-6.000")
	assert.Contains(t, out, "Z-10.500")
	// The hole is cut before the outer contour.
	assert.Less(t, strings.Index(out, "X43.000 Y23.000"), strings.Index(out, "X-3.000 Y-3.000"))
}

func TestWritePlateGCodeRequiresPaths(t *testing.T) {
	p := plate.RectPlate("raw", geom.WorldXY, 10, 10, 1)
	err := WritePlateGCode(&bytes.Buffer{}, p, DefaultGCodeOptions())
	assert.Error(t, err)
}

func TestWritePlateGCodeFromBottom(t *testing.T) {
	p := plate.RectPlate("panel", geom.WorldXY, 100, 50, 10)
	m, err := plate.New([]plate.Plate{p}, nil)
	require.NoError(t, err)
	fab, err := m.FabricationLines(plate.FabricationOptions{ContourRadius: 2})
	require.NoError(t, err)
	milled, _ := fab.Plate(0)

	opts := DefaultGCodeOptions()
	opts.FromBottom = true
	var buf bytes.Buffer
	require.NoError(t, WritePlateGCode(&buf, milled, opts))
	// The flipped bottom plane mirrors Y.
	assert.Contains(t, buf.String(), "X-2.000 Y2.000")
}

// ---------------------------------------------------------------------------
// DXF
// ---------------------------------------------------------------------------

func TestContourFromDXFPoints(t *testing.T) {
	pts := []core.Point{{0, 0, 0}, {10, 0, 0}, {10, 0, 0}, {10, 10, 0}, {0, 0, 0}}
	c := contour(pts)
	require.Len(t, c, 3)
	assert.Equal(t, r3.Vec{X: 10, Y: 10}, c[2])
}
