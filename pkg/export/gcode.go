package export

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/plate"
	"gonum.org/v1/gonum/spatial/r3"
)

// GCodeOptions configures milling output. Depths are measured downward from
// the milled face.
type GCodeOptions struct {
	SafeZ      float64 `yaml:"safe_z"`
	Feed       float64 `yaml:"feed"`
	PlungeFeed float64 `yaml:"plunge_feed"`
	// StepDown is the depth of one pass; zero cuts in a single pass.
	StepDown float64 `yaml:"step_down"`
	// Overcut is milled past the plate thickness.
	Overcut float64 `yaml:"overcut"`
	// FromBottom mills the bottom paths on the flipped bottom face.
	FromBottom bool `yaml:"from_bottom"`
}

// DefaultGCodeOptions returns the settings used when none are configured.
func DefaultGCodeOptions() GCodeOptions {
	return GCodeOptions{SafeZ: 10, Feed: 1200, PlungeFeed: 300, StepDown: 6, Overcut: 0.5}
}

// GCodeWriter emits G-code moves and tracks the tool position.
type GCodeWriter struct {
	Feed       float64
	PlungeFeed float64
	cur        r3.Vec
}

// TravelTo is a rapid move.
func (g *GCodeWriter) TravelTo(to r3.Vec) string {
	g.cur = to
	return fmt.Sprintf("G0 X%.3f Y%.3f Z%.3f\n", to.X, to.Y, to.Z)
}

// CutTo is a feed move. Moves that only descend use the plunge feed.
func (g *GCodeWriter) CutTo(to r3.Vec) string {
	feed := g.Feed
	if math.Abs(to.X-g.cur.X) < geom.Epsilon && math.Abs(to.Y-g.cur.Y) < geom.Epsilon && to.Z < g.cur.Z {
		feed = g.PlungeFeed
	}
	g.cur = to
	return fmt.Sprintf("G1 X%.3f Y%.3f Z%.3f F%.0f\n", to.X, to.Y, to.Z, feed)
}

// CutPolyline mills a closed path at each depth in turn, retracting to safeZ
// before and after.
func (g *GCodeWriter) CutPolyline(pts []r3.Vec, depths []float64, safeZ float64) string {
	if len(pts) == 0 {
		return ""
	}
	var out strings.Builder
	start := pts[0]
	out.WriteString(g.TravelTo(r3.Vec{X: start.X, Y: start.Y, Z: safeZ}))
	for _, d := range depths {
		out.WriteString(g.CutTo(r3.Vec{X: start.X, Y: start.Y, Z: -d}))
		for _, p := range pts[1:] {
			out.WriteString(g.CutTo(r3.Vec{X: p.X, Y: p.Y, Z: -d}))
		}
		out.WriteString(g.CutTo(r3.Vec{X: start.X, Y: start.Y, Z: -d}))
	}
	out.WriteString(g.TravelTo(r3.Vec{X: g.cur.X, Y: g.cur.Y, Z: safeZ}))
	return out.String()
}

// passDepths splits total into passes of at most step.
func passDepths(total, step float64) []float64 {
	if step <= 0 || step >= total {
		return []float64{total}
	}
	n := int(math.Ceil(total/step - geom.Epsilon))
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Min(float64(i+1)*step, total)
	}
	return out
}

// WritePlateGCode writes the milling paths of p in the coordinates of its
// milling plane. Holes and pockets are cut before the outer contours so the
// part stays held until last. It fails when the plate has no milling paths.
func WritePlateGCode(w io.Writer, p plate.Plate, opts GCodeOptions) error {
	outer, inner := p.TopMilling, p.TopHolesMilling
	if opts.FromBottom {
		outer, inner = p.BottomMilling, p.BottomHolesMilling
	}
	if len(outer) == 0 && len(inner) == 0 {
		return fmt.Errorf("export: %s has no milling paths", p.Label())
	}
	pl := p.MillingPlane(opts.FromBottom)
	depths := passDepths(p.Thickness+opts.Overcut, opts.StepDown)

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "; %s, thickness %g\n", p.Label(), p.Thickness)
	bw.WriteString("G21 ;metric values\nG90 ;absolute positioning\n")

	g := GCodeWriter{Feed: opts.Feed, PlungeFeed: opts.PlungeFeed}
	for _, path := range append(append([]geom.Polyline(nil), inner...), outer...) {
		bw.WriteString(g.CutPolyline(localPoints(path, pl), depths, opts.SafeZ))
	}
	bw.WriteString("M5\nM30\n")
	return bw.Flush()
}

func localPoints(path geom.Polyline, pl geom.Plane) []r3.Vec {
	out := make([]r3.Vec, len(path))
	for i, p := range path {
		out[i] = pl.ToLocal(p)
	}
	return out
}
