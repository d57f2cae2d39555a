package plate

import (
	"fmt"
	"math"

	"github.com/chazu/lamina/pkg/geom"
	"gonum.org/v1/gonum/spatial/r2"
)

// drillSegments is the resolution of drill circles.
const drillSegments = 24

// FabricationOptions configures FabricationLines. Limit is the largest
// corner angle (degrees, measured on the tool side) that still receives a
// relief; zero disables reliefs.
type FabricationOptions struct {
	Plates        []int
	ContourRadius float64
	HolesRadius   float64
	Notch         bool
	Cylinder      bool
	TBone         bool
	Limit         float64
}

// DefaultFabricationOptions returns the defaults used when a parameter is
// absent.
func DefaultFabricationOptions() FabricationOptions {
	return FabricationOptions{ContourRadius: 3, HolesRadius: 3, Limit: 91}
}

// FabricationLines computes tool-centre paths for the listed plates (all
// when empty). The outline is offset outward by ContourRadius; cuts that sit
// inside the outline become holes offset inward by HolesRadius, cuts that
// cross it become pockets. Positives that stick out of the outline get their
// own outer contour.
func (m *Model) FabricationLines(opts FabricationOptions) (PlateModel, error) {
	if opts.ContourRadius < 0 || opts.HolesRadius < 0 {
		return nil, fmt.Errorf("fabrication: %w: negative tool radius", ErrInvalidParameter)
	}
	if opts.Limit < 0 || opts.Limit >= 360 {
		return nil, fmt.Errorf("fabrication: %w: limit %g", ErrInvalidParameter, opts.Limit)
	}
	sel, err := m.selectPlates(opts.Plates)
	if err != nil {
		return nil, fmt.Errorf("fabrication: %w", err)
	}
	out := m.clone()
	for _, id := range sel {
		p := &out.plates[id]
		outer, holes := millingPaths(*p, opts)
		top, bottom := p.TopPlane, p.BottomPlane()
		p.TopMilling, p.BottomMilling = liftAll(outer, top), liftAll(outer, bottom)
		p.TopHolesMilling, p.BottomHolesMilling = liftAll(holes, top), liftAll(holes, bottom)
	}
	return out, nil
}

// millingPaths returns outer contours and inner (hole, pocket, drill) paths
// in top-plane coordinates.
func millingPaths(p Plate, opts FabricationOptions) (outer, inner []geom.Polygon) {
	outline := p.Outline()
	minArea := opts.HolesRadius * opts.HolesRadius

	path, drills := mill(outline, opts.ContourRadius, func(a float64) bool { return 360-a <= opts.Limit }, opts)
	outer = append(outer, path)

	for _, f := range p.Joints.Positives {
		fp := f.Footprint(p.TopPlane)
		if outline.ContainsAll(fp) {
			continue
		}
		path, _ := mill(fp, opts.ContourRadius, func(float64) bool { return false }, opts)
		outer = append(outer, path)
	}

	var regions []geom.Polygon
	for _, h := range p.Holes {
		regions = append(regions, h.ToLocal(p.TopPlane).CCW())
	}
	for _, f := range p.Joints.Cuts() {
		fp := f.Footprint(p.TopPlane)
		if outline.ContainsAll(fp) {
			regions = append(regions, fp)
			continue
		}
		pocket := outline.ClipConvex(fp)
		if len(pocket) >= 3 && math.Abs(pocket.Area()) > minArea {
			regions = append(regions, pocket.CCW())
		}
	}
	for _, r := range regions {
		path, d := mill(r, -opts.HolesRadius, func(a float64) bool { return a <= opts.Limit }, opts)
		inner = append(inner, path)
		drills = append(drills, d...)
	}
	for _, c := range drills {
		inner = append(inner, geom.Circle(c, opts.HolesRadius, drillSegments))
	}
	return outer, inner
}

// mill offsets base by offset and inserts corner reliefs where relieve
// accepts the interior angle. Drill centres are returned when Cylinder is
// set.
func mill(base geom.Polygon, offset float64, relieve func(angle float64) bool, opts FabricationOptions) (geom.Polygon, []r2.Vec) {
	path := base.Offset(offset)
	r := math.Abs(offset)
	if opts.Limit == 0 || r == 0 || !(opts.Notch || opts.TBone || opts.Cylinder) {
		return path, nil
	}
	n := len(base)
	angles := base.InteriorAngles()
	out := make(geom.Polygon, 0, len(path))
	var drills []r2.Vec
	for i := range base {
		out = append(out, path[i])
		if !relieve(angles[i]) {
			continue
		}
		dir := r2.Sub(path[i], base[i])
		if r2.Norm(dir) < geom.Epsilon {
			continue
		}
		dir = r2.Unit(dir)
		relief := r2.Add(base[i], r2.Scale(r, dir))
		if opts.TBone {
			next := r2.Sub(base[(i+1)%n], base[i])
			prev := r2.Sub(base[(i+n-1)%n], base[i])
			e := next
			if r2.Norm(prev) > r2.Norm(next) {
				e = prev
			}
			e = r2.Unit(e)
			side := r2.Sub(dir, r2.Scale(r2.Dot(dir, e), e))
			if r2.Norm(side) > geom.Epsilon {
				relief = r2.Add(base[i], r2.Scale(r, r2.Unit(side)))
			}
		}
		if opts.Notch || opts.TBone {
			out = append(out, relief, path[i])
		}
		if opts.Cylinder {
			drills = append(drills, relief)
		}
	}
	return out, drills
}

func liftAll(pgs []geom.Polygon, pl geom.Plane) []geom.Polyline {
	out := make([]geom.Polyline, len(pgs))
	for i, pg := range pgs {
		out[i] = pg.ToWorld(pl, 0)
	}
	return out
}

// MillingPlane returns the plane the plate is machined from: the top plane
// for top milling, the flipped bottom plane otherwise.
func (p Plate) MillingPlane(fromBottom bool) geom.Plane {
	if fromBottom {
		return p.BottomPlane().Flip()
	}
	return p.TopPlane
}
