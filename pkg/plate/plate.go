package plate

import (
	"fmt"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// holeMargin extends through-cuts past both faces so the boolean never leaves
// a zero-thickness skin.
const holeMargin = 0.5

// Plate is a planar timber panel. Its material occupies the slab between
// TopPlane and TopPlane offset by -Thickness along the top normal.
type Plate struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	TopPlane  geom.Plane      `json:"top_plane"`
	Contour   geom.Polyline   `json:"contour"`
	Thickness float64         `json:"thickness"`
	Holes     []geom.Polyline `json:"holes,omitempty"`
	Joints    Joints          `json:"joints"`

	TopMilling         []geom.Polyline `json:"top_milling,omitempty"`
	BottomMilling      []geom.Polyline `json:"bottom_milling,omitempty"`
	TopHolesMilling    []geom.Polyline `json:"top_holes_milling,omitempty"`
	BottomHolesMilling []geom.Polyline `json:"bottom_holes_milling,omitempty"`

	Merge *MergeSettings `json:"merge,omitempty"`
}

// MergeSettings records that boolean operations ran on a plate and with
// which tolerances its joint features are grown before merging.
type MergeSettings struct {
	BoolTolerance  float64 `json:"bool_tolerance"`
	MergeTolerance float64 `json:"merge_tolerance"`
}

// Face is one of the two large faces of a plate, with an outward normal.
type Face struct {
	Plane   geom.Plane      `json:"plane"`
	Outline geom.Polyline   `json:"outline"`
	Holes   []geom.Polyline `json:"holes,omitempty"`
}

// NewPlate builds a plate from a top plane and a contour. The contour is
// projected onto the plane.
func NewPlate(name string, top geom.Plane, contour geom.Polyline, thickness float64) Plate {
	projected := make(geom.Polyline, len(contour))
	for i, p := range contour {
		projected[i] = top.Project(p)
	}
	return Plate{Name: name, TopPlane: top, Contour: projected, Thickness: thickness}
}

// RectPlate builds a width x height rectangular plate with one corner at the
// plane origin, spanning the plane's +X and +Y axes.
func RectPlate(name string, top geom.Plane, width, height, thickness float64) Plate {
	contour := geom.Polyline{
		top.FromLocal(0, 0, 0),
		top.FromLocal(width, 0, 0),
		top.FromLocal(width, height, 0),
		top.FromLocal(0, height, 0),
	}
	return Plate{Name: name, TopPlane: top, Contour: contour, Thickness: thickness}
}

// Label returns the plate name, or its index when unnamed.
func (p Plate) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("plate %d", p.ID)
}

// Normal is the unit normal of the top face.
func (p Plate) Normal() r3.Vec { return p.TopPlane.Normal }

// MidPlane is the plane halfway through the thickness.
func (p Plate) MidPlane() geom.Plane { return p.TopPlane.Offset(-p.Thickness / 2) }

// BottomPlane is the top plane moved through the thickness. It keeps the top
// normal so local coordinates line up with the top face.
func (p Plate) BottomPlane() geom.Plane { return p.TopPlane.Offset(-p.Thickness) }

// MidContour is the contour moved to the mid plane.
func (p Plate) MidContour() geom.Polyline { return p.offsetContour(p.Contour, -p.Thickness/2) }

// BottomContour is the contour moved to the bottom plane. Vertex i of the
// result sits directly below vertex i of Contour.
func (p Plate) BottomContour() geom.Polyline { return p.offsetContour(p.Contour, -p.Thickness) }

// BottomHoles returns the holes moved to the bottom plane.
func (p Plate) BottomHoles() []geom.Polyline {
	out := make([]geom.Polyline, len(p.Holes))
	for i, h := range p.Holes {
		out[i] = p.offsetContour(h, -p.Thickness)
	}
	return out
}

func (p Plate) offsetContour(pl geom.Polyline, d float64) geom.Polyline {
	return pl.Translate(r3.Scale(d, p.TopPlane.Normal))
}

// TopFace returns the top face with its outward normal.
func (p Plate) TopFace() Face {
	return Face{Plane: p.TopPlane, Outline: p.Contour.Clone(), Holes: cloneAll(p.Holes)}
}

// BottomFace returns the bottom face with its outward (downward) normal.
func (p Plate) BottomFace() Face {
	return Face{Plane: p.BottomPlane().Flip(), Outline: p.BottomContour(), Holes: p.BottomHoles()}
}

// Centroid is the centre of the mid contour.
func (p Plate) Centroid() r3.Vec { return p.MidContour().Centroid() }

// Outline returns the contour in top-plane coordinates, counter-clockwise
// about the top normal.
func (p Plate) Outline() geom.Polygon { return p.Contour.ToLocal(p.TopPlane).CCW() }

// Clone returns a deep copy.
func (p Plate) Clone() Plate {
	out := p
	out.Contour = p.Contour.Clone()
	out.Holes = cloneAll(p.Holes)
	out.Joints = p.Joints.Clone()
	out.TopMilling = cloneAll(p.TopMilling)
	out.BottomMilling = cloneAll(p.BottomMilling)
	out.TopHolesMilling = cloneAll(p.TopHolesMilling)
	out.BottomHolesMilling = cloneAll(p.BottomHolesMilling)
	if p.Merge != nil {
		m := *p.Merge
		out.Merge = &m
	}
	return out
}

// Translate moves the plate and everything attached to it by v.
func (p Plate) Translate(v r3.Vec) Plate {
	return p.Transform(geom.Translation(v))
}

// Transform applies a to the plate. Thickness and feature sizes follow the
// scale the transform applies along each axis.
func (p Plate) Transform(a geom.Affine) Plate {
	out := p.Clone()
	out.TopPlane = p.TopPlane.Transform(a)
	out.Thickness = p.Thickness * r3.Norm(a.ApplyVec(p.TopPlane.Normal))
	out.Contour = p.Contour.Transform(a)
	out.Holes = transformAll(p.Holes, a)
	out.Joints = p.Joints.Transform(a)
	out.TopMilling = transformAll(p.TopMilling, a)
	out.BottomMilling = transformAll(p.BottomMilling, a)
	out.TopHolesMilling = transformAll(p.TopHolesMilling, a)
	out.BottomHolesMilling = transformAll(p.BottomHolesMilling, a)
	return out
}

// Brep builds the plate solid: the contour extruded through the thickness
// minus its holes. Once boolean operations have run, positives are unioned
// and negatives and keys are subtracted.
func (p Plate) Brep(k kernel.Kernel) (kernel.Solid, error) {
	bottom := p.BottomPlane()
	s, err := k.Prism(toOutline(p.Contour.ToLocal(bottom)), p.Thickness)
	if err != nil {
		return nil, fmt.Errorf("plate %s: %w", p.Label(), err)
	}
	s = place(k, s, bottom)

	for i, h := range p.Holes {
		hs, err := k.Prism(toOutline(h.ToLocal(bottom)), p.Thickness+2*holeMargin)
		if err != nil {
			return nil, fmt.Errorf("plate %s: hole %d: %w", p.Label(), i, err)
		}
		s = k.Difference(s, place(k, k.Translate(hs, 0, 0, -holeMargin), bottom))
	}

	if p.Merge == nil {
		return s, nil
	}
	for _, f := range p.Joints.Positives {
		fs, err := f.Grow(p.Merge.MergeTolerance).Solid(k)
		if err != nil {
			return nil, fmt.Errorf("plate %s: %w", p.Label(), err)
		}
		s = k.Union(s, fs)
	}
	for _, f := range p.Joints.Cuts() {
		fs, err := f.Grow(p.Merge.BoolTolerance).Solid(k)
		if err != nil {
			return nil, fmt.Errorf("plate %s: %w", p.Label(), err)
		}
		s = k.Difference(s, fs)
	}
	return s, nil
}

// place maps a solid modelled in world coordinates into plane pl.
func place(k kernel.Kernel, s kernel.Solid, pl geom.Plane) kernel.Solid {
	return k.Orient(s, arr(pl.Origin), arr(pl.XAxis), arr(pl.YAxis), arr(pl.Normal))
}

func arr(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func toOutline(pg geom.Polygon) [][2]float64 {
	out := make([][2]float64, len(pg))
	for i, v := range pg {
		out[i] = [2]float64{v.X, v.Y}
	}
	return out
}

func cloneAll(pls []geom.Polyline) []geom.Polyline {
	if pls == nil {
		return nil
	}
	out := make([]geom.Polyline, len(pls))
	for i, pl := range pls {
		out[i] = pl.Clone()
	}
	return out
}

func transformAll(pls []geom.Polyline, a geom.Affine) []geom.Polyline {
	if pls == nil {
		return nil
	}
	out := make([]geom.Polyline, len(pls))
	for i, pl := range pls {
		out[i] = pl.Transform(a)
	}
	return out
}
