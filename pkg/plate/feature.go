package plate

import (
	"fmt"
	"math"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// FeatureKind says how a joint feature combines with its plate.
type FeatureKind int

const (
	Positive FeatureKind = iota // material added to the plate
	Negative                    // material removed from the plate
	Key                         // cavity for a separate key part
)

var featureKindNames = map[FeatureKind]string{
	Positive: "positive",
	Negative: "negative",
	Key:      "key",
}

func (k FeatureKind) String() string {
	if s, ok := featureKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("FeatureKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k FeatureKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *FeatureKind) UnmarshalText(b []byte) error {
	for kind, name := range featureKindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("%w: feature kind %q", ErrInvalidParameter, b)
}

// JointKind names the joint family that produced a feature.
type JointKind int

const (
	JointFingers JointKind = iota
	JointHalflap
	JointTenon
	JointSunrise
)

var jointKindNames = map[JointKind]string{
	JointFingers: "fingers",
	JointHalflap: "halflap",
	JointTenon:   "tenon",
	JointSunrise: "sunrise",
}

func (k JointKind) String() string {
	if s, ok := jointKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("JointKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k JointKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *JointKind) UnmarshalText(b []byte) error {
	for kind, name := range jointKindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("%w: joint kind %q", ErrInvalidParameter, b)
}

// Feature is an oriented box centred on Frame.Origin with extents Size along
// the frame's X, Y and normal axes. Chamfer cuts the four corners of the box
// that run along the normal.
type Feature struct {
	Kind    FeatureKind `json:"kind"`
	Joint   JointKind   `json:"joint"`
	Pair    [2]int      `json:"pair"`
	Frame   geom.Plane  `json:"frame"`
	Size    r3.Vec      `json:"size"`
	Chamfer float64     `json:"chamfer,omitempty"`
}

// Grow enlarges the box by d on every side.
func (f Feature) Grow(d float64) Feature {
	f.Size = r3.Add(f.Size, r3.Vec{X: 2 * d, Y: 2 * d, Z: 2 * d})
	return f
}

// Outline is the cross-section of the feature in its own frame.
func (f Feature) Outline() geom.Polygon {
	hx, hy := f.Size.X/2, f.Size.Y/2
	c := f.Chamfer
	if c <= 0 || c >= math.Min(hx, hy) {
		return geom.Polygon{{X: -hx, Y: -hy}, {X: hx, Y: -hy}, {X: hx, Y: hy}, {X: -hx, Y: hy}}
	}
	return geom.Polygon{
		{X: -hx + c, Y: -hy}, {X: hx - c, Y: -hy},
		{X: hx, Y: -hy + c}, {X: hx, Y: hy - c},
		{X: hx - c, Y: hy}, {X: -hx + c, Y: hy},
		{X: -hx, Y: hy - c}, {X: -hx, Y: -hy + c},
	}
}

// Corners returns the eight corners of the bounding box in world space.
func (f Feature) Corners() [8]r3.Vec {
	var out [8]r3.Vec
	i := 0
	for _, sx := range []float64{-1, 1} {
		for _, sy := range []float64{-1, 1} {
			for _, sz := range []float64{-1, 1} {
				out[i] = f.Frame.FromLocal(sx*f.Size.X/2, sy*f.Size.Y/2, sz*f.Size.Z/2)
				i++
			}
		}
	}
	return out
}

// Footprint projects the feature onto pl and returns the convex outline in
// pl's local coordinates.
func (f Feature) Footprint(pl geom.Plane) geom.Polygon {
	corners := f.Corners()
	pts := make([]r2.Vec, len(corners))
	for i, c := range corners {
		l := pl.ToLocal(c)
		pts[i] = r2.Vec{X: l.X, Y: l.Y}
	}
	return geom.ConvexHull(pts)
}

// Solid builds the feature as a kernel solid.
func (f Feature) Solid(k kernel.Kernel) (kernel.Solid, error) {
	s, err := k.Prism(toOutline(f.Outline()), f.Size.Z)
	if err != nil {
		return nil, fmt.Errorf("%s %s feature %v: %w", f.Joint, f.Kind, f.Pair, err)
	}
	return place(k, k.Translate(s, 0, 0, -f.Size.Z/2), f.Frame), nil
}

// Transform applies a to the frame and scales the extents by the stretch a
// applies along each frame axis.
func (f Feature) Transform(a geom.Affine) Feature {
	sx := r3.Norm(a.ApplyVec(f.Frame.XAxis))
	sy := r3.Norm(a.ApplyVec(f.Frame.YAxis))
	sz := r3.Norm(a.ApplyVec(f.Frame.Normal))
	f.Size = r3.Vec{X: f.Size.X * sx, Y: f.Size.Y * sy, Z: f.Size.Z * sz}
	f.Chamfer *= (sx + sy) / 2
	f.Frame = f.Frame.Transform(a)
	return f
}

// Joints holds the features attached to one plate.
type Joints struct {
	Positives []Feature `json:"positives,omitempty"`
	Negatives []Feature `json:"negatives,omitempty"`
	Keys      []Feature `json:"keys,omitempty"`
}

// Add files f under its kind.
func (j *Joints) Add(f Feature) {
	switch f.Kind {
	case Positive:
		j.Positives = append(j.Positives, f)
	case Negative:
		j.Negatives = append(j.Negatives, f)
	case Key:
		j.Keys = append(j.Keys, f)
	}
}

// Cuts returns negatives followed by keys.
func (j Joints) Cuts() []Feature {
	out := make([]Feature, 0, len(j.Negatives)+len(j.Keys))
	out = append(out, j.Negatives...)
	return append(out, j.Keys...)
}

// Len is the total number of features.
func (j Joints) Len() int { return len(j.Positives) + len(j.Negatives) + len(j.Keys) }

// Clone returns a deep copy.
func (j Joints) Clone() Joints {
	return Joints{
		Positives: append([]Feature(nil), j.Positives...),
		Negatives: append([]Feature(nil), j.Negatives...),
		Keys:      append([]Feature(nil), j.Keys...),
	}
}

// Transform applies a to every feature.
func (j Joints) Transform(a geom.Affine) Joints {
	out := j.Clone()
	for _, fs := range [][]Feature{out.Positives, out.Negatives, out.Keys} {
		for i := range fs {
			fs[i] = fs[i].Transform(a)
		}
	}
	return out
}
