package plate

import (
	"fmt"
	"math"

	"github.com/chazu/lamina/pkg/geom"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// tenonChamfer is the chamfer applied to tenons as a fraction of their
// smaller cross-section side.
const tenonChamfer = 0.15

// FingerOptions configures AddFingers. Parameters ending in 1 apply to
// side-to-side contacts, those ending in 2 to side-to-face contacts.
// A Length of zero uses the depth of the receiving plate. Width is the
// fraction of each cell a finger fills.
type FingerOptions struct {
	Pairs   [][2]int
	Count1  int
	Length1 float64
	Width1  float64
	Count2  int
	Length2 float64
	Width2  float64
	// Spacing is kept clear at both ends of the edge.
	Spacing float64
	// Shift moves the pattern along the edge, in cells.
	Shift float64
	// Mirror swaps which plate of a side-to-side pair owns the first finger.
	Mirror bool
}

// DefaultFingerOptions returns the defaults used when a parameter is absent.
func DefaultFingerOptions() FingerOptions {
	return FingerOptions{Count1: 2, Width1: 1, Count2: 2, Width2: 1}
}

// HalflapOptions configures AddHalflap. Proportion is the share of the
// overlap cut from the moving plate; the fixed plate takes the rest.
type HalflapOptions struct {
	Pairs      [][2]int
	Proportion float64
	Tolerance  float64
	// MinAngle (degrees) skips crossings shallower than this.
	MinAngle float64
	// StraightHeight is the minimum straight run of a slot before its
	// entry chamfer; FilletHeight is the chamfer depth, built from
	// Segments stepped boxes.
	StraightHeight float64
	FilletHeight   float64
	Segments       int
}

// DefaultHalflapOptions returns the defaults used when a parameter is absent.
func DefaultHalflapOptions() HalflapOptions {
	return HalflapOptions{Proportion: 0.5, Segments: 1}
}

// TenonOptions configures AddChamferedTenons. A Length of zero runs the
// tenon through the receiving plate; a Width of zero fills half of each
// pitch.
type TenonOptions struct {
	Pairs     [][2]int
	Count     int
	Length    float64
	Width     float64
	Spacing   float64
	Shift     float64
	SideTol   float64
	TopTol    float64
	BottomTol float64
}

// DefaultTenonOptions returns the defaults used when a parameter is absent.
func DefaultTenonOptions() TenonOptions {
	return TenonOptions{Count: 2}
}

// SunriseOptions configures AddSunrise. A Width of zero uses the moving
// plate's thickness; a Spacing of zero uses Width.
type SunriseOptions struct {
	Pairs           [][2]int
	Count           int
	Width           float64
	Spacing         float64
	SpreadAngle     float64
	ForcedDirection *geom.Direction
}

// DefaultSunriseOptions returns the defaults used when a parameter is absent.
func DefaultSunriseOptions() SunriseOptions {
	return SunriseOptions{Count: 3, SpreadAngle: 20}
}

// at returns the contact frame moved to local coordinates (x, y, z).
func at(c Contact, x, y, z float64) geom.Plane {
	pl := c.Plane
	pl.Origin = c.Plane.FromLocal(x, y, z)
	return pl
}

// AddFingers cuts alternating fingers along side-to-side and side-to-face
// contacts. Each finger is a positive on one plate and a negative on the
// other.
func (m *Model) AddFingers(opts FingerOptions) (PlateModel, error) {
	if opts.Count1 < 1 || opts.Count2 < 1 {
		return nil, fmt.Errorf("fingers: %w: count must be at least 1", ErrInvalidParameter)
	}
	if opts.Width1 <= 0 || opts.Width1 > 1 || opts.Width2 <= 0 || opts.Width2 > 1 {
		return nil, fmt.Errorf("fingers: %w: width must be in (0,1]", ErrInvalidParameter)
	}
	cs, err := m.selectContacts(opts.Pairs)
	if err != nil {
		return nil, fmt.Errorf("fingers: %w", err)
	}
	out := m.clone()
	for _, c := range cs {
		var count int
		var length, width float64
		switch c.Type {
		case SideToSide:
			count, length, width = opts.Count1, opts.Length1, opts.Width1
		case SideToFace:
			count, length, width = opts.Count2, opts.Length2, opts.Width2
		default:
			continue
		}
		male, female := &out.plates[c.Mover], &out.plates[c.Fixed()]
		usable := c.Edge.Length() - 2*opts.Spacing
		if usable <= 0 {
			return nil, fmt.Errorf("fingers %s: %w: spacing %g leaves no edge", c, ErrInvalidParameter, opts.Spacing)
		}
		depth := length
		if depth <= 0 {
			depth = c.Depth
		}
		cells := 2*count - 1
		cell := usable / float64(cells)
		for k := 0; k < cells; k++ {
			x := -usable/2 + cell*(float64(k)+0.5) + opts.Shift*cell
			owned := k%2 == 0
			if c.Type == SideToSide && opts.Mirror {
				owned = !owned
			}
			size := r3.Vec{X: cell * width, Y: male.Thickness, Z: depth}
			switch {
			case owned:
				f := Feature{Joint: JointFingers, Pair: c.Pair, Frame: at(c, x, 0, depth/2), Size: size}
				addPair(male, female, f)
			case c.Type == SideToSide:
				f := Feature{Joint: JointFingers, Pair: c.Pair, Frame: at(c, x, 0, -depth/2), Size: size}
				addPair(female, male, f)
			}
		}
		m.log.Debug("fingers added", zap.Stringer("contact", c), zap.Int("cells", cells))
	}
	return out, nil
}

// addPair records f as a positive on from and a negative on to.
func addPair(from, to *Plate, f Feature) {
	f.Kind = Positive
	from.Joints.Add(f)
	f.Kind = Negative
	to.Joints.Add(f)
}

// AddHalflap cuts matching slots into crossing plates. The moving plate is
// slotted from its leading end, the fixed plate from the opposite end.
func (m *Model) AddHalflap(opts HalflapOptions) (PlateModel, error) {
	if opts.Proportion <= 0 || opts.Proportion >= 1 {
		return nil, fmt.Errorf("halflap: %w: proportion %g not in (0,1)", ErrInvalidParameter, opts.Proportion)
	}
	if opts.FilletHeight < 0 || opts.StraightHeight < 0 || opts.Segments < 0 {
		return nil, fmt.Errorf("halflap: %w: negative entry shape", ErrInvalidParameter)
	}
	cs, err := m.selectContacts(opts.Pairs)
	if err != nil {
		return nil, fmt.Errorf("halflap: %w", err)
	}
	out := m.clone()
	for _, c := range cs {
		if c.Type != Intersecting {
			continue
		}
		a, b := &out.plates[c.Mover], &out.plates[c.Fixed()]
		sin := r3.Norm(r3.Cross(a.Normal(), b.Normal()))
		if angle := math.Asin(math.Min(sin, 1)) * 180 / math.Pi; angle < opts.MinAngle {
			m.log.Debug("halflap skipped: crossing too shallow",
				zap.Stringer("contact", c), zap.Float64("angle", angle))
			continue
		}
		length := c.Depth
		v := c.Vector
		back := r3.Scale(-1, v)

		// Moving plate: slot opens at the far end of the overlap.
		for _, f := range slot(c, c.Edge.B, back, a.Normal(), opts.Proportion*length,
			b.Thickness/sin+opts.Tolerance, a.Thickness, opts) {
			a.Joints.Add(f)
		}
		// Fixed plate: slot opens at the near end.
		for _, f := range slot(c, c.Edge.A, v, b.Normal(), (1-opts.Proportion)*length,
			a.Thickness/sin+opts.Tolerance, b.Thickness, opts) {
			b.Joints.Add(f)
		}
	}
	return out, nil
}

// slot builds the negatives for one half of a halflap: a straight slot
// running from mouth along dir, plus stepped boxes that chamfer its entry.
func slot(c Contact, mouth, dir, normal r3.Vec, length, width, thickness float64, opts HalflapOptions) []Feature {
	mk := func(depth, w float64) Feature {
		center := r3.Add(mouth, r3.Scale(depth/2-holeMargin/2, dir))
		return Feature{
			Kind:  Negative,
			Joint: JointHalflap,
			Pair:  c.Pair,
			Frame: frame(center, dir, normal),
			Size:  r3.Vec{X: depth + holeMargin, Y: w, Z: thickness + 2*holeMargin},
		}
	}
	out := []Feature{mk(length, width)}

	fillet := math.Min(opts.FilletHeight, length-opts.StraightHeight)
	if fillet <= 0 || opts.Segments == 0 {
		return out
	}
	n := float64(opts.Segments)
	for i := 1; i <= opts.Segments; i++ {
		depth := fillet * float64(i) / n
		extra := 2 * fillet * (n - float64(i) + 1) / n
		out = append(out, mk(depth, width+extra))
	}
	return out
}

// AddChamferedTenons places chamfered tenons on the side plate of every
// side-to-face contact and matching mortises, enlarged by the tolerances,
// in the face plate.
func (m *Model) AddChamferedTenons(opts TenonOptions) (PlateModel, error) {
	if opts.Count < 1 {
		return nil, fmt.Errorf("tenons: %w: count must be at least 1", ErrInvalidParameter)
	}
	if opts.SideTol < 0 || opts.TopTol < 0 || opts.BottomTol < 0 {
		return nil, fmt.Errorf("tenons: %w: negative tolerance", ErrInvalidParameter)
	}
	cs, err := m.selectContacts(opts.Pairs)
	if err != nil {
		return nil, fmt.Errorf("tenons: %w", err)
	}
	out := m.clone()
	for _, c := range cs {
		if c.Type != SideToFace {
			continue
		}
		male, female := &out.plates[c.Mover], &out.plates[c.Fixed()]
		usable := c.Edge.Length() - 2*opts.Spacing
		if usable <= 0 {
			return nil, fmt.Errorf("tenons %s: %w: spacing %g leaves no edge", c, ErrInvalidParameter, opts.Spacing)
		}
		pitch := usable / float64(opts.Count)
		width := opts.Width
		if width <= 0 {
			width = pitch / 2
		}
		if width > pitch {
			return nil, fmt.Errorf("tenons %s: %w: width %g exceeds pitch %g", c, ErrInvalidParameter, width, pitch)
		}
		depth := opts.Length
		if depth <= 0 {
			depth = c.Depth
		}
		t := male.Thickness
		for k := 0; k < opts.Count; k++ {
			x := -usable/2 + pitch*(float64(k)+0.5) + opts.Shift
			male.Joints.Add(Feature{
				Kind:    Positive,
				Joint:   JointTenon,
				Pair:    c.Pair,
				Frame:   at(c, x, 0, depth/2),
				Size:    r3.Vec{X: width, Y: t, Z: depth},
				Chamfer: tenonChamfer * math.Min(width, t),
			})
			female.Joints.Add(Feature{
				Kind:  Negative,
				Joint: JointTenon,
				Pair:  c.Pair,
				Frame: at(c, x, (opts.TopTol-opts.BottomTol)/2, depth/2),
				Size: r3.Vec{
					X: width + 2*opts.SideTol,
					Y: t + opts.TopTol + opts.BottomTol,
					Z: depth + 2*holeMargin,
				},
			})
		}
	}
	return out, nil
}

// AddSunrise inserts fanned dovetail keys across side-to-side and
// face-to-face contacts. Key cavities are recorded on both plates.
func (m *Model) AddSunrise(opts SunriseOptions) (PlateModel, error) {
	if opts.Count < 1 {
		return nil, fmt.Errorf("sunrise: %w: count must be at least 1", ErrInvalidParameter)
	}
	if opts.SpreadAngle < 0 || opts.SpreadAngle >= 180 {
		return nil, fmt.Errorf("sunrise: %w: spread angle %g", ErrInvalidParameter, opts.SpreadAngle)
	}
	cs, err := m.selectContacts(opts.Pairs)
	if err != nil {
		return nil, fmt.Errorf("sunrise: %w", err)
	}
	out := m.clone()
	for _, c := range cs {
		if c.Type != SideToSide && c.Type != FaceToFace {
			continue
		}
		a, b := &out.plates[c.Mover], &out.plates[c.Fixed()]
		width := opts.Width
		if width <= 0 {
			width = a.Thickness
		}
		spacing := opts.Spacing
		if spacing <= 0 {
			spacing = width
		}
		n := opts.Count
		span := float64(n)*width + float64(n-1)*spacing
		if span > c.Edge.Length() {
			return nil, fmt.Errorf("sunrise %s: %w: %d keys need %g, edge is %g",
				c, ErrInvalidParameter, n, span, c.Edge.Length())
		}

		var forced r3.Vec
		if opts.ForcedDirection != nil {
			d := opts.ForcedDirection.Resolve()
			forced = geom.Unit(r3.Sub(d, r3.Scale(r3.Dot(d, c.Plane.Normal), c.Plane.Normal)))
			if geom.IsZero(forced) {
				return nil, fmt.Errorf("sunrise %s: %w: forced direction is normal to the contact", c, ErrInvalidParameter)
			}
		}

		for i := 0; i < n; i++ {
			x := (float64(i) - float64(n-1)/2) * (width + spacing)
			origin := c.Plane.FromLocal(x, 0, 0)
			var axis r3.Vec
			if opts.ForcedDirection != nil {
				axis = forced
			} else {
				angle := 0.0
				if n > 1 {
					angle = -opts.SpreadAngle/2 + opts.SpreadAngle*float64(i)/float64(n-1)
				}
				rot := r3.NewRotation(angle*math.Pi/180, c.Plane.Normal)
				axis = rot.Rotate(c.Plane.YAxis)
			}
			cos := math.Abs(r3.Dot(axis, c.Plane.YAxis))
			if cos < geom.Epsilon {
				cos = 1
			}
			key := Feature{
				Kind:  Key,
				Joint: JointSunrise,
				Pair:  c.Pair,
				Frame: geom.Plane{
					Origin: origin,
					XAxis:  r3.Cross(axis, c.Plane.Normal),
					YAxis:  axis,
					Normal: c.Plane.Normal,
				},
				Size: r3.Vec{X: width, Y: a.Thickness/cos + 2*holeMargin, Z: 2 * width},
			}
			a.Joints.Add(key)
			b.Joints.Add(key)
		}
	}
	return out, nil
}
