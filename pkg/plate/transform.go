package plate

import (
	"fmt"
	"strings"

	"github.com/chazu/lamina/pkg/geom"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// TransformMode selects what Transform does with the model.
type TransformMode int

const (
	TransformScale  TransformMode = iota // scale about Origin.Origin
	TransformOrient                      // map Origin onto Target
	TransformArray                       // lay plates flat in a row on Target
	TransformStack                       // lay plates flat in a pile on Target
	TransformCustom                      // apply Custom
)

var transformModeNames = map[TransformMode]string{
	TransformScale:  "scale",
	TransformOrient: "orient",
	TransformArray:  "array",
	TransformStack:  "stack",
	TransformCustom: "custom",
}

func (t TransformMode) String() string {
	if s, ok := transformModeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TransformMode(%d)", int(t))
}

// ParseTransformMode parses a mode name, case-insensitively.
func ParseTransformMode(s string) (TransformMode, error) {
	for mode, name := range transformModeNames {
		if strings.EqualFold(name, s) {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("%w: transform mode %q", ErrInvalidParameter, s)
}

// TransformOptions configures Transform. A zero Origin or Target plane means
// WorldXY.
type TransformOptions struct {
	Mode   TransformMode
	Origin geom.Plane
	Target geom.Plane
	Scale  float64
	// Step is the gap between plates for Array and Stack.
	Step float64
	// Flip lays plates top face down in Array and Stack.
	Flip   bool
	Custom geom.Affine
}

func orWorld(p geom.Plane) geom.Plane {
	if geom.IsZero(p.Normal) {
		return geom.WorldXY
	}
	return p
}

// Transform moves, scales or lays out the plates. Contacts are recomputed
// from the new geometry.
func (m *Model) Transform(opts TransformOptions) (PlateModel, error) {
	origin, target := orWorld(opts.Origin), orWorld(opts.Target)
	out := m.clone()

	switch opts.Mode {
	case TransformScale:
		if opts.Scale <= 0 {
			return nil, fmt.Errorf("transform: %w: scale %g", ErrInvalidParameter, opts.Scale)
		}
		out.apply(geom.Scaling(origin.Origin, opts.Scale))
	case TransformOrient:
		out.apply(geom.PlaneToPlane(origin, target))
	case TransformCustom:
		c := opts.Custom
		if geom.IsZero(r3.Cross(c.X, c.Y)) || geom.IsZero(c.Z) {
			return nil, fmt.Errorf("transform: %w: degenerate custom matrix", ErrInvalidParameter)
		}
		out.apply(c)
	case TransformArray, TransformStack:
		if opts.Step < 0 {
			return nil, fmt.Errorf("transform: %w: step %g", ErrInvalidParameter, opts.Step)
		}
		out.layFlat(target, opts)
	default:
		return nil, fmt.Errorf("transform: %w: mode %s", ErrInvalidParameter, opts.Mode)
	}
	out.refresh()
	m.log.Debug("model transformed", zap.Stringer("mode", opts.Mode))
	return out, nil
}

func (m *Model) apply(a geom.Affine) {
	for i := range m.plates {
		m.plates[i] = m.plates[i].Transform(a)
	}
}

// layFlat puts every plate on target with its bottom face (top face when
// flipped) down. Array advances along target X, Stack along the normal.
func (m *Model) layFlat(target geom.Plane, opts TransformOptions) {
	var cursor float64
	for i, p := range m.plates {
		src := p.BottomPlane()
		if opts.Flip {
			src = p.TopPlane.Flip()
		}
		lo, hi := p.Contour.ToLocal(src).Bounds()
		dst := target
		if opts.Mode == TransformArray {
			dst.Origin = target.FromLocal(cursor-lo.X, -lo.Y, 0)
			cursor += hi.X - lo.X + opts.Step
		} else {
			dst.Origin = target.FromLocal(-lo.X, -lo.Y, cursor)
			cursor += p.Thickness + opts.Step
		}
		m.plates[i] = p.Transform(geom.PlaneToPlane(src, dst))
	}
}

// SwitchTopBottom swaps the top and bottom faces of the listed plates (all
// when ids is empty). The material does not move.
func (m *Model) SwitchTopBottom(ids []int) (PlateModel, error) {
	sel, err := m.selectPlates(ids)
	if err != nil {
		return nil, fmt.Errorf("switch top/bottom: %w", err)
	}
	out := m.clone()
	for _, id := range sel {
		p := &out.plates[id]
		bottom := p.BottomPlane().Flip()
		contour := p.BottomContour()
		holes := p.BottomHoles()
		p.TopPlane, p.Contour, p.Holes = bottom, contour, holes
		p.TopMilling, p.BottomMilling = p.BottomMilling, p.TopMilling
		p.TopHolesMilling, p.BottomHolesMilling = p.BottomHolesMilling, p.TopHolesMilling
	}
	out.refresh()
	return out, nil
}

// PerformBooleanOperations marks the listed plates (all when ids is empty)
// for merging: their breps then include joint features, positives grown by
// mergeTol and cuts grown by boolTol.
func (m *Model) PerformBooleanOperations(ids []int, boolTol, mergeTol float64) (PlateModel, error) {
	if boolTol < 0 || mergeTol < 0 {
		return nil, fmt.Errorf("boolean: %w: negative tolerance", ErrInvalidParameter)
	}
	sel, err := m.selectPlates(ids)
	if err != nil {
		return nil, fmt.Errorf("boolean: %w", err)
	}
	out := m.clone()
	for _, id := range sel {
		out.plates[id].Merge = &MergeSettings{BoolTolerance: boolTol, MergeTolerance: mergeTol}
	}
	return out, nil
}
