// Package preview computes the insertion animation and contact sphere
// previews shown while an assembly sequence is being designed.
package preview

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/plate"
	"gonum.org/v1/gonum/spatial/r3"
)

// Defaults applied when an optional parameter is nil.
const (
	DefaultStep    = 1.0
	DefaultRetreat = 1000.0
	DefaultScale   = 1.0
)

// Status strings reported at both ends of the sequence.
const (
	StatusStart = "start of insertion sequence"
	StatusEnd   = "end of insertion sequence"
)

// ErrInvalidInput is returned for inputs no preview can be computed from.
var ErrInvalidInput = errors.New("preview: invalid input")

// AnimateInput holds the plates of a module in sequence order together with
// their insertion vectors. Step and Retreat are optional.
type AnimateInput struct {
	Plates  []plate.Plate
	Vectors []r3.Vec
	Step    *float64
	Retreat *float64
}

// AnimateInputFromAssembly builds an AnimateInput from an evaluated module.
func AnimateInputFromAssembly(a plate.Assembly, step, retreat *float64) AnimateInput {
	return AnimateInput{Plates: a.Plates, Vectors: a.Vectors, Step: step, Retreat: retreat}
}

// Frame is one state of the insertion animation.
type Frame struct {
	// Plates holds the placed plates followed by the moving plate, if any.
	Plates []plate.Plate
	Status string
	// Moving is the sequence index of the plate in motion, or -1.
	Moving int
	// Offset is the translation applied to the moving plate.
	Offset r3.Vec
}

// Animate returns the frame at Step, a fraction of the whole sequence. With
// count plates, the plates before index floor(Step*count) are in place and
// the plate at that index is translated by -(1-d)*Retreat*vector, where d is
// the fractional part of Step*count.
func Animate(in AnimateInput) (Frame, error) {
	step := valueOr(in.Step, DefaultStep)
	retreat := valueOr(in.Retreat, DefaultRetreat)
	if len(in.Vectors) != len(in.Plates) {
		return Frame{}, fmt.Errorf("%w: %d plates but %d vectors", ErrInvalidInput, len(in.Plates), len(in.Vectors))
	}
	if step < 0 || step > 1 || math.IsNaN(step) {
		return Frame{}, fmt.Errorf("%w: step %g outside [0,1]", ErrInvalidInput, step)
	}

	count := len(in.Plates)
	pos := step * float64(count)
	n := int(math.Floor(pos))
	decimal := pos - float64(n)

	f := Frame{Moving: -1}
	for i := 0; i < n && i < count; i++ {
		f.Plates = append(f.Plates, in.Plates[i].Clone())
	}
	if n < count {
		f.Moving = n
		f.Offset = r3.Scale(-(1-decimal)*retreat, in.Vectors[n])
		f.Plates = append(f.Plates, in.Plates[n].Translate(f.Offset))
	}

	switch {
	case step == 0:
		f.Status = StatusStart
	case step == 1:
		f.Status = StatusEnd
	default:
		f.Status = fmt.Sprintf("plate %d of %d, %.0f%% inserted", n+1, count, decimal*100)
	}
	return f, nil
}

// ContactSpheres places a sphere on every contact of the model; see
// plate.Model.ContactSpheres. A nil scale means DefaultScale.
func ContactSpheres(pm plate.PlateModel, scale *float64) []geom.Sphere {
	if pm == nil {
		return nil
	}
	return pm.ContactSpheres(valueOr(scale, DefaultScale))
}

// SplitDecimal splits num at its decimal separator. The split is textual:
// -2.5 gives (-2, 0.5), not the floored (-3, 0.5).
func SplitDecimal(num float64) (int, float64, error) {
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, 0, fmt.Errorf("%w: %g", ErrInvalidInput, num)
	}
	s := strconv.FormatFloat(num, 'f', -1, 64)
	whole, frac, _ := strings.Cut(s, ".")
	integer, err := strconv.Atoi(whole)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if frac == "" {
		return integer, 0, nil
	}
	deci, err := strconv.ParseFloat("0."+frac, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return integer, deci, nil
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
