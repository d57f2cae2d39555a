// Package component adapts the plate model to a node-style host. Every
// component has the same shape: missing required inputs become a warning
// and empty outputs, absent optional inputs take their defaults, one call is
// delegated to the model, and ragged results come back as trees.
package component

import (
	"fmt"
	"reflect"

	"github.com/chazu/lamina/pkg/plate"
)

// Result carries the model produced by a mutating component.
type Result struct {
	Warnings []string
	Model    plate.PlateModel
}

// missing returns the warning emitted when a required input is absent.
func missing(param string) string {
	return fmt.Sprintf("Input parameter %s failed to collect data", param)
}

var (
	warnModel  = missing("Model")
	warnModule = missing("Module")
)

// orDefault dereferences p, or returns def when p is nil.
func orDefault[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// isMissing reports whether pm is nil, including a nil pointer held in the
// interface.
func isMissing(pm plate.PlateModel) bool {
	if pm == nil {
		return true
	}
	v := reflect.ValueOf(pm)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// delegate runs op on pm unless pm is missing.
func delegate(pm plate.PlateModel, op func(plate.PlateModel) (plate.PlateModel, error)) (Result, error) {
	if isMissing(pm) {
		return Result{Warnings: []string{warnModel}}, nil
	}
	out, err := op(pm)
	if err != nil {
		return Result{}, err
	}
	return Result{Model: out}, nil
}
