// Package plate defines the timber-plate model for Lamina.
//
// A Model is an immutable value holding planar plates, the adjacency pairs
// between them and any assembly modules. Contacts are derived from geometry
// whenever a model is built. Every operation (transforms, joint synthesis,
// boolean merging, fabrication lines) returns a new model and leaves its
// receiver untouched. Consumers program against the PlateModel interface.
package plate

import "errors"

// Sentinel errors returned by model operations. Callers match them with
// errors.Is; the returned errors wrap them with context.
var (
	ErrUnknownPlate     = errors.New("unknown plate")
	ErrUnknownModule    = errors.New("unknown module")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNoContact        = errors.New("no contact between plates")
)
