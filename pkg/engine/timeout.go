package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/lamina/pkg/plate"
)

// DefaultTimeout bounds a single evaluation unless WithTimeout says otherwise.
const DefaultTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs past the engine's timeout.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned to a caller whose evaluation finished after
	// a newer one had started.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// evalResult carries an evaluation outcome out of the worker goroutine.
type evalResult struct {
	model  *plate.Model
	errors []EvalError
	err    error
}

// await collects the result of evaluation gen from ch. On timeout the worker
// keeps running; whatever it sends later lands in the buffered channel and
// is dropped with it.
func (e *Engine) await(ch <-chan evalResult, gen uint64) (*plate.Model, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if !e.current(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.model, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
}

// current reports whether gen is still the newest evaluation.
func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}
