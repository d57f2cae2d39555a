// Package engine provides the Lisp evaluation engine for lamina.
// It wraps zygomys in a sandboxed environment and produces a plate model
// from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/lamina/pkg/plate"
	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	PlateID int // -1 when the warning concerns the whole model
}

// EvalResult bundles the full output of an evaluation: the model plus
// evaluation errors, blocking validation findings and advisory warnings.
type EvalResult struct {
	Model    *plate.Model
	Errors   []EvalError
	Warnings []EvalWarning
}

// OK reports whether the evaluation produced a usable model.
func (r EvalResult) OK() bool { return r.Model != nil && len(r.Errors) == 0 }

// Engine wraps the zygomys interpreter for lamina evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	log        *zap.Logger
	tol        plate.Tolerance
	timeout    time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger handed to evaluated models.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithTolerance sets the default contact tolerance. Scripts may override it
// with (tolerance ...).
func WithTolerance(t plate.Tolerance) Option {
	return func(e *Engine) { e.tol = t }
}

// WithTimeout bounds each evaluation. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{log: zap.NewNop(), tol: plate.DefaultTolerance, timeout: DefaultTimeout}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate takes Lisp source code and produces a new plate model.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns model + nil errors + nil error
//   - On parse/eval failure: returns nil model + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*plate.Model, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		m, evalErrs, err := e.evaluate(source)
		ch <- evalResult{model: m, errors: evalErrs, err: err}
	}()

	return e.await(ch, gen)
}

// Check evaluates source and runs both validation tiers on the result.
// Blocking validation findings are reported as errors without a line.
func (e *Engine) Check(source string) (EvalResult, error) {
	m, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return EvalResult{}, err
	}
	if len(evalErrs) > 0 {
		return EvalResult{Errors: evalErrs}, nil
	}
	res := EvalResult{Model: m}
	vr := plate.ValidateAll(m)
	for _, f := range vr.Errors {
		res.Errors = append(res.Errors, EvalError{Message: f.Error()})
	}
	for _, f := range vr.Warnings {
		res.Warnings = append(res.Warnings, EvalWarning{Message: f.Message, PlateID: f.PlateID})
	}
	return res, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*plate.Model, []EvalError, error) {
	b := newBuilder(e.tol)

	// Empty source is a valid program that produces an empty model.
	if strings.TrimSpace(source) == "" {
		return b.build(e.log)
	}

	// Create a fresh sandboxed zygomys environment.
	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return b.build(e.log)
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
