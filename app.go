package main

import (
	"github.com/chazu/lamina/internal/config"
	"github.com/chazu/lamina/pkg/engine"
	"github.com/chazu/lamina/pkg/kernel"
	"github.com/chazu/lamina/pkg/kernel/sdfx"
	"github.com/chazu/lamina/pkg/plate"
	"github.com/chazu/lamina/pkg/tessellate"
	"go.uber.org/zap"
)

// colorPalette is a default palette used to assign distinct colors to plates.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App ties the engine, the geometry kernel and the configuration together.
// The CLI commands and the end-to-end tests drive lamina through it.
type App struct {
	cfg    *config.Config
	log    *zap.Logger
	engine *engine.Engine
	kernel kernel.Kernel
}

// MeshData is the JSON-serializable mesh format.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of evaluating a script.
type EvalResult struct {
	Model    *plate.Model    `json:"-"`
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// AppOption configures an App.
type AppOption func(*App)

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) AppOption {
	return func(a *App) {
		if cfg != nil {
			a.cfg = cfg
		}
	}
}

// WithAppLogger sets the logger.
func WithAppLogger(l *zap.Logger) AppOption {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

// NewApp creates a new App with an engine and the sdfx kernel.
func NewApp(opts ...AppOption) *App {
	a := &App{cfg: config.Default(), log: zap.NewNop()}
	for _, o := range opts {
		o(a)
	}
	a.engine = engine.NewEngine(
		engine.WithLogger(a.log),
		engine.WithTolerance(a.cfg.Contact),
		engine.WithTimeout(a.cfg.Engine.Timeout),
	)
	a.kernel = sdfx.New()
	return a
}

// Check evaluates source and validates the resulting model.
func (a *App) Check(source string) (engine.EvalResult, error) {
	return a.engine.Check(source)
}

// Evaluate takes Lisp source and returns mesh data + errors.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate and validate the source.
	res, err := a.engine.Check(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.Error("evaluate failed", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Convert errors and warnings to the output format.
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Line:    w.Line,
			Col:     w.Col,
			Message: w.Message,
		})
	}
	if !res.OK() {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}
	result.Model = res.Model

	// Step 3: Tessellate the plates into triangle meshes.
	meshes, err := a.Meshes(res.Model)
	if err != nil {
		a.log.Error("tessellation failed", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}
	result.Meshes = meshes
	return result
}

// Meshes tessellates every plate of pm and assigns palette colours.
func (a *App) Meshes(pm plate.PlateModel) ([]MeshData, error) {
	meshes, err := tessellate.Tessellate(pm, a.kernel)
	if err != nil {
		return nil, err
	}
	out := make([]MeshData, 0, len(meshes))
	for i, m := range meshes {
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return out, nil
}
