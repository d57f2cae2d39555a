package engine

import (
	"fmt"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/plate"
	"github.com/chazu/lamina/pkg/sequence"
	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps an r3.Vec.
type sexpVec3 struct {
	vec r3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpPlane wraps a geom.Plane.
type sexpPlane struct {
	plane geom.Plane
}

func (p *sexpPlane) SexpString(ps *zygo.PrintState) string {
	o, n := p.plane.Origin, p.plane.Normal
	return fmt.Sprintf("(plane (vec3 %g %g %g) (vec3 %g %g %g))", o.X, o.Y, o.Z, n.X, n.Y, n.Z)
}
func (p *sexpPlane) Type() *zygo.RegisteredType { return nil }

// sexpPlateRef refers to a plate by its index in the model being built.
type sexpPlateRef struct {
	id   int
	name string
}

func (r *sexpPlateRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(plate-ref %d %q)", r.id, r.name)
}
func (r *sexpPlateRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Model builder
// ---------------------------------------------------------------------------

// builder accumulates what the builtins declare during one evaluation.
type builder struct {
	plates  []plate.Plate
	names   map[string]int
	pairs   [][2]int
	auto    bool
	modules []plate.Module
	tol     plate.Tolerance
}

func newBuilder(tol plate.Tolerance) *builder {
	return &builder{names: make(map[string]int), tol: tol}
}

func (b *builder) addPlate(p plate.Plate) (*sexpPlateRef, error) {
	if p.Name != "" {
		if _, dup := b.names[p.Name]; dup {
			return nil, fmt.Errorf("duplicate plate name %q", p.Name)
		}
		b.names[p.Name] = len(b.plates)
	}
	p.ID = len(b.plates)
	b.plates = append(b.plates, p)
	return &sexpPlateRef{id: p.ID, name: p.Name}, nil
}

// build turns the declarations into a model. Declared pairs come first,
// followed by automatically detected pairs not already declared.
func (b *builder) build(log *zap.Logger) (*plate.Model, []EvalError, error) {
	pairs := append([][2]int(nil), b.pairs...)
	if b.auto {
		seen := make(map[[2]int]bool, len(pairs))
		for _, pr := range pairs {
			seen[pr] = true
		}
		for _, pr := range plate.DetectPairs(b.plates, b.tol) {
			if !seen[pr] {
				pairs = append(pairs, pr)
			}
		}
	}
	m, err := plate.New(b.plates, pairs, plate.WithTolerance(b.tol), plate.WithLogger(log))
	if err != nil {
		return nil, []EvalError{{Message: err.Error()}}, nil
	}
	for _, mod := range b.modules {
		if m, err = m.WithModule(mod); err != nil {
			return nil, []EvalError{{Message: err.Error()}}, nil
		}
	}
	return m, nil, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_gravity) and plain strings.
func toKeywordString(s zygo.Sexp) (string, error) {
	if name, ok := isKW(s); ok {
		return name, nil
	}
	return toString(s)
}

// toVec3 accepts a vec3 or a three element array.
func toVec3(s zygo.Sexp) (r3.Vec, error) {
	switch v := s.(type) {
	case *sexpVec3:
		return v.vec, nil
	case *zygo.SexpArray:
		if len(v.Val) != 3 {
			return r3.Vec{}, fmt.Errorf("expected 3 components, got %d", len(v.Val))
		}
		var c [3]float64
		for i, e := range v.Val {
			f, err := toFloat64(e)
			if err != nil {
				return r3.Vec{}, err
			}
			c[i] = f
		}
		return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
	}
	return r3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toPlane(s zygo.Sexp) (geom.Plane, error) {
	if p, ok := s.(*sexpPlane); ok {
		return p.plane, nil
	}
	return geom.Plane{}, fmt.Errorf("expected plane, got %T (%s)", s, s.SexpString(nil))
}

// toPolyline converts a list of points.
func toPolyline(s zygo.Sexp) (geom.Polyline, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make(geom.Polyline, len(items))
	for i, item := range items {
		v, err := toVec3(item)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// toPlateID resolves a plate reference, a plate name or an index.
func (b *builder) toPlateID(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *sexpPlateRef:
		return v.id, nil
	case *zygo.SexpStr:
		id, ok := b.names[v.S]
		if !ok {
			return 0, fmt.Errorf("no plate named %q", v.S)
		}
		return id, nil
	case *zygo.SexpInt:
		if v.Val < 0 || int(v.Val) >= len(b.plates) {
			return 0, fmt.Errorf("no plate with index %d", v.Val)
		}
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected plate, got %T (%s)", s, s.SexpString(nil))
}

// toSequence accepts bracket notation or a nested list of plates.
func (b *builder) toSequence(s zygo.Sexp) (sequence.Node, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		if _, isName := b.names[str.S]; !isName {
			return sequence.Parse(str.S)
		}
	}
	switch s.(type) {
	case *zygo.SexpPair, *zygo.SexpArray:
		items, err := sexpListToSlice(s)
		if err != nil {
			return sequence.Node{}, err
		}
		children := make([]sequence.Node, len(items))
		for i, item := range items {
			if children[i], err = b.toSequence(item); err != nil {
				return sequence.Node{}, err
			}
		}
		return sequence.List(children...), nil
	}
	id, err := b.toPlateID(s)
	if err != nil {
		return sequence.Node{}, err
	}
	return sequence.Leaf(id), nil
}

func toDirection(s zygo.Sexp) (geom.Direction, error) {
	if name, err := toKeywordString(s); err == nil {
		return geom.ParseDirection(name)
	}
	v, err := toVec3(s)
	if err != nil {
		return geom.Direction{}, fmt.Errorf("expected :gravity or vec3: %w", err)
	}
	return geom.Vector(v), nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// kwFloat reads an optional numeric keyword into dst.
func kwFloat(pa kwArgs, key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

// kwVec reads an optional vector keyword into dst and reports whether it
// was present.
func kwVec(pa kwArgs, key string, dst *r3.Vec) (bool, error) {
	v, ok := pa.kw[key]
	if !ok {
		return false, nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	*dst = vec
	return true, nil
}

// positionalName returns the first positional argument as a name.
func positionalName(fn string, pa kwArgs) (string, error) {
	if len(pa.positional) < 1 {
		return "", fmt.Errorf("%s requires a name argument", fn)
	}
	name, err := toString(pa.positional[0])
	if err != nil {
		return "", fmt.Errorf("%s: name: %w", fn, err)
	}
	return name, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the plate-model DSL into a zygomys environment.
// The builtins record their declarations in b.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: r3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (plane (vec3 0 0 0) (vec3 0 0 1) :x-axis (vec3 1 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("plane", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("plane requires an origin and a normal")
		}
		origin, err := toVec3(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plane: origin: %w", err)
		}
		normal, err := toVec3(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plane: normal: %w", err)
		}
		var x r3.Vec
		hasX, err := kwVec(pa, "x-axis", &x)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plane: %w", err)
		}
		pl, err := makePlane(origin, normal, x, hasX)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plane: %w", err)
		}
		return &sexpPlane{plane: pl}, nil
	})

	// -----------------------------------------------------------------------
	// (plate "name" :plane p :outline (list v...) :thickness t
	//        :holes (list (list v...) ...))
	// -----------------------------------------------------------------------
	env.AddFunction("plate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		plateName, err := positionalName("plate", pa)
		if err != nil {
			return zygo.SexpNull, err
		}

		v, ok := pa.kw["plane"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("plate %q: missing :plane", plateName)
		}
		pl, err := toPlane(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plate %q: plane: %w", plateName, err)
		}
		v, ok = pa.kw["outline"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("plate %q: missing :outline", plateName)
		}
		outline, err := toPolyline(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plate %q: outline: %w", plateName, err)
		}
		var t float64
		if err := kwFloat(pa, "thickness", &t); err != nil {
			return zygo.SexpNull, fmt.Errorf("plate %q: %w", plateName, err)
		}
		if t <= 0 {
			return zygo.SexpNull, fmt.Errorf("plate %q: thickness must be positive", plateName)
		}

		p := plate.NewPlate(plateName, pl, outline, t)
		if v, ok := pa.kw["holes"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("plate %q: holes: %w", plateName, err)
			}
			for i, item := range items {
				h, err := toPolyline(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("plate %q: hole %d: %w", plateName, i, err)
				}
				for j := range h {
					h[j] = pl.Project(h[j])
				}
				p.Holes = append(p.Holes, h)
			}
		}

		ref, err := b.addPlate(p)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plate: %w", err)
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (rect-plate "name" :origin v :normal v :x-axis v
	//             :width w :height h :thickness t)
	// -----------------------------------------------------------------------
	env.AddFunction("rect_plate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		plateName, err := positionalName("rect-plate", pa)
		if err != nil {
			return zygo.SexpNull, err
		}

		origin, normal := r3.Vec{}, r3.Vec{Z: 1}
		var x r3.Vec
		if _, err := kwVec(pa, "origin", &origin); err != nil {
			return zygo.SexpNull, fmt.Errorf("rect-plate %q: %w", plateName, err)
		}
		if _, err := kwVec(pa, "normal", &normal); err != nil {
			return zygo.SexpNull, fmt.Errorf("rect-plate %q: %w", plateName, err)
		}
		hasX, err := kwVec(pa, "x-axis", &x)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect-plate %q: %w", plateName, err)
		}
		var w, h, t float64
		dims := []struct {
			key string
			dst *float64
		}{{"width", &w}, {"height", &h}, {"thickness", &t}}
		for _, d := range dims {
			if err := kwFloat(pa, d.key, d.dst); err != nil {
				return zygo.SexpNull, fmt.Errorf("rect-plate %q: %w", plateName, err)
			}
			if *d.dst <= 0 {
				return zygo.SexpNull, fmt.Errorf("rect-plate %q: %s must be positive", plateName, d.key)
			}
		}

		pl, err := makePlane(origin, normal, x, hasX)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect-plate %q: %w", plateName, err)
		}
		ref, err := b.addPlate(plate.RectPlate(plateName, pl, w, h, t))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect-plate: %w", err)
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (contact "base" "wall")
	// -----------------------------------------------------------------------
	env.AddFunction("contact", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("contact requires exactly 2 plates, got %d", len(args))
		}
		var pr [2]int
		for i, a := range args {
			id, err := b.toPlateID(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("contact: %w", err)
			}
			pr[i] = id
		}
		if pr[0] == pr[1] {
			return zygo.SexpNull, fmt.Errorf("contact: plate %d paired with itself", pr[0])
		}
		if pr[0] > pr[1] {
			pr[0], pr[1] = pr[1], pr[0]
		}
		b.pairs = append(b.pairs, pr)
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (contacts-auto)
	// -----------------------------------------------------------------------
	env.AddFunction("contacts_auto", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		b.auto = true
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (tolerance :distance 0.5 :angle 1)
	// -----------------------------------------------------------------------
	env.AddFunction("tolerance", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		tol := b.tol
		if err := kwFloat(pa, "distance", &tol.Distance); err != nil {
			return zygo.SexpNull, fmt.Errorf("tolerance: %w", err)
		}
		if err := kwFloat(pa, "angle", &tol.Angle); err != nil {
			return zygo.SexpNull, fmt.Errorf("tolerance: %w", err)
		}
		if tol.Distance < 0 || tol.Angle < 0 {
			return zygo.SexpNull, fmt.Errorf("tolerance: values must not be negative")
		}
		b.tol = tol
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (module "name" :sequence "[[0,1],2]" :direction :gravity)
	// -----------------------------------------------------------------------
	env.AddFunction("module", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		modName, err := positionalName("module", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		v, ok := pa.kw["sequence"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("module %q: missing :sequence", modName)
		}
		seq, err := b.toSequence(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("module %q: sequence: %w", modName, err)
		}
		dir := geom.Gravity()
		if v, ok := pa.kw["direction"]; ok {
			if dir, err = toDirection(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("module %q: direction: %w", modName, err)
			}
		}
		b.modules = append(b.modules, plate.Module{Name: modName, Sequence: seq, Insertion: dir})
		return zygo.SexpNull, nil
	})
}

// makePlane builds a plane from an origin and normal, optionally aligning its
// X axis with x projected into the plane.
func makePlane(origin, normal, x r3.Vec, hasX bool) (geom.Plane, error) {
	if geom.IsZero(normal) {
		return geom.Plane{}, fmt.Errorf("normal must not be zero")
	}
	if !hasX {
		return geom.NewPlane(origin, normal), nil
	}
	n := geom.Unit(normal)
	x = r3.Sub(x, r3.Scale(r3.Dot(x, n), n))
	if geom.IsZero(x) {
		return geom.Plane{}, fmt.Errorf("x-axis must not be parallel to the normal")
	}
	return geom.PlaneFromAxes(origin, x, r3.Cross(n, x)), nil
}
