package engine

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/plate"
)

func TestEvaluateBlankSourceGivesEmptyModel(t *testing.T) {
	for _, src := range []string{"", "   \n\t  \n  ", "; only a comment\n"} {
		m, evalErrs, err := NewEngine().Evaluate(src)
		if err != nil {
			t.Fatalf("%q: unexpected fatal error: %v", src, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("%q: unexpected eval errors: %v", src, evalErrs)
		}
		if m == nil {
			t.Fatalf("%q: expected non-nil model", src)
		}
		if n := len(m.Plates()); n != 0 {
			t.Errorf("%q: expected no plates, got %d", src, n)
		}
		if n := len(m.Contacts()); n != 0 {
			t.Errorf("%q: expected no contacts, got %d", src, n)
		}
	}
}

func TestEvaluateComputedDimensions(t *testing.T) {
	src := `
(def th 18)
(def w (* 2 100))
(rect-plate "panel" :width w :height (+ 50 50) :thickness th)
`
	m := mustEvaluate(t, src)
	plates := m.Plates()
	if len(plates) != 1 {
		t.Fatalf("expected 1 plate, got %d", len(plates))
	}
	p := plates[0]
	if p.Thickness != 18 {
		t.Errorf("thickness = %g, want 18", p.Thickness)
	}
	lo, hi := p.Contour.ToLocal(geom.WorldXY).Bounds()
	if w, h := hi.X-lo.X, hi.Y-lo.Y; math.Abs(w-200) > 1e-9 || math.Abs(h-100) > 1e-9 {
		t.Errorf("outline is %gx%g, want 200x100", w, h)
	}
}

func TestEvaluateDeclaredContact(t *testing.T) {
	m := mustEvaluate(t, tJointSource+`(contact "base" "wall")`)
	if n := len(m.Plates()); n != 2 {
		t.Fatalf("expected 2 plates, got %d", n)
	}
	contacts := m.Contacts()
	if len(contacts) != 1 {
		t.Fatalf("expected 1 contact, got %d", len(contacts))
	}
	if c := contacts[0]; c.Pair != [2]int{0, 1} || c.Type != plate.SideToFace {
		t.Errorf("unexpected contact %v %s", c.Pair, c.Type)
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	m, evalErrs, err := NewEngine().Evaluate(`(rect-plate "a" :width 1 :height 1 :thickness 1`)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil model on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	m, evalErrs, err := NewEngine().Evaluate(`(rect-plate "a" :width w :height 1 :thickness 1)`)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil model on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvaluateFreshSandboxPerCall(t *testing.T) {
	eng := NewEngine()
	first, evalErrs, err := eng.Evaluate(`(def th 10) (rect-plate "a" :width 1 :height 1 :thickness th)`)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("evaluate: %v %v", err, evalErrs)
	}
	if n := len(first.Plates()); n != 1 {
		t.Fatalf("expected 1 plate, got %d", n)
	}

	// Neither th nor plate "a" survive into the next evaluation.
	m, evalErrs, err := eng.Evaluate(`(rect-plate "b" :width 1 :height 1 :thickness th)`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if m != nil || len(evalErrs) == 0 {
		t.Fatalf("expected th to be undefined, got model %v errors %v", m, evalErrs)
	}

	m, evalErrs, err = eng.Evaluate(`(rect-plate "a" :width 1 :height 1 :thickness 2)`)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("evaluate: %v %v", err, evalErrs)
	}
	if n := len(m.Plates()); n != 1 {
		t.Errorf("expected 1 plate, got %d", n)
	}
}

func TestEvalErrorString(t *testing.T) {
	s := EvalError{Line: 5, Message: "something went wrong"}.Error()
	if !strings.Contains(s, "line 5") || !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() = %q, want line and message", s)
	}
	if s := (EvalError{Message: "no location"}).Error(); strings.Contains(s, "line") {
		t.Errorf("Error() with no line should not mention a line, got %q", s)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()
	src := tJointSource + `(contacts-auto)`
	var center []float64
	for i := 0; i < 5; i++ {
		m, evalErrs, err := eng.Evaluate(src)
		if err != nil || len(evalErrs) > 0 {
			t.Fatalf("iteration %d: %v %v", i, err, evalErrs)
		}
		contacts := m.Contacts()
		if len(contacts) != 1 {
			t.Fatalf("iteration %d: expected 1 contact, got %d", i, len(contacts))
		}
		c := contacts[0].Center
		got := []float64{c.X, c.Y, c.Z}
		if center == nil {
			center = got
			continue
		}
		for k := range got {
			if got[k] != center[k] {
				t.Errorf("iteration %d: contact center %v, first run %v", i, got, center)
				break
			}
		}
	}
}

func TestAwaitTimeout(t *testing.T) {
	eng := NewEngine(WithTimeout(20 * time.Millisecond))
	eng.generation = 1
	ch := make(chan evalResult) // never sends

	start := time.Now()
	_, _, err := eng.await(ch, 1)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took %s", elapsed)
	}
}

func TestWithTimeoutIgnoresNonPositive(t *testing.T) {
	if d := NewEngine(WithTimeout(0)).timeout; d != DefaultTimeout {
		t.Errorf("timeout = %s, want %s", d, DefaultTimeout)
	}
}

func TestAwaitDiscardsStaleGeneration(t *testing.T) {
	eng := NewEngine()
	eng.generation = 2

	ch := make(chan evalResult, 1)
	ch <- evalResult{model: mustEvaluate(t, tJointSource)}

	m, _, err := eng.await(ch, 1)
	if !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if m != nil {
		t.Error("stale model should be dropped")
	}
}

func TestEvaluateConcurrentCallers(t *testing.T) {
	eng := NewEngine()
	var wg sync.WaitGroup
	results := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, evalErrs, err := eng.Evaluate(tJointSource)
			switch {
			case errors.Is(err, ErrSuperseded):
				// A newer call started first; allowed.
			case err != nil:
				results[i] = err
			case len(evalErrs) > 0 || len(m.Plates()) != 2:
				results[i] = errors.New("unexpected evaluation result")
			}
		}(i)
	}
	wg.Wait()
	for i, err := range results {
		if err != nil {
			t.Errorf("caller %d: %v", i, err)
		}
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"error on line", "Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"no line info", "some generic error", 0, "some generic error"},
		{"lowercase", "error on line 12: missing paren", 12, "missing paren"},
		{"short form", "line 3: rect-plate \"a\": width must be positive", 3, "width must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errors.New(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}
