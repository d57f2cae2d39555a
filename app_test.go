package main

import (
	"os"
	"testing"
)

// TestE2EBoxExample exercises the full pipeline: Lisp source → engine →
// plate model → validation → tessellate → meshes.
func TestE2EBoxExample(t *testing.T) {
	app := NewApp()

	source, err := os.ReadFile("examples/box.lamina")
	if err != nil {
		t.Fatalf("failed to read box.lamina: %v", err)
	}

	result := app.Evaluate(string(source))

	// No errors expected.
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}

	// Expect 5 meshes: bottom, front, back, left, right.
	if len(result.Meshes) != 5 {
		t.Fatalf("expected 5 meshes, got %d", len(result.Meshes))
	}

	expectedParts := map[string]bool{
		"bottom": false,
		"front":  false,
		"back":   false,
		"left":   false,
		"right":  false,
	}

	for _, m := range result.Meshes {
		if _, ok := expectedParts[m.PartName]; !ok {
			t.Errorf("unexpected part name: %q", m.PartName)
			continue
		}
		expectedParts[m.PartName] = true

		// Each mesh must have non-empty geometry.
		if len(m.Vertices) == 0 {
			t.Errorf("part %q: no vertices", m.PartName)
		}
		if len(m.Normals) == 0 {
			t.Errorf("part %q: no normals", m.PartName)
		}
		if len(m.Indices) == 0 {
			t.Errorf("part %q: no indices", m.PartName)
		}

		// Must have a color assigned.
		if m.Color == "" {
			t.Errorf("part %q: no color assigned", m.PartName)
		}
	}

	for name, found := range expectedParts {
		if !found {
			t.Errorf("missing mesh for part %q", name)
		}
	}

	if result.Model == nil {
		t.Fatal("expected a model")
	}
	if _, err := result.Model.Module("box"); err != nil {
		t.Errorf("module box: %v", err)
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("(rect-plate \"test\"")

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

// TestE2ESinglePlate ensures a minimal single-plate source renders one mesh.
func TestE2ESinglePlate(t *testing.T) {
	app := NewApp()
	source := `(rect-plate "shelf" :width 600 :height 300 :thickness 18)`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if result.Meshes[0].PartName != "shelf" {
		t.Errorf("expected part name 'shelf', got %q", result.Meshes[0].PartName)
	}
}
