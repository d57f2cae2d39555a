package plate

import (
	"fmt"
	"sort"
)

// ValidationSeverity indicates whether a validation finding blocks further
// processing or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks processing
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	PlateID  int                // which plate has the problem (-1 if model-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.PlateID < 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] plate %d: %s", e.Severity, e.PlateID, e.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory) from
// all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether no blocking error was found.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs the structural checks on the model. An empty slice means the
// model is valid. It never mutates the model.
func Validate(m *Model) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validatePlates(m)...)
	errs = append(errs, validateNames(m)...)
	errs = append(errs, validatePairs(m)...)
	errs = append(errs, validateModules(m)...)
	return errs
}

// ValidateAll runs the structural and geometric tiers and separates the
// findings into errors and warnings.
func ValidateAll(m *Model) ValidationResult {
	var result ValidationResult
	findings := Validate(m)
	findings = append(findings, validateContacts(m)...)
	for _, f := range findings {
		if f.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, f)
		} else {
			result.Errors = append(result.Errors, f)
		}
	}
	return result
}

// validatePlates checks thickness and contour shape.
func validatePlates(m *Model) []ValidationError {
	var errs []ValidationError
	for _, p := range m.plates {
		if p.Thickness <= 0 {
			errs = append(errs, ValidationError{
				PlateID:  p.ID,
				Message:  fmt.Sprintf("thickness must be positive, got %g", p.Thickness),
				Severity: SeverityError,
			})
		}
		if len(p.Contour) < 3 {
			errs = append(errs, ValidationError{
				PlateID:  p.ID,
				Message:  fmt.Sprintf("contour needs at least 3 points, got %d", len(p.Contour)),
				Severity: SeverityError,
			})
			continue
		}
		if !p.Contour.IsPlanar(p.TopPlane, m.tol.Distance) {
			errs = append(errs, ValidationError{
				PlateID:  p.ID,
				Message:  "contour does not lie on the top plane",
				Severity: SeverityError,
			})
		}
		if p.Outline().Area() <= m.tol.Distance*m.tol.Distance {
			errs = append(errs, ValidationError{
				PlateID:  p.ID,
				Message:  "contour encloses no area",
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateNames checks that no two plates share a non-empty name.
func validateNames(m *Model) []ValidationError {
	var errs []ValidationError
	byName := make(map[string][]int)
	for _, p := range m.plates {
		if p.Name != "" {
			byName[p.Name] = append(byName[p.Name], p.ID)
		}
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if ids := byName[name]; len(ids) > 1 {
			errs = append(errs, ValidationError{
				PlateID:  -1,
				Message:  fmt.Sprintf("duplicate name %q assigned to %d plates", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validatePairs reports the repeated pairs New dropped. Unknown plates and
// self pairs are already rejected by New.
func validatePairs(m *Model) []ValidationError {
	var errs []ValidationError
	for _, pr := range m.repeated {
		errs = append(errs, ValidationError{
			PlateID:  -1,
			Message:  fmt.Sprintf("pair (%d,%d) listed more than once", pr[0], pr[1]),
			Severity: SeverityWarning,
		})
	}
	return errs
}

// validateModules checks that module sequences name existing plates, each at
// most once, and that module names are unique.
func validateModules(m *Model) []ValidationError {
	var errs []ValidationError
	names := make(map[string]bool)
	for _, mod := range m.modules {
		if names[mod.Name] {
			errs = append(errs, ValidationError{
				PlateID:  -1,
				Message:  fmt.Sprintf("duplicate module name %q", mod.Name),
				Severity: SeverityError,
			})
		}
		names[mod.Name] = true

		seen := make(map[int]bool)
		for _, id := range mod.Plates() {
			if id < 0 || id >= len(m.plates) {
				errs = append(errs, ValidationError{
					PlateID:  -1,
					Message:  fmt.Sprintf("module %q references plate %d which does not exist", mod.Name, id),
					Severity: SeverityError,
				})
				continue
			}
			if seen[id] {
				errs = append(errs, ValidationError{
					PlateID:  id,
					Message:  fmt.Sprintf("module %q lists the plate more than once", mod.Name),
					Severity: SeverityError,
				})
			}
			seen[id] = true
		}
	}
	return errs
}

// validateContacts warns about pairs whose geometry yields no contact.
func validateContacts(m *Model) []ValidationError {
	var errs []ValidationError
	found := make(map[[2]int]bool, len(m.contacts))
	for _, c := range m.contacts {
		found[c.Pair] = true
	}
	for _, pr := range m.pairs {
		if !found[pr] {
			errs = append(errs, ValidationError{
				PlateID:  -1,
				Message:  fmt.Sprintf("pair (%d,%d) has no detectable contact", pr[0], pr[1]),
				Severity: SeverityWarning,
			})
			found[pr] = true
		}
	}
	return errs
}
