package plate

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/kernel"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// contactBrepThickness is the extrusion given to contact zones when they are
// turned into solids for display.
const contactBrepThickness = 0.5

// PlateModel is the contract every consumer programs against: read-only
// attributes plus operations that each return a new model.
type PlateModel interface {
	Plates() []Plate
	Plate(id int) (Plate, bool)
	Pairs() [][2]int
	Contacts() []Contact
	Tolerance() Tolerance

	ContactZones() []geom.Polyline
	ContactPlanes() []geom.Plane
	ContactVectors() []r3.Vec
	ContactIDs() [][]int
	ContactPairs() [][2]int
	ContactBreps(k kernel.Kernel) ([]kernel.Solid, error)
	ContactTypes() []ContactType
	ContactStrings() []string
	ContactSpheres(scale float64) []geom.Sphere
	ContactCenters() []r3.Vec
	FEMPlates() []FEMPlate
	FEMJoints() []FEMJoint

	Modules() []Module
	Module(name string) (Assembly, error)

	Transform(opts TransformOptions) (PlateModel, error)
	AddFingers(opts FingerOptions) (PlateModel, error)
	AddHalflap(opts HalflapOptions) (PlateModel, error)
	AddChamferedTenons(opts TenonOptions) (PlateModel, error)
	AddSunrise(opts SunriseOptions) (PlateModel, error)
	PerformBooleanOperations(ids []int, boolTol, mergeTol float64) (PlateModel, error)
	FabricationLines(opts FabricationOptions) (PlateModel, error)
	SwitchTopBottom(ids []int) (PlateModel, error)
}

var _ PlateModel = (*Model)(nil)

// Model is the concrete PlateModel. It is never mutated after New returns;
// operations work on a copy.
type Model struct {
	plates   []Plate
	pairs    [][2]int
	repeated [][2]int
	modules  []Module
	tol      Tolerance
	contacts []Contact
	log      *zap.Logger
}

// Option configures New.
type Option func(*Model)

// WithTolerance sets the contact detection tolerances.
func WithTolerance(t Tolerance) Option {
	return func(m *Model) { m.tol = t }
}

// WithModules attaches assembly modules.
func WithModules(mods ...Module) Option {
	return func(m *Model) { m.modules = append(m.modules, mods...) }
}

// WithLogger sets the logger used for operation diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.log = l
		}
	}
}

// New builds a model. Plate IDs are reassigned to their index. Pairs are
// normalised so the smaller index comes first and repeats are dropped;
// pairs referencing unknown plates or a plate with itself are rejected.
func New(plates []Plate, pairs [][2]int, opts ...Option) (*Model, error) {
	m := &Model{tol: DefaultTolerance, log: zap.NewNop()}
	for _, o := range opts {
		o(m)
	}
	m.plates = make([]Plate, len(plates))
	for i, p := range plates {
		m.plates[i] = p.Clone()
		m.plates[i].ID = i
	}
	m.pairs = make([][2]int, 0, len(pairs))
	seen := make(map[[2]int]bool, len(pairs))
	for _, pr := range pairs {
		for _, id := range pr {
			if id < 0 || id >= len(plates) {
				return nil, fmt.Errorf("pair %v: %w %d", pr, ErrUnknownPlate, id)
			}
		}
		if pr[0] == pr[1] {
			return nil, fmt.Errorf("pair %v: %w: plate paired with itself", pr, ErrInvalidParameter)
		}
		if pr[0] > pr[1] {
			pr[0], pr[1] = pr[1], pr[0]
		}
		if seen[pr] {
			m.repeated = append(m.repeated, pr)
			continue
		}
		seen[pr] = true
		m.pairs = append(m.pairs, pr)
	}
	m.refresh()
	return m, nil
}

// DetectPairs returns every pair of plates whose contact resolves.
func DetectPairs(plates []Plate, tol Tolerance) [][2]int {
	var out [][2]int
	for i := range plates {
		for j := i + 1; j < len(plates); j++ {
			a, b := plates[i], plates[j]
			a.ID, b.ID = i, j
			if _, ok := findContact(a, b, tol); ok {
				out = append(out, [2]int{i, j})
			}
		}
	}
	return out
}

// refresh recomputes contacts from the current plate geometry.
func (m *Model) refresh() {
	m.contacts = m.contacts[:0:0]
	for _, pr := range m.pairs {
		c, ok := findContact(m.plates[pr[0]], m.plates[pr[1]], m.tol)
		if !ok {
			m.log.Debug("pair has no contact",
				zap.Int("a", pr[0]), zap.Int("b", pr[1]))
			continue
		}
		m.contacts = append(m.contacts, c)
	}
}

// clone returns a deep copy that operations may modify.
func (m *Model) clone() *Model {
	out := &Model{
		plates:   make([]Plate, len(m.plates)),
		pairs:    append([][2]int(nil), m.pairs...),
		repeated: append([][2]int(nil), m.repeated...),
		modules:  append([]Module(nil), m.modules...),
		tol:      m.tol,
		contacts: append([]Contact(nil), m.contacts...),
		log:      m.log,
	}
	for i, p := range m.plates {
		out.plates[i] = p.Clone()
	}
	return out
}

// WithModule returns a copy of m with mod attached, replacing any module of
// the same name.
func (m *Model) WithModule(mod Module) (*Model, error) {
	if mod.Name == "" {
		return nil, fmt.Errorf("%w: module needs a name", ErrInvalidParameter)
	}
	for _, id := range mod.Plates() {
		if id < 0 || id >= len(m.plates) {
			return nil, fmt.Errorf("module %q: %w %d", mod.Name, ErrUnknownPlate, id)
		}
	}
	out := m.clone()
	for i, existing := range out.modules {
		if existing.Name == mod.Name {
			out.modules[i] = mod
			return out, nil
		}
	}
	out.modules = append(out.modules, mod)
	return out, nil
}

// selectPlates resolves an id list, where empty means every plate.
func (m *Model) selectPlates(ids []int) ([]int, error) {
	if len(ids) == 0 {
		all := make([]int, len(m.plates))
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	for _, id := range ids {
		if id < 0 || id >= len(m.plates) {
			return nil, fmt.Errorf("%w %d", ErrUnknownPlate, id)
		}
	}
	return ids, nil
}

// selectContacts resolves a pair filter, where empty means every contact.
func (m *Model) selectContacts(pairs [][2]int) ([]Contact, error) {
	if len(pairs) == 0 {
		return append([]Contact(nil), m.contacts...), nil
	}
	var out []Contact
	for _, pr := range pairs {
		for _, id := range pr {
			if id < 0 || id >= len(m.plates) {
				return nil, fmt.Errorf("pair %v: %w %d", pr, ErrUnknownPlate, id)
			}
		}
		found := false
		for _, c := range m.contacts {
			if c.Involves(pr[0]) && c.Involves(pr[1]) && pr[0] != pr[1] {
				out = append(out, c)
				found = true
				break
			}
		}
		if !found {
			m.log.Debug("requested pair has no contact", zap.Ints("pair", pr[:]))
		}
	}
	return out, nil
}

// Plates returns a copy of the plates.
func (m *Model) Plates() []Plate {
	out := make([]Plate, len(m.plates))
	for i, p := range m.plates {
		out[i] = p.Clone()
	}
	return out
}

// Plate returns the plate with the given id.
func (m *Model) Plate(id int) (Plate, bool) {
	if id < 0 || id >= len(m.plates) {
		return Plate{}, false
	}
	return m.plates[id].Clone(), true
}

// Pairs returns the adjacency pairs.
func (m *Model) Pairs() [][2]int { return append([][2]int(nil), m.pairs...) }

// Contacts returns the detected contacts, in pair order.
func (m *Model) Contacts() []Contact { return append([]Contact(nil), m.contacts...) }

// Tolerance returns the contact detection tolerances.
func (m *Model) Tolerance() Tolerance { return m.tol }

// Modules returns the assembly modules.
func (m *Model) Modules() []Module { return append([]Module(nil), m.modules...) }

func (m *Model) ContactZones() []geom.Polyline {
	out := make([]geom.Polyline, len(m.contacts))
	for i, c := range m.contacts {
		out[i] = c.Zone.Clone()
	}
	return out
}

func (m *Model) ContactPlanes() []geom.Plane {
	out := make([]geom.Plane, len(m.contacts))
	for i, c := range m.contacts {
		out[i] = c.Plane
	}
	return out
}

func (m *Model) ContactVectors() []r3.Vec {
	out := make([]r3.Vec, len(m.contacts))
	for i, c := range m.contacts {
		out[i] = c.Vector
	}
	return out
}

// ContactIDs lists, for every plate, the ids of the plates it touches.
func (m *Model) ContactIDs() [][]int {
	out := make([][]int, len(m.plates))
	for i := range out {
		out[i] = []int{}
	}
	for _, c := range m.contacts {
		out[c.Pair[0]] = append(out[c.Pair[0]], c.Pair[1])
		out[c.Pair[1]] = append(out[c.Pair[1]], c.Pair[0])
	}
	return out
}

func (m *Model) ContactPairs() [][2]int {
	out := make([][2]int, len(m.contacts))
	for i, c := range m.contacts {
		out[i] = c.Pair
	}
	return out
}

// ContactBreps extrudes every contact zone into a thin slab for display.
func (m *Model) ContactBreps(k kernel.Kernel) ([]kernel.Solid, error) {
	out := make([]kernel.Solid, len(m.contacts))
	for i, c := range m.contacts {
		pl := c.Plane
		s, err := k.Prism(toOutline(c.Zone.ToLocal(pl)), contactBrepThickness)
		if err != nil {
			return nil, fmt.Errorf("contact %s: %w", c, err)
		}
		out[i] = place(k, k.Translate(s, 0, 0, -contactBrepThickness/2), pl)
	}
	return out, nil
}

func (m *Model) ContactTypes() []ContactType {
	out := make([]ContactType, len(m.contacts))
	for i, c := range m.contacts {
		out[i] = c.Type
	}
	return out
}

func (m *Model) ContactStrings() []string {
	out := make([]string, len(m.contacts))
	for i, c := range m.contacts {
		out[i] = c.String()
	}
	return out
}

// ContactSpheres places a sphere on every contact centre with radius scale
// times the thinner plate of the pair.
func (m *Model) ContactSpheres(scale float64) []geom.Sphere {
	out := make([]geom.Sphere, len(m.contacts))
	for i, c := range m.contacts {
		t := math.Min(m.plates[c.Pair[0]].Thickness, m.plates[c.Pair[1]].Thickness)
		out[i] = geom.Sphere{Center: c.Center, Radius: scale * t}
	}
	return out
}

func (m *Model) ContactCenters() []r3.Vec {
	out := make([]r3.Vec, len(m.contacts))
	for i, c := range m.contacts {
		out[i] = c.Center
	}
	return out
}

// snapshot is the serialised form of a Model. Contacts are derived and are
// recomputed on load.
type snapshot struct {
	Plates    []Plate   `json:"plates"`
	Pairs     [][2]int  `json:"pairs"`
	Modules   []Module  `json:"modules,omitempty"`
	Tolerance Tolerance `json:"tolerance"`
}

// MarshalJSON implements json.Marshaler.
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		Plates:    m.plates,
		Pairs:     m.pairs,
		Modules:   m.modules,
		Tolerance: m.tol,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Model) UnmarshalJSON(b []byte) error {
	var s snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	built, err := New(s.Plates, s.Pairs, WithTolerance(s.Tolerance), WithModules(s.Modules...))
	if err != nil {
		return err
	}
	*m = *built
	return nil
}
