package plate

import (
	"fmt"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/kernel"
	"github.com/chazu/lamina/pkg/sequence"
	"gonum.org/v1/gonum/spatial/r3"
)

// Module is a named assembly sequence over the model's plates.
type Module struct {
	Name      string         `json:"name"`
	Sequence  sequence.Node  `json:"sequence"`
	Insertion geom.Direction `json:"insertion"`
}

// NewModule parses seq and builds a module.
func NewModule(name, seq string, insertion geom.Direction) (Module, error) {
	n, err := sequence.Parse(seq)
	if err != nil {
		return Module{}, fmt.Errorf("module %q: %w", name, err)
	}
	return Module{Name: name, Sequence: n, Insertion: insertion}, nil
}

// Plates returns the plate indices in assembly order.
func (m Module) Plates() []int { return m.Sequence.Flatten() }

// Assembly is a module evaluated against a model: for every plate in
// sequence order, the neighbours already in place, the direction each of
// those contacts allows, and the chosen insertion vector.
type Assembly struct {
	Module    Module     `json:"module"`
	Order     []int      `json:"order"`
	Steps     [][]int    `json:"steps"`
	Vectors   []r3.Vec   `json:"vectors"`
	Relatives [][]int    `json:"relatives"`
	Spaces    [][]r3.Vec `json:"spaces"`
	// Blocked lists plates whose insertion vector runs against one of
	// their spaces.
	Blocked []int   `json:"blocked"`
	Plates  []Plate `json:"-"`
}

// Count is the number of plates in the sequence.
func (a Assembly) Count() int { return len(a.Order) }

// Position returns the sequence index of plate id, or -1.
func (a Assembly) Position(id int) int {
	for i, o := range a.Order {
		if o == id {
			return i
		}
	}
	return -1
}

// Breps returns the plate solids in sequence order.
func (a Assembly) Breps(k kernel.Kernel) ([]kernel.Solid, error) {
	out := make([]kernel.Solid, len(a.Plates))
	for i, p := range a.Plates {
		s, err := p.Brep(k)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// Module evaluates the named module. A plate without placed neighbours is
// inserted along the module's insertion direction (gravity by default);
// otherwise along the mean of its contact spaces.
func (m *Model) Module(name string) (Assembly, error) {
	var mod *Module
	for i := range m.modules {
		if m.modules[i].Name == name {
			mod = &m.modules[i]
			break
		}
	}
	if mod == nil {
		return Assembly{}, fmt.Errorf("%w %q", ErrUnknownModule, name)
	}

	order := mod.Plates()
	a := Assembly{
		Module:    *mod,
		Order:     order,
		Steps:     mod.Sequence.Steps(),
		Vectors:   make([]r3.Vec, len(order)),
		Relatives: make([][]int, len(order)),
		Spaces:    make([][]r3.Vec, len(order)),
		Blocked:   []int{},
		Plates:    make([]Plate, len(order)),
	}
	placed := make(map[int]bool, len(order))
	for i, id := range order {
		if id < 0 || id >= len(m.plates) {
			return Assembly{}, fmt.Errorf("module %q: %w %d", name, ErrUnknownPlate, id)
		}
		if placed[id] {
			return Assembly{}, fmt.Errorf("module %q: %w: plate %d appears twice", name, ErrInvalidParameter, id)
		}
		a.Plates[i] = m.plates[id].Clone()
		a.Relatives[i] = []int{}
		a.Spaces[i] = []r3.Vec{}

		var sum r3.Vec
		for _, c := range m.contacts {
			if !c.Involves(id) || !placed[c.Other(id)] {
				continue
			}
			s := c.Space(id)
			a.Relatives[i] = append(a.Relatives[i], c.Other(id))
			a.Spaces[i] = append(a.Spaces[i], s)
			sum = r3.Add(sum, s)
		}

		v := geom.Unit(sum)
		if geom.IsZero(v) {
			v = mod.Insertion.Resolve()
		}
		a.Vectors[i] = v
		for _, s := range a.Spaces[i] {
			if r3.Dot(v, s) <= geom.Epsilon {
				a.Blocked = append(a.Blocked, id)
				break
			}
		}
		placed[id] = true
	}
	return a, nil
}
