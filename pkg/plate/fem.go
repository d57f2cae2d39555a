package plate

import (
	"github.com/chazu/lamina/pkg/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// FEMPlate is the shell description of a plate for structural analysis:
// its mid surface and thickness.
type FEMPlate struct {
	ID        int           `json:"id"`
	Plane     geom.Plane    `json:"plane"`
	Contour   geom.Polyline `json:"contour"`
	Thickness float64       `json:"thickness"`
}

// FEMJoint is a connection between two shells.
type FEMJoint struct {
	Pair   [2]int        `json:"pair"`
	Type   ContactType   `json:"type"`
	Center r3.Vec        `json:"center"`
	Plane  geom.Plane    `json:"plane"`
	Zone   geom.Polyline `json:"zone"`
	Vector r3.Vec        `json:"vector"`
}

func (m *Model) FEMPlates() []FEMPlate {
	out := make([]FEMPlate, len(m.plates))
	for i, p := range m.plates {
		out[i] = FEMPlate{
			ID:        p.ID,
			Plane:     p.MidPlane(),
			Contour:   p.MidContour(),
			Thickness: p.Thickness,
		}
	}
	return out
}

func (m *Model) FEMJoints() []FEMJoint {
	out := make([]FEMJoint, len(m.contacts))
	for i, c := range m.contacts {
		out[i] = FEMJoint{
			Pair:   c.Pair,
			Type:   c.Type,
			Center: c.Center,
			Plane:  c.Plane,
			Zone:   c.Zone.Clone(),
			Vector: c.Vector,
		}
	}
	return out
}
