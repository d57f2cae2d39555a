// Package tessellate turns plate models into triangle meshes using a
// geometry kernel. One mesh is produced per plate.
package tessellate

import (
	"fmt"

	"github.com/chazu/lamina/pkg/kernel"
	"github.com/chazu/lamina/pkg/plate"
)

// Tessellate produces one triangle mesh per plate of the model, in plate
// order. The tessellator is read-only and never mutates the model.
func Tessellate(pm plate.PlateModel, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if pm == nil {
		return nil, nil
	}
	return Plates(pm.Plates(), k)
}

// Plates meshes the given plates. Each mesh is named after its plate.
func Plates(plates []plate.Plate, k kernel.Kernel) ([]*kernel.Mesh, error) {
	meshes := make([]*kernel.Mesh, 0, len(plates))
	for _, p := range plates {
		s, err := p.Brep(k)
		if err != nil {
			return nil, fmt.Errorf("tessellate: brep for %s: %w", p.Label(), err)
		}
		mesh, err := k.ToMesh(s)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for %s: %w", p.Label(), err)
		}
		mesh.PartName = p.Label()
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// Contacts meshes the contact zones of the model as thin slabs, named after
// the contact ("(0,1) SF").
func Contacts(pm plate.PlateModel, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if pm == nil {
		return nil, nil
	}
	breps, err := pm.ContactBreps(k)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	names := pm.ContactStrings()
	meshes := make([]*kernel.Mesh, 0, len(breps))
	for i, s := range breps {
		mesh, err := k.ToMesh(s)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for contact %s: %w", names[i], err)
		}
		mesh.PartName = names[i]
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}
