package export

import (
	"fmt"
	"io"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/rpaloschi/dxf-go/core"
	"github.com/rpaloschi/dxf-go/document"
	"github.com/rpaloschi/dxf-go/entities"
	"gonum.org/v1/gonum/spatial/r3"
)

// ReadDXFContours returns every POLYLINE of a DXF drawing as a contour. A
// closing vertex that repeats the first one is dropped; polylines with fewer
// than three distinct vertices are skipped.
func ReadDXFContours(r io.Reader) ([]geom.Polyline, error) {
	doc, err := document.DxfDocumentFromStream(r)
	if err != nil {
		return nil, fmt.Errorf("export: read dxf: %w", err)
	}
	var out []geom.Polyline
	for _, entity := range doc.Entities.Entities {
		polyline, ok := entity.(*entities.Polyline)
		if !ok {
			continue
		}
		pts := make([]core.Point, len(polyline.Vertices))
		for i, v := range polyline.Vertices {
			pts[i] = v.Location
		}
		if c := contour(pts); len(c) >= 3 {
			out = append(out, c)
		}
	}
	return out, nil
}

// contour converts DXF points, dropping consecutive duplicates and a
// repeated closing point.
func contour(pts []core.Point) geom.Polyline {
	var out geom.Polyline
	for _, p := range pts {
		v := r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
		if len(out) > 0 && geom.IsZero(r3.Sub(v, out[len(out)-1])) {
			continue
		}
		out = append(out, v)
	}
	if len(out) > 1 && geom.IsZero(r3.Sub(out[0], out[len(out)-1])) {
		out = out[:len(out)-1]
	}
	return out
}
