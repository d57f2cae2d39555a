package plate

import (
	"fmt"
	"math"

	"github.com/chazu/lamina/pkg/geom"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// ContactType classifies how two plates meet.
type ContactType int

const (
	FaceToFace   ContactType = iota // FF: large faces touch
	SideToSide                      // SS: edges of both plates meet
	SideToFace                      // SF: an edge of one plate sits on the other's face
	Intersecting                    // IN: the plates cross each other
)

var contactTypeNames = map[ContactType]string{
	FaceToFace:   "FF",
	SideToSide:   "SS",
	SideToFace:   "SF",
	Intersecting: "IN",
}

func (t ContactType) String() string {
	if s, ok := contactTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ContactType(%d)", int(t))
}

// ParseContactType parses the two-letter contact code.
func ParseContactType(s string) (ContactType, error) {
	for t, name := range contactTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: contact type %q", ErrInvalidParameter, s)
}

// MarshalText implements encoding.TextMarshaler.
func (t ContactType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ContactType) UnmarshalText(b []byte) error {
	v, err := ParseContactType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Tolerance controls contact detection. Angle is in degrees.
type Tolerance struct {
	Distance float64 `json:"distance" yaml:"distance"`
	Angle    float64 `json:"angle" yaml:"angle"`
}

// DefaultTolerance is used when a model is built without explicit tolerances.
var DefaultTolerance = Tolerance{Distance: 0.5, Angle: 1}

// Contact is the derived relation between two adjacent plates.
type Contact struct {
	Pair [2]int      `json:"pair"`
	Type ContactType `json:"type"`
	// Mover is the plate that travels along Vector to close the joint.
	Mover  int           `json:"mover"`
	Zone   geom.Polyline `json:"zone"`
	Plane  geom.Plane    `json:"plane"`
	Vector r3.Vec        `json:"vector"`
	Edge   geom.Segment  `json:"edge"`
	Center r3.Vec        `json:"center"`
	// Depth is how far the fixed plate's material extends from the zone
	// along Vector (the overlap length for intersecting plates).
	Depth float64 `json:"depth"`
}

// String renders the contact as "(a,b) TYPE".
func (c Contact) String() string {
	return fmt.Sprintf("(%d,%d) %s", c.Pair[0], c.Pair[1], c.Type)
}

// Fixed returns the plate that stays put while Mover closes the joint.
func (c Contact) Fixed() int { return c.Other(c.Mover) }

// Involves reports whether id is one of the two plates.
func (c Contact) Involves(id int) bool { return c.Pair[0] == id || c.Pair[1] == id }

// Other returns the partner of id.
func (c Contact) Other(id int) int {
	if c.Pair[0] == id {
		return c.Pair[1]
	}
	return c.Pair[0]
}

// Space returns the direction plate id has to travel, relative to its
// partner, to close this contact.
func (c Contact) Space(id int) r3.Vec {
	if id == c.Mover {
		return c.Vector
	}
	return r3.Scale(-1, c.Vector)
}

// findContact classifies the relation between a and b. Parallel plates can
// only touch face to face; otherwise side contacts take precedence over
// crossings.
func findContact(a, b Plate, tol Tolerance) (Contact, bool) {
	if a.TopPlane.IsParallel(b.TopPlane, tol.Angle*math.Pi/180) {
		return faceContact(a, b, tol)
	}
	ab, okA := sideContact(a, b, tol)
	ba, okB := sideContact(b, a, tol)
	switch {
	case okA && okB:
		return sideToContact(a, b, ab, SideToSide, [2]int{a.ID, b.ID}), true
	case okA:
		return sideToContact(a, b, ab, SideToFace, [2]int{a.ID, b.ID}), true
	case okB:
		return sideToContact(b, a, ba, SideToFace, [2]int{a.ID, b.ID}), true
	}
	return intersectContact(a, b, tol)
}

func faceContact(a, b Plate, tol Tolerance) (Contact, bool) {
	nb := b.Normal()
	s := 1.0
	if r3.Dot(a.Normal(), nb) < 0 {
		s = -1
	}
	dTop := b.TopPlane.Distance(a.TopPlane.Origin)
	dBot := dTop - s*a.Thickness
	lo, hi := math.Min(dTop, dBot), math.Max(dTop, dBot)

	var w float64
	var vec r3.Vec
	switch {
	case math.Abs(lo) <= tol.Distance:
		w, vec = 0, r3.Scale(-1, nb)
	case math.Abs(hi+b.Thickness) <= tol.Distance:
		w, vec = -b.Thickness, nb
	default:
		return Contact{}, false
	}

	shared := b.TopPlane.Offset(w)
	zone2 := a.Contour.ToLocal(shared).ClipConvex(b.Contour.ToLocal(shared))
	if len(zone2) < 3 || math.Abs(zone2.Area()) <= tol.Distance*tol.Distance {
		return Contact{}, false
	}
	zone := zone2.ToWorld(shared, 0)
	edge := longestEdge(zone)
	center := zone.Centroid()
	return Contact{
		Pair:   [2]int{a.ID, b.ID},
		Type:   FaceToFace,
		Mover:  a.ID,
		Zone:   zone,
		Plane:  frame(center, edge.Direction(), vec),
		Vector: vec,
		Edge:   edge,
		Center: center,
		Depth:  b.Thickness,
	}, true
}

// sideHit is the part of one of m's side faces that lies inside f.
type sideHit struct {
	edge   int
	t0, t1 float64
	length float64
}

// sideContact looks for a side face of m lying inside f's thickness band and
// over f's outline. The longest such stretch wins.
func sideContact(m, f Plate, tol Tolerance) (sideHit, bool) {
	fb := f.TopPlane
	outline := f.Contour.ToLocal(fb).Offset(tol.Distance)
	inBand := func(p r3.Vec) bool {
		d := fb.Distance(p)
		return d <= tol.Distance && d >= -f.Thickness-tol.Distance
	}

	top := m.Contour
	bot := m.BottomContour()
	n := len(top)
	var best sideHit
	found := false
	for i := range top {
		j := (i + 1) % n
		if !inBand(top[i]) || !inBand(top[j]) || !inBand(bot[i]) || !inBand(bot[j]) {
			continue
		}
		m0 := mid(top[i], bot[i])
		m1 := mid(top[j], bot[j])
		t0, t1, ok := outline.ClipSegment(local2(fb, m0), local2(fb, m1))
		if !ok {
			continue
		}
		length := (t1 - t0) * r3.Norm(r3.Sub(top[j], top[i]))
		if length <= tol.Distance || (found && length <= best.length) {
			continue
		}
		best = sideHit{edge: i, t0: t0, t1: t1, length: length}
		found = true
	}
	return best, found
}

func sideToContact(m, f Plate, hit sideHit, typ ContactType, pair [2]int) Contact {
	top := m.Contour
	bot := m.BottomContour()
	i, j := hit.edge, (hit.edge+1)%len(top)
	topEdge := geom.Segment{A: top[i], B: top[j]}
	botEdge := geom.Segment{A: bot[i], B: bot[j]}
	p0, p1 := topEdge.At(hit.t0), topEdge.At(hit.t1)
	q0, q1 := botEdge.At(hit.t0), botEdge.At(hit.t1)
	m0, m1 := mid(p0, q0), mid(p1, q1)

	o := outwardNormal(m, i)
	center := mid(m0, m1)
	return Contact{
		Pair:   pair,
		Type:   typ,
		Mover:  m.ID,
		Zone:   geom.Polyline{p0, p1, q1, q0},
		Plane:  frame(center, r3.Sub(m1, m0), o),
		Vector: o,
		Edge:   geom.Segment{A: m0, B: m1},
		Center: center,
		Depth:  slabDepth(f, center, o),
	}
}

func intersectContact(a, b Plate, tol Tolerance) (Contact, bool) {
	ma, mb := a.MidPlane(), b.MidPlane()
	pt, dir, ok := ma.Intersect(mb)
	if !ok {
		return Contact{}, false
	}
	reach := r3.Norm(r3.Sub(pt, a.Centroid())) + r3.Norm(r3.Sub(pt, b.Centroid())) +
		a.Contour.Perimeter() + b.Contour.Perimeter()
	s0 := r3.Sub(pt, r3.Scale(reach, dir))
	s1 := r3.Add(pt, r3.Scale(reach, dir))

	ta0, ta1, okA := a.Contour.ToLocal(ma).ClipSegment(local2(ma, s0), local2(ma, s1))
	tb0, tb1, okB := b.Contour.ToLocal(mb).ClipSegment(local2(mb, s0), local2(mb, s1))
	if !okA || !okB {
		return Contact{}, false
	}
	t0, t1 := math.Max(ta0, tb0), math.Min(ta1, tb1)
	if (t1-t0)*2*reach <= tol.Distance {
		return Contact{}, false
	}
	line := geom.Segment{A: s0, B: s1}
	start, end := line.At(t0), line.At(t1)

	// Plates slide together along the shared line, downwards when possible.
	v := dir
	if v.Z > geom.Epsilon {
		v = r3.Scale(-1, v)
	}
	if r3.Dot(r3.Sub(end, start), v) < 0 {
		start, end = end, start
	}

	sin := r3.Norm(r3.Cross(a.Normal(), b.Normal()))
	w := r3.Scale(a.Thickness/(2*sin), geom.Unit(r3.Cross(b.Normal(), v)))
	center := mid(start, end)
	return Contact{
		Pair:  [2]int{a.ID, b.ID},
		Type:  Intersecting,
		Mover: a.ID,
		Zone: geom.Polyline{
			r3.Sub(start, w), r3.Sub(end, w), r3.Add(end, w), r3.Add(start, w),
		},
		Plane:  frame(center, v, b.Normal()),
		Vector: v,
		Edge:   geom.Segment{A: start, B: end},
		Center: center,
		Depth:  r3.Norm(r3.Sub(end, start)),
	}, true
}

// outwardNormal returns the unit normal of contour edge i that lies in the
// plate plane and points away from the plate.
func outwardNormal(p Plate, i int) r3.Vec {
	n := len(p.Contour)
	d := r3.Sub(p.Contour[(i+1)%n], p.Contour[i])
	o := geom.Unit(r3.Cross(d, p.Normal()))
	if p.Contour.ToLocal(p.TopPlane).Area() < 0 {
		o = r3.Scale(-1, o)
	}
	return o
}

// slabDepth measures how far f's material extends from c along dir.
func slabDepth(f Plate, c, dir r3.Vec) float64 {
	k := r3.Dot(dir, f.Normal())
	if math.Abs(k) < 1e-6 {
		return f.Thickness
	}
	d := f.TopPlane.Distance(c)
	var depth float64
	if k < 0 {
		depth = (d + f.Thickness) / -k
	} else {
		depth = -d / k
	}
	if depth <= geom.Epsilon {
		depth = f.Thickness / math.Abs(k)
	}
	return depth
}

// frame builds a plane at origin with the given normal whose X axis is x
// made orthogonal to it.
func frame(origin, x, normal r3.Vec) geom.Plane {
	n := geom.Unit(normal)
	x = geom.Unit(r3.Sub(x, r3.Scale(r3.Dot(x, n), n)))
	if geom.IsZero(x) {
		return geom.NewPlane(origin, n)
	}
	return geom.Plane{Origin: origin, XAxis: x, YAxis: r3.Cross(n, x), Normal: n}
}

func longestEdge(pl geom.Polyline) geom.Segment {
	var best geom.Segment
	for _, e := range pl.Edges() {
		if e.Length() > best.Length() {
			best = e
		}
	}
	return best
}

func mid(a, b r3.Vec) r3.Vec { return r3.Scale(0.5, r3.Add(a, b)) }

func local2(pl geom.Plane, p r3.Vec) r2.Vec {
	l := pl.ToLocal(p)
	return r2.Vec{X: l.X, Y: l.Y}
}
