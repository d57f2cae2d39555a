package geom

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// GravityVector is the direction a Gravity marker resolves to.
var GravityVector = r3.Vec{Z: -1}

// Direction is either an explicit vector or the gravity marker. The zero
// value is the gravity marker.
type Direction struct {
	explicit bool
	vec      r3.Vec
}

// Gravity returns the gravity marker.
func Gravity() Direction { return Direction{} }

// Vector returns an explicit direction. A zero vector yields gravity.
func Vector(v r3.Vec) Direction {
	if IsZero(v) {
		return Direction{}
	}
	return Direction{explicit: true, vec: v}
}

// IsGravity reports whether d is the gravity marker.
func (d Direction) IsGravity() bool { return !d.explicit }

// Resolve returns the unit vector d stands for.
func (d Direction) Resolve() r3.Vec {
	if !d.explicit {
		return GravityVector
	}
	return Unit(d.vec)
}

func (d Direction) String() string {
	if !d.explicit {
		return "gravity"
	}
	return fmt.Sprintf("%g,%g,%g", d.vec.X, d.vec.Y, d.vec.Z)
}

// ParseDirection accepts "gravity" (any case) or three comma separated
// components.
func ParseDirection(s string) (Direction, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "gravity") || s == "" {
		return Gravity(), nil
	}
	parts := strings.Split(strings.Trim(s, "()[]"), ",")
	if len(parts) != 3 {
		return Direction{}, fmt.Errorf("geom: direction %q: want \"gravity\" or x,y,z", s)
	}
	var c [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Direction{}, fmt.Errorf("geom: direction %q: %w", s, err)
		}
		c[i] = f
	}
	return Vector(r3.Vec{X: c[0], Y: c[1], Z: c[2]}), nil
}

// MarshalJSON encodes gravity as the string "gravity" and vectors as an
// [x,y,z] array.
func (d Direction) MarshalJSON() ([]byte, error) {
	if !d.explicit {
		return json.Marshal("gravity")
	}
	return json.Marshal([3]float64{d.vec.X, d.vec.Y, d.vec.Z})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (d *Direction) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		parsed, err := ParseDirection(s)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	var v [3]float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("geom: direction: %w", err)
	}
	*d = Vector(r3.Vec{X: v[0], Y: v[1], Z: v[2]})
	return nil
}
