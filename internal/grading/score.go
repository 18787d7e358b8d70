package grading

import (
	"encoding/json"
	"strconv"
)

// Value is an earned-points amount that may be Unknown (no graded submission).
// The zero value is Unknown.
type Value struct {
	points float64
	known  bool
}

// Unknown marks a score that cannot be determined yet.
var Unknown = Value{}

// Known wraps a resolved number of points.
func Known(points float64) Value { return Value{points: points, known: true} }

func (v Value) IsKnown() bool   { return v.known }
func (v Value) IsUnknown() bool { return !v.known }

// Points returns the resolved points and whether they are known.
func (v Value) Points() (float64, bool) { return v.points, v.known }

// Or returns the points, or def when the value is Unknown.
func (v Value) Or(def float64) float64 {
	if !v.known {
		return def
	}
	return v.points
}

// Add sums two values; Unknown on either side makes the result Unknown.
func (v Value) Add(o Value) Value {
	if !v.known || !o.known {
		return Unknown
	}
	return Known(v.points + o.points)
}

// Scale multiplies a known value; Unknown passes through untouched.
func (v Value) Scale(f float64) Value {
	if !v.known {
		return Unknown
	}
	return Known(v.points * f)
}

// Ratio divides by max. A zero max yields Known(0).
func (v Value) Ratio(max float64) Value {
	if !v.known {
		return Unknown
	}
	if max == 0 {
		return Known(0)
	}
	return Known(v.points / max)
}

func (v Value) String() string {
	if !v.known {
		return "unknown"
	}
	return strconv.FormatFloat(v.points, 'f', -1, 64)
}

// MarshalJSON encodes Unknown as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.known {
		return []byte("null"), nil
	}
	return json.Marshal(v.points)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Unknown
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Known(f)
	return nil
}
