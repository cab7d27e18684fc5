package value

import "strconv"

// Float is the type of a floating point number.
type Float float64

var _ Value = Float(0)

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (f Float) Type() string   { return "float" }

// IsFloat reports whether v is a Float.
func IsFloat(v Value) bool {
	_, ok := v.(Float)
	return ok
}
