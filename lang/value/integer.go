package value

import "strconv"

// Integer is the type of an exact integer value.
type Integer int64

var _ Value = Integer(0)

func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }
func (i Integer) Type() string   { return "integer" }

// NewInteger constructs an Integer value from an int64.
func NewInteger(i int64) Value { return Integer(i) }

// IsInteger reports whether v is an Integer.
func IsInteger(v Value) bool {
	_, ok := v.(Integer)
	return ok
}
