package value

import "fmt"

// Vector is a mutable, fixed-length, random-access sequence of values.
type Vector struct {
	Elems []Value
}

var _ Value = (*Vector)(nil)

// NewVector allocates a Vector with the given elements (not copied).
func NewVector(elems []Value) *Vector { return &Vector{Elems: elems} }

func (v *Vector) String() string { return fmt.Sprintf("#<vector len=%d>", len(v.Elems)) }
func (v *Vector) Type() string   { return "vector" }
func (v *Vector) Len() int       { return len(v.Elems) }

// IsVector reports whether v is a Vector.
func IsVector(v Value) bool {
	_, ok := v.(*Vector)
	return ok
}
