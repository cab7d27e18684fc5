// Package value implements the tagged-union value model consumed by the
// dispatch loop: nil, symbols, conses, strings, integers, floats, vectors,
// and the distinguished "unbound" sentinel.
package value

// Value is the interface implemented by every value the machine can push on
// the operand stack, store in a constant pool, or bind to a symbol.
type Value interface {
	// String returns a human-readable representation of the value, as used by
	// the disassembler and error messages.
	String() string

	// Type returns a short name for the value's type ("nil", "symbol", "cons",
	// "string", "integer", "float", "vector", "unbound").
	Type() string
}

// Identical reports whether x and y are the same value under the host
// language's "eq" identity relation: same pointer for heap-allocated types,
// same underlying value for nil, integers, and floats.
func Identical(x, y Value) bool {
	switch xv := x.(type) {
	case NilType:
		_, ok := y.(NilType)
		return ok
	case Integer:
		yv, ok := y.(Integer)
		return ok && xv == yv
	case Float:
		yv, ok := y.(Float)
		return ok && xv == yv
	case *Symbol:
		yv, ok := y.(*Symbol)
		return ok && xv == yv
	case *Cons:
		yv, ok := y.(*Cons)
		return ok && xv == yv
	case *String:
		yv, ok := y.(*String)
		return ok && xv == yv
	case *Vector:
		yv, ok := y.(*Vector)
		return ok && xv == yv
	case unboundType:
		_, ok := y.(unboundType)
		return ok
	default:
		return x == y
	}
}
