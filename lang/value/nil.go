package value

// NilType is the type of Nil. Represented as a byte, not struct{},
// so that Nil may be a typed constant.
type NilType byte

// Nil is the host language's empty list / false value.
const Nil = NilType(0)

var _ Value = Nil

func (NilType) String() string { return "nil" }
func (NilType) Type() string   { return "nil" }

// T is the canonical "true" symbol value.
var T = Intern("t")

// Truthy reports whether v is anything other than Nil, the only false value
// in the host language.
func Truthy(v Value) bool {
	_, isNil := v.(NilType)
	return !isNil
}

// Bool converts a Go boolean to the host language's T/Nil convention.
func Bool(b bool) Value {
	if b {
		return T
	}
	return Nil
}
