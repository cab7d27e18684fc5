package value

// unboundType is the type of the Unbound sentinel. It must be distinguishable
// from every other value, including Nil, so that a symbol's plain-value cell
// can record "never assigned" without colliding with a legitimate nil value.
type unboundType struct{}

// Unbound is the sentinel stored in a fresh symbol's value cell.
var Unbound Value = unboundType{}

func (unboundType) String() string { return "#<unbound>" }
func (unboundType) Type() string   { return "unbound" }

// IsUnbound reports whether v is the Unbound sentinel.
func IsUnbound(v Value) bool {
	_, ok := v.(unboundType)
	return ok
}
