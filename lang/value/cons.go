package value

import "fmt"

// Cons is a mutable pair, the building block of lists.
type Cons struct {
	Car Value
	Cdr Value
}

var _ Value = (*Cons)(nil)

func (c *Cons) String() string { return fmt.Sprintf("(%s . %s)", c.Car, c.Cdr) }
func (c *Cons) Type() string   { return "cons" }

// IsCons reports whether v is a Cons.
func IsCons(v Value) bool {
	_, ok := v.(*Cons)
	return ok
}

// List builds a proper list terminated by Nil from elems, in order.
func List(elems ...Value) Value {
	var out Value = Nil
	for i := len(elems) - 1; i >= 0; i-- {
		out = &Cons{Car: elems[i], Cdr: out}
	}
	return out
}

// ListToSlice collects the elements of a proper list into a slice. It stops
// at the first non-Cons cdr (so an improper list yields only its proper
// prefix).
func ListToSlice(v Value) []Value {
	var out []Value
	for {
		c, ok := v.(*Cons)
		if !ok {
			break
		}
		out = append(out, c.Car)
		v = c.Cdr
	}
	return out
}
