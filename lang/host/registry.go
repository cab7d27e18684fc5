package host

import (
	"github.com/dolthub/swiss"
	"github.com/mna/dynexec/lang/dynerr"
	"github.com/mna/dynexec/lang/value"
	"golang.org/x/exp/slices"
)

// Primitive is a named host function invokable by the CALL family or by a
// generic funcall from Lisp-level code.
type Primitive func(args []value.Value) (value.Value, error)

// Registry is the set of named primitives the dispatch loop's fast-path
// opcodes (CAR, CDR, CONSP, ...) and the generic CALL opcode delegate to.
type Registry struct {
	byName *swiss.Map[string, Primitive]
}

// NewRegistry returns a Registry pre-populated with the standard primitive
// set backing the named opcodes.
func NewRegistry() *Registry {
	r := &Registry{byName: swiss.NewMap[string, Primitive](64)}
	r.registerCore()
	return r
}

// Register adds or replaces the primitive bound to name.
func (r *Registry) Register(name string, fn Primitive) { r.byName.Put(name, fn) }

// Lookup returns the primitive bound to name, or false if none is
// registered.
func (r *Registry) Lookup(name string) (Primitive, bool) { return r.byName.Get(name) }

// Names returns every registered primitive name, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, r.byName.Count())
	r.byName.Iter(func(k string, _ Primitive) (stop bool) {
		out = append(out, k)
		return false
	})
	slices.Sort(out)
	return out
}

func arity(args []value.Value, n int) error {
	if len(args) != n {
		return &dynerr.WrongArgCountError{Mandatory: n, NonRest: n, Got: len(args)}
	}
	return nil
}

func (r *Registry) registerCore() {
	r.Register("car", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		c, ok := args[0].(*value.Cons)
		if !ok {
			if args[0] == value.Nil {
				return value.Nil, nil
			}
			return nil, &dynerr.WrongTypeArgumentError{Expected: "listp", Got: args[0]}
		}
		return c.Car, nil
	})
	r.Register("cdr", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		c, ok := args[0].(*value.Cons)
		if !ok {
			if args[0] == value.Nil {
				return value.Nil, nil
			}
			return nil, &dynerr.WrongTypeArgumentError{Expected: "listp", Got: args[0]}
		}
		return c.Cdr, nil
	})
	r.Register("cons", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		return &value.Cons{Car: args[0], Cdr: args[1]}, nil
	})
	r.Register("eq", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		return value.Bool(value.Identical(args[0], args[1])), nil
	})
	r.Register("not", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		return value.Bool(!value.Truthy(args[0])), nil
	})
	r.Register("consp", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		return value.Bool(value.IsCons(args[0])), nil
	})
	r.Register("stringp", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		return value.Bool(value.IsString(args[0])), nil
	})
	r.Register("listp", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		return value.Bool(args[0] == value.Nil || value.IsCons(args[0])), nil
	})
	r.Register("symbolp", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		return value.Bool(value.IsSymbol(args[0]) || args[0] == value.Nil), nil
	})
	r.Register("numberp", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		return value.Bool(value.IsInteger(args[0]) || value.IsFloat(args[0])), nil
	})
	r.Register("integerp", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		return value.Bool(value.IsInteger(args[0])), nil
	})
	r.Register("length", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case value.NilType:
			return value.NewInteger(0), nil
		case *value.Cons:
			n := 0
			var cur value.Value = v
			for {
				c, ok := cur.(*value.Cons)
				if !ok {
					break
				}
				n++
				cur = c.Cdr
			}
			return value.NewInteger(int64(n)), nil
		case *value.String:
			return value.NewInteger(int64(v.Len())), nil
		case *value.Vector:
			return value.NewInteger(int64(v.Len())), nil
		default:
			return nil, &dynerr.WrongTypeArgumentError{Expected: "sequencep", Got: v}
		}
	})
	r.Register("nreverse", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		var prev value.Value = value.Nil
		cur := args[0]
		for {
			c, ok := cur.(*value.Cons)
			if !ok {
				break
			}
			next := c.Cdr
			c.Cdr = prev
			prev = c
			cur = next
		}
		return prev, nil
	})
	r.Register("setcar", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		c, ok := args[0].(*value.Cons)
		if !ok {
			return nil, &dynerr.WrongTypeArgumentError{Expected: "consp", Got: args[0]}
		}
		c.Car = args[1]
		return args[1], nil
	})
	r.Register("setcdr", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		c, ok := args[0].(*value.Cons)
		if !ok {
			return nil, &dynerr.WrongTypeArgumentError{Expected: "consp", Got: args[0]}
		}
		c.Cdr = args[1]
		return args[1], nil
	})
	r.Register("memq", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		cur := args[1]
		for {
			c, ok := cur.(*value.Cons)
			if !ok {
				return value.Nil, nil
			}
			if value.Identical(c.Car, args[0]) {
				return c, nil
			}
			cur = c.Cdr
		}
	})
	r.Register("member", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		cur := args[1]
		for {
			c, ok := cur.(*value.Cons)
			if !ok {
				return value.Nil, nil
			}
			if equal(c.Car, args[0]) {
				return c, nil
			}
			cur = c.Cdr
		}
	})
	r.Register("assq", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		cur := args[1]
		for {
			c, ok := cur.(*value.Cons)
			if !ok {
				return value.Nil, nil
			}
			if pair, ok := c.Car.(*value.Cons); ok && value.Identical(pair.Car, args[0]) {
				return pair, nil
			}
			cur = c.Cdr
		}
	})
	r.Register("nth", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		n, ok := args[0].(value.Integer)
		if !ok {
			return nil, &dynerr.WrongTypeArgumentError{Expected: "integerp", Got: args[0]}
		}
		cur := args[1]
		for i := int64(0); i < int64(n); i++ {
			c, ok := cur.(*value.Cons)
			if !ok {
				return value.Nil, nil
			}
			cur = c.Cdr
		}
		if c, ok := cur.(*value.Cons); ok {
			return c.Car, nil
		}
		return value.Nil, nil
	})
	r.Register("nthcdr", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		n, ok := args[0].(value.Integer)
		if !ok {
			return nil, &dynerr.WrongTypeArgumentError{Expected: "integerp", Got: args[0]}
		}
		cur := args[1]
		for i := int64(0); i < int64(n); i++ {
			c, ok := cur.(*value.Cons)
			if !ok {
				return value.Nil, nil
			}
			cur = c.Cdr
		}
		return cur, nil
	})
	r.Register("aref", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		n, ok := args[1].(value.Integer)
		if !ok {
			return nil, &dynerr.WrongTypeArgumentError{Expected: "integerp", Got: args[1]}
		}
		switch v := args[0].(type) {
		case *value.Vector:
			if int(n) < 0 || int(n) >= v.Len() {
				return nil, &dynerr.WrongTypeArgumentError{Expected: "array-in-bounds", Got: v}
			}
			return v.Elems[int(n)], nil
		case *value.String:
			if int(n) < 0 || int(n) >= v.Len() {
				return nil, &dynerr.WrongTypeArgumentError{Expected: "array-in-bounds", Got: v}
			}
			return value.NewInteger(int64(v.Data[int(n)])), nil
		default:
			return nil, &dynerr.WrongTypeArgumentError{Expected: "arrayp", Got: v}
		}
	})
	r.Register("aset", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 3); err != nil {
			return nil, err
		}
		n, ok := args[1].(value.Integer)
		if !ok {
			return nil, &dynerr.WrongTypeArgumentError{Expected: "integerp", Got: args[1]}
		}
		v, ok := args[0].(*value.Vector)
		if !ok {
			return nil, &dynerr.WrongTypeArgumentError{Expected: "arrayp", Got: args[0]}
		}
		if int(n) < 0 || int(n) >= v.Len() {
			return nil, &dynerr.WrongTypeArgumentError{Expected: "array-in-bounds", Got: v}
		}
		v.Elems[int(n)] = args[2]
		return args[2], nil
	})
	r.Register("substring", func(args []value.Value) (value.Value, error) {
		if len(args) != 3 {
			return nil, &dynerr.WrongArgCountError{Mandatory: 3, NonRest: 3, Got: len(args)}
		}
		s, ok := args[0].(*value.String)
		if !ok {
			return nil, &dynerr.WrongTypeArgumentError{Expected: "stringp", Got: args[0]}
		}
		from, ok1 := args[1].(value.Integer)
		to, ok2 := args[2].(value.Integer)
		if !ok1 || !ok2 {
			return nil, &dynerr.WrongTypeArgumentError{Expected: "integerp", Got: s}
		}
		if from < 0 || to > value.Integer(s.Len()) || from > to {
			return nil, &dynerr.WrongTypeArgumentError{Expected: "args-in-range", Got: s}
		}
		return &value.String{Data: append([]byte(nil), s.Data[int(from):int(to)]...)}, nil
	})
	r.Register("concat", func(args []value.Value) (value.Value, error) {
		var out []byte
		for _, a := range args {
			s, ok := a.(*value.String)
			if !ok {
				return nil, &dynerr.WrongTypeArgumentError{Expected: "stringp", Got: a}
			}
			out = append(out, s.Data...)
		}
		return &value.String{Data: out}, nil
	})
	r.Register("list", func(args []value.Value) (value.Value, error) {
		return value.List(args...), nil
	})
	r.Register("car-safe", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		if c, ok := args[0].(*value.Cons); ok {
			return c.Car, nil
		}
		return value.Nil, nil
	})
	r.Register("cdr-safe", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		if c, ok := args[0].(*value.Cons); ok {
			return c.Cdr, nil
		}
		return value.Nil, nil
	})
	r.Register("elt", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		switch args[0].(type) {
		case *value.Vector, *value.String:
			fn, _ := r.Lookup("aref")
			return fn(args)
		default:
			fn, _ := r.Lookup("nth")
			return fn([]value.Value{args[1], args[0]})
		}
	})
	r.Register("null", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		return value.Bool(args[0] == value.Nil), nil
	})
	r.Register("+", variadicNum(0, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }))
	r.Register("*", variadicNum(1, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }))
	r.Register("-", func(args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return nil, &dynerr.WrongArgCountError{Mandatory: 1, NonRest: 1, Got: 0}
		}
		if len(args) == 1 {
			return numUnary(args[0], func(x int64) int64 { return -x }, func(x float64) float64 { return -x })
		}
		acc := args[0]
		for _, v := range args[1:] {
			next, err := numBinOp(acc, v, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
			if err != nil {
				return nil, err
			}
			acc = next
		}
		return acc, nil
	})
	r.Register("/", func(args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return nil, &dynerr.WrongArgCountError{Mandatory: 2, NonRest: 2, Got: len(args)}
		}
		acc := args[0]
		for _, v := range args[1:] {
			next, err := numBinOp(acc, v, func(a, b int64) int64 { return a / b }, func(a, b float64) float64 { return a / b })
			if err != nil {
				return nil, err
			}
			acc = next
		}
		return acc, nil
	})
	r.Register("1+", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		return numUnary(args[0], func(x int64) int64 { return x + 1 }, func(x float64) float64 { return x + 1 })
	})
	r.Register("1-", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		return numUnary(args[0], func(x int64) int64 { return x - 1 }, func(x float64) float64 { return x - 1 })
	})
	r.Register("=", compareChain(func(a, b int64) bool { return a == b }, func(a, b float64) bool { return a == b }))
	r.Register("<", compareChain(func(a, b int64) bool { return a < b }, func(a, b float64) bool { return a < b }))
	r.Register(">", compareChain(func(a, b int64) bool { return a > b }, func(a, b float64) bool { return a > b }))
	r.Register("<=", compareChain(func(a, b int64) bool { return a <= b }, func(a, b float64) bool { return a <= b }))
	r.Register(">=", compareChain(func(a, b int64) bool { return a >= b }, func(a, b float64) bool { return a >= b }))
	r.Register("make-hash-table", func(args []value.Value) (value.Value, error) {
		if len(args) > 1 {
			return nil, &dynerr.WrongArgCountError{Mandatory: 0, NonRest: 1, Got: len(args)}
		}
		size := 8
		if len(args) == 1 {
			n, ok := args[0].(value.Integer)
			if !ok {
				return nil, &dynerr.WrongTypeArgumentError{Expected: "integerp", Got: args[0]}
			}
			size = int(n)
		}
		return value.NewHashTable(size), nil
	})
	r.Register("puthash", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 3); err != nil {
			return nil, err
		}
		ht, ok := args[2].(*value.HashTable)
		if !ok {
			return nil, &dynerr.WrongTypeArgumentError{Expected: "hash-table-p", Got: args[2]}
		}
		ht.Put(args[0], args[1])
		return args[1], nil
	})
	r.Register("gethash", func(args []value.Value) (value.Value, error) {
		if len(args) < 2 || len(args) > 3 {
			return nil, &dynerr.WrongArgCountError{Mandatory: 2, NonRest: 3, Got: len(args)}
		}
		ht, ok := args[1].(*value.HashTable)
		if !ok {
			return nil, &dynerr.WrongTypeArgumentError{Expected: "hash-table-p", Got: args[1]}
		}
		if v, ok := ht.Get(args[0]); ok {
			return v, nil
		}
		if len(args) == 3 {
			return args[2], nil
		}
		return value.Nil, nil
	})
	r.Register("throw", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		Throw(Signal{Tag: args[0], Value: args[1]})
		return nil, nil // unreachable: Throw always panics
	})
	r.Register("signal", func(args []value.Value) (value.Value, error) {
		if err := arity(args, 2); err != nil {
			return nil, err
		}
		Throw(Signal{Value: &value.Cons{Car: args[0], Cdr: args[1]}})
		return nil, nil // unreachable: Throw always panics
	})
}

// numUnary applies an int64 or float64 op to v, matching the fast-path
// arithmetic opcodes' float-coercion rule.
func numUnary(v value.Value, intOp func(int64) int64, floatOp func(float64) float64) (value.Value, error) {
	switch n := v.(type) {
	case value.Integer:
		return value.NewInteger(intOp(int64(n))), nil
	case value.Float:
		return value.Float(floatOp(float64(n))), nil
	default:
		return nil, &dynerr.WrongTypeArgumentError{Expected: "numberp", Got: v}
	}
}

// numBinOp is the generic two-argument arithmetic building block shared by
// the "+ - * /" registry primitives, mirroring the dispatch loop's own
// int/float coercion (machine.numBinOp, kept independent here since lang/host
// cannot import lang/machine).
func numBinOp(a, b value.Value, intOp func(a, b int64) int64, floatOp func(a, b float64) float64) (value.Value, error) {
	ai, aIsInt := a.(value.Integer)
	bi, bIsInt := b.(value.Integer)
	if aIsInt && bIsInt {
		return value.NewInteger(intOp(int64(ai), int64(bi))), nil
	}
	af, ok1 := asFloat(a)
	bf, ok2 := asFloat(b)
	if !ok1 {
		return nil, &dynerr.WrongTypeArgumentError{Expected: "numberp", Got: a}
	}
	if !ok2 {
		return nil, &dynerr.WrongTypeArgumentError{Expected: "numberp", Got: b}
	}
	return value.Float(floatOp(af, bf)), nil
}

func asFloat(v value.Value) (float64, bool) {
	switch n := v.(type) {
	case value.Integer:
		return float64(n), true
	case value.Float:
		return float64(n), true
	default:
		return 0, false
	}
}

// variadicNum builds a fold-left primitive over any number of numeric
// arguments, returning identity when called with none (Lisp's (+) => 0,
// (*) => 1).
func variadicNum(identity int64, intOp func(a, b int64) int64, floatOp func(a, b float64) float64) Primitive {
	return func(args []value.Value) (value.Value, error) {
		acc := value.Value(value.NewInteger(identity))
		for _, v := range args {
			next, err := numBinOp(acc, v, intOp, floatOp)
			if err != nil {
				return nil, err
			}
			acc = next
		}
		return acc, nil
	}
}

// compareChain builds a primitive checking that every adjacent pair in args
// satisfies intOp/floatOp, as in Lisp's chained "(< a b c)".
func compareChain(intOp func(a, b int64) bool, floatOp func(a, b float64) bool) Primitive {
	return func(args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return nil, &dynerr.WrongArgCountError{Mandatory: 2, NonRest: 2, Got: len(args)}
		}
		for i := 0; i+1 < len(args); i++ {
			a, b := args[i], args[i+1]
			ai, aIsInt := a.(value.Integer)
			bi, bIsInt := b.(value.Integer)
			var ok bool
			if aIsInt && bIsInt {
				ok = intOp(int64(ai), int64(bi))
			} else {
				af, ok1 := asFloat(a)
				bf, ok2 := asFloat(b)
				if !ok1 {
					return nil, &dynerr.WrongTypeArgumentError{Expected: "numberp", Got: a}
				}
				if !ok2 {
					return nil, &dynerr.WrongTypeArgumentError{Expected: "numberp", Got: b}
				}
				ok = floatOp(af, bf)
			}
			if !ok {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	}
}

// equal implements structural (not identity) comparison, used by MEMBER.
func equal(a, b value.Value) bool {
	if value.Identical(a, b) {
		return true
	}
	switch av := a.(type) {
	case *value.String:
		bv, ok := b.(*value.String)
		return ok && string(av.Data) == string(bv.Data)
	case *value.Cons:
		bv, ok := b.(*value.Cons)
		return ok && equal(av.Car, bv.Car) && equal(av.Cdr, bv.Cdr)
	case *value.Vector:
		bv, ok := b.(*value.Vector)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for i := range av.Elems {
			if !equal(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
