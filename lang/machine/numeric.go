package machine

import (
	"github.com/mna/dynexec/lang/dynerr"
	"github.com/mna/dynexec/lang/value"
)

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

func numCompare(a, b value.Value, intOp func(a, b int64) bool, floatOp func(a, b float64) bool) (value.Value, error) {
	ai, aIsInt := a.(value.Integer)
	bi, bIsInt := b.(value.Integer)
	if aIsInt && bIsInt {
		return value.Bool(intOp(int64(ai), int64(bi))), nil
	}
	af, ok1 := asFloat(a)
	bf, ok2 := asFloat(b)
	if !ok1 {
		return nil, &dynerr.WrongTypeArgumentError{Expected: "numberp", Got: a}
	}
	if !ok2 {
		return nil, &dynerr.WrongTypeArgumentError{Expected: "numberp", Got: b}
	}
	return value.Bool(floatOp(af, bf)), nil
}

func numNegate(v value.Value) (value.Value, error) {
	switch n := v.(type) {
	case value.Integer:
		return value.NewInteger(-int64(n)), nil
	case value.Float:
		return value.Float(-float64(n)), nil
	default:
		return nil, &dynerr.WrongTypeArgumentError{Expected: "numberp", Got: v}
	}
}

func numAdd1(v value.Value, delta int64) (value.Value, error) {
	switch n := v.(type) {
	case value.Integer:
		return value.NewInteger(int64(n) + delta), nil
	case value.Float:
		return value.Float(float64(n) + float64(delta)), nil
	default:
		return nil, &dynerr.WrongTypeArgumentError{Expected: "numberp", Got: v}
	}
}
