package machine

import (
	"github.com/mna/dynexec/lang/bytecode"
	"github.com/mna/dynexec/lang/dynerr"
	"github.com/mna/dynexec/lang/value"
)

// unpackArgs lays out actuals on a freshly created frame's stack according
// to a's packed descriptor: the mandatory prefix and the optional
// non-rest prefix are pushed positionally, padding missing optionals with
// Nil; if a.HasRest, everything beyond the non-rest prefix is collected
// into a single proper list and pushed as one value. Too few mandatory
// actuals, or too many with no rest slot, is a WrongArgCountError.
func unpackArgs(a bytecode.Arity, actuals []value.Value) ([]value.Value, error) {
	mandatory, nonrest, hasRest := a.Mandatory(), a.NonRest(), a.HasRest()
	if len(actuals) < mandatory {
		return nil, &dynerr.WrongArgCountError{Mandatory: mandatory, NonRest: nonrest, HasRest: hasRest, Got: len(actuals)}
	}
	if !hasRest && len(actuals) > nonrest {
		return nil, &dynerr.WrongArgCountError{Mandatory: mandatory, NonRest: nonrest, HasRest: hasRest, Got: len(actuals)}
	}

	out := make([]value.Value, 0, nonrest+1)
	for i := 0; i < nonrest; i++ {
		if i < len(actuals) {
			out = append(out, actuals[i])
		} else {
			out = append(out, value.Nil)
		}
	}
	if hasRest {
		var restElems []value.Value
		if len(actuals) > nonrest {
			restElems = actuals[nonrest:]
		}
		out = append(out, value.List(restElems...))
	}
	return out, nil
}
