package machine

import (
	"fmt"

	"github.com/mna/dynexec/lang/bytecode"
	"github.com/mna/dynexec/lang/value"
)

// call invokes fn (a nested CodeObject or a symbol naming a host primitive)
// with args, used by the CALL opcode family and the generic funcall path.
func call(t *Thread, fn value.Value, args []value.Value) (value.Value, error) {
	switch f := fn.(type) {
	case *bytecode.CodeObject:
		return Execute(t, f, args)
	case *value.Symbol:
		prim, ok := t.Registry.Lookup(f.Name)
		if !ok {
			return nil, fmt.Errorf("void function: %s", f.Name)
		}
		return prim(args)
	default:
		return nil, fmt.Errorf("invalid function: %s", fn)
	}
}
