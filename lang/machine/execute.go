package machine

import (
	"github.com/mna/dynexec/lang/bytecode"
	"github.com/mna/dynexec/lang/dynerr"
	"github.com/mna/dynexec/lang/host"
	"github.com/mna/dynexec/lang/value"
)

// Execute runs code with the given actuals on t, returning its result or
// any error raised along the way (a type from lang/dynerr, a primitive's
// own error, or an unmatched non-local exit). If code carries a Native
// func, the dispatch loop is skipped entirely and Native is called
// directly.
func Execute(t *Thread, code *bytecode.CodeObject, actuals []value.Value) (result value.Value, err error) {
	if t.SafeMode && t.MaxCallStackDepth > 0 && t.callDepth >= t.MaxCallStackDepth {
		return nil, &dynerr.StackOverflowError{Limit: t.MaxCallStackDepth}
	}
	t.callDepth++
	defer func() { t.callDepth-- }()

	if code.Native != nil {
		return code.Native(actuals)
	}

	if code.Wide {
		narrowed := *code
		narrowed.Bytes = bytecode.Narrow(code.Bytes)
		narrowed.Wide = false
		code = &narrowed
	}

	unpacked, err := unpackArgs(code.Arity, actuals)
	if err != nil {
		return nil, err
	}

	f := NewFrame(code)
	f.Stack = append(f.Stack, unpacked...)
	f.BindDepth = t.Bindings.Depth()
	f.HandlerDepth = t.Handlers.Depth()

	return runFrame(t, f)
}

// runFrame drives f's dispatch loop across any number of caught non-local
// exits: step runs until RETURN, an error, or a throw this frame's own
// handlers catch (in which case it mutates f to resume at the handler's
// destination and returns to be called again).
func runFrame(t *Thread, f *Frame) (value.Value, error) {
	for {
		result, resume, err := step(t, f)
		if !resume {
			if err != nil {
				t.Bindings.UnwindTo(f.BindDepth)
				t.Handlers.PopTo(f.HandlerDepth)
			}
			return result, err
		}
	}
}

// step runs the dispatch loop and recovers a thrown panic. A match against
// a handler this frame itself pushed becomes a local resume (resume=true).
// A match belonging to a still-enclosing Execute is re-panicked so that
// frame's own step catches it at the right depth. A throw that matches
// nothing anywhere on the handler stack stops propagating right here and
// becomes a NoCatchError: Emacs reports an unmatched throw as an ordinary
// Lisp error rather than aborting the process, so the Go analogue is a
// returned error, not a panic that would leak across Execute's public API.
func step(t *Thread, f *Frame) (result value.Value, resume bool, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		sig, ok := host.Recover(r)
		if !ok {
			panic(r)
		}
		idx, found := t.Handlers.Find(sig)
		if !found {
			result, resume, err = nil, false, &dynerr.NoCatchError{Tag: sig.Tag, Value: sig.Value}
			return
		}
		if idx < f.HandlerDepth {
			panic(r)
		}
		hf := t.Handlers.At(idx)
		t.Handlers.PopTo(idx) // the matched frame itself is consumed
		t.Bindings.UnwindTo(hf.BindDepth)
		f.Stack = f.Stack[:hf.StackDepth]
		f.Push(sig.Value)
		f.PC = hf.Dest
		result, resume, err = nil, true, nil
	}()
	res, runErr := run(t, f)
	return res, false, runErr
}
