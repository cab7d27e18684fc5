package machine_test

import (
	"context"
	"testing"

	"github.com/mna/dynexec/lang/bytecode"
	"github.com/mna/dynexec/lang/bytecode/asm"
	"github.com/mna/dynexec/lang/dynerr"
	"github.com/mna/dynexec/lang/host"
	"github.com/mna/dynexec/lang/machine"
	"github.com/mna/dynexec/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThread() *machine.Thread {
	return machine.NewThread(host.NewRegistry())
}

func run(t *testing.T, src string, args ...value.Value) (value.Value, error) {
	t.Helper()
	co, err := asm.Assemble(src)
	require.NoError(t, err)
	return machine.Execute(newThread(), co, args)
}

func TestExecuteFastArithmetic(t *testing.T) {
	res, err := run(t, `
arity 2 2
plus
return
`, value.NewInteger(3), value.NewInteger(4))
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(7), res)
}

func TestExecuteVarbindVarrefUnbind(t *testing.T) {
	res, err := run(t, `
arity 0 0
const sym x
const int 42
constant 1
varbind6 0
varref6 0
unbind6 1
return
`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(42), res)
}

func TestExecuteVarbindShadowsAndRestores(t *testing.T) {
	sym := value.Intern("dynexec-test-shadow")
	sym.Value = value.NewInteger(1)
	res, err := run(t, `
arity 0 0
const sym dynexec-test-shadow
const int 2
constant 1
varbind6 0
varref6 0
unbind6 1
varref6 0
return
`)
	require.NoError(t, err)
	// the second varref happens after unbind, so it sees the restored original
	// value, not the bound one pushed by the first varref: RETURN only reports
	// the top of the stack, which is the second varref's result.
	assert.Equal(t, value.NewInteger(1), res)
	assert.Equal(t, value.NewInteger(1), sym.Value)
}

func TestExecuteCallPrimitiveBySymbol(t *testing.T) {
	res, err := run(t, `
arity 0 0
const int 1
const int 2
const sym car
constant 2
constant 0
constant 1
cons
call1
return
`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(1), res)
}

func TestExecuteCallNestedCodeObject(t *testing.T) {
	// The mandatory argument already sits on the new frame's stack at entry,
	// so the body only needs ADD1 directly on it, no VARREF.
	inner := &bytecode.CodeObject{
		Bytes:    []byte{byte(bytecode.ADD1), byte(bytecode.RETURN)},
		MaxDepth: 2,
		Arity:    bytecode.NewArity(1, 1, false),
	}
	co, err := asm.Assemble(`
arity 0 0
const int 41
constant 0
return
`)
	require.NoError(t, err)
	co.Constants = append(co.Constants, inner)

	// Directly exercise call() through CALL family encoding by hand-building
	// bytes, since the text assembler has no way to name a nested code object
	// as a constant. CALL pops its n args off the top first, then the
	// function beneath them, so the function must be pushed before its args.
	co.Bytes = []byte{
		byte(bytecode.CONSTANTBASE + 1), // push inner code object (fn)
		byte(bytecode.CONSTANTBASE + 0), // push 41 (arg)
		byte(bytecode.CALL + 1),         // call1: pop 1 arg, pop fn, call
		byte(bytecode.RETURN),
	}
	res, err := machine.Execute(newThread(), co, nil)
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(42), res)
}

func TestExecuteRgotoIfnil(t *testing.T) {
	res, err := run(t, `
arity 0 0
const nil
const int 1
const int 2
constant 0
rgotoifnil L1
constant 2
goto LEnd
L1:
constant 1
LEnd:
return
`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(1), res)
}

func TestExecuteRgotoIfnilElsepopPreservesTOS(t *testing.T) {
	res, err := run(t, `
arity 0 0
const nil
const t
constant 0
rgotoifnilelsepop L1
discard
constant 1
L1:
return
`)
	require.NoError(t, err)
	assert.Equal(t, value.Nil, res)
}

func TestExecuteDiscardN(t *testing.T) {
	res, err := run(t, `
arity 0 0
const int 1
const int 2
const int 3
constant 0
constant 1
constant 2
discard-n 2
return
`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(1), res)
}

func TestExecuteDiscardNPreserveTOS(t *testing.T) {
	res, err := run(t, `
arity 0 0
const int 10
const int 20
const int 99
constant 0
constant 1
constant 2
discard-n 129
plus
return
`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(109), res)
}

func TestExecuteStackRefAndSet(t *testing.T) {
	res, err := run(t, `
arity 0 0
const int 5
const int 7
constant 0
constant 1
stack-ref 1
plus
return
`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(12), res)

	res, err = run(t, `
arity 0 0
const int 1
const int 2
const int 99
constant 0
constant 1
constant 2
stack-set 1
plus
return
`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(101), res)
}

func TestExecuteCatchThrow(t *testing.T) {
	res, err := run(t, `
arity 0 0
const sym throw
const sym dynexec-test-tag
const int 123
constant 1
pushcatch LCatch
constant 0
constant 1
constant 2
call2
pophandler
return
LCatch:
return
`)
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(123), res)
}

func TestExecuteConditionCaseCatchesAnyTag(t *testing.T) {
	res, err := run(t, `
arity 0 0
const sym signal
const sym dynexec-test-error
const sym dynexec-test-data
constant 1
pushconditioncase LHandler
constant 0
constant 1
constant 2
call2
pophandler
return
LHandler:
return
`)
	require.NoError(t, err)
	pair, ok := res.(*value.Cons)
	require.True(t, ok)
	assert.Same(t, value.Intern("dynexec-test-error"), pair.Car)
	assert.Same(t, value.Intern("dynexec-test-data"), pair.Cdr)
}

func TestExecuteUncaughtThrowBecomesNoCatchError(t *testing.T) {
	co, err := asm.Assemble(`
arity 0 0
const sym throw
const sym dynexec-test-unhandled-tag
const int 1
constant 0
constant 1
constant 2
call2
return
`)
	require.NoError(t, err)
	_, err = machine.Execute(newThread(), co, nil)
	var noCatchErr *dynerr.NoCatchError
	require.ErrorAs(t, err, &noCatchErr)
	assert.Same(t, value.Intern("dynexec-test-unhandled-tag"), noCatchErr.Tag)
}

func TestExecuteThrowMatchesHandlerInEnclosingExecute(t *testing.T) {
	inner, err := asm.Assemble(`
arity 0 0
const sym throw
const sym dynexec-test-cross-frame-tag
const int 7
constant 0
constant 1
constant 2
call2
return
`)
	require.NoError(t, err)

	th := newThread()
	nested := &bytecode.CodeObject{
		Arity: bytecode.NewArity(0, 0, false),
		Native: func(args []value.Value) (value.Value, error) {
			return machine.Execute(th, inner, nil)
		},
	}

	// The outer frame pushes a handler for the tag inner throws, then calls
	// into nested (a Native func that itself calls Execute on inner). The
	// throw panics straight through nested's Execute and inner's own step,
	// neither of which owns a matching handler, until it reaches the
	// outer frame's step, which does.
	co, err := asm.Assemble(`
arity 0 0
const sym dynexec-test-cross-frame-tag
constant 0
pushcatch LCatch
return
LCatch:
return
`)
	require.NoError(t, err)
	co.Constants = append(co.Constants, nested)
	co.Bytes = []byte{
		byte(bytecode.CONSTANTBASE + 0), // push tag
		byte(bytecode.PUSHCATCH), 0, 0, // dest patched below
		byte(bytecode.CONSTANTBASE + 1), // push nested (fn)
		byte(bytecode.CALL + 0),         // call0
		byte(bytecode.POPHANDLER),
		byte(bytecode.RETURN),
	}
	catchDest := len(co.Bytes)
	co.Bytes[2] = byte(catchDest)
	co.Bytes[3] = byte(catchDest >> 8)
	co.Bytes = append(co.Bytes, byte(bytecode.RETURN))

	res, err := machine.Execute(th, co, nil)
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(7), res)
}

func TestExecuteObsoleteRefusedInSafeMode(t *testing.T) {
	co, err := asm.Assemble(`
arity 0 0
const nil
constant 0
unbind-all
return
`)
	require.NoError(t, err)

	th := newThread()
	th.SafeMode = true
	_, err = machine.Execute(th, co, nil)
	var safeErr *dynerr.SafeModeObsoleteError
	require.ErrorAs(t, err, &safeErr)

	th2 := newThread()
	res, err := machine.Execute(th2, co, nil)
	require.NoError(t, err)
	assert.Equal(t, value.Nil, res)
}

func TestExecuteWrongArgCount(t *testing.T) {
	co, err := asm.Assemble(`
arity 2 2
plus
return
`)
	require.NoError(t, err)
	_, err = machine.Execute(newThread(), co, []value.Value{value.NewInteger(1)})
	var argErr *dynerr.WrongArgCountError
	require.ErrorAs(t, err, &argErr)
}

func TestExecuteImbalancedBindings(t *testing.T) {
	co, err := asm.Assemble(`
arity 0 0
const sym dynexec-test-imbalanced
const int 1
constant 1
varbind6 0
constant 1
return
`)
	require.NoError(t, err)
	_, err = machine.Execute(newThread(), co, nil)
	var imbErr *dynerr.ImbalancedBindingsError
	require.ErrorAs(t, err, &imbErr)
}

func TestExecuteRestArity(t *testing.T) {
	co, err := asm.Assemble(`
arity 1 1 rest
stack-ref 0
return
`)
	require.NoError(t, err)
	res, err := machine.Execute(newThread(), co, []value.Value{
		value.NewInteger(1), value.NewInteger(2), value.NewInteger(3),
	})
	require.NoError(t, err)
	rest := value.ListToSlice(res)
	require.Len(t, rest, 2)
	assert.Equal(t, value.NewInteger(2), rest[0])
	assert.Equal(t, value.NewInteger(3), rest[1])
}

func TestExecuteQuitGate(t *testing.T) {
	co, err := asm.Assemble(`
arity 0 0
L1:
rgoto L1
`)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	th := newThread()
	th.Context = ctx
	_, err = machine.Execute(th, co, nil)
	var quitErr *dynerr.QuitError
	require.ErrorAs(t, err, &quitErr)
}

func TestExecuteMaxStepsExceeded(t *testing.T) {
	co, err := asm.Assemble(`
arity 0 0
L1:
rgoto L1
`)
	require.NoError(t, err)

	th := newThread()
	th.MaxSteps = 10
	_, err = machine.Execute(th, co, nil)
	var stepErr *dynerr.StepBudgetExceededError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 10, stepErr.Limit)
}

func TestExecuteMaxStepsAccumulatesAcrossNestedExecute(t *testing.T) {
	inner, err := asm.Assemble(`
arity 0 0
const int 1
constant 0
return
`)
	require.NoError(t, err)

	th := newThread()
	th.MaxSteps = 3 // each inner call takes 2 steps; the second call overruns mid-way
	outer := &bytecode.CodeObject{
		Arity: bytecode.NewArity(0, 0, false),
		Native: func(args []value.Value) (value.Value, error) {
			if _, err := machine.Execute(th, inner, nil); err != nil {
				return nil, err
			}
			return machine.Execute(th, inner, nil)
		},
	}
	_, err = machine.Execute(th, outer, nil)
	var stepErr *dynerr.StepBudgetExceededError
	require.ErrorAs(t, err, &stepErr)
}

func TestExecuteStackOverflowInSafeMode(t *testing.T) {
	co, err := asm.Assemble(`
arity 0 0
const int 1
const int 2
const int 3
constant 0
constant 1
constant 2
return
`)
	require.NoError(t, err)
	co.MaxDepth = 1 // declared peak depth too small for the three pushes above

	th := newThread()
	th.SafeMode = true
	_, err = machine.Execute(th, co, nil)
	var overflowErr *dynerr.StackOverflowError
	require.ErrorAs(t, err, &overflowErr)

	th2 := newThread()
	res, err := machine.Execute(th2, co, nil)
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(3), res)
}

func TestExecuteCallStackDepthLimitInSafeMode(t *testing.T) {
	outer := &bytecode.CodeObject{
		Arity: bytecode.NewArity(0, 0, false),
		Bytes: []byte{byte(bytecode.RETURN)},
	}

	th := newThread()
	th.SafeMode = true
	th.MaxCallStackDepth = 1
	// Nesting through the CALL opcode is awkward to assemble for this; drive
	// the nesting directly via a Native func instead and assert the gate
	// fires on the inner Execute while the outer one is still on the stack.
	var nestedErr error
	_, err := machine.Execute(th, &bytecode.CodeObject{
		Arity: bytecode.NewArity(0, 0, false),
		Native: func(args []value.Value) (value.Value, error) {
			_, nestedErr = machine.Execute(th, outer, nil)
			return value.Nil, nil
		},
	}, nil)
	require.NoError(t, err)
	var overflowErr *dynerr.StackOverflowError
	require.ErrorAs(t, nestedErr, &overflowErr)
}

func TestExecuteNativeShortCircuitsInterpreter(t *testing.T) {
	co := &bytecode.CodeObject{
		Arity: bytecode.NewArity(1, 1, false),
		Native: func(args []value.Value) (value.Value, error) {
			return args[0], nil
		},
	}
	res, err := machine.Execute(newThread(), co, []value.Value{value.NewInteger(9)})
	require.NoError(t, err)
	assert.Equal(t, value.NewInteger(9), res)
}
