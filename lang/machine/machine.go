package machine

import (
	"github.com/mna/dynexec/lang/bytecode"
	"github.com/mna/dynexec/lang/dynerr"
	"github.com/mna/dynexec/lang/host"
	"github.com/mna/dynexec/lang/value"
)

// namedPrimitive maps a fixed-arity named opcode to the host.Registry entry
// it delegates to.
var namedPrimitive = map[bytecode.Opcode]struct {
	name  string
	nargs int
}{
	bytecode.CAR: {"car", 1}, bytecode.CDR: {"cdr", 1}, bytecode.CONSOP: {"cons", 2},
	bytecode.EQOP: {"eq", 2}, bytecode.MEMQ: {"memq", 2}, bytecode.NOTOP: {"not", 1},
	bytecode.CONSP: {"consp", 1}, bytecode.STRINGP: {"stringp", 1}, bytecode.LISTP: {"listp", 1},
	bytecode.SYMBOLP: {"symbolp", 1}, bytecode.NUMBERP: {"numberp", 1}, bytecode.INTEGERP: {"integerp", 1},
	bytecode.NTH: {"nth", 2}, bytecode.NTHCDR: {"nthcdr", 2}, bytecode.ELT: {"elt", 2},
	bytecode.MEMBER: {"member", 2}, bytecode.ASSQ: {"assq", 2}, bytecode.NREVERSE: {"nreverse", 1},
	bytecode.SETCAR: {"setcar", 2}, bytecode.SETCDR: {"setcdr", 2},
	bytecode.CARSAFE: {"car-safe", 1}, bytecode.CDRSAFE: {"cdr-safe", 1},
	bytecode.LENGTH: {"length", 1}, bytecode.AREF: {"aref", 2}, bytecode.ASET: {"aset", 3},
	bytecode.LIST1: {"list", 1}, bytecode.LIST2: {"list", 2}, bytecode.LIST3: {"list", 3}, bytecode.LIST4: {"list", 4},
	bytecode.CONCAT2: {"concat", 2}, bytecode.CONCAT3: {"concat", 3}, bytecode.CONCAT4: {"concat", 4},
	bytecode.SUBSTRING: {"substring", 3},
}

// run executes f starting at f.PC until RETURN or an error. It never
// recovers a panic itself: a thrown non-local exit is handled by the
// per-frame handler-matching logic in execute.go, which needs the live Go
// call stack (not just this function) to decide whether the signal belongs
// to this frame or an enclosing one.
func run(t *Thread, f *Frame) (value.Value, error) {
	code := f.Code.Bytes
	for {
		if f.PC >= len(code) {
			return nil, &dynerr.InvalidOpcodeError{Offset: f.PC}
		}
		if t.SafeMode && f.Depth() > f.Code.MaxDepth {
			return nil, &dynerr.StackOverflowError{Limit: f.Code.MaxDepth}
		}
		if t.MaxSteps > 0 {
			t.steps++
			if t.steps > t.MaxSteps {
				return nil, &dynerr.StepBudgetExceededError{Limit: t.MaxSteps}
			}
		}
		op := bytecode.Opcode(code[f.PC])
		opOffset := f.PC
		f.PC++

		switch {
		case isFamily(op):
			base, _ := bytecode.FamilyOf(op)
			n, err := readImmediate(code, f, base, op)
			if err != nil {
				return nil, err
			}
			result, done, err := execFamily(t, f, base, n)
			if err != nil {
				return nil, err
			}
			if done {
				return result, nil
			}

		case isRGoto(op):
			b := int(code[f.PC])
			f.PC++
			bias := 128
			if op == bytecode.RGOTO {
				bias = 127
			}
			dest := f.PC + (b - bias)
			if _, take, err := shouldBranch(f, op-bytecode.RGOTO); err != nil {
				return nil, err
			} else if take {
				if err := takeBranch(t, f); err != nil {
					return nil, err
				}
				f.PC = dest
			}

		case isGoto(op):
			dest := int(code[f.PC]) | int(code[f.PC+1])<<8
			f.PC += 2
			if _, take, err := shouldBranch(f, op-bytecode.GOTO); err != nil {
				return nil, err
			} else if take {
				if err := takeBranch(t, f); err != nil {
					return nil, err
				}
				f.PC = dest
			}

		case op >= bytecode.CONSTANTBASE:
			idx := int(op - bytecode.CONSTANTBASE)
			if idx >= len(f.Code.Constants) {
				return nil, &dynerr.InvalidOpcodeError{Opcode: byte(op), Offset: opOffset}
			}
			f.Push(f.Code.Constants[idx])

		case op == bytecode.CONSTANT2:
			idx := int(code[f.PC]) | int(code[f.PC+1])<<8
			f.PC += 2
			if idx >= len(f.Code.Constants) {
				return nil, &dynerr.InvalidOpcodeError{Opcode: byte(op), Offset: opOffset}
			}
			f.Push(f.Code.Constants[idx])

		case op == bytecode.LISTN || op == bytecode.CONCATN:
			n := int(code[f.PC])
			f.PC++
			args := popN(f, n)
			name := "list"
			if op == bytecode.CONCATN {
				name = "concat"
			}
			prim, ok := t.Registry.Lookup(name)
			if !ok {
				return nil, &dynerr.InvalidOpcodeError{Opcode: byte(op), Offset: opOffset}
			}
			res, err := prim(args)
			if err != nil {
				return nil, err
			}
			f.Push(res)

		default:
			if spec, ok := namedPrimitive[op]; ok {
				args := popN(f, spec.nargs)
				prim, ok := t.Registry.Lookup(spec.name)
				if !ok {
					return nil, &dynerr.InvalidOpcodeError{Opcode: byte(op), Offset: opOffset}
				}
				res, err := prim(args)
				if err != nil {
					return nil, err
				}
				f.Push(res)
				continue
			}

			if bytecode.IsObsolete(op) {
				if err := execObsolete(t, f, op); err != nil {
					return nil, err
				}
				continue
			}

			result, done, recognized, err := execSimple(t, f, op)
			if err != nil {
				return nil, err
			}
			if !recognized {
				return nil, &dynerr.InvalidOpcodeError{Opcode: byte(op), Offset: opOffset}
			}
			if done {
				return result, nil
			}
		}
	}
}

// readImmediate decodes the operand of a VARREF/VARSET/VARBIND/CALL/UNBIND
// family instruction, advancing f.PC past it.
func readImmediate(code []byte, f *Frame, base, op bytecode.Opcode) (int, error) {
	switch bytecode.ImmediateWidth(base, op) {
	case 0:
		return int(bytecode.InlineOperand(base, op)), nil
	case 1:
		if f.PC >= len(code) {
			return 0, &dynerr.InvalidOpcodeError{Opcode: byte(op), Offset: f.PC}
		}
		n := int(code[f.PC])
		f.PC++
		return n, nil
	default:
		if f.PC+1 >= len(code) {
			return 0, &dynerr.InvalidOpcodeError{Opcode: byte(op), Offset: f.PC}
		}
		n := int(code[f.PC]) | int(code[f.PC+1])<<8
		f.PC += 2
		return n, nil
	}
}

func popN(f *Frame, n int) []value.Value {
	if n == 0 {
		return nil
	}
	out := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = f.Pop()
	}
	return out
}

func isFamily(op bytecode.Opcode) bool {
	_, ok := bytecode.FamilyOf(op)
	return ok
}

func isRGoto(op bytecode.Opcode) bool {
	return op >= bytecode.RGOTO && op <= bytecode.RGOTOIFNONNILELSEPOP
}

func isGoto(op bytecode.Opcode) bool {
	return op >= bytecode.GOTO && op <= bytecode.GOTOIFNONNILELSEPOP
}

// shouldBranch evaluates the condition for variant (0=unconditional,
// 1=ifnil, 2=ifnonnil, 3=ifnilelsepop, 4=ifnonnilelsepop), consuming or
// preserving TOS per variant.
func shouldBranch(f *Frame, variant bytecode.Opcode) (value.Value, bool, error) {
	switch variant {
	case 0: // unconditional
		return nil, true, nil
	case 1: // ifnil
		v := f.Pop()
		return nil, !value.Truthy(v), nil
	case 2: // ifnonnil
		v := f.Pop()
		return nil, value.Truthy(v), nil
	case 3: // ifnilelsepop
		v := f.Top(0)
		if !value.Truthy(v) {
			return v, true, nil
		}
		f.Pop()
		return nil, false, nil
	case 4: // ifnonnilelsepop
		v := f.Top(0)
		if value.Truthy(v) {
			return v, true, nil
		}
		f.Pop()
		return nil, false, nil
	default:
		return nil, false, nil
	}
}

func takeBranch(t *Thread, f *Frame) error {
	return maybeQuit(t.ctx(), f)
}

// execFamily runs the body of a VARREF/VARSET/VARBIND/CALL/UNBIND
// instruction. done is always false: none of these opcodes end run's loop.
// Its result/done/error values mirror execSimple's (which adds recognized)
// for a uniform call site.
func execFamily(t *Thread, f *Frame, base bytecode.Opcode, n int) (value.Value, bool, error) {
	switch base {
	case bytecode.VARREF:
		sym, err := constSymbol(f, n)
		if err != nil {
			return nil, false, err
		}
		v := t.Symbols.Get(sym)
		if value.IsUnbound(v) {
			return nil, false, &dynerr.VoidVariableError{Name: sym.Name}
		}
		f.Push(v)
	case bytecode.VARSET:
		sym, err := constSymbol(f, n)
		if err != nil {
			return nil, false, err
		}
		v := f.Pop()
		if sym.TrappedWrite {
			if err := t.Symbols.Set(sym, v); err != nil {
				return nil, false, err
			}
		} else {
			sym.Value = v
		}
	case bytecode.VARBIND:
		sym, err := constSymbol(f, n)
		if err != nil {
			return nil, false, err
		}
		v := f.Pop()
		old := sym.Value
		t.Bindings.PushRebind(func(o any) { sym.Value = o.(value.Value) }, old)
		sym.Value = v
	case bytecode.UNBIND:
		depth := t.Bindings.Depth() - n
		if depth < f.BindDepth {
			depth = f.BindDepth
		}
		t.Bindings.UnwindTo(depth)
	case bytecode.CALL:
		args := popN(f, n)
		fn := f.Pop()
		res, err := call(t, fn, args)
		if err != nil {
			return nil, false, err
		}
		f.Push(res)
	}
	return nil, false, nil
}

func constSymbol(f *Frame, idx int) (*value.Symbol, error) {
	if idx < 0 || idx >= len(f.Code.Constants) {
		return nil, &dynerr.InvalidOpcodeError{Offset: f.PC}
	}
	sym, ok := f.Code.Constants[idx].(*value.Symbol)
	if !ok {
		return nil, &dynerr.WrongTypeArgumentError{Expected: "symbolp", Got: f.Code.Constants[idx]}
	}
	return sym, nil
}

// execSimple handles every fixed, no-family opcode that isn't a named
// primitive, a jump, a constant load or obsolete: control/stack/binding
// opcodes and the inline fast-arithmetic opcodes. recognized is false for
// any byte value this core does not assign meaning to.
func execSimple(t *Thread, f *Frame, op bytecode.Opcode) (result value.Value, done, recognized bool, err error) {
	recognized = true
	switch op {
	case bytecode.RETURN:
		result = f.Pop()
		if t.Bindings.Depth() != f.BindDepth {
			return nil, true, true, &dynerr.ImbalancedBindingsError{EntryDepth: f.BindDepth, ExitDepth: t.Bindings.Depth()}
		}
		t.Handlers.PopTo(f.HandlerDepth)
		return result, true, true, nil
	case bytecode.DUP:
		f.Push(f.Top(0))
	case bytecode.DISCARD:
		f.Pop()
	case bytecode.UNWINDPROTECT:
		cleanup := f.Pop()
		t.Bindings.PushUnwind(func() { _, _ = call(t, cleanup, nil) })
	case bytecode.PUSHCATCH, bytecode.PUSHCONDITIONCASE:
		tag := f.Pop()
		dest := int(f.Code.Bytes[f.PC]) | int(f.Code.Bytes[f.PC+1])<<8
		f.PC += 2
		kind := host.HandlerCatch
		if op == bytecode.PUSHCONDITIONCASE {
			kind = host.HandlerCondition
		}
		t.Handlers.Push(host.HandlerFrame{
			Kind:       kind,
			Tag:        tag,
			Dest:       dest,
			BindDepth:  t.Bindings.Depth(),
			StackDepth: f.Depth(),
		})
	case bytecode.POPHANDLER:
		if t.Handlers.Depth() > f.HandlerDepth {
			t.Handlers.PopTo(t.Handlers.Depth() - 1)
		}
	case bytecode.SAVEEXCURSION, bytecode.SAVERESTRICTION, bytecode.SAVECURRENTBUFFER:
		// Buffer/window state is outside this core's scope; push a no-op
		// unwind entry so UNBIND's depth bookkeeping stays correct.
		t.Bindings.PushUnwind(func() {})
	case bytecode.STACKREF:
		n := int(f.Code.Bytes[f.PC])
		f.PC++
		f.Push(f.Top(n))
	case bytecode.STACKSET:
		n := int(f.Code.Bytes[f.PC])
		f.PC++
		v := f.Pop()
		f.SetTop(n, v)
	case bytecode.DISCARDN:
		raw := f.Code.Bytes[f.PC]
		f.PC++
		f.Discard(int(raw&0x7F), raw&0x80 != 0)
	case bytecode.ADD1:
		v, e := numAdd1(f.Pop(), 1)
		if e != nil {
			return nil, false, true, e
		}
		f.Push(v)
	case bytecode.SUB1:
		v, e := numAdd1(f.Pop(), -1)
		if e != nil {
			return nil, false, true, e
		}
		f.Push(v)
	case bytecode.NEGATE:
		v, e := numNegate(f.Pop())
		if e != nil {
			return nil, false, true, e
		}
		f.Push(v)
	case bytecode.EQLSIGN, bytecode.GTR, bytecode.LSS, bytecode.LEQ, bytecode.GEQ:
		b, a := f.Pop(), f.Pop()
		v, e := compareOp(op, a, b)
		if e != nil {
			return nil, false, true, e
		}
		f.Push(v)
	case bytecode.PLUSOP:
		b, a := f.Pop(), f.Pop()
		v, e := numBinOp(a, b, func(x, y int64) int64 { return x + y }, func(x, y float64) float64 { return x + y })
		if e != nil {
			return nil, false, true, e
		}
		f.Push(v)
	case bytecode.DIFFOP:
		b, a := f.Pop(), f.Pop()
		v, e := numBinOp(a, b, func(x, y int64) int64 { return x - y }, func(x, y float64) float64 { return x - y })
		if e != nil {
			return nil, false, true, e
		}
		f.Push(v)
	default:
		recognized = false
	}
	return nil, false, recognized, nil
}

func compareOp(op bytecode.Opcode, a, b value.Value) (value.Value, error) {
	switch op {
	case bytecode.EQLSIGN:
		return numCompare(a, b, func(x, y int64) bool { return x == y }, func(x, y float64) bool { return x == y })
	case bytecode.GTR:
		return numCompare(a, b, func(x, y int64) bool { return x > y }, func(x, y float64) bool { return x > y })
	case bytecode.LSS:
		return numCompare(a, b, func(x, y int64) bool { return x < y }, func(x, y float64) bool { return x < y })
	case bytecode.LEQ:
		return numCompare(a, b, func(x, y int64) bool { return x <= y }, func(x, y float64) bool { return x <= y })
	default: // GEQ
		return numCompare(a, b, func(x, y int64) bool { return x >= y }, func(x, y float64) bool { return x >= y })
	}
}

// execObsolete dispatches a backward-compatibility-only opcode, or refuses
// it outright in safe mode.
func execObsolete(t *Thread, f *Frame, op bytecode.Opcode) error {
	if t.SafeMode {
		return &dynerr.SafeModeObsoleteError{Opcode: op.String()}
	}
	switch op {
	case bytecode.UNBINDALL:
		t.Bindings.UnwindTo(0)
	case bytecode.CATCH:
		// A real old-style catch evaluates a body under a dynamic tag; without
		// an evaluator this core can only thread the already-computed body
		// value through, discarding the tag.
		body := f.Pop()
		f.Pop()
		f.Push(body)
	case bytecode.CONDITIONCASE:
		// body already sits on the stack; nothing to do
	case bytecode.SAVEWINDOWEXCURSION:
		// no window system to save
	case bytecode.TEMPOUTPUTBUFFERSETUP:
		f.Pop()
		f.Push(value.Nil)
	case bytecode.TEMPOUTPUTBUFFERSHOW:
		f.Pop()
	case bytecode.SETMARK:
		f.Pop()
	case bytecode.SCANBUFFER:
		f.Pop()
		f.Pop()
		f.Pop()
		f.Push(value.Nil)
	}
	return nil
}
