package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mna/dynexec/lang/bytecode"
	"github.com/mna/dynexec/lang/value"
)

// Disassemble renders co back into the text form Assemble accepts. Jump
// destinations become synthetic "L<offset>" labels, emitted inline just
// before the instruction they point at.
func Disassemble(co *bytecode.CodeObject) string {
	code := co.Bytes
	if co.Wide {
		code = bytecode.Narrow(code)
	}

	targets := map[int]bool{}
	for i := 0; i < len(code); {
		op := bytecode.Opcode(code[i])
		switch {
		case isRLabelOp(op):
			bias := 128
			if op == bytecode.RGOTO {
				bias = 127
			}
			delta := int(code[i+1]) - bias
			targets[i+2+delta] = true
			i += 2
		case isLabel2Op(op):
			targets[int(code[i+1])|int(code[i+2])<<8] = true
			i += 3
		default:
			i += instrWidth(op)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "arity %d %d", co.Arity.Mandatory(), co.Arity.NonRest())
	if co.Arity.HasRest() {
		b.WriteString(" rest")
	}
	b.WriteString("\n")
	if co.MaxDepth != 0 {
		fmt.Fprintf(&b, "maxdepth %d\n", co.MaxDepth)
	}
	for _, c := range co.Constants {
		writeConst(&b, c)
	}

	for i := 0; i < len(code); {
		if targets[i] {
			fmt.Fprintf(&b, "L%d:\n", i)
		}
		op := bytecode.Opcode(code[i])
		switch {
		case isRLabelOp(op):
			bias := 128
			if op == bytecode.RGOTO {
				bias = 127
			}
			delta := int(code[i+1]) - bias
			fmt.Fprintf(&b, "%s L%d\n", op, i+2+delta)
			i += 2
		case isLabel2Op(op):
			target := int(code[i+1]) | int(code[i+2])<<8
			fmt.Fprintf(&b, "%s L%d\n", op, target)
			i += 3
		case op >= bytecode.CONSTANTBASE:
			fmt.Fprintf(&b, "constant %d\n", int(op-bytecode.CONSTANTBASE))
			i++
		case op == bytecode.CONSTANT2:
			idx := int(code[i+1]) | int(code[i+2])<<8
			fmt.Fprintf(&b, "constant2 %d\n", idx)
			i += 3
		default:
			w := instrWidth(op)
			switch w {
			case 1:
				fmt.Fprintf(&b, "%s\n", op)
			case 2:
				fmt.Fprintf(&b, "%s %d\n", op, code[i+1])
			case 3:
				fmt.Fprintf(&b, "%s %d\n", op, int(code[i+1])|int(code[i+2])<<8)
			}
			i += w
		}
	}
	return b.String()
}

func isRLabelOp(op bytecode.Opcode) bool {
	return op >= bytecode.RGOTO && op <= bytecode.RGOTOIFNONNILELSEPOP
}

func isLabel2Op(op bytecode.Opcode) bool {
	switch op {
	case bytecode.GOTO, bytecode.GOTOIFNIL, bytecode.GOTOIFNONNIL,
		bytecode.GOTOIFNILELSEPOP, bytecode.GOTOIFNONNILELSEPOP,
		bytecode.PUSHCATCH, bytecode.PUSHCONDITIONCASE:
		return true
	}
	return false
}

// instrWidth returns the total encoded length of the instruction at op. It
// is not valid for jump opcodes (1 is returned), which callers special-case.
func instrWidth(op bytecode.Opcode) int {
	for _, base := range [...]bytecode.Opcode{bytecode.VARREF, bytecode.VARSET, bytecode.VARBIND, bytecode.CALL, bytecode.UNBIND} {
		if op >= base && op < base+8 {
			switch int(op - base) {
			case 6:
				return 2
			case 7:
				return 3
			default:
				return 1
			}
		}
	}
	switch op {
	case bytecode.STACKREF, bytecode.STACKSET, bytecode.DISCARDN, bytecode.LISTN, bytecode.CONCATN:
		return 2
	case bytecode.CONSTANT2:
		return 3
	default:
		return 1
	}
}

func writeConst(b *strings.Builder, c value.Value) {
	switch v := c.(type) {
	case value.NilType:
		b.WriteString("const nil\n")
	case *value.Symbol:
		if v == value.T {
			b.WriteString("const t\n")
		} else {
			fmt.Fprintf(b, "const sym %s\n", v.Name)
		}
	case value.Integer:
		fmt.Fprintf(b, "const int %d\n", int64(v))
	case value.Float:
		fmt.Fprintf(b, "const float %s\n", strconv.FormatFloat(float64(v), 'g', -1, 64))
	case *value.String:
		fmt.Fprintf(b, "const string %s\n", strconv.Quote(v.Go()))
	default:
		fmt.Fprintf(b, "; unsupported constant %s\n", c)
	}
}
