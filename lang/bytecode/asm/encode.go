package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mna/dynexec/lang/bytecode"
)

// operandKind classifies what an instr's operand token means and how many
// bytes it contributes to the encoded length.
type operandKind int

const (
	operandNone operandKind = iota
	operandImm1           // 1-byte integer literal (family variant 6, stackref/stackset/discardn, listn/concatn)
	operandImm2           // 2-byte integer literal (family variant 7)
	operandConstInline    // inline constant index folded into the opcode byte itself
	operandConst2         // 2-byte constant index
	operandRLabel         // 1-byte biased relative jump target
	operandLabel2         // 2-byte absolute jump target
)

var familyBases = map[string]bytecode.Opcode{
	"varref": bytecode.VARREF, "varset": bytecode.VARSET, "varbind": bytecode.VARBIND,
	"call": bytecode.CALL, "unbind": bytecode.UNBIND,
}

var fixedMnemonics = map[string]bytecode.Opcode{
	"return": bytecode.RETURN, "dup": bytecode.DUP, "discard": bytecode.DISCARD,
	"unwind-protect": bytecode.UNWINDPROTECT, "pophandler": bytecode.POPHANDLER,
	"save-excursion": bytecode.SAVEEXCURSION, "save-restriction": bytecode.SAVERESTRICTION,
	"save-current-buffer": bytecode.SAVECURRENTBUFFER,
	"add1":                bytecode.ADD1, "sub1": bytecode.SUB1, "negate": bytecode.NEGATE,
	"eqlsign": bytecode.EQLSIGN, "gtr": bytecode.GTR, "lss": bytecode.LSS, "leq": bytecode.LEQ,
	"geq": bytecode.GEQ, "plus": bytecode.PLUSOP, "diff": bytecode.DIFFOP,
	"car": bytecode.CAR, "cdr": bytecode.CDR, "cons": bytecode.CONSOP, "eq": bytecode.EQOP,
	"memq": bytecode.MEMQ, "not": bytecode.NOTOP, "consp": bytecode.CONSP,
	"stringp": bytecode.STRINGP, "listp": bytecode.LISTP, "symbolp": bytecode.SYMBOLP,
	"numberp": bytecode.NUMBERP, "integerp": bytecode.INTEGERP, "nth": bytecode.NTH,
	"nthcdr": bytecode.NTHCDR, "elt": bytecode.ELT,
	"member": bytecode.MEMBER, "assq": bytecode.ASSQ, "nreverse": bytecode.NREVERSE,
	"setcar": bytecode.SETCAR, "setcdr": bytecode.SETCDR, "car-safe": bytecode.CARSAFE,
	"cdr-safe": bytecode.CDRSAFE, "length": bytecode.LENGTH, "aref": bytecode.AREF,
	"aset": bytecode.ASET, "list1": bytecode.LIST1, "list2": bytecode.LIST2,
	"list3": bytecode.LIST3, "list4": bytecode.LIST4, "concat2": bytecode.CONCAT2,
	"concat3": bytecode.CONCAT3, "concat4": bytecode.CONCAT4, "substring": bytecode.SUBSTRING,
	"save-window-excursion": bytecode.SAVEWINDOWEXCURSION, "catch": bytecode.CATCH,
	"condition-case": bytecode.CONDITIONCASE, "temp-output-buffer-setup": bytecode.TEMPOUTPUTBUFFERSETUP,
	"temp-output-buffer-show": bytecode.TEMPOUTPUTBUFFERSHOW, "set-mark": bytecode.SETMARK,
	"scan-buffer": bytecode.SCANBUFFER, "unbind-all": bytecode.UNBINDALL,
}

var imm1Mnemonics = map[string]bytecode.Opcode{
	"stack-ref": bytecode.STACKREF, "stack-set": bytecode.STACKSET, "discard-n": bytecode.DISCARDN,
	"listn": bytecode.LISTN, "concatn": bytecode.CONCATN,
}

var rlabelMnemonics = map[string]bytecode.Opcode{
	"rgoto": bytecode.RGOTO, "rgotoifnil": bytecode.RGOTOIFNIL,
	"rgotoifnonnil": bytecode.RGOTOIFNONNIL, "rgotoifnilelsepop": bytecode.RGOTOIFNILELSEPOP,
	"rgotoifnonnilelsepop": bytecode.RGOTOIFNONNILELSEPOP,
}

var label2Mnemonics = map[string]bytecode.Opcode{
	"goto": bytecode.GOTO, "gotoifnil": bytecode.GOTOIFNIL, "gotoifnonnil": bytecode.GOTOIFNONNIL,
	"gotoifnilelsepop": bytecode.GOTOIFNILELSEPOP, "gotoifnonnilelsepop": bytecode.GOTOIFNONNILELSEPOP,
	"pushcatch": bytecode.PUSHCATCH, "pushconditioncase": bytecode.PUSHCONDITIONCASE,
}

// classify resolves a mnemonic to its opcode and operand shape.
func classify(mnem string) (op bytecode.Opcode, kind operandKind, width int, ok bool) {
	if base, variant, isFamily := parseFamily(mnem); isFamily {
		switch variant {
		case 6:
			return base + 6, operandImm1, 1, true
		case 7:
			return base + 7, operandImm2, 2, true
		default:
			return base + bytecode.Opcode(variant), operandNone, 0, true
		}
	}
	if op, ok := fixedMnemonics[mnem]; ok {
		return op, operandNone, 0, true
	}
	if op, ok := imm1Mnemonics[mnem]; ok {
		return op, operandImm1, 1, true
	}
	if op, ok := rlabelMnemonics[mnem]; ok {
		return op, operandRLabel, 1, true
	}
	if op, ok := label2Mnemonics[mnem]; ok {
		return op, operandLabel2, 2, true
	}
	switch mnem {
	case "constant":
		return 0, operandConstInline, 0, true
	case "constant2":
		return bytecode.CONSTANT2, operandConst2, 2, true
	}
	return 0, operandNone, 0, false
}

func parseFamily(mnem string) (base bytecode.Opcode, variant int, ok bool) {
	for prefix, b := range familyBases {
		if strings.HasPrefix(mnem, prefix) {
			tail := mnem[len(prefix):]
			n, err := strconv.Atoi(tail)
			if err != nil || n < 0 || n > 7 {
				continue
			}
			return b, n, true
		}
	}
	return 0, 0, false
}

// length returns the total encoded length (opcode byte plus operand bytes)
// for kind, except operandConstInline which folds the index into the opcode
// byte and so is always 1.
func (k operandKind) length() int {
	switch k {
	case operandImm1, operandRLabel:
		return 2
	case operandImm2, operandConst2, operandLabel2:
		return 3
	default:
		return 1
	}
}

func (p *parser) encode() (*bytecode.CodeObject, error) {
	labels := map[string]int{}
	offset := 0
	kinds := make([]operandKind, len(p.instrs))
	ops := make([]bytecode.Opcode, len(p.instrs))
	for i, ins := range p.instrs {
		if ins.label != "" {
			labels[ins.label] = offset
			continue
		}
		op, kind, _, ok := classify(ins.mnem)
		if !ok {
			return nil, fmt.Errorf("line %d: unknown mnemonic %q", ins.line, ins.mnem)
		}
		ops[i], kinds[i] = op, kind
		offset += kind.length()
	}

	out := make([]byte, 0, offset)
	pos := 0
	for i, ins := range p.instrs {
		if ins.label != "" {
			continue
		}
		op, kind := ops[i], kinds[i]
		switch kind {
		case operandNone:
			out = append(out, byte(op))
			pos++
		case operandImm1:
			n, err := strconv.Atoi(ins.operand)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad operand %q: %w", ins.line, ins.operand, err)
			}
			out = append(out, byte(op), byte(n))
			pos += 2
		case operandImm2:
			n, err := strconv.Atoi(ins.operand)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad operand %q: %w", ins.line, ins.operand, err)
			}
			out = append(out, byte(op), byte(n&0xFF), byte((n>>8)&0xFF))
			pos += 3
		case operandConstInline:
			n, err := strconv.Atoi(ins.operand)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad constant index %q: %w", ins.line, ins.operand, err)
			}
			if n < 0 || n > 63 {
				return nil, fmt.Errorf("line %d: inline constant index %d out of range, use constant2", ins.line, n)
			}
			out = append(out, byte(bytecode.CONSTANTBASE)+byte(n))
			pos++
		case operandConst2:
			n, err := strconv.Atoi(ins.operand)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad constant index %q: %w", ins.line, ins.operand, err)
			}
			out = append(out, byte(op), byte(n&0xFF), byte((n>>8)&0xFF))
			pos += 3
		case operandRLabel:
			target, ok := labels[ins.operand]
			if !ok {
				return nil, fmt.Errorf("line %d: undefined label %q", ins.line, ins.operand)
			}
			bias := 128
			if op == bytecode.RGOTO {
				bias = 127
			}
			delta := target - (pos + 2)
			b := delta + bias
			if b < 0 || b > 255 {
				return nil, fmt.Errorf("line %d: relative jump to %q out of range (delta=%d)", ins.line, ins.operand, delta)
			}
			out = append(out, byte(op), byte(b))
			pos += 2
		case operandLabel2:
			target, ok := labels[ins.operand]
			if !ok {
				return nil, fmt.Errorf("line %d: undefined label %q", ins.line, ins.operand)
			}
			out = append(out, byte(op), byte(target&0xFF), byte((target>>8)&0xFF))
			pos += 3
		}
	}

	maxDepth := p.maxDepth
	if maxDepth == 0 {
		maxDepth = len(out) + len(p.constants) + 8
	}
	return &bytecode.CodeObject{
		Bytes:     out,
		Constants: p.constants,
		MaxDepth:  maxDepth,
		Arity:     bytecode.NewArity(p.mandatory, p.nonrest, p.rest),
	}, nil
}
