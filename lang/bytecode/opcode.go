// Package bytecode defines the code object aggregate and the opcode table
// that the dispatch loop in lang/machine decodes.
package bytecode

import "fmt"

// Opcode is one byte of a code object's instruction stream.
type Opcode byte

// Immediate-operand families. Each base opcode B has seven encodings:
// B, B+1, ..., B+5 inline operand 0..5, B+6 reads one following byte, B+7
// reads two following bytes little-endian.
const (
	VARREF  Opcode = 8  // + [0,7] inline/byte/word forms below
	VARSET  Opcode = 16
	VARBIND Opcode = 24
	CALL    Opcode = 32
	UNBIND  Opcode = 40
)

// immediateWidth reports how many bytes, beyond the opcode byte itself, the
// instruction starting at base+variant reads: 0 for variant in [0,5], 1 for
// variant 6, 2 for variant 7.
func immediateWidth(base, op Opcode) int {
	switch variant := int(op) - int(base); variant {
	case 6:
		return 1
	case 7:
		return 2
	default:
		return 0
	}
}

// inlineOperand returns the operand encoded by op relative to base, valid
// only when immediateWidth(base, op) == 0.
func inlineOperand(base, op Opcode) uint32 { return uint32(op - base) }

// familyOf classifies an opcode into one of the five immediate-operand
// families, returning that family's base opcode.
func familyOf(op Opcode) (base Opcode, ok bool) {
	for _, b := range [...]Opcode{VARREF, VARSET, VARBIND, CALL, UNBIND} {
		if op >= b && op < b+8 {
			return b, true
		}
	}
	return 0, false
}

// FamilyOf is the exported form of familyOf, used by the dispatch loop to
// recognize a VARREF/VARSET/VARBIND/CALL/UNBIND instruction and locate its
// base opcode.
func FamilyOf(op Opcode) (base Opcode, ok bool) { return familyOf(op) }

// ImmediateWidth is the exported form of immediateWidth.
func ImmediateWidth(base, op Opcode) int { return immediateWidth(base, op) }

// InlineOperand is the exported form of inlineOperand.
func InlineOperand(base, op Opcode) uint32 { return inlineOperand(base, op) }

// Short relative jumps (RGOTO*): read one following byte b; the conditional
// forms jump by b-128 (already consumed the byte when computing the
// target), the unconditional form jumps by b-127 (its pc is one past the
// opcode when the delta is added, since it is not yet incremented for the
// operand byte at that point, see machine.go).
const (
	RGOTO Opcode = 48 + iota
	RGOTOIFNIL
	RGOTOIFNONNIL
	RGOTOIFNILELSEPOP
	RGOTOIFNONNILELSEPOP
)

// Long absolute jumps: read two following bytes as an unsigned little-endian
// destination offset into the byte string.
const (
	GOTO Opcode = 56 + iota
	GOTOIFNIL
	GOTOIFNONNIL
	GOTOIFNILELSEPOP
	GOTOIFNONNILELSEPOP
)

// Control, stack and binding-adjacent opcodes with no immediate operand
// unless noted.
const (
	RETURN Opcode = 64 + iota
	DUP
	DISCARD // also used as the no-operand POP (discard 1)

	UNWINDPROTECT
	PUSHCATCH         // reads a 2-byte destination
	PUSHCONDITIONCASE // reads a 2-byte destination
	POPHANDLER

	SAVEEXCURSION
	SAVERESTRICTION
	SAVECURRENTBUFFER
)

// STACKREF, STACKSET and DISCARDN each read one byte operand (an index
// relative to the stack top, or a discard count with bit 7 as the
// preserve-TOS flag).
const (
	STACKREF Opcode = 80 + iota
	STACKSET
	DISCARDN
)

// Fast-path arithmetic/comparison opcodes that inline the common
// small-integer case and fall back to the named primitive otherwise.
const (
	ADD1 Opcode = 90 + iota
	SUB1
	NEGATE
	EQLSIGN
	GTR
	LSS
	LEQ
	GEQ
	PLUSOP
	DIFFOP
)

// Named list/predicate/string primitive opcodes, each a direct dispatch to
// the corresponding host.Registry entry.
const (
	CAR Opcode = 110 + iota
	CDR
	CONSOP
	EQOP
	MEMQ
	NOTOP
	CONSP
	STRINGP
	LISTP
	SYMBOLP
	NUMBERP
	INTEGERP
	NTH
	NTHCDR
	ELT
	MEMBER
	ASSQ
	NREVERSE
	SETCAR
	SETCDR
	CARSAFE
	CDRSAFE
	LENGTH
	AREF
	ASET
	LIST1
	LIST2
	LIST3
	LIST4
	LISTN // reads one byte: element count
	CONCAT2
	CONCAT3
	CONCAT4
	CONCATN // reads one byte: string count
	SUBSTRING
)

// CONSTANT_BASE: opcodes in [CONSTANT_BASE, 255] encode their constant pool
// index inline as op-CONSTANTBASE, giving 64 fast constants. CONSTANT2 takes
// a two-byte index for larger pools.
const (
	CONSTANT2    Opcode = 160
	CONSTANTBASE Opcode = 192
)

// Obsolete opcodes, retained for backward compatibility; refused when the
// thread runs in safe/strict mode.
const (
	SAVEWINDOWEXCURSION Opcode = 150 + iota
	CATCH
	CONDITIONCASE
	TEMPOUTPUTBUFFERSETUP
	TEMPOUTPUTBUFFERSHOW
	SETMARK
	SCANBUFFER
	UNBINDALL
)

var opcodeNames = map[Opcode]string{
	RETURN: "return", DUP: "dup", DISCARD: "discard",
	UNWINDPROTECT: "unwind-protect", PUSHCATCH: "pushcatch",
	PUSHCONDITIONCASE: "pushconditioncase", POPHANDLER: "pophandler",
	SAVEEXCURSION: "save-excursion", SAVERESTRICTION: "save-restriction",
	SAVECURRENTBUFFER: "save-current-buffer",
	STACKREF:          "stack-ref", STACKSET: "stack-set", DISCARDN: "discard-n",
	ADD1: "add1", SUB1: "sub1", NEGATE: "negate", EQLSIGN: "eqlsign",
	GTR: "gtr", LSS: "lss", LEQ: "leq", GEQ: "geq", PLUSOP: "plus", DIFFOP: "diff",
	CAR: "car", CDR: "cdr", CONSOP: "cons", EQOP: "eq", MEMQ: "memq", NOTOP: "not",
	CONSP: "consp", STRINGP: "stringp", LISTP: "listp", SYMBOLP: "symbolp",
	NUMBERP: "numberp", INTEGERP: "integerp", NTH: "nth", NTHCDR: "nthcdr",
	ELT: "elt", MEMBER: "member", ASSQ: "assq", NREVERSE: "nreverse",
	SETCAR: "setcar", SETCDR: "setcdr", CARSAFE: "car-safe", CDRSAFE: "cdr-safe",
	LENGTH: "length", AREF: "aref", ASET: "aset",
	LIST1: "list1", LIST2: "list2", LIST3: "list3", LIST4: "list4", LISTN: "listn",
	CONCAT2: "concat2", CONCAT3: "concat3", CONCAT4: "concat4", CONCATN: "concatn",
	SUBSTRING: "substring",
	GOTO: "goto", GOTOIFNIL: "gotoifnil", GOTOIFNONNIL: "gotoifnonnil",
	GOTOIFNILELSEPOP: "gotoifnilelsepop", GOTOIFNONNILELSEPOP: "gotoifnonnilelsepop",
	RGOTO: "rgoto", RGOTOIFNIL: "rgotoifnil", RGOTOIFNONNIL: "rgotoifnonnil",
	RGOTOIFNILELSEPOP: "rgotoifnilelsepop", RGOTOIFNONNILELSEPOP: "rgotoifnonnilelsepop",
	CONSTANT2: "constant2",
	SAVEWINDOWEXCURSION: "save-window-excursion", CATCH: "catch",
	CONDITIONCASE: "condition-case", TEMPOUTPUTBUFFERSETUP: "temp-output-buffer-setup",
	TEMPOUTPUTBUFFERSHOW: "temp-output-buffer-show", SETMARK: "set-mark",
	SCANBUFFER: "scan-buffer", UNBINDALL: "unbind-all",
}

var familyNames = map[Opcode]string{
	VARREF: "varref", VARSET: "varset", VARBIND: "varbind", CALL: "call", UNBIND: "unbind",
}

// String returns the mnemonic used by the assembler/disassembler.
func (op Opcode) String() string {
	if base, ok := familyOf(op); ok {
		variant := int(op - base)
		return fmt.Sprintf("%s%d", familyNames[base], variant)
	}
	if op >= CONSTANTBASE {
		return "constant"
	}
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("illegal(%d)", op)
}

// IsObsolete reports whether op is one of the backward-compatibility-only
// opcodes.
func IsObsolete(op Opcode) bool {
	return op >= SAVEWINDOWEXCURSION && op <= UNBINDALL
}
