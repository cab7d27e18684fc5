package bytecode

import "github.com/mna/dynexec/lang/value"

// NativeFunc is the JIT-compiled-native handle a code object may carry.
// The core never produces one; its presence only matters to the entry
// façade, which calls it instead of the interpreter (so no Frame is ever
// created for such a code object).
type NativeFunc func(args []value.Value) (value.Value, error)

// CodeObject aggregates everything the dispatch loop needs to run one
// function: its opcodes, its constant pool, the peak operand-stack depth
// the compiler computed, and its arity descriptor.
type CodeObject struct {
	Bytes     []byte
	Constants []value.Value
	MaxDepth  int
	Arity     Arity

	// Wide marks a byte string produced by a pre-20.3 Emacs compiler, stored
	// in multi-byte form for historical reasons; Narrow coerces it before
	// use.
	Wide bool

	// Native is non-nil when a JIT has compiled this code object to native
	// code; the entry façade dispatches to it instead of the interpreter.
	Native NativeFunc
}

var _ value.Value = (*CodeObject)(nil)

// String satisfies value.Value so a CodeObject can be pushed, stored in a
// constant pool, and passed to CALL like any other first-class function
// value.
func (c *CodeObject) String() string { return "#<bytecode>" }

// Type satisfies value.Value.
func (c *CodeObject) Type() string { return "bytecode" }

// Narrow returns a copy of bytes coerced from the historical wide
// (multi-byte) representation to the single-byte form the dispatch loop
// requires: each logical opcode byte was stored as a 2-byte UTF-8-ish
// sequence for raw bytes in [128,255]; narrowing undoes that by decoding
// each C2/C3 lead-byte pair back to the single raw byte it encodes.
//
// This coercion exists purely for backward compatibility with byte strings
// produced before the single-byte representation became the norm; a
// freshly assembled CodeObject is never Wide.
func Narrow(bytes []byte) []byte {
	out := make([]byte, 0, len(bytes))
	for i := 0; i < len(bytes); i++ {
		b := bytes[i]
		if b >= 0xC0 && i+1 < len(bytes) {
			// 2-byte UTF-8 encoding of a raw byte in [128,255]: C2/C3 lead byte
			// plus a continuation byte carrying the low bits.
			lead, cont := b, bytes[i+1]
			if lead == 0xC2 && cont >= 0x80 && cont <= 0xBF {
				out = append(out, cont)
				i++
				continue
			}
			if lead == 0xC3 && cont >= 0x80 && cont <= 0xBF {
				out = append(out, cont+0x40)
				i++
				continue
			}
		}
		out = append(out, b)
	}
	return out
}
