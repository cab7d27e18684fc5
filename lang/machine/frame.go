// Package machine implements the stack-based dispatch loop: the fetch,
// decode and execute cycle over a bytecode.CodeObject's byte string,
// an operand stack, and the binding/handler stacks it shares with the rest
// of a Thread's call chain.
package machine

import (
	"github.com/mna/dynexec/lang/bytecode"
	"github.com/mna/dynexec/lang/value"
)

// Frame is one activation of Execute: its code object, program counter (a
// byte offset into Code.Bytes, never a raw pointer, so a Go-managed slice
// relocation never invalidates it, see gc.go), and operand stack.
//
// BindDepth and HandlerDepth are the depths of the thread-shared binding and
// handler stacks captured on entry; RETURN (and an error unwind) restores
// both, enforcing that a function leaves no dangling rebindings or handlers
// behind (I3).
type Frame struct {
	Code *bytecode.CodeObject
	PC   int

	Stack []value.Value

	BindDepth    int
	HandlerDepth int

	// branchCount amortizes the cooperative quit check: it is incremented on
	// every taken backward or forward branch and reset when maybeQuit polls
	// (quit.go).
	branchCount int
}

// NewFrame allocates a Frame ready to execute code, with its operand stack
// preallocated to the compiler-computed peak depth.
func NewFrame(code *bytecode.CodeObject) *Frame {
	return &Frame{
		Code:  code,
		Stack: make([]value.Value, 0, code.MaxDepth+1),
	}
}

// Push appends v to the operand stack.
func (f *Frame) Push(v value.Value) { f.Stack = append(f.Stack, v) }

// Pop removes and returns the top of the operand stack. It panics if the
// stack is empty, which indicates a malformed code object (a compiler bug,
// not a condition user code can trigger, see I3's rationale).
func (f *Frame) Pop() value.Value {
	i := len(f.Stack) - 1
	v := f.Stack[i]
	f.Stack = f.Stack[:i]
	return v
}

// Top returns the operand at the given depth below the top (0 is TOS),
// without removing it. Used by STACKREF/STACKSET and DISCARDN's
// preserve-TOS form.
func (f *Frame) Top(depth int) value.Value {
	return f.Stack[len(f.Stack)-1-depth]
}

// SetTop overwrites the operand at the given depth below the top.
func (f *Frame) SetTop(depth int, v value.Value) {
	f.Stack[len(f.Stack)-1-depth] = v
}

// Discard removes the top n operands. When preserveTOS
// is set, the current top is set aside first, the n operands beneath it are
// discarded, and it is pushed back on top (DISCARD-N's bit-7 flag) — n
// never counts the preserved value itself.
func (f *Frame) Discard(n int, preserveTOS bool) {
	if !preserveTOS {
		f.Stack = f.Stack[:len(f.Stack)-n]
		return
	}
	tos := f.Pop()
	f.Stack = f.Stack[:len(f.Stack)-n]
	f.Push(tos)
}

// Depth returns the current operand stack depth.
func (f *Frame) Depth() int { return len(f.Stack) }
