package machine

import (
	"context"

	"github.com/mna/dynexec/lang/host"
)

// Thread is the execution context shared by every Frame in one call chain:
// the binding and handler stacks (LIFO across nested Execute calls), the
// symbol table for trapped-write variables, and the primitive registry the
// named opcodes delegate to.
type Thread struct {
	Registry *host.Registry
	Symbols  *host.SymbolTable
	Bindings *host.BindingStack
	Handlers *host.HandlerStack

	// SafeMode, when set, refuses obsolete opcodes instead of dispatching
	// them, and enables the operand-stack and call-stack capacity checks that
	// release builds skip in favor of trusting the compiler's MaxDepth and
	// the host's own stack.
	SafeMode bool

	// MaxCallStackDepth caps nested Execute invocations while SafeMode is on;
	// zero means unlimited. It stands in for the host's own call-stack limit,
	// since Go's real call stack backs nested Execute calls and has no
	// portable depth introspection of its own.
	MaxCallStackDepth int
	callDepth         int

	// MaxSteps caps the total number of dispatch-loop iterations across
	// every frame this Thread ever runs, nested Execute calls included; zero
	// means unlimited. It guards against a runaway or adversarial program
	// the same way the quit gate guards against an unresponsive one, but
	// unconditionally rather than only when a context is cancelled.
	MaxSteps int
	steps    int

	// Context governs cooperative cancellation via the quit gate (quit.go).
	// A nil Context is treated as context.Background().
	Context context.Context
}

// NewThread returns a Thread with freshly allocated binding/handler stacks
// and symbol table, using reg for primitive dispatch.
func NewThread(reg *host.Registry) *Thread {
	return &Thread{
		Registry: reg,
		Symbols:  host.NewSymbolTable(),
		Bindings: &host.BindingStack{},
		Handlers: &host.HandlerStack{},
		Context:  context.Background(),
	}
}

func (t *Thread) ctx() context.Context {
	if t.Context == nil {
		return context.Background()
	}
	return t.Context
}
