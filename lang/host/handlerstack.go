package host

import "github.com/mna/dynexec/lang/value"

// HandlerKind distinguishes a catch tag handler from a condition-case
// handler.
type HandlerKind int

const (
	// HandlerCatch matches a throw whose tag is value.Identical to Tag.
	HandlerCatch HandlerKind = iota
	// HandlerCondition matches any thrown signal (condition-case acts as a
	// catch-all at this layer; finer-grained condition matching is a host
	// concern layered on top).
	HandlerCondition
)

// HandlerFrame is one entry on the non-local-exit handler stack, pushed by
// PUSHCATCH/PUSHCONDITIONCASE and popped by POPHANDLER, by the pushing
// frame's exit (PopTo its entry depth), or by a throw it catches.
type HandlerFrame struct {
	Kind HandlerKind
	Tag  value.Value // catch tag; ignored for HandlerCondition

	// Dest is the byte offset the dispatch loop resumes at when this frame
	// catches a throw.
	Dest int

	// BindDepth and StackDepth are the binding-stack and operand-stack depths
	// to restore to before resuming at Dest.
	BindDepth  int
	StackDepth int
}

// Signal is the payload carried by a non-local exit: either a catch/throw
// pair (Tag set) or a condition-case signal (Tag nil, Value carries the
// signal payload).
type Signal struct {
	Tag   value.Value
	Value value.Value
}

// thrown is the concrete type panic'd by Throw and recovered by the
// dispatch loop's handler search; it is unexported so only this package's
// Throw can originate one, preventing an unrelated panic from being
// mistaken for a non-local exit.
type thrown struct {
	sig Signal
}

// HandlerStack is the LIFO of active catch/condition-case frames.
type HandlerStack struct {
	frames []HandlerFrame
}

// Push records a new handler frame on top of the stack; Depth()-1 is its
// index for later removal via PopTo.
func (h *HandlerStack) Push(f HandlerFrame) { h.frames = append(h.frames, f) }

// Depth returns the number of active handler frames.
func (h *HandlerStack) Depth() int { return len(h.frames) }

// PopTo truncates the handler stack to depth entries (POPHANDLER opcode,
// and implicitly on normal fallthrough past a pushed handler).
func (h *HandlerStack) PopTo(depth int) { h.frames = h.frames[:depth] }

// Throw raises a non-local exit carrying sig. It panics with an unexported
// sentinel type; the dispatch loop recovers it, walks the handler stack
// from the top for a frame whose Kind/Tag matches, restores that frame's
// saved depths, and resumes at its Dest. If no frame matches anywhere on
// the active Go call stack, Execute converts it into a NoCatchError.
func Throw(sig Signal) { panic(thrown{sig: sig}) }

// Recover converts a recovered panic value into (Signal, true) if it
// originated from Throw, or (Signal{}, false) otherwise — in which case the
// caller must re-panic to avoid swallowing an unrelated panic.
func Recover(r any) (Signal, bool) {
	t, ok := r.(thrown)
	if !ok {
		return Signal{}, false
	}
	return t.sig, true
}

// Find searches frames from the top for one matching sig, returning its
// index and true, or false if none match.
func (h *HandlerStack) Find(sig Signal) (int, bool) {
	for i := len(h.frames) - 1; i >= 0; i-- {
		f := h.frames[i]
		switch f.Kind {
		case HandlerCatch:
			if value.Identical(f.Tag, sig.Tag) {
				return i, true
			}
		case HandlerCondition:
			return i, true
		}
	}
	return 0, false
}

// At returns the frame at index i.
func (h *HandlerStack) At(i int) HandlerFrame { return h.frames[i] }
