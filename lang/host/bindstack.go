// Package host implements the capabilities the dispatch loop consumes from
// its embedding host: dynamic variable rebinding (BindingStack), non-local
// control flow targets (HandlerStack), symbol value resolution
// (SymbolTable), and named primitive functions (Registry).
package host

// entryKind distinguishes a symbol rebinding from a deferred unwind action
// on the binding stack.
type entryKind int

const (
	kindRebind entryKind = iota
	kindUnwind
)

type bindEntry struct {
	kind entryKind

	// rebind fields: set restores the symbol's saved value on unwind.
	old any
	set func(old any)

	// unwind field
	undo func()
}

// BindingStack is a LIFO of scoped variable rebindings and deferred unwind
// actions. VARBIND pushes a rebinding; UNWIND-PROTECT pushes an unwind
// action; UNBIND pops entries (as does a frame exiting with an error, back
// to its entry depth), running unwind actions and restoring rebindings in
// LIFO order. RETURN pops nothing: it only checks the depth.
type BindingStack struct {
	entries []bindEntry
}

// Depth returns the current number of entries, captured by a frame on entry
// and compared against on exit to detect an imbalanced code object.
func (b *BindingStack) Depth() int { return len(b.entries) }

// PushRebind records that restoring to a shallower depth should invoke set
// with the given saved value.
func (b *BindingStack) PushRebind(set func(old any), old any) {
	b.entries = append(b.entries, bindEntry{kind: kindRebind, set: set, old: old})
}

// PushUnwind records a deferred action (UNWIND-PROTECT, SAVE-EXCURSION and
// friends) to run when unwound past.
func (b *BindingStack) PushUnwind(undo func()) {
	b.entries = append(b.entries, bindEntry{kind: kindUnwind, undo: undo})
}

// UnwindTo pops entries until Depth() == depth, running each popped entry's
// unwind action (or rebind restoration) in LIFO order (the UNBIND opcode's
// job).
func (b *BindingStack) UnwindTo(depth int) {
	for len(b.entries) > depth {
		i := len(b.entries) - 1
		e := b.entries[i]
		b.entries = b.entries[:i]
		switch e.kind {
		case kindRebind:
			e.set(e.old)
		case kindUnwind:
			e.undo()
		}
	}
}
