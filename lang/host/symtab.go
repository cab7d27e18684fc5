package host

import (
	"github.com/dolthub/swiss"
	"github.com/mna/dynexec/lang/value"
)

// SymbolTable resolves a symbol to its dynamically scoped value. VARSET on a
// plain symbol writes value.Symbol.Value directly and never touches this
// type; VARREF always reads through Get, which returns Value unchanged for a
// symbol with no alias. For symbols marked TrappedWrite, a VARSET goes
// through Set, which can veto or rewrite the value, or forward it to an
// alias, instead of mutating the symbol's cell directly. There is no
// buffer-local binding support.
type SymbolTable struct {
	slots *swiss.Map[string, *slot]
}

type slot struct {
	alias   *value.Symbol // non-nil: this symbol forwards to another
	trapped func(name string, old, new value.Value) (value.Value, error)
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{slots: swiss.NewMap[string, *slot](8)}
}

// Alias makes from forward all Get/Set traffic to to, the way a Lisp
// defvaralias links two symbols' value cells.
func (t *SymbolTable) Alias(from *value.Symbol, to *value.Symbol) {
	t.slots.Put(from.Name, &slot{alias: to})
}

// Trap installs fn as the write trap for sym: every Set on sym calls fn with
// the old and proposed new value, using fn's return value as what is
// actually stored (or propagating an error to veto the write).
func (t *SymbolTable) Trap(sym *value.Symbol, fn func(name string, old, new value.Value) (value.Value, error)) {
	sym.TrappedWrite = true
	s, ok := t.slots.Get(sym.Name)
	if !ok {
		s = &slot{}
		t.slots.Put(sym.Name, s)
	}
	s.trapped = fn
}

// Get returns sym's current value, following an alias chain if present.
func (t *SymbolTable) Get(sym *value.Symbol) value.Value {
	seen := map[string]bool{}
	for {
		s, ok := t.slots.Get(sym.Name)
		if !ok || s.alias == nil {
			return sym.Value
		}
		if seen[sym.Name] {
			return sym.Value // alias cycle guard
		}
		seen[sym.Name] = true
		sym = s.alias
	}
}

// Set stores new as sym's value (VARSET opcode), honoring an alias target
// or a write trap if one is installed.
func (t *SymbolTable) Set(sym *value.Symbol, newVal value.Value) error {
	s, ok := t.slots.Get(sym.Name)
	if !ok {
		sym.Value = newVal
		return nil
	}
	if s.alias != nil {
		return t.Set(s.alias, newVal)
	}
	if s.trapped != nil {
		v, err := s.trapped(sym.Name, sym.Value, newVal)
		if err != nil {
			return err
		}
		sym.Value = v
		return nil
	}
	sym.Value = newVal
	return nil
}
