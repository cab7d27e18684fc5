package value

import "sync"

// Symbol is an interned name. Its Value field is the "plain-value cell"
// read and written by VARREF/VARSET/VARBIND. VARREF reads it through the
// host's generic lookup, which follows an aliased binding if one is
// installed; a VARREF that still finds Unbound is a void-variable error.
type Symbol struct {
	Name string

	// Value is the symbol's plain global value cell. Unbound means "no plain
	// global value" (the generic path must be consulted).
	Value Value

	// TrappedWrite, when set, forces VARSET to go through the generic
	// set-value path instead of writing Value directly.
	TrappedWrite bool
}

var _ Value = (*Symbol)(nil)

func (s *Symbol) String() string { return s.Name }
func (s *Symbol) Type() string   { return "symbol" }

var (
	internMu sync.Mutex
	interned = make(map[string]*Symbol)
)

// Intern returns the unique *Symbol for name, creating it (with an Unbound
// plain value) on first use.
func Intern(name string) *Symbol {
	internMu.Lock()
	defer internMu.Unlock()
	if s, ok := interned[name]; ok {
		return s
	}
	s := &Symbol{Name: name, Value: Unbound}
	interned[name] = s
	return s
}

// IsSymbol reports whether v is a Symbol.
func IsSymbol(v Value) bool {
	_, ok := v.(*Symbol)
	return ok
}
