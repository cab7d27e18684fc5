package value

import (
	"fmt"

	"github.com/dolthub/swiss"
)

// HashTable is a mutable key/value store, the obarray-adjacent data
// structure Lisp code reaches for when an alist stops scaling. Keys are
// compared by Go equality, matching 'eq hash tables (identity for
// pointer-shaped values, value equality for Integer/Float/NilType).
type HashTable struct {
	m *swiss.Map[Value, Value]
}

var _ Value = (*HashTable)(nil)

// NewHashTable returns an empty table with initial capacity for at least
// size entries.
func NewHashTable(size int) *HashTable {
	if size < 1 {
		size = 1
	}
	return &HashTable{m: swiss.NewMap[Value, Value](uint32(size))}
}

func (h *HashTable) String() string { return fmt.Sprintf("#<hash-table len=%d>", h.m.Count()) }
func (h *HashTable) Type() string   { return "hash-table" }

// Get returns the value stored at k, or (nil, false) if absent.
func (h *HashTable) Get(k Value) (Value, bool) { return h.m.Get(k) }

// Put stores v at k, replacing any existing entry.
func (h *HashTable) Put(k, v Value) { h.m.Put(k, v) }

// IsHashTable reports whether v is a HashTable.
func IsHashTable(v Value) bool {
	_, ok := v.(*HashTable)
	return ok
}
