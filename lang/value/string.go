package value

import "strconv"

// String is a mutable sequence of bytes. It is a pointer type (unlike Go's
// native string) because the host language treats strings as heap objects
// with their own identity, distinct from equal-content strings.
type String struct {
	Data []byte
}

var _ Value = (*String)(nil)

// NewString allocates a String with the given contents.
func NewString(s string) *String { return &String{Data: []byte(s)} }

func (s *String) String() string { return strconv.Quote(string(s.Data)) }
func (s *String) Type() string   { return "string" }
func (s *String) Len() int       { return len(s.Data) }
func (s *String) Go() string     { return string(s.Data) }

// IsString reports whether v is a String.
func IsString(v Value) bool {
	_, ok := v.(*String)
	return ok
}
