package machine

// A frame's PC is a byte offset into Code.Bytes (an int), never a raw
// pointer into the byte string's backing array. The original design's
// relocation hook exists because that host stores PC as a pointer and must
// fix it up when its collector moves a byte string's buffer; a Go slice
// index needs no such fixup; Go's garbage collector moves nothing a
// program holds a reference to in the first place.
//
// Relocate is kept as the seam that design calls for, so a test can still
// simulate a moving collector and assert the invariant holds: every
// in-flight frame's PC stays a valid offset into its code object's current
// Bytes after Bytes is replaced by a (possibly differently-backed) copy.
func Relocate(frames []*Frame) {
	for _, f := range frames {
		if f.PC < 0 || f.PC > len(f.Code.Bytes) {
			panic("machine: frame pc out of range after relocation")
		}
	}
}
