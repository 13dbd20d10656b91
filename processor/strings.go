package processor

// resolveAddress decodes raw (a freshly-read 64-bit word that may be a
// plain pointer, a chained rebase, or a bind) and returns the address it
// names, if any. A bind, a zero word, or a decode failure all report ok
// == false: spec.md treats list/record base addresses uniformly as
// internal-only targets.
func (l *loader) resolveAddress(raw uint64) (addr uint64, ok bool) {
	if raw == 0 {
		return 0, false
	}
	d := l.decodePointer(raw)
	if d.Kind != pointerKindAddress || d.Address == 0 {
		return 0, false
	}
	return d.Address, true
}

// readStringAt decodes raw as a pointer and reads the NUL-terminated
// string it points to.
func (l *loader) readStringAt(raw uint64) (string, bool) {
	addr, ok := l.resolveAddress(raw)
	if !ok {
		return "", false
	}
	return l.strings.Get(addr)
}

// readStringDirect reads the NUL-terminated string directly at vaddr,
// without treating vaddr itself as an encoded word needing decode. Used
// for small-method type strings and selector fallback reads, which
// spec.md §4.8 addresses by direct arithmetic rather than record decode.
func (l *loader) readStringDirect(vaddr uint64) (string, bool) {
	if vaddr == 0 {
		return "", false
	}
	return l.strings.Get(vaddr)
}
