// Package strtab caches null-terminated strings read at a virtual address,
// grounded on blacktop-go-macho's File.GetCString/GetCStringAtOffset
// (file.go), which re-reads and re-scans on every call; this package adds
// the concurrent cache spec.md §4.3 requires.
package strtab

import (
	"sync"
	"unicode/utf8"
)

// Translator resolves a virtual address to a file offset.
type Translator interface {
	FileOffset(vaddr uint64) (uint64, error)
}

// Table is a concurrent, read-mostly cache of vaddr -> string.
type Table struct {
	data []byte
	vma  Translator

	mu    sync.RWMutex
	cache map[uint64]string
}

// New returns a Table reading NUL-terminated strings out of data, with
// vaddr -> file-offset translation provided by vma.
func New(data []byte, vma Translator) *Table {
	return &Table{
		data:  data,
		vma:   vma,
		cache: make(map[uint64]string),
	}
}

// Get returns the string at vaddr, or ("", false) if the address doesn't
// translate, the scan runs off the end of the file, or the bytes aren't
// valid UTF-8 (spec.md §4.3: this is not an error, just "not available").
func (t *Table) Get(vaddr uint64) (string, bool) {
	t.mu.RLock()
	s, ok := t.cache[vaddr]
	t.mu.RUnlock()
	if ok {
		return s, true
	}

	off, err := t.vma.FileOffset(vaddr)
	if err != nil {
		return "", false
	}

	end := off
	for end < uint64(len(t.data)) && t.data[end] != 0 {
		end++
	}
	if end >= uint64(len(t.data)) {
		return "", false
	}
	raw := t.data[off:end]
	if !utf8.Valid(raw) {
		return "", false
	}
	s = string(raw)

	t.mu.Lock()
	if existing, ok := t.cache[vaddr]; ok {
		// First writer wins; keep result identical across callers.
		s = existing
	} else {
		t.cache[vaddr] = s
	}
	t.mu.Unlock()

	return s, true
}
