package metadata

import (
	"sync"

	"github.com/nsobject/objcmeta/types"
)

// StructureRegistry accumulates the distinct ivar type encodings observed
// across every class (property attribute strings are not fed to it), feeding an external
// type-encoding parser (spec.md §3: "opaque to the core; they must be
// ready when the processor returns"). It is populated once, during the
// registry-build phase of processor.Process, and is read-only thereafter.
type StructureRegistry struct {
	mu      sync.Mutex
	parser  types.TypeEncodingParser
	entries map[string]bool
}

// NewStructureRegistry returns a registry that feeds observed encodings to
// parser. parser may be nil, in which case Observe is a no-op cache.
func NewStructureRegistry(parser types.TypeEncodingParser) *StructureRegistry {
	return &StructureRegistry{parser: parser, entries: make(map[string]bool)}
}

// Observe records encoding, parsing it exactly once per distinct string.
func (s *StructureRegistry) Observe(encoding string) {
	if encoding == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[encoding]; ok {
		return
	}
	ok := true
	if s.parser != nil {
		ok = s.parser.Parse(encoding)
	}
	s.entries[encoding] = ok
}

// Encodings returns every distinct encoding observed, in no particular
// order.
func (s *StructureRegistry) Encodings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for k := range s.entries {
		out = append(out, k)
	}
	return out
}

// MethodSignatureRegistry accumulates the distinct method type encodings
// observed across every method list, for the same reason StructureRegistry
// does for ivar encodings.
type MethodSignatureRegistry struct {
	mu      sync.Mutex
	parser  types.TypeEncodingParser
	entries map[string]bool
}

// NewMethodSignatureRegistry returns a registry backed by parser (nil is
// permitted).
func NewMethodSignatureRegistry(parser types.TypeEncodingParser) *MethodSignatureRegistry {
	return &MethodSignatureRegistry{parser: parser, entries: make(map[string]bool)}
}

// Observe records a method type encoding.
func (m *MethodSignatureRegistry) Observe(encoding string) {
	if encoding == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[encoding]; ok {
		return
	}
	ok := true
	if m.parser != nil {
		ok = m.parser.Parse(encoding)
	}
	m.entries[encoding] = ok
}

// Encodings returns every distinct method type encoding observed.
func (m *MethodSignatureRegistry) Encodings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for k := range m.entries {
		out = append(out, k)
	}
	return out
}

// RawTypeEncodingParser is the pass-through TypeEncodingParser used when no
// real ObjC type-encoding decoder is configured: every encoding is
// accepted unparsed, exactly as spec.md §1 describes the default
// ("we pass encoded strings through unchanged").
type RawTypeEncodingParser struct{}

// Parse always reports success; it performs no decoding.
func (RawTypeEncodingParser) Parse(encoding string) bool { return true }
