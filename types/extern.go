// Package types defines the narrow interfaces this module consumes from
// its external collaborators (spec.md §6): a parsed Mach-O file, a Swift
// demangler, a chained-fixups decoder and Swift reflection metadata. This
// module never parses Mach-O load commands itself.
package types

// ByteOrder mirrors encoding/binary.ByteOrder's surface this package needs
// without importing it at every call site.
type ByteOrder interface {
	Uint16([]byte) uint16
	Uint32([]byte) uint32
	Uint64([]byte) uint64
}

// Section is a named region of a Mach-O segment.
type Section struct {
	Name       string
	FileOffset uint64
	Size       uint64
	Addr       uint64
}

// Segment is a Mach-O segment: a virtual-address range backed by a file
// region, plus its named sections.
type Segment struct {
	Name     string
	VMAddr   uint64
	VMSize   uint64
	FileOff  uint64
	FileSize uint64
	Sections []Section
}

// Section returns the named section within this segment, or nil.
func (s *Segment) Section(name string) *Section {
	for i := range s.Sections {
		if s.Sections[i].Name == name {
			return &s.Sections[i]
		}
	}
	return nil
}

// FixupResult is the outcome of decoding a raw 64-bit word through a
// ChainedFixups table.
type FixupResult struct {
	Kind    FixupKind
	Target  uint64 // valid when Kind == FixupRebase
	Ordinal uint32 // valid when Kind == FixupBind
	Addend  int64  // valid when Kind == FixupBind
}

// FixupKind discriminates a FixupResult.
type FixupKind int

const (
	// NotFixup means the table has no entry for this raw word; the caller
	// should fall back to the bit-twiddling rule in spec.md §4.4.
	NotFixup FixupKind = iota
	FixupRebase
	FixupBind
)

// ChainedFixups decodes raw pointer words using a binary's parsed
// LC_DYLD_CHAINED_FIXUPS metadata, when present.
type ChainedFixups interface {
	DecodePointer(raw uint64) FixupResult
	SymbolName(ordinal uint32) (string, bool)
}

// Demangler turns Swift mangled names into their human-readable forms.
type Demangler interface {
	Demangle(s string) string
	DemangleClassName(s string) (module, name string, ok bool)
	DemangleNestedClassName(s string) []string
	ExtractTypeName(mangled string) string
	// DemangleSymbolicType demangles a field record's raw mangled-type
	// bytes, which may carry embedded symbolic references the plain
	// string form (MangledTypeName) does not resolve (spec.md §4.9 step 3).
	DemangleSymbolicType(data []byte) string
}

// FieldRecord is one field of a Swift field descriptor.
type FieldRecord struct {
	Name              string
	MangledTypeName   string
	MangledTypeData   []byte
	SourceOffset      uint64
}

// FieldDescriptor describes the fields of a single Swift nominal type.
type FieldDescriptor struct {
	Address         uint64
	MangledTypeName string
	Records         []FieldRecord
}

// SwiftType names a Swift nominal type by address.
type SwiftType struct {
	Address  uint64
	Name     string
	FullName string
}

// SwiftMetadata exposes the Swift reflection data parsed out of a binary's
// __swift5_fieldmd/__swift5_types sections.
type SwiftMetadata interface {
	FieldDescriptors() []FieldDescriptor
	Types() []SwiftType
	// Conformances returns the protocol conformances recorded for a Swift
	// type, looked up by any of its mangled, demangled, or module-qualified
	// names (spec.md §9 leaves the exact key unspecified; callers try all
	// three).
	Conformances(typeName string) []string
}

// MachOFile is the narrow view of a parsed Mach-O image this module reads
// metadata from. Actual Mach-O load-command parsing is out of scope; an
// adapter over a real parser (e.g. blacktop/go-macho) implements this.
type MachOFile interface {
	Data() []byte
	Segments() []Segment
	ByteOrder() ByteOrder
	Is64Bit() bool
	ChainedFixups() (ChainedFixups, bool)
	SwiftMetadata() (SwiftMetadata, bool)
}

// TypeEncodingParser is the external ObjC type-encoding decoder; this
// module passes encoded strings through unchanged except to feed them to
// this collaborator when building the structure/method-signature
// registries.
type TypeEncodingParser interface {
	Parse(encoding string) (ok bool)
}
