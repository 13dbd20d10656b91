// Package metadata defines the entity graph this module reconstructs from
// a binary's ObjC2 runtime metadata (spec.md §3): protocols, classes,
// categories, their members, and the root Metadata aggregate. Every entity
// is created once by processor.Process and is thereafter immutable; the
// types here carry no behavior beyond that implied by spec.md's data
// model, mirroring blacktop-go-macho's types/objc entity structs (Class,
// Protocol, Category) but dropping their Verbose()/dump() presentation
// methods, which belong to an output formatter outside this module's
// scope.
package metadata

// ImageInfo is the objc_image_info record's decoded form. At most one
// exists per binary.
type ImageInfo struct {
	Version uint32
	Flags   uint32
}

// SwiftVersion extracts the Swift ABI version from Flags, bits 8..15.
func (i ImageInfo) SwiftVersion() uint8 {
	return uint8((i.Flags >> 8) & 0xff)
}

// Ref names a cross-entity reference that may resolve to a local address
// or, for an external bind, to a name only (Address == 0).
type Ref struct {
	Name    string
	Address uint64
}

// IsExternal reports whether this reference names an external (bound)
// symbol rather than an entity loaded from this binary.
func (r Ref) IsExternal() bool { return r.Address == 0 }

// Method is one compiled method declaration.
type Method struct {
	Selector             string
	TypeEncoding         string
	ImplementationAddress uint64
}

// InstanceVariable is one compiled ivar declaration.
type InstanceVariable struct {
	Name             string
	TypeEncoding     string
	SwiftTypeOverride string
	ByteOffset       uint32
	ByteSize         uint32
	AlignmentLog2    uint32
}

// Property is one compiled @property declaration. The attribute string is
// the raw ObjC encoding (T…,&,N,V_backing,…); parsing it is a consumer
// concern.
type Property struct {
	Name           string
	AttributeString string
}

// Protocol is a reconstructed @protocol declaration. Unique by Address.
type Protocol struct {
	Name    string
	Address uint64

	Adopted []*Protocol

	RequiredInstanceMethods []Method
	RequiredClassMethods    []Method
	OptionalInstanceMethods []Method
	OptionalClassMethods    []Method

	Properties []Property
}

// Class is a reconstructed @interface declaration. Unique by Address.
type Class struct {
	Name    string
	Address uint64

	SuperclassRef *Ref
	IsSwift       bool
	IsExported    bool

	ClassDataAddress  uint64
	MetaclassAddress  uint64

	Adopted            []*Protocol
	SwiftConformances  []string

	Ivars []InstanceVariable

	InstanceMethods []Method
	ClassMethods    []Method
	Properties      []Property
}

// Category is a reconstructed @interface(Category) declaration. Unique by
// (ClassRef.Name, Name, Address).
type Category struct {
	Name     string
	Address  uint64
	ClassRef *Ref

	Adopted []*Protocol

	InstanceMethods []Method
	ClassMethods    []Method
	Properties      []Property
}

// Metadata is the root, immutable aggregate processor.Process returns. It
// exclusively owns every entity; all cross-references are shared,
// non-owning pointers into its own slices/caches.
type Metadata struct {
	ImageInfo  *ImageInfo
	Protocols  []*Protocol
	Classes    []*Class
	Categories []*Category

	Structures       *StructureRegistry
	MethodSignatures *MethodSignatureRegistry
}

// Diagnostics counts entities and records dropped during one Process call.
// This is informational only (spec.md §7): it is never part of the
// success/failure contract of Process.
type Diagnostics struct {
	ProtocolsSeeded   int
	ProtocolsLoaded   int
	ClassesSeeded     int
	ClassesLoaded     int
	CategoriesSeeded  int
	CategoriesLoaded  int
	EntitiesDropped   int
	RecordsMalformed  int
}
