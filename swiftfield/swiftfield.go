// Package swiftfield implements the SwiftFieldIndex (spec.md §4.9): a
// multi-variant name index over Swift field descriptors, used to resolve
// the Swift source type of an ObjC ivar declared by a class the Swift
// compiler lowered to ObjC2 metadata. Grounded on the field-record walking
// in the ipsw internal/preview Swift parser (other_examples,
// k-kohey-axe-cli__internal-preview-parser_swift.go) and blacktop-go-macho's
// types/swift/field.go record shapes, reworked against this module's
// types.SwiftMetadata collaborator instead of parsing the records itself.
package swiftfield

import (
	"strings"
	"sync"

	"github.com/nsobject/objcmeta/types"
)

// Index answers resolve_swift_ivar_type queries over a binary's Swift
// field descriptors. Build once per process() call; safe for concurrent
// Resolve calls thereafter.
type Index struct {
	byMangledName map[string]*types.FieldDescriptor
	byVariant     map[string]*types.FieldDescriptor
	demangler     types.Demangler

	mu             sync.Mutex
	demangledCache map[string]string
}

// Build constructs an Index from descriptors and the Swift types a
// SwiftMetadata collaborator reports, associating each type's declared
// names (simple, module-qualified, demangled, and progressive dotted
// suffixes) with its field descriptor. demangler may be nil, in which case
// only the mangled and pre-supplied names are indexed.
func Build(descriptors []types.FieldDescriptor, swiftTypes []types.SwiftType, demangler types.Demangler) *Index {
	idx := &Index{
		byMangledName:  make(map[string]*types.FieldDescriptor),
		byVariant:      make(map[string]*types.FieldDescriptor),
		demangler:      demangler,
		demangledCache: make(map[string]string),
	}

	byAddr := make(map[uint64]*types.FieldDescriptor, len(descriptors))
	for i := range descriptors {
		d := &descriptors[i]
		byAddr[d.Address] = d
		if d.MangledTypeName != "" {
			idx.byMangledName[d.MangledTypeName] = d
		}
	}

	for _, st := range swiftTypes {
		d, ok := byAddr[st.Address]
		if !ok {
			continue
		}
		idx.bindVariant(st.Name, d)
		idx.bindVariant(st.FullName, d)
		idx.bindSuffixes(st.FullName, d)
		if demangler != nil && d.MangledTypeName != "" {
			if dn := demangler.Demangle(d.MangledTypeName); dn != "" {
				idx.demangledCache[d.MangledTypeName] = dn
				idx.bindVariant(dn, d)
				idx.bindSuffixes(dn, d)
			}
		}
	}
	return idx
}

// bindVariant associates name with d; a later call for the same name
// overwrites the earlier binding (spec.md §4.9: "last one wins").
func (idx *Index) bindVariant(name string, d *types.FieldDescriptor) {
	if name == "" {
		return
	}
	idx.byVariant[name] = d
}

// bindSuffixes binds every progressive dotted suffix of a module-qualified
// name, e.g. "Module.Outer.Inner" binds "Module.Outer.Inner", "Outer.Inner"
// and "Inner".
func (idx *Index) bindSuffixes(qualified string, d *types.FieldDescriptor) {
	if !strings.Contains(qualified, ".") {
		return
	}
	parts := strings.Split(qualified, ".")
	for i := 1; i < len(parts); i++ {
		idx.bindVariant(strings.Join(parts[i:], "."), d)
	}
}

// Resolve implements resolve_swift_ivar_type: given the ObjC-visible Swift
// class name and an ivar name, returns the Swift source type string, or
// ("", false) if nothing matches.
func (idx *Index) Resolve(className, ivarName string) (string, bool) {
	for _, candidate := range idx.classNameCandidates(className) {
		if d, ok := idx.byVariant[candidate]; ok {
			if s, ok := idx.matchRecord(d, ivarName); ok {
				return s, true
			}
		}
	}
	// Fallback: linear scan of every descriptor, matching its own
	// declared name candidates against the class-derived candidates.
	candidates := idx.classNameCandidates(className)
	for mangled, d := range idx.byMangledName {
		for _, candidate := range candidates {
			if mangled == candidate || strings.Contains(mangled, candidate) {
				if s, ok := idx.matchRecord(d, ivarName); ok {
					return s, true
				}
			}
		}
	}
	return "", false
}

// classNameCandidates strips the ObjC-Swift mangled class-name prefix
// family and asks the demangler for up to three name variants, per
// spec.md §4.9 step 1.
func (idx *Index) classNameCandidates(className string) []string {
	switch {
	case strings.HasPrefix(className, "_TtCC"), strings.HasPrefix(className, "_TtCCC"):
		if idx.demangler == nil {
			return nil
		}
		names := idx.demangler.DemangleNestedClassName(className)
		if len(names) == 0 {
			return nil
		}
		return []string{names[len(names)-1], strings.Join(names, ".")}
	case strings.HasPrefix(className, "_TtC"), strings.HasPrefix(className, "_TtGC"):
		if idx.demangler == nil {
			return nil
		}
		module, name, ok := idx.demangler.DemangleClassName(className)
		if !ok {
			return nil
		}
		return []string{name, module + "." + name}
	default:
		return []string{className}
	}
}

// canonicalizeIvarName strips the common Swift storage-property prefixes
// and leading sigil discrepancies spec.md §4.9 step 2 names.
func canonicalizeIvarName(name string) string {
	name = strings.TrimPrefix(name, "$__lazy_storage_$_")
	name = strings.TrimPrefix(name, "_$s")
	name = strings.TrimPrefix(name, "_")
	name = strings.TrimPrefix(name, "$")
	return name
}

// matchRecord finds the field record in d whose canonicalized name equals
// ivarName's, then resolves its type per spec.md §4.9 step 3: prefer
// symbolic demangling of the record's raw mangled-type bytes, falling back
// to demangling the plain mangled-type-name string.
func (idx *Index) matchRecord(d *types.FieldDescriptor, ivarName string) (string, bool) {
	want := canonicalizeIvarName(ivarName)
	for _, rec := range d.Records {
		if canonicalizeIvarName(rec.Name) != want {
			continue
		}
		if len(rec.MangledTypeData) > 0 && idx.demangler != nil {
			if s := idx.demangler.DemangleSymbolicType(rec.MangledTypeData); s != "" &&
				!strings.HasPrefix(s, "//") && s != rec.MangledTypeName {
				return s, true
			}
		}
		return idx.demangleCached(rec.MangledTypeName)
	}
	return "", false
}

func (idx *Index) demangleCached(mangled string) (string, bool) {
	if mangled == "" {
		return "", false
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if s, ok := idx.demangledCache[mangled]; ok {
		return s, s != ""
	}
	if idx.demangler == nil {
		return "", false
	}
	s := idx.demangler.Demangle(mangled)
	idx.demangledCache[mangled] = s
	return s, s != ""
}
