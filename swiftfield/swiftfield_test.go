package swiftfield

import (
	"testing"

	"github.com/nsobject/objcmeta/types"
)

// fakeDemangler implements types.Demangler for tests that don't need the
// real mangling grammar, only the class-name-splitting contract
// swiftfield.Index calls into.
type fakeDemangler struct{}

func (fakeDemangler) Demangle(s string) string { return s }
func (fakeDemangler) DemangleClassName(s string) (string, string, bool) {
	if s == "_TtC6Widget6Gadget" {
		return "Widget", "Gadget", true
	}
	return "", "", false
}
func (fakeDemangler) DemangleNestedClassName(s string) []string { return nil }
func (fakeDemangler) ExtractTypeName(mangled string) string      { return mangled }
func (fakeDemangler) DemangleSymbolicType(data []byte) string    { return string(data) }

func TestResolveByDeclaredName(t *testing.T) {
	descs := []types.FieldDescriptor{
		{
			Address:         0x1000,
			MangledTypeName: "Widget.Gadget",
			Records: []types.FieldRecord{
				{Name: "count", MangledTypeName: "Si"},
				{Name: "label", MangledTypeName: "SS"},
			},
		},
	}
	swiftTypes := []types.SwiftType{
		{Address: 0x1000, Name: "Gadget", FullName: "Widget.Gadget"},
	}
	idx := Build(descs, swiftTypes, fakeDemangler{})

	got, ok := idx.Resolve("Widget.Gadget", "count")
	if !ok || got != "Si" {
		t.Fatalf("Resolve(by full name) = %q, %v; want Si, true", got, ok)
	}
	got, ok = idx.Resolve("Gadget", "label")
	if !ok || got != "SS" {
		t.Fatalf("Resolve(by simple name) = %q, %v; want SS, true", got, ok)
	}
	if _, ok := idx.Resolve("Gadget", "missing"); ok {
		t.Fatalf("Resolve(missing ivar) = ok, want false")
	}
}

func TestResolveObjCMangledClassNameViaDemangler(t *testing.T) {
	descs := []types.FieldDescriptor{
		{Address: 0x2000, MangledTypeName: "Widget.Gadget", Records: []types.FieldRecord{
			{Name: "count", MangledTypeName: "Si"},
		}},
	}
	swiftTypes := []types.SwiftType{{Address: 0x2000, Name: "Gadget", FullName: "Widget.Gadget"}}
	idx := Build(descs, swiftTypes, fakeDemangler{})

	got, ok := idx.Resolve("_TtC6Widget6Gadget", "count")
	if !ok || got != "Si" {
		t.Fatalf("Resolve(_TtC mangled class name) = %q, %v; want Si, true", got, ok)
	}
}

func TestResolveCanonicalizesIvarName(t *testing.T) {
	descs := []types.FieldDescriptor{
		{Address: 0x3000, MangledTypeName: "Widget.Gadget", Records: []types.FieldRecord{
			{Name: "value", MangledTypeName: "Si"},
		}},
	}
	swiftTypes := []types.SwiftType{{Address: 0x3000, Name: "Gadget", FullName: "Widget.Gadget"}}
	idx := Build(descs, swiftTypes, fakeDemangler{})

	got, ok := idx.Resolve("Gadget", "_value")
	if !ok || got != "Si" {
		t.Fatalf("Resolve(leading-underscore ivar) = %q, %v; want Si, true", got, ok)
	}
}

func TestResolvePrefersSymbolicTypeData(t *testing.T) {
	descs := []types.FieldDescriptor{
		{Address: 0x4000, MangledTypeName: "Widget.Gadget", Records: []types.FieldRecord{
			{Name: "count", MangledTypeName: "Si", MangledTypeData: []byte("SymbolicInt")},
		}},
	}
	swiftTypes := []types.SwiftType{{Address: 0x4000, Name: "Gadget", FullName: "Widget.Gadget"}}
	idx := Build(descs, swiftTypes, fakeDemangler{})

	got, ok := idx.Resolve("Gadget", "count")
	if !ok || got != "SymbolicInt" {
		t.Fatalf("Resolve(symbolic type data preferred) = %q, %v; want SymbolicInt, true", got, ok)
	}
}
