package processor

import (
	"testing"

	"github.com/nsobject/objcmeta/metadata"
	"github.com/nsobject/objcmeta/types"
)

// TestProcessRegularMethodsIvarsPropertiesAndBindSuperclass builds a single
// class (plus its metaclass) with two instance methods, one class method,
// one ivar and one property, and a superclass reference that resolves
// through bind-ordinal decoding (no chained-fixups table present).
func TestProcessRegularMethodsIvarsPropertiesAndBindSuperclass(t *testing.T) {
	b := newBinBuilder()

	nameFoo := b.putCString("Foo")
	selBar := b.putCString("bar")
	typeBar := b.putCString("v16@0:8")
	selInit := b.putCString("init")
	typeInit := b.putCString("@16@0:8")
	selMake := b.putCString("make")
	typeMake := b.putCString("@16@0:8")
	ivarNameAddr := b.putCString("count")
	ivarTypeAddr := b.putCString("i")
	propNameAddr := b.putCString("title")
	propAttrAddr := b.putCString("T@\"NSString\",N")

	offsetWordAddr := b.putU64(4)

	instMethods := b.methodList([][3]uint64{{selBar, typeBar, 0}, {selInit, typeInit, 0}})
	clsMethods := b.methodList([][3]uint64{{selMake, typeMake, 0}})
	ivars := b.ivarList([]ivarEntry{{offsetWordAddr: offsetWordAddr, name: ivarNameAddr, typ: ivarTypeAddr, alignment: 3, size: 4}})
	props := b.propertyList([][2]uint64{{propNameAddr, propAttrAddr}})

	metaRO := b.classRO(classROArgs{flags: 1, name: nameFoo, baseMethods: clsMethods})
	metaClassT := b.classT(0, 0, metaRO)

	fooRO := b.classRO(classROArgs{
		instanceStart: 8, instanceSize: 16,
		name: nameFoo, baseMethods: instMethods, ivars: ivars, baseProperties: props,
	})

	const bindOrdinal = 5
	bindRaw := (uint64(1) << 63) | (uint64(1) << 36) | bindOrdinal
	fooClassT := b.classT(metaClassT, bindRaw, fooRO)

	classlist := b.rawPointerArray([]uint64{fooClassT})

	f := &fakeMachOFile{
		data:     b.buf,
		sections: []types.Section{section(sectionClassList, classlist, 8)},
	}

	result, diag, err := Process(f, Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if diag.ClassesSeeded != 1 || diag.ClassesLoaded != 1 {
		t.Fatalf("diag = %+v, want 1 seeded, 1 loaded", diag)
	}
	if len(result.Classes) != 1 {
		t.Fatalf("Classes = %d, want 1", len(result.Classes))
	}

	class := result.Classes[0]
	if class.Name != "Foo" {
		t.Fatalf("class.Name = %q, want Foo", class.Name)
	}
	if class.MetaclassAddress != metaClassT {
		t.Fatalf("class.MetaclassAddress = %#x, want %#x", class.MetaclassAddress, metaClassT)
	}

	if class.SuperclassRef == nil || !class.SuperclassRef.IsExternal() {
		t.Fatalf("class.SuperclassRef = %+v, want an external bind ref", class.SuperclassRef)
	}
	if want := bindOrdinalPlaceholder(bindOrdinal); class.SuperclassRef.Name != want {
		t.Fatalf("class.SuperclassRef.Name = %q, want %q", class.SuperclassRef.Name, want)
	}

	if len(class.ClassMethods) != 1 || class.ClassMethods[0].Selector != "make" {
		t.Fatalf("class.ClassMethods = %+v, want [make]", class.ClassMethods)
	}

	if len(class.InstanceMethods) != 2 {
		t.Fatalf("class.InstanceMethods = %+v, want 2 entries", class.InstanceMethods)
	}
	if class.InstanceMethods[0].Selector != "init" || class.InstanceMethods[1].Selector != "bar" {
		t.Fatalf("class.InstanceMethods order = [%s, %s], want [init, bar] (reversed)",
			class.InstanceMethods[0].Selector, class.InstanceMethods[1].Selector)
	}

	if len(class.Ivars) != 1 {
		t.Fatalf("class.Ivars = %+v, want 1 entry", class.Ivars)
	}
	iv := class.Ivars[0]
	if iv.Name != "count" || iv.TypeEncoding != "i" || iv.ByteOffset != 4 || iv.ByteSize != 4 || iv.AlignmentLog2 != 3 {
		t.Fatalf("class.Ivars[0] = %+v, want {count i offset=4 size=4 align=3}", iv)
	}

	if len(class.Properties) != 1 || class.Properties[0].Name != "title" || class.Properties[0].AttributeString != "T@\"NSString\",N" {
		t.Fatalf("class.Properties = %+v, want [{title T@\\\"NSString\\\",N}]", class.Properties)
	}
}

// TestProcessChainedFixupRebaseSuperclass exercises the other
// superclass-resolution path: a raw word that a ChainedFixups table
// resolves to a rebase target rather than a bind.
func TestProcessChainedFixupRebaseSuperclass(t *testing.T) {
	b := newBinBuilder()

	nameBase := b.putCString("Base")
	nameSub := b.putCString("Sub")

	baseRO := b.classRO(classROArgs{name: nameBase})
	baseClassT := b.classT(0, 0, baseRO)

	const sentinelRaw = uint64(0xfeed000000000001)
	subRO := b.classRO(classROArgs{name: nameSub})
	subClassT := b.classT(0, sentinelRaw, subRO)

	classlist := b.rawPointerArray([]uint64{baseClassT, subClassT})

	fixups := &fakeFixupsTable{
		byRaw: map[uint64]types.FixupResult{
			sentinelRaw: {Kind: types.FixupRebase, Target: baseClassT},
		},
	}

	f := &fakeMachOFile{
		data:     b.buf,
		sections: []types.Section{section(sectionClassList, classlist, 16)},
		fixups:   fixups,
	}

	result, _, err := Process(f, Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(result.Classes) != 2 {
		t.Fatalf("Classes = %d, want 2 (Base and Sub)", len(result.Classes))
	}

	subClass, baseClass := findClassByName(result, "Sub"), findClassByName(result, "Base")
	if subClass == nil || baseClass == nil {
		t.Fatalf("expected both Base and Sub to load; got %+v", result.Classes)
	}
	if subClass.SuperclassRef == nil || subClass.SuperclassRef.IsExternal() {
		t.Fatalf("Sub.SuperclassRef = %+v, want a resolved local ref", subClass.SuperclassRef)
	}
	if subClass.SuperclassRef.Address != baseClassT {
		t.Fatalf("Sub.SuperclassRef.Address = %#x, want %#x", subClass.SuperclassRef.Address, baseClassT)
	}
	if subClass.SuperclassRef.Name != "Base" {
		t.Fatalf("Sub.SuperclassRef.Name = %q, want Base", subClass.SuperclassRef.Name)
	}
}

// TestProcessProtocolAdoptionCycle builds two protocols that each adopt
// the other and verifies the insert-before-fill cache lets both load
// without deadlocking or infinitely recursing.
func TestProcessProtocolAdoptionCycle(t *testing.T) {
	b := newBinBuilder()

	protoAAddr := b.reserveProtocol()
	protoBAddr := b.reserveProtocol()

	nameA := b.putCString("ProtoA")
	nameB := b.putCString("ProtoB")

	adoptedByA := b.countPrefixedPointerList([]uint64{protoBAddr})
	adoptedByB := b.countPrefixedPointerList([]uint64{protoAAddr})

	b.fillProtocol(protoAAddr, 0, nameA, adoptedByA, 0, 0, 0, 0, 0)
	b.fillProtocol(protoBAddr, 0, nameB, adoptedByB, 0, 0, 0, 0, 0)

	protolist := b.rawPointerArray([]uint64{protoAAddr, protoBAddr})

	f := &fakeMachOFile{
		data:     b.buf,
		sections: []types.Section{section(sectionProtoList, protolist, 16)},
	}

	result, diag, err := Process(f, Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if diag.ProtocolsSeeded != 2 || diag.ProtocolsLoaded != 2 {
		t.Fatalf("diag = %+v, want 2 seeded, 2 loaded", diag)
	}
	if len(result.Protocols) != 2 {
		t.Fatalf("Protocols = %d, want 2", len(result.Protocols))
	}

	protoA := findProtocolByName(result, "ProtoA")
	protoB := findProtocolByName(result, "ProtoB")
	if protoA == nil || protoB == nil {
		t.Fatalf("expected both ProtoA and ProtoB; got %+v", result.Protocols)
	}
	if len(protoA.Adopted) != 1 || protoA.Adopted[0].Name != "ProtoB" {
		t.Fatalf("ProtoA.Adopted = %+v, want [ProtoB]", protoA.Adopted)
	}
	if len(protoB.Adopted) != 1 || protoB.Adopted[0].Name != "ProtoA" {
		t.Fatalf("ProtoB.Adopted = %+v, want [ProtoA]", protoB.Adopted)
	}
}

// TestProcessImageInfo confirms the single objc_image_info record is
// read when present.
func TestProcessImageInfo(t *testing.T) {
	b := newBinBuilder()
	iiAddr := b.imageInfoT(0, 1<<8) // SwiftVersion() == 1

	classlist := b.rawPointerArray(nil)
	f := &fakeMachOFile{
		data: b.buf,
		sections: []types.Section{
			section(sectionImageInfo, iiAddr, 8),
			section(sectionClassList, classlist, 0),
		},
	}

	result, _, err := Process(f, Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.ImageInfo == nil {
		t.Fatalf("ImageInfo = nil, want a decoded record")
	}
	if result.ImageInfo.SwiftVersion() != 1 {
		t.Fatalf("SwiftVersion() = %d, want 1", result.ImageInfo.SwiftVersion())
	}
}

func findClassByName(m *metadata.Metadata, name string) *metadata.Class {
	for _, c := range m.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func findProtocolByName(m *metadata.Metadata, name string) *metadata.Protocol {
	for _, p := range m.Protocols {
		if p.Name == name {
			return p
		}
	}
	return nil
}
