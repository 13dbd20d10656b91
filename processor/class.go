package processor

import (
	"sync/atomic"

	"github.com/nsobject/objcmeta/metadata"
	objcrec "github.com/nsobject/objcmeta/types/objc"
)

// loadClassAt implements spec.md §4.8 load_class_at. addr is an
// already-resolved virtual address.
func (l *loader) loadClassAt(addr uint64) *metadata.Class {
	if addr == 0 {
		return nil
	}
	if c, ok := l.classes.Get(addr); ok {
		return c
	}

	o, err := l.lists.Cursor(addr)
	if err != nil {
		atomic.AddInt64(&l.diag.recordsMalformed, 1)
		return nil
	}
	rec, err := objcrec.ReadClassT(o, l.is64)
	if err != nil {
		atomic.AddInt64(&l.diag.recordsMalformed, 1)
		return nil
	}

	roAddr, rawData, ok := l.classDataPointer(rec.Data)
	if !ok || roAddr == 0 {
		atomic.AddInt64(&l.diag.entitiesDropped, 1)
		return nil
	}

	ro, err := l.readClassRO(roAddr)
	if err != nil {
		atomic.AddInt64(&l.diag.recordsMalformed, 1)
		return nil
	}
	name, ok := l.readStringAt(ro.NameVMAddr)
	if !ok || name == "" {
		atomic.AddInt64(&l.diag.entitiesDropped, 1)
		return nil
	}

	isSwift := rawData&1 != 0

	class, shouldFill := l.classes.Reserve(addr, func() *metadata.Class {
		return &metadata.Class{
			Name:             name,
			Address:          addr,
			IsSwift:          isSwift,
			IsExported:       !ro.Flag().IsMeta(),
			ClassDataAddress: roAddr,
		}
	})
	if !shouldFill {
		return class
	}

	class.SuperclassRef = l.resolveClassRef(rec.Superclass)
	class.InstanceMethods = l.loadMethods(ro.BaseMethodsVMAddr, 0)

	if isaAddr, ok := l.resolveAddress(rec.ISA); ok && isaAddr != 0 {
		class.MetaclassAddress = isaAddr
		class.ClassMethods = l.loadMetaclassMethods(isaAddr)
	}

	class.Ivars = l.loadIvars(ro.IvarsVMAddr, name, isSwift)
	class.Adopted = l.loadAdoptedProtocols(ro.BaseProtocolsVMAddr)
	class.Properties = l.loadProperties(ro.BasePropertiesVMAddr)

	if isSwift && l.swift != nil {
		keys := []string{name, l.demangler.Demangle(name)}
		if module, simple, ok := l.demangler.DemangleClassName(name); ok {
			keys = append(keys, module+"."+simple)
		}
		for _, key := range keys {
			if cs := l.swift.Conformances(key); len(cs) > 0 {
				class.SwiftConformances = cs
				break
			}
		}
	}

	return class
}

// classDataPointer decodes a class_t.data word and masks off its low 3
// Swift/flags tag bits to yield the class_ro_t pointer, per spec.md §4.8.
// rawData is the masked-off tag bits themselves, needed by the caller to
// set is_swift.
func (l *loader) classDataPointer(rawWord uint64) (roAddr uint64, rawData uint64, ok bool) {
	addr, ok := l.resolveAddress(rawWord)
	if !ok {
		return 0, 0, false
	}
	rawData = addr & objcrec.ClassDataFlagsMask
	return addr &^ objcrec.ClassDataFlagsMask, rawData, true
}

func (l *loader) readClassRO(addr uint64) (objcrec.ClassRO, error) {
	o, err := l.lists.Cursor(addr)
	if err != nil {
		return objcrec.ClassRO{}, err
	}
	return objcrec.ReadClassRO(o, l.is64)
}

// resolveClassRef implements spec.md §4.8's bind-aware superclass
// resolution.
func (l *loader) resolveClassRef(rawSuperclass uint64) *metadata.Ref {
	d := l.decodePointer(rawSuperclass)
	switch d.Kind {
	case pointerKindAddress:
		if d.Address == 0 {
			return nil
		}
		l.loadClassAt(d.Address)
		return &metadata.Ref{Name: l.classNameAt(d.Address), Address: d.Address}
	case pointerKindBindSymbol:
		return &metadata.Ref{Name: d.Symbol, Address: 0}
	case pointerKindBindOrdinal:
		return &metadata.Ref{Name: bindOrdinalPlaceholder(d.Ordinal), Address: 0}
	default:
		return nil
	}
}

func (l *loader) classNameAt(addr uint64) string {
	if c, ok := l.classes.Get(addr); ok {
		return c.Name
	}
	return ""
}

// loadMetaclassMethods reads the metaclass's own class_t/class_ro_t record
// to obtain base_methods, which are the owning class's class methods
// (spec.md §4.8: "Class methods live in the metaclass").
func (l *loader) loadMetaclassMethods(isaAddr uint64) []metadata.Method {
	o, err := l.lists.Cursor(isaAddr)
	if err != nil {
		return nil
	}
	metaRec, err := objcrec.ReadClassT(o, l.is64)
	if err != nil {
		return nil
	}
	roAddr, _, ok := l.classDataPointer(metaRec.Data)
	if !ok || roAddr == 0 {
		return nil
	}
	ro, err := l.readClassRO(roAddr)
	if err != nil {
		return nil
	}
	return l.loadMethods(ro.BaseMethodsVMAddr, 0)
}
