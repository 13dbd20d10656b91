package processor

import (
	"sync/atomic"

	"github.com/nsobject/objcmeta/metadata"
	objcrec "github.com/nsobject/objcmeta/types/objc"
)

// loadCategoryAt implements spec.md §4.8 load_category_at. Categories are
// loaded sequentially by Process and are not cached by address (their
// identity key is (class_ref.name, name, address), not address alone, so
// an entitycache.Cache keyed purely by address would be the wrong tool).
func (l *loader) loadCategoryAt(addr uint64) *metadata.Category {
	if addr == 0 {
		return nil
	}
	o, err := l.lists.Cursor(addr)
	if err != nil {
		atomic.AddInt64(&l.diag.recordsMalformed, 1)
		return nil
	}
	rec, err := objcrec.ReadCategoryT(o, l.is64)
	if err != nil {
		atomic.AddInt64(&l.diag.recordsMalformed, 1)
		return nil
	}

	name, ok := l.readStringAt(rec.NameVMAddr)
	if !ok || name == "" {
		atomic.AddInt64(&l.diag.entitiesDropped, 1)
		return nil
	}

	cat := &metadata.Category{
		Name:            name,
		Address:         addr,
		ClassRef:        l.resolveCategoryClassRef(rec.ClsVMAddr),
		InstanceMethods: l.loadMethods(rec.InstanceMethodsVMAddr, 0),
		ClassMethods:    l.loadMethods(rec.ClassMethodsVMAddr, 0),
		Adopted:         l.loadAdoptedProtocols(rec.ProtocolsVMAddr),
		Properties:      l.loadProperties(rec.InstancePropertiesVMAddr),
	}
	return cat
}

// resolveCategoryClassRef resolves category_t.cls with the same bind
// awareness as a superclass reference (spec.md §4.8 load_category_at).
func (l *loader) resolveCategoryClassRef(rawCls uint64) *metadata.Ref {
	d := l.decodePointer(rawCls)
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
