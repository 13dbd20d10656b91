package processor

import (
	"sync/atomic"

	"github.com/nsobject/objcmeta/metadata"
	objcrec "github.com/nsobject/objcmeta/types/objc"
)

// loadProtocolAt implements spec.md §4.8 load_protocol_at. addr is an
// already-resolved virtual address (the caller has already run it through
// the PointerDecoder, whether as a protolist seed or an adopted-protocol
// list entry).
func (l *loader) loadProtocolAt(addr uint64) *metadata.Protocol {
	if addr == 0 {
		return nil
	}
	if p, ok := l.protocols.Get(addr); ok {
		return p
	}

	o, err := l.lists.Cursor(addr)
	if err != nil {
		atomic.AddInt64(&l.diag.recordsMalformed, 1)
		return nil
	}
	rec, err := objcrec.ReadProtocolT(o, l.is64)
	if err != nil {
		atomic.AddInt64(&l.diag.recordsMalformed, 1)
		return nil
	}

	name, ok := l.readStringAt(rec.NameVMAddr)
	if !ok || name == "" {
		atomic.AddInt64(&l.diag.entitiesDropped, 1)
		return nil
	}

	proto, shouldFill := l.protocols.Reserve(addr, func() *metadata.Protocol {
		return &metadata.Protocol{Name: name, Address: addr}
	})
	if !shouldFill {
		return proto
	}

	proto.Adopted = l.loadAdoptedProtocols(rec.ProtocolsVMAddr)

	extBase := rec.ExtendedMethodTypesVMAddr
	proto.RequiredInstanceMethods = l.loadMethods(rec.InstanceMethodsVMAddr, extBase)
	proto.RequiredClassMethods = l.loadMethods(rec.ClassMethodsVMAddr, extBase)
	proto.OptionalInstanceMethods = l.loadMethods(rec.OptionalInstanceMethodsVMAddr, 0)
	proto.OptionalClassMethods = l.loadMethods(rec.OptionalClassMethodsVMAddr, 0)
	proto.Properties = l.loadProperties(rec.InstancePropertiesVMAddr)

	return proto
}
