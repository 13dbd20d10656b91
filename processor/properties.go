package processor

import (
	"github.com/nsobject/objcmeta/metadata"
	objcrec "github.com/nsobject/objcmeta/types/objc"
)

// loadProperties reads a property_list_t at the (decoded) rawListAddr.
// Properties are not reversed; spec.md §4 "List order" names method lists
// specifically.
func (l *loader) loadProperties(rawListAddr uint64) []metadata.Property {
	target, ok := l.resolveAddress(rawListAddr)
	if !ok {
		return nil
	}
	list, err := l.lists.ReadEntryList(target)
	if err != nil || list == nil {
		return nil
	}
	out := make([]metadata.Property, 0, list.Header.Count)
	for i := uint32(0); i < list.Header.Count; i++ {
		o := list.EntryCursor(l.lists, i)
		rec, err := objcrec.ReadPropertyT(o, l.is64)
		if err != nil {
			break
		}
		name, ok := l.readStringAt(rec.NameVMAddr)
		if !ok {
			continue
		}
		attrs, _ := l.readStringAt(rec.AttributesVMAddr)
		out = append(out, metadata.Property{Name: name, AttributeString: attrs})
	}
	return out
}
