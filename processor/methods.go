package processor

import (
	"github.com/nsobject/objcmeta/internal/cursor"
	"github.com/nsobject/objcmeta/internal/objcstruct"
	"github.com/nsobject/objcmeta/metadata"
	objcrec "github.com/nsobject/objcmeta/types/objc"
)

// loadMethods implements spec.md §4.8 "Method loading". rawListAddr and
// rawExtTypesAddr are raw 64-bit words as stored in the owning record
// (class_ro_t.base_methods / protocol_t.{instance,class}_methods and its
// extended_method_types); both still need PointerDecoder treatment before
// use.
func (l *loader) loadMethods(rawListAddr, rawExtTypesAddr uint64) []metadata.Method {
	target, ok := l.resolveAddress(rawListAddr)
	if !ok {
		return nil
	}
	list, err := l.lists.ReadEntryList(target)
	if err != nil || list == nil {
		return nil
	}

	var methods []metadata.Method
	if list.Header.IsSmall() {
		methods = l.loadSmallMethods(list)
	} else {
		methods = l.loadRegularMethods(list, rawExtTypesAddr)
	}

	// List order: reverse, matching the historical class-dump ordering
	// spec.md §4 and property 3 of §8 both require.
	for i, j := 0, len(methods)-1; i < j; i, j = i+1, j-1 {
		methods[i], methods[j] = methods[j], methods[i]
	}
	return methods
}

func (l *loader) loadRegularMethods(list *objcstruct.EntryList, rawExtTypesAddr uint64) []metadata.Method {
	extTarget, hasExt := l.resolveAddress(rawExtTypesAddr)
	var extCursor *cursor.Order
	if hasExt {
		if o, err := l.lists.Cursor(extTarget); err == nil {
			extCursor = &o
		}
	}

	out := make([]metadata.Method, 0, list.Header.Count)
	for i := uint32(0); i < list.Header.Count; i++ {
		o := list.EntryCursor(l.lists, i)
		rec, err := objcrec.ReadMethodT(o, l.is64)
		if err != nil {
			break
		}
		selector, ok := l.readStringAt(rec.NameVMAddr)
		if !ok {
			continue
		}

		typeEncoding := ""
		if extCursor != nil {
			if raw, err := extCursor.ReadPointer(l.is64); err == nil {
				if s, ok := l.readStringAt(raw); ok {
					typeEncoding = s
				}
			}
		}
		if typeEncoding == "" {
			if s, ok := l.readStringAt(rec.TypesVMAddr); ok {
				typeEncoding = s
			}
		}

		out = append(out, metadata.Method{
			Selector:              selector,
			TypeEncoding:          typeEncoding,
			ImplementationAddress: rec.ImpVMAddr,
		})
	}
	return out
}

func (l *loader) loadSmallMethods(list *objcstruct.EntryList) []metadata.Method {
	out := make([]metadata.Method, 0, list.Header.Count)
	for i := uint32(0); i < list.Header.Count; i++ {
		o, err := list.SmallEntryCursor(l.lists, i)
		if err != nil {
			break
		}
		rec, err := objcrec.ReadSmallMethodT(o)
		if err != nil {
			break
		}

		entryVAddr := list.SmallEntryVAddr(i)
		nameFieldVAddr := entryVAddr + 0
		typesFieldVAddr := entryVAddr + 4
		impFieldVAddr := entryVAddr + 8

		selRefVAddr := uint64(int64(nameFieldVAddr) + int64(rec.NameOffset))
		typesVAddr := uint64(int64(typesFieldVAddr) + int64(rec.TypesOffset))
		impVAddr := uint64(int64(impFieldVAddr) + int64(rec.ImpOffset))

		selector, ok := l.resolveSmallSelector(list.Header.UsesDirectSelectors(), selRefVAddr)
		if !ok {
			continue
		}
		typeEncoding, _ := l.readStringDirect(typesVAddr)

		out = append(out, metadata.Method{
			Selector:              selector,
			TypeEncoding:          typeEncoding,
			ImplementationAddress: impVAddr,
		})
	}
	return out
}

// resolveSmallSelector implements the selector-reference resolution rule
// of spec.md §4.8: by default selRefVAddr holds a pointer into
// __objc_selrefs to the actual string; direct-selectors binaries (list
// header bit 30) store the string inline instead.
func (l *loader) resolveSmallSelector(usesDirectSelectors bool, selRefVAddr uint64) (string, bool) {
	if usesDirectSelectors {
		return l.readStringDirect(selRefVAddr)
	}
	if raw, err := l.readPointerAt(selRefVAddr); err == nil {
		if addr, ok := l.resolveAddress(raw); ok {
			if s, ok := l.strings.Get(addr); ok {
				return s, true
			}
		}
	}
	return l.readStringDirect(selRefVAddr)
}
