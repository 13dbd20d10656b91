package processor

import (
	"strings"

	"github.com/nsobject/objcmeta/metadata"
	objcrec "github.com/nsobject/objcmeta/types/objc"
)

// swiftClassNamePrefixes marks a class as Swift by name when no ImageInfo
// or class_ro_t flag is available (spec.md §4.8 "Ivars").
var swiftClassNamePrefixes = []string{"_Tt", "_$s"}

func looksLikeSwiftName(name string) bool {
	for _, p := range swiftClassNamePrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// loadIvars implements spec.md §4.8 "Ivars". rawListAddr is the raw word
// stored in class_ro_t.ivars.
func (l *loader) loadIvars(rawListAddr uint64, className string, isSwiftClass bool) []metadata.InstanceVariable {
	target, ok := l.resolveAddress(rawListAddr)
	if !ok {
		return nil
	}
	list, err := l.lists.ReadEntryList(target)
	if err != nil || list == nil {
		return nil
	}

	swift := isSwiftClass || looksLikeSwiftName(className)

	out := make([]metadata.InstanceVariable, 0, list.Header.Count)
	for i := uint32(0); i < list.Header.Count; i++ {
		o := list.EntryCursor(l.lists, i)
		rec, err := objcrec.ReadIvarT(o, l.is64)
		if err != nil {
			break
		}
		name, ok := l.readStringAt(rec.NameVMAddr)
		if !ok {
			continue
		}
		typeEncoding, _ := l.readStringAt(rec.TypeVMAddr)

		var byteOffset uint32
		if offPtr, ok := l.resolveAddress(rec.OffsetPtrVMAddr); ok && offPtr != 0 {
			if word, err := l.readPointerAt(offPtr); err == nil {
				byteOffset = uint32(word)
			}
		}

		iv := metadata.InstanceVariable{
			Name:          name,
			TypeEncoding:  typeEncoding,
			ByteOffset:    byteOffset,
			ByteSize:      rec.Size,
			AlignmentLog2: rec.AlignmentRaw,
		}

		if swift && l.swiftIdx != nil {
			if t, ok := l.swiftIdx.Resolve(className, name); ok && t != "" {
				iv.SwiftTypeOverride = t
			}
		}

		out = append(out, iv)
	}
	return out
}
