package processor

import (
	"strconv"

	"github.com/nsobject/objcmeta/internal/cursor"
	"github.com/nsobject/objcmeta/internal/pointer"
)

// pointerKind mirrors pointer.Kind under names local to this package's
// call sites, which read more naturally against spec.md's Address/
// BindSymbol/BindOrdinal vocabulary.
type pointerKind = pointer.Kind

const (
	pointerKindAddress     = pointer.KindAddress
	pointerKindBindSymbol  = pointer.KindBindSymbol
	pointerKindBindOrdinal = pointer.KindBindOrdinal
)

type decodedPointer = pointer.Result

// decodePointer runs the PointerDecoder (internal/pointer) over raw,
// consulting this loader's chained-fixups table when one is available.
func (l *loader) decodePointer(raw uint64) decodedPointer {
	return pointer.Decode(raw, l.fixups)
}

// readPointerAt translates vaddr, reads one pointer-sized word there, and
// returns it undecoded.
func (l *loader) readPointerAt(vaddr uint64) (uint64, error) {
	off, err := l.vma.FileOffset(vaddr)
	if err != nil {
		return 0, err
	}
	o := cursor.New(l.data, int(off)).WithOrder(l.order)
	return o.ReadPointer(l.is64)
}

// decodePointerAt reads and decodes the pointer-sized word at vaddr.
func (l *loader) decodePointerAt(vaddr uint64) (decodedPointer, error) {
	raw, err := l.readPointerAt(vaddr)
	if err != nil {
		return decodedPointer{}, err
	}
	return l.decodePointer(raw), nil
}

// resolveRef decodes the pointer-sized word at vaddr into a Ref-shaped
// result: an internal address (possibly requiring the caller to recurse),
// an external bind name, or nothing on a zero/unreadable word. ok is false
// only when the word itself couldn't be read.
func (l *loader) resolveRef(vaddr uint64) (addr uint64, externalName string, isExternal bool, ok bool) {
	d, err := l.decodePointerAt(vaddr)
	if err != nil {
		return 0, "", false, false
	}
	switch d.Kind {
	case pointerKindAddress:
		return d.Address, "", false, true
	case pointerKindBindSymbol:
		return 0, d.Symbol, true, true
	case pointerKindBindOrdinal:
		return 0, bindOrdinalPlaceholder(d.Ordinal), true, true
	default:
		return 0, "", false, true
	}
}

func bindOrdinalPlaceholder(ordinal uint32) string {
	return "/* bind ordinal " + strconv.FormatUint(uint64(ordinal), 10) + " */"
}
