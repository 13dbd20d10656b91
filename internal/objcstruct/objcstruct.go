// Package objcstruct implements the ListReader component (spec.md §4.6):
// given the virtual address of an ObjC2 entry list or plain pointer list,
// translate it, read its header, and hand back a cursor onto each entry.
// Grounded on blacktop-go-macho's objc.go, where GetObjCMethods /
// readSmallMethods / readBigMethods all share exactly this
// decode-translate-read-header-then-iterate shape.
package objcstruct

import (
	"fmt"

	"github.com/nsobject/objcmeta/internal/cursor"
	"github.com/nsobject/objcmeta/internal/vmaddr"
	"github.com/nsobject/objcmeta/types/objc"
)

// Reader locates list-shaped ObjC2 records in a binary's raw bytes.
type Reader struct {
	data  []byte
	vma   *vmaddr.Translator
	order cursor.ByteOrder
	is64  bool
}

// New returns a Reader over data, translating addresses with vma.
func New(data []byte, vma *vmaddr.Translator, order cursor.ByteOrder, is64 bool) *Reader {
	return &Reader{data: data, vma: vma, order: order, is64: is64}
}

// Is64 reports the pointer width this reader was built with.
func (r *Reader) Is64() bool { return r.is64 }

// Order returns the byte order this reader was built with.
func (r *Reader) Order() cursor.ByteOrder { return r.order }

// Cursor returns an Order-bound cursor positioned at the file offset for
// vaddr, translating it first.
func (r *Reader) Cursor(vaddr uint64) (cursor.Order, error) {
	off, err := r.vma.FileOffset(vaddr)
	if err != nil {
		return cursor.Order{}, err
	}
	return cursor.New(r.data, int(off)).WithOrder(r.order), nil
}

// EntryList is a decoded entsize/count list header plus enough to address
// each entry: either by its file cursor (regular format) or by its own
// virtual address (small format, whose offsets are relative to the entry's
// VM address, not its file offset).
type EntryList struct {
	Header        objc.ListHeader
	HeaderVAddr   uint64
	entriesOffset uint64
}

// ReadEntryList reads the ListHeader at vaddr (empty, no error, on a zero
// address) and returns a handle for iterating its entries.
func (r *Reader) ReadEntryList(vaddr uint64) (*EntryList, error) {
	if vaddr == 0 {
		return nil, nil
	}
	off, err := r.vma.FileOffset(vaddr)
	if err != nil {
		return nil, err
	}
	o := cursor.New(r.data, int(off)).WithOrder(r.order)
	hdr, err := objc.ReadListHeader(o)
	if err != nil {
		return nil, err
	}
	return &EntryList{Header: hdr, HeaderVAddr: vaddr, entriesOffset: off + 8}, nil
}

// EntryCursor returns a cursor over regular-format entry i (file-offset
// based; only valid when !Header.IsSmall()).
func (l *EntryList) EntryCursor(r *Reader, i uint32) cursor.Order {
	off := l.entriesOffset + uint64(i)*uint64(l.Header.EntrySize())
	return cursor.New(r.data, int(off)).WithOrder(r.order)
}

// SmallEntryVAddr returns the VM address of small-format entry i; the
// three i32 fields of that entry live at +0, +4, +8 of this address, and
// spec.md §4.8 requires each offset be computed relative to its own field
// address, not the entry's.
func (l *EntryList) SmallEntryVAddr(i uint32) uint64 {
	return l.HeaderVAddr + 8 + uint64(i)*12
}

// SmallEntryCursor returns a cursor over small-format entry i.
func (l *EntryList) SmallEntryCursor(r *Reader, i uint32) (cursor.Order, error) {
	off, err := r.vma.FileOffset(l.SmallEntryVAddr(i))
	if err != nil {
		return cursor.Order{}, err
	}
	return cursor.New(r.data, int(off)).WithOrder(r.order), nil
}

// PointerList is a count-prefixed list of pointer-sized words (the
// adopted-protocol address list of §4.8's "Address list").
type PointerList struct {
	Count   uint64
	entries uint64 // file offset of the first word
}

// ReadPointerList reads the 8-byte count header at vaddr.
func (r *Reader) ReadPointerList(vaddr uint64) (*PointerList, error) {
	if vaddr == 0 {
		return nil, nil
	}
	off, err := r.vma.FileOffset(vaddr)
	if err != nil {
		return nil, err
	}
	o := cursor.New(r.data, int(off)).WithOrder(r.order)
	hdr, err := objc.ReadPointerListHeader(o)
	if err != nil {
		return nil, err
	}
	return &PointerList{Count: hdr.Count, entries: off + 8}, nil
}

// Entry reads the raw pointer-sized word at index i.
func (p *PointerList) Entry(r *Reader, i uint64) (uint64, error) {
	width := uint64(4)
	if r.is64 {
		width = 8
	}
	off := p.entries + i*width
	if off+width > uint64(len(r.data)) {
		return 0, fmt.Errorf("objcstruct: pointer list entry %d out of range: %w", i, &vmaddr.InvalidAddressError{VMAddr: p.entries + i*width})
	}
	o := cursor.New(r.data, int(off)).WithOrder(r.order)
	return o.ReadPointer(r.is64)
}
