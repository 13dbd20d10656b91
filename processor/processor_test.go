package processor

import (
	"encoding/binary"

	"github.com/nsobject/objcmeta/types"
)

// binBuilder assembles a synthetic ObjC2 image in a single flat byte
// buffer under an identity VMAddr==FileOffset mapping, so tests can write
// structures in any order and reference each other's addresses directly.
// Grounded on the same class_t/class_ro_t/protocol_t/category_t layouts
// types/objc/records.go decodes. The buffer starts with one zero word so
// that no structure lands at address 0, which the processor treats as
// "absent".
type binBuilder struct {
	buf []byte
}

func newBinBuilder() *binBuilder { return &binBuilder{buf: make([]byte, 8, 4096)} }

func (b *binBuilder) pos() uint64 { return uint64(len(b.buf)) }

func (b *binBuilder) align8() {
	for len(b.buf)%8 != 0 {
		b.buf = append(b.buf, 0)
	}
}

func (b *binBuilder) putU32(v uint32) uint64 {
	p := b.pos()
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
	return p
}

func (b *binBuilder) putU64(v uint64) uint64 {
	p := b.pos()
	b.buf = binary.LittleEndian.AppendUint64(b.buf, v)
	return p
}

func (b *binBuilder) putCString(s string) uint64 {
	p := b.pos()
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, 0)
	return p
}

func (b *binBuilder) reserve(n int) uint64 {
	p := b.pos()
	b.buf = append(b.buf, make([]byte, n)...)
	return p
}

func (b *binBuilder) patchU32(addr uint64, v uint32) {
	binary.LittleEndian.PutUint32(b.buf[addr:addr+4], v)
}

func (b *binBuilder) patchU64(addr uint64, v uint64) {
	binary.LittleEndian.PutUint64(b.buf[addr:addr+8], v)
}

// rawPointerArray writes entries with no header, matching how
// __objc_classlist/__objc_protolist/__objc_catlist are read directly by
// seedAddresses (sec.Size/width raw pointer words, no count prefix).
func (b *binBuilder) rawPointerArray(entries []uint64) uint64 {
	b.align8()
	start := b.pos()
	for _, e := range entries {
		b.putU64(e)
	}
	return start
}

// countPrefixedPointerList writes the 8-byte-count form used by a
// protocol_t's own protocols field and a class_ro_t's base_protocols
// field (objc.PointerListHeader).
func (b *binBuilder) countPrefixedPointerList(entries []uint64) uint64 {
	b.align8()
	start := b.pos()
	b.putU64(uint64(len(entries)))
	for _, e := range entries {
		b.putU64(e)
	}
	return start
}

// methodList writes a regular-format (non-small) method_t list: three
// pointer-sized fields per entry, entsize 24.
func (b *binBuilder) methodList(entries [][3]uint64) uint64 {
	b.align8()
	start := b.pos()
	b.putU32(24)
	b.putU32(uint32(len(entries)))
	for _, e := range entries {
		b.putU64(e[0])
		b.putU64(e[1])
		b.putU64(e[2])
	}
	return start
}

type ivarEntry struct {
	offsetWordAddr uint64
	name           uint64
	typ            uint64
	alignment      uint32
	size           uint32
}

func (b *binBuilder) ivarList(entries []ivarEntry) uint64 {
	b.align8()
	start := b.pos()
	b.putU32(32)
	b.putU32(uint32(len(entries)))
	for _, e := range entries {
		b.putU64(e.offsetWordAddr)
		b.putU64(e.name)
		b.putU64(e.typ)
		b.putU32(e.alignment)
		b.putU32(e.size)
	}
	return start
}

func (b *binBuilder) propertyList(entries [][2]uint64) uint64 {
	b.align8()
	start := b.pos()
	b.putU32(16)
	b.putU32(uint32(len(entries)))
	for _, e := range entries {
		b.putU64(e[0])
		b.putU64(e[1])
	}
	return start
}

type classROArgs struct {
	flags          uint32
	instanceStart  uint32
	instanceSize   uint64
	ivarLayout     uint64
	name           uint64
	baseMethods    uint64
	baseProtocols  uint64
	ivars          uint64
	weakIvarLayout uint64
	baseProperties uint64
}

func (b *binBuilder) classRO(a classROArgs) uint64 {
	b.align8()
	start := b.pos()
	b.putU32(a.flags)
	b.putU32(a.instanceStart)
	b.putU64(a.instanceSize)
	b.putU32(0) // reserved, 64-bit only
	b.putU64(a.ivarLayout)
	b.putU64(a.name)
	b.putU64(a.baseMethods)
	b.putU64(a.baseProtocols)
	b.putU64(a.ivars)
	b.putU64(a.weakIvarLayout)
	b.putU64(a.baseProperties)
	return start
}

func (b *binBuilder) classT(isa, superclass, data uint64) uint64 {
	b.align8()
	start := b.pos()
	b.putU64(isa)
	b.putU64(superclass)
	b.putU64(0) // cache
	b.putU64(0) // vtable
	b.putU64(data)
	b.putU64(0)
	b.putU64(0)
	b.putU64(0)
	return start
}

// reserveProtocol reserves the base (no extended-method-types) 72-byte
// protocol_t layout for a forward reference, to be filled in later via
// fillProtocol once every address a protocol cycle needs is known.
func (b *binBuilder) reserveProtocol() uint64 {
	b.align8()
	return b.reserve(72)
}

func (b *binBuilder) fillProtocol(addr uint64, isa, name, protocols, instMethods, classMethods, optInstMethods, optClassMethods, instProps uint64) {
	off := addr
	b.patchU64(off, isa)
	off += 8
	b.patchU64(off, name)
	off += 8
	b.patchU64(off, protocols)
	off += 8
	b.patchU64(off, instMethods)
	off += 8
	b.patchU64(off, classMethods)
	off += 8
	b.patchU64(off, optInstMethods)
	off += 8
	b.patchU64(off, optClassMethods)
	off += 8
	b.patchU64(off, instProps)
	off += 8
	b.patchU32(off, 72) // size, no extended method types
	off += 4
	b.patchU32(off, 0) // flags
}

func (b *binBuilder) categoryT(name, cls, instMethods, classMethods, protocols, instProps uint64) uint64 {
	b.align8()
	start := b.pos()
	b.putU64(name)
	b.putU64(cls)
	b.putU64(instMethods)
	b.putU64(classMethods)
	b.putU64(protocols)
	b.putU64(instProps)
	return start
}

func (b *binBuilder) imageInfoT(version, flags uint32) uint64 {
	b.align8()
	start := b.pos()
	b.putU32(version)
	b.putU32(flags)
	return start
}

// section builds a types.Section whose Addr equals the file address
// passed in (identity mapping), with the given size in bytes.
func section(name string, addr, size uint64) types.Section {
	return types.Section{Name: name, FileOffset: addr, Addr: addr, Size: size}
}

// fakeMachOFile implements types.MachOFile over a single identity-mapped
// __DATA segment covering the whole builder buffer.
type fakeMachOFile struct {
	data     []byte
	sections []types.Section
	fixups   types.ChainedFixups
	swift    types.SwiftMetadata
}

func (f *fakeMachOFile) Data() []byte { return f.data }

func (f *fakeMachOFile) Segments() []types.Segment {
	return []types.Segment{{
		Name:     "__DATA",
		VMAddr:   0,
		VMSize:   uint64(len(f.data)),
		FileOff:  0,
		FileSize: uint64(len(f.data)),
		Sections: f.sections,
	}}
}

func (f *fakeMachOFile) ByteOrder() types.ByteOrder { return binary.LittleEndian }
func (f *fakeMachOFile) Is64Bit() bool              { return true }

func (f *fakeMachOFile) ChainedFixups() (types.ChainedFixups, bool) {
	if f.fixups == nil {
		return nil, false
	}
	return f.fixups, true
}

func (f *fakeMachOFile) SwiftMetadata() (types.SwiftMetadata, bool) {
	if f.swift == nil {
		return nil, false
	}
	return f.swift, true
}

// fakeFixupsTable implements types.ChainedFixups by looking a raw word up
// directly in a map, letting tests stand up a bind without needing real
// chained-fixup bit layout.
type fakeFixupsTable struct {
	byRaw   map[uint64]types.FixupResult
	symbols map[uint32]string
}

func (f *fakeFixupsTable) DecodePointer(raw uint64) types.FixupResult {
	if r, ok := f.byRaw[raw]; ok {
		return r
	}
	return types.FixupResult{Kind: types.NotFixup}
}

func (f *fakeFixupsTable) SymbolName(ordinal uint32) (string, bool) {
	s, ok := f.symbols[ordinal]
	return s, ok
}
