// Package objc holds the fixed-layout ObjC2 on-disk record types and their
// pure decoders (the StructReaders component of spec.md §4.5), adapted from
// blacktop-go-macho's types/objc package. Field names and on-disk layout are
// kept; decoding is rewritten against internal/cursor instead of
// encoding/binary.Read over an io.Reader, since every record here may need
// to report a precise ShortRead location.
package objc

import "github.com/nsobject/objcmeta/internal/cursor"

const (
	listSmallFlag           uint32 = 1 << 31
	listDirectSelectorsFlag uint32 = 1 << 30
	listFlagsMask           uint32 = 0x3
	listEntrySizeMask       uint32 = ^(listSmallFlag | listDirectSelectorsFlag | listFlagsMask)
)

// ListHeader is the common 8-byte header of every ObjC2 entry list
// (methods, ivars, properties, the bare protocol-pointer list excepted,
// which instead carries a plain 8-byte count — see PointerListHeader).
type ListHeader struct {
	EntSizeRaw uint32
	Count      uint32
}

// IsSmall reports the small-methods-format bit (bit 31 of entsize).
func (l ListHeader) IsSmall() bool { return l.EntSizeRaw&listSmallFlag != 0 }

// UsesDirectSelectors reports the direct-selectors bit (bit 30, iOS 16+).
func (l ListHeader) UsesDirectSelectors() bool { return l.EntSizeRaw&listDirectSelectorsFlag != 0 }

// Flags returns the low 2 per-entry flag bits (uniqued/sorted/fixed-up).
func (l ListHeader) Flags() uint32 { return l.EntSizeRaw & listFlagsMask }

// EntrySize returns the true per-entry byte stride.
func (l ListHeader) EntrySize() uint32 { return l.EntSizeRaw & listEntrySizeMask }

// ReadListHeader reads a ListHeader at the cursor's current position.
func ReadListHeader(o cursor.Order) (ListHeader, error) {
	entsize, err := o.ReadU32()
	if err != nil {
		return ListHeader{}, err
	}
	count, err := o.ReadU32()
	if err != nil {
		return ListHeader{}, err
	}
	return ListHeader{EntSizeRaw: entsize, Count: count}, nil
}

// PointerListHeader is the 8-byte-count header used by adopted-protocol
// address lists and the protocol_list_t (spec.md §4.8 "Address list").
type PointerListHeader struct {
	Count uint64
}

// ReadPointerListHeader reads the count prefix of a pointer list.
func ReadPointerListHeader(o cursor.Order) (PointerListHeader, error) {
	count, err := o.ReadU64()
	if err != nil {
		return PointerListHeader{}, err
	}
	return PointerListHeader{Count: count}, nil
}

// ClassT is the 8-pointer-field objc_class_t record.
type ClassT struct {
	ISA              uint64
	Superclass       uint64
	Cache            uint64
	Vtable           uint64
	Data             uint64
	Reserved0        uint64
	Reserved1        uint64
	Reserved2        uint64
}

// ReadClassT reads a ClassT, widening 32-bit pointers on 32-bit images.
func ReadClassT(o cursor.Order, is64 bool) (ClassT, error) {
	var c ClassT
	fields := []*uint64{&c.ISA, &c.Superclass, &c.Cache, &c.Vtable, &c.Data, &c.Reserved0, &c.Reserved1, &c.Reserved2}
	for _, f := range fields {
		v, err := o.ReadPointer(is64)
		if err != nil {
			return ClassT{}, err
		}
		*f = v
	}
	return c, nil
}

// ClassDataFlagsMask is the low 3 tag bits of ClassT.Data (is_swift among
// them); masking them off yields the class_ro_t pointer (spec.md §4.8).
const ClassDataFlagsMask = 0x7

// ClassRO is the class_ro_t record.
type ClassRO struct {
	Flags                uint32
	InstanceStart        uint32
	InstanceSize         uint64
	IvarLayoutVMAddr     uint64
	NameVMAddr           uint64
	BaseMethodsVMAddr    uint64
	BaseProtocolsVMAddr  uint64
	IvarsVMAddr          uint64
	WeakIvarLayoutVMAddr uint64
	BasePropertiesVMAddr uint64
}

// ReadClassRO reads a ClassRO64-shaped record; is64 controls the width of
// InstanceSize and every VMAddr field (32-bit images store InstanceSize as
// a plain uint32 and omit the reserved padding word).
func ReadClassRO(o cursor.Order, is64 bool) (ClassRO, error) {
	var ro ClassRO
	var err error
	if ro.Flags, err = o.ReadU32(); err != nil {
		return ClassRO{}, err
	}
	if ro.InstanceStart, err = o.ReadU32(); err != nil {
		return ClassRO{}, err
	}
	if is64 {
		if ro.InstanceSize, err = o.ReadU64(); err != nil {
			return ClassRO{}, err
		}
		if _, err = o.ReadU32(); err != nil { // reserved, 64-bit only
			return ClassRO{}, err
		}
	} else {
		v, err2 := o.ReadU32()
		if err2 != nil {
			return ClassRO{}, err2
		}
		ro.InstanceSize = uint64(v)
	}
	ptrFields := []*uint64{
		&ro.IvarLayoutVMAddr, &ro.NameVMAddr, &ro.BaseMethodsVMAddr,
		&ro.BaseProtocolsVMAddr, &ro.IvarsVMAddr, &ro.WeakIvarLayoutVMAddr,
		&ro.BasePropertiesVMAddr,
	}
	for _, f := range ptrFields {
		v, err := o.ReadPointer(is64)
		if err != nil {
			return ClassRO{}, err
		}
		*f = v
	}
	return ro, nil
}

const (
	ROMeta ClassROFlags = 1 << 0
	RORoot ClassROFlags = 1 << 1
)

// ClassROFlags is class_ro_t.flags.
type ClassROFlags uint32

// Flag returns the typed flag accessor for this ClassRO.
func (c ClassRO) Flag() ClassROFlags { return ClassROFlags(c.Flags) }

// IsMeta reports whether RO_META is set.
func (f ClassROFlags) IsMeta() bool { return f&ROMeta != 0 }

// IsRoot reports whether RO_ROOT is set.
func (f ClassROFlags) IsRoot() bool { return f&RORoot != 0 }

// MethodT is the regular-format method_t record.
type MethodT struct {
	NameVMAddr  uint64
	TypesVMAddr uint64
	ImpVMAddr   uint64
}

// ReadMethodT reads a regular-format method_t.
func ReadMethodT(o cursor.Order, is64 bool) (MethodT, error) {
	var m MethodT
	var err error
	if m.NameVMAddr, err = o.ReadPointer(is64); err != nil {
		return MethodT{}, err
	}
	if m.TypesVMAddr, err = o.ReadPointer(is64); err != nil {
		return MethodT{}, err
	}
	if m.ImpVMAddr, err = o.ReadPointer(is64); err != nil {
		return MethodT{}, err
	}
	return m, nil
}

// SmallMethodT is the 12-byte small-method relative-offset record.
type SmallMethodT struct {
	NameOffset  int32
	TypesOffset int32
	ImpOffset   int32
}

// ReadSmallMethodT reads one 12-byte small-method entry.
func ReadSmallMethodT(o cursor.Order) (SmallMethodT, error) {
	var m SmallMethodT
	var err error
	if m.NameOffset, err = o.ReadI32(); err != nil {
		return SmallMethodT{}, err
	}
	if m.TypesOffset, err = o.ReadI32(); err != nil {
		return SmallMethodT{}, err
	}
	if m.ImpOffset, err = o.ReadI32(); err != nil {
		return SmallMethodT{}, err
	}
	return m, nil
}

// IvarT is the objc_ivar_t record.
type IvarT struct {
	OffsetPtrVMAddr uint64
	NameVMAddr      uint64
	TypeVMAddr      uint64
	AlignmentRaw    uint32
	Size            uint32
}

// ReadIvarT reads an objc_ivar_t.
func ReadIvarT(o cursor.Order, is64 bool) (IvarT, error) {
	var i IvarT
	var err error
	if i.OffsetPtrVMAddr, err = o.ReadPointer(is64); err != nil {
		return IvarT{}, err
	}
	if i.NameVMAddr, err = o.ReadPointer(is64); err != nil {
		return IvarT{}, err
	}
	if i.TypeVMAddr, err = o.ReadPointer(is64); err != nil {
		return IvarT{}, err
	}
	if i.AlignmentRaw, err = o.ReadU32(); err != nil {
		return IvarT{}, err
	}
	if i.Size, err = o.ReadU32(); err != nil {
		return IvarT{}, err
	}
	return i, nil
}

// PropertyT is the objc_property_t record.
type PropertyT struct {
	NameVMAddr       uint64
	AttributesVMAddr uint64
}

// ReadPropertyT reads an objc_property_t.
func ReadPropertyT(o cursor.Order, is64 bool) (PropertyT, error) {
	var p PropertyT
	var err error
	if p.NameVMAddr, err = o.ReadPointer(is64); err != nil {
		return PropertyT{}, err
	}
	if p.AttributesVMAddr, err = o.ReadPointer(is64); err != nil {
		return PropertyT{}, err
	}
	return p, nil
}

// ProtocolT is the protocol_t record. ExtendedMethodTypesVMAddr is only
// present when Size indicates the record extends past the base fields.
type ProtocolT struct {
	ISA                           uint64
	NameVMAddr                    uint64
	ProtocolsVMAddr               uint64
	InstanceMethodsVMAddr         uint64
	ClassMethodsVMAddr            uint64
	OptionalInstanceMethodsVMAddr uint64
	OptionalClassMethodsVMAddr    uint64
	InstancePropertiesVMAddr      uint64
	Size                          uint32
	Flags                         uint32
	ExtendedMethodTypesVMAddr     uint64
}

// baseProtocolTSize64 is the byte size of ProtocolT's base fields
// (8 pointers + 2 uint32) on a 64-bit image. ReadProtocolT computes the same
// base size for either pointer width when deciding whether the
// extended-method-types field is present on disk.
const baseProtocolTSize64 = 8*8 + 8

// ReadProtocolT reads a protocol_t, including ExtendedMethodTypesVMAddr
// when present (spec.md §4.5: "if size > 8*ptr + 8").
func ReadProtocolT(o cursor.Order, is64 bool) (ProtocolT, error) {
	var p ProtocolT
	var err error
	ptrFields := []*uint64{
		&p.ISA, &p.NameVMAddr, &p.ProtocolsVMAddr, &p.InstanceMethodsVMAddr,
		&p.ClassMethodsVMAddr, &p.OptionalInstanceMethodsVMAddr,
		&p.OptionalClassMethodsVMAddr, &p.InstancePropertiesVMAddr,
	}
	for _, f := range ptrFields {
		v, err2 := o.ReadPointer(is64)
		if err2 != nil {
			return ProtocolT{}, err2
		}
		*f = v
	}
	if p.Size, err = o.ReadU32(); err != nil {
		return ProtocolT{}, err
	}
	if p.Flags, err = o.ReadU32(); err != nil {
		return ProtocolT{}, err
	}
	ptrSize := uint32(4)
	if is64 {
		ptrSize = 8
	}
	baseSize := 8*ptrSize + 8
	if p.Size > baseSize {
		if p.ExtendedMethodTypesVMAddr, err = o.ReadPointer(is64); err != nil {
			return ProtocolT{}, err
		}
	}
	return p, nil
}

// CategoryT is the category_t record.
type CategoryT struct {
	NameVMAddr               uint64
	ClsVMAddr                uint64
	InstanceMethodsVMAddr    uint64
	ClassMethodsVMAddr       uint64
	ProtocolsVMAddr          uint64
	InstancePropertiesVMAddr uint64
}

// ReadCategoryT reads a category_t.
func ReadCategoryT(o cursor.Order, is64 bool) (CategoryT, error) {
	var c CategoryT
	fields := []*uint64{
		&c.NameVMAddr, &c.ClsVMAddr, &c.InstanceMethodsVMAddr,
		&c.ClassMethodsVMAddr, &c.ProtocolsVMAddr, &c.InstancePropertiesVMAddr,
	}
	for _, f := range fields {
		v, err := o.ReadPointer(is64)
		if err != nil {
			return CategoryT{}, err
		}
		*f = v
	}
	return c, nil
}

// ImageInfoT is the objc_image_info record.
type ImageInfoT struct {
	Version uint32
	Flags   uint32
}

// ReadImageInfoT reads an objc_image_info.
func ReadImageInfoT(o cursor.Order) (ImageInfoT, error) {
	var i ImageInfoT
	var err error
	if i.Version, err = o.ReadU32(); err != nil {
		return ImageInfoT{}, err
	}
	if i.Flags, err = o.ReadU32(); err != nil {
		return ImageInfoT{}, err
	}
	return i, nil
}
