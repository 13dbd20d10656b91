// Package pointer implements the PointerDecoder: interpreting a raw 64-bit
// word found in ObjC2 metadata as a rebase target, an external bind, or a
// plain pointer. Grounded on the bit rules in blacktop-go-macho's
// pkg/fixupchains (DcpArm64eIsBind/DcpArm64eIsAuth/Generic64IsBind and the
// DyldChainedPtrArm64eBind.Ordinal() bitfield at bits 0..15), reduced to
// exactly the three-way decode spec.md §4.4 specifies.
package pointer

import (
	"strings"

	"github.com/nsobject/objcmeta/types"
)

const (
	bindOrdinalBits = 16
	highShift       = 36
	highMask        = uint64(1)<<highShift - 1
	bindFlagBit     = 63
)

// Kind discriminates a Result.
type Kind int

const (
	// KindAddress is a resolved internal address (rebase or plain pointer).
	KindAddress Kind = iota
	// KindBindSymbol is an external bind resolved to a symbol name.
	KindBindSymbol
	// KindBindOrdinal is an external bind whose symbol name could not be
	// resolved (no ChainedFixups table available).
	KindBindOrdinal
)

// Result is the decoded interpretation of a raw 64-bit word.
type Result struct {
	Kind    Kind
	Address uint64
	Symbol  string
	Ordinal uint32
}

// ObjCClassBindPrefix is the symbol-name prefix dyld emits for an external
// Objective-C class bind; it is stripped from the stored class name.
const ObjCClassBindPrefix = "OBJC_CLASS_$_"

// StripClassBindPrefix strips the OBJC_CLASS_$_ (or leading-underscore
// variant) prefix dyld attaches to external class symbol names.
func StripClassBindPrefix(symbol string) string {
	s := strings.TrimPrefix(symbol, "_")
	s = strings.TrimPrefix(s, ObjCClassBindPrefix)
	return s
}

// Decode interprets raw per spec.md §4.4. When fixups is non-nil, it is
// consulted first; its NotFixup result falls back to the bit-twiddling
// rule below.
func Decode(raw uint64, fixups types.ChainedFixups) Result {
	if fixups != nil {
		if fr := fixups.DecodePointer(raw); fr.Kind != types.NotFixup {
			return fromFixupResult(fr, fixups)
		}
	}
	return decodeBits(raw)
}

func fromFixupResult(fr types.FixupResult, fixups types.ChainedFixups) Result {
	switch fr.Kind {
	case types.FixupRebase:
		return Result{Kind: KindAddress, Address: fr.Target}
	case types.FixupBind:
		if name, ok := fixups.SymbolName(fr.Ordinal); ok {
			return Result{Kind: KindBindSymbol, Symbol: StripClassBindPrefix(name), Ordinal: fr.Ordinal}
		}
		return Result{Kind: KindBindOrdinal, Ordinal: fr.Ordinal}
	default:
		return decodeBits(uint64(fr.Ordinal))
	}
}

func decodeBits(raw uint64) Result {
	high := raw >> highShift
	bindFlag := (raw >> bindFlagBit) & 1

	if high == 0 {
		return Result{Kind: KindAddress, Address: raw}
	}
	if bindFlag == 1 {
		ordinal := uint32(raw & (uint64(1)<<bindOrdinalBits - 1))
		return Result{Kind: KindBindOrdinal, Ordinal: ordinal}
	}
	high8 := (raw >> highShift) & 0xff
	target := (raw & highMask) | (high8 << 56)
	return Result{Kind: KindAddress, Address: target}
}
