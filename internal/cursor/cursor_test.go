package cursor

import (
	"encoding/binary"
	"testing"
)

func TestReadSequential(t *testing.T) {
	data := make([]byte, 0, 16)
	data = binary.LittleEndian.AppendUint32(data, 0xdeadbeef)
	data = binary.LittleEndian.AppendUint64(data, 0x1122334455667788)

	o := New(data, 0).WithOrder(binary.LittleEndian)
	u32, err := o.ReadU32()
	if err != nil || u32 != 0xdeadbeef {
		t.Fatalf("ReadU32 = %#x, %v; want 0xdeadbeef, nil", u32, err)
	}
	u64, err := o.ReadU64()
	if err != nil || u64 != 0x1122334455667788 {
		t.Fatalf("ReadU64 = %#x, %v; want 0x1122334455667788, nil", u64, err)
	}
}

func TestReadPointerWidens32(t *testing.T) {
	data := binary.LittleEndian.AppendUint32(nil, 0xcafef00d)
	o := New(data, 0).WithOrder(binary.LittleEndian)
	v, err := o.ReadPointer(false)
	if err != nil || v != 0xcafef00d {
		t.Fatalf("ReadPointer(32-bit) = %#x, %v; want 0xcafef00d, nil", v, err)
	}
}

func TestShortRead(t *testing.T) {
	o := New([]byte{1, 2, 3}, 0).WithOrder(binary.LittleEndian)
	if _, err := o.ReadU64(); err == nil {
		t.Fatalf("ReadU64 past end of a 3-byte buffer should fail")
	} else if _, ok := err.(*ShortReadError); !ok {
		t.Fatalf("ReadU64 error = %T, want *ShortReadError", err)
	}
}
