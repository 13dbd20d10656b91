// Package cursor implements a bounds-checked sequential byte reader over a
// fixed slice, the building block every ObjC2 struct reader in this module
// is written against.
package cursor

import (
	"encoding/binary"
	"fmt"
)

// ShortReadError is returned when a read would run past the end of the
// underlying slice.
type ShortReadError struct {
	Offset int
	Needed int
	Len    int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("short read at offset %#x: need %d bytes, have %d", e.Offset, e.Needed, e.Len-e.Offset)
}

// Cursor is a single-threaded, sequential reader over a byte slice. One
// Cursor parses exactly one structure; it is never shared across goroutines.
type Cursor struct {
	data []byte
	off  int
}

// New returns a Cursor over data starting at offset.
func New(data []byte, offset int) *Cursor {
	return &Cursor{data: data, off: offset}
}

// Tell returns the current read offset.
func (c *Cursor) Tell() int {
	return c.off
}

// Len returns the length of the underlying slice.
func (c *Cursor) Len() int {
	return len(c.data)
}

func (c *Cursor) require(n int) error {
	if c.off < 0 || n < 0 || c.off+n > len(c.data) {
		return &ShortReadError{Offset: c.off, Needed: n, Len: len(c.data)}
	}
	return nil
}

// Skip advances the cursor by n bytes without reading them.
func (c *Cursor) Skip(n int) error {
	if err := c.require(n); err != nil {
		return err
	}
	c.off += n
	return nil
}

// ReadBytes reads and returns the next n raw bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.require(n); err != nil {
		return nil, err
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

// ReadU32LE reads a little-endian uint32.
func (c *Cursor) ReadU32LE() (uint32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU32BE reads a big-endian uint32.
func (c *Cursor) ReadU32BE() (uint32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadU64LE reads a little-endian uint64.
func (c *Cursor) ReadU64LE() (uint64, error) {
	b, err := c.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadU64BE reads a big-endian uint64.
func (c *Cursor) ReadU64BE() (uint64, error) {
	b, err := c.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadI32LE reads a little-endian signed int32.
func (c *Cursor) ReadI32LE() (int32, error) {
	v, err := c.ReadU32LE()
	return int32(v), err
}

// ReadI32BE reads a big-endian signed int32.
func (c *Cursor) ReadI32BE() (int32, error) {
	v, err := c.ReadU32BE()
	return int32(v), err
}

// ByteOrder is the subset of encoding/binary.ByteOrder this package reads
// with; binary.LittleEndian and binary.BigEndian both satisfy it, as does
// any MachOFile collaborator's own byte-order value.
type ByteOrder interface {
	Uint16([]byte) uint16
	Uint32([]byte) uint32
	Uint64([]byte) uint64
}

// Order adapts a Cursor to read with a caller-supplied byte order, which is
// how every ObjC2 struct reader in types/objc actually calls it: the byte
// order of a Mach-O image is fixed for its whole lifetime, not per-field.
type Order struct {
	c  *Cursor
	bo ByteOrder
}

// WithOrder binds bo as the byte order used by ReadU32/ReadU64/ReadI32/ReadPointer.
func (c *Cursor) WithOrder(bo ByteOrder) Order {
	return Order{c: c, bo: bo}
}

func (o Order) Tell() int { return o.c.Tell() }

func (o Order) Skip(n int) error { return o.c.Skip(n) }

// ReadU32 reads a uint32 in the bound byte order.
func (o Order) ReadU32() (uint32, error) {
	b, err := o.c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return o.bo.Uint32(b), nil
}

// ReadU64 reads a uint64 in the bound byte order.
func (o Order) ReadU64() (uint64, error) {
	b, err := o.c.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return o.bo.Uint64(b), nil
}

// ReadI32 reads a signed int32 in the bound byte order.
func (o Order) ReadI32() (int32, error) {
	v, err := o.ReadU32()
	return int32(v), err
}

// ReadPointer reads a pointer-sized word, widening a 32-bit pointer to
// 64-bit zero-extended when is64 is false.
func (o Order) ReadPointer(is64 bool) (uint64, error) {
	if is64 {
		return o.ReadU64()
	}
	v, err := o.ReadU32()
	return uint64(v), err
}
