// Package vmaddr translates Mach-O virtual addresses to file offsets via a
// binary's segment table. Grounded on the linear-scan GetOffset/GetVMAddress
// pair in blacktop-go-macho's file.go, reworked to keep segments sorted by
// VMBase. A lookup binary-searches past every segment that starts above the
// address, then scans the remaining candidates so that overlaps resolve by
// original table order; in the worst case it is still linear in the number
// of segments.
package vmaddr

import (
	"fmt"
	"sort"
)

// InvalidAddressError reports a virtual address that no segment maps.
type InvalidAddressError struct {
	VMAddr uint64
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("address %#x not within any segment's address range", e.VMAddr)
}

// Segment is the minimal shape of a Mach-O segment this package needs.
type Segment struct {
	VMBase   uint64
	VMSize   uint64
	FileOff  uint64
	FileSize uint64
}

func (s Segment) containsVMAddr(addr uint64) bool {
	return addr >= s.VMBase && addr < s.VMBase+s.VMSize
}

type entry struct {
	Segment
	order int // position in the original, caller-supplied segment table
}

// Translator maps virtual addresses to file offsets. It is built once from
// a binary's segment table and is safe for concurrent queries thereafter.
type Translator struct {
	segs []entry // sorted by VMBase
}

// New builds a Translator from segs, in the order the Mach-O load commands
// presented them (this order matters for overlap resolution).
func New(segs []Segment) *Translator {
	entries := make([]entry, len(segs))
	for i, s := range segs {
		entries[i] = entry{Segment: s, order: i}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].VMBase < entries[j].VMBase
	})
	return &Translator{segs: entries}
}

// FileOffset maps a virtual address to a file offset, or reports
// InvalidAddressError if no segment covers it, or if the segment's file
// region (zero-page mappings have FileSize == 0) doesn't also cover the
// delta. When multiple segments cover the same address, the one that
// appeared earliest in the original segment table wins.
func (t *Translator) FileOffset(vaddr uint64) (uint64, error) {
	n := len(t.segs)
	// First index whose VMBase is strictly greater than vaddr; every
	// covering segment must start at or before that index.
	hi := sort.Search(n, func(i int) bool { return t.segs[i].VMBase > vaddr })

	best := -1
	for j := 0; j < hi; j++ {
		s := t.segs[j]
		if s.containsVMAddr(vaddr) && (best == -1 || s.order < t.segs[best].order) {
			best = j
		}
	}
	if best == -1 {
		return 0, &InvalidAddressError{VMAddr: vaddr}
	}
	s := t.segs[best]
	if s.FileSize == 0 {
		return 0, &InvalidAddressError{VMAddr: vaddr}
	}
	delta := vaddr - s.VMBase
	if delta >= s.FileSize {
		return 0, &InvalidAddressError{VMAddr: vaddr}
	}
	return s.FileOff + delta, nil
}
