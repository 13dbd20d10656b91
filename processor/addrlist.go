package processor

import (
	"github.com/nsobject/objcmeta/metadata"
)

// loadAdoptedProtocols reads the Address List described in spec.md §4.8: a
// count word at the (decoded) target, then count pointer-sized entries,
// each itself decoded through the PointerDecoder before being recursively
// loaded as a protocol. Zero entries are dropped.
func (l *loader) loadAdoptedProtocols(rawListAddr uint64) []*metadata.Protocol {
	target, ok := l.resolveAddress(rawListAddr)
	if !ok {
		return nil
	}
	pl, err := l.lists.ReadPointerList(target)
	if err != nil || pl == nil {
		return nil
	}
	out := make([]*metadata.Protocol, 0, pl.Count)
	for i := uint64(0); i < pl.Count; i++ {
		raw, err := pl.Entry(l.lists, i)
		if err != nil {
			continue
		}
		addr, ok := l.resolveAddress(raw)
		if !ok {
			continue
		}
		if p := l.loadProtocolAt(addr); p != nil {
			out = append(out, p)
		}
	}
	return out
}
