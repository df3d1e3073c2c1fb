//go:build linux

package xdpring

import (
	"sync/atomic"

	"github.com/penguintech/afxdp/xdpdesc"
)

// CompRing is the consumer ring the kernel uses to publish chunks whose
// transmission has completed (spec.md §4.D "COMPLETION"). No poke: the
// kernel drains TX and publishes completions without user-space prompting.
type CompRing struct {
	ring
	umemTag   uint64
	chunkSize uint32
}

// NewCompRing maps the COMPLETION ring (AddrDesc elements, 8 bytes on the
// wire).
func NewCompRing(fd int, size, chunkSize uint32, umemTag uint64) (*CompRing, error) {
	mem, err := Map(fd, KindCompletion, size, 8)
	if err != nil {
		return nil, err
	}
	return &CompRing{ring: ring{mem: mem}, umemTag: umemTag, chunkSize: chunkSize}, nil
}

// Pop retrieves the next completed chunk address, reclaiming ownership of
// that chunk for the application. Returns (zero, false) on an empty ring
// without advancing the consumer counter (spec.md §8 invariant 6).
func (r *CompRing) Pop() (xdpdesc.AddrDesc, bool) {
	consumer := atomic.LoadUint32(r.mem.consPtr)
	producer := atomic.LoadUint32(r.mem.prodPtr)
	if producer == consumer {
		return xdpdesc.AddrDesc{}, false
	}
	idx := consumer & (r.mem.size - 1)
	slot := (*xdpdesc.AddrWire)(r.mem.descAt(idx))
	d := xdpdesc.AddrDescFromWire(*slot, r.chunkSize, r.umemTag)
	atomic.StoreUint32(r.mem.consPtr, consumer+1)
	return d, true
}
