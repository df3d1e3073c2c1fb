//go:build linux

package xdpring

import (
	"sync/atomic"

	"github.com/penguintech/afxdp/internal/xdpabi"
	"github.com/penguintech/afxdp/xdpdesc"
)

// FillRing is the producer ring the application uses to publish UMEM
// chunks the kernel may fill with inbound packets (spec.md §4.D "FILL").
type FillRing struct {
	ring
	umemTag   uint64
	chunkSize uint32
}

// NewFillRing maps the FILL ring (AddrDesc elements, 8 bytes on the wire).
// chunkSize is accepted for symmetry with the other three ring
// constructors (ringset builds all four with the same argument list) but
// unused here: Push only ever writes descriptors the caller already
// constructed, it never reconstructs one from a chunkSize-less wire value.
func NewFillRing(fd int, size, chunkSize uint32, umemTag uint64) (*FillRing, error) {
	mem, err := Map(fd, KindFill, size, 8)
	if err != nil {
		return nil, err
	}
	return &FillRing{ring: ring{mem: mem}, umemTag: umemTag, chunkSize: chunkSize}, nil
}

// Push publishes a chunk address to the kernel. On success it returns
// (zero value, true) and the caller no longer owns the chunk — it now
// belongs to the kernel until it reappears in RX. On failure (ring full)
// it returns (d, false): d is returned unchanged and the producer counter
// is not advanced (spec.md §8 invariant 5).
func (r *FillRing) Push(d xdpdesc.AddrDesc) (xdpdesc.AddrDesc, bool) {
	if d.UmemTag() != r.umemTag {
		panic("xdpring: AddrDesc belongs to a different UMEM than this FillRing")
	}
	producer := atomic.LoadUint32(r.mem.prodPtr)
	consumer := atomic.LoadUint32(r.mem.consPtr)
	if producer-consumer >= r.mem.size {
		return d, false
	}
	idx := producer & (r.mem.size - 1)
	slot := (*xdpdesc.AddrWire)(r.mem.descAt(idx))
	*slot = d.IntoWire()
	atomic.StoreUint32(r.mem.prodPtr, producer+1)
	return xdpdesc.AddrDesc{}, true
}

// Poke nudges the kernel to resume consuming FILL when it has set
// NEED_WAKEUP — waking FILL is how the kernel's RX path resumes (spec.md
// §4.D). A no-op when the flag isn't set.
func (r *FillRing) Poke() error {
	if !r.NeedsWakeup() {
		return nil
	}
	return xdpabi.PokeRecvfrom(r.mem.fd)
}
