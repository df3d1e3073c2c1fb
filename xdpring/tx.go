//go:build linux

package xdpring

import (
	"sync/atomic"

	"github.com/penguintech/afxdp/internal/xdpabi"
	"github.com/penguintech/afxdp/xdpdesc"
)

// TxRing is the producer ring the application uses to publish chunks
// holding packet data for the kernel to transmit (spec.md §4.D "TX").
type TxRing struct {
	ring
	umemTag   uint64
	chunkSize uint32
}

// NewTxRing maps the TX ring (DataDesc elements, 16 bytes on the wire —
// struct xdp_desc).
func NewTxRing(fd int, size, chunkSize uint32, umemTag uint64) (*TxRing, error) {
	mem, err := Map(fd, KindTx, size, 16)
	if err != nil {
		return nil, err
	}
	return &TxRing{ring: ring{mem: mem}, umemTag: umemTag, chunkSize: chunkSize}, nil
}

// Push publishes a chunk for transmission. On success it returns (zero
// value, true) and the caller no longer owns the chunk — it belongs to the
// kernel until it reappears in COMPLETION. On failure (ring full) it
// returns (d, false): d is returned unchanged and the producer counter is
// not advanced (spec.md §8 invariant 5).
func (r *TxRing) Push(d xdpdesc.DataDesc) (xdpdesc.DataDesc, bool) {
	if d.UmemTag() != r.umemTag {
		panic("xdpring: DataDesc belongs to a different UMEM than this TxRing")
	}
	producer := atomic.LoadUint32(r.mem.prodPtr)
	consumer := atomic.LoadUint32(r.mem.consPtr)
	if producer-consumer >= r.mem.size {
		return d, false
	}
	idx := producer & (r.mem.size - 1)
	slot := (*xdpdesc.DataWire)(r.mem.descAt(idx))
	*slot = d.IntoWire()
	atomic.StoreUint32(r.mem.prodPtr, producer+1)
	return xdpdesc.DataDesc{}, true
}

// Poke wakes the kernel's TX path via a non-blocking zero-length sendto
// when NEED_WAKEUP is observed (spec.md §4.D). A no-op otherwise.
func (r *TxRing) Poke() error {
	if !r.NeedsWakeup() {
		return nil
	}
	return xdpabi.PokeSendto(r.mem.fd)
}
