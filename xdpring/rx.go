//go:build linux

package xdpring

import (
	"sync/atomic"

	"github.com/penguintech/afxdp/internal/xdpabi"
	"github.com/penguintech/afxdp/xdpdesc"
)

// RxRing is the consumer ring the kernel uses to publish chunks holding
// received packet data (spec.md §4.D "RX").
type RxRing struct {
	ring
	umemTag   uint64
	chunkSize uint32
}

// NewRxRing maps the RX ring (DataDesc elements, 16 bytes on the wire —
// struct xdp_desc).
func NewRxRing(fd int, size, chunkSize uint32, umemTag uint64) (*RxRing, error) {
	mem, err := Map(fd, KindRx, size, 16)
	if err != nil {
		return nil, err
	}
	return &RxRing{ring: ring{mem: mem}, umemTag: umemTag, chunkSize: chunkSize}, nil
}

// Pop retrieves the next received frame. Returns (zero, false) on an empty
// ring without advancing the consumer counter (spec.md §8 invariant 6).
// The caller owns the returned frame's chunk until it is pushed back onto
// FILL.
func (r *RxRing) Pop() (xdpdesc.DataDesc, bool) {
	consumer := atomic.LoadUint32(r.mem.consPtr)
	producer := atomic.LoadUint32(r.mem.prodPtr)
	if producer == consumer {
		return xdpdesc.DataDesc{}, false
	}
	idx := consumer & (r.mem.size - 1)
	slot := (*xdpdesc.DataWire)(r.mem.descAt(idx))
	d := xdpdesc.DataDescFromWire(*slot, r.chunkSize, r.umemTag)
	atomic.StoreUint32(r.mem.consPtr, consumer+1)
	return d, true
}

// Poke wakes the kernel's RX path via a non-blocking zero-length recvfrom
// when NEED_WAKEUP is observed (spec.md §4.D). A no-op otherwise.
func (r *RxRing) Poke() error {
	if !r.NeedsWakeup() {
		return nil
	}
	return xdpabi.PokeRecvfrom(r.mem.fd)
}
