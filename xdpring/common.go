//go:build linux

package xdpring

import (
	"sync/atomic"

	"github.com/penguintech/afxdp/internal/xdpabi"
)

// ring holds the observability and wakeup-flag logic shared by all four
// ring kinds (spec.md §4.D "Observability" and "Wakeup state"). Producer
// and consumer counters are read with sync/atomic, which the Go memory
// model documents as providing sequentially consistent ordering — strictly
// stronger than, and therefore sufficient for, the acquire/release
// ordering spec.md §4.D requires against the kernel's concurrent access.
type ring struct {
	mem *Memory
}

// FreeEntries returns RING_SIZE - filled.
func (r ring) FreeEntries() uint32 { return r.mem.size - r.Filled() }

// Filled returns producer - consumer (wrapping).
func (r ring) Filled() uint32 {
	p := atomic.LoadUint32(r.mem.prodPtr)
	c := atomic.LoadUint32(r.mem.consPtr)
	return p - c
}

// IsEmpty reports whether the ring currently holds no entries.
func (r ring) IsEmpty() bool { return r.Filled() == 0 }

// IsFull reports whether the ring is at capacity.
func (r ring) IsFull() bool { return r.Filled() == r.mem.size }

// NeedsWakeup reports whether the kernel set the NEED_WAKEUP bit. The
// flags word is read by value on every call, never cached — spec.md §4.D:
// "the kernel may mutate it concurrently".
func (r ring) NeedsWakeup() bool {
	if r.mem.flagsPtr == nil {
		return false
	}
	return atomic.LoadUint32(r.mem.flagsPtr)&xdpabi.RingFlagNeedWakeup != 0
}

// Stats queries XDP_STATISTICS on the owning socket.
func (r ring) Stats() (xdpabi.Statistics, error) {
	var st xdpabi.Statistics
	err := xdpabi.GetSockopt(r.mem.fd, xdpabi.OptStatistics, &st)
	return st, err
}

// OptionsFlags queries XDP_OPTIONS on the owning socket, revealing
// whether the kernel negotiated zero-copy mode (xdpabi.OptionsZeroCopy).
func (r ring) OptionsFlags() (xdpabi.Options, error) {
	var opt xdpabi.Options
	err := xdpabi.GetSockopt(r.mem.fd, xdpabi.OptOptions, &opt)
	return opt, err
}

// Close unmaps the ring's memory.
func (r ring) Close() error { return r.mem.Close() }
