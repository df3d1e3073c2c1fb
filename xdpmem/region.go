// Package xdpmem owns the page-aligned, zero-initialized memory region
// backing a UMEM. It has no knowledge of chunks, descriptors, or rings —
// those live in xdpdesc and xdpumem, which address into a Region by byte
// offset.
package xdpmem

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/penguintech/afxdp/internal/logging"
)

var (
	finalizerLogOnce sync.Once
	finalizerLog     *logging.Logger
)

// leakLogger lazily builds the package-level logger used to report a
// Region reclaimed by the finalizer instead of an explicit Close — a bug
// in the caller, not a normal teardown path, so it is always worth a line
// even without a caller-supplied logger.
func leakLogger() *logging.Logger {
	finalizerLogOnce.Do(func() {
		finalizerLog = logging.New("warn")
	})
	return finalizerLog
}

// Region is N*chunkSize bytes of page-aligned, anonymous, zero-filled
// memory shared with the kernel by address. Grounded in
// AFXDPSocket.setupUMEM's unix.Mmap call, generalized into its own type so
// xdpumem can register it and drop it independently of socket setup.
type Region struct {
	mem    []byte
	closed atomic.Bool
}

// New allocates a Region of exactly n bytes rounded up to the system page
// size, matching spec.md §3's "N x CHUNK_SIZE bytes, page-aligned,
// zero-initialized" requirement.
func New(n int) (*Region, error) {
	if n <= 0 {
		return nil, fmt.Errorf("xdpmem: size must be positive, got %d", n)
	}
	aligned := roundUpPage(n)
	mem, err := unix.Mmap(-1, 0, aligned,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_POPULATE)
	if err != nil {
		return nil, fmt.Errorf("xdpmem: mmap %d bytes: %w", aligned, err)
	}
	r := &Region{mem: mem}
	runtime.SetFinalizer(r, func(r *Region) {
		if r.closed.Load() {
			return
		}
		leakLogger().WithField("bytes", len(r.mem)).Warn("xdpmem: region garbage-collected without Close, reclaiming via finalizer")
		unix.Munmap(r.mem)
	})
	return r, nil
}

func roundUpPage(n int) int {
	page := unix.Getpagesize()
	return (n + page - 1) &^ (page - 1)
}

// Base returns the base address of the region as a byte slice. Callers
// address into it by offset; xdpmem itself never interprets contents.
func (r *Region) Base() []byte { return r.mem }

// Len returns the total mapped length, which may be larger than the
// requested size due to page rounding.
func (r *Region) Len() int { return len(r.mem) }

// Close unmaps the region. Idempotent; safe to call more than once.
func (r *Region) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	runtime.SetFinalizer(r, nil)
	if err := unix.Munmap(r.mem); err != nil {
		return fmt.Errorf("xdpmem: munmap: %w", err)
	}
	return nil
}
