//go:build linux

package xdpring

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/penguintech/afxdp/xdpdesc"
)

const ringTestChunkSize = 2048

// newTestMemory builds a Memory backed by a plain heap buffer instead of an
// mmap'd socket ring, so the push/pop/wraparound logic in fill.go,
// completion.go, rx.go and tx.go can be exercised without a real AF_XDP
// socket. Never call Close on a Memory built this way — Close unmaps mem via
// unix.Munmap, which only works on kernel-mapped memory.
func newTestMemory(size uint32, elemSize uintptr) *Memory {
	buf := make([]byte, uintptr(size)*elemSize)
	return &Memory{
		fd:       -1,
		kind:     KindFill,
		mem:      buf,
		prodPtr:  new(uint32),
		consPtr:  new(uint32),
		flagsPtr: new(uint32),
		descPtr:  uintptr(unsafePtr(buf)),
		size:     size,
		elemSize: elemSize,
	}
}

func TestFillCompRingPushPopFIFOAndCapacity(t *testing.T) {
	mem := newTestMemory(4, 8)
	fill := &FillRing{ring: ring{mem: mem}, umemTag: 1, chunkSize: ringTestChunkSize}
	comp := &CompRing{ring: ring{mem: mem}, umemTag: 1, chunkSize: ringTestChunkSize}

	if !fill.IsEmpty() {
		t.Fatalf("fresh ring should be empty")
	}

	for i := uint64(0); i < 4; i++ {
		d := xdpdesc.NewAddrDesc(i*ringTestChunkSize, ringTestChunkSize, 1)
		if _, ok := fill.Push(d); !ok {
			t.Fatalf("push %d: expected success on non-full ring", i)
		}
	}
	if !fill.IsFull() {
		t.Fatalf("ring should report full after filling to capacity")
	}
	overflow := xdpdesc.NewAddrDesc(99*ringTestChunkSize, ringTestChunkSize, 1)
	if got, ok := fill.Push(overflow); ok || got != overflow {
		t.Fatalf("push on full ring: got (%v, %v), want (overflow unchanged, false)", got, ok)
	}

	for i := uint64(0); i < 4; i++ {
		d, ok := comp.Pop()
		if !ok {
			t.Fatalf("pop %d: expected success, ring should still have entries", i)
		}
		if d.Addr() != i*ringTestChunkSize {
			t.Fatalf("pop %d: got addr %d, want %d (FIFO order)", i, d.Addr(), i*ringTestChunkSize)
		}
	}
	if _, ok := comp.Pop(); ok {
		t.Fatalf("pop on empty ring: expected false")
	}
	if !fill.IsEmpty() {
		t.Fatalf("ring should be empty after draining all entries")
	}
}

func TestTxRxRingPushPopDataDesc(t *testing.T) {
	mem := newTestMemory(2, 16)
	tx := &TxRing{ring: ring{mem: mem}, umemTag: 7, chunkSize: ringTestChunkSize}
	rx := &RxRing{ring: ring{mem: mem}, umemTag: 7, chunkSize: ringTestChunkSize}

	d1, err := xdpdesc.NewDataDesc(0, 0, 0, ringTestChunkSize, 7).SetAddrAndLength(10, 64)
	if err != nil {
		t.Fatalf("SetAddrAndLength: %v", err)
	}
	d2, err := xdpdesc.NewDataDesc(ringTestChunkSize, 0, 0, ringTestChunkSize, 7).SetAddrAndLength(20, 128)
	if err != nil {
		t.Fatalf("SetAddrAndLength: %v", err)
	}

	if _, ok := tx.Push(d1); !ok {
		t.Fatalf("push d1: expected success")
	}
	if _, ok := tx.Push(d2); !ok {
		t.Fatalf("push d2: expected success")
	}
	if _, ok := tx.Push(d1); ok {
		t.Fatalf("push on full ring: expected false")
	}

	got1, ok := rx.Pop()
	if !ok || got1.Length() != 64 || got1.DataOffset() != 10 {
		t.Fatalf("pop 1: got (%+v, %v), want length=64 offset=10, ok=true", got1, ok)
	}
	got2, ok := rx.Pop()
	if !ok || got2.Length() != 128 || got2.DataOffset() != 20 {
		t.Fatalf("pop 2: got (%+v, %v), want length=128 offset=20, ok=true", got2, ok)
	}
	if _, ok := rx.Pop(); ok {
		t.Fatalf("pop on empty ring: expected false")
	}
}

func TestFillRingPushWrongUmemTagPanics(t *testing.T) {
	mem := newTestMemory(2, 8)
	fill := &FillRing{ring: ring{mem: mem}, umemTag: 1, chunkSize: ringTestChunkSize}
	foreign := xdpdesc.NewAddrDesc(0, ringTestChunkSize, 999)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic pushing a descriptor tagged for a different UMEM")
		}
	}()
	fill.Push(foreign)
}

func TestTxRingPushWrongUmemTagPanics(t *testing.T) {
	mem := newTestMemory(2, 16)
	tx := &TxRing{ring: ring{mem: mem}, umemTag: 1, chunkSize: ringTestChunkSize}
	foreign := xdpdesc.NewDataDesc(0, 0, 0, ringTestChunkSize, 999)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic pushing a descriptor tagged for a different UMEM")
		}
	}()
	tx.Push(foreign)
}

func TestRingIndexWraparoundAcrossManyMaskCycles(t *testing.T) {
	mem := newTestMemory(2, 8)
	fill := &FillRing{ring: ring{mem: mem}, umemTag: 1, chunkSize: ringTestChunkSize}
	comp := &CompRing{ring: ring{mem: mem}, umemTag: 1, chunkSize: ringTestChunkSize}

	for cycle := uint64(0); cycle < 10; cycle++ {
		d := xdpdesc.NewAddrDesc(cycle*ringTestChunkSize, ringTestChunkSize, 1)
		if _, ok := fill.Push(d); !ok {
			t.Fatalf("cycle %d: push failed unexpectedly", cycle)
		}
		got, ok := comp.Pop()
		if !ok {
			t.Fatalf("cycle %d: pop failed unexpectedly", cycle)
		}
		if got.Addr() != cycle*ringTestChunkSize {
			t.Fatalf("cycle %d: got addr %d, want %d", cycle, got.Addr(), cycle*ringTestChunkSize)
		}
	}
	if !fill.IsEmpty() {
		t.Fatalf("ring should be empty after equal push/pop cycles, even past a size-1 mask wrap")
	}
}

// TestRingCounterWraparoundPast32Bits drives the producer/consumer
// counters themselves across the actual uint32 overflow boundary (not just
// repeated mask-by-size-1 index cycles), confirming Filled/FreeEntries'
// wrapping subtraction (spec.md §4.D, original_source/ring/inner.rs) still
// reports correctly once the counters themselves wrap.
func TestRingCounterWraparoundPast32Bits(t *testing.T) {
	mem := newTestMemory(4, 8)
	fill := &FillRing{ring: ring{mem: mem}, umemTag: 1, chunkSize: ringTestChunkSize}
	comp := &CompRing{ring: ring{mem: mem}, umemTag: 1, chunkSize: ringTestChunkSize}

	const start = math.MaxUint32 - 1
	atomic.StoreUint32(mem.prodPtr, start)
	atomic.StoreUint32(mem.consPtr, start)

	// Push/pop 4 entries, crossing math.MaxUint32 -> 0 -> 1 along the way.
	for i := uint64(0); i < 4; i++ {
		d := xdpdesc.NewAddrDesc(i*ringTestChunkSize, ringTestChunkSize, 1)
		if _, ok := fill.Push(d); !ok {
			t.Fatalf("push %d: failed unexpectedly while crossing uint32 wraparound", i)
		}
		if got := fill.Filled(); got != 1 {
			t.Fatalf("push %d: Filled() = %d, want 1 (producer counter %d)", i, got, atomic.LoadUint32(mem.prodPtr))
		}
		got, ok := comp.Pop()
		if !ok {
			t.Fatalf("pop %d: failed unexpectedly while crossing uint32 wraparound", i)
		}
		if got.Addr() != i*ringTestChunkSize {
			t.Fatalf("pop %d: got addr %d, want %d", i, got.Addr(), i*ringTestChunkSize)
		}
	}
	if !fill.IsEmpty() {
		t.Fatalf("ring should be empty after equal push/pop counts across the uint32 wraparound")
	}
	if got := atomic.LoadUint32(mem.prodPtr); got != 2 {
		t.Fatalf("producer counter after wraparound = %d, want 2 (start=%d + 4 mod 2^32)", got, start)
	}
}

func TestFreeEntriesTracksPartialFill(t *testing.T) {
	mem := newTestMemory(4, 8)
	fill := &FillRing{ring: ring{mem: mem}, umemTag: 1, chunkSize: ringTestChunkSize}

	if got := fill.FreeEntries(); got != 4 {
		t.Fatalf("FreeEntries() on empty ring = %d, want 4", got)
	}
	fill.Push(xdpdesc.NewAddrDesc(0, ringTestChunkSize, 1))
	fill.Push(xdpdesc.NewAddrDesc(ringTestChunkSize, ringTestChunkSize, 1))
	if got := fill.FreeEntries(); got != 2 {
		t.Fatalf("FreeEntries() after 2 pushes = %d, want 2", got)
	}
	if got := fill.Filled(); got != 2 {
		t.Fatalf("Filled() after 2 pushes = %d, want 2", got)
	}
}
