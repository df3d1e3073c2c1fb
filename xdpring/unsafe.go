//go:build linux

package xdpring

import "unsafe"

// unsafePtr returns the address of a mapped ring's backing array. Kept as
// its own tiny helper so the unsafe.Pointer conversions needed to derive
// the producer/consumer/flags/desc pointers (spec.md §4.C) are isolated to
// this one file.
func unsafePtr(b []byte) unsafe.Pointer {
	return unsafe.Pointer(&b[0])
}

// ptrAt returns a *uint32 at byte offset off within b's backing array.
func ptrAt(b []byte, off uintptr) *uint32 {
	return (*uint32)(unsafe.Pointer(uintptr(unsafePtr(b)) + off))
}

// descAt returns a pointer to the descriptor slot at index idx, given the
// element size recorded on Memory.
func (m *Memory) descAt(idx uint32) unsafe.Pointer {
	return unsafe.Pointer(m.descPtr + uintptr(idx)*m.elemSize)
}
