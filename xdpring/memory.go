//go:build linux

// Package xdpring implements spec.md §4.C (RingMemory: mapping one kernel
// ring into user space) and §4.D (Ring<Role,Desc>: lock-free SPSC push/pop
// with the four ring-kind specializations). Go has no const-generic
// "Role"/"Desc" type parameters over a single struct, so each ring kind
// (FillRing, CompRing, RxRing, TxRing — spec.md §4.D) is its own small
// type built over the shared Memory mapping, matching the teacher's own
// per-ring-kind setupFillRing/setupCompRing/setupRxRing/setupTxRing split
// in AFXDPSocket rather than a single generalized ring type.
package xdpring

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/penguintech/afxdp/internal/xdpabi"
)

// Kind identifies which of the four kernel rings a Memory maps.
type Kind int

const (
	KindFill Kind = iota
	KindCompletion
	KindRx
	KindTx
)

func (k Kind) sizeOpt() int {
	switch k {
	case KindFill:
		return xdpabi.OptUmemFillRing
	case KindCompletion:
		return xdpabi.OptUmemCompletionRing
	case KindRx:
		return xdpabi.OptRxRing
	case KindTx:
		return xdpabi.OptTxRing
	default:
		panic("xdpring: unknown ring kind")
	}
}

func (k Kind) pgoff() int64 {
	switch k {
	case KindFill:
		return xdpabi.UmemPgoffFillRing
	case KindCompletion:
		return xdpabi.UmemPgoffCompletionRing
	case KindRx:
		return xdpabi.PgoffRxRing
	case KindTx:
		return xdpabi.PgoffTxRing
	default:
		panic("xdpring: unknown ring kind")
	}
}

func (k Kind) offsetOf(offs *xdpabi.MmapOffsets) xdpabi.RingOffset {
	switch k {
	case KindFill:
		return offs.Fr
	case KindCompletion:
		return offs.Cr
	case KindRx:
		return offs.Rx
	case KindTx:
		return offs.Tx
	default:
		panic("xdpring: unknown ring kind")
	}
}

func (k Kind) String() string {
	switch k {
	case KindFill:
		return "fill"
	case KindCompletion:
		return "completion"
	case KindRx:
		return "rx"
	case KindTx:
		return "tx"
	default:
		return "unknown"
	}
}

// Memory maps one kernel ring into user space (spec.md §4.C). elemSize is
// 8 for AddrDesc rings (FILL/COMPLETION) and 16 for DataDesc rings
// (RX/TX) — struct xdp_desc.
type Memory struct {
	fd       int
	kind     Kind
	mem      []byte
	prodPtr  *uint32
	consPtr  *uint32
	flagsPtr *uint32 // nil if the kernel omitted the flags word
	descPtr  uintptr // base address of the RING_SIZE-element descriptor array
	size     uint32
	elemSize uintptr
}

// Map sets the ring-size socket option for kind, queries the resulting
// mmap offsets, and maps the ring's pages. size must be a power of two
// (spec.md §3). Neither Map nor its callers check this; any other size is
// rejected by the kernel at the ring-size setsockopt, and that error is
// returned.
func Map(fd int, kind Kind, size uint32, elemSize uintptr) (*Memory, error) {
	req := xdpabi.RingSizeReq{Entries: size}
	if err := xdpabi.SetSockopt(fd, kind.sizeOpt(), &req); err != nil {
		return nil, fmt.Errorf("xdpring: set %s ring size: %w", kind, err)
	}

	var offs xdpabi.MmapOffsets
	if err := xdpabi.GetSockopt(fd, xdpabi.OptMmapOffsets, &offs); err != nil {
		return nil, fmt.Errorf("xdpring: query mmap offsets: %w", err)
	}
	off := kind.offsetOf(&offs)

	mmapLen := int(off.Desc) + int(size)*int(elemSize)
	data, err := unix.Mmap(fd, kind.pgoff(), mmapLen,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return nil, fmt.Errorf("xdpring: mmap %s ring: %w", kind, err)
	}

	m := &Memory{
		fd:       fd,
		kind:     kind,
		mem:      data,
		prodPtr:  ptrAt(data, uintptr(off.Producer)),
		consPtr:  ptrAt(data, uintptr(off.Consumer)),
		descPtr:  uintptr(unsafePtr(data)) + uintptr(off.Desc),
		size:     size,
		elemSize: elemSize,
	}
	if off.Flags != 0 {
		m.flagsPtr = ptrAt(data, uintptr(off.Flags))
	}
	return m, nil
}

// Close unmaps the ring's pages.
func (m *Memory) Close() error {
	if err := unix.Munmap(m.mem); err != nil {
		return fmt.Errorf("xdpring: munmap %s ring: %w", m.kind, err)
	}
	return nil
}

// Fd returns the owning socket's file descriptor, used by poke and by
// statistics/options queries.
func (m *Memory) Fd() int { return m.fd }
