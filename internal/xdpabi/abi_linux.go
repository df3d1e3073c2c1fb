//go:build linux

// Package xdpabi mirrors the kernel AF_XDP ABI: the socket options, flag
// bits, and wire structs defined by linux/if_xdp.h. Nothing here is
// exported outside the module; xdpring, xdpumem and internal/xdpmetrics
// are its callers.
package xdpabi

import "golang.org/x/sys/unix"

// Socket family and SOL level for AF_XDP sockets.
const (
	AfXdp  = unix.AF_XDP
	SolXdp = unix.SOL_XDP
)

// setsockopt/getsockopt option names (linux/if_xdp.h XDP_*).
const (
	OptMmapOffsets       = 1
	OptRxRing            = 2
	OptTxRing            = 3
	OptUmemReg           = 4
	OptUmemFillRing      = 5
	OptUmemCompletionRing = 6
	OptStatistics        = 7
	OptOptions           = 8
)

// Bind flags (linux/if_xdp.h XDP_*).
const (
	FlagSharedUmem    = 1 << 0
	FlagCopy          = 1 << 1
	FlagZeroCopy      = 1 << 2
	FlagUseNeedWakeup = 1 << 3
)

// Ring flags word bit (producer/consumer/flags offset struct) and the
// options flags word bit returned by OptOptions.
const (
	RingFlagNeedWakeup = 1 << 0
	OptionsZeroCopy    = 1 << 0
)

// mmap page offsets (linux/if_xdp.h XDP_PGOFF_* / XDP_UMEM_PGOFF_*).
const (
	PgoffRxRing                = 0
	PgoffTxRing                = 0x80000000
	UmemPgoffFillRing          = 0x100000000
	UmemPgoffCompletionRing    = 0x180000000
)

// RingOffset mirrors struct xdp_ring_offset: byte offsets, relative to the
// mmap base for that ring, of the producer counter, consumer counter,
// descriptor array, and (for kernels that support it) the flags word.
type RingOffset struct {
	Producer uint64
	Consumer uint64
	Desc     uint64
	Flags    uint64
}

// MmapOffsets mirrors struct xdp_mmap_offsets, returned by getsockopt
// OptMmapOffsets once all four ring sizes have been set.
type MmapOffsets struct {
	Rx RingOffset
	Tx RingOffset
	Fr RingOffset
	Cr RingOffset
}

// UmemReg mirrors struct xdp_umem_reg, passed to setsockopt OptUmemReg.
type UmemReg struct {
	Addr          uint64
	Len           uint64
	ChunkSize     uint32
	Headroom      uint32
	Flags         uint32
	TxMetadataLen uint32
}

// Statistics mirrors struct xdp_statistics, returned by getsockopt
// OptStatistics.
type Statistics struct {
	RxDropped            uint64
	RxInvalidDescs       uint64
	TxInvalidDescs       uint64
	RxRingFull           uint64
	RxFillRingEmptyDescs uint64
	TxRingEmptyDescs     uint64
}

// Options mirrors struct xdp_options, returned by getsockopt OptOptions.
type Options struct {
	Flags uint32
}

// SockaddrXdp mirrors struct sockaddr_xdp, the bind()/connect() address
// for AF_XDP sockets.
type SockaddrXdp struct {
	Family       uint16
	Flags        uint16
	Ifindex      uint32
	QueueID      uint32
	SharedUmemFD uint32
}

// RingSizeReq is the setsockopt payload for OptRxRing/OptTxRing/
// OptUmemFillRing/OptUmemCompletionRing: a single uint32 entry count.
type RingSizeReq struct {
	Entries uint32
}
