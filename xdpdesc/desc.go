// Package xdpdesc implements the two ring descriptor kinds (spec.md §4.B):
// AddrDesc for FILL/COMPLETION and DataDesc for RX/TX, plus the
// frame-descriptor pairing of an in-ring value with a borrowed chunk byte
// slice used by application code (FrameRxTx / FrameFillComp in frame.go).
//
// Go has no type-level "this descriptor belongs to UMEM X" check, so every
// descriptor carries a umemTag set at construction from the owning UMEM's
// instance identity (spec.md §9's "attach a runtime UMEM-id ... and check
// equality on push/pop"). xdpring checks this tag on Push and panics on
// mismatch: a cross-UMEM descriptor landing on the wrong ring is the kind
// of broken invariant spec.md §7 reserves panics for, not a recoverable
// error.
package xdpdesc

// AddrWire is the kernel wire representation of an AddrDesc: a bare u64
// byte offset into the UMEM.
type AddrWire = uint64

// DataWire is the kernel wire representation of a DataDesc: struct
// xdp_desc { __u64 addr; __u32 len; __u32 options; }.
type DataWire struct {
	Addr    uint64
	Len     uint32
	Options uint32
}

// AddrDesc is the FILL/COMPLETION descriptor: an address-only reference
// into the UMEM (spec.md §3 "Address-only descriptor").
type AddrDesc struct {
	addr      uint64
	chunkSize uint32
	umemTag   uint64
}

// NewAddrDesc constructs an AddrDesc addressed at addr (typically, but not
// necessarily, chunk-aligned — spec.md §3: "the kernel honours the chunk
// the address falls into").
func NewAddrDesc(addr uint64, chunkSize uint32, umemTag uint64) AddrDesc {
	return AddrDesc{addr: addr, chunkSize: chunkSize, umemTag: umemTag}
}

// AddrDescFromWire reconstructs an AddrDesc popped from a ring slot.
func AddrDescFromWire(w AddrWire, chunkSize uint32, umemTag uint64) AddrDesc {
	return NewAddrDesc(w, chunkSize, umemTag)
}

// Addr returns the raw byte offset.
func (d AddrDesc) Addr() uint64 { return d.addr }

// BaseAddr returns the chunk base: addr &^ (chunkSize-1).
func (d AddrDesc) BaseAddr() uint64 {
	return d.addr &^ uint64(d.chunkSize-1)
}

// ChunkSize returns the descriptor's chunk size.
func (d AddrDesc) ChunkSize() uint32 { return d.chunkSize }

// UmemTag returns the owning UMEM's runtime identity tag.
func (d AddrDesc) UmemTag() uint64 { return d.umemTag }

// IntoWire returns the in-ring representation.
func (d AddrDesc) IntoWire() AddrWire { return d.addr }

// ToDataDesc converts to a DataDesc at the same base address, zeroing
// length and options (spec.md §4.B: "AddrDesc -> DataDesc zeroes len and
// options"). Total and lossless with respect to base_addr.
func (d AddrDesc) ToDataDesc() DataDesc {
	return DataDesc{addr: d.BaseAddr(), chunkSize: d.chunkSize, umemTag: d.umemTag}
}

// DataDesc is the RX/TX descriptor carrying address, length and options
// (spec.md §3 "Data descriptor").
type DataDesc struct {
	addr      uint64
	length    uint32
	options   uint32
	chunkSize uint32
	umemTag   uint64
}

// NewDataDesc constructs a DataDesc. addr must already be within the
// chunk (data_offset = addr - base_addr); length and options start at
// whatever the caller supplies.
func NewDataDesc(addr uint64, length, options, chunkSize uint32, umemTag uint64) DataDesc {
	return DataDesc{addr: addr, length: length, options: options, chunkSize: chunkSize, umemTag: umemTag}
}

// DataDescFromWire reconstructs a DataDesc popped from a ring slot.
func DataDescFromWire(w DataWire, chunkSize uint32, umemTag uint64) DataDesc {
	return NewDataDesc(w.Addr, w.Len, w.Options, chunkSize, umemTag)
}

// Addr returns the raw in-chunk address.
func (d DataDesc) Addr() uint64 { return d.addr }

// BaseAddr returns the chunk base: addr &^ (chunkSize-1).
func (d DataDesc) BaseAddr() uint64 {
	return d.addr &^ uint64(d.chunkSize-1)
}

// DataOffset returns addr - base_addr, always in [0, chunkSize).
func (d DataDesc) DataOffset() uint64 {
	return d.addr - d.BaseAddr()
}

// Length returns the descriptor's payload length.
func (d DataDesc) Length() uint32 { return d.length }

// Options returns the opaque kernel options bitset.
func (d DataDesc) Options() uint32 { return d.options }

// ChunkSize returns the descriptor's chunk size.
func (d DataDesc) ChunkSize() uint32 { return d.chunkSize }

// UmemTag returns the owning UMEM's runtime identity tag.
func (d DataDesc) UmemTag() uint64 { return d.umemTag }

// IntoWire returns the in-ring representation.
func (d DataDesc) IntoWire() DataWire {
	return DataWire{Addr: d.addr, Len: d.length, Options: d.options}
}

// SetAddrAndLength returns a new DataDesc with the in-chunk offset and
// length set, failing with ErrExceedsChunkSize (and returning d unchanged)
// when offset+length would run past the chunk boundary (spec.md §4.B, §8
// invariant 2).
func (d DataDesc) SetAddrAndLength(offset uint64, length uint32) (DataDesc, error) {
	if offset+uint64(length) > uint64(d.chunkSize) {
		return d, ErrExceedsChunkSize
	}
	nd := d
	nd.addr = d.BaseAddr() + offset
	nd.length = length
	return nd, nil
}

// SetLength composes onto SetAddrAndLength, keeping the current offset.
func (d DataDesc) SetLength(length uint32) (DataDesc, error) {
	return d.SetAddrAndLength(d.DataOffset(), length)
}

// SetAddr composes onto SetAddrAndLength, keeping the current length.
func (d DataDesc) SetAddr(offset uint64) (DataDesc, error) {
	return d.SetAddrAndLength(offset, d.length)
}

// ToAddrDesc converts to an AddrDesc at base_addr, discarding the
// intra-chunk offset, length and options (spec.md §4.B: "DataDesc ->
// AddrDesc takes base_addr"). Total and lossless with respect to
// base_addr.
func (d DataDesc) ToAddrDesc() AddrDesc {
	return AddrDesc{addr: d.BaseAddr(), chunkSize: d.chunkSize, umemTag: d.umemTag}
}
