package xdpdesc

// FrameRxTx pairs a DataDesc with the chunk bytes it addresses — the
// "exclusive borrow" of spec.md §3. Go has no borrow checker, so
// exclusivity is a discipline enforced by the caller: a chunk's address
// must be in exactly one of {an application-held Frame, FILL, RX, TX,
// COMPLETION} at any instant. Constructing a Frame from a byte slice the
// caller no longer references, and never holding two Frames over the same
// chunk at once, is how this module upholds that discipline in practice.
type FrameRxTx struct {
	Desc  DataDesc
	Bytes []byte // always exactly ChunkSize() bytes, chunk-base aligned
}

// Data returns the frame's payload bytes: Bytes[DataOffset : DataOffset+Length].
func (f FrameRxTx) Data() []byte {
	off := f.Desc.DataOffset()
	return f.Bytes[off : off+uint64(f.Desc.Length())]
}

// ToFillComp converts to a FrameFillComp, discarding length/options and
// keeping base_addr and the chunk borrow. Round-tripping through
// ToFillComp().ToRxTx() preserves base_addr (spec.md §8 invariant 3).
func (f FrameRxTx) ToFillComp() FrameFillComp {
	return FrameFillComp{Desc: f.Desc.ToAddrDesc(), Bytes: f.Bytes}
}

// FrameFillComp pairs an AddrDesc with the chunk bytes it addresses, used
// on the FILL and COMPLETION path.
type FrameFillComp struct {
	Desc  AddrDesc
	Bytes []byte // always exactly ChunkSize() bytes, chunk-base aligned
}

// ToRxTx converts to a FrameRxTx with length and options zeroed.
func (f FrameFillComp) ToRxTx() FrameRxTx {
	return FrameRxTx{Desc: f.Desc.ToDataDesc(), Bytes: f.Bytes}
}

// FrameFromChunk builds a FrameFillComp over the chunk at baseAddr within
// umemBase, the construction spec.md §4.E's Umem.descriptors uses to hand
// out the initial descriptor pool: one FrameFillComp per chunk, addressed
// at chunk_index * CHUNK_SIZE.
func FrameFromChunk(umemBase []byte, baseAddr uint64, chunkSize uint32, umemTag uint64) FrameFillComp {
	end := baseAddr + uint64(chunkSize)
	return FrameFillComp{
		Desc:  NewAddrDesc(baseAddr, chunkSize, umemTag),
		Bytes: umemBase[baseAddr:end:end],
	}
}
