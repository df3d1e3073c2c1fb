package xdpdesc

import "testing"

func TestFrameFromChunkAddressing(t *testing.T) {
	const numChunks = 4
	umem := make([]byte, numChunks*testChunkSize)
	f := FrameFromChunk(umem, 2*testChunkSize, testChunkSize, 5)
	if len(f.Bytes) != testChunkSize {
		t.Fatalf("len(Bytes) = %d, want %d", len(f.Bytes), testChunkSize)
	}
	if f.Desc.Addr() != 2*testChunkSize {
		t.Fatalf("Desc.Addr() = %d, want %d", f.Desc.Addr(), 2*testChunkSize)
	}
	if f.Desc.UmemTag() != 5 {
		t.Fatalf("Desc.UmemTag() = %d, want 5", f.Desc.UmemTag())
	}
}

func TestFrameRxTxDataSlicesPayload(t *testing.T) {
	bytes := make([]byte, testChunkSize)
	for i := range bytes {
		bytes[i] = byte(i)
	}
	d, err := NewDataDesc(0, 0, 0, testChunkSize, 1).SetAddrAndLength(10, 5)
	if err != nil {
		t.Fatalf("SetAddrAndLength: %v", err)
	}
	f := FrameRxTx{Desc: d, Bytes: bytes}
	data := f.Data()
	if len(data) != 5 {
		t.Fatalf("len(Data()) = %d, want 5", len(data))
	}
	for i, b := range data {
		if b != byte(10+i) {
			t.Fatalf("Data()[%d] = %d, want %d", i, b, 10+i)
		}
	}
}

func TestFrameFillCompToRxTxAndBack(t *testing.T) {
	umem := make([]byte, testChunkSize)
	fc := FrameFromChunk(umem, 0, testChunkSize, 2)
	rxtx := fc.ToRxTx()
	if rxtx.Desc.Length() != 0 || rxtx.Desc.Options() != 0 {
		t.Fatalf("ToRxTx() length=%d options=%d, want 0,0", rxtx.Desc.Length(), rxtx.Desc.Options())
	}
	back := rxtx.ToFillComp()
	if back.Desc.Addr() != fc.Desc.Addr() {
		t.Fatalf("round trip Addr = %d, want %d", back.Desc.Addr(), fc.Desc.Addr())
	}
	if &back.Bytes[0] != &fc.Bytes[0] {
		t.Fatalf("round trip did not preserve the same backing chunk bytes")
	}
}

func TestFrameFromChunkSharesUnderlyingUmemBacking(t *testing.T) {
	umem := make([]byte, 2*testChunkSize)
	f := FrameFromChunk(umem, testChunkSize, testChunkSize, 1)
	f.Bytes[0] = 0xAB
	if umem[testChunkSize] != 0xAB {
		t.Fatalf("FrameFromChunk() did not alias the underlying UMEM region")
	}
}
