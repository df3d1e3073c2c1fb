package xdpmem

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestNewRejectsNonPositiveSize(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatalf("expected error for size 0")
	}
	if _, err := New(-1); err == nil {
		t.Fatalf("expected error for negative size")
	}
}

func TestNewRoundsUpToPageSize(t *testing.T) {
	r, err := New(1)
	if err != nil {
		t.Fatalf("New: unexpected error %v", err)
	}
	defer r.Close()
	if r.Len() != unix.Getpagesize() {
		t.Fatalf("Len() = %d, want %d (one page)", r.Len(), unix.Getpagesize())
	}
}

func TestNewZeroInitializesMemory(t *testing.T) {
	r, err := New(4096)
	if err != nil {
		t.Fatalf("New: unexpected error %v", err)
	}
	defer r.Close()
	for i, b := range r.Base() {
		if b != 0 {
			t.Fatalf("Base()[%d] = %d, want 0 (zero-initialized)", i, b)
		}
	}
}

func TestBaseIsWritableAndShared(t *testing.T) {
	r, err := New(4096)
	if err != nil {
		t.Fatalf("New: unexpected error %v", err)
	}
	defer r.Close()
	r.Base()[0] = 0xFF
	if r.Base()[0] != 0xFF {
		t.Fatalf("write to Base() did not stick")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	r, err := New(4096)
	if err != nil {
		t.Fatalf("New: unexpected error %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("first Close: unexpected error %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: expected idempotent nil error, got %v", err)
	}
}
