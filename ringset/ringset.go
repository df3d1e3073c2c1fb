//go:build linux

// Package ringset implements spec.md §5's ring-set lifetime: the bundle of
// rings a socket owns once bound and steered into an XSKMAP, and the
// teardown order that bundle must honor. Go has no destructor-driven field
// drop order the way the original implementation's struct layout could
// lean on, so each type here runs that order explicitly inside Close,
// rather than relying on field declaration order to mean anything at
// runtime.
package ringset

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/penguintech/afxdp/xdpring"
	"github.com/penguintech/afxdp/xskmap"
)

// FourRing is a socket's complete ring set: it owns FILL, COMPLETION, RX
// and TX, used by the anchor socket of a UMEM (or any socket not sharing
// rings via XDP_SHARED_UMEM). The Entry field is declared first purely as
// documentation of teardown order — Go field order has no runtime effect —
// the real ordering lives in Close.
type FourRing struct {
	Entry *xskmap.Entry
	Fill  *xdpring.FillRing
	Comp  *xdpring.CompRing
	Rx    *xdpring.RxRing
	Tx    *xdpring.TxRing

	closed bool
}

// NewFourRing wraps an already-constructed ring set and XSKMAP entry. It
// builds nothing itself: BuildAnchorRings constructs the rings, binds the
// socket and claims the entry in xskmap.Storage, then hands them here for
// lifetime management.
func NewFourRing(entry *xskmap.Entry, fill *xdpring.FillRing, comp *xdpring.CompRing, rx *xdpring.RxRing, tx *xdpring.TxRing) *FourRing {
	return &FourRing{Entry: entry, Fill: fill, Comp: comp, Rx: rx, Tx: tx}
}

// Close tears the ring set down in spec.md §5's order: pull the socket out
// of the XSKMAP first (so no more packets are steered to it), then unmap
// each ring. The socket fd itself and the UMEM region are owned by the
// caller (xdpumem.Umem), not by FourRing, and are not closed here.
func (f *FourRing) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if f.Entry != nil {
		record(f.Entry.Close())
	}
	if f.Rx != nil {
		record(f.Rx.Close())
	}
	if f.Tx != nil {
		record(f.Tx.Close())
	}
	if f.Fill != nil {
		record(f.Fill.Close())
	}
	if f.Comp != nil {
		record(f.Comp.Close())
	}
	if firstErr != nil {
		return fmt.Errorf("ringset: %w", firstErr)
	}
	return nil
}

// TwoRing is a follower socket's ring set under shared UMEM: it owns only
// RX and TX, since FILL and COMPLETION belong to the UMEM's anchor socket
// (spec.md §4.G) and are never duplicated per queue. Unlike FourRing, the
// socket fd itself belongs to TwoRing, not to xdpumem.Umem — the fd came
// from Umem.NewSharedSocket, but the anchor socket is the only one Umem.
// Close ever closes (spec.md §5 step 4: closing a socket fd deregisters it
// from the UMEM, and a follower socket deregisters independently of the
// anchor).
type TwoRing struct {
	Entry *xskmap.Entry
	Rx    *xdpring.RxRing
	Tx    *xdpring.TxRing
	fd    int

	closed bool
}

// NewTwoRing wraps an already-bound follower socket's RX/TX rings and its
// XSKMAP entry. fd is the follower socket returned by
// xdpumem.Umem.NewSharedSocket; TwoRing takes ownership of it and closes
// it in Close, after the RX/TX rings unmap.
func NewTwoRing(entry *xskmap.Entry, rx *xdpring.RxRing, tx *xdpring.TxRing, fd int) *TwoRing {
	return &TwoRing{Entry: entry, Rx: rx, Tx: tx, fd: fd}
}

// fdUnset marks a TwoRing whose fd was already closed elsewhere, or was
// never given one.
const fdUnset = -1

// Close mirrors FourRing.Close, minus the FILL/COMPLETION step this ring
// set never owned, and additionally closes the follower socket fd after
// the rings unmap (spec.md §5 step 4).
func (t *TwoRing) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if t.Entry != nil {
		record(t.Entry.Close())
	}
	if t.Rx != nil {
		record(t.Rx.Close())
	}
	if t.Tx != nil {
		record(t.Tx.Close())
	}
	if t.fd > 0 {
		record(unix.Close(t.fd))
		t.fd = fdUnset
	}
	if firstErr != nil {
		return fmt.Errorf("ringset: %w", firstErr)
	}
	return nil
}
