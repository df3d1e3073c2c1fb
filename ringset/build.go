//go:build linux

package ringset

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/penguintech/afxdp/xdpring"
	"github.com/penguintech/afxdp/xdpumem"
	"github.com/penguintech/afxdp/xskmap"
)

// BuildAnchorRings builds the complete FILL/COMPLETION/RX/TX ring set over
// u's anchor socket, binds that socket to ifindex/queueID, then steers it
// into storage at mapIndex (spec.md §4.G: rings are constructed — which
// sets their kernel-side sizes — before bind, and the socket is only
// registered in the XSKMAP once it is fully live). u.BindAnchor must not
// have been called yet.
func BuildAnchorRings[M comparable](u *xdpumem.Umem[M], storage *xskmap.Storage, queueID, mapIndex, ringSize uint32, zeroCopy bool, flag xskmap.UpdateFlag) (*FourRing, error) {
	fd := u.AnchorFD()
	chunkSize, tag := u.ChunkSize(), u.UmemTag()

	fill, err := xdpring.NewFillRing(fd, ringSize, chunkSize, tag)
	if err != nil {
		return nil, fmt.Errorf("ringset: anchor fill ring: %w", err)
	}
	comp, err := xdpring.NewCompRing(fd, ringSize, chunkSize, tag)
	if err != nil {
		fill.Close()
		return nil, fmt.Errorf("ringset: anchor completion ring: %w", err)
	}
	rx, err := xdpring.NewRxRing(fd, ringSize, chunkSize, tag)
	if err != nil {
		fill.Close()
		comp.Close()
		return nil, fmt.Errorf("ringset: anchor rx ring: %w", err)
	}
	tx, err := xdpring.NewTxRing(fd, ringSize, chunkSize, tag)
	if err != nil {
		fill.Close()
		comp.Close()
		rx.Close()
		return nil, fmt.Errorf("ringset: anchor tx ring: %w", err)
	}

	if err := u.BindAnchor(storage.Ifindex(), queueID, zeroCopy); err != nil {
		fill.Close()
		comp.Close()
		rx.Close()
		tx.Close()
		return nil, fmt.Errorf("ringset: %w", err)
	}

	entry, err := storage.Claim(mapIndex, fd, flag)
	if err != nil {
		fill.Close()
		comp.Close()
		rx.Close()
		tx.Close()
		return nil, fmt.Errorf("ringset: %w", err)
	}

	return NewFourRing(entry, fill, comp, rx, tx), nil
}

// BuildFollowerRings builds a new socket sharing u's UMEM memory and its
// anchor's FILL/COMPLETION rings, giving it only its own RX/TX pair, binds
// it to ifindex/queueID with XDP_SHARED_UMEM, then steers it into storage
// at mapIndex. u.BindAnchor must already have succeeded.
func BuildFollowerRings[M comparable](u *xdpumem.Umem[M], storage *xskmap.Storage, queueID, mapIndex, ringSize uint32, zeroCopy bool, flag xskmap.UpdateFlag) (*TwoRing, error) {
	fd, err := u.NewSharedSocket()
	if err != nil {
		return nil, fmt.Errorf("ringset: %w", err)
	}

	chunkSize, tag := u.ChunkSize(), u.UmemTag()

	rx, err := xdpring.NewRxRing(fd, ringSize, chunkSize, tag)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ringset: follower rx ring: %w", err)
	}
	tx, err := xdpring.NewTxRing(fd, ringSize, chunkSize, tag)
	if err != nil {
		rx.Close()
		unix.Close(fd)
		return nil, fmt.Errorf("ringset: follower tx ring: %w", err)
	}

	if err := u.BindShared(fd, storage.Ifindex(), queueID, zeroCopy); err != nil {
		rx.Close()
		tx.Close()
		unix.Close(fd)
		return nil, fmt.Errorf("ringset: %w", err)
	}

	entry, err := storage.Claim(mapIndex, fd, flag)
	if err != nil {
		rx.Close()
		tx.Close()
		unix.Close(fd)
		return nil, fmt.Errorf("ringset: %w", err)
	}

	return NewTwoRing(entry, rx, tx, fd), nil
}
