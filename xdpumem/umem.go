//go:build linux

// Package xdpumem implements spec.md §4.E: allocating and registering a
// UMEM region with the kernel, handing out its chunk pool as frame
// descriptors, and binding sockets against it (including the
// shared-UMEM/multi-queue anchor protocol spec.md §4.G describes).
package xdpumem

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/penguintech/afxdp/internal/xdpabi"
	"github.com/penguintech/afxdp/xdpdesc"
	"github.com/penguintech/afxdp/xdpmem"
)

var nextUmemTag uint64

// liveMarkers is the process-wide registry backing the runtime uniqueness
// check spec.md §9 asks for in place of a compile-time phantom type: two
// live Umem values must never carry the same (type, value) marker. The
// umemTag that xdpring checks on Push is separate from the marker: it is a
// per-instance counter value assigned in New.
var liveMarkers sync.Map // map[markerKey]struct{}

// ErrMarkerAlreadyUsed is returned (wrapped) by New when marker is already
// held by a live Umem.
var ErrMarkerAlreadyUsed = errors.New("marker is already bound to a live UMEM")

type markerKey struct {
	typ reflect.Type
	val any
}

// Umem owns one registered UMEM region: its mmap'd memory, its chunk
// partitioning, and the anchor AF_XDP socket the kernel requires to
// register the region in the first place. M is a caller-chosen comparable
// marker — typically a distinct empty struct type per call site — whose
// value must be unique among currently-live Umems.
type Umem[M comparable] struct {
	marker    M
	region    *xdpmem.Region
	chunkSize uint32
	headroom  uint32
	numChunks uint32
	umemTag   uint64

	mu          sync.Mutex
	anchorFD    int
	anchorBound bool
	closed      bool
}

// New allocates a UMEM of numChunks chunks of chunkSize bytes each, with
// headroom bytes reserved at the front of every chunk (spec.md §3), and
// registers it with a freshly created AF_XDP socket that becomes this
// UMEM's anchor (spec.md §4.G).
func New[M comparable](marker M, chunkSize, headroom, numChunks uint32) (*Umem[M], error) {
	key := markerKey{typ: reflect.TypeOf(marker), val: marker}
	if _, loaded := liveMarkers.LoadOrStore(key, struct{}{}); loaded {
		return nil, fmt.Errorf("xdpumem: marker %#v of type %s: %w", marker, key.typ, ErrMarkerAlreadyUsed)
	}

	total := uint64(chunkSize) * uint64(numChunks)
	region, err := xdpmem.New(int(total))
	if err != nil {
		liveMarkers.Delete(key)
		return nil, fmt.Errorf("xdpumem: %w", err)
	}

	fd, err := unix.Socket(xdpabi.AfXdp, unix.SOCK_RAW, 0)
	if err != nil {
		region.Close()
		liveMarkers.Delete(key)
		return nil, fmt.Errorf("xdpumem: create anchor socket: %w", err)
	}

	reg := xdpabi.UmemReg{
		Addr:      uint64(uintptr(unsafe.Pointer(&region.Base()[0]))),
		Len:       uint64(region.Len()),
		ChunkSize: chunkSize,
		Headroom:  headroom,
	}
	if err := xdpabi.SetSockopt(fd, xdpabi.OptUmemReg, &reg); err != nil {
		unix.Close(fd)
		region.Close()
		liveMarkers.Delete(key)
		return nil, fmt.Errorf("xdpumem: register UMEM: %w", err)
	}

	return &Umem[M]{
		marker:    marker,
		region:    region,
		chunkSize: chunkSize,
		headroom:  headroom,
		numChunks: numChunks,
		umemTag:   atomic.AddUint64(&nextUmemTag, 1),
		anchorFD:  fd,
	}, nil
}

// ChunkSize, NumChunks, Headroom and UmemTag expose the UMEM's fixed
// geometry, needed by callers constructing ring sets over this UMEM.
func (u *Umem[M]) ChunkSize() uint32 { return u.chunkSize }
func (u *Umem[M]) NumChunks() uint32 { return u.numChunks }
func (u *Umem[M]) Headroom() uint32  { return u.headroom }
func (u *Umem[M]) UmemTag() uint64   { return u.umemTag }

// AnchorFD returns the file descriptor of the UMEM's anchor socket, the
// fd every later shared-UMEM bind must reference as XDP_SHARED_UMEM_FD.
func (u *Umem[M]) AnchorFD() int { return u.anchorFD }

// Descriptors returns one FrameFillComp per chunk, last-chunk-first —
// matching original_source/af-xdp-lib's descriptor pool construction order,
// which hands out the highest-addressed chunk first so that early consumers
// in a FIFO-style free list end up processing low addresses last, keeping
// low chunk indices resident longest during warm-up.
func (u *Umem[M]) Descriptors() []xdpdesc.FrameFillComp {
	out := make([]xdpdesc.FrameFillComp, u.numChunks)
	base := u.region.Base()
	for i := uint32(0); i < u.numChunks; i++ {
		chunkIdx := u.numChunks - 1 - i
		addr := uint64(chunkIdx) * uint64(u.chunkSize)
		out[i] = xdpdesc.FrameFromChunk(base, addr, u.chunkSize, u.umemTag)
	}
	return out
}

func bindFlags(zeroCopy bool) uint16 {
	flags := uint16(xdpabi.FlagUseNeedWakeup)
	if zeroCopy {
		flags |= xdpabi.FlagZeroCopy
	} else {
		flags |= xdpabi.FlagCopy
	}
	return flags
}

// NewSharedSocket creates a fresh AF_XDP socket that will later share this
// UMEM's memory via XDP_SHARED_UMEM. Ring setsockopts (XDP_RX_RING,
// XDP_TX_RING) must be issued against the returned fd before BindShared is
// called — the kernel rejects them after bind.
func (u *Umem[M]) NewSharedSocket() (int, error) {
	fd, err := unix.Socket(xdpabi.AfXdp, unix.SOCK_RAW, 0)
	if err != nil {
		return -1, fmt.Errorf("xdpumem: create shared-umem socket: %w", err)
	}
	return fd, nil
}

// BindAnchor binds the UMEM's own anchor socket to ifindex/queueID. This
// is the first bind against a fresh Umem in the ordinary case of one
// socket per UMEM, or the first ring set of a shared-UMEM, multi-queue
// setup (spec.md §4.G). Calling it twice on the same Umem is an error:
// the Open Question SPEC_FULL.md resolves — the first *successful* bind
// claims the anchor role — means this call either succeeds once or the
// caller moves on to NewSharedSocket/BindShared for every subsequent
// queue, never retries BindAnchor.
func (u *Umem[M]) BindAnchor(ifindex, queueID uint32, zeroCopy bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.anchorBound {
		return fmt.Errorf("xdpumem: anchor socket already bound")
	}
	addr := xdpabi.SockaddrXdp{
		Family:  uint16(xdpabi.AfXdp),
		Flags:   bindFlags(zeroCopy),
		Ifindex: ifindex,
		QueueID: queueID,
	}
	if err := xdpabi.Bind(u.anchorFD, &addr); err != nil {
		return fmt.Errorf("xdpumem: bind anchor socket: %w", err)
	}
	u.anchorBound = true
	return nil
}

// BindShared binds fd (from NewSharedSocket) to ifindex/queueID with
// XDP_SHARED_UMEM set against this UMEM's anchor fd. BindAnchor must have
// already succeeded.
func (u *Umem[M]) BindShared(fd int, ifindex, queueID uint32, zeroCopy bool) error {
	u.mu.Lock()
	anchorBound := u.anchorBound
	u.mu.Unlock()
	if !anchorBound {
		return fmt.Errorf("xdpumem: cannot bind shared socket before the anchor socket is bound")
	}
	addr := xdpabi.SockaddrXdp{
		Family:       uint16(xdpabi.AfXdp),
		Flags:        bindFlags(zeroCopy) | xdpabi.FlagSharedUmem,
		Ifindex:      ifindex,
		QueueID:      queueID,
		SharedUmemFD: uint32(u.anchorFD),
	}
	if err := xdpabi.Bind(fd, &addr); err != nil {
		return fmt.Errorf("xdpumem: bind shared-umem socket: %w", err)
	}
	return nil
}

// Close unmaps the UMEM's memory, closes the anchor socket and releases
// the marker. Idempotent. Callers must close every RingSet built over this
// UMEM first (spec.md §5 teardown order) — Close does not track them.
func (u *Umem[M]) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return nil
	}
	u.closed = true

	var firstErr error
	if err := unix.Close(u.anchorFD); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("xdpumem: close anchor socket: %w", err)
	}
	if err := u.region.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	liveMarkers.Delete(markerKey{typ: reflect.TypeOf(u.marker), val: u.marker})
	return firstErr
}
