// Package xskmap implements spec.md §4.F: the XSKMAP socket-steering map,
// the scoped membership token (Entry) that guarantees a socket is removed
// from the map no later than its own teardown, and the per-device map
// storage that couples one XSKMAP to the device (ifindex) whose queues it
// steers. Storage holds no UMEM and builds no rings; ringset's
// BuildAnchorRings/BuildFollowerRings build ring sets and claim their
// entries through it (spec.md §4.G).
package xskmap

import "fmt"

// UpdateFlag mirrors the kernel's BPF_NOEXIST/BPF_EXIST/BPF_ANY map update
// semantics (spec.md §4.F). The teacher's own loader.go hardcodes BPF_ANY
// for every update; xskmap threads the flag through because XSKMAP
// membership additions and queue-reassignments have different correctness
// requirements (the former must not silently clobber another socket already
// parked at that index).
type UpdateFlag int

const (
	// NoExist fails if the key is already present (first-bind of a queue
	// index).
	NoExist UpdateFlag = iota
	// Exist fails unless the key is already present (reassigning a queue
	// already claimed).
	Exist
	// Any succeeds whether or not the key was already present.
	Any
)

// Map is the minimal XSKMAP surface xskmap needs: associate a queue index
// with a socket file descriptor, remove an index, and report capacity.
// Separated from the libbpf-backed implementation so tests can substitute
// an in-memory fake (spec.md's Non-goals exclude building an XDP program
// loader, but not testing against one).
type Map interface {
	Set(index uint32, fd int, flag UpdateFlag) error
	Unset(index uint32) error
	MaxEntries() uint32
}

// Entry is a scoped XSKMAP membership: constructing one inserts fd at
// index, and Close removes it. Spec.md §5's teardown order requires the
// socket be pulled out of the XSKMAP before its rings are unmapped, so
// RingSet (ringset package) holds an *Entry and closes it first.
type Entry struct {
	m     Map
	index uint32
	freed bool
}

// NewEntry inserts fd at index in m under flag and returns a token that
// removes it again on Close.
func NewEntry(m Map, index uint32, fd int, flag UpdateFlag) (*Entry, error) {
	if index >= m.MaxEntries() {
		return nil, fmt.Errorf("xskmap: index %d exceeds map capacity %d", index, m.MaxEntries())
	}
	if err := m.Set(index, fd, flag); err != nil {
		return nil, fmt.Errorf("xskmap: set index %d: %w", index, err)
	}
	return &Entry{m: m, index: index}, nil
}

// Index returns the queue index this entry occupies.
func (e *Entry) Index() uint32 { return e.index }

// Close removes the socket from the map. Idempotent.
func (e *Entry) Close() error {
	if e.freed {
		return nil
	}
	e.freed = true
	return e.m.Unset(e.index)
}
