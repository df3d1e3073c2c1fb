package xskmap

import "sync"

// Storage couples one XSKMAP with the network device (ifindex) whose
// queues it steers, and serializes concurrent membership changes against
// it (spec.md §4.G: multiple queues of the same device share one XSKMAP,
// and claims for different queue indices still mutate the same kernel map
// object).
type Storage struct {
	mu      sync.Mutex
	m       Map
	ifindex uint32
}

// NewStorage wraps m for device ifindex.
func NewStorage(m Map, ifindex uint32) *Storage {
	return &Storage{m: m, ifindex: ifindex}
}

// Ifindex returns the device this storage's map steers packets for.
func (s *Storage) Ifindex() uint32 { return s.ifindex }

// MaxEntries delegates to the underlying map's capacity.
func (s *Storage) MaxEntries() uint32 { return s.m.MaxEntries() }

// Claim inserts fd at index under flag, serialized against any concurrent
// Claim on the same Storage.
func (s *Storage) Claim(index uint32, fd int, flag UpdateFlag) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NewEntry(s.m, index, fd, flag)
}
