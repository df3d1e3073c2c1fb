// Package xdpprog defines the narrow interface afxdp needs from an
// external XDP program loader: open an object file, resize its XSKMAP
// before load, attach the program to an interface, and expose the loaded
// XSKMAP's fd. Building or verifying that XDP program is explicitly out of
// scope (spec.md's Non-goals) — this package only describes the
// collaborator a caller supplies, plus a concrete libbpf-backed
// implementation for anyone who wants to exercise the whole pipeline
// end-to-end, grounded on the teacher's internal/ebpf/loader.go.
package xdpprog

// Loader opens an XDP object file, attaches its program to a network
// interface, and exposes the fd of a named map within it (typically an
// XSKMAP meant for xskmap.OpenBPFMap/Storage).
type Loader interface {
	// Load opens objPath, overriding mapMaxEntries for any named map before
	// the object is loaded into the kernel (spec.md §4.G: the XSKMAP must be
	// sized to the number of queues it will steer before the verifier runs).
	Load(objPath string, mapMaxEntries map[string]uint32) error
	// Attach attaches the loaded program named progName to ifindex.
	Attach(ifindex int, progName string) error
	// Detach removes the program from ifindex.
	Detach(ifindex int) error
	// MapFD returns the fd of the named map within the loaded object.
	MapFD(mapName string) (int, error)
	// Close unloads the program and releases kernel resources.
	Close() error
}
