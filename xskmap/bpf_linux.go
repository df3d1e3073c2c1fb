//go:build linux

package xskmap

/*
#cgo LDFLAGS: -lbpf -lelf -lz
#include <stdlib.h>
#include <bpf/libbpf.h>
#include <bpf/bpf.h>
#include <linux/bpf.h>

struct bpf_object *xskmap_open_and_load(const char *filename) {
	struct bpf_object *obj;
	int err;

	obj = bpf_object__open(filename);
	if (libbpf_get_error(obj)) {
		return NULL;
	}
	err = bpf_object__load(obj);
	if (err) {
		bpf_object__close(obj);
		return NULL;
	}
	return obj;
}

int xskmap_find_map_fd(struct bpf_object *obj, const char *map_name) {
	struct bpf_map *m = bpf_object__find_map_by_name(obj, map_name);
	if (!m) {
		return -1;
	}
	return bpf_map__fd(m);
}

unsigned int xskmap_max_entries(struct bpf_object *obj, const char *map_name) {
	struct bpf_map *m = bpf_object__find_map_by_name(obj, map_name);
	if (!m) {
		return 0;
	}
	return bpf_map__max_entries(m);
}

int xskmap_update(int map_fd, unsigned int key, int value, unsigned long long flag) {
	return bpf_map_update_elem(map_fd, &key, &value, flag);
}

int xskmap_delete(int map_fd, unsigned int key) {
	return bpf_map_delete_elem(map_fd, &key);
}
*/
import "C"

import (
	"fmt"
	"os"
	"unsafe"
)

var _ Map = (*BPFMap)(nil)

// kernelUpdateFlag translates UpdateFlag into the BPF_* constant libbpf
// expects.
func kernelUpdateFlag(f UpdateFlag) C.ulonglong {
	switch f {
	case NoExist:
		return C.BPF_NOEXIST
	case Exist:
		return C.BPF_EXIST
	default:
		return C.BPF_ANY
	}
}

// BPFMap is the libbpf-backed XSKMAP: it opens and loads an external XDP
// object file (spec.md's Non-goals: xskmap never builds or verifies that
// program, only opens the BPF object produced elsewhere) and exposes its
// named XSKMAP for socket steering, grounded on the teacher's
// internal/ebpf/loader.go cgo pattern.
type BPFMap struct {
	obj     *C.struct_bpf_object
	mapFD   int
	maxEnt  uint32
	objPath string
	mapName string
}

// OpenBPFMap opens and loads the XDP object at objPath and resolves its
// XSKMAP named mapName.
func OpenBPFMap(objPath, mapName string) (*BPFMap, error) {
	if _, err := os.Stat(objPath); err != nil {
		return nil, fmt.Errorf("xskmap: %w", err)
	}

	cPath := C.CString(objPath)
	defer C.free(unsafe.Pointer(cPath))

	obj := C.xskmap_open_and_load(cPath)
	if obj == nil {
		return nil, fmt.Errorf("xskmap: failed to open/load BPF object %s", objPath)
	}

	cMapName := C.CString(mapName)
	defer C.free(unsafe.Pointer(cMapName))

	fd := C.xskmap_find_map_fd(obj, cMapName)
	if fd < 0 {
		C.bpf_object__close(obj)
		return nil, fmt.Errorf("xskmap: map %q not found in %s", mapName, objPath)
	}

	maxEnt := C.xskmap_max_entries(obj, cMapName)

	return &BPFMap{
		obj:     obj,
		mapFD:   int(fd),
		maxEnt:  uint32(maxEnt),
		objPath: objPath,
		mapName: mapName,
	}, nil
}

// NewBPFMapFromFD wraps an already-loaded map's fd, for callers that loaded
// and attached the XDP program themselves (xdpprog.Loader) and only need
// xskmap's Set/Unset/MaxEntries surface on the resulting XSKMAP. Close on a
// BPFMap built this way is a no-op — the object's lifetime belongs to
// whoever loaded it.
func NewBPFMapFromFD(mapFD int, maxEntries uint32) *BPFMap {
	return &BPFMap{mapFD: mapFD, maxEnt: maxEntries}
}

// Set inserts fd at index under flag's BPF_NOEXIST/BPF_EXIST/BPF_ANY
// semantics.
func (b *BPFMap) Set(index uint32, fd int, flag UpdateFlag) error {
	ret := C.xskmap_update(C.int(b.mapFD), C.uint(index), C.int(fd), kernelUpdateFlag(flag))
	if ret != 0 {
		return fmt.Errorf("xskmap: bpf_map_update_elem(%d): %d", index, ret)
	}
	return nil
}

// Unset removes index from the map.
func (b *BPFMap) Unset(index uint32) error {
	ret := C.xskmap_delete(C.int(b.mapFD), C.uint(index))
	if ret != 0 {
		return fmt.Errorf("xskmap: bpf_map_delete_elem(%d): %d", index, ret)
	}
	return nil
}

// MaxEntries returns the map's configured capacity.
func (b *BPFMap) MaxEntries() uint32 { return b.maxEnt }

// Close unloads the backing BPF object.
func (b *BPFMap) Close() error {
	if b.obj != nil {
		C.bpf_object__close(b.obj)
		b.obj = nil
	}
	return nil
}
