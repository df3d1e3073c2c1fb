//go:build linux

package xdpprog

/*
#cgo LDFLAGS: -lbpf -lelf -lz
#include <stdlib.h>
#include <bpf/libbpf.h>
#include <bpf/bpf.h>
#include <linux/bpf.h>
#include <linux/if_link.h>

int xdpprog_set_max_entries(struct bpf_object *obj, const char *map_name, unsigned int max_entries) {
	struct bpf_map *m = bpf_object__find_map_by_name(obj, map_name);
	if (!m) {
		return -1;
	}
	return bpf_map__set_max_entries(m, max_entries);
}

struct bpf_object *xdpprog_open(const char *filename) {
	return bpf_object__open(filename);
}

int xdpprog_load(struct bpf_object *obj) {
	return bpf_object__load(obj);
}

int xdpprog_find_prog_fd(struct bpf_object *obj, const char *prog_name) {
	struct bpf_program *p = bpf_object__find_program_by_name(obj, prog_name);
	if (!p) {
		return -1;
	}
	return bpf_program__fd(p);
}

int xdpprog_find_map_fd(struct bpf_object *obj, const char *map_name) {
	struct bpf_map *m = bpf_object__find_map_by_name(obj, map_name);
	if (!m) {
		return -1;
	}
	return bpf_map__fd(m);
}

int xdpprog_attach(int ifindex, int prog_fd) {
	return bpf_xdp_attach(ifindex, prog_fd, XDP_FLAGS_UPDATE_IF_NOEXIST, NULL);
}

int xdpprog_detach(int ifindex) {
	return bpf_xdp_detach(ifindex, 0, NULL);
}
*/
import "C"

import (
	"fmt"
	"os"
	"unsafe"
)

var _ Loader = (*BPFLoader)(nil)

// BPFLoader is the libbpf-backed Loader, grounded on the teacher's
// internal/ebpf/loader.go cgo wrapper, extended with bpf_xdp_attach/detach
// since the teacher's own loader never attaches the program to an
// interface (it only reads map statistics).
type BPFLoader struct {
	obj     *C.struct_bpf_object
	ifindex int
	bound   bool
}

// NewLoader returns an unloaded BPFLoader ready for Load.
func NewLoader() *BPFLoader {
	return &BPFLoader{}
}

// Load opens objPath, applies mapMaxEntries overrides, then loads the
// object into the kernel.
func (l *BPFLoader) Load(objPath string, mapMaxEntries map[string]uint32) error {
	if l.obj != nil {
		return fmt.Errorf("xdpprog: already loaded")
	}
	if _, err := os.Stat(objPath); err != nil {
		return fmt.Errorf("xdpprog: %w", err)
	}

	cPath := C.CString(objPath)
	defer C.free(unsafe.Pointer(cPath))

	obj := C.xdpprog_open(cPath)
	if obj == nil {
		return fmt.Errorf("xdpprog: failed to open %s", objPath)
	}

	for name, max := range mapMaxEntries {
		cName := C.CString(name)
		ret := C.xdpprog_set_max_entries(obj, cName, C.uint(max))
		C.free(unsafe.Pointer(cName))
		if ret != 0 {
			C.bpf_object__close(obj)
			return fmt.Errorf("xdpprog: set max_entries on map %q: %d", name, ret)
		}
	}

	if ret := C.xdpprog_load(obj); ret != 0 {
		C.bpf_object__close(obj)
		return fmt.Errorf("xdpprog: bpf_object__load: %d", ret)
	}

	l.obj = obj
	return nil
}

// Attach attaches progName to ifindex.
func (l *BPFLoader) Attach(ifindex int, progName string) error {
	if l.obj == nil {
		return fmt.Errorf("xdpprog: not loaded")
	}
	cName := C.CString(progName)
	defer C.free(unsafe.Pointer(cName))

	fd := C.xdpprog_find_prog_fd(l.obj, cName)
	if fd < 0 {
		return fmt.Errorf("xdpprog: program %q not found", progName)
	}
	if ret := C.xdpprog_attach(C.int(ifindex), fd); ret != 0 {
		return fmt.Errorf("xdpprog: bpf_xdp_attach: %d", ret)
	}
	l.ifindex = ifindex
	l.bound = true
	return nil
}

// Detach removes the program from ifindex.
func (l *BPFLoader) Detach(ifindex int) error {
	if ret := C.xdpprog_detach(C.int(ifindex)); ret != 0 {
		return fmt.Errorf("xdpprog: bpf_xdp_detach: %d", ret)
	}
	if l.ifindex == ifindex {
		l.bound = false
	}
	return nil
}

// MapFD returns the fd of the named map.
func (l *BPFLoader) MapFD(mapName string) (int, error) {
	if l.obj == nil {
		return -1, fmt.Errorf("xdpprog: not loaded")
	}
	cName := C.CString(mapName)
	defer C.free(unsafe.Pointer(cName))

	fd := C.xdpprog_find_map_fd(l.obj, cName)
	if fd < 0 {
		return -1, fmt.Errorf("xdpprog: map %q not found", mapName)
	}
	return int(fd), nil
}

// Close detaches (if still bound) and unloads the program.
func (l *BPFLoader) Close() error {
	if l.bound {
		l.Detach(l.ifindex)
	}
	if l.obj != nil {
		C.bpf_object__close(l.obj)
		l.obj = nil
	}
	return nil
}
