//go:build linux

package xdpabi

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// SetSockopt issues setsockopt(fd, SOL_XDP, opt, val, sizeof(*val)) for any
// of the fixed-size ABI structs above. Grounded in the teacher's
// AFXDPSocket.setsockopt, generalized with generics instead of repeating
// the Syscall6 boilerplate per ring kind.
func SetSockopt[T any](fd int, opt int, val *T) error {
	_, _, errno := unix.Syscall6(unix.SYS_SETSOCKOPT, uintptr(fd),
		uintptr(SolXdp), uintptr(opt), uintptr(unsafe.Pointer(val)),
		unsafe.Sizeof(*val), 0)
	if errno != 0 {
		return fmt.Errorf("setsockopt(SOL_XDP, %d): %w", opt, errno)
	}
	return nil
}

// GetSockopt issues getsockopt(fd, SOL_XDP, opt, val, &len) and verifies the
// kernel did not truncate the result: the syscall overwrites size with the
// number of bytes it actually wrote back, which is smaller than
// sizeof(*val) if val's struct is stale against the running kernel's ABI.
func GetSockopt[T any](fd int, opt int, val *T) error {
	want := unsafe.Sizeof(*val)
	size := want
	_, _, errno := unix.Syscall6(unix.SYS_GETSOCKOPT, uintptr(fd),
		uintptr(SolXdp), uintptr(opt), uintptr(unsafe.Pointer(val)),
		uintptr(unsafe.Pointer(&size)), 0)
	if errno != 0 {
		return fmt.Errorf("getsockopt(SOL_XDP, %d): %w", opt, errno)
	}
	if size != want {
		return fmt.Errorf("getsockopt(SOL_XDP, %d): kernel returned %d bytes, want %d", opt, size, want)
	}
	return nil
}

// Bind issues bind(fd, (sockaddr_xdp*)addr, sizeof(*addr)). unix.Bind
// expects its own Sockaddr interface, which has no AF_XDP implementation,
// so the raw syscall is used directly — same technique as the teacher's
// AFXDPSocket.bindSocket.
func Bind(fd int, addr *SockaddrXdp) error {
	_, _, errno := unix.Syscall(unix.SYS_BIND, uintptr(fd),
		uintptr(unsafe.Pointer(addr)), unsafe.Sizeof(*addr))
	if errno != 0 {
		return fmt.Errorf("bind(AF_XDP): %w", errno)
	}
	return nil
}

// PokeRecvfrom issues a non-blocking zero-length recvfrom, used to wake the
// kernel for the RX and FILL rings.
func PokeRecvfrom(fd int) error {
	_, _, errno := unix.Syscall6(unix.SYS_RECVFROM, uintptr(fd), 0, 0,
		uintptr(unix.MSG_DONTWAIT), 0, 0)
	if errno != 0 && errno != unix.EAGAIN && errno != unix.EWOULDBLOCK {
		return fmt.Errorf("recvfrom(poke): %w", errno)
	}
	return nil
}

// PokeSendto issues a non-blocking zero-length sendto, used to wake the
// kernel for the TX ring. No destination address is passed (NULL, length
// 0); the kernel does not use one for this purpose.
func PokeSendto(fd int) error {
	_, _, errno := unix.Syscall6(unix.SYS_SENDTO, uintptr(fd), 0, 0,
		uintptr(unix.MSG_DONTWAIT), 0, 0)
	if errno != 0 && errno != unix.EAGAIN && errno != unix.EWOULDBLOCK {
		return fmt.Errorf("sendto(poke): %w", errno)
	}
	return nil
}
