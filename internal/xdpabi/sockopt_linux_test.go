//go:build linux

package xdpabi

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestSetSockoptInvalidFdReturnsError(t *testing.T) {
	req := RingSizeReq{Entries: 64}
	if err := SetSockopt(-1, OptRxRing, &req); err == nil {
		t.Fatalf("expected error setting sockopt on an invalid fd")
	}
}

func TestGetSockoptInvalidFdReturnsError(t *testing.T) {
	var st Statistics
	if err := GetSockopt(-1, OptStatistics, &st); err == nil {
		t.Fatalf("expected error getting sockopt on an invalid fd")
	}
}

func TestBindInvalidFdReturnsError(t *testing.T) {
	addr := SockaddrXdp{Family: uint16(AfXdp), Ifindex: 1}
	if err := Bind(-1, &addr); err == nil {
		t.Fatalf("expected error binding an invalid fd")
	}
}

// PokeRecvfrom/PokeSendto must treat EAGAIN/EWOULDBLOCK as success (the
// whole point of a non-blocking wakeup poke against a socket with nothing
// ready) — exercised here for PokeRecvfrom against an ordinary non-blocking
// UDP socket, since any socket type surfaces the same errno for an empty
// non-blocking read.
func TestPokeRecvfromTreatsEagainAsSuccess(t *testing.T) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		t.Skipf("could not create a UDP socket in this environment: %v", err)
	}
	defer unix.Close(fd)

	if err := PokeRecvfrom(fd); err != nil {
		t.Fatalf("PokeRecvfrom on an empty non-blocking socket: unexpected error %v", err)
	}
}

func TestPokeSendtoOnInvalidFdReturnsError(t *testing.T) {
	if err := PokeSendto(-1); err == nil {
		t.Fatalf("expected error poking an invalid fd")
	}
}
