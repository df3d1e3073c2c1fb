//go:build linux

// Package netenv builds the veth-pair-across-two-namespaces test fixture
// end-to-end tests need to exercise real RX/TX traffic through an AF_XDP
// socket, grounded on original_source/af-xdp-lib/tests/utils/veth_netlink.rs
// (itself built on the rtnetlink crate). vishvananda/netlink and
// vishvananda/netns are this pack's equivalent real netlink stack, used the
// same way moby, gvisor, and several other example repos' go.mod manifests
// call for. Out of scope for spec.md itself — a test-only collaborator.
package netenv

import (
	"fmt"
	"net"
	"runtime"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
)

// VethPair is a veth link with one end left in the current (root) network
// namespace and the other end moved into a freshly created namespace, both
// addressed and brought up — the Go equivalent of the original's VethPair.
type VethPair struct {
	OutsideName string
	InsideName  string
	OutsideAddr net.IPNet
	InsideAddr  net.IPNet

	nsName   string
	nsHandle netns.NsHandle
}

// NewVethPair creates outsideName/insideName as a veth pair, moves
// insideName into a new network namespace named nsName, assigns
// outsideAddr/insideAddr (each a /24, matching the original harness), and
// brings both ends up.
func NewVethPair(outsideName, insideName, nsName string, outsideAddr, insideAddr net.IP) (*VethPair, error) {
	veth := &netlink.Veth{
		LinkAttrs: netlink.LinkAttrs{Name: outsideName},
		PeerName:  insideName,
	}
	if err := netlink.LinkAdd(veth); err != nil {
		return nil, fmt.Errorf("netenv: create veth pair: %w", err)
	}

	outside, err := netlink.LinkByName(outsideName)
	if err != nil {
		return nil, fmt.Errorf("netenv: lookup %s: %w", outsideName, err)
	}
	inside, err := netlink.LinkByName(insideName)
	if err != nil {
		return nil, fmt.Errorf("netenv: lookup %s: %w", insideName, err)
	}

	origNS, err := netns.Get()
	if err != nil {
		return nil, fmt.Errorf("netenv: get current netns: %w", err)
	}
	defer origNS.Close()

	newNS, err := netns.NewNamed(nsName)
	if err != nil {
		return nil, fmt.Errorf("netenv: create netns %s: %w", nsName, err)
	}
	// netns.NewNamed switches the calling OS thread into the new namespace;
	// restore it before doing anything else in the root namespace.
	if err := netns.Set(origNS); err != nil {
		newNS.Close()
		return nil, fmt.Errorf("netenv: restore root netns: %w", err)
	}

	if err := netlink.LinkSetNsFd(inside, int(newNS)); err != nil {
		newNS.Close()
		return nil, fmt.Errorf("netenv: move %s into %s: %w", insideName, nsName, err)
	}

	outsideNet := &net.IPNet{IP: outsideAddr, Mask: net.CIDRMask(24, 32)}
	if err := netlink.AddrAdd(outside, &netlink.Addr{IPNet: outsideNet}); err != nil {
		newNS.Close()
		return nil, fmt.Errorf("netenv: address %s on %s: %w", outsideAddr, outsideName, err)
	}
	if err := netlink.LinkSetUp(outside); err != nil {
		newNS.Close()
		return nil, fmt.Errorf("netenv: bring up %s: %w", outsideName, err)
	}

	insideNet := &net.IPNet{IP: insideAddr, Mask: net.CIDRMask(24, 32)}
	if err := inNamespace(newNS, func() error {
		link, err := netlink.LinkByName(insideName)
		if err != nil {
			return err
		}
		if err := netlink.AddrAdd(link, &netlink.Addr{IPNet: insideNet}); err != nil {
			return err
		}
		return netlink.LinkSetUp(link)
	}); err != nil {
		newNS.Close()
		return nil, fmt.Errorf("netenv: configure %s in %s: %w", insideName, nsName, err)
	}

	return &VethPair{
		OutsideName: outsideName,
		InsideName:  insideName,
		OutsideAddr: *outsideNet,
		InsideAddr:  *insideNet,
		nsName:      nsName,
		nsHandle:    newNS,
	}, nil
}

// inNamespace locks the calling goroutine to its OS thread, switches that
// thread into ns for the duration of fn, then restores the original
// namespace. Mirrors the original's thread::spawn + move_into_link_name_space
// pattern, since Go namespace switches are also per-OS-thread.
func inNamespace(ns netns.NsHandle, fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	orig, err := netns.Get()
	if err != nil {
		return fmt.Errorf("netenv: get current netns: %w", err)
	}
	defer orig.Close()

	if err := netns.Set(ns); err != nil {
		return fmt.Errorf("netenv: enter netns: %w", err)
	}
	defer netns.Set(orig)

	return fn()
}

// InNamespace runs fn with the calling OS thread switched into the veth
// pair's inside namespace — the hook end-to-end tests use to create and
// bind an AF_XDP socket against InsideName.
func (v *VethPair) InNamespace(fn func() error) error {
	return inNamespace(v.nsHandle, fn)
}

// Close removes the namespace (and with it, the inside veth end) and
// deletes the outside veth end.
func (v *VethPair) Close() error {
	var firstErr error
	if link, err := netlink.LinkByName(v.OutsideName); err == nil {
		if err := netlink.LinkDel(link); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("netenv: delete %s: %w", v.OutsideName, err)
		}
	}
	if err := v.nsHandle.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("netenv: close netns handle: %w", err)
	}
	if err := netns.DeleteNamed(v.nsName); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("netenv: delete netns %s: %w", v.nsName, err)
	}
	return firstErr
}
