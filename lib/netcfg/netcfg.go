// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package netcfg

import (
	"errors"
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"
)

// ConfigError is a structured netlink configuration failure. Every
// operation in this package reports failures this way; all of them are
// fatal to the enclosing startup sequence, and no rollback of partial
// interface configuration is attempted.
type ConfigError struct {
	// Op is the failed operation ("link-up", "address-add", ...).
	Op string

	// Device is the interface name the operation targeted.
	Device string

	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("netlink %s on %s: %v", e.Op, e.Device, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// LinkIndex returns the interface index for name. A missing device is
// reported with netlink.LinkNotFoundError wrapped inside the
// ConfigError, so callers can distinguish absence from other failures.
func LinkIndex(name string) (int, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return 0, &ConfigError{Op: "link-lookup", Device: name, Err: err}
	}
	return link.Attrs().Index, nil
}

// IsNotFound reports whether err means the device does not exist.
func IsNotFound(err error) bool {
	var notFound netlink.LinkNotFoundError
	return errors.As(err, &notFound)
}

// SetLinkUp brings the interface administratively up.
func SetLinkUp(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return &ConfigError{Op: "link-up", Device: name, Err: err}
	}
	if err := netlink.LinkSetUp(link); err != nil {
		return &ConfigError{Op: "link-up", Device: name, Err: err}
	}
	return nil
}

// AddAddress assigns a CIDR address (IPv4 or IPv6) to the interface.
func AddAddress(name, cidr string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return &ConfigError{Op: "address-add", Device: name, Err: err}
	}
	addr, err := netlink.ParseAddr(cidr)
	if err != nil {
		return &ConfigError{Op: "address-add", Device: name, Err: fmt.Errorf("parsing %q: %w", cidr, err)}
	}
	if err := netlink.AddrAdd(link, addr); err != nil {
		return &ConfigError{Op: "address-add", Device: name, Err: fmt.Errorf("assigning %s: %w", cidr, err)}
	}
	return nil
}

// AddDefaultRoute installs a default route out of the interface for
// the given address family (unix.AF_INET or unix.AF_INET6). The route
// has no gateway: the delegate's TUN interface is a point-to-nowhere
// device that absorbs everything routed into it.
func AddDefaultRoute(name string, family int) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return &ConfigError{Op: "route-add", Device: name, Err: err}
	}

	var dst *net.IPNet
	switch family {
	case unix.AF_INET:
		dst = &net.IPNet{IP: net.IPv4zero, Mask: net.CIDRMask(0, 32)}
	case unix.AF_INET6:
		dst = &net.IPNet{IP: net.IPv6zero, Mask: net.CIDRMask(0, 128)}
	default:
		return &ConfigError{Op: "route-add", Device: name, Err: fmt.Errorf("unsupported address family %d", family)}
	}

	route := &netlink.Route{
		LinkIndex: link.Attrs().Index,
		Dst:       dst,
		Scope:     netlink.SCOPE_UNIVERSE,
	}
	if err := netlink.RouteAdd(route); err != nil {
		return &ConfigError{Op: "route-add", Device: name, Err: err}
	}
	return nil
}

// MoveToNamespace reassigns the interface to the network namespace of
// the process identified by pid. This is the single ownership-transfer
// mutation of the run: one RTM_SETLINK exchange, after which the
// device is no longer visible in the caller's namespace.
//
// The target namespace is referenced by an open fd rather than the raw
// pid, so the move cannot land in the wrong namespace if the pid is
// recycled between lookup and move.
func MoveToNamespace(name string, pid int) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return &ConfigError{Op: "namespace-move", Device: name, Err: err}
	}

	handle, err := netns.GetFromPid(pid)
	if err != nil {
		return &ConfigError{Op: "namespace-move", Device: name, Err: fmt.Errorf("opening netns of pid %d: %w", pid, err)}
	}
	defer handle.Close()

	if err := netlink.LinkSetNsFd(link, int(handle)); err != nil {
		return &ConfigError{Op: "namespace-move", Device: name, Err: err}
	}
	return nil
}
