// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package isolation

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	"github.com/oniux-project/oniux/lib/caps"
	"github.com/oniux-project/oniux/lib/mountns"
	"github.com/oniux-project/oniux/lib/netcfg"
	"github.com/oniux-project/oniux/lib/rendezvous"
)

// runIsolation is the isolation role: the process owning the new
// network and mount namespaces. On success it never returns; the
// process image is replaced by the target command.
func runIsolation(payload *Payload, logger *slog.Logger) error {
	channel := rendezvous.FromFile(os.NewFile(rendezvousFD, "oniux-rendezvous"))
	defer channel.Close()

	// Nothing may touch the interface before the token: until root has
	// completed the namespace-move, the device is not here to touch.
	token, err := channel.Recv()
	if err != nil {
		if errors.Is(err, rendezvous.ErrPeerClosed) {
			return exitErr(ExitRendezvous, fmt.Errorf("root process died during setup: %w", err))
		}
		return exitErr(ExitRendezvous, err)
	}
	logger.Debug("received readiness token", "link_index", token.LinkIndex)

	if err := configureInterface(payload, token, logger); err != nil {
		return err
	}

	if err := mountns.PrivatizeRoot(); err != nil {
		return exitErr(ExitMount, err)
	}
	if err := mountns.RedirectResolver(payload.Nameservers); err != nil {
		return exitErr(ExitMount, err)
	}
	logger.Debug("redirected resolver", "nameservers", payload.Nameservers)

	// The last privileged act of the whole chain. After this, the
	// process can do nothing the target command could not do itself.
	if err := caps.DropAllPermitted(); err != nil {
		return exitErr(ExitCapability, err)
	}
	empty, err := caps.PermittedIsEmpty()
	if err != nil {
		return exitErr(ExitCapability, err)
	}
	if !empty {
		return exitErr(ExitCapability, fmt.Errorf("permitted capability set not empty before exec"))
	}
	logger.Debug("dropped all capabilities, executing target command", "command", payload.Command)

	return execTarget(payload.Command)
}

// configureInterface brings up the moved device with the configured
// addresses and default routes, plus loopback.
func configureInterface(payload *Payload, token rendezvous.Token, logger *slog.Logger) error {
	// The fresh network namespace contains only loopback, so the moved
	// device's index is the one root observed. A mismatch means we are
	// configuring something other than what was handed to us.
	index, err := netcfg.LinkIndex(payload.Device)
	if err != nil {
		return exitErr(ExitNetlink, err)
	}
	if index != token.LinkIndex {
		return exitErr(ExitNetlink, fmt.Errorf(
			"device %s has index %d, expected %d from handoff", payload.Device, index, token.LinkIndex))
	}

	var hasV4, hasV6 bool
	for _, cidr := range payload.Addresses {
		if err := netcfg.AddAddress(payload.Device, cidr); err != nil {
			return exitErr(ExitNetlink, err)
		}
		if ip, _, perr := net.ParseCIDR(cidr); perr == nil {
			if ip.To4() != nil {
				hasV4 = true
			} else {
				hasV6 = true
			}
		}
	}

	if err := netcfg.SetLinkUp(payload.Device); err != nil {
		return exitErr(ExitNetlink, err)
	}
	if err := netcfg.SetLinkUp("lo"); err != nil {
		return exitErr(ExitNetlink, err)
	}

	if hasV4 {
		if err := netcfg.AddDefaultRoute(payload.Device, unix.AF_INET); err != nil {
			return exitErr(ExitNetlink, err)
		}
	}
	if hasV6 {
		if err := netcfg.AddDefaultRoute(payload.Device, unix.AF_INET6); err != nil {
			return exitErr(ExitNetlink, err)
		}
	}

	logger.Debug("configured interface", "device", payload.Device, "addresses", payload.Addresses)
	return nil
}

// execTarget replaces this process with the target command. The PID is
// retained; the program, memory, and permission surface become exactly
// those of the target binary plus its own file capabilities.
func execTarget(command []string) error {
	path, err := exec.LookPath(command[0])
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return exitErr(ExitExecNotFound, fmt.Errorf("target command %q not found", command[0]))
		}
		return exitErr(ExitExecFailure, fmt.Errorf("target command %q: %w", command[0], err))
	}

	if err := unix.Exec(path, command, scrubRole(os.Environ())); err != nil {
		return exitErr(ExitExecFailure, fmt.Errorf("executing %s: %w", path, err))
	}
	panic("unreachable: Exec returned without error")
}
