// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package mountns

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// resolverPath is the standard resolver configuration path the target
// command's libc will read.
const resolverPath = "/etc/resolv.conf"

// scratchDir hosts the private resolver file. It sits on a fresh tmpfs
// so nothing outside the mount namespace ever sees the file.
const scratchDir = "/tmp"

// PrivatizeRoot recursively marks the mount tree private so that no
// mount performed inside this mount namespace propagates to the host
// through a shared subtree.
func PrivatizeRoot() error {
	if err := unix.Mount("", "/", "", unix.MS_REC|unix.MS_PRIVATE, ""); err != nil {
		return fmt.Errorf("remounting / private: %w", err)
	}
	return nil
}

// MountProc mounts a fresh procfs over /proc. The root process calls
// this as PID 1 of the new PID namespace; without it, /proc still
// shows the host's processes and pid-based operations resolve against
// the wrong namespace.
func MountProc() error {
	flags := uintptr(unix.MS_NOSUID | unix.MS_NOEXEC | unix.MS_NODEV)
	if err := unix.Mount("proc", "/proc", "proc", flags, ""); err != nil {
		return fmt.Errorf("mounting /proc: %w", err)
	}
	return nil
}

// RedirectResolver makes the given nameservers the only resolvers
// visible at /etc/resolv.conf within the calling process's mount
// namespace. It mounts a private tmpfs over the scratch directory,
// writes a resolver file there, and bind-mounts the file over the
// standard path. Nothing is visible outside the namespace, and the
// kernel reclaims all of it when the namespace's last member exits.
func RedirectResolver(nameservers []string) error {
	if len(nameservers) == 0 {
		return fmt.Errorf("no nameservers configured")
	}

	if err := unix.Mount("tmpfs", scratchDir, "tmpfs", 0, ""); err != nil {
		return fmt.Errorf("mounting tmpfs on %s: %w", scratchDir, err)
	}

	private := scratchDir + "/resolv.conf"
	if err := os.WriteFile(private, []byte(renderResolvConf(nameservers)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", private, err)
	}

	if err := unix.Mount(private, resolverPath, "", unix.MS_BIND, ""); err != nil {
		return fmt.Errorf("bind-mounting %s over %s: %w", private, resolverPath, err)
	}
	return nil
}

// renderResolvConf produces the resolver file content: one nameserver
// directive per configured resolver, nothing else.
func renderResolvConf(nameservers []string) string {
	var b strings.Builder
	for _, ns := range nameservers {
		b.WriteString("nameserver ")
		b.WriteString(ns)
		b.WriteString("\n")
	}
	return b.String()
}
