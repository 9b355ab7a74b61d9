// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package caps

import (
	"fmt"

	"github.com/syndtr/gocapability/capability"
)

// adminSet is the two capabilities oniux itself needs when running
// with real privilege: CAP_SYS_ADMIN to create namespaces and mount,
// CAP_NET_ADMIN for the netlink operations and interface move.
var adminSet = []capability.Cap{
	capability.CAP_SYS_ADMIN,
	capability.CAP_NET_ADMIN,
}

// current loads the calling process's capability sets.
func current() (capability.Capabilities, error) {
	c, err := capability.NewPid2(0)
	if err != nil {
		return nil, fmt.Errorf("opening capability state: %w", err)
	}
	if err := c.Load(); err != nil {
		return nil, fmt.Errorf("loading capability state: %w", err)
	}
	return c, nil
}

// HasAdminSet reports whether the permitted set contains both
// CAP_SYS_ADMIN and CAP_NET_ADMIN. When it does, oniux runs in
// privileged mode and does not need a user namespace.
func HasAdminSet() (bool, error) {
	c, err := current()
	if err != nil {
		return false, err
	}
	for _, cap := range adminSet {
		if !c.Get(capability.PERMITTED, cap) {
			return false, nil
		}
	}
	return true, nil
}

// LimitToAdminSet reduces the bounding, permitted, and effective sets
// to exactly {CAP_SYS_ADMIN, CAP_NET_ADMIN} and clears the inheritable
// and ambient sets. Called once, as early as possible, when running
// with real privilege: everything beyond these two capabilities is
// excess.
//
// The bounding set must shrink along with the permitted set, and in
// the same Apply while CAP_SETPCAP is still effective: execve of
// /proc/self/exe recomputes a uid-0 process's permitted set from the
// bounding set, so a full bounding set would hand every descendant
// full privilege back.
//
// The result is verified by re-reading the kernel state. A failed
// verification is reported as an error because continuing with
// unknown privilege is not tolerable.
func LimitToAdminSet() error {
	c, err := current()
	if err != nil {
		return err
	}

	c.Clear(capability.CAPS | capability.BOUNDS | capability.AMBS)
	c.Set(capability.BOUNDS, adminSet...)
	c.Set(capability.PERMITTED|capability.EFFECTIVE, adminSet...)
	if err := c.Apply(capability.CAPS | capability.BOUNDS | capability.AMBS); err != nil {
		return fmt.Errorf("limiting capabilities: %w", err)
	}

	return verify(func(c capability.Capabilities) error {
		for _, cap := range adminSet {
			if !c.Get(capability.PERMITTED, cap) || !c.Get(capability.EFFECTIVE, cap) {
				return fmt.Errorf("capability %v missing after limit", cap)
			}
		}
		if !c.Empty(capability.INHERITABLE) || !c.Empty(capability.AMBIENT) {
			return fmt.Errorf("inheritable or ambient set not empty after limit")
		}
		for _, cap := range capability.List() {
			if c.Get(capability.BOUNDING, cap) != inAdminSet(cap) {
				return fmt.Errorf("bounding set not limited: %v", cap)
			}
		}
		return nil
	})
}

// inAdminSet reports whether cap is one of the two retained
// capabilities.
func inAdminSet(cap capability.Cap) bool {
	for _, admin := range adminSet {
		if cap == admin {
			return true
		}
	}
	return false
}

// DropAllPermitted irreversibly clears the permitted, effective,
// inheritable, and ambient sets. A process calls this exactly once,
// after its last privileged operation and before executing any less
// trusted code. There is no way back: with an empty permitted set, no
// capability can ever be re-acquired short of exec'ing a file that
// grants its own.
//
// Failure here is security-critical; the caller must terminate rather
// than continue.
func DropAllPermitted() error {
	c, err := current()
	if err != nil {
		return err
	}

	c.Clear(capability.CAPS | capability.AMBS)
	if err := c.Apply(capability.CAPS | capability.AMBS); err != nil {
		return fmt.Errorf("dropping capabilities: %w", err)
	}

	return verify(func(c capability.Capabilities) error {
		if !c.Empty(capability.CAPS) {
			return fmt.Errorf("capability sets not empty after drop: %s", c.String())
		}
		return nil
	})
}

// PermittedIsEmpty reports whether the permitted set is empty. Used to
// double-check the drop transition immediately before exec.
func PermittedIsEmpty() (bool, error) {
	c, err := current()
	if err != nil {
		return false, err
	}
	return c.Empty(capability.PERMITTED), nil
}

// verify re-reads the kernel capability state and runs check on it.
func verify(check func(capability.Capabilities) error) error {
	c, err := current()
	if err != nil {
		return fmt.Errorf("re-reading capability state: %w", err)
	}
	return check(c)
}
