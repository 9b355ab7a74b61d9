// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package isolation

import (
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

func TestRootSysProcAttrUnprivileged(t *testing.T) {
	t.Parallel()

	attr := rootSysProcAttr(false)

	for _, flag := range []struct {
		name string
		bit  uintptr
	}{
		{"CLONE_NEWUSER", unix.CLONE_NEWUSER},
		{"CLONE_NEWPID", unix.CLONE_NEWPID},
		{"CLONE_NEWNS", unix.CLONE_NEWNS},
		// Without its own network namespace, root would inherit the
		// host's, which the new user namespace does not own; the
		// delegate's TUN creation and the link move would both fail.
		{"CLONE_NEWNET", unix.CLONE_NEWNET},
	} {
		if attr.Cloneflags&flag.bit == 0 {
			t.Errorf("unprivileged clone flags missing %s", flag.name)
		}
	}

	// The invoking user must become uid 0 of the user namespace. An
	// identity mapping would leave the re-exec'd root process with
	// empty capability sets, unable to mount or configure anything.
	if len(attr.UidMappings) != 1 {
		t.Fatalf("UidMappings = %v, want a single entry", attr.UidMappings)
	}
	if m := attr.UidMappings[0]; m.ContainerID != 0 || m.HostID != os.Getuid() || m.Size != 1 {
		t.Errorf("uid mapping = %+v, want 0 <- %d size 1", m, os.Getuid())
	}
	if len(attr.GidMappings) != 1 {
		t.Fatalf("GidMappings = %v, want a single entry", attr.GidMappings)
	}
	if m := attr.GidMappings[0]; m.ContainerID != 0 || m.HostID != os.Getgid() || m.Size != 1 {
		t.Errorf("gid mapping = %+v, want 0 <- %d size 1", m, os.Getgid())
	}
	if attr.GidMappingsEnableSetgroups {
		t.Error("setgroups must be denied in the user namespace")
	}
}

func TestRootSysProcAttrPrivileged(t *testing.T) {
	t.Parallel()

	attr := rootSysProcAttr(true)

	if attr.Cloneflags&unix.CLONE_NEWUSER != 0 {
		t.Error("privileged mode must not create a user namespace")
	}
	if attr.Cloneflags&unix.CLONE_NEWPID == 0 || attr.Cloneflags&unix.CLONE_NEWNS == 0 {
		t.Errorf("clone flags = %#x, want pid and mount namespaces", attr.Cloneflags)
	}
	if len(attr.UidMappings) != 0 || len(attr.GidMappings) != 0 {
		t.Error("privileged mode must not install uid/gid mappings")
	}
}
