// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package isolation

import (
	"fmt"
	"io/fs"
	"os"
	"os/exec"
)

// Delegate discovery order when --delegate-path is not given.
const (
	// DelegateEnvVar overrides delegate discovery.
	DelegateEnvVar = "ONIUX_DELEGATE"

	// delegateName is looked up in PATH.
	delegateName = "onionmasq"

	// delegateFallback is the packaged install location.
	delegateFallback = "/usr/libexec/oniux/onionmasq"
)

// DiscoverDelegate resolves the network delegate binary. Order:
// explicit path (from --delegate-path or config), ONIUX_DELEGATE, a
// PATH lookup of the well-known name, the packaged fallback location.
// The result is verified to exist and be executable here, in the
// original process, before any namespace is created.
func DiscoverDelegate(explicit string) (string, error) {
	if explicit != "" {
		if err := checkExecutable(explicit); err != nil {
			return "", exitErr(ExitDelegateMissing, fmt.Errorf("delegate %s: %w", explicit, err))
		}
		return explicit, nil
	}

	if fromEnv := os.Getenv(DelegateEnvVar); fromEnv != "" {
		if err := checkExecutable(fromEnv); err != nil {
			return "", exitErr(ExitDelegateMissing, fmt.Errorf("delegate %s (from %s): %w", fromEnv, DelegateEnvVar, err))
		}
		return fromEnv, nil
	}

	if path, err := exec.LookPath(delegateName); err == nil {
		return path, nil
	}

	if err := checkExecutable(delegateFallback); err == nil {
		return delegateFallback, nil
	}

	return "", exitErr(ExitDelegateMissing, fmt.Errorf(
		"network delegate not found: set --delegate-path or %s, or install %q in PATH or at %s",
		DelegateEnvVar, delegateName, delegateFallback))
}

// checkExecutable verifies path names an executable regular file.
func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("is a directory")
	}
	if info.Mode()&0o111 == 0 {
		return fs.ErrPermission
	}
	return nil
}
