// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package isolation

import (
	"errors"
	"fmt"
)

// Reserved exit codes for failures occurring before the target command
// starts. Each fatal condition in the taxonomy has its own code so the
// user can tell what went wrong from the exit status alone. Once the
// target command runs, its own status is propagated verbatim and these
// codes are never produced.
const (
	// ExitUsage is a command-line usage error.
	ExitUsage = 96

	// ExitPrecondition means the environment cannot run oniux at all:
	// no TUN driver, and neither the admin capabilities nor
	// unprivileged user namespaces are available.
	ExitPrecondition = 97

	// ExitSpawn is a namespace or process creation failure.
	ExitSpawn = 98

	// ExitCapability is a capability-limit or capability-drop failure.
	// Security-critical: the process terminates rather than continue
	// with unreduced privilege.
	ExitCapability = 99

	// ExitDelegateMissing means the delegate binary was not found or
	// is not executable. Detected before any namespace side effects.
	ExitDelegateMissing = 100

	// ExitDelegateStart means the delegate exited before its device
	// appeared.
	ExitDelegateStart = 101

	// ExitDelegateTimeout means the device never appeared within the
	// readiness timeout.
	ExitDelegateTimeout = 102

	// ExitNetlink is an interface configuration or namespace-move
	// failure.
	ExitNetlink = 103

	// ExitMount is a /proc, tmpfs, or resolver bind-mount failure.
	ExitMount = 104

	// ExitRendezvous means the readiness handoff failed, typically
	// because the peer died mid-setup.
	ExitRendezvous = 105

	// ExitExecFailure means the target binary exists but could not be
	// executed. Matches the shell convention.
	ExitExecFailure = 126

	// ExitExecNotFound means the target binary was not found. Matches
	// the shell convention.
	ExitExecNotFound = 127
)

// ExitError carries a reserved exit code alongside the triggering
// error. Role implementations return it; main exits with the code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%v (exit %d)", e.Err, e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// exitErr wraps err with a reserved code.
func exitErr(code int, err error) *ExitError {
	return &ExitError{Code: code, Err: err}
}

// CodeOf extracts the exit code from an error returned by a role. A
// nil error is zero; errors without a reserved code map to 1.
func CodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return 1
}
