// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// Fatal writes "oniux: err" to stderr and exits with code 1. Use it in
// main() for errors from run() where the structured logger may not be
// initialized.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "oniux: %v\n", err)
	os.Exit(1)
}

// FromWaitStatus maps a wait status to the shell exit-code convention:
// the exit code for normal exits, 128+signal for signal deaths. This is
// what each supervising process reports upward so that the user-visible
// exit code reflects the deepest process in the chain.
func FromWaitStatus(status syscall.WaitStatus) int {
	switch {
	case status.Exited():
		return status.ExitStatus()
	case status.Signaled():
		return 128 + int(status.Signal())
	default:
		return 1
	}
}

// ExitCode extracts the propagatable exit code from the error returned
// by exec.Cmd.Wait. A nil error is a clean zero exit. Errors that do
// not carry a wait status (the command never ran) map to -1 so callers
// can distinguish them from child outcomes.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			return FromWaitStatus(status)
		}
		return exitErr.ExitCode()
	}
	return -1
}
