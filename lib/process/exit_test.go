// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"syscall"
	"testing"
)

func TestFromWaitStatus(t *testing.T) {
	t.Parallel()

	// WaitStatus encoding on Linux: normal exits store the code in
	// bits 8-15, signal deaths store the signal number in bits 0-6.
	tests := []struct {
		name   string
		status syscall.WaitStatus
		want   int
	}{
		{"clean exit", syscall.WaitStatus(0x0000), 0},
		{"exit 1", syscall.WaitStatus(0x0100), 1},
		{"exit 42", syscall.WaitStatus(0x2a00), 42},
		{"sigterm", syscall.WaitStatus(0x000f), 128 + 15},
		{"sigkill", syscall.WaitStatus(0x0009), 128 + 9},
		{"sigint", syscall.WaitStatus(0x0002), 128 + 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromWaitStatus(tt.status); got != tt.want {
				t.Errorf("FromWaitStatus(%#x) = %d, want %d", uint32(tt.status), got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	if got := ExitCode(nil); got != 0 {
		t.Errorf("ExitCode(nil) = %d, want 0", got)
	}

	// Errors without a wait status (command never started) are
	// distinguishable from any child outcome.
	if got := ExitCode(errors.New("fork/exec: no such file")); got != -1 {
		t.Errorf("ExitCode(non-exit error) = %d, want -1", got)
	}
}
