// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package isolation

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	t.Parallel()

	if got := CodeOf(nil); got != 0 {
		t.Errorf("CodeOf(nil) = %d, want 0", got)
	}

	err := exitErr(ExitDelegateTimeout, errors.New("device never appeared"))
	if got := CodeOf(err); got != ExitDelegateTimeout {
		t.Errorf("CodeOf = %d, want %d", got, ExitDelegateTimeout)
	}

	// Codes survive wrapping.
	wrapped := fmt.Errorf("root setup: %w", err)
	if got := CodeOf(wrapped); got != ExitDelegateTimeout {
		t.Errorf("CodeOf(wrapped) = %d, want %d", got, ExitDelegateTimeout)
	}

	if got := CodeOf(errors.New("unclassified")); got != 1 {
		t.Errorf("CodeOf(unclassified) = %d, want 1", got)
	}
}

func TestExitErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("the cause")
	err := exitErr(ExitMount, cause)
	if !errors.Is(err, cause) {
		t.Error("ExitError does not unwrap to its cause")
	}
}

func TestReservedCodesAreDistinct(t *testing.T) {
	t.Parallel()

	codes := []int{
		ExitUsage, ExitPrecondition, ExitSpawn, ExitCapability,
		ExitDelegateMissing, ExitDelegateStart, ExitDelegateTimeout,
		ExitNetlink, ExitMount, ExitRendezvous,
	}
	seen := make(map[int]bool)
	for _, code := range codes {
		if code == 0 {
			t.Error("reserved exit code is zero")
		}
		if seen[code] {
			t.Errorf("duplicate reserved exit code %d", code)
		}
		seen[code] = true
	}
}
