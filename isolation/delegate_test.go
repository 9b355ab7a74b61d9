// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package isolation

import (
	"os"
	"testing"

	"github.com/oniux-project/oniux/lib/testutil"
)

func TestDiscoverDelegateExplicitPath(t *testing.T) {
	path := testutil.WriteExecutable(t, t.TempDir(), "onionmasq")

	got, err := DiscoverDelegate(path)
	if err != nil {
		t.Fatalf("DiscoverDelegate: %v", err)
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}
}

func TestDiscoverDelegateExplicitMissing(t *testing.T) {
	_, err := DiscoverDelegate("/nonexistent/onionmasq")
	if err == nil {
		t.Fatal("DiscoverDelegate accepted a missing binary")
	}
	if CodeOf(err) != ExitDelegateMissing {
		t.Errorf("exit code = %d, want %d", CodeOf(err), ExitDelegateMissing)
	}
}

func TestDiscoverDelegateExplicitNotExecutable(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "onionmasq", "not a binary")

	_, err := DiscoverDelegate(path)
	if err == nil {
		t.Fatal("DiscoverDelegate accepted a non-executable file")
	}
	if CodeOf(err) != ExitDelegateMissing {
		t.Errorf("exit code = %d, want %d", CodeOf(err), ExitDelegateMissing)
	}
}

func TestDiscoverDelegateEnvVar(t *testing.T) {
	path := testutil.WriteExecutable(t, t.TempDir(), "onionmasq")
	t.Setenv(DelegateEnvVar, path)

	got, err := DiscoverDelegate("")
	if err != nil {
		t.Fatalf("DiscoverDelegate: %v", err)
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}
}

func TestDiscoverDelegateEnvVarBroken(t *testing.T) {
	// A configured-but-broken ONIUX_DELEGATE must fail loudly, not
	// fall through to PATH discovery.
	t.Setenv(DelegateEnvVar, "/nonexistent/onionmasq")

	_, err := DiscoverDelegate("")
	if err == nil {
		t.Fatal("DiscoverDelegate fell back past a broken env override")
	}
}

func TestDiscoverDelegatePathLookup(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteExecutable(t, dir, "onionmasq")
	t.Setenv(DelegateEnvVar, "")
	t.Setenv("PATH", dir)

	got, err := DiscoverDelegate("")
	if err != nil {
		t.Fatalf("DiscoverDelegate: %v", err)
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}
}

func TestDiscoverDelegateExplicitBeatsEnv(t *testing.T) {
	explicit := testutil.WriteExecutable(t, t.TempDir(), "explicit")
	fromEnv := testutil.WriteExecutable(t, t.TempDir(), "env")
	t.Setenv(DelegateEnvVar, fromEnv)

	got, err := DiscoverDelegate(explicit)
	if err != nil {
		t.Fatalf("DiscoverDelegate: %v", err)
	}
	if got != explicit {
		t.Errorf("path = %q, want explicit %q", got, explicit)
	}
}

func TestDiscoverDelegateNothingFound(t *testing.T) {
	if _, err := os.Stat(delegateFallback); err == nil {
		t.Skip("packaged delegate installed on this machine")
	}
	t.Setenv(DelegateEnvVar, "")
	t.Setenv("PATH", t.TempDir())

	_, err := DiscoverDelegate("")
	if err == nil {
		t.Fatal("DiscoverDelegate succeeded with nothing installed")
	}
	if CodeOf(err) != ExitDelegateMissing {
		t.Errorf("exit code = %d, want %d", CodeOf(err), ExitDelegateMissing)
	}
}
