// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package isolation

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/oniux-project/oniux/lib/caps"
	"github.com/oniux-project/oniux/lib/process"
)

// Supervisor is the original process: the one the user invoked. It
// performs no privileged configuration itself. It verifies the
// runtime preconditions, creates the root process inside a fresh PID
// namespace, and blocks until it exits, adopting its exit status.
type Supervisor struct {
	// Payload is the fully resolved setup state handed down the chain.
	Payload *Payload

	// Logger for supervisor operations.
	Logger *slog.Logger
}

// Run executes the supervision chain and returns the exit code this
// process should terminate with: the target command's own status on
// success, a reserved setup code otherwise.
func (s *Supervisor) Run() (int, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := checkTunDevice(); err != nil {
		return 0, exitErr(ExitPrecondition, err)
	}

	privileged, err := caps.HasAdminSet()
	if err != nil {
		return 0, exitErr(ExitPrecondition, fmt.Errorf("reading capabilities: %w", err))
	}

	if privileged {
		// Running with real CAP_SYS_ADMIN and CAP_NET_ADMIN. Shed
		// everything else before creating any process.
		if err := caps.LimitToAdminSet(); err != nil {
			return 0, exitErr(ExitCapability, err)
		}
		logger.Debug("limited capabilities to admin set")
	} else {
		if !userNamespacesAvailable() {
			return 0, exitErr(ExitPrecondition, fmt.Errorf(
				"need CAP_SYS_ADMIN and CAP_NET_ADMIN, or unprivileged user namespaces (kernel.unprivileged_userns_clone)"))
		}
		logger.Debug("running unprivileged, using a user namespace")
	}

	payloadFile, err := s.Payload.WritePipe()
	if err != nil {
		return 0, exitErr(ExitSpawn, err)
	}
	defer payloadFile.Close()

	cmd := exec.Command("/proc/self/exe")
	cmd.Args = []string{os.Args[0]}
	cmd.Env = roleEnviron(RoleRoot)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{payloadFile}
	cmd.SysProcAttr = rootSysProcAttr(privileged)

	if err := cmd.Start(); err != nil {
		return 0, exitErr(ExitSpawn, fmt.Errorf("creating root process: %w", err))
	}
	logger.Debug("spawned root process", "pid", cmd.Process.Pid)

	stopForwarding := forwardSignals(cmd.Process)
	defer stopForwarding()

	waitErr := cmd.Wait()
	code := process.ExitCode(waitErr)
	if code < 0 {
		return 0, exitErr(ExitSpawn, fmt.Errorf("waiting for root process: %w", waitErr))
	}
	logger.Debug("root process exited", "code", code)
	return code, nil
}

// rootSysProcAttr builds the namespace attributes for the root
// process. In unprivileged mode the invoking user becomes uid 0 of a
// new user namespace, so the re-exec of /proc/self/exe recomputes a
// full in-namespace capability set for root; an identity mapping would
// leave root with empty permitted and effective sets, since the binary
// carries no file capabilities. The unprivileged root also gets its
// own network namespace, owned by that user namespace, because the
// host network namespace would refuse the delegate's TUN creation and
// the later link move.
func rootSysProcAttr(privileged bool) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{
		Cloneflags: uintptr(unix.CLONE_NEWPID | unix.CLONE_NEWNS),
		// If this process dies, take the whole namespace tree with it.
		Pdeathsig: syscall.SIGKILL,
	}
	if !privileged {
		attr.Cloneflags |= unix.CLONE_NEWUSER | unix.CLONE_NEWNET
		attr.UidMappings = []syscall.SysProcIDMap{
			{ContainerID: 0, HostID: os.Getuid(), Size: 1},
		}
		attr.GidMappings = []syscall.SysProcIDMap{
			{ContainerID: 0, HostID: os.Getgid(), Size: 1},
		}
		attr.GidMappingsEnableSetgroups = false
	}
	return attr
}

// forwardSignals relays interactive interruption down the chain: each
// process signals only its direct child, preserving the strictly
// layered supervision model. The returned function stops relaying.
func forwardSignals(child *os.Process) func() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig := <-signals:
				_ = child.Signal(sig)
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(signals)
		close(done)
	}
}

// checkTunDevice verifies the TUN driver is usable; the delegate
// cannot produce its interface without it.
func checkTunDevice() error {
	if _, err := os.Stat("/dev/net/tun"); err != nil {
		return fmt.Errorf("TUN device unavailable (is the tun module loaded?): %w", err)
	}
	return nil
}

// userNamespacesAvailable reports whether unprivileged user namespace
// creation is enabled. Both knobs default to permissive; only an
// explicit zero disables.
func userNamespacesAvailable() bool {
	for _, knob := range []string{
		"/proc/sys/kernel/unprivileged_userns_clone",
		"/proc/sys/user/max_user_namespaces",
	} {
		data, err := os.ReadFile(knob)
		if err != nil {
			// Knob absent: not restricted on this kernel.
			continue
		}
		if strings.TrimSpace(string(data)) == "0" {
			return false
		}
	}
	return true
}
