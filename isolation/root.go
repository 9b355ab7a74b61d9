// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package isolation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/oniux-project/oniux/lib/caps"
	"github.com/oniux-project/oniux/lib/mountns"
	"github.com/oniux-project/oniux/lib/netcfg"
	"github.com/oniux-project/oniux/lib/process"
	"github.com/oniux-project/oniux/lib/rendezvous"
)

// runRoot is the root role: PID 1 of the fresh PID namespace. Its
// steps are strictly ordered; a failure at any step aborts the run
// before later steps execute, and the kernel's namespace teardown on
// exit is the only cleanup.
func runRoot(payload *Payload, logger *slog.Logger) (int, error) {
	// A new PID namespace starts with the host's /proc view. Remount
	// it first so everything after resolves pids in this namespace.
	if err := mountns.PrivatizeRoot(); err != nil {
		return 0, exitErr(ExitMount, err)
	}
	if err := mountns.MountProc(); err != nil {
		return 0, exitErr(ExitMount, err)
	}
	logger.Debug("remounted /proc for the new pid namespace")

	delegate, delegateExit, err := startDelegate(payload, logger)
	if err != nil {
		return 0, err
	}

	index, err := awaitDelegateDevice(payload, delegate, delegateExit, logger)
	if err != nil {
		return 0, err
	}

	parentEnd, childEnd, err := rendezvous.Pair()
	if err != nil {
		return 0, exitErr(ExitRendezvous, err)
	}
	defer parentEnd.Close()

	target, err := startIsolation(payload, childEnd)
	childEnd.Close()
	if err != nil {
		return 0, err
	}
	logger.Debug("spawned isolation process", "pid", target.Process.Pid)

	// The single ownership transfer of the run. After this returns,
	// the device is gone from this namespace for good.
	if err := netcfg.MoveToNamespace(payload.Device, target.Process.Pid); err != nil {
		return 0, exitErr(ExitNetlink, err)
	}
	logger.Debug("moved device to isolation namespace", "device", payload.Device)

	// Only now is it safe for isolation to touch the interface.
	if err := parentEnd.Send(rendezvous.Token{LinkIndex: index}); err != nil {
		return 0, exitErr(ExitRendezvous, err)
	}

	// All privileged operations for this role are done.
	if err := caps.DropAllPermitted(); err != nil {
		return 0, exitErr(ExitCapability, err)
	}
	logger.Debug("dropped all capabilities in root process")

	stopForwarding := forwardSignals(target.Process)
	defer stopForwarding()

	waitErr := target.Wait()
	code := process.ExitCode(waitErr)
	if code < 0 {
		return 0, exitErr(ExitSpawn, fmt.Errorf("waiting for isolation process: %w", waitErr))
	}
	logger.Info("isolated command exited", "code", code)
	return code, nil
}

// startDelegate spawns the network delegate in this (root) network
// namespace. The child is granted exactly CAP_NET_ADMIN through the
// ambient set, enough to create its TUN device; root's CAP_SYS_ADMIN
// is never inherited, so the delegate's remaining privilege derives
// only from its own file capabilities.
func startDelegate(payload *Payload, logger *slog.Logger) (*exec.Cmd, <-chan error, error) {
	args := append([]string{payload.Device}, payload.DelegateArgs...)
	cmd := exec.Command(payload.DelegatePath, args...)
	cmd.Env = scrubRole(os.Environ())
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{
		AmbientCaps: []uintptr{unix.CAP_NET_ADMIN},
		Pdeathsig:   syscall.SIGKILL,
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, exitErr(ExitDelegateStart, fmt.Errorf("starting delegate %s: %w", payload.DelegatePath, err))
	}
	logger.Debug("spawned network delegate", "path", payload.DelegatePath, "pid", cmd.Process.Pid)

	exit := make(chan error, 1)
	go func() { exit <- cmd.Wait() }()
	return cmd, exit, nil
}

// awaitDelegateDevice blocks until the delegate's device exists,
// bounded by the configured timeout. An early delegate exit cancels
// the wait and is reported distinctly from a timeout.
func awaitDelegateDevice(payload *Payload, delegate *exec.Cmd, delegateExit <-chan error, logger *slog.Logger) (int, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	earlyExit := make(chan error, 1)
	go func() {
		select {
		case waitErr := <-delegateExit:
			earlyExit <- waitErr
			cancel()
		case <-ctx.Done():
		}
	}()

	waiter := netcfg.NewWaiter(payload.PollInterval, payload.ReadyTimeout)
	index, err := waiter.Wait(ctx, payload.Device)
	switch {
	case err == nil:
		logger.Debug("delegate device ready", "device", payload.Device, "index", index)
		return index, nil
	case errors.Is(err, context.Canceled):
		return 0, exitErr(ExitDelegateStart, fmt.Errorf(
			"delegate exited with status %d before creating %s", process.ExitCode(<-earlyExit), payload.Device))
	case errors.Is(err, netcfg.ErrWaitTimeout):
		_ = delegate.Process.Kill()
		return 0, exitErr(ExitDelegateTimeout, err)
	default:
		return 0, exitErr(ExitNetlink, err)
	}
}

// startIsolation spawns the isolation role with fresh network and
// mount namespaces, still inside this PID namespace. It inherits the
// payload on fd 3 and its rendezvous end on fd 4.
func startIsolation(payload *Payload, channel *rendezvous.Channel) (*exec.Cmd, error) {
	payloadFile, err := payload.WritePipe()
	if err != nil {
		return nil, exitErr(ExitSpawn, err)
	}
	defer payloadFile.Close()

	cmd := exec.Command("/proc/self/exe")
	cmd.Args = []string{os.Args[0]}
	cmd.Env = roleEnviron(RoleIsolation)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{payloadFile, channel.File()}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: unix.CLONE_NEWNET | unix.CLONE_NEWNS,
		Pdeathsig:  syscall.SIGKILL,
	}

	if err := cmd.Start(); err != nil {
		return nil, exitErr(ExitSpawn, fmt.Errorf("creating isolation process: %w", err))
	}
	return cmd, nil
}
