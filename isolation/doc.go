// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

// Package isolation implements the multi-process orchestration that
// forces a command's network traffic through the Tor network delegate.
//
// Three processes form a strict supervision chain, each created by
// re-executing /proc/self/exe with a [Role] tag:
//
//	original ── new pid+mount (unprivileged: +user+net) ──► root
//	root ────── new net+mount namespaces ────────────► isolation
//	isolation ─ exec ────────────────────────────────► target command
//
// The original process verifies preconditions and waits. The root
// process, PID 1 of the new PID namespace, spawns the network delegate
// in its own network namespace, waits (bounded) for the delegate's TUN
// device, spawns the isolation process, moves the device into the
// isolation network namespace, and signals readiness over the
// rendezvous channel. The isolation process configures the device,
// redirects DNS, drops every capability, and becomes the target
// command. Exit status flows back up the chain unmodified.
//
// Isolation is constructed at the kernel namespace boundary: the
// target command has no route to any interface but the delegate's.
// Inter-process channels that bypass the network namespace (an
// inherited Unix socket, for example) are an accepted limitation of
// namespace isolation, not something this package tries to block.
//
// Every failure before the target command starts is fatal and mapped
// to a reserved exit code (see [ExitError] and the Exit constants); no
// partial configuration is rolled back, because kernel namespace
// teardown on process exit reclaims everything.
package isolation
