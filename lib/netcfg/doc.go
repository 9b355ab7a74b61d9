// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

// Package netcfg issues the rtnetlink operations oniux needs: link
// lookup and state change, address assignment, default routes, and the
// one namespace-move that transfers the delegate's device into the
// isolation process's network namespace.
//
// Operations are package-level functions, each a single
// request/acknowledgment exchange over a netlink socket that is opened
// and closed per call. No privileged socket outlives the operation
// that needed it, so nothing remains usable after the capability drop.
//
// Failures are structured [ConfigError] values and are always fatal to
// the caller's startup sequence: a partially configured interface is
// not rolled back, the run aborts and kernel namespace teardown cleans
// up.
//
// [Waiter] implements the bounded delegate-readiness poll, the only
// timed wait in the system.
package netcfg
