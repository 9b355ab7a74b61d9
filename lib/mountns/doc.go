// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

// Package mountns performs the mount(2) configuration oniux needs
// inside its namespaces: marking the mount tree private, remounting
// /proc for the new PID namespace, and redirecting /etc/resolv.conf to
// a private file naming the delegate's resolver.
//
// All operations here are scoped by construction to the calling
// process's mount namespace. Failure is always fatal to the caller:
// the target command must never run with host-inherited DNS
// resolution.
package mountns
