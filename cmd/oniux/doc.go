// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

// oniux runs a command with all of its network traffic forced through
// a Tor-routing network delegate, using Linux namespaces.
//
// Usage:
//
//	oniux [flags] COMMAND [ARGS...]
//
// The command's exit status becomes oniux's own. Setup failures before
// the command starts use a reserved nonzero range; see the isolation
// package's exit code constants.
//
// The same binary serves as all three processes of the supervision
// chain: children are re-executions of /proc/self/exe selected by the
// ONIUX_ROLE environment variable, which users should never set
// themselves.
package main
