// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for oniux.
//
// Configuration is loaded from a single file specified by either the
// ONIUX_CONFIG environment variable (via [Load]) or the --config flag
// (via [LoadFile]). There are no fallbacks and no automatic file
// search; unset means the built-in defaults. This keeps the effective
// configuration deterministic and auditable, which matters for a tool
// whose whole purpose is leak resistance.
//
// The defaults describe the delegate's fixed traffic plane: the onion0
// device, its link-local IPv4/IPv6 addresses, and the delegate's DNS
// resolver endpoints. Overriding them only makes sense together with a
// delegate built for different addresses.
package config
