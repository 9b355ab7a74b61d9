// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for oniux packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls.
//
// [WriteFile] and [WriteExecutable] create fixture files; the latter
// exists for delegate-discovery tests that need something passing the
// executable-bit check.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no oniux-internal dependencies.
package testutil
