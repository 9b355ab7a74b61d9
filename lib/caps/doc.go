// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

// Package caps manages the per-process Linux capability sets.
//
// Each oniux process treats its capability state as a value it owns
// exclusively and only ever reduces: [LimitToAdminSet] narrows the
// original process to the two capabilities the orchestration needs,
// and [DropAllPermitted] is the one-way transition to zero privilege
// that every role performs after its last privileged operation. No
// function in this package can widen any set.
//
// Ambient capability grants for child processes are not done here;
// they go through exec.Cmd's SysProcAttr.AmbientCaps at spawn time so
// that the grant is scoped to exactly one child.
package caps
