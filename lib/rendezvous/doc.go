// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

// Package rendezvous implements the one synchronization primitive of
// the orchestration: a two-party, single-use blocking handoff of a
// readiness token between processes that share no memory.
//
// The root process sends the [Token] only after the interface
// namespace-move has completed; the isolation process configures
// nothing before receiving it. That ordering, enforced by this
// channel, is what eliminates the race between the move and interface
// configuration.
//
// There are no retries and no message multiplexing. If the sender dies
// before sending, the receiver gets [ErrPeerClosed] rather than
// hanging. The channel is private to one oniux run; its encoding has
// no compatibility requirement.
package rendezvous
