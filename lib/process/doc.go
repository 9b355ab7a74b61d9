// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers shared by the oniux
// process roles.
//
// [Fatal] is the pre-logger error handler for main(): it reports to
// stderr directly because fatal setup errors can occur before the
// structured logger exists.
//
// [FromWaitStatus] and [ExitCode] implement the verbatim exit-status
// propagation contract: every process in the supervision chain reports
// its direct child's status unchanged, with signal deaths mapped to
// 128+signal, so the status the invoking shell sees is the status of
// the target command itself.
package process
