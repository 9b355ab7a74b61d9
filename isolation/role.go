// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package isolation

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Role identifies which process of the supervision chain this
// instance is. Exactly one process holds each role at a time, in a
// strict Original → Root → Isolation chain. Children acquire their
// role at creation: the parent re-executes /proc/self/exe with
// RoleEnvVar set, so role dispatch is a tagged switch rather than
// re-parsed command-line state.
type Role string

const (
	// RoleOriginal is the process the user invoked. It performs no
	// privileged configuration; it creates the root process in a new
	// PID namespace and waits.
	RoleOriginal Role = "original"

	// RoleRoot is PID 1 of the new PID namespace. It spawns the
	// delegate, performs the interface handoff, and supervises the
	// isolation process.
	RoleRoot Role = "root"

	// RoleIsolation owns the new network and mount namespaces. It
	// configures the moved interface, redirects DNS, drops all
	// capabilities, and becomes the target command.
	RoleIsolation Role = "isolation"
)

// RoleEnvVar carries the role to a re-executed child. Absent means
// RoleOriginal.
const RoleEnvVar = "ONIUX_ROLE"

// Inherited file descriptor positions in re-executed children. The
// parent places these via ExtraFiles, which starts at fd 3.
const (
	payloadFD    = 3
	rendezvousFD = 4
)

// scrubRole returns environ without any RoleEnvVar entry. Processes
// outside the orchestration, the delegate and the target command, must
// not inherit a role: a nested oniux invocation seeing a stale role
// would be misdispatched into a child entrypoint and die reading a
// payload fd it does not have.
func scrubRole(environ []string) []string {
	scrubbed := make([]string, 0, len(environ))
	for _, entry := range environ {
		if strings.HasPrefix(entry, RoleEnvVar+"=") {
			continue
		}
		scrubbed = append(scrubbed, entry)
	}
	return scrubbed
}

// roleEnviron returns the current environment carrying exactly one
// RoleEnvVar entry, naming the given role. Used when spawning the next
// process of the chain; replaces rather than appends, so the inherited
// role never shadows or duplicates the new one.
func roleEnviron(role Role) []string {
	return append(scrubRole(os.Environ()), RoleEnvVar+"="+string(role))
}

// CurrentRole reads the process role from the environment.
func CurrentRole() (Role, error) {
	value, ok := os.LookupEnv(RoleEnvVar)
	if !ok || value == "" {
		return RoleOriginal, nil
	}
	switch role := Role(value); role {
	case RoleRoot, RoleIsolation:
		return role, nil
	default:
		return "", fmt.Errorf("unknown %s value %q", RoleEnvVar, value)
	}
}

// RunRole executes a child role to completion and returns the exit
// code the process should terminate with. For RoleIsolation a
// successful run does not return at all: the process image is replaced
// by the target command.
func RunRole(role Role) int {
	payload, err := ReadPayload(os.NewFile(payloadFD, "oniux-payload"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "oniux [%s]: reading setup payload: %v\n", role, err)
		return ExitSpawn
	}

	logger := NewLogger(payload.Debug).With("role", string(role))

	var runErr error
	var code int
	switch role {
	case RoleRoot:
		code, runErr = runRoot(payload, logger)
	case RoleIsolation:
		runErr = runIsolation(payload, logger)
	default:
		runErr = exitErr(ExitSpawn, fmt.Errorf("role %q has no child entrypoint", role))
	}

	if runErr != nil {
		logger.Error("setup failed", "error", runErr)
		return CodeOf(runErr)
	}
	return code
}

// NewLogger builds the standard oniux logger: slog text to stderr,
// debug level when requested.
func NewLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
