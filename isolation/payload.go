// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package isolation

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Payload is the CBOR-encoded setup state a parent hands to a
// re-executed child over an inherited pipe. It carries everything a
// role needs so that no role ever re-parses the command line; role
// behavior is fully determined by the role tag plus this payload.
//
// The encoding is private to one oniux run and has no compatibility
// requirement: the writer and reader are always the same binary.
type Payload struct {
	// Command is the target command and its arguments.
	Command []string `cbor:"command"`

	// DelegatePath is the resolved network delegate binary.
	DelegatePath string `cbor:"delegate_path"`

	// DelegateArgs are extra arguments for the delegate, appended
	// after the device name.
	DelegateArgs []string `cbor:"delegate_args,omitempty"`

	// Device is the TUN interface name the delegate creates.
	Device string `cbor:"device"`

	// Addresses are the CIDR addresses the isolation process assigns.
	Addresses []string `cbor:"addresses"`

	// Nameservers are written to the private resolv.conf.
	Nameservers []string `cbor:"nameservers"`

	// ReadyTimeout bounds the delegate readiness wait.
	ReadyTimeout time.Duration `cbor:"ready_timeout"`

	// PollInterval is the readiness check cadence.
	PollInterval time.Duration `cbor:"poll_interval"`

	// Debug enables debug logging in the child.
	Debug bool `cbor:"debug,omitempty"`
}

// WritePipe serializes the payload into a fresh pipe and returns the
// read end for the child's ExtraFiles. The payload is a few hundred
// bytes, far below the pipe buffer, so the write completes before the
// child ever reads.
func (p *Payload) WritePipe() (*os.File, error) {
	data, err := cbor.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating payload pipe: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("writing payload: %w", err)
	}
	// Close the write end now: the child reads to EOF.
	if err := w.Close(); err != nil {
		r.Close()
		return nil, fmt.Errorf("closing payload pipe: %w", err)
	}
	return r, nil
}

// ReadPayload reads and decodes the payload from an inherited fd.
func ReadPayload(f *os.File) (*Payload, error) {
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload (not spawned by oniux?)")
	}

	var p Payload
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	if len(p.Command) == 0 {
		return nil, fmt.Errorf("payload carries no command")
	}
	return &p, nil
}
