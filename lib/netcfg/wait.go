// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package netcfg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oniux-project/oniux/lib/clock"
)

// ErrWaitTimeout is returned by Waiter.Wait when the device does not
// appear within the configured timeout.
var ErrWaitTimeout = errors.New("timed out waiting for network device")

// Waiter polls for a network device to appear. It is the only bounded
// wait in the orchestration: the delegate creates its TUN device at
// its own pace, and the root process must not move a device that does
// not exist yet.
type Waiter struct {
	// Clock is the time source. Defaults to clock.Real().
	Clock clock.Clock

	// Interval between existence checks.
	Interval time.Duration

	// Timeout bounds the whole wait.
	Timeout time.Duration

	// lookup resolves a device name to its index. Replaced in tests.
	lookup func(name string) (int, error)
}

// NewWaiter returns a Waiter with the given polling cadence.
func NewWaiter(interval, timeout time.Duration) *Waiter {
	return &Waiter{
		Clock:    clock.Real(),
		Interval: interval,
		Timeout:  timeout,
		lookup:   LinkIndex,
	}
}

// Wait blocks until the device exists, the timeout elapses, or ctx is
// canceled. It returns the device index on success. Lookup errors
// other than "not found" abort the wait immediately.
//
// Cancellation of ctx returns ctx's error; the root process cancels
// the context when the delegate exits early, which lets it distinguish
// "delegate died" from "delegate is slow".
func (w *Waiter) Wait(ctx context.Context, name string) (int, error) {
	if w.lookup == nil {
		w.lookup = LinkIndex
	}

	check := func() (int, bool, error) {
		index, err := w.lookup(name)
		if err == nil {
			return index, true, nil
		}
		if IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}

	// Check once before arming any timer so an already-present device
	// never waits a full interval.
	if index, ok, err := check(); err != nil || ok {
		return index, err
	}

	ticker := w.Clock.NewTicker(w.Interval)
	defer ticker.Stop()
	deadline := w.Clock.After(w.Timeout)

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-deadline:
			return 0, fmt.Errorf("%w: %s not present after %v", ErrWaitTimeout, name, w.Timeout)
		case <-ticker.C:
			if index, ok, err := check(); err != nil || ok {
				return index, err
			}
		}
	}
}
