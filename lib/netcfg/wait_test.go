// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package netcfg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vishvananda/netlink"

	"github.com/oniux-project/oniux/lib/clock"
	"github.com/oniux-project/oniux/lib/testutil"
)

var testEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// notFound mimics a lookup of a device that does not exist yet.
func notFound(name string) (int, error) {
	return 0, &ConfigError{Op: "link-lookup", Device: name, Err: netlink.LinkNotFoundError{}}
}

type waitResult struct {
	index int
	err   error
}

func startWait(ctx context.Context, w *Waiter, name string) chan waitResult {
	results := make(chan waitResult, 1)
	go func() {
		index, err := w.Wait(ctx, name)
		results <- waitResult{index, err}
	}()
	return results
}

func TestWaitImmediateSuccess(t *testing.T) {
	t.Parallel()

	w := NewWaiter(100*time.Millisecond, 10*time.Second)
	w.Clock = clock.Fake(testEpoch)
	w.lookup = func(string) (int, error) { return 7, nil }

	// The pre-tick check must succeed without any clock advancement.
	index, err := w.Wait(context.Background(), "onion0")
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if index != 7 {
		t.Errorf("index = %d, want 7", index)
	}
}

func TestWaitSucceedsAfterPolls(t *testing.T) {
	t.Parallel()

	fake := clock.Fake(testEpoch)
	w := NewWaiter(100*time.Millisecond, 10*time.Second)
	w.Clock = fake

	// Each lookup reports on polled so the test can advance the clock
	// one tick at a time without racing the waiter goroutine.
	polled := make(chan int, 8)
	calls := 0
	w.lookup = func(name string) (int, error) {
		calls++
		polled <- calls
		if calls < 4 {
			return notFound(name)
		}
		return 12, nil
	}

	results := startWait(context.Background(), w, "onion0")

	// The pre-tick check happens before any timer is armed.
	testutil.RequireReceive(t, polled, 5*time.Second, "waiting for pre-tick check")

	// One ticker plus one deadline timer.
	fake.WaitForTimers(2)
	for i := 0; i < 3; i++ {
		fake.Advance(100 * time.Millisecond)
		testutil.RequireReceive(t, polled, 5*time.Second, "waiting for poll %d", i+2)
	}

	got := testutil.RequireReceive(t, results, 5*time.Second, "waiting for device")
	if got.err != nil {
		t.Fatalf("Wait: %v", got.err)
	}
	if got.index != 12 {
		t.Errorf("index = %d, want 12", got.index)
	}
	if calls != 4 {
		t.Errorf("lookup called %d times, want 4", calls)
	}
}

func TestWaitTimesOut(t *testing.T) {
	t.Parallel()

	fake := clock.Fake(testEpoch)
	w := NewWaiter(100*time.Millisecond, time.Second)
	w.Clock = fake
	w.lookup = notFound

	results := startWait(context.Background(), w, "onion0")

	fake.WaitForTimers(2)
	fake.Advance(2 * time.Second)

	got := testutil.RequireReceive(t, results, 5*time.Second, "waiting for timeout")
	if !errors.Is(got.err, ErrWaitTimeout) {
		t.Fatalf("Wait error = %v, want ErrWaitTimeout", got.err)
	}
}

func TestWaitAbortsOnLookupFailure(t *testing.T) {
	t.Parallel()

	w := NewWaiter(100*time.Millisecond, 10*time.Second)
	w.Clock = clock.Fake(testEpoch)

	boom := errors.New("netlink socket failure")
	w.lookup = func(string) (int, error) { return 0, boom }

	_, err := w.Wait(context.Background(), "onion0")
	if !errors.Is(err, boom) {
		t.Fatalf("Wait error = %v, want wrapped lookup failure", err)
	}
}

func TestWaitCanceledByContext(t *testing.T) {
	t.Parallel()

	fake := clock.Fake(testEpoch)
	w := NewWaiter(100*time.Millisecond, 10*time.Second)
	w.Clock = fake
	w.lookup = notFound

	ctx, cancel := context.WithCancel(context.Background())
	results := startWait(ctx, w, "onion0")

	fake.WaitForTimers(2)
	cancel()

	got := testutil.RequireReceive(t, results, 5*time.Second, "waiting for cancellation")
	if !errors.Is(got.err, context.Canceled) {
		t.Fatalf("Wait error = %v, want context.Canceled", got.err)
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	_, err := notFound("onion0")
	if !IsNotFound(err) {
		t.Error("IsNotFound = false for wrapped LinkNotFoundError")
	}
	if IsNotFound(errors.New("other")) {
		t.Error("IsNotFound = true for unrelated error")
	}
}
