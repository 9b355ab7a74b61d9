// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package rendezvous

import (
	"errors"
	"testing"
	"time"

	"github.com/oniux-project/oniux/lib/testutil"
)

func TestSendRecv(t *testing.T) {
	t.Parallel()

	parent, child, err := Pair()
	if err != nil {
		t.Fatalf("Pair: %v", err)
	}
	defer parent.Close()
	defer child.Close()

	results := make(chan Token, 1)
	go func() {
		token, err := child.Recv()
		if err != nil {
			t.Errorf("Recv: %v", err)
			close(results)
			return
		}
		results <- token
	}()

	if err := parent.Send(Token{LinkIndex: 42}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	token := testutil.RequireReceive(t, results, 5*time.Second, "waiting for token")
	if token.LinkIndex != 42 {
		t.Errorf("LinkIndex = %d, want 42", token.LinkIndex)
	}
}

func TestRecvBlocksUntilSend(t *testing.T) {
	t.Parallel()

	parent, child, err := Pair()
	if err != nil {
		t.Fatalf("Pair: %v", err)
	}
	defer parent.Close()
	defer child.Close()

	received := make(chan struct{})
	go func() {
		if _, err := child.Recv(); err == nil {
			close(received)
		}
	}()

	// Recv must not return before Send.
	select {
	case <-received:
		t.Fatal("Recv returned before Send")
	case <-time.After(50 * time.Millisecond):
	}

	if err := parent.Send(Token{LinkIndex: 3}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	testutil.RequireClosed(t, received, 5*time.Second, "waiting for Recv")
}

func TestRecvDetectsPeerClosure(t *testing.T) {
	t.Parallel()

	parent, child, err := Pair()
	if err != nil {
		t.Fatalf("Pair: %v", err)
	}
	defer child.Close()

	errs := make(chan error, 1)
	go func() {
		_, err := child.Recv()
		errs <- err
	}()

	// Peer dies without sending: the receiver must fail, not hang.
	parent.Close()

	err = testutil.RequireReceive(t, errs, 5*time.Second, "waiting for closure detection")
	if !errors.Is(err, ErrPeerClosed) {
		t.Fatalf("Recv error = %v, want ErrPeerClosed", err)
	}
}
