// Copyright 2026 The oniux Authors
// SPDX-License-Identifier: Apache-2.0

package rendezvous

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/sys/unix"
)

// ErrPeerClosed is returned by Recv when the peer closed its end
// without sending a token. This is how a waiting isolation process
// detects that root died mid-setup instead of blocking forever.
var ErrPeerClosed = errors.New("rendezvous peer closed without sending a token")

// tokenLimit bounds a received datagram. A token is a few CBOR bytes;
// anything larger is a protocol violation.
const tokenLimit = 256

// Token is the single readiness message of a run. It is sent exactly
// once, from root to isolation, strictly after the interface
// namespace-move has completed. The link index lets the receiver
// sanity-check that the device it configures is the one that was
// moved.
type Token struct {
	// LinkIndex is the interface index of the moved device.
	LinkIndex int `cbor:"link_index"`
}

// Channel is one end of a two-party, single-use rendezvous. One side
// calls Send once, the other calls Recv once; both are blocking.
type Channel struct {
	file *os.File
}

// Pair creates a connected rendezvous pair. The parent keeps one end
// and passes the other to the child via ExtraFiles. SOCK_SEQPACKET
// gives datagram framing with connection semantics: a read returns
// exactly one token, and end-of-file is a reliable peer-death signal.
func Pair() (parent, child *Channel, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("creating rendezvous socketpair: %w", err)
	}
	parent = &Channel{file: os.NewFile(uintptr(fds[0]), "rendezvous-parent")}
	child = &Channel{file: os.NewFile(uintptr(fds[1]), "rendezvous-child")}
	return parent, child, nil
}

// FromFile wraps an inherited rendezvous fd. The child side calls this
// on the file it received from its parent.
func FromFile(f *os.File) *Channel {
	return &Channel{file: f}
}

// File exposes the underlying file for passing to a child process.
func (c *Channel) File() *os.File { return c.file }

// Send transmits the token. It is called exactly once per channel.
func (c *Channel) Send(token Token) error {
	data, err := cbor.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding rendezvous token: %w", err)
	}
	n, err := c.file.Write(data)
	if err != nil {
		return fmt.Errorf("sending rendezvous token: %w", err)
	}
	if n != len(data) {
		return fmt.Errorf("sending rendezvous token: short write (%d of %d bytes)", n, len(data))
	}
	return nil
}

// Recv blocks until the token arrives or the peer's end closes. Peer
// closure is reported as ErrPeerClosed, never as a hang.
func (c *Channel) Recv() (Token, error) {
	buf := make([]byte, tokenLimit)
	n, err := c.file.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Token{}, ErrPeerClosed
		}
		return Token{}, fmt.Errorf("receiving rendezvous token: %w", err)
	}
	if n == 0 {
		return Token{}, ErrPeerClosed
	}

	var token Token
	if err := cbor.Unmarshal(buf[:n], &token); err != nil {
		return Token{}, fmt.Errorf("decoding rendezvous token: %w", err)
	}
	return token, nil
}

// Close releases the channel's end. The parent closes the child end
// after spawning; each side closes its own end when done with it.
func (c *Channel) Close() error {
	return c.file.Close()
}
