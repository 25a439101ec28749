// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"fmt"

	"github.com/pkg/errors"
)

// UnexpectedMessageError results when the SSH message that we received
// didn't match what we wanted.
type UnexpectedMessageError struct {
	expected, got uint8
}

func (u UnexpectedMessageError) Error() string {
	return fmt.Sprintf("ssh: unexpected message type %d (expected %d)", u.got, u.expected)
}

// ParseError results from a malformed SSH message.
type ParseError struct {
	msgType uint8
}

func (p ParseError) Error() string {
	return fmt.Sprintf("ssh: parse error in message type %d", p.msgType)
}

// ProtocolError is raised for any framing violation, unexpected state, or
// unsupported identification string. It is always fatal: the transport
// sends DISCONNECT(ProtocolError) if it can, and moves to Closing.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "ssh: protocol error: " + e.Reason }

// KexFailedError covers lack of a common algorithm, a bad host-key
// signature, a strict-KEX violation, or an application veto of the host
// key. Always fatal.
type KexFailedError struct {
	Reason string
}

func (e *KexFailedError) Error() string { return "ssh: key exchange failed: " + e.Reason }

// MacError indicates the inbound MAC tag (or AEAD authentication tag)
// did not verify. Always fatal.
type MacError struct{}

func (e *MacError) Error() string { return "ssh: MAC verification failed" }

// DecryptionError wraps a lower-level decryption failure (AEAD tag
// mismatch, malformed ciphertext length). Always fatal.
type DecryptionError struct {
	Reason string
}

func (e *DecryptionError) Error() string { return "ssh: decryption failed: " + e.Reason }

// ConnectionLostError describes the underlying socket returning EOF or an
// I/O error outside of an expected DISCONNECT. No code path in this
// package constructs it: socket errors reach callers as the raw (or
// wrapf-wrapped) I/O error.
type ConnectionLostError struct {
	Err error
}

func (e *ConnectionLostError) Error() string { return "ssh: connection lost: " + e.Err.Error() }
func (e *ConnectionLostError) Unwrap() error { return e.Err }

// TimeoutError describes a blocking wait (connect, channel open, channel
// request reply, service-accept) that exceeded its budget. No code path in
// this package constructs it: an expired connection deadline reaches
// callers as the net.Conn's own timeout error.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string { return "ssh: timeout waiting for " + e.Op }

// AuthFailureError is propagated verbatim from the external
// Authenticator; it is non-fatal to the transport until the authenticator
// itself gives up.
type AuthFailureError struct {
	Err error
}

func (e *AuthFailureError) Error() string { return "ssh: authentication failed: " + e.Err.Error() }
func (e *AuthFailureError) Unwrap() error { return e.Err }

// ChannelClosedError is returned from an operation on an already-closed
// channel. Non-fatal, user-visible only.
type ChannelClosedError struct{}

func (e *ChannelClosedError) Error() string { return "ssh: channel closed" }

// PacketTooLarge is returned when an assembled outbound packet exceeds
// maxPacket. Always fatal: the caller has no way to shrink a packet
// already built from a caller-supplied payload.
type PacketTooLarge struct {
	Size int
}

func (e *PacketTooLarge) Error() string {
	return fmt.Sprintf("ssh: packet too large: %d bytes exceeds maximum of %d", e.Size, maxPacket)
}

// wrapf attaches I/O-boundary context to err while preserving the ability
// to errors.As/errors.Is against the original sentinel, mirroring how a
// stream multiplexer wraps socket errors at its read/write boundary.
func wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}
