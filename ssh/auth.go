// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

// Authenticator is the single hook this package calls into once the
// transport has completed its first key exchange and sent/received
// NEWKEYS, and before any ssh-connection channel-protocol message is
// allowed to flow. Concrete authentication methods (publickey,
// password, keyboard-interactive, GSSAPI, ...) are entirely the
// caller's concern; this core only needs to know whether the
// ssh-userauth service ended in success, and the frozen sessionId to
// sign over if the method needs one.
//
// Implementations drive the ssh-userauth protocol themselves using
// conn's ReadPacket/WritePacket, and must return once either
// USERAUTH_SUCCESS has been received or they are no longer willing to
// try further methods.
type Authenticator interface {
	Authenticate(conn AuthConn, sessionId []byte) error
}

// AuthConn is the narrow surface an Authenticator needs from the
// client connection: enough to speak ssh-userauth, nothing that would
// let it reach into channel or kex internals.
type AuthConn interface {
	ReadPacket() ([]byte, error)
	WritePacket(packet []byte) error
}

// NoAuth is a degenerate Authenticator for talking to a server
// configured to allow the "none" method (RFC 4252 §5.2), or for tests
// against a bare transport where authentication is out of scope.
type NoAuth struct {
	User string
}

func (a NoAuth) Authenticate(conn AuthConn, sessionId []byte) error {
	if err := conn.WritePacket(marshal(msgServiceRequest, serviceRequestMsg{Service: serviceUserAuth})); err != nil {
		return err
	}
	packet, err := conn.ReadPacket()
	if err != nil {
		return err
	}
	if err := unmarshal(new(serviceAcceptMsg), packet, msgServiceAccept); err != nil {
		return &AuthFailureError{err}
	}

	req := userAuthRequestMsg{
		User:    a.User,
		Service: serviceSSH,
		Method:  "none",
	}
	if err := conn.WritePacket(marshal(msgUserAuthRequest, req)); err != nil {
		return err
	}
	packet, err = conn.ReadPacket()
	if err != nil {
		return err
	}
	switch packet[0] {
	case msgUserAuthSuccess:
		return nil
	case msgUserAuthFailure:
		var failure userAuthFailureMsg
		if err := unmarshal(&failure, packet, msgUserAuthFailure); err != nil {
			return &AuthFailureError{err}
		}
		return &AuthFailureError{&ProtocolError{"server offered methods: " + safeString(joinNames(failure.Methods))}}
	}
	return &AuthFailureError{UnexpectedMessageError{msgUserAuthSuccess, packet[0]}}
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i != 0 {
			out += ","
		}
		out += n
	}
	return out
}
