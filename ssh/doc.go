// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ssh implements the client side of the SSH-2 transport protocol:
// identification and algorithm negotiation, key exchange and re-key,
// the binary packet (record) layer, and a channel multiplexer.
//
// User authentication and the higher-level services built on channels
// (SFTP, exec, shell, port forwarding) are not implemented here. The
// package calls out to an Authenticator supplied by the caller once the
// transport is up, and returns raw Channel values to be driven by
// whatever protocol the caller layers on top.
package ssh
