// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

// clientVersion is the default identification string this package
// sends, RFC 4253 §4.2's "SSH-protoversion-softwareversion" form.
var clientVersion = []byte("SSH-2.0-gossh")

// HostKeyChecker validates a server's host key during the handshake.
// Check is called once per (initial or rekeyed) key exchange with the
// raw wire-format host key blob; a non-nil error aborts the handshake.
type HostKeyChecker interface {
	Check(dialAddress string, remote net.Addr, hostKeyAlgo string, hostKey []byte) error
}

// ClientConfig configures a ClientConn. Once passed to Client or Dial
// it must not be modified.
type ClientConfig struct {
	// Rand provides the source of entropy for key exchange and packet
	// padding. A nil Rand uses crypto/rand.
	Rand io.Reader

	// Crypto holds the cryptographic preference lists; a zero value
	// uses the catalogue defaults for every slot.
	Crypto CryptoConfig

	// HostKeyChecker validates the server's host key. A nil checker
	// accepts any host key — acceptable for tests, never for production
	// use, since it makes the transport transparent to active
	// man-in-the-middle attacks the rest of the kex defends against.
	HostKeyChecker HostKeyChecker

	// Authenticator drives the ssh-userauth exchange once the first
	// NEWKEYS has completed. A nil Authenticator skips authentication
	// entirely (only meaningful against a server configured for that).
	Authenticator Authenticator

	// ClientVersion overrides the identification string sent during the
	// version exchange. If empty, clientVersion is used.
	ClientVersion string

	// Logger receives structured diagnostics (state transitions, rekey
	// events, dropped messages). If nil, slog.Default() is used.
	Logger *slog.Logger

	// Timeout bounds the handshake (version exchange through the first
	// NEWKEYS and authentication). Zero means no timeout.
	Timeout time.Duration
}

func (c *ClientConfig) rand() io.Reader {
	if c.Rand == nil {
		return rand.Reader
	}
	return c.Rand
}

// ClientConn is the client side of a single SSH connection: the
// transport (packet framing, kex, rekey) plus the channel multiplexer
// built on top of it.
type ClientConn struct {
	*transport
	config *ClientConfig
	chanList
	sessionSem sessionSemaphore

	dialAddress   string
	serverVersion string

	globalRequest struct {
		sync.Mutex
		response chan interface{}
	}

	rekeying sync.Mutex // held for the duration of a renegotiated kex (Rekey or respondToPeerRekey); the initial handshake does not take it
}

// Client returns a new SSH client connection using conn as the
// underlying transport, performing the handshake synchronously before
// returning.
func Client(conn net.Conn, config *ClientConfig) (*ClientConn, error) {
	return clientWithAddress(conn, "", config)
}

// Dial connects to addr over network and performs the SSH handshake.
func Dial(network, addr string, config *ClientConfig) (*ClientConn, error) {
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, err
	}
	c, err := clientWithAddress(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func clientWithAddress(conn net.Conn, addr string, config *ClientConfig) (*ClientConn, error) {
	log := config.logger()
	c := &ClientConn{
		transport:   newTransport(conn, config.rand(), log),
		config:      config,
		dialAddress: addr,
		sessionSem:  newSessionSemaphore(),
	}
	c.globalRequest.response = make(chan interface{}, 1)

	if config.Timeout > 0 {
		conn.SetDeadline(time.Now().Add(config.Timeout))
	}

	if err := c.handshake(); err != nil {
		c.Close()
		return nil, wrapf(err, "ssh: handshake with %s", addr)
	}

	if config.Timeout > 0 {
		conn.SetDeadline(time.Time{})
	}

	go c.mainLoop()
	return c, nil
}

// handshake drives the version exchange and the first key exchange,
// then authenticates if an Authenticator is configured, following the
// Tcp -> Versioned -> Kex -> Running transitions of the state machine.
// See RFC 4253 §4 and §7.
func (c *ClientConn) handshake() error {
	version := clientVersion
	if c.config.ClientVersion != "" {
		version = []byte(c.config.ClientVersion)
	}

	if _, err := c.Write(append(append([]byte(nil), version...), '\r', '\n')); err != nil {
		return err
	}
	if err := c.Flush(); err != nil {
		return err
	}

	serverVersion, err := readVersion(c.br)
	if err != nil {
		return wrapf(err, "ssh: reading server identification string")
	}
	c.serverVersion = string(serverVersion)
	c.setState(stateVersioned)

	magics := &handshakeMagics{clientVersion: version, serverVersion: serverVersion}

	result, a, strict, err := c.runKex(magics, true)
	if err != nil {
		return c.failKex(err)
	}

	if err := c.verifyHostKey(a.hostKey, result); err != nil {
		return c.failKex(err)
	}

	c.sessionId = result.H
	if err := c.finishKex(result, a, strict); err != nil {
		return c.failKex(err)
	}
	c.setState(stateRunning)

	if c.config.Authenticator != nil {
		authConn := transportAuthConn{c.transport}
		if err := c.config.Authenticator.Authenticate(authConn, c.sessionId); err != nil {
			return &AuthFailureError{err}
		}
	}
	return nil
}

// failKex sends a best-effort DISCONNECT for err if it has a defined
// reason code, the way respondToPeerRekey/rekey/handshake surface a
// fatal kex-stage failure to the peer before tearing the connection
// down. A no-op for errors readPacket/writePacket already reported
// (disconnect is idempotent) or that don't warrant one.
func (c *ClientConn) failKex(err error) error {
	if reason, ok := disconnectReasonFor(err); ok {
		c.disconnect(reason, err.Error())
	}
	return err
}

// transportAuthConn adapts *transport to the narrow AuthConn surface
// auth.go's Authenticator implementations drive ssh-userauth over.
type transportAuthConn struct{ t *transport }

func (a transportAuthConn) ReadPacket() ([]byte, error)      { return a.t.readPacket() }
func (a transportAuthConn) WritePacket(packet []byte) error { return a.t.writePacket(packet) }

// runKex performs one full key-exchange round: builds and exchanges
// KEXINIT, negotiates algorithms, and runs the chosen kexMethod. When
// initial is true the strict-kex and ext-info markers are included in
// our KEXINIT name-list, RFC 8308 / the OpenSSH strict-kex extension.
func (c *ClientConn) runKex(magics *handshakeMagics, initial bool) (*kexResult, *algorithms, bool, error) {
	c.setState(stateKex)

	kexAlgos := c.config.Crypto.kexes()
	if initial {
		kexAlgos = kexAlgosWithMarkers(kexAlgos)
	}

	clientKexInit := kexInitMsg{
		KexAlgos:                kexAlgos,
		ServerHostKeyAlgos:      c.config.Crypto.hostKeyAlgorithms(),
		CiphersClientServer:     c.config.Crypto.ciphers(),
		CiphersServerClient:     c.config.Crypto.ciphers(),
		MACsClientServer:        c.config.Crypto.macs(),
		MACsServerClient:        c.config.Crypto.macs(),
		CompressionClientServer: c.config.Crypto.compressions(),
		CompressionServerClient: c.config.Crypto.compressions(),
	}
	if _, err := io.ReadFull(c.config.rand(), clientKexInit.Cookie[:]); err != nil {
		return nil, nil, false, err
	}

	kexInitPacket := marshal(msgKexInit, clientKexInit)
	magics.clientKexInit = kexInitPacket
	if err := c.writePacket(kexInitPacket); err != nil {
		return nil, nil, false, err
	}

	seqBeforeServerKexInit := c.reader.seqNum
	packet, err := c.readPacket()
	if err != nil {
		return nil, nil, false, err
	}
	magics.serverKexInit = packet

	var serverKexInit kexInitMsg
	if err := unmarshal(&serverKexInit, packet, msgKexInit); err != nil {
		return nil, nil, false, err
	}

	strict := initial &&
		negotiatedStrictKex(clientKexInit.KexAlgos, strictKexMarkerC2S) &&
		negotiatedStrictKex(serverKexInit.KexAlgos, strictKexMarkerS2C)

	if strict && initial && (seqBeforeServerKexInit != 0 || c.reader.seqNum != 1) {
		// The server's initial KEXINIT must be the very first packet we
		// ever read from it; anything preceding it (even IGNORE/DEBUG,
		// which readPacket absorbs but still counts in seqNum) means an
		// on-path attacker could have injected traffic before the
		// unauthenticated exchange was protected.
		err := &KexFailedError{"strict key exchange requires the server's initial KEXINIT to be the first packet received"}
		c.disconnect(DisconnectProtocolError, err.Error())
		return nil, nil, false, err
	}
	c.reader.kexOnly = strict

	a, err := findAgreedAlgorithms(&clientKexInit, &serverKexInit)
	if err != nil {
		return nil, nil, false, err
	}

	if strict && serverKexInit.FirstKexFollows {
		// A strict-kex peer must not speculatively guess the kex
		// algorithm; a FirstKexFollows packet under strict mode is
		// itself a protocol violation (spec.md §7).
		return nil, nil, false, &ProtocolError{"FirstKexFollows set under strict-kex"}
	}
	if !strict && serverKexInit.FirstKexFollows && a.kex != serverKexInit.KexAlgos[0] {
		// The server guessed wrong; it already sent a first kex packet
		// for an algorithm we didn't agree on. Discard it.
		if _, err := c.readPacket(); err != nil {
			return nil, nil, false, err
		}
	}

	method, err := kexMethodFor(a.kex)
	if err != nil {
		return nil, nil, false, err
	}

	result, err := method.client(c.transport, magics, a.hostKey)
	if err != nil {
		return nil, nil, false, err
	}
	return result, a, strict, nil
}

// verifyHostKey checks the signature over H and, if configured, asks
// the HostKeyChecker to approve the key itself.
func (c *ClientConn) verifyHostKey(hostKeyAlgo string, result *kexResult) error {
	hostKey, rest, ok := ParsePublicKey(result.HostKey)
	if !ok || len(rest) > 0 {
		return &KexFailedError{"could not parse host key"}
	}
	sig, rest, ok := parseSignatureBody(result.Signature)
	if !ok || len(rest) > 0 {
		return &KexFailedError{"could not parse host key signature"}
	}
	if sig.Format != hostKeyAlgo && pubAlgoToPrivAlgo(sig.Format) != pubAlgoToPrivAlgo(hostKeyAlgo) {
		return &KexFailedError{fmt.Sprintf("unexpected signature format %q for host key algorithm %q", sig.Format, hostKeyAlgo)}
	}
	if !hostKey.Verify(result.H, sig.Blob, sig.Format) {
		return &KexFailedError{"host key signature does not verify"}
	}
	if c.config.HostKeyChecker != nil {
		if err := c.config.HostKeyChecker.Check(c.dialAddress, c.RemoteAddr(), hostKeyAlgo, result.HostKey); err != nil {
			return &KexFailedError{"host key rejected: " + err.Error()}
		}
	}
	return nil
}

// finishKex exchanges NEWKEYS and installs the new ciphers on both
// halves of the transport, then resets the rekey accounting.
func (c *ClientConn) finishKex(result *kexResult, a *algorithms, strict bool) error {
	if err := c.writePacket([]byte{msgNewKeys}); err != nil {
		return err
	}
	if err := c.installKeys(c.writer, clientKeys, a, a.cipherC2S, a.macC2S, result, strict); err != nil {
		return err
	}

	packet, err := c.readPacket()
	if err != nil {
		return err
	}
	if len(packet) == 0 || packet[0] != msgNewKeys {
		return UnexpectedMessageError{msgNewKeys, packet[0]}
	}
	c.reader.kexOnly = false
	if err := c.installKeys(c.reader, serverKeys, a, a.cipherS2C, a.macS2C, result, strict); err != nil {
		return err
	}

	if a.compressC2S == compressionZlib {
		c.writer.compressor = newZlibCompressor()
	}
	if a.compressS2C == compressionZlib {
		c.reader.compressor = newZlibCompressor()
	}

	c.noteKexComplete()
	return nil
}

// Rekey forces a new key exchange immediately, independent of the
// traffic/time thresholds the transport tracks automatically. Safe to
// call concurrently with channel traffic; it blocks until the new keys
// are installed.
func (c *ClientConn) Rekey() error {
	return c.rekey()
}

func (c *ClientConn) rekey() error {
	c.rekeying.Lock()
	defer c.rekeying.Unlock()

	c.setState(stateRekey)
	magics := &handshakeMagics{
		clientVersion: []byte(c.clientVersionString()),
		serverVersion: []byte(c.serverVersion),
	}
	result, a, _, err := c.runKex(magics, false)
	if err != nil {
		c.setState(stateClosing)
		return c.failKex(err)
	}
	if err := c.verifyHostKey(a.hostKey, result); err != nil {
		c.setState(stateClosing)
		return c.failKex(err)
	}
	// strict-kex sequence reset only ever applies to the very first kex;
	// a rekey's installKeys call always passes strict=false so sequence
	// numbers keep incrementing across it, RFC 4253 §9.
	if err := c.finishKex(result, a, false); err != nil {
		c.setState(stateClosing)
		return c.failKex(err)
	}
	c.setState(stateRunning)
	return nil
}

func (c *ClientConn) clientVersionString() string {
	if c.config.ClientVersion != "" {
		return c.config.ClientVersion
	}
	return string(clientVersion)
}

// mainLoop reads incoming packets for the lifetime of the connection,
// routing channel traffic to its channel and handling connection-level
// messages (global requests, peer-initiated rekey, disconnect).
func (c *ClientConn) mainLoop() {
	defer func() {
		c.transport.Close()
		c.chanList.closeAll()
	}()

	for {
		packet, err := c.readPacket()
		if err != nil {
			c.config.logger().Debug("mainLoop: read failed, closing", "error", err)
			return
		}
		if len(packet) == 0 {
			continue
		}

		switch packet[0] {
		case msgChannelData:
			if !c.chanList.dispatchChannelData(false, packet[1:]) {
				c.config.logger().Debug("mainLoop: malformed or unknown channel data")
			}
			continue
		case msgChannelExtendedData:
			if !c.chanList.dispatchChannelData(true, packet[1:]) {
				c.config.logger().Debug("mainLoop: malformed or unknown extended channel data")
			}
			continue
		case msgKexInit:
			// Peer-initiated rekey: RFC 4253 §9 allows either side to
			// start one at any time once the connection is running.
			go func(packet []byte) {
				if err := c.respondToPeerRekey(packet); err != nil {
					c.config.logger().Warn("peer-initiated rekey failed", "error", err)
				}
			}(packet)
			continue
		}

		if c.transport.needsRekey() {
			go func() {
				if err := c.rekey(); err != nil {
					c.config.logger().Warn("scheduled rekey failed", "error", err)
				}
			}()
		}

		decoded, err := decode(packet)
		if err != nil {
			if _, ok := err.(UnexpectedMessageError); ok {
				// An unrecognized message type, not a malformed known one:
				// RFC 4253 §11.4 requires answering it with UNIMPLEMENTED
				// carrying the offending packet's sequence number.
				seq := c.reader.seqNum - 1
				c.writePacket(marshal(msgUnimplemented, unimplementedMsg{SeqNum: seq}))
				c.config.logger().Debug("mainLoop: unexpected message", "error", err)
				continue
			}
			c.disconnect(DisconnectProtocolError, err.Error())
			return
		}

		switch msg := decoded.(type) {
		case *channelOpenMsg:
			c.handleChanOpen(msg)
		case *channelOpenConfirmMsg:
			if ch, ok := c.getChan(msg.PeersId); ok {
				ch.remoteId = msg.MyId
				ch.maxPacket = msg.MaxPacketSize
				ch.remoteWin.add(msg.MyWindow)
				ch.msg <- msg
			}
		case *channelOpenFailureMsg:
			if ch, ok := c.getChan(msg.PeersId); ok {
				ch.msg <- msg
			}
		case *channelCloseMsg:
			if ch, ok := c.getChan(msg.PeersId); ok {
				ch.handleClose()
				c.chanList.remove(msg.PeersId)
			}
		case *channelEOFMsg:
			if ch, ok := c.getChan(msg.PeersId); ok {
				ch.stdout.eof()
				// RFC 4254 is silent on EOF's effect on extended data;
				// signalling it there too avoids a reader blocking
				// forever on a stream the peer will never write to again.
				ch.stderr.eof()
			}
		case *channelRequestSuccessMsg, *channelRequestFailureMsg:
			if pid, ok := peersIdOf(msg); ok {
				if ch, ok := c.getChan(pid); ok {
					ch.msg <- msg
				}
			}
		case *channelRequestMsg:
			if ch, ok := c.getChan(msg.PeersId); ok {
				ch.requests <- &ChannelRequest{
					Type:      msg.Request,
					WantReply: msg.WantReply,
					Payload:   msg.RequestSpecificData,
					ch:        ch,
				}
			}
		case *channelWindowAdjustMsg:
			if ch, ok := c.getChan(msg.PeersId); ok {
				if !ch.remoteWin.add(msg.AdditionalBytes) {
					c.config.logger().Debug("mainLoop: window overflow", "channel", msg.PeersId)
					c.disconnect(DisconnectProtocolError, "window adjust overflowed remote window")
					return
				}
			}
		case *globalRequestMsg:
			if msg.WantReply {
				c.writePacket(marshal(msgRequestFailure, globalRequestFailureMsg{}))
			}
		case *globalRequestSuccessMsg, *globalRequestFailureMsg:
			select {
			case c.globalRequest.response <- msg:
			default:
			}
		case *disconnectMsg:
			c.config.logger().Info("server disconnected", "reason", msg.Reason, "message", safeString(msg.Message))
			return
		default:
			c.config.logger().Debug("mainLoop: unhandled message", "type", fmt.Sprintf("%T", msg))
		}
	}
}

func peersIdOf(msg interface{}) (uint32, bool) {
	switch m := msg.(type) {
	case *channelRequestSuccessMsg:
		return m.PeersId, true
	case *channelRequestFailureMsg:
		return m.PeersId, true
	}
	return 0, false
}

// respondToPeerRekey runs the responder side of a rekey the peer
// initiated: the KEXINIT packet has already been read (and is passed
// in as the magics' serverKexInit), so this repeats runKex's client-role
// steps from that point on (send our KEXINIT, negotiate, run the kex
// method) and shares finishKex with it, since this package only ever
// drives the client-role kex method regardless of who sent KEXINIT
// first.
func (c *ClientConn) respondToPeerRekey(serverKexInitPacket []byte) error {
	c.rekeying.Lock()
	defer c.rekeying.Unlock()

	c.setState(stateRekey)
	magics := &handshakeMagics{
		clientVersion: []byte(c.clientVersionString()),
		serverVersion: []byte(c.serverVersion),
		serverKexInit: serverKexInitPacket,
	}

	var serverKexInit kexInitMsg
	if err := unmarshal(&serverKexInit, serverKexInitPacket, msgKexInit); err != nil {
		c.setState(stateClosing)
		return c.failKex(err)
	}

	clientKexInit := kexInitMsg{
		KexAlgos:                c.config.Crypto.kexes(),
		ServerHostKeyAlgos:      c.config.Crypto.hostKeyAlgorithms(),
		CiphersClientServer:     c.config.Crypto.ciphers(),
		CiphersServerClient:     c.config.Crypto.ciphers(),
		MACsClientServer:        c.config.Crypto.macs(),
		MACsServerClient:        c.config.Crypto.macs(),
		CompressionClientServer: c.config.Crypto.compressions(),
		CompressionServerClient: c.config.Crypto.compressions(),
	}
	if _, err := io.ReadFull(c.config.rand(), clientKexInit.Cookie[:]); err != nil {
		c.setState(stateClosing)
		return err
	}
	kexInitPacket := marshal(msgKexInit, clientKexInit)
	magics.clientKexInit = kexInitPacket
	if err := c.writePacket(kexInitPacket); err != nil {
		c.setState(stateClosing)
		return err
	}

	a, err := findAgreedAlgorithms(&clientKexInit, &serverKexInit)
	if err != nil {
		c.setState(stateClosing)
		return c.failKex(err)
	}
	if serverKexInit.FirstKexFollows && a.kex != serverKexInit.KexAlgos[0] {
		if _, err := c.readPacket(); err != nil {
			c.setState(stateClosing)
			return err
		}
	}

	method, err := kexMethodFor(a.kex)
	if err != nil {
		c.setState(stateClosing)
		return c.failKex(err)
	}
	result, err := method.client(c.transport, magics, a.hostKey)
	if err != nil {
		c.setState(stateClosing)
		return c.failKex(err)
	}
	if err := c.verifyHostKey(a.hostKey, result); err != nil {
		c.setState(stateClosing)
		return c.failKex(err)
	}
	if err := c.finishKex(result, a, false); err != nil {
		c.setState(stateClosing)
		return c.failKex(err)
	}
	c.setState(stateRunning)
	return nil
}

// handleChanOpen answers a channel the peer opened towards us. This
// core implements no server-side channel consumers (session,
// forwarding, and subsystem handling are the caller's domain, out of
// scope per doc.go), so every such request is declined cleanly rather
// than left to hang.
func (c *ClientConn) handleChanOpen(msg *channelOpenMsg) {
	if msg.MaxPacketSize < minPacketLength || msg.MaxPacketSize > 1<<31 {
		c.sendConnectionFailed(msg.PeersId)
		return
	}
	c.writePacket(marshal(msgChannelOpenFailure, channelOpenFailureMsg{
		PeersId:  msg.PeersId,
		Reason:   UnknownChannelType,
		Message:  fmt.Sprintf("unsupported channel type: %s", safeString(msg.ChanType)),
		Language: "en",
	}))
}

func (c *ClientConn) sendConnectionFailed(remoteId uint32) {
	c.writePacket(marshal(msgChannelOpenFailure, channelOpenFailureMsg{
		PeersId:  remoteId,
		Reason:   ConnectionFailed,
		Message:  "invalid request",
		Language: "en",
	}))
}

// OpenChannel opens a new channel of the given type, RFC 4254 §5.1, and
// blocks until the peer confirms or refuses it. "session" channels are
// additionally throttled by sessionSem so a single connection never has
// more than sessionSemaphoreCap of them outstanding at once.
func (c *ClientConn) OpenChannel(chanType string, extra []byte) (Channel, <-chan *ChannelRequest, error) {
	isSession := chanType == "session"
	if isSession {
		c.sessionSem.acquire()
	}

	ch := c.chanList.newChan(c.transport)
	open := channelOpenMsg{
		ChanType:         chanType,
		PeersId:          ch.localId,
		PeersWindow:      initialWindowSize,
		MaxPacketSize:    initialMaxPacket,
		TypeSpecificData: extra,
	}
	if err := c.writePacket(marshal(msgChannelOpen, open)); err != nil {
		c.chanList.remove(ch.localId)
		if isSession {
			c.sessionSem.release()
		}
		return nil, nil, err
	}

	reply, ok := <-ch.msg
	if !ok {
		c.chanList.remove(ch.localId)
		if isSession {
			c.sessionSem.release()
		}
		return nil, nil, &ChannelClosedError{}
	}

	switch m := reply.(type) {
	case *channelOpenFailureMsg:
		c.chanList.remove(ch.localId)
		if isSession {
			c.sessionSem.release()
		}
		return nil, nil, &ProtocolError{fmt.Sprintf("channel open failed: %s (reason %d)", safeString(m.Message), m.Reason)}
	case *channelOpenConfirmMsg:
		if isSession {
			go func() {
				<-ch.closed
				c.sessionSem.release()
			}()
		}
		return ch, ch.requests, nil
	}
	c.chanList.remove(ch.localId)
	if isSession {
		c.sessionSem.release()
	}
	return nil, nil, &ProtocolError{"unexpected reply to channel open"}
}

// SendGlobalRequest sends a global request, RFC 4254 §4, optionally
// waiting for the peer's reply. Concurrent callers are serialized so
// a reply is never handed to the wrong caller.
func (c *ClientConn) SendGlobalRequest(requestType string, wantReply bool, data []byte) (bool, []byte, error) {
	c.globalRequest.Lock()
	defer c.globalRequest.Unlock()

	packet := marshal(msgGlobalRequest, globalRequestMsg{Type: requestType, WantReply: wantReply, Data: data})
	if err := c.writePacket(packet); err != nil {
		return false, nil, err
	}
	if !wantReply {
		return true, nil, nil
	}
	reply := <-c.globalRequest.response
	switch m := reply.(type) {
	case *globalRequestSuccessMsg:
		return true, m.Data, nil
	case *globalRequestFailureMsg:
		return false, nil, nil
	}
	return false, nil, &ProtocolError{"unexpected reply to global request"}
}
