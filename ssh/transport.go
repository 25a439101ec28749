// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

// maxPacket is the largest packet length (length field plus its
// payload) this side will read or write: a 65536-byte payload (the
// largest channel data chunk this client sends, initialMaxPacket, and
// twice RFC 4253 §6.1's 32768-byte minimum) plus 3000 bytes of
// headroom for framing.
const maxPacket = 65536 + 3000

// keyDirection picks which of the six derived keys (tags 'A'..'F') an
// installKeys call installs: initial IV, encryption key, and integrity
// key, one triple per direction.
type keyDirection struct {
	ivTag, keyTag, macKeyTag byte
}

var (
	clientKeys = keyDirection{ivTag: 'A', keyTag: 'C', macKeyTag: 'E'}
	serverKeys = keyDirection{ivTag: 'B', keyTag: 'D', macKeyTag: 'F'}
)

// connState is one direction (read or write) of a transport: the raw
// connection plus whatever cipher is currently installed for it.
type connState struct {
	mu         sync.Mutex
	cipher     packetCipher
	compressor compressor
	seqNum     uint32
	strictKex  bool

	// kexOnly is set while a strict-kex exchange is between KEXINIT and
	// NEWKEYS: it disables the usual transparent IGNORE/DEBUG skip and
	// restricts accepted message types to the kex family, per the
	// kex-strict-*-v00@openssh.com extension.
	kexOnly bool
}

func newConnState() *connState {
	return &connState{cipher: noneCipher{}, compressor: noneCompressor{}}
}

// noneCipher is installed before the first NEWKEYS: it passes payload
// through unmodified, framed only by length+padding, no MAC.
type noneCipher struct{}

func (noneCipher) blockSize() int { return 8 }
func (noneCipher) isAEAD() bool   { return false }

func (noneCipher) readPacket(seqNum uint32, r io.Reader) ([]byte, error) {
	return readMACPacket(r, identityStream{}, nil, 8, false, seqNum)
}

func (noneCipher) writeCipherPacket(seqNum uint32, w io.Writer, rnd io.Reader, packet []byte) error {
	return writeMACPacket(w, identityStream{}, nil, 8, false, seqNum, packet)
}

type identityStream struct{}

func (identityStream) XORKeyStream(dst, src []byte) { copy(dst, src) }

// transportState names the points in the handshake/session lifecycle
// the Design Notes' state machine moves through: Tcp (raw socket, no
// version lines yet) -> Versioned (identification strings exchanged)
// -> Kex (first key exchange in progress) -> Running (channel traffic
// flows) -> Rekey (a second-or-later key exchange in progress,
// interleaved with channel traffic per RFC 4253 §9) -> Closing.
type transportState int

const (
	stateTCP transportState = iota
	stateVersioned
	stateKex
	stateRunning
	stateRekey
	stateClosing
)

func (s transportState) String() string {
	switch s {
	case stateTCP:
		return "tcp"
	case stateVersioned:
		return "versioned"
	case stateKex:
		return "kex"
	case stateRunning:
		return "running"
	case stateRekey:
		return "rekey"
	case stateClosing:
		return "closing"
	}
	return "unknown"
}

// transport is the packet layer: it owns the raw connection, the
// read/write halves' installed ciphers, and the handshake state
// machine. Everything above it (client.go, channel.go) only ever sees
// whole decrypted, decompressed payloads via readPacket/writePacket.
type transport struct {
	conn net.Conn
	br   *bufio.Reader
	bw   *bufio.Writer

	reader *connState
	writer *connState

	rand io.Reader
	log  *slog.Logger

	mu    sync.Mutex
	state transportState

	// sessionId freezes to the first kex's H and never changes across
	// rekeys, per RFC 4253 §7.2.
	sessionId []byte

	writeMu sync.Mutex // serializes writePacket against concurrent rekey traffic

	rekeyMu       sync.Mutex
	bytesSinceKex uint64
	lastKex       time.Time

	disconnectOnce sync.Once
}

// rekeyAfterBytes and rekeyAfterInterval are the two independent
// triggers RFC 4253 §9 leaves to implementations: OpenSSH's own
// defaults are approximated here (~1GiB of traffic in either
// direction, or an hour, whichever comes first).
const (
	rekeyAfterBytes    = 1 << 30
	rekeyAfterInterval = time.Hour
)

// accountTraffic records n more bytes having crossed the wire in
// either direction, and reports whether a rekey should now be
// initiated.
func (t *transport) accountTraffic(n int) bool {
	t.rekeyMu.Lock()
	defer t.rekeyMu.Unlock()
	t.bytesSinceKex += uint64(n)
	due := t.bytesSinceKex >= rekeyAfterBytes
	if !t.lastKex.IsZero() && time.Since(t.lastKex) >= rekeyAfterInterval {
		due = true
	}
	return due
}

// noteKexComplete resets the rekey accounting after a key exchange
// (initial or renegotiated) finishes.
func (t *transport) noteKexComplete() {
	t.rekeyMu.Lock()
	t.bytesSinceKex = 0
	t.lastKex = time.Now()
	t.rekeyMu.Unlock()
}

func newTransport(conn net.Conn, rnd io.Reader, log *slog.Logger) *transport {
	if rnd == nil {
		rnd = rand.Reader
	}
	if log == nil {
		log = slog.Default()
	}
	return &transport{
		conn:   conn,
		br:     bufio.NewReader(conn),
		bw:     bufio.NewWriter(conn),
		reader: newConnState(),
		writer: newConnState(),
		rand:   rnd,
		log:    log,
		state:  stateTCP,
	}
}

func (t *transport) setState(s transportState) {
	t.mu.Lock()
	t.log.Debug("transport state transition", "from", t.state.String(), "to", s.String())
	t.state = s
	t.mu.Unlock()
}

func (t *transport) getState() transportState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *transport) Close() error {
	t.setState(stateClosing)
	t.reader.cipher = noneCipher{}
	t.writer.cipher = noneCipher{}
	return t.conn.Close()
}

// disconnect sends SSH_MSG_DISCONNECT with the given reason code and
// description, RFC 4253 §11.1, then closes the transport. It is
// idempotent: only the first call on a given transport actually writes
// the message, since by the time a second fatal error surfaces the
// peer has already been told and the socket is going away regardless.
func (t *transport) disconnect(reason uint32, description string) error {
	t.disconnectOnce.Do(func() {
		msg := disconnectMsg{Reason: reason, Message: description, Language: "en"}
		t.writePacket(marshal(msgDisconnect, msg))
	})
	return t.Close()
}

// disconnectReasonFor maps a fatal transport error to the RFC 4250
// §3.2 reason code the DISCONNECT sent just ahead of closing should
// carry. Errors with no defined mapping don't warrant a DISCONNECT at
// all (e.g. a plain I/O error already means the peer is unreachable).
func disconnectReasonFor(err error) (uint32, bool) {
	switch err.(type) {
	case *ProtocolError, *ParseError:
		return DisconnectProtocolError, true
	case *MacError, *DecryptionError:
		return DisconnectMacError, true
	case *KexFailedError:
		return DisconnectKeyExchangeFailed, true
	}
	return 0, false
}

func (t *transport) RemoteAddr() net.Addr { return t.conn.RemoteAddr() }
func (t *transport) LocalAddr() net.Addr  { return t.conn.LocalAddr() }

func (t *transport) Write(b []byte) (int, error) { return t.bw.Write(b) }
func (t *transport) Flush() error                { return t.bw.Flush() }

// --- version exchange, RFC 4253 §4.2 ---

const maxVersionLineLength = 255

// readVersion reads the identification string, tolerating any number
// of non-"SSH-" prefixed lines before it (servers may send a banner).
func readVersion(r io.Reader) ([]byte, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	for {
		var line []byte
		for {
			b, err := br.ReadByte()
			if err != nil {
				return nil, err
			}
			if b == '\n' {
				break
			}
			line = append(line, b)
			if len(line) > maxVersionLineLength {
				return nil, &ProtocolError{"version line too long"}
			}
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if bytes.HasPrefix(line, []byte("SSH-")) {
			if !bytes.HasPrefix(line, []byte("SSH-2.0-")) && !bytes.HasPrefix(line, []byte("SSH-1.99-")) {
				return nil, &ProtocolError{"unsupported protocol version: " + string(line)}
			}
			return line, nil
		}
	}
}

// --- packet read/write ---

// isKexMessageType reports whether t is one of the key-exchange family
// message numbers, the only types a strict-kex peer may send between
// KEXINIT and NEWKEYS.
func isKexMessageType(t byte) bool {
	switch t {
	case msgKexInit, msgNewKeys, msgKexDHInit, msgKexDHReply, msgKexDHGexInit, msgKexDHGexReply, msgKexDHGexRequest:
		return true
	}
	return false
}

// readPacket reads the next whole payload, transparently absorbing any
// IGNORE/DEBUG messages in between — except while reader.kexOnly is
// set, when even those are a protocol violation (RFC 4253 §9 / the
// kex-strict extension: message sequencing must be exact across the
// whole KEXINIT..NEWKEYS window). Any fatal error is reported to the
// peer with a best-effort DISCONNECT before being returned.
func (t *transport) readPacket() ([]byte, error) {
	t.reader.mu.Lock()
	payload, err := t.readOnePacketLocked()
	t.reader.mu.Unlock()
	if err != nil {
		if reason, ok := disconnectReasonFor(err); ok {
			t.disconnect(reason, err.Error())
		}
		return nil, err
	}
	return payload, nil
}

// readOnePacketLocked reads exactly one wire packet and decides
// whether to recurse (IGNORE/DEBUG absorption) or return it, assuming
// reader.mu is already held.
func (t *transport) readOnePacketLocked() ([]byte, error) {
	payload, err := t.reader.cipher.readPacket(t.reader.seqNum, t.br)
	if err != nil {
		return nil, err
	}
	t.reader.seqNum++

	if len(payload) > 0 {
		if t.reader.kexOnly {
			if !isKexMessageType(payload[0]) {
				return nil, &ProtocolError{fmt.Sprintf("message type %d not permitted between KEXINIT and NEWKEYS under strict kex", payload[0])}
			}
		} else if payload[0] == msgIgnore || payload[0] == msgDebug {
			return t.readOnePacketLocked()
		}
	}

	if _, ok := t.reader.compressor.(noneCompressor); !ok {
		payload, err = t.reader.compressor.decompress(payload)
		if err != nil {
			return nil, &DecryptionError{"decompression failed"}
		}
	}
	t.accountTraffic(len(payload))
	return payload, nil
}

// writePacket pads payload per RFC 4253 §6 and hands it to the
// installed cipher. Padding is randomized (min 4 bytes, rounded up to
// the cipher's block size) rather than fixed, so packet lengths don't
// leak content length beyond what the block size already reveals.
func (t *transport) writePacket(payload []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.writer.mu.Lock()
	defer t.writer.mu.Unlock()

	if _, ok := t.writer.compressor.(noneCompressor); !ok {
		payload = t.writer.compressor.compress(payload)
	}

	blockSize := t.writer.cipher.blockSize()
	if blockSize < 4 {
		blockSize = 4
	}
	paddingLength := blockSize - (len(payload)+5)%blockSize
	if paddingLength < 4 {
		paddingLength += blockSize
	}

	length := 1 + len(payload) + paddingLength
	if 4+length > maxPacket {
		return &PacketTooLarge{Size: 4 + length}
	}
	packet := make([]byte, 0, 4+length)
	packet = appendU32(packet, uint32(length))
	packet = append(packet, byte(paddingLength))
	packet = append(packet, payload...)

	padding := make([]byte, paddingLength)
	if _, err := io.ReadFull(t.rand, padding); err != nil {
		return err
	}
	packet = append(packet, padding...)

	// AEAD ciphers re-derive the length field themselves (it's their
	// AAD) and want it stripped; the classic stream/CBC+MAC ciphers
	// fold the length field into what they encrypt (or, for ETM, send
	// in the clear ahead of it) and need it left in place.
	outgoing := packet
	if t.writer.cipher.isAEAD() {
		outgoing = packet[4:]
	}
	if err := t.writer.cipher.writeCipherPacket(t.writer.seqNum, t.bw, t.rand, outgoing); err != nil {
		return err
	}
	t.writer.seqNum++
	if err := t.bw.Flush(); err != nil {
		return err
	}
	t.accountTraffic(len(payload))
	return nil
}

// needsRekey reports whether the traffic budget (one byte count shared
// by both directions) or the elapsed-time budget has been exceeded since the last completed key
// exchange.
func (t *transport) needsRekey() bool {
	return t.accountTraffic(0)
}

// --- key installation and strict-kex sequence reset ---

func (d keyDirection) derive(result *kexResult, sessionId []byte, size, ivSize int) (key, iv []byte) {
	key = deriveKeys(result.Hash, result.secret(), result.H, sessionId, d.keyTag, size)
	iv = deriveKeys(result.Hash, result.secret(), result.H, sessionId, d.ivTag, ivSize)
	return
}

// installKeys installs a new packetCipher for dir's half of the
// connection, derived from a completed kex. strict reports whether
// both peers negotiated kex-strict-*-v00@openssh.com, in which case
// the sequence number resets to zero immediately after NEWKEYS instead
// of continuing to increment from before the exchange (spec.md §7).
func (t *transport) installKeys(half *connState, d keyDirection, a *algorithms, cipherName, macName string, result *kexResult, strict bool) error {
	mode, ok := cipherModes[cipherName]
	if !ok {
		return &KexFailedError{"unsupported cipher: " + cipherName}
	}

	var macM *macMode
	var macKeySize int
	if !mode.isAEAD {
		macM, ok = macModes[macName]
		if !ok {
			return &KexFailedError{"unsupported MAC: " + macName}
		}
		macKeySize = macM.length
	}

	key, iv := d.derive(result, t.sessionId, mode.keySize, mode.ivSize)
	var macKey []byte
	if macKeySize > 0 {
		macKey = deriveKeys(result.Hash, result.secret(), result.H, t.sessionId, d.macKeyTag, macKeySize)
	}

	cipher, err := mode.create(key, iv, macM, macKey, macM != nil && macM.etm)
	if err != nil {
		return err
	}

	half.mu.Lock()
	half.cipher = cipher
	if strict {
		half.seqNum = 0
	}
	half.strictKex = strict
	half.mu.Unlock()
	return nil
}
