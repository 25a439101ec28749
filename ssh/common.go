// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"errors"
	"math/big"
	"sync"

	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
)

// serviceUserAuth is the service an authenticator requests with
// SERVICE_REQUEST after the first NEWKEYS (NoAuth in auth.go does so);
// serviceSSH is the service named in its USERAUTH_REQUEST.
const serviceSSH = "ssh-connection"
const serviceUserAuth = "ssh-userauth"

// handshakeMagics holds the four byte-strings the exchange hash is
// computed over: the identification strings and KEXINIT payloads of
// both sides, each included length-prefixed per RFC 4253 §8.
type handshakeMagics struct {
	clientVersion, serverVersion []byte
	clientKexInit, serverKexInit []byte
}

func findCommonAlgorithm(clientAlgos []string, serverAlgos []string) (commonAlgo string, ok bool) {
	for _, clientAlgo := range clientAlgos {
		for _, serverAlgo := range serverAlgos {
			if clientAlgo == serverAlgo {
				return clientAlgo, true
			}
		}
	}
	return
}

func findCommonCipher(clientCiphers []string, serverCiphers []string) (commonCipher string, ok bool) {
	for _, clientCipher := range clientCiphers {
		for _, serverCipher := range serverCiphers {
			// reject the cipher if we have no cipherModes definition
			if clientCipher == serverCipher && cipherModes[clientCipher] != nil {
				return clientCipher, true
			}
		}
	}
	return
}

// algorithms is the outcome of intersecting a client KEXINIT with a
// server KEXINIT per RFC 4253 §7.1: the first client-preferred name
// found in the server's offer wins, independently for each slot. AEAD
// ciphers leave the corresponding MAC slot empty.
type algorithms struct {
	kex         string
	hostKey     string
	cipherC2S   string
	cipherS2C   string
	macC2S      string
	macS2C      string
	compressC2S string
	compressS2C string
}

func findAgreedAlgorithms(clientKexInit, serverKexInit *kexInitMsg) (*algorithms, error) {
	var a algorithms
	var ok bool

	a.kex, ok = findCommonAlgorithm(clientKexInit.KexAlgos, serverKexInit.KexAlgos)
	if !ok {
		return nil, &KexFailedError{"no common kex algorithm"}
	}
	a.hostKey, ok = findCommonAlgorithm(clientKexInit.ServerHostKeyAlgos, serverKexInit.ServerHostKeyAlgos)
	if !ok {
		return nil, &KexFailedError{"no common host key algorithm"}
	}
	a.cipherC2S, ok = findCommonCipher(clientKexInit.CiphersClientServer, serverKexInit.CiphersClientServer)
	if !ok {
		return nil, &KexFailedError{"no common client->server cipher"}
	}
	a.cipherS2C, ok = findCommonCipher(clientKexInit.CiphersServerClient, serverKexInit.CiphersServerClient)
	if !ok {
		return nil, &KexFailedError{"no common server->client cipher"}
	}
	if !cipherModes[a.cipherC2S].isAEAD {
		a.macC2S, ok = findCommonAlgorithm(clientKexInit.MACsClientServer, serverKexInit.MACsClientServer)
		if !ok {
			return nil, &KexFailedError{"no common client->server MAC"}
		}
	}
	if !cipherModes[a.cipherS2C].isAEAD {
		a.macS2C, ok = findCommonAlgorithm(clientKexInit.MACsServerClient, serverKexInit.MACsServerClient)
		if !ok {
			return nil, &KexFailedError{"no common server->client MAC"}
		}
	}
	a.compressC2S, ok = findCommonAlgorithm(clientKexInit.CompressionClientServer, serverKexInit.CompressionClientServer)
	if !ok {
		return nil, &KexFailedError{"no common client->server compression"}
	}
	a.compressS2C, ok = findCommonAlgorithm(clientKexInit.CompressionServerClient, serverKexInit.CompressionServerClient)
	if !ok {
		return nil, &KexFailedError{"no common server->client compression"}
	}
	return &a, nil
}

// CryptoConfig holds the cryptographic preference lists for a
// ClientConfig. A zero value falls back to the catalogue defaults
// (catalogue.go) for every slot.
type CryptoConfig struct {
	// The allowed key exchange algorithms, in preference order.
	KeyExchanges []string

	// The allowed cipher algorithms, in preference order.
	Ciphers []string

	// The allowed MAC algorithms, in preference order.
	MACs []string

	// The allowed compression algorithms, in preference order.
	Compressions []string

	// The allowed host-key algorithms, in preference order.
	HostKeyAlgorithms []string
}

func (c *CryptoConfig) ciphers() []string {
	if c.Ciphers == nil {
		return defaultCipherOrder
	}
	return c.Ciphers
}

func (c *CryptoConfig) kexes() []string {
	if c.KeyExchanges == nil {
		return defaultKeyExchangeOrder
	}
	return c.KeyExchanges
}

func (c *CryptoConfig) macs() []string {
	if c.MACs == nil {
		return defaultMACOrder
	}
	return c.MACs
}

func (c *CryptoConfig) compressions() []string {
	if c.Compressions == nil {
		return defaultCompressionOrder
	}
	return c.Compressions
}

func (c *CryptoConfig) hostKeyAlgorithms() []string {
	if c.HostKeyAlgorithms == nil {
		return defaultHostKeyOrder
	}
	return c.HostKeyAlgorithms
}

// serializeSignature serializes a signed blob according to RFC 4254 §6.6.
// name should be a key type name, not a cert type name.
func serializeSignature(name string, sig []byte) []byte {
	length := stringLength(len(name))
	length += stringLength(len(sig))

	ret := make([]byte, length)
	r := marshalString(ret, []byte(name))
	marshalString(r, sig)

	return ret
}

// MarshalPublicKey serializes a supported key or certificate for use by
// the SSH wire protocol, e.g. for comparison against a host-key callback
// argument or for writing an authorized_keys-style line.
func MarshalPublicKey(key PublicKey) []byte {
	algoname := key.PrivateKeyAlgo()
	blob := key.Marshal()

	length := stringLength(len(algoname))
	length += len(blob)
	ret := make([]byte, length)
	r := marshalString(ret, []byte(algoname))
	copy(r, blob)
	return ret
}

// pubAlgoToPrivAlgo returns the private key algorithm format name
// corresponding to a public key algorithm format name. For most keys the
// two are the same; OpenSSH certificates differ.
func pubAlgoToPrivAlgo(pubAlgo string) string {
	switch pubAlgo {
	case CertAlgoRSAv01:
		return KeyAlgoRSA
	case CertAlgoECDSA256v01:
		return KeyAlgoECDSA256
	case CertAlgoECDSA384v01:
		return KeyAlgoECDSA384
	case CertAlgoECDSA521v01:
		return KeyAlgoECDSA521
	case CertAlgoED25519v01:
		return KeyAlgoED25519
	}
	return pubAlgo
}

// buildDataSignedForAuth returns the data an authenticator signs to
// prove possession of a private key. See RFC 4252 §7. Kept here because
// it depends only on the sessionId the transport freezes at first
// NEWKEYS, not on any authentication method's own state.
func buildDataSignedForAuth(sessionId []byte, req userAuthRequestMsg, algo, pubKey []byte) []byte {
	user := []byte(req.User)
	service := []byte(req.Service)
	method := []byte(req.Method)

	length := stringLength(len(sessionId))
	length += 1
	length += stringLength(len(user))
	length += stringLength(len(service))
	length += stringLength(len(method))
	length += 1
	length += stringLength(len(algo))
	length += stringLength(len(pubKey))

	ret := make([]byte, length)
	r := marshalString(ret, sessionId)
	r[0] = msgUserAuthRequest
	r = r[1:]
	r = marshalString(r, user)
	r = marshalString(r, service)
	r = marshalString(r, method)
	r[0] = 1
	r = r[1:]
	r = marshalString(r, algo)
	marshalString(r, pubKey)
	return ret
}

// safeString sanitises s according to RFC 4251 §9.2: all control
// characters except tab, carriage return and newline are replaced by a
// space, so a malicious banner or DEBUG message can't smuggle terminal
// escapes into a log line.
func safeString(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c < 0x20 && c != 0xd && c != 0xa && c != 0x9 {
			out[i] = 0x20
		}
	}
	return string(out)
}

func appendU16(buf []byte, n uint16) []byte {
	return append(buf, byte(n>>8), byte(n))
}

func appendU32(buf []byte, n uint32) []byte {
	return append(buf, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

func appendU64(buf []byte, n uint64) []byte {
	return append(buf,
		byte(n>>56), byte(n>>48), byte(n>>40), byte(n>>32),
		byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

func appendInt(buf []byte, n int) []byte {
	return appendU32(buf, uint32(n))
}

func appendString(buf []byte, s string) []byte {
	buf = appendU32(buf, uint32(len(s)))
	buf = append(buf, s...)
	return buf
}

func appendBool(buf []byte, b bool) []byte {
	if b {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

// appendNameList appends a comma-separated name-list. An empty list
// produces a zero-length string; parseNameList must invert this exactly,
// producing nil rather than a one-element slice containing "".
func appendNameList(buf []byte, names []string) []byte {
	length := 0
	for i, n := range names {
		if i != 0 {
			length++
		}
		length += len(n)
	}
	buf = appendU32(buf, uint32(length))
	for i, n := range names {
		if i != 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, n...)
	}
	return buf
}

// appendMpint appends n as an SSH mpint: length-prefixed, shortest
// two's-complement big-endian form, with a leading 0x00 inserted when
// the high bit of the first byte would otherwise be set. RFC 4251 §5.
// Only non-negative values occur on this side of the protocol (shared
// secrets, DH public values).
func appendMpint(buf []byte, n *big.Int) []byte {
	if n.Sign() == 0 {
		return appendU32(buf, 0)
	}
	if n.Sign() < 0 {
		panic("ssh: negative mpint not supported")
	}
	bytes := n.Bytes()
	needsPad := bytes[0]&0x80 != 0
	length := len(bytes)
	if needsPad {
		length++
	}
	buf = appendU32(buf, uint32(length))
	if needsPad {
		buf = append(buf, 0)
	}
	return append(buf, bytes...)
}

// marshalMpint writes n into the head of a preallocated destination
// buffer (the in-place counterpart to appendMpint) and returns the
// remainder, for fixed-layout marshalling such as
// rsaPublicKey.Marshal (through marshalInt).
func marshalMpint(to []byte, n *big.Int) []byte {
	if n.Sign() < 0 {
		panic("ssh: negative mpint not supported")
	}
	if n.Sign() == 0 {
		return marshalUint32(to, 0)
	}
	bytes := n.Bytes()
	needsPad := bytes[0]&0x80 != 0
	length := len(bytes)
	if needsPad {
		length++
	}
	to = marshalUint32(to, uint32(length))
	if needsPad {
		to[0] = 0
		to = to[1:]
	}
	m := copy(to, bytes)
	return to[m:]
}

func intLength(n *big.Int) int {
	length := 4
	if n.Sign() < 0 {
		panic("ssh: negative mpint not supported")
	} else if n.Sign() == 0 {
		return length
	}
	bytes := n.Bytes()
	length += len(bytes)
	if bytes[0]&0x80 != 0 {
		length++
	}
	return length
}

func marshalInt(to []byte, n *big.Int) []byte {
	return marshalMpint(to, n)
}

func stringLength(n int) int {
	return 4 + n
}

// marshalString writes a length-prefixed byte-string into the head of a
// preallocated destination buffer and returns the remainder.
func marshalString(to []byte, s []byte) []byte {
	to = marshalUint32(to, uint32(len(s)))
	n := copy(to, s)
	return to[n:]
}

// marshalUint32/marshalUint64 write a fixed-size big-endian field into
// the head of a preallocated destination buffer, returning the
// remainder — the in-place counterpart to appendU32/appendU64, used by
// certs.go's fixed-layout OpenSSH certificate marshalling.
func marshalUint32(to []byte, n uint32) []byte {
	to[0] = byte(n >> 24)
	to[1] = byte(n >> 16)
	to[2] = byte(n >> 8)
	to[3] = byte(n)
	return to[4:]
}

func marshalUint64(to []byte, n uint64) []byte {
	to = marshalUint32(to, uint32(n>>32))
	return marshalUint32(to, uint32(n))
}

// parseUint32 reads a big-endian uint32, failing on truncation.
func parseUint32(in []byte) (uint32, []byte, bool) {
	if len(in) < 4 {
		return 0, nil, false
	}
	return uint32(in[0])<<24 | uint32(in[1])<<16 | uint32(in[2])<<8 | uint32(in[3]), in[4:], true
}

func parseUint64(in []byte) (uint64, []byte, bool) {
	if len(in) < 8 {
		return 0, nil, false
	}
	v := uint64(0)
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(in[i])
	}
	return v, in[8:], true
}

// parseString reads a length-prefixed opaque byte-string. Fails on
// truncation, a length overflowing int32, or a length exceeding the
// remaining buffer.
func parseString(in []byte) ([]byte, []byte, bool) {
	n, rest, ok := parseUint32(in)
	if !ok || int32(n) < 0 || n > uint32(len(rest)) {
		return nil, nil, false
	}
	return rest[:n], rest[n:], true
}

// parseNameList reads a length-prefixed comma-separated ASCII name-list.
// An empty payload yields a nil slice rather than a one-element slice
// containing "". The final element is not treated specially: a payload
// ending in a comma yields a trailing empty-string element, matching
// exactly what appendNameList would have produced for such an (invalid)
// input rather than silently dropping data.
func parseNameList(in []byte) ([]string, []byte, bool) {
	s, rest, ok := parseString(in)
	if !ok {
		return nil, nil, false
	}
	if len(s) == 0 {
		return nil, rest, true
	}
	var list []string
	start := 0
	for i, c := range s {
		if c == ',' {
			list = append(list, string(s[start:i]))
			start = i + 1
		}
	}
	list = append(list, string(s[start:]))
	return list, rest, true
}

// parseMpint reads an SSH mpint into a *big.Int. A set high bit on the
// first byte without the corresponding 0x00 padding byte is rejected,
// matching the "shortest form" invariant of RFC 4251 §5.
func parseMpint(in []byte) (*big.Int, []byte, bool) {
	s, rest, ok := parseString(in)
	if !ok {
		return nil, nil, false
	}
	if len(s) > 0 && s[0]&0x80 != 0 {
		return nil, nil, false
	}
	return new(big.Int).SetBytes(s), rest, true
}

// dhGroup is a multiplicative group suitable for Diffie-Hellman key
// agreement (kex.go uses this for the fixed-group kex methods).
type dhGroup struct {
	g, p *big.Int
}

func (group *dhGroup) diffieHellman(theirPublic, myPrivate *big.Int) (*big.Int, error) {
	if theirPublic.Sign() <= 0 || theirPublic.Cmp(group.p) >= 0 {
		return nil, errors.New("ssh: DH parameter out of bounds")
	}
	return new(big.Int).Exp(theirPublic, myPrivate, group.p), nil
}

// newCond hides the fact that sync.Cond has no usable zero value.
func newCond() *sync.Cond { return sync.NewCond(new(sync.Mutex)) }

// window represents the buffer available to a sender wishing to write
// to a channel (§3 Channel: local/remote windows both use this type).
type window struct {
	*sync.Cond
	win    uint32 // RFC 4254 §5.2: the window size can grow to 2^32-1
	closed bool
}

func newWindow() *window {
	return &window{Cond: newCond()}
}

// add adds win to the available window, waking any blocked reserve.
func (w *window) add(win uint32) bool {
	if win == 0 {
		return true
	}
	w.L.Lock()
	defer w.L.Unlock()
	if w.win+win < win {
		return false
	}
	w.win += win
	// Multiple goroutines reserving window concurrently is unusual but
	// not forbidden; wake everyone and let them re-check.
	w.Broadcast()
	return true
}

// reserve reserves up to win bytes of window capacity, blocking while
// none is available. It returns ok=false without reserving anything if
// the window is closed (channel or transport torn down) while waiting.
func (w *window) reserve(win uint32) (uint32, bool) {
	w.L.Lock()
	defer w.L.Unlock()
	for w.win == 0 && !w.closed {
		w.Wait()
	}
	if w.closed {
		return 0, false
	}
	if w.win < win {
		win = w.win
	}
	w.win -= win
	return win, true
}

// consume deducts n from the window without blocking, reporting whether
// enough budget remained. Used to enforce a sender's own commitment
// inbound, where running over it is a protocol violation to reject, not
// a shortage to wait out the way reserve does on the write side.
func (w *window) consume(n uint32) bool {
	w.L.Lock()
	defer w.L.Unlock()
	if n > w.win {
		return false
	}
	w.win -= n
	return true
}

// close wakes every waiter so a failing transport or closing channel
// unblocks all pending writers instead of hanging them forever.
func (w *window) close() {
	w.L.Lock()
	w.closed = true
	w.Broadcast()
	w.L.Unlock()
}
