// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"hash"
	"io"
	"math/big"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	"golang.org/x/crypto/curve25519"
)

// Key exchange algorithm names. RFC 4253 §8, RFC 4419, RFC 5656, plus
// the OpenSSH curve25519 and hybrid post-quantum extensions.
const (
	kexAlgoDH14SHA1               = "diffie-hellman-group14-sha1"
	kexAlgoDH14SHA256             = "diffie-hellman-group14-sha256"
	kexAlgoDHGEXSHA256            = "diffie-hellman-group-exchange-sha256"
	kexAlgoDHGEXSHA1              = "diffie-hellman-group-exchange-sha1"
	kexAlgoECDH256                = "ecdh-sha2-nistp256"
	kexAlgoECDH384                = "ecdh-sha2-nistp384"
	kexAlgoECDH521                = "ecdh-sha2-nistp521"
	kexAlgoCurve25519SHA256       = "curve25519-sha256"
	kexAlgoCurve25519SHA256LibSSH = "curve25519-sha256@libssh.org"
	kexAlgoMLKEM768X25519         = "mlkem768x25519-sha256"
)

// kexResult carries everything a completed key exchange round hands to
// the transport: the new shared secret K, the exchange hash H (which,
// on the very first kex, freezes into the connection's session_id), the
// server host key and its signature over H for verification, and the
// hash constructor the six derived keys (tags 'A'..'F') are drawn with.
type kexResult struct {
	H         []byte
	K         *big.Int
	HostKey   []byte
	Signature []byte
	Hash      func() hash.Hash

	// rawK carries the shared secret for the hybrid PQ method, whose
	// secret isn't naturally a *big.Int; K is left nil and secret returns
	// this instead. The ECDH and curve25519 methods set K.
	rawK []byte
}

// secret returns the shared secret for inclusion in the exchange hash:
// K encoded as an mpint (RFC 5656 §4's "encode as mpint, even though
// raw" treatment of EC shared secrets) when K is set, otherwise rawK
// exactly as stored, with no further encoding.
func (r *kexResult) secret() []byte {
	if r.K != nil {
		return appendMpint(nil, r.K)
	}
	return r.rawK
}

// kexMethod generalizes every key exchange algorithm family — classical
// finite-field DH (fixed group or negotiated group-exchange), elliptic
// curve DH (NIST curves or curve25519), and the hybrid post-quantum
// method — behind one shape: given what the client sent and the
// server's reply, produce a kexResult. Methods that need a second round
// trip (group-exchange) or to send their own request first implement
// that by driving the packetConn they're handed directly.
type kexMethod interface {
	// client runs the client side of the exchange against conn, given
	// the two KEXINIT payloads and identification strings already
	// exchanged (magics) and the server's host key (validated by the
	// caller once this returns).
	client(conn packetConn, magics *handshakeMagics, hostKeyAlgo string) (*kexResult, error)
}

// packetConn is the minimal surface kexMethod needs from the transport:
// read and write a single already-framed packet payload.
type packetConn interface {
	readPacket() ([]byte, error)
	writePacket(packet []byte) error
}

func hashFor(algo string) func() hash.Hash {
	switch algo {
	case kexAlgoDH14SHA1:
		return sha1.New
	case kexAlgoECDH384:
		return sha512.New384
	case kexAlgoECDH521:
		return sha512.New
	default:
		return sha256.New
	}
}

// exchangeHash computes H = hash(V_C || V_S || I_C || I_S || K_S || <kex-specific> || K)
// per RFC 4253 §8. kexSpecific is the method-specific middle portion:
// for fixed DH, e and f; for ECDH/curve25519, Q_C and Q_S; for the
// hybrid method, the concatenated client and server exchange values.
func exchangeHash(newHash func() hash.Hash, magics *handshakeMagics, hostKeyBlob []byte, kexSpecific []byte, secret []byte) []byte {
	h := newHash()
	writeString(h, magics.clientVersion)
	writeString(h, magics.serverVersion)
	writeString(h, magics.clientKexInit)
	writeString(h, magics.serverKexInit)
	writeString(h, hostKeyBlob)
	h.Write(kexSpecific)
	h.Write(secret)
	return h.Sum(nil)
}

func writeString(h hash.Hash, s []byte) {
	var length [4]byte
	length[0] = byte(len(s) >> 24)
	length[1] = byte(len(s) >> 16)
	length[2] = byte(len(s) >> 8)
	length[3] = byte(len(s))
	h.Write(length[:])
	h.Write(s)
}

// --- fixed-group and group-exchange classical Diffie-Hellman ---

var dhGroup14Params = &dhGroup{
	g: new(big.Int).SetInt64(2),
	p: bigFromHex(dhGroup14ModulusHex),
}

func bigFromHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("ssh: invalid hex constant")
	}
	return n
}

// dhGroup14ModulusHex is the RFC 3526 §3 2048-bit MODP group.
const dhGroup14ModulusHex = "FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD" +
	"129024E088A67CC74020BBEA63B139B22514A08798E3404DDEF9519B3CD3A43" +
	"1B302B0A6DF25F14374FE1356D6D51C245E485B576625E7EC6F44C42E9A637E" +
	"D6B0BFF5CB6F406B7EDEE386BFB5A899FA5AE9F24117C4B1FE649286651ECE4" +
	"5B3DC2007CB8A163BF0598DA48361C55D39A69163FA8FD24CF5F83655D23DCA" +
	"3AD961C62F356208552BB9ED529077096966D670C354E4ABC9804F1746C08CA" +
	"237327FFFFFFFFFFFFFFFF"

// dhGroupExchangeMinBits/PreferredBits/MaxBits are the group-size range
// a client requests in KEXDH_GEX_REQUEST, RFC 4419 §3.
const (
	dhGroupExchangeMinBits       = 2048
	dhGroupExchangePreferredBits = 3072
	dhGroupExchangeMaxBits       = 8192
)

// dhGroupKex implements both the fixed group14 kex methods and the
// negotiated group-exchange variant: group is non-nil for the fixed
// forms, nil for group-exchange (the group arrives in the server's
// GEX_GROUP reply instead).
type dhGroupKex struct {
	group    *dhGroup
	hashFunc func() hash.Hash
}

func (kex *dhGroupKex) client(conn packetConn, magics *handshakeMagics, hostKeyAlgo string) (*kexResult, error) {
	group := kex.group
	if group == nil {
		if err := conn.writePacket(marshal(msgKexDHGexRequest, kexDHGexRequestMsg{
			Min: dhGroupExchangeMinBits,
			N:   dhGroupExchangePreferredBits,
			Max: dhGroupExchangeMaxBits,
		})); err != nil {
			return nil, err
		}
		packet, err := conn.readPacket()
		if err != nil {
			return nil, err
		}
		var groupMsg kexDHGexGroupMsg
		if err := unmarshal(&groupMsg, packet, msgKexDHGexGroup); err != nil {
			return nil, err
		}
		group = &dhGroup{g: groupMsg.G, p: groupMsg.P}
	}

	x, err := randomInRange(group.p)
	if err != nil {
		return nil, err
	}
	e := new(big.Int).Exp(group.g, x, group.p)

	if kex.group == nil {
		if err := conn.writePacket(marshal(msgKexDHGexInit, kexDHGexInitMsg{X: e})); err != nil {
			return nil, err
		}
	} else {
		if err := conn.writePacket(marshal(msgKexDHInit, kexDHInitMsg{X: e})); err != nil {
			return nil, err
		}
	}

	packet, err := conn.readPacket()
	if err != nil {
		return nil, err
	}

	var f *big.Int
	var hostKeyBlob, sigBlob []byte
	if kex.group == nil {
		var reply kexDHGexReplyMsg
		if err := unmarshal(&reply, packet, msgKexDHGexReply); err != nil {
			return nil, err
		}
		f, hostKeyBlob, sigBlob = reply.Y, reply.HostKey, reply.Signature
	} else {
		var reply kexDHReplyMsg
		if err := unmarshal(&reply, packet, msgKexDHReply); err != nil {
			return nil, err
		}
		f, hostKeyBlob, sigBlob = reply.Y, reply.HostKey, reply.Signature
	}

	ki, err := group.diffieHellman(f, x)
	if err != nil {
		return nil, err
	}

	var kexSpecific []byte
	if kex.group == nil {
		kexSpecific = appendU32(nil, dhGroupExchangeMinBits)
		kexSpecific = appendU32(kexSpecific, dhGroupExchangePreferredBits)
		kexSpecific = appendU32(kexSpecific, dhGroupExchangeMaxBits)
		kexSpecific = appendMpint(kexSpecific, group.p)
		kexSpecific = appendMpint(kexSpecific, group.g)
		kexSpecific = appendMpint(kexSpecific, e)
		kexSpecific = appendMpint(kexSpecific, f)
	} else {
		kexSpecific = appendMpint(nil, e)
		kexSpecific = appendMpint(kexSpecific, f)
	}

	h := exchangeHash(kex.hashFunc, magics, hostKeyBlob, kexSpecific, appendMpint(nil, ki))
	return &kexResult{
		H:         h,
		K:         ki,
		HostKey:   hostKeyBlob,
		Signature: sigBlob,
		Hash:      kex.hashFunc,
	}, nil
}

func randomInRange(p *big.Int) (*big.Int, error) {
	max := new(big.Int).Sub(p, big.NewInt(3))
	x, err := rand.Int(rand.Reader, max)
	if err != nil {
		return nil, err
	}
	return x.Add(x, big.NewInt(2)), nil
}

// --- NIST-curve ECDH, RFC 5656 ---

type ecdhKex struct {
	curve ecdh.Curve
}

func (kex *ecdhKex) client(conn packetConn, magics *handshakeMagics, hostKeyAlgo string) (*kexResult, error) {
	priv, err := kex.curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	if err := conn.writePacket(marshal(msgKexECDHInit, kexECDHInitMsg{ClientPubKey: priv.PublicKey().Bytes()})); err != nil {
		return nil, err
	}

	packet, err := conn.readPacket()
	if err != nil {
		return nil, err
	}
	var reply kexECDHReplyMsg
	if err := unmarshal(&reply, packet, msgKexECDHReply); err != nil {
		return nil, err
	}

	peer, err := kex.curve.NewPublicKey(reply.EphemeralPubKey)
	if err != nil {
		return nil, &KexFailedError{"invalid server ECDH public value"}
	}
	secret, err := priv.ECDH(peer)
	if err != nil {
		return nil, &KexFailedError{"ECDH computation failed"}
	}

	kexSpecific := appendString(nil, string(priv.PublicKey().Bytes()))
	kexSpecific = appendString(kexSpecific, string(reply.EphemeralPubKey))

	newHash := hashFor(ecdhHashName(kex.curve))
	h := exchangeHash(newHash, magics, reply.HostKey, kexSpecific, appendMpint(nil, new(big.Int).SetBytes(secret)))
	return &kexResult{
		H:         h,
		K:         new(big.Int).SetBytes(secret),
		HostKey:   reply.HostKey,
		Signature: reply.Signature,
		Hash:      newHash,
	}, nil
}

func ecdhHashName(curve ecdh.Curve) string {
	switch curve {
	case ecdh.P384():
		return kexAlgoECDH384
	case ecdh.P521():
		return kexAlgoECDH521
	default:
		return kexAlgoECDH256
	}
}

// --- curve25519-sha256 / curve25519-sha256@libssh.org, RFC 8731 ---

type curve25519Kex struct{}

func (curve25519Kex) client(conn packetConn, magics *handshakeMagics, hostKeyAlgo string) (*kexResult, error) {
	var priv [32]byte
	if _, err := io.ReadFull(rand.Reader, priv[:]); err != nil {
		return nil, err
	}
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64

	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}

	if err := conn.writePacket(marshal(msgKexECDHInit, kexECDHInitMsg{ClientPubKey: pub})); err != nil {
		return nil, err
	}

	packet, err := conn.readPacket()
	if err != nil {
		return nil, err
	}
	var reply kexECDHReplyMsg
	if err := unmarshal(&reply, packet, msgKexECDHReply); err != nil {
		return nil, err
	}
	if len(reply.EphemeralPubKey) != 32 {
		return nil, &KexFailedError{"invalid server curve25519 public value"}
	}

	secret, err := curve25519.X25519(priv[:], reply.EphemeralPubKey)
	if err != nil {
		return nil, &KexFailedError{"curve25519 computation failed"}
	}
	if allZero(secret) {
		return nil, &KexFailedError{"curve25519 produced an all-zero shared secret"}
	}

	kexSpecific := appendString(nil, string(pub))
	kexSpecific = appendString(kexSpecific, string(reply.EphemeralPubKey))

	h := exchangeHash(sha256.New, magics, reply.HostKey, kexSpecific, appendMpint(nil, new(big.Int).SetBytes(secret)))
	return &kexResult{
		H:         h,
		K:         new(big.Int).SetBytes(secret),
		HostKey:   reply.HostKey,
		Signature: reply.Signature,
		Hash:      sha256.New,
	}, nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// --- mlkem768x25519-sha256, the post-quantum hybrid method ---
//
// Concatenates an ML-KEM-768 encapsulation key with an X25519 public
// value in one client message; the server's reply carries the
// ciphertext and its own X25519 value concatenated the same way. The
// two shared secrets are concatenated (ML-KEM first) and hashed
// directly into the exchange hash, matching the sntrup/x25519 hybrid
// convention this method is modelled on.
type hybridKex struct{}

func (hybridKex) client(conn packetConn, magics *handshakeMagics, hostKeyAlgo string) (*kexResult, error) {
	pk, sk, err := mlkem768.GenerateKeyPair(rand.Reader)
	if err != nil {
		return nil, err
	}
	pkBytes, err := pk.MarshalBinary()
	if err != nil {
		return nil, err
	}

	var xPriv [32]byte
	if _, err := io.ReadFull(rand.Reader, xPriv[:]); err != nil {
		return nil, err
	}
	xPriv[0] &= 248
	xPriv[31] &= 127
	xPriv[31] |= 64
	xPub, err := curve25519.X25519(xPriv[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}

	clientValue := append(append([]byte(nil), pkBytes...), xPub...)
	if err := conn.writePacket(marshal(msgKexECDHInit, kexECDHInitMsg{ClientPubKey: clientValue})); err != nil {
		return nil, err
	}

	packet, err := conn.readPacket()
	if err != nil {
		return nil, err
	}
	var reply kexECDHReplyMsg
	if err := unmarshal(&reply, packet, msgKexECDHReply); err != nil {
		return nil, err
	}
	if len(reply.EphemeralPubKey) != mlkem768.CiphertextSize+32 {
		return nil, &KexFailedError{"invalid server hybrid kex reply length"}
	}
	ciphertext := reply.EphemeralPubKey[:mlkem768.CiphertextSize]
	serverXPub := reply.EphemeralPubKey[mlkem768.CiphertextSize:]

	kemSecret := make([]byte, mlkem768.SharedKeySize)
	sk.DecapsulateTo(kemSecret, ciphertext)

	xSecret, err := curve25519.X25519(xPriv[:], serverXPub)
	if err != nil {
		return nil, &KexFailedError{"curve25519 component of hybrid kex failed"}
	}
	if allZero(xSecret) {
		return nil, &KexFailedError{"hybrid kex produced an all-zero X25519 component"}
	}

	secret := append(append([]byte(nil), kemSecret...), xSecret...)

	kexSpecific := appendString(nil, string(clientValue))
	kexSpecific = appendString(kexSpecific, string(reply.EphemeralPubKey))

	h := exchangeHash(sha256.New, magics, reply.HostKey, kexSpecific, secret)
	return &kexResult{
		H:         h,
		rawK:      secret,
		HostKey:   reply.HostKey,
		Signature: reply.Signature,
		Hash:      sha256.New,
	}, nil
}

// kexMethodFor resolves the negotiated kex algorithm name to a
// kexMethod implementation.
func kexMethodFor(name string) (kexMethod, error) {
	switch name {
	case kexAlgoDH14SHA1:
		return &dhGroupKex{group: dhGroup14Params, hashFunc: sha1.New}, nil
	case kexAlgoDH14SHA256:
		return &dhGroupKex{group: dhGroup14Params, hashFunc: sha256.New}, nil
	case kexAlgoDHGEXSHA256:
		return &dhGroupKex{group: nil, hashFunc: sha256.New}, nil
	case kexAlgoDHGEXSHA1:
		return &dhGroupKex{group: nil, hashFunc: sha1.New}, nil
	case kexAlgoECDH256:
		return &ecdhKex{curve: ecdh.P256()}, nil
	case kexAlgoECDH384:
		return &ecdhKex{curve: ecdh.P384()}, nil
	case kexAlgoECDH521:
		return &ecdhKex{curve: ecdh.P521()}, nil
	case kexAlgoCurve25519SHA256, kexAlgoCurve25519SHA256LibSSH:
		return curve25519Kex{}, nil
	case kexAlgoMLKEM768X25519:
		return hybridKex{}, nil
	}
	return nil, &KexFailedError{"unsupported key exchange algorithm: " + name}
}

// deriveKeys expands the exchange hash and shared secret into the six
// session keys (tags 'A' through 'F'), RFC 4253 §7.2. sessionId is the
// hash from the very first kex, frozen for the lifetime of the
// connection even across rekeys.
func deriveKeys(newHash func() hash.Hash, secret []byte, H, sessionId []byte, tag byte, size int) []byte {
	var digest []byte
	h := newHash()
	for len(digest) < size {
		h.Reset()
		h.Write(secret)
		h.Write(H)
		if len(digest) == 0 {
			h.Write([]byte{tag})
			h.Write(sessionId)
		} else {
			h.Write(digest)
		}
		digest = h.Sum(digest)
	}
	return digest[:size]
}

var errNoCommonKex = errors.New("ssh: no common key exchange algorithm")
