// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"crypto/rand"
	"crypto/sha256"
	"io"
	"math/big"
	"testing"

	"golang.org/x/crypto/curve25519"
)

// loopbackConn is a minimal in-memory packetConn pair for driving a
// kexMethod's client side against a hand-rolled server side in the same
// process, without a real transport.
type loopbackConn struct {
	out chan []byte
	in  chan []byte
}

func newLoopback() (client, server *loopbackConn) {
	a := make(chan []byte, 4)
	b := make(chan []byte, 4)
	return &loopbackConn{out: a, in: b}, &loopbackConn{out: b, in: a}
}

func (l *loopbackConn) writePacket(p []byte) error {
	l.out <- append([]byte(nil), p...)
	return nil
}

func (l *loopbackConn) readPacket() ([]byte, error) {
	return <-l.in, nil
}

func TestCurve25519KexClientLoopback(t *testing.T) {
	client, server := newLoopback()
	magics := &handshakeMagics{
		clientVersion: []byte("SSH-2.0-c"),
		serverVersion: []byte("SSH-2.0-s"),
		clientKexInit: []byte("ckex"),
		serverKexInit: []byte("skex"),
	}
	hostKey := []byte("fake-host-key-blob")
	sig := []byte("fake-signature")

	type serverResult struct {
		secret []byte
		err    error
	}
	serverDone := make(chan serverResult, 1)
	go func() {
		packet, err := server.readPacket()
		if err != nil {
			serverDone <- serverResult{err: err}
			return
		}
		var init kexECDHInitMsg
		if err := unmarshal(&init, packet, msgKexECDHInit); err != nil {
			serverDone <- serverResult{err: err}
			return
		}

		var priv [32]byte
		if _, err := io.ReadFull(rand.Reader, priv[:]); err != nil {
			serverDone <- serverResult{err: err}
			return
		}
		priv[0] &= 248
		priv[31] &= 127
		priv[31] |= 64
		pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
		if err != nil {
			serverDone <- serverResult{err: err}
			return
		}
		secret, err := curve25519.X25519(priv[:], init.ClientPubKey)
		if err != nil {
			serverDone <- serverResult{err: err}
			return
		}
		reply := kexECDHReplyMsg{HostKey: hostKey, EphemeralPubKey: pub, Signature: sig}
		if err := server.writePacket(marshal(msgKexECDHReply, reply)); err != nil {
			serverDone <- serverResult{err: err}
			return
		}
		serverDone <- serverResult{secret: secret}
	}()

	result, err := (curve25519Kex{}).client(client, magics, "")
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	sr := <-serverDone
	if sr.err != nil {
		t.Fatalf("server: %v", sr.err)
	}

	if string(result.HostKey) != string(hostKey) {
		t.Fatalf("host key mismatch: %q", result.HostKey)
	}
	if string(result.Signature) != string(sig) {
		t.Fatalf("signature mismatch: %q", result.Signature)
	}
	if result.K.Cmp(new(big.Int).SetBytes(sr.secret)) != 0 {
		t.Fatal("client and server derived different shared secrets")
	}
	if len(result.H) != sha256.Size {
		t.Fatalf("expected a sha256-sized exchange hash, got %d bytes", len(result.H))
	}
}

func TestKexMethodForResolvesEveryAlgorithm(t *testing.T) {
	cases := []string{
		kexAlgoDH14SHA1,
		kexAlgoDH14SHA256,
		kexAlgoDHGEXSHA1,
		kexAlgoDHGEXSHA256,
		kexAlgoECDH256,
		kexAlgoECDH384,
		kexAlgoECDH521,
		kexAlgoCurve25519SHA256,
		kexAlgoCurve25519SHA256LibSSH,
		kexAlgoMLKEM768X25519,
	}
	for _, name := range cases {
		method, err := kexMethodFor(name)
		if err != nil {
			t.Fatalf("kexMethodFor(%q): %v", name, err)
		}
		if method == nil {
			t.Fatalf("kexMethodFor(%q): nil method", name)
		}
	}
}

func TestKexMethodForRejectsUnknown(t *testing.T) {
	_, err := kexMethodFor("not-a-real-kex-algorithm")
	if err == nil {
		t.Fatal("expected an error for an unsupported kex algorithm")
	}
	if _, ok := err.(*KexFailedError); !ok {
		t.Fatalf("expected *KexFailedError, got %T", err)
	}
}

func TestHashForDigestSizes(t *testing.T) {
	cases := []struct {
		algo string
		size int
	}{
		{kexAlgoDH14SHA1, 20},
		{kexAlgoECDH384, 48},
		{kexAlgoECDH521, 64},
		{kexAlgoDH14SHA256, 32},
		{kexAlgoCurve25519SHA256, 32},
	}
	for _, c := range cases {
		h := hashFor(c.algo)()
		if h.Size() != c.size {
			t.Fatalf("hashFor(%q): expected digest size %d, got %d", c.algo, c.size, h.Size())
		}
	}
}

func TestDeriveKeysIsDeterministicAndTagSensitive(t *testing.T) {
	secret := []byte{1, 2, 3, 4}
	H := []byte("exchange-hash")
	sessionId := []byte("session-id")

	a := deriveKeys(sha256.New, secret, H, sessionId, 'A', 32)
	again := deriveKeys(sha256.New, secret, H, sessionId, 'A', 32)
	if !bytesEqual(a, again) {
		t.Fatal("expected deriveKeys to be deterministic for identical inputs")
	}

	b := deriveKeys(sha256.New, secret, H, sessionId, 'B', 32)
	if bytesEqual(a, b) {
		t.Fatal("expected different tags to derive different key material")
	}

	long := deriveKeys(sha256.New, secret, H, sessionId, 'A', 100)
	if len(long) != 100 {
		t.Fatalf("expected deriveKeys to expand past one hash block, got %d bytes", len(long))
	}
	if !bytesEqual(long[:32], a) {
		t.Fatal("expected the expanded digest to extend, not replace, the first block")
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAllZero(t *testing.T) {
	if !allZero(make([]byte, 16)) {
		t.Fatal("expected an all-zero slice to report true")
	}
	nonZero := make([]byte, 16)
	nonZero[15] = 1
	if allZero(nonZero) {
		t.Fatal("expected a slice with a nonzero byte to report false")
	}
}

func TestRandomInRangeStaysInBounds(t *testing.T) {
	for i := 0; i < 20; i++ {
		x, err := randomInRange(dhGroup14Params.p)
		if err != nil {
			t.Fatalf("randomInRange: %v", err)
		}
		if x.Cmp(big.NewInt(2)) < 0 {
			t.Fatalf("expected x >= 2, got %v", x)
		}
		if x.Cmp(dhGroup14Params.p) >= 0 {
			t.Fatal("expected x to stay below the group modulus")
		}
	}
}
