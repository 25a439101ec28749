// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"math/big"
	"testing"
)

func TestAppendMpintRoundTrip(t *testing.T) {
	cases := []int64{0, 1, 127, 128, 255, 256, 1 << 20}
	for _, c := range cases {
		n := big.NewInt(c)
		buf := appendMpint(nil, n)
		got, rest, ok := parseMpint(buf)
		if !ok {
			t.Fatalf("parseMpint(%d): failed to parse", c)
		}
		if len(rest) != 0 {
			t.Fatalf("parseMpint(%d): %d trailing bytes", c, len(rest))
		}
		if got.Cmp(n) != 0 {
			t.Fatalf("parseMpint(%d): got %v", c, got)
		}
	}
}

func TestAppendMpintPadsHighBit(t *testing.T) {
	// 0x80 alone would look negative without a leading zero byte, RFC
	// 4251 §5's shortest two's-complement form.
	n := big.NewInt(0x80)
	buf := appendMpint(nil, n)
	length, rest, ok := parseUint32(buf)
	if !ok {
		t.Fatal("parseUint32 failed")
	}
	if length != 2 {
		t.Fatalf("expected 2-byte mpint body (pad + 0x80), got length %d", length)
	}
	if rest[0] != 0 {
		t.Fatalf("expected leading pad byte, got %#x", rest[0])
	}
}

func TestParseMpintRejectsMissingPad(t *testing.T) {
	// A one-byte body with the high bit set and no padding is invalid.
	raw := []byte{0, 0, 0, 1, 0x80}
	if _, _, ok := parseMpint(raw); ok {
		t.Fatal("expected parseMpint to reject an unpadded high-bit value")
	}
}

func TestNameListRoundTrip(t *testing.T) {
	cases := [][]string{
		nil,
		{"a"},
		{"diffie-hellman-group14-sha256", "curve25519-sha256"},
	}
	for _, names := range cases {
		buf := appendNameList(nil, names)
		got, rest, ok := parseNameList(buf)
		if !ok {
			t.Fatalf("parseNameList(%v): failed", names)
		}
		if len(rest) != 0 {
			t.Fatalf("parseNameList(%v): trailing bytes", names)
		}
		if len(got) != len(names) {
			t.Fatalf("parseNameList(%v): got %v", names, got)
		}
		for i := range names {
			if got[i] != names[i] {
				t.Fatalf("parseNameList(%v): got %v", names, got)
			}
		}
	}
}

func TestFindAgreedAlgorithmsPrefersClientOrder(t *testing.T) {
	client := &kexInitMsg{
		KexAlgos:                []string{kexAlgoCurve25519SHA256, kexAlgoECDH256},
		ServerHostKeyAlgos:      []string{KeyAlgoED25519},
		CiphersClientServer:     []string{cipherAES128GCM},
		CiphersServerClient:     []string{cipherAES128GCM},
		CompressionClientServer: []string{compressionNone},
		CompressionServerClient: []string{compressionNone},
	}
	server := &kexInitMsg{
		KexAlgos:                []string{kexAlgoECDH256, kexAlgoCurve25519SHA256},
		ServerHostKeyAlgos:      []string{KeyAlgoED25519},
		CiphersClientServer:     []string{cipherAES128GCM},
		CiphersServerClient:     []string{cipherAES128GCM},
		CompressionClientServer: []string{compressionNone},
		CompressionServerClient: []string{compressionNone},
	}
	a, err := findAgreedAlgorithms(client, server)
	if err != nil {
		t.Fatalf("findAgreedAlgorithms: %v", err)
	}
	if a.kex != kexAlgoCurve25519SHA256 {
		t.Fatalf("expected client's first preference to win, got %q", a.kex)
	}
	// An AEAD cipher must leave the MAC slot empty.
	if a.macC2S != "" || a.macS2C != "" {
		t.Fatalf("expected no MAC negotiated alongside an AEAD cipher, got %q/%q", a.macC2S, a.macS2C)
	}
}

func TestFindAgreedAlgorithmsNoCommonKex(t *testing.T) {
	client := &kexInitMsg{KexAlgos: []string{kexAlgoCurve25519SHA256}}
	server := &kexInitMsg{KexAlgos: []string{kexAlgoDH14SHA256}}
	if _, err := findAgreedAlgorithms(client, server); err == nil {
		t.Fatal("expected an error when client and server share no kex algorithm")
	}
}

func TestWindowReserveBlocksUntilAdd(t *testing.T) {
	w := newWindow()
	done := make(chan uint32, 1)
	go func() {
		n, ok := w.reserve(10)
		if !ok {
			done <- 0
			return
		}
		done <- n
	}()

	select {
	case <-done:
		t.Fatal("reserve returned before any window was available")
	default:
	}

	w.add(4)
	if got := <-done; got != 4 {
		t.Fatalf("expected reserve to return the 4 bytes added, got %d", got)
	}
}

func TestWindowCloseUnblocksReserve(t *testing.T) {
	w := newWindow()
	done := make(chan bool, 1)
	go func() {
		_, ok := w.reserve(10)
		done <- ok
	}()
	w.close()
	if ok := <-done; ok {
		t.Fatal("expected reserve to report !ok once the window is closed")
	}
}
