// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"crypto/sha256"
	"math/big"
	"net"
	"strings"
	"testing"
)

func TestReadVersionTakesFirstSSHLine(t *testing.T) {
	r := strings.NewReader("Some banner line that isn't SSH\r\nSSH-2.0-testserver\r\nignored-trailer\r\n")
	got, err := readVersion(r)
	if err != nil {
		t.Fatalf("readVersion: %v", err)
	}
	if string(got) != "SSH-2.0-testserver" {
		t.Fatalf("got %q", got)
	}
}

func TestReadVersionRejectsOverlongBannerLine(t *testing.T) {
	r := strings.NewReader(strings.Repeat("x", maxVersionLineLength+1) + "\nSSH-2.0-test\n")
	if _, err := readVersion(r); err == nil {
		t.Fatal("expected an error for an over-long pre-version banner line")
	}
}

func TestAccountTrafficTriggersRekey(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	tr := newTransport(c1, nil, nil)

	if tr.needsRekey() {
		t.Fatal("fresh transport should not need a rekey")
	}
	if due := tr.accountTraffic(rekeyAfterBytes); !due {
		t.Fatal("expected accountTraffic to report a rekey is due once the byte threshold is crossed")
	}
	tr.noteKexComplete()
	if tr.needsRekey() {
		t.Fatal("expected noteKexComplete to reset the traffic counter")
	}
}

func TestInstallKeysStrictResetsSequenceNumber(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	tr := newTransport(c1, nil, nil)
	tr.sessionId = []byte("fixed-session-id")
	tr.writer.seqNum = 7

	result := &kexResult{H: []byte("exchange-hash"), K: big.NewInt(99999), Hash: sha256.New}
	if err := tr.installKeys(tr.writer, clientKeys, nil, cipherAES128CTR, macHMACSHA256, result, true); err != nil {
		t.Fatalf("installKeys: %v", err)
	}
	if tr.writer.seqNum != 0 {
		t.Fatalf("expected strict-kex to reset seqNum to 0, got %d", tr.writer.seqNum)
	}
	if !tr.writer.strictKex {
		t.Fatal("expected strictKex flag to be recorded on the connState")
	}
}

func TestInstallKeysNonStrictKeepsSequenceNumber(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	tr := newTransport(c1, nil, nil)
	tr.sessionId = []byte("fixed-session-id")
	tr.writer.seqNum = 7

	result := &kexResult{H: []byte("exchange-hash"), K: big.NewInt(99999), Hash: sha256.New}
	if err := tr.installKeys(tr.writer, clientKeys, nil, cipherAES128CTR, macHMACSHA256, result, false); err != nil {
		t.Fatalf("installKeys: %v", err)
	}
	if tr.writer.seqNum != 7 {
		t.Fatalf("expected a non-strict rekey to preserve seqNum, got %d", tr.writer.seqNum)
	}
}
