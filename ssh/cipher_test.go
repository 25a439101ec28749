// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"bytes"
	"testing"
)

func TestGCMPacketCipherRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 16)
	iv := bytes.Repeat([]byte{0x01}, 12)

	writer, err := gcmCipherMode(key, iv, nil, nil, false)
	if err != nil {
		t.Fatalf("gcmCipherMode (writer): %v", err)
	}
	reader, err := gcmCipherMode(key, iv, nil, nil, false)
	if err != nil {
		t.Fatalf("gcmCipherMode (reader): %v", err)
	}

	content := []byte("hello, channel")
	padLen := 4
	payload := append([]byte{byte(padLen)}, content...)
	payload = append(payload, make([]byte, padLen)...)

	var buf bytes.Buffer
	if err := writer.writeCipherPacket(0, &buf, nil, payload); err != nil {
		t.Fatalf("writeCipherPacket: %v", err)
	}

	got, err := reader.readPacket(0, &buf)
	if err != nil {
		t.Fatalf("readPacket: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("got %q, want %q", got, content)
	}
}

func TestGCMPacketCipherRejectsTamperedCiphertext(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 16)
	iv := bytes.Repeat([]byte{0x01}, 12)

	writer, _ := gcmCipherMode(key, iv, nil, nil, false)
	reader, _ := gcmCipherMode(key, iv, nil, nil, false)

	payload := append([]byte{4}, append([]byte("hello"), make([]byte, 4)...)...)
	var buf bytes.Buffer
	if err := writer.writeCipherPacket(0, &buf, nil, payload); err != nil {
		t.Fatalf("writeCipherPacket: %v", err)
	}

	tampered := buf.Bytes()
	tampered[len(tampered)-1] ^= 0xFF

	if _, err := reader.readPacket(0, bytes.NewReader(tampered)); err == nil {
		t.Fatal("expected a tampered GCM packet to fail authentication")
	}
}

func TestStreamPacketCipherETMRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x07}, 16)
	iv := bytes.Repeat([]byte{0x09}, 16)
	mode := macModes[macHMACSHA256ETM]
	macKey := bytes.Repeat([]byte{0xAA}, 32)

	create := streamCipherMode(16, newAESCTR)
	writer, err := create(key, iv, mode, macKey, true)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	reader, err := create(key, iv, mode, macKey, true)
	if err != nil {
		t.Fatalf("create reader: %v", err)
	}

	content := []byte("flow-controlled-data")
	padLen := 4
	body := append([]byte{byte(padLen)}, content...)
	body = append(body, make([]byte, padLen)...)
	packet := appendU32(nil, uint32(len(body)))
	packet = append(packet, body...)

	var buf bytes.Buffer
	if err := writer.writeCipherPacket(3, &buf, nil, packet); err != nil {
		t.Fatalf("writeCipherPacket: %v", err)
	}
	got, err := reader.readPacket(3, &buf)
	if err != nil {
		t.Fatalf("readPacket: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("got %q, want %q", got, content)
	}
}

func TestStreamPacketCipherRejectsWrongSequenceNumber(t *testing.T) {
	key := bytes.Repeat([]byte{0x07}, 16)
	iv := bytes.Repeat([]byte{0x09}, 16)
	mode := macModes[macHMACSHA256]
	macKey := bytes.Repeat([]byte{0xAA}, 32)

	create := streamCipherMode(16, newAESCTR)
	writer, _ := create(key, iv, mode, macKey, false)
	reader, _ := create(key, iv, mode, macKey, false)

	content := []byte("flow-controlled-data")
	padLen := 4
	body := append([]byte{byte(padLen)}, content...)
	body = append(body, make([]byte, padLen)...)
	packet := appendU32(nil, uint32(len(body)))
	packet = append(packet, body...)

	var buf bytes.Buffer
	if err := writer.writeCipherPacket(0, &buf, nil, packet); err != nil {
		t.Fatalf("writeCipherPacket: %v", err)
	}
	// Reading with the wrong sequence number must fail the MAC check, since
	// the sequence number is mixed into every tag (RFC 4253 §6.4).
	if _, err := reader.readPacket(1, &buf); err == nil {
		t.Fatal("expected a sequence-number mismatch to fail MAC verification")
	}
}

func TestZlibCompressorRoundTrip(t *testing.T) {
	z := newZlibCompressor()
	in := []byte("repeated repeated repeated repeated data data data")
	compressed := z.compress(in)

	zr := newZlibCompressor()
	got, err := zr.decompress(compressed)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(got, in) {
		t.Fatalf("got %q, want %q", got, in)
	}
}
