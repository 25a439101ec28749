// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"math/big"
	"testing"
)

func TestMarshalUnmarshalKexInit(t *testing.T) {
	want := kexInitMsg{
		KexAlgos:                []string{kexAlgoCurve25519SHA256, kexAlgoECDH256},
		ServerHostKeyAlgos:      []string{KeyAlgoED25519},
		CiphersClientServer:     []string{cipherChaCha20},
		CiphersServerClient:     []string{cipherChaCha20},
		MACsClientServer:        nil,
		MACsServerClient:        nil,
		CompressionClientServer: []string{compressionNone},
		CompressionServerClient: []string{compressionNone},
		FirstKexFollows:         true,
	}
	want.Cookie[0] = 0xAB

	packet := marshal(msgKexInit, want)
	var got kexInitMsg
	if err := unmarshal(&got, packet, msgKexInit); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Cookie != want.Cookie {
		t.Fatalf("cookie mismatch: got %v, want %v", got.Cookie, want.Cookie)
	}
	if len(got.KexAlgos) != 2 || got.KexAlgos[0] != want.KexAlgos[0] {
		t.Fatalf("kex algos mismatch: %v", got.KexAlgos)
	}
	if got.FirstKexFollows != true {
		t.Fatal("expected FirstKexFollows to round-trip as true")
	}
	if got.MACsClientServer != nil {
		t.Fatalf("expected empty MAC list to round-trip as nil, got %v", got.MACsClientServer)
	}
}

func TestMarshalUnmarshalKexDHReply(t *testing.T) {
	want := kexDHReplyMsg{
		HostKey:   []byte("fake-host-key"),
		Y:         big.NewInt(123456789),
		Signature: []byte("fake-signature"),
	}
	packet := marshal(msgKexDHReply, want)
	var got kexDHReplyMsg
	if err := unmarshal(&got, packet, msgKexDHReply); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(got.HostKey) != string(want.HostKey) {
		t.Fatalf("host key mismatch: %q", got.HostKey)
	}
	if got.Y.Cmp(want.Y) != 0 {
		t.Fatalf("Y mismatch: %v", got.Y)
	}
	if string(got.Signature) != string(want.Signature) {
		t.Fatalf("signature mismatch: %q", got.Signature)
	}
}

func TestUnmarshalRejectsWrongMessageType(t *testing.T) {
	packet := marshal(msgNewKeys, newKeysMsg{})
	var out kexInitMsg
	err := unmarshal(&out, packet, msgKexInit)
	if err == nil {
		t.Fatal("expected an error unmarshalling a NEWKEYS packet as KEXINIT")
	}
	if _, ok := err.(UnexpectedMessageError); !ok {
		t.Fatalf("expected UnexpectedMessageError, got %T: %v", err, err)
	}
}

func TestDecodeUnknownMessageType(t *testing.T) {
	if _, err := decode([]byte{255}); err == nil {
		t.Fatal("expected an error decoding an unknown message type")
	}
}

func TestDecodeChannelRequestRoundTrip(t *testing.T) {
	want := channelRequestMsg{
		PeersId:             42,
		Request:             "exit-status",
		WantReply:           false,
		RequestSpecificData: []byte{0, 0, 0, 7},
	}
	packet := marshal(msgChannelRequest, want)
	decoded, err := decode(packet)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := decoded.(*channelRequestMsg)
	if !ok {
		t.Fatalf("expected *channelRequestMsg, got %T", decoded)
	}
	if got.PeersId != want.PeersId || got.Request != want.Request {
		t.Fatalf("mismatch: %+v", got)
	}
}
