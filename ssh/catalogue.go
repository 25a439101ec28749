// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

// Default algorithm preference orders, most preferred first. These are
// the lists offered in KEXINIT when a ClientConfig's CryptoConfig leaves
// a slot empty.
var (
	defaultKeyExchangeOrder = []string{
		kexAlgoMLKEM768X25519,
		kexAlgoCurve25519SHA256,
		kexAlgoCurve25519SHA256LibSSH,
		kexAlgoECDH256,
		kexAlgoECDH384,
		kexAlgoECDH521,
		kexAlgoDHGEXSHA256,
		kexAlgoDH14SHA256,
		kexAlgoDH14SHA1,
		kexAlgoDHGEXSHA1,
	}

	// defaultHostKeyOrder lists each algorithm's certificate variant ahead
	// of its plain form: a server able to present a certificate should be
	// steered toward doing so, since the certificate carries richer
	// validation (principals, validity window) the plain key can't.
	defaultHostKeyOrder = []string{
		CertAlgoED25519v01,
		CertAlgoECDSA256v01,
		CertAlgoECDSA384v01,
		CertAlgoECDSA521v01,
		CertAlgoRSAv01,
		KeyAlgoED25519,
		KeyAlgoECDSA256,
		KeyAlgoECDSA384,
		KeyAlgoECDSA521,
		KeyAlgoRSASHA512,
		KeyAlgoRSASHA256,
		KeyAlgoRSA,
	}

	defaultCipherOrder = []string{
		cipherChaCha20,
		cipherAES128GCM,
		cipherAES256GCM,
		cipherAES128CTR,
		cipherAES192CTR,
		cipherAES256CTR,
		cipherAES128CBC,
		cipherAES192CBC,
		cipherAES256CBC,
		cipher3DESCBC,
	}

	defaultMACOrder = []string{
		macHMACSHA256ETM,
		macHMACSHA512ETM,
		macHMACSHA256,
		macHMACSHA512,
		macHMACSHA1ETM,
		macHMACSHA1,
	}

	defaultCompressionOrder = []string{
		compressionNone,
	}
)

// strictKexMarkerC2S and strictKexMarkerS2C are pseudo-algorithm names
// (RFC-less, an OpenSSH extension) a client advertises in the kex-algo
// name-list of its very first KEXINIT only, never on a rekey. A server
// that understands them echoes its own marker back, and both sides then
// treat any out-of-order or unexpected message before NEWKEYS as a
// protocol error, and reset packet sequence numbers to zero after
// NEWKEYS instead of letting them carry over. See spec.md §4 and §7.
const (
	strictKexMarkerC2S = "kex-strict-c-v00@openssh.com"
	strictKexMarkerS2C = "kex-strict-s-v00@openssh.com"
)

const extInfoMarkerC2S = "ext-info-c"

// kexAlgosWithMarkers returns the configured key-exchange name-list with
// the strict-kex and ext-info markers appended, for use in the initial
// KEXINIT only.
func kexAlgosWithMarkers(kexes []string) []string {
	out := make([]string, 0, len(kexes)+2)
	out = append(out, kexes...)
	out = append(out, extInfoMarkerC2S, strictKexMarkerC2S)
	return out
}

// negotiatedStrictKex reports whether the peer's KEXINIT kex-algorithm
// name-list carried the strict-kex marker for its role.
func negotiatedStrictKex(peerKexAlgos []string, marker string) bool {
	for _, a := range peerKexAlgos {
		if a == marker {
			return true
		}
	}
	return false
}
