// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"math/big"
)

// Public key algorithm names, see RFC 4253 §6.6 and RFC 8332/8709.
const (
	KeyAlgoRSA        = "ssh-rsa"
	KeyAlgoRSASHA256  = "rsa-sha2-256"
	KeyAlgoRSASHA512  = "rsa-sha2-512"
	KeyAlgoECDSA256   = "ecdsa-sha2-nistp256"
	KeyAlgoECDSA384   = "ecdsa-sha2-nistp384"
	KeyAlgoECDSA521   = "ecdsa-sha2-nistp521"
	KeyAlgoED25519    = "ssh-ed25519"
)

// hashFuncs maps a host-key (or signature) algorithm name to the hash
// used when computing the exchange-hash signature.
var hashFuncs = map[string]crypto.Hash{
	KeyAlgoRSA:          crypto.SHA1,
	KeyAlgoRSASHA256:    crypto.SHA256,
	KeyAlgoRSASHA512:    crypto.SHA512,
	KeyAlgoECDSA256:     crypto.SHA256,
	KeyAlgoECDSA384:     crypto.SHA384,
	KeyAlgoECDSA521:     crypto.SHA512,
	CertAlgoRSAv01:      crypto.SHA1,
	CertAlgoECDSA256v01: crypto.SHA256,
	CertAlgoECDSA384v01: crypto.SHA384,
	CertAlgoECDSA521v01: crypto.SHA512,
	CertAlgoED25519v01:  crypto.SHA512,
}

// PublicKey is the common interface implemented by every host-key type
// this package can verify. Private-key parsing and signing are out of
// scope for this core (they belong to the authenticator); PublicKey only
// needs to verify signatures produced by a server's host key.
type PublicKey interface {
	// PrivateKeyAlgo returns the algorithm name used when this key signs
	// data (may differ from the public-key wire format name for
	// certificates).
	PrivateKeyAlgo() string

	// Marshal returns the wire format of the public key, as defined by
	// RFC 4253 §6.6, without the leading algorithm-name string.
	Marshal() []byte

	// Verify reports whether sig is a valid signature over data, computed
	// under the named signature algorithm (the signature's own Format
	// field — RFC 8332 §3 lets this differ from PrivateKeyAlgo for RSA:
	// a ssh-rsa key may sign with rsa-sha2-256/512 instead). Keys whose
	// signature scheme never varies by algorithm name ignore format.
	Verify(data []byte, sig []byte, format string) bool
}

type rsaPublicKey rsa.PublicKey

func (r *rsaPublicKey) PrivateKeyAlgo() string { return KeyAlgoRSA }

func (r *rsaPublicKey) Marshal() []byte {
	e := new(big.Int).SetInt64(int64(r.E))
	length := intLength(e)
	length += intLength(r.N)
	ret := make([]byte, length)
	rest := marshalInt(ret, e)
	marshalInt(rest, r.N)
	return ret
}

// Verify looks the digest algorithm up by format, the same way
// ecdsaPublicKey.Verify looks its hash up by curve: RFC 8332 §3 lets an
// ssh-rsa key sign with rsa-sha2-256/512 instead of the SHA-1 its own
// key-format name implies, and the signature's Format field — not the
// key — says which was used.
func (r *rsaPublicKey) Verify(data []byte, sigBlob []byte, format string) bool {
	hash, ok := hashFuncs[format]
	if !ok {
		hash = hashFuncs[KeyAlgoRSA]
	}
	h := hash.New()
	h.Write(data)
	digest := h.Sum(nil)
	return rsa.VerifyPKCS1v15((*rsa.PublicKey)(r), hash, digest, sigBlob) == nil
}

type ecdsaPublicKey ecdsa.PublicKey

func (k *ecdsaPublicKey) ecdsaAlgoName() string {
	switch k.Curve.Params().BitSize {
	case 256:
		return KeyAlgoECDSA256
	case 384:
		return KeyAlgoECDSA384
	case 521:
		return KeyAlgoECDSA521
	}
	return ""
}

func (k *ecdsaPublicKey) PrivateKeyAlgo() string { return k.ecdsaAlgoName() }

func (k *ecdsaPublicKey) Marshal() []byte {
	curveName := ecdsaCurveName(k.Curve)
	pt := elliptic.Marshal(k.Curve, k.X, k.Y)
	length := stringLength(len(curveName)) + stringLength(len(pt))
	ret := make([]byte, length)
	r := marshalString(ret, []byte(curveName))
	marshalString(r, pt)
	return ret
}

func (k *ecdsaPublicKey) Verify(data []byte, sigBlob []byte, format string) bool {
	type ecSig struct {
		R, S *big.Int
	}
	var sig ecSig
	if err := unmarshalInto(&sig, sigBlob); err != nil {
		return false
	}
	h := hashFuncs[k.ecdsaAlgoName()].New()
	h.Write(data)
	digest := h.Sum(nil)
	return ecdsa.Verify((*ecdsa.PublicKey)(k), digest, sig.R, sig.S)
}

func ecdsaCurveName(curve elliptic.Curve) string {
	switch curve.Params().BitSize {
	case 256:
		return "nistp256"
	case 384:
		return "nistp384"
	case 521:
		return "nistp521"
	}
	return ""
}

func ecHash(curve elliptic.Curve) crypto.Hash {
	switch curve.Params().BitSize {
	case 256:
		return crypto.SHA256
	case 384:
		return crypto.SHA384
	default:
		return crypto.SHA512
	}
}

func validateECPublicKey(curve elliptic.Curve, x, y *big.Int) bool {
	if x.Sign() == 0 && y.Sign() == 0 {
		return false
	}
	return curve.IsOnCurve(x, y)
}

type ed25519PublicKey ed25519.PublicKey

func (k ed25519PublicKey) PrivateKeyAlgo() string { return KeyAlgoED25519 }

func (k ed25519PublicKey) Marshal() []byte {
	ret := make([]byte, stringLength(len(k)))
	marshalString(ret, k)
	return ret
}

func (k ed25519PublicKey) Verify(data []byte, sig []byte, format string) bool {
	return ed25519.Verify(ed25519.PublicKey(k), data, sig)
}

// signature is the RFC 4253 §6.6 "signature" wire structure: an
// algorithm name followed by an opaque blob whose interpretation
// depends on that name.
type signature struct {
	Format string
	Blob   []byte
}

// parseSignatureBody parses the body of a "signature" string (the part
// after its own length prefix has already been stripped by the caller).
func parseSignatureBody(in []byte) (out *signature, rest []byte, ok bool) {
	var format []byte
	if format, in, ok = parseString(in); !ok {
		return
	}
	out = &signature{Format: string(format)}
	if out.Blob, in, ok = parseString(in); !ok {
		return
	}
	return out, in, true
}

func signatureLength(sig *signature) int {
	return 4 + stringLength(len(sig.Format)) + stringLength(len(sig.Blob))
}

func marshalSignature(to []byte, sig *signature) []byte {
	length := uint32(signatureLength(sig) - 4)
	to = marshalUint32(to, length)
	to = marshalString(to, []byte(sig.Format))
	return marshalString(to, sig.Blob)
}

// ParsePublicKey parses a wire-format public key (the same form used
// inside KEXDH/ECDH replies and certificates): algorithm name followed
// by a type-specific blob.
func ParsePublicKey(in []byte) (out PublicKey, rest []byte, ok bool) {
	algo, in, ok := parseString(in)
	if !ok {
		return
	}
	switch string(algo) {
	case KeyAlgoRSA:
		return parseRSA(in)
	case KeyAlgoECDSA256, KeyAlgoECDSA384, KeyAlgoECDSA521:
		return parseECDSA(in)
	case KeyAlgoED25519:
		return parseED25519(in)
	case CertAlgoRSAv01, CertAlgoECDSA256v01, CertAlgoECDSA384v01, CertAlgoECDSA521v01, CertAlgoED25519v01:
		return parseCert(string(algo), in)
	}
	return nil, nil, false
}

func parseRSA(in []byte) (out PublicKey, rest []byte, ok bool) {
	e, in, ok := parseMpint(in)
	if !ok {
		return
	}
	n, in, ok := parseMpint(in)
	if !ok {
		return
	}
	if !e.IsInt64() {
		return nil, nil, false
	}
	return &rsaPublicKey{E: int(e.Int64()), N: n}, in, true
}

func parseECDSA(in []byte) (out PublicKey, rest []byte, ok bool) {
	ident, in, ok := parseString(in)
	if !ok {
		return
	}
	var curve elliptic.Curve
	switch string(ident) {
	case "nistp256":
		curve = elliptic.P256()
	case "nistp384":
		curve = elliptic.P384()
	case "nistp521":
		curve = elliptic.P521()
	default:
		return nil, nil, false
	}
	pt, in, ok := parseString(in)
	if !ok {
		return
	}
	x, y := elliptic.Unmarshal(curve, pt)
	if x == nil {
		return nil, nil, false
	}
	return (*ecdsaPublicKey)(&ecdsa.PublicKey{Curve: curve, X: x, Y: y}), in, true
}

func parseED25519(in []byte) (out PublicKey, rest []byte, ok bool) {
	blob, in, ok := parseString(in)
	if !ok || len(blob) != ed25519.PublicKeySize {
		return nil, nil, false
	}
	return ed25519PublicKey(append([]byte(nil), blob...)), in, true
}

// fingerprintSHA256 returns the raw (not base64-encoded) SHA-256 digest
// of a marshalled public key. Nothing in this package calls it.
func fingerprintSHA256(key PublicKey) [32]byte {
	return sha256.Sum256(MarshalPublicKey(key))
}

var errUnsupportedKeyType = errors.New("ssh: unsupported public key type")
