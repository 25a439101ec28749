// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"time"
)

// These constants from [PROTOCOL.certkeys] represent the algorithm names
// for certificate types supported by this package. DSA is not wired
// (see DESIGN.md); ed25519 is added for the modern default catalogue.
const (
	CertAlgoRSAv01      = "ssh-rsa-cert-v01@openssh.com"
	CertAlgoECDSA256v01 = "ecdsa-sha2-nistp256-cert-v01@openssh.com"
	CertAlgoECDSA384v01 = "ecdsa-sha2-nistp384-cert-v01@openssh.com"
	CertAlgoECDSA521v01 = "ecdsa-sha2-nistp521-cert-v01@openssh.com"
	CertAlgoED25519v01  = "ssh-ed25519-cert-v01@openssh.com"
)

// Certificate types are used to specify whether a certificate is for
// identification of a user or a host. Current identities are defined in
// [PROTOCOL.certkeys].
const (
	UserCert = 1
	HostCert = 2
)

type tuple struct {
	Name string
	Data string
}

// OpenSSHCertV01 represents an OpenSSH certificate as defined in
// [PROTOCOL.certkeys].
type OpenSSHCertV01 struct {
	Nonce                   []byte
	Key                     PublicKey
	Serial                  uint64
	Type                    uint32
	KeyId                   string
	ValidPrincipals         []string
	ValidAfter, ValidBefore time.Time
	CriticalOptions         []tuple
	Extensions              []tuple
	Reserved                []byte
	SignatureKey            PublicKey
	Signature               *signature
}

var certAlgoNames = map[string]string{
	KeyAlgoRSA:      CertAlgoRSAv01,
	KeyAlgoECDSA256: CertAlgoECDSA256v01,
	KeyAlgoECDSA384: CertAlgoECDSA384v01,
	KeyAlgoECDSA521: CertAlgoECDSA521v01,
	KeyAlgoED25519:  CertAlgoED25519v01,
}

func (c *OpenSSHCertV01) PublicKeyAlgo() string {
	algo, ok := certAlgoNames[c.Key.PrivateKeyAlgo()]
	if !ok {
		panic("ssh: unknown cert key type")
	}
	return algo
}

func (c *OpenSSHCertV01) PrivateKeyAlgo() string {
	return c.Key.PrivateKeyAlgo()
}

// Marshal returns the full certificate body (nonce through signature),
// the wire format that follows the CertAlgo*v01 name string.
func (c *OpenSSHCertV01) Marshal() []byte {
	return c.marshalFull()
}

// Verify checks sig over data using the key the certificate certifies,
// not the signing authority's key, and not the certificate's own
// signature field — matching the teacher's
// shape where a certificate verifies exactly like the key it wraps once
// parsed. Signature-key verification (is the CA trusted?) is the
// authenticator's concern, out of scope here.
func (c *OpenSSHCertV01) Verify(data []byte, sig []byte, format string) bool {
	return c.Key.Verify(data, sig, pubAlgoToPrivAlgo(format))
}

func parseOpenSSHCertV01(in []byte, algo string) (out *OpenSSHCertV01, rest []byte, ok bool) {
	cert := new(OpenSSHCertV01)

	if cert.Nonce, in, ok = parseString(in); !ok {
		return
	}

	cert.Key, in, ok = ParsePublicKey(in)
	if !ok {
		return
	}
	if cert.Key.PrivateKeyAlgo() != algo {
		return nil, nil, false
	}

	if cert.Serial, in, ok = parseUint64(in); !ok {
		return
	}

	if cert.Type, in, ok = parseUint32(in); !ok || (cert.Type != UserCert && cert.Type != HostCert) {
		return nil, nil, false
	}

	keyId, in, ok := parseString(in)
	if !ok {
		return
	}
	cert.KeyId = string(keyId)

	if cert.ValidPrincipals, in, ok = parseLengthPrefixedNameList(in); !ok {
		return
	}

	va, in, ok := parseUint64(in)
	if !ok {
		return
	}
	cert.ValidAfter = time.Unix(int64(va), 0)

	vb, in, ok := parseUint64(in)
	if !ok {
		return
	}
	cert.ValidBefore = time.Unix(int64(vb), 0)

	if cert.CriticalOptions, in, ok = parseTupleList(in); !ok {
		return
	}

	if cert.Extensions, in, ok = parseTupleList(in); !ok {
		return
	}

	if cert.Reserved, in, ok = parseString(in); !ok {
		return
	}

	sigKey, in, ok := parseString(in)
	if !ok {
		return
	}
	if cert.SignatureKey, _, ok = ParsePublicKey(sigKey); !ok {
		return nil, nil, false
	}

	sigBytes, in, ok := parseString(in)
	if !ok {
		return
	}
	if cert.Signature, _, ok = parseSignatureBody(sigBytes); !ok {
		return nil, nil, false
	}

	return cert, in, true
}

func (cert *OpenSSHCertV01) marshalFull() []byte {
	pubKey := MarshalPublicKey(cert.Key)
	sigKey := MarshalPublicKey(cert.SignatureKey)

	length := stringLength(len(cert.Nonce))
	length += len(pubKey)
	length += 8 // Serial
	length += 4 // Type
	length += stringLength(len(cert.KeyId))
	length += lengthPrefixedNameListLength(cert.ValidPrincipals)
	length += 8 // ValidAfter
	length += 8 // ValidBefore
	length += tupleListLength(cert.CriticalOptions)
	length += tupleListLength(cert.Extensions)
	length += stringLength(len(cert.Reserved))
	length += stringLength(len(sigKey))
	length += stringLength(signatureLength(cert.Signature))

	ret := make([]byte, length)
	r := marshalString(ret, cert.Nonce)
	n := copy(r, pubKey)
	r = r[n:]
	r = marshalUint64(r, cert.Serial)
	r = marshalUint32(r, cert.Type)
	r = marshalString(r, []byte(cert.KeyId))
	r = marshalLengthPrefixedNameList(r, cert.ValidPrincipals)
	r = marshalUint64(r, uint64(cert.ValidAfter.Unix()))
	r = marshalUint64(r, uint64(cert.ValidBefore.Unix()))
	r = marshalTupleList(r, cert.CriticalOptions)
	r = marshalTupleList(r, cert.Extensions)
	r = marshalString(r, cert.Reserved)
	r = marshalString(r, sigKey)
	sigBlob := make([]byte, signatureLength(cert.Signature))
	marshalSignature(sigBlob, cert.Signature)
	marshalString(r, sigBlob)
	return ret
}

func lengthPrefixedNameListLength(namelist []string) int {
	length := 4
	for _, name := range namelist {
		length += 4 + len(name)
	}
	return length
}

func marshalLengthPrefixedNameList(to []byte, namelist []string) []byte {
	length := uint32(lengthPrefixedNameListLength(namelist) - 4)
	to = marshalUint32(to, length)
	for _, name := range namelist {
		to = marshalString(to, []byte(name))
	}
	return to
}

func parseLengthPrefixedNameList(in []byte) (out []string, rest []byte, ok bool) {
	list, rest, ok := parseString(in)
	if !ok {
		return
	}
	for len(list) > 0 {
		var next []byte
		if next, list, ok = parseString(list); !ok {
			return nil, nil, false
		}
		out = append(out, string(next))
	}
	return out, rest, true
}

func tupleListLength(tupleList []tuple) int {
	length := 4
	for _, t := range tupleList {
		length += 4 + len(t.Name)
		length += 4 + len(t.Data)
	}
	return length
}

func marshalTupleList(to []byte, tuplelist []tuple) []byte {
	length := uint32(tupleListLength(tuplelist) - 4)
	to = marshalUint32(to, length)
	for _, t := range tuplelist {
		to = marshalString(to, []byte(t.Name))
		to = marshalString(to, []byte(t.Data))
	}
	return to
}

func parseTupleList(in []byte) (out []tuple, rest []byte, ok bool) {
	list, rest, ok := parseString(in)
	if !ok {
		return
	}
	for len(list) > 0 {
		var name, data []byte
		var fok bool
		name, list, fok = parseString(list)
		if !fok {
			return nil, nil, false
		}
		data, list, fok = parseString(list)
		if !fok {
			return nil, nil, false
		}
		out = append(out, tuple{string(name), string(data)})
	}
	return out, rest, true
}

func parseCert(algo string, in []byte) (out PublicKey, rest []byte, ok bool) {
	return parseOpenSSHCertV01(in, pubAlgoToPrivAlgo(algo))
}
