// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"bytes"
	"compress/zlib"
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"hash"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Cipher algorithm names, RFC 4253 §6.3 plus the OpenSSH AEAD/ETM
// extensions named in spec.md §6.
const (
	cipherAES128CTR   = "aes128-ctr"
	cipherAES192CTR   = "aes192-ctr"
	cipherAES256CTR   = "aes256-ctr"
	cipherAES128GCM   = "aes128-gcm@openssh.com"
	cipherAES256GCM   = "aes256-gcm@openssh.com"
	cipherChaCha20    = "chacha20-poly1305@openssh.com"
	cipherAES128CBC   = "aes128-cbc"
	cipherAES192CBC   = "aes192-cbc"
	cipherAES256CBC   = "aes256-cbc"
	cipher3DESCBC     = "3des-cbc"
)

// MAC algorithm names, RFC 4253 §6.4 plus the -etm@openssh.com variants.
const (
	macHMACSHA256    = "hmac-sha2-256"
	macHMACSHA512    = "hmac-sha2-512"
	macHMACSHA1      = "hmac-sha1"
	macHMACSHA256ETM = "hmac-sha2-256-etm@openssh.com"
	macHMACSHA512ETM = "hmac-sha2-512-etm@openssh.com"
	macHMACSHA1ETM   = "hmac-sha1-etm@openssh.com"
)

const compressionNone = "none"
const compressionZlib = "zlib@openssh.com"

// macMode describes a MAC algorithm: its digest size and a constructor
// taking the derived integrity key.
type macMode struct {
	length int
	etm    bool
	new    func(key []byte) hash.Hash
}

var macModes = map[string]*macMode{
	macHMACSHA256: {32, false, func(key []byte) hash.Hash { return hmac.New(sha256.New, key) }},
	macHMACSHA512: {64, false, func(key []byte) hash.Hash { return hmac.New(sha512.New, key) }},
	macHMACSHA1:   {20, false, func(key []byte) hash.Hash { return hmac.New(sha1.New, key) }},
	macHMACSHA256ETM: {32, true, func(key []byte) hash.Hash { return hmac.New(sha256.New, key) }},
	macHMACSHA512ETM: {64, true, func(key []byte) hash.Hash { return hmac.New(sha512.New, key) }},
	macHMACSHA1ETM:   {20, true, func(key []byte) hash.Hash { return hmac.New(sha1.New, key) }},
}

// packetCipher represents a combination of SSH encryption/decryption and
// message authentication, full or partial (AEAD folds the MAC in).
type packetCipher interface {
	// readPacket reads and decrypts (and authenticates) a single packet
	// from r, given the current inbound sequence number.
	readPacket(seqNum uint32, r io.Reader) ([]byte, error)

	// writeCipherPacket encrypts (and authenticates) payload, already
	// padded per §4.B, and writes it to w.
	writeCipherPacket(seqNum uint32, w io.Writer, rand io.Reader, payload []byte) error

	// blockSize returns the cipher's block size (1 for stream ciphers),
	// used by the packet layer to compute padding.
	blockSize() int

	// isAEAD reports whether this cipher folds in its own
	// authentication, suppressing the MAC slot at negotiation time.
	isAEAD() bool
}

// cipherMode describes how to instantiate a packetCipher from derived
// key material, and whether it is AEAD (suppressing MAC negotiation).
type cipherMode struct {
	keySize int
	ivSize  int
	isAEAD  bool
	create  func(key, iv []byte, macMode *macMode, macKey []byte, etm bool) (packetCipher, error)
}

var cipherModes = map[string]*cipherMode{
	cipherAES128CTR: {16, aes.BlockSize, false, streamCipherMode(aes.BlockSize, newAESCTR)},
	cipherAES192CTR: {24, aes.BlockSize, false, streamCipherMode(aes.BlockSize, newAESCTR)},
	cipherAES256CTR: {32, aes.BlockSize, false, streamCipherMode(aes.BlockSize, newAESCTR)},
	cipherAES128CBC: {16, aes.BlockSize, false, cbcCipherMode(aes.BlockSize, newAESCBC)},
	cipherAES192CBC: {24, aes.BlockSize, false, cbcCipherMode(aes.BlockSize, newAESCBC)},
	cipherAES256CBC: {32, aes.BlockSize, false, cbcCipherMode(aes.BlockSize, newAESCBC)},
	cipher3DESCBC:   {24, des.BlockSize, false, cbcCipherMode(des.BlockSize, newTripleDESCBC)},
	cipherAES128GCM: {16, 12, true, gcmCipherMode},
	cipherAES256GCM: {32, 12, true, gcmCipherMode},
	cipherChaCha20:  {64, 0, true, chachaCipherMode},
}

// --- stream ciphers (CTR) ---

func newAESCTR(key, iv []byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewCTR(block, iv), nil
}

func streamCipherMode(blockSize int, newStream func(key, iv []byte) (cipher.Stream, error)) func(key, iv []byte, m *macMode, macKey []byte, etm bool) (packetCipher, error) {
	return func(key, iv []byte, m *macMode, macKey []byte, etm bool) (packetCipher, error) {
		s, err := newStream(key, iv)
		if err != nil {
			return nil, err
		}
		return &streamPacketCipher{
			stream:    s,
			macMode:   m,
			mac:       m.new(macKey),
			blockLen:  blockSize,
			etm:       m.etm,
		}, nil
	}
}

type streamPacketCipher struct {
	stream   cipher.Stream
	mac      hash.Hash
	macMode  *macMode
	blockLen int
	etm      bool
}

func (c *streamPacketCipher) blockSize() int { return c.blockLen }
func (c *streamPacketCipher) isAEAD() bool   { return false }

func (c *streamPacketCipher) readPacket(seqNum uint32, r io.Reader) ([]byte, error) {
	return readMACPacket(r, c.stream, c.mac, c.blockLen, c.etm, seqNum)
}

func (c *streamPacketCipher) writeCipherPacket(seqNum uint32, w io.Writer, rand io.Reader, packet []byte) error {
	return writeMACPacket(w, c.stream, c.mac, c.blockLen, c.etm, seqNum, packet)
}

// --- CBC ciphers ---

func newAESCBC(key []byte) (cipher.Block, error) { return aes.NewCipher(key) }

func newTripleDESCBC(key []byte) (cipher.Block, error) { return des.NewTripleDESCipher(key) }

func cbcCipherMode(blockSize int, newBlock func(key []byte) (cipher.Block, error)) func(key, iv []byte, m *macMode, macKey []byte, etm bool) (packetCipher, error) {
	return func(key, iv []byte, m *macMode, macKey []byte, etm bool) (packetCipher, error) {
		block, err := newBlock(key)
		if err != nil {
			return nil, err
		}
		return &cbcPacketCipher{
			block:    block,
			iv:       append([]byte(nil), iv...),
			mac:      m.new(macKey),
			macMode:  m,
			blockLen: blockSize,
			etm:      m.etm,
		}, nil
	}
}

type cbcPacketCipher struct {
	block    cipher.Block
	iv       []byte
	mac      hash.Hash
	macMode  *macMode
	blockLen int
	etm      bool
}

func (c *cbcPacketCipher) blockSize() int { return c.blockLen }
func (c *cbcPacketCipher) isAEAD() bool   { return false }

func (c *cbcPacketCipher) readPacket(seqNum uint32, r io.Reader) ([]byte, error) {
	dec := cipher.NewCBCDecrypter(c.block, c.iv)
	return readMACPacket(r, cbcStream{dec}, c.mac, c.blockLen, c.etm, seqNum)
}

func (c *cbcPacketCipher) writeCipherPacket(seqNum uint32, w io.Writer, rand io.Reader, packet []byte) error {
	enc := cipher.NewCBCEncrypter(c.block, c.iv)
	return writeMACPacket(w, cbcStream{enc}, c.mac, c.blockLen, c.etm, seqNum, packet)
}

// cbcStream adapts cipher.BlockMode (which only supports whole-block
// CryptBlocks) to the cipher.Stream interface the shared read/write
// helpers use, since CBC under SSH is always applied to whole records.
type cbcStream struct {
	mode cipher.BlockMode
}

func (c cbcStream) XORKeyStream(dst, src []byte) { c.mode.CryptBlocks(dst, src) }

// --- AEAD ciphers (GCM, ChaCha20-Poly1305) ---

func gcmCipherMode(key, iv []byte, m *macMode, macKey []byte, etm bool) (packetCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &aeadPacketCipher{aead: aead, iv: append([]byte(nil), iv...), ivIsCounter: true}, nil
}

func chachaCipherMode(key, iv []byte, m *macMode, macKey []byte, etm bool) (packetCipher, error) {
	if len(key) != 64 {
		return nil, errors.New("ssh: chacha20-poly1305 requires a 64-byte derived key")
	}
	aead, err := chacha20poly1305.New(key[:32])
	if err != nil {
		return nil, err
	}
	lengthAEAD, err := chacha20poly1305.New(key[32:])
	if err != nil {
		return nil, err
	}
	return &chachaPacketCipher{payloadCipher: aead, lengthCipher: lengthAEAD}, nil
}

// aeadPacketCipher implements the GCM family: the 4-byte length is
// cleartext-but-authenticated AAD, the rest is ciphertext+tag.
type aeadPacketCipher struct {
	aead        cipher.AEAD
	iv          []byte
	ivIsCounter bool
}

func (c *aeadPacketCipher) blockSize() int { return 16 }
func (c *aeadPacketCipher) isAEAD() bool   { return true }

func (c *aeadPacketCipher) incIV() {
	for i := len(c.iv) - 1; i >= 4; i-- {
		c.iv[i]++
		if c.iv[i] != 0 {
			break
		}
	}
}

func (c *aeadPacketCipher) readPacket(seqNum uint32, r io.Reader) ([]byte, error) {
	lengthBytes := make([]byte, 4)
	if _, err := io.ReadFull(r, lengthBytes); err != nil {
		return nil, err
	}
	length, _, ok := parseUint32(lengthBytes)
	if !ok || length < 12-4 || length > maxPacket-4 {
		return nil, &ProtocolError{"invalid packet length"}
	}
	rest := make([]byte, int(length)+c.aead.Overhead())
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	plain, err := c.aead.Open(rest[:0], c.iv, rest, lengthBytes)
	if err != nil {
		return nil, &DecryptionError{"AEAD authentication failed"}
	}
	c.incIV()
	padLen := int(plain[0])
	if padLen < 4 || padLen+1 > len(plain) {
		return nil, &ProtocolError{"invalid padding length"}
	}
	return plain[1 : len(plain)-padLen], nil
}

func (c *aeadPacketCipher) writeCipherPacket(seqNum uint32, w io.Writer, rand io.Reader, packet []byte) error {
	lengthBytes := appendU32(nil, uint32(len(packet)))
	cipherText := c.aead.Seal(nil, c.iv, packet, lengthBytes)
	c.incIV()
	if _, err := w.Write(lengthBytes); err != nil {
		return err
	}
	_, err := w.Write(cipherText)
	return err
}

// chachaPacketCipher implements chacha20-poly1305@openssh.com: the
// length field is encrypted with a dedicated sub-key/counter-0 stream
// (so it reads as "plaintext" only after this extra pass), the payload
// is encrypted with Poly1305 over counter-1 using the packet sequence
// number as the nonce for both.
type chachaPacketCipher struct {
	payloadCipher cipher.AEAD
	lengthCipher  cipher.AEAD
}

func (c *chachaPacketCipher) blockSize() int { return 8 }
func (c *chachaPacketCipher) isAEAD() bool   { return true }

func chachaNonce(seqNum uint32) []byte {
	nonce := make([]byte, 12)
	nonce[8] = byte(seqNum >> 24)
	nonce[9] = byte(seqNum >> 16)
	nonce[10] = byte(seqNum >> 8)
	nonce[11] = byte(seqNum)
	return nonce
}

func (c *chachaPacketCipher) readPacket(seqNum uint32, r io.Reader) ([]byte, error) {
	nonce := chachaNonce(seqNum)
	lengthBytes := make([]byte, 4)
	if _, err := io.ReadFull(r, lengthBytes); err != nil {
		return nil, err
	}
	lengthPlain, err := c.lengthCipher.Open(nil, nonce, lengthBytes, nil)
	if err != nil {
		return nil, &DecryptionError{"chacha20 length decrypt failed"}
	}
	length, _, _ := parseUint32(lengthPlain)
	if length > maxPacket-4 {
		return nil, &ProtocolError{"invalid packet length"}
	}
	rest := make([]byte, int(length)+c.payloadCipher.Overhead())
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	plain, err := c.payloadCipher.Open(rest[:0], nonce, rest, lengthBytes)
	if err != nil {
		return nil, &DecryptionError{"chacha20-poly1305 authentication failed"}
	}
	padLen := int(plain[0])
	if padLen < 4 || padLen+1 > len(plain) {
		return nil, &ProtocolError{"invalid padding length"}
	}
	return plain[1 : len(plain)-padLen], nil
}

func (c *chachaPacketCipher) writeCipherPacket(seqNum uint32, w io.Writer, rand io.Reader, packet []byte) error {
	nonce := chachaNonce(seqNum)
	lengthBytes := appendU32(nil, uint32(len(packet)))
	encryptedLength := c.lengthCipher.Seal(nil, nonce, lengthBytes, nil)
	cipherText := c.payloadCipher.Seal(nil, nonce, packet, lengthBytes)
	if _, err := w.Write(encryptedLength); err != nil {
		return err
	}
	_, err := w.Write(cipherText)
	return err
}

// --- shared MAC-then-encrypt / encrypt-then-MAC helpers for the
// non-AEAD cipher modes above ---

func readMACPacket(r io.Reader, stream cipher.Stream, mac hash.Hash, blockLen int, etm bool, seqNum uint32) ([]byte, error) {
	firstBlock := make([]byte, blockLen)
	if _, err := io.ReadFull(r, firstBlock); err != nil {
		return nil, err
	}

	var lengthBytes []byte
	var clearFirst []byte
	if etm {
		lengthBytes = firstBlock[:4]
	} else {
		clearFirst = make([]byte, blockLen)
		stream.XORKeyStream(clearFirst, firstBlock)
		lengthBytes = clearFirst[:4]
	}
	length, _, ok := parseUint32(lengthBytes)
	if !ok || length < uint32(blockLen)-4 || length > maxPacket-4 {
		return nil, &ProtocolError{"invalid packet length"}
	}

	remainingLen := int(length) + 4 - blockLen
	rest := make([]byte, remainingLen)
	if remainingLen > 0 {
		if _, err := io.ReadFull(r, rest); err != nil {
			return nil, err
		}
	}

	macSize := 0
	if mac != nil {
		macSize = mac.Size()
	}
	tag := make([]byte, macSize)
	if macSize > 0 {
		if _, err := io.ReadFull(r, tag); err != nil {
			return nil, err
		}
	}

	if etm {
		if !verifyMAC(mac, seqNum, firstBlock, rest, tag) {
			return nil, &MacError{}
		}
		cipherText := append(append([]byte(nil), firstBlock[4:]...), rest...)
		clear := make([]byte, len(cipherText))
		stream.XORKeyStream(clear, cipherText)
		return trimPadding(clear)
	}

	clearRest := make([]byte, remainingLen)
	stream.XORKeyStream(clearRest, rest)
	plain := append(clearFirst[4:], clearRest...)
	fullClear := append(append([]byte(nil), clearFirst...), clearRest...)
	if !verifyMAC(mac, seqNum, fullClear, nil, tag) {
		return nil, &MacError{}
	}
	return trimPadding(plain)
}

func trimPadding(plain []byte) ([]byte, error) {
	if len(plain) < 1 {
		return nil, &ProtocolError{"empty packet body"}
	}
	padLen := int(plain[0])
	if padLen < 4 || padLen+1 > len(plain) {
		return nil, &ProtocolError{"invalid padding length"}
	}
	return plain[1 : len(plain)-padLen], nil
}

// verifyMAC recomputes HMAC(seq || data...) (or, for ETM, HMAC(seq ||
// ciphertext)) and compares it to tag in constant time.
func verifyMAC(mac hash.Hash, seqNum uint32, a, b, tag []byte) bool {
	if mac == nil {
		return true
	}
	mac.Reset()
	var seq [4]byte
	seq[0] = byte(seqNum >> 24)
	seq[1] = byte(seqNum >> 16)
	seq[2] = byte(seqNum >> 8)
	seq[3] = byte(seqNum)
	mac.Write(seq[:])
	mac.Write(a)
	if b != nil {
		mac.Write(b)
	}
	computed := mac.Sum(nil)
	return hmac.Equal(computed, tag)
}

func writeMACPacket(w io.Writer, stream cipher.Stream, mac hash.Hash, blockLen int, etm bool, seqNum uint32, packet []byte) error {
	if etm {
		lengthBytes := packet[:4]
		cipherText := make([]byte, len(packet)-4)
		stream.XORKeyStream(cipherText, packet[4:])
		tag := computeMAC(mac, seqNum, lengthBytes, cipherText)
		if _, err := w.Write(lengthBytes); err != nil {
			return err
		}
		if _, err := w.Write(cipherText); err != nil {
			return err
		}
		_, err := w.Write(tag)
		return err
	}

	tag := computeMAC(mac, seqNum, packet, nil)
	cipherText := make([]byte, len(packet))
	stream.XORKeyStream(cipherText, packet)
	if _, err := w.Write(cipherText); err != nil {
		return err
	}
	_, err := w.Write(tag)
	return err
}

func computeMAC(mac hash.Hash, seqNum uint32, a, b []byte) []byte {
	if mac == nil {
		return nil
	}
	mac.Reset()
	var seq [4]byte
	seq[0] = byte(seqNum >> 24)
	seq[1] = byte(seqNum >> 16)
	seq[2] = byte(seqNum >> 8)
	seq[3] = byte(seqNum)
	mac.Write(seq[:])
	mac.Write(a)
	if b != nil {
		mac.Write(b)
	}
	return mac.Sum(nil)
}

// --- compression ---

// compressor implements the negotiated compression slot. noneCompressor
// is installed until the zlib@openssh.com deferred-activation rule
// (§9 Design Notes) fires after authentication success.
type compressor interface {
	compress(in []byte) []byte
	decompress(in []byte) ([]byte, error)
}

type noneCompressor struct{}

func (noneCompressor) compress(in []byte) []byte             { return in }
func (noneCompressor) decompress(in []byte) ([]byte, error) { return in, nil }

// zlibCompressor wraps compress/zlib with a single persistent
// writer/reader pair so the DEFLATE dictionary state survives across
// packets and across subsequent rekeys, per the Design Notes
// "Compression resumption" requirement.
type zlibCompressor struct {
	buf bytes.Buffer
	zw  *zlib.Writer
	zr  io.ReadCloser
	src bytes.Reader
}

func newZlibCompressor() *zlibCompressor {
	z := &zlibCompressor{}
	z.zw = zlib.NewWriter(&z.buf)
	return z
}

func (z *zlibCompressor) compress(in []byte) []byte {
	z.buf.Reset()
	z.zw.Write(in)
	z.zw.Flush()
	return append([]byte(nil), z.buf.Bytes()...)
}

func (z *zlibCompressor) decompress(in []byte) ([]byte, error) {
	z.src.Reset(in)
	if z.zr == nil {
		zr, err := zlib.NewReader(&z.src)
		if err != nil {
			return nil, err
		}
		z.zr = zr
	}
	var out bytes.Buffer
	if _, err := io.Copy(&out, z.zr); err != nil && err != io.EOF {
		return nil, err
	}
	return out.Bytes(), nil
}

func newCompressor(name string) compressor {
	if name == compressionZlib {
		return newZlibCompressor()
	}
	return noneCompressor{}
}
