// Package nilsimsa implements the Nilsimsa locality-sensitive hash. Unlike a
// cryptographic digest, texts that differ by small edits produce digests that
// agree in most bit positions, so similarity is measured with Score rather
// than equality. Digests are 256 bits (64 hex digits on the wire).
package nilsimsa

import (
	"encoding/hex"
	"fmt"
	"math/bits"
)

// DigestSize is the digest length in bytes.
const DigestSize = 32

// HexSize is the length of a hex-encoded digest.
const HexSize = DigestSize * 2

// Digest is a 256-bit nilsimsa fingerprint.
type Digest [DigestSize]byte

// tran is the standard nilsimsa 53-based byte mixing table.
var tran = [256]byte{
	0x02, 0xD6, 0x9E, 0x6F, 0xF9, 0x1D, 0x04, 0xAB, 0xD0, 0x22, 0x16, 0x1F, 0xD8, 0x73, 0xA1, 0xAC,
	0x3B, 0x70, 0x62, 0x96, 0x1E, 0x6E, 0x8F, 0x39, 0x9D, 0x05, 0x14, 0x4A, 0xA6, 0xBE, 0xAE, 0x0E,
	0xCF, 0xB9, 0x9C, 0x9A, 0xC7, 0x68, 0x13, 0xE1, 0x2D, 0xA4, 0xEB, 0x51, 0x8D, 0x64, 0x6B, 0x50,
	0x23, 0x80, 0x03, 0x41, 0xEC, 0xBB, 0x71, 0xCC, 0x7A, 0x86, 0x7F, 0x98, 0xF2, 0x36, 0x5E, 0xEE,
	0x8E, 0xCE, 0x4F, 0xB8, 0x32, 0xB6, 0x5F, 0x59, 0xDC, 0x1B, 0x31, 0x4C, 0x7B, 0xF0, 0x63, 0x01,
	0x6C, 0xBA, 0x07, 0xE8, 0x12, 0x77, 0x49, 0x3C, 0xDA, 0x46, 0xFE, 0x2F, 0x79, 0x1C, 0x9B, 0x30,
	0xE3, 0x00, 0x06, 0x7E, 0x2E, 0x0F, 0x38, 0x33, 0x21, 0xAD, 0xA5, 0x54, 0xCA, 0xA7, 0x29, 0xFC,
	0x5A, 0x47, 0x69, 0x7D, 0xC5, 0x95, 0xB5, 0xF4, 0x0B, 0x90, 0xA3, 0x81, 0x6D, 0x25, 0x55, 0x35,
	0xF5, 0x75, 0x74, 0x0A, 0x26, 0xBF, 0x19, 0x5C, 0x1A, 0xC6, 0xFF, 0x99, 0x5D, 0x84, 0xAA, 0x66,
	0x3E, 0xAF, 0x78, 0xB3, 0x20, 0x43, 0xC1, 0xED, 0x24, 0xEA, 0xE6, 0x3F, 0x18, 0xF3, 0xA0, 0x42,
	0x57, 0x08, 0x53, 0x60, 0xC3, 0xC0, 0x83, 0x40, 0x82, 0xD7, 0x09, 0xBD, 0x44, 0x2A, 0x67, 0xA8,
	0x93, 0xE0, 0xC2, 0x56, 0x9F, 0xD9, 0xDD, 0x85, 0x15, 0xB4, 0x8A, 0x27, 0x28, 0x92, 0x76, 0xDE,
	0xEF, 0xF8, 0xB2, 0xB7, 0xC9, 0x3D, 0x45, 0x94, 0x4B, 0x11, 0x0D, 0x65, 0xD5, 0x34, 0x8B, 0x91,
	0x0C, 0xFA, 0x87, 0xE9, 0x7C, 0x5B, 0xB1, 0x4D, 0xE5, 0xD4, 0xCB, 0x10, 0xA2, 0x17, 0x89, 0xBC,
	0xDB, 0xB0, 0xE2, 0x97, 0x88, 0x52, 0xF7, 0x48, 0xD3, 0x61, 0x2C, 0x3A, 0x2B, 0xD1, 0x8C, 0xFB,
	0xF1, 0xCD, 0xE4, 0x6A, 0xE7, 0xA9, 0xFD, 0xC4, 0x37, 0xC8, 0xD2, 0xF6, 0xDF, 0x58, 0x72, 0x4E,
}

// Hasher accumulates trigram counts over a byte stream. It implements
// io.Writer; call Sum when the stream ends. Not safe for concurrent use.
type Hasher struct {
	acc    [256]uint32
	count  int
	window [4]int // most recent byte first, -1 when unseen
}

// New creates a Hasher.
func New() *Hasher {
	h := &Hasher{}
	h.Reset()
	return h
}

// Reset returns the hasher to its initial state.
func (h *Hasher) Reset() {
	h.acc = [256]uint32{}
	h.count = 0
	h.window = [4]int{-1, -1, -1, -1}
}

// Write feeds bytes into the hash. It never fails.
func (h *Hasher) Write(p []byte) (int, error) {
	for _, b := range p {
		ch := int(b)
		h.count++
		w := h.window
		if w[1] > -1 {
			h.acc[tran3(ch, w[0], w[1], 0)]++
		}
		if w[2] > -1 {
			h.acc[tran3(ch, w[0], w[2], 1)]++
			h.acc[tran3(ch, w[1], w[2], 2)]++
		}
		if w[3] > -1 {
			h.acc[tran3(ch, w[0], w[3], 3)]++
			h.acc[tran3(ch, w[1], w[3], 4)]++
			h.acc[tran3(ch, w[2], w[3], 5)]++
			// Duplicate combinations keep the trigram count at 8 per byte.
			h.acc[tran3(w[3], w[0], ch, 6)]++
			h.acc[tran3(w[3], w[2], ch, 7)]++
		}
		h.window = [4]int{ch, w[0], w[1], w[2]}
	}
	return len(p), nil
}

// Sum finalizes the digest. The hasher may continue accepting writes,
// producing digests over the longer prefix.
func (h *Hasher) Sum() Digest {
	var total int
	switch {
	case h.count == 3:
		total = 1
	case h.count == 4:
		total = 4
	case h.count > 4:
		total = 8*h.count - 28
	}
	threshold := uint32(total / 256)

	var code [DigestSize]byte
	for i := 0; i < 256; i++ {
		if h.acc[i] > threshold {
			code[i>>3] |= 1 << (i & 7)
		}
	}

	// The wire format orders bytes most-significant accumulator first.
	var d Digest
	for i := 0; i < DigestSize; i++ {
		d[i] = code[DigestSize-1-i]
	}
	return d
}

func tran3(a, b, c, n int) int {
	return ((int(tran[(a+n)&255]) ^ (int(tran[b]) * (n + n + 1))) + int(tran[c^int(tran[n])])) & 255
}

// HashBytes digests the whole input in one call.
func HashBytes(p []byte) Digest {
	h := New()
	_, _ = h.Write(p)
	return h.Sum()
}

// HashString digests a string in one call.
func HashString(s string) Digest {
	return HashBytes([]byte(s))
}

// Hex returns the digest as 64 lowercase hex digits.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// FromHex parses a 64-hex-digit digest.
func FromHex(s string) (Digest, error) {
	var d Digest
	if len(s) != HexSize {
		return d, fmt.Errorf("nilsimsa digest must be %d hex digits, got %d", HexSize, len(s))
	}
	if _, err := hex.Decode(d[:], []byte(s)); err != nil {
		return d, fmt.Errorf("decode nilsimsa digest: %w", err)
	}
	return d, nil
}

// Score returns the similarity of two digests: 128 minus the number of
// differing bits. Identical digests score 128; unrelated texts hover near 0;
// the minimum is -128.
func Score(a, b Digest) int {
	diff := 0
	for i := 0; i < DigestSize; i++ {
		diff += bits.OnesCount8(a[i] ^ b[i])
	}
	return 128 - diff
}
