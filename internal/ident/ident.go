// Package ident generates content-addressed node identifiers.
//
// FullID is a BLAKE3 content address: the same (document, span, kind,
// content) always maps to the same 64-character hex string, across
// processes and re-ingests. ShortID derives a compact human-typeable code
// from a FullID, resolving collisions with a deterministic nonce so that
// the assignment is reproducible given the same set of already-taken codes.
package ident

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/starford/ansuz/internal/apperr"
)

// ShortIDLen is the length of every short ID.
const ShortIDLen = 8

// MaxShortIDAttempts bounds nonce probing. With a 31-symbol alphabet and
// 8 positions the code space is ~8.5e11, so hitting the bound means the
// corpus is pathologically large or the existing-ID set is corrupt; either
// way the ingest must fail rather than spin.
const MaxShortIDAttempts = 1000

// alphabet excludes visually confusable symbols (0/O, 1/l/I).
const alphabet = "23456789abcdefghjkmnpqrstuvwxyz"

// FullID returns the content address for a node: BLAKE3-256 over a
// length-framed encoding of (docID, start, end, kind, content), hex
// encoded. Framing each variable-length field keeps distinct inputs from
// colliding by concatenation.
func FullID(docID string, start, end int, kind string, content []byte) string {
	h := blake3.New()
	writeFramed(h, []byte(docID))
	var span [16]byte
	binary.BigEndian.PutUint64(span[0:8], uint64(start))
	binary.BigEndian.PutUint64(span[8:16], uint64(end))
	_, _ = h.Write(span[:])
	writeFramed(h, []byte(kind))
	writeFramed(h, content)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

// ShortID derives a ShortIDLen-character code from fullID. The nonce
// starts at 0 and increments until the resulting code is absent from
// existing; the chosen nonce is returned so callers can audit the
// assignment. Fails with *apperr.CollisionExhaustedError after
// MaxShortIDAttempts tries.
//
// The function is pure: collision resolution depends only on the passed-in
// set, so concurrent ingests stay reproducible as long as each is handed a
// consistent corpus-wide view.
func ShortID(fullID string, existing map[string]struct{}) (string, int, error) {
	for nonce := 0; nonce < MaxShortIDAttempts; nonce++ {
		code := encode(fullID, nonce)
		if _, taken := existing[code]; !taken {
			return code, nonce, nil
		}
	}
	return "", 0, &apperr.CollisionExhaustedError{FullID: fullID, Attempts: MaxShortIDAttempts}
}

func encode(fullID string, nonce int) string {
	h := blake3.New()
	_, _ = h.Write([]byte(fullID))
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(nonce))
	_, _ = h.Write(n[:])
	sum := h.Sum(nil)

	buf := make([]byte, ShortIDLen)
	for i := range buf {
		buf[i] = alphabet[int(sum[i])%len(alphabet)]
	}
	return string(buf)
}

func writeFramed(h *blake3.Hasher, b []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	_, _ = h.Write(n[:])
	_, _ = h.Write(b)
}
