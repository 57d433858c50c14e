package application

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"strconv"
)

// CryptoIDSource draws from crypto/rand. A read failure from the system
// randomness source is not recoverable, so it panics rather than handing
// out a guessable identifier.
type CryptoIDSource struct{}

func (CryptoIDSource) AppKey() string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func (CryptoIDSource) IdempotencyID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	// Unsigned decimal, matching the provider's authorization reference
	// format constraints.
	return strconv.FormatUint(binary.BigEndian.Uint64(b[:])>>1, 10)
}
