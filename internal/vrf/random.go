package vrf

import (
	"crypto/rand"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// RandomAlpha draws a fresh uniform scalar for use as α when a receiver has
// no prior epoch (SPEC_FULL.md §4.7 step 1).
func RandomAlpha() (secp256k1.ModNScalar, error) {
	return randomScalar()
}

// randomScalar draws a uniform nonzero scalar from the OS CSPRNG, rejecting
// zero and out-of-range draws per SPEC_FULL.md §4.3 step 3 / §9 (k MUST NOT
// be cached or reused).
func randomScalar() (secp256k1.ModNScalar, error) {
	var s secp256k1.ModNScalar
	var buf [32]byte
	for i := 0; i < MaxRetries; i++ {
		if _, err := rand.Read(buf[:]); err != nil {
			return s, err
		}
		overflow := s.SetByteSlice(buf[:])
		if overflow || s.IsZero() {
			continue
		}
		return s, nil
	}
	return s, ErrRetriesExceeded
}
