package vrf

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// KeyPairFromHex loads a keypair from a 64-character hex-encoded secret
// scalar, as used by the end-to-end test vector of SPEC_FULL.md §8 and by
// cmd/orandd's operator keyring bootstrap (the keyring.operator_secret_key
// config value, or a stored keyring's secret key).
func KeyPairFromHex(skHex string) (*KeyPair, error) {
	b, err := hex.DecodeString(skHex)
	if err != nil {
		return nil, fmt.Errorf("vrf: decode secret key hex: %w", err)
	}
	var sk secp256k1.ModNScalar
	overflow := sk.SetByteSlice(b)
	if overflow {
		return nil, ErrInvalidKey
	}
	return KeyPairFromScalar(sk)
}

// ScalarFromInt builds a scalar from a small non-negative integer, used for
// the α = scalar(1) test vectors of SPEC_FULL.md §8.
func ScalarFromInt(v uint32) secp256k1.ModNScalar {
	var s secp256k1.ModNScalar
	s.SetInt(v)
	return s
}

// PublicKeyHex renders a point as the 128-hex-char wire encoding of
// SPEC_FULL.md §6.
func (p *Point) PublicKeyHex() string {
	b := p.Bytes()
	return hex.EncodeToString(b[:])
}
