// Package envelope builds and signs the operator signature envelope of
// SPEC_FULL.md §4.7/§6: the fixed preimage binding (nonce, receiver, y) to
// the service identity, signed with an Ethereum personal-sign prefix.
//
// The EIP-191 prefixed hashing itself is the teacher's internal/auth.HashMessage,
// reused here rather than re-implemented: internal/auth keeps HashMessage and
// Recover as its EIP-191 primitives (its request authentication is bearer
// JWT and does not use them), and this package uses them to sign and recover
// a domain-specific preimage.
package envelope

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/orandlabs/orand/internal/auth"
)

// ErrInvalidReceiver is returned when the receiver address is not exactly
// 20 bytes.
var ErrInvalidReceiver = errors.New("envelope: receiver must be 20 bytes")

// Preimage builds the fixed-width preimage
// pad4(0x00000000) ‖ be_u64(nonce) ‖ receiver(20) ‖ y(32)
// per SPEC_FULL.md §4.7's implementation note (64 bytes, matching the
// original source's compose_operator_proof exactly; the distilled spec's
// "60 bytes" prose is corrected there).
func Preimage(nonce uint64, receiver [20]byte, y [32]byte) []byte {
	buf := make([]byte, 0, 4+8+20+32)
	buf = append(buf, 0, 0, 0, 0)
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	buf = append(buf, nonceBytes[:]...)
	buf = append(buf, receiver[:]...)
	buf = append(buf, y[:]...)
	return buf
}

// Sign signs the (nonce, receiver, y) envelope with the operator's secret
// scalar and returns the 65-byte r(32)‖s(32)‖v(1) signature_proof of
// SPEC_FULL.md §6. The secret is converted through go-ethereum's ECDSA
// representation purely for the signing call; it is never retained beyond
// this function's stack.
func Sign(sk *secp256k1.ModNScalar, nonce uint64, receiver [20]byte, y [32]byte) ([]byte, error) {
	preimage := Preimage(nonce, receiver, y)
	hash := auth.HashMessage(preimage)

	skBytes := sk.Bytes()
	ecdsaKey, err := crypto.ToECDSA(skBytes[:])
	if err != nil {
		return nil, fmt.Errorf("envelope: load secret key: %w", err)
	}

	sig, err := crypto.Sign(hash, ecdsaKey)
	if err != nil {
		return nil, fmt.Errorf("envelope: sign: %w", err)
	}
	// crypto.Sign already returns r(32)‖s(32)‖v(1) with v in {0,1}.
	out := make([]byte, 65)
	copy(out, sig)
	return out, nil
}

// Recover extracts the signer's Ethereum-style address from a signed
// envelope, used by tests to double-check a signature_proof.
func Recover(nonce uint64, receiver [20]byte, y [32]byte, sig []byte) ([20]byte, error) {
	var addr [20]byte
	preimage := Preimage(nonce, receiver, y)
	a, err := auth.Recover(preimage, sig)
	if err != nil {
		return addr, fmt.Errorf("envelope: ecrecover: %w", err)
	}
	copy(addr[:], a.Bytes())
	return addr, nil
}
