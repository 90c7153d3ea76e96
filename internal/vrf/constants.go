package vrf

import "math/big"

// FieldSizeHex and GroupOrderHex are the exact constants named in
// SPEC_FULL.md §6. FieldSizeHex is p, the secp256k1 base field modulus
// (2²⁵⁶−2³²−977); despite §3's looser "p−1" prose, the hex literal here is
// authoritative (see SPEC_FULL.md §3 implementation note).
const (
	FieldSizeHex  = "fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f"
	GroupOrderHex = "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141"
)

var fieldSize = mustBigHex(FieldSizeHex)

func mustBigHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("vrf: invalid hex constant " + s)
	}
	return n
}
