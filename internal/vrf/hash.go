package vrf

import (
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/crypto"
)

// keccakPoint implements keccak_point(P) of SPEC_FULL.md §4.1: normalize P,
// then Keccak-256 of the 64-byte concatenation x‖y.
func keccakPoint(p *Point) [32]byte {
	normalizePoint(p)
	b := p.Bytes()
	return [32]byte(crypto.Keccak256(b[:]))
}

// scalarFromBytes implements scalar_from_bytes(b) of SPEC_FULL.md §4.1.
func scalarFromBytes(b []byte) secp256k1.ModNScalar {
	var s secp256k1.ModNScalar
	s.SetByteSlice(b)
	return s
}

// hashPoints implements hash_points(G, H, pk, γ, kG, kH) of SPEC_FULL.md
// §4.1: Keccak-256 of the 12 coordinates in fixed order, reinterpreted as a
// scalar.
func hashPoints(g, h, pk, gamma, kg, kh *Point) secp256k1.ModNScalar {
	points := [...]*Point{g, h, pk, gamma, kg, kh}
	buf := make([]byte, 0, 64*len(points))
	for _, p := range points {
		normalizePoint(p)
		b := p.Bytes()
		buf = append(buf, b[:]...)
	}
	digest := crypto.Keccak256(buf)
	return scalarFromBytes(digest)
}

// hashPointsPrefix implements hash_points_prefix(H, pk, γ, u_witness, V) of
// SPEC_FULL.md §4.1. The domain-separation prefix 2 MUST NOT be omitted.
func hashPointsPrefix(h, pk, gamma *Point, uWitness [20]byte, v *Point) secp256k1.ModNScalar {
	var prefix secp256k1.ModNScalar
	prefix.SetInt(ScalarFromCurvePointsHashPrefix)
	prefixBytes := prefix.Bytes()

	points := [...]*Point{h, pk, gamma, v}
	buf := make([]byte, 0, 32+64*len(points)+20)
	buf = append(buf, prefixBytes[:]...)
	for _, p := range points {
		normalizePoint(p)
		b := p.Bytes()
		buf = append(buf, b[:]...)
	}
	buf = append(buf, uWitness[:]...)

	digest := crypto.Keccak256(buf)
	return scalarFromBytes(digest)
}

// candidateFieldElement implements SPEC_FULL.md §4.2 step 1: x₀ =
// keccak256(prefix(=1) ‖ pk.x ‖ pk.y ‖ seed), reduced into F. If the raw
// 256-bit digest is >= FIELD_SIZE the digest is rehashed once more (see
// SPEC_FULL.md §3 implementation note: the comparison is against the exact
// FIELD_SIZE constant, mirroring the original's effectively-dead-but-present
// guard).
// candidateFieldElementFn is indirected through a package variable so tests
// can force pathological (always off-curve) candidates to exercise the
// MaxRetries / RetriesExceeded bound of §4.2 step 3 (SPEC_FULL.md §8 scenario
// 5) without needing hundreds of real retries.
var candidateFieldElementFn = candidateFieldElement

func candidateFieldElement(pk *Point, seed []byte) secp256k1.FieldVal {
	var prefix secp256k1.ModNScalar
	prefix.SetInt(HashToCurveHashPrefix)
	prefixBytes := prefix.Bytes()

	px := pk.X.Bytes()
	py := pk.Y.Bytes()
	buf := make([]byte, 0, 32+32+32+len(seed))
	buf = append(buf, prefixBytes[:]...)
	buf = append(buf, px[:]...)
	buf = append(buf, py[:]...)
	buf = append(buf, seed...)

	digest := crypto.Keccak256(buf)
	if new(big.Int).SetBytes(digest).Cmp(fieldSize) >= 0 {
		digest = crypto.Keccak256(digest)
	}

	var x secp256k1.FieldVal
	x.SetByteSlice(digest)
	x.Normalize()
	return x
}
