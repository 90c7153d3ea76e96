package vrf

import "github.com/decred/dcrd/dcrec/secp256k1/v4"

// HashToCurve implements SPEC_FULL.md §4.2: deterministically map (α, pk)
// to a curve point by iterated Keccak with retry until a valid point is
// found. Both the standard and contract-proof paths use this single
// implementation (the legacy non-contract variant named in §9's Open
// Question is retired, per that section's own recommendation).
func HashToCurve(alpha *secp256k1.ModNScalar, pk *Point) (Point, error) {
	alphaBytes := alpha.Bytes()
	seed := alphaBytes[:]

	for i := 0; i < MaxRetries; i++ {
		x := candidateFieldElementFn(pk, seed)

		var y secp256k1.FieldVal
		if secp256k1.DecompressY(&x, false, &y) {
			p := Point{X: x, Y: y}
			normalizePoint(&p)
			return p, nil
		}

		xb := x.Bytes()
		seed = xb[:]
	}
	return Point{}, ErrRetriesExceeded
}
