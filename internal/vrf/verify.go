package vrf

import "github.com/decred/dcrd/dcrec/secp256k1/v4"

// Verify implements the standard verifier of SPEC_FULL.md §4.6.
func Verify(pk *Point, alpha *secp256k1.ModNScalar, proof *Proof) (bool, error) {
	if !pk.IsOnCurve() {
		return false, ErrInvalidPoint
	}
	if !proof.Gamma.IsOnCurve() {
		return false, ErrInvalidPoint
	}

	h, err := HashToCurve(alpha, pk)
	if err != nil {
		return false, err
	}

	cpk := scalarMul(&proof.C, pk)
	sg := scalarBaseMul(&proof.S)
	u := pointAdd(&cpk, &sg)

	cgamma := scalarMul(&proof.C, &proof.Gamma)
	sh := scalarMul(&proof.S, &h)
	v := pointAdd(&cgamma, &sh)

	g := generatorPoint()
	cPrime := hashPoints(&g, &h, pk, &proof.Gamma, &u, &v)

	yDigest := keccakPoint(&proof.Gamma)
	yPrime := scalarFromBytes(yDigest[:])

	return cPrime.Equals(&proof.C) && yPrime.Equals(&proof.Y), nil
}
