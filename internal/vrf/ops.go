package vrf

import "github.com/decred/dcrd/dcrec/secp256k1/v4"

// scalarBaseMul computes k·G (fixed-base).
func scalarBaseMul(k *secp256k1.ModNScalar) Point {
	var j secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &j)
	return FromJacobian(&j)
}

// scalarMul computes k·P (variable-base).
func scalarMul(k *secp256k1.ModNScalar, p *Point) Point {
	j := p.Jacobian()
	var out secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(k, &j, &out)
	return FromJacobian(&out)
}

// pointAdd computes A + B using the library's general (non-witness) point
// addition; used where the spec does not require the on-chain-friendly
// projective form (e.g. the standard verifier's U and V, §4.6 steps 3-4).
func pointAdd(a, b *Point) Point {
	ja := a.Jacobian()
	jb := b.Jacobian()
	var out secp256k1.JacobianPoint
	secp256k1.AddNonConst(&ja, &jb, &out)
	return FromJacobian(&out)
}

// scalarNeg returns -s mod n.
func scalarNeg(s *secp256k1.ModNScalar) secp256k1.ModNScalar {
	r := *s
	r.Negate()
	return r
}

// scalarMulMod returns a*b mod n.
func scalarMulMod(a, b *secp256k1.ModNScalar) secp256k1.ModNScalar {
	var r secp256k1.ModNScalar
	r.Mul2(a, b)
	return r
}

// scalarAddMod returns a+b mod n.
func scalarAddMod(a, b *secp256k1.ModNScalar) secp256k1.ModNScalar {
	var r secp256k1.ModNScalar
	r.Add2(a, b)
	return r
}
