package vrf

import "github.com/decred/dcrd/dcrec/secp256k1/v4"

// frac is a "projective fraction" x/y as used by the on-chain-friendly
// addition formula of SPEC_FULL.md §4.4.
type frac struct {
	x secp256k1.FieldVal
	y secp256k1.FieldVal
}

func fracOf(x secp256k1.FieldVal) frac {
	var one secp256k1.FieldVal
	one.SetInt(1)
	return frac{x: x, y: one}
}

func fAdd(a, b secp256k1.FieldVal) secp256k1.FieldVal {
	var r secp256k1.FieldVal
	r.Add2(&a, &b)
	r.Normalize()
	return r
}

func fSub(a, b secp256k1.FieldVal) secp256k1.FieldVal {
	neg := b
	neg.Normalize()
	neg.Negate(1)
	neg.Normalize()
	var r secp256k1.FieldVal
	r.Add2(&a, &neg)
	r.Normalize()
	return r
}

func fMul(a, b secp256k1.FieldVal) secp256k1.FieldVal {
	var r secp256k1.FieldVal
	r.Mul2(&a, &b)
	r.Normalize()
	return r
}

// projSub implements the projective subtraction rule of SPEC_FULL.md §4.4:
// (a.x, a.y) ⊖ (b.x, b.y) = (b.y·a.x − a.y·b.x, a.y·b.y).
func projSub(a, b frac) frac {
	return frac{
		x: fSub(fMul(b.y, a.x), fMul(a.y, b.x)),
		y: fMul(a.y, b.y),
	}
}

// projMul implements the projective multiplication rule of SPEC_FULL.md
// §4.4: (a.x, a.y) ⊗ (b.x, b.y) = (a.x·b.x, a.y·b.y).
func projMul(a, b frac) frac {
	return frac{x: fMul(a.x, b.x), y: fMul(a.y, b.y)}
}

// ProjectiveECAdd adds two distinct affine points A, B (neither at infinity,
// A ≠ ±B) and returns the jacobian triple (X, Y, Z) equivalent to A + B,
// computed without a field inversion, per SPEC_FULL.md §4.4. The public Z is
// exactly the Z implied by this formula since the contract-proof
// transformer publishes its inverse.
func ProjectiveECAdd(a, b *Point) secp256k1.JacobianPoint {
	l := frac{x: fSub(b.Y, a.Y), y: fSub(b.X, a.X)}

	s1 := projSub(projSub(projMul(l, l), fracOf(a.X)), fracOf(b.X))
	s2 := projSub(projMul(projSub(fracOf(a.X), s1), l), fracOf(a.Y))

	var out secp256k1.JacobianPoint
	if !s1.y.Equals(&s2.y) {
		out.X = fMul(s1.x, s2.y)
		out.Y = fMul(s2.x, s1.y)
		out.Z = fMul(s1.y, s2.y)
	} else {
		out.X = s1.x
		out.Y = s2.x
		out.Z = s1.y
	}
	out.X.Normalize()
	out.Y.Normalize()
	out.Z.Normalize()
	return out
}
