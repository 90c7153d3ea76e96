package vrf

import "github.com/decred/dcrd/dcrec/secp256k1/v4"

// curveB is the secp256k1 curve constant b in y² = x³ + b (b = 7).
var curveB = func() secp256k1.FieldVal {
	var b secp256k1.FieldVal
	b.SetInt(7)
	return b
}()

func squared(f *secp256k1.FieldVal) secp256k1.FieldVal {
	var out secp256k1.FieldVal
	out.SquareVal(f)
	out.Normalize()
	return out
}

// ySquared computes x³ + 7 in F, matching SPEC_FULL.md §4.2 step 2.
func ySquared(x *secp256k1.FieldVal) secp256k1.FieldVal {
	var x3 secp256k1.FieldVal
	x3.SquareVal(x).Mul(x)
	x3.Add(&curveB)
	x3.Normalize()
	return x3
}

func normalizePoint(p *Point) {
	p.X.Normalize()
	p.Y.Normalize()
}
