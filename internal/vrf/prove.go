package vrf

import "github.com/decred/dcrd/dcrec/secp256k1/v4"

// generatorPoint returns the secp256k1 base point G.
func generatorPoint() Point {
	var one secp256k1.ModNScalar
	one.SetInt(1)
	return scalarBaseMul(&one)
}

// Prove implements the standard prover of SPEC_FULL.md §4.3. The secret
// scalar is zeroed from the caller's keypair by the caller once no longer
// needed (§9 secret-scalar hygiene); Prove itself never copies sk into
// long-lived state.
func Prove(kp *KeyPair, alpha *secp256k1.ModNScalar) (*Proof, error) {
	pk := kp.Public

	h, err := HashToCurve(alpha, &pk)
	if err != nil {
		return nil, err
	}

	gamma := scalarMul(&kp.Secret, &h)

	k, err := randomScalar()
	if err != nil {
		return nil, err
	}

	kg := scalarBaseMul(&k)
	kh := scalarMul(&k, &h)

	g := generatorPoint()
	c := hashPoints(&g, &h, &pk, &gamma, &kg, &kh)

	negCSk := scalarMulMod(&c, &kp.Secret)
	negCSk = scalarNeg(&negCSk)
	s := scalarAddMod(&k, &negCSk)

	yDigest := keccakPoint(&gamma)
	y := scalarFromBytes(yDigest[:])

	return &Proof{Gamma: gamma, C: c, S: s, Y: y}, nil
}
