package vrf

import "github.com/decred/dcrd/dcrec/secp256k1/v4"

// ProveContract implements the contract-proof transformer of SPEC_FULL.md
// §4.5, producing the EVM-cheap proof consumed by the chain controller
// (§4.7) and, ultimately, the on-chain verifier.
func ProveContract(kp *KeyPair, alpha *secp256k1.ModNScalar) (*ContractProof, error) {
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
	uDigest := keccakPoint(&kg)
	var uWitness [20]byte
	copy(uWitness[:], uDigest[12:32])

	kh := scalarMul(&k, &h)

	c := hashPointsPrefix(&h, &pk, &gamma, uWitness, &kh)

	negCSk := scalarMulMod(&c, &kp.Secret)
	negCSk = scalarNeg(&negCSk)
	s := scalarAddMod(&k, &negCSk)

	witnessGamma := scalarMul(&c, &gamma)
	witnessHash := scalarMul(&s, &h)

	v := ProjectiveECAdd(&witnessGamma, &witnessHash)
	var inverseZ secp256k1.FieldVal
	inverseZ.Set(&v.Z)
	inverseZ.Inverse()
	inverseZ.Normalize()

	yDigest := keccakPoint(&gamma)
	y := scalarFromBytes(yDigest[:])

	return &ContractProof{
		PublicKey:    pk,
		Gamma:        gamma,
		C:            c,
		S:            s,
		Alpha:        *alpha,
		UWitness:     uWitness,
		WitnessGamma: witnessGamma,
		WitnessHash:  witnessHash,
		InverseZ:     inverseZ,
		Y:            y,
	}, nil
}

// VerifyWitness checks the witness-consistency equations of SPEC_FULL.md
// §8 for a contract proof already known to be well-formed. It is used by
// this package's tests; the chain controller does not call it before
// persisting.
func VerifyWitness(pk *Point, proof *ContractProof) (bool, error) {
	h, err := HashToCurve(&proof.Alpha, pk)
	if err != nil {
		return false, err
	}

	wantGamma := scalarMul(&proof.C, &proof.Gamma)
	if !wantGamma.Equals(&proof.WitnessGamma) {
		return false, nil
	}
	wantHash := scalarMul(&proof.S, &h)
	if !wantHash.Equals(&proof.WitnessHash) {
		return false, nil
	}

	v := ProjectiveECAdd(&proof.WitnessGamma, &proof.WitnessHash)
	prod := fMul(v.Z, proof.InverseZ)
	var one secp256k1.FieldVal
	one.SetInt(1)
	if !prod.Equals(&one) {
		return false, nil
	}

	cpk := scalarMul(&proof.C, pk)
	sg := scalarBaseMul(&proof.S)
	u := pointAdd(&cpk, &sg)
	uDigest := keccakPoint(&u)
	var recovered [20]byte
	copy(recovered[:], uDigest[12:32])
	if recovered != proof.UWitness {
		return false, nil
	}

	yDigest := keccakPoint(&proof.Gamma)
	y := scalarFromBytes(yDigest[:])
	return y.Equals(&proof.Y), nil
}
