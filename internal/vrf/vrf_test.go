package vrf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testVectorSecretKeyHex = "cbc9d3dfb474233a148fba708e1b3683de8816fc7e35e28e96a831a117075f7a"

func TestRoundTrip(t *testing.T) {
	for i := 0; i < 300; i++ {
		kp, err := NewKeyPair()
		require.NoError(t, err)

		alpha, err := randomScalar()
		require.NoError(t, err)

		proof, err := Prove(kp, &alpha)
		require.NoError(t, err)

		ok, err := Verify(&kp.Public, &alpha, proof)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestHashToCurveDeterministic(t *testing.T) {
	kp, err := NewKeyPair()
	require.NoError(t, err)
	alpha, err := randomScalar()
	require.NoError(t, err)

	h1, err := HashToCurve(&alpha, &kp.Public)
	require.NoError(t, err)
	h2, err := HashToCurve(&alpha, &kp.Public)
	require.NoError(t, err)

	require.True(t, h1.Equals(&h2))
}

func TestContractProofWitnessConsistency(t *testing.T) {
	for i := 0; i < 100; i++ {
		kp, err := NewKeyPair()
		require.NoError(t, err)
		alpha, err := randomScalar()
		require.NoError(t, err)

		proof, err := ProveContract(kp, &alpha)
		require.NoError(t, err)

		ok, err := VerifyWitness(&kp.Public, proof)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestKnownKeyDeterministicChain(t *testing.T) {
	kp, err := KeyPairFromHex(testVectorSecretKeyHex)
	require.NoError(t, err)

	alpha0 := ScalarFromInt(1)

	proof1, err := Prove(kp, &alpha0)
	require.NoError(t, err)
	ok, err := Verify(&kp.Public, &alpha0, proof1)
	require.NoError(t, err)
	require.True(t, ok)

	proof2, err := Prove(kp, &alpha0)
	require.NoError(t, err)

	require.True(t, proof1.Gamma.Equals(&proof2.Gamma))
	require.True(t, proof1.Y.Equals(&proof2.Y))

	yBytes := proof1.Y.Bytes()
	alpha1 := scalarFromBytes(yBytes[:])

	proof3, err := Prove(kp, &alpha1)
	require.NoError(t, err)
	ok, err = Verify(&kp.Public, &alpha1, proof3)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHashToCurveReproducibility(t *testing.T) {
	kp, err := KeyPairFromHex(testVectorSecretKeyHex)
	require.NoError(t, err)
	alpha := ScalarFromInt(1)

	h1, err := HashToCurve(&alpha, &kp.Public)
	require.NoError(t, err)
	h2, err := HashToCurve(&alpha, &kp.Public)
	require.NoError(t, err)
	require.Equal(t, h1.Bytes(), h2.Bytes())
}

func TestNegativeTamperedProofRejected(t *testing.T) {
	kp, err := NewKeyPair()
	require.NoError(t, err)
	alpha, err := randomScalar()
	require.NoError(t, err)

	cases := []struct {
		name   string
		tamper func(tampered *Proof)
	}{
		// Substitute a different on-curve point so Gamma stays valid
		// (off-curve would fail via ErrInvalidPoint, not a false verify).
		{"gamma", func(tampered *Proof) { tampered.Gamma = generatorPoint() }},
		{"c", func(tampered *Proof) { tampered.C = scalarAddMod(&tampered.C, &oneScalar) }},
		{"s", func(tampered *Proof) { tampered.S = scalarAddMod(&tampered.S, &oneScalar) }},
		{"y", func(tampered *Proof) { tampered.Y = scalarAddMod(&tampered.Y, &oneScalar) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			proof, err := Prove(kp, &alpha)
			require.NoError(t, err)

			tampered := *proof
			tc.tamper(&tampered)
			ok, err := Verify(&kp.Public, &alpha, &tampered)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestNegativeTamperedAlphaRejected(t *testing.T) {
	kp, err := NewKeyPair()
	require.NoError(t, err)
	alpha, err := randomScalar()
	require.NoError(t, err)

	proof, err := Prove(kp, &alpha)
	require.NoError(t, err)

	otherAlpha, err := randomScalar()
	require.NoError(t, err)

	ok, err := Verify(&kp.Public, &otherAlpha, proof)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNegativeWrongPublicKeyRejected(t *testing.T) {
	kp1, err := NewKeyPair()
	require.NoError(t, err)
	kp2, err := NewKeyPair()
	require.NoError(t, err)
	alpha, err := randomScalar()
	require.NoError(t, err)

	proof, err := Prove(kp1, &alpha)
	require.NoError(t, err)

	ok, err := Verify(&kp2.Public, &alpha, proof)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRangeOfK(t *testing.T) {
	for i := 0; i < 200; i++ {
		k, err := randomScalar()
		require.NoError(t, err)
		require.False(t, k.IsZero())
	}
}

var oneScalar = ScalarFromInt(1)
