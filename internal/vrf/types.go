// Package vrf implements the EC-VRF construction over secp256k1 described
// in SPEC_FULL.md §4: hash-to-curve, the Schnorr-style prover/verifier, and
// the contract-proof transformer that produces EVM-cheap witness values.
package vrf

import (
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// ErrRetriesExceeded is returned when hash-to-curve or k-sampling fails to
// produce a valid value within MaxRetries attempts.
var ErrRetriesExceeded = errors.New("vrf: retries exceeded")

// ErrInvalidPoint is returned when a supplied point fails the on-curve
// check during verification.
var ErrInvalidPoint = errors.New("vrf: point is not on curve")

// ErrInvalidKey is returned for a zero or otherwise malformed secret key.
var ErrInvalidKey = errors.New("vrf: invalid secret key")

// MaxRetries bounds the hash-to-curve and k-sampling retry loops.
const MaxRetries = 100

// HashToCurveHashPrefix is the domain-separation prefix for hash-to-curve
// (SPEC_FULL.md §4.2 / §6).
const HashToCurveHashPrefix = 1

// ScalarFromCurvePointsHashPrefix is the domain-separation prefix for
// hash_points_prefix (SPEC_FULL.md §4.1 / §6).
const ScalarFromCurvePointsHashPrefix = 2

// Point is a normalized affine point on secp256k1.
type Point struct {
	X secp256k1.FieldVal
	Y secp256k1.FieldVal
}

// Bytes returns the 64-byte big-endian concatenation X‖Y.
func (p *Point) Bytes() [64]byte {
	var out [64]byte
	x := p.X.Bytes()
	y := p.Y.Bytes()
	copy(out[:32], x[:])
	copy(out[32:], y[:])
	return out
}

// Jacobian lifts the affine point into jacobian coordinates with Z=1.
func (p *Point) Jacobian() secp256k1.JacobianPoint {
	var j secp256k1.JacobianPoint
	j.X = p.X
	j.Y = p.Y
	j.Z.SetInt(1)
	return j
}

// FromJacobian normalizes a jacobian point into affine form.
func FromJacobian(j *secp256k1.JacobianPoint) Point {
	jc := *j
	jc.ToAffine()
	return Point{X: jc.X, Y: jc.Y}
}

// Equals reports whether two normalized points are identical.
func (p *Point) Equals(o *Point) bool {
	return p.X.Equals(&o.X) && p.Y.Equals(&o.Y)
}

// IsOnCurve reports whether y² = x³ + 7 holds for the point.
func (p *Point) IsOnCurve() bool {
	return ySquared(&p.X).Equals(squared(&p.Y))
}

// KeyPair is a long-term secp256k1 identity: sk ∈ S \ {0}, pk = sk·G.
type KeyPair struct {
	Secret secp256k1.ModNScalar
	Public Point
}

// NewKeyPair draws a fresh secret scalar from the OS CSPRNG and derives the
// corresponding public point.
func NewKeyPair() (*KeyPair, error) {
	sk, err := randomScalar()
	if err != nil {
		return nil, err
	}
	return KeyPairFromScalar(sk)
}

// KeyPairFromScalar derives a keypair from an existing nonzero scalar.
func KeyPairFromScalar(sk secp256k1.ModNScalar) (*KeyPair, error) {
	if sk.IsZero() {
		return nil, ErrInvalidKey
	}
	var j secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&sk, &j)
	j.ToAffine()
	return &KeyPair{Secret: sk, Public: Point{X: j.X, Y: j.Y}}, nil
}

// Zero clears the secret scalar. Callers MUST call this once the keypair's
// secret material is no longer needed for the current operation (SPEC_FULL.md
// §9, secret-scalar hygiene).
func (k *KeyPair) Zero() {
	k.Secret.Zero()
}

// Proof is the standard VRF proof of SPEC_FULL.md §4.3/§4.6.
type Proof struct {
	Gamma Point
	C     secp256k1.ModNScalar
	S     secp256k1.ModNScalar
	Y     secp256k1.ModNScalar
}

// ContractProof is the EVM-cheap proof of SPEC_FULL.md §4.5.
type ContractProof struct {
	PublicKey    Point
	Gamma        Point
	C            secp256k1.ModNScalar
	S            secp256k1.ModNScalar
	Alpha        secp256k1.ModNScalar
	UWitness     [20]byte
	WitnessGamma Point
	WitnessHash  Point
	InverseZ     secp256k1.FieldVal
	Y            secp256k1.ModNScalar
}
