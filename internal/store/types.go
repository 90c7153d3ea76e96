// Package store implements the relational persistence layer of
// SPEC_FULL.md §6/§3: keyring, receiver, and randomness tables, with
// transactional epoch commits and unique-constraint enforcement on α, y,
// and signature_proof.
//
// Grounded on original_source/node/src/postgres/table/{randomness,receiver}.rs
// for the query shapes, and on the teacher's preference (sachinlv-chainlink's
// go.mod) for github.com/lib/pq as the database/sql driver.
package store

import (
	"errors"
	"time"
)

// Sentinel errors surfaced at the store boundary, mapped to SPEC_FULL.md §7
// error kinds by the callers in internal/epoch and internal/rpc.
var (
	ErrReceiverUnknown   = errors.New("store: receiver unknown")
	ErrReceiverExists    = errors.New("store: receiver name already used by this keyring, or (network, address) already claimed")
	ErrReceiverHasEpochs = errors.New("store: receiver has existing epochs, refusing delete")
	ErrDuplicateSeed     = errors.New("store: alpha already used for this receiver")
	ErrDuplicateOutput   = errors.New("store: y already produced for this receiver")
	ErrDuplicateProof    = errors.New("store: signature_proof already recorded")
	ErrKeyringNotFound   = errors.New("store: keyring not found")
	ErrKeyringExists     = errors.New("store: keyring username already exists")
	ErrNonceConflict     = errors.New("store: receiver nonce changed concurrently")
)

// Keyring is a named service identity (SPEC_FULL.md §3).
type Keyring struct {
	ID         int64
	Username   string
	HMACSecret string
	PublicKey  string
	SecretKey  string
	CreatedAt  time.Time
}

// Receiver is a (network, address) pair with its own epoch chain and
// nonce (SPEC_FULL.md §3).
type Receiver struct {
	ID        int64
	KeyringID int64
	Name      string
	Network   int64
	Address   string
	Nonce     uint64
}

// Epoch is a persisted randomness record (SPEC_FULL.md §3/§6).
type Epoch struct {
	ID              int64
	KeyringID       int64
	ReceiverID      int64
	Epoch           int64
	Alpha           string
	Gamma           string
	C               string
	S               string
	Y               string
	WitnessAddress  string
	WitnessGamma    string
	WitnessHash     string
	InverseZ        string
	SignatureProof  string
	CreatedAt       time.Time
}

// NewEpochInput carries the fields needed to persist a new epoch, produced
// by the chain controller (internal/epoch) after running the contract-proof
// transformer and signing the operator envelope.
type NewEpochInput struct {
	KeyringID      int64
	ReceiverID     int64
	Epoch          int64
	Alpha          string
	Gamma          string
	C              string
	S              string
	Y              string
	WitnessAddress string
	WitnessGamma   string
	WitnessHash    string
	InverseZ       string
	SignatureProof string
}
