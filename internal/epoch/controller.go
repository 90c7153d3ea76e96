// Package epoch implements the chain controller of SPEC_FULL.md §4.7: a
// per-(network, receiver) append-only log of VRF epochs, serialized by a
// lazily-created per-receiver mutex and committed transactionally to the
// store.
//
// Grounded on original_source/node/src/postgres/table/randomness.rs's
// safe_insert (lock → read previous y → prove → compose envelope → insert,
// all under one guard) and on the teacher's internal/billing/signer.go for
// the Go idiom of a mutex/nonce-guarded signer wrapping persistent state.
package epoch

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orandlabs/orand/internal/envelope"
	"github.com/orandlabs/orand/internal/store"
	"github.com/orandlabs/orand/internal/vrf"
)

// ErrReceiverUnknown is returned when the (network, address) pair is not
// registered and the controller is not configured for testnet
// auto-provisioning.
var ErrReceiverUnknown = store.ErrReceiverUnknown

// Result is the externally-visible shape of a freshly produced epoch,
// independent of the store's row representation.
type Result struct {
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

// Controller produces successive epochs for receivers of any keyring (the
// keyring and its VRF keypair are passed to each NewEpoch call), signs every
// operator envelope with one operator secret key, and persists each epoch
// through Store.
type Controller struct {
	st            store.Store
	operatorKey   secp256k1.ModNScalar
	testnet       bool
	commitTimeout time.Duration
	log           *zap.Logger

	mu        sync.Mutex // guards the registry map itself, not individual receivers
	receivers map[int64]*sync.Mutex
}

// New builds a Controller. operatorKey is the service's own secp256k1
// secret scalar used to sign operator envelopes (distinct from any
// receiver's VRF keypair, which lives in Store per-keyring).
func New(st store.Store, operatorKey secp256k1.ModNScalar, testnet bool, log *zap.Logger) *Controller {
	return &Controller{
		st:            st,
		operatorKey:   operatorKey,
		testnet:       testnet,
		commitTimeout: 30 * time.Second,
		log:           log,
		receivers:     make(map[int64]*sync.Mutex),
	}
}

func (c *Controller) lockFor(receiverID int64) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.receivers[receiverID]
	if !ok {
		m = &sync.Mutex{}
		c.receivers[receiverID] = m
	}
	return m
}

// NewEpoch runs SPEC_FULL.md §4.7 for the given keyring/receiver: resolves
// the receiver by (network, address) — auto-provisioning it under a fresh
// UUID name in testnet mode — derives α, invokes the contract-proof
// transformer, signs the operator envelope, and persists the result.
func (c *Controller) NewEpoch(ctx context.Context, kp *vrf.KeyPair, k *store.Keyring, network int64, address string) (*Result, error) {
	r, err := c.resolveReceiver(ctx, k, network, address)
	if err != nil {
		return nil, err
	}

	lock := c.lockFor(r.ID)
	lock.Lock()
	defer lock.Unlock()

	latest, err := c.st.LatestEpoch(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("epoch: read latest: %w", err)
	}

	var alpha secp256k1.ModNScalar
	var nextEpochNum int64
	if latest == nil {
		fresh, err := vrf.RandomAlpha()
		if err != nil {
			return nil, fmt.Errorf("epoch: derive fresh alpha: %w", err)
		}
		alpha = fresh
		nextEpochNum = 0
	} else {
		yBytes, err := hex.DecodeString(latest.Y)
		if err != nil {
			return nil, fmt.Errorf("epoch: decode previous y: %w", err)
		}
		overflow := alpha.SetByteSlice(yBytes)
		if overflow {
			return nil, errors.New("epoch: previous y overflows scalar field")
		}
		nextEpochNum = latest.Epoch + 1
	}

	proof, err := vrf.ProveContract(kp, &alpha)
	if err != nil {
		return nil, fmt.Errorf("epoch: contract proof: %w", err)
	}

	var receiverAddr [20]byte
	addrBytes, err := hex.DecodeString(trimHexPrefix(r.Address))
	if err != nil || len(addrBytes) != 20 {
		return nil, fmt.Errorf("epoch: decode receiver address: %w", err)
	}
	copy(receiverAddr[:], addrBytes)

	var yBytes32 [32]byte
	yb := proof.Y.Bytes()
	copy(yBytes32[:], yb[:])

	sig, err := envelope.Sign(&c.operatorKey, r.Nonce, receiverAddr, yBytes32)
	if err != nil {
		return nil, fmt.Errorf("epoch: sign envelope: %w", err)
	}

	in := toStoreInput(k.ID, r.ID, nextEpochNum, &alpha, proof, sig)

	// Detached context so a client disconnect at the HTTP layer cannot
	// abort a persisted write (SPEC_FULL.md §5, Cancellation).
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.commitTimeout)
	defer cancel()

	e, err := c.st.InsertEpoch(commitCtx, r.ID, r.Nonce, in)
	if err != nil {
		return nil, fmt.Errorf("epoch: persist: %w", err)
	}

	return &Result{
		Epoch: e.Epoch, Alpha: e.Alpha, Gamma: e.Gamma, C: e.C, S: e.S, Y: e.Y,
		WitnessAddress: e.WitnessAddress, WitnessGamma: e.WitnessGamma,
		WitnessHash: e.WitnessHash, InverseZ: e.InverseZ, SignatureProof: e.SignatureProof,
	}, nil
}

func (c *Controller) resolveReceiver(ctx context.Context, k *store.Keyring, network int64, address string) (*store.Receiver, error) {
	r, err := c.st.FindReceiverByNetworkAddress(ctx, network, address)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, store.ErrReceiverUnknown) {
		return nil, err
	}
	if !c.testnet {
		return nil, ErrReceiverUnknown
	}

	name := uuid.NewString()
	c.log.Warn("auto-provisioning receiver in testnet mode",
		zap.Int64("network", network), zap.String("address", address), zap.String("name", name))
	return c.st.CreateReceiver(ctx, k.ID, name, network, address)
}

func toStoreInput(keyringID, receiverID, epochNum int64, alpha *secp256k1.ModNScalar, p *vrf.ContractProof, sig []byte) store.NewEpochInput {
	alphaBytes := alpha.Bytes()
	gammaBytes := p.Gamma.Bytes()
	cBytes := p.C.Bytes()
	sBytes := p.S.Bytes()
	yBytes := p.Y.Bytes()
	inverseZBytes := p.InverseZ.Bytes()
	witnessGammaBytes := p.WitnessGamma.Bytes()
	witnessHashBytes := p.WitnessHash.Bytes()

	return store.NewEpochInput{
		KeyringID: keyringID, ReceiverID: receiverID, Epoch: epochNum,
		Alpha:          hex.EncodeToString(alphaBytes[:]),
		Gamma:          hex.EncodeToString(gammaBytes[:]),
		C:              hex.EncodeToString(cBytes[:]),
		S:              hex.EncodeToString(sBytes[:]),
		Y:              hex.EncodeToString(yBytes[:]),
		WitnessAddress: hex.EncodeToString(p.UWitness[:]),
		WitnessGamma:   hex.EncodeToString(witnessGammaBytes[:]),
		WitnessHash:    hex.EncodeToString(witnessHashBytes[:]),
		InverseZ:       hex.EncodeToString(inverseZBytes[:]),
		SignatureProof: hex.EncodeToString(sig),
	}
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
