package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

// PostgresStore is the production Store backed by database/sql and
// github.com/lib/pq, grounded on original_source/node/src/postgres/table's
// query shapes (find_latest_epoch / find_given_epoch / safe_insert).
type PostgresStore struct {
	db *sql.DB
}

// Open opens a connection pool against dsn (a standard postgres:// URL).
func Open(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// DB exposes the underlying pool, e.g. for health checks.
func (s *PostgresStore) DB() *sql.DB { return s.db }

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateKeyring(ctx context.Context, username, hmacSecret, publicKey, secretKey string) (*Keyring, error) {
	k := &Keyring{Username: username, HMACSecret: hmacSecret, PublicKey: publicKey, SecretKey: secretKey}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO keyring (username, hmac_secret, public_key, secret_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_date`, username, hmacSecret, publicKey, secretKey)
	if err := row.Scan(&k.ID, &k.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrKeyringExists
		}
		return nil, fmt.Errorf("store: create keyring: %w", err)
	}
	return k, nil
}

func (s *PostgresStore) GetKeyring(ctx context.Context, username string) (*Keyring, error) {
	k := &Keyring{}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, hmac_secret, public_key, secret_key, created_date
		FROM keyring WHERE username = $1`, username)
	if err := row.Scan(&k.ID, &k.Username, &k.HMACSecret, &k.PublicKey, &k.SecretKey, &k.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyringNotFound
		}
		return nil, fmt.Errorf("store: get keyring: %w", err)
	}
	return k, nil
}

func (s *PostgresStore) CreateReceiver(ctx context.Context, keyringID int64, name string, network int64, address string) (*Receiver, error) {
	r := &Receiver{KeyringID: keyringID, Name: name, Network: network, Address: address}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO receiver (keyring_id, name, network, address, nonce)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING id, nonce`, keyringID, name, network, address)
	if err := row.Scan(&r.ID, &r.Nonce); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrReceiverExists
		}
		return nil, fmt.Errorf("store: create receiver: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) GetReceiver(ctx context.Context, keyringID int64, name string) (*Receiver, error) {
	r := &Receiver{}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, keyring_id, name, network, address, nonce
		FROM receiver WHERE keyring_id = $1 AND name = $2`, keyringID, name)
	if err := row.Scan(&r.ID, &r.KeyringID, &r.Name, &r.Network, &r.Address, &r.Nonce); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReceiverUnknown
		}
		return nil, fmt.Errorf("store: get receiver: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) FindReceiverByNetworkAddress(ctx context.Context, network int64, address string) (*Receiver, error) {
	r := &Receiver{}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, keyring_id, name, network, address, nonce
		FROM receiver WHERE network = $1 AND address = $2`, network, address)
	if err := row.Scan(&r.ID, &r.KeyringID, &r.Name, &r.Network, &r.Address, &r.Nonce); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReceiverUnknown
		}
		return nil, fmt.Errorf("store: find receiver: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) DeleteReceiver(ctx context.Context, keyringID int64, name string) error {
	var count int
	row := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM randomness r
		JOIN receiver rc ON rc.id = r.receiver_id
		WHERE rc.keyring_id = $1 AND rc.name = $2`, keyringID, name)
	if err := row.Scan(&count); err != nil {
		return fmt.Errorf("store: count epochs: %w", err)
	}
	if count > 0 {
		return ErrReceiverHasEpochs
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM receiver WHERE keyring_id = $1 AND name = $2`, keyringID, name)
	if err != nil {
		return fmt.Errorf("store: delete receiver: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrReceiverUnknown
	}
	return nil
}

func (s *PostgresStore) LatestEpoch(ctx context.Context, receiverID int64) (*Epoch, error) {
	return s.queryOneEpoch(ctx, `
		SELECT id, keyring_id, receiver_id, epoch, alpha, gamma, c, s, y,
		       witness_address, witness_gamma, witness_hash, inverse_z, signature_proof, created_date
		FROM randomness WHERE receiver_id = $1 ORDER BY epoch DESC LIMIT 1`, receiverID)
}

func (s *PostgresStore) GetEpoch(ctx context.Context, receiverID int64, epochNum int64) (*Epoch, error) {
	return s.queryOneEpoch(ctx, `
		SELECT id, keyring_id, receiver_id, epoch, alpha, gamma, c, s, y,
		       witness_address, witness_gamma, witness_hash, inverse_z, signature_proof, created_date
		FROM randomness WHERE receiver_id = $1 AND epoch = $2`, receiverID, epochNum)
}

func (s *PostgresStore) queryOneEpoch(ctx context.Context, query string, args ...any) (*Epoch, error) {
	e := &Epoch{}
	row := s.db.QueryRowContext(ctx, query, args...)
	err := row.Scan(&e.ID, &e.KeyringID, &e.ReceiverID, &e.Epoch, &e.Alpha, &e.Gamma, &e.C, &e.S, &e.Y,
		&e.WitnessAddress, &e.WitnessGamma, &e.WitnessHash, &e.InverseZ, &e.SignatureProof, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: query epoch: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) InsertEpoch(ctx context.Context, receiverID int64, expectedNonce uint64, in NewEpochInput) (*Epoch, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	var currentNonce uint64
	row := tx.QueryRowContext(ctx, `SELECT nonce FROM receiver WHERE id = $1 FOR UPDATE`, receiverID)
	if err := row.Scan(&currentNonce); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReceiverUnknown
		}
		return nil, fmt.Errorf("store: lock receiver: %w", err)
	}
	if currentNonce != expectedNonce {
		return nil, ErrNonceConflict
	}

	e := &Epoch{
		KeyringID: in.KeyringID, ReceiverID: receiverID, Epoch: in.Epoch,
		Alpha: in.Alpha, Gamma: in.Gamma, C: in.C, S: in.S, Y: in.Y,
		WitnessAddress: in.WitnessAddress, WitnessGamma: in.WitnessGamma,
		WitnessHash: in.WitnessHash, InverseZ: in.InverseZ, SignatureProof: in.SignatureProof,
	}
	row = tx.QueryRowContext(ctx, `
		INSERT INTO randomness (keyring_id, receiver_id, epoch, alpha, gamma, c, s, y,
			witness_address, witness_gamma, witness_hash, inverse_z, signature_proof)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_date`,
		e.KeyringID, e.ReceiverID, e.Epoch, e.Alpha, e.Gamma, e.C, e.S, e.Y,
		e.WitnessAddress, e.WitnessGamma, e.WitnessHash, e.InverseZ, e.SignatureProof)
	if err := row.Scan(&e.ID, &e.CreatedAt); err != nil {
		switch {
		case isUniqueViolationOn(err, "randomness_receiver_id_alpha_key"):
			return nil, ErrDuplicateSeed
		case isUniqueViolationOn(err, "randomness_receiver_id_y_key"):
			return nil, ErrDuplicateOutput
		case isUniqueViolationOn(err, "randomness_signature_proof_key"):
			return nil, ErrDuplicateProof
		case isUniqueViolation(err):
			return nil, ErrDuplicateSeed
		}
		return nil, fmt.Errorf("store: insert epoch: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE receiver SET nonce = nonce + 1 WHERE id = $1`, receiverID); err != nil {
		return nil, fmt.Errorf("store: advance nonce: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return e, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

func isUniqueViolationOn(err error, constraint string) bool {
	return isUniqueViolation(err) && strings.Contains(err.Error(), constraint)
}
