package store

// Schema is the DDL for the three tables named in SPEC_FULL.md §6.
// Applied once at startup by Migrate; kept intentionally simple (no
// external migration tool) since the service owns a single, stable schema.
const Schema = `
CREATE TABLE IF NOT EXISTS keyring (
	id SERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	hmac_secret TEXT NOT NULL,
	public_key TEXT NOT NULL,
	secret_key TEXT NOT NULL,
	created_date TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS receiver (
	id SERIAL PRIMARY KEY,
	keyring_id INTEGER NOT NULL REFERENCES keyring(id),
	name TEXT NOT NULL,
	network BIGINT NOT NULL,
	address TEXT NOT NULL,
	nonce BIGINT NOT NULL DEFAULT 0,
	UNIQUE (keyring_id, name),
	UNIQUE (network, address)
);

CREATE TABLE IF NOT EXISTS randomness (
	id SERIAL PRIMARY KEY,
	keyring_id INTEGER NOT NULL REFERENCES keyring(id),
	receiver_id INTEGER NOT NULL REFERENCES receiver(id),
	epoch BIGINT NOT NULL,
	alpha TEXT NOT NULL,
	gamma TEXT NOT NULL,
	c TEXT NOT NULL,
	s TEXT NOT NULL,
	y TEXT NOT NULL,
	witness_address TEXT NOT NULL,
	witness_gamma TEXT NOT NULL,
	witness_hash TEXT NOT NULL,
	inverse_z TEXT NOT NULL,
	signature_proof TEXT NOT NULL,
	created_date TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (receiver_id, epoch),
	UNIQUE (receiver_id, alpha),
	UNIQUE (receiver_id, y),
	UNIQUE (signature_proof)
);
`
