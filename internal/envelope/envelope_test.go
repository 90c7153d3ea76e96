package envelope

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/orandlabs/orand/internal/vrf"
)

// ethereumAddress derives the Ethereum-style address for a 64-byte
// uncompressed public key (x‖y, no 0x04 prefix), matching
// crypto.PubkeyToAddress's derivation without needing an *ecdsa.PublicKey.
func ethereumAddress(t *testing.T, pub []byte) [20]byte {
	t.Helper()
	digest := crypto.Keccak256(pub)
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr
}

func TestPreimageLayout(t *testing.T) {
	var receiver [20]byte
	for i := range receiver {
		receiver[i] = byte(i + 1)
	}
	var y [32]byte
	for i := range y {
		y[i] = byte(i)
	}

	p := Preimage(7, receiver, y)
	if len(p) != 64 {
		t.Fatalf("expected 64-byte preimage, got %d", len(p))
	}
	for i := 0; i < 4; i++ {
		if p[i] != 0 {
			t.Fatalf("expected zero pad at byte %d, got %d", i, p[i])
		}
	}
	if p[11] != 7 {
		t.Fatalf("expected nonce low byte 7 at offset 11, got %d", p[11])
	}
	for i := 0; i < 20; i++ {
		if p[12+i] != receiver[i] {
			t.Fatalf("receiver mismatch at byte %d", i)
		}
	}
	for i := 0; i < 32; i++ {
		if p[32+i] != y[i] {
			t.Fatalf("y mismatch at byte %d", i)
		}
	}
}

func TestSignAndRecover(t *testing.T) {
	kp, err := vrf.NewKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	var receiver [20]byte
	receiver[19] = 0x42
	var y [32]byte
	y[0] = 0x01

	sig, err := Sign(&kp.Secret, 3, receiver, y)
	if err != nil {
		t.Fatal(err)
	}
	if len(sig) != 65 {
		t.Fatalf("expected 65-byte signature, got %d", len(sig))
	}

	addr, err := Recover(3, receiver, y, sig)
	if err != nil {
		t.Fatal(err)
	}

	pubBytes := kp.Public.Bytes()
	wantAddr := ethereumAddress(t, pubBytes[:])
	if addr != wantAddr {
		t.Errorf("recovered address mismatch: got %x want %x", addr, wantAddr)
	}
}

func TestRecoverWrongNonceFails(t *testing.T) {
	kp, err := vrf.NewKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	var receiver [20]byte
	var y [32]byte

	sig, err := Sign(&kp.Secret, 1, receiver, y)
	if err != nil {
		t.Fatal(err)
	}

	addr1, err := Recover(1, receiver, y, sig)
	if err != nil {
		t.Fatal(err)
	}
	addr2, err := Recover(2, receiver, y, sig)
	if err != nil {
		t.Fatal(err)
	}
	if addr1 == addr2 {
		t.Error("recovering with a tampered nonce should not match the original signer")
	}
}
