package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by internal/epoch's tests in
// place of a live Postgres instance.
type MemoryStore struct {
	mu sync.Mutex

	nextKeyringID  int64
	nextReceiverID int64
	nextEpochID    int64

	keyringsByUser map[string]*Keyring
	receivers      map[int64]*Receiver
	receiverByName map[string]int64 // keyring_id:name -> id
	receiverByAddr map[string]int64 // network:address -> id
	epochs         map[int64][]*Epoch
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keyringsByUser: make(map[string]*Keyring),
		receivers:      make(map[int64]*Receiver),
		receiverByName: make(map[string]int64),
		receiverByAddr: make(map[string]int64),
		epochs:         make(map[int64][]*Epoch),
	}
}

func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }

func (s *MemoryStore) CreateKeyring(ctx context.Context, username, hmacSecret, publicKey, secretKey string) (*Keyring, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keyringsByUser[username]; ok {
		return nil, ErrKeyringExists
	}
	s.nextKeyringID++
	k := &Keyring{
		ID: s.nextKeyringID, Username: username, HMACSecret: hmacSecret,
		PublicKey: publicKey, SecretKey: secretKey, CreatedAt: time.Unix(0, 0).UTC(),
	}
	s.keyringsByUser[username] = k
	return k, nil
}

func (s *MemoryStore) GetKeyring(ctx context.Context, username string) (*Keyring, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.keyringsByUser[username]
	if !ok {
		return nil, ErrKeyringNotFound
	}
	return k, nil
}

func receiverNameKey(keyringID int64, name string) string {
	return itoa(keyringID) + ":" + name
}

func receiverAddrKey(network int64, address string) string {
	return itoa(network) + ":" + address
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func (s *MemoryStore) CreateReceiver(ctx context.Context, keyringID int64, name string, network int64, address string) (*Receiver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nameKey := receiverNameKey(keyringID, name)
	if _, ok := s.receiverByName[nameKey]; ok {
		return nil, ErrReceiverExists
	}
	addrKey := receiverAddrKey(network, address)
	if _, ok := s.receiverByAddr[addrKey]; ok {
		return nil, ErrReceiverExists
	}

	s.nextReceiverID++
	r := &Receiver{ID: s.nextReceiverID, KeyringID: keyringID, Name: name, Network: network, Address: address}
	s.receivers[r.ID] = r
	s.receiverByName[nameKey] = r.ID
	s.receiverByAddr[addrKey] = r.ID
	return r, nil
}

func (s *MemoryStore) GetReceiver(ctx context.Context, keyringID int64, name string) (*Receiver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.receiverByName[receiverNameKey(keyringID, name)]
	if !ok {
		return nil, ErrReceiverUnknown
	}
	r := *s.receivers[id]
	return &r, nil
}

func (s *MemoryStore) FindReceiverByNetworkAddress(ctx context.Context, network int64, address string) (*Receiver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.receiverByAddr[receiverAddrKey(network, address)]
	if !ok {
		return nil, ErrReceiverUnknown
	}
	r := *s.receivers[id]
	return &r, nil
}

func (s *MemoryStore) DeleteReceiver(ctx context.Context, keyringID int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nameKey := receiverNameKey(keyringID, name)
	id, ok := s.receiverByName[nameKey]
	if !ok {
		return ErrReceiverUnknown
	}
	if len(s.epochs[id]) > 0 {
		return ErrReceiverHasEpochs
	}
	r := s.receivers[id]
	delete(s.receiverByName, nameKey)
	delete(s.receiverByAddr, receiverAddrKey(r.Network, r.Address))
	delete(s.receivers, id)
	return nil
}

func (s *MemoryStore) LatestEpoch(ctx context.Context, receiverID int64) (*Epoch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.epochs[receiverID]
	if len(list) == 0 {
		return nil, nil
	}
	e := *list[len(list)-1]
	return &e, nil
}

func (s *MemoryStore) GetEpoch(ctx context.Context, receiverID int64, epochNum int64) (*Epoch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.epochs[receiverID] {
		if e.Epoch == epochNum {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) InsertEpoch(ctx context.Context, receiverID int64, expectedNonce uint64, in NewEpochInput) (*Epoch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.receivers[receiverID]
	if !ok {
		return nil, ErrReceiverUnknown
	}
	if r.Nonce != expectedNonce {
		return nil, ErrNonceConflict
	}

	for _, e := range s.epochs[receiverID] {
		switch {
		case e.Alpha == in.Alpha:
			return nil, ErrDuplicateSeed
		case e.Y == in.Y:
			return nil, ErrDuplicateOutput
		case e.SignatureProof == in.SignatureProof:
			return nil, ErrDuplicateProof
		}
	}
	for _, list := range s.epochs {
		for _, e := range list {
			if e.SignatureProof == in.SignatureProof {
				return nil, ErrDuplicateProof
			}
		}
	}

	s.nextEpochID++
	e := &Epoch{
		ID: s.nextEpochID, KeyringID: in.KeyringID, ReceiverID: receiverID, Epoch: in.Epoch,
		Alpha: in.Alpha, Gamma: in.Gamma, C: in.C, S: in.S, Y: in.Y,
		WitnessAddress: in.WitnessAddress, WitnessGamma: in.WitnessGamma,
		WitnessHash: in.WitnessHash, InverseZ: in.InverseZ, SignatureProof: in.SignatureProof,
		CreatedAt: time.Unix(0, 0).UTC(),
	}
	s.epochs[receiverID] = append(s.epochs[receiverID], e)
	r.Nonce++

	cp := *e
	return &cp, nil
}
