package memorystore

import (
	"context"
	"sync"

	"github.com/MarkoPoloResearchLab/terramarya/pkg/booking"
)

// Store keeps booking state in process memory.
type Store struct {
	txMutex sync.Mutex
	mutex   sync.RWMutex
	values  map[booking.StorageKey][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{values: make(map[booking.StorageKey][]byte)}
}

// Load returns a copy of the stored value.
func (store *Store) Load(_ context.Context, key booking.StorageKey) ([]byte, bool, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	value, found := store.values[key]
	if !found {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Save replaces the stored value.
func (store *Store) Save(_ context.Context, key booking.StorageKey, value []byte) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.values[key] = append([]byte(nil), value...)
	return nil
}

// WithTx runs fn against staged writes that become visible only if fn succeeds.
// Transactions are serialized.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore booking.Store) error) error {
	store.txMutex.Lock()
	defer store.txMutex.Unlock()

	transaction := &txStore{parent: store, staged: make(map[booking.StorageKey][]byte)}
	if err := fn(ctx, transaction); err != nil {
		return err
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()
	for key, value := range transaction.staged {
		store.values[key] = value
	}
	return nil
}

type txStore struct {
	parent *Store
	staged map[booking.StorageKey][]byte
}

func (store *txStore) Load(ctx context.Context, key booking.StorageKey) ([]byte, bool, error) {
	if value, found := store.staged[key]; found {
		return append([]byte(nil), value...), true, nil
	}
	return store.parent.Load(ctx, key)
}

func (store *txStore) Save(_ context.Context, key booking.StorageKey, value []byte) error {
	store.staged[key] = append([]byte(nil), value...)
	return nil
}

func (store *txStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore booking.Store) error) error {
	return fn(ctx, store)
}
