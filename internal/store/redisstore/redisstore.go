package redisstore

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	"github.com/MarkoPoloResearchLab/terramarya/pkg/booking"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix       = "terramarya"
	pingTimeout            = 2 * time.Second
	maxTransactionAttempts = 5
	errorOperationStore    = "store"
	errorSubjectClient     = "client"
	errorSubjectEntry      = "entry"
	errorSubjectTx         = "transaction"
	errorCodePing          = "ping"
	errorCodeLoad          = "load"
	errorCodeSave          = "save"
	errorCodeConflict      = "conflict"
)

// ClientConfig describes how to reach the Redis server.
type ClientConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

// Dial connects to Redis and verifies the connection with a short ping.
func Dial(ctx context.Context, config ClientConfig) (*redis.Client, error) {
	options := &redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	}
	if config.TLS {
		options.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(options)
	pingContext, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingContext).Err(); err != nil {
		_ = client.Close()
		return nil, wrapStoreError(errorSubjectClient, errorCodePing, err)
	}
	return client, nil
}

// Store implements booking.Store on Redis string keys named <prefix>:<storage key>.
type Store struct {
	client *redis.Client
	prefix string
}

// New returns a Store. An empty prefix selects "terramarya".
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (store *Store) Load(ctx context.Context, key booking.StorageKey) ([]byte, bool, error) {
	return loadValue(ctx, store.client, store.redisKey(key))
}

func (store *Store) Save(ctx context.Context, key booking.StorageKey, value []byte) error {
	if err := store.client.Set(ctx, store.redisKey(key), value, 0).Err(); err != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeSave, err)
	}
	return nil
}

// WithTx watches every storage key, buffers writes and applies them in MULTI/EXEC.
// A concurrent modification of a watched key restarts fn.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore booking.Store) error) error {
	watched := make([]string, 0, len(booking.StorageKeys()))
	for _, key := range booking.StorageKeys() {
		watched = append(watched, store.redisKey(key))
	}
	for attempt := 0; attempt < maxTransactionAttempts; attempt++ {
		err := store.client.Watch(ctx, func(tx *redis.Tx) error {
			transactionStore := &txStore{parent: store, tx: tx, staged: map[booking.StorageKey][]byte{}}
			if err := fn(ctx, transactionStore); err != nil {
				return err
			}
			return transactionStore.commit(ctx)
		}, watched...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return wrapStoreError(errorSubjectTx, errorCodeConflict, redis.TxFailedErr)
}

func (store *Store) redisKey(key booking.StorageKey) string {
	return store.prefix + ":" + string(key)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

type txStore struct {
	parent *Store
	tx     *redis.Tx
	order  []booking.StorageKey
	staged map[booking.StorageKey][]byte
}

func (store *txStore) Load(ctx context.Context, key booking.StorageKey) ([]byte, bool, error) {
	if value, ok := store.staged[key]; ok {
		return append([]byte(nil), value...), true, nil
	}
	return loadValue(ctx, store.tx, store.parent.redisKey(key))
}

func (store *txStore) Save(_ context.Context, key booking.StorageKey, value []byte) error {
	if _, ok := store.staged[key]; !ok {
		store.order = append(store.order, key)
	}
	store.staged[key] = append([]byte(nil), value...)
	return nil
}

func (store *txStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore booking.Store) error) error {
	return fn(ctx, store)
}

func (store *txStore) commit(ctx context.Context) error {
	if len(store.order) == 0 {
		return nil
	}
	_, err := store.tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range store.order {
			pipe.Set(ctx, store.parent.redisKey(key), store.staged[key], 0)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.TxFailedErr) {
		return wrapStoreError(errorSubjectEntry, errorCodeSave, err)
	}
	return err
}

func loadValue(ctx context.Context, client getter, key string) ([]byte, bool, error) {
	value, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapStoreError(errorSubjectEntry, errorCodeLoad, err)
	}
	return value, true, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return booking.WrapError(errorOperationStore, subject, code, err)
}
