package pgstore

import (
	"context"
	"errors"

	"github.com/MarkoPoloResearchLab/terramarya/pkg/booking"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	errorOperationStore     = "store"
	errorSubjectEntry       = "entry"
	errorSubjectSchema      = "schema"
	errorSubjectTransaction = "transaction"
	errorCodeBegin          = "begin"
	errorCodeCommit         = "commit"
	errorCodeCreate         = "create"
	errorCodeLoad           = "load"
	errorCodeSave           = "save"

	sqlCreateStoreEntries = `
		create table if not exists store_entries (
			state_key text primary key,
			value jsonb not null,
			updated_at timestamptz not null default now()
		)
	`

	sqlSelectEntry = `
		select value::text from store_entries where state_key = $1
	`

	sqlSelectEntryForUpdate = `
		select value::text from store_entries where state_key = $1
		for update
	`

	sqlUpsertEntry = `
		insert into store_entries(state_key, value, updated_at) values ($1, $2::jsonb, now())
		on conflict (state_key) do update set value = excluded.value, updated_at = excluded.updated_at
	`

	sqlLockEntries = `
		select pg_advisory_xact_lock(hashtext('store_entries'))
	`
)

type queryer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row
}

// Store implements booking.Store using a pgx connection pool (autocommit).
type Store struct {
	pool *pgxpool.Pool
}

// TxStore implements booking.Store for an active transaction.
type TxStore struct {
	tx pgx.Tx
}

// New returns a Store backed by a pgx pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the store_entries table when it does not exist.
func (store *Store) EnsureSchema(ctx context.Context) error {
	if _, err := store.pool.Exec(ctx, sqlCreateStoreEntries); err != nil {
		return wrapStoreError(errorSubjectSchema, errorCodeCreate, err)
	}
	return nil
}

// WithTx runs fn in a transaction. Concurrent transactions are serialized with an advisory lock
// so that a first write of a missing key cannot race another.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore booking.Store) error) error {
	tx, err := store.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeBegin, err)
	}
	if _, err := tx.Exec(ctx, sqlLockEntries); err != nil {
		_ = tx.Rollback(ctx)
		return wrapStoreError(errorSubjectTransaction, errorCodeBegin, err)
	}
	transactionStore := &TxStore{tx: tx}
	if err := fn(ctx, transactionStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeCommit, err)
	}
	return nil
}

func (store *Store) Load(ctx context.Context, key booking.StorageKey) ([]byte, bool, error) {
	return loadEntry(ctx, store.pool, sqlSelectEntry, key)
}

func (store *Store) Save(ctx context.Context, key booking.StorageKey, value []byte) error {
	return saveEntry(ctx, store.pool, key, value)
}

// WithTx on a TxStore joins the active transaction.
func (store *TxStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore booking.Store) error) error {
	return fn(ctx, store)
}

func (store *TxStore) Load(ctx context.Context, key booking.StorageKey) ([]byte, bool, error) {
	return loadEntry(ctx, store.tx, sqlSelectEntryForUpdate, key)
}

func (store *TxStore) Save(ctx context.Context, key booking.StorageKey, value []byte) error {
	return saveEntry(ctx, store.tx, key, value)
}

func loadEntry(ctx context.Context, database queryer, query string, key booking.StorageKey) ([]byte, bool, error) {
	var value string
	err := database.QueryRow(ctx, query, string(key)).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapStoreError(errorSubjectEntry, errorCodeLoad, err)
	}
	return []byte(value), true, nil
}

func saveEntry(ctx context.Context, database queryer, key booking.StorageKey, value []byte) error {
	if _, err := database.Exec(ctx, sqlUpsertEntry, string(key), string(value)); err != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeSave, err)
	}
	return nil
}

func wrapStoreError(subject string, code string, err error) error {
	return booking.WrapError(errorOperationStore, subject, code, err)
}
