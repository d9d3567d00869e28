package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/MarkoPoloResearchLab/terramarya/pkg/booking"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	pgSerializationFailureCode        = "40001"
	pgDeadlockDetectedCode            = "40P01"
	mysqlDeadlockCode          uint16 = 1213
	mysqlLockWaitTimeoutCode   uint16 = 1205
	sqliteBusyCode                    = 5
	sqliteLockedCode                  = 6
	maxTransactionAttempts            = 3
	errorOperationStore               = "store"
	errorSubjectEntry                 = "entry"
	errorSubjectTransaction           = "transaction"
	errorCodeLoad                     = "load"
	errorCodeSave                     = "save"
	errorCodeConflict                 = "conflict"
)

// Store implements booking.Store using GORM.
type Store struct {
	db   *gorm.DB
	inTx bool
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx executes fn within a transaction, retrying serialization and lock conflicts.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore booking.Store) error) error {
	if store.inTx {
		return fn(ctx, store)
	}
	var err error
	for attempt := 0; attempt < maxTransactionAttempts; attempt++ {
		err = store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
			return fn(ctx, &Store{db: transaction, inTx: true})
		})
		if !isRetryable(err) {
			return err
		}
	}
	return wrapStoreError(errorSubjectTransaction, errorCodeConflict, err)
}

// Load reads a value. Inside a transaction the row is locked for update where the dialect supports it.
func (store *Store) Load(ctx context.Context, key booking.StorageKey) ([]byte, bool, error) {
	query := store.db.WithContext(ctx)
	if store.inTx {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var entry StoreEntry
	err := query.Where("state_key = ?", string(key)).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapStoreError(errorSubjectEntry, errorCodeLoad, err)
	}
	return []byte(entry.Value), true, nil
}

// Save upserts a value.
func (store *Store) Save(ctx context.Context, key booking.StorageKey, value []byte) error {
	entry := StoreEntry{
		StateKey:  string(key),
		Value:     datatypes.JSON(value),
		UpdatedAt: time.Now().UTC(),
	}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "state_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeSave, err)
	}
	return nil
}

func wrapStoreError(subject string, code string, err error) error {
	return booking.WrapError(errorOperationStore, subject, code, err)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailureCode || pgErr.Code == pgDeadlockDetectedCode
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDeadlockCode || mysqlErr.Number == mysqlLockWaitTimeoutCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code() & 0xFF
		return code == sqliteBusyCode || code == sqliteLockedCode
	}
	return false
}
