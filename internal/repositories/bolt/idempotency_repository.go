// Package bolt keeps idempotency records in an embedded BoltDB file, so retries
// stay deduplicated across restarts of a node running without Postgres.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/SscSPs/digital_bank_ledger/internal/apperrors"
	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/digital_bank_ledger/internal/core/ports/repositories"
)

const bucketName = "idempotency_records"

// IdempotencyRepository implements portsrepo.IdempotencyRepository on BoltDB.
type IdempotencyRepository struct {
	db *bolt.DB
}

var _ portsrepo.IdempotencyRepository = (*IdempotencyRepository)(nil)

// Open opens (or creates) the database file and ensures the bucket exists.
func Open(path string) (*IdempotencyRepository, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt file %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &IdempotencyRepository{db: db}, nil
}

// Close releases the file lock.
func (r *IdempotencyRepository) Close() error {
	return r.db.Close()
}

func (r *IdempotencyRepository) GetIdempotencyRecord(_ context.Context, key string) (*domain.IdempotencyRecord, error) {
	var rec domain.IdempotencyRecord
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if v == nil {
			return fmt.Errorf("%w: idempotency key %s", apperrors.ErrNotFound, key)
		}
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotencyRecord writes the record only if the key is free. Bolt serialises
// Update transactions, so the check and the put cannot interleave with another writer.
func (r *IdempotencyRepository) CreateIdempotencyRecord(_ context.Context, record domain.IdempotencyRecord) (*domain.IdempotencyRecord, bool, error) {
	var result domain.IdempotencyRecord
	created := false

	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if existing := b.Get([]byte(record.Key)); existing != nil {
			return json.Unmarshal(existing, &result)
		}
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		result = record
		created = true
		return b.Put([]byte(record.Key), data)
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to create idempotency record %s: %w", record.Key, err)
	}
	return &result, created, nil
}

func (r *IdempotencyRepository) UpdateIdempotencyResult(_ context.Context, key string, resultStatus string, now time.Time) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		v := b.Get([]byte(key))
		if v == nil {
			return fmt.Errorf("%w: idempotency key %s", apperrors.ErrNotFound, key)
		}
		var rec domain.IdempotencyRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return err
		}
		if rec.ResultStatus == resultStatus {
			return nil
		}
		rec.ResultStatus = resultStatus
		rec.UpdatedAt = now
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}
