package db

import (
	"context"
	"encoding/json"
	"os"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"

	"github.com/damon-houk/anvil-basic-tx/internal/domain/entity"
	"github.com/damon-houk/anvil-basic-tx/internal/domain/repository"
)

const buildKeyPrefix = "build:"

// Open opens (creating if needed) a BadgerDB at path with badger's own logging disabled
func Open(path string) (*badger.DB, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	return db, nil
}

// BadgerBuildRecordRepository implements the build record repository interface using BadgerDB.
// IDs are expected to be time-ordered (UUIDv7) so key order is creation order.
type BadgerBuildRecordRepository struct {
	db *badger.DB
}

var _ repository.BuildRecordRepository = (*BadgerBuildRecordRepository)(nil)

// NewBadgerBuildRecordRepository creates a new BadgerDB build record repository
func NewBadgerBuildRecordRepository(db *badger.DB) *BadgerBuildRecordRepository {
	return &BadgerBuildRecordRepository{db: db}
}

// Store saves a record and returns its ID
func (r *BadgerBuildRecordRepository) Store(ctx context.Context, record *entity.BuildRecord) (string, error) {
	if record.ID == "" {
		return "", errors.New("build record has no ID")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal build record")
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(buildKeyPrefix+record.ID), data)
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to store build record")
	}

	return record.ID, nil
}

// FindByID retrieves a record by its unique identifier
func (r *BadgerBuildRecordRepository) FindByID(ctx context.Context, id string) (*entity.BuildRecord, error) {
	var record entity.BuildRecord

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(buildKeyPrefix + id))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.Wrapf(repository.ErrRecordNotFound, "id %s", id)
	}

	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve build record")
	}

	return &record, nil
}

// List returns up to limit records, newest first
func (r *BadgerBuildRecordRepository) List(ctx context.Context, limit int) ([]*entity.BuildRecord, error) {
	records := make([]*entity.BuildRecord, 0)

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(buildKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		// in reverse mode Seek lands on the last key <= the seek key
		for it.Seek([]byte(buildKeyPrefix + "\xff")); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var record entity.BuildRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}

			records = append(records, &record)
			if limit > 0 && len(records) >= limit {
				break
			}
		}
		return nil
	})

	if err != nil {
		return nil, errors.Wrap(err, "failed to list build records")
	}

	return records, nil
}
