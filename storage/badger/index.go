package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/medrank/core"
	"github.com/poiesic/medrank/index"
	"github.com/poiesic/medrank/storage"
)

// IndexRepository implements storage.IndexRepository for BadgerDB.
// Each index is stored as two keys: its snapshot metadata and its
// serialized form.
type IndexRepository struct {
	backend *Backend
}

var _ storage.IndexRepository = (*IndexRepository)(nil)

// NewIndexRepository creates a new IndexRepository.
func NewIndexRepository(backend *Backend) (*IndexRepository, error) {
	if backend == nil || backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	return &IndexRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database.
func (r *IndexRepository) Close() error {
	return nil
}

// SaveIndex stores idx under snapshot.Name, replacing any existing index.
func (r *IndexRepository) SaveIndex(ctx context.Context, snapshot *core.Snapshot, idx *index.Index) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snapshot == nil || snapshot.Name == "" {
		return fmt.Errorf("%w: index name is required", storage.ErrInvalidQuery)
	}
	if idx == nil {
		return fmt.Errorf("%w: index is required", storage.ErrInvalidQuery)
	}

	snapshot.Items = idx.Len()
	snapshot.VocabularySize = idx.VocabularySize()
	if snapshot.BuiltAt.IsZero() {
		snapshot.BuiltAt = time.Now().UTC()
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeIndexKey(snapshot.Name), index.Marshal(idx)); err != nil {
			return err
		}
		if err := tx.Set(makeSnapshotKey(snapshot.Name), storage.MarshalSnapshot(snapshot)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadIndex retrieves the index stored under name.
func (r *IndexRepository) LoadIndex(ctx context.Context, name string) (*core.Snapshot, *index.Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var snapshot *core.Snapshot
	var idx *index.Index
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		snapshot, err = readSnapshot(tx, name)
		if err != nil {
			return err
		}

		item, err := tx.Get(makeIndexKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: index %q has metadata but no data", core.ErrCorruptIndex, name)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			// Unmarshal copies everything it keeps out of val.
			idx, err = index.Unmarshal(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, nil, err
	}

	if snapshot.Items != idx.Len() || snapshot.VocabularySize != idx.VocabularySize() {
		return nil, nil, fmt.Errorf("%w: index %q metadata describes %d items and %d tags, data has %d and %d",
			core.ErrCorruptIndex, name, snapshot.Items, snapshot.VocabularySize, idx.Len(), idx.VocabularySize())
	}
	return snapshot, idx, nil
}

// GetSnapshot retrieves only the metadata of the index stored under name.
func (r *IndexRepository) GetSnapshot(ctx context.Context, name string) (*core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var snapshot *core.Snapshot
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		snapshot, err = readSnapshot(tx, name)
		return err
	}, false)
	return snapshot, err
}

// ListSnapshots returns the metadata of every stored index ordered by name.
func (r *IndexRepository) ListSnapshots(ctx context.Context) ([]*core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []*core.Snapshot
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(snapshotPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			name := string(bytes.TrimPrefix(item.Key(), opts.Prefix))
			err := item.Value(func(val []byte) error {
				snapshot, err := storage.UnmarshalSnapshot(val)
				if err != nil {
					return fmt.Errorf("%w: snapshot %q: %w", core.ErrCorruptIndex, name, err)
				}
				results = append(results, snapshot)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return results, err
}

// DeleteIndex removes the index stored under name.
func (r *IndexRepository) DeleteIndex(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := tx.Get(makeSnapshotKey(name)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		if err := tx.Delete(makeSnapshotKey(name)); err != nil {
			return err
		}
		if err := tx.Delete(makeIndexKey(name)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func readSnapshot(tx *badger.Txn, name string) (*core.Snapshot, error) {
	item, err := tx.Get(makeSnapshotKey(name))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var snapshot *core.Snapshot
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		snapshot, unmarshalErr = storage.UnmarshalSnapshot(val)
		if unmarshalErr != nil {
			return fmt.Errorf("%w: snapshot %q: %w", core.ErrCorruptIndex, name, unmarshalErr)
		}
		return nil
	})
	return snapshot, err
}
