package badger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/medrank/core"
	"github.com/poiesic/medrank/storage"
)

// HistoryRepository implements storage.HistoryRepository for BadgerDB.
// Entries are keyed by (username, timestamp, id) so a user's history is a
// single ordered key range.
type HistoryRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.HistoryRepository = (*HistoryRepository)(nil)

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(backend *Backend) (*HistoryRepository, error) {
	idSeq, err := backend.GetSequence(historyIDSeq)
	if err != nil {
		return nil, err
	}

	return &HistoryRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *HistoryRepository) Close() error {
	return r.idSeq.Release()
}

// AddHistoryEntries adds one or more history entries to storage.
func (r *HistoryRepository) AddHistoryEntries(ctx context.Context, entries ...*core.HistoryEntry) ([]*core.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if err := validateUsername(entry.Username); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			if entry.Id == 0 {
				nextID, err := r.idSeq.Next()
				if err != nil {
					return err
				}
				// BadgerDB sequences can return 0 on first call, so we skip it
				if nextID == 0 {
					nextID, err = r.idSeq.Next()
					if err != nil {
						return err
					}
				}
				entry.Id = core.ID(nextID)
			}
			if entry.Timestamp.IsZero() {
				entry.Timestamp = time.Now().UTC()
			}

			key := makeHistoryKey(entry.Username, entry.Timestamp, entry.Id)
			if err := tx.Set(key, storage.MarshalHistoryEntry(entry)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// GetHistory retrieves a user's most recent entries, newest first.
func (r *HistoryRepository) GetHistory(ctx context.Context, username string, limit int) ([]*core.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	var results []*core.HistoryEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Use reverse iterator to get most recent entries first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = makeHistoryUserPrefix(username)

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makeHistorySeekKey(username)); iter.ValidForPrefix(opts.Prefix); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}
			err := iter.Item().Value(func(val []byte) error {
				entry, err := storage.UnmarshalHistoryEntry(val)
				if err != nil {
					return err
				}
				results = append(results, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteHistory removes all entries for a user.
func (r *HistoryRepository) DeleteHistory(ctx context.Context, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateUsername(username); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeHistoryUserPrefix(username)

		// Collect keys first; deleting while iterating is not supported
		var keys [][]byte
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

func validateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", storage.ErrInvalidQuery)
	}
	if strings.IndexByte(username, historyUserSep) >= 0 {
		return fmt.Errorf("%w: username contains a NUL byte", storage.ErrInvalidQuery)
	}
	return nil
}
