package storage

import (
	"context"

	"github.com/poiesic/medrank/core"
	"github.com/poiesic/medrank/index"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	Close() error
}

// IndexRepository persists built indexes under a name.
type IndexRepository interface {
	Repository
	// SaveIndex stores idx under snapshot.Name, replacing any previous index
	// with that name. Items and VocabularySize are filled from idx and
	// BuiltAt is set if zero.
	SaveIndex(ctx context.Context, snapshot *core.Snapshot, idx *index.Index) error

	// LoadIndex retrieves the index stored under name.
	// Returns ErrNotFound if nothing is stored and an error wrapping
	// core.ErrCorruptIndex if the stored data cannot be decoded consistently.
	LoadIndex(ctx context.Context, name string) (*core.Snapshot, *index.Index, error)

	// GetSnapshot retrieves only the snapshot metadata.
	// Returns ErrNotFound if nothing is stored.
	GetSnapshot(ctx context.Context, name string) (*core.Snapshot, error)

	// ListSnapshots returns the metadata of every stored index ordered by name.
	ListSnapshots(ctx context.Context) ([]*core.Snapshot, error)

	// DeleteIndex removes the index stored under name.
	// Returns ErrNotFound if nothing is stored.
	DeleteIndex(ctx context.Context, name string) error
}

// HistoryRepository records recommendation requests per user.
type HistoryRepository interface {
	Repository
	// AddHistoryEntries stores one or more entries.
	// For entries with ID=0, generates new IDs from sequence.
	// Sets Timestamp if not already set.
	// Returns the entries with generated IDs and timestamps populated.
	AddHistoryEntries(ctx context.Context, entries ...*core.HistoryEntry) ([]*core.HistoryEntry, error)

	// GetHistory retrieves the most recent entries for a user, newest first.
	// A limit <= 0 returns all entries.
	GetHistory(ctx context.Context, username string, limit int) ([]*core.HistoryEntry, error)

	// DeleteHistory removes all entries for a user.
	// Deleting a user with no history is not an error.
	DeleteHistory(ctx context.Context, username string) error
}
