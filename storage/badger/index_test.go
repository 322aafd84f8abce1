package badger

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/medrank/catalog"
	"github.com/poiesic/medrank/core"
	"github.com/poiesic/medrank/index"
	"github.com/poiesic/medrank/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndexRepo(t *testing.T) (*IndexRepository, *Backend) {
	t.Helper()
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	repo, err := NewIndexRepository(backend)
	require.NoError(t, err)
	return repo, backend
}

func buildTestIndex(t *testing.T, seed uint64) (*index.Index, core.ID) {
	t.Helper()
	records := catalog.Synthetic(seed)
	idx, err := index.Build(records)
	require.NoError(t, err)
	return idx, catalog.Fingerprint(records)
}

func TestIndexRepository_SaveLoad(t *testing.T) {
	repo, _ := newTestIndexRepo(t)
	ctx := context.Background()
	idx, fp := buildTestIndex(t, 42)

	snapshot := &core.Snapshot{Name: "default", Fingerprint: fp}
	require.NoError(t, repo.SaveIndex(ctx, snapshot, idx))

	assert.Equal(t, idx.Len(), snapshot.Items)
	assert.Equal(t, idx.VocabularySize(), snapshot.VocabularySize)
	assert.False(t, snapshot.BuiltAt.IsZero())

	loadedSnap, loaded, err := repo.LoadIndex(ctx, "default")
	require.NoError(t, err)
	assert.True(t, idx.Equal(loaded))
	assert.Equal(t, snapshot.Name, loadedSnap.Name)
	assert.Equal(t, fp, loadedSnap.Fingerprint)
	assert.Equal(t, snapshot.Items, loadedSnap.Items)
	assert.True(t, snapshot.BuiltAt.Truncate(time.Microsecond).Equal(loadedSnap.BuiltAt))
}

func TestIndexRepository_SaveKeepsBuiltAt(t *testing.T) {
	repo, _ := newTestIndexRepo(t)
	ctx := context.Background()
	idx, _ := buildTestIndex(t, 1)

	builtAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.SaveIndex(ctx, &core.Snapshot{Name: "x", BuiltAt: builtAt}, idx))

	snap, err := repo.GetSnapshot(ctx, "x")
	require.NoError(t, err)
	assert.True(t, builtAt.Equal(snap.BuiltAt))
}

func TestIndexRepository_Replace(t *testing.T) {
	repo, _ := newTestIndexRepo(t)
	ctx := context.Background()
	first, _ := buildTestIndex(t, 1)
	second, _ := buildTestIndex(t, 2)

	require.NoError(t, repo.SaveIndex(ctx, &core.Snapshot{Name: "default"}, first))
	require.NoError(t, repo.SaveIndex(ctx, &core.Snapshot{Name: "default"}, second))

	_, loaded, err := repo.LoadIndex(ctx, "default")
	require.NoError(t, err)
	assert.True(t, second.Equal(loaded))
}

func TestIndexRepository_NotFound(t *testing.T) {
	repo, _ := newTestIndexRepo(t)
	ctx := context.Background()

	_, _, err := repo.LoadIndex(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = repo.GetSnapshot(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, repo.DeleteIndex(ctx, "missing"), storage.ErrNotFound)
}

func TestIndexRepository_InvalidArguments(t *testing.T) {
	repo, _ := newTestIndexRepo(t)
	ctx := context.Background()
	idx, _ := buildTestIndex(t, 1)

	assert.ErrorIs(t, repo.SaveIndex(ctx, &core.Snapshot{}, idx), storage.ErrInvalidQuery)
	assert.ErrorIs(t, repo.SaveIndex(ctx, nil, idx), storage.ErrInvalidQuery)
	assert.ErrorIs(t, repo.SaveIndex(ctx, &core.Snapshot{Name: "x"}, nil), storage.ErrInvalidQuery)
}

func TestIndexRepository_Delete(t *testing.T) {
	repo, _ := newTestIndexRepo(t)
	ctx := context.Background()
	idx, _ := buildTestIndex(t, 1)

	require.NoError(t, repo.SaveIndex(ctx, &core.Snapshot{Name: "default"}, idx))
	require.NoError(t, repo.DeleteIndex(ctx, "default"))

	_, _, err := repo.LoadIndex(ctx, "default")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIndexRepository_ListSnapshots(t *testing.T) {
	repo, _ := newTestIndexRepo(t)
	ctx := context.Background()
	idx, _ := buildTestIndex(t, 1)

	snaps, err := repo.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, snaps)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, repo.SaveIndex(ctx, &core.Snapshot{Name: name}, idx))
	}

	snaps, err = repo.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, "alpha", snaps[0].Name)
	assert.Equal(t, "mid", snaps[1].Name)
	assert.Equal(t, "zeta", snaps[2].Name)
}

func TestIndexRepository_Corruption(t *testing.T) {
	ctx := context.Background()
	idx, _ := buildTestIndex(t, 1)
	other, err := index.Build([]core.CatalogRecord{{ItemID: "DrugA", Tags: []string{"fever"}}})
	require.NoError(t, err)

	overwrite := func(t *testing.T, backend *Backend, key, value []byte) {
		t.Helper()
		require.NoError(t, backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Set(key, value); err != nil {
				return err
			}
			return tx.Commit()
		}, true))
	}

	t.Run("garbage index data", func(t *testing.T) {
		repo, backend := newTestIndexRepo(t)
		require.NoError(t, repo.SaveIndex(ctx, &core.Snapshot{Name: "default"}, idx))
		overwrite(t, backend, makeIndexKey("default"), []byte("garbage"))

		_, _, err := repo.LoadIndex(ctx, "default")
		assert.ErrorIs(t, err, core.ErrCorruptIndex)
	})

	t.Run("garbage snapshot", func(t *testing.T) {
		repo, backend := newTestIndexRepo(t)
		require.NoError(t, repo.SaveIndex(ctx, &core.Snapshot{Name: "default"}, idx))
		overwrite(t, backend, makeSnapshotKey("default"), []byte{0xFF})

		_, _, err := repo.LoadIndex(ctx, "default")
		assert.ErrorIs(t, err, core.ErrCorruptIndex)
	})

	t.Run("metadata without data", func(t *testing.T) {
		repo, backend := newTestIndexRepo(t)
		overwrite(t, backend, makeSnapshotKey("default"), storage.MarshalSnapshot(&core.Snapshot{Name: "default"}))

		_, _, err := repo.LoadIndex(ctx, "default")
		assert.ErrorIs(t, err, core.ErrCorruptIndex)
	})

	t.Run("metadata mismatch", func(t *testing.T) {
		repo, backend := newTestIndexRepo(t)
		require.NoError(t, repo.SaveIndex(ctx, &core.Snapshot{Name: "default"}, idx))
		overwrite(t, backend, makeIndexKey("default"), index.Marshal(other))

		_, _, err := repo.LoadIndex(ctx, "default")
		assert.ErrorIs(t, err, core.ErrCorruptIndex)
	})
}

func TestIndexRepository_CancelledContext(t *testing.T) {
	repo, _ := newTestIndexRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	idx, _ := buildTestIndex(t, 1)

	assert.ErrorIs(t, repo.SaveIndex(ctx, &core.Snapshot{Name: "x"}, idx), context.Canceled)
	_, _, err := repo.LoadIndex(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewIndexRepository_ClosedBackend(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	_, err = NewIndexRepository(backend)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
