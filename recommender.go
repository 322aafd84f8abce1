// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package medrank ranks medications against a set of symptoms.
//
// A Recommender owns a persisted TF-IDF index built from a catalog source,
// answers ranking queries against it and records per-user request history.
package medrank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/medrank/catalog"
	"github.com/poiesic/medrank/core"
	"github.com/poiesic/medrank/index"
	"github.com/poiesic/medrank/search"
	"github.com/poiesic/medrank/storage"
	"github.com/poiesic/medrank/storage/badger"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultIndexName is the name indexes are stored under unless overridden.
	DefaultIndexName = "default"
	// DefaultHistorySize is the number of top matches kept per history entry.
	DefaultHistorySize = 3
)

// ErrCatalogSourceRequired is returned when an index has to be built but no
// catalog source was configured.
var ErrCatalogSourceRequired = errors.New("catalog source is required to build an index")

// Request is a recommendation request from a user.
type Request struct {
	Username string
	Tags     []string
	TopN     int
	Metadata map[string]string
}

// Recommender serves ranking queries from the current index.
//
// The current index is held behind an atomic pointer. Queries take the
// pointer once and run against that snapshot, so Rebuild and Swap never
// block or disturb in-flight queries. Loading, building and swapping are
// serialized, so the installed index only ever moves forward.
type Recommender struct {
	backend     *badger.Backend
	indexRepo   storage.IndexRepository
	historyRepo storage.HistoryRepository
	ranker      *search.Ranker
	source      catalog.Source

	name        string
	historySize int
	logger      *slog.Logger

	current atomic.Pointer[installed]
	buildMu sync.Mutex
	group   singleflight.Group
}

// installed pairs an index with the metadata it was stored with.
type installed struct {
	snapshot *core.Snapshot
	idx      *index.Index
}

// Option configures a Recommender.
type Option func(*recommenderOptions) error

type recommenderOptions struct {
	name        string
	historySize int
	poolSize    int
	logger      *slog.Logger
}

// WithIndexName sets the name the index is stored under.
func WithIndexName(name string) Option {
	return func(o *recommenderOptions) error {
		if name == "" {
			return errors.New("index name must not be empty")
		}
		o.name = name
		return nil
	}
}

// WithHistorySize sets how many top matches Recommend records.
// Zero disables history recording.
func WithHistorySize(n int) Option {
	return func(o *recommenderOptions) error {
		if n < 0 {
			return fmt.Errorf("history size must not be negative, got %d", n)
		}
		o.historySize = n
		return nil
	}
}

// WithPoolSize sets the worker count for RankBatch. Zero keeps the default.
func WithPoolSize(n int) Option {
	return func(o *recommenderOptions) error {
		o.poolSize = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *recommenderOptions) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// Open opens (or creates) a Recommender backed by the BadgerDB directory at path.
// source may be nil when the database already holds an index.
func Open(path string, source catalog.Source, opts ...Option) (*Recommender, error) {
	return open(path, false, source, opts)
}

// OpenInMemory opens a Recommender with non-persistent storage.
func OpenInMemory(source catalog.Source, opts ...Option) (*Recommender, error) {
	return open("", true, source, opts)
}

func open(path string, inMemory bool, source catalog.Source, opts []Option) (*Recommender, error) {
	options := &recommenderOptions{
		name:        DefaultIndexName,
		historySize: DefaultHistorySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	rankerOpts := []search.Option{search.WithLogger(options.logger)}
	if options.poolSize > 0 {
		rankerOpts = append(rankerOpts, search.WithPoolSize(options.poolSize))
	}
	ranker, err := search.NewRanker(rankerOpts...)
	if err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackend(path, inMemory, options.logger)
	if err != nil {
		ranker.Release()
		return nil, err
	}

	indexRepo, err := badger.NewIndexRepository(backend)
	if err != nil {
		ranker.Release()
		backend.Close()
		return nil, err
	}

	historyRepo, err := badger.NewHistoryRepository(backend)
	if err != nil {
		ranker.Release()
		indexRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Recommender{
		backend:     backend,
		indexRepo:   indexRepo,
		historyRepo: historyRepo,
		ranker:      ranker,
		source:      source,
		name:        options.name,
		historySize: options.historySize,
		logger:      options.logger,
	}, nil
}

// Close releases the worker pool and closes storage.
func (r *Recommender) Close() error {
	r.ranker.Release()

	var errs []error
	if err := r.historyRepo.Close(); err != nil {
		r.logger.Error("error closing history repository", "err", err)
		errs = append(errs, err)
	}
	if err := r.indexRepo.Close(); err != nil {
		r.logger.Error("error closing index repository", "err", err)
		errs = append(errs, err)
	}
	if err := r.backend.Close(); err != nil {
		r.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Index returns the current index, loading it from storage or building it
// from the catalog source on first use. Concurrent first callers share one
// load or build, which keeps running if the caller that started it gives up.
//
// A missing or corrupt stored index triggers a rebuild, as does a stored
// index whose catalog fingerprint differs from the source's. Any other
// storage error is returned.
func (r *Recommender) Index(ctx context.Context) (*index.Index, error) {
	if cur := r.current.Load(); cur != nil {
		return cur.idx, nil
	}
	return r.shared(ctx, "index", func(ctx context.Context) (*index.Index, error) {
		r.buildMu.Lock()
		defer r.buildMu.Unlock()
		if cur := r.current.Load(); cur != nil {
			return cur.idx, nil
		}
		return r.loadOrBuild(ctx)
	})
}

// Rebuild builds a fresh index from the catalog source, persists it and
// swaps it in. Concurrent callers share one build.
func (r *Recommender) Rebuild(ctx context.Context) (*index.Index, error) {
	return r.shared(ctx, "rebuild", func(ctx context.Context) (*index.Index, error) {
		r.buildMu.Lock()
		defer r.buildMu.Unlock()
		return r.build(ctx)
	})
}

// shared runs fn once per key for all concurrent callers. fn gets a context
// that is not cancelled with ctx; a caller whose ctx ends stops waiting
// without failing the others.
func (r *Recommender) shared(ctx context.Context, key string, fn func(context.Context) (*index.Index, error)) (*index.Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	detached := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*index.Index), nil
	}
}

// loadOrBuild must be called with buildMu held.
func (r *Recommender) loadOrBuild(ctx context.Context) (*index.Index, error) {
	snapshot, idx, err := r.indexRepo.LoadIndex(ctx, r.name)
	switch {
	case err == nil:
		return r.adopt(ctx, snapshot, idx)
	case errors.Is(err, storage.ErrNotFound):
		r.logger.Info("no stored index, building", "name", r.name)
	case errors.Is(err, core.ErrCorruptIndex):
		r.logger.Warn("stored index is corrupt, rebuilding", "name", r.name, "err", err)
	default:
		return nil, fmt.Errorf("loading index %q: %w", r.name, err)
	}
	return r.build(ctx)
}

// adopt installs a stored index unless it was built from a different
// catalog than the configured source. Indexes without a fingerprint, such
// as imported ones, are always adopted.
func (r *Recommender) adopt(ctx context.Context, snapshot *core.Snapshot, idx *index.Index) (*index.Index, error) {
	if r.source != nil && snapshot.Fingerprint != 0 {
		records, err := r.source.Records(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading catalog: %w", err)
		}
		if fp := catalog.Fingerprint(records); fp != snapshot.Fingerprint {
			r.logger.Warn("stored index was built from a different catalog, rebuilding",
				"name", r.name,
				"stored", snapshot.Fingerprint,
				"catalog", fp)
			return r.buildFrom(ctx, records)
		}
	}

	r.logger.Info("index loaded", "name", r.name, "items", snapshot.Items, "tags", snapshot.VocabularySize)
	r.install(snapshot, idx)
	return idx, nil
}

// build must be called with buildMu held.
func (r *Recommender) build(ctx context.Context) (*index.Index, error) {
	if r.source == nil {
		return nil, ErrCatalogSourceRequired
	}
	records, err := r.source.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return r.buildFrom(ctx, records)
}

func (r *Recommender) buildFrom(ctx context.Context, records []core.CatalogRecord) (*index.Index, error) {
	start := time.Now()
	idx, err := index.Build(records)
	if err != nil {
		return nil, err
	}

	snapshot := &core.Snapshot{
		Name:        r.name,
		Fingerprint: catalog.Fingerprint(records),
	}
	if err := r.indexRepo.SaveIndex(ctx, snapshot, idx); err != nil {
		return nil, fmt.Errorf("saving index %q: %w", r.name, err)
	}
	r.install(snapshot, idx)

	r.logger.Info("index built",
		"name", r.name,
		"items", idx.Len(),
		"tags", idx.VocabularySize(),
		"duration", time.Since(start))
	return idx, nil
}

// Swap persists idx as the current index and installs it.
// Used to adopt an index built elsewhere, such as an imported file. The
// stored snapshot carries no catalog fingerprint.
func (r *Recommender) Swap(ctx context.Context, idx *index.Index) error {
	if idx == nil {
		return errors.New("index is required")
	}
	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	snapshot := &core.Snapshot{Name: r.name}
	if err := r.indexRepo.SaveIndex(ctx, snapshot, idx); err != nil {
		return fmt.Errorf("saving index %q: %w", r.name, err)
	}
	r.install(snapshot, idx)
	return nil
}

func (r *Recommender) install(snapshot *core.Snapshot, idx *index.Index) {
	r.current.Store(&installed{snapshot: snapshot, idx: idx})
}

// Snapshot returns the metadata of the current index, or nil if no index
// has been loaded yet.
func (r *Recommender) Snapshot() *core.Snapshot {
	cur := r.current.Load()
	if cur == nil {
		return nil
	}
	copied := *cur.snapshot
	return &copied
}

// Rank returns the topN catalog items most similar to tags.
func (r *Recommender) Rank(ctx context.Context, tags []string, topN int) ([]core.Match, error) {
	if topN < 1 {
		return nil, core.ErrInvalidTopN
	}
	idx, err := r.Index(ctx)
	if err != nil {
		return nil, err
	}
	return r.ranker.Rank(ctx, idx, tags, topN)
}

// RankBatch ranks several queries against the same index snapshot.
func (r *Recommender) RankBatch(ctx context.Context, queries [][]string, topN int) ([][]core.Match, error) {
	if topN < 1 {
		return nil, core.ErrInvalidTopN
	}
	idx, err := r.Index(ctx)
	if err != nil {
		return nil, err
	}
	return r.ranker.RankBatch(ctx, idx, queries, topN)
}

// Recommend ranks req.Tags and, when req.Username is set, records the
// request with its top matches in the user's history.
func (r *Recommender) Recommend(ctx context.Context, req Request) ([]core.Match, error) {
	matches, err := r.Rank(ctx, req.Tags, req.TopN)
	if err != nil {
		return nil, err
	}
	if req.Username == "" || r.historySize == 0 {
		return matches, nil
	}

	kept := matches[:min(len(matches), r.historySize)]
	entry := &core.HistoryEntry{
		Username: req.Username,
		Tags:     append([]string(nil), req.Tags...),
		Matches:  append([]core.Match(nil), kept...),
		Metadata: req.Metadata,
	}
	if _, err := r.historyRepo.AddHistoryEntries(ctx, entry); err != nil {
		return nil, fmt.Errorf("recording history: %w", err)
	}
	return matches, nil
}

// History returns a user's most recent requests, newest first.
// A limit <= 0 returns everything.
func (r *Recommender) History(ctx context.Context, username string, limit int) ([]*core.HistoryEntry, error) {
	return r.historyRepo.GetHistory(ctx, username, limit)
}

// ClearHistory removes a user's history.
func (r *Recommender) ClearHistory(ctx context.Context, username string) error {
	return r.historyRepo.DeleteHistory(ctx, username)
}

// Snapshots lists every index stored in the database.
func (r *Recommender) Snapshots(ctx context.Context) ([]*core.Snapshot, error) {
	return r.indexRepo.ListSnapshots(ctx)
}

// StorageSize reports the on-disk size of the database in bytes.
func (r *Recommender) StorageSize() (lsm, vlog int64) {
	return r.backend.Size()
}
