package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/medrank/core"
	"github.com/poiesic/medrank/index"
)

// Rank scores every item of idx against the query tags and returns the best
// topN matches. topN larger than the catalog is clamped.
//
// Returns core.ErrEmptyIndex if idx has no items and core.ErrInvalidTopN if
// topN is below 1.
func Rank(idx *index.Index, tags []string, topN int) ([]core.Match, error) {
	return rank(idx, tags, topN, &noopMonitor{})
}

type scoredItem struct {
	position int
	score    float64
}

func rank(idx *index.Index, tags []string, topN int, monitor RankMonitor) ([]core.Match, error) {
	if idx.Len() == 0 {
		return nil, core.ErrEmptyIndex
	}
	if topN < 1 {
		return nil, fmt.Errorf("%w: got %d", core.ErrInvalidTopN, topN)
	}

	monitor.Start(tags)
	query := idx.Project(tags)
	monitor.AfterProjection(query)

	scored := make([]scoredItem, idx.Len())
	for i := range scored {
		scored[i] = scoredItem{position: i, score: idx.Similarity(query, i)}
		monitor.ItemScored(idx.ItemID(i), scored[i].score)
	}

	// Descending score, ties by catalog position
	slices.SortFunc(scored, func(a, b scoredItem) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.position, b.position)
	})

	n := min(topN, len(scored))
	results := make([]core.Match, n)
	for i, item := range scored[:n] {
		results[i] = core.Match{
			ItemID: idx.ItemID(item.position),
			Score:  item.score,
		}
	}
	monitor.Finish(results)

	return results, nil
}

// Ranker ranks queries against a shared index.
// It is safe for concurrent use.
type Ranker struct {
	pool   *ants.Pool
	logger *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithPoolSize sets the worker pool size used by RankBatch.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(r *Ranker) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if r.pool != nil {
			r.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		r.pool = pool
		return nil
	}
}

// NewRanker creates a new ranker.
func NewRanker(opts ...Option) (*Ranker, error) {
	pool, err := ants.NewPool(max(runtime.NumCPU(), 1))
	if err != nil {
		return nil, err
	}

	r := &Ranker{
		pool:   pool,
		logger: slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			r.Release()
			return nil, err
		}
	}

	return r, nil
}

// Rank ranks a single query. See the package-level Rank.
func (r *Ranker) Rank(ctx context.Context, idx *index.Index, tags []string, topN int) ([]core.Match, error) {
	return r.RankWithMonitor(ctx, idx, tags, topN, nil)
}

// RankWithMonitor ranks a single query with monitoring.
// The monitor receives callbacks at each stage of the ranking process.
func (r *Ranker) RankWithMonitor(ctx context.Context, idx *index.Index, tags []string, topN int, monitor RankMonitor) ([]core.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	results, err := rank(idx, tags, topN, monitor)
	if err != nil {
		r.logger.Debug("ranking rejected", "tags", len(tags), "topN", topN, "err", err)
		return nil, err
	}
	r.logger.Debug("ranked query", "tags", len(tags), "items", idx.Len(), "results", len(results))
	return results, nil
}

// RankBatch ranks many queries concurrently against the same index.
// Results are returned in query order. If any query fails, all failures are
// joined into the returned error and no results are returned.
func (r *Ranker) RankBatch(ctx context.Context, idx *index.Index, queries [][]string, topN int) ([][]core.Match, error) {
	if idx.Len() == 0 {
		return nil, core.ErrEmptyIndex
	}
	if topN < 1 {
		return nil, fmt.Errorf("%w: got %d", core.ErrInvalidTopN, topN)
	}
	if r.pool == nil || r.pool.IsClosed() {
		return nil, ErrRankerReleased
	}

	results := make([][]core.Match, len(queries))
	errs := make([]error, len(queries))

	var wg sync.WaitGroup
	for i, tags := range queries {
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = Rank(idx, tags, topN)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		r.logger.Error("batch ranking failed", "queries", len(queries), "err", err)
		return nil, err
	}
	r.logger.Debug("ranked batch", "queries", len(queries), "items", idx.Len())
	return results, nil
}

// Release releases the worker pool.
// The ranker should not be used for batch ranking after calling Release.
func (r *Ranker) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}
