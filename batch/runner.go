package batch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/medrank/core"
)

// Ranker ranks several queries against one index snapshot.
type Ranker interface {
	RankBatch(ctx context.Context, queries [][]string, topN int) ([][]core.Match, error)
}

// Config holds configuration for a batch run.
type Config struct {
	// BatchSize is the number of queries ranked per RankBatch call
	BatchSize int

	// ReportInterval is how often to report progress (number of queries)
	ReportInterval int

	// TopN is the number of matches per query
	TopN int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		TopN:           5,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.ReportInterval <= 0 {
		return ErrInvalidReportInterval
	}
	if c.TopN < 1 {
		return core.ErrInvalidTopN
	}
	return nil
}

// Result pairs a query with its matches.
type Result struct {
	Query   Query
	Matches []core.Match
}

// Runner ranks a list of queries batch by batch.
type Runner struct {
	ranker   Ranker
	config   *Config
	progress io.Writer
}

// NewRunner creates a new runner.
// progress: where to write progress output (typically os.Stderr)
func NewRunner(ranker Ranker, config *Config, progress io.Writer) *Runner {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Runner{
		ranker:   ranker,
		config:   config,
		progress: progress,
	}
}

// Run ranks every query and hands results to emit in input order.
// Run stops at the first ranking or emit error.
func (r *Runner) Run(ctx context.Context, queries []Query, emit func(Result) error) error {
	if err := r.config.Validate(); err != nil {
		return err
	}
	if len(queries) == 0 {
		fmt.Fprintf(r.progress, "No queries to rank\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Ranking %d queries (batch size: %d)\n", len(queries), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, len(queries), r.config.ReportInterval)
	tracker.Start()

	for start := 0; start < len(queries); start += r.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk := queries[start:min(start+r.config.BatchSize, len(queries))]
		tags := make([][]string, len(chunk))
		for i, q := range chunk {
			tags[i] = q.Tags
		}

		results, err := r.ranker.RankBatch(ctx, tags, r.config.TopN)
		if err != nil {
			return fmt.Errorf("ranking queries from line %d: %w", chunk[0].Line, err)
		}
		for i, q := range chunk {
			if err := emit(Result{Query: q, Matches: results[i]}); err != nil {
				return err
			}
		}
		tracker.Increment(len(chunk))
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Ranking complete. Processed %d queries in %v\n",
		len(queries), elapsed.Round(time.Millisecond))
	return nil
}
