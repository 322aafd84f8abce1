package batch

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/poiesic/medrank/catalog"
	"github.com/poiesic/medrank/core"
	"github.com/poiesic/medrank/index"
	"github.com/poiesic/medrank/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// indexRanker ranks against a fixed index and records batch sizes.
type indexRanker struct {
	idx     *index.Index
	batches []int
	err     error
}

func (r *indexRanker) RankBatch(ctx context.Context, queries [][]string, topN int) ([][]core.Match, error) {
	r.batches = append(r.batches, len(queries))
	if r.err != nil {
		return nil, r.err
	}
	out := make([][]core.Match, len(queries))
	for i, q := range queries {
		matches, err := search.Rank(r.idx, q, topN)
		if err != nil {
			return nil, err
		}
		out[i] = matches
	}
	return out, nil
}

func newIndexRanker(t *testing.T) *indexRanker {
	t.Helper()
	idx, err := index.Build([]core.CatalogRecord{
		{ItemID: "DrugA", Tags: []string{"fever", "cough"}},
		{ItemID: "DrugB", Tags: []string{"cough", "sore_throat"}},
		{ItemID: "DrugC", Tags: []string{"headache"}},
	})
	require.NoError(t, err)
	return &indexRanker{idx: idx}
}

func TestReadQueries(t *testing.T) {
	input := `# symptoms per line
fever, cough

['Headache']
  # indented comment
sore throat;cough
[]
`
	queries, err := ReadQueries(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []Query{
		{Line: 2, Tags: []string{"fever", "cough"}},
		{Line: 4, Tags: []string{"headache"}},
		{Line: 6, Tags: []string{"sore_throat", "cough"}},
		{Line: 7, Tags: []string{}},
	}, queries)
}

func TestRunner_Run(t *testing.T) {
	ranker := newIndexRanker(t)
	var progress bytes.Buffer
	runner := NewRunner(ranker, &Config{BatchSize: 2, ReportInterval: 1, TopN: 1}, &progress)

	queries := []Query{
		{Line: 1, Tags: []string{"fever", "cough"}},
		{Line: 2, Tags: []string{"headache"}},
		{Line: 3, Tags: []string{"sore_throat"}},
	}

	var results []Result
	err := runner.Run(context.Background(), queries, func(r Result) error {
		results = append(results, r)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 1}, ranker.batches)
	require.Len(t, results, 3)
	assert.Equal(t, 1, results[0].Query.Line)
	assert.Equal(t, "DrugA", results[0].Matches[0].ItemID)
	assert.Equal(t, "DrugC", results[1].Matches[0].ItemID)
	assert.Equal(t, "DrugB", results[2].Matches[0].ItemID)

	assert.Contains(t, progress.String(), "3/3")
	assert.Contains(t, progress.String(), "Ranking complete")
}

func TestRunner_Empty(t *testing.T) {
	ranker := newIndexRanker(t)
	var progress bytes.Buffer
	runner := NewRunner(ranker, nil, &progress)

	err := runner.Run(context.Background(), nil, func(Result) error {
		t.Fatal("emit should not be called")
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, ranker.batches)
	assert.Contains(t, progress.String(), "No queries")
}

func TestRunner_Errors(t *testing.T) {
	queries := []Query{{Line: 5, Tags: []string{"fever"}}}
	noop := func(Result) error { return nil }

	t.Run("invalid config", func(t *testing.T) {
		tests := []struct {
			name    string
			config  *Config
			wantErr error
		}{
			{"batch size", &Config{BatchSize: 0, ReportInterval: 1, TopN: 1}, ErrInvalidBatchSize},
			{"report interval", &Config{BatchSize: 1, ReportInterval: 0, TopN: 1}, ErrInvalidReportInterval},
			{"top n", &Config{BatchSize: 1, ReportInterval: 1, TopN: 0}, core.ErrInvalidTopN},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := NewRunner(newIndexRanker(t), tt.config, nil).Run(context.Background(), queries, noop)
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	})

	t.Run("ranker error", func(t *testing.T) {
		ranker := newIndexRanker(t)
		ranker.err = assert.AnError
		err := NewRunner(ranker, nil, nil).Run(context.Background(), queries, noop)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "line 5")
	})

	t.Run("emit error", func(t *testing.T) {
		err := NewRunner(newIndexRanker(t), nil, nil).Run(context.Background(), queries, func(Result) error {
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewRunner(newIndexRanker(t), nil, nil).Run(ctx, queries, noop)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRunner_SyntheticCatalog(t *testing.T) {
	idx, err := index.Build(catalog.Synthetic(42))
	require.NoError(t, err)
	ranker := &indexRanker{idx: idx}

	queries := make([]Query, 250)
	for i := range queries {
		queries[i] = Query{Line: i + 1, Tags: []string{catalog.NormalizeTag(catalog.Symptoms[i%len(catalog.Symptoms)])}}
	}

	count := 0
	err = NewRunner(ranker, nil, nil).Run(context.Background(), queries, func(r Result) error {
		count++
		assert.Len(t, r.Matches, 5)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 250, count)
	assert.Equal(t, []int{100, 100, 50}, ranker.batches)
}
