package index

import (
	"math"
	"testing"

	"github.com/poiesic/medrank/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioCatalog() []core.CatalogRecord {
	return []core.CatalogRecord{
		{ItemID: "DrugA", Tags: []string{"fever", "cough"}},
		{ItemID: "DrugB", Tags: []string{"cough", "sore_throat"}},
		{ItemID: "DrugC", Tags: []string{"headache"}},
	}
}

func TestIDF(t *testing.T) {
	tests := []struct {
		name string
		n    int
		df   int
		want float64
	}{
		{"tag in every record", 3, 3, 1},
		{"tag in one of three", 3, 1, math.Log(4.0/2.0) + 1},
		{"tag in two of three", 3, 2, math.Log(4.0/3.0) + 1},
		{"single record catalog", 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IDF(tt.n, tt.df)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 1.0)
		})
	}
}

func TestBuild_Vocabulary(t *testing.T) {
	idx, err := Build(scenarioCatalog())
	require.NoError(t, err)

	vocab := idx.Vocabulary()
	require.Equal(t, 4, vocab.Len())
	assert.Equal(t, []string{"fever", "cough", "sore_throat", "headache"}, vocab.Tags())

	expected := map[string]Term{
		"fever":       {Index: 0, Weight: IDF(3, 1)},
		"cough":       {Index: 1, Weight: IDF(3, 2)},
		"sore_throat": {Index: 2, Weight: IDF(3, 1)},
		"headache":    {Index: 3, Weight: IDF(3, 1)},
	}
	for tag, want := range expected {
		got, ok := vocab.Lookup(tag)
		require.True(t, ok, "missing tag %q", tag)
		assert.Equal(t, want, got, "tag %q", tag)
	}

	_, ok := vocab.Lookup("nausea")
	assert.False(t, ok)

	i := 0
	for tag, term := range vocab.Terms() {
		assert.Equal(t, i, term.Index)
		assert.Equal(t, vocab.Tag(i), tag)
		i++
	}
	assert.Equal(t, vocab.Len(), i)
}

func TestBuild_ItemsAlignedWithCatalog(t *testing.T) {
	catalog := scenarioCatalog()
	idx, err := Build(catalog)
	require.NoError(t, err)

	require.Equal(t, len(catalog), idx.Len())
	assert.Equal(t, []string{"DrugA", "DrugB", "DrugC"}, idx.ItemIDs())
	for i, record := range catalog {
		assert.Equal(t, record.ItemID, idx.ItemID(i))
		assert.Equal(t, len(record.Tags), idx.Vector(i).Len())
	}
}

func TestBuild_VectorsAreUnitLength(t *testing.T) {
	idx, err := Build(scenarioCatalog())
	require.NoError(t, err)

	for i := 0; i < idx.Len(); i++ {
		assert.InDelta(t, 1.0, idx.Vector(i).Norm(), 1e-12, "item %d", i)
		for _, w := range idx.Vector(i).Entries() {
			assert.Greater(t, w, 0.0)
		}
	}

	// Single-tag record normalizes to exactly 1.
	headache, _ := idx.Vocabulary().Lookup("headache")
	assert.Equal(t, 1.0, idx.Vector(2).Weight(headache.Index))
}

func TestBuild_WeightsFollowIDF(t *testing.T) {
	idx, err := Build(scenarioCatalog())
	require.NoError(t, err)

	fever := IDF(3, 1)
	cough := IDF(3, 2)
	norm := math.Sqrt(fever*fever + cough*cough)

	v := idx.Vector(0)
	assert.InDelta(t, fever/norm, v.Weight(0), 1e-15)
	assert.InDelta(t, cough/norm, v.Weight(1), 1e-15)
	assert.Equal(t, 0.0, v.Weight(2))
	assert.Equal(t, 0.0, v.Weight(3))
}

func TestBuild_Deterministic(t *testing.T) {
	catalog := []core.CatalogRecord{
		{ItemID: "Acetaminophen", Tags: []string{"fever", "headache", "body_ache"}},
		{ItemID: "Ibuprofen", Tags: []string{"fever", "joint_pain", "back_pain"}},
		{ItemID: "Loratadine", Tags: []string{"runny_nose", "eye_irritation", "rash"}},
		{ItemID: "Dextromethorphan", Tags: []string{"cough"}},
		{ItemID: "Omeprazole", Tags: []string{"abdominal_pain", "nausea"}},
	}

	first, err := Build(catalog)
	require.NoError(t, err)
	second, err := Build(catalog)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.Equal(t, Marshal(first), Marshal(second))
}

func TestBuild_RepeatedTagCountsOnce(t *testing.T) {
	withRepeat, err := Build([]core.CatalogRecord{
		{ItemID: "DrugA", Tags: []string{"fever", "fever", "cough"}},
		{ItemID: "DrugB", Tags: []string{"cough"}},
	})
	require.NoError(t, err)

	plain, err := Build([]core.CatalogRecord{
		{ItemID: "DrugA", Tags: []string{"fever", "cough"}},
		{ItemID: "DrugB", Tags: []string{"cough"}},
	})
	require.NoError(t, err)

	assert.True(t, withRepeat.Equal(plain))
	fever, _ := withRepeat.Vocabulary().Lookup("fever")
	assert.Equal(t, IDF(2, 1), fever.Weight)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		catalog []core.CatalogRecord
		wantErr error
	}{
		{"nil catalog", nil, core.ErrEmptyCorpus},
		{"empty catalog", []core.CatalogRecord{}, core.ErrEmptyCorpus},
		{"record without tags", []core.CatalogRecord{{ItemID: "DrugA"}}, core.ErrEmptyTags},
		{"record without id", []core.CatalogRecord{{Tags: []string{"fever"}}}, core.ErrEmptyItemID},
		{
			"duplicate id",
			[]core.CatalogRecord{
				{ItemID: "DrugA", Tags: []string{"fever"}},
				{ItemID: "DrugA", Tags: []string{"cough"}},
			},
			core.ErrDuplicateItemID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := Build(tt.catalog)
			assert.Nil(t, idx)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProject(t *testing.T) {
	idx, err := Build(scenarioCatalog())
	require.NoError(t, err)

	t.Run("known tag", func(t *testing.T) {
		q := idx.Project([]string{"cough"})
		require.Equal(t, 1, q.Len())
		assert.Equal(t, 1.0, q.Weight(1))
	})

	t.Run("unknown tags are ignored", func(t *testing.T) {
		base := idx.Project([]string{"cough", "fever"})
		noisy := idx.Project([]string{"vertigo", "cough", "hiccups", "fever"})
		assert.True(t, base.Equal(noisy))
	})

	t.Run("order and repeats do not matter", func(t *testing.T) {
		a := idx.Project([]string{"fever", "cough"})
		b := idx.Project([]string{"cough", "fever", "cough"})
		assert.True(t, a.Equal(b))
	})

	t.Run("empty query is zero", func(t *testing.T) {
		assert.True(t, idx.Project(nil).IsZero())
		assert.True(t, idx.Project([]string{"vertigo"}).IsZero())
	})
}

func TestSimilarity(t *testing.T) {
	idx, err := Build(scenarioCatalog())
	require.NoError(t, err)

	exact := idx.Project([]string{"fever", "cough"})
	assert.Equal(t, 1.0, idx.Similarity(exact, 0))
	assert.Equal(t, 0.0, idx.Similarity(exact, 2))

	zero := idx.Project(nil)
	for i := 0; i < idx.Len(); i++ {
		assert.Equal(t, 0.0, idx.Similarity(zero, i))
	}
}
