package index

import (
	"iter"
	"math"
)

// Term is a vocabulary entry.
type Term struct {
	Index  int     // Dense 0-based position in the vocabulary
	Weight float64 // Smoothed inverse document frequency
}

// Vocabulary maps each distinct tag to its Term.
// Indices are contiguous 0..Len()-1.
type Vocabulary struct {
	tags    []string
	weights []float64
	lookup  map[string]int
}

// IDF computes the smoothed inverse document frequency of a tag that appears
// in df of n catalog records. The result is at least 1 whenever df <= n.
func IDF(n, df int) float64 {
	return math.Log(float64(n+1)/float64(df+1)) + 1
}

// Len returns the number of tags in the vocabulary.
func (v *Vocabulary) Len() int {
	return len(v.tags)
}

// Lookup returns the term for a tag.
func (v *Vocabulary) Lookup(tag string) (Term, bool) {
	i, ok := v.lookup[tag]
	if !ok {
		return Term{}, false
	}
	return Term{Index: i, Weight: v.weights[i]}, true
}

// Tag returns the tag at vocabulary index i.
func (v *Vocabulary) Tag(i int) string {
	return v.tags[i]
}

// Tags returns a copy of all tags in index order.
func (v *Vocabulary) Tags() []string {
	out := make([]string, len(v.tags))
	copy(out, v.tags)
	return out
}

// Terms iterates over all entries in index order.
func (v *Vocabulary) Terms() iter.Seq2[string, Term] {
	return func(yield func(string, Term) bool) {
		for i, tag := range v.tags {
			if !yield(tag, Term{Index: i, Weight: v.weights[i]}) {
				return
			}
		}
	}
}

// Equal reports whether two vocabularies hold the same tags in the same
// order with bit-identical weights.
func (v *Vocabulary) Equal(o *Vocabulary) bool {
	if v == nil || o == nil {
		return v == o
	}
	if len(v.tags) != len(o.tags) {
		return false
	}
	for i := range v.tags {
		if v.tags[i] != o.tags[i] {
			return false
		}
		if math.Float64bits(v.weights[i]) != math.Float64bits(o.weights[i]) {
			return false
		}
	}
	return true
}

func newVocabulary(tags []string, weights []float64) *Vocabulary {
	lookup := make(map[string]int, len(tags))
	for i, tag := range tags {
		lookup[tag] = i
	}
	return &Vocabulary{
		tags:    tags,
		weights: weights,
		lookup:  lookup,
	}
}
