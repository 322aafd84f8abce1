package index

import (
	"slices"
)

// Index is the immutable artifact shared between build time and query time.
// Position i of the item vectors and the item IDs refers to the same item.
type Index struct {
	vocab   *Vocabulary
	vectors []Vector
	itemIDs []string
}

// Len returns the number of catalog items.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.itemIDs)
}

// ItemID returns the identifier of the item at catalog position i.
func (idx *Index) ItemID(i int) string {
	return idx.itemIDs[i]
}

// ItemIDs returns a copy of the item identifiers in catalog order.
func (idx *Index) ItemIDs() []string {
	return slices.Clone(idx.itemIDs)
}

// Vector returns the normalized vector of the item at catalog position i.
func (idx *Index) Vector(i int) Vector {
	return idx.vectors[i]
}

// Vocabulary returns the index vocabulary.
func (idx *Index) Vocabulary() *Vocabulary {
	return idx.vocab
}

// VocabularySize returns the number of distinct tags.
func (idx *Index) VocabularySize() int {
	return idx.vocab.Len()
}

// Project maps a query tag set into the index vector space and normalizes it.
// Tags missing from the vocabulary contribute nothing; repeated tags count
// once. If no tag is known the zero vector is returned.
func (idx *Index) Project(tags []string) Vector {
	indices := make([]int, 0, len(tags))
	for _, tag := range tags {
		if term, ok := idx.vocab.Lookup(tag); ok {
			indices = append(indices, term.Index)
		}
	}
	slices.Sort(indices)
	indices = slices.Compact(indices)

	weights := make([]float64, len(indices))
	for i, t := range indices {
		weights[i] = idx.vocab.weights[t]
	}
	return Vector{indices: indices, weights: weights}.normalize()
}

// unitTolerance is the largest distance from 1 treated as rounding error
// of normalization rather than a real difference in direction.
const unitTolerance = 1e-12

// Similarity returns the cosine similarity between a projected query and the
// item at catalog position i. Both vectors are unit length, so this is their
// dot product, clamped into [0, 1]. Identical directions score exactly 1.
func (idx *Index) Similarity(query Vector, i int) float64 {
	score := query.Dot(idx.vectors[i])
	if score >= 1-unitTolerance {
		return 1
	}
	return max(score, 0)
}

// Equal reports full structural equality: vocabulary, weights, vectors and
// item order.
func (idx *Index) Equal(o *Index) bool {
	if idx == nil || o == nil {
		return idx == o
	}
	if !idx.vocab.Equal(o.vocab) {
		return false
	}
	if !slices.Equal(idx.itemIDs, o.itemIDs) {
		return false
	}
	return slices.EqualFunc(idx.vectors, o.vectors, Vector.Equal)
}
