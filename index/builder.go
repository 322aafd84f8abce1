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


package index

import (
	"slices"

	"github.com/poiesic/medrank/core"
)

// Build creates an Index from an ordered catalog.
//
// Returns core.ErrEmptyCorpus for an empty catalog and an error wrapping
// core.ErrInvalidCatalogRecord for records with an empty ID, no tags, or an
// ID already used by an earlier record.
func Build(records []core.CatalogRecord) (*Index, error) {
	if err := core.ValidateCatalog(records); err != nil {
		return nil, err
	}

	var (
		tags     []string
		df       []int
		lastSeen []int // last record that contained each tag
		lookup   = make(map[string]int)
		docs     = make([][]int, len(records))
	)

	// Single front-to-back scan: assign indices in first-seen order and
	// count document frequency once per record.
	for i, record := range records {
		doc := make([]int, 0, len(record.Tags))
		for _, tag := range record.Tags {
			t, ok := lookup[tag]
			if !ok {
				t = len(tags)
				lookup[tag] = t
				tags = append(tags, tag)
				df = append(df, 0)
				lastSeen = append(lastSeen, -1)
			}
			if lastSeen[t] == i {
				continue
			}
			lastSeen[t] = i
			df[t]++
			doc = append(doc, t)
		}
		docs[i] = doc
	}

	n := len(records)
	weights := make([]float64, len(tags))
	for t := range tags {
		weights[t] = IDF(n, df[t])
	}

	vectors := make([]Vector, n)
	itemIDs := make([]string, n)
	for i, doc := range docs {
		slices.Sort(doc)
		w := make([]float64, len(doc))
		for j, t := range doc {
			w[j] = weights[t]
		}
		vectors[i] = Vector{indices: doc, weights: w}.normalize()
		itemIDs[i] = records[i].ItemID
	}

	return &Index{
		vocab:   &Vocabulary{tags: tags, weights: weights, lookup: lookup},
		vectors: vectors,
		itemIDs: itemIDs,
	}, nil
}
