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


// Package index builds and persists the weighted tag index used for ranking.
//
// Build consumes an ordered catalog and produces an immutable Index:
//   - a Vocabulary assigning every distinct tag a dense index (first-seen
//     order over the catalog) and a smoothed inverse document frequency
//     weight, idf(t) = ln((N+1)/(df(t)+1)) + 1
//   - one L2-normalized sparse Vector per catalog record, in catalog order
//   - the item identifiers, aligned 1:1 with the vectors
//
// Build is a pure function of the catalog content and order: the same catalog
// always yields a bit-identical Index.
//
// # Thread Safety
//
// An Index is never modified after Build or Unmarshal returns it, so it can be
// shared by any number of goroutines without locking. A changed catalog needs
// a full rebuild producing a new Index.
//
// # Persistence
//
// Marshal and Unmarshal convert an Index to and from a compact binary form
// built on mus-go primitives. Unmarshal validates the structure and reports
// any inconsistency as core.ErrCorruptIndex instead of returning a partial
// Index.
package index
