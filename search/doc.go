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


// Package search ranks catalog items against a tag query.
//
// Rank projects the query tags into the index vector space and scores every
// item by cosine similarity:
//   - Tags missing from the vocabulary are ignored
//   - Scores lie in [0, 1]; items sharing no tag with the query score 0
//   - Results are ordered by descending score, ties by ascending catalog position
//
// The Ranker type adds logging, monitoring hooks and a worker pool for
// ranking many queries concurrently against one shared index.
package search
