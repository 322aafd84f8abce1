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


package core

import "errors"

// Index lifecycle errors
var (
	// ErrEmptyCorpus indicates an index build was attempted on an empty catalog.
	ErrEmptyCorpus = errors.New("catalog is empty")

	// ErrEmptyIndex indicates a query against an index with no items.
	ErrEmptyIndex = errors.New("index has no items")

	// ErrCorruptIndex indicates persisted index data could not be decoded
	// into a consistent index.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrInvalidTopN indicates a result count below 1.
	ErrInvalidTopN = errors.New("top n must be at least 1")
)

// Domain validation errors
var (
	// ErrInvalidCatalogRecord indicates a CatalogRecord failed validation.
	ErrInvalidCatalogRecord = errors.New("invalid catalog record")

	// ErrEmptyItemID indicates the ItemID field is empty.
	ErrEmptyItemID = errors.New("item id cannot be empty")

	// ErrEmptyTags indicates a record without tags.
	ErrEmptyTags = errors.New("tags cannot be empty")

	// ErrEmptyTag indicates a blank tag inside a record.
	ErrEmptyTag = errors.New("tag cannot be empty")

	// ErrDuplicateItemID indicates two catalog records share an ItemID.
	ErrDuplicateItemID = errors.New("duplicate item id")
)
