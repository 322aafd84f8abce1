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

import (
	"fmt"
)

// ValidateCatalogRecord validates a CatalogRecord according to domain rules.
//
// Validation rules:
//   - ItemID must not be empty
//   - Tags must contain at least one tag
//   - No tag may be the empty string
func ValidateCatalogRecord(record CatalogRecord) error {
	if record.ItemID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCatalogRecord, ErrEmptyItemID)
	}

	if len(record.Tags) == 0 {
		return fmt.Errorf("%w: %q: %w", ErrInvalidCatalogRecord, record.ItemID, ErrEmptyTags)
	}

	for _, tag := range record.Tags {
		if tag == "" {
			return fmt.Errorf("%w: %q: %w", ErrInvalidCatalogRecord, record.ItemID, ErrEmptyTag)
		}
	}

	return nil
}

// ValidateCatalog validates every record and checks that item IDs are unique.
// An empty catalog fails with ErrEmptyCorpus.
func ValidateCatalog(records []CatalogRecord) error {
	if len(records) == 0 {
		return ErrEmptyCorpus
	}

	seen := make(map[string]int, len(records))
	for i, record := range records {
		if err := ValidateCatalogRecord(record); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if first, ok := seen[record.ItemID]; ok {
			return fmt.Errorf("%w: %w: %q at records %d and %d",
				ErrInvalidCatalogRecord, ErrDuplicateItemID, record.ItemID, first, i)
		}
		seen[record.ItemID] = i
	}

	return nil
}
