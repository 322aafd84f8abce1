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

// Package storage provides the storage abstraction layer for medrank.
//
// This package defines repository interfaces that decouple persistence from
// index building and ranking. Implementations live in subpackages:
//
//   - badger: BadgerDB-backed repositories, on disk or in memory
//   - file: single-file export and import of serialized indexes
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	var indexes storage.IndexRepository
//	indexes, err = badger.NewIndexRepository(backend)
//
// Tests use badger.NewMemoryRepositories for in-memory storage.
//
// # Architecture
//
//   - IndexRepository: named, immutable index snapshots
//   - HistoryRepository: per-user recommendation history
//
// Record encodings (MarshalSnapshot, MarshalHistoryEntry, ...) use mus-go
// primitives and are shared by all backends.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
