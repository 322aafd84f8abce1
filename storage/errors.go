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

package storage

import "errors"

var (
	// ErrNotFound is returned for a missing index name or history entry.
	ErrNotFound = errors.New("not found in store")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidQuery rejects empty names, nil indexes and bad usernames.
	ErrInvalidQuery = errors.New("invalid repository arguments")

	// ErrSerializationFailed wraps every snapshot or history decode failure.
	ErrSerializationFailed = errors.New("record encoding invalid")

	// ErrTruncatedData is additionally wrapped when a record ends early.
	ErrTruncatedData = errors.New("record truncated")
)
