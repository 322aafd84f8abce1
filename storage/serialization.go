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

import (
	"fmt"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/medrank/core"
)

const float64Size = 8

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	r := reader{bs: data}
	id, err := r.id()
	if err != nil {
		return 0, err
	}
	return id, r.done()
}

// MarshalSnapshot serializes a Snapshot to bytes.
// Timestamps are stored as Unix microseconds.
func MarshalSnapshot(snapshot *core.Snapshot) []byte {
	built := snapshot.BuiltAt.UnixMicro()
	size := ord.String.Size(snapshot.Name) +
		varint.Uint64.Size(uint64(snapshot.Fingerprint)) +
		varint.Uint64.Size(uint64(snapshot.Items)) +
		varint.Uint64.Size(uint64(snapshot.VocabularySize)) +
		varint.Int64.Size(built)

	buf := make([]byte, size)
	n := ord.String.Marshal(snapshot.Name, buf)
	n += varint.Uint64.Marshal(uint64(snapshot.Fingerprint), buf[n:])
	n += varint.Uint64.Marshal(uint64(snapshot.Items), buf[n:])
	n += varint.Uint64.Marshal(uint64(snapshot.VocabularySize), buf[n:])
	n += varint.Int64.Marshal(built, buf[n:])
	return buf[:n]
}

// UnmarshalSnapshot deserializes a Snapshot from bytes.
func UnmarshalSnapshot(data []byte) (*core.Snapshot, error) {
	r := reader{bs: data}
	var snapshot core.Snapshot
	var err error
	if snapshot.Name, err = r.string(); err != nil {
		return nil, err
	}
	if snapshot.Fingerprint, err = r.id(); err != nil {
		return nil, err
	}
	if snapshot.Items, err = r.int(); err != nil {
		return nil, err
	}
	if snapshot.VocabularySize, err = r.int(); err != nil {
		return nil, err
	}
	if snapshot.BuiltAt, err = r.time(); err != nil {
		return nil, err
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// MarshalHistoryEntry serializes a HistoryEntry to bytes.
// Metadata is written in key order so equal entries encode identically.
func MarshalHistoryEntry(entry *core.HistoryEntry) []byte {
	keys := make([]string, 0, len(entry.Metadata))
	for k := range entry.Metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	ts := entry.Timestamp.UnixMicro()
	size := varint.Uint64.Size(uint64(entry.Id)) +
		ord.String.Size(entry.Username) +
		varint.Uint64.Size(uint64(len(entry.Tags))) +
		varint.Uint64.Size(uint64(len(entry.Matches))) +
		varint.Uint64.Size(uint64(len(keys))) +
		varint.Int64.Size(ts)
	for _, tag := range entry.Tags {
		size += ord.String.Size(tag)
	}
	for _, m := range entry.Matches {
		size += ord.String.Size(m.ItemID) + float64Size
	}
	for _, k := range keys {
		size += ord.String.Size(k) + ord.String.Size(entry.Metadata[k])
	}

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(entry.Id), buf)
	n += ord.String.Marshal(entry.Username, buf[n:])
	n += varint.Uint64.Marshal(uint64(len(entry.Tags)), buf[n:])
	for _, tag := range entry.Tags {
		n += ord.String.Marshal(tag, buf[n:])
	}
	n += varint.Uint64.Marshal(uint64(len(entry.Matches)), buf[n:])
	for _, m := range entry.Matches {
		n += ord.String.Marshal(m.ItemID, buf[n:])
		n += raw.Float64.Marshal(m.Score, buf[n:])
	}
	n += varint.Uint64.Marshal(uint64(len(keys)), buf[n:])
	for _, k := range keys {
		n += ord.String.Marshal(k, buf[n:])
		n += ord.String.Marshal(entry.Metadata[k], buf[n:])
	}
	n += varint.Int64.Marshal(ts, buf[n:])
	return buf[:n]
}

// UnmarshalHistoryEntry deserializes a HistoryEntry from bytes.
func UnmarshalHistoryEntry(data []byte) (*core.HistoryEntry, error) {
	r := reader{bs: data}
	var entry core.HistoryEntry
	var err error
	if entry.Id, err = r.id(); err != nil {
		return nil, err
	}
	if entry.Username, err = r.string(); err != nil {
		return nil, err
	}

	count, err := r.count()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		entry.Tags = make([]string, count)
	}
	for i := range count {
		if entry.Tags[i], err = r.string(); err != nil {
			return nil, err
		}
	}

	if count, err = r.count(); err != nil {
		return nil, err
	}
	if count > 0 {
		entry.Matches = make([]core.Match, count)
	}
	for i := range count {
		if entry.Matches[i].ItemID, err = r.string(); err != nil {
			return nil, err
		}
		if entry.Matches[i].Score, err = r.float(); err != nil {
			return nil, err
		}
	}

	if count, err = r.count(); err != nil {
		return nil, err
	}
	if count > 0 {
		entry.Metadata = make(map[string]string, count)
	}
	for range count {
		k, err := r.string()
		if err != nil {
			return nil, err
		}
		v, err := r.string()
		if err != nil {
			return nil, err
		}
		entry.Metadata[k] = v
	}

	if entry.Timestamp, err = r.time(); err != nil {
		return nil, err
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return &entry, nil
}

// reader decodes mus primitives from a byte slice. Every failure wraps
// ErrSerializationFailed; short input additionally wraps ErrTruncatedData.
type reader struct {
	bs []byte
	n  int
}

func (r *reader) fail(what string, err error) error {
	if r.n >= len(r.bs) {
		return fmt.Errorf("%w: %w: %s at offset %d", ErrSerializationFailed, ErrTruncatedData, what, r.n)
	}
	return fmt.Errorf("%w: %s at offset %d: %w", ErrSerializationFailed, what, r.n, err)
}

func (r *reader) uint() (uint64, error) {
	v, n, err := varint.Uint64.Unmarshal(r.bs[r.n:])
	if err != nil {
		return 0, r.fail("reading integer", err)
	}
	r.n += n
	return v, nil
}

func (r *reader) id() (core.ID, error) {
	v, err := r.uint()
	return core.ID(v), err
}

func (r *reader) int() (int, error) {
	v, err := r.uint()
	if err != nil {
		return 0, err
	}
	if v > uint64(int(^uint(0)>>1)) {
		return 0, fmt.Errorf("%w: integer %d out of range", ErrSerializationFailed, v)
	}
	return int(v), nil
}

// count reads a collection length. Every element takes at least one byte.
func (r *reader) count() (int, error) {
	v, err := r.uint()
	if err != nil {
		return 0, err
	}
	if v > uint64(len(r.bs)-r.n) {
		return 0, fmt.Errorf("%w: %w: length %d exceeds remaining %d bytes", ErrSerializationFailed, ErrTruncatedData, v, len(r.bs)-r.n)
	}
	return int(v), nil
}

func (r *reader) string() (string, error) {
	v, n, err := ord.String.Unmarshal(r.bs[r.n:])
	if err != nil {
		return "", r.fail("reading string", err)
	}
	r.n += n
	return v, nil
}

func (r *reader) float() (float64, error) {
	if len(r.bs)-r.n < float64Size {
		return 0, fmt.Errorf("%w: %w: float at offset %d", ErrSerializationFailed, ErrTruncatedData, r.n)
	}
	v, n, err := raw.Float64.Unmarshal(r.bs[r.n:])
	if err != nil {
		return 0, r.fail("reading float", err)
	}
	r.n += n
	return v, nil
}

func (r *reader) time() (time.Time, error) {
	v, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	if err != nil {
		return time.Time{}, r.fail("reading timestamp", err)
	}
	r.n += n
	return time.UnixMicro(v).UTC(), nil
}

func (r *reader) done() error {
	if r.n != len(r.bs) {
		return fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(r.bs)-r.n)
	}
	return nil
}
