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
	"fmt"
	"io"
	"math"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/medrank/core"
)

const (
	magic         = "MRIX"
	formatVersion = 1
	float64Size   = 8
)

// Marshal serializes an Index to bytes.
//
// Layout:
//
//	magic | version
//	vocab_len | vocab_len × (tag, index, weight)
//	ids_len   | ids_len × item_id
//	vecs_len  | vecs_len × (nnz, nnz × (index, weight))
func Marshal(idx *Index) []byte {
	buf := make([]byte, size(idx))
	n := copy(buf, magic)
	n += varint.Uint64.Marshal(formatVersion, buf[n:])

	n += varint.Uint64.Marshal(uint64(idx.vocab.Len()), buf[n:])
	for i, tag := range idx.vocab.tags {
		n += ord.String.Marshal(tag, buf[n:])
		n += varint.Uint64.Marshal(uint64(i), buf[n:])
		n += raw.Float64.Marshal(idx.vocab.weights[i], buf[n:])
	}

	n += varint.Uint64.Marshal(uint64(len(idx.itemIDs)), buf[n:])
	for _, id := range idx.itemIDs {
		n += ord.String.Marshal(id, buf[n:])
	}

	n += varint.Uint64.Marshal(uint64(len(idx.vectors)), buf[n:])
	for _, v := range idx.vectors {
		n += varint.Uint64.Marshal(uint64(v.Len()), buf[n:])
		for j, t := range v.indices {
			n += varint.Uint64.Marshal(uint64(t), buf[n:])
			n += raw.Float64.Marshal(v.weights[j], buf[n:])
		}
	}
	return buf[:n]
}

func size(idx *Index) int {
	s := len(magic) + varint.Uint64.Size(formatVersion)

	s += varint.Uint64.Size(uint64(idx.vocab.Len()))
	for i, tag := range idx.vocab.tags {
		s += ord.String.Size(tag) + varint.Uint64.Size(uint64(i)) + float64Size
	}

	s += varint.Uint64.Size(uint64(len(idx.itemIDs)))
	for _, id := range idx.itemIDs {
		s += ord.String.Size(id)
	}

	s += varint.Uint64.Size(uint64(len(idx.vectors)))
	for _, v := range idx.vectors {
		s += varint.Uint64.Size(uint64(v.Len()))
		for _, t := range v.indices {
			s += varint.Uint64.Size(uint64(t)) + float64Size
		}
	}
	return s
}

// Unmarshal deserializes an Index produced by Marshal.
// Any structural problem is reported as an error wrapping core.ErrCorruptIndex.
func Unmarshal(data []byte) (*Index, error) {
	d := &decoder{bs: data}
	if len(data) < len(magic) || string(data[:len(magic)]) != magic {
		return nil, corrupt("bad magic")
	}
	d.n = len(magic)

	version, err := d.readUint()
	if err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, corrupt("unsupported version %d", version)
	}

	vocab, err := d.vocabulary()
	if err != nil {
		return nil, err
	}

	itemIDs, err := d.itemIDs()
	if err != nil {
		return nil, err
	}

	vectors, err := d.vectors(vocab.Len())
	if err != nil {
		return nil, err
	}

	if len(itemIDs) != len(vectors) {
		return nil, corrupt("%d item ids but %d item vectors", len(itemIDs), len(vectors))
	}
	if d.n != len(d.bs) {
		return nil, corrupt("%d trailing bytes", len(d.bs)-d.n)
	}

	return &Index{
		vocab:   vocab,
		vectors: vectors,
		itemIDs: itemIDs,
	}, nil
}

// Save writes the serialized Index to w.
func Save(w io.Writer, idx *Index) error {
	_, err := w.Write(Marshal(idx))
	return err
}

// Load reads a serialized Index from r.
// Read failures are returned as is; malformed content wraps core.ErrCorruptIndex.
func Load(r io.Reader) (*Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrCorruptIndex, fmt.Sprintf(format, args...))
}

// decoder reads mus-encoded primitives and converts every failure into a
// corrupt index error.
type decoder struct {
	bs []byte
	n  int
}

func (d *decoder) remaining() int {
	return len(d.bs) - d.n
}

func (d *decoder) readUint() (uint64, error) {
	v, n, err := varint.Uint64.Unmarshal(d.bs[d.n:])
	if err != nil {
		return 0, corrupt("reading integer at offset %d: %v", d.n, err)
	}
	d.n += n
	return v, nil
}

// count reads a collection length. Every element occupies at least one
// byte, so a count larger than the remaining input is rejected up front.
func (d *decoder) count(what string) (int, error) {
	v, err := d.readUint()
	if err != nil {
		return 0, err
	}
	if v > uint64(d.remaining()) {
		return 0, corrupt("%s length %d exceeds remaining %d bytes", what, v, d.remaining())
	}
	return int(v), nil
}

func (d *decoder) readFloat() (float64, error) {
	if d.remaining() < float64Size {
		return 0, corrupt("truncated float at offset %d", d.n)
	}
	v, n, err := raw.Float64.Unmarshal(d.bs[d.n:])
	if err != nil {
		return 0, corrupt("reading float at offset %d: %v", d.n, err)
	}
	d.n += n
	return v, nil
}

func (d *decoder) readString() (string, error) {
	v, n, err := ord.String.Unmarshal(d.bs[d.n:])
	if err != nil {
		return "", corrupt("reading string at offset %d: %v", d.n, err)
	}
	d.n += n
	return v, nil
}

func (d *decoder) vocabulary() (*Vocabulary, error) {
	count, err := d.count("vocabulary")
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, count)
	weights := make([]float64, 0, count)
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		tag, err := d.readString()
		if err != nil {
			return nil, err
		}
		position, err := d.readUint()
		if err != nil {
			return nil, err
		}
		weight, err := d.readFloat()
		if err != nil {
			return nil, err
		}
		if tag == "" {
			return nil, corrupt("empty tag at vocabulary index %d", i)
		}
		if position != uint64(i) {
			return nil, corrupt("tag %q has index %d at position %d", tag, position, i)
		}
		if _, dup := seen[tag]; dup {
			return nil, corrupt("duplicate tag %q", tag)
		}
		if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
			return nil, corrupt("tag %q has invalid weight %v", tag, weight)
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		weights = append(weights, weight)
	}
	return newVocabulary(tags, weights), nil
}

func (d *decoder) itemIDs() ([]string, error) {
	count, err := d.count("item ids")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id, err := d.readString()
		if err != nil {
			return nil, err
		}
		if id == "" {
			return nil, corrupt("empty item id at position %d", i)
		}
		if _, dup := seen[id]; dup {
			return nil, corrupt("duplicate item id %q", id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func (d *decoder) vectors(vocabSize int) ([]Vector, error) {
	count, err := d.count("item vectors")
	if err != nil {
		return nil, err
	}
	vectors := make([]Vector, 0, count)
	for i := 0; i < count; i++ {
		nnz, err := d.count("vector")
		if err != nil {
			return nil, err
		}
		if nnz > vocabSize {
			return nil, corrupt("vector %d has %d components for %d tags", i, nnz, vocabSize)
		}
		var v Vector
		if nnz > 0 {
			v.indices = make([]int, nnz)
			v.weights = make([]float64, nnz)
		}
		for j := 0; j < nnz; j++ {
			t, err := d.readUint()
			if err != nil {
				return nil, err
			}
			w, err := d.readFloat()
			if err != nil {
				return nil, err
			}
			if t >= uint64(vocabSize) {
				return nil, corrupt("vector %d references tag %d of %d", i, t, vocabSize)
			}
			if j > 0 && int(t) <= v.indices[j-1] {
				return nil, corrupt("vector %d indices not strictly ascending", i)
			}
			if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
				return nil, corrupt("vector %d has invalid weight %v", i, w)
			}
			v.indices[j] = int(t)
			v.weights[j] = w
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}
