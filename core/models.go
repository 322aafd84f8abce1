package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	return IDFromBytes([]byte(text))
}

// IDFromBytes is IDFromContent for raw bytes.
func IDFromBytes(data []byte) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// CatalogRecord is a single catalog item (a medication) with the set of tags
// (symptoms) it is associated with. Tags are treated as a set: a tag listed
// twice counts once.
type CatalogRecord struct {
	ItemID string
	Tags   []string
}

// Match is a single ranked result.
type Match struct {
	ItemID string
	Score  float64
}

// Snapshot describes a persisted index.
type Snapshot struct {
	Name           string
	Fingerprint    ID        // Catalog fingerprint the index was built from
	Items          int       // Number of catalog items
	VocabularySize int       // Number of distinct tags
	BuiltAt        time.Time // When the index was built
}

// HistoryEntry records one recommendation request and its top results.
type HistoryEntry struct {
	Id        ID
	Username  string
	Tags      []string
	Matches   []Match
	Metadata  map[string]string // Optional request details (e.g., "severity", "duration")
	Timestamp time.Time
}
