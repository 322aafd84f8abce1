package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/medrank/core"
)

// Key prefixes for different data types
const (
	snapshotPrefix = "mrsnap:"
	indexPrefix    = "mridx:"
	historyPrefix  = "mrhist:"
	historyIDSeq   = "mrhistseq"
)

// historyUserSep terminates the username inside a history key so that one
// user's prefix never matches another's.
const historyUserSep = 0x00

// makeSnapshotKey generates a key for index metadata by name.
func makeSnapshotKey(name string) []byte {
	return append([]byte(snapshotPrefix), name...)
}

// makeIndexKey generates a key for serialized index data by name.
func makeIndexKey(name string) []byte {
	return append([]byte(indexPrefix), name...)
}

// makeHistoryUserPrefix generates the prefix shared by all of a user's entries.
// Format: prefix:username\x00
func makeHistoryUserPrefix(username string) []byte {
	buf := make([]byte, 0, len(historyPrefix)+len(username)+1)
	buf = append(buf, historyPrefix...)
	buf = append(buf, username...)
	return append(buf, historyUserSep)
}

// makeHistoryKey generates a composite key for a history entry.
// Format: prefix:username\x00timestamp:id
func makeHistoryKey(username string, timestamp time.Time, id core.ID) []byte {
	buf := makeHistoryUserPrefix(username)
	// BigEndian with the sign bit flipped keeps lexicographic order equal to
	// chronological order, including timestamps before 1970.
	buf = binary.BigEndian.AppendUint64(buf, uint64(timestamp.UnixMicro())^(1<<63))
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

// makeHistorySeekKey generates the largest possible key for a user, the
// starting point for newest-first iteration.
func makeHistorySeekKey(username string) []byte {
	buf := makeHistoryUserPrefix(username)
	for range 16 {
		buf = append(buf, 0xFF)
	}
	return buf
}
