package badger

import (
	"bytes"
	"testing"
	"time"

	"github.com/poiesic/medrank/core"
	"github.com/stretchr/testify/assert"
)

func TestHistoryKeyOrdering(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		earlier, later []byte
	}{
		{
			name:    "later timestamp sorts after",
			earlier: makeHistoryKey("alice", base, core.ID(9)),
			later:   makeHistoryKey("alice", base.Add(time.Microsecond), core.ID(1)),
		},
		{
			name:    "same timestamp orders by id",
			earlier: makeHistoryKey("alice", base, core.ID(1)),
			later:   makeHistoryKey("alice", base, core.ID(2)),
		},
		{
			name:    "pre-epoch timestamps sort first",
			earlier: makeHistoryKey("alice", time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC), core.ID(1)),
			later:   makeHistoryKey("alice", base, core.ID(1)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Negative(t, bytes.Compare(tt.earlier, tt.later))
		})
	}
}

func TestHistoryUserPrefix(t *testing.T) {
	key := makeHistoryKey("alice2", time.Now(), core.ID(1))
	assert.False(t, bytes.HasPrefix(key, makeHistoryUserPrefix("alice")))
	assert.True(t, bytes.HasPrefix(key, makeHistoryUserPrefix("alice2")))

	seek := makeHistorySeekKey("alice2")
	assert.Positive(t, bytes.Compare(seek, key))
}

func TestSnapshotAndIndexKeysDistinct(t *testing.T) {
	assert.NotEqual(t, makeSnapshotKey("default"), makeIndexKey("default"))
	assert.Equal(t, []byte("mrsnap:default"), makeSnapshotKey("default"))
}
