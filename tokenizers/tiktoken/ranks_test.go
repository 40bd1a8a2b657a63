package tiktoken

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minbpe/go-minbpe/tokenizers/api"
)

func TestParseRankTable(t *testing.T) {
	input := strings.Join([]string{
		base64.StdEncoding.EncodeToString([]byte("a")) + " 0",
		"",
		base64.StdEncoding.EncodeToString([]byte("ab")) + " 256",
	}, "\n")

	table, err := ParseRankTable(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	rank, ok := table.Rank([]byte("a"))
	require.True(t, ok)
	assert.Equal(t, api.Token(0), rank)
	rank, ok = table.Rank([]byte("ab"))
	require.True(t, ok)
	assert.Equal(t, api.Token(256), rank)
	_, ok = table.Rank([]byte("b"))
	assert.False(t, ok)
}

func TestParseRankTable_Malformed(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
	}{
		{"missing rank", "YQ==\n"},
		{"extra field", "YQ== 1 2\n"},
		{"bad base64", "not-base64! 1\n"},
		{"bad rank", "YQ== soon\n"},
		{"negative rank", "YQ== -1\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRankTable(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, api.ErrFormat))
		})
	}
}

func TestLoadRankTableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranks.tiktoken")
	line := base64.StdEncoding.EncodeToString([]byte("hi")) + " 300\n"
	require.NoError(t, os.WriteFile(path, []byte(line), 0o644))

	table, err := LoadRankTableFile(path)
	require.NoError(t, err)
	rank, ok := table.Rank([]byte("hi"))
	require.True(t, ok)
	assert.Equal(t, api.Token(300), rank)

	_, err = LoadRankTableFile(filepath.Join(t.TempDir(), "missing.tiktoken"))
	assert.Error(t, err)
}

func TestRankTable_EntriesSortedByRank(t *testing.T) {
	table := NewRankTable([]RankEntry{
		{Bytes: []byte("c"), Rank: 2},
		{Bytes: []byte("a"), Rank: 0},
		{Bytes: []byte("b"), Rank: 1},
	})

	entries := table.Entries()
	require.Len(t, entries, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, []byte(want), entries[i].Bytes)
		assert.Equal(t, api.Token(i), entries[i].Rank)
	}
}

// identityTable ranks every single byte at its own value and appends the
// given multi-byte entries.
func identityTable(extra ...RankEntry) *RankTable {
	entries := make([]RankEntry, 0, 256+len(extra))
	for i := 0; i < 256; i++ {
		entries = append(entries, RankEntry{Bytes: []byte{byte(i)}, Rank: api.Token(i)})
	}
	return NewRankTable(append(entries, extra...))
}
