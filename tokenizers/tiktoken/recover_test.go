package tiktoken

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minbpe/go-minbpe/tokenizers/api"
	"github.com/minbpe/go-minbpe/tokenizers/bpe"
)

func TestByteShuffle_Identity(t *testing.T) {
	shuffle, unshuffle, err := byteShuffle(identityTable())
	require.NoError(t, err)
	for i := 0; i < 256; i++ {
		assert.Equal(t, byte(i), shuffle[i])
		assert.Equal(t, byte(i), unshuffle[i])
	}
}

func TestByteShuffle_Permutation(t *testing.T) {
	entries := make([]RankEntry, 0, 256)
	for i := 0; i < 256; i++ {
		entries = append(entries, RankEntry{Bytes: []byte{byte(i)}, Rank: api.Token(255 - i)})
	}

	shuffle, unshuffle, err := byteShuffle(NewRankTable(entries))
	require.NoError(t, err)
	for i := 0; i < 256; i++ {
		assert.Equal(t, byte(255-i), shuffle[i])
		assert.Equal(t, byte(i), unshuffle[shuffle[i]])
	}
}

func TestByteShuffle_Inconsistent(t *testing.T) {
	t.Run("missing byte", func(t *testing.T) {
		entries := make([]RankEntry, 0, 255)
		for i := 0; i < 255; i++ {
			entries = append(entries, RankEntry{Bytes: []byte{byte(i)}, Rank: api.Token(i)})
		}
		_, _, err := byteShuffle(NewRankTable(entries))
		require.Error(t, err)
		assert.True(t, errors.Is(err, api.ErrConsistency))
	})

	t.Run("rank outside byte range", func(t *testing.T) {
		table := identityTable()
		table.byToken.Put(string([]byte{7}), 700)
		_, _, err := byteShuffle(table)
		require.Error(t, err)
		assert.True(t, errors.Is(err, api.ErrConsistency))
	})

	t.Run("duplicate rank", func(t *testing.T) {
		table := identityTable()
		table.byToken.Put(string([]byte{1}), 0)
		_, _, err := byteShuffle(table)
		require.Error(t, err)
		assert.True(t, errors.Is(err, api.ErrConsistency))
	})
}

func TestRecoverMerges(t *testing.T) {
	table := identityTable(
		RankEntry{Bytes: []byte("aa"), Rank: 256},
		RankEntry{Bytes: []byte("aaa"), Rank: 257},
		RankEntry{Bytes: []byte("aaab"), Rank: 258},
	)

	merges, err := recoverMerges(table)
	require.NoError(t, err)
	require.Equal(t, 3, merges.Size())

	id, ok := merges.Get(bpe.Pair{Left: 97, Right: 97})
	require.True(t, ok)
	assert.Equal(t, api.Token(256), id)
	id, ok = merges.Get(bpe.Pair{Left: 256, Right: 97})
	require.True(t, ok)
	assert.Equal(t, api.Token(257), id)
	id, ok = merges.Get(bpe.Pair{Left: 257, Right: 98})
	require.True(t, ok)
	assert.Equal(t, api.Token(258), id)
}

func TestRecoverMerges_Inconsistent(t *testing.T) {
	t.Run("no two-part split", func(t *testing.T) {
		// "abc" ranked without "ab" or "bc": three parts remain.
		table := identityTable(RankEntry{Bytes: []byte("abc"), Rank: 256})
		_, err := recoverMerges(table)
		require.Error(t, err)
		assert.True(t, errors.Is(err, api.ErrConsistency))
	})

	t.Run("multi-byte rank in byte range", func(t *testing.T) {
		table := identityTable(RankEntry{Bytes: []byte("ab"), Rank: 100})
		_, err := recoverMerges(table)
		require.Error(t, err)
		assert.True(t, errors.Is(err, api.ErrConsistency))
	})

	t.Run("parts not lower ranked", func(t *testing.T) {
		// "abc" where the only split partner "ab" ranks above it.
		table := identityTable(
			RankEntry{Bytes: []byte("abc"), Rank: 256},
			RankEntry{Bytes: []byte("ab"), Rank: 257},
		)
		_, err := recoverMerges(table)
		require.Error(t, err)
		assert.True(t, errors.Is(err, api.ErrConsistency))
	})
}

func TestSplitToken_PicksLowestRankFirst(t *testing.T) {
	// "abc" with both "ab" and "bc" present: the lower-ranked join is taken,
	// which decides the recovered pair.
	table := identityTable(
		RankEntry{Bytes: []byte("bc"), Rank: 256},
		RankEntry{Bytes: []byte("ab"), Rank: 257},
		RankEntry{Bytes: []byte("abc"), Rank: 258},
	)

	left, right, err := splitToken(table, []byte("abc"), 258)
	require.NoError(t, err)
	assert.Equal(t, api.Token(97), left)
	assert.Equal(t, api.Token(256), right)
}
