package bpe

import (
	"testing"

	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minbpe/go-minbpe/tokenizers/api"
)

func TestPairCounts(t *testing.T) {
	counts := PairCounts([]api.Token{1, 2, 3, 1, 2})

	n, ok := counts.Get(Pair{1, 2})
	require.True(t, ok)
	assert.Equal(t, Count(2), n)
	n, ok = counts.Get(Pair{2, 3})
	require.True(t, ok)
	assert.Equal(t, Count(1), n)
	n, ok = counts.Get(Pair{3, 1})
	require.True(t, ok)
	assert.Equal(t, Count(1), n)
	assert.Equal(t, 3, counts.Size())

	// Keys come back in first-seen order.
	assert.Equal(t, []Pair{{1, 2}, {2, 3}, {3, 1}}, counts.Keys())
}

func TestPairCounts_ShortInputs(t *testing.T) {
	assert.Equal(t, 0, PairCounts(nil).Size())
	assert.Equal(t, 0, PairCounts([]api.Token{42}).Size())
}

func TestUpdatePairCounts_Accumulates(t *testing.T) {
	counts := linkedhashmap.New[Pair, Count]()
	UpdatePairCounts([]api.Token{1, 2}, counts)
	UpdatePairCounts([]api.Token{1, 2, 1, 2}, counts)

	n, ok := counts.Get(Pair{1, 2})
	require.True(t, ok)
	assert.Equal(t, Count(3), n)
}

func TestTopPair_FirstInsertedWinsTies(t *testing.T) {
	counts := linkedhashmap.New[Pair, Count]()
	// Twenty pairs, all tied; numeric order deliberately scrambled so that
	// any value-based tie-break would pick a different winner.
	for i := 19; i >= 0; i-- {
		counts.Put(Pair{api.Token(i), api.Token(i + 1)}, 7)
	}

	top, ok := TopPair(counts)
	require.True(t, ok)
	assert.Equal(t, Pair{19, 20}, top)

	// A strictly greater count beats insertion order.
	counts.Put(Pair{3, 4}, 8)
	top, ok = TopPair(counts)
	require.True(t, ok)
	assert.Equal(t, Pair{3, 4}, top)
}

func TestTopPair_Empty(t *testing.T) {
	_, ok := TopPair(linkedhashmap.New[Pair, Count]())
	assert.False(t, ok)
}

func TestMergePair(t *testing.T) {
	merged := MergePair([]api.Token{1, 2, 3, 1, 2}, Pair{1, 2}, 4)
	assert.Equal(t, []api.Token{4, 3, 4}, merged)
}

func TestMergePair_OverlappingRun(t *testing.T) {
	// A match consumes both positions, so "aaa" yields one merge and a tail.
	merged := MergePair(byteTokens("aaa"), Pair{97, 97}, 256)
	assert.Equal(t, []api.Token{256, 97}, merged)

	merged = MergePair(byteTokens("aaaa"), Pair{97, 97}, 256)
	assert.Equal(t, []api.Token{256, 256}, merged)
}

func TestChunkPairCounts_ShardedMatchesSequential(t *testing.T) {
	// Enough chunks to trigger the sharded path; the fold must reproduce the
	// sequential first-seen insertion order.
	chunks := make([][]api.Token, 2*parallelStatsThreshold)
	for i := range chunks {
		chunks[i] = []api.Token{api.Token(i % 11), api.Token(i % 7), api.Token(i % 5)}
	}

	sequential := linkedhashmap.New[Pair, Count]()
	for _, ids := range chunks {
		UpdatePairCounts(ids, sequential)
	}
	sharded := chunkPairCounts(chunks)

	require.Equal(t, sequential.Size(), sharded.Size())
	assert.Equal(t, sequential.Keys(), sharded.Keys())
	it := sequential.Iterator()
	for it.Next() {
		n, ok := sharded.Get(it.Key())
		require.True(t, ok)
		assert.Equal(t, it.Value(), n)
	}
}
