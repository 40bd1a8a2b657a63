// Package bpe implements a trainable byte-level byte-pair-encoding engine:
// pair statistics, greedy merge training with a first-learned-wins tie-break,
// regex pre-chunking, a special-token overlay and the line-oriented model
// format.
//
// Pair statistics, merges and vocabularies all live in insertion-ordered maps:
// insertion order is the training tie-break and the merge priority order, so a
// plain Go map (unspecified iteration order) cannot hold them.
package bpe

import (
	"github.com/emirpasic/gods/v2/maps/linkedhashmap"

	"github.com/minbpe/go-minbpe/tokenizers/api"
)

// Pair is two adjacent tokens, candidate for a merge.
type Pair struct {
	Left  api.Token
	Right api.Token
}

// Count supports up to 2^64 occurrences of any pair.
type Count uint64

// Counts holds adjacent-pair frequencies in first-seen order. It is ephemeral:
// one training iteration or one statistics query, then discarded.
type Counts = linkedhashmap.Map[Pair, Count]

// Merges maps a pair to the token that replaces it. Insertion order is
// priority order: earlier merges win during encoding.
type Merges = linkedhashmap.Map[Pair, api.Token]

// Vocab maps a token id to the bytes it stands for.
type Vocab = linkedhashmap.Map[api.Token, []byte]

// PairCounts returns the counts of all adjacent pairs in ids, keyed in
// first-seen order.
func PairCounts(ids []api.Token) *Counts {
	counts := linkedhashmap.New[Pair, Count]()
	UpdatePairCounts(ids, counts)
	return counts
}

// UpdatePairCounts folds the adjacent pairs of ids into counts, inserting
// unseen pairs in first-encountered order.
func UpdatePairCounts(ids []api.Token, counts *Counts) {
	for i := 0; i+1 < len(ids); i++ {
		pair := Pair{ids[i], ids[i+1]}
		n, _ := counts.Get(pair)
		counts.Put(pair, n+1)
	}
}

// TopPair returns the pair with the strictly greatest count. Ties go to the
// pair inserted earliest, whatever its numeric value. Returns false on an
// empty map.
func TopPair(counts *Counts) (Pair, bool) {
	var (
		best     Pair
		bestSeen bool
		bestN    Count
	)
	it := counts.Iterator()
	for it.Next() {
		if !bestSeen || it.Value() > bestN {
			best, bestN, bestSeen = it.Key(), it.Value(), true
		}
	}
	return best, bestSeen
}

// MergePair rewrites ids left to right, replacing every non-overlapping
// occurrence of pair with newID. A match at position i consumes i and i+1 and
// scanning resumes at i+2.
func MergePair(ids []api.Token, pair Pair, newID api.Token) []api.Token {
	merged := make([]api.Token, 0, len(ids))
	for i := 0; i < len(ids); {
		if i+1 < len(ids) && ids[i] == pair.Left && ids[i+1] == pair.Right {
			merged = append(merged, newID)
			i += 2
		} else {
			merged = append(merged, ids[i])
			i++
		}
	}
	return merged
}

// byteTokens seeds one token per raw byte of chunk.
func byteTokens(chunk string) []api.Token {
	ids := make([]api.Token, len(chunk))
	for i := 0; i < len(chunk); i++ {
		ids[i] = api.Token(chunk[i])
	}
	return ids
}
