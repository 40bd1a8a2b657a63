package tiktoken

import (
	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
	"github.com/pkg/errors"

	"github.com/minbpe/go-minbpe/tokenizers/api"
	"github.com/minbpe/go-minbpe/tokenizers/bpe"
)

// byteShuffle derives the byte permutation a rank table implies: published
// tables do not rank single-byte tokens at their byte values, so raw byte b
// enters the merge space as id shuffle[b]. The table must rank all 256
// single-byte tokens inside [0, 256), forming a permutation.
func byteShuffle(table *RankTable) (shuffle, unshuffle [256]byte, err error) {
	var seen [256]bool
	for i := 0; i < 256; i++ {
		rank, ok := table.Rank([]byte{byte(i)})
		if !ok {
			return shuffle, unshuffle, errors.Wrapf(api.ErrConsistency, "no rank for single byte 0x%02x", i)
		}
		if rank < 0 || rank > 255 {
			return shuffle, unshuffle, errors.Wrapf(api.ErrConsistency, "single byte 0x%02x has rank %d, outside the byte range", i, rank)
		}
		if seen[rank] {
			return shuffle, unshuffle, errors.Wrapf(api.ErrConsistency, "rank %d covers two single bytes", rank)
		}
		seen[rank] = true
		shuffle[i] = byte(rank)
		unshuffle[rank] = byte(i)
	}
	return shuffle, unshuffle, nil
}

// recoverMerges rebuilds the merge table a rank table was trained with. Each
// multi-byte token is re-split against the strictly lower-ranked entries; a
// well-formed table always leaves exactly two parts, whose ranks form the
// recovered pair.
func recoverMerges(table *RankTable) (*bpe.Merges, error) {
	merges := linkedhashmap.New[bpe.Pair, api.Token]()
	for _, entry := range table.Entries() {
		if len(entry.Bytes) == 1 {
			continue
		}
		if entry.Rank < 256 {
			return nil, errors.Wrapf(api.ErrConsistency, "multi-byte token %q ranked %d, inside the byte range", entry.Bytes, entry.Rank)
		}
		left, right, err := splitToken(table, entry.Bytes, entry.Rank)
		if err != nil {
			return nil, err
		}
		merges.Put(bpe.Pair{Left: left, Right: right}, entry.Rank)
	}
	return merges, nil
}

// splitToken replays the merge process on token's bytes using only ranks
// strictly below maxRank, and returns the ranks of the two parts that remain.
func splitToken(table *RankTable, token []byte, maxRank api.Token) (left, right api.Token, err error) {
	parts := make([][]byte, len(token))
	for i := range token {
		parts[i] = token[i : i+1]
	}

	for len(parts) > 2 {
		best := -1
		var bestRank api.Token
		for i := 0; i+1 < len(parts); i++ {
			joined := append(append([]byte(nil), parts[i]...), parts[i+1]...)
			rank, ok := table.Rank(joined)
			if !ok || rank >= maxRank {
				continue
			}
			if best == -1 || rank < bestRank {
				best, bestRank = i, rank
			}
		}
		if best == -1 {
			return 0, 0, errors.Wrapf(api.ErrConsistency,
				"token %q (rank %d) does not reduce to two parts", token, maxRank)
		}
		parts[best] = append(append([]byte(nil), parts[best]...), parts[best+1]...)
		parts = append(parts[:best+1], parts[best+2:]...)
	}

	left, ok := table.Rank(parts[0])
	if !ok {
		return 0, 0, errors.Wrapf(api.ErrConsistency, "token %q: left part %q has no rank", token, parts[0])
	}
	right, ok = table.Rank(parts[1])
	if !ok {
		return 0, 0, errors.Wrapf(api.ErrConsistency, "token %q: right part %q has no rank", token, parts[1])
	}
	return left, right, nil
}
