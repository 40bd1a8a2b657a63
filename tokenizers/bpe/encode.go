package bpe

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/minbpe/go-minbpe/tokenizers/api"
)

// applyMerges is the reference chunk encoder: while at least two ids remain,
// find the pair present in ids whose merge target id is numerically smallest
// (the earliest-learned merge, independent of local frequency) and replace
// all its non-overlapping occurrences. Stops when no present pair is in
// merges.
//
// Encoder in encoder.go is the incremental equivalent for large merge tables.
func applyMerges(merges *Merges, ids []api.Token) []api.Token {
	for len(ids) >= 2 {
		stats := PairCounts(ids)

		var (
			best   Pair
			bestID api.Token
			found  bool
		)
		it := stats.Iterator()
		for it.Next() {
			if id, ok := merges.Get(it.Key()); ok && (!found || id < bestID) {
				best, bestID, found = it.Key(), id, true
			}
		}
		if !found {
			break
		}
		ids = MergePair(ids, best, bestID)
	}
	return ids
}

// decodeTokens maps ids back to text: vocabulary bytes where present, the
// special-token literal otherwise, ErrUnknownToken if neither. Invalid byte
// sequences render as the Unicode replacement character.
func decodeTokens(vocab *Vocab, specials *SpecialTokens, ids []api.Token) (string, error) {
	var buf []byte
	for _, id := range ids {
		if b, ok := vocab.Get(id); ok {
			buf = append(buf, b...)
			continue
		}
		if specials != nil {
			if text, ok := specials.Text(id); ok {
				buf = append(buf, text...)
				continue
			}
		}
		return "", errors.Wrapf(api.ErrUnknownToken, "id %d", id)
	}
	return strings.ToValidUTF8(string(buf), string(utf8.RuneError)), nil
}
