package bpe

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/emirpasic/gods/v2/maps/linkedhashmap"

	"github.com/minbpe/go-minbpe/tokenizers/api"
)

// baseVocab returns the 256 single-byte entries every vocabulary starts from.
func baseVocab() *Vocab {
	vocab := linkedhashmap.New[api.Token, []byte]()
	for i := 0; i < 256; i++ {
		vocab.Put(api.Token(i), []byte{byte(i)})
	}
	return vocab
}

// BuildVocab derives a vocabulary from merges and special tokens. The
// vocabulary is never a source of truth of its own: every merge-produced
// entry is the concatenation of its two parents' bytes, in merge order, and
// special tokens map to their literal UTF-8 bytes.
func BuildVocab(merges *Merges, specials []SpecialToken) *Vocab {
	vocab := baseVocab()
	it := merges.Iterator()
	for it.Next() {
		pair, id := it.Key(), it.Value()
		left, _ := vocab.Get(pair.Left)
		right, _ := vocab.Get(pair.Right)
		token := make([]byte, 0, len(left)+len(right))
		token = append(append(token, left...), right...)
		vocab.Put(id, token)
	}
	for _, sp := range specials {
		vocab.Put(sp.ID, []byte(sp.Text))
	}
	return vocab
}

// renderToken pretty-prints a token's bytes for logs and the .vocab listing:
// lossy UTF-8 plus \uXXXX escapes for control characters, which would
// otherwise distort the line-oriented output.
func renderToken(token []byte) string {
	var b strings.Builder
	for _, r := range strings.ToValidUTF8(string(token), "�") {
		if unicode.IsControl(r) {
			fmt.Fprintf(&b, "\\u%04x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
