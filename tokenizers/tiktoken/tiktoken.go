package tiktoken

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/minbpe/go-minbpe/tokenizers/api"
	"github.com/minbpe/go-minbpe/tokenizers/bpe"
)

// GPT4Specials are the special tokens of the cl100k_base encoding.
var GPT4Specials = []bpe.SpecialToken{
	{Text: "<|endoftext|>", ID: 100257},
	{Text: "<|fim_prefix|>", ID: 100258},
	{Text: "<|fim_middle|>", ID: 100259},
	{Text: "<|fim_suffix|>", ID: 100260},
	{Text: "<|endofprompt|>", ID: 100276},
}

// Tokenizer is a pretrained tokenizer recovered from a rank table. It is not
// trainable and not persistable: the rank table is the model.
//
// Internally ids live in the table's shuffled byte space: raw byte b enters
// as shuffle[b] and decoding maps vocabulary bytes back through unshuffle.
// Special tokens bypass the shuffle entirely.
type Tokenizer struct {
	splitter  *bpe.Splitter
	specials  *bpe.SpecialTokens
	merges    *bpe.Merges
	vocab     *bpe.Vocab
	encoder   *bpe.Encoder
	shuffle   [256]byte
	unshuffle [256]byte
}

var (
	_ api.Tokenizer            = (*Tokenizer)(nil)
	_ api.SpecialTokensEncoder = (*Tokenizer)(nil)
)

// New recovers a tokenizer from table, splitting input on pattern and
// recognizing the given special tokens. Malformed tables are ErrConsistency,
// a pattern that does not compile is ErrConfiguration.
func New(table *RankTable, pattern string, specials []bpe.SpecialToken) (*Tokenizer, error) {
	splitter, err := bpe.NewSplitter(pattern)
	if err != nil {
		return nil, err
	}
	shuffle, unshuffle, err := byteShuffle(table)
	if err != nil {
		return nil, err
	}
	merges, err := recoverMerges(table)
	if err != nil {
		return nil, err
	}

	registry := bpe.NewSpecialTokens()
	registry.Register(specials...)
	return &Tokenizer{
		splitter:  splitter,
		specials:  registry,
		merges:    merges,
		vocab:     bpe.BuildVocab(merges, nil),
		encoder:   bpe.NewEncoder(merges),
		shuffle:   shuffle,
		unshuffle: unshuffle,
	}, nil
}

// NewGPT4 recovers the cl100k_base tokenizer: the GPT-4 split pattern and
// special tokens on top of table.
func NewGPT4(table *RankTable) (*Tokenizer, error) {
	return New(table, bpe.GPT4SplitPattern, GPT4Specials)
}

// SpecialTokens returns the registered special tokens in registration order.
func (t *Tokenizer) SpecialTokens() []bpe.SpecialToken { return t.specials.Entries() }

// RegisterSpecialTokens adds special tokens. Call before concurrent
// encode/decode use, or synchronize externally.
func (t *Tokenizer) RegisterSpecialTokens(tokens ...bpe.SpecialToken) {
	t.specials.Register(tokens...)
}

// Encode returns the token ids for text, refusing special-token literals.
func (t *Tokenizer) Encode(text string) ([]api.Token, error) {
	return t.EncodeWithPolicy(text, api.RejectIfPresent)
}

// EncodeWithPolicy encodes text, handling registered special tokens
// according to policy.
func (t *Tokenizer) EncodeWithPolicy(text string, policy api.SpecialsPolicy) ([]api.Token, error) {
	return bpe.EncodeAroundSpecials(text, policy, t.specials, t.encodeOrdinary)
}

func (t *Tokenizer) encodeOrdinary(text string) ([]api.Token, error) {
	chunks, err := t.splitter.Split(text)
	if err != nil {
		return nil, err
	}
	var ids []api.Token
	for _, chunk := range chunks {
		shuffled := make([]api.Token, len(chunk))
		for i := 0; i < len(chunk); i++ {
			shuffled[i] = api.Token(t.shuffle[chunk[i]])
		}
		ids = append(ids, t.encoder.Encode(shuffled)...)
	}
	return ids, nil
}

// Decode returns the text for ids. Vocabulary bytes pass back through the
// inverse shuffle, special tokens decode to their literals as-is.
func (t *Tokenizer) Decode(ids []api.Token) (string, error) {
	var buf []byte
	for _, id := range ids {
		if b, ok := t.vocab.Get(id); ok {
			for _, sb := range b {
				buf = append(buf, t.unshuffle[sb])
			}
			continue
		}
		if text, ok := t.specials.Text(id); ok {
			buf = append(buf, text...)
			continue
		}
		return "", errors.Wrapf(api.ErrUnknownToken, "id %d", id)
	}
	return strings.ToValidUTF8(string(buf), string(utf8.RuneError)), nil
}
