package bpe

import (
	"github.com/emirpasic/gods/v2/maps/linkedhashmap"

	"github.com/minbpe/go-minbpe/tokenizers/api"
)

// RegexTokenizer is the byte-level BPE tokenizer with regex pre-chunking and
// a special-token overlay. Merges never cross a chunk boundary, so the same
// compiled pattern must serve training and encoding.
type RegexTokenizer struct {
	splitter *Splitter
	specials *SpecialTokens
	merges   *Merges
	vocab    *Vocab
}

var (
	_ api.Trainable            = (*RegexTokenizer)(nil)
	_ api.Persistable          = (*RegexTokenizer)(nil)
	_ api.SpecialTokensEncoder = (*RegexTokenizer)(nil)
)

// NewRegexTokenizer returns an untrained tokenizer splitting on pattern
// (GPT4SplitPattern is the usual choice). A pattern that does not compile is
// ErrConfiguration.
func NewRegexTokenizer(pattern string) (*RegexTokenizer, error) {
	splitter, err := NewSplitter(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexTokenizer{
		splitter: splitter,
		specials: NewSpecialTokens(),
		merges:   linkedhashmap.New[Pair, api.Token](),
		vocab:    baseVocab(),
	}, nil
}

// Pattern returns the split pattern.
func (t *RegexTokenizer) Pattern() string { return t.splitter.Pattern() }

// SpecialTokens returns the registered special tokens in registration order.
func (t *RegexTokenizer) SpecialTokens() []SpecialToken { return t.specials.Entries() }

// RegisterSpecialTokens adds special tokens. Call before concurrent
// encode/decode use, or synchronize externally.
func (t *RegexTokenizer) RegisterSpecialTokens(tokens ...SpecialToken) {
	t.specials.Register(tokens...)
}

// Train learns vocabSize-256 merges from text, chunked by the split pattern.
func (t *RegexTokenizer) Train(text string, vocabSize api.Token, verbose bool) error {
	chunkText, err := t.splitter.Split(text)
	if err != nil {
		return err
	}
	chunks := make([][]api.Token, len(chunkText))
	for i, chunk := range chunkText {
		chunks[i] = byteTokens(chunk)
	}
	merges, vocab, err := trainMerges(chunks, vocabSize, verbose)
	if err != nil {
		return err
	}
	t.merges, t.vocab = merges, vocab
	return nil
}

// Encode returns the token ids for text. Like the reference implementation
// it defaults to the RejectIfPresent policy; use EncodeWithPolicy to opt into
// special-token substitution.
func (t *RegexTokenizer) Encode(text string) ([]api.Token, error) {
	return t.EncodeWithPolicy(text, api.RejectIfPresent)
}

// EncodeWithPolicy encodes text, handling registered special tokens
// according to policy.
func (t *RegexTokenizer) EncodeWithPolicy(text string, policy api.SpecialsPolicy) ([]api.Token, error) {
	return EncodeAroundSpecials(text, policy, t.specials, t.encodeOrdinary)
}

// encodeOrdinary encodes text that contains no special tokens to be
// substituted: chunk, encode each chunk, concatenate in match order.
func (t *RegexTokenizer) encodeOrdinary(text string) ([]api.Token, error) {
	chunks, err := t.splitter.Split(text)
	if err != nil {
		return nil, err
	}
	var ids []api.Token
	for _, chunk := range chunks {
		ids = append(ids, applyMerges(t.merges, byteTokens(chunk))...)
	}
	return ids, nil
}

// Decode returns the text for ids.
func (t *RegexTokenizer) Decode(ids []api.Token) (string, error) {
	return decodeTokens(t.vocab, t.specials, ids)
}

// Save writes <prefix>.model and <prefix>.vocab under dir.
func (t *RegexTokenizer) Save(dir, prefix string) error {
	return saveModel(dir, prefix, t.splitter.Pattern(), t.specials.Entries(), t.merges, t.vocab)
}

// Load replaces the tokenizer's state with the model at modelPath, including
// its split pattern and special tokens. Nothing is installed on error.
func (t *RegexTokenizer) Load(modelPath string) error {
	model, err := loadModel(modelPath)
	if err != nil {
		return err
	}
	splitter, err := NewSplitter(model.pattern)
	if err != nil {
		return err
	}

	specials := NewSpecialTokens()
	specials.Register(model.specials...)
	t.splitter = splitter
	t.specials = specials
	t.merges = model.merges
	t.vocab = BuildVocab(model.merges, model.specials)
	return nil
}
