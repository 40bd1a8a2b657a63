package bpe

import (
	"strings"

	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
	"github.com/pkg/errors"

	"github.com/minbpe/go-minbpe/tokenizers/api"
)

// BasicTokenizer is the minimal byte-level BPE tokenizer: no split pattern,
// no special-token handling. Merges apply across the whole input.
type BasicTokenizer struct {
	specials *SpecialTokens
	merges   *Merges
	vocab    *Vocab
}

var (
	_ api.Trainable   = (*BasicTokenizer)(nil)
	_ api.Persistable = (*BasicTokenizer)(nil)
)

// NewBasicTokenizer returns an untrained BasicTokenizer.
func NewBasicTokenizer() *BasicTokenizer {
	return &BasicTokenizer{
		specials: NewSpecialTokens(),
		merges:   linkedhashmap.New[Pair, api.Token](),
		vocab:    baseVocab(),
	}
}

// Train learns vocabSize-256 merges from text, treating it as one chunk.
func (t *BasicTokenizer) Train(text string, vocabSize api.Token, verbose bool) error {
	merges, vocab, err := trainMerges([][]api.Token{byteTokens(text)}, vocabSize, verbose)
	if err != nil {
		return err
	}
	t.merges, t.vocab = merges, vocab
	return nil
}

// Encode returns the token ids for text.
func (t *BasicTokenizer) Encode(text string) ([]api.Token, error) {
	return applyMerges(t.merges, byteTokens(text)), nil
}

// Decode returns the text for ids.
func (t *BasicTokenizer) Decode(ids []api.Token) (string, error) {
	return decodeTokens(t.vocab, t.specials, ids)
}

// Save writes <prefix>.model and <prefix>.vocab under dir.
func (t *BasicTokenizer) Save(dir, prefix string) error {
	return saveModel(dir, prefix, "", t.specials.Entries(), t.merges, t.vocab)
}

// Load replaces the tokenizer's state with the model at modelPath. A model
// that carries a split pattern cannot be loaded into a BasicTokenizer.
func (t *BasicTokenizer) Load(modelPath string) error {
	model, err := loadModel(modelPath)
	if err != nil {
		return err
	}
	if strings.TrimSpace(model.pattern) != "" {
		return errors.Wrapf(api.ErrFormat, "model %q carries a split pattern; load it into a RegexTokenizer", modelPath)
	}

	specials := NewSpecialTokens()
	specials.Register(model.specials...)
	t.specials = specials
	t.merges = model.merges
	t.vocab = BuildVocab(model.merges, model.specials)
	return nil
}
