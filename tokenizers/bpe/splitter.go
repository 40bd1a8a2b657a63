package bpe

import (
	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"

	"github.com/minbpe/go-minbpe/tokenizers/api"
)

// The main GPT text split patterns, see
// https://github.com/openai/tiktoken/blob/main/tiktoken_ext/openai_public.py
//
// The GPT-4 pattern is published with possessive quantifiers, which regexp2
// (.NET syntax) does not support; the atomic groups below are the equivalent
// backtracking-free form.
const (
	GPT2SplitPattern = `'(?:[sdmt]|ll|ve|re)| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`
	GPT4SplitPattern = `'(?i:[sdmt]|ll|ve|re)|(?>[^\r\n\p{L}\p{N}]?)\p{L}+|\p{N}{1,3}| ?(?>[^\s\p{L}\p{N}]+)[\r\n]*|\s*[\r\n]|\s+(?!\S)|\s+`
)

// Splitter chunks text with a compiled split pattern so merges never cross
// pattern-defined boundaries. Training and encoding must share the same
// Splitter instance for a given tokenizer.
//
// The zero pattern ("") means no pre-chunking: the whole input is a single
// chunk.
type Splitter struct {
	pattern string
	re      *regexp2.Regexp
}

// NewSplitter compiles pattern. A pattern that does not compile is a
// configuration error.
func NewSplitter(pattern string) (*Splitter, error) {
	if pattern == "" {
		return &Splitter{}, nil
	}
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, errors.Wrapf(api.ErrConfiguration, "split pattern %q does not compile: %v", pattern, err)
	}
	return &Splitter{pattern: pattern, re: re}, nil
}

// Pattern returns the source pattern, empty if none.
func (s *Splitter) Pattern() string { return s.pattern }

// Split returns the pattern matches of text, in match order. Characters the
// pattern skips are dropped, like the reference GPT patterns (which cover any
// input completely) expect.
func (s *Splitter) Split(text string) ([]string, error) {
	if s.re == nil {
		if text == "" {
			return nil, nil
		}
		return []string{text}, nil
	}
	var chunks []string
	m, err := s.re.FindStringMatch(text)
	if err != nil {
		return nil, errors.Wrap(err, "splitting text")
	}
	for m != nil {
		chunks = append(chunks, m.String())
		m, err = s.re.FindNextMatch(m)
		if err != nil {
			return nil, errors.Wrap(err, "splitting text")
		}
	}
	return chunks, nil
}
