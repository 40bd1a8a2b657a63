// Package api defines the tokenizer capability interfaces and the shared
// vocabulary of types (Token, special-token policies, error categories).
// It is kept dependency-free so implementation packages can import it without
// cycles, and so callers can depend on the interfaces alone.
package api

// Token is an integer id for a byte sequence or a special symbol.
// It is signed so a tokenizer may use negative values for special tokens;
// ids 0-255 are reserved for the raw byte values, and training/recovery
// assigns ids from 256 up.
type Token int32

// Tokenizer converts text to a sequence of token ids and back.
//
// Encode and Decode on a fully constructed (trained, loaded, or recovered)
// tokenizer are read-only and safe for concurrent use.
type Tokenizer interface {
	// Encode returns the token ids for text.
	Encode(text string) ([]Token, error)

	// Decode returns the text for a sequence of token ids. Invalid byte
	// sequences render as the Unicode replacement character; an id unknown
	// to both the vocabulary and the special tokens is ErrUnknownToken.
	Decode(ids []Token) (string, error)
}

// Trainable is a Tokenizer whose merge table can be learned from text.
type Trainable interface {
	Tokenizer

	// Train learns vocabSize-256 merges from text. vocabSize must be at
	// least 256 (ErrConfiguration). If the text runs out of mergeable pairs
	// before reaching vocabSize, Train fails with ErrTrainingExhausted and
	// leaves the tokenizer's prior state untouched.
	Train(text string, vocabSize Token, verbose bool) error
}

// Persistable is a Tokenizer that can be written to and restored from the
// line-oriented model format.
type Persistable interface {
	Tokenizer

	// Save writes <prefix>.model (the load input) and <prefix>.vocab
	// (a human-readable listing, never a load input) under dir.
	Save(dir, prefix string) error

	// Load replaces the tokenizer's state with the model stored at
	// modelPath. On any format error nothing is installed.
	Load(modelPath string) error
}

// SpecialTokensEncoder is a Tokenizer that recognizes special-token literals
// in its input, subject to a caller-chosen policy.
type SpecialTokensEncoder interface {
	Tokenizer

	// EncodeWithPolicy encodes text, substituting registered special-token
	// substrings with their fixed ids according to policy.
	EncodeWithPolicy(text string, policy SpecialsPolicy) ([]Token, error)
}
