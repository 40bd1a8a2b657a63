package api

import "errors"

// Error categories. Implementation packages wrap these with context
// (github.com/pkg/errors); callers test them with errors.Is.
var (
	// ErrConfiguration rejects bad construction or training parameters
	// (vocab size below 256, malformed split pattern) before any work starts.
	ErrConfiguration = errors.New("invalid tokenizer configuration")

	// ErrFormat is a malformed model file: missing or mismatched version
	// marker, malformed header, special-token or merge lines, non-integer
	// fields. Fatal at load; no partial state is installed.
	ErrFormat = errors.New("malformed model file")

	// ErrUnknownToken is a decode id absent from both the vocabulary and
	// the special tokens.
	ErrUnknownToken = errors.New("unknown token id")

	// ErrPolicyViolation is a registered special-token substring found in
	// the input under the RejectIfPresent policy, raised before any encoding.
	ErrPolicyViolation = errors.New("special token present in text")

	// ErrConsistency is a rank table that cannot be recovered from: an
	// entry that does not decompose into exactly two lower-ranked parts, or
	// a single-byte rank outside the byte range.
	ErrConsistency = errors.New("inconsistent rank table")

	// ErrTrainingExhausted means fewer mergeable pairs remained than
	// required to reach the requested vocabulary size.
	ErrTrainingExhausted = errors.New("not enough mergeable pairs")
)
