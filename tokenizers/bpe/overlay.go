package bpe

import (
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
	"github.com/pkg/errors"

	"github.com/minbpe/go-minbpe/tokenizers/api"
)

// SpecialToken binds a special-token literal to its fixed id.
type SpecialToken struct {
	Text string
	ID   api.Token
}

// SpecialTokens is the two-way special-token registry. Registration order is
// preserved: it decides the alternation order when splitting text around
// specials and the order of the special-token lines in a saved model.
//
// Registering is a mutation of shared state; do it before concurrent
// encode/decode calls begin, or synchronize externally.
type SpecialTokens struct {
	byText *linkedhashmap.Map[string, api.Token]
	byID   *linkedhashmap.Map[api.Token, string]
}

// NewSpecialTokens returns an empty registry.
func NewSpecialTokens() *SpecialTokens {
	return &SpecialTokens{
		byText: linkedhashmap.New[string, api.Token](),
		byID:   linkedhashmap.New[api.Token, string](),
	}
}

// Register adds tokens to the registry, extending both directions.
func (s *SpecialTokens) Register(tokens ...SpecialToken) {
	for _, sp := range tokens {
		s.byText.Put(sp.Text, sp.ID)
		s.byID.Put(sp.ID, sp.Text)
	}
}

// Entries returns the registered tokens in registration order.
func (s *SpecialTokens) Entries() []SpecialToken {
	entries := make([]SpecialToken, 0, s.byText.Size())
	it := s.byText.Iterator()
	for it.Next() {
		entries = append(entries, SpecialToken{Text: it.Key(), ID: it.Value()})
	}
	return entries
}

// ID returns the id of a registered special-token literal.
func (s *SpecialTokens) ID(text string) (api.Token, bool) { return s.byText.Get(text) }

// Text returns the literal of a registered special-token id.
func (s *SpecialTokens) Text(id api.Token) (string, bool) { return s.byID.Get(id) }

// Len returns the number of registered special tokens.
func (s *SpecialTokens) Len() int { return s.byText.Size() }

// EncodeAroundSpecials implements the special-token overlay shared by the
// overlay-capable tokenizers. It resolves the policy's effective set against
// the registered specials, splits text into a gap-free alternating sequence
// of ordinary segments and exact special-token matches, encodes the ordinary
// segments through the given encoder, and substitutes each match with its
// fixed id.
//
// RejectIfPresent fails before any encoding if any registered special-token
// literal (regardless of the effective set) occurs in text.
func EncodeAroundSpecials(text string, policy api.SpecialsPolicy, specials *SpecialTokens,
	ordinary func(string) ([]api.Token, error)) ([]api.Token, error) {

	if policy.Rejects() {
		it := specials.byText.Iterator()
		for it.Next() {
			if strings.Contains(text, it.Key()) {
				return nil, errors.Wrapf(api.ErrPolicyViolation, "%q found in text", it.Key())
			}
		}
		return ordinary(text)
	}

	// Effective set in registration order, so the alternation below is
	// deterministic regardless of how the policy's set was built.
	var effective []SpecialToken
	it := specials.byText.Iterator()
	for it.Next() {
		if policy.Allows(it.Key()) {
			effective = append(effective, SpecialToken{Text: it.Key(), ID: it.Value()})
		}
	}
	if len(effective) == 0 {
		return ordinary(text)
	}

	segments, err := splitAroundSpecials(text, effective)
	if err != nil {
		return nil, err
	}

	byText := make(map[string]api.Token, len(effective))
	for _, sp := range effective {
		byText[sp.Text] = sp.ID
	}

	var ids []api.Token
	for _, segment := range segments {
		if id, ok := byText[segment]; ok {
			ids = append(ids, id)
			continue
		}
		segmentIDs, err := ordinary(segment)
		if err != nil {
			return nil, err
		}
		ids = append(ids, segmentIDs...)
	}
	return ids, nil
}

// splitAroundSpecials splits text on an alternation of the escaped
// special-token literals. The result covers all of text: ordinary segments
// (possibly empty) alternate with exact matches.
func splitAroundSpecials(text string, effective []SpecialToken) ([]string, error) {
	alternatives := make([]string, len(effective))
	for i, sp := range effective {
		alternatives[i] = regexp2.Escape(sp.Text)
	}
	re, err := regexp2.Compile("("+strings.Join(alternatives, "|")+")", regexp2.None)
	if err != nil {
		return nil, errors.Wrap(err, "compiling special-token pattern")
	}

	runes := []rune(text)
	var segments []string
	last := 0
	m, err := re.FindRunesMatch(runes)
	if err != nil {
		return nil, errors.Wrap(err, "matching special tokens")
	}
	for m != nil {
		segments = append(segments, string(runes[last:m.Index]))
		segments = append(segments, string(runes[m.Index:m.Index+m.Length]))
		last = m.Index + m.Length
		m, err = re.FindNextMatch(m)
		if err != nil {
			return nil, errors.Wrap(err, "matching special tokens")
		}
	}
	if last < len(runes) {
		segments = append(segments, string(runes[last:]))
	}
	return segments, nil
}
