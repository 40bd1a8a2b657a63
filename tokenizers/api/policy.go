package api

// specialsMode discriminates the SpecialsPolicy variants.
type specialsMode int

const (
	specialsAllowNone specialsMode = iota
	specialsAllowAll
	specialsRejectIfPresent
	specialsAllowSet
)

// SpecialsPolicy selects how special-token literals in the input are handled
// during encoding. Use the AllowAll, AllowNone and RejectIfPresent values, or
// AllowSet to allow an explicit subset.
type SpecialsPolicy struct {
	mode    specialsMode
	allowed map[string]struct{}
}

var (
	// AllowAll substitutes every registered special token with its id.
	AllowAll = SpecialsPolicy{mode: specialsAllowAll}

	// AllowNone treats special-token literals as ordinary text.
	AllowNone = SpecialsPolicy{mode: specialsAllowNone}

	// RejectIfPresent fails with ErrPolicyViolation if any registered
	// special-token literal occurs anywhere in the input.
	RejectIfPresent = SpecialsPolicy{mode: specialsRejectIfPresent}
)

// AllowSet allows only the named special tokens; names that are not
// registered on the tokenizer are ignored. AllowSet() allows none.
func AllowSet(names ...string) SpecialsPolicy {
	allowed := make(map[string]struct{}, len(names))
	for _, name := range names {
		allowed[name] = struct{}{}
	}
	return SpecialsPolicy{mode: specialsAllowSet, allowed: allowed}
}

// Rejects reports whether the policy forbids any special token in the input.
func (p SpecialsPolicy) Rejects() bool { return p.mode == specialsRejectIfPresent }

// Allows reports whether the given registered special token is in the
// policy's effective set.
func (p SpecialsPolicy) Allows(name string) bool {
	switch p.mode {
	case specialsAllowAll:
		return true
	case specialsAllowSet:
		_, ok := p.allowed[name]
		return ok
	default:
		return false
	}
}
