package detector

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is matched by every *ValidationError.
var ErrInvalidConfig = errors.New("invalid config")

// Reason says which rule a configuration broke.
type Reason int

const (
	// ReasonNotObject: the configuration is not a JSON object.
	ReasonNotObject Reason = iota + 1
	// ReasonToleranceWithoutFuzzylist: a positive tolerance was given but
	// no fuzzylist was supplied.
	ReasonToleranceWithoutFuzzylist
	// ReasonInvalidName: name is missing, empty or not a string.
	ReasonInvalidName
	// ReasonInvalidVersion: version is missing, empty, or neither a number
	// nor a string.
	ReasonInvalidVersion
	// ReasonInvalidTolerance: tolerance is negative or not an integer.
	ReasonInvalidTolerance
	// ReasonInvalidEntry: a list is not an array of strings or holds an
	// empty entry.
	ReasonInvalidEntry
)

func (r Reason) String() string {
	switch r {
	case ReasonNotObject:
		return "not an object"
	case ReasonToleranceWithoutFuzzylist:
		return "fuzzylist tolerance provided without fuzzylist"
	case ReasonInvalidName:
		return "invalid parameter 'name'"
	case ReasonInvalidVersion:
		return "invalid parameter 'version'"
	case ReasonInvalidTolerance:
		return "invalid parameter 'tolerance'"
	case ReasonInvalidEntry:
		return "invalid list entry"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// ValidationError is returned for a configuration that must not be used.
// Index is the position in the chain, or -1 for a legacy configuration.
// List and Entry are set for ReasonInvalidEntry.
type ValidationError struct {
	Reason Reason
	Index  int
	List   string
	Entry  int
}

func (e *ValidationError) Error() string {
	msg := "invalid config"
	if e.Index >= 0 {
		msg = fmt.Sprintf("invalid config at index %d", e.Index)
	}
	msg += ": " + e.Reason.String()
	if e.Reason == ReasonInvalidEntry && e.List != "" {
		msg += fmt.Sprintf(" (%s[%d])", e.List, e.Entry)
	}
	return msg
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Validate checks one named configuration. Rules are applied in a fixed
// order and the first broken one is reported.
func Validate(c Config) error {
	return validate(c, -1, false)
}

// Validate checks a legacy configuration. Legacy configurations carry no
// name, and their version is optional.
func (l LegacyConfig) Validate() error {
	return validate(l.Named(), -1, true)
}

// ValidateInput validates every configuration of in.
func ValidateInput(in Input) error {
	switch v := in.(type) {
	case nil:
		return &ValidationError{Reason: ReasonNotObject, Index: -1}
	case LegacyConfig:
		return v.Validate()
	case *LegacyConfig:
		if v == nil {
			return &ValidationError{Reason: ReasonNotObject, Index: -1}
		}
		return v.Validate()
	}
	for i, c := range in.Configs() {
		if err := validate(c, i, false); err != nil {
			return err
		}
	}
	return nil
}

func validate(c Config, index int, legacy bool) error {
	fail := func(r Reason) error {
		return &ValidationError{Reason: r, Index: index}
	}
	if c.Tolerance != nil && *c.Tolerance < 0 {
		return fail(ReasonInvalidTolerance)
	}
	if c.Tolerance != nil && *c.Tolerance > 0 && c.Fuzzylist == nil {
		return fail(ReasonToleranceWithoutFuzzylist)
	}
	if !legacy {
		if c.Name == "" {
			return fail(ReasonInvalidName)
		}
		if c.Version.IsZero() {
			return fail(ReasonInvalidVersion)
		}
	}
	allowName, blockName := "allowlist", "blocklist"
	if legacy {
		allowName, blockName = "whitelist", "blacklist"
	}
	lists := []struct {
		name    string
		entries []string
	}{
		{"fuzzylist", c.Fuzzylist},
		{allowName, c.Allowlist},
		{blockName, c.Blocklist},
	}
	for _, l := range lists {
		for i, entry := range l.entries {
			if entry == "" || entry == "." {
				return &ValidationError{Reason: ReasonInvalidEntry, Index: index, List: l.name, Entry: i}
			}
		}
	}
	return nil
}
