package detector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// DefaultTolerance is used when a configuration does not set one.
const DefaultTolerance = 3

// Version is a configuration version. It holds either a JSON number or a
// JSON string and encodes back to the same kind.
type Version struct {
	value  string
	number bool
}

// NumberVersion returns a numeric version.
func NumberVersion(n int64) Version {
	return Version{value: strconv.FormatInt(n, 10), number: true}
}

// StringVersion returns a string version.
func StringVersion(s string) Version {
	return Version{value: s}
}

// IsZero reports whether no version was set.
func (v Version) IsZero() bool {
	return v.value == "" && !v.number
}

// IsNumber reports whether the version is numeric.
func (v Version) IsNumber() bool {
	return v.number
}

func (v Version) String() string {
	return v.value
}

func (v Version) MarshalJSON() ([]byte, error) {
	if v.number {
		return []byte(v.value), nil
	}
	return json.Marshal(v.value)
}

func (v *Version) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty version")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringVersion(s)
	case 'n':
		*v = Version{}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("version must be a number or a string: %w", err)
		}
		*v = Version{value: n.String(), number: true}
	}
	return nil
}

// Config is one named configuration of a chain.
//
// A nil Fuzzylist means the list was not supplied at all, which matters for
// validation: a tolerance without a fuzzylist is rejected, while an explicit
// empty fuzzylist is accepted.
type Config struct {
	Name      string
	Version   Version
	Tolerance *int
	Fuzzylist []string
	Allowlist []string
	Blocklist []string
}

// EffectiveTolerance returns Tolerance, or DefaultTolerance when unset.
func (c Config) EffectiveTolerance() int {
	if c.Tolerance == nil {
		return DefaultTolerance
	}
	return *c.Tolerance
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	if c.Tolerance != nil {
		t := *c.Tolerance
		out.Tolerance = &t
	}
	out.Fuzzylist = slices.Clone(c.Fuzzylist)
	out.Allowlist = slices.Clone(c.Allowlist)
	out.Blocklist = slices.Clone(c.Blocklist)
	return out
}

// Legacy returns c in the single-object layout. The name is dropped.
func (c Config) Legacy() LegacyConfig {
	return LegacyConfig{
		Version:   c.Version,
		Tolerance: c.Tolerance,
		Fuzzylist: c.Fuzzylist,
		Whitelist: c.Allowlist,
		Blacklist: c.Blocklist,
	}
}

type configJSON struct {
	Name      string    `json:"name"`
	Version   Version   `json:"version"`
	Tolerance *int      `json:"tolerance,omitempty"`
	Fuzzylist *[]string `json:"fuzzylist,omitempty"`
	Allowlist []string  `json:"allowlist"`
	Blocklist []string  `json:"blocklist"`
}

func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(configJSON{
		Name:      c.Name,
		Version:   c.Version,
		Tolerance: c.Tolerance,
		Fuzzylist: presentList(c.Fuzzylist),
		Allowlist: nonNil(c.Allowlist),
		Blocklist: nonNil(c.Blocklist),
	})
}

func (c *Config) UnmarshalJSON(data []byte) error {
	cfg, err := decodeConfig(data, -1, false)
	if err != nil {
		return err
	}
	*c = cfg
	return nil
}

// LegacyConfig is the single-object layout that predates named chains. Its
// lists use the whitelist and blacklist names, and so do its results.
type LegacyConfig struct {
	Version   Version
	Tolerance *int
	Fuzzylist []string
	Whitelist []string
	Blacklist []string
}

// Named returns l as an unnamed chain element.
func (l LegacyConfig) Named() Config {
	return Config{
		Version:   l.Version,
		Tolerance: l.Tolerance,
		Fuzzylist: l.Fuzzylist,
		Allowlist: l.Whitelist,
		Blocklist: l.Blacklist,
	}
}

type legacyJSON struct {
	Version   *Version  `json:"version,omitempty"`
	Tolerance *int      `json:"tolerance,omitempty"`
	Fuzzylist *[]string `json:"fuzzylist,omitempty"`
	Whitelist []string  `json:"whitelist"`
	Blacklist []string  `json:"blacklist"`
}

func (l LegacyConfig) MarshalJSON() ([]byte, error) {
	out := legacyJSON{
		Tolerance: l.Tolerance,
		Fuzzylist: presentList(l.Fuzzylist),
		Whitelist: nonNil(l.Whitelist),
		Blacklist: nonNil(l.Blacklist),
	}
	if !l.Version.IsZero() {
		out.Version = &l.Version
	}
	return json.Marshal(out)
}

func (l *LegacyConfig) UnmarshalJSON(data []byte) error {
	cfg, err := decodeConfig(data, -1, true)
	if err != nil {
		return err
	}
	*l = cfg.Legacy()
	return nil
}

// Input is what a Detector is built from: a LegacyConfig or a Chain.
type Input interface {
	// Configs returns the input as an ordered chain.
	Configs() []Config
	isInput()
}

// Chain is an ordered list of named configurations, most significant first.
type Chain []Config

// Configs implements Input.
func (c Chain) Configs() []Config { return c }

func (Chain) isInput() {}

// Configs implements Input.
func (l LegacyConfig) Configs() []Config { return []Config{l.Named()} }

func (LegacyConfig) isInput() {}

// ParseInput decodes a configuration document. A JSON array is a Chain and
// a JSON object is a LegacyConfig. The result is validated.
func ParseInput(data []byte) (Input, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &ValidationError{Reason: ReasonNotObject, Index: -1}
	}
	var in Input
	switch data[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decoding configuration chain: %w", err)
		}
		chain := make(Chain, 0, len(raw))
		for i, r := range raw {
			cfg, err := decodeConfig(r, i, false)
			if err != nil {
				return nil, err
			}
			chain = append(chain, cfg)
		}
		in = chain
	case '{':
		cfg, err := decodeConfig(data, -1, true)
		if err != nil {
			return nil, err
		}
		in = cfg.Legacy()
	default:
		return nil, &ValidationError{Reason: ReasonNotObject, Index: -1}
	}
	if err := ValidateInput(in); err != nil {
		return nil, err
	}
	return in, nil
}

// decodeConfig decodes one configuration object field by field so that a
// field of the wrong JSON type maps to the matching validation reason.
func decodeConfig(data []byte, index int, legacy bool) (Config, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return Config{}, &ValidationError{Reason: ReasonNotObject, Index: index}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Config{}, fmt.Errorf("decoding configuration: %w", err)
	}

	var cfg Config
	allowKey, blockKey := "allowlist", "blocklist"
	if legacy {
		allowKey, blockKey = "whitelist", "blacklist"
	}

	if raw, ok := fields["tolerance"]; ok && !isNull(raw) {
		var t int
		if err := json.Unmarshal(raw, &t); err != nil {
			return Config{}, &ValidationError{Reason: ReasonInvalidTolerance, Index: index}
		}
		cfg.Tolerance = &t
	}
	if raw, ok := fields["fuzzylist"]; (!ok || isNull(raw)) && cfg.Tolerance != nil && *cfg.Tolerance > 0 {
		return Config{}, &ValidationError{Reason: ReasonToleranceWithoutFuzzylist, Index: index}
	}
	if raw, ok := fields["name"]; ok && !legacy {
		if err := json.Unmarshal(raw, &cfg.Name); err != nil {
			return Config{}, &ValidationError{Reason: ReasonInvalidName, Index: index}
		}
	}
	if raw, ok := fields["version"]; ok {
		if err := json.Unmarshal(raw, &cfg.Version); err != nil {
			return Config{}, &ValidationError{Reason: ReasonInvalidVersion, Index: index}
		}
	}

	lists := []struct {
		key string
		dst *[]string
	}{
		{"fuzzylist", &cfg.Fuzzylist},
		{allowKey, &cfg.Allowlist},
		{blockKey, &cfg.Blocklist},
	}
	for _, l := range lists {
		raw, ok := fields[l.key]
		if !ok || isNull(raw) {
			continue
		}
		var entries []string
		if err := json.Unmarshal(raw, &entries); err != nil {
			return Config{}, &ValidationError{Reason: ReasonInvalidEntry, Index: index, List: l.key}
		}
		if entries == nil {
			entries = []string{}
		}
		*l.dst = entries
	}
	return cfg, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func presentList(l []string) *[]string {
	if l == nil {
		return nil
	}
	return &l
}

func nonNil(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}
