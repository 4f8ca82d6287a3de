// Package detector classifies hostnames against phishing allow, block and
// fuzzy lists. A Detector is compiled from either one legacy configuration
// or an ordered chain of named configurations.
//
// Precedence is global: an allowlist match in any configuration of the
// chain wins over a blocklist or fuzzy match in any other. Only when no
// allowlist matches are the configurations walked again, in order, for
// blocklist and then fuzzylist matches.
package detector

import (
	"sync"

	"github.com/ipshipyard/phishing-detect/fuzzy"
)

// MatchType says which list decided a CheckResult.
type MatchType string

const (
	// TypeAllowlist: the hostname matched an allowlist entry.
	TypeAllowlist MatchType = "allowlist"
	// TypeBlocklist: the hostname matched a blocklist entry.
	TypeBlocklist MatchType = "blocklist"
	// TypeFuzzy: the hostname is within tolerance of a fuzzylist entry.
	TypeFuzzy MatchType = "fuzzy"
	// TypeAll: nothing matched.
	TypeAll MatchType = "all"

	// TypeWhitelist and TypeBlacklist replace TypeAllowlist and
	// TypeBlocklist in results of a legacy configuration.
	TypeWhitelist MatchType = "whitelist"
	TypeBlacklist MatchType = "blacklist"
)

// CheckResult is the verdict for one hostname. Result is true when the
// hostname should be blocked.
type CheckResult struct {
	Result  bool      `json:"result"`
	Type    MatchType `json:"type"`
	Match   string    `json:"match,omitempty"`
	Name    string    `json:"name,omitempty"`
	Version *Version  `json:"version,omitempty"`
}

// compiledConfig is a validated Config with its lists indexed.
type compiledConfig struct {
	name      string
	version   Version
	tolerance int
	allow     *List
	block     *List
	fuzzy     *List
}

// Detector checks hostnames against a compiled chain. It is immutable and
// safe for concurrent use.
type Detector struct {
	configs []compiledConfig
	legacy  bool
	metrics bool
	scratch sync.Pool
}

// DetectorConfig holds the settings DetectorOptions apply.
type DetectorConfig struct {
	// DisableMetrics keeps the detector out of the checks and list size
	// metrics. Use it for short-lived detectors built only to answer a
	// question about a configuration.
	DisableMetrics bool
}

type DetectorOptions func(*DetectorConfig) error

// WithoutMetrics builds a detector that records no metrics.
func WithoutMetrics() DetectorOptions {
	return func(cfg *DetectorConfig) error {
		cfg.DisableMetrics = true
		return nil
	}
}

// New validates in and compiles it into a Detector. An invalid
// configuration is rejected with a *ValidationError.
func New(in Input, opts ...DetectorOptions) (*Detector, error) {
	var cfg DetectorConfig
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := ValidateInput(in); err != nil {
		return nil, err
	}
	if !cfg.DisableMetrics {
		initMetrics()
	}

	_, legacy := in.(LegacyConfig)
	if p, ok := in.(*LegacyConfig); ok && p != nil {
		legacy = true
	}

	d := &Detector{
		legacy:  legacy,
		metrics: !cfg.DisableMetrics,
		scratch: sync.Pool{
			New: func() any { return new(fuzzy.Scratch) },
		},
	}
	for _, c := range in.Configs() {
		cc := compiledConfig{
			name:      c.Name,
			version:   c.Version,
			tolerance: c.EffectiveTolerance(),
			allow:     NewList(c.Allowlist),
			block:     NewList(c.Blocklist),
			fuzzy:     NewList(c.Fuzzylist),
		}
		if d.metrics {
			updateEntries(c.Name, "allowlist", cc.allow.Len())
			updateEntries(c.Name, "blocklist", cc.block.Len())
			updateEntries(c.Name, "fuzzylist", cc.fuzzy.Len())
		}
		d.configs = append(d.configs, cc)
	}
	return d, nil
}

// Check classifies hostname. It fails only when hostname is not a valid
// domain name, with an error wrapping ErrInvalidDomain.
func (d *Detector) Check(hostname string) (CheckResult, error) {
	source, err := ToKey(hostname)
	if err != nil {
		return CheckResult{}, err
	}
	r := d.check(source)
	if d.metrics {
		incCheck(r.Type, r.Name)
	}
	if d.legacy {
		r = legacyResult(r)
	}
	return r, nil
}

func (d *Detector) check(source Key) CheckResult {
	for i := range d.configs {
		c := &d.configs[i]
		if match, ok := c.allow.Covers(source); ok {
			return c.result(false, TypeAllowlist, match)
		}
	}

	s := d.scratch.Get().(*fuzzy.Scratch)
	defer d.scratch.Put(s)

	for i := range d.configs {
		c := &d.configs[i]
		if match, ok := c.block.Covers(source); ok {
			return c.result(true, TypeBlocklist, match)
		}
		if c.tolerance > 0 {
			if match, ok := c.fuzzy.FuzzyMatch(source, c.tolerance, s); ok {
				return c.result(true, TypeFuzzy, match)
			}
		}
	}
	return CheckResult{Result: false, Type: TypeAll}
}

func (c *compiledConfig) result(block bool, t MatchType, match string) CheckResult {
	r := CheckResult{
		Result: block,
		Type:   t,
		Match:  match,
		Name:   c.name,
	}
	if !c.version.IsZero() {
		v := c.version
		r.Version = &v
	}
	return r
}

// legacyResult maps a result to the legacy list names. Legacy results carry
// no name or version.
func legacyResult(r CheckResult) CheckResult {
	switch r.Type {
	case TypeAllowlist:
		r.Type = TypeWhitelist
	case TypeBlocklist:
		r.Type = TypeBlacklist
	}
	r.Name = ""
	r.Version = nil
	return r
}

// Check builds a Detector from in and classifies hostname with it.
// Use New when checking more than one hostname.
func Check(hostname string, in Input) (CheckResult, error) {
	d, err := New(in)
	if err != nil {
		return CheckResult{}, err
	}
	return d.Check(hostname)
}
