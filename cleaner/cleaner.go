// Package cleaner removes redundant entries from phishing lists while
// keeping every classification the lists produce.
//
// Blocklist cleaning drops entries already covered by a parent domain on
// the same list, converts Unicode names to punycode, rewrites IPFS gateway
// links to the bare CID and removes duplicates. Allowlist cleaning drops
// entries that nothing would block, by default with a leave-one-out probe
// followed by a reconciliation pass.
//
// Every operation validates its input first and returns a new value; the
// input is never modified.
package cleaner

import (
	"fmt"

	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/zap"

	"github.com/ipshipyard/phishing-detect/detector"
)

// Cleaner applies list hygiene to configurations. It holds no state
// between calls and is safe for concurrent use.
type Cleaner struct {
	log    *zap.SugaredLogger
	policy AllowlistPolicy
}

// New returns a Cleaner configured by opts.
func New(opts ...CleanerOptions) (*Cleaner, error) {
	cfg := &CleanerConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.log == nil {
		cfg.log = logging.Logger("phishing-detect/cleaner").Desugar().Sugar()
	}
	initMetrics()
	return &Cleaner{log: cfg.log, policy: cfg.policy}, nil
}

// Policy returns the allowlist policy in use.
func (c *Cleaner) Policy() AllowlistPolicy {
	return c.policy
}

// CleanBlocklist cleans the blocklist of every configuration of in.
func (c *Cleaner) CleanBlocklist(in detector.Input) (detector.Input, *Report, error) {
	return c.apply(in, c.cleanBlocklist)
}

// CleanAllowlist cleans the allowlist of every configuration of in.
func (c *Cleaner) CleanAllowlist(in detector.Input) (detector.Input, *Report, error) {
	return c.apply(in, c.cleanAllowlist)
}

// Clean cleans the blocklist and then the allowlist, so that allowlist
// probes see the cleaned blocklist.
func (c *Cleaner) Clean(in detector.Input) (detector.Input, *Report, error) {
	return c.apply(in, func(cfg detector.Config, report *Report) detector.Config {
		return c.cleanAllowlist(c.cleanBlocklist(cfg, report), report)
	})
}

// CleanList dispatches to CleanBlocklist or CleanAllowlist. The fuzzylist
// is never cleaned and is returned as is.
func (c *Cleaner) CleanList(in detector.Input, list List) (detector.Input, *Report, error) {
	switch list {
	case Blocklist:
		return c.CleanBlocklist(in)
	case Allowlist:
		return c.CleanAllowlist(in)
	case Fuzzylist:
		if err := detector.ValidateInput(in); err != nil {
			return nil, nil, err
		}
		return in, &Report{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown list %q", list)
	}
}

type cleanFunc func(cfg detector.Config, report *Report) detector.Config

// apply validates in and runs fn over a copy of each configuration,
// returning an Input of the same shape.
func (c *Cleaner) apply(in detector.Input, fn cleanFunc) (detector.Input, *Report, error) {
	if err := detector.ValidateInput(in); err != nil {
		return nil, nil, err
	}
	report := &Report{}
	switch v := in.(type) {
	case detector.LegacyConfig:
		return fn(v.Named().Clone(), report).Legacy(), report, nil
	case *detector.LegacyConfig:
		out := fn(v.Named().Clone(), report).Legacy()
		return out, report, nil
	default:
		configs := in.Configs()
		out := make(detector.Chain, len(configs))
		for i, cfg := range configs {
			out[i] = fn(cfg.Clone(), report)
		}
		return out, report, nil
	}
}

// CleanBlocklist cleans in with a default Cleaner.
func CleanBlocklist(in detector.Input) (detector.Input, *Report, error) {
	c, err := New()
	if err != nil {
		return nil, nil, err
	}
	return c.CleanBlocklist(in)
}

// CleanAllowlist cleans in with a default Cleaner.
func CleanAllowlist(in detector.Input) (detector.Input, *Report, error) {
	c, err := New()
	if err != nil {
		return nil, nil, err
	}
	return c.CleanAllowlist(in)
}

// Clean cleans both lists of in with a default Cleaner.
func Clean(in detector.Input) (detector.Input, *Report, error) {
	c, err := New()
	if err != nil {
		return nil, nil, err
	}
	return c.Clean(in)
}

// dedupe returns entries without repeats, first occurrence kept.
func dedupe(entries []string) (unique []string, dups []string) {
	seen := make(map[string]struct{}, len(entries))
	unique = make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e]; ok {
			dups = append(dups, e)
			continue
		}
		seen[e] = struct{}{}
		unique = append(unique, e)
	}
	return unique, dups
}
