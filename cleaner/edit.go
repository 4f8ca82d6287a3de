package cleaner

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ipshipyard/phishing-detect/detector"
)

// ErrFuzzylistAddition is returned when adding to a fuzzylist. Fuzzylists
// are remove-only.
var ErrFuzzylistAddition = errors.New("fuzzylist entries cannot be added")

// AddDomains appends domains to one list of the configuration at index of
// in, then cleans that list. For a legacy configuration index must be 0.
func (c *Cleaner) AddDomains(in detector.Input, index int, list List, domains ...string) (detector.Input, *Report, error) {
	var clean cleanFunc
	switch list {
	case Allowlist:
		clean = c.cleanAllowlist
	case Blocklist:
		clean = c.cleanBlocklist
	case Fuzzylist:
		return nil, nil, ErrFuzzylistAddition
	default:
		return nil, nil, fmt.Errorf("unknown list %q", list)
	}
	return c.edit(in, index, func(cfg *detector.Config) {
		l := section(cfg, list)
		*l = append(*l, domains...)
	}, clean)
}

// RemoveDomains removes every exact occurrence of domains from one list of
// the configuration at index of in.
func (c *Cleaner) RemoveDomains(in detector.Input, index int, list List, domains ...string) (detector.Input, *Report, error) {
	if section(&detector.Config{}, list) == nil {
		return nil, nil, fmt.Errorf("unknown list %q", list)
	}
	return c.edit(in, index, func(cfg *detector.Config) {
		l := section(cfg, list)
		if *l != nil {
			*l = slices.DeleteFunc(*l, func(e string) bool { return slices.Contains(domains, e) })
		}
	}, nil)
}

func section(cfg *detector.Config, list List) *[]string {
	switch list {
	case Allowlist:
		return &cfg.Allowlist
	case Blocklist:
		return &cfg.Blocklist
	case Fuzzylist:
		return &cfg.Fuzzylist
	default:
		return nil
	}
}

// edit applies mutate to a copy of the configuration at index, validates
// the result and runs clean over the edited configuration when set.
func (c *Cleaner) edit(in detector.Input, index int, mutate func(*detector.Config), clean cleanFunc) (detector.Input, *Report, error) {
	if err := detector.ValidateInput(in); err != nil {
		return nil, nil, err
	}
	configs := in.Configs()
	if index < 0 || index >= len(configs) {
		return nil, nil, fmt.Errorf("configuration index %d out of range [0, %d)", index, len(configs))
	}

	out := make(detector.Chain, len(configs))
	for i, cfg := range configs {
		out[i] = cfg.Clone()
	}
	mutate(&out[index])

	_, legacy := in.(detector.LegacyConfig)
	if _, ok := in.(*detector.LegacyConfig); ok {
		legacy = true
	}
	wrap := func() detector.Input {
		if legacy {
			return out[0].Legacy()
		}
		return out
	}
	if err := detector.ValidateInput(wrap()); err != nil {
		return nil, nil, err
	}

	report := &Report{}
	if clean != nil {
		out[index] = clean(out[index], report)
	}
	return wrap(), report, nil
}
