package cleaner

import (
	"slices"

	"github.com/ipshipyard/phishing-detect/detector"
)

func (c *Cleaner) cleanAllowlist(cfg detector.Config, report *Report) detector.Config {
	if len(cfg.Allowlist) == 0 {
		return cfg
	}

	var keep map[string]bool
	switch c.policy {
	case SinglePass:
		keep = c.singlePass(cfg)
	case KeepAll:
		keep = make(map[string]bool, len(cfg.Allowlist))
		for _, e := range cfg.Allowlist {
			keep[e] = true
		}
	default:
		keep = c.leaveOneOut(cfg, report)
	}

	out := make([]string, 0, len(cfg.Allowlist))
	emitted := make(map[string]bool, len(cfg.Allowlist))
	for _, e := range cfg.Allowlist {
		switch {
		case emitted[e]:
			c.removed(report, Redundancy{Config: cfg.Name, List: Allowlist, Entry: e, Kind: KindDuplicate, By: e})
		case keep[e]:
			out = append(out, e)
			emitted[e] = true
		default:
			emitted[e] = true
			c.removed(report, Redundancy{Config: cfg.Name, List: Allowlist, Entry: e, Kind: KindUnneeded})
		}
	}
	cfg.Allowlist = out
	return cfg
}

// leaveOneOut probes each entry with a detector whose allowlist lacks just
// that entry. An entry is needed when the probe blocks it. Entries found
// unneeded are then checked again, in order, against the allowlist of
// needed entries only, and added back if that would block them: two entries
// can each look unneeded only because of the other. An entry added back
// joins the needed entries before the next one is checked, so only the
// first of several equivalent entries returns.
func (c *Cleaner) leaveOneOut(cfg detector.Config, report *Report) map[string]bool {
	keep := make(map[string]bool, len(cfg.Allowlist))
	var excluded []string
	isExcluded := make(map[string]bool)

	for i, host := range cfg.Allowlist {
		probe := cfg
		probe.Allowlist = slices.Concat(cfg.Allowlist[:i], cfg.Allowlist[i+1:])
		blocked, err := c.blocked(probe, host)
		if err != nil || blocked {
			keep[host] = true
			continue
		}
		if !isExcluded[host] {
			isExcluded[host] = true
			excluded = append(excluded, host)
		}
	}

	var needed []string
	for _, host := range cfg.Allowlist {
		if keep[host] && !slices.Contains(needed, host) {
			needed = append(needed, host)
		}
	}

	for _, host := range excluded {
		if keep[host] {
			continue
		}
		probe := cfg
		probe.Allowlist = needed
		blocked, err := c.blocked(probe, host)
		if err == nil && blocked {
			c.log.Infow("adding back", "config", cfg.Name, "entry", host)
			report.add(Redundancy{Config: cfg.Name, List: Allowlist, Entry: host, Kind: KindRestored})
			keep[host] = true
			needed = append(needed, host)
		}
	}
	return keep
}

// singlePass keeps an entry when a parent domain of it is on the blocklist
// or when the fuzzylist alone would flag it.
func (c *Cleaner) singlePass(cfg detector.Config) map[string]bool {
	blocklist := make(map[string]struct{}, len(cfg.Blocklist))
	for _, e := range cfg.Blocklist {
		blocklist[compareForm(e)] = struct{}{}
	}

	fuzzyOnly := cfg
	fuzzyOnly.Allowlist = nil
	fuzzyOnly.Blocklist = nil

	keep := make(map[string]bool, len(cfg.Allowlist))
	for _, host := range cfg.Allowlist {
		if _, ok := coveringAncestor(compareForm(host), blocklist); ok {
			keep[host] = true
			continue
		}
		blocked, err := c.blocked(fuzzyOnly, host)
		keep[host] = err != nil || blocked
	}
	return keep
}

// blocked reports whether a detector built from probe blocks host. Probes
// ignore the configuration name, so unnamed configurations can be probed.
func (c *Cleaner) blocked(probe detector.Config, host string) (bool, error) {
	d, err := detector.New(probe.Legacy(), detector.WithoutMetrics())
	if err != nil {
		return false, err
	}
	r, err := d.Check(host)
	if err != nil {
		c.log.Warnw("cannot classify allowlist entry, keeping it", "entry", host, "error", err)
		return false, err
	}
	return r.Result, nil
}
