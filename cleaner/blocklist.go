package cleaner

import (
	"strings"

	"github.com/ipshipyard/phishing-detect/detector"
)

// cleanBlocklist drops covered and duplicate entries, converts names to
// punycode and rewrites gateway links to CIDs. Coverage is decided on the
// raw names, before CIDs are extracted.
func (c *Cleaner) cleanBlocklist(cfg detector.Config, report *Report) detector.Config {
	if len(cfg.Blocklist) == 0 {
		return cfg
	}

	unique, dups := dedupe(cfg.Blocklist)
	for _, d := range dups {
		c.removed(report, Redundancy{Config: cfg.Name, List: Blocklist, Entry: d, Kind: KindDuplicate, By: d})
	}

	set := make(map[string]struct{}, len(unique))
	for _, e := range unique {
		set[compareForm(e)] = struct{}{}
	}

	kept := make([]string, 0, len(unique))
	for _, e := range unique {
		if by, ok := coveringAncestor(compareForm(e), set); ok {
			c.removed(report, Redundancy{Config: cfg.Name, List: Blocklist, Entry: e, Kind: KindCoveredBy, By: by})
			continue
		}
		kept = append(kept, e)
	}

	normalized := make([]string, 0, len(kept))
	for _, e := range kept {
		normalized = append(normalized, c.normalizeBlockEntry(cfg.Name, e, report))
	}

	out, dups := dedupe(normalized)
	for _, d := range dups {
		c.removed(report, Redundancy{Config: cfg.Name, List: Blocklist, Entry: d, Kind: KindDuplicate, By: d})
	}
	cfg.Blocklist = out
	return cfg
}

// coveringAncestor returns the first parent domain of name, nearest first,
// that is in set. Bare TLDs are not considered.
func coveringAncestor(name string, set map[string]struct{}) (string, bool) {
	parts := strings.Split(name, ".")
	for i := 1; i < len(parts)-1; i++ {
		ancestor := strings.Join(parts[i:], ".")
		if _, ok := set[ancestor]; ok {
			return ancestor, true
		}
	}
	return "", false
}

// normalizeBlockEntry returns the stored form of a blocklist entry: the
// CID for a gateway link carrying a valid CID, the entry itself for a CID,
// and the lowercase punycode form otherwise.
func (c *Cleaner) normalizeBlockEntry(config, entry string, report *Report) string {
	if id, ok := GatewayCID(toASCII(entry)); ok {
		version, encoding, err := describeCID(id)
		if err == nil {
			c.log.Debugw("extracted CID from gateway link", "entry", entry, "cid", id, "version", version, "multibase", encoding)
			report.add(Redundancy{Config: config, List: Blocklist, Entry: entry, Kind: KindGateway, By: id})
			return id
		}
		c.log.Warnw("gateway link does not carry a valid CID, keeping the link", "entry", entry, "cid", id, "error", err)
	}
	if isCID(entry) {
		return entry
	}
	return compareForm(entry)
}

func (c *Cleaner) removed(report *Report, r Redundancy) {
	c.log.Infow("removing redundant entry", "config", r.Config, "list", r.List, "entry", r.Entry, "reason", r.Kind, "by", r.By)
	report.add(r)
}
