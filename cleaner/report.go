package cleaner

import "fmt"

// List names a section of a configuration.
type List string

const (
	Allowlist List = "allowlist"
	Blocklist List = "blocklist"
	Fuzzylist List = "fuzzylist"
)

// ParseList accepts the section names, including the legacy whitelist and
// blacklist spellings.
func ParseList(s string) (List, error) {
	switch s {
	case "allowlist", "whitelist":
		return Allowlist, nil
	case "blocklist", "blacklist":
		return Blocklist, nil
	case "fuzzylist":
		return Fuzzylist, nil
	default:
		return "", fmt.Errorf("unknown list %q", s)
	}
}

// Kind says why an entry was reported.
type Kind int

const (
	// KindCoveredBy: a parent domain of the entry is on the same list.
	KindCoveredBy Kind = iota + 1
	// KindDuplicate: the entry appears earlier in the list.
	KindDuplicate
	// KindGateway: an IPFS gateway link was rewritten to its CID.
	KindGateway
	// KindUnneeded: nothing would block the entry without it.
	KindUnneeded
	// KindRestored: the entry was dropped and then added back because
	// the reduced list would block it.
	KindRestored
)

func (k Kind) String() string {
	switch k {
	case KindCoveredBy:
		return "covered"
	case KindDuplicate:
		return "duplicate"
	case KindGateway:
		return "gateway"
	case KindUnneeded:
		return "unneeded"
	case KindRestored:
		return "restored"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Removal reports whether entries of this kind leave the list.
func (k Kind) Removal() bool {
	switch k {
	case KindCoveredBy, KindDuplicate, KindUnneeded:
		return true
	default:
		return false
	}
}

// Redundancy records one entry that was dropped or rewritten. By is the
// covering entry for KindCoveredBy and the CID for KindGateway.
type Redundancy struct {
	Config string
	List   List
	Entry  string
	Kind   Kind
	By     string
}

func (r Redundancy) String() string {
	s := fmt.Sprintf("%s entry %q: %s", r.List, r.Entry, r.Kind)
	if r.By != "" {
		s += " by " + r.By
	}
	if r.Config != "" {
		s = r.Config + ": " + s
	}
	return s
}

// Report collects every Redundancy found by a clean.
type Report struct {
	Redundancies []Redundancy
}

// Removed counts the entries dropped from list.
func (r *Report) Removed(list List) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, red := range r.Redundancies {
		if red.List == list && red.Kind.Removal() {
			n++
		}
	}
	return n
}

func (r *Report) add(red Redundancy) {
	r.Redundancies = append(r.Redundancies, red)
	incRemoved(red.List, red.Kind)
}
