package detector

import (
	"strings"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/ipshipyard/phishing-detect/fuzzy"
)

// bloomFalsePositiveRate is the target false positive rate of the prefilter
// placed in front of the label trie.
const bloomFalsePositiveRate = 0.01

// labelNode is one label of the trie. Labels are walked TLD first, so a
// path from the root spells a Key. index is the smallest list position of an
// entry ending at this node, or -1.
type labelNode struct {
	children map[string]*labelNode
	index    int
}

func newLabelNode() *labelNode {
	return &labelNode{index: -1}
}

// List is the compiled form of one list section. Lookups return the same
// entry as the linear Covers over the section in list order, in time
// proportional to the number of labels of the hostname.
// A List is immutable once built and safe for concurrent use.
type List struct {
	entries []string
	keys    []Key
	fuzzy   []string
	root    *labelNode
	filter  *bloom.BloomFilter
}

// NewList compiles entries, keeping their order for tie-breaks.
func NewList(entries []string) *List {
	l := &List{
		entries: entries,
		keys:    make([]Key, len(entries)),
		fuzzy:   make([]string, len(entries)),
		root:    newLabelNode(),
	}
	if len(entries) > 0 {
		l.filter = bloom.NewWithEstimates(uint(len(entries)), bloomFalsePositiveRate)
	}
	for i, entry := range entries {
		key := splitKey(strings.TrimSuffix(entry, "."))
		l.keys[i] = key
		l.fuzzy[i] = key.FuzzyForm()
		l.insert(key, i)
		l.filter.AddString(key.String())
	}
	return l
}

func (l *List) insert(key Key, index int) {
	node := l.root
	for _, label := range key {
		if node.children == nil {
			node.children = make(map[string]*labelNode)
		}
		next := node.children[label]
		if next == nil {
			next = newLabelNode()
			node.children[label] = next
		}
		node = next
	}
	if node.index < 0 || index < node.index {
		node.index = index
	}
}

// Len returns the number of entries, duplicates included.
func (l *List) Len() int {
	return len(l.entries)
}

// Entries returns the entries as given to NewList.
func (l *List) Entries() []string {
	return l.entries
}

// Keys returns the parsed entries in list order.
func (l *List) Keys() []Key {
	return l.keys
}

// mayCover tests the hostname and all of its parent suffixes against the
// bloom filter. False means no entry covers source.
func (l *List) mayCover(source Key) bool {
	if l.filter == nil {
		return false
	}
	name := source.String()
	for {
		if l.filter.TestString(name) {
			return true
		}
		idx := strings.IndexByte(name, '.')
		if idx < 0 {
			return false
		}
		name = name[idx+1:]
	}
}

// Covers returns the first entry, in list order, that is source or one of
// its parent domains.
func (l *List) Covers(source Key) (string, bool) {
	if !l.mayCover(source) {
		return "", false
	}
	best := -1
	node := l.root
	for _, label := range source {
		node = node.children[label]
		if node == nil {
			break
		}
		if node.index >= 0 && (best < 0 || node.index < best) {
			best = node.index
		}
	}
	if best < 0 {
		return "", false
	}
	return l.entries[best], true
}

// FuzzyMatch returns the first entry whose fuzzy form is within tolerance
// edits of the fuzzy form of source. s may be nil.
func (l *List) FuzzyMatch(source Key, tolerance int, s *fuzzy.Scratch) (string, bool) {
	if tolerance <= 0 || len(l.entries) == 0 {
		return "", false
	}
	if s == nil {
		s = new(fuzzy.Scratch)
	}
	form := source.FuzzyForm()
	for i, target := range l.fuzzy {
		if s.Distance(form, target) <= tolerance {
			return l.entries[i], true
		}
	}
	return "", false
}
