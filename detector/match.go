package detector

import "github.com/ipshipyard/phishing-detect/fuzzy"

// Covers returns the first candidate, in list order, that covers source.
func Covers(source Key, candidates []Key) (Key, bool) {
	for _, c := range candidates {
		if c.Covers(source) {
			return c, true
		}
	}
	return nil, false
}

// FuzzyMatch returns the first candidate whose fuzzy form is within
// tolerance edits of the fuzzy form of source.
func FuzzyMatch(source Key, candidates []Key, tolerance int) (Key, bool) {
	if tolerance <= 0 {
		return nil, false
	}
	var s fuzzy.Scratch
	form := source.FuzzyForm()
	for _, c := range candidates {
		if s.Distance(form, c.FuzzyForm()) <= tolerance {
			return c, true
		}
	}
	return nil, false
}
