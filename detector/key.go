package detector

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/miekg/dns"
)

// ErrInvalidDomain is returned when a hostname cannot be turned into a Key.
// Callers should treat it as "cannot classify", never as "safe".
var ErrInvalidDomain = errors.New("invalid domain")

// DomainError reports the hostname that failed to parse.
type DomainError struct {
	Hostname string
}

func (e *DomainError) Error() string {
	return "invalid domain " + strconv.Quote(e.Hostname)
}

func (e *DomainError) Unwrap() error {
	return ErrInvalidDomain
}

// Key is a hostname split on "." with the label order reversed, so the TLD
// comes first: "app.metamask.io" becomes [io metamask app].
type Key []string

// ToKey converts hostname to a Key. One trailing "." is stripped and the
// labels are lowercased. Empty names, empty labels and names that are not
// valid DNS names (labels over 63 octets, names over 255) are rejected with
// a *DomainError.
func ToKey(hostname string) (Key, error) {
	name := strings.TrimSuffix(hostname, ".")
	if name == "" {
		return nil, &DomainError{Hostname: hostname}
	}
	if _, ok := dns.IsDomainName(name); !ok {
		return nil, &DomainError{Hostname: hostname}
	}
	key := splitKey(name)
	for _, label := range key {
		if label == "" {
			return nil, &DomainError{Hostname: hostname}
		}
	}
	return key, nil
}

// splitKey reverses the labels of name without validating them. List entries
// go through here: they may be gateway links or CIDs rather than hostnames.
func splitKey(name string) Key {
	labels := strings.Split(strings.ToLower(name), ".")
	slices.Reverse(labels)
	return labels
}

// String joins the labels back into a hostname.
func (k Key) String() string {
	labels := slices.Clone([]string(k))
	slices.Reverse(labels)
	return strings.Join(labels, ".")
}

// FuzzyForm is the string compared by the fuzzy matcher: the TLD is
// dropped and a leading "www." removed.
func (k Key) FuzzyForm() string {
	if len(k) == 0 {
		return ""
	}
	return strings.TrimPrefix(k[1:].String(), "www.")
}

// Covers reports whether k is source itself or a parent domain of it.
func (k Key) Covers(source Key) bool {
	if len(k) > len(source) {
		return false
	}
	for i, label := range k {
		if source[i] != label {
			return false
		}
	}
	return true
}
