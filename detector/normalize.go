package detector

import (
	"strings"

	"golang.org/x/net/idna"
)

// NormalizeHostname prepares a raw hostname for Check: surrounding space
// and one trailing dot are removed, and Unicode labels are converted to
// their ASCII form. Names that idna rejects fail with a *DomainError.
func NormalizeHostname(hostname string) (string, error) {
	name := strings.TrimSuffix(strings.TrimSpace(hostname), ".")
	if name == "" {
		return "", &DomainError{Hostname: hostname}
	}
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return "", &DomainError{Hostname: hostname}
	}
	return strings.ToLower(ascii), nil
}
