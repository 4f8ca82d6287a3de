package cleaner

import (
	"net/url"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"golang.org/x/net/idna"
)

// GatewayCID extracts the content identifier from an IPFS gateway link.
// Two forms are recognised:
//
//	<cid>.ipfs.<gateway host>[/path]   subdomain gateway
//	<anything>/ipfs/<cid>[/path]       path gateway
//
// Hostnames are case-insensitive, so a subdomain CID is returned in lower
// case. A path CID is returned as written. Neither is validated.
func GatewayCID(entry string) (string, bool) {
	if id, ok := subdomainCID(entry); ok {
		return id, true
	}
	return subpathCID(entry)
}

func subdomainCID(entry string) (string, bool) {
	host := entry
	if strings.Contains(entry, "://") {
		u, err := url.Parse(entry)
		if err != nil {
			return "", false
		}
		host = u.Hostname()
	} else if i := strings.IndexAny(entry, "/?#"); i >= 0 {
		host = entry[:i]
	}

	labels := strings.Split(host, ".")
	for j := 1; j < len(labels)-1; j++ {
		if strings.EqualFold(labels[j], "ipfs") && labels[j-1] != "" && labels[j+1] != "" {
			return strings.ToLower(labels[j-1]), true
		}
	}
	return "", false
}

func subpathCID(entry string) (string, bool) {
	i := strings.Index(entry, "/ipfs/")
	if i <= 0 {
		return "", false
	}
	rest := entry[i+len("/ipfs/"):]
	if j := strings.IndexAny(rest, "/?#"); j >= 0 {
		rest = rest[:j]
	}
	return rest, rest != ""
}

// isCID reports whether s decodes as a CID, in which case it is already in
// canonical form and must not be case folded.
func isCID(s string) bool {
	_, err := cid.Decode(s)
	return err == nil
}

// describeCID returns the CID version and multibase encoding name for
// logging.
func describeCID(id string) (version uint64, encoding string, err error) {
	c, err := cid.Decode(id)
	if err != nil {
		return 0, "", err
	}
	enc, err := cid.ExtractEncoding(id)
	if err != nil {
		return 0, "", err
	}
	return c.Version(), multibase.EncodingToStr[enc], nil
}

// toASCII converts Unicode labels to punycode. Entries idna cannot
// convert are returned unchanged.
func toASCII(s string) string {
	ascii, err := idna.Punycode.ToASCII(s)
	if err != nil {
		return s
	}
	return ascii
}

// compareForm is the form used to compare blocklist entries with each other.
func compareForm(entry string) string {
	return toASCII(strings.ToLower(entry))
}
