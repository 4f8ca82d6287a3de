package configfile

import (
	"bufio"
	"io"
	"net/url"
	"strings"
)

// ParseHosts reads one hostname or URL per line. Lines starting with # or ;
// are comments, and anything after whitespace on a line is ignored, so
// "evil.example ; reported 2024-01-02" yields evil.example.
//
// URLs are reduced to their hostname, except IPFS path gateway links which
// are kept whole: the list cleaner rewrites those to the CID they carry.
func ParseHosts(r io.Reader) ([]string, error) {
	var hosts []string
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if fields := strings.Fields(line); len(fields) > 0 {
			line = fields[0]
		}

		if !strings.Contains(line, "://") {
			hosts = append(hosts, line)
			continue
		}
		if strings.Contains(line, "/ipfs/") {
			hosts = append(hosts, line)
			continue
		}
		u, err := url.Parse(line)
		if err != nil {
			continue
		}
		if host := u.Hostname(); host != "" {
			hosts = append(hosts, host)
		}
	}

	return hosts, scanner.Err()
}
