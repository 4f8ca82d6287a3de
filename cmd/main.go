// Command cmd runs CoreDNS with the phishing plugin, answering queries for
// phishing domains with NXDOMAIN and forwarding everything else.
//
// Example Corefile:
//
//	. {
//	    log
//	    errors
//	    prometheus :9153
//	    phishing /etc/phishing-detect/config.json
//	    cache 30
//	    forward . 9.9.9.9
//	}
package main

import (
	_ "github.com/ipshipyard/phishing-detect/plugins" // Load CoreDNS plugins and the phishing plugin.

	"github.com/coredns/coredns/core/dnsserver"
	"github.com/coredns/coredns/coremain"
)

// Order matters: phishing must run before cache and forward so blocked names
// are never resolved upstream.
var directives = []string{
	"root",
	"bind",
	"reload",
	"prometheus",
	"errors",
	"log",
	"phishing",
	"cache",
	"forward",
	"whoami",
}

func init() {
	dnsserver.Directives = directives
}

func main() {
	coremain.Run()
}
