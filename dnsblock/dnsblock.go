// Package dnsblock is a CoreDNS plugin that answers queries for phishing
// domains with NXDOMAIN or REFUSED instead of resolving them.
//
// Each question name is checked against a detector configuration file that
// is reloaded whenever it changes. Names the configuration does not block,
// and names the detector cannot parse, go to the next plugin.
package dnsblock

import (
	"context"
	"strings"

	"github.com/coredns/coredns/plugin"
	"github.com/miekg/dns"

	"github.com/ipshipyard/phishing-detect/detector"
)

type checker interface {
	Check(hostname string) (detector.CheckResult, error)
}

type phishing struct {
	Next    plugin.Handler
	checker checker
	rcode   int
}

// ServeDNS implements the plugin.Handler interface.
func (p *phishing) ServeDNS(ctx context.Context, w dns.ResponseWriter, r *dns.Msg) (int, error) {
	for _, q := range r.Question {
		name := strings.TrimSuffix(strings.ToLower(q.Name), ".")
		if name == "" {
			continue
		}
		result, err := p.checker.Check(name)
		if err != nil || !result.Result {
			continue
		}

		blockedCount.WithLabelValues(string(result.Type), result.Name).Add(1)
		log.Debugf("blocked %s (%s %s)", name, result.Type, result.Match)

		m := new(dns.Msg)
		m.SetRcode(r, p.rcode)
		m.Authoritative = true
		if opt := r.IsEdns0(); opt != nil {
			m.SetEdns0(opt.UDPSize(), opt.Do())
			// RFC 8914 Extended DNS Error 15: Blocked
			m.IsEdns0().Option = append(m.IsEdns0().Option, &dns.EDNS0_EDE{
				InfoCode:  dns.ExtendedErrorCodeBlocked,
				ExtraText: "phishing: " + string(result.Type),
			})
		}

		if err := w.WriteMsg(m); err != nil {
			return dns.RcodeServerFailure, err
		}
		// The response is written; success tells the server not to write
		// another one for REFUSED.
		return dns.RcodeSuccess, nil
	}

	return plugin.NextOrFailure(p.Name(), p.Next, ctx, w, r)
}

// Name implements the Handler interface.
func (p *phishing) Name() string { return pluginName }
