package dnsblock

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/coredns/caddy"
	"github.com/coredns/coredns/core/dnsserver"
	"github.com/coredns/coredns/plugin"
	clog "github.com/coredns/coredns/plugin/pkg/log"
	"github.com/miekg/dns"

	"github.com/ipshipyard/phishing-detect/configfile"
)

const pluginName = "phishing"

var log = clog.NewWithPlugin(pluginName)

func init() { plugin.Register(pluginName, setup) }

func setup(c *caddy.Controller) error {
	config := dnsserver.GetConfig(c)

	c.Next() // consume "phishing" token

	cfg, err := parseConfig(c, config.Root)
	if err != nil {
		return plugin.Error(pluginName, err)
	}

	w, err := configfile.NewWatcher(cfg.Path)
	if err != nil {
		return plugin.Error(pluginName, fmt.Errorf("config %s: %w", cfg.Path, err))
	}
	log.Infof("serving %d configurations from %s", len(w.Input().Configs()), cfg.Path)
	initMetrics()

	c.OnShutdown(w.Close)

	p := &phishing{checker: w, rcode: cfg.Rcode}
	config.AddPlugin(func(next plugin.Handler) plugin.Handler {
		p.Next = next
		return p
	})

	return nil
}

type pluginConfig struct {
	Path  string // configuration file, relative paths resolve against the server root
	Rcode int    // response code for blocked names
}

// parseConfig parses a phishing block from the Corefile.
//
// Syntax:
//
//	phishing <config.json> {
//	    rcode nxdomain|refused
//	}
func parseConfig(c *caddy.Controller, baseDir string) (pluginConfig, error) {
	cfg := pluginConfig{Rcode: dns.RcodeNameError}

	args := c.RemainingArgs()
	if len(args) != 1 {
		return cfg, c.ArgErr()
	}
	cfg.Path = args[0]
	if !filepath.IsAbs(cfg.Path) && baseDir != "" {
		cfg.Path = filepath.Join(baseDir, cfg.Path)
	}

	for c.NextBlock() {
		switch c.Val() {
		case "rcode":
			if !c.NextArg() {
				return cfg, c.ArgErr()
			}
			rcode, err := parseRcode(c.Val())
			if err != nil {
				return cfg, err
			}
			cfg.Rcode = rcode
			if c.NextArg() {
				return cfg, c.ArgErr()
			}
		default:
			return cfg, fmt.Errorf("unknown directive: %s", c.Val())
		}
	}

	return cfg, nil
}

func parseRcode(v string) (int, error) {
	switch strings.ToLower(v) {
	case "nxdomain":
		return dns.RcodeNameError, nil
	case "refused":
		return dns.RcodeRefused, nil
	default:
		return 0, fmt.Errorf("invalid rcode: %s (expected nxdomain or refused)", v)
	}
}
