package server

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// clientIP returns the address a request originated from: the leftmost
// X-Forwarded-For entry when it parses, else the connection's remote
// address. It is only used for request logs.
func clientIP(r *http.Request) (netip.Addr, bool) {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return ip, true
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip, err := netip.ParseAddr(host); err == nil {
		return ip.Unmap(), true
	}
	return netip.Addr{}, false
}
