package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// DefaultHeaders are consulted by FromRequest when no headers are given.
var DefaultHeaders = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// FromRequest returns the normalized client IP, or "" when none is valid.
// Comma-separated header values yield their first valid entry.
func FromRequest(r *http.Request, headers ...string) string {
	if r == nil {
		return ""
	}
	if len(headers) == 0 {
		headers = DefaultHeaders
	}

	for _, h := range headers {
		for v := range strings.SplitSeq(r.Header.Get(h), ",") {
			if ip := Parse(v); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return Parse(r.RemoteAddr)
	}
	return Parse(host)
}

// Parse validates and normalizes an address. IPv4-mapped IPv6 addresses are
// unmapped and zones are dropped.
func Parse(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return ""
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}
