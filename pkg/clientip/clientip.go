package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// RealClientIP returns the peer address of r in canonical form, suitable as a
// rate-limit key. Proxy headers are ignored since the service is reached
// directly. IPv4-mapped IPv6 addresses collapse to IPv4 and zones are dropped,
// so one client never maps to two keys.
func RealClientIP(r *http.Request) string {
	return Normalize(r.RemoteAddr)
}

// Normalize strips an optional port from addr and canonicalises the IP.
// Values that do not parse as an IP are returned trimmed.
func Normalize(addr string) string {
	addr = strings.TrimSpace(addr)
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return host
	}
	return ip.Unmap().WithZone("").String()
}
