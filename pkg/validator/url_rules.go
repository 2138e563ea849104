package validator

import (
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// HTTPSURL checks value is an absolute https URL with a host name.
func HTTPSURL(field, value string) Rule {
	return Rule{
		Check: func() bool {
			u, err := url.Parse(value)
			if err != nil {
				return false
			}
			return strings.EqualFold(u.Scheme, "https") && u.Hostname() != ""
		},
		Error: fail(field, "https_url", "must be an https URL with a host"),
	}
}

// PublicHost rejects URLs whose host is a literal IP address in a private,
// loopback, link-local or unspecified range. IPv6 zones are ignored and
// IPv4-mapped addresses are checked as IPv4. Host names are not resolved.
func PublicHost(field, value string) Rule {
	return Rule{
		Check: func() bool {
			u, err := url.Parse(value)
			if err != nil {
				return false
			}
			host := u.Hostname()
			addr, err := netip.ParseAddr(host)
			if err != nil {
				// Only IPv6 literals carry a colon.
				return !strings.Contains(host, ":")
			}
			return !IsInternalIP(net.IP(addr.WithZone("").Unmap().AsSlice()))
		},
		Error: fail(field, "public_host", "must not point to a private or local address"),
	}
}

// IsInternalIP reports whether ip belongs to a range that must not receive
// outbound webhook traffic.
func IsInternalIP(ip net.IP) bool {
	return ip.IsPrivate() ||
		ip.IsLoopback() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsUnspecified()
}
