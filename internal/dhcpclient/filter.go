package dhcpclient

import (
	"bytes"
	"net"

	"github.com/mcingel/dhcpcd/internal/config"
	"github.com/mcingel/dhcpcd/pkg/dhcpv4"
)

// MatchesPrefix reports whether ip falls within the (prefix, mask) pair
// using the original's bitwise rule: (addr & mask) == (prefix & mask).
func MatchesPrefix(ip, prefix net.IP, mask net.IP) bool {
	a := ip.To4()
	p := prefix.To4()
	m := mask.To4()
	if a == nil || p == nil || m == nil {
		return false
	}
	for i := 0; i < 4; i++ {
		if a[i]&m[i] != p[i]&m[i] {
			return false
		}
	}
	return true
}

// entryMatches evaluates one config.PrefixEntry against ip.
func entryMatches(ip net.IP, e config.PrefixEntry) bool {
	prefix := net.ParseIP(e.Prefix)
	mask := net.ParseIP(e.Mask)
	if prefix == nil || mask == nil {
		return false
	}
	return MatchesPrefix(ip, prefix, mask)
}

// SourceAllowed applies §4.3's blacklist/whitelist rule: if a whitelist is
// configured, ip must match one of its entries; otherwise ip must not match
// any blacklist entry.
func SourceAllowed(ip net.IP, whitelist, blacklist []config.PrefixEntry) bool {
	if len(whitelist) > 0 {
		for _, e := range whitelist {
			if entryMatches(ip, e) {
				return true
			}
		}
		return false
	}
	for _, e := range blacklist {
		if entryMatches(ip, e) {
			return false
		}
	}
	return true
}

// PointToPointMismatch reports whether ip differs from the configured peer,
// for point-to-point links. Per §9's open question this is preserved as
// warn-only: callers log the mismatch but must still process the packet.
func PointToPointMismatch(ip net.IP, peer string) bool {
	if peer == "" {
		return false
	}
	p := net.ParseIP(peer)
	if p == nil {
		return false
	}
	return !ip.Equal(p)
}

// SizeOK reports whether a received datagram fits within the maximum a
// DhcpMessage can occupy on the wire (§4.3's "size ≤ sizeof(DhcpMessage)").
func SizeOK(n int) bool {
	return n <= dhcpv4.MaxPacketSize
}

// ChaddrMatches reports whether the message's chaddr[0:hwlen] equals the
// interface's own hardware address, when hwlen is within CHAddr's bounds
// (§4.3). hwlen values above 16 are not checked, matching the source's
// "when hwlen ≤ 16" carve-out.
func ChaddrMatches(m *dhcpv4.Message, hwaddr net.HardwareAddr) bool {
	if int(m.HLen) > 16 {
		return true
	}
	n := int(m.HLen)
	if n > len(hwaddr) {
		return false
	}
	return bytes.Equal(m.CHAddr[:n], hwaddr[:n])
}

// AcceptInbound applies the §4.3 acceptance rules once size/cookie/xid/
// chaddr filtering has already passed. msgType is MessageTypeDiscover's
// zero value's sibling: 0 when option 53 was absent (a BOOTP reply).
func AcceptInbound(m *dhcpv4.Message, opts dhcpv4.DecodedOptions, msgType dhcpv4.MessageType, requireMask []dhcpv4.OptionCode) bool {
	for _, code := range requireMask {
		if code == dhcpv4.OptionServerIdentifier && msgType == 0 {
			// A BOOTP reply is exempt from requiring the server-id.
			continue
		}
		if opts.Lookup(code).Kind != dhcpv4.Present {
			return false
		}
	}

	if msgType == 0 || msgType == dhcpv4.MessageTypeOffer || msgType == dhcpv4.MessageTypeAck {
		if isZeroOrBroadcast(m.CIAddr) && isZeroOrBroadcast(m.YIAddr) {
			return false
		}
	}

	if msgType == dhcpv4.MessageTypeNak {
		for _, code := range requireMask {
			if code == dhcpv4.OptionServerIdentifier {
				return opts.Lookup(dhcpv4.OptionServerIdentifier).Kind == dhcpv4.Present
			}
		}
	}

	return true
}

func isZeroOrBroadcast(ip net.IP) bool {
	ip4 := ip.To4()
	if ip4 == nil {
		return true
	}
	return ip4.Equal(net.IPv4zero) || ip4.Equal(net.IPv4bcast)
}
