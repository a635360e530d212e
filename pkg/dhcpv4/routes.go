package dhcpv4

import (
	"fmt"
	"net"
)

// CIDRRoute is one route entry: a destination network reached via gateway.
// A Bits of 0 with a zero Dest is the default route.
type CIDRRoute struct {
	Dest    net.IP
	Bits    int
	Gateway net.IP
}

// DecodeClasslessRoutes parses an RFC 3442 classless static route option
// (option 121, and its Microsoft option 249 twin) payload: a sequence of
// (cidr-width-byte, significant dest octets, 4-byte gateway) tuples. A
// cidr width above 32 or a payload that ends mid-tuple is an error.
func DecodeClasslessRoutes(data []byte) ([]CIDRRoute, error) {
	var routes []CIDRRoute
	i := 0
	for i < len(data) {
		bits := int(data[i])
		i++
		if bits > 32 {
			return nil, fmt.Errorf("dhcpv4: classless route width %d exceeds 32", bits)
		}
		destLen := (bits + 7) / 8
		if i+destLen+4 > len(data) {
			return nil, fmt.Errorf("dhcpv4: classless route entry truncated")
		}
		destBytes := make([]byte, 4)
		copy(destBytes, data[i:i+destLen])
		i += destLen

		gw := net.IP(append(net.IP{}, data[i:i+4]...))
		i += 4

		routes = append(routes, CIDRRoute{
			Dest:    net.IPv4(destBytes[0], destBytes[1], destBytes[2], destBytes[3]),
			Bits:    bits,
			Gateway: gw,
		})
	}
	return routes, nil
}

// EncodeClasslessRoutes serializes routes back to RFC 3442 wire form,
// writing only the significant destination octets per route.
func EncodeClasslessRoutes(routes []CIDRRoute) []byte {
	var buf []byte
	for _, r := range routes {
		destLen := (r.Bits + 7) / 8
		dest := IPToBytes(r.Dest)
		buf = append(buf, byte(r.Bits))
		buf = append(buf, dest[:destLen]...)
		buf = append(buf, IPToBytes(r.Gateway)...)
	}
	return buf
}

// classfulBits returns the implicit prefix length of a class A/B/C address
// per the legacy (pre-CIDR) convention options 3 and 33 rely on.
func classfulBits(ip net.IP) int {
	ip4 := ip.To4()
	if ip4 == nil {
		return 0
	}
	switch {
	case ip4[0] < 128:
		return 8
	case ip4[0] < 192:
		return 16
	default:
		return 24
	}
}

// InferLegacyRoutes builds routes from the legacy option 33 (static routes,
// destination/gateway pairs with an implicit classful netmask, narrowed
// against any set host bits) and option 3 (routers, each becoming a default
// route). Per §4.1, this inference is used only when neither option 121 nor
// option 249 is present — a classless route option always wins outright
// over these when both are present.
func InferLegacyRoutes(staticRoutePairs []net.IP, routers []net.IP) []CIDRRoute {
	var routes []CIDRRoute

	for i := 0; i+1 < len(staticRoutePairs); i += 2 {
		dest := staticRoutePairs[i]
		gw := staticRoutePairs[i+1]
		bits := classfulBits(dest)
		routes = append(routes, CIDRRoute{Dest: maskToBits(dest, bits), Bits: bits, Gateway: gw})
	}

	for _, gw := range routers {
		routes = append(routes, CIDRRoute{Dest: net.IPv4zero, Bits: 0, Gateway: gw})
	}

	return routes
}

// maskToBits zero-fills the host portion of ip below the given classful
// prefix width, narrowing the destination against any set host bits.
func maskToBits(ip net.IP, bits int) net.IP {
	ip4 := ip.To4()
	if ip4 == nil {
		return ip
	}
	mask := net.CIDRMask(bits, 32)
	return ip4.Mask(mask)
}
