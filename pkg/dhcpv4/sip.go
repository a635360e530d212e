package dhcpv4

import (
	"fmt"
	"net"
)

// SIPEncoding is the leading byte of option 120 (RFC 3361 §2): it
// disambiguates whether the option carries domain names or literal
// addresses.
type SIPEncoding byte

const (
	SIPEncodingName SIPEncoding = 0
	SIPEncodingAddr SIPEncoding = 1
)

// DecodeSIPServers decodes an RFC 3361 SIP servers option (option 120): a
// leading encoding byte followed either by an RFC 3397-style (compressed)
// domain name list or by a flat array of IPv4 addresses.
func DecodeSIPServers(data []byte) (names []string, addrs []net.IP, err error) {
	if len(data) < 1 {
		return nil, nil, fmt.Errorf("dhcpv4: SIP servers option empty")
	}
	switch SIPEncoding(data[0]) {
	case SIPEncodingName:
		names, err = DecodeDomainSearch(data[1:])
		return names, nil, err
	case SIPEncodingAddr:
		rest := data[1:]
		if len(rest) == 0 || len(rest)%4 != 0 {
			return nil, nil, fmt.Errorf("dhcpv4: SIP servers address list length %d not a multiple of 4", len(rest))
		}
		return nil, BytesToIPList(rest), nil
	default:
		return nil, nil, fmt.Errorf("dhcpv4: SIP servers option unknown encoding %d", data[0])
	}
}
