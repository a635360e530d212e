package dhcpv4

import (
	"fmt"
	"net"
)

// SixRD is the decoded form of an RFC 5969 6rd option (option 212): the
// fixed 18-byte prefix description followed by one or more IPv4 border
// relay addresses.
type SixRD struct {
	IPv4MaskLen    byte
	SixRDPrefixLen byte
	SixRDPrefix    net.IP
	BorderRelays   []net.IP
}

// DecodeSixRD decodes an RFC 5969 §7.1.1 option 212 payload: a 1-byte IPv4
// mask length, a 1-byte 6rd prefix length, a 16-byte IPv6 prefix, then N
// 4-byte IPv4 border relay addresses.
func DecodeSixRD(data []byte) (*SixRD, error) {
	const fixedLen = 1 + 1 + 16
	if len(data) < fixedLen {
		return nil, fmt.Errorf("dhcpv4: 6rd option too short: %d bytes, need at least %d", len(data), fixedLen)
	}
	rest := data[fixedLen:]
	if len(rest) == 0 || len(rest)%4 != 0 {
		return nil, fmt.Errorf("dhcpv4: 6rd border relay list length %d not a multiple of 4", len(rest))
	}
	return &SixRD{
		IPv4MaskLen:    data[0],
		SixRDPrefixLen: data[1],
		SixRDPrefix:    net.IP(append(net.IP{}, data[2:18]...)),
		BorderRelays:   BytesToIPList(rest),
	}, nil
}

// Encode serializes s back to RFC 5969 wire form.
func (s *SixRD) Encode() []byte {
	buf := make([]byte, 0, 18+len(s.BorderRelays)*4)
	buf = append(buf, s.IPv4MaskLen, s.SixRDPrefixLen)
	prefix := s.SixRDPrefix.To16()
	if prefix == nil {
		prefix = make(net.IP, 16)
	}
	buf = append(buf, prefix...)
	buf = append(buf, IPListToBytes(s.BorderRelays)...)
	return buf
}
