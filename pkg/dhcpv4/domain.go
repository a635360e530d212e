package dhcpv4

import (
	"fmt"

	"github.com/miekg/dns"
)

// maxDomainSearchDepth bounds how many names DecodeDomainSearch will ever
// unpack from a single option payload, as a backstop against adversarial
// compression-pointer loops beyond what offset validation already rejects.
const maxDomainSearchDepth = 64

// DecodeDomainSearch decodes an RFC 3397 domain search list (option 119):
// a sequence of DNS names using RFC 1035 label encoding, where a
// compression pointer may only point backwards within the option's own
// payload (never into the rest of the packet — there is no "rest of the
// packet" at this layer).
func DecodeDomainSearch(data []byte) ([]string, error) {
	var names []string
	off := 0
	for off < len(data) {
		if len(names) >= maxDomainSearchDepth {
			return nil, fmt.Errorf("dhcpv4: domain search option exceeds %d names", maxDomainSearchDepth)
		}
		name, next, err := dns.UnpackDomainName(data, off)
		if err != nil {
			return nil, fmt.Errorf("dhcpv4: domain search option: %w", err)
		}
		if next <= off {
			return nil, fmt.Errorf("dhcpv4: domain search option: non-advancing pointer at offset %d", off)
		}
		names = append(names, name)
		off = next
	}
	return names, nil
}

// EncodeDomainSearch serializes names back to RFC 3397 wire form without
// compression; dhcpv4 never emits compressed domain search lists, only
// decodes them.
func EncodeDomainSearch(names []string) ([]byte, error) {
	var buf []byte
	for _, name := range names {
		packed := make([]byte, 255+len(name))
		n, err := dns.PackDomainName(name, packed, 0, nil, false)
		if err != nil {
			return nil, fmt.Errorf("dhcpv4: encoding domain %q: %w", name, err)
		}
		buf = append(buf, packed[:n]...)
	}
	return buf, nil
}
