package dhcpv4

import (
	"fmt"
	"strings"
)

// FQDNFlag bits for the Client FQDN option (RFC 4702 §2.1).
type FQDNFlag byte

const (
	FQDNFlagServerUpdate FQDNFlag = 0x01 // S: server should perform the update
	FQDNFlagEncodingRaw  FQDNFlag = 0x04 // E: name is binary, not RFC 1035 encoded
	FQDNFlagOverride     FQDNFlag = 0x08 // O: server overrode the client's S setting
	FQDNFlagNoUpdate     FQDNFlag = 0x10 // N: server should not perform any update
)

// ClientFQDN is the decoded form of option 81.
type ClientFQDN struct {
	Flags FQDNFlag
	Name  string
}

// DecodeClientFQDN decodes option 81: a 1-byte flags field, two reserved
// bytes (RCODE1/RCODE2, historically always zero on the wire and ignored
// here), and the name itself in raw ASCII (flag E set) or RFC 1035 label
// form.
func DecodeClientFQDN(data []byte) (*ClientFQDN, error) {
	if len(data) < 3 {
		return nil, fmt.Errorf("dhcpv4: client FQDN option too short: %d bytes", len(data))
	}
	flags := FQDNFlag(data[0])
	nameBytes := data[3:]

	var name string
	if flags&FQDNFlagEncodingRaw != 0 {
		name = string(nameBytes)
	} else {
		names, err := DecodeDomainSearch(nameBytes)
		if err != nil {
			return nil, fmt.Errorf("dhcpv4: client FQDN name: %w", err)
		}
		if len(names) > 0 {
			name = strings.TrimSuffix(names[0], ".")
		}
	}
	return &ClientFQDN{Flags: flags, Name: name}, nil
}

// EncodeClientFQDN serializes a client-originated FQDN request. Per §9's
// open question, the flag byte reproduces the historical behavior exactly
// rather than reinterpreting RFC 4702: it forces E (raw encoding) high and
// preserves only the caller's S and O bits, i.e.
// (fqdn & (FQDNFlagServerUpdate|FQDNFlagOverride)) | FQDNFlagEncodingRaw —
// confirmed unchanged by the §4.2 builder contract. The name itself is
// still written as RFC 1035 labels regardless of the forced E bit, matching
// the original encoder's unconditional label-encoding call; a bad E bit on
// the wire and a label-encoded name is the preserved historical quirk, not
// a new design choice.
func EncodeClientFQDN(fqdn FQDNFlag, name string) []byte {
	flags := (fqdn & (FQDNFlagServerUpdate | FQDNFlagOverride)) | FQDNFlagEncodingRaw
	buf := make([]byte, 3, 3+len(name))
	buf[0] = byte(flags)
	buf = append(buf, EncodeRFC1035Name(name)...)
	return buf
}

// EncodeRFC1035Name encodes a dotted name into RFC 1035 length-prefixed
// labels with a terminating zero-length label; a trailing dot on name is
// ignored rather than producing an empty trailing label.
func EncodeRFC1035Name(name string) []byte {
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return []byte{0}
	}
	labels := strings.Split(name, ".")
	buf := make([]byte, 0, len(name)+2)
	for _, label := range labels {
		buf = append(buf, byte(len(label)))
		buf = append(buf, []byte(label)...)
	}
	buf = append(buf, 0)
	return buf
}
