package dhcpv4

import (
	"net"
	"testing"
)

func TestDecodeSIPServersAddresses(t *testing.T) {
	data := append([]byte{byte(SIPEncodingAddr)}, IPListToBytes([]net.IP{
		net.IPv4(192, 168, 1, 10),
		net.IPv4(192, 168, 1, 11),
	})...)
	names, addrs, err := DecodeSIPServers(data)
	if err != nil {
		t.Fatalf("DecodeSIPServers error: %v", err)
	}
	if names != nil {
		t.Errorf("names = %v, want nil", names)
	}
	if len(addrs) != 2 || !addrs[0].Equal(net.IPv4(192, 168, 1, 10)) {
		t.Errorf("addrs = %v", addrs)
	}
}

func TestDecodeSIPServersNames(t *testing.T) {
	encoded, err := EncodeDomainSearch([]string{"sip.example.com."})
	if err != nil {
		t.Fatalf("EncodeDomainSearch error: %v", err)
	}
	data := append([]byte{byte(SIPEncodingName)}, encoded...)
	names, addrs, err := DecodeSIPServers(data)
	if err != nil {
		t.Fatalf("DecodeSIPServers error: %v", err)
	}
	if addrs != nil {
		t.Errorf("addrs = %v, want nil", addrs)
	}
	if len(names) != 1 || names[0] != "sip.example.com." {
		t.Errorf("names = %v", names)
	}
}

func TestDecodeSIPServersUnknownEncoding(t *testing.T) {
	if _, _, err := DecodeSIPServers([]byte{9, 1, 2, 3, 4}); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestDecodeSIPServersEmpty(t *testing.T) {
	if _, _, err := DecodeSIPServers(nil); err == nil {
		t.Error("expected error for empty option")
	}
}

func TestDecodeSIPServersBadAddrLength(t *testing.T) {
	if _, _, err := DecodeSIPServers([]byte{byte(SIPEncodingAddr), 1, 2, 3}); err == nil {
		t.Error("expected error for non-multiple-of-4 address list")
	}
}
