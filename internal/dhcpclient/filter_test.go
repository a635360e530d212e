package dhcpclient

import (
	"net"
	"testing"

	"github.com/mcingel/dhcpcd/internal/config"
	"github.com/mcingel/dhcpcd/pkg/dhcpv4"
)

func TestMatchesPrefix(t *testing.T) {
	prefix := net.ParseIP("192.168.1.0")
	mask := net.ParseIP("255.255.255.0")
	if !MatchesPrefix(net.ParseIP("192.168.1.42"), prefix, mask) {
		t.Error("expected 192.168.1.42 to match 192.168.1.0/24")
	}
	if MatchesPrefix(net.ParseIP("192.168.2.42"), prefix, mask) {
		t.Error("expected 192.168.2.42 not to match 192.168.1.0/24")
	}
}

func TestSourceAllowedWhitelistTakesPrecedence(t *testing.T) {
	whitelist := []config.PrefixEntry{{Prefix: "10.0.0.0", Mask: "255.0.0.0"}}
	if SourceAllowed(net.ParseIP("192.168.1.1"), whitelist, nil) {
		t.Error("expected non-matching whitelist address to be rejected")
	}
	if !SourceAllowed(net.ParseIP("10.1.2.3"), whitelist, nil) {
		t.Error("expected matching whitelist address to be allowed")
	}
}

func TestSourceAllowedBlacklistWhenNoWhitelist(t *testing.T) {
	blacklist := []config.PrefixEntry{{Prefix: "10.0.0.0", Mask: "255.0.0.0"}}
	if SourceAllowed(net.ParseIP("10.1.2.3"), nil, blacklist) {
		t.Error("expected blacklisted address to be rejected")
	}
	if !SourceAllowed(net.ParseIP("192.168.1.1"), nil, blacklist) {
		t.Error("expected non-blacklisted address to be allowed")
	}
}

func TestPointToPointMismatch(t *testing.T) {
	if PointToPointMismatch(net.ParseIP("1.2.3.4"), "") {
		t.Error("empty peer should never mismatch")
	}
	if !PointToPointMismatch(net.ParseIP("1.2.3.4"), "1.2.3.5") {
		t.Error("expected mismatch against a different peer")
	}
	if PointToPointMismatch(net.ParseIP("1.2.3.4"), "1.2.3.4") {
		t.Error("expected no mismatch against the same peer")
	}
}

func TestSizeOK(t *testing.T) {
	if !SizeOK(dhcpv4.MaxPacketSize) {
		t.Error("expected exactly MaxPacketSize to be OK")
	}
	if SizeOK(dhcpv4.MaxPacketSize + 1) {
		t.Error("expected MaxPacketSize+1 to be rejected")
	}
}

func TestChaddrMatches(t *testing.T) {
	hw := net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}
	m := &dhcpv4.Message{HLen: 6}
	copy(m.CHAddr[:], hw)
	if !ChaddrMatches(m, hw) {
		t.Error("expected matching chaddr to pass")
	}
	other := net.HardwareAddr{0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if ChaddrMatches(m, other) {
		t.Error("expected mismatched chaddr to fail")
	}
}

func TestChaddrMatchesSkipsOversizedHLen(t *testing.T) {
	m := &dhcpv4.Message{HLen: 17}
	if !ChaddrMatches(m, net.HardwareAddr{0x01}) {
		t.Error("expected HLen > 16 to be exempt from chaddr checking")
	}
}
