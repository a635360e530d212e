package ipv4ll

import (
	"net"
	"testing"
)

func TestCandidateAddrStaysWithinReservedRange(t *testing.T) {
	seed := seedFromHWAddr(net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01})
	for attempt := 0; attempt < 300; attempt++ {
		addr := candidateAddr(seed, attempt)
		if addr[0] != 169 || addr[1] != 254 {
			t.Fatalf("candidate %v outside 169.254.0.0/16", addr)
		}
		if addr[2] == 0 || addr[2] == 255 {
			t.Fatalf("candidate %v falls in the reserved first/last /24", addr)
		}
	}
}

func TestCandidateAddrAdvancesPerAttempt(t *testing.T) {
	seed := seedFromHWAddr(net.HardwareAddr{0x01, 0x02, 0x03, 0x04, 0x05, 0x06})
	a0 := candidateAddr(seed, 0)
	a1 := candidateAddr(seed, 1)
	if a0.Equal(a1) {
		t.Error("expected successive attempts to yield different candidates")
	}
}

func TestSeedFromHWAddrEmptyFallsBackToOne(t *testing.T) {
	if got := seedFromHWAddr(nil); got != 1 {
		t.Errorf("seedFromHWAddr(nil) = %d, want 1", got)
	}
}

func TestSeedFromHWAddrVariesByAddress(t *testing.T) {
	a := seedFromHWAddr(net.HardwareAddr{0x01, 0x02, 0x03, 0x04, 0x05, 0x06})
	b := seedFromHWAddr(net.HardwareAddr{0x06, 0x05, 0x04, 0x03, 0x02, 0x01})
	if a == b {
		t.Error("expected different hardware addresses to seed differently")
	}
}

func TestBroadcastAppliesLinkLocalMask(t *testing.T) {
	addr := net.IPv4(169, 254, 12, 34).To4()
	brd := broadcast(addr)
	want := net.IPv4(169, 254, 255, 255).To4()
	if !brd.Equal(want) {
		t.Errorf("broadcast(%v) = %v, want %v", addr, brd, want)
	}
}
