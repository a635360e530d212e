package dhcpv4

import (
	"net"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := &Message{
		Op:     OpBootRequest,
		HType:  HardwareTypeEthernet,
		HLen:   6,
		XID:    0xDEADBEEF,
		Flags:  FlagBroadcast,
		CIAddr: net.IPv4zero,
		YIAddr: net.IPv4zero,
		SIAddr: net.IPv4zero,
		GIAddr: net.IPv4zero,
		Cookie: MagicCookie,
	}
	m.SetHardwareAddr(net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01})
	m.Options = []byte{byte(OptionDHCPMessageType), 1, byte(MessageTypeDiscover), byte(OptionEnd)}

	buf := m.Encode()
	if len(buf) != FixedHeaderSize+CookieSize+len(m.Options) {
		t.Fatalf("Encode length = %d, want %d", len(buf), FixedHeaderSize+CookieSize+len(m.Options))
	}

	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if got.XID != m.XID {
		t.Errorf("XID = %#x, want %#x", got.XID, m.XID)
	}
	if got.Flags != m.Flags {
		t.Errorf("Flags = %#x, want %#x", got.Flags, m.Flags)
	}
	if !got.HasValidCookie() {
		t.Error("decoded message has invalid cookie")
	}
	if got.HardwareAddr().String() != "02:00:00:00:00:01" {
		t.Errorf("HardwareAddr = %s", got.HardwareAddr())
	}
}

func TestEncodeAppendsEndWhenMissing(t *testing.T) {
	m := &Message{Cookie: MagicCookie}
	buf := m.Encode()
	if buf[len(buf)-1] != byte(OptionEnd) {
		t.Error("Encode did not append END option")
	}
}

func TestEncodeDoesNotDuplicateEnd(t *testing.T) {
	m := &Message{Cookie: MagicCookie, Options: []byte{byte(OptionDHCPMessageType), 1, 1, byte(OptionEnd)}}
	buf := m.Encode()
	endCount := 0
	for _, b := range buf[FixedHeaderSize+CookieSize:] {
		if OptionCode(b) == OptionEnd {
			endCount++
		}
	}
	if endCount != 1 {
		t.Errorf("END appears %d times, want 1", endCount)
	}
}

func TestDecodeTooShort(t *testing.T) {
	if _, err := Decode(make([]byte, 10)); err == nil {
		t.Error("expected error for too-short buffer")
	}
}

func TestDecodeShortOfCookieStillSucceeds(t *testing.T) {
	// Exactly the fixed header with no cookie or options — simulates a
	// truncated lease-file read.
	data := make([]byte, FixedHeaderSize)
	m, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if m.HasValidCookie() {
		t.Error("expected invalid cookie for truncated buffer")
	}
	if len(m.Options) != 0 {
		t.Errorf("Options = %v, want empty", m.Options)
	}
}

func TestPadToBootpMin(t *testing.T) {
	buf := make([]byte, 50)
	padded := PadToBootpMin(buf)
	if len(padded) != BootpMinPacketSize {
		t.Errorf("len = %d, want %d", len(padded), BootpMinPacketSize)
	}

	big := make([]byte, BootpMinPacketSize+10)
	if got := PadToBootpMin(big); len(got) != len(big) {
		t.Errorf("PadToBootpMin shrank an already-long buffer")
	}
}

func TestEndOffset(t *testing.T) {
	opts := []byte{byte(OptionDHCPMessageType), 1, 1, byte(OptionEnd), 0, 0, 0}
	if got := EndOffset(opts); got != 4 {
		t.Errorf("EndOffset = %d, want 4", got)
	}
	if got := EndOffset([]byte{1, 2, 3}); got != -1 {
		t.Errorf("EndOffset(no END) = %d, want -1", got)
	}
}
