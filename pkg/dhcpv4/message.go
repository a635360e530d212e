package dhcpv4

import (
	"encoding/binary"
	"fmt"
	"net"
)

// FixedHeaderSize is the length in bytes of the BOOTP fixed fields, from op
// up to and including file, not counting the magic cookie (RFC 2131 §2).
const FixedHeaderSize = 236

// CookieSize is the length of the magic cookie that follows the fixed
// header and precedes the options trailer.
const CookieSize = 4

// MinDecodeSize is the shortest buffer Decode can read fixed fields from.
const MinDecodeSize = FixedHeaderSize

// Message is the wire form of a BOOTP/DHCP message (RFC 2131 §2).
//
// Options holds the raw, unparsed options trailer exactly as it appears on
// the wire (or on disk); interpreting it — including the RFC 1533 option
// overload into SName/File — is the option codec's job, not this type's.
type Message struct {
	Op     OpCode
	HType  HardwareType
	HLen   byte
	Hops   byte
	XID    uint32
	Secs   uint16
	Flags  uint16
	CIAddr net.IP
	YIAddr net.IP
	SIAddr net.IP
	GIAddr net.IP
	CHAddr [16]byte
	SName  [64]byte
	File   [128]byte
	Cookie [4]byte

	Options []byte
}

// FlagBroadcast is the single flags bit DHCP defines (RFC 2131 §2).
const FlagBroadcast uint16 = 0x8000

// HardwareAddr returns the significant HLen bytes of CHAddr.
func (m *Message) HardwareAddr() net.HardwareAddr {
	n := int(m.HLen)
	if n > len(m.CHAddr) {
		n = len(m.CHAddr)
	}
	addr := make(net.HardwareAddr, n)
	copy(addr, m.CHAddr[:n])
	return addr
}

// SetHardwareAddr zero-pads hw into CHAddr and sets HLen to the number of
// bytes copied (at most 16). HType is left unchanged.
func (m *Message) SetHardwareAddr(hw net.HardwareAddr) {
	m.CHAddr = [16]byte{}
	n := copy(m.CHAddr[:], hw)
	m.HLen = byte(n)
}

// HasValidCookie reports whether Cookie matches the DHCP magic cookie.
func (m *Message) HasValidCookie() bool {
	return m.Cookie == MagicCookie
}

// Decode parses a raw BOOTP/DHCP message, including whatever bytes of the
// options trailer are present. A buffer shorter than MinDecodeSize is
// rejected with an error; callers that accept truncated input (such as a
// short lease file read) zero-pad it to MinDecodeSize first.
func Decode(data []byte) (*Message, error) {
	if len(data) < MinDecodeSize {
		return nil, fmt.Errorf("dhcpv4: message too short: %d bytes, need at least %d", len(data), MinDecodeSize)
	}

	m := &Message{}
	m.Op = OpCode(data[0])
	m.HType = HardwareType(data[1])
	m.HLen = data[2]
	m.Hops = data[3]
	m.XID = binary.BigEndian.Uint32(data[4:8])
	m.Secs = binary.BigEndian.Uint16(data[8:10])
	m.Flags = binary.BigEndian.Uint16(data[10:12])
	m.CIAddr = net.IP(append(net.IP{}, data[12:16]...))
	m.YIAddr = net.IP(append(net.IP{}, data[16:20]...))
	m.SIAddr = net.IP(append(net.IP{}, data[20:24]...))
	m.GIAddr = net.IP(append(net.IP{}, data[24:28]...))
	copy(m.CHAddr[:], data[28:44])
	copy(m.SName[:], data[44:108])
	copy(m.File[:], data[108:236])

	if len(data) >= FixedHeaderSize+CookieSize {
		copy(m.Cookie[:], data[FixedHeaderSize:FixedHeaderSize+CookieSize])
	}
	if len(data) > FixedHeaderSize+CookieSize {
		m.Options = append([]byte{}, data[FixedHeaderSize+CookieSize:]...)
	}

	return m, nil
}

// Encode serializes m to its wire form: the 236-byte fixed header, the
// magic cookie, the options trailer and a terminating END option if one
// isn't already present. It does not pad to the BOOTP minimum size; callers
// that need that call PadToBootpMin on the result.
func (m *Message) Encode() []byte {
	buf := make([]byte, FixedHeaderSize+CookieSize, FixedHeaderSize+CookieSize+len(m.Options)+1)
	buf[0] = byte(m.Op)
	buf[1] = byte(m.HType)
	buf[2] = m.HLen
	buf[3] = m.Hops
	binary.BigEndian.PutUint32(buf[4:8], m.XID)
	binary.BigEndian.PutUint16(buf[8:10], m.Secs)
	binary.BigEndian.PutUint16(buf[10:12], m.Flags)
	copy(buf[12:16], IPToBytes(m.CIAddr))
	copy(buf[16:20], IPToBytes(m.YIAddr))
	copy(buf[20:24], IPToBytes(m.SIAddr))
	copy(buf[24:28], IPToBytes(m.GIAddr))
	copy(buf[28:44], m.CHAddr[:])
	copy(buf[44:108], m.SName[:])
	copy(buf[108:236], m.File[:])
	copy(buf[236:240], MagicCookie[:])

	buf = append(buf, m.Options...)
	if len(m.Options) == 0 || m.Options[len(m.Options)-1] != byte(OptionEnd) {
		buf = append(buf, byte(OptionEnd))
	}
	return buf
}

// PadToBootpMin zero-pads buf up to BootpMinPacketSize, leaving it
// unchanged if it's already that long or longer.
func PadToBootpMin(buf []byte) []byte {
	if len(buf) >= BootpMinPacketSize {
		return buf
	}
	padded := make([]byte, BootpMinPacketSize)
	copy(padded, buf)
	return padded
}

// EndOffset returns the index one past the terminating END option within a
// raw message trailer (Options field layout, i.e. relative to the start of
// Options), or -1 if none is found. Used by lease persistence to truncate a
// message at the END option before writing it to disk.
func EndOffset(options []byte) int {
	for i, b := range options {
		if OptionCode(b) == OptionEnd {
			return i + 1
		}
	}
	return -1
}
