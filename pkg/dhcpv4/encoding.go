package dhcpv4

import (
	"encoding/binary"
	"fmt"
	"net"
)

// IPToBytes converts a net.IP to a 4-byte slice, or zeroes if ip is nil or
// not an IPv4 address.
func IPToBytes(ip net.IP) []byte {
	ip4 := ip.To4()
	if ip4 == nil {
		return []byte{0, 0, 0, 0}
	}
	return []byte(ip4)
}

// BytesToIP converts a 4-byte slice to a net.IP.
func BytesToIP(b []byte) net.IP {
	if len(b) != 4 {
		return nil
	}
	ip := make(net.IP, 4)
	copy(ip, b)
	return ip
}

// IPListToBytes converts a slice of net.IP to bytes (N*4).
func IPListToBytes(ips []net.IP) []byte {
	buf := make([]byte, 0, len(ips)*4)
	for _, ip := range ips {
		buf = append(buf, IPToBytes(ip)...)
	}
	return buf
}

// BytesToIPList converts bytes to a slice of net.IP (N*4).
func BytesToIPList(b []byte) []net.IP {
	ips := make([]net.IP, 0, len(b)/4)
	for i := 0; i+4 <= len(b); i += 4 {
		ips = append(ips, BytesToIP(b[i:i+4]))
	}
	return ips
}

// Uint16ToBytes converts a uint16 to 2 bytes (big-endian).
func Uint16ToBytes(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

// BytesToUint16 converts 2 bytes to a uint16 (big-endian).
func BytesToUint16(b []byte) (uint16, error) {
	if len(b) != 2 {
		return 0, fmt.Errorf("invalid uint16 length %d: expected 2", len(b))
	}
	return binary.BigEndian.Uint16(b), nil
}

// Uint32ToBytes converts a uint32 to 4 bytes (big-endian).
func Uint32ToBytes(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// BytesToUint32 converts 4 bytes to a uint32 (big-endian).
func BytesToUint32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("invalid uint32 length %d: expected 4", len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

// Int32ToBytes converts an int32 to 4 bytes (big-endian).
func Int32ToBytes(v int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(v))
	return b
}

// BytesToInt32 converts 4 bytes to an int32 (big-endian).
func BytesToInt32(b []byte) (int32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("invalid int32 length %d: expected 4", len(b))
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// IPToUint32 converts a net.IP to a uint32 in host representation of the
// address bytes (big-endian load).
func IPToUint32(ip net.IP) uint32 {
	ip4 := ip.To4()
	if ip4 == nil {
		return 0
	}
	return binary.BigEndian.Uint32(ip4)
}

// Uint32ToIP converts a uint32 back to a net.IP.
func Uint32ToIP(n uint32) net.IP {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, n)
	return net.IPv4(b[0], b[1], b[2], b[3])
}
