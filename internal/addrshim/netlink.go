// Package addrshim implements the default dhcpclient.AddressShim: IPv4
// address, netmask, and MTU configuration over NETLINK_ROUTE. Transport
// (dial, sequence numbers, ACK/error handling, multi-part dump draining)
// is handled by mdlayher/netlink's Conn.Execute, the same style the
// retrieval pack uses in internal/ipset/ipset_linux.go for netfilter
// requests; the rtnetlink message bodies themselves (ifaddrmsg/ifinfomsg
// plus attributes) are packed by hand the way the pack's standalone
// gools main.go does it, since no rtnetlink-specific encoder is vendored.
package addrshim

import (
	"encoding/binary"
	"fmt"
	"net"
	"unsafe"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/mcingel/dhcpcd/internal/dhcpclient"
)

// Shim is the default AddressShim.
type Shim struct{}

// NewShim constructs a Shim.
func NewShim() *Shim { return &Shim{} }

func dial() (*netlink.Conn, error) {
	return netlink.Dial(unix.NETLINK_ROUTE, nil)
}

func nlmsgAlign(n int) int { return (n + 3) &^ 3 }

func addAttr(b []byte, typ uint16, v []byte) []byte {
	l := unix.NLA_HDRLEN + len(v)
	pad := nlmsgAlign(l) - l
	var hdr [unix.NLA_HDRLEN]byte
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(l))
	binary.LittleEndian.PutUint16(hdr[2:4], typ)
	b = append(b, hdr[:]...)
	b = append(b, v...)
	if pad > 0 {
		b = append(b, make([]byte, pad)...)
	}
	return b
}

func parseAttrs(b []byte) map[uint16][]byte {
	out := make(map[uint16][]byte)
	for len(b) >= unix.NLA_HDRLEN {
		l := int(binary.LittleEndian.Uint16(b[0:2]))
		typ := binary.LittleEndian.Uint16(b[2:4])
		if l < unix.NLA_HDRLEN || l > len(b) {
			return out
		}
		out[typ] = append([]byte{}, b[unix.NLA_HDRLEN:l]...)
		b = b[nlmsgAlign(l):]
	}
	return out
}

func prefixLen(mask net.IPMask) int {
	ones, _ := mask.Size()
	return ones
}

// ApplyAddr configures lease's address, netmask, and broadcast on iface
// with one RTM_NEWADDR (NLM_F_CREATE|NLM_F_REPLACE: an existing entry for
// this same address is updated in place). Other addresses already on
// iface, such as one from a prior lease, are left as they are.
func (s *Shim) ApplyAddr(iface string, lease *dhcpclient.Lease) error {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return fmt.Errorf("addrshim: looking up interface %s: %w", iface, err)
	}
	addr4 := lease.Addr.To4()
	if addr4 == nil {
		return fmt.Errorf("addrshim: lease address %s is not IPv4", lease.Addr)
	}

	conn, err := dial()
	if err != nil {
		return fmt.Errorf("addrshim: dialing netlink: %w", err)
	}
	defer conn.Close()

	msg := unix.IfAddrmsg{
		Family:    unix.AF_INET,
		Prefixlen: uint8(prefixLen(lease.Net)),
		Index:     uint32(ifi.Index),
		Scope:     unix.RT_SCOPE_UNIVERSE,
	}
	payload := make([]byte, 0, 64)
	payload = append(payload, unsafe.Slice((*byte)(unsafe.Pointer(&msg)), unix.SizeofIfAddrmsg)...)
	payload = addAttr(payload, unix.IFA_LOCAL, addr4)
	payload = addAttr(payload, unix.IFA_ADDRESS, addr4)
	if brd4 := lease.Brd.To4(); brd4 != nil {
		payload = addAttr(payload, unix.IFA_BROADCAST, brd4)
	}

	req := netlink.Message{
		Header: netlink.Header{
			Type:  netlink.HeaderType(unix.RTM_NEWADDR),
			Flags: netlink.Request | netlink.Acknowledge | netlink.Create | netlink.Replace,
		},
		Data: payload,
	}
	if _, err := conn.Execute(req); err != nil {
		return fmt.Errorf("addrshim: RTM_NEWADDR: %w", err)
	}
	return nil
}

// HasAddress reports whether addr is currently configured on iface.
func (s *Shim) HasAddress(iface string, addr net.IP) (bool, error) {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return false, fmt.Errorf("addrshim: looking up interface %s: %w", iface, err)
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return false, fmt.Errorf("addrshim: listing addresses on %s: %w", iface, err)
	}
	for _, a := range addrs {
		if ipn, ok := a.(*net.IPNet); ok && ipn.IP.Equal(addr) {
			return true, nil
		}
	}
	return false, nil
}

// GetAddress returns the first IPv4 address configured on iface, or nil if
// none is set.
func (s *Shim) GetAddress(iface string) (net.IP, error) {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, fmt.Errorf("addrshim: looking up interface %s: %w", iface, err)
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return nil, fmt.Errorf("addrshim: listing addresses on %s: %w", iface, err)
	}
	for _, a := range addrs {
		if ipn, ok := a.(*net.IPNet); ok {
			if v4 := ipn.IP.To4(); v4 != nil {
				return v4, nil
			}
		}
	}
	return nil, nil
}

// GetNetmask returns the netmask currently associated with addr, found by
// dumping the full address list over netlink rather than relying on
// net.Interface.Addrs, which doesn't expose per-address scope/flags.
func (s *Shim) GetNetmask(addr net.IP) (net.IPMask, error) {
	conn, err := dial()
	if err != nil {
		return nil, fmt.Errorf("addrshim: dialing netlink: %w", err)
	}
	defer conn.Close()

	var rtm unix.IfAddrmsg
	rtm.Family = unix.AF_INET
	payload := unsafe.Slice((*byte)(unsafe.Pointer(&rtm)), unix.SizeofIfAddrmsg)

	req := netlink.Message{
		Header: netlink.Header{
			Type:  netlink.HeaderType(unix.RTM_GETADDR),
			Flags: netlink.Request | netlink.Dump,
		},
		Data: payload,
	}
	replies, err := conn.Execute(req)
	if err != nil {
		return nil, fmt.Errorf("addrshim: RTM_GETADDR: %w", err)
	}

	for _, reply := range replies {
		if len(reply.Data) < unix.SizeofIfAddrmsg {
			continue
		}
		m := *(*unix.IfAddrmsg)(unsafe.Pointer(&reply.Data[0]))
		attrs := parseAttrs(reply.Data[unix.SizeofIfAddrmsg:])
		local, ok := attrs[unix.IFA_LOCAL]
		if !ok || len(local) != 4 || !net.IP(local).Equal(addr) {
			continue
		}
		return net.CIDRMask(int(m.Prefixlen), 32), nil
	}
	return nil, nil
}

// GetMTU returns iface's current MTU.
func (s *Shim) GetMTU(iface string) (int, error) {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return 0, fmt.Errorf("addrshim: looking up interface %s: %w", iface, err)
	}
	return ifi.MTU, nil
}

// SetMTU sets iface's MTU via RTM_NEWLINK/IFLA_MTU.
func (s *Shim) SetMTU(iface string, mtu int) error {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return fmt.Errorf("addrshim: looking up interface %s: %w", iface, err)
	}

	conn, err := dial()
	if err != nil {
		return fmt.Errorf("addrshim: dialing netlink: %w", err)
	}
	defer conn.Close()

	msg := unix.IfInfomsg{
		Family: unix.AF_UNSPEC,
		Index:  int32(ifi.Index),
	}
	payload := make([]byte, 0, 32)
	payload = append(payload, unsafe.Slice((*byte)(unsafe.Pointer(&msg)), unix.SizeofIfInfomsg)...)
	mtuBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(mtuBytes, uint32(mtu))
	payload = addAttr(payload, unix.IFLA_MTU, mtuBytes)

	req := netlink.Message{
		Header: netlink.Header{
			Type:  netlink.HeaderType(unix.RTM_NEWLINK),
			Flags: netlink.Request | netlink.Acknowledge,
		},
		Data: payload,
	}
	if _, err := conn.Execute(req); err != nil {
		return fmt.Errorf("addrshim: RTM_NEWLINK: %w", err)
	}
	return nil
}
