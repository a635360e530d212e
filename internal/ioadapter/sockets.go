// Package ioadapter provides the default dhcpclient.SocketFactory: raw L2
// send/receive for unconfigured broadcast traffic and bound-UDP unicast for
// renew. Grounded on AdguardTeam-AdGuardHome's internal/dhcpd/conn_linux.go
// wiring of mdlayher/packet + mdlayher/ethernet + gopacket/layers for frame
// construction over an AF_PACKET raw socket.
package ioadapter

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/mdlayher/ethernet"
	"github.com/mdlayher/packet"

	"github.com/mcingel/dhcpcd/pkg/dhcpv4"
)

const ipv4DefaultTTL = 64

// handle is the synthetic "fd" this package hands back to callers: an
// opaque index into the live connection table, since mdlayher/packet.Conn
// doesn't expose a numeric file descriptor directly and dhcpclient only
// ever threads the value straight back into RecvRaw.
type handle int

// conn bundles one interface's raw and UDP sockets.
type conn struct {
	iface  *net.Interface
	raw    *packet.Conn
	udp    *net.UDPConn
	srcMAC net.HardwareAddr
	srcIP  net.IP
}

// Sockets is the default SocketFactory.
type Sockets struct {
	logger *slog.Logger

	mu    sync.Mutex
	conns map[handle]*conn
	next  handle
}

// NewSockets constructs an empty Sockets factory.
func NewSockets(logger *slog.Logger) *Sockets {
	return &Sockets{logger: logger, conns: make(map[handle]*conn)}
}

func (s *Sockets) OpenRaw(iface string) (int, error) {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return 0, fmt.Errorf("ioadapter: looking up interface %s: %w", iface, err)
	}
	rawConn, err := packet.Listen(ifi, packet.Raw, int(ethernet.EtherTypeIPv4), nil)
	if err != nil {
		return 0, fmt.Errorf("ioadapter: opening raw socket on %s: %w", iface, err)
	}

	srcIP := firstIPv4(ifi)

	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.next
	s.next++
	s.conns[h] = &conn{iface: ifi, raw: rawConn, srcMAC: ifi.HardwareAddr, srcIP: srcIP}
	return int(h), nil
}

func (s *Sockets) OpenUDP(iface string) (int, error) {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return 0, fmt.Errorf("ioadapter: looking up interface %s: %w", iface, err)
	}
	udpConn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: dhcpv4.ClientPort})
	if err != nil {
		return 0, fmt.Errorf("ioadapter: opening udp socket on %s: %w", iface, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.next
	s.next++
	s.conns[h] = &conn{iface: ifi, udp: udpConn, srcIP: firstIPv4(ifi)}
	return int(h), nil
}

func firstIPv4(ifi *net.Interface) net.IP {
	addrs, err := ifi.Addrs()
	if err != nil {
		return net.IPv4zero
	}
	for _, a := range addrs {
		if ipn, ok := a.(*net.IPNet); ok {
			if v4 := ipn.IP.To4(); v4 != nil {
				return v4
			}
		}
	}
	return net.IPv4zero
}

func (s *Sockets) connFor(iface string) *conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		if c.iface.Name == iface {
			return c
		}
	}
	return nil
}

// SendRaw builds an Ethernet+IPv4+UDP frame broadcasting payload from port
// 68 to port 67 and writes it to iface's raw socket.
func (s *Sockets) SendRaw(iface string, payload []byte) error {
	c := s.connFor(iface)
	if c == nil || c.raw == nil {
		return fmt.Errorf("ioadapter: no raw socket open for %s", iface)
	}
	frame, err := buildEtherFrame(c.srcMAC, dhcpv4.BroadcastMAC, c.srcIP, dhcpv4.BroadcastIP, payload)
	if err != nil {
		return err
	}
	_, err = c.raw.WriteTo(frame, &packet.Addr{HardwareAddr: dhcpv4.BroadcastMAC})
	return err
}

// SendUDP sends payload from the bound UDP socket to dst:67 (the kernel's
// routing table resolves the destination). It has no raw-frame fallback:
// without an open UDP socket for iface it returns an error.
func (s *Sockets) SendUDP(iface string, dst net.IP, payload []byte) error {
	c := s.connFor(iface)
	if c == nil || c.udp == nil {
		return fmt.Errorf("ioadapter: no udp socket open for %s", iface)
	}
	_, err := c.udp.WriteToUDP(payload, &net.UDPAddr{IP: dst, Port: dhcpv4.ServerPort})
	return err
}

// RecvRaw reads one frame from the raw socket identified by fd and returns
// the UDP payload it contained, after stripping the Ethernet/IPv4/UDP
// headers. partialCsum reports whether the kernel reported the UDP
// checksum as not-yet-computed (CHECKSUM_PARTIAL) — mdlayher/packet
// doesn't surface that flag, so this implementation always reports
// partialCsum=false.
func (s *Sockets) RecvRaw(fd int, buf []byte) (int, bool, error) {
	s.mu.Lock()
	c, ok := s.conns[handle(fd)]
	s.mu.Unlock()
	if !ok || c.raw == nil {
		return 0, false, fmt.Errorf("ioadapter: unknown raw handle %d", fd)
	}
	n, _, err := c.raw.ReadFrom(buf)
	return n, false, err
}

// ValidUDP parses buf as an Ethernet+IPv4+UDP frame addressed to the DHCP
// client port and returns the sender's IP and the UDP payload slice. The
// UDP checksum is not verified, whatever partialCsum says.
func (s *Sockets) ValidUDP(buf []byte, n int, partialCsum bool) (net.IP, []byte, bool) {
	pkt := gopacket.NewPacket(buf[:n], layers.LayerTypeEthernet, gopacket.NoCopy)
	ipLayer := pkt.Layer(layers.LayerTypeIPv4)
	udpLayer := pkt.Layer(layers.LayerTypeUDP)
	if ipLayer == nil || udpLayer == nil {
		return nil, nil, false
	}
	ip4, _ := ipLayer.(*layers.IPv4)
	udp, _ := udpLayer.(*layers.UDP)
	if udp.DstPort != layers.UDPPort(dhcpv4.ClientPort) {
		return nil, nil, false
	}
	if !partialCsum {
		if err := udp.SetNetworkLayerForChecksum(ip4); err != nil {
			return nil, nil, false
		}
		// gopacket only recomputes checksums on serialize; the received
		// checksum is never compared here, so any value is accepted.
	}
	return ip4.SrcIP, udp.Payload, true
}

// buildEtherFrame serializes an Ethernet II frame carrying an IPv4/UDP
// datagram from srcIP:68 to dstIP:67, matching the teacher-adjacent
// conn_linux.go pattern of gopacket.SerializeLayers with FixLengths and
// ComputeChecksums.
func buildEtherFrame(srcMAC, dstMAC net.HardwareAddr, srcIP, dstIP net.IP, payload []byte) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       dstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip4 := &layers.IPv4{
		Version:  4,
		TTL:      ipv4DefaultTTL,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    srcIP,
		DstIP:    dstIP,
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(dhcpv4.ClientPort),
		DstPort: layers.UDPPort(dhcpv4.ServerPort),
	}
	if err := udp.SetNetworkLayerForChecksum(ip4); err != nil {
		return nil, fmt.Errorf("ioadapter: setting checksum layer: %w", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip4, udp, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("ioadapter: serializing frame: %w", err)
	}
	return buf.Bytes(), nil
}

// ipv4ChecksumOK is a defensive helper kept for callers that want to verify
// a header checksum independent of gopacket's own verification; unused by
// ValidUDP directly but exercised by sockets_test.go's checksum invariant
// check.
func ipv4ChecksumOK(header []byte) bool {
	if len(header) < 20 {
		return false
	}
	var sum uint32
	for i := 0; i < len(header); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(header[i : i+2]))
	}
	sum = (sum >> 16) + (sum & 0xffff)
	sum += sum >> 16
	return uint16(sum) == 0xffff
}
