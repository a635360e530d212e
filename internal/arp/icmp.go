package arp

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// icmpProbeTimeout bounds how long the ICMP fallback waits for an echo
// reply, matching probeTimeout's ARP budget.
const icmpProbeTimeout = 2 * time.Second

// onLinkSubnet reports whether addr falls inside any IPv4 network configured
// on iface, whatever its prefix length (true also when iface or its
// addresses cannot be read), the cheap approximation of "ARP can reach this
// address" this package uses to decide whether to fall back to ICMP.
func onLinkSubnet(iface string, addr net.IP) bool {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return true
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return true
	}
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok || ipn.IP.To4() == nil {
			continue
		}
		if ipn.Contains(addr) {
			return true
		}
	}
	return false
}

// icmpProbe sends an ICMP echo request to addr and reports whether a reply
// arrived, the fallback conflict check for addresses a relay put on a
// subnet ARP can't reach directly (RFC 792; no broadcast domain in common
// with the client).
func icmpProbe(ctx context.Context, addr net.IP) (bool, error) {
	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return false, fmt.Errorf("arp: opening icmp socket: %w", err)
	}
	defer conn.Close()

	deadline, cancel := context.WithTimeout(ctx, icmpProbeTimeout)
	defer cancel()
	if d, ok := deadline.Deadline(); ok {
		if err := conn.SetDeadline(d); err != nil {
			return false, fmt.Errorf("arp: setting icmp deadline: %w", err)
		}
	}

	msg := &icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  1,
			Data: []byte("dhcpcd-probe"),
		},
	}
	raw, err := msg.Marshal(nil)
	if err != nil {
		return false, fmt.Errorf("arp: marshaling icmp echo: %w", err)
	}
	if _, err := conn.WriteTo(raw, &net.IPAddr{IP: addr}); err != nil {
		return false, fmt.Errorf("arp: sending icmp echo to %s: %w", addr, err)
	}

	buf := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return false, nil
			}
			return false, fmt.Errorf("arp: reading icmp reply: %w", err)
		}
		reply, err := icmp.ParseMessage(1, buf[:n])
		if err != nil {
			continue
		}
		if reply.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		if peerIP, ok := peer.(*net.IPAddr); !ok || !peerIP.IP.Equal(addr) {
			continue
		}
		return true, nil
	}
}
