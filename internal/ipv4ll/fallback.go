// Package ipv4ll implements the default dhcpclient.IPv4LLFallback: RFC
// 3927 dynamic link-local address selection for use when no DHCP server
// answers. It is a self-contained subsystem — it owns its own ARP probing
// and address application rather than routing back through the engine's
// state machine, matching the contract's fire-and-forget Start(iface)
// shape (the engine does not track IPv4LL's internal progress).
package ipv4ll

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/mcingel/dhcpcd/internal/dhcpclient"
)

// linkLocalBase and linkLocalSize bound the dynamic configuration range
// RFC 3927 §2.1 reserves: 169.254.1.0 through 169.254.254.255, excluding
// the first and last /24 of the /16.
var linkLocalBase = net.IPv4(169, 254, 1, 0).To4()

const (
	linkLocalHosts   = 254 * 256 // usable host count across the reserved range
	linkLocalMask    = 16
	maxProbeConflicts = 10
	probeRetryDelay  = 100 * time.Millisecond
	announceCount    = 2
	announceInterval = 2 * time.Second
)

// Fallback is the default IPv4LLFallback.
type Fallback struct {
	ARP    dhcpclient.ARPProber
	Addr   dhcpclient.AddressShim
	Script dhcpclient.ScriptRunner
	Logger *slog.Logger

	// HookScript, when non-empty, is invoked after a link-local address is
	// successfully claimed, with Reason=ReasonIPv4LL.
	HookScript string
	HWAddr     net.HardwareAddr
}

// NewFallback constructs a Fallback.
func NewFallback(arp dhcpclient.ARPProber, addr dhcpclient.AddressShim, script dhcpclient.ScriptRunner, hwaddr net.HardwareAddr, hookScript string, logger *slog.Logger) *Fallback {
	return &Fallback{ARP: arp, Addr: addr, Script: script, HWAddr: hwaddr, HookScript: hookScript, Logger: logger}
}

// Start claims a pseudo-random link-local address on iface, probing each
// candidate for conflicts before applying it, then announces it and runs
// the hook script. All of that runs on a new goroutine: Start returns nil
// at once, before any probe has been sent.
func (f *Fallback) Start(iface string) error {
	go f.run(iface)
	return nil
}

func (f *Fallback) run(iface string) {
	seed := seedFromHWAddr(f.HWAddr)
	for attempt := 0; attempt < maxProbeConflicts; attempt++ {
		candidate := candidateAddr(seed, attempt)
		conflict := f.probeSync(iface, candidate)
		if conflict {
			f.Logger.Debug("ipv4ll candidate in use", "iface", iface, "addr", candidate)
			time.Sleep(probeRetryDelay)
			continue
		}
		if err := f.claim(iface, candidate); err != nil {
			f.Logger.Error("ipv4ll claim failed", "iface", iface, "addr", candidate, "error", err)
			return
		}
		f.Logger.Info("ipv4ll address claimed", "iface", iface, "addr", candidate)
		return
	}
	f.Logger.Error("ipv4ll exhausted probe attempts", "iface", iface, "attempts", maxProbeConflicts)
}

func (f *Fallback) probeSync(iface string, addr net.IP) bool {
	done := make(chan bool, 1)
	f.ARP.Probe(context.Background(), iface, addr, func(conflict bool) { done <- conflict })
	return <-done
}

func (f *Fallback) claim(iface string, addr net.IP) error {
	lease := &dhcpclient.Lease{
		Addr:      addr,
		Net:       net.CIDRMask(linkLocalMask, 32),
		Brd:       broadcast(addr),
		LeaseTime: 0,
	}
	if err := f.Addr.ApplyAddr(iface, lease); err != nil {
		return fmt.Errorf("ipv4ll: applying address: %w", err)
	}
	for i := 0; i < announceCount; i++ {
		if err := f.ARP.Announce(iface, addr); err != nil {
			f.Logger.Warn("ipv4ll announce failed", "iface", iface, "addr", addr, "error", err)
		}
		time.Sleep(announceInterval)
	}
	if f.HookScript != "" && f.Script != nil {
		env := []string{
			"ip_address=" + addr.String(),
			"subnet_mask=255.255.0.0",
			"interface=" + iface,
		}
		if err := f.Script.Run(context.Background(), f.HookScript, iface, dhcpclient.ReasonIPv4LL, env); err != nil {
			f.Logger.Warn("ipv4ll hook failed", "iface", iface, "error", err)
		}
	}
	return nil
}

func broadcast(addr net.IP) net.IP {
	ip4 := addr.To4()
	mask := net.CIDRMask(linkLocalMask, 32)
	brd := make(net.IP, 4)
	for i := 0; i < 4; i++ {
		brd[i] = ip4[i] | ^mask[i]
	}
	return brd
}

// seedFromHWAddr derives a starting offset into the link-local range from
// the interface's hardware address, per RFC 3927 §2.1's guidance to seed
// the pseudo-random selection from information likely to differ between
// hosts.
func seedFromHWAddr(hw net.HardwareAddr) uint32 {
	if len(hw) == 0 {
		return 1
	}
	var v uint32
	for _, b := range hw {
		v = v*31 + uint32(b)
	}
	return v
}

// candidateAddr returns the attempt'th candidate address in the reserved
// range, walking forward from seed so repeated attempts on the same
// interface don't retry the same already-conflicting address.
func candidateAddr(seed uint32, attempt int) net.IP {
	offset := (seed + uint32(attempt)) % linkLocalHosts
	b2 := byte(offset / 256)
	b3 := byte(offset % 256)
	return net.IPv4(linkLocalBase[0], linkLocalBase[1], linkLocalBase[2]+b2, b3)
}
