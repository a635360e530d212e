package dhcpclient

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/mcingel/dhcpcd/internal/config"
	"github.com/mcingel/dhcpcd/pkg/dhcpv4"
)

// cachedLeaseMessage builds the raw ACK-shaped message a prior bind would
// have written to the lease file: addr/mask plus an IP lease time option.
func cachedLeaseMessage(addr, server net.IP, leaseTime uint32) *dhcpv4.Message {
	m := &dhcpv4.Message{
		Op:     dhcpv4.OpBootReply,
		XID:    0xdeadbeef,
		YIAddr: addr.To4(),
		SIAddr: server.To4(),
		Cookie: dhcpv4.MagicCookie,
	}
	opts := make(map[dhcpv4.OptionCode][]byte)
	opts[dhcpv4.OptionDHCPMessageType] = []byte{byte(dhcpv4.MessageTypeAck)}
	opts[dhcpv4.OptionSubnetMask] = []byte{255, 255, 255, 0}
	opts[dhcpv4.OptionIPLeaseTime] = uint32Bytes(leaseTime)
	m.Options = dhcpv4.BuildOptions([]dhcpv4.OptionCode{
		dhcpv4.OptionDHCPMessageType, dhcpv4.OptionSubnetMask, dhcpv4.OptionIPLeaseTime,
	}, opts)
	return m
}

// TestScenarioCInitRebootWithCachedLease is spec scenario C: starting with a
// persisted lease for 192.0.2.10/24 written 500s ago out of a 3600s lease
// brings the engine up in REBOOT, emits a REQUEST with ciaddr=0, option 50
// set and option 54 absent, and — once the server re-confirms the lease on
// ACK — arms the renew/rebind/expiry timers off the ACK's own lease time.
func TestScenarioCInitRebootWithCachedLease(t *testing.T) {
	dir := t.TempDir()
	addr := net.ParseIP("192.0.2.10")
	server := net.ParseIP("192.0.2.1")

	path := LeaseFilePath(dir, "eth0")
	if err := WriteLeaseFile(path, cachedLeaseMessage(addr, server, 3600)); err != nil {
		t.Fatalf("WriteLeaseFile: %v", err)
	}
	staleTime := time.Now().Add(-500 * time.Second)
	if err := os.Chtimes(path, staleTime, staleTime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	eng, loop, sockets, _, _, _ := newTestEngine(t, &config.If{}, dir)
	eng.Start(context.Background())

	if eng.State() != StateReboot {
		t.Fatalf("State() = %v, want REBOOT with a fresh cached lease", eng.State())
	}
	if len(sockets.rawSent) != 1 {
		t.Fatalf("expected one REQUEST sent, got %d", len(sockets.rawSent))
	}
	req := sockets.rawSent[0]
	if req.CIAddr != nil && !req.CIAddr.Equal(net.IPv4zero) {
		t.Errorf("CIAddr = %v, want 0 for INIT-REBOOT", req.CIAddr)
	}
	reqOpts, _ := dhcpv4.ParseOptions(req)
	if res := reqOpts.Lookup(dhcpv4.OptionRequestedIP); res.Kind != dhcpv4.Present || !net.IP(res.Data).Equal(addr.To4()) {
		t.Errorf("expected option 50 = %v, got %v", addr, res)
	}
	if res := reqOpts.Lookup(dhcpv4.OptionServerIdentifier); res.Kind == dhcpv4.Present {
		t.Errorf("expected option 54 absent on an INIT-REBOOT request, got %v", res.Data)
	}

	ack := cachedLeaseMessage(addr, server, 3100)
	ack.XID = req.XID
	ackOpts, _ := dhcpv4.ParseOptions(ack)
	eng.HandleMessage(context.Background(), ack, ackOpts, dhcpv4.MessageTypeAck)

	if eng.State() != StateBound {
		t.Fatalf("State() = %v, want BOUND after the reboot ACK", eng.State())
	}
	durations := loop.durations("eth0")
	if len(durations) != 3 {
		t.Fatalf("expected 3 lease timers armed, got %d: %v", len(durations), durations)
	}
	// RebindTime is whole seconds (uint32), so 3100*7/8 truncates to 2712
	// rather than the mathematical 2712.5.
	want := []time.Duration{1550 * time.Second, 2712 * time.Second, 3100 * time.Second}
	for i, d := range durations {
		if d != want[i] {
			t.Errorf("timer[%d] = %v, want %v", i, d, want[i])
		}
	}
}

// TestScenarioDBootpReply is spec scenario D as this codebase models it: a
// reply with neither the DHCP magic cookie nor a message-type option is
// treated as BOOTP — infinite lease, no lease file written, reason BOUND,
// and no renew timer armed. Lease.IsBootp keys on the cookie alone, so a
// reply that carries the cookie but no option 53 is handled as DHCP.
func TestScenarioDBootpReply(t *testing.T) {
	dir := t.TempDir()
	eng, loop, sockets, addrShim, _, script := newTestEngine(t, &config.If{HookScript: "/bin/true"}, dir)
	eng.Start(context.Background())
	if eng.State() != StateDiscover {
		t.Fatalf("State() = %v, want DISCOVER", eng.State())
	}

	discover := sockets.rawSent[0]
	addr := net.ParseIP("192.0.2.20")
	// No magic cookie and no message-type option: this is what this
	// codebase's IsBootp treats as a BOOTP reply (types.go's NewLease).
	m := &dhcpv4.Message{
		Op:     dhcpv4.OpBootReply,
		XID:    discover.XID,
		YIAddr: addr.To4(),
	}
	opts := make(map[dhcpv4.OptionCode][]byte)
	opts[dhcpv4.OptionSubnetMask] = []byte{255, 255, 255, 0}
	m.Options = dhcpv4.BuildOptions([]dhcpv4.OptionCode{dhcpv4.OptionSubnetMask}, opts)
	decoded, _ := dhcpv4.ParseOptions(m)

	// A BOOTP reply carries no option 53, so HandleMessage in DISCOVER
	// (which acts only on OFFER) would ignore it; the test hands it to
	// HandleOffer directly to stand in for the offer step.
	eng.HandleOffer(context.Background(), m, decoded)
	if eng.State() != StateRequest {
		t.Fatalf("State() = %v, want REQUEST after a BOOTP offer", eng.State())
	}
	eng.HandleMessage(context.Background(), m, decoded, 0)

	if eng.State() != StateBound {
		t.Fatalf("State() = %v, want BOUND after the BOOTP reply", eng.State())
	}
	if eng.state.Reason != ReasonBound {
		t.Errorf("Reason = %v, want BOUND for a BOOTP reply", eng.state.Reason)
	}
	if addrShim.applied == nil || !addrShim.applied.IsInfinite() {
		t.Errorf("expected an infinite lease applied, got %v", addrShim.applied)
	}
	if _, err := os.Stat(LeaseFilePath(dir, "eth0")); !os.IsNotExist(err) {
		t.Errorf("expected no lease file written for a BOOTP reply, stat err = %v", err)
	}
	if durations := loop.durations("eth0"); len(durations) != 0 {
		t.Errorf("expected no lease timers armed for an infinite BOOTP lease, got %v", durations)
	}
	found := false
	for _, r := range script.calls {
		if r == ReasonBound {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a BOUND hook call, got %v", script.calls)
	}
}
