package dhcpclient

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/mcingel/dhcpcd/internal/config"
	"github.com/mcingel/dhcpcd/internal/metrics"
	"github.com/mcingel/dhcpcd/pkg/dhcpv4"
)

// releaseDrainDelay is the fixed sleep after RELEASE to let the kernel flush
// the outbound packet before the socket is torn down (§5).
const releaseDrainDelay = 10 * time.Millisecond

// Engine drives one managed interface's DHCS automaton. It owns the single
// IfaceState block and is the only writer of it; every method here runs on
// the EventLoop's goroutine, so no locking is needed.
type Engine struct {
	Iface  string
	If     *config.If
	HWAddr net.HardwareAddr
	MTU    int

	LeaseDir string

	Loop    EventLoop
	Sockets SocketFactory
	ARP     ARPProber
	Addr    AddressShim
	Script  ScriptRunner
	IPv4LL  IPv4LLFallback

	Logger *slog.Logger

	state *IfaceState
}

// NewEngine constructs an Engine in StateInit with no lease.
func NewEngine(iface string, ifOpts *config.If, hwaddr net.HardwareAddr, mtu int, leaseDir string,
	loop EventLoop, sockets SocketFactory, arp ARPProber, addrShim AddressShim, script ScriptRunner, ipv4ll IPv4LLFallback,
	logger *slog.Logger) *Engine {
	return &Engine{
		Iface:    iface,
		If:       ifOpts,
		HWAddr:   hwaddr,
		MTU:      mtu,
		LeaseDir: leaseDir,
		Loop:     loop,
		Sockets:  sockets,
		ARP:      arp,
		Addr:     addrShim,
		Script:   script,
		IPv4LL:   ipv4ll,
		Logger:   logger,
		state: &IfaceState{
			Name:        iface,
			State:       StateInit,
			StartUptime: time.Now(),
		},
	}
}

// State returns the current automaton state, for observability/tests.
func (e *Engine) State() State { return e.state.State }

// requestMaskCodes converts the configured int request mask into option
// codes.
func (e *Engine) requestMaskCodes() []dhcpv4.OptionCode {
	codes := make([]dhcpv4.OptionCode, 0, len(e.If.RequestMask))
	for _, v := range e.If.RequestMask {
		codes = append(codes, dhcpv4.OptionCode(v))
	}
	return codes
}

func (e *Engine) requireMaskCodes() []dhcpv4.OptionCode {
	codes := make([]dhcpv4.OptionCode, 0, len(e.If.RequireMask))
	for _, v := range e.If.RequireMask {
		codes = append(codes, dhcpv4.OptionCode(v))
	}
	return codes
}

func (e *Engine) initialInterval() time.Duration {
	if e.If != nil {
		return e.If.InitialIntervalDuration()
	}
	return initialRetransmitInterval
}

func (e *Engine) maxInterval() time.Duration {
	if e.If != nil {
		return e.If.MaxIntervalDuration()
	}
	return maxRetransmitInterval
}

func (e *Engine) transitionTo(s State) {
	old := e.state.State
	e.state.State = s
	metrics.StateTransitions.WithLabelValues(e.Iface, old.String(), s.String()).Inc()
	e.Logger.Info("state transition", "from", old.String(), "to", s.String())
}

// Start runs §4.3's startup sequence: read any cached lease file; if it's
// fresh, enter REBOOT; if it's stale or absent and a static profile is
// configured, fall straight through to STATIC; otherwise begin DISCOVER.
func (e *Engine) Start(ctx context.Context) {
	path := LeaseFilePath(e.LeaseDir, e.Iface)
	msg, mtime, found, err := ReadLeaseFile(path)
	if err != nil {
		e.Logger.Error("reading lease file", "error", err)
	}

	if found {
		opts, perr := dhcpv4.ParseOptions(msg)
		if perr == nil {
			lease := NewLease(msg, opts, time.Now())
			lease.FromInfo = true
			if !IsStale(mtime, lease.LeaseTime, time.Now()) {
				remaining := RemainingLease(mtime, lease.LeaseTime, time.Now())
				lease.LeaseTime = uint32(remaining.Seconds())
				e.state.Lease = lease
				e.state.Old = msg
				e.startReboot(ctx)
				return
			}
		}
	}

	if e.If != nil && e.If.Static != nil {
		e.bindStatic()
		return
	}

	e.transitionTo(StateInit)
	e.startDiscover(ctx)
}

// OnCarrierUp restarts discovery when the link comes back up, per the
// "carrier/link-state awareness" supplemented feature.
func (e *Engine) OnCarrierUp(ctx context.Context) {
	if e.state.State == StateBound {
		return
	}
	e.transitionTo(StateInit)
	e.startDiscover(ctx)
}

// OnCarrierDown cancels all timers and drops to INIT on link loss.
func (e *Engine) OnCarrierDown() {
	e.Loop.DeleteTimer(e.Iface, nil)
	e.transitionTo(StateInit)
}

// --- DISCOVER ---

func (e *Engine) startDiscover(ctx context.Context) {
	e.transitionTo(StateDiscover)
	e.state.XID = NewXID(e.If != nil && e.If.XIDHWAddr, e.HWAddr)
	e.state.Interval = 0
	e.sendDiscover(ctx)
}

func (e *Engine) sendDiscover(ctx context.Context) {
	m := Build(BuildParams{
		Type:        dhcpv4.MessageTypeDiscover,
		XID:         e.state.XID,
		HWAddr:      e.HWAddr,
		CurrentAddr: net.IPv4zero,
		StartUptime: e.state.StartUptime,
		Now:         time.Now(),
		MTU:         e.MTU,
		If:          e.If,
		RequestMask: e.requestMaskCodes(),
	})
	e.transmitBroadcast(m, dhcpv4.MessageTypeDiscover)
	e.armDiscoverRetransmit(ctx)
}

func (e *Engine) armDiscoverRetransmit(ctx context.Context) {
	next := NextRetransmitBounded(e.state.Interval, e.initialInterval(), e.maxInterval())
	if e.state.Interval > 0 && next >= e.maxInterval() {
		e.Logger.Info("discover exhausted, falling back")
		e.fallback(ctx)
		return
	}
	armed := next + jitter()
	if armed < 0 {
		armed = 0
	}
	e.state.Interval = next
	e.Loop.AddTimer(armed, e.Iface, func(string) {
		metrics.Retransmits.WithLabelValues(e.Iface, e.state.State.String()).Inc()
		e.sendDiscover(ctx)
	})
}

// fallback is entered when DISCOVER exhausts its retries: bind the static
// profile if configured, otherwise start the IPv4LL fallback engine.
func (e *Engine) fallback(ctx context.Context) {
	if e.If != nil && e.If.Static != nil {
		e.bindStatic()
		return
	}
	if e.If != nil && e.If.IPv4LL && e.IPv4LL != nil {
		if err := e.IPv4LL.Start(e.Iface); err != nil {
			e.Logger.Error("ipv4ll start failed", "error", err)
		}
		return
	}
	// No fallback configured: keep retrying DISCOVER at the capped interval.
	armed := e.maxInterval() + jitter()
	if armed < 0 {
		armed = 0
	}
	e.Loop.AddTimer(armed, e.Iface, func(string) { e.sendDiscover(ctx) })
}

func (e *Engine) bindStatic() {
	s := e.If.Static
	addr := net.ParseIP(s.Address)
	mask := net.ParseIP(s.Netmask)
	lease := &Lease{
		Addr:        addr,
		Net:         net.IPMask(mask.To4()),
		Brd:         broadcastOf(addr, net.IPMask(mask.To4())),
		LeaseTime:   dhcpv4.InfiniteLease,
		RenewalTime: dhcpv4.InfiniteLease,
		RebindTime:  dhcpv4.InfiniteLease,
		BoundTime:   time.Now(),
		LeasedFrom:  time.Now(),
	}
	e.state.Lease = lease
	e.state.Reason = ReasonStatic
	e.applyAndHook(nil, nil)
	e.transitionTo(StateBound)
}

// --- OFFER -> REQUEST ---

// HandleOffer is invoked by the engine's packet dispatch when an OFFER is
// accepted while in StateDiscover.
func (e *Engine) HandleOffer(ctx context.Context, m *dhcpv4.Message, opts dhcpv4.DecodedOptions) {
	if e.state.State != StateDiscover {
		return
	}
	e.Loop.DeleteTimer(e.Iface, nil)
	e.state.Offer = m
	e.state.Lease = NewLease(m, opts, time.Now())
	e.transitionTo(StateRequest)
	e.state.Interval = 0
	e.sendRequest(ctx)
}

func (e *Engine) sendRequest(ctx context.Context) {
	m := Build(BuildParams{
		Type:        dhcpv4.MessageTypeRequest,
		XID:         e.state.XID,
		HWAddr:      e.HWAddr,
		CurrentAddr: net.IPv4zero,
		Lease:       e.state.Lease,
		StartUptime: e.state.StartUptime,
		Now:         time.Now(),
		MTU:         e.MTU,
		If:          e.If,
		RequestMask: e.requestMaskCodes(),
	})
	e.transmitBroadcast(m, dhcpv4.MessageTypeRequest)
	e.armRequestRetransmit(ctx)
}

func (e *Engine) armRequestRetransmit(ctx context.Context) {
	next := NextRetransmitBounded(e.state.Interval, e.initialInterval(), e.maxInterval())
	armed := next + jitter()
	if armed < 0 {
		armed = 0
	}
	e.state.Interval = next
	e.Loop.AddTimer(armed, e.Iface, func(string) {
		metrics.Retransmits.WithLabelValues(e.Iface, e.state.State.String()).Inc()
		e.sendRequest(ctx)
	})
}

// --- REBOOT ---

func (e *Engine) startReboot(ctx context.Context) {
	e.transitionTo(StateReboot)
	e.state.XID = NewXID(e.If != nil && e.If.XIDHWAddr, e.HWAddr)
	e.state.Interval = 0
	e.sendReboot(ctx)
}

func (e *Engine) sendReboot(ctx context.Context) {
	m := Build(BuildParams{
		Type:        dhcpv4.MessageTypeRequest,
		XID:         e.state.XID,
		HWAddr:      e.HWAddr,
		CurrentAddr: net.IPv4zero, // force option 50, no ciaddr/server-id
		Lease:       e.state.Lease,
		StartUptime: e.state.StartUptime,
		Now:         time.Now(),
		MTU:         e.MTU,
		If:          e.If,
		RequestMask: e.requestMaskCodes(),
		NoServerID:  true,
	})
	e.transmitBroadcast(m, dhcpv4.MessageTypeRequest)
	e.armRebootRetransmit(ctx)
}

func (e *Engine) armRebootRetransmit(ctx context.Context) {
	next := NextRetransmitBounded(e.state.Interval, e.initialInterval(), e.maxInterval())
	if e.state.Interval > 0 && next >= e.maxInterval() {
		e.Logger.Info("reboot exhausted, returning to init")
		if e.If != nil && e.If.IPv4LL && e.state.Lease != nil && e.state.Lease.IsBootp() && e.IPv4LL != nil {
			_ = e.IPv4LL.Start(e.Iface)
			return
		}
		e.transitionTo(StateInit)
		e.startDiscover(ctx)
		return
	}
	armed := next + jitter()
	if armed < 0 {
		armed = 0
	}
	e.state.Interval = next
	e.Loop.AddTimer(armed, e.Iface, func(string) {
		metrics.Retransmits.WithLabelValues(e.Iface, e.state.State.String()).Inc()
		e.sendReboot(ctx)
	})
}

// --- RENEW / REBIND ---

// armLeaseTimers schedules renew (T1), rebind (T2), and expiry relative to
// now, based on the currently bound lease. Infinite leases arm nothing.
func (e *Engine) armLeaseTimers(ctx context.Context) {
	e.Loop.DeleteTimer(e.Iface, nil)
	l := e.state.Lease
	if l == nil || l.IsInfinite() {
		return
	}
	e.Loop.AddTimer(time.Duration(l.RenewalTime)*time.Second, e.Iface, func(string) { e.startRenew(ctx) })
	e.Loop.AddTimer(time.Duration(l.RebindTime)*time.Second, e.Iface, func(string) { e.startRebind(ctx) })
	e.Loop.AddTimer(time.Duration(l.LeaseTime)*time.Second, e.Iface, func(string) { e.expire(ctx) })
}

func (e *Engine) startRenew(ctx context.Context) {
	if e.state.State != StateBound {
		return
	}
	e.transitionTo(StateRenew)
	e.state.XID = NewXID(e.If != nil && e.If.XIDHWAddr, e.HWAddr)
	e.state.Interval = 0
	e.sendRenew(ctx)
}

func (e *Engine) sendRenew(ctx context.Context) {
	addr := e.state.Lease.Addr
	m := Build(BuildParams{
		Type:        dhcpv4.MessageTypeRequest,
		XID:         e.state.XID,
		HWAddr:      e.HWAddr,
		CurrentAddr: addr,
		Lease:       e.state.Lease,
		StartUptime: e.state.StartUptime,
		Now:         time.Now(),
		MTU:         e.MTU,
		If:          e.If,
		RequestMask: e.requestMaskCodes(),
	})
	if err := e.Sockets.SendUDP(e.Iface, e.state.Lease.Server, m.Encode()); err != nil {
		e.Logger.Error("renew send failed", "error", err)
	}
	metrics.MessagesSent.WithLabelValues(e.Iface, dhcpv4.MessageTypeRequest.String()).Inc()

	next := NextRetransmitBounded(e.state.Interval, e.initialInterval(), e.maxInterval())
	armed := next + jitter()
	if armed < 0 {
		armed = 0
	}
	e.state.Interval = next
	e.Loop.AddTimer(armed, e.Iface, func(string) {
		metrics.Retransmits.WithLabelValues(e.Iface, e.state.State.String()).Inc()
		e.sendRenew(ctx)
	})
}

func (e *Engine) startRebind(ctx context.Context) {
	if e.state.State != StateRenew && e.state.State != StateBound {
		return
	}
	e.Loop.DeleteTimer(e.Iface, nil)
	e.transitionTo(StateRebind)
	e.state.Lease.Server = nil
	e.state.XID = NewXID(e.If != nil && e.If.XIDHWAddr, e.HWAddr)
	e.state.Interval = 0
	e.sendRebind(ctx)
	// re-arm expiry since DeleteTimer above cancelled it too: T2 fired
	// RebindTime seconds after bind, so LeaseTime-RebindTime seconds remain.
	if l := e.state.Lease; !l.IsInfinite() && l.LeaseTime >= l.RebindTime {
		e.Loop.AddTimer(time.Duration(l.LeaseTime-l.RebindTime)*time.Second, e.Iface, func(string) { e.expire(ctx) })
	}
}

func (e *Engine) sendRebind(ctx context.Context) {
	addr := e.state.Lease.Addr
	m := Build(BuildParams{
		Type:        dhcpv4.MessageTypeRequest,
		XID:         e.state.XID,
		HWAddr:      e.HWAddr,
		CurrentAddr: addr,
		Lease:       e.state.Lease,
		StartUptime: e.state.StartUptime,
		Now:         time.Now(),
		MTU:         e.MTU,
		If:          e.If,
		RequestMask: e.requestMaskCodes(),
	})
	e.transmitBroadcast(m, dhcpv4.MessageTypeRequest)

	next := NextRetransmitBounded(e.state.Interval, e.initialInterval(), e.maxInterval())
	armed := next + jitter()
	if armed < 0 {
		armed = 0
	}
	e.state.Interval = next
	e.Loop.AddTimer(armed, e.Iface, func(string) {
		metrics.Retransmits.WithLabelValues(e.Iface, e.state.State.String()).Inc()
		e.sendRebind(ctx)
	})
}

func (e *Engine) expire(ctx context.Context) {
	e.Logger.Info("lease expired")
	metrics.LeaseExpirySeconds.WithLabelValues(e.Iface).Set(0)
	e.drop(ctx, ReasonExpire)
}

// --- INFORM ---

func (e *Engine) StartInform(ctx context.Context, addr net.IP) {
	e.transitionTo(StateInform)
	e.state.XID = NewXID(e.If != nil && e.If.XIDHWAddr, e.HWAddr)
	e.state.Lease = &Lease{Addr: addr}
	e.state.Interval = 0
	e.sendInform(ctx, addr)
}

func (e *Engine) sendInform(ctx context.Context, addr net.IP) {
	m := Build(BuildParams{
		Type:        dhcpv4.MessageTypeInform,
		XID:         e.state.XID,
		HWAddr:      e.HWAddr,
		CurrentAddr: addr,
		Lease:       e.state.Lease,
		StartUptime: e.state.StartUptime,
		Now:         time.Now(),
		MTU:         e.MTU,
		If:          e.If,
		RequestMask: e.requestMaskCodes(),
	})
	if err := e.Sockets.SendUDP(e.Iface, net.IPv4bcast, m.Encode()); err != nil {
		e.Logger.Error("inform send failed", "error", err)
	}
	metrics.MessagesSent.WithLabelValues(e.Iface, dhcpv4.MessageTypeInform.String()).Inc()

	next := NextRetransmitBounded(e.state.Interval, e.initialInterval(), e.maxInterval())
	armed := next + jitter()
	if armed < 0 {
		armed = 0
	}
	e.state.Interval = next
	e.Loop.AddTimer(armed, e.Iface, func(string) { e.sendInform(ctx, addr) })
}

// --- RELEASE ---

// Release sends DHCPRELEASE, waits the §5 drain delay, then drops the
// lease and removes the lease file (§8 scenario F). The address itself
// stays configured on the interface (see drop).
func (e *Engine) Release(ctx context.Context) {
	if e.state.Lease == nil {
		return
	}
	e.Loop.DeleteTimer(e.Iface, nil)
	e.transitionTo(StateRelease)
	e.state.XID = NewXID(e.If != nil && e.If.XIDHWAddr, e.HWAddr)
	m := Build(BuildParams{
		Type:        dhcpv4.MessageTypeRelease,
		XID:         e.state.XID,
		HWAddr:      e.HWAddr,
		CurrentAddr: e.state.Lease.Addr,
		Lease:       e.state.Lease,
		StartUptime: e.state.StartUptime,
		Now:         time.Now(),
	})
	if err := e.Sockets.SendUDP(e.Iface, e.state.Lease.Server, m.Encode()); err != nil {
		e.Logger.Error("release send failed", "error", err)
	}
	metrics.MessagesSent.WithLabelValues(e.Iface, dhcpv4.MessageTypeRelease.String()).Inc()
	metrics.Releases.WithLabelValues(e.Iface).Inc()

	time.Sleep(releaseDrainDelay)
	e.drop(ctx, ReasonRelease)
}

// --- DECLINE / PROBE ---

// StartProbe ARP-probes the offered address before binding, per §4.3.
func (e *Engine) StartProbe(ctx context.Context) {
	e.transitionTo(StateProbe)
	e.state.Probes++
	if e.ARP == nil {
		e.finishProbe(ctx, false)
		return
	}
	e.ARP.Probe(ctx, e.Iface, e.state.Lease.Addr, func(conflict bool) {
		e.finishProbe(ctx, conflict)
	})
}

func (e *Engine) finishProbe(ctx context.Context, conflict bool) {
	metrics.ARPProbes.WithLabelValues(e.Iface, boolResult(conflict)).Inc()
	if conflict {
		e.state.Conflicts++
		metrics.ARPConflicts.WithLabelValues(e.Iface).Inc()
		e.decline(ctx)
		return
	}
	e.state.Claims++
	e.bind(ctx, ReasonBound)
}

func boolResult(conflict bool) string {
	if conflict {
		return "conflict"
	}
	return "clean"
}

func (e *Engine) decline(ctx context.Context) {
	e.transitionTo(StateDecline)
	metrics.Declines.WithLabelValues(e.Iface, "arp_conflict").Inc()
	m := Build(BuildParams{
		Type:        dhcpv4.MessageTypeDecline,
		XID:         e.state.XID,
		HWAddr:      e.HWAddr,
		CurrentAddr: net.IPv4zero,
		Lease:       e.state.Lease,
		StartUptime: e.state.StartUptime,
		Now:         time.Now(),
	})
	e.transmitBroadcast(m, dhcpv4.MessageTypeDecline)
	e.state.Lease = nil
	e.transitionTo(StateInit)
	// Rate-limit the DISCOVER restart after a conflict (§7 error class 5).
	e.Loop.AddTimer(e.initialInterval(), e.Iface, func(string) { e.startDiscover(ctx) })
}

// --- NAK handling ---

// HandleNak restarts the interface per §8 scenario B: drop the lease (the
// address stays configured, see drop), unlink the lease file, return to
// INIT, advance the NAK backoff, and rearm discovery after the advanced
// value (1s for the first NAK since the last bind).
func (e *Engine) HandleNak(ctx context.Context) {
	metrics.Naks.WithLabelValues(e.Iface).Inc()
	e.drop(ctx, ReasonNak)
	e.state.NakOff = NextNakBackoff(e.state.NakOff)
	metrics.NakBackoffSeconds.WithLabelValues(e.Iface).Set(e.state.NakOff.Seconds())
	e.Loop.AddTimer(e.state.NakOff, e.Iface, func(string) { e.startDiscover(ctx) })
}

// --- bind / drop ---

// bind applies a successfully negotiated lease: arm timers, persist the
// lease file (or delete it for BOOTP), install the address, run the hook,
// and optionally ARP-announce.
func (e *Engine) bind(ctx context.Context, reason Reason) {
	e.Loop.DeleteTimer(e.Iface, nil)
	e.state.Old = e.state.New
	e.state.New = e.state.Offer
	e.state.Offer = nil
	e.state.Reason = reason
	e.state.NakOff = 0

	path := LeaseFilePath(e.LeaseDir, e.Iface)
	if e.state.Lease != nil && e.state.Lease.IsBootp() {
		if err := DeleteLeaseFile(path); err != nil {
			e.Logger.Error("deleting lease file", "error", err)
		}
	} else if e.state.New != nil {
		if err := WriteLeaseFile(path, e.state.New); err != nil {
			e.Logger.Error("writing lease file", "error", err)
		}
	}

	e.transitionTo(StateBound)
	metrics.Binds.WithLabelValues(e.Iface, string(reason)).Inc()
	if e.state.Lease != nil && !e.state.Lease.IsInfinite() {
		metrics.LeaseExpirySeconds.WithLabelValues(e.Iface).Set(float64(e.state.Lease.LeaseTime))
	} else {
		metrics.LeaseExpirySeconds.WithLabelValues(e.Iface).Set(-1)
	}

	e.armLeaseTimers(ctx)

	var opts dhcpv4.DecodedOptions
	if e.state.New != nil {
		opts, _ = dhcpv4.ParseOptions(e.state.New)
	}
	e.applyAndHook(e.state.New, opts)

	if e.If != nil && e.If.ARPAnnounce && e.ARP != nil && e.state.Lease != nil {
		if err := e.ARP.Announce(e.Iface, e.state.Lease.Addr); err != nil {
			e.Logger.Error("arp announce failed", "error", err)
		}
	}
}

// applyAndHook installs the bound address via the AddressShim and invokes
// the configured hook script with the flattened environment.
func (e *Engine) applyAndHook(m *dhcpv4.Message, opts dhcpv4.DecodedOptions) {
	if e.Addr != nil && e.state.Lease != nil {
		if err := e.Addr.ApplyAddr(e.Iface, e.state.Lease); err != nil {
			e.Logger.Error("applying address", "error", err)
		}
	}
	if e.Script == nil || e.If == nil || e.If.HookScript == "" {
		return
	}
	var env []string
	if m != nil {
		env = FlattenEnv(m, opts, e.state.Lease)
	} else if e.state.Lease != nil {
		env = FlattenEnv(&dhcpv4.Message{}, dhcpv4.DecodedOptions{}, e.state.Lease)
	}
	if err := e.Script.Run(context.Background(), e.If.HookScript, e.Iface, e.state.Reason, env); err != nil {
		e.Logger.Error("hook script failed", "error", err)
	}
}

// drop tears down the current lease: cancel timers, remove the lease file,
// clear the lease state, return to INIT, and run the hook script. The
// address is not removed from the interface; AddressShim has no call for it.
func (e *Engine) drop(ctx context.Context, reason Reason) {
	e.Loop.DeleteTimer(e.Iface, nil)
	path := LeaseFilePath(e.LeaseDir, e.Iface)
	if err := DeleteLeaseFile(path); err != nil {
		e.Logger.Error("deleting lease file", "error", err)
	}
	e.state.Reason = reason
	e.state.Old = e.state.New
	e.state.New = nil
	e.state.Lease = nil
	e.transitionTo(StateInit)

	if e.Script != nil && e.If != nil && e.If.HookScript != "" {
		if err := e.Script.Run(context.Background(), e.If.HookScript, e.Iface, reason, nil); err != nil {
			e.Logger.Error("hook script failed", "error", err)
		}
	}
}

// --- inbound dispatch ---

// HandleMessage is the single inbound entry point: the caller (the raw/UDP
// receive loop, wired up in internal/ioadapter) has already run §4.3's
// filtering and hands the engine a decoded, accepted message.
func (e *Engine) HandleMessage(ctx context.Context, m *dhcpv4.Message, opts dhcpv4.DecodedOptions, msgType dhcpv4.MessageType) {
	metrics.MessagesReceived.WithLabelValues(e.Iface, msgType.String()).Inc()

	if msgType == dhcpv4.MessageTypeNak {
		e.HandleNak(ctx)
		return
	}

	switch e.state.State {
	case StateDiscover:
		if msgType == dhcpv4.MessageTypeOffer {
			e.HandleOffer(ctx, m, opts)
		}
	case StateRequest, StateReboot, StateRenew, StateRebind:
		if msgType == dhcpv4.MessageTypeAck || msgType == 0 {
			e.Loop.DeleteTimer(e.Iface, nil)
			e.state.Offer = m
			e.state.Lease = NewLease(m, opts, time.Now())
			if e.If != nil && e.If.ARPProbe && e.ARP != nil {
				e.StartProbe(ctx)
				return
			}
			reason := ReasonBound
			switch e.state.State {
			case StateReboot:
				reason = ReasonReboot
			case StateRenew:
				reason = ReasonRenew
			case StateRebind:
				reason = ReasonRebind
			}
			if e.state.Lease.IsBootp() {
				reason = ReasonBound
			}
			e.bind(ctx, reason)
		}
	case StateInform:
		if msgType == dhcpv4.MessageTypeAck {
			e.Loop.DeleteTimer(e.Iface, nil)
			e.bind(ctx, ReasonInform)
		}
	}
}

// --- transmit helpers ---

func (e *Engine) transmitBroadcast(m *dhcpv4.Message, msgType dhcpv4.MessageType) {
	if err := e.Sockets.SendRaw(e.Iface, m.Encode()); err != nil {
		e.Logger.Error("raw send failed", "error", err)
		return
	}
	metrics.MessagesSent.WithLabelValues(e.Iface, msgType.String()).Inc()
}
