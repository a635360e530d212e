// Package dhcpclient implements the per-interface DHCPv4 client state
// machine: message construction, the DHCS automaton, retransmission and NAK
// backoff, lease persistence, inbound filtering, and hook environment
// export. It depends only on pkg/dhcpv4 for the wire codec and on the
// collaborator interfaces declared in interfaces.go — never on a concrete
// event loop, socket, ARP prober, address shim, script runner, or IPv4LL
// implementation.
package dhcpclient

import (
	"net"
	"time"

	"github.com/mcingel/dhcpcd/pkg/dhcpv4"
)

// State is one node of the DHCS automaton (§4.3).
type State int

const (
	StateInit State = iota
	StateDiscover
	StateRequest
	StateRenew
	StateRebind
	StateReboot
	StateInform
	StateProbe
	StateRelease
	StateDecline
	StateBound
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateDiscover:
		return "DISCOVER"
	case StateRequest:
		return "REQUEST"
	case StateRenew:
		return "RENEW"
	case StateRebind:
		return "REBIND"
	case StateReboot:
		return "REBOOT"
	case StateInform:
		return "INFORM"
	case StateProbe:
		return "PROBE"
	case StateRelease:
		return "RELEASE"
	case StateDecline:
		return "DECLINE"
	case StateBound:
		return "BOUND"
	default:
		return "UNKNOWN"
	}
}

// Reason is the short tag handed to the hook script describing why a bind
// (or drop) happened.
type Reason string

const (
	ReasonBound   Reason = "BOUND"
	ReasonRenew   Reason = "RENEW"
	ReasonRebind  Reason = "REBIND"
	ReasonReboot  Reason = "REBOOT"
	ReasonStatic  Reason = "STATIC"
	ReasonIPv4LL  Reason = "IPV4LL"
	ReasonInform  Reason = "INFORM"
	ReasonTimeout Reason = "TIMEOUT"
	ReasonTest    Reason = "TEST"
	ReasonRelease Reason = "RELEASE"
	ReasonNak     Reason = "NAK"
	ReasonExpire  Reason = "EXPIRE"
)

// Lease is the parsed form of a bound (or cached) DHCP lease, derived from a
// raw ACK/BOOTP reply message by NewLease (§3's get_lease invariants).
type Lease struct {
	Addr        net.IP
	Net         net.IPMask
	Brd         net.IP
	Server      net.IP
	LeaseTime   uint32 // seconds; dhcpv4.InfiniteLease means forever
	RenewalTime uint32
	RebindTime  uint32
	Cookie      [4]byte
	BoundTime   time.Time // monotonic reference for timer arming
	LeasedFrom  time.Time // wall-clock; not stored in the lease file
	FromInfo    bool      // true if reconstructed from an on-disk lease file
}

// IsBootp reports whether the lease was derived from a message lacking a
// valid DHCP magic cookie, i.e. a BOOTP reply.
func (l *Lease) IsBootp() bool {
	return l.Cookie != dhcpv4.MagicCookie
}

// IsInfinite reports whether the lease never expires.
func (l *Lease) IsInfinite() bool {
	return l.LeaseTime == dhcpv4.InfiniteLease
}

// NewLease builds a Lease from a decoded ACK/BOOTP-reply message and its
// options, applying the §3 invariants: mask inference, broadcast inference,
// T1/T2 defaulting and clamping, and the minimum lease floor.
func NewLease(m *dhcpv4.Message, opts dhcpv4.DecodedOptions, now time.Time) *Lease {
	l := &Lease{
		Addr:       append(net.IP{}, m.YIAddr...),
		Server:     append(net.IP{}, m.SIAddr...),
		Cookie:     m.Cookie,
		BoundTime:  now,
		LeasedFrom: now,
	}

	if r := opts.Lookup(dhcpv4.OptionSubnetMask); r.Kind == dhcpv4.Present {
		l.Net = net.IPMask(r.Data)
	} else {
		bits := classfulBits(l.Addr)
		l.Net = net.CIDRMask(bits, 32)
	}

	if r := opts.Lookup(dhcpv4.OptionBroadcastAddress); r.Kind == dhcpv4.Present {
		l.Brd = dhcpv4.BytesToIP(r.Data)
	} else {
		l.Brd = broadcastOf(l.Addr, l.Net)
	}

	if l.IsBootp() {
		l.LeaseTime = dhcpv4.InfiniteLease
		l.RenewalTime = dhcpv4.InfiniteLease
		l.RebindTime = dhcpv4.InfiniteLease
		return l
	}

	leaseTime := dhcpv4.InfiniteLease
	if r := opts.Lookup(dhcpv4.OptionIPLeaseTime); r.Kind == dhcpv4.Present {
		v, err := dhcpv4.BytesToUint32(r.Data)
		if err == nil {
			leaseTime = v
		}
	}
	if leaseTime != dhcpv4.InfiniteLease && leaseTime < dhcpv4.MinLease {
		leaseTime = dhcpv4.MinLease
	}
	l.LeaseTime = leaseTime

	if l.IsInfinite() {
		l.RenewalTime = dhcpv4.InfiniteLease
		l.RebindTime = dhcpv4.InfiniteLease
		return l
	}

	var renew, rebind uint32
	if r := opts.Lookup(dhcpv4.OptionRenewalTime); r.Kind == dhcpv4.Present {
		if v, err := dhcpv4.BytesToUint32(r.Data); err == nil {
			renew = v
		}
	}
	if r := opts.Lookup(dhcpv4.OptionRebindingTime); r.Kind == dhcpv4.Present {
		if v, err := dhcpv4.BytesToUint32(r.Data); err == nil {
			rebind = v
		}
	}
	// Each of renew/rebind is defaulted independently when absent or
	// out of range, matching original_source/dhcp.c's per-field recompute
	// from the lease time rather than only filling in both when neither
	// is present.
	if renew == 0 || renew > leaseTime {
		renew = leaseTime / 2
	}
	if rebind == 0 || rebind > leaseTime {
		rebind = leaseTime * 7 / 8
	}
	if renew > rebind {
		renew = leaseTime / 2
	}
	l.RenewalTime = renew
	l.RebindTime = rebind
	return l
}

// classfulBits returns the classful mask width (8/16/24) for an address, the
// same rule pkg/dhcpv4/routes.go uses for legacy route inference.
func classfulBits(ip net.IP) int {
	ip4 := ip.To4()
	if ip4 == nil {
		return 24
	}
	switch {
	case ip4[0] < 128:
		return 8
	case ip4[0] < 192:
		return 16
	default:
		return 24
	}
}

// broadcastOf computes addr | ~net.
func broadcastOf(addr net.IP, mask net.IPMask) net.IP {
	ip4 := addr.To4()
	if ip4 == nil || len(mask) != 4 {
		return net.IPv4bcast
	}
	brd := make(net.IP, 4)
	for i := 0; i < 4; i++ {
		brd[i] = ip4[i] | ^mask[i]
	}
	return brd
}

// IfaceState is the mutable per-interface state block (§3's "Interface
// state"). The engine owns exactly one of these per managed interface.
type IfaceState struct {
	Name string

	State    State
	XID      uint32
	Interval time.Duration // current retransmit window
	NakOff   time.Duration // current NAK backoff

	Claims    int
	Probes    int
	Conflicts int

	Offer *dhcpv4.Message // pending offer, cleared once REQUEST resolves
	New   *dhcpv4.Message // current bound message
	Old   *dhcpv4.Message // previous bound message, retired after the hook runs

	Lease  *Lease
	Reason Reason

	StartUptime time.Time // reference for the secs field
}
