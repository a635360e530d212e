package dhcpclient

import (
	"context"
	"net"
	"time"
)

// TimerCallback is invoked by an EventLoop when a timer fires. iface names
// the interface the timer was armed for.
type TimerCallback func(iface string)

// EventLoop is the single-threaded scheduling primitive the engine drives
// itself from (§6). All callbacks are invoked synchronously from the loop's
// own goroutine; the engine never receives concurrent callbacks and never
// needs its own locking.
type EventLoop interface {
	// AddTimer arms cb to fire once after d, keyed by (cb, iface) for later
	// cancellation. Implementations must support arming multiple distinct
	// timers for the same interface concurrently.
	AddTimer(d time.Duration, iface string, cb TimerCallback)
	// DeleteTimer cancels every armed timer for iface matching cb. A nil cb
	// cancels every timer for iface regardless of callback.
	DeleteTimer(iface string, cb TimerCallback)
	// AddFD registers fd for read-readiness notification, invoking cb from
	// the loop goroutine whenever it becomes readable.
	AddFD(fd int, cb func())
	// DeleteFD unregisters fd.
	DeleteFD(fd int)
	// Run blocks, driving the loop until ctx is cancelled.
	Run(ctx context.Context) error
}

// SocketFactory is the send/receive I/O collaborator (§6): raw L2 for
// unconfigured broadcast traffic, UDP for unicast renew.
type SocketFactory interface {
	OpenRaw(iface string) (fd int, err error)
	OpenUDP(iface string) (fd int, err error)
	SendRaw(iface string, payload []byte) error
	SendUDP(iface string, dst net.IP, payload []byte) error
	// RecvRaw reads one frame from the raw socket identified by fd,
	// reporting whether the kernel's partial-checksum offload flag was set
	// on it.
	RecvRaw(fd int, buf []byte) (n int, partialCsum bool, err error)
	// ValidUDP validates buf as an IPv4/UDP datagram addressed to the DHCP
	// client port, honoring partialCsum, and returns the sender and the UDP
	// payload slice within buf.
	ValidUDP(buf []byte, n int, partialCsum bool) (from net.IP, payload []byte, ok bool)
}

// ARPProber is the duplicate-address-detection collaborator (§6).
type ARPProber interface {
	// Probe sends ARP probes for addr on iface and reports, via the
	// callback, whether a conflicting reply arrived (conflict=true) or the
	// probe window elapsed cleanly (conflict=false, claim complete).
	Probe(ctx context.Context, iface string, addr net.IP, onResult func(conflict bool))
	// Announce sends a gratuitous ARP for addr on iface.
	Announce(iface string, addr net.IP) error
}

// AddressShim is the platform IPv4 address-application collaborator (§6).
type AddressShim interface {
	HasAddress(iface string, addr net.IP) (bool, error)
	ApplyAddr(iface string, lease *Lease) error
	GetAddress(iface string) (net.IP, error)
	GetNetmask(addr net.IP) (net.IPMask, error)
	GetMTU(iface string) (int, error)
	SetMTU(iface string, mtu int) error
}

// ScriptRunner is the user hook script collaborator (§6).
type ScriptRunner interface {
	Run(ctx context.Context, script, iface string, reason Reason, env []string) error
}

// IPv4LLFallback is the link-local address fallback collaborator (§6),
// entered when DISCOVER exhausts its retries and static fallback isn't
// configured.
type IPv4LLFallback interface {
	Start(iface string) error
}
