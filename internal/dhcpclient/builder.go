package dhcpclient

import (
	"net"
	"sort"
	"strings"
	"time"

	"github.com/mcingel/dhcpcd/internal/config"
	"github.com/mcingel/dhcpcd/pkg/dhcpv4"
)

// BuildParams carries everything the builder needs to construct one
// outbound message, per §4.2.
type BuildParams struct {
	Type   dhcpv4.MessageType
	XID    uint32
	HWAddr net.HardwareAddr

	// CurrentAddr is the address presently configured on the interface, or
	// nil/unset if none. It decides whether ciaddr or option 50+54 carries
	// the address being requested.
	CurrentAddr net.IP
	Lease       *Lease

	StartUptime time.Time
	Now         time.Time

	MTU int
	If  *config.If

	RequestMask []dhcpv4.OptionCode

	// NoServerID suppresses option 54 even when option 50 is emitted: the
	// REBOOT/INIT-REBOOT REQUEST carries the cached address but never the
	// server-id (§4.3).
	NoServerID bool
}

// Build constructs the outbound message for p, per §4.2's invariants.
func Build(p BuildParams) *dhcpv4.Message {
	m := &dhcpv4.Message{
		Op:     dhcpv4.OpBootRequest,
		HType:  dhcpv4.HardwareTypeEthernet,
		XID:    p.XID,
		Cookie: dhcpv4.MagicCookie,
	}
	m.SetHardwareAddr(p.HWAddr)

	usingConfiguredAddr := p.CurrentAddr != nil && !p.CurrentAddr.Equal(net.IPv4zero) &&
		p.Lease != nil && p.Lease.Addr.Equal(p.CurrentAddr) &&
		p.Lease.Cookie == dhcpv4.MagicCookie

	switch p.Type {
	case dhcpv4.MessageTypeInform, dhcpv4.MessageTypeRelease:
		if usingConfiguredAddr || (p.CurrentAddr != nil && !p.CurrentAddr.Equal(net.IPv4zero)) {
			m.CIAddr = append(net.IP{}, p.CurrentAddr...)
		} else if p.Type == dhcpv4.MessageTypeInform && p.Lease != nil {
			m.CIAddr = append(net.IP{}, p.Lease.Addr...)
		}
	case dhcpv4.MessageTypeRequest:
		if usingConfiguredAddr {
			m.CIAddr = append(net.IP{}, p.CurrentAddr...)
		}
	}

	broadcastRequested := p.If != nil && p.If.Broadcast
	if broadcastRequested && (m.CIAddr == nil || m.CIAddr.Equal(net.IPv4zero)) &&
		p.Type != dhcpv4.MessageTypeDecline && p.Type != dhcpv4.MessageTypeRelease {
		m.Flags = dhcpv4.FlagBroadcast
	}

	secs := p.Now.Sub(p.StartUptime).Seconds()
	switch {
	case secs < 0:
		m.Secs = 0
	case secs > 0xFFFF:
		m.Secs = 0xFFFF
	default:
		m.Secs = uint16(secs)
	}

	opts := make(map[dhcpv4.OptionCode][]byte)
	var order []dhcpv4.OptionCode

	add := func(code dhcpv4.OptionCode, val []byte) {
		opts[code] = val
		order = append(order, code)
	}

	add(dhcpv4.OptionDHCPMessageType, []byte{byte(p.Type)})

	if p.If != nil && p.If.ClientID != "" {
		add(dhcpv4.OptionClientIdentifier, []byte(p.If.ClientID))
	}

	wantsRequestedAddr := (p.Type == dhcpv4.MessageTypeDecline || p.Type == dhcpv4.MessageTypeRequest) &&
		p.Lease != nil && !usingConfiguredAddr

	switch p.Type {
	case dhcpv4.MessageTypeRelease:
		if p.Lease != nil {
			add(dhcpv4.OptionServerIdentifier, dhcpv4.IPToBytes(p.Lease.Server))
		}
	case dhcpv4.MessageTypeDecline:
		if wantsRequestedAddr {
			add(dhcpv4.OptionRequestedIP, dhcpv4.IPToBytes(p.Lease.Addr))
			add(dhcpv4.OptionServerIdentifier, dhcpv4.IPToBytes(p.Lease.Server))
		}
		add(dhcpv4.OptionMessage, []byte("Duplicate address detected"))
	case dhcpv4.MessageTypeRequest:
		if wantsRequestedAddr {
			add(dhcpv4.OptionRequestedIP, dhcpv4.IPToBytes(p.Lease.Addr))
			if !p.NoServerID {
				add(dhcpv4.OptionServerIdentifier, dhcpv4.IPToBytes(p.Lease.Server))
			}
		}
	case dhcpv4.MessageTypeDiscover:
		if p.If != nil && p.If.RequestAddress != "" {
			if addr := net.ParseIP(p.If.RequestAddress); addr != nil {
				add(dhcpv4.OptionRequestedIP, dhcpv4.IPToBytes(addr))
			}
		}
	}

	if p.Type == dhcpv4.MessageTypeDiscover || p.Type == dhcpv4.MessageTypeInform || p.Type == dhcpv4.MessageTypeRequest {
		mtu := p.MTU
		if mtu < 576 {
			mtu = 576
		}
		if mtu > 1500 {
			mtu = 1500
		}
		add(dhcpv4.OptionMaxDHCPMessageSize, dhcpv4.Uint16ToBytes(uint16(mtu)))

		if p.If != nil {
			if p.If.UserClass != "" {
				add(dhcpv4.OptionUserClass, []byte(p.If.UserClass))
			}
			if p.If.VendorClass != "" {
				add(dhcpv4.OptionVendorClassID, []byte(p.If.VendorClass))
			}
			if p.Type != dhcpv4.MessageTypeInform && p.Lease != nil {
				add(dhcpv4.OptionIPLeaseTime, dhcpv4.Uint32ToBytes(p.Lease.LeaseTime))
			}
			if p.If.Hostname != "" {
				add(dhcpv4.OptionHostname, []byte(truncateAtDot(p.If.Hostname)))
			}
			if p.If.FQDN {
				flags := dhcpv4.FQDNFlag((p.If.FQDNFlags & 0x09) | 0x04)
				add(dhcpv4.OptionClientFQDN, dhcpv4.EncodeClientFQDN(flags, p.If.Hostname))
			}
		}

		add(dhcpv4.OptionParameterRequestList, buildPRL(p.RequestMask, p.Type == dhcpv4.MessageTypeInform))
	}

	m.Options = dhcpv4.BuildOptions(order, opts)
	return m
}

// truncateAtDot returns hostname up to (not including) its first dot.
func truncateAtDot(hostname string) string {
	if i := strings.IndexByte(hostname, '.'); i >= 0 {
		return hostname[:i]
	}
	return hostname
}

// buildPRL builds the parameter-request-list: the union of every
// FlagRequest-tagged table entry and the caller's requestmask, excluding
// renewal/rebinding time when inform is true.
func buildPRL(requestMask []dhcpv4.OptionCode, inform bool) []byte {
	seen := make(map[dhcpv4.OptionCode]bool)
	var codes []dhcpv4.OptionCode

	addCode := func(c dhcpv4.OptionCode) {
		if inform && (c == dhcpv4.OptionRenewalTime || c == dhcpv4.OptionRebindingTime) {
			return
		}
		if seen[c] {
			return
		}
		seen[c] = true
		codes = append(codes, c)
	}

	requestable := dhcpv4.RequestableOptions()
	sort.Slice(requestable, func(i, j int) bool { return requestable[i] < requestable[j] })
	for _, c := range requestable {
		addCode(c)
	}
	for _, c := range requestMask {
		addCode(c)
	}

	buf := make([]byte, len(codes))
	for i, c := range codes {
		buf[i] = byte(c)
	}
	return buf
}
