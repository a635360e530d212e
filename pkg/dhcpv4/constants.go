// Package dhcpv4 provides the DHCPv4 wire format: fixed message layout,
// option codes, and the typed option codec (RFC 2131, RFC 2132 and the
// long-option / overload / classless-route extensions).
package dhcpv4

import "net"

// MessageType is the value of option 53 (RFC 2131 §9.6).
type MessageType byte

const (
	MessageTypeDiscover MessageType = 1 // DHCPDISCOVER
	MessageTypeOffer    MessageType = 2 // DHCPOFFER
	MessageTypeRequest  MessageType = 3 // DHCPREQUEST
	MessageTypeDecline  MessageType = 4 // DHCPDECLINE
	MessageTypeAck      MessageType = 5 // DHCPACK
	MessageTypeNak      MessageType = 6 // DHCPNAK
	MessageTypeRelease  MessageType = 7 // DHCPRELEASE
	MessageTypeInform   MessageType = 8 // DHCPINFORM
)

func (m MessageType) String() string {
	switch m {
	case MessageTypeDiscover:
		return "DHCPDISCOVER"
	case MessageTypeOffer:
		return "DHCPOFFER"
	case MessageTypeRequest:
		return "DHCPREQUEST"
	case MessageTypeDecline:
		return "DHCPDECLINE"
	case MessageTypeAck:
		return "DHCPACK"
	case MessageTypeNak:
		return "DHCPNAK"
	case MessageTypeRelease:
		return "DHCPRELEASE"
	case MessageTypeInform:
		return "DHCPINFORM"
	default:
		return "UNKNOWN"
	}
}

// OpCode is the DHCP message op field (RFC 2131 §2).
type OpCode byte

const (
	OpBootRequest OpCode = 1
	OpBootReply   OpCode = 2
)

// HardwareType is the RFC 1700 hardware type carried in htype.
type HardwareType byte

const (
	HardwareTypeEthernet HardwareType = 1
)

// OptionCode identifies a DHCP/BOOTP option (RFC 2132 and extensions).
type OptionCode byte

const (
	OptionPad                    OptionCode = 0
	OptionSubnetMask             OptionCode = 1
	OptionTimeOffset             OptionCode = 2
	OptionRouter                 OptionCode = 3
	OptionTimeServer             OptionCode = 4
	OptionNameServer             OptionCode = 5
	OptionDomainNameServer       OptionCode = 6
	OptionLogServer              OptionCode = 7
	OptionCookieServer           OptionCode = 8
	OptionLPRServer              OptionCode = 9
	OptionImpressServer          OptionCode = 10
	OptionResourceLocationServer OptionCode = 11
	OptionHostname               OptionCode = 12
	OptionBootFileSize           OptionCode = 13
	OptionMeritDumpFile          OptionCode = 14
	OptionDomainName             OptionCode = 15
	OptionSwapServer             OptionCode = 16
	OptionRootPath               OptionCode = 17
	OptionExtensionsPath         OptionCode = 18
	OptionIPForwarding           OptionCode = 19
	OptionNonLocalSourceRouting  OptionCode = 20
	OptionPolicyFilter           OptionCode = 21
	OptionMaxDatagramReassembly  OptionCode = 22
	OptionDefaultIPTTL           OptionCode = 23
	OptionPathMTUAgingTimeout    OptionCode = 24
	OptionPathMTUPlateauTable    OptionCode = 25
	OptionInterfaceMTU           OptionCode = 26
	OptionAllSubnetsLocal        OptionCode = 27
	OptionBroadcastAddress       OptionCode = 28
	OptionPerformMaskDiscovery   OptionCode = 29
	OptionMaskSupplier           OptionCode = 30
	OptionPerformRouterDiscovery OptionCode = 31
	OptionRouterSolicitAddr      OptionCode = 32
	OptionStaticRoute            OptionCode = 33
	OptionTrailerEncapsulation   OptionCode = 34
	OptionARPCacheTimeout        OptionCode = 35
	OptionEthernetEncapsulation  OptionCode = 36
	OptionTCPDefaultTTL          OptionCode = 37
	OptionTCPKeepaliveInterval   OptionCode = 38
	OptionTCPKeepaliveGarbage    OptionCode = 39
	OptionNISDomain              OptionCode = 40
	OptionNISServers             OptionCode = 41
	OptionNTPServers             OptionCode = 42
	OptionVendorSpecific         OptionCode = 43
	OptionNetBIOSNameServer      OptionCode = 44
	OptionNetBIOSDatagramDist    OptionCode = 45
	OptionNetBIOSNodeType        OptionCode = 46
	OptionNetBIOSScope           OptionCode = 47
	OptionXWindowFontServer      OptionCode = 48
	OptionXWindowDisplayManager  OptionCode = 49
	OptionRequestedIP            OptionCode = 50
	OptionIPLeaseTime            OptionCode = 51
	OptionOverload               OptionCode = 52
	OptionDHCPMessageType        OptionCode = 53
	OptionServerIdentifier       OptionCode = 54
	OptionParameterRequestList   OptionCode = 55
	OptionMessage                OptionCode = 56
	OptionMaxDHCPMessageSize     OptionCode = 57
	OptionRenewalTime            OptionCode = 58
	OptionRebindingTime          OptionCode = 59
	OptionVendorClassID          OptionCode = 60
	OptionClientIdentifier       OptionCode = 61
	OptionNetWareIPDomain        OptionCode = 62
	OptionNetWareIPOption        OptionCode = 63
	OptionNISPlusDomain          OptionCode = 64
	OptionNISPlusServers         OptionCode = 65
	OptionTFTPServerName         OptionCode = 66
	OptionBootfileName           OptionCode = 67
	OptionMobileIPHomeAgent      OptionCode = 68
	OptionSMTPServer             OptionCode = 69
	OptionPOP3Server             OptionCode = 70
	OptionNNTPServer             OptionCode = 71
	OptionWWWServer              OptionCode = 72
	OptionFingerServer           OptionCode = 73
	OptionIRCServer              OptionCode = 74
	OptionStreetTalkServer       OptionCode = 75
	OptionSTDAServer             OptionCode = 76
	OptionUserClass              OptionCode = 77
	OptionSIPServers             OptionCode = 120 // RFC 3361
	OptionClientFQDN             OptionCode = 81  // RFC 4702
	OptionRelayAgentInfo         OptionCode = 82
	OptionDomainSearch           OptionCode = 119 // RFC 3397
	OptionSubnetSelection        OptionCode = 118
	OptionClasslessStaticRoute   OptionCode = 121 // RFC 3442
	OptionVIVendorClass          OptionCode = 124
	OptionVIVendorSpecific       OptionCode = 125
	OptionClasslessStaticRouteMS OptionCode = 249 // Microsoft variant of 121
	OptionSixRD                  OptionCode = 212 // RFC 5969
	OptionTFTPServerAddress      OptionCode = 150
	OptionEnd                    OptionCode = 255
)

// DHCP packet size limits (RFC 2131 §2).
const (
	BootpMinPacketSize = 300  // minimum BOOTP packet, padded if options are shorter
	MaxPacketSize      = 1500 // Ethernet MTU ceiling for a DHCP message
	DefaultMaxMsgSize  = 576  // RFC 2131 §2 default maximum message size
)

// DHCP UDP ports (RFC 2131 §4).
const (
	ServerPort = 67
	ClientPort = 68
)

// MagicCookie is the 4-byte marker (RFC 2131 §3) that separates the fixed
// BOOTP header from the options trailer.
var MagicCookie = [4]byte{99, 130, 83, 99}

// Well-known addresses used throughout the client.
var (
	BroadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	BroadcastIP  = net.IPv4bcast
	ZeroIP       = net.IPv4zero
)

// MinLease is the floor a server-advertised lease time is clamped to
// (§3 "leasetime ≥ DHCP_MIN_LEASE").
const MinLease = 20

// InfiniteLease is the all-ones u32 lease time meaning "never expires".
const InfiniteLease uint32 = 0xffffffff
