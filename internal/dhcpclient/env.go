package dhcpclient

import (
	"fmt"
	"net"
	"strings"

	"github.com/mcingel/dhcpcd/pkg/dhcpv4"
)

// FlattenEnv produces the hook environment key/value pairs for a bound
// interface (§4.6/§6): the fixed lease fields, then one entry per decoded
// option using its canonical variable name, with unrecognized-but-present
// options exported generically.
func FlattenEnv(m *dhcpv4.Message, opts dhcpv4.DecodedOptions, lease *Lease) []string {
	var env []string
	add := func(k, v string) { env = append(env, k+"="+v) }

	if lease != nil {
		add("ip_address", lease.Addr.String())
		add("subnet_mask", net.IP(lease.Net).String())
		ones, _ := lease.Net.Size()
		add("subnet_cidr", fmt.Sprintf("%d", ones))
		add("broadcast_address", lease.Brd.String())
		network := lease.Addr.Mask(lease.Net)
		add("network_number", network.String())
	}
	add("filename", nullTerminated(m.File[:]))
	add("server_name", nullTerminated(m.SName[:]))

	for code, raw := range opts {
		def := dhcpv4.LookupOptionDef(code)
		if def == nil {
			add(fmt.Sprintf("dhcp_option_%d", code), formatUnknown(raw))
			continue
		}
		res := opts.Lookup(code)
		if res.Kind != dhcpv4.Present {
			continue
		}
		add(def.Name, formatOption(code, def.Flags, res.Data))
	}

	return env
}

func nullTerminated(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func formatUnknown(raw []byte) string {
	return fmt.Sprintf("%x", raw)
}

func formatOption(code dhcpv4.OptionCode, flags dhcpv4.OptionFlag, data []byte) string {
	switch {
	case code == dhcpv4.OptionClientFQDN:
		if len(data) > 3 {
			return string(data[3:])
		}
		return ""
	case code == dhcpv4.OptionClasslessStaticRoute, code == dhcpv4.OptionClasslessStaticRouteMS:
		routes, err := dhcpv4.DecodeClasslessRoutes(data)
		if err != nil {
			return ""
		}
		parts := make([]string, len(routes))
		for i, r := range routes {
			parts[i] = fmt.Sprintf("%s/%d %s", r.Dest, r.Bits, r.Gateway)
		}
		return strings.Join(parts, " ")
	case flags.Has(dhcpv4.FlagAddrIPv4) && flags.Has(dhcpv4.FlagArray):
		ips := dhcpv4.BytesToIPList(data)
		parts := make([]string, len(ips))
		for i, ip := range ips {
			parts[i] = ip.String()
		}
		return strings.Join(parts, " ")
	case flags.Has(dhcpv4.FlagAddrIPv4):
		return dhcpv4.BytesToIP(data).String()
	case flags.Has(dhcpv4.FlagString):
		return string(data)
	case flags.Has(dhcpv4.FlagUint32):
		v, err := dhcpv4.BytesToUint32(data)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%d", v)
	case flags.Has(dhcpv4.FlagUint16):
		v, err := dhcpv4.BytesToUint16(data)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%d", v)
	case flags.Has(dhcpv4.FlagUint8) && flags.Has(dhcpv4.FlagArray):
		parts := make([]string, len(data))
		for i, b := range data {
			parts[i] = fmt.Sprintf("%d", b)
		}
		return strings.Join(parts, " ")
	case flags.Has(dhcpv4.FlagUint8):
		if len(data) == 0 {
			return ""
		}
		return fmt.Sprintf("%d", data[0])
	default:
		return formatUnknown(data)
	}
}
