package dhcpclient

import (
	"net"
	"testing"
	"time"

	"github.com/mcingel/dhcpcd/internal/config"
	"github.com/mcingel/dhcpcd/pkg/dhcpv4"
)

func TestBuildDiscoverSetsMessageTypeAndPRL(t *testing.T) {
	hw := net.HardwareAddr{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	m := Build(BuildParams{
		Type:        dhcpv4.MessageTypeDiscover,
		XID:         0x1234,
		HWAddr:      hw,
		MTU:         1500,
		StartUptime: time.Now(),
		Now:         time.Now(),
	})
	if m.XID != 0x1234 {
		t.Errorf("XID = %#x, want %#x", m.XID, 0x1234)
	}
	opts, err := dhcpv4.ParseOptions(m)
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	res := opts.Lookup(dhcpv4.OptionDHCPMessageType)
	if res.Kind != dhcpv4.Present || dhcpv4.MessageType(res.Data[0]) != dhcpv4.MessageTypeDiscover {
		t.Error("expected DISCOVER message type option")
	}
	if opts.Lookup(dhcpv4.OptionParameterRequestList).Kind != dhcpv4.Present {
		t.Error("expected a parameter request list on DISCOVER")
	}
}

func TestBuildRequestCarriesCiaddrWhenUsingConfiguredAddr(t *testing.T) {
	addr := net.ParseIP("192.168.1.50").To4()
	lease := &Lease{Addr: addr, Server: net.ParseIP("192.168.1.1").To4(), Cookie: dhcpv4.MagicCookie}
	m := Build(BuildParams{
		Type:        dhcpv4.MessageTypeRequest,
		XID:         1,
		HWAddr:      net.HardwareAddr{1, 2, 3, 4, 5, 6},
		CurrentAddr: addr,
		Lease:       lease,
		StartUptime: time.Now(),
		Now:         time.Now(),
	})
	if !m.CIAddr.Equal(addr) {
		t.Errorf("CIAddr = %v, want %v", m.CIAddr, addr)
	}
	opts, _ := dhcpv4.ParseOptions(m)
	if opts.Lookup(dhcpv4.OptionRequestedIP).Kind != dhcpv4.Absent {
		t.Error("expected no requested-IP option when ciaddr already carries it")
	}
}

func TestBuildRequestWithoutConfiguredAddrUsesRequestedIPAndServerID(t *testing.T) {
	lease := &Lease{Addr: net.ParseIP("10.0.0.5").To4(), Server: net.ParseIP("10.0.0.1").To4(), Cookie: dhcpv4.MagicCookie}
	m := Build(BuildParams{
		Type:        dhcpv4.MessageTypeRequest,
		XID:         1,
		HWAddr:      net.HardwareAddr{1, 2, 3, 4, 5, 6},
		Lease:       lease,
		StartUptime: time.Now(),
		Now:         time.Now(),
	})
	opts, _ := dhcpv4.ParseOptions(m)
	if opts.Lookup(dhcpv4.OptionRequestedIP).Kind != dhcpv4.Present {
		t.Error("expected requested-IP option in an INIT-REBOOT/SELECTING REQUEST")
	}
	if opts.Lookup(dhcpv4.OptionServerIdentifier).Kind != dhcpv4.Present {
		t.Error("expected server-id option")
	}
}

func TestBuildRequestNoServerIDSuppressesOption54(t *testing.T) {
	lease := &Lease{Addr: net.ParseIP("10.0.0.5").To4(), Server: net.ParseIP("10.0.0.1").To4(), Cookie: dhcpv4.MagicCookie}
	m := Build(BuildParams{
		Type:        dhcpv4.MessageTypeRequest,
		XID:         1,
		HWAddr:      net.HardwareAddr{1, 2, 3, 4, 5, 6},
		Lease:       lease,
		NoServerID:  true,
		StartUptime: time.Now(),
		Now:         time.Now(),
	})
	opts, _ := dhcpv4.ParseOptions(m)
	if opts.Lookup(dhcpv4.OptionServerIdentifier).Kind == dhcpv4.Present {
		t.Error("expected NoServerID to suppress option 54")
	}
	if opts.Lookup(dhcpv4.OptionRequestedIP).Kind != dhcpv4.Present {
		t.Error("expected requested-IP to still be present (REBOOT carries the cached address)")
	}
}

func TestBuildHonorsBroadcastFlag(t *testing.T) {
	m := Build(BuildParams{
		Type:        dhcpv4.MessageTypeDiscover,
		XID:         1,
		HWAddr:      net.HardwareAddr{1, 2, 3, 4, 5, 6},
		If:          &config.If{Broadcast: true},
		StartUptime: time.Now(),
		Now:         time.Now(),
	})
	if m.Flags != dhcpv4.FlagBroadcast {
		t.Errorf("Flags = %#x, want broadcast flag set", m.Flags)
	}
}

func TestBuildClampsMTUOptionToValidRange(t *testing.T) {
	m := Build(BuildParams{
		Type:        dhcpv4.MessageTypeDiscover,
		XID:         1,
		HWAddr:      net.HardwareAddr{1, 2, 3, 4, 5, 6},
		MTU:         9000,
		StartUptime: time.Now(),
		Now:         time.Now(),
	})
	opts, _ := dhcpv4.ParseOptions(m)
	res := opts.Lookup(dhcpv4.OptionMaxDHCPMessageSize)
	v, err := dhcpv4.BytesToUint16(res.Data)
	if err != nil || v != 1500 {
		t.Errorf("max message size option = %d, err %v; want 1500", v, err)
	}
}
