package dhcpv4

import (
	"net"
	"testing"
)

func TestDecodeClasslessRoutesDefault(t *testing.T) {
	// 0/0 via 10.0.0.1
	data := []byte{0, 10, 0, 0, 1}
	routes, err := DecodeClasslessRoutes(data)
	if err != nil {
		t.Fatalf("DecodeClasslessRoutes error: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("got %d routes, want 1", len(routes))
	}
	if routes[0].Bits != 0 || !routes[0].Dest.Equal(net.IPv4(0, 0, 0, 0)) {
		t.Errorf("route = %+v, want default", routes[0])
	}
	if !routes[0].Gateway.Equal(net.IPv4(10, 0, 0, 1)) {
		t.Errorf("gateway = %s", routes[0].Gateway)
	}
}

func TestDecodeClasslessRoutesPartialOctets(t *testing.T) {
	// /24 to 192.168.1.0 via 10.0.0.1: only 3 significant dest octets.
	data := []byte{24, 192, 168, 1, 10, 0, 0, 1}
	routes, err := DecodeClasslessRoutes(data)
	if err != nil {
		t.Fatalf("DecodeClasslessRoutes error: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("got %d routes, want 1", len(routes))
	}
	if routes[0].Bits != 24 || !routes[0].Dest.Equal(net.IPv4(192, 168, 1, 0)) {
		t.Errorf("route = %+v", routes[0])
	}
}

func TestDecodeClasslessRoutesMultiple(t *testing.T) {
	data := []byte{
		0, 10, 0, 0, 1,
		16, 172, 16, 172, 16, 0, 2,
	}
	routes, err := DecodeClasslessRoutes(data)
	if err != nil {
		t.Fatalf("DecodeClasslessRoutes error: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("got %d routes, want 2", len(routes))
	}
	if routes[1].Bits != 16 || !routes[1].Dest.Equal(net.IPv4(172, 16, 0, 0)) {
		t.Errorf("route[1] = %+v", routes[1])
	}
}

func TestDecodeClasslessRoutesInvalidWidth(t *testing.T) {
	data := []byte{33, 1, 2, 3, 4, 10, 0, 0, 1}
	if _, err := DecodeClasslessRoutes(data); err == nil {
		t.Error("expected error for width > 32")
	}
}

func TestDecodeClasslessRoutesTruncated(t *testing.T) {
	data := []byte{24, 192, 168}
	if _, err := DecodeClasslessRoutes(data); err == nil {
		t.Error("expected error for truncated entry")
	}
}

func TestEncodeDecodeClasslessRoutesRoundTrip(t *testing.T) {
	routes := []CIDRRoute{
		{Dest: net.IPv4(0, 0, 0, 0), Bits: 0, Gateway: net.IPv4(10, 0, 0, 1)},
		{Dest: net.IPv4(192, 168, 1, 0), Bits: 24, Gateway: net.IPv4(10, 0, 0, 2)},
	}
	buf := EncodeClasslessRoutes(routes)
	got, err := DecodeClasslessRoutes(buf)
	if err != nil {
		t.Fatalf("round-trip decode error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d routes, want 2", len(got))
	}
	for i := range routes {
		if got[i].Bits != routes[i].Bits || !got[i].Dest.Equal(routes[i].Dest) || !got[i].Gateway.Equal(routes[i].Gateway) {
			t.Errorf("route[%d] = %+v, want %+v", i, got[i], routes[i])
		}
	}
}

func TestInferLegacyRoutesStaticAndRouters(t *testing.T) {
	staticPairs := []net.IP{net.IPv4(192, 168, 1, 5), net.IPv4(10, 0, 0, 1)}
	routers := []net.IP{net.IPv4(192, 168, 1, 1)}

	routes := InferLegacyRoutes(staticPairs, routers)
	if len(routes) != 2 {
		t.Fatalf("got %d routes, want 2", len(routes))
	}
	if routes[0].Bits != 24 || !routes[0].Dest.Equal(net.IPv4(192, 168, 1, 0)) {
		t.Errorf("static route = %+v", routes[0])
	}
	if routes[1].Bits != 0 || !routes[1].Dest.Equal(net.IPv4(0, 0, 0, 0)) {
		t.Errorf("router route = %+v, want default", routes[1])
	}
}

func TestClassfulBits(t *testing.T) {
	tests := []struct {
		ip   net.IP
		want int
	}{
		{net.IPv4(10, 0, 0, 1), 8},
		{net.IPv4(172, 16, 0, 1), 16},
		{net.IPv4(192, 168, 1, 1), 24},
	}
	for _, tt := range tests {
		if got := classfulBits(tt.ip); got != tt.want {
			t.Errorf("classfulBits(%s) = %d, want %d", tt.ip, got, tt.want)
		}
	}
}
