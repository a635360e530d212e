package ioadapter

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func TestBuildEtherFrameRoundTrips(t *testing.T) {
	src := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	dst := net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	srcIP := net.IPv4(0, 0, 0, 0)
	dstIP := net.IPv4(255, 255, 255, 255)
	payload := []byte("hello dhcp")

	frame, err := buildEtherFrame(src, dst, srcIP, dstIP, payload)
	if err != nil {
		t.Fatalf("buildEtherFrame: %v", err)
	}

	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
	udpLayer := pkt.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		t.Fatal("expected a UDP layer in the built frame")
	}
	udp := udpLayer.(*layers.UDP)
	if string(udp.Payload) != string(payload) {
		t.Errorf("payload = %q, want %q", udp.Payload, payload)
	}

	ipLayer := pkt.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		t.Fatal("expected an IPv4 layer in the built frame")
	}
	ip4 := ipLayer.(*layers.IPv4)
	if !ip4.SrcIP.Equal(srcIP) || !ip4.DstIP.Equal(dstIP) {
		t.Errorf("IPv4 src/dst = %v/%v, want %v/%v", ip4.SrcIP, ip4.DstIP, srcIP, dstIP)
	}
}

func TestIPv4ChecksumOK(t *testing.T) {
	src := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	dst := net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	frame, err := buildEtherFrame(src, dst, net.IPv4(10, 0, 0, 1), net.IPv4(10, 0, 0, 2), []byte("x"))
	if err != nil {
		t.Fatalf("buildEtherFrame: %v", err)
	}
	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
	ipLayer := pkt.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		t.Fatal("expected an IPv4 layer")
	}
	raw := ipLayer.(*layers.IPv4).Contents
	if !ipv4ChecksumOK(raw) {
		t.Error("expected a freshly computed IPv4 header checksum to validate")
	}
}

func TestIPv4ChecksumOKRejectsShortHeader(t *testing.T) {
	if ipv4ChecksumOK(make([]byte, 10)) {
		t.Error("expected a too-short header to fail validation")
	}
}
